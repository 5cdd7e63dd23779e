package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"gopkg.in/yaml.v2"

	"surveyprep/internal/config"
	"surveyprep/internal/estimator"
	"surveyprep/internal/exporter"
	"surveyprep/internal/ingest"
	"surveyprep/internal/pipeline"
	"surveyprep/internal/report"
	"surveyprep/internal/validation"
	"surveyprep/pkg/contracts/domain"
)

func main() {
	inputFile := flag.String("input", "", "survey dataset to prepare (.csv or .xlsx)")
	configFile := flag.String("config", "", "YAML cleaning configuration (imputation, outlier, validation rule)")
	outputDir := flag.String("out", "data", "output directory for run artifacts")
	weightCol := flag.String("weight", "", "design weight column for estimation")
	varCol := flag.String("var", "", "analysis variable to estimate (enables estimation)")
	var2Col := flag.String("var2", "", "second analysis variable to estimate")
	withCharts := flag.Bool("charts", true, "write the HTML chart page for the cleaned table")
	flag.Parse()

	if *inputFile == "" {
		fmt.Fprintln(os.Stderr, "Usage: pipeline -input survey.csv [-config cleaning.yaml] [-weight design_weight -var income [-var2 age]] [-out dir]")
		fmt.Fprintln(os.Stderr)
		flag.PrintDefaults()
		os.Exit(1)
	}

	logger := slog.Default()
	validator := validation.NewFileValidator(logger)

	if err := validator.ValidateDatasetFile(*inputFile); err != nil {
		slog.Error("Input dataset rejected",
			"error", err,
			"hint", "Pass a readable .csv or .xlsx survey file")
		os.Exit(1)
	}

	// An absent config file disables every cleaning stage, leaving a
	// straight type-coercion run.
	var cleaningCfg domain.CleaningConfig
	if *configFile != "" {
		if err := validator.ValidateConfigFile(*configFile); err != nil {
			slog.Error("Cleaning config rejected", "error", err)
			os.Exit(1)
		}
		raw, err := os.ReadFile(*configFile)
		if err != nil {
			slog.Error("Failed to read cleaning config", "path", *configFile, "error", err)
			os.Exit(1)
		}
		if err := yaml.Unmarshal(raw, &cleaningCfg); err != nil {
			slog.Error("Failed to parse cleaning config", "path", *configFile, "error", err)
			os.Exit(1)
		}
	}

	if err := validator.ValidateOutputDirectory(*outputDir); err != nil {
		slog.Error("Output directory rejected", "error", err)
		os.Exit(1)
	}
	paths := config.NewPaths(*outputDir)
	if err := paths.EnsureDirectories(); err != nil {
		slog.Error("Failed to prepare output directories", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	slog.Info("Loading dataset", "path", *inputFile)
	tbl, err := ingest.Load(ctx, *inputFile)
	if err != nil {
		slog.Error("Failed to load dataset", "error", err)
		os.Exit(1)
	}
	if tbl.Len() == 0 {
		slog.Error("Dataset has no data rows", "path", *inputFile)
		os.Exit(1)
	}

	manager := pipeline.NewManager(nil, logger)
	result, err := manager.Execute(ctx, pipeline.Request{
		Dataset: filepath.Base(*inputFile),
		Table:   tbl,
		Config:  cleaningCfg,
	})
	if err != nil {
		slog.Error("Preparation run failed", "error", err)
		os.Exit(1)
	}
	summary := result.Summary

	fmt.Println()
	fmt.Printf("=== Run %s ===\n", summary.ID)
	for _, line := range summary.Log {
		fmt.Println(line)
	}

	runExporter := exporter.NewRunExporter(paths)
	cleanedPath := paths.ExportPath(exporter.CleanedFilename(summary.ID))
	if err := runExporter.ExportCleanedTable(result.Table, cleanedPath); err != nil {
		slog.Error("Failed to write cleaned table", "error", err)
		os.Exit(1)
	}
	logPath := paths.ExportPath(exporter.LogFilename(summary.ID))
	if err := runExporter.ExportRunLog(summary, logPath); err != nil {
		slog.Error("Failed to write run log", "error", err)
		os.Exit(1)
	}
	artifacts := []string{cleanedPath, logPath}

	mapping := domain.SchemaMapping{
		Weight:       *weightCol,
		AnalysisVar1: *varCol,
		AnalysisVar2: *var2Col,
	}
	if *varCol != "" || *var2Col != "" {
		est := estimator.New(logger)
		estimates, err := est.EstimateAll(ctx, result.Table, mapping)
		if err != nil {
			slog.Error("Estimation failed",
				"error", err,
				"hint", "Map both -weight and -var to columns of the cleaned table")
			os.Exit(1)
		}

		fmt.Println()
		fmt.Println(renderEstimates(estimates))

		estimatesPath := paths.ExportPath(exporter.EstimatesFilename(summary.ID))
		if err := runExporter.ExportEstimates(estimates, estimatesPath); err != nil {
			slog.Error("Failed to write estimates", "error", err)
			os.Exit(1)
		}
		artifacts = append(artifacts, estimatesPath)
	}

	if *withCharts {
		generator := report.NewGenerator(paths, logger)
		chartPath, err := generator.WriteRunCharts(result.Table, mapping.AnalysisVariables(), summary.ID)
		if err != nil {
			slog.Error("Failed to write charts", "error", err)
			os.Exit(1)
		}
		artifacts = append(artifacts, chartPath)
	}

	fmt.Println()
	fmt.Println("=== Preparation Summary ===")
	fmt.Printf("Dataset:          %s\n", summary.Dataset)
	fmt.Printf("Status:           %s\n", summary.Status)
	fmt.Printf("Rows in / out:    %d / %d\n", summary.RowsIn, summary.RowsOut)
	fmt.Printf("Cells imputed:    %d\n", summary.Imputed)
	fmt.Printf("Outliers flagged: %d\n", summary.Outliers)
	fmt.Println()
	fmt.Println("Artifacts:")
	for _, path := range artifacts {
		fmt.Printf("  %s\n", path)
	}
}

// renderEstimates formats the estimate results as one table, two rows per
// analysis variable (the unweighted branch above the weighted one).
// Floats render with two decimals to match the CSV artifact.
func renderEstimates(results []domain.EstimateResult) string {
	t := table.NewWriter()
	t.SetTitle("Survey Estimates")
	t.AppendHeader(table.Row{"Variable", "Branch", "N", "Mean", "MoE", "Total"})
	for _, r := range results {
		t.AppendRows([]table.Row{
			{r.Variable, "unweighted", r.Unweighted.Count, formatStat(r.Unweighted.Mean), formatStat(r.Unweighted.MoE), formatStat(r.Unweighted.Total)},
			{r.Variable, "weighted", r.Weighted.Count, formatStat(r.Weighted.Mean), formatStat(r.Weighted.MoE), formatStat(r.Weighted.Total)},
		})
	}
	t.SetStyle(table.StyleDefault)
	return t.Render()
}

func formatStat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
