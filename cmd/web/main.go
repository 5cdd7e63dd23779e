package main

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"surveyprep/internal/app"
)

func main() {
	// Optional .env file for local development; environment variables
	// set in the shell still win inside config.Load.
	if err := godotenv.Load(); err == nil {
		slog.Info("Loaded environment overrides from .env")
	}

	application, err := app.NewApplication()
	if err != nil {
		slog.Error("Failed to initialize application", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := application.Run(); err != nil {
		slog.Error("Application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
