package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Paths holds every file system location the application touches. It is
// the single source of truth for paths; nothing else joins directories
// by hand.
type Paths struct {
	BaseDir    string
	DataDir    string
	ExportsDir string
	ChartsDir  string
	LogsDir    string
}

// NewPaths builds the path set rooted at an explicit base directory.
func NewPaths(baseDir string) *Paths {
	return &Paths{
		BaseDir:    baseDir,
		DataDir:    filepath.Join(baseDir, DefaultDataDir),
		ExportsDir: filepath.Join(baseDir, DefaultExportsDir),
		ChartsDir:  filepath.Join(baseDir, DefaultChartsDir),
		LogsDir:    filepath.Join(baseDir, DefaultLogsDir),
	}
}

// GetPaths returns the path set rooted at the executable directory.
// Resolution never depends on the working directory, so the layout is
// identical no matter where the binary is launched from.
func GetPaths() (*Paths, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("get executable path: %w", err)
	}
	exe, err = filepath.EvalSymlinks(exe)
	if err != nil {
		return nil, fmt.Errorf("resolve executable symlinks: %w", err)
	}
	return NewPaths(filepath.Dir(exe)), nil
}

// EnsureDirectories creates every directory in the path set.
func (p *Paths) EnsureDirectories() error {
	directories := []string{
		p.DataDir,
		p.ExportsDir,
		p.ChartsDir,
		p.LogsDir,
	}
	for _, dir := range directories {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

// DatasetPath returns the location of an uploaded dataset file.
func (p *Paths) DatasetPath(filename string) string {
	return filepath.Join(p.DataDir, filename)
}

// ExportPath returns the location of a generated export file.
func (p *Paths) ExportPath(filename string) string {
	return filepath.Join(p.ExportsDir, filename)
}

// ChartPath returns the location of a rendered chart file.
func (p *Paths) ChartPath(filename string) string {
	return filepath.Join(p.ChartsDir, filename)
}

// LogPath returns the location of a log file.
func (p *Paths) LogPath(filename string) string {
	return filepath.Join(p.LogsDir, filename)
}

// FileExists reports whether a file exists at path.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}
