// Package files provides file system operations and discovery for the
// survey data preparation service.
//
// This package contains two main components:
//
// Discovery: Finds dataset files (CSV and Excel) and files matching
// specific patterns under a base directory, with helpers for picking
// the most recently modified file.
//
// Manager: Provides file management operations such as copying, moving,
// deleting files, and ensuring directories exist. Relative paths resolve
// against the configured path set, and dataset names are validated so a
// request can never escape the data directory.
//
// Example usage:
//
//	// Create a discovery instance
//	discovery := files.NewDiscovery("/path/to/base")
//
//	// Find all dataset files
//	datasets, err := discovery.FindDatasetFiles("data")
//
//	// Create a manager instance
//	manager := files.NewManager(paths)
//
//	// Check if file exists
//	if manager.FileExists("survey.csv") {
//	    // Process file
//	}
package files
