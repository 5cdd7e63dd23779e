package files

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"surveyprep/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPaths(tmpDir string) *config.Paths {
	return &config.Paths{
		BaseDir:    tmpDir,
		DataDir:    tmpDir,
		ExportsDir: filepath.Join(tmpDir, "exports"),
		ChartsDir:  filepath.Join(tmpDir, "charts"),
		LogsDir:    filepath.Join(tmpDir, "logs"),
	}
}

func TestNewManager(t *testing.T) {
	paths := testPaths("/test/base")
	manager := NewManager(paths)
	assert.NotNil(t, manager)
	assert.Equal(t, paths, manager.paths)
}

func TestValidateDatasetName(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		wantErr bool
	}{
		{"csv", "survey.csv", false},
		{"xlsx", "wave_2.xlsx", false},
		{"plain name", "respondents", false},
		{"empty", "", true},
		{"traversal", "../secrets.csv", true},
		{"slash", "data/survey.csv", true},
		{"backslash", `data\survey.csv`, true},
		{"too long", strings.Repeat("a", 256), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDatasetName(tt.value)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSaveUpload(t *testing.T) {
	t.Run("writes content into data directory", func(t *testing.T) {
		tmpDir := t.TempDir()
		manager := NewManager(testPaths(tmpDir))

		content := "region,age\nnorth,34\nsouth,41\n"
		written, err := manager.SaveUpload("survey.csv", strings.NewReader(content))
		require.NoError(t, err)
		assert.Equal(t, int64(len(content)), written)

		saved, err := os.ReadFile(filepath.Join(tmpDir, "survey.csv"))
		require.NoError(t, err)
		assert.Equal(t, content, string(saved))
	})

	t.Run("leaves no temporary files behind", func(t *testing.T) {
		tmpDir := t.TempDir()
		manager := NewManager(testPaths(tmpDir))

		_, err := manager.SaveUpload("survey.csv", strings.NewReader("a,b\n1,2\n"))
		require.NoError(t, err)

		entries, err := os.ReadDir(tmpDir)
		require.NoError(t, err)
		for _, entry := range entries {
			assert.False(t, strings.HasPrefix(entry.Name(), ".upload-"),
				"temporary file %s not cleaned up", entry.Name())
		}
	})

	t.Run("overwrites existing dataset", func(t *testing.T) {
		tmpDir := t.TempDir()
		manager := NewManager(testPaths(tmpDir))

		_, err := manager.SaveUpload("survey.csv", strings.NewReader("old"))
		require.NoError(t, err)
		_, err = manager.SaveUpload("survey.csv", strings.NewReader("new"))
		require.NoError(t, err)

		saved, err := os.ReadFile(filepath.Join(tmpDir, "survey.csv"))
		require.NoError(t, err)
		assert.Equal(t, "new", string(saved))
	})

	t.Run("rejects traversal names", func(t *testing.T) {
		tmpDir := t.TempDir()
		manager := NewManager(testPaths(tmpDir))

		_, err := manager.SaveUpload("../escape.csv", strings.NewReader("x"))
		assert.Error(t, err)
	})
}

func TestDeleteDataset(t *testing.T) {
	t.Run("removes existing dataset", func(t *testing.T) {
		tmpDir := t.TempDir()
		manager := NewManager(testPaths(tmpDir))

		path := filepath.Join(tmpDir, "survey.csv")
		require.NoError(t, os.WriteFile(path, []byte("a,b\n"), 0644))

		require.NoError(t, manager.DeleteDataset("survey.csv"))
		_, err := os.Stat(path)
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("rejects traversal names", func(t *testing.T) {
		manager := NewManager(testPaths(t.TempDir()))
		assert.Error(t, manager.DeleteDataset("../survey.csv"))
	})

	t.Run("errors on missing dataset", func(t *testing.T) {
		manager := NewManager(testPaths(t.TempDir()))
		assert.Error(t, manager.DeleteDataset("absent.csv"))
	})
}

func TestFileExists(t *testing.T) {
	tmpDir := t.TempDir()
	manager := NewManager(testPaths(tmpDir))

	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "present.txt"), []byte("x"), 0644))

	assert.True(t, manager.FileExists("present.txt"))
	assert.False(t, manager.FileExists("absent.txt"))
	assert.True(t, manager.FileExists(filepath.Join(tmpDir, "present.txt")), "absolute paths pass through")
}

func TestCopyFile(t *testing.T) {
	tests := []struct {
		name       string
		srcContent string
	}{
		{"simple text file", "Hello, World!"},
		{"binary content", "\x00\x01\x02\x03\xFF"},
		{"empty file", ""},
		{"large content", strings.Repeat("Large content test. ", 1000)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpDir := t.TempDir()
			manager := NewManager(testPaths(tmpDir))

			srcPath := filepath.Join(tmpDir, "source.txt")
			require.NoError(t, os.WriteFile(srcPath, []byte(tt.srcContent), 0644))

			err := manager.CopyFile(srcPath, "copied_file.txt")
			require.NoError(t, err)

			copied, err := os.ReadFile(filepath.Join(tmpDir, "copied_file.txt"))
			require.NoError(t, err)
			assert.Equal(t, tt.srcContent, string(copied))
		})
	}
}

func TestMoveFile(t *testing.T) {
	tmpDir := t.TempDir()
	manager := NewManager(testPaths(tmpDir))

	srcPath := filepath.Join(tmpDir, "source_move.txt")
	require.NoError(t, os.WriteFile(srcPath, []byte("move me"), 0644))

	err := manager.MoveFile(srcPath, "subdir/moved_file.txt")
	require.NoError(t, err)

	_, err = os.Stat(srcPath)
	assert.True(t, os.IsNotExist(err), "source file should not exist after move")

	moved, err := os.ReadFile(filepath.Join(tmpDir, "subdir", "moved_file.txt"))
	require.NoError(t, err)
	assert.Equal(t, "move me", string(moved))
}

func TestReadWriteFile(t *testing.T) {
	tmpDir := t.TempDir()
	manager := NewManager(testPaths(tmpDir))

	content := []byte("region,income\nnorth,1200.50\n")
	require.NoError(t, manager.WriteFile("written.csv", content))

	read, err := manager.ReadFile("written.csv")
	require.NoError(t, err)
	assert.Equal(t, content, read)

	size, err := manager.GetFileSize("written.csv")
	require.NoError(t, err)
	assert.Equal(t, int64(len(content)), size)
}

func TestListFiles(t *testing.T) {
	tmpDir := t.TempDir()
	manager := NewManager(testPaths(tmpDir))

	testDir := "test_list_dir"
	fullTestDir := filepath.Join(tmpDir, testDir)
	require.NoError(t, os.MkdirAll(fullTestDir, 0755))

	for _, file := range []string{"file1.txt", "file2.csv"} {
		require.NoError(t, os.WriteFile(filepath.Join(fullTestDir, file), []byte("test"), 0644))
	}
	require.NoError(t, os.MkdirAll(filepath.Join(fullTestDir, "subdir"), 0755))

	files, err := manager.ListFiles(testDir)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"file1.txt", "file2.csv"}, files)
}

func TestPathResolution(t *testing.T) {
	tmpDir := t.TempDir()
	paths := testPaths(tmpDir)
	manager := NewManager(paths)

	tests := []struct {
		name      string
		inputPath string
		expected  string
	}{
		{"exports prefix", "exports/run_1.csv", filepath.Join(paths.ExportsDir, "run_1.csv")},
		{"charts prefix", "charts/histogram.html", filepath.Join(paths.ChartsDir, "histogram.html")},
		{"logs prefix", "logs/app.log", filepath.Join(paths.LogsDir, "app.log")},
		{"absolute path", "/absolute/path/file.txt", "/absolute/path/file.txt"},
		{"default data directory", "survey.csv", filepath.Join(paths.DataDir, "survey.csv")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, manager.resolvePath(tt.inputPath))
		})
	}
}

func TestConcurrentFileOperations(t *testing.T) {
	tmpDir := t.TempDir()
	manager := NewManager(testPaths(tmpDir))

	const numGoroutines = 10
	var wg sync.WaitGroup

	wg.Add(numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		go func(id int) {
			defer wg.Done()

			filename := fmt.Sprintf("concurrent_%d.txt", id)
			err := manager.WriteFile(filename, []byte(fmt.Sprintf("Content for file %d", id)))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	for i := 0; i < numGoroutines; i++ {
		assert.True(t, manager.FileExists(fmt.Sprintf("concurrent_%d.txt", i)))
	}
}

func TestManagerErrorHandling(t *testing.T) {
	manager := NewManager(testPaths(t.TempDir()))

	t.Run("read non-existent file", func(t *testing.T) {
		_, err := manager.ReadFile("non_existent.txt")
		assert.Error(t, err)
	})

	t.Run("copy non-existent source", func(t *testing.T) {
		assert.Error(t, manager.CopyFile("non_existent.txt", "destination.txt"))
	})

	t.Run("move non-existent source", func(t *testing.T) {
		assert.Error(t, manager.MoveFile("non_existent.txt", "destination.txt"))
	})

	t.Run("get size of non-existent file", func(t *testing.T) {
		_, err := manager.GetFileSize("non_existent.txt")
		assert.Error(t, err)
	})

	t.Run("list files in non-existent directory", func(t *testing.T) {
		_, err := manager.ListFiles("non_existent_dir")
		assert.Error(t, err)
	})
}

// Disable slog output during tests to reduce noise
func init() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError,
	})))
}
