package formatter

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tordrt/dbinspect/internal/schema"
	"go.yaml.in/yaml/v3"
)

const (
	formatJSON = "json"
	formatYAML = "yaml"

	filePrefix     = "database_structure_"
	fileTimeLayout = "20060102_150405"
)

// FileFormatter writes a report to a timestamped file in a directory
type FileFormatter struct {
	OutputDir    string
	OutputFormat string // "json" or "yaml"
	Now          func() time.Time
}

// NewFileFormatter creates a new file formatter
func NewFileFormatter(outputDir, format string) *FileFormatter {
	return &FileFormatter{
		OutputDir:    outputDir,
		OutputFormat: format,
		Now:          time.Now,
	}
}

// Filename returns the name of the file written for a run started at t
func (f *FileFormatter) Filename(t time.Time) string {
	return filePrefix + t.Format(fileTimeLayout) + f.getFileExtension()
}

// Format writes the report and returns the path of the created file
func (f *FileFormatter) Format(r *schema.DatabaseReport) (string, error) {
	if f.OutputFormat != formatJSON && f.OutputFormat != formatYAML {
		return "", fmt.Errorf("invalid file format: %s (must be 'json' or 'yaml')", f.OutputFormat)
	}

	dir := f.OutputDir
	if dir == "" {
		dir = "."
	}
	// Create output directory if it doesn't exist
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	now := time.Now
	if f.Now != nil {
		now = f.Now
	}
	filename := filepath.Join(dir, f.Filename(now()))

	if err := writeFile(filename, func(w io.Writer) error { return f.encode(w, r) }); err != nil {
		return "", err
	}

	return filename, nil
}

// writeFile creates path and fills it with write. A partly written file is removed.
func writeFile(path string, write func(io.Writer) error) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}

	if err := write(file); err != nil {
		_ = file.Close()
		_ = os.Remove(path)
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := file.Close(); err != nil {
		_ = os.Remove(path)
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	return nil
}

func (f *FileFormatter) encode(w io.Writer, r *schema.DatabaseReport) error {
	if f.OutputFormat == formatYAML {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return err
		}
		return enc.Close()
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

func (f *FileFormatter) getFileExtension() string {
	if f.OutputFormat == formatYAML {
		return ".yaml"
	}
	return ".json"
}

// ReadReport parses a report file written by FileFormatter.
// The format is chosen by file extension.
func ReadReport(path string) (*schema.DatabaseReport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	r := schema.NewDatabaseReport()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, r)
	case ".json":
		err = json.Unmarshal(data, r)
	default:
		return nil, fmt.Errorf("unsupported report file extension: %s", filepath.Ext(path))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	return r, nil
}
