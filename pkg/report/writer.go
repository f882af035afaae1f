package report

import (
	"fmt"
	"path/filepath"

	"github.com/user/framereader/pkg/ports"
)

// Writer writes formatted reports through a FileSystem.
type Writer struct {
	formatter Formatter
	fs        ports.FileSystem
}

// NewWriter creates a new Writer with the given Formatter.
func NewWriter(formatter Formatter, fs ports.FileSystem) *Writer {
	return &Writer{
		formatter: formatter,
		fs:        fs,
	}
}

// Write formats the report and writes it to the specified path.
// Creates parent directories if they don't exist.
func (w *Writer) Write(path string, report *Report) error {
	content := w.formatter.Format(report)

	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := w.fs.MkdirAll(dir); err != nil {
			return fmt.Errorf("create directory: %w", err)
		}
	}

	if err := w.fs.WriteFile(path, []byte(content)); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	return nil
}
