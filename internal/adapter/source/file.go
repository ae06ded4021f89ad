package source

import (
	"context"
	"fmt"
	"os"
)

// FileSource reads the dataset from a local path.
type FileSource struct {
	path string
}

// NewFileSource creates a dataset source for path.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Describe returns the file path.
func (s *FileSource) Describe() string {
	return s.path
}

// Fetch reads the whole file.
func (s *FileSource) Fetch(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read dataset file: %w", err)
	}
	return data, nil
}
