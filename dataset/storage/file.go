package storage

import (
	"context"
	"fmt"
	"os"
)

type FileSource struct {
	FilePath string
}

func NewFileSource(filePath string) *FileSource {
	return &FileSource{FilePath: filePath}
}

func (f *FileSource) Load(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b, err := os.ReadFile(f.FilePath)
	if err != nil {
		return nil, fmt.Errorf("read dataset file: %w", err)
	}
	return b, nil
}

func (f *FileSource) String() string { return "file://" + f.FilePath }
