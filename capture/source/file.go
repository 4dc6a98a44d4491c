package source

import (
	"context"
	"os"
)

type FileImageSource struct {
	FilePath string
}

func NewFileImageSource(filePath string) *FileImageSource {
	return &FileImageSource{FilePath: filePath}
}

func (f *FileImageSource) Load(ctx context.Context) ([]byte, error) {
	return os.ReadFile(f.FilePath)
}
