// Package source provides the image capture devices: anything that can yield raw
// image bytes for the photo modalities.
package source

import (
	"context"
	"errors"
)

type ImageSource interface {
	Load(ctx context.Context) ([]byte, error)
}

// TestImageSource is a simple in-memory implementation for testing
type TestImageSource struct {
	data []byte
	err  error
}

func NewTestImageSource(data []byte) *TestImageSource {
	return &TestImageSource{data: data}
}

func NewTestImageSourceWithError() *TestImageSource {
	return &TestImageSource{err: errors.New("not found")}
}

func (t *TestImageSource) Load(ctx context.Context) ([]byte, error) {
	if t.err != nil {
		return nil, t.err
	}
	return t.data, nil
}
