package source

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileImageSource(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "image_source_test")
	require.NoError(t, err)
	defer os.RemoveAll(tmpDir)

	t.Run("basic image load", func(t *testing.T) {
		data := []byte{0xff, 0xd8, 0xff, 0xe0, 0x00, 0x10}
		filePath := filepath.Join(tmpDir, "meal.jpg")
		require.NoError(t, os.WriteFile(filePath, data, 0644))

		src := NewFileImageSource(filePath)
		loaded, err := src.Load(context.Background())
		require.NoError(t, err)
		assert.Equal(t, data, loaded)
	})

	t.Run("load nonexistent image", func(t *testing.T) {
		src := NewFileImageSource(filepath.Join(tmpDir, "missing.jpg"))
		_, err := src.Load(context.Background())
		assert.Error(t, err)
		assert.True(t, os.IsNotExist(err))
	})
}
