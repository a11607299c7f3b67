package media

import (
	"context"
	"image"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"yatube/internal/models"
	"yatube/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_Save(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir, 1)
	ctx := context.Background()

	t.Run("GIF stored as PNG", func(t *testing.T) {
		name, err := store.Save(ctx, Upload{Filename: "small.gif", ContentType: "image/gif", Content: testutil.SmallGIF(t)})
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(name, "posts/"))
		assert.True(t, strings.HasSuffix(name, ".png"))
		assert.FileExists(t, filepath.Join(dir, name))
		assert.Equal(t, "/media/"+name, URL(name))
	})

	t.Run("Same content same name", func(t *testing.T) {
		content := testutil.TinyJPEG(t, 4, 4)
		first, err := store.Save(ctx, Upload{Filename: "a.jpg", Content: content})
		require.NoError(t, err)
		second, err := store.Save(ctx, Upload{Filename: "b.jpg", Content: content})
		require.NoError(t, err)
		assert.Equal(t, first, second)
		assert.True(t, strings.HasSuffix(first, ".jpg"))
	})

	t.Run("Large image downscaled", func(t *testing.T) {
		name, err := store.Save(ctx, Upload{Filename: "big.png", Content: testutil.TinyPNG(t, 2560, 640)})
		require.NoError(t, err)

		f, err := os.Open(filepath.Join(dir, name))
		require.NoError(t, err)
		defer f.Close()
		cfg, _, err := image.DecodeConfig(f)
		require.NoError(t, err)
		assert.Equal(t, 1280, cfg.Width)
		assert.Equal(t, 320, cfg.Height)
	})
}

func TestStore_SaveRejects(t *testing.T) {
	store := NewStore(t.TempDir(), 1)
	ctx := context.Background()

	tests := []struct {
		name string
		in   Upload
	}{
		{"Empty", Upload{Filename: "x.gif"}},
		{"Not an image", Upload{Filename: "x.txt", Content: []byte("hello, world")}},
		{"Truncated", Upload{Filename: "x.png", Content: testutil.TinyPNG(t, 8, 8)[:20]}},
		{"Type mismatch", Upload{Filename: "x.png", ContentType: "image/jpeg", Content: testutil.TinyPNG(t, 2, 2)}},
		{"Too large", Upload{Filename: "x.png", Content: append(testutil.TinyPNG(t, 1, 1), make([]byte, 1024*1024)...)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := store.Save(ctx, tt.in)
			require.Error(t, err)
			assert.True(t, models.IsCode(err, models.CodeValidation))
			assert.Contains(t, models.FieldErrors(err), "image")
		})
	}
}

func TestStore_PutReportsNewFiles(t *testing.T) {
	store := NewStore(t.TempDir(), 1)
	ctx := context.Background()
	content := testutil.TinyPNG(t, 4, 4)

	name, created, err := store.Put(ctx, Upload{Content: content})
	require.NoError(t, err)
	assert.True(t, created)

	again, created, err := store.Put(ctx, Upload{Content: content})
	require.NoError(t, err)
	assert.Equal(t, name, again)
	assert.False(t, created)
}

func TestStore_Remove(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir, 1)

	name, err := store.Save(context.Background(), Upload{Content: testutil.SmallGIF(t)})
	require.NoError(t, err)

	require.NoError(t, store.Remove(name))
	assert.NoFileExists(t, filepath.Join(dir, name))
	assert.NoError(t, store.Remove(name))
	assert.Error(t, store.Remove("../config.yml"))
}

func TestResizeToFit(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 100, 50))
	assert.Same(t, image.Image(src), resizeToFit(src, 200, 200))

	out := resizeToFit(src, 10, 10)
	assert.Equal(t, 10, out.Bounds().Dx())
	assert.Equal(t, 5, out.Bounds().Dy())
}
