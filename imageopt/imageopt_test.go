package imageopt

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gradient(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 255 / w), G: uint8(y * 255 / h), B: 128, A: 255})
		}
	}
	return img
}

func writePNG(t *testing.T, path string, img image.Image, level png.CompressionLevel) int64 {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, (&png.Encoder{CompressionLevel: level}).Encode(f, img))
	info, err := f.Stat()
	require.NoError(t, err)
	return info.Size()
}

func writeJPEG(t *testing.T, path string, img image.Image, quality int) int64 {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, jpeg.Encode(f, img, &jpeg.Options{Quality: quality}))
	info, err := f.Stat()
	require.NoError(t, err)
	return info.Size()
}

func TestRecompress_PNGShrinks(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.png")
	old := writePNG(t, path, gradient(64, 64), png.NoCompression)

	res := New(Options{}, nil).Recompress(path)

	require.NoError(t, res.Err)
	assert.True(t, res.Replaced)
	assert.Equal(t, old, res.OldSize)
	assert.Less(t, res.NewSize, old)
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, res.NewSize, info.Size())
}

func TestRecompress_KeepsWhenNotSmaller(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.png")
	old := writePNG(t, path, gradient(32, 32), png.BestCompression)

	res := New(Options{}, nil).Recompress(path)

	require.NoError(t, res.Err)
	assert.False(t, res.Replaced)
	assert.Equal(t, old, res.NewSize)
}

func TestRecompress_JPEGQuality(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.jpg")
	old := writeJPEG(t, path, gradient(128, 128), 100)

	res := New(Options{JPEGQuality: 40}, nil).Recompress(path)

	require.NoError(t, res.Err)
	assert.True(t, res.Replaced)
	assert.Less(t, res.NewSize, old)
}

func TestRecompress_Downscale(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wide.png")
	writePNG(t, path, gradient(200, 100), png.NoCompression)

	res := New(Options{MaxWidth: 50}, nil).Recompress(path)
	require.NoError(t, res.Err)
	require.True(t, res.Replaced)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	cfg, _, err := image.DecodeConfig(f)
	require.NoError(t, err)
	assert.Equal(t, 50, cfg.Width)
	assert.Equal(t, 25, cfg.Height)
}

func TestRecompress_SkipsAndFailures(t *testing.T) {
	dir := t.TempDir()
	webp := filepath.Join(dir, "a.webp")
	require.NoError(t, os.WriteFile(webp, []byte("RIFF"), 0o644))
	broken := filepath.Join(dir, "b.jpg")
	require.NoError(t, os.WriteFile(broken, []byte("not an image"), 0o644))
	o := New(Options{}, nil)

	skipped := o.Recompress(webp)
	failed := o.Recompress(broken)
	missing := o.Recompress(filepath.Join(dir, "none.png"))

	assert.True(t, skipped.Skipped)
	assert.NoError(t, skipped.Err)
	assert.Error(t, failed.Err)
	assert.Error(t, missing.Err)
	content, err := os.ReadFile(broken)
	require.NoError(t, err)
	assert.Equal(t, "not an image", string(content))
}

func TestRun_PreservesOrder(t *testing.T) {
	dir := t.TempDir()
	var paths []string
	for i := 0; i < 12; i++ {
		p := filepath.Join(dir, fmt.Sprintf("%02d.png", i))
		writePNG(t, p, gradient(16+i, 16), png.NoCompression)
		paths = append(paths, p)
	}
	paths = append(paths, filepath.Join(dir, "x.webp"))
	require.NoError(t, os.WriteFile(paths[len(paths)-1], []byte("RIFF"), 0o644))
	o := New(Options{Workers: 3}, nil)

	listed, err := o.Files(dir)
	require.NoError(t, err)
	require.Equal(t, paths, listed)

	results, err := o.Run(context.Background(), listed)

	require.NoError(t, err)
	require.Len(t, results, len(paths))
	for i, r := range results {
		assert.Equal(t, paths[i], r.Path)
	}
	s := Summarize(results)
	assert.Equal(t, 13, s.Files)
	assert.Equal(t, 12, s.Replaced)
	assert.Equal(t, 1, s.Skipped)
	assert.Zero(t, s.Failed)
	assert.Positive(t, s.Saved())
}

func TestRun_Cancelled(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "a.png")
	old := writePNG(t, p, gradient(16, 16), png.NoCompression)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(Options{}, nil).Run(ctx, []string{p})

	assert.ErrorIs(t, err, context.Canceled)
	info, statErr := os.Stat(p)
	require.NoError(t, statErr)
	assert.Equal(t, old, info.Size())
}
