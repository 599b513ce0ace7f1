// Package imageopt recompresses catalog photos in place with a bounded
// worker pool. A file is replaced only when the result is smaller.
package imageopt

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/image/draw"
	"golang.org/x/sync/errgroup"
)

// ErrUnsupported marks files the optimizer can read but not re-encode.
var ErrUnsupported = errors.New("unsupported image format")

type Options struct {
	// Workers bounds concurrent files. Zero means 20.
	Workers int
	// JPEGQuality is the re-encode quality, 1..100. Zero means 80.
	JPEGQuality int
	// MaxWidth downscales wider images keeping the aspect ratio. Zero
	// keeps the original size.
	MaxWidth int
}

// Result is the outcome of one file.
type Result struct {
	Path     string
	OldSize  int64
	NewSize  int64
	Replaced bool
	Skipped  bool
	Err      error
}

type Optimizer struct {
	opts   Options
	logger *zap.Logger
}

func New(opts Options, logger *zap.Logger) *Optimizer {
	if opts.Workers <= 0 {
		opts.Workers = 20
	}
	if opts.JPEGQuality <= 0 || opts.JPEGQuality > 100 {
		opts.JPEGQuality = 80
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Optimizer{opts: opts, logger: logger}
}

// Files lists the images under root in lexical order.
func (o *Optimizer) Files(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".jpg", ".jpeg", ".png", ".webp":
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list images: %w", err)
	}
	sort.Strings(files)
	return files, nil
}

// Run recompresses paths concurrently. Results are in the order of paths.
// Per-file failures are reported in Result.Err; the returned error is set
// only when ctx ends before every file was started.
func (o *Optimizer) Run(ctx context.Context, paths []string) ([]Result, error) {
	results := make([]Result, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.opts.Workers)

	for i, path := range paths {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				results[i] = Result{Path: path, Err: err}
				return err
			}
			results[i] = o.Recompress(path)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	if err := ctx.Err(); err != nil {
		return results, err
	}
	return results, nil
}

// Recompress re-encodes one file.
func (o *Optimizer) Recompress(path string) Result {
	res := Result{Path: path}
	raw, err := os.ReadFile(path)
	if err != nil {
		res.Err = err
		return res
	}
	res.OldSize = int64(len(raw))
	res.NewSize = res.OldSize

	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".webp" {
		res.Skipped = true
		return res
	}

	img, format, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		res.Err = fmt.Errorf("decode %s: %w", path, err)
		return res
	}
	img = o.fit(img)

	var buf bytes.Buffer
	switch format {
	case "jpeg":
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: o.opts.JPEGQuality})
	case "png":
		err = (&png.Encoder{CompressionLevel: png.BestCompression}).Encode(&buf, img)
	default:
		err = fmt.Errorf("%s: %w", format, ErrUnsupported)
	}
	if err != nil {
		res.Err = fmt.Errorf("encode %s: %w", path, err)
		return res
	}

	if int64(buf.Len()) >= res.OldSize {
		return res
	}
	if err := replace(path, buf.Bytes()); err != nil {
		res.Err = err
		return res
	}
	res.NewSize = int64(buf.Len())
	res.Replaced = true
	o.logger.Debug("image recompressed",
		zap.String("path", path),
		zap.Int64("old_size", res.OldSize),
		zap.Int64("new_size", res.NewSize))
	return res
}

func (o *Optimizer) fit(img image.Image) image.Image {
	b := img.Bounds()
	if o.opts.MaxWidth <= 0 || b.Dx() <= o.opts.MaxWidth {
		return img
	}
	h := max(1, b.Dy()*o.opts.MaxWidth/b.Dx())
	dst := image.NewRGBA(image.Rect(0, 0, o.opts.MaxWidth, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}

// replace writes data next to path and renames it over the original.
func replace(path string, data []byte) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".opt-*"+filepath.Ext(path))
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmp.Name(), info.Mode().Perm()); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Summary aggregates results.
type Summary struct {
	Files    int
	Replaced int
	Skipped  int
	Failed   int
	OldBytes int64
	NewBytes int64
}

func (s Summary) Saved() int64 {
	return s.OldBytes - s.NewBytes
}

func Summarize(results []Result) Summary {
	var s Summary
	for _, r := range results {
		s.Files++
		switch {
		case r.Err != nil:
			s.Failed++
		case r.Skipped:
			s.Skipped++
		case r.Replaced:
			s.Replaced++
		}
		s.OldBytes += r.OldSize
		s.NewBytes += r.NewSize
	}
	return s
}
