// Package walker enumerates product directories of an on-disk catalog.
//
// Two shapes are supported:
//
//	root/{class}/{product}/*.webp   Nested
//	root/{product}/*.webp           Flat
//
// Each product directory may also hold a description document.
package walker

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"iter"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

// Layout is the shape of a category directory.
type Layout int

const (
	Nested Layout = iota
	Flat
)

func (l Layout) String() string {
	switch l {
	case Nested:
		return "nested"
	case Flat:
		return "flat"
	}
	return fmt.Sprintf("Layout(%d)", int(l))
}

// ParseLayout accepts "nested" and "flat".
func ParseLayout(s string) (Layout, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "nested":
		return Nested, nil
	case "flat":
		return Flat, nil
	}
	return 0, fmt.Errorf("unknown catalog layout %q", s)
}

// Entry is one discovered product directory.
type Entry struct {
	ClassName       string
	ProductKey      string
	Dir             string
	RelDir          string
	Photos          []string
	DescriptionPath string
}

// PhotoNames returns the base names of Photos in order.
func (e Entry) PhotoNames() []string {
	names := make([]string, len(e.Photos))
	for i, p := range e.Photos {
		names[i] = filepath.Base(p)
	}
	return names
}

// Walker finds catalog entries under a category root.
type Walker struct {
	// Extensions are the photo extensions, matched case-insensitively.
	Extensions []string
	// DescriptionNames are tried in order; the first existing file wins.
	DescriptionNames []string
	// FlatClassName labels entries of a Flat layout.
	FlatClassName string
	// OnSkip, when set, is called for product directories holding neither
	// photos nor a description.
	OnSkip func(dir string)
	// ReadDir lists a directory. Nil means os.ReadDir.
	ReadDir func(dir string) ([]fs.DirEntry, error)
}

// EntryError reports a class or product directory that could not be read.
// The walk goes on after yielding it.
type EntryError struct {
	RelDir string
	Err    error
}

func (e *EntryError) Error() string {
	return fmt.Sprintf("%s: %v", e.RelDir, e.Err)
}

func (e *EntryError) Unwrap() error {
	return e.Err
}

func New() *Walker {
	return &Walker{
		Extensions:       []string{".webp", ".png", ".jpg", ".jpeg"},
		DescriptionNames: []string{"description.docx", "description.txt"},
		FlatClassName:    "Базова",
	}
}

// Entries lazily yields the product directories under root in sorted order.
// An unreadable class or product directory is yielded as an *EntryError and
// the walk continues. Any other error, including an unreadable root and ctx
// cancellation (checked before every directory), is yielded last. Ranging
// over it again walks the tree again.
func (w *Walker) Entries(ctx context.Context, root string, layout Layout) iter.Seq2[Entry, error] {
	return func(yield func(Entry, error) bool) {
		if err := w.walk(ctx, root, layout, yield); err != nil && !errors.Is(err, errStopped) {
			yield(Entry{}, err)
		}
	}
}

var errStopped = errors.New("walker: stopped by consumer")

func (w *Walker) walk(ctx context.Context, root string, layout Layout, yield func(Entry, error) bool) error {
	switch layout {
	case Nested:
		classes, err := w.subdirs(root)
		if err != nil {
			return err
		}
		for _, class := range classes {
			if err := ctx.Err(); err != nil {
				return err
			}
			products, err := w.subdirs(filepath.Join(root, class))
			if err != nil {
				entry := Entry{ClassName: class, Dir: filepath.Join(root, class), RelDir: class}
				if !yield(entry, &EntryError{RelDir: class, Err: err}) {
					return errStopped
				}
				continue
			}
			for _, product := range products {
				if err := w.visit(ctx, root, class, path.Join(class, product), yield); err != nil {
					return err
				}
			}
		}
		return nil
	case Flat:
		products, err := w.subdirs(root)
		if err != nil {
			return err
		}
		for _, product := range products {
			if err := w.visit(ctx, root, w.FlatClassName, product, yield); err != nil {
				return err
			}
		}
		return nil
	}
	return fmt.Errorf("unsupported layout %v", layout)
}

func (w *Walker) visit(ctx context.Context, root, class, rel string, yield func(Entry, error) bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dir := filepath.Join(root, filepath.FromSlash(rel))
	entry, ok, err := w.scan(dir)
	if err != nil {
		failed := Entry{ClassName: class, ProductKey: path.Base(rel), Dir: dir, RelDir: rel}
		if !yield(failed, &EntryError{RelDir: rel, Err: err}) {
			return errStopped
		}
		return nil
	}
	if !ok {
		if w.OnSkip != nil {
			w.OnSkip(dir)
		}
		return nil
	}
	entry.ClassName = class
	entry.ProductKey = path.Base(rel)
	entry.RelDir = rel
	if !yield(entry, nil) {
		return errStopped
	}
	return nil
}

// scan collects photos and the description of a single product directory.
func (w *Walker) scan(dir string) (Entry, bool, error) {
	files, err := w.readDir(dir)
	if err != nil {
		return Entry{}, false, fmt.Errorf("read product dir: %w", err)
	}

	seen := make(map[string]struct{})
	var photos []string
	for _, f := range files {
		if f.IsDir() || !w.isPhoto(f.Name()) {
			continue
		}
		key := strings.ToLower(f.Name())
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		photos = append(photos, f.Name())
	}
	sort.Strings(photos)

	entry := Entry{Dir: dir}
	for _, name := range photos {
		entry.Photos = append(entry.Photos, filepath.Join(dir, name))
	}
	for _, name := range w.DescriptionNames {
		p := filepath.Join(dir, name)
		if info, err := os.Stat(p); err == nil && info.Mode().IsRegular() {
			entry.DescriptionPath = p
			break
		} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Entry{}, false, fmt.Errorf("stat description: %w", err)
		}
	}
	return entry, len(entry.Photos) > 0 || entry.DescriptionPath != "", nil
}

func (w *Walker) isPhoto(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range w.Extensions {
		if strings.ToLower(e) == ext {
			return true
		}
	}
	return false
}

func (w *Walker) readDir(dir string) ([]fs.DirEntry, error) {
	if w.ReadDir != nil {
		return w.ReadDir(dir)
	}
	return os.ReadDir(dir)
}

// subdirs lists the directory names directly under dir, sorted.
func (w *Walker) subdirs(dir string) ([]string, error) {
	entries, err := w.readDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read catalog dir: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}
