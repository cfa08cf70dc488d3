// Package assets reads the flat image directory: listing, preloading and
// watching for changes.
package assets

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/okian/gamestore/pkg/metrics"
)

// DefaultExtensions are the image types the listing keeps.
var DefaultExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".svg"}

// DirLister lists image files directly under one directory.
type DirLister struct {
	dir  string
	exts map[string]struct{}
}

// NewDirLister returns a lister for dir keeping the given extensions, or
// DefaultExtensions when none are given. Extensions match case-insensitively
// with or without the leading dot.
func NewDirLister(dir string, exts ...string) *DirLister {
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	set := make(map[string]struct{}, len(exts))
	for _, e := range exts {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		set[e] = struct{}{}
	}
	return &DirLister{dir: dir, exts: set}
}

// Dir returns the listed directory.
func (l *DirLister) Dir() string { return l.dir }

// Matches reports whether name has one of the kept extensions.
func (l *DirLister) Matches(name string) bool {
	_, ok := l.exts[strings.ToLower(filepath.Ext(name))]
	return ok
}

// List returns matching regular files in lexicographic order. Later entries
// win when two names collide in the case-insensitive index, so the order is
// fixed to keep that outcome reproducible.
func (l *DirLister) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrList, err)
	}

	entries, err := os.ReadDir(l.dir)
	if err != nil {
		metrics.RecordAssetListError()
		return nil, fmt.Errorf("%w: %w", ErrList, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !l.Matches(e.Name()) || !l.isRegular(e) {
			continue
		}
		names = append(names, e.Name())
	}
	return names, nil
}

func (l *DirLister) isRegular(e os.DirEntry) bool {
	if e.Type().IsRegular() {
		return true
	}
	if e.Type()&os.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(filepath.Join(l.dir, e.Name()))
	return err == nil && info.Mode().IsRegular()
}
