package exhibition

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/barasher/go-exiftool"
	"github.com/cespare/xxhash/v2"
	"github.com/karrick/godirwalk"
	"k8s.io/klog/v2"
)

var exifDate = "2006:01:02 15:04:05"

// ErrNotLocal is returned when a locator points outside of the photo root.
var ErrNotLocal = errors.New("locator is not local to the photo root")

// Source is a catalog of photos.
type Source interface {
	// Version changes whenever the catalog contents change.
	Version(ctx context.Context) (string, error)
	// Query returns every photo in the catalog.
	Query(ctx context.Context) ([]Photo, error)
	// Open returns the encoded pixel data for a locator.
	Open(locator string) (io.ReadCloser, error)
}

// DirSource is a Source backed by a directory tree of image files.
type DirSource struct {
	Root       string
	Extensions []string

	// NoExif skips metadata extraction, leaving EXIF fields and DateTaken absent.
	NoExif bool
}

// NewDirSource returns a source for the photos under root.
func NewDirSource(root string) *DirSource {
	return &DirSource{
		Root:       root,
		Extensions: []string{".jpg", ".jpeg", ".png", ".webp"},
	}
}

func (s *DirSource) isPhoto(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range s.Extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// accessible reports whether the root can be listed at all.
func (s *DirSource) accessible() error {
	f, err := os.Open(s.Root)
	if err != nil {
		return err
	}
	return f.Close()
}

// walk calls fn for every photo under the root, in lexical order.
func (s *DirSource) walk(ctx context.Context, fn func(path string, rel string) error) error {
	err := godirwalk.Walk(s.Root, &godirwalk.Options{
		Callback: func(path string, de *godirwalk.Dirent) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if path != s.Root && strings.HasPrefix(filepath.Base(path), ".") {
				if de.IsDir() {
					return godirwalk.SkipThis
				}
				return nil
			}
			if de.IsDir() || !s.isPhoto(path) {
				return nil
			}
			if strings.Contains(path, "\n") {
				klog.Warningf("skipping %q: newline in path", path)
				return nil
			}
			rel, err := filepath.Rel(s.Root, path)
			if err != nil {
				return err
			}
			return fn(path, filepath.ToSlash(rel))
		},
		ErrorCallback: func(path string, err error) godirwalk.ErrorAction {
			if ctx.Err() != nil {
				return godirwalk.Halt
			}
			klog.Warningf("skipping %s: %v", path, err)
			return godirwalk.SkipNode
		},
	})
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

// Version hashes the path, size and modification time of every photo.
func (s *DirSource) Version(ctx context.Context) (string, error) {
	if err := s.accessible(); err != nil {
		return "", fmt.Errorf("photo root: %w", err)
	}

	h := xxhash.New()
	err := s.walk(ctx, func(path string, rel string) error {
		fi, err := os.Stat(path)
		if err != nil {
			klog.V(1).Infof("stat %s: %v", path, err)
			return nil
		}
		fmt.Fprintf(h, "%s\x00%d\x00%d\n", rel, fi.Size(), fi.ModTime().UnixNano())
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("walk: %w", err)
	}
	return fmt.Sprintf("%016x", h.Sum64()), nil
}

// Query indexes every photo under the root. An unreadable root yields an empty catalog.
func (s *DirSource) Query(ctx context.Context) ([]Photo, error) {
	if err := s.accessible(); err != nil {
		if errors.Is(err, fs.ErrPermission) || errors.Is(err, fs.ErrNotExist) {
			klog.Warningf("photo root %s is not accessible, treating catalog as empty: %v", s.Root, err)
			return []Photo{}, nil
		}
		return nil, fmt.Errorf("photo root: %w", err)
	}

	var et *exiftool.Exiftool
	if !s.NoExif {
		var err error
		et, err = exiftool.NewExiftool(exiftool.NoPrintConversion())
		if err != nil {
			klog.Warningf("exiftool unavailable, indexing without EXIF: %v", err)
			et = nil
		}
	}
	if et != nil {
		defer func() {
			if err := et.Close(); err != nil {
				klog.Errorf("close exiftool: %v", err)
			}
		}()
	}

	found := []Photo{}
	err := s.walk(ctx, func(path string, rel string) error {
		klog.V(1).Infof("found %s", path)
		p := Photo{Locator: rel, FilePath: path}
		if et != nil {
			readExif(et, &p)
		}
		found = append(found, p)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk: %w", err)
	}

	klog.Infof("indexed %d photos in %s", len(found), s.Root)
	return found, nil
}

// readExif fills in the optional fields of p. Missing fields stay nil.
func readExif(et *exiftool.Exiftool, p *Photo) {
	fis := et.ExtractMetadata(p.FilePath)
	if len(fis) == 0 {
		return
	}
	fi := fis[0]
	if fi.Err != nil {
		klog.Warningf("extract fail for %q: %v", p.FilePath, fi.Err)
		return
	}

	for k, v := range fi.Fields {
		klog.V(2).Infof("%q=%v", k, v)
	}

	if v, err := fi.GetFloat("ExposureTime"); err == nil {
		p.Exposure = Float64(v)
	} else {
		klog.V(1).Infof("unable to get exposure for %s: %v", p.FilePath, err)
	}

	if v, err := fi.GetFloat("FNumber"); err == nil {
		p.Aperture = String(formatFloat(v))
	} else {
		klog.V(1).Infof("unable to get aperture for %s: %v", p.FilePath, err)
	}

	if v, err := fi.GetInt("ISO"); err == nil {
		p.ISO = Int(int(v))
	} else {
		klog.V(1).Infof("unable to get ISO for %s: %v", p.FilePath, err)
	}

	ds, err := fi.GetString("DateTimeOriginal")
	if err != nil {
		klog.V(1).Infof("unable to get date time for %s: %v", p.FilePath, err)
		return
	}
	t, err := time.ParseInLocation(exifDate, ds, time.Local)
	if err != nil {
		klog.Warningf("parse time %q for %s: %v", ds, p.FilePath, err)
		return
	}
	p.DateTaken = Int64(t.UnixMilli())
}

// Open opens the photo at locator.
func (s *DirSource) Open(locator string) (io.ReadCloser, error) {
	rel := filepath.FromSlash(locator)
	if !filepath.IsLocal(rel) {
		return nil, fmt.Errorf("%q: %w", locator, ErrNotLocal)
	}
	return os.Open(filepath.Join(s.Root, rel))
}
