// Package frame displays slides by writing them to a directory that a frame device or browser can pick up.
package frame

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/anthonynsimon/bild/imgio"
	"github.com/anthonynsimon/bild/transform"
	"github.com/makeworld-the-better-one/dither/v2"
	"github.com/otiai10/copy"
	"k8s.io/klog/v2"

	"github.com/tstromberg/exhibition/pkg/exhibition"
)

// Output file names within the frame directory.
const (
	JPEGName     = "current.jpg"
	PNGName      = "current.png"
	CaptionName  = "caption.txt"
	EmptyName    = "empty"
	OriginalName = "original"
)

// Palettes are the color sets available for dithering.
var Palettes = map[string][]color.Color{
	"bw": {
		color.Black,
		color.White,
	},
	"eink": {
		color.RGBA{49, 40, 56, 255},    // Dark state
		color.RGBA{174, 173, 168, 255}, // White state
		color.RGBA{57, 63, 104, 255},   // Blue state
		color.RGBA{48, 101, 68, 255},   // Green state
		color.RGBA{146, 61, 62, 255},   // Red state
		color.RGBA{173, 160, 73, 255},  // Yellow state
		color.RGBA{160, 83, 65, 255},   // Orange state
	},
}

// PaletteNames returns the dither palettes in sorted order.
func PaletteNames() []string {
	ns := []string{}
	for n := range Palettes {
		ns = append(ns, n)
	}
	sort.Strings(ns)
	return ns
}

// Options configure a Display.
type Options struct {
	// Width and Height bound the written frame. Zero in either disables resizing.
	Width  int
	Height int
	// Quality is the JPEG quality.
	Quality int
	// Dither names one of Palettes. Dithered frames are written as PNG.
	Dither string
	// KeepOriginal copies the unmodified photo next to the frame.
	KeepOriginal bool
}

// Display writes the current slide to a directory.
type Display struct {
	dir  string
	opts Options
	d    *dither.Ditherer
}

// New returns a display writing to dir.
func New(dir string, opts Options) (*Display, error) {
	if opts.Quality == 0 {
		opts.Quality = 85
	}
	fd := &Display{dir: dir, opts: opts}

	if opts.Dither != "" {
		p, ok := Palettes[opts.Dither]
		if !ok {
			return nil, fmt.Errorf("unknown palette %q, choose one of %s", opts.Dither, strings.Join(PaletteNames(), ", "))
		}
		fd.d = dither.NewDitherer(p)
		fd.d.Matrix = dither.FloydSteinberg
		fd.d.Serpentine = true
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir: %w", err)
	}
	return fd, nil
}

// Current returns the path of the frame on display, or "" if there is none.
func (fd *Display) Current() string {
	for _, n := range []string{JPEGName, PNGName} {
		p := filepath.Join(fd.dir, n)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// Show writes f as the current frame.
func (fd *Display) Show(f exhibition.Frame) error {
	img := fit(f.Image, fd.opts.Width, fd.opts.Height)

	name := JPEGName
	enc := imgio.JPEGEncoder(fd.opts.Quality)
	if fd.d != nil {
		img = fd.d.Dither(img)
		name = PNGName
		enc = imgio.PNGEncoder()
	}

	var buf bytes.Buffer
	if err := enc(&buf, img); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	if err := exhibition.WriteFileAtomic(filepath.Join(fd.dir, name), buf.Bytes()); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	if err := exhibition.WriteFileAtomic(filepath.Join(fd.dir, CaptionName), []byte(f.Caption.String()+"\n")); err != nil {
		return fmt.Errorf("write caption: %w", err)
	}

	if fd.opts.KeepOriginal {
		ext := strings.ToLower(filepath.Ext(f.Photo.FilePath))
		dst := filepath.Join(fd.dir, OriginalName+ext)
		if err := copy.Copy(f.Photo.FilePath, dst); err != nil {
			klog.Warningf("unable to copy original %s: %v", f.Photo.FilePath, err)
		}
	}

	remove(filepath.Join(fd.dir, EmptyName))
	klog.V(1).Infof("wrote %s (%dx%d): %q", name, img.Bounds().Dx(), img.Bounds().Dy(), f.Caption.String())
	return nil
}

// ShowEmpty replaces any current frame with the empty-state marker.
func (fd *Display) ShowEmpty() error {
	for _, n := range []string{JPEGName, PNGName, CaptionName} {
		remove(filepath.Join(fd.dir, n))
	}
	if err := exhibition.WriteFileAtomic(filepath.Join(fd.dir, EmptyName), []byte(exhibition.EmptyMessage+"\n")); err != nil {
		return fmt.Errorf("write empty marker: %w", err)
	}
	return nil
}

func remove(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		klog.Warningf("remove %s: %v", path, err)
	}
}

// fit scales i down to fit within w x h, preserving its aspect ratio.
func fit(i image.Image, w int, h int) image.Image {
	dx := i.Bounds().Dx()
	dy := i.Bounds().Dy()
	if w == 0 || h == 0 || dx == 0 || dy == 0 || (dx <= w && dy <= h) {
		return i
	}

	scale := min(float64(w)/float64(dx), float64(h)/float64(dy))
	x := max(1, int(float64(dx)*scale))
	y := max(1, int(float64(dy)*scale))
	return transform.Resize(i, x, y, transform.Lanczos)
}
