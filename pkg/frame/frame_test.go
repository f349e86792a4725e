package frame

import (
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tstromberg/exhibition/pkg/exhibition"
)

func testImage(w int, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{uint8(x), uint8(y), 128, 255})
		}
	}
	return img
}

func testFrame() exhibition.Frame {
	return exhibition.Frame{
		Photo:   exhibition.Photo{Locator: "a.jpg", FilePath: "/photos/a.jpg"},
		Image:   testImage(200, 100),
		Caption: exhibition.Caption{When: "3 minutes ago", Path: "a.jpg"},
	}
}

func TestShowResizes(t *testing.T) {
	dir := t.TempDir()
	fd, err := New(dir, Options{Width: 100, Height: 100})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := fd.Show(testFrame()); err != nil {
		t.Fatalf("Show: %v", err)
	}

	f, err := os.Open(filepath.Join(dir, JPEGName))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	cfg, err := jpeg.DecodeConfig(f)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if cfg.Width != 100 || cfg.Height != 50 {
		t.Errorf("frame is %dx%d, want 100x50", cfg.Width, cfg.Height)
	}

	bs, err := os.ReadFile(filepath.Join(dir, CaptionName))
	if err != nil {
		t.Fatalf("read caption: %v", err)
	}
	if got, want := string(bs), "3 minutes ago\na.jpg\n"; got != want {
		t.Errorf("caption = %q, want %q", got, want)
	}
	if got := fd.Current(); got != filepath.Join(dir, JPEGName) {
		t.Errorf("Current() = %q", got)
	}
}

func TestShowDoesNotUpscale(t *testing.T) {
	dir := t.TempDir()
	fd, err := New(dir, Options{Width: 1920, Height: 1080})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := fd.Show(testFrame()); err != nil {
		t.Fatalf("Show: %v", err)
	}
	f, err := os.Open(fd.Current())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	cfg, err := jpeg.DecodeConfig(f)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if cfg.Width != 200 || cfg.Height != 100 {
		t.Errorf("frame is %dx%d, want 200x100", cfg.Width, cfg.Height)
	}
}

func TestShowDithered(t *testing.T) {
	dir := t.TempDir()
	fd, err := New(dir, Options{Width: 50, Height: 50, Dither: "bw"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := fd.Show(testFrame()); err != nil {
		t.Fatalf("Show: %v", err)
	}

	f, err := os.Open(filepath.Join(dir, PNGName))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	b := img.Bounds()
	for x := b.Min.X; x < b.Max.X; x++ {
		for y := b.Min.Y; y < b.Max.Y; y++ {
			r, g, bl, _ := img.At(x, y).RGBA()
			if (r != 0 && r != 0xffff) || r != g || g != bl {
				t.Fatalf("pixel (%d,%d) = %v is not black or white", x, y, img.At(x, y))
			}
		}
	}
}

func TestNewUnknownPalette(t *testing.T) {
	_, err := New(t.TempDir(), Options{Dither: "sepia"})
	if err == nil || !strings.Contains(err.Error(), "bw, eink") {
		t.Fatalf("New() = %v, want unknown palette error", err)
	}
}

func TestShowEmpty(t *testing.T) {
	dir := t.TempDir()
	fd, err := New(dir, Options{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := fd.Show(testFrame()); err != nil {
		t.Fatalf("Show: %v", err)
	}
	if err := fd.ShowEmpty(); err != nil {
		t.Fatalf("ShowEmpty: %v", err)
	}
	if got := fd.Current(); got != "" {
		t.Errorf("Current() = %q after ShowEmpty", got)
	}
	bs, err := os.ReadFile(filepath.Join(dir, EmptyName))
	if err != nil {
		t.Fatalf("read marker: %v", err)
	}
	if strings.TrimSpace(string(bs)) != exhibition.EmptyMessage {
		t.Errorf("marker = %q", bs)
	}

	if err := fd.Show(testFrame()); err != nil {
		t.Fatalf("Show: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, EmptyName)); err == nil {
		t.Error("empty marker left behind after Show")
	}
}

func TestKeepOriginal(t *testing.T) {
	src := t.TempDir()
	orig := filepath.Join(src, "a.jpg")
	if err := os.WriteFile(orig, []byte("original bytes"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	dir := t.TempDir()
	fd, err := New(dir, Options{KeepOriginal: true})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	f := testFrame()
	f.Photo.FilePath = orig
	if err := fd.Show(f); err != nil {
		t.Fatalf("Show: %v", err)
	}

	bs, err := os.ReadFile(filepath.Join(dir, OriginalName+".jpg"))
	if err != nil {
		t.Fatalf("read original: %v", err)
	}
	if string(bs) != "original bytes" {
		t.Errorf("original = %q", bs)
	}
}
