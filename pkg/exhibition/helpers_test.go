package exhibition

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"sync"
	"testing"
	"time"
)

// fakeSource is an in-memory catalog.
type fakeSource struct {
	mu      sync.Mutex
	version string
	photos  []Photo
	data    map[string][]byte
	queries int
	opens   int
}

func (s *fakeSource) Version(context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version, nil
}

func (s *fakeSource) Query(context.Context) ([]Photo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queries++
	return append([]Photo{}, s.photos...), nil
}

func (s *fakeSource) Open(locator string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.opens++
	bs, ok := s.data[locator]
	if !ok {
		return nil, errors.New("no such photo")
	}
	return io.NopCloser(bytes.NewReader(bs)), nil
}

func (s *fakeSource) set(version string, photos []Photo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.version = version
	s.photos = photos
}

func (s *fakeSource) counts() (queries int, opens int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queries, s.opens
}

// newFakeSource returns a catalog of n decodable photos under /photos/album.
func newFakeSource(t *testing.T, version string, n int) *fakeSource {
	t.Helper()
	s := &fakeSource{version: version, data: map[string][]byte{}}
	for i := 0; i < n; i++ {
		loc := string(rune('a'+i)) + ".png"
		s.photos = append(s.photos, Photo{Locator: loc, FilePath: "/photos/album/" + loc})
		s.data[loc] = pngBytes(t)
	}
	return s
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 3))
	img.Set(1, 1, color.RGBA{255, 0, 0, 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return buf.Bytes()
}

// fakeDisplay records what it was asked to show.
type fakeDisplay struct {
	mu      sync.Mutex
	frames  []Frame
	empties int
	shown   chan Frame
	empty   chan struct{}
}

func newFakeDisplay() *fakeDisplay {
	return &fakeDisplay{shown: make(chan Frame, 1000), empty: make(chan struct{}, 100)}
}

func (d *fakeDisplay) Show(f Frame) error {
	d.mu.Lock()
	d.frames = append(d.frames, f)
	d.mu.Unlock()
	d.shown <- f
	return nil
}

func (d *fakeDisplay) ShowEmpty() error {
	d.mu.Lock()
	d.empties++
	d.mu.Unlock()
	d.empty <- struct{}{}
	return nil
}

func (d *fakeDisplay) frameCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.frames)
}

func waitFrame(t *testing.T, d *fakeDisplay) Frame {
	t.Helper()
	select {
	case f := <-d.shown:
		return f
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for a frame")
	}
	return Frame{}
}

func waitEmpty(t *testing.T, d *fakeDisplay) {
	t.Helper()
	select {
	case <-d.empty:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for the empty state")
	}
}
