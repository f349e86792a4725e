package exhibition

import (
	"context"
	"fmt"
	"image"
	"math/rand/v2"
	"time"

	_ "image/jpeg"
	_ "image/png"

	"github.com/facebookgo/clock"
	_ "golang.org/x/image/webp"
	"k8s.io/klog/v2"
)

// EmptyMessage is shown when there are no photos to display.
const EmptyMessage = "No photos found"

// Frame is one slide.
type Frame struct {
	Photo   Photo
	Image   image.Image
	Caption Caption
}

// Display shows slides.
type Display interface {
	Show(f Frame) error
	ShowEmpty() error
}

// Slideshow displays photos from a catalog one at a time.
type Slideshow struct {
	Source  Source
	Display Display
	Clock   clock.Clock
	// Rand seeds the picker; nil picks a random seed.
	Rand *rand.Rand
}

// Run shows a photo every interval until ctx is done. With no photos it shows the
// empty state and returns immediately.
func (s *Slideshow) Run(ctx context.Context, photos []Photo, interval time.Duration) {
	if len(photos) == 0 {
		klog.Infof("no photos to show")
		if err := s.Display.ShowEmpty(); err != nil {
			klog.Errorf("show empty: %v", err)
		}
		return
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	clk := s.Clock
	if clk == nil {
		clk = clock.New()
	}

	paths := make([]string, len(photos))
	for i, p := range photos {
		paths[i] = p.FilePath
	}
	prefix := CommonDir(paths)
	picker := NewPicker(len(photos), s.Rand)

	klog.Infof("showing %d photos every %s", len(photos), interval)
	for {
		if ctx.Err() != nil {
			return
		}

		p := photos[picker.Next()]
		img, err := s.decode(p)
		if err != nil {
			klog.Errorf("skipping %s: %v", p.FilePath, err)
		} else if ctx.Err() == nil {
			f := Frame{Photo: p, Image: img, Caption: NewCaption(p, prefix, clk.Now())}
			klog.V(1).Infof("showing %s", p.FilePath)
			if err := s.Display.Show(f); err != nil {
				klog.Errorf("show %s: %v", p.FilePath, err)
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-clk.After(interval):
		}
	}
}

func (s *Slideshow) decode(p Photo) (image.Image, error) {
	rc, err := s.Source.Open(p.Locator)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	defer rc.Close()

	img, _, err := image.Decode(rc)
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return img, nil
}
