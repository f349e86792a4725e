// exhibition shows a slideshow of the photos in a directory.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"k8s.io/klog/v2"

	"github.com/tstromberg/exhibition/pkg/exhibition"
	"github.com/tstromberg/exhibition/pkg/frame"
	"github.com/tstromberg/exhibition/pkg/manage"
)

func main() {
	klog.InitFlags(nil)

	c, err := exhibition.LoadConfig()
	if err != nil {
		klog.Exitf("config: %v", err)
	}

	flag.StringVar(&c.PhotoDir, "in", c.PhotoDir, "Location of photo directory")
	flag.StringVar(&c.StateDir, "state", c.StateDir, "Location of index cache and preferences")
	flag.StringVar(&c.FrameDir, "out", c.FrameDir, "Location to write the current frame to")
	flag.StringVar(&c.Addr, "addr", c.Addr, "host:port to serve the settings page on (disabled if empty)")
	flag.IntVar(&c.Width, "width", c.Width, "maximum frame width")
	flag.IntVar(&c.Height, "height", c.Height, "maximum frame height")
	flag.IntVar(&c.Quality, "quality", c.Quality, "JPEG quality")
	flag.StringVar(&c.Dither, "dither", c.Dither, "dither palette for e-ink displays (bw, eink)")
	flag.BoolVar(&c.KeepOriginal, "keep-original", c.KeepOriginal, "copy the original photo next to the frame")
	flag.BoolVar(&c.Watch, "watch", c.Watch, "watch the photo directory for changes")
	flag.BoolVar(&c.NoExif, "no-exif", c.NoExif, "index without reading EXIF metadata")
	flag.Parse()

	if c.PhotoDir == "" {
		klog.Exitf("--in is a required flag")
	}

	fd, err := frame.New(c.FrameDir, frame.Options{
		Width:        c.Width,
		Height:       c.Height,
		Quality:      c.Quality,
		Dither:       c.Dither,
		KeepOriginal: c.KeepOriginal,
	})
	if err != nil {
		klog.Exitf("frame: %v", err)
	}

	src := exhibition.NewDirSource(c.PhotoDir)
	src.NoExif = c.NoExif
	prefs := exhibition.OpenPrefs(c.PrefsPath())

	d := &exhibition.Dream{
		Source:  src,
		Cache:   exhibition.NewIndexCache(c.IndexPath(), prefs, src),
		Prefs:   prefs,
		Display: fd,
	}

	if c.Watch {
		w, err := exhibition.Watch(c.PhotoDir)
		if err != nil {
			klog.Warningf("not watching %s: %v", c.PhotoDir, err)
		} else {
			defer w.Close()
			d.Changes = w.Changes()
		}
	}

	if c.Addr != "" {
		go serve(c.Addr, manage.New(prefs, fd.Current))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := d.Attach(ctx); err != nil {
		klog.Exitf("attach: %v", err)
	}
	if err := d.Start(); err != nil {
		klog.Exitf("start: %v", err)
	}

	<-ctx.Done()
	if err := d.Stop(); err != nil {
		klog.Errorf("stop: %v", err)
	}
}

// serve serves the settings page via HTTP
func serve(addr string, s *manage.Server) {
	klog.Infof("Listening on %s...", addr)
	err := http.ListenAndServe(addr, s.Router())
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		klog.Exitf("listen failed: %v", err)
	}
}
