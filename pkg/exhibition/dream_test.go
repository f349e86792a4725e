package exhibition

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/facebookgo/clock"
)

func newTestDream(t *testing.T, src *fakeSource) (*Dream, *fakeDisplay) {
	t.Helper()
	dir := t.TempDir()
	prefs := OpenPrefs(filepath.Join(dir, "preferences.toml"))
	d := newFakeDisplay()
	return &Dream{
		Source:  src,
		Cache:   NewIndexCache(filepath.Join(dir, "index.txt"), prefs, src),
		Prefs:   prefs,
		Display: d,
		Clock:   clock.NewMock(),
	}, d
}

func TestDreamLifecycle(t *testing.T) {
	src := newFakeSource(t, "v1", 3)
	dr, disp := newTestDream(t, src)

	if got := dr.State(); got != Idle {
		t.Fatalf("State() = %s, want idle", got)
	}
	if err := dr.Start(); !errors.Is(err, ErrTransition) {
		t.Fatalf("Start() before Attach = %v, want ErrTransition", err)
	}
	if err := dr.Attach(context.Background()); err != nil {
		t.Fatalf("Attach: %v", err)
	}
	if err := dr.Attach(context.Background()); !errors.Is(err, ErrTransition) {
		t.Fatalf("second Attach = %v, want ErrTransition", err)
	}
	if err := dr.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if got := dr.State(); got != Running {
		t.Fatalf("State() = %s, want running", got)
	}

	waitFrame(t, disp)

	if err := dr.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if got := dr.State(); got != Stopped {
		t.Fatalf("State() = %s, want stopped", got)
	}
	n := disp.frameCount()
	time.Sleep(20 * time.Millisecond)
	if disp.frameCount() != n {
		t.Error("frames were shown after Stop")
	}
	if err := dr.Start(); !errors.Is(err, ErrTransition) {
		t.Fatalf("Start() after Stop = %v, want ErrTransition", err)
	}
	if err := dr.Stop(); !errors.Is(err, ErrTransition) {
		t.Fatalf("second Stop = %v, want ErrTransition", err)
	}
}

func TestDreamStopWhileAttached(t *testing.T) {
	dr, disp := newTestDream(t, newFakeSource(t, "v1", 3))
	if err := dr.Attach(context.Background()); err != nil {
		t.Fatalf("Attach: %v", err)
	}
	if err := dr.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	dr.Wait()
	if disp.frameCount() != 0 {
		t.Error("frames were shown without Start")
	}
}

func TestDreamUsesStoredInterval(t *testing.T) {
	src := newFakeSource(t, "v1", 3)
	dr, disp := newTestDream(t, src)
	dr.Clock = clock.New()
	if err := dr.Prefs.SetTimeout(5 * time.Second); err != nil {
		t.Fatalf("SetTimeout: %v", err)
	}

	if err := dr.Attach(context.Background()); err != nil {
		t.Fatalf("Attach: %v", err)
	}
	if err := dr.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	waitFrame(t, disp)

	select {
	case <-disp.shown:
		t.Error("second frame shown well before the 5s interval")
	case <-time.After(200 * time.Millisecond):
	}
	if err := dr.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
}

func TestDreamEmptyCatalogRecovers(t *testing.T) {
	src := &fakeSource{version: "v1", data: map[string][]byte{}}
	dr, disp := newTestDream(t, src)
	changes := make(chan struct{}, 1)
	dr.Changes = changes
	dr.Recheck = time.Hour

	if err := dr.Attach(context.Background()); err != nil {
		t.Fatalf("Attach: %v", err)
	}
	if err := dr.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	waitEmpty(t, disp)

	src.set("v2", []Photo{{Locator: "new.png", FilePath: "/photos/new.png"}})
	src.mu.Lock()
	src.data["new.png"] = pngBytes(t)
	src.mu.Unlock()
	changes <- struct{}{}

	f := waitFrame(t, disp)
	if f.Photo.Locator != "new.png" {
		t.Errorf("showed %s, want new.png", f.Photo.Locator)
	}
	if err := dr.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
}

func TestDreamEmptyCatalogStops(t *testing.T) {
	dr, disp := newTestDream(t, &fakeSource{version: "v1"})
	if err := dr.Attach(context.Background()); err != nil {
		t.Fatalf("Attach: %v", err)
	}
	if err := dr.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	waitEmpty(t, disp)

	done := make(chan error)
	go func() { done <- dr.Stop() }()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Stop: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Stop blocked while waiting for the catalog")
	}
}

func TestStateString(t *testing.T) {
	for s, want := range map[State]string{Idle: "idle", Attached: "attached", Running: "running", Stopped: "stopped"} {
		if got := s.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", int(s), got, want)
		}
	}
}
