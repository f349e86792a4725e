package exhibition

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/facebookgo/clock"
	"k8s.io/klog/v2"
)

// State is a stage in the life of a Dream.
type State int

const (
	// Idle: nothing has been started.
	Idle State = iota
	// Attached: the index and interval are loading in the background.
	Attached
	// Running: the slideshow loop is active.
	Running
	// Stopped: everything was cancelled. Terminal.
	Stopped
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Attached:
		return "attached"
	case Running:
		return "running"
	case Stopped:
		return "stopped"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// ErrTransition is returned for a lifecycle call that is not allowed in the current state.
var ErrTransition = errors.New("invalid state transition")

// Default empty-catalog recheck schedule.
var (
	RecheckInterval    = 30 * time.Second
	MaxRecheckInterval = 10 * time.Minute
)

// future is the result of a function running in the background.
type future[T any] struct {
	done chan struct{}
	v    T
}

func async[T any](fn func() T) *future[T] {
	f := &future[T]{done: make(chan struct{})}
	go func() {
		defer close(f.done)
		f.v = fn()
	}()
	return f
}

// await returns the result, or false if ctx ends first.
func (f *future[T]) await(ctx context.Context) (T, bool) {
	select {
	case <-f.done:
		return f.v, true
	case <-ctx.Done():
		var zero T
		return zero, false
	}
}

// Dream is one activation of the slideshow.
//
// Transitions and their side effects:
//
//	Idle -> Attached      (Attach) start loading the index through the cache and reading the interval
//	Attached -> Running   (Start)  start the display loop once both loads complete
//	Attached -> Stopped   (Stop)   cancel the loads; nothing is persisted afterwards
//	Running -> Stopped    (Stop)   cancel the loop and wait for it; no frame is shown afterwards
//
// A stopped Dream cannot be restarted.
type Dream struct {
	Source  Source
	Cache   *IndexCache
	Prefs   *Prefs
	Display Display

	// Clock defaults to the wall clock.
	Clock clock.Clock
	// Changes, if set, signals that the catalog may have changed.
	Changes <-chan struct{}
	// Rand seeds photo selection; nil picks a random seed.
	Rand *rand.Rand

	// Recheck bounds the empty-catalog backoff; zero values use the package defaults.
	Recheck    time.Duration
	MaxRecheck time.Duration

	mu       sync.Mutex
	state    State
	cancel   context.CancelFunc
	ctx      context.Context
	index    *future[[]Photo]
	interval *future[time.Duration]
	done     chan struct{}
}

// State returns the current lifecycle state.
func (d *Dream) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

func (d *Dream) transition(from []State, to State) error {
	for _, s := range from {
		if d.state == s {
			d.state = to
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrTransition, d.state, to)
}

func (d *Dream) clock() clock.Clock {
	if d.Clock == nil {
		return clock.New()
	}
	return d.Clock
}

// Attach begins loading the photo index and the slide interval in the background.
func (d *Dream) Attach(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.transition([]State{Idle}, Attached); err != nil {
		return err
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	ctx = d.ctx
	klog.Infof("attached, indexing %T", d.Source)
	d.index = async(func() []Photo { return d.loadIndex(ctx) })
	d.interval = async(d.Prefs.Timeout)
	return nil
}

// Start begins the display loop. It waits for Attach's loads before the first slide.
func (d *Dream) Start() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.transition([]State{Attached}, Running); err != nil {
		return err
	}

	d.done = make(chan struct{})
	go func() {
		defer close(d.done)
		d.run(d.ctx)
	}()
	return nil
}

// Stop cancels everything and waits for the display loop to exit.
func (d *Dream) Stop() error {
	d.mu.Lock()
	if err := d.transition([]State{Attached, Running}, Stopped); err != nil {
		d.mu.Unlock()
		return err
	}
	d.cancel()
	done := d.done
	d.mu.Unlock()

	if done != nil {
		<-done
	}
	klog.Infof("stopped")
	return nil
}

// Wait blocks until the display loop exits. It returns immediately if the loop never started.
func (d *Dream) Wait() {
	d.mu.Lock()
	done := d.done
	d.mu.Unlock()
	if done != nil {
		<-done
	}
}

func (d *Dream) loadIndex(ctx context.Context) []Photo {
	v, err := d.Source.Version(ctx)
	if err != nil {
		klog.Warningf("catalog version unavailable, rebuilding index: %v", err)
		v = ""
	}
	return d.Cache.Load(ctx, v)
}

func (d *Dream) run(ctx context.Context) {
	interval, ok := d.interval.await(ctx)
	if !ok {
		return
	}
	photos, ok := d.index.await(ctx)
	if !ok {
		return
	}

	ss := &Slideshow{Source: d.Source, Display: d.Display, Clock: d.clock(), Rand: d.Rand}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = d.Recheck
	if b.InitialInterval <= 0 {
		b.InitialInterval = RecheckInterval
	}
	b.MaxInterval = d.MaxRecheck
	if b.MaxInterval <= 0 {
		b.MaxInterval = MaxRecheckInterval
	}

	for len(photos) == 0 {
		ss.Run(ctx, photos, interval)

		wait := b.NextBackOff()
		klog.Infof("catalog is empty, checking again within %s", wait)
		select {
		case <-ctx.Done():
			return
		case <-d.Changes:
			klog.Infof("catalog changed")
		case <-d.clock().After(wait):
		}
		photos = d.loadIndex(ctx)
	}

	ss.Run(ctx, photos, interval)
}
