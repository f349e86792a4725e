package exhibition

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	"k8s.io/klog/v2"
)

// DefaultInterval is the time between slides when none has been chosen.
const DefaultInterval = 10 * time.Second

// Intervals are the slide intervals a user may choose from.
var Intervals = []time.Duration{
	5 * time.Second,
	10 * time.Second,
	15 * time.Second,
	20 * time.Second,
	30 * time.Second,
}

// ErrInvalidInterval is returned for an interval outside of Intervals.
var ErrInvalidInterval = errors.New("interval must be one of 5s, 10s, 15s, 20s or 30s")

// ValidInterval reports whether d is one of Intervals.
func ValidInterval(d time.Duration) bool {
	for _, i := range Intervals {
		if d == i {
			return true
		}
	}
	return false
}

// ParseInterval parses milliseconds ("15000") or a duration ("15s").
func ParseInterval(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if ms, err := strconv.Atoi(s); err == nil {
		return time.Duration(ms) * time.Millisecond, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("parse interval %q: %w", s, err)
	}
	return d, nil
}

// prefsFile is the on-disk layout of Prefs.
type prefsFile struct {
	MediaStoreVersion string `toml:"mediastore_version,omitempty"`
	// TimeoutValue is in milliseconds.
	TimeoutValue int `toml:"timeout_value,omitempty"`
}

// Prefs is a small persistent key-value store.
type Prefs struct {
	path string
	mu   sync.Mutex
}

// OpenPrefs returns the preference store kept at path. The file is created on first write.
func OpenPrefs(path string) *Prefs {
	return &Prefs{path: path}
}

// Path returns where the preferences are stored.
func (p *Prefs) Path() string {
	return p.path
}

// read returns the stored values, or defaults if the file is missing or unreadable.
func (p *Prefs) read() prefsFile {
	var pf prefsFile
	if _, err := toml.DecodeFile(p.path, &pf); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			klog.Warningf("unable to read preferences from %s, using defaults: %v", p.path, err)
		}
		return prefsFile{}
	}
	return pf
}

func (p *Prefs) update(fn func(*prefsFile)) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	pf := p.read()
	fn(&pf)

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(pf); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(p.path), 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	return WriteFileAtomic(p.path, buf.Bytes())
}

// MediaStoreVersion returns the catalog version the cached index was built from, or "".
func (p *Prefs) MediaStoreVersion() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.read().MediaStoreVersion
}

// SetMediaStoreVersion records the catalog version of the cached index.
func (p *Prefs) SetMediaStoreVersion(v string) error {
	if err := p.update(func(pf *prefsFile) { pf.MediaStoreVersion = v }); err != nil {
		return fmt.Errorf("save mediastore_version: %w", err)
	}
	return nil
}

// Timeout returns the chosen slide interval, or DefaultInterval.
func (p *Prefs) Timeout() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()

	ms := p.read().TimeoutValue
	if ms == 0 {
		return DefaultInterval
	}
	d := time.Duration(ms) * time.Millisecond
	if !ValidInterval(d) {
		klog.Warningf("ignoring unsupported timeout_value %d", ms)
		return DefaultInterval
	}
	return d
}

// SetTimeout stores the slide interval. d must be one of Intervals.
func (p *Prefs) SetTimeout(d time.Duration) error {
	if !ValidInterval(d) {
		return fmt.Errorf("%v: %w", d, ErrInvalidInterval)
	}
	if err := p.update(func(pf *prefsFile) { pf.TimeoutValue = int(d.Milliseconds()) }); err != nil {
		return fmt.Errorf("save timeout_value: %w", err)
	}
	return nil
}

// WriteFileAtomic replaces path with data so that readers never observe a partial file.
func WriteFileAtomic(path string, data []byte) error {
	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	tmp := f.Name()

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("write: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close: %w", err)
	}
	if err := os.Chmod(tmp, 0o644); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("chmod: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}
