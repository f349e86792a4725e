package exhibition

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"k8s.io/klog/v2"
)

// IndexCache keeps the photo index on disk, keyed by the catalog version it was built from.
type IndexCache struct {
	path   string
	prefs  *Prefs
	source Source

	lastHit bool
}

// NewIndexCache returns a cache stored at path, with its version marker kept in prefs.
func NewIndexCache(path string, prefs *Prefs, source Source) *IndexCache {
	return &IndexCache{path: path, prefs: prefs, source: source}
}

// Hit reports whether the last Load was served from disk.
func (c *IndexCache) Hit() bool {
	return c.lastHit
}

// Load returns the photo index for currentVersion, rebuilding it from the source if the
// stored copy is missing, unreadable, or was built from a different version. An empty
// currentVersion is treated as unknown: it never matches and is never stored.
func (c *IndexCache) Load(ctx context.Context, currentVersion string) []Photo {
	c.lastHit = false
	if currentVersion != "" && c.prefs.MediaStoreVersion() == currentVersion {
		photos, err := c.read()
		if err == nil {
			klog.Infof("loaded %d photos from index cache (version %s)", len(photos), currentVersion)
			c.lastHit = true
			return photos
		}
		if !errors.Is(err, fs.ErrNotExist) {
			klog.Warningf("index cache %s is unreadable, rebuilding: %v", c.path, err)
		}
	}

	klog.Infof("indexing (catalog version %q)", currentVersion)
	photos, err := c.source.Query(ctx)
	if err != nil {
		klog.Errorf("index query failed: %v", err)
		return []Photo{}
	}

	if currentVersion == "" {
		return photos
	}
	if ctx.Err() != nil {
		klog.V(1).Infof("cancelled, not persisting index")
		return photos
	}
	c.persist(photos, currentVersion)
	return photos
}

func (c *IndexCache) read() ([]Photo, error) {
	f, err := os.Open(c.path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return DecodeIndex(f)
}

// persist stores photos and the version they came from. The version is cleared first
// and written last so that an interrupted write is detected as stale.
func (c *IndexCache) persist(photos []Photo, version string) {
	if err := c.prefs.SetMediaStoreVersion(""); err != nil {
		klog.Errorf("unable to clear index version: %v", err)
		return
	}

	var buf bytes.Buffer
	if err := EncodeIndex(&buf, photos); err != nil {
		klog.Errorf("unable to encode index: %v", err)
		return
	}
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		klog.Errorf("mkdir: %v", err)
		return
	}
	if err := WriteFileAtomic(c.path, buf.Bytes()); err != nil {
		klog.Errorf("unable to write index cache %s: %v", c.path, err)
		return
	}

	if err := c.prefs.SetMediaStoreVersion(version); err != nil {
		klog.Errorf("unable to save index version: %v", err)
		return
	}
	klog.V(1).Infof("persisted %d photos to %s", len(photos), c.path)
}
