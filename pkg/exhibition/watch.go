package exhibition

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/karrick/godirwalk"
	"k8s.io/klog/v2"
)

// Watcher signals when anything under a photo root changes.
type Watcher struct {
	w       *fsnotify.Watcher
	changes chan struct{}
	done    chan struct{}
}

// Watch starts watching root and its non-hidden sub-directories.
func Watch(root string) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("new watcher: %w", err)
	}

	cw := &Watcher{
		w:       w,
		changes: make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	if err := cw.addTree(root); err != nil {
		w.Close()
		return nil, err
	}

	go cw.loop()
	return cw, nil
}

// Changes receives a value after one or more changes. Bursts are coalesced.
func (cw *Watcher) Changes() <-chan struct{} {
	return cw.changes
}

// Close stops watching.
func (cw *Watcher) Close() error {
	err := cw.w.Close()
	<-cw.done
	return err
}

func (cw *Watcher) addTree(root string) error {
	dirs := 0
	err := godirwalk.Walk(root, &godirwalk.Options{
		Callback: func(path string, de *godirwalk.Dirent) error {
			if !de.IsDir() {
				return nil
			}
			if path != root && strings.HasPrefix(filepath.Base(path), ".") {
				return godirwalk.SkipThis
			}
			if err := cw.w.Add(path); err != nil {
				klog.Warningf("unable to watch %s: %v", path, err)
				return nil
			}
			dirs++
			return nil
		},
		ErrorCallback: func(path string, err error) godirwalk.ErrorAction {
			klog.Warningf("skipping %s: %v", path, err)
			return godirwalk.SkipNode
		},
	})
	if err != nil {
		return fmt.Errorf("walk %s: %w", root, err)
	}
	klog.Infof("watching %d dirs under %s ...", dirs, root)
	return nil
}

func (cw *Watcher) loop() {
	defer close(cw.done)
	for {
		select {
		case event, ok := <-cw.w.Events:
			if !ok {
				return
			}
			klog.V(1).Infof("event: %v", event)
			if !(event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) || event.Has(fsnotify.Remove)) {
				continue
			}
			if event.Has(fsnotify.Create) {
				if fi, err := os.Stat(event.Name); err == nil && fi.IsDir() {
					if err := cw.addTree(event.Name); err != nil {
						klog.Warningf("add %s: %v", event.Name, err)
					}
				}
			}
			select {
			case cw.changes <- struct{}{}:
			default:
			}
		case err, ok := <-cw.w.Errors:
			if !ok {
				return
			}
			klog.Warningf("watch error: %v", err)
		}
	}
}
