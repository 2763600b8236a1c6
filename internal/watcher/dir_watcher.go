// Copyright 2015 Google Inc. All Rights Reserved.
// This file is available under the Apache license.

package watcher

import (
	"context"
	"expvar"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/golang/glog"
	"github.com/mafetri/pascalc/internal/waker"
	"github.com/pkg/errors"
)

var errorCount = expvar.NewInt("dir_watcher_error_count")

// dirWatch is the observers of one directory and the modification times of
// the files last seen in it.
type dirWatch struct {
	ps    []Processor
	files map[string]time.Time
}

// DirWatcher implements a Watcher for directories on a real filesystem.  It
// uses fsnotify when available and can also poll, comparing directory
// snapshots to synthesise events fsnotify would have sent.
type DirWatcher struct {
	watcher   *fsnotify.Watcher
	pollWaker waker.Waker

	watchedMu sync.RWMutex // protects `watched'
	watched   map[string]*dirWatch

	stopPolls  chan struct{} // Channel to notify the poll loop to stop.
	pollsDone  chan struct{} // Channel to notify when the poll loop is done.
	eventsDone chan struct{} // Channel to notify when the events handler is done.

	closeOnce sync.Once
}

// NewDirWatcher returns a new DirWatcher that polls each time pollWaker
// wakes it.  A nil pollWaker disables periodic polling; Poll can still be
// called directly.
func NewDirWatcher(pollWaker waker.Waker, enableFsnotify bool) (*DirWatcher, error) {
	var f *fsnotify.Watcher
	if enableFsnotify {
		var err error
		f, err = fsnotify.NewWatcher()
		if err != nil {
			glog.Warning(err)
		}
	}
	w := &DirWatcher{
		watcher:   f,
		pollWaker: pollWaker,
		watched:   make(map[string]*dirWatch),
	}
	if pollWaker != nil {
		w.stopPolls = make(chan struct{})
		w.pollsDone = make(chan struct{})
		go w.runPolls()
	}
	if f != nil {
		w.eventsDone = make(chan struct{})
		go w.runEvents()
	}
	return w, nil
}

func (w *DirWatcher) sendEvent(e Event) {
	w.watchedMu.Lock()
	watch, ok := w.watched[filepath.Dir(e.Pathname)]
	if ok {
		// Keep the snapshot current so a later poll does not repeat the event.
		if e.Op == Delete {
			delete(watch.files, e.Pathname)
		} else if fi, err := os.Stat(e.Pathname); err == nil {
			watch.files[e.Pathname] = fi.ModTime()
		}
	}
	w.watchedMu.Unlock()
	if !ok {
		glog.V(2).Infof("No watch for path %q", e.Pathname)
		return
	}
	w.sendWatchedEvent(watch, e)
}

func (w *DirWatcher) sendWatchedEvent(watch *dirWatch, e Event) {
	for _, p := range watch.ps {
		p.ProcessFileEvent(context.TODO(), e)
	}
}

func (w *DirWatcher) runPolls() {
	defer close(w.pollsDone)
	for {
		select {
		case <-w.pollWaker.Wake():
			w.Poll()
		case <-w.stopPolls:
			return
		}
	}
}

// snapshot lists the regular files in dir with their modification times.
func snapshot(dir string) (map[string]time.Time, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	files := make(map[string]time.Time, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		fi, err := e.Info()
		if err != nil {
			glog.V(1).Info(err)
			continue
		}
		files[filepath.Join(dir, e.Name())] = fi.ModTime()
	}
	return files, nil
}

// Poll compares each watched directory with its last snapshot and sends
// Create, Update and Delete events for the differences.
func (w *DirWatcher) Poll() {
	type pending struct {
		watch *dirWatch
		e     Event
	}
	var events []pending
	w.watchedMu.Lock()
	for dir, watch := range w.watched {
		files, err := snapshot(dir)
		if err != nil {
			glog.V(1).Info(err)
			continue
		}
		for name, mtime := range files {
			prev, ok := watch.files[name]
			switch {
			case !ok:
				events = append(events, pending{watch, Event{Create, name}})
			case mtime.After(prev):
				events = append(events, pending{watch, Event{Update, name}})
			}
		}
		for name := range watch.files {
			if _, ok := files[name]; !ok {
				events = append(events, pending{watch, Event{Delete, name}})
			}
		}
		watch.files = files
	}
	w.watchedMu.Unlock()
	for _, p := range events {
		glog.V(2).Infof("sending %s for %s", p.e.Op, p.e.Pathname)
		w.sendWatchedEvent(p.watch, p.e)
	}
}

// runEvents assumes that w.watcher is not nil
func (w *DirWatcher) runEvents() {
	defer close(w.eventsDone)

	// Suck out errors and dump them to the error log.
	go func() {
		for err := range w.watcher.Errors {
			errorCount.Add(1)
			glog.Errorf("fsnotify error: %s\n", err)
		}
	}()

	for e := range w.watcher.Events {
		glog.V(2).Infof("watcher event %v", e)
		switch {
		case e.Op&fsnotify.Create == fsnotify.Create:
			w.sendEvent(Event{Create, e.Name})
		case e.Op&fsnotify.Write == fsnotify.Write,
			e.Op&fsnotify.Chmod == fsnotify.Chmod:
			w.sendEvent(Event{Update, e.Name})
		case e.Op&fsnotify.Remove == fsnotify.Remove,
			e.Op&fsnotify.Rename == fsnotify.Rename:
			// Rename is only issued on the original file path; the new name receives a Create event
			w.sendEvent(Event{Delete, e.Name})
		}
	}
	glog.Infof("Shutting down directory watcher.")
}

// Close shuts down the DirWatcher.  It is safe to call this from multiple clients.
func (w *DirWatcher) Close() (err error) {
	w.closeOnce.Do(func() {
		if w.watcher != nil {
			err = w.watcher.Close()
			<-w.eventsDone
		}
		if w.pollWaker != nil {
			close(w.stopPolls)
			<-w.pollsDone
		}
	})
	return
}

// Observe adds a directory to the list of watched items.  Files already in
// it are part of the first snapshot and produce no events.
func (w *DirWatcher) Observe(path string, processor Processor) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return errors.Wrapf(err, "Failed to lookup absolutepath of %q", path)
	}
	files, err := snapshot(absPath)
	if err != nil {
		return errors.Wrapf(err, "Failed to list %q", absPath)
	}
	if w.watcher != nil {
		if err := w.watcher.Add(absPath); err != nil {
			return errors.Wrapf(err, "Failed to create a new watch on %q", absPath)
		}
	}
	w.watchedMu.Lock()
	defer w.watchedMu.Unlock()
	watched, ok := w.watched[absPath]
	if !ok {
		w.watched[absPath] = &dirWatch{ps: []Processor{processor}, files: files}
		glog.V(1).Infof("Watching %s", absPath)
		return nil
	}
	for _, p := range watched.ps {
		if p == processor {
			return nil
		}
	}
	watched.ps = append(watched.ps, processor)
	return nil
}

// Unobserve removes processor from the observers of path, and stops watching
// path when none remain.
func (w *DirWatcher) Unobserve(path string, processor Processor) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return errors.Wrapf(err, "Failed to lookup absolutepath of %q", path)
	}
	w.watchedMu.Lock()
	defer w.watchedMu.Unlock()
	watched, ok := w.watched[absPath]
	if !ok {
		return nil
	}
	for i, p := range watched.ps {
		if p == processor {
			watched.ps = append(watched.ps[:i], watched.ps[i+1:]...)
			break
		}
	}
	if len(watched.ps) > 0 {
		return nil
	}
	delete(w.watched, absPath)
	if w.watcher != nil {
		return w.watcher.Remove(absPath)
	}
	return nil
}

// IsWatching indicates if the directory is being watched.
func (w *DirWatcher) IsWatching(path string) bool {
	absPath, err := filepath.Abs(path)
	if err != nil {
		glog.V(2).Infof("Couldn't resolve path %q: %s", absPath, err)
		return false
	}
	w.watchedMu.RLock()
	_, ok := w.watched[absPath]
	w.watchedMu.RUnlock()
	return ok
}
