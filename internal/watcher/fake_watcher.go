// Copyright 2015 Google Inc. All Rights Reserved.
// This file is available under the Apache license.

package watcher

import (
	"context"
	"path"
	"sync"

	"github.com/golang/glog"
)

// FakeWatcher implements an in-memory Watcher.  Events are delivered
// synchronously by the Inject methods.
type FakeWatcher struct {
	mu       sync.RWMutex
	watches  map[string][]Processor // directory to observers
	isClosed bool
}

// NewFakeWatcher returns a fake Watcher for use in tests.
func NewFakeWatcher() *FakeWatcher {
	return &FakeWatcher{watches: make(map[string][]Processor)}
}

// Observe registers p for events on files in the directory name.
func (w *FakeWatcher) Observe(name string, p Processor) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, q := range w.watches[name] {
		if q == p {
			return nil
		}
	}
	w.watches[name] = append(w.watches[name], p)
	return nil
}

// Unobserve removes an observer from the FakeWatcher.  If it's the last
// observer for a name, the name is no longer watched.
func (w *FakeWatcher) Unobserve(name string, p Processor) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	ps := w.watches[name]
	for i, q := range ps {
		if q == p {
			ps = append(ps[:i], ps[i+1:]...)
			break
		}
	}
	if len(ps) == 0 {
		delete(w.watches, name)
	} else {
		w.watches[name] = ps
	}
	return nil
}

// IsWatching reports whether any processor observes the directory name.
func (w *FakeWatcher) IsWatching(name string) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	_, ok := w.watches[name]
	return ok
}

// Close closes down the FakeWatcher
func (w *FakeWatcher) Close() error {
	w.mu.Lock()
	w.isClosed = true
	w.mu.Unlock()
	return nil
}

func (w *FakeWatcher) send(e Event) {
	dir := path.Dir(e.Pathname)
	w.mu.RLock()
	ps := append([]Processor(nil), w.watches[dir]...)
	closed := w.isClosed
	w.mu.RUnlock()
	if closed {
		glog.Warningf("watcher closed, dropping %s of %s", e.Op, e.Pathname)
		return
	}
	if len(ps) == 0 {
		glog.Warningf("not watching %s to see %s of %s", dir, e.Op, e.Pathname)
		return
	}
	for _, p := range ps {
		p.ProcessFileEvent(context.Background(), e)
	}
}

// InjectCreate lets a test inject a fake creation event.
func (w *FakeWatcher) InjectCreate(name string) {
	w.send(Event{Create, name})
}

// InjectUpdate lets a test inject a fake update event.
func (w *FakeWatcher) InjectUpdate(name string) {
	w.send(Event{Update, name})
}

// InjectDelete lets a test inject a fake deletion event.
func (w *FakeWatcher) InjectDelete(name string) {
	w.send(Event{Delete, name})
}

// Poll does nothing in the fake watcher; events are injected.
func (w *FakeWatcher) Poll() {
}
