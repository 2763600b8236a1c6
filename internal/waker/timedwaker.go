// Copyright 2020 Google Inc. All Rights Reserved.
// This file is available under the Apache license.

package waker

import (
	"context"
	"sync"
	"time"
)

// A timedWaker wakes every caller of Wake once per interval.
type timedWaker struct {
	mu   sync.Mutex // protects wake
	wake chan struct{}
}

// NewTimed returns a Waker firing every interval until ctx is cancelled.
func NewTimed(ctx context.Context, interval time.Duration) Waker {
	w := &timedWaker{wake: make(chan struct{})}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				w.mu.Lock()
				close(w.wake)
				w.wake = make(chan struct{})
				w.mu.Unlock()
			}
		}
	}()
	return w
}

func (w *timedWaker) Wake() <-chan struct{} {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.wake
}

// onDemandWaker wakes a single wakee each time its trigger is called.  A
// trigger with nobody waiting is remembered until the next Wake.
type onDemandWaker struct {
	wake chan struct{}
}

// NewOnDemand returns a Waker and the function that triggers it.  Tests use
// it to step polling loops deterministically.
func NewOnDemand() (Waker, func()) {
	w := &onDemandWaker{wake: make(chan struct{}, 1)}
	return w, func() {
		select {
		case w.wake <- struct{}{}:
		default:
		}
	}
}

func (w *onDemandWaker) Wake() <-chan struct{} {
	return w.wake
}
