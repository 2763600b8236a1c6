// Copyright 2021 Google Inc. All Rights Reserved.
// This file is available under the Apache license.

package testutil

import (
	"expvar"
	"testing"
)

func expvarValue(tb testing.TB, name, key string) int64 {
	tb.Helper()
	v := expvar.Get(name)
	if v == nil {
		tb.Fatalf("expvar %q not registered", name)
	}
	if key != "" {
		m, ok := v.(*expvar.Map)
		if !ok {
			tb.Fatalf("expvar %q is %T, not a map", name, v)
		}
		v = m.Get(key)
		if v == nil {
			return 0
		}
	}
	i, ok := v.(*expvar.Int)
	if !ok {
		tb.Fatalf("expvar %q[%q] is %T, not an int", name, key, v)
	}
	return i.Value()
}

// ExpectExpvarDelta returns a deferrable function that checks the expvar
// counter name has changed by want since ExpectExpvarDelta was called.
func ExpectExpvarDelta(tb testing.TB, name string, want int64) func() {
	tb.Helper()
	return ExpectMapExpvarDelta(tb, name, "", want)
}

// ExpectMapExpvarDelta is ExpectExpvarDelta for the entry key of an expvar map.
func ExpectMapExpvarDelta(tb testing.TB, name, key string, want int64) func() {
	tb.Helper()
	start := expvarValue(tb, name, key)
	return func() {
		tb.Helper()
		now := expvarValue(tb, name, key)
		if now-start != want {
			tb.Errorf("%s[%s] delta: got %d - %d = %d, want %d", name, key, now, start, now-start, want)
		}
	}
}
