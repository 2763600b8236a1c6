// Copyright 2018 Google Inc. All Rights Reserved.
// This file is available under the Apache license.

// Package testutil re-exports go-cmp under names that do not collide with
// the compiler's own comparison opcodes, plus a few test helpers.
package testutil

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func Diff(a, b interface{}, opts ...cmp.Option) string {
	return cmp.Diff(a, b, opts...)
}

func IgnoreUnexported(types ...interface{}) cmp.Option {
	return cmpopts.IgnoreUnexported(types...)
}

func AllowUnexported(types ...interface{}) cmp.Option {
	return cmp.AllowUnexported(types...)
}

func IgnoreFields(typ interface{}, names ...string) cmp.Option {
	return cmpopts.IgnoreFields(typ, names...)
}

func EquateEmpty() cmp.Option {
	return cmpopts.EquateEmpty()
}

// ExpectNoDiff tests to see if the two interfaces have no diff.
// If there is a diff, the diff is printed as an error, and false is returned.
func ExpectNoDiff(tb testing.TB, want, got interface{}, opts ...cmp.Option) bool {
	tb.Helper()
	if diff := Diff(want, got, opts...); diff != "" {
		tb.Errorf("Unexpected diff, -want +got:\n%s", diff)
		tb.Logf("expected:\n%#v", want)
		tb.Logf("received:\n%#v", got)
		return false
	}
	return true
}
