// Copyright 2016 Google Inc. All Rights Reserved.
// This file is available under the Apache license.

package types

import (
	"errors"
	"testing"
)

func TestFromName(t *testing.T) {
	for _, tc := range []struct {
		name string
		want Type
		ok   bool
	}{
		{"integer", Integer, true},
		{"boolean", Boolean, true},
		{"real", Void, false},
	} {
		got, ok := FromName(tc.name)
		if got != tc.want || ok != tc.ok {
			t.Errorf("FromName(%q) = %v, %v; want %v, %v", tc.name, got, ok, tc.want, tc.ok)
		}
	}
}

func TestCheck(t *testing.T) {
	if err := Check(Integer, Integer); err != nil {
		t.Errorf("Check(int, int) = %v", err)
	}
	err := Check(Integer, Boolean)
	if !errors.Is(err, ErrTypeMismatch) {
		t.Fatalf("Check(int, bool) = %v, want type mismatch", err)
	}
	want := "type mismatch; expected integer received boolean"
	if err.Error() != want {
		t.Errorf("got %q, want %q", err.Error(), want)
	}
}

func TestIsScalar(t *testing.T) {
	if IsScalar(Void) || !IsScalar(Integer) || !IsScalar(Boolean) {
		t.Error("IsScalar wrong")
	}
}
