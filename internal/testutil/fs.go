// Copyright 2019 Google Inc. All Rights Reserved.
// This file is available under the Apache license.

package testutil

import (
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
)

// TestMemFs returns an in-memory filesystem with the program directory dir
// already created.
func TestMemFs(tb testing.TB, dir string) afero.Fs {
	tb.Helper()
	fs := afero.NewMemMapFs()
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		tb.Fatal(err)
	}
	return fs
}

// WriteProgram writes the program source to dir/name on fs, replacing any
// existing file.
func WriteProgram(tb testing.TB, fs afero.Fs, dir, name, src string) string {
	tb.Helper()
	pathname := filepath.Join(dir, name)
	if err := afero.WriteFile(fs, pathname, []byte(src), 0o644); err != nil {
		tb.Fatal(err)
	}
	return pathname
}

// ReadFile returns the contents of pathname on fs.
func ReadFile(tb testing.TB, fs afero.Fs, pathname string) string {
	tb.Helper()
	b, err := afero.ReadFile(fs, pathname)
	if err != nil {
		tb.Fatal(err)
	}
	return string(b)
}
