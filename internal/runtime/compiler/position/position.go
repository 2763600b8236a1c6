// Copyright 2016 Google Inc. All Rights Reserved.
// This file is available under the Apache license.

// Package position records where in a source program a token or node came from.
package position

import "fmt"

// A Position is a span of columns on one line of a source program.  Lines and
// columns are zero-based internally and printed one-based.
type Position struct {
	Filename string // Source filename in which this token appears.
	Line     int    // Line in the source for this token.
	Startcol int    // Starting and ending columns in the source for this token.
	Endcol   int
}

// String formats a position for compiler diagnostics, e.g. `prog.pas:3:5-9`.
func (p Position) String() string {
	r := fmt.Sprintf("%s:%d:%d", p.Filename, p.Line+1, p.Startcol+1)
	if p.Endcol > p.Startcol {
		r += fmt.Sprintf("-%d", p.Endcol+1)
	}
	return r
}

// Merge returns the smallest span containing both a and b.  Spans over
// different files or lines keep the first position.
func Merge(a, b *Position) *Position {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	if a.Filename != b.Filename || a.Line != b.Line {
		return a
	}
	r := *a
	if b.Startcol < r.Startcol {
		r.Startcol = b.Startcol
	}
	if b.Endcol > r.Endcol {
		r.Endcol = b.Endcol
	}
	return &r
}
