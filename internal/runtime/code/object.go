// Copyright 2017 Google Inc. All Rights Reserved.
// This file is available under the Apache license.

package code

// Object is the pair of target programs resulting from compiled program
// source.
type Object struct {
	Name   string  // Name of the source program.
	Quads  []Quad  // Three address code.
	Instrs []Instr // MEPA stack machine code.
}

// TAC renders the three address code.
func (o *Object) TAC() string {
	return FormatQuads(o.Quads)
}

// Mepa renders the stack machine code.
func (o *Object) Mepa() string {
	return FormatMepa(o.Instrs)
}
