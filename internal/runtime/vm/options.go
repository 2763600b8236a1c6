// Copyright 2021 Google Inc. All Rights Reserved.
// This file is available under the Apache license.

package vm

import (
	"bufio"
	"io"

	"github.com/pkg/errors"
)

// Option configures a new VM.
type Option func(*VM) error

// Input sets the reader LEER takes integers from.
func Input(r io.Reader) Option {
	return func(v *VM) error {
		v.in = bufio.NewReader(r)
		return nil
	}
}

// Output sets the writer IMPR prints to.
func Output(w io.Writer) Option {
	return func(v *VM) error {
		v.out = w
		return nil
	}
}

// MaxSteps bounds the number of instructions a run may execute.
func MaxSteps(n int) Option {
	return func(v *VM) error {
		if n <= 0 {
			return errors.Errorf("invalid step limit %d", n)
		}
		v.maxSteps = n
		return nil
	}
}

// MaxStack bounds the number of cells of the memory stack.
func MaxStack(n int) Option {
	return func(v *VM) error {
		if n <= 0 {
			return errors.Errorf("invalid stack limit %d", n)
		}
		v.maxStack = n
		return nil
	}
}

// Trace logs every instruction as it executes.
func Trace() Option {
	return func(v *VM) error {
		v.traceExec = true
		return nil
	}
}
