// Copyright 2011 Google Inc. All Rights Reserved.
// This file is available under the Apache license.

// Package compiler runs the phases of compilation over a program: parsing,
// checking, storage layout, and generation of both target forms.
package compiler

import (
	"context"
	"io"
	"path/filepath"
	"time"

	"github.com/golang/glog"
	"github.com/mafetri/pascalc/internal/runtime/code"
	"github.com/mafetri/pascalc/internal/runtime/compiler/ast"
	"github.com/mafetri/pascalc/internal/runtime/compiler/checker"
	"github.com/mafetri/pascalc/internal/runtime/compiler/codegen"
	"github.com/mafetri/pascalc/internal/runtime/compiler/layout"
	"github.com/mafetri/pascalc/internal/runtime/compiler/parser"
	"github.com/mafetri/pascalc/internal/runtime/compiler/symbol"
	"github.com/prometheus/client_golang/prometheus"
	"go.opencensus.io/trace"
)

// CompileDurations observes the time taken by each compilation phase.
var CompileDurations = prometheus.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "pascalc",
	Subsystem: "compiler",
	Name:      "phase_duration_seconds",
	Help:      "Compiler phase time distribution in seconds.",
	Buckets:   prometheus.ExponentialBuckets(0.00002, 2.0, 12),
}, []string{"phase"})

// Compiler compiles programs with a fixed set of options.
type Compiler struct {
	emitAst           bool
	emitAstTypes      bool
	emitLayout        bool
	maxRecursionDepth int // zero selects the checker's default
}

// New creates a new Compiler with the given options.
func New(options ...Option) (*Compiler, error) {
	c := &Compiler{}
	if err := c.SetOption(options...); err != nil {
		return nil, err
	}
	return c, nil
}

// SetOption applies options to the Compiler in order.
func (c *Compiler) SetOption(options ...Option) error {
	for _, option := range options {
		if err := option(c); err != nil {
			return err
		}
	}
	return nil
}

// phase runs f under a trace span named for the phase and records its duration.
func phase(ctx context.Context, name string, f func() error) error {
	_, span := trace.StartSpan(ctx, "compiler."+name)
	defer span.End()
	start := time.Now()
	err := f()
	CompileDurations.WithLabelValues(name).Observe(time.Since(start).Seconds())
	if err != nil {
		span.SetStatus(trace.Status{Code: trace.StatusCodeInvalidArgument, Message: err.Error()})
	}
	return err
}

// Compile compiles a program from the input into an Object holding both
// target forms, or returns the list of compile errors.
func (c *Compiler) Compile(ctx context.Context, name string, input io.Reader) (*code.Object, error) {
	ctx, span := trace.StartSpan(ctx, "Compiler.Compile")
	defer span.End()
	name = filepath.Base(name)
	span.AddAttributes(trace.StringAttribute("program", name))

	var prog *ast.Program
	if err := phase(ctx, "parse", func() (err error) {
		prog, err = parser.Parse(name, input)
		return
	}); err != nil {
		return nil, err
	}
	if c.emitAst {
		glog.Infof("%s AST:\n%s", name, parser.NewUnparser(false).Unparse(prog))
	}

	var tab *symbol.Table
	if err := phase(ctx, "check", func() (err error) {
		tab, err = checker.Check(prog, c.maxRecursionDepth)
		return
	}); err != nil {
		return nil, err
	}
	if c.emitAstTypes {
		glog.Infof("%s AST with Type Annotation:\n%s", name, parser.NewUnparser(true).Unparse(prog))
	}

	var lay *layout.Layout
	if err := phase(ctx, "layout", func() (err error) {
		lay, err = layout.Compute(prog, tab)
		return
	}); err != nil {
		return nil, err
	}
	if c.emitLayout {
		glog.Infof("%s symbols:\n%s\n%s layout:\n%s", name, tab, name, lay)
	}

	var obj *code.Object
	if err := phase(ctx, "codegen", func() (err error) {
		obj, err = codegen.CodeGen(name, prog, tab, lay)
		return
	}); err != nil {
		return nil, err
	}
	return obj, nil
}
