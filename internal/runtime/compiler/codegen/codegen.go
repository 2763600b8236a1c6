// Copyright 2016 Google Inc. All Rights Reserved.
// This file is available under the Apache license.

// Package codegen translates a checked syntax tree into three address code
// and into MEPA stack machine code.  The two generators are independent: each
// keeps its own label and temporary counters, and either can run alone.
package codegen

import (
	"fmt"

	"github.com/golang/glog"
	"github.com/mafetri/pascalc/internal/runtime/code"
	"github.com/mafetri/pascalc/internal/runtime/compiler/ast"
	"github.com/mafetri/pascalc/internal/runtime/compiler/errors"
	"github.com/mafetri/pascalc/internal/runtime/compiler/layout"
	"github.com/mafetri/pascalc/internal/runtime/compiler/parser"
	"github.com/mafetri/pascalc/internal/runtime/compiler/position"
	"github.com/mafetri/pascalc/internal/runtime/compiler/symbol"
)

// CodeGen runs both generators over a checked program and its layout.
func CodeGen(name string, prog *ast.Program, tab *symbol.Table, lay *layout.Layout) (*code.Object, error) {
	quads, err := TAC(prog, tab)
	if err != nil {
		return nil, err
	}
	instrs, err := Mepa(prog, tab, lay)
	if err != nil {
		return nil, err
	}
	glog.V(1).Infof("%s: %d quadruples, %d instructions", name, len(quads), len(instrs))
	return &code.Object{Name: name, Quads: quads, Instrs: instrs}, nil
}

// errorf reports an inconsistency between the checked tree and the tables
// built from it.  Generation stops at the first one.
func errorf(n ast.Node, format string, args ...interface{}) error {
	var pos *position.Position
	if n != nil {
		pos = n.Pos()
	}
	e := "Internal compiler error, aborting compilation: " + fmt.Sprintf(format, args...)
	var l errors.ErrorList
	l.Add(pos, errors.Internal, e)
	return l
}

// opName spells an operator token for diagnostics.
func opName(op int) string {
	return parser.Kind(op).String()
}
