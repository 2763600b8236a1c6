// Copyright 2024 Google Inc. All Rights Reserved.
// This file is available under the Apache license.

// Package layout assigns every scope its lexical nesting level and every
// variable, parameter and function result its offset in an activation frame.
//
// For a subroutine with n formal parameters, parameter i (counting from zero)
// lives at -(n+2-i), so the first parameter is the most negative and the last
// is at -3.  A function's result slot is at -(n+3).  Locals and globals are
// numbered 0, 1, 2, ... in declaration order.
package layout

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/golang/glog"
	"github.com/mafetri/pascalc/internal/runtime/compiler/ast"
	"github.com/mafetri/pascalc/internal/runtime/compiler/errors"
	"github.com/mafetri/pascalc/internal/runtime/compiler/symbol"
)

// Layout is the static storage plan for one program.  It is read-only once
// Compute returns.
type Layout struct {
	Levels  map[string]int     // scope name to nesting depth; global is 0
	Offsets map[symbol.Key]int // frame offset of each storage slot
	Locals  map[string]int     // scope name to number of local (or global) slots
	Params  map[string]int     // scope name to number of formal parameters
}

// ParamOffset returns the frame offset of parameter i of n.
func ParamOffset(i, n int) int {
	return -(n + 3 - (i + 1))
}

// ResultOffset returns the frame offset of the result of a function with n
// parameters.
func ResultOffset(n int) int {
	return -(n + 3)
}

// Compute builds the layout of a checked program from its symbol table.
func Compute(prog *ast.Program, tab *symbol.Table) (*Layout, error) {
	l := &Layout{
		Levels:  map[string]int{symbol.GlobalScope: 0},
		Offsets: make(map[symbol.Key]int),
		Locals:  make(map[string]int),
		Params:  map[string]int{symbol.GlobalScope: 0},
	}
	l.Locals[symbol.GlobalScope] = l.numberLocals(tab, symbol.GlobalScope)
	for _, sub := range prog.Block.Subs {
		if err := l.subroutine(sub, symbol.GlobalScope, tab); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// numberLocals gives each variable owned by scope that has no offset yet the
// next nonnegative slot, and returns how many it numbered.
func (l *Layout) numberLocals(tab *symbol.Table, scope string) int {
	next := 0
	for _, sym := range tab.Symbols(scope) {
		if sym.Category != symbol.Variable {
			continue
		}
		if _, ok := l.Offsets[sym.Key()]; ok {
			continue
		}
		l.Offsets[sym.Key()] = next
		next++
	}
	return next
}

func (l *Layout) subroutine(n *ast.SubroutineDecl, parent string, tab *symbol.Table) error {
	sym, ok := tab.Get(symbol.Key{Scope: parent, Name: n.Name})
	if !ok || !sym.Category.IsSubroutine() {
		return errors.Internalf("layout: subroutine %q not found in scope %q", n.Name, parent)
	}
	if _, ok := l.Levels[n.Name]; ok {
		return errors.Internalf("layout: scope %q laid out twice", n.Name)
	}
	level := l.Levels[parent] + 1
	l.Levels[n.Name] = level

	np := len(sym.Params)
	for i, p := range sym.Params {
		l.Offsets[symbol.Key{Scope: n.Name, Name: p.Name}] = ParamOffset(i, np)
	}
	if sym.Category == symbol.Function {
		l.Offsets[symbol.Key{Scope: n.Name, Name: n.Name}] = ResultOffset(np)
	}
	l.Params[n.Name] = np
	l.Locals[n.Name] = l.numberLocals(tab, n.Name)
	glog.V(1).Infof("layout %s %q: level %d, %d params, %d locals", sym.Category, n.Name, level, np, l.Locals[n.Name])

	for _, sub := range n.Block.Subs {
		if err := l.subroutine(sub, n.Name, tab); err != nil {
			return err
		}
	}
	return nil
}

// Level returns the nesting depth of scope.
func (l *Layout) Level(scope string) (int, error) {
	v, ok := l.Levels[scope]
	if !ok {
		return 0, errors.Internalf("no level for scope %q", scope)
	}
	return v, nil
}

// Offset returns the frame offset of the slot named by key.
func (l *Layout) Offset(key symbol.Key) (int, error) {
	v, ok := l.Offsets[key]
	if !ok {
		return 0, errors.Internalf("no offset for %s", key)
	}
	return v, nil
}

// LocalCount returns the number of local slots scope reserves.
func (l *Layout) LocalCount(scope string) (int, error) {
	v, ok := l.Locals[scope]
	if !ok {
		return 0, errors.Internalf("no local count for scope %q", scope)
	}
	return v, nil
}

// ParamCount returns the number of formal parameters of scope.
func (l *Layout) ParamCount(scope string) (int, error) {
	v, ok := l.Params[scope]
	if !ok {
		return 0, errors.Internalf("no parameter count for scope %q", scope)
	}
	return v, nil
}

// String dumps the layout in a stable order, for debugging.
func (l *Layout) String() string {
	var buf bytes.Buffer
	scopes := make([]string, 0, len(l.Levels))
	for s := range l.Levels {
		scopes = append(scopes, s)
	}
	sort.Slice(scopes, func(i, j int) bool {
		if l.Levels[scopes[i]] != l.Levels[scopes[j]] {
			return l.Levels[scopes[i]] < l.Levels[scopes[j]]
		}
		return scopes[i] < scopes[j]
	})
	keys := make([]symbol.Key, 0, len(l.Offsets))
	for k := range l.Offsets {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Scope != keys[j].Scope {
			return keys[i].Scope < keys[j].Scope
		}
		return l.Offsets[keys[i]] < l.Offsets[keys[j]]
	})
	for _, s := range scopes {
		fmt.Fprintf(&buf, "%s: level %d, params %d, locals %d\n", s, l.Levels[s], l.Params[s], l.Locals[s])
		for _, k := range keys {
			if k.Scope == s {
				fmt.Fprintf(&buf, "\t%s %d\n", k.Name, l.Offsets[k])
			}
		}
	}
	return buf.String()
}
