// Copyright 2011 Google Inc. All Rights Reserved.
// This file is available under the Apache license.

// Package symbol implements the scoped symbol table used by the compiler
// passes.  Scopes are named after the program unit that opens them, and each
// remembers its static parent so names can be resolved after parsing ends.
package symbol

import (
	"bytes"
	"fmt"

	"github.com/golang/glog"
	"github.com/mafetri/pascalc/internal/runtime/compiler/position"
	"github.com/mafetri/pascalc/internal/runtime/compiler/types"
	"github.com/pkg/errors"
)

// GlobalScope is the name of the outermost scope.
const GlobalScope = "global"

// Category enumerates the kind of program object a Symbol names.
type Category int

const (
	Variable Category = iota
	Function
	Procedure
	Program
)

func (c Category) String() string {
	switch c {
	case Variable:
		return "variable"
	case Function:
		return "function"
	case Procedure:
		return "procedure"
	case Program:
		return "program"
	default:
		panic("unexpected symbol category")
	}
}

// IsSubroutine reports whether symbols of this category open their own scope
// and can be called.
func (c Category) IsSubroutine() bool {
	return c == Function || c == Procedure
}

// Param is a formal parameter of a function or procedure.
type Param struct {
	Name string
	Type types.Type
}

// Symbol describes a named program object.
type Symbol struct {
	Name     string             // identifier name
	Category Category           // kind of program object
	Type     types.Type         // declared type; result type for functions
	Scope    string             // name of the owning scope
	Params   []Param            // ordered formal parameters, for subroutines
	Pos      *position.Position // Source file position of definition
	Used     bool               // Set when a later statement refers to the symbol.
}

// NewSymbol creates a record of a given symbol category, named name, found at pos.
func NewSymbol(name string, cat Category, typ types.Type, pos *position.Position) *Symbol {
	return &Symbol{Name: name, Category: cat, Type: typ, Pos: pos}
}

// Key uniquely identifies a symbol by its owning scope and name.
type Key struct {
	Scope string
	Name  string
}

func (k Key) String() string {
	return k.Scope + "." + k.Name
}

// Key returns the lookup key of this symbol.
func (s *Symbol) Key() Key {
	return Key{s.Scope, s.Name}
}

var (
	ErrDuplicateSymbol = errors.New("duplicate symbol")
	ErrNotDeclared     = errors.New("not declared")
)

type scope struct {
	parent string
	names  []string // declaration order
}

// Table maps (scope, name) keys to symbols and tracks the chain of scopes
// currently open.  A Table is not safe for concurrent use; each compilation
// owns its own.
type Table struct {
	symbols map[Key]*Symbol
	scopes  map[string]*scope
	order   []string // scope names in the order they were first entered
	active  []string // open scopes, innermost last
}

// NewTable returns a table with only the global scope open.
func NewTable() *Table {
	return &Table{
		symbols: make(map[Key]*Symbol),
		scopes:  map[string]*scope{GlobalScope: {}},
		order:   []string{GlobalScope},
		active:  []string{GlobalScope},
	}
}

// Current returns the name of the innermost open scope.
func (t *Table) Current() string {
	return t.active[len(t.active)-1]
}

// EnterScope opens the named scope inside the current one.  A scope entered
// again keeps the parent it was first created with.
func (t *Table) EnterScope(name string) {
	if _, ok := t.scopes[name]; !ok {
		t.scopes[name] = &scope{parent: t.Current()}
		t.order = append(t.order, name)
	}
	glog.V(2).Infof("enter scope %q from %q", name, t.Current())
	t.active = append(t.active, name)
}

// ExitScope closes the innermost scope.  The global scope is never closed.
func (t *Table) ExitScope() {
	if len(t.active) == 1 {
		return
	}
	glog.V(2).Infof("exit scope %q", t.Current())
	t.active = t.active[:len(t.active)-1]
}

// Insert adds sym to the scope named by sym.Scope, defaulting to the current
// scope.  If the scope already holds a symbol of the same name, the table is
// unchanged and the existing symbol is returned with ErrDuplicateSymbol.
func (t *Table) Insert(sym *Symbol) (*Symbol, error) {
	if sym.Scope == "" {
		sym.Scope = t.Current()
	}
	s, ok := t.scopes[sym.Scope]
	if !ok {
		return nil, errors.Errorf("insert %q: no scope named %q", sym.Name, sym.Scope)
	}
	if alt, ok := t.symbols[sym.Key()]; ok {
		return alt, errors.Wrapf(ErrDuplicateSymbol, "%q already declared in scope %q", sym.Name, sym.Scope)
	}
	t.symbols[sym.Key()] = sym
	s.names = append(s.names, sym.Name)
	return sym, nil
}

// Lookup resolves name against the open scopes, innermost first, and then
// the global scope.
func (t *Table) Lookup(name string) (*Symbol, error) {
	for i := len(t.active) - 1; i >= 0; i-- {
		if sym, ok := t.symbols[Key{t.active[i], name}]; ok {
			return sym, nil
		}
	}
	if sym, ok := t.symbols[Key{GlobalScope, name}]; ok {
		return sym, nil
	}
	return nil, errors.Wrapf(ErrNotDeclared, "identifier %q", name)
}

// LookupFrom resolves name as if from inside the named scope, following the
// static parent chain out to the global scope.
func (t *Table) LookupFrom(name, from string) (*Symbol, error) {
	for sc := from; ; {
		if sym, ok := t.symbols[Key{sc, name}]; ok {
			return sym, nil
		}
		s, ok := t.scopes[sc]
		if !ok {
			return nil, errors.Wrapf(ErrNotDeclared, "identifier %q: no scope named %q", name, sc)
		}
		if sc == GlobalScope {
			break
		}
		sc = s.parent
	}
	return nil, errors.Wrapf(ErrNotDeclared, "identifier %q from scope %q", name, from)
}

// Get returns the symbol stored under exactly key.
func (t *Table) Get(key Key) (*Symbol, bool) {
	sym, ok := t.symbols[key]
	return sym, ok
}

// Symbols returns the symbols owned by the named scope in declaration order.
func (t *Table) Symbols(scope string) []*Symbol {
	s, ok := t.scopes[scope]
	if !ok {
		return nil
	}
	r := make([]*Symbol, 0, len(s.names))
	for _, n := range s.names {
		r = append(r, t.symbols[Key{scope, n}])
	}
	return r
}

// Parent returns the static parent of the named scope.  The global scope has
// no parent.
func (t *Table) Parent(scope string) (string, bool) {
	s, ok := t.scopes[scope]
	if !ok || scope == GlobalScope {
		return "", false
	}
	return s.parent, true
}

// HasScope reports whether a scope of that name has ever been entered.
func (t *Table) HasScope(name string) bool {
	_, ok := t.scopes[name]
	return ok
}

// Scopes lists every scope name in the order scopes were first entered.
func (t *Table) Scopes() []string {
	return append([]string(nil), t.order...)
}

// String dumps every scope and its symbols.  This method is only used for
// debugging.
func (t *Table) String() string {
	var buf bytes.Buffer
	for _, sc := range t.order {
		parent, _ := t.Parent(sc)
		fmt.Fprintf(&buf, "scope %q (parent %q) {\n", sc, parent)
		for _, sym := range t.Symbols(sc) {
			fmt.Fprintf(&buf, "\t%s %s %s", sym.Category, sym.Name, sym.Type)
			if sym.Category.IsSubroutine() {
				fmt.Fprintf(&buf, " %v", sym.Params)
			}
			fmt.Fprintln(&buf)
		}
		fmt.Fprintf(&buf, "}\n")
	}
	return buf.String()
}
