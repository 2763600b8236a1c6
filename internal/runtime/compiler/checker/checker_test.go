// Copyright 2016 Google Inc. All Rights Reserved.
// This file is available under the Apache license.

package checker_test

import (
	"strings"
	"testing"

	"github.com/mafetri/pascalc/internal/runtime/compiler/ast"
	"github.com/mafetri/pascalc/internal/runtime/compiler/checker"
	"github.com/mafetri/pascalc/internal/runtime/compiler/errors"
	"github.com/mafetri/pascalc/internal/runtime/compiler/parser"
	"github.com/mafetri/pascalc/internal/runtime/compiler/symbol"
	"github.com/mafetri/pascalc/internal/runtime/compiler/types"
	"github.com/mafetri/pascalc/internal/testutil"
)

func parse(t *testing.T, name, src string) *ast.Program {
	t.Helper()
	prog, err := parser.Parse(name, strings.NewReader(src))
	testutil.FatalIfErr(t, err)
	return prog
}

var checkerInvalidPrograms = []struct {
	name    string
	program string
	kinds   []errors.Kind
}{
	{"undeclared variable",
		"program p; begin x := 1 end.",
		[]errors.Kind{errors.NotDeclared}},
	{"undeclared in expression",
		"program p; var x: integer; begin x := y + 1 end.",
		[]errors.Kind{errors.NotDeclared}},
	{"duplicate global",
		"program p; var x: integer; x: boolean; begin end.",
		[]errors.Kind{errors.DuplicateSymbol}},
	{"duplicate parameter",
		"program p; procedure q(a, a: integer); begin end; begin end.",
		[]errors.Kind{errors.DuplicateSymbol}},
	{"local duplicates parameter",
		"program p; procedure q(a: integer); var a: integer; begin end; begin end.",
		[]errors.Kind{errors.DuplicateSymbol}},
	{"duplicate subroutine",
		"program p; procedure q; begin end; procedure q; begin end; begin end.",
		[]errors.Kind{errors.DuplicateSymbol}},
	{"subroutine named like program",
		"program p; procedure p; begin end; begin end.",
		[]errors.Kind{errors.DuplicateSymbol}},
	{"scope name reused in another scope",
		"program p; procedure a; procedure b; begin end; begin end; procedure c; procedure b; begin end; begin end; begin end.",
		[]errors.Kind{errors.DuplicateSymbol}},
	{"subroutine named global",
		"program p; procedure global; begin end; begin end.",
		[]errors.Kind{errors.DuplicateSymbol}},
	{"local hides function",
		"program p; function f: integer; var f: integer; begin f := 1 end; begin end.",
		[]errors.Kind{errors.DuplicateSymbol}},
	{"arithmetic on boolean",
		"program p; var x: integer; begin x := 1 + true end.",
		[]errors.Kind{errors.TypeMismatch}},
	{"assign boolean to integer",
		"program p; var x: integer; begin x := 1 < 2 end.",
		[]errors.Kind{errors.TypeMismatch}},
	{"ordering on booleans",
		"program p; var b: boolean; begin b := true < false end.",
		[]errors.Kind{errors.TypeMismatch}},
	{"equality of mixed types",
		"program p; var b: boolean; begin b := 1 = true end.",
		[]errors.Kind{errors.TypeMismatch}},
	{"and on integers",
		"program p; var b: boolean; begin b := 1 and 2 end.",
		[]errors.Kind{errors.TypeMismatch}},
	{"not on integer",
		"program p; var b: boolean; begin b := not 1 end.",
		[]errors.Kind{errors.TypeMismatch}},
	{"minus on boolean",
		"program p; var x: integer; begin x := -true end.",
		[]errors.Kind{errors.TypeMismatch}},
	{"integer if condition",
		"program p; begin if 1 then write(1) end.",
		[]errors.Kind{errors.InvalidConditionType}},
	{"integer while condition",
		"program p; var x: integer; begin while x do x := 0 end.",
		[]errors.Kind{errors.InvalidConditionType}},
	{"too many arguments",
		"program p; procedure q(a: integer); begin end; begin q(1, 2) end.",
		[]errors.Kind{errors.ArityMismatch}},
	{"too few arguments",
		"program p; function f(a, b: integer): integer; begin f := a end; begin write(f(1)) end.",
		[]errors.Kind{errors.ArityMismatch}},
	{"bare function with parameters",
		"program p; var x: integer; function f(a: integer): integer; begin f := a end; begin x := f end.",
		[]errors.Kind{errors.ArityMismatch}},
	{"argument type",
		"program p; procedure q(a: integer); begin end; begin q(true) end.",
		[]errors.Kind{errors.TypeMismatch}},
	{"missing return assignment",
		"program p; function f: integer; begin write(1) end; begin write(f) end.",
		[]errors.Kind{errors.MissingReturnAssignment}},
	{"return type",
		"program p; function f: integer; begin f := true end; begin write(f) end.",
		[]errors.Kind{errors.TypeMismatch}},
	{"assign function outside its body",
		"program p; function f: integer; begin f := 1 end; begin f := 2 end.",
		[]errors.Kind{errors.InvalidAssignment}},
	{"assign function from nested procedure",
		"program p; function f: integer; procedure q; begin f := 1 end; begin f := 2 end; begin write(f) end.",
		[]errors.Kind{errors.InvalidAssignment}},
	{"assign to procedure",
		"program p; procedure q; begin end; begin q := 1 end.",
		[]errors.Kind{errors.InvalidAssignment}},
	{"assign to program",
		"program p; begin p := 1 end.",
		[]errors.Kind{errors.InvalidAssignment}},
	{"function as statement",
		"program p; function f: integer; begin f := 1 end; begin f end.",
		[]errors.Kind{errors.TypeMismatch}},
	{"procedure as value",
		"program p; procedure q; begin end; begin write(q) end.",
		[]errors.Kind{errors.TypeMismatch}},
	{"call a variable",
		"program p; var x: integer; begin x(1) end.",
		[]errors.Kind{errors.TypeMismatch}},
	{"read into function",
		"program p; function f: integer; begin read(f) end; begin write(f) end.",
		[]errors.Kind{errors.InvalidAssignment, errors.MissingReturnAssignment}},
	{"read boolean",
		"program p; var b: boolean; begin read(b) end.",
		[]errors.Kind{errors.TypeMismatch}},
	{"out of scope local",
		"program p; procedure q; var l: integer; begin end; begin l := 1 end.",
		[]errors.Kind{errors.NotDeclared}},
	{"sibling scope not visible",
		"program p; procedure a; var x: integer; begin end; procedure b; begin x := 1 end; begin end.",
		[]errors.Kind{errors.NotDeclared}},
}

func kindsOf(err error) []errors.Kind {
	var r []errors.Kind
	if el, ok := err.(errors.ErrorList); ok {
		for _, e := range el {
			r = append(r, e.Kind)
		}
	}
	return r
}

func TestCheckInvalidPrograms(t *testing.T) {
	for _, tc := range checkerInvalidPrograms {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			prog := parse(t, tc.name, tc.program)
			tab, err := checker.Check(prog, 0)
			if err == nil {
				t.Fatalf("expected errors, got none")
			}
			if tab != nil {
				t.Errorf("symbol table returned with errors")
			}
			if !testutil.ExpectNoDiff(t, tc.kinds, kindsOf(err)) {
				t.Logf("errors: %s", err)
			}
		})
	}
}

var checkerValidPrograms = []struct {
	name    string
	program string
}{
	{"empty", "program p; begin end."},
	{"shadowing", "program p; var x: boolean; procedure q; var x: integer; begin x := 1 end; begin x := true end."},
	{"recursion", "program p; function fact(n: integer): integer; begin if n <= 1 then fact := 1 else fact := n * fact(n - 1) end; begin write(fact(5)) end."},
	{"bare recursive call", "program p; var c: integer; function f: integer; begin c := c - 1; if c > 0 then f := f + 1 else f := 0 end; begin c := 3; write(f) end."},
	{"nested access", "program p; var g: integer; procedure a(x: integer); var y: integer; procedure b; begin y := x + g end; begin b end; begin a(1) end."},
	{"call later sibling from main", "program p; procedure a; begin end; procedure b; begin a end; begin b; a end."},
	{"equality on booleans", "program p; var b: boolean; begin b := (1 < 2) = true; b := b <> false end."},
	{"unary plus", "program p; var x: integer; begin x := +3; x := -x end."},
	{"same name in sibling scopes", "program p; procedure a; var t: integer; begin t := 1 end; procedure b; var t: boolean; begin t := true end; begin end."},
}

func TestCheckValidPrograms(t *testing.T) {
	for _, tc := range checkerValidPrograms {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			prog := parse(t, tc.name, tc.program)
			_, err := checker.Check(prog, 0)
			testutil.FatalIfErr(t, err)
		})
	}
}

func TestCheckPopulatesSymbolTable(t *testing.T) {
	prog := parse(t, "symtab", `program p;
var a, b: integer;
function f(x: integer; y: boolean): integer;
var l: integer;
  procedure g;
  begin
    l := x
  end;
begin
  g;
  f := l
end;
begin
  a := f(b, true)
end.`)
	tab, err := checker.Check(prog, 0)
	testutil.FatalIfErr(t, err)

	names := func(scope string) (r []string) {
		for _, s := range tab.Symbols(scope) {
			r = append(r, s.Category.String()+" "+s.Name)
		}
		return
	}
	testutil.ExpectNoDiff(t, []string{"program p", "variable a", "variable b", "function f"}, names(symbol.GlobalScope))
	testutil.ExpectNoDiff(t, []string{"variable x", "variable y", "variable l", "procedure g"}, names("f"))
	testutil.ExpectNoDiff(t, []string(nil), names("g"))

	f, ok := tab.Get(symbol.Key{Scope: symbol.GlobalScope, Name: "f"})
	if !ok {
		t.Fatal("f not in global scope")
	}
	testutil.ExpectNoDiff(t, []symbol.Param{{Name: "x", Type: types.Integer}, {Name: "y", Type: types.Boolean}}, f.Params)
	if f.Type != types.Integer {
		t.Errorf("f.Type = %v", f.Type)
	}
	if parent, _ := tab.Parent("g"); parent != "f" {
		t.Errorf("Parent(g) = %q", parent)
	}

	// The call in main is annotated with its symbol and type.
	assign := prog.Block.Body.Children[0].(*ast.AssignStmt)
	call := assign.RHS.(*ast.CallExpr)
	if call.Symbol != f || call.Type() != types.Integer {
		t.Errorf("call not annotated: %#v", call)
	}
}

func TestBareFunctionBecomesCall(t *testing.T) {
	prog := parse(t, "bare", "program p; var x: integer; function f: integer; begin f := 1 end; begin x := f + 1 end.")
	_, err := checker.Check(prog, 0)
	testutil.FatalIfErr(t, err)
	assign := prog.Block.Body.Children[0].(*ast.AssignStmt)
	bin := assign.RHS.(*ast.BinaryExpr)
	call, ok := bin.LHS.(*ast.CallExpr)
	if !ok {
		t.Fatalf("bare f not rewritten to a call: %#v", bin.LHS)
	}
	if call.Name != "f" || len(call.Args) != 0 || call.Type() != types.Integer {
		t.Errorf("unexpected call %#v", call)
	}
	if bin.Type() != types.Integer {
		t.Errorf("binary type %v", bin.Type())
	}
}

func TestMaxRecursionDepth(t *testing.T) {
	src := "program p; var x: integer; begin x := 1" + strings.Repeat(" + 1", 60) + " end."
	prog := parse(t, "deep", src)
	_, err := checker.Check(prog, 20)
	if err == nil || !strings.Contains(err.Error(), "maximum recursion depth of 20") {
		t.Errorf("expected recursion depth error, got %v", err)
	}
}
