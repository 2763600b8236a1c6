// Copyright 2011 Google Inc. All Rights Reserved.
// This file is available under the Apache license.

package parser

import (
	"strings"
	"testing"

	"github.com/mafetri/pascalc/internal/runtime/compiler/ast"
	"github.com/mafetri/pascalc/internal/runtime/compiler/errors"
	"github.com/mafetri/pascalc/internal/runtime/compiler/position"
	"github.com/mafetri/pascalc/internal/runtime/compiler/symbol"
	"github.com/mafetri/pascalc/internal/runtime/compiler/types"
	"github.com/mafetri/pascalc/internal/testutil"
)

var parserTests = []struct {
	name    string
	program string
}{
	{"minimal", "program p; begin end."},
	{"assign", "program p; var x: integer; begin x := 1 + 2 end."},
	{"several var sections", `program p;
var a, b: integer;
    c: boolean;
begin
  a := 1; b := a * 2 div 3; c := not (a < b) and true or false
end.`},
	{"procedures", `program p;
var x: integer;
procedure q(a: integer; b, c: boolean);
var l: integer;
begin
  l := a;
  if b then x := l else x := -l
end;
function f(n: integer): integer;
begin
  f := n
end;
begin
  q(1, true, false);
  write(f(3))
end.`},
	{"nested", `program p;
procedure outer;
  procedure inner;
  begin
    write(1)
  end;
begin
  inner
end;
begin
  outer
end.`},
	{"control", `program p;
var i: integer;
begin
  read(i);
  while i > 0 do
  begin
    write(i);
    i := i - 1
  end;
  if i = 0 then
    write(0);
end.`},
	{"empty statements", "program p; begin ; ; end."},
	{"comments and case", "PROGRAM P; {a comment} VAR X: INTEGER; BEGIN X := 1 END."},
	{"relational operators", `program p;
var b: boolean;
begin
  b := 1 <> 2; b := 1 <= 2; b := 1 >= 2; b := 1 = 2; b := 1 > 2; b := +1 < 2
end.`},
}

func TestParserRoundTrip(t *testing.T) {
	for _, tc := range parserTests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			prog, err := Parse(tc.name, strings.NewReader(tc.program))
			testutil.FatalIfErr(t, err)

			u := NewUnparser(false)
			output := u.Unparse(prog)

			prog2, err := Parse(tc.name+" 2", strings.NewReader(output))
			if err != nil {
				t.Fatalf("reparse of unparsed output failed: %s\n%s", err, output)
			}
			u = NewUnparser(false)
			output2 := u.Unparse(prog2)

			testutil.ExpectNoDiff(t, output, output2)
			testutil.ExpectNoDiff(t, prog, prog2, testutil.IgnoreFields(position.Position{}, "Filename", "Line", "Startcol", "Endcol"), testutil.AllowUnexported(ast.CallExpr{}, ast.BinaryExpr{}, ast.UnaryExpr{}))
		})
	}
}

func TestParseTree(t *testing.T) {
	prog, err := Parse("tree", strings.NewReader("program p; var x: integer; function f(a: integer): boolean; begin f := a < 1 end; begin x := -1 + 2 * 3 end."))
	testutil.FatalIfErr(t, err)

	if prog.Name != "p" || len(prog.Block.Vars) != 1 || len(prog.Block.Subs) != 1 {
		t.Fatalf("unexpected program shape: %#v", prog.Block)
	}
	f := prog.Block.Subs[0]
	if f.Category != symbol.Function || f.Result != types.Boolean || len(f.Params) != 1 || f.Params[0].Typ != types.Integer {
		t.Errorf("unexpected function decl: %#v", f)
	}
	assign := prog.Block.Body.Children[0].(*ast.AssignStmt)
	if !assign.LHS.Lvalue {
		t.Error("assignment target not an lvalue")
	}
	// -1 + (2 * 3)
	plus, ok := assign.RHS.(*ast.BinaryExpr)
	if !ok || Kind(plus.Op) != PLUS {
		t.Fatalf("RHS = %#v", assign.RHS)
	}
	if neg, ok := plus.LHS.(*ast.UnaryExpr); !ok || Kind(neg.Op) != MINUS {
		t.Errorf("LHS = %#v", plus.LHS)
	}
	if mul, ok := plus.RHS.(*ast.BinaryExpr); !ok || Kind(mul.Op) != MUL {
		t.Errorf("RHS = %#v", plus.RHS)
	}
}

func TestBareIdentifierStatementIsCall(t *testing.T) {
	prog, err := Parse("call", strings.NewReader("program p; procedure q; begin end; begin q end."))
	testutil.FatalIfErr(t, err)
	call, ok := prog.Block.Body.Children[0].(*ast.CallExpr)
	if !ok || call.Name != "q" || len(call.Args) != 0 {
		t.Errorf("statement = %#v", prog.Block.Body.Children[0])
	}
}

var parseErrorTests = []struct {
	name    string
	program string
	errors  []string
}{
	{"missing program",
		"begin end.",
		[]string{"missing program:1:1-5: syntax error: unexpected begin, expecting program"}},
	{"missing dot",
		"program p; begin end",
		[]string{"missing dot:1:21: syntax error: unexpected EOF, expecting ."}},
	{"trailing text",
		"program p; begin end. x",
		[]string{"trailing text:1:23: syntax error: unexpected ID \"x\", expecting end of program"}},
	{"bad type",
		"program p; var x: real; begin end.",
		[]string{"bad type:1:19-22: syntax error: unexpected ID \"real\", expecting type name"}},
	{"bad expression",
		"program p; begin write(*) end.",
		[]string{"bad expression:1:24: syntax error: unexpected *, expecting expression"}},
	{"lexer error",
		"program p; begin x := 1 # 2 end.",
		[]string{"lexer error:1:25: Unexpected input: '#'"}},
	{"missing semicolon between statements",
		"program p; begin x := 1 x := 2 end.",
		[]string{"missing semicolon between statements:1:25: syntax error: unexpected ID \"x\", expecting end"}},
}

func TestParseInvalidPrograms(t *testing.T) {
	for _, tc := range parseErrorTests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			p, err := Parse(tc.name, strings.NewReader(tc.program))
			if p != nil {
				t.Errorf("expected nil program, got %v", p)
			}
			el, ok := err.(errors.ErrorList)
			if !ok {
				t.Fatalf("err is %T: %v", err, err)
			}
			if !el.Has(errors.Syntax) {
				t.Errorf("no syntax error kind in %v", el)
			}
			testutil.ExpectNoDiff(t, strings.Join(tc.errors, "\n"), err.Error())
		})
	}
}
