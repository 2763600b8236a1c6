// Copyright 2011 Google Inc. All Rights Reserved.
// This file is available under the Apache license.

package parser

import (
	"strings"
	"testing"

	"github.com/mafetri/pascalc/internal/runtime/compiler/ast"
	"github.com/mafetri/pascalc/internal/runtime/compiler/types"
	"github.com/mafetri/pascalc/internal/testutil"
)

func TestUnparseFormatting(t *testing.T) {
	prog, err := Parse("fmt", strings.NewReader(
		"program p; var x: integer; procedure q(a: integer); begin if a > 0 then x := a else x := -a end; begin q(1); while x > 0 do x := x - 1 end."))
	testutil.FatalIfErr(t, err)
	want := `program p;
var
  x: integer;
procedure q(a: integer);
begin
  if a > 0 then
    x := a
  else
    x := -a
end;
begin
  q(1);
  while x > 0 do
    x := x - 1
end.
`
	testutil.ExpectNoDiff(t, want, NewUnparser(false).Unparse(prog))
}

func TestUnparseGrouping(t *testing.T) {
	for _, tc := range []struct {
		src  string
		want string
	}{
		{"(1 + 2) * 3", "(1 + 2) * 3"},
		{"1 + 2 * 3", "1 + (2 * 3)"},
		{"-(1 + 2)", "-(1 + 2)"},
		{"2 * (-3)", "2 * (-3)"},
		{"not (true and false)", "not (true and false)"},
	} {
		prog, err := Parse("group", strings.NewReader("program p; begin write("+tc.src+") end."))
		testutil.FatalIfErr(t, err)
		w := prog.Block.Body.Children[0].(*ast.WriteStmt)
		got := NewUnparser(false).Unparse(w.Expr)
		if got != tc.want+"\n" {
			t.Errorf("Unparse(%s) = %q, want %q", tc.src, got, tc.want)
		}
	}
}

func TestUnparseTypes(t *testing.T) {
	b := &ast.BinaryExpr{LHS: &ast.IntLit{I: 1}, RHS: &ast.IntLit{I: 2}, Op: int(LT)}
	b.SetType(types.Boolean)
	got := NewUnparser(true).Unparse(b)
	testutil.ExpectNoDiff(t, "<boolean>(<integer>(1) < <integer>(2))\n", got)
}
