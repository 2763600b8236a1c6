// Copyright 2024 Google Inc. All Rights Reserved.
// This file is available under the Apache license.

package codegen_test

import (
	"testing"

	"github.com/mafetri/pascalc/internal/runtime/code"
	"github.com/mafetri/pascalc/internal/runtime/compiler/codegen"
	"github.com/mafetri/pascalc/internal/testutil"
)

var tacTests = []struct {
	name    string
	program string
	want    []string
}{
	{"if without else",
		"program p; var x: integer; begin if x < 1 then x := 2 end.",
		[]string{
			"if_< x,1 goto L0",
			"goto L1",
			"L0:",
			"x := 2",
			"L1:",
		}},
	{"if with else",
		"program p; var x: integer; begin if x < 1 then x := 2 else x := 3 end.",
		[]string{
			"if_< x,1 goto L0",
			"goto L1",
			"L0:",
			"x := 2",
			"goto L2",
			"L1:",
			"x := 3",
			"L2:",
		}},
	{"and",
		"program p; var x: integer; begin if (x < 1) and (x > 0) then x := 2 end.",
		[]string{
			"if_< x,1 goto L2",
			"goto L1",
			"L2:",
			"if_> x,0 goto L0",
			"goto L1",
			"L0:",
			"x := 2",
			"L1:",
		}},
	{"or",
		"program p; var x: integer; begin if (x < 1) or (x > 5) then x := 2 end.",
		[]string{
			"if_< x,1 goto L0",
			"goto L2",
			"L2:",
			"if_> x,5 goto L0",
			"goto L1",
			"L0:",
			"x := 2",
			"L1:",
		}},
	{"not",
		"program p; var x: integer; begin if not (x <= 1) then x := 2 end.",
		[]string{
			"if_<= x,1 goto L1",
			"goto L0",
			"L0:",
			"x := 2",
			"L1:",
		}},
	{"equality relops",
		"program p; var x: integer; begin if x = 1 then x := 2; if x <> 1 then x := 3; if x >= 1 then x := 4 end.",
		[]string{
			"if_== x,1 goto L0",
			"goto L1",
			"L0:",
			"x := 2",
			"L1:",
			"if_!= x,1 goto L2",
			"goto L3",
			"L2:",
			"x := 3",
			"L3:",
			"if_>= x,1 goto L4",
			"goto L5",
			"L4:",
			"x := 4",
			"L5:",
		}},
	{"boolean variable condition",
		"program p; var x: integer; b: boolean; begin if b then x := 1 end.",
		[]string{
			"if_!= b,0 goto L0",
			"goto L1",
			"L0:",
			"x := 1",
			"L1:",
		}},
	{"boolean as value",
		"program p; var x: integer; b: boolean; begin b := x < 1 end.",
		[]string{
			"if_< x,1 goto L0",
			"goto L1",
			"L0:",
			"t0 := 1",
			"goto L2",
			"L1:",
			"t0 := 0",
			"L2:",
			"b := t0",
		}},
	{"boolean literals",
		"program p; var b: boolean; begin b := true; b := false end.",
		[]string{
			"b := 1",
			"b := 0",
		}},
	{"while",
		"program p; var x: integer; begin while x < 3 do x := x + 1 end.",
		[]string{
			"L0:",
			"if_< x,3 goto L1",
			"goto L2",
			"L1:",
			"t0 := x + 1",
			"x := t0",
			"goto L0",
			"L2:",
		}},
	{"arithmetic",
		"program p; var x: integer; begin x := (x - 1) * 2 div x; x := -x; x := +x end.",
		[]string{
			"t0 := x - 1",
			"t1 := t0 * 2",
			"t2 := t1 div x",
			"x := t2",
			"t3 := uminus x",
			"x := t3",
			"x := x",
		}},
	{"read and write",
		"program p; var x: integer; begin read(x); write(x * 2) end.",
		[]string{
			"read x",
			"t0 := x * 2",
			"write t0",
		}},
	{"function call",
		"program p; var x: integer; function f(a, b: integer): integer; begin f := a + b end; begin x := f(1, x * 2) end.",
		[]string{
			"t0 := x * 2",
			"param t0",
			"param 1",
			"t1 := call f,2",
			"x := t1",
			"proc f",
			"t2 := a + b",
			"f := t2",
			"return f",
		}},
	{"procedure call",
		"program p; procedure q(a: integer); begin write(a) end; begin q(1); q(2) end.",
		[]string{
			"param 1",
			"call q,1",
			"param 2",
			"call q,1",
			"proc q",
			"write a",
			"return",
		}},
	{"nested subroutines come before their parent",
		"program p; procedure a; procedure b; begin write(2) end; begin b end; procedure c; begin write(3) end; begin a; c end.",
		[]string{
			"call a,0",
			"call c,0",
			"proc b",
			"write 2",
			"return",
			"proc a",
			"call b,0",
			"return",
			"proc c",
			"write 3",
			"return",
		}},
	{"bare function call",
		"program p; var x: integer; function f: integer; begin f := 7 end; begin x := f + f end.",
		[]string{
			"t0 := call f,0",
			"t1 := call f,0",
			"t2 := t0 + t1",
			"x := t2",
			"proc f",
			"f := 7",
			"return f",
		}},
}

func TestTAC(t *testing.T) {
	for _, tc := range tacTests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			prog, tab, _ := prepare(t, tc.program)
			quads, err := codegen.TAC(prog, tab)
			testutil.FatalIfErr(t, err)
			got := make([]string, 0, len(quads))
			for _, q := range quads {
				got = append(got, q.String())
			}
			testutil.ExpectNoDiff(t, tc.want, got)
		})
	}
}

func countLabels(quads []code.Quad) int {
	n := 0
	for _, q := range quads {
		if q.Op == code.Label {
			n++
		}
	}
	return n
}

// Short circuit operators each add exactly one label; not adds none.
func TestTACLabelCounts(t *testing.T) {
	for _, tc := range []struct {
		cond string
		want int
	}{
		{"a", 2},
		{"not a", 2},
		{"not not a", 2},
		{"a and b", 3},
		{"a or b", 3},
		{"a and b or c", 4},
		{"not (a and (b or c))", 4},
	} {
		prog, tab, _ := prepare(t, "program p; var a, b, c: boolean; begin if "+tc.cond+" then write(1) end.")
		quads, err := codegen.TAC(prog, tab)
		testutil.FatalIfErr(t, err)
		if got := countLabels(quads); got != tc.want {
			t.Errorf("if %s: %d labels, want %d\n%s", tc.cond, got, tc.want, code.FormatQuads(quads))
		}
	}
}

// Every jump targets a label that is defined exactly once.
func TestTACJumpTargetsDefined(t *testing.T) {
	prog, tab, _ := prepare(t, `program p;
var x: integer; b: boolean;
function f(n: integer): boolean;
begin
  f := (n > 0) and not (n = 3) or false
end;
begin
  b := f(x) and (x < 10);
  while b or (x > 0) do
    if not b then x := x - 1 else b := false
end.`)
	quads, err := codegen.TAC(prog, tab)
	testutil.FatalIfErr(t, err)
	defined := map[string]int{}
	for _, q := range quads {
		if q.Op == code.Label {
			defined[q.Res]++
		}
	}
	for l, n := range defined {
		if n != 1 {
			t.Errorf("label %s defined %d times", l, n)
		}
	}
	for _, q := range quads {
		if q.Op.IsJump() && defined[q.Res] != 1 {
			t.Errorf("%s jumps to undefined label", q)
		}
	}
}
