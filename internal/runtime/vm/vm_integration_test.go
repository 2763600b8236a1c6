// Copyright 2018 Google Inc. All Rights Reserved.
// This file is available under the Apache license.

package vm_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/mafetri/pascalc/internal/runtime/code"
	"github.com/mafetri/pascalc/internal/runtime/compiler"
	"github.com/mafetri/pascalc/internal/runtime/vm"
	"github.com/mafetri/pascalc/internal/testutil"
)

var vmTests = []struct {
	name   string
	prog   string
	input  string
	output string
}{
	{"factorial",
		`program factorial;
function fact(n: integer): integer;
begin
  if n <= 1 then
    fact := 1
  else
    fact := n * fact(n - 1)
end;
begin
  write(fact(5))
end.`,
		"",
		"120\n"},
	{"while sum",
		`program sum;
var n, i, total: integer;
begin
  read(n);
  i := 1;
  total := 0;
  while i <= n do
  begin
    total := total + i;
    i := i + 1
  end;
  write(total)
end.`,
		"10\n",
		"55\n"},
	{"nested access",
		`program nested;
var g: integer;
procedure outer(x: integer);
var y: integer;
  procedure inner(z: integer);
  begin
    y := x + z + g
  end;
begin
  y := 0;
  inner(10);
  write(y)
end;
begin
  g := 100;
  outer(1)
end.`,
		"",
		"111\n"},
	{"booleans",
		`program b;
var x: integer; t: boolean;
begin
  x := 3;
  t := (x > 1) and not (x = 4) or false;
  if t then write(1) else write(0);
  if (x < 0) or (x >= 3) then write(2);
  if x <> 3 then write(3);
  write(-x div 2)
end.`,
		"",
		"1\n2\n-1\n"},
	{"fibonacci",
		`program fibs;
var i: integer;
function fib(n: integer): integer;
begin
  if n < 2 then fib := n else fib := fib(n - 1) + fib(n - 2)
end;
begin
  i := 0;
  while i < 8 do
  begin
    write(fib(i));
    i := i + 1
  end
end.`,
		"",
		"0\n1\n1\n2\n3\n5\n8\n13\n"},
	{"recursion through the display",
		`program deep;
var total: integer;
procedure count(n: integer);
var local: integer;
  procedure add;
  begin
    total := total + local
  end;
begin
  local := n;
  if n > 0 then
  begin
    count(n - 1);
    add
  end
end;
begin
  total := 0;
  count(4);
  write(total)
end.`,
		"",
		"10\n"},
	{"parameters in order",
		`program params;
function sub(a, b: integer; neg: boolean): integer;
begin
  if neg then sub := b - a else sub := a - b
end;
begin
  write(sub(10, 3, false));
  write(sub(10, 3, true))
end.`,
		"",
		"7\n-7\n"},
	{"read and echo",
		`program echo;
var x, y: integer;
begin
  read(x);
  read(y);
  write(x * y)
end.`,
		"6 7",
		"42\n"},
}

func compile(t *testing.T, name, src string) *code.Object {
	t.Helper()
	c, err := compiler.New()
	testutil.FatalIfErr(t, err)
	obj, err := c.Compile(context.Background(), name, strings.NewReader(src))
	testutil.FatalIfErr(t, err)
	return obj
}

func TestVmEndToEnd(t *testing.T) {
	for _, tc := range vmTests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			obj := compile(t, tc.name, tc.prog)
			var out bytes.Buffer
			v, err := vm.New(tc.name, obj.Instrs, vm.Input(strings.NewReader(tc.input)), vm.Output(&out))
			testutil.FatalIfErr(t, err)
			testutil.FatalIfErr(t, v.Run(context.Background()))
			testutil.ExpectNoDiff(t, tc.output, out.String())
			// Every frame and global is released before PARA.
			testutil.ExpectNoDiff(t, []int{}, v.Stack())
		})
	}
}

// The assembly text is executable as well.
func TestVmRunsParsedText(t *testing.T) {
	obj := compile(t, "fact", vmTests[0].prog)
	instrs, err := code.ParseMepa(strings.NewReader(obj.Mepa()))
	testutil.FatalIfErr(t, err)
	var out bytes.Buffer
	v, err := vm.New("fact", instrs, vm.Output(&out))
	testutil.FatalIfErr(t, err)
	testutil.FatalIfErr(t, v.Run(context.Background()))
	testutil.ExpectNoDiff(t, "120\n", out.String())

	// A second run starts from scratch.
	out.Reset()
	testutil.FatalIfErr(t, v.Run(context.Background()))
	testutil.ExpectNoDiff(t, "120\n", out.String())
}

func TestVmRuntimeErrors(t *testing.T) {
	for _, tc := range []struct {
		name string
		prog string
		opts []vm.Option
		want string
	}{
		{"divide by zero",
			"program z; var x: integer; begin x := 0; write(1 div x) end.",
			nil,
			"division by zero"},
		{"missing input",
			"program r; var x: integer; begin read(x) end.",
			nil,
			"read failed"},
		{"infinite loop",
			"program l; var x: integer; begin while true do x := x + 1 end.",
			[]vm.Option{vm.MaxSteps(1000)},
			"step limit exceeded"},
		{"runaway recursion",
			"program r; procedure p; begin p end; begin p end.",
			[]vm.Option{vm.MaxStack(1000)},
			"stack overflow"},
	} {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			obj := compile(t, tc.name, tc.prog)
			v, err := vm.New(tc.name, obj.Instrs, tc.opts...)
			testutil.FatalIfErr(t, err)
			err = v.Run(context.Background())
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Errorf("Run() = %v, want %q", err, tc.want)
			}
			if v.RuntimeErrorString() == "" {
				t.Error("no runtime error recorded")
			}
		})
	}
}
