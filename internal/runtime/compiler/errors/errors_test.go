// Copyright 2020 Google Inc. All Rights Reserved.
// This file is available under the Apache license.

package errors_test

import (
	"testing"

	"github.com/mafetri/pascalc/internal/runtime/compiler/errors"
	"github.com/mafetri/pascalc/internal/runtime/compiler/position"
	pkgerrors "github.com/pkg/errors"
)

func TestNilErrorPosition(t *testing.T) {
	e := errors.ErrorList{}
	e.Add(nil, errors.Syntax, "ok")
	r := e.Error()
	expected := "syntax error: ok"
	if r != expected {
		t.Errorf("want %q, got %q", expected, r)
	}
}

func TestErrorListString(t *testing.T) {
	e := errors.ErrorList{}
	if e.Error() != "no errors" {
		t.Errorf("empty list: %q", e.Error())
	}
	e.Addf(&position.Position{Filename: "p.pas", Line: 0, Startcol: 1, Endcol: 3}, errors.NotDeclared, "identifier %q not declared", "x")
	e.Add(&position.Position{Filename: "p.pas", Line: 4, Startcol: 0, Endcol: 0}, errors.TypeMismatch, "bad")
	want := "p.pas:1:2-4: identifier \"x\" not declared\np.pas:5:1: bad"
	if e.Error() != want {
		t.Errorf("want %q, got %q", want, e.Error())
	}
	if !e.Has(errors.TypeMismatch) || e.Has(errors.Syntax) {
		t.Errorf("Has() wrong for %v", e)
	}
}

func TestAddCopiesPosition(t *testing.T) {
	p := &position.Position{Filename: "p.pas", Line: 0, Startcol: 0, Endcol: 0}
	e := errors.ErrorList{}
	e.Add(p, errors.Syntax, "x")
	p.Line = 9
	if e[0].Pos.Line != 0 {
		t.Errorf("position aliased: %v", e[0].Pos)
	}
}

func TestKindOf(t *testing.T) {
	var l errors.ErrorList
	l.Add(nil, errors.ArityMismatch, "x")
	for _, tc := range []struct {
		name string
		err  error
		want errors.Kind
	}{
		{"list", l, errors.ArityMismatch},
		{"internal", errors.Internalf("missing %s", "x"), errors.Internal},
		{"wrapped", pkgerrors.Wrap(l, "compile"), errors.ArityMismatch},
		{"foreign", pkgerrors.New("x"), errors.Internal},
	} {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			if got := errors.KindOf(tc.err); got != tc.want {
				t.Errorf("KindOf(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}
