// Copyright 2015 Google Inc. All Rights Reserved.
// This file is available under the Apache license.

// Package errors holds the positioned diagnostics produced by the compiler.
package errors

import (
	"fmt"

	"github.com/mafetri/pascalc/internal/runtime/compiler/position"
	"github.com/pkg/errors"
)

// Kind classifies a compile error.
type Kind int

const (
	Syntax Kind = iota
	DuplicateSymbol
	NotDeclared
	TypeMismatch
	ArityMismatch
	InvalidConditionType
	MissingReturnAssignment
	InvalidAssignment
	// Internal marks an inconsistency between compiler passes, never a
	// problem in the user's program.
	Internal
)

var kindNames = map[Kind]string{
	Syntax:                  "syntax error",
	DuplicateSymbol:         "duplicate symbol",
	NotDeclared:             "not declared",
	TypeMismatch:            "type mismatch",
	ArityMismatch:           "arity mismatch",
	InvalidConditionType:    "invalid condition type",
	MissingReturnAssignment: "missing return assignment",
	InvalidAssignment:       "invalid assignment",
	Internal:                "internal compiler error",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Error is a single compile error.  Pos may be nil for errors that are not
// attached to a source location.
type Error struct {
	Pos  *position.Position
	Kind Kind
	Msg  string
}

func (e *Error) Error() string {
	if e.Pos == nil {
		return e.Kind.String() + ": " + e.Msg
	}
	return e.Pos.String() + ": " + e.Msg
}

// ErrorList contains a list of compile errors.
type ErrorList []*Error

// Add appends an error of kind at a position to the list of errors.
func (p *ErrorList) Add(pos *position.Position, kind Kind, msg string) {
	var pp *position.Position
	if pos != nil {
		c := *pos
		pp = &c
	}
	*p = append(*p, &Error{pp, kind, msg})
}

// Addf is Add with a format string.
func (p *ErrorList) Addf(pos *position.Position, kind Kind, format string, args ...interface{}) {
	p.Add(pos, kind, fmt.Sprintf(format, args...))
}

// Append puts an ErrorList on the end of this ErrorList.
func (p *ErrorList) Append(l ErrorList) {
	*p = append(*p, l...)
}

// Has reports whether any error in the list is of kind.
func (p ErrorList) Has(kind Kind) bool {
	for _, e := range p {
		if e.Kind == kind {
			return true
		}
	}
	return false
}

// ErrorList implements the error interface.
func (p ErrorList) Error() string {
	switch len(p) {
	case 0:
		return "no errors"
	case 1:
		return p[0].Error()
	}
	var r string
	for _, e := range p {
		r += fmt.Sprintf("%s\n", e)
	}
	return r[:len(r)-1]
}

func Errorf(format string, args ...interface{}) error {
	return errors.Errorf(format, args...)
}

// Internalf returns an Internal error carrying a stack trace.
func Internalf(format string, args ...interface{}) error {
	return errors.WithStack(&Error{Kind: Internal, Msg: fmt.Sprintf(format, args...)})
}

// KindOf returns the Kind of err, looking through wrapping.  An ErrorList
// reports the kind of its first entry.  Errors from outside this package are
// Internal.
func KindOf(err error) Kind {
	switch e := errors.Cause(err).(type) {
	case *Error:
		return e.Kind
	case ErrorList:
		if len(e) > 0 {
			return e[0].Kind
		}
	}
	return Internal
}
