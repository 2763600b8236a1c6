// Copyright 2016 Google Inc. All Rights Reserved.
// This file is available under the Apache license.

// Package types describes the static types of the source language.
package types

import (
	"errors"
	"fmt"
)

// Type represents a type in a program.  Only scalar types exist.
type Type int

const (
	// Void is the type of statements and procedures.
	Void Type = iota
	Integer
	Boolean
)

func (t Type) String() string {
	switch t {
	case Void:
		return "void"
	case Integer:
		return "integer"
	case Boolean:
		return "boolean"
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

// FromName maps a type keyword to its Type.
func FromName(name string) (Type, bool) {
	switch name {
	case "integer":
		return Integer, true
	case "boolean":
		return Boolean, true
	}
	return Void, false
}

// IsScalar reports whether a value of type t can be stored in a variable.
func IsScalar(t Type) bool {
	return t == Integer || t == Boolean
}

var ErrTypeMismatch = errors.New("type mismatch")

// TypeError describes an error in which a type was expected, but another was encountered.
type TypeError struct {
	expected Type
	received Type
}

// Mismatch returns a TypeError for an expected type that was not received.
func Mismatch(expected, received Type) *TypeError {
	return &TypeError{expected, received}
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("%s; expected %s received %s", ErrTypeMismatch, e.expected, e.received)
}

func (e *TypeError) Unwrap() error {
	return ErrTypeMismatch
}

// Check returns a TypeError unless received equals expected.
func Check(expected, received Type) error {
	if expected != received {
		return Mismatch(expected, received)
	}
	return nil
}
