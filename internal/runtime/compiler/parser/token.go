// Copyright 2011 Google Inc. All Rights Reserved.
// This file is available under the Apache license.

package parser

import (
	"fmt"

	"github.com/mafetri/pascalc/internal/runtime/compiler/position"
)

// Kind enumerates the types of lexical tokens in a program.
type Kind int

const (
	INVALID Kind = iota // An invalid token, its spelling carries the error.
	EOF

	ID
	NUMERIC

	// Keywords.
	PROGRAM
	VAR
	PROCEDURE
	FUNCTION
	INTEGER
	BOOLEAN
	BEGIN
	END
	IF
	THEN
	ELSE
	WHILE
	DO
	READ
	WRITE
	TRUE
	FALSE
	AND
	OR
	NOT
	DIV

	// Punctuation and operators.
	ASSIGN
	COLON
	SEMICOLON
	COMMA
	DOT
	LPAREN
	RPAREN
	PLUS
	MINUS
	MUL
	EQ
	NE
	LT
	LE
	GT
	GE
)

var kindNames = map[Kind]string{
	INVALID:   "INVALID",
	EOF:       "EOF",
	ID:        "ID",
	NUMERIC:   "NUMERIC",
	PROGRAM:   "program",
	VAR:       "var",
	PROCEDURE: "procedure",
	FUNCTION:  "function",
	INTEGER:   "integer",
	BOOLEAN:   "boolean",
	BEGIN:     "begin",
	END:       "end",
	IF:        "if",
	THEN:      "then",
	ELSE:      "else",
	WHILE:     "while",
	DO:        "do",
	READ:      "read",
	WRITE:     "write",
	TRUE:      "true",
	FALSE:     "false",
	AND:       "and",
	OR:        "or",
	NOT:       "not",
	DIV:       "div",
	ASSIGN:    ":=",
	COLON:     ":",
	SEMICOLON: ";",
	COMMA:     ",",
	DOT:       ".",
	LPAREN:    "(",
	RPAREN:    ")",
	PLUS:      "+",
	MINUS:     "-",
	MUL:       "*",
	EQ:        "=",
	NE:        "<>",
	LT:        "<",
	LE:        "<=",
	GT:        ">",
	GE:        ">=",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Token describes a lexed Token from the input, containing its type, the
// original text of the Token, and its position in the input.
type Token struct {
	Kind     Kind
	Spelling string
	Pos      position.Position
}

// String returns a printable form of a Token.
func (t Token) String() string {
	return fmt.Sprintf("%s(%q,%s)", t.Kind, t.Spelling, t.Pos)
}
