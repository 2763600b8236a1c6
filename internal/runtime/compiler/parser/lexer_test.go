// Copyright 2011 Google Inc. All Rights Reserved.
// This file is available under the Apache license.

package parser

import (
	"strings"
	"testing"

	"github.com/mafetri/pascalc/internal/runtime/compiler/position"
	"github.com/mafetri/pascalc/internal/testutil"
)

type lexerTest struct {
	name   string
	input  string
	tokens []Token
}

var lexerTests = []lexerTest{
	{name: "empty", tokens: []Token{
		{EOF, "", position.Position{Filename: "empty", Line: 0, Startcol: 0, Endcol: -1}},
	}},
	{name: "spaces", input: " \t\n", tokens: []Token{
		{EOF, "", position.Position{Filename: "spaces", Line: 1, Startcol: 0, Endcol: -1}},
	}},
	{name: "punctuation", input: "( ) , ; . :", tokens: []Token{
		{LPAREN, "(", position.Position{Filename: "punctuation", Line: 0, Startcol: 0, Endcol: 0}},
		{RPAREN, ")", position.Position{Filename: "punctuation", Line: 0, Startcol: 2, Endcol: 2}},
		{COMMA, ",", position.Position{Filename: "punctuation", Line: 0, Startcol: 4, Endcol: 4}},
		{SEMICOLON, ";", position.Position{Filename: "punctuation", Line: 0, Startcol: 6, Endcol: 6}},
		{DOT, ".", position.Position{Filename: "punctuation", Line: 0, Startcol: 8, Endcol: 8}},
		{COLON, ":", position.Position{Filename: "punctuation", Line: 0, Startcol: 10, Endcol: 10}},
		{EOF, "", position.Position{Filename: "punctuation", Line: 0, Startcol: 11, Endcol: 10}},
	}},
	{name: "operators", input: ":= + - * / = <> < <= > >=", tokens: []Token{
		{ASSIGN, ":=", position.Position{Filename: "operators", Line: 0, Startcol: 0, Endcol: 1}},
		{PLUS, "+", position.Position{Filename: "operators", Line: 0, Startcol: 3, Endcol: 3}},
		{MINUS, "-", position.Position{Filename: "operators", Line: 0, Startcol: 5, Endcol: 5}},
		{MUL, "*", position.Position{Filename: "operators", Line: 0, Startcol: 7, Endcol: 7}},
		{DIV, "/", position.Position{Filename: "operators", Line: 0, Startcol: 9, Endcol: 9}},
		{EQ, "=", position.Position{Filename: "operators", Line: 0, Startcol: 11, Endcol: 11}},
		{NE, "<>", position.Position{Filename: "operators", Line: 0, Startcol: 13, Endcol: 14}},
		{LT, "<", position.Position{Filename: "operators", Line: 0, Startcol: 16, Endcol: 16}},
		{LE, "<=", position.Position{Filename: "operators", Line: 0, Startcol: 18, Endcol: 19}},
		{GT, ">", position.Position{Filename: "operators", Line: 0, Startcol: 21, Endcol: 21}},
		{GE, ">=", position.Position{Filename: "operators", Line: 0, Startcol: 23, Endcol: 24}},
		{EOF, "", position.Position{Filename: "operators", Line: 0, Startcol: 25, Endcol: 24}},
	}},
	{name: "keywords", input: "Program BEGIN end div", tokens: []Token{
		{PROGRAM, "program", position.Position{Filename: "keywords", Line: 0, Startcol: 0, Endcol: 6}},
		{BEGIN, "begin", position.Position{Filename: "keywords", Line: 0, Startcol: 8, Endcol: 12}},
		{END, "end", position.Position{Filename: "keywords", Line: 0, Startcol: 14, Endcol: 16}},
		{DIV, "div", position.Position{Filename: "keywords", Line: 0, Startcol: 18, Endcol: 20}},
		{EOF, "", position.Position{Filename: "keywords", Line: 0, Startcol: 21, Endcol: 20}},
	}},
	{name: "identifiers", input: "Foo x_1\nbar2", tokens: []Token{
		{ID, "foo", position.Position{Filename: "identifiers", Line: 0, Startcol: 0, Endcol: 2}},
		{ID, "x_1", position.Position{Filename: "identifiers", Line: 0, Startcol: 4, Endcol: 6}},
		{ID, "bar2", position.Position{Filename: "identifiers", Line: 1, Startcol: 0, Endcol: 3}},
		{EOF, "", position.Position{Filename: "identifiers", Line: 1, Startcol: 4, Endcol: 3}},
	}},
	{name: "numbers", input: "x:=42;", tokens: []Token{
		{ID, "x", position.Position{Filename: "numbers", Line: 0, Startcol: 0, Endcol: 0}},
		{ASSIGN, ":=", position.Position{Filename: "numbers", Line: 0, Startcol: 1, Endcol: 2}},
		{NUMERIC, "42", position.Position{Filename: "numbers", Line: 0, Startcol: 3, Endcol: 4}},
		{SEMICOLON, ";", position.Position{Filename: "numbers", Line: 0, Startcol: 5, Endcol: 5}},
		{EOF, "", position.Position{Filename: "numbers", Line: 0, Startcol: 6, Endcol: 5}},
	}},
	{name: "comment", input: "a {skip\n me} b", tokens: []Token{
		{ID, "a", position.Position{Filename: "comment", Line: 0, Startcol: 0, Endcol: 0}},
		{ID, "b", position.Position{Filename: "comment", Line: 1, Startcol: 5, Endcol: 5}},
		{EOF, "", position.Position{Filename: "comment", Line: 1, Startcol: 6, Endcol: 5}},
	}},
	{name: "unterminated comment", input: "{oops", tokens: []Token{
		{INVALID, "Unterminated comment", position.Position{Filename: "unterminated comment", Line: 0, Startcol: 5, Endcol: 4}},
		{EOF, "", position.Position{Filename: "unterminated comment", Line: 0, Startcol: 5, Endcol: 4}},
	}},
	{name: "invalid", input: "a ? b", tokens: []Token{
		{ID, "a", position.Position{Filename: "invalid", Line: 0, Startcol: 0, Endcol: 0}},
		{INVALID, "Unexpected input: '?'", position.Position{Filename: "invalid", Line: 0, Startcol: 2, Endcol: 2}},
		{ID, "b", position.Position{Filename: "invalid", Line: 0, Startcol: 4, Endcol: 4}},
		{EOF, "", position.Position{Filename: "invalid", Line: 0, Startcol: 5, Endcol: 4}},
	}},
}

// collect gathers the emitted items into a slice.
func collect(t *lexerTest) (tokens []Token) {
	l := NewLexer(t.name, strings.NewReader(t.input))
	for {
		tok := l.NextToken()
		tokens = append(tokens, tok)
		if tok.Kind == EOF {
			return
		}
	}
}

func TestLex(t *testing.T) {
	for _, tc := range lexerTests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			tokens := collect(&tc)
			testutil.ExpectNoDiff(t, tc.tokens, tokens, testutil.AllowUnexported(Token{}))
		})
	}
}

func TestDictionarySorted(t *testing.T) {
	d := Dictionary()
	if len(d) != len(keywords) {
		t.Fatalf("Dictionary() has %d entries, want %d", len(d), len(keywords))
	}
	for i := 1; i < len(d); i++ {
		if d[i-1] >= d[i] {
			t.Errorf("Dictionary not sorted at %d: %q >= %q", i, d[i-1], d[i])
		}
	}
}
