// Copyright 2011 Google Inc. All Rights Reserved.
// This file is available under the Apache license.

package parser

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"unicode"

	"github.com/golang/glog"
	"github.com/mafetri/pascalc/internal/runtime/compiler/position"
)

// List of keywords.  Keep this list sorted!
var keywords = map[string]Kind{
	"and":       AND,
	"begin":     BEGIN,
	"boolean":   BOOLEAN,
	"div":       DIV,
	"do":        DO,
	"else":      ELSE,
	"end":       END,
	"false":     FALSE,
	"function":  FUNCTION,
	"if":        IF,
	"integer":   INTEGER,
	"not":       NOT,
	"or":        OR,
	"procedure": PROCEDURE,
	"program":   PROGRAM,
	"read":      READ,
	"then":      THEN,
	"true":      TRUE,
	"var":       VAR,
	"while":     WHILE,
	"write":     WRITE,
}

// Dictionary returns a sorted list of all keywords of the language.
func Dictionary() (r []string) {
	for k := range keywords {
		r = append(r, k)
	}
	sort.Strings(r)
	return
}

// A stateFn represents each state the scanner can be in.
type stateFn func(*Lexer) stateFn

// A lexer holds the state of the scanner.
type Lexer struct {
	name  string        // Name of program.
	input *bufio.Reader // Source program
	state stateFn       // Current state function of the lexer.

	// The "read cursor" in the input.
	rune  rune // The current rune.
	width int  // Width in bytes.
	line  int  // The line position of the current rune.
	col   int  // The column position of the current rune.

	// The currently being lexed token.
	startcol int             // Starting column of the current token.
	text     strings.Builder // the text of the current token

	tokens chan Token // Output channel for tokens emitted.
}

// NewLexer creates a new scanner type that reads the input provided.
func NewLexer(name string, input io.Reader) *Lexer {
	l := &Lexer{
		name:   name,
		input:  bufio.NewReader(input),
		state:  lexProg,
		tokens: make(chan Token, 2),
	}
	return l
}

// NextToken returns the next token in the input.  When no token is available
// to be returned it executes the next action in the state machine.
func (l *Lexer) NextToken() Token {
	for {
		select {
		case tok := <-l.tokens:
			return tok
		default:
			l.state = l.state(l)
		}
	}
}

// emit passes a token to the client.
func (l *Lexer) emit(kind Kind) {
	pos := position.Position{Filename: l.name, Line: l.line, Startcol: l.startcol, Endcol: l.col - 1}
	glog.V(2).Infof("Emitting %v spelled %q at %v", kind, l.text.String(), pos)
	l.tokens <- Token{kind, l.text.String(), pos}
	// Reset the current token
	l.text.Reset()
	l.startcol = l.col
}

// Internal end of file value.
const eof rune = -1

// next returns the next rune in the input.
func (l *Lexer) next() rune {
	var err error
	l.rune, l.width, err = l.input.ReadRune()
	if errors.Is(err, io.EOF) {
		l.width = 1
		l.rune = eof
	}
	return l.rune
}

// backup indicates that we haven't yet dealt with the next rune. Use when
// terminating tokens on unknown runes.
func (l *Lexer) backup() {
	l.width = 0
	if l.rune == eof {
		return
	}
	if err := l.input.UnreadRune(); err != nil {
		glog.Info(err)
	}
}

// stepCursor moves the read cursor.
func (l *Lexer) stepCursor() {
	if l.rune == '\n' {
		l.line++
		l.col = 0
	} else {
		l.col += l.width
	}
}

// accept accepts the current rune and its position into the current token.
func (l *Lexer) accept() {
	l.text.WriteRune(l.rune)
	l.stepCursor()
}

// ignore skips over the current rune, removing it from the text of the token,
// and resetting the start position of the current token. Use only between
// tokens.
func (l *Lexer) ignore() {
	l.stepCursor()
	l.startcol = l.col
}

// errorf returns an error token and resets the scanner.
func (l *Lexer) errorf(format string, args ...interface{}) stateFn {
	pos := position.Position{
		Filename: l.name,
		Line:     l.line,
		Startcol: l.startcol,
		Endcol:   l.col - 1,
	}
	l.tokens <- Token{
		Kind:     INVALID,
		Spelling: fmt.Sprintf(format, args...),
		Pos:      pos,
	}
	// Reset the current token
	l.text.Reset()
	l.startcol = l.col
	return lexProg
}

// State functions.

// lexProg starts lexing a program.
func lexProg(l *Lexer) stateFn {
	switch r := l.next(); {
	case r == eof:
		l.emit(EOF)
		// Stay at EOF.
		return lexProg
	case isSpace(r):
		l.ignore()
	case r == '{':
		l.ignore()
		return lexComment
	case r == '(':
		l.accept()
		l.emit(LPAREN)
	case r == ')':
		l.accept()
		l.emit(RPAREN)
	case r == ',':
		l.accept()
		l.emit(COMMA)
	case r == ';':
		l.accept()
		l.emit(SEMICOLON)
	case r == '.':
		l.accept()
		l.emit(DOT)
	case r == '+':
		l.accept()
		l.emit(PLUS)
	case r == '-':
		l.accept()
		l.emit(MINUS)
	case r == '*':
		l.accept()
		l.emit(MUL)
	case r == '/':
		l.accept()
		l.emit(DIV)
	case r == '=':
		l.accept()
		l.emit(EQ)
	case r == ':':
		l.accept()
		if l.next() == '=' {
			l.accept()
			l.emit(ASSIGN)
		} else {
			l.backup()
			l.emit(COLON)
		}
	case r == '<':
		l.accept()
		switch l.next() {
		case '=':
			l.accept()
			l.emit(LE)
		case '>':
			l.accept()
			l.emit(NE)
		default:
			l.backup()
			l.emit(LT)
		}
	case r == '>':
		l.accept()
		if l.next() == '=' {
			l.accept()
			l.emit(GE)
		} else {
			l.backup()
			l.emit(GT)
		}
	case isDigit(r):
		return lexNumeric
	case isAlpha(r):
		return lexIdentifier
	default:
		l.accept()
		return l.errorf("Unexpected input: %q", r)
	}
	return lexProg
}

// lexComment skips a brace comment, which may span lines.
func lexComment(l *Lexer) stateFn {
	for {
		switch l.next() {
		case eof:
			return l.errorf("Unterminated comment")
		case '}':
			l.ignore()
			return lexProg
		default:
			l.ignore()
		}
	}
}

// Lex a numerical constant.  Only unsigned integers exist in the language.
func lexNumeric(l *Lexer) stateFn {
	l.accept()
	for {
		r := l.next()
		if !isDigit(r) {
			break
		}
		l.accept()
	}
	l.backup()
	l.emit(NUMERIC)
	return lexProg
}

// lexIdentifier lexes an identifier or keyword.  Identifiers are case
// insensitive and are folded to lower case.
func lexIdentifier(l *Lexer) stateFn {
	l.text.WriteRune(unicode.ToLower(l.rune))
	l.stepCursor()
	for {
		r := l.next()
		if !isAlnum(r) {
			break
		}
		l.text.WriteRune(unicode.ToLower(r))
		l.stepCursor()
	}
	l.backup()
	if kind, ok := keywords[l.text.String()]; ok {
		l.emit(kind)
	} else {
		l.emit(ID)
	}
	return lexProg
}

// Helper predicates.

// isAlpha reports whether r is an alphabetical character.
func isAlpha(r rune) bool {
	return unicode.IsLetter(r)
}

// isAlnum reports whether r is an alphanumeric or underscore character.
func isAlnum(r rune) bool {
	return isAlpha(r) || isDigit(r) || r == '_'
}

// isDigit reports whether r is a numerical digit.
func isDigit(r rune) bool {
	return unicode.IsDigit(r)
}

// isSpace reports whether r is whitespace.
func isSpace(r rune) bool {
	return unicode.IsSpace(r)
}
