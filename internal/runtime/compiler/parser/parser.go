// Copyright 2011 Google Inc. All Rights Reserved.
// This file is available under the Apache license.

// Package parser turns program source text into a syntax tree.
package parser

import (
	"io"
	"strconv"

	"github.com/golang/glog"
	"github.com/mafetri/pascalc/internal/runtime/compiler/ast"
	"github.com/mafetri/pascalc/internal/runtime/compiler/errors"
	"github.com/mafetri/pascalc/internal/runtime/compiler/position"
	"github.com/mafetri/pascalc/internal/runtime/compiler/symbol"
	"github.com/mafetri/pascalc/internal/runtime/compiler/types"
)

// Parse reads the program source from input and returns its syntax tree, or
// the syntax errors found.
func Parse(name string, input io.Reader) (*ast.Program, error) {
	p := newParser(name, input)
	prog := p.parse()
	if len(p.errors) > 0 {
		return nil, p.errors
	}
	return prog, nil
}

// bailout is raised to abandon parsing after the first syntax error.
type bailout struct{}

type parser struct {
	name   string
	l      *Lexer
	tok    Token // lookahead
	errors errors.ErrorList
}

func newParser(name string, input io.Reader) *parser {
	return &parser{name: name, l: NewLexer(name, input)}
}

func (p *parser) parse() (prog *ast.Program) {
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(bailout); !ok {
				panic(r)
			}
			prog = nil
		}
	}()
	p.next()
	return p.program()
}

// next advances the lookahead.  Lexer errors are syntax errors.
func (p *parser) next() {
	p.tok = p.l.NextToken()
	glog.V(2).Infof("lookahead %s", p.tok)
	if p.tok.Kind == INVALID {
		p.errorf(&p.tok.Pos, "%s", p.tok.Spelling)
	}
}

func (p *parser) errorf(pos *position.Position, format string, args ...interface{}) {
	p.errors.Addf(pos, errors.Syntax, format, args...)
	panic(bailout{})
}

func (p *parser) unexpected(want string) {
	got := p.tok.Kind.String()
	if p.tok.Kind == ID || p.tok.Kind == NUMERIC {
		got += " " + strconv.Quote(p.tok.Spelling)
	}
	p.errorf(&p.tok.Pos, "syntax error: unexpected %s, expecting %s", got, want)
}

// expect consumes a token of kind k and returns it.
func (p *parser) expect(k Kind) Token {
	tok := p.tok
	if tok.Kind != k {
		p.unexpected(k.String())
	}
	p.next()
	return tok
}

// accept consumes the lookahead if it is of kind k.
func (p *parser) accept(k Kind) bool {
	if p.tok.Kind != k {
		return false
	}
	p.next()
	return true
}

// program: PROGRAM ID ';' block '.' EOF
func (p *parser) program() *ast.Program {
	start := p.expect(PROGRAM)
	id := p.expect(ID)
	p.expect(SEMICOLON)
	prog := &ast.Program{P: *position.Merge(&start.Pos, &id.Pos), Name: id.Spelling}
	prog.Block = p.block()
	p.expect(DOT)
	if p.tok.Kind != EOF {
		p.unexpected("end of program")
	}
	return prog
}

// block: [VAR varsection {varsection}] {subroutine ';'} compound
func (p *parser) block() *ast.Block {
	b := &ast.Block{}
	if p.accept(VAR) {
		b.Vars = append(b.Vars, p.varSection()...)
		for p.tok.Kind == ID {
			b.Vars = append(b.Vars, p.varSection()...)
		}
	}
	for p.tok.Kind == PROCEDURE || p.tok.Kind == FUNCTION {
		b.Subs = append(b.Subs, p.subroutine())
		p.expect(SEMICOLON)
	}
	b.Body = p.compound()
	return b
}

// varSection: idlist ':' type ';'
func (p *parser) varSection() []*ast.VarDecl {
	decls := p.section()
	p.expect(SEMICOLON)
	return decls
}

// section: ID {',' ID} ':' type
func (p *parser) section() []*ast.VarDecl {
	var ids []Token
	ids = append(ids, p.expect(ID))
	for p.accept(COMMA) {
		ids = append(ids, p.expect(ID))
	}
	p.expect(COLON)
	typ := p.typeName()
	decls := make([]*ast.VarDecl, 0, len(ids))
	for _, id := range ids {
		decls = append(decls, &ast.VarDecl{P: id.Pos, Name: id.Spelling, Typ: typ})
	}
	return decls
}

func (p *parser) typeName() types.Type {
	switch p.tok.Kind {
	case INTEGER, BOOLEAN:
		t, _ := types.FromName(p.tok.Kind.String())
		p.next()
		return t
	}
	p.unexpected("type name")
	return types.Void
}

// subroutine: PROCEDURE ID [formals] ';' block
//           | FUNCTION ID [formals] ':' type ';' block
func (p *parser) subroutine() *ast.SubroutineDecl {
	n := &ast.SubroutineDecl{Category: symbol.Procedure, Result: types.Void}
	if p.tok.Kind == FUNCTION {
		n.Category = symbol.Function
	}
	p.next()
	id := p.expect(ID)
	n.P, n.Name = id.Pos, id.Spelling
	if p.accept(LPAREN) {
		n.Params = append(n.Params, p.section()...)
		for p.accept(SEMICOLON) {
			n.Params = append(n.Params, p.section()...)
		}
		p.expect(RPAREN)
	}
	if n.IsFunction() {
		p.expect(COLON)
		n.Result = p.typeName()
	}
	p.expect(SEMICOLON)
	n.Block = p.block()
	return n
}

// compound: BEGIN stmt {';' stmt} END
func (p *parser) compound() *ast.StmtList {
	begin := p.expect(BEGIN)
	l := &ast.StmtList{P: begin.Pos}
	if s := p.statement(); s != nil {
		l.Children = append(l.Children, s)
	}
	for p.accept(SEMICOLON) {
		if s := p.statement(); s != nil {
			l.Children = append(l.Children, s)
		}
	}
	p.expect(END)
	return l
}

// statement returns nil for the empty statement.
func (p *parser) statement() ast.Node {
	switch p.tok.Kind {
	case ID:
		id := p.tok
		p.next()
		switch p.tok.Kind {
		case ASSIGN:
			p.next()
			lhs := &ast.IDTerm{P: id.Pos, Name: id.Spelling, Lvalue: true}
			return &ast.AssignStmt{LHS: lhs, RHS: p.expr()}
		case LPAREN:
			return &ast.CallExpr{P: id.Pos, Name: id.Spelling, Args: p.args()}
		}
		return &ast.CallExpr{P: id.Pos, Name: id.Spelling}

	case BEGIN:
		return p.compound()

	case IF:
		p.next()
		n := &ast.CondStmt{Cond: p.expr()}
		p.expect(THEN)
		n.Truth = p.nonEmptyStatement()
		if p.accept(ELSE) {
			n.Else = p.nonEmptyStatement()
		}
		return n

	case WHILE:
		p.next()
		n := &ast.WhileStmt{Cond: p.expr()}
		p.expect(DO)
		n.Body = p.nonEmptyStatement()
		return n

	case READ:
		start := p.tok
		p.next()
		p.expect(LPAREN)
		id := p.expect(ID)
		p.expect(RPAREN)
		return &ast.ReadStmt{P: start.Pos, Target: &ast.IDTerm{P: id.Pos, Name: id.Spelling, Lvalue: true}}

	case WRITE:
		start := p.tok
		p.next()
		p.expect(LPAREN)
		e := p.expr()
		p.expect(RPAREN)
		return &ast.WriteStmt{P: start.Pos, Expr: e}

	case SEMICOLON, END, ELSE:
		return nil
	}
	p.unexpected("statement")
	return nil
}

// nonEmptyStatement stands in an empty compound for an empty statement, so
// branch and loop bodies are never nil.
func (p *parser) nonEmptyStatement() ast.Node {
	pos := p.tok.Pos
	if s := p.statement(); s != nil {
		return s
	}
	return &ast.StmtList{P: pos}
}

// args: '(' expr {',' expr} ')'
func (p *parser) args() []ast.Node {
	p.expect(LPAREN)
	var args []ast.Node
	if p.accept(RPAREN) {
		return args
	}
	args = append(args, p.expr())
	for p.accept(COMMA) {
		args = append(args, p.expr())
	}
	p.expect(RPAREN)
	return args
}

var relops = map[Kind]bool{EQ: true, NE: true, LT: true, LE: true, GT: true, GE: true}

// expr: simple [relop simple]
func (p *parser) expr() ast.Node {
	lhs := p.simple()
	if relops[p.tok.Kind] {
		op := p.tok.Kind
		p.next()
		return &ast.BinaryExpr{LHS: lhs, RHS: p.simple(), Op: int(op)}
	}
	return lhs
}

// simple: ['+'|'-'] term {('+'|'-'|OR) term}
func (p *parser) simple() ast.Node {
	var lhs ast.Node
	if p.tok.Kind == PLUS || p.tok.Kind == MINUS {
		sign := p.tok
		p.next()
		lhs = &ast.UnaryExpr{P: sign.Pos, Expr: p.term(), Op: int(sign.Kind)}
	} else {
		lhs = p.term()
	}
	for p.tok.Kind == PLUS || p.tok.Kind == MINUS || p.tok.Kind == OR {
		op := p.tok.Kind
		p.next()
		lhs = &ast.BinaryExpr{LHS: lhs, RHS: p.term(), Op: int(op)}
	}
	return lhs
}

// term: factor {('*'|DIV|AND) factor}
func (p *parser) term() ast.Node {
	lhs := p.factor()
	for p.tok.Kind == MUL || p.tok.Kind == DIV || p.tok.Kind == AND {
		op := p.tok.Kind
		p.next()
		lhs = &ast.BinaryExpr{LHS: lhs, RHS: p.factor(), Op: int(op)}
	}
	return lhs
}

// factor: ID [args] | NUMERIC | '(' expr ')' | NOT factor | TRUE | FALSE
func (p *parser) factor() ast.Node {
	tok := p.tok
	switch tok.Kind {
	case ID:
		p.next()
		if p.tok.Kind == LPAREN {
			return &ast.CallExpr{P: tok.Pos, Name: tok.Spelling, Args: p.args()}
		}
		return &ast.IDTerm{P: tok.Pos, Name: tok.Spelling}
	case NUMERIC:
		i, err := strconv.Atoi(tok.Spelling)
		if err != nil {
			p.errorf(&tok.Pos, "invalid integer constant %q: %s", tok.Spelling, err)
		}
		p.next()
		return &ast.IntLit{P: tok.Pos, I: i}
	case LPAREN:
		p.next()
		e := p.expr()
		p.expect(RPAREN)
		return e
	case NOT:
		p.next()
		return &ast.UnaryExpr{P: tok.Pos, Expr: p.factor(), Op: int(NOT)}
	case TRUE, FALSE:
		p.next()
		return &ast.BoolLit{P: tok.Pos, B: tok.Kind == TRUE}
	}
	p.unexpected("expression")
	return nil
}
