// Copyright 2011 Google Inc. All Rights Reserved.
// This file is available under the Apache license.

package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mafetri/pascalc/internal/runtime/compiler/ast"
)

// Unparser is for converting program syntax trees back to program text.
type Unparser struct {
	pos       int
	output    strings.Builder
	line      strings.Builder
	emitTypes bool
}

func (u *Unparser) indent() {
	u.pos += 2
}

func (u *Unparser) outdent() {
	u.pos -= 2
}

func (u *Unparser) prefix() (s string) {
	return strings.Repeat(" ", u.pos)
}

// emit appends s to the current line, which is indented by the depth in
// effect when the line was started.
func (u *Unparser) emit(s string) {
	if u.line.Len() == 0 {
		u.line.WriteString(u.prefix())
	}
	u.line.WriteString(s)
}

func (u *Unparser) newline() {
	u.output.WriteString(u.line.String())
	u.output.WriteString("\n")
	u.line.Reset()
}

func isExpr(n ast.Node) bool {
	switch n.(type) {
	case *ast.IDTerm, *ast.IntLit, *ast.BoolLit, *ast.BinaryExpr, *ast.UnaryExpr:
		return true
	case *ast.CallExpr:
		return true
	}
	return false
}

// operand walks an operator's argument, parenthesising nested binary
// expressions and signs so the printed text keeps the tree's grouping.
func (u *Unparser) operand(n ast.Node) {
	paren := false
	switch v := n.(type) {
	case *ast.BinaryExpr:
		paren = true
	case *ast.UnaryExpr:
		paren = Kind(v.Op) != NOT
	}
	if paren {
		u.emit("(")
		ast.Walk(u, n)
		u.emit(")")
		return
	}
	ast.Walk(u, n)
}

// VisitBefore implements the ast.Visitor interface.
func (u *Unparser) VisitBefore(n ast.Node) (ast.Visitor, ast.Node) {
	typed := u.emitTypes && isExpr(n)
	if typed {
		u.emit(fmt.Sprintf("<%s>(", n.Type()))
	}
	switch v := n.(type) {
	case *ast.Program:
		u.emit("program " + v.Name + ";")
		u.newline()
		ast.Walk(u, v.Block)
		u.emit(".")
		u.newline()

	case *ast.Block:
		if len(v.Vars) > 0 {
			u.emit("var")
			u.newline()
			u.indent()
			for _, d := range v.Vars {
				ast.Walk(u, d)
				u.emit(";")
				u.newline()
			}
			u.outdent()
		}
		for _, s := range v.Subs {
			ast.Walk(u, s)
			u.emit(";")
			u.newline()
		}
		ast.Walk(u, v.Body)

	case *ast.VarDecl:
		u.emit(v.Name + ": " + v.Typ.String())

	case *ast.SubroutineDecl:
		if v.IsFunction() {
			u.emit("function ")
		} else {
			u.emit("procedure ")
		}
		u.emit(v.Name)
		if len(v.Params) > 0 {
			u.emit("(")
			for i, p := range v.Params {
				if i > 0 {
					u.emit("; ")
				}
				ast.Walk(u, p)
			}
			u.emit(")")
		}
		if v.IsFunction() {
			u.emit(": " + v.Result.String())
		}
		u.emit(";")
		u.newline()
		ast.Walk(u, v.Block)

	case *ast.StmtList:
		u.emit("begin")
		u.newline()
		u.indent()
		for i, child := range v.Children {
			ast.Walk(u, child)
			if i < len(v.Children)-1 {
				u.emit(";")
			}
			u.newline()
		}
		u.outdent()
		u.emit("end")

	case *ast.AssignStmt:
		ast.Walk(u, v.LHS)
		u.emit(" := ")
		ast.Walk(u, v.RHS)

	case *ast.CondStmt:
		u.emit("if ")
		ast.Walk(u, v.Cond)
		u.emit(" then")
		u.newline()
		u.indent()
		ast.Walk(u, v.Truth)
		u.outdent()
		if v.Else != nil {
			u.newline()
			u.emit("else")
			u.newline()
			u.indent()
			ast.Walk(u, v.Else)
			u.outdent()
		}

	case *ast.WhileStmt:
		u.emit("while ")
		ast.Walk(u, v.Cond)
		u.emit(" do")
		u.newline()
		u.indent()
		ast.Walk(u, v.Body)
		u.outdent()

	case *ast.ReadStmt:
		u.emit("read(")
		ast.Walk(u, v.Target)
		u.emit(")")

	case *ast.WriteStmt:
		u.emit("write(")
		ast.Walk(u, v.Expr)
		u.emit(")")

	case *ast.CallExpr:
		u.emit(v.Name)
		if len(v.Args) > 0 {
			u.emit("(")
			for i, a := range v.Args {
				if i > 0 {
					u.emit(", ")
				}
				ast.Walk(u, a)
			}
			u.emit(")")
		}

	case *ast.IDTerm:
		u.emit(v.Name)

	case *ast.IntLit:
		u.emit(strconv.Itoa(v.I))

	case *ast.BoolLit:
		u.emit(strconv.FormatBool(v.B))

	case *ast.BinaryExpr:
		u.operand(v.LHS)
		u.emit(" " + Kind(v.Op).String() + " ")
		u.operand(v.RHS)

	case *ast.UnaryExpr:
		u.emit(Kind(v.Op).String())
		if Kind(v.Op) == NOT {
			u.emit(" ")
		}
		u.operand(v.Expr)

	default:
		panic(fmt.Sprintf("unparser found undefined type %T", n))
	}
	if typed {
		u.emit(")")
	}
	return nil, n
}

// VisitAfter implements the ast.Visitor interface.
func (u *Unparser) VisitAfter(n ast.Node) ast.Node {
	return n
}

// Unparse begins the unparsing of the syntax tree, returning the program text as a single string.
func (u *Unparser) Unparse(n ast.Node) string {
	ast.Walk(u, n)
	if u.line.Len() > 0 {
		u.newline()
	}
	return u.output.String()
}

// NewUnparser returns an Unparser; with emitTypes set, expressions are
// annotated with their checked types.
func NewUnparser(emitTypes bool) *Unparser {
	return &Unparser{emitTypes: emitTypes}
}
