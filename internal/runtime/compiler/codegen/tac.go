// Copyright 2024 Google Inc. All Rights Reserved.
// This file is available under the Apache license.

package codegen

import (
	"fmt"
	"strconv"

	"github.com/golang/glog"
	"github.com/mafetri/pascalc/internal/runtime/code"
	"github.com/mafetri/pascalc/internal/runtime/compiler/ast"
	"github.com/mafetri/pascalc/internal/runtime/compiler/parser"
	"github.com/mafetri/pascalc/internal/runtime/compiler/symbol"
)

// tacgen represents a three address code generator.
type tacgen struct {
	tab    *symbol.Table
	quads  []code.Quad
	temps  int // next temporary number
	labels int // next label number
}

// TAC translates the program into quadruples.  The main block comes first,
// then each subroutine as `proc name` ... `return`, nested subroutines before
// the one that encloses them.
func TAC(prog *ast.Program, tab *symbol.Table) ([]code.Quad, error) {
	g := &tacgen{tab: tab}
	if err := g.stmt(prog.Block.Body); err != nil {
		return nil, err
	}
	for _, sub := range prog.Block.Subs {
		if err := g.subroutine(sub); err != nil {
			return nil, err
		}
	}
	return g.quads, nil
}

func (g *tacgen) emit(op code.Op, arg1, arg2, res string) {
	q := code.Quad{Op: op, Arg1: arg1, Arg2: arg2, Res: res}
	glog.V(2).Infof("emitting `%s'", q)
	g.quads = append(g.quads, q)
}

func (g *tacgen) newTemp() string {
	t := fmt.Sprintf("t%d", g.temps)
	g.temps++
	return t
}

func (g *tacgen) newLabel() string {
	l := fmt.Sprintf("L%d", g.labels)
	g.labels++
	return l
}

func (g *tacgen) setLabel(l string) {
	g.emit(code.Label, "", "", l)
}

func (g *tacgen) subroutine(n *ast.SubroutineDecl) error {
	for _, sub := range n.Block.Subs {
		if err := g.subroutine(sub); err != nil {
			return err
		}
	}
	g.emit(code.Proc, n.Name, "", "")
	if err := g.stmt(n.Block.Body); err != nil {
		return err
	}
	if n.IsFunction() {
		g.emit(code.Return, n.Name, "", "")
	} else {
		g.emit(code.Return, "", "", "")
	}
	return nil
}

func (g *tacgen) stmt(node ast.Node) error {
	switch n := node.(type) {
	case *ast.StmtList:
		for _, child := range n.Children {
			if err := g.stmt(child); err != nil {
				return err
			}
		}

	case *ast.AssignStmt:
		p, err := g.value(n.RHS)
		if err != nil {
			return err
		}
		g.emit(code.Assign, p, "", n.LHS.Name)

	case *ast.CondStmt:
		lTrue := g.newLabel()
		lFalse := g.newLabel()
		var lEnd string
		if n.Else != nil {
			lEnd = g.newLabel()
		}
		if err := g.flow(n.Cond, lTrue, lFalse); err != nil {
			return err
		}
		g.setLabel(lTrue)
		if err := g.stmt(n.Truth); err != nil {
			return err
		}
		if n.Else == nil {
			g.setLabel(lFalse)
			return nil
		}
		g.emit(code.Goto, "", "", lEnd)
		g.setLabel(lFalse)
		if err := g.stmt(n.Else); err != nil {
			return err
		}
		g.setLabel(lEnd)

	case *ast.WhileStmt:
		lBegin := g.newLabel()
		lTrue := g.newLabel()
		lEnd := g.newLabel()
		g.setLabel(lBegin)
		if err := g.flow(n.Cond, lTrue, lEnd); err != nil {
			return err
		}
		g.setLabel(lTrue)
		if err := g.stmt(n.Body); err != nil {
			return err
		}
		g.emit(code.Goto, "", "", lBegin)
		g.setLabel(lEnd)

	case *ast.CallExpr:
		_, err := g.call(n, false)
		return err

	case *ast.ReadStmt:
		g.emit(code.Read, "", "", n.Target.Name)

	case *ast.WriteStmt:
		p, err := g.value(n.Expr)
		if err != nil {
			return err
		}
		g.emit(code.Write, p, "", "")

	default:
		return errorf(node, "unexpected statement %T", node)
	}
	return nil
}

var arithOps = map[parser.Kind]code.Op{
	parser.PLUS:  code.Add,
	parser.MINUS: code.Sub,
	parser.MUL:   code.Mul,
	parser.DIV:   code.Div,
}

var relOps = map[parser.Kind]code.Op{
	parser.LT: code.IfLT,
	parser.GT: code.IfGT,
	parser.LE: code.IfLE,
	parser.GE: code.IfGE,
	parser.EQ: code.IfEQ,
	parser.NE: code.IfNE,
}

// isCondition reports whether n is naturally translated as control flow.
func isCondition(n ast.Node) bool {
	switch v := n.(type) {
	case *ast.BinaryExpr:
		k := parser.Kind(v.Op)
		_, rel := relOps[k]
		return rel || k == parser.AND || k == parser.OR
	case *ast.UnaryExpr:
		return parser.Kind(v.Op) == parser.NOT
	}
	return false
}

// value translates an expression and returns the place holding its value.
func (g *tacgen) value(node ast.Node) (string, error) {
	if isCondition(node) {
		return g.boolValue(node)
	}
	switch n := node.(type) {
	case *ast.IntLit:
		return strconv.Itoa(n.I), nil

	case *ast.BoolLit:
		if n.B {
			return "1", nil
		}
		return "0", nil

	case *ast.IDTerm:
		return n.Name, nil

	case *ast.CallExpr:
		return g.call(n, true)

	case *ast.BinaryExpr:
		op, ok := arithOps[parser.Kind(n.Op)]
		if !ok {
			return "", errorf(n, "unexpected binary operator %s", opName(n.Op))
		}
		a, err := g.value(n.LHS)
		if err != nil {
			return "", err
		}
		b, err := g.value(n.RHS)
		if err != nil {
			return "", err
		}
		t := g.newTemp()
		g.emit(op, a, b, t)
		return t, nil

	case *ast.UnaryExpr:
		switch parser.Kind(n.Op) {
		case parser.PLUS:
			return g.value(n.Expr)
		case parser.MINUS:
			a, err := g.value(n.Expr)
			if err != nil {
				return "", err
			}
			t := g.newTemp()
			g.emit(code.Uminus, a, "", t)
			return t, nil
		}
		return "", errorf(n, "unexpected unary operator %s", opName(n.Op))
	}
	return "", errorf(node, "unexpected expression %T", node)
}

// boolValue materialises a condition as 1 or 0 in a fresh temporary.
func (g *tacgen) boolValue(n ast.Node) (string, error) {
	t := g.newTemp()
	lTrue := g.newLabel()
	lFalse := g.newLabel()
	lEnd := g.newLabel()
	if err := g.flow(n, lTrue, lFalse); err != nil {
		return "", err
	}
	g.setLabel(lTrue)
	g.emit(code.Assign, "1", "", t)
	g.emit(code.Goto, "", "", lEnd)
	g.setLabel(lFalse)
	g.emit(code.Assign, "0", "", t)
	g.setLabel(lEnd)
	return t, nil
}

// flow translates a boolean expression into jumps to lTrue or lFalse.
func (g *tacgen) flow(node ast.Node, lTrue, lFalse string) error {
	switch n := node.(type) {
	case *ast.BinaryExpr:
		k := parser.Kind(n.Op)
		switch k {
		case parser.AND:
			lMid := g.newLabel()
			if err := g.flow(n.LHS, lMid, lFalse); err != nil {
				return err
			}
			g.setLabel(lMid)
			return g.flow(n.RHS, lTrue, lFalse)
		case parser.OR:
			lMid := g.newLabel()
			if err := g.flow(n.LHS, lTrue, lMid); err != nil {
				return err
			}
			g.setLabel(lMid)
			return g.flow(n.RHS, lTrue, lFalse)
		}
		if op, ok := relOps[k]; ok {
			a, err := g.value(n.LHS)
			if err != nil {
				return err
			}
			b, err := g.value(n.RHS)
			if err != nil {
				return err
			}
			g.emit(op, a, b, lTrue)
			g.emit(code.Goto, "", "", lFalse)
			return nil
		}

	case *ast.UnaryExpr:
		if parser.Kind(n.Op) == parser.NOT {
			return g.flow(n.Expr, lFalse, lTrue)
		}
	}
	p, err := g.value(node)
	if err != nil {
		return err
	}
	g.emit(code.IfNE, p, "0", lTrue)
	g.emit(code.Goto, "", "", lFalse)
	return nil
}

// call translates the arguments left to right, passes them last first, and
// calls.  A function's result lands in a temporary allocated after the
// arguments.
func (g *tacgen) call(n *ast.CallExpr, wantResult bool) (string, error) {
	if n.Symbol == nil {
		return "", errorf(n, "call to unresolved subroutine %q", n.Name)
	}
	sym, ok := g.tab.Get(n.Symbol.Key())
	if !ok || sym != n.Symbol || !sym.Category.IsSubroutine() {
		return "", errorf(n, "subroutine %q is not in the symbol table", n.Name)
	}
	if wantResult && sym.Category != symbol.Function {
		return "", errorf(n, "procedure %q used as a value", n.Name)
	}
	places := make([]string, 0, len(n.Args))
	for _, arg := range n.Args {
		p, err := g.value(arg)
		if err != nil {
			return "", err
		}
		places = append(places, p)
	}
	for i := len(places) - 1; i >= 0; i-- {
		g.emit(code.Param, places[i], "", "")
	}
	argc := strconv.Itoa(len(n.Args))
	if !wantResult {
		g.emit(code.Call, n.Name, argc, "")
		return "", nil
	}
	t := g.newTemp()
	g.emit(code.Call, n.Name, argc, t)
	return t, nil
}
