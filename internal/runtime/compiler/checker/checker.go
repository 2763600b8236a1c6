// Copyright 2016 Google Inc. All Rights Reserved.
// This file is available under the Apache license.

// Package checker builds the symbol table for a parsed program, resolves
// every identifier, and annotates expressions with their types.
package checker

import (
	"github.com/golang/glog"
	"github.com/mafetri/pascalc/internal/runtime/compiler/ast"
	"github.com/mafetri/pascalc/internal/runtime/compiler/errors"
	"github.com/mafetri/pascalc/internal/runtime/compiler/parser"
	"github.com/mafetri/pascalc/internal/runtime/compiler/symbol"
	"github.com/mafetri/pascalc/internal/runtime/compiler/types"
	pkgerrors "github.com/pkg/errors"
)

const defaultMaxRecursionDepth = 500

// subroutine tracks the declaration being checked and whether a function has
// assigned its result.
type subroutine struct {
	decl     *ast.SubroutineDecl
	assigned bool
}

// checker holds data for a semantic checker.
type checker struct {
	tab  *symbol.Table
	subs []*subroutine // enclosing subroutines, innermost last

	errors errors.ErrorList

	depth             int
	tooDeep           bool
	maxRecursionDepth int
}

// Check performs a semantic check of the program, and returns the populated
// symbol table or a list of errors.  On success every identifier in the tree
// refers to its symbol and every expression carries a type.
func Check(prog *ast.Program, maxRecursionDepth int) (*symbol.Table, error) {
	if maxRecursionDepth == 0 {
		maxRecursionDepth = defaultMaxRecursionDepth
	}
	c := &checker{tab: symbol.NewTable(), maxRecursionDepth: maxRecursionDepth}
	ast.Walk(c, prog)
	if len(c.errors) > 0 {
		return nil, c.errors
	}
	return c.tab, nil
}

func (c *checker) errorf(n ast.Node, kind errors.Kind, format string, args ...interface{}) {
	c.errors.Addf(n.Pos(), kind, format, args...)
}

func (c *checker) current() *subroutine {
	if len(c.subs) == 0 {
		return nil
	}
	return c.subs[len(c.subs)-1]
}

// insert adds sym to the current scope, reporting a redeclaration.
func (c *checker) insert(n ast.Node, sym *symbol.Symbol) bool {
	alt, err := c.tab.Insert(sym)
	if err == nil {
		return true
	}
	if pkgerrors.Cause(err) == symbol.ErrDuplicateSymbol {
		c.errorf(n, errors.DuplicateSymbol, "Redeclaration of `%s' previously declared at %s", sym.Name, alt.Pos)
	} else {
		c.errorf(n, errors.Internal, "Internal compiler error: %s", err)
	}
	return false
}

// VisitBefore performs the symbol table construction, so that symbols are
// guaranteed to exist before their use.
func (c *checker) VisitBefore(node ast.Node) (ast.Visitor, ast.Node) {
	c.depth++
	if c.depth > c.maxRecursionDepth {
		if !c.tooDeep {
			c.errorf(node, errors.Syntax, "Expression exceeded maximum recursion depth of %d", c.maxRecursionDepth)
			c.tooDeep = true
		}
		c.depth--
		return nil, node
	}
	switch n := node.(type) {
	case *ast.Program:
		n.Symbol = symbol.NewSymbol(n.Name, symbol.Program, types.Void, n.Pos())
		c.insert(n, n.Symbol)
		return c, n

	case *ast.VarDecl:
		if s := c.current(); s != nil && s.decl.Name == n.Name {
			c.errorf(n, errors.DuplicateSymbol, "Declaration of `%s' hides the enclosing %s of the same name", n.Name, s.decl.Category)
			c.depth--
			return nil, n
		}
		n.Symbol = symbol.NewSymbol(n.Name, symbol.Variable, n.Typ, n.Pos())
		c.insert(n, n.Symbol)
		c.depth--
		return nil, n

	case *ast.SubroutineDecl:
		params := make([]symbol.Param, 0, len(n.Params))
		for _, p := range n.Params {
			params = append(params, symbol.Param{Name: p.Name, Type: p.Typ})
		}
		n.Symbol = symbol.NewSymbol(n.Name, n.Category, n.Result, n.Pos())
		n.Symbol.Params = params
		if !c.insert(n, n.Symbol) {
			c.depth--
			return nil, n
		}
		// Scopes are named after their subroutine, so the name must be
		// unique across the whole program.
		if n.Name == symbol.GlobalScope || c.tab.HasScope(n.Name) {
			c.errorf(n, errors.DuplicateSymbol, "Subroutine name `%s' is already used by another scope", n.Name)
			c.depth--
			return nil, n
		}
		glog.V(1).Infof("checking %s %q", n.Category, n.Name)
		c.tab.EnterScope(n.Name)
		c.subs = append(c.subs, &subroutine{decl: n})
		return c, n

	case *ast.IDTerm:
		sym, err := c.tab.Lookup(n.Name)
		if err != nil {
			c.errorf(n, errors.NotDeclared, "Identifier `%s' not declared.", n.Name)
			c.depth--
			return nil, n
		}
		sym.Used = true
		n.Symbol = sym
		return c, n

	case *ast.CallExpr:
		sym, err := c.tab.Lookup(n.Name)
		if err != nil {
			c.errorf(n, errors.NotDeclared, "Subroutine `%s' not declared.", n.Name)
		} else if !sym.Category.IsSubroutine() {
			c.errorf(n, errors.TypeMismatch, "`%s' is a %s, not a procedure or function.", n.Name, sym.Category)
		} else {
			sym.Used = true
			n.Symbol = sym
			n.SetType(sym.Type)
		}
		return c, n
	}
	return c, node
}

// VisitAfter checks types once a node's children have been resolved.
func (c *checker) VisitAfter(node ast.Node) ast.Node {
	defer func() { c.depth-- }()
	switch n := node.(type) {
	case *ast.SubroutineDecl:
		s := c.current()
		if n.IsFunction() && !s.assigned {
			c.errorf(n, errors.MissingReturnAssignment, "Function `%s' never assigns its result.", n.Name)
		}
		c.subs = c.subs[:len(c.subs)-1]
		c.tab.ExitScope()
		return n

	case *ast.StmtList:
		for _, child := range n.Children {
			c.checkStatement(child)
		}
		return n

	case *ast.CondStmt:
		c.checkCondition(n.Cond, "if")
		c.checkStatement(n.Truth)
		if n.Else != nil {
			c.checkStatement(n.Else)
		}
		return n

	case *ast.WhileStmt:
		c.checkCondition(n.Cond, "while")
		c.checkStatement(n.Body)
		return n

	case *ast.AssignStmt:
		c.checkAssign(n)
		return n

	case *ast.ReadStmt:
		sym := n.Target.Symbol
		if sym == nil {
			return n
		}
		if sym.Category != symbol.Variable {
			c.errorf(n.Target, errors.InvalidAssignment, "Can't read into %s `%s'.", sym.Category, sym.Name)
		} else if sym.Type != types.Integer {
			c.errorf(n.Target, errors.TypeMismatch, "read requires an integer variable, `%s' is %s.", sym.Name, sym.Type)
		}
		return n

	case *ast.WriteStmt:
		if known(n.Expr) && !types.IsScalar(n.Expr.Type()) {
			c.errorf(n.Expr, errors.TypeMismatch, "write requires an integer or boolean value.")
		}
		return n

	case *ast.IDTerm:
		if n.Lvalue {
			return n
		}
		switch n.Symbol.Category {
		case symbol.Variable:
			return n
		case symbol.Function:
			// A bare function name in an expression calls it with no arguments.
			call := &ast.CallExpr{P: n.P, Name: n.Name, Symbol: n.Symbol}
			call.SetType(n.Symbol.Type)
			c.checkArgs(call)
			return call
		default:
			c.errorf(n, errors.TypeMismatch, "%s `%s' can't be used as a value.", n.Symbol.Category, n.Name)
			n.Symbol = nil
			return n
		}

	case *ast.CallExpr:
		if n.Symbol != nil {
			c.checkArgs(n)
		}
		return n

	case *ast.BinaryExpr:
		c.checkBinary(n)
		return n

	case *ast.UnaryExpr:
		c.checkUnary(n)
		return n
	}
	return node
}

// known reports whether n has a meaningful type; unresolved identifiers have
// already been reported.
func known(n ast.Node) bool {
	switch v := n.(type) {
	case *ast.IDTerm:
		return v.Symbol != nil
	case *ast.CallExpr:
		return v.Symbol != nil
	}
	return true
}

// checkStatement rejects expressions that are not statements in their own
// right.
func (c *checker) checkStatement(n ast.Node) {
	if call, ok := n.(*ast.CallExpr); ok && call.Symbol != nil && call.Symbol.Category == symbol.Function {
		c.errorf(n, errors.TypeMismatch, "Function `%s' called as a procedure; its result is unused.", call.Name)
	}
}

func (c *checker) checkCondition(n ast.Node, stmt string) {
	if known(n) && n.Type() != types.Boolean {
		c.errorf(n, errors.InvalidConditionType, "%s condition must be boolean, got %s.", stmt, n.Type())
	}
}

func (c *checker) checkAssign(n *ast.AssignStmt) {
	sym := n.LHS.Symbol
	if sym == nil {
		return
	}
	switch sym.Category {
	case symbol.Variable:
	case symbol.Function:
		s := c.current()
		if s == nil || s.decl.Symbol != sym {
			c.errorf(n.LHS, errors.InvalidAssignment, "Result of function `%s' can only be assigned inside its own body.", sym.Name)
			return
		}
		s.assigned = true
	default:
		c.errorf(n.LHS, errors.InvalidAssignment, "Can't assign to %s `%s'.", sym.Category, sym.Name)
		return
	}
	if known(n.RHS) {
		if err := types.Check(sym.Type, n.RHS.Type()); err != nil {
			c.errorf(n, errors.TypeMismatch, "Assignment to `%s': %s", sym.Name, err)
		}
	}
}

func (c *checker) checkArgs(n *ast.CallExpr) {
	params := n.Symbol.Params
	if len(n.Args) != len(params) {
		c.errorf(n, errors.ArityMismatch, "%s `%s' takes %d arguments, called with %d.", n.Symbol.Category, n.Name, len(params), len(n.Args))
		return
	}
	for i, arg := range n.Args {
		if !known(arg) {
			continue
		}
		if err := types.Check(params[i].Type, arg.Type()); err != nil {
			c.errorf(arg, errors.TypeMismatch, "Argument %d (`%s') of `%s': %s", i+1, params[i].Name, n.Name, err)
		}
	}
}

func (c *checker) checkBinary(n *ast.BinaryExpr) {
	op := parser.Kind(n.Op)
	var operand, result types.Type
	switch op {
	case parser.PLUS, parser.MINUS, parser.MUL, parser.DIV:
		operand, result = types.Integer, types.Integer
	case parser.AND, parser.OR:
		operand, result = types.Boolean, types.Boolean
	case parser.LT, parser.LE, parser.GT, parser.GE:
		operand, result = types.Integer, types.Boolean
	case parser.EQ, parser.NE:
		// Equality needs matching operands of either scalar type.
		result = types.Boolean
		n.SetType(result)
		if known(n.LHS) && known(n.RHS) {
			l, r := n.LHS.Type(), n.RHS.Type()
			if !types.IsScalar(l) || l != r {
				c.errorf(n, errors.TypeMismatch, "Operator %s needs operands of the same type, got %s and %s.", op, l, r)
			}
		}
		return
	default:
		c.errorf(n, errors.Internal, "Internal compiler error: unexpected binary operator %v", op)
		return
	}
	n.SetType(result)
	for _, side := range []ast.Node{n.LHS, n.RHS} {
		if known(side) && side.Type() != operand {
			c.errorf(n, errors.TypeMismatch, "Operator %s needs %s operands, got %s.", op, operand, side.Type())
			return
		}
	}
}

func (c *checker) checkUnary(n *ast.UnaryExpr) {
	op := parser.Kind(n.Op)
	var want types.Type
	switch op {
	case parser.PLUS, parser.MINUS:
		want = types.Integer
	case parser.NOT:
		want = types.Boolean
	default:
		c.errorf(n, errors.Internal, "Internal compiler error: unexpected unary operator %v", op)
		return
	}
	n.SetType(want)
	if known(n.Expr) && n.Expr.Type() != want {
		c.errorf(n, errors.TypeMismatch, "Operator %s needs a %s operand, got %s.", op, want, n.Expr.Type())
	}
}
