// Copyright 2024 Google Inc. All Rights Reserved.
// This file is available under the Apache license.

package codegen

import (
	"fmt"

	"github.com/golang/glog"
	"github.com/mafetri/pascalc/internal/runtime/code"
	"github.com/mafetri/pascalc/internal/runtime/compiler/ast"
	"github.com/mafetri/pascalc/internal/runtime/compiler/layout"
	"github.com/mafetri/pascalc/internal/runtime/compiler/parser"
	"github.com/mafetri/pascalc/internal/runtime/compiler/symbol"
)

// mepagen represents a MEPA code generator.
type mepagen struct {
	tab    *symbol.Table
	lay    *layout.Layout
	instrs []code.Instr
	labels int // next label number
}

// genContext is where code is being generated: the scope names resolve from,
// its level, and the function whose result slot its name stores to, if any.
// It is passed by value down the recursion.
type genContext struct {
	scope string
	level int
	fn    *symbol.Symbol
}

// Mepa translates the program into MEPA instructions.
func Mepa(prog *ast.Program, tab *symbol.Table, lay *layout.Layout) ([]code.Instr, error) {
	g := &mepagen{tab: tab, lay: lay}
	if err := g.program(prog); err != nil {
		return nil, err
	}
	return g.instrs, nil
}

func (g *mepagen) emit(n ast.Node, op code.Opcode, args ...int) {
	g.emitInstr(n, code.Instr{Opcode: op, Args: args})
}

func (g *mepagen) emitJump(n ast.Node, op code.Opcode, label string) {
	g.emitInstr(n, code.Instr{Opcode: op, Label: label})
}

func (g *mepagen) emitInstr(n ast.Node, i code.Instr) {
	if pos := n.Pos(); pos != nil {
		i.SourceLine = pos.Line
	}
	glog.V(2).Infof("emitting `%s' from line %d node %T", i.Line(), i.SourceLine, n)
	g.instrs = append(g.instrs, i)
}

// newLabel creates a new label to jump to.
func (g *mepagen) newLabel() string {
	l := fmt.Sprintf("L%d", g.labels)
	g.labels++
	return l
}

// setLabel binds a label to the next instruction.
func (g *mepagen) setLabel(n ast.Node, l string) {
	g.emitJump(n, code.Nada, l)
}

func (g *mepagen) program(n *ast.Program) error {
	globals, err := g.lay.LocalCount(symbol.GlobalScope)
	if err != nil {
		return err
	}
	g.emit(n, code.Inpp)
	if globals > 0 {
		g.emit(n, code.Rmem, globals)
	}
	lMain := g.newLabel()
	g.emitJump(n, code.Dsvs, lMain)
	for _, sub := range n.Block.Subs {
		if err := g.subroutine(sub); err != nil {
			return err
		}
	}
	g.setLabel(n.Block.Body, lMain)
	ctx := genContext{scope: symbol.GlobalScope, level: 0}
	if err := g.stmt(ctx, n.Block.Body); err != nil {
		return err
	}
	if globals > 0 {
		g.emit(n.Block.Body, code.Lmem, globals)
	}
	g.emit(n.Block.Body, code.Para)
	return nil
}

func (g *mepagen) subroutine(n *ast.SubroutineDecl) error {
	if n.Symbol == nil {
		return errorf(n, "subroutine %q has no symbol", n.Name)
	}
	level, err := g.lay.Level(n.Name)
	if err != nil {
		return err
	}
	locals, err := g.lay.LocalCount(n.Name)
	if err != nil {
		return err
	}
	params, err := g.lay.ParamCount(n.Name)
	if err != nil {
		return err
	}
	g.setLabel(n, n.Name)
	g.emit(n, code.Enpr, level)
	if locals > 0 {
		g.emit(n, code.Rmem, locals)
	}
	if len(n.Block.Subs) > 0 {
		// Nested bodies sit between the prologue and the statements.
		lBody := g.newLabel()
		g.emitJump(n, code.Dsvs, lBody)
		for _, sub := range n.Block.Subs {
			if err := g.subroutine(sub); err != nil {
				return err
			}
		}
		g.setLabel(n.Block.Body, lBody)
	}
	ctx := genContext{scope: n.Name, level: level}
	if n.IsFunction() {
		ctx.fn = n.Symbol
	}
	if err := g.stmt(ctx, n.Block.Body); err != nil {
		return err
	}
	if locals > 0 {
		g.emit(n.Block.Body, code.Lmem, locals)
	}
	g.emit(n.Block.Body, code.Rtpr, level, params)
	return nil
}

// addr resolves name from the context to a (level, offset) pair.  Inside a
// function body the function's own name is its result slot.
func (g *mepagen) addr(ctx genContext, n ast.Node, name string) (int, int, error) {
	sym, err := g.tab.LookupFrom(name, ctx.scope)
	if err != nil {
		return 0, 0, errorf(n, "%s", err)
	}
	var key symbol.Key
	switch {
	case sym.Category == symbol.Variable:
		key = sym.Key()
	case ctx.fn != nil && sym == ctx.fn:
		key = symbol.Key{Scope: sym.Name, Name: sym.Name}
	default:
		return 0, 0, errorf(n, "%s %q has no storage here", sym.Category, name)
	}
	level, err := g.lay.Level(key.Scope)
	if err != nil {
		return 0, 0, err
	}
	offset, err := g.lay.Offset(key)
	if err != nil {
		return 0, 0, err
	}
	return level, offset, nil
}

func (g *mepagen) stmt(ctx genContext, node ast.Node) error {
	switch n := node.(type) {
	case *ast.StmtList:
		for _, child := range n.Children {
			if err := g.stmt(ctx, child); err != nil {
				return err
			}
		}

	case *ast.AssignStmt:
		if err := g.expr(ctx, n.RHS); err != nil {
			return err
		}
		level, offset, err := g.addr(ctx, n.LHS, n.LHS.Name)
		if err != nil {
			return err
		}
		g.emit(n, code.Alvl, level, offset)

	case *ast.CondStmt:
		if err := g.expr(ctx, n.Cond); err != nil {
			return err
		}
		lElse := g.newLabel()
		g.emitJump(n, code.Dsvf, lElse)
		if err := g.stmt(ctx, n.Truth); err != nil {
			return err
		}
		if n.Else == nil {
			g.setLabel(n, lElse)
			return nil
		}
		lEnd := g.newLabel()
		g.emitJump(n, code.Dsvs, lEnd)
		g.setLabel(n, lElse)
		if err := g.stmt(ctx, n.Else); err != nil {
			return err
		}
		g.setLabel(n, lEnd)

	case *ast.WhileStmt:
		lStart := g.newLabel()
		lEnd := g.newLabel()
		g.setLabel(n, lStart)
		if err := g.expr(ctx, n.Cond); err != nil {
			return err
		}
		g.emitJump(n, code.Dsvf, lEnd)
		if err := g.stmt(ctx, n.Body); err != nil {
			return err
		}
		g.emitJump(n, code.Dsvs, lStart)
		g.setLabel(n, lEnd)

	case *ast.CallExpr:
		return g.call(ctx, n, false)

	case *ast.ReadStmt:
		level, offset, err := g.addr(ctx, n.Target, n.Target.Name)
		if err != nil {
			return err
		}
		g.emit(n, code.Leer)
		g.emit(n, code.Alvl, level, offset)

	case *ast.WriteStmt:
		if err := g.expr(ctx, n.Expr); err != nil {
			return err
		}
		g.emit(n, code.Impr)

	default:
		return errorf(node, "unexpected statement %T", node)
	}
	return nil
}

var binaryOps = map[parser.Kind]code.Opcode{
	parser.PLUS:  code.Suma,
	parser.MINUS: code.Sust,
	parser.MUL:   code.Mult,
	parser.DIV:   code.Divi,
	parser.OR:    code.Disj,
	parser.AND:   code.Conj,
	parser.EQ:    code.Cmig,
	parser.NE:    code.Cmdg,
	parser.LT:    code.Cmme,
	parser.GT:    code.Cmma,
	parser.LE:    code.Cmni,
	parser.GE:    code.Cmyi,
}

// expr leaves the value of the expression on top of the stack.
func (g *mepagen) expr(ctx genContext, node ast.Node) error {
	switch n := node.(type) {
	case *ast.IntLit:
		g.emit(n, code.Apct, n.I)

	case *ast.BoolLit:
		if n.B {
			g.emit(n, code.Apct, 1)
		} else {
			g.emit(n, code.Apct, 0)
		}

	case *ast.IDTerm:
		level, offset, err := g.addr(ctx, n, n.Name)
		if err != nil {
			return err
		}
		g.emit(n, code.Apvl, level, offset)

	case *ast.CallExpr:
		return g.call(ctx, n, true)

	case *ast.BinaryExpr:
		op, ok := binaryOps[parser.Kind(n.Op)]
		if !ok {
			return errorf(n, "unexpected binary operator %s", opName(n.Op))
		}
		if err := g.expr(ctx, n.LHS); err != nil {
			return err
		}
		if err := g.expr(ctx, n.RHS); err != nil {
			return err
		}
		g.emit(n, op)

	case *ast.UnaryExpr:
		if err := g.expr(ctx, n.Expr); err != nil {
			return err
		}
		switch parser.Kind(n.Op) {
		case parser.PLUS:
		case parser.MINUS:
			g.emit(n, code.Umen)
		case parser.NOT:
			g.emit(n, code.Nega)
		default:
			return errorf(n, "unexpected unary operator %s", opName(n.Op))
		}

	default:
		return errorf(node, "unexpected expression %T", node)
	}
	return nil
}

// call pushes the arguments in order and calls.  A function call first
// reserves the cell its result is returned in.
func (g *mepagen) call(ctx genContext, n *ast.CallExpr, wantResult bool) error {
	sym, err := g.tab.LookupFrom(n.Name, ctx.scope)
	if err != nil {
		return errorf(n, "%s", err)
	}
	if !sym.Category.IsSubroutine() {
		return errorf(n, "%s %q is not callable", sym.Category, n.Name)
	}
	if wantResult {
		if sym.Category != symbol.Function {
			return errorf(n, "procedure %q used as a value", n.Name)
		}
		g.emit(n, code.Rmem, 1)
	}
	for _, arg := range n.Args {
		if err := g.expr(ctx, arg); err != nil {
			return err
		}
	}
	g.emitJump(n, code.Llpr, n.Name)
	return nil
}
