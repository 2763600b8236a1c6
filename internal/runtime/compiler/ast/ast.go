// Copyright 2011 Google Inc. All Rights Reserved.
// This file is available under the Apache license.

// Package ast defines the syntax tree built by the parser, annotated by the
// checker, and consumed by the code generators.
package ast

import (
	"github.com/mafetri/pascalc/internal/runtime/compiler/position"
	"github.com/mafetri/pascalc/internal/runtime/compiler/symbol"
	"github.com/mafetri/pascalc/internal/runtime/compiler/types"
)

type Node interface {
	Pos() *position.Position // Returns the position of the node from the original source
	Type() types.Type        // Returns the type of the expression in this node
}

// Program is the root of every tree.
type Program struct {
	P      position.Position
	Name   string
	Block  *Block
	Symbol *symbol.Symbol
}

func (n *Program) Pos() *position.Position {
	return &n.P
}

func (n *Program) Type() types.Type {
	return types.Void
}

// Block holds the declarations and body of the program or of a subroutine.
type Block struct {
	Vars []*VarDecl
	Subs []*SubroutineDecl
	Body *StmtList
}

func (n *Block) Pos() *position.Position {
	var nodes []Node
	for _, v := range n.Vars {
		nodes = append(nodes, v)
	}
	for _, s := range n.Subs {
		nodes = append(nodes, s)
	}
	nodes = append(nodes, n.Body)
	return mergepositionlist(nodes)
}

func (n *Block) Type() types.Type {
	return types.Void
}

// VarDecl declares one variable or one formal parameter.
type VarDecl struct {
	P      position.Position
	Name   string
	Typ    types.Type
	Symbol *symbol.Symbol
}

func (n *VarDecl) Pos() *position.Position {
	return &n.P
}

func (n *VarDecl) Type() types.Type {
	return n.Typ
}

// SubroutineDecl declares a procedure or, when Category is symbol.Function,
// a function returning Result.
type SubroutineDecl struct {
	P        position.Position
	Name     string
	Category symbol.Category
	Params   []*VarDecl
	Result   types.Type
	Block    *Block
	Symbol   *symbol.Symbol
}

func (n *SubroutineDecl) Pos() *position.Position {
	return &n.P
}

func (n *SubroutineDecl) Type() types.Type {
	return n.Result
}

// IsFunction reports whether the subroutine returns a value.
func (n *SubroutineDecl) IsFunction() bool {
	return n.Category == symbol.Function
}

// StmtList is a compound statement.
type StmtList struct {
	P        position.Position // Position of the `begin` keyword.
	Children []Node
}

func (n *StmtList) Pos() *position.Position {
	if len(n.Children) == 0 {
		return &n.P
	}
	return position.Merge(&n.P, mergepositionlist(n.Children))
}

func (n *StmtList) Type() types.Type {
	return types.Void
}

type AssignStmt struct {
	LHS *IDTerm
	RHS Node
}

func (n *AssignStmt) Pos() *position.Position {
	return mergepositionlist([]Node{n.LHS, n.RHS})
}

func (n *AssignStmt) Type() types.Type {
	return types.Void
}

// CondStmt is an if statement; Else may be nil.
type CondStmt struct {
	Cond  Node
	Truth Node
	Else  Node
}

func (n *CondStmt) Pos() *position.Position {
	return mergepositionlist([]Node{n.Cond, n.Truth, n.Else})
}

func (n *CondStmt) Type() types.Type {
	return types.Void
}

type WhileStmt struct {
	Cond Node
	Body Node
}

func (n *WhileStmt) Pos() *position.Position {
	return mergepositionlist([]Node{n.Cond, n.Body})
}

func (n *WhileStmt) Type() types.Type {
	return types.Void
}

type ReadStmt struct {
	P      position.Position
	Target *IDTerm
}

func (n *ReadStmt) Pos() *position.Position {
	return &n.P
}

func (n *ReadStmt) Type() types.Type {
	return types.Void
}

type WriteStmt struct {
	P    position.Position
	Expr Node
}

func (n *WriteStmt) Pos() *position.Position {
	return &n.P
}

func (n *WriteStmt) Type() types.Type {
	return types.Void
}

// CallExpr calls a function in an expression, or a procedure when used as a
// statement.
type CallExpr struct {
	P      position.Position
	Name   string
	Args   []Node
	Symbol *symbol.Symbol

	typ types.Type
}

func (n *CallExpr) Pos() *position.Position {
	return &n.P
}

func (n *CallExpr) Type() types.Type {
	return n.typ
}

func (n *CallExpr) SetType(t types.Type) {
	n.typ = t
}

type IDTerm struct {
	P      position.Position
	Name   string
	Symbol *symbol.Symbol
	Lvalue bool // If set, then this node appears on the left side of an
	// assignment or in a read, and is only stored to.
}

func (n *IDTerm) Pos() *position.Position {
	return &n.P
}

func (n *IDTerm) Type() types.Type {
	if n.Symbol != nil {
		return n.Symbol.Type
	}
	return types.Void
}

type IntLit struct {
	P position.Position
	I int
}

func (n *IntLit) Pos() *position.Position {
	return &n.P
}

func (n *IntLit) Type() types.Type {
	return types.Integer
}

type BoolLit struct {
	P position.Position
	B bool
}

func (n *BoolLit) Pos() *position.Position {
	return &n.P
}

func (n *BoolLit) Type() types.Type {
	return types.Boolean
}

// BinaryExpr applies the operator token Op to LHS and RHS.
type BinaryExpr struct {
	LHS, RHS Node
	Op       int

	typ types.Type
}

func (n *BinaryExpr) Pos() *position.Position {
	return mergepositionlist([]Node{n.LHS, n.RHS})
}

func (n *BinaryExpr) Type() types.Type {
	return n.typ
}

func (n *BinaryExpr) SetType(t types.Type) {
	n.typ = t
}

// UnaryExpr applies the operator token Op to Expr.
type UnaryExpr struct {
	P    position.Position // pos is the position of the op
	Expr Node
	Op   int

	typ types.Type
}

func (n *UnaryExpr) Pos() *position.Position {
	return position.Merge(&n.P, n.Expr.Pos())
}

func (n *UnaryExpr) Type() types.Type {
	return n.typ
}

func (n *UnaryExpr) SetType(t types.Type) {
	n.typ = t
}

// mergepositionlist is a helper that merges the positions of all the nodes in a list
func mergepositionlist(l []Node) *position.Position {
	switch len(l) {
	case 0:
		return nil
	case 1:
		if l[0] == nil {
			return nil
		}
		return l[0].Pos()
	default:
		if l[0] == nil {
			return mergepositionlist(l[1:])
		}
		return position.Merge(l[0].Pos(), mergepositionlist(l[1:]))
	}
}
