// Copyright 2011 Google Inc. All Rights Reserved.
// This file is available under the Apache license.

package ast

import (
	"fmt"

	"github.com/golang/glog"
)

// Visitor VisitBefore method is invoked for each node encountered by Walk.
// If the result Visitor v is not nil, Walk visits each of the children of that
// node with v.  VisitAfter is called on n at the end.
type Visitor interface {
	VisitBefore(n Node) (Visitor, Node)
	VisitAfter(n Node) Node
}

// convenience function.
func walknodelist(v Visitor, list []Node) []Node {
	r := make([]Node, 0, len(list))
	for _, x := range list {
		r = append(r, Walk(v, x))
	}
	return r
}

// Walk traverses (walks) an AST node with the provided Visitor v.  Children
// are visited in source order; declarations before the statements that use
// them.
func Walk(v Visitor, node Node) Node {
	glog.V(2).Infof("About to VisitBefore node at %s", node.Pos())
	// Returning nil from VisitBefore signals to Walk that the Visitor has
	// handled the children of this node.  VisitAfter will not be called.
	if v, node = v.VisitBefore(node); v == nil {
		return node
	}

	switch n := node.(type) {
	case *Program:
		Walk(v, n.Block)

	case *Block:
		for i, d := range n.Vars {
			n.Vars[i] = Walk(v, d).(*VarDecl)
		}
		for i, s := range n.Subs {
			n.Subs[i] = Walk(v, s).(*SubroutineDecl)
		}
		n.Body = Walk(v, n.Body).(*StmtList)

	case *SubroutineDecl:
		for i, p := range n.Params {
			n.Params[i] = Walk(v, p).(*VarDecl)
		}
		Walk(v, n.Block)

	case *StmtList:
		n.Children = walknodelist(v, n.Children)

	case *AssignStmt:
		n.LHS = Walk(v, n.LHS).(*IDTerm)
		n.RHS = Walk(v, n.RHS)

	case *CondStmt:
		n.Cond = Walk(v, n.Cond)
		n.Truth = Walk(v, n.Truth)
		if n.Else != nil {
			n.Else = Walk(v, n.Else)
		}

	case *WhileStmt:
		n.Cond = Walk(v, n.Cond)
		n.Body = Walk(v, n.Body)

	case *ReadStmt:
		n.Target = Walk(v, n.Target).(*IDTerm)

	case *WriteStmt:
		n.Expr = Walk(v, n.Expr)

	case *CallExpr:
		n.Args = walknodelist(v, n.Args)

	case *BinaryExpr:
		n.LHS = Walk(v, n.LHS)
		n.RHS = Walk(v, n.RHS)

	case *UnaryExpr:
		n.Expr = Walk(v, n.Expr)

	case *IDTerm, *VarDecl, *IntLit, *BoolLit:
		// These nodes are terminals, thus have no children to walk.

	default:
		panic(fmt.Sprintf("Walk: unexpected node type %T: %v", n, n))
	}

	glog.V(2).Infof("About to VisitAfter node at %s", node.Pos())
	node = v.VisitAfter(node)
	return node
}
