// Copyright 2024 Google Inc. All Rights Reserved.
// This file is available under the Apache license.

package code

import (
	"fmt"
	"strings"
)

// Op is the operation tag of a quadruple.
type Op int

const (
	BadOp  Op = iota // Invalid quadruple, indicates a bug in the generator.
	Assign           // res := arg1
	Add              // res := arg1 + arg2
	Sub              // res := arg1 - arg2
	Mul              // res := arg1 * arg2
	Div              // res := arg1 div arg2
	Uminus           // res := uminus arg1
	Not              // res := not arg1
	Label            // res:
	Goto             // goto res
	IfLT             // if_< arg1,arg2 goto res
	IfGT             // if_> arg1,arg2 goto res
	IfLE             // if_<= arg1,arg2 goto res
	IfGE             // if_>= arg1,arg2 goto res
	IfEQ             // if_== arg1,arg2 goto res
	IfNE             // if_!= arg1,arg2 goto res
	Param            // param arg1
	Call             // [res :=] call arg1,arg2 where arg2 is the argument count
	Read             // read res
	Write            // write arg1
	Proc             // proc arg1, the entry of a subroutine body
	Return           // return [arg1]
)

var quadOpNames = map[Op]string{
	BadOp:  "bad",
	Assign: ":=",
	Add:    "+",
	Sub:    "-",
	Mul:    "*",
	Div:    "div",
	Uminus: "uminus",
	Not:    "not",
	Label:  "label",
	Goto:   "goto",
	IfLT:   "if_<",
	IfGT:   "if_>",
	IfLE:   "if_<=",
	IfGE:   "if_>=",
	IfEQ:   "if_==",
	IfNE:   "if_!=",
	Param:  "param",
	Call:   "call",
	Read:   "read",
	Write:  "write",
	Proc:   "proc",
	Return: "return",
}

func (o Op) String() string {
	if s, ok := quadOpNames[o]; ok {
		return s
	}
	return fmt.Sprintf("Op(%d)", int(o))
}

// IsJump reports whether the quadruple transfers control to the label in Res.
func (o Op) IsJump() bool {
	return o == Goto || (o >= IfLT && o <= IfNE)
}

// Quad is one three-address instruction.  Unused fields are empty.
type Quad struct {
	Op   Op
	Arg1 string
	Arg2 string
	Res  string
}

// String prints the quadruple in its conventional textual form.
func (q Quad) String() string {
	switch q.Op {
	case Assign:
		return q.Res + " := " + q.Arg1
	case Add, Sub, Mul, Div:
		return fmt.Sprintf("%s := %s %s %s", q.Res, q.Arg1, q.Op, q.Arg2)
	case Uminus, Not:
		return fmt.Sprintf("%s := %s %s", q.Res, q.Op, q.Arg1)
	case Label:
		return q.Res + ":"
	case Goto:
		return "goto " + q.Res
	case IfLT, IfGT, IfLE, IfGE, IfEQ, IfNE:
		return fmt.Sprintf("%s %s,%s goto %s", q.Op, q.Arg1, q.Arg2, q.Res)
	case Param, Write, Proc:
		return q.Op.String() + " " + q.Arg1
	case Call:
		if q.Res != "" {
			return fmt.Sprintf("%s := call %s,%s", q.Res, q.Arg1, q.Arg2)
		}
		return fmt.Sprintf("call %s,%s", q.Arg1, q.Arg2)
	case Read:
		return "read " + q.Res
	case Return:
		if q.Arg1 != "" {
			return "return " + q.Arg1
		}
		return "return"
	}
	return fmt.Sprintf("(%s,%s,%s,%s)", q.Op, q.Arg1, q.Arg2, q.Res)
}

// Tuple prints the quadruple as (op,arg1,arg2,res).
func (q Quad) Tuple() string {
	return fmt.Sprintf("(%s,%s,%s,%s)", q.Op, q.Arg1, q.Arg2, q.Res)
}

// FormatQuads prints one quadruple per line, with labels flush left and
// everything else indented.
func FormatQuads(quads []Quad) string {
	var b strings.Builder
	for _, q := range quads {
		if q.Op != Label {
			b.WriteString("  ")
		}
		b.WriteString(q.String())
		b.WriteString("\n")
	}
	return b.String()
}
