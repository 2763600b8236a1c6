// Copyright 2011 Google Inc. All Rights Reserved.
// This file is available under the Apache license.

package code

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Instr is one MEPA instruction.  Jumps, calls and label markers use Label;
// every other opcode uses Args.
type Instr struct {
	Opcode     Opcode
	Label      string
	Args       []int
	SourceLine int // Line number of the original source file, zero-based numbering.
}

// debug print for instructions.
func (i Instr) String() string {
	return fmt.Sprintf("{%s %s %v %d}", opNames[i.Opcode], i.Label, i.Args, i.SourceLine)
}

// Line renders the instruction as a line of MEPA assembly.
func (i Instr) Line() string {
	switch {
	case i.Opcode == Nada:
		return i.Label + " NADA"
	case i.Opcode.HasLabel():
		return i.Opcode.String() + " " + i.Label
	case len(i.Args) == 0:
		return i.Opcode.String()
	}
	args := make([]string, 0, len(i.Args))
	for _, a := range i.Args {
		args = append(args, strconv.Itoa(a))
	}
	return i.Opcode.String() + " " + strings.Join(args, ", ")
}

// Lines renders a program one instruction per element.
func Lines(prog []Instr) []string {
	r := make([]string, 0, len(prog))
	for _, i := range prog {
		r = append(r, i.Line())
	}
	return r
}

// FormatMepa renders a program as MEPA assembly text, one instruction per line.
func FormatMepa(prog []Instr) string {
	return strings.Join(Lines(prog), "\n")
}

// ParseMepa reads MEPA assembly text, as written by FormatMepa, back into
// instructions.  Blank lines are skipped.
func ParseMepa(r io.Reader) ([]Instr, error) {
	var prog []Instr
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		i, err := parseInstr(text)
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", line)
		}
		prog = append(prog, i)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "reading mepa")
	}
	return prog, nil
}

func parseInstr(text string) (Instr, error) {
	fields := strings.Fields(strings.ReplaceAll(text, ",", " "))
	if len(fields) == 2 && fields[1] == "NADA" {
		return Instr{Opcode: Nada, Label: fields[0]}, nil
	}
	op, ok := opcodes[fields[0]]
	if !ok || op == Nada {
		return Instr{}, errors.Errorf("unknown mnemonic %q", fields[0])
	}
	operands := fields[1:]
	if op.HasLabel() {
		if len(operands) != 1 {
			return Instr{}, errors.Errorf("%s takes a label, got %q", op, text)
		}
		return Instr{Opcode: op, Label: operands[0]}, nil
	}
	if len(operands) != op.NumArgs() {
		return Instr{}, errors.Errorf("%s takes %d operands, got %d", op, op.NumArgs(), len(operands))
	}
	i := Instr{Opcode: op}
	for _, s := range operands {
		n, err := strconv.Atoi(s)
		if err != nil {
			return Instr{}, errors.Wrapf(err, "%s operand", op)
		}
		i.Args = append(i.Args, n)
	}
	return i, nil
}
