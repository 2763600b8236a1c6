// Copyright 2011 Google Inc. All Rights Reserved.
// This file is available under the Apache license.

// Package code contains the target forms produced by the compiler: three
// address quadruples and instructions for the MEPA stack machine.
package code

// Opcode is a MEPA mnemonic.
type Opcode int

const (
	Bad  Opcode = iota // Invalid instruction, indicates a bug in the generator.
	Inpp               // Start the program: empty stack, display[0] = 0.
	Rmem               // Reserve Args[0] cells on the stack.
	Lmem               // Release Args[0] cells from the stack.
	Dsvs               // Jump to Label.
	Dsvf               // Pop; jump to Label if the value was false.
	Enpr               // Enter a subroutine at level Args[0], saving the display entry.
	Rtpr               // Return from a subroutine at level Args[0] with Args[1] parameters.
	Apct               // Push the constant Args[0].
	Apvl               // Push the variable at level Args[0], offset Args[1].
	Alvl               // Pop into the variable at level Args[0], offset Args[1].
	Llpr               // Call the subroutine at Label.
	Suma               // Pop b, a; push a + b.
	Sust               // Pop b, a; push a - b.
	Mult               // Pop b, a; push a * b.
	Divi               // Pop b, a; push a div b.
	Disj               // Pop b, a; push a or b.
	Conj               // Pop b, a; push a and b.
	Cmig               // Pop b, a; push a = b.
	Cmdg               // Pop b, a; push a <> b.
	Cmme               // Pop b, a; push a < b.
	Cmma               // Pop b, a; push a > b.
	Cmni               // Pop b, a; push a <= b.
	Cmyi               // Pop b, a; push a >= b.
	Umen               // Negate the top of stack.
	Nega               // Boolean not of the top of stack.
	Leer               // Read an integer from input and push it.
	Impr               // Pop and print the top of stack.
	Para               // Halt.
	Nada               // No operation; carries Label as a jump target.
)

var opNames = map[Opcode]string{
	Bad:  "BAD",
	Inpp: "INPP",
	Rmem: "RMEM",
	Lmem: "LMEM",
	Dsvs: "DSVS",
	Dsvf: "DSVF",
	Enpr: "ENPR",
	Rtpr: "RTPR",
	Apct: "APCT",
	Apvl: "APVL",
	Alvl: "ALVL",
	Llpr: "LLPR",
	Suma: "SUMA",
	Sust: "SUST",
	Mult: "MULT",
	Divi: "DIVI",
	Disj: "DISJ",
	Conj: "CONJ",
	Cmig: "CMIG",
	Cmdg: "CMDG",
	Cmme: "CMME",
	Cmma: "CMMA",
	Cmni: "CMNI",
	Cmyi: "CMYI",
	Umen: "UMEN",
	Nega: "NEGA",
	Leer: "LEER",
	Impr: "IMPR",
	Para: "PARA",
	Nada: "NADA",
}

var opcodes = func() map[string]Opcode {
	m := make(map[string]Opcode, len(opNames))
	for op, name := range opNames {
		if op != Bad {
			m[name] = op
		}
	}
	return m
}()

// numArgs is the number of integer operands each opcode takes.
var numArgs = map[Opcode]int{
	Rmem: 1,
	Lmem: 1,
	Enpr: 1,
	Rtpr: 2,
	Apct: 1,
	Apvl: 2,
	Alvl: 2,
}

func (o Opcode) String() string {
	return opNames[o]
}

// HasLabel reports whether the opcode names a label rather than taking
// integer operands.
func (o Opcode) HasLabel() bool {
	return o == Dsvs || o == Dsvf || o == Llpr || o == Nada
}

// NumArgs returns how many integer operands the opcode takes.
func (o Opcode) NumArgs() int {
	return numArgs[o]
}
