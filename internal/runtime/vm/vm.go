// Copyright 2011 Google Inc. All Rights Reserved.
// This file is available under the Apache license.

// Package vm provides a virtual machine for executing MEPA stack machine
// programs.
package vm

import (
	"bufio"
	"bytes"
	"context"
	"expvar"
	"fmt"
	"io"
	"runtime/debug"
	"strings"
	"sync"
	"text/tabwriter"
	"time"

	"github.com/golang/glog"
	"github.com/mafetri/pascalc/internal/runtime/code"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// ProgRuntimeErrors counts the runtime errors raised by each program.
	ProgRuntimeErrors = expvar.NewMap("prog_runtime_errors_total")

	// RunDurations observes the wall time of each program run.
	RunDurations = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "pascalc",
		Subsystem: "vm",
		Name:      "run_duration_seconds",
		Help:      "VM program run time distribution in seconds.",
		Buckets:   prometheus.ExponentialBuckets(0.00002, 2.0, 16),
	}, []string{"prog"})
)

const (
	defaultMaxSteps = 10000000
	defaultMaxStack = 1 << 20
)

var (
	ErrStackUnderflow = errors.New("stack underflow")
	ErrStackOverflow  = errors.New("stack overflow")
	ErrDivideByZero   = errors.New("division by zero")
	ErrStepLimit      = errors.New("step limit exceeded")
)

// VM describes the virtual machine for each program.  It contains the
// executable instructions, the label table, the memory stack M with its top
// index s, and the display D of frame bases per static level.
type VM struct {
	name   string
	prog   []code.Instr
	labels map[string]int // label name to instruction index

	m  []int // Memory stack.
	s  int   // Index of the top of M; -1 when empty.
	d  []int // Display.
	pc int   // Index of the next instruction.

	in  *bufio.Reader
	out io.Writer

	halted    bool
	err       error
	steps     int
	maxSteps  int
	maxStack  int
	traceExec bool

	HardCrash bool // User settable flag to make the VM crash instead of recover on panic.

	runtimeErrorMu sync.RWMutex // protects runtimeError
	runtimeError   string       // records the last runtime error from errorf()
}

// New creates a new virtual machine for the named program.  Labels are
// resolved here, so a program that jumps to an undefined label or defines one
// twice is rejected before it runs.
func New(name string, prog []code.Instr, options ...Option) (*VM, error) {
	v := &VM{
		name:     name,
		prog:     prog,
		labels:   make(map[string]int),
		in:       bufio.NewReader(strings.NewReader("")),
		out:      io.Discard,
		maxSteps: defaultMaxSteps,
		maxStack: defaultMaxStack,
	}
	for _, option := range options {
		if err := option(v); err != nil {
			return nil, err
		}
	}
	for n, i := range prog {
		if i.Opcode != code.Nada {
			continue
		}
		if _, ok := v.labels[i.Label]; ok {
			return nil, errors.Errorf("%s: label %q defined twice, again at instruction %d", name, i.Label, n)
		}
		v.labels[i.Label] = n
	}
	for n, i := range prog {
		if i.Opcode.HasLabel() && i.Opcode != code.Nada {
			if _, ok := v.labels[i.Label]; !ok {
				return nil, errors.Errorf("%s: instruction %d %s jumps to unknown label %q", name, n, i.Opcode, i.Label)
			}
		}
		if len(i.Args) != i.Opcode.NumArgs() {
			return nil, errors.Errorf("%s: instruction %d %s takes %d operands, has %d", name, n, i.Opcode, i.Opcode.NumArgs(), len(i.Args))
		}
	}
	return v, nil
}

// errorf records a runtime error and halts the program.
func (v *VM) errorf(format string, args ...interface{}) {
	if v.err != nil {
		return
	}
	n := v.pc - 1
	var i code.Instr
	if n >= 0 && n < len(v.prog) {
		i = v.prog[n]
	}
	v.err = errors.Errorf(format, args...)
	ProgRuntimeErrors.Add(v.name, 1)
	v.runtimeErrorMu.Lock()
	v.runtimeError = fmt.Sprintf(format+"\n", args...)
	v.runtimeError += fmt.Sprintf(
		"Error occurred at instruction %d {%s}, originating in %s at line %d\n",
		n, i.Line(), v.name, i.SourceLine)
	v.runtimeErrorMu.Unlock()
	glog.V(1).Info(v.name + ": Runtime error: " + v.RuntimeErrorString())
	if glog.V(2) {
		glog.Infof("Dumping vm state")
		glog.Infof(" PC %d", n)
		glog.Infof(" Stack %v", v.Stack())
		glog.Infof(" Display %v", v.d)
		glog.Info(v.DumpByteCode())
	}
	v.halted = true
}

// push a value onto the memory stack.
func (v *VM) push(x int) {
	v.s++
	if !v.grow() {
		return
	}
	v.m[v.s] = x
}

// pop a value off the memory stack.
func (v *VM) pop() int {
	if v.s < 0 {
		v.errorf("%s", ErrStackUnderflow)
		return 0
	}
	x := v.m[v.s]
	v.s--
	return x
}

// grow makes M large enough to hold index s.
func (v *VM) grow() bool {
	if v.s >= v.maxStack {
		v.errorf("%s: %d cells", ErrStackOverflow, v.s+1)
		return false
	}
	for len(v.m) <= v.s {
		v.m = append(v.m, 0)
	}
	return true
}

// display returns the frame base for level k, growing D if needed.
func (v *VM) display(k int) int {
	if k < 0 {
		v.errorf("invalid display level %d", k)
		return 0
	}
	for len(v.d) <= k {
		v.d = append(v.d, 0)
	}
	return v.d[k]
}

func (v *VM) setDisplay(k, base int) {
	v.display(k)
	if v.err == nil {
		v.d[k] = base
	}
}

// address resolves (level, offset) to a cell of M that is in use.
func (v *VM) address(k, n int) (int, bool) {
	a := v.display(k) + n
	if v.err != nil {
		return 0, false
	}
	if a < 0 || a > v.s {
		v.errorf("address %d (level %d, offset %d) outside the stack of %d cells", a, k, n, v.s+1)
		return 0, false
	}
	return a, true
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func (v *VM) jump(label string) {
	target, ok := v.labels[label]
	if !ok {
		v.errorf("jump to unknown label %q", label)
		return
	}
	v.pc = target
}

// binary pops b then a and pushes f(a, b).
func (v *VM) binary(f func(a, b int) int) {
	if v.s < 1 {
		v.errorf("%s", ErrStackUnderflow)
		return
	}
	b := v.pop()
	a := v.pop()
	v.push(f(a, b))
}

// execute performs the instruction i.
func (v *VM) execute(i code.Instr) {
	// In normal operation, recover from panics, otherwise dump that state and repanic.
	defer func() {
		if r := recover(); r != nil {
			if v.HardCrash {
				fmt.Printf("panic at instr %q: %s\n%s", i.Line(), r, debug.Stack())
				panic(r)
			}
			v.errorf("panic at instr %q: %s", i.Line(), r)
		}
	}()
	if v.traceExec {
		glog.Infof("%s: %4d %-12s s=%d D=%v", v.name, v.pc-1, i.Line(), v.s, v.d)
	}

	switch i.Opcode {
	case code.Inpp:
		v.s = -1
		v.d = v.d[:0]
		v.setDisplay(0, 0)

	case code.Rmem:
		for n := 0; n < i.Args[0]; n++ {
			v.push(0)
		}

	case code.Lmem:
		if v.s+1 < i.Args[0] {
			v.errorf("%s: releasing %d of %d cells", ErrStackUnderflow, i.Args[0], v.s+1)
			return
		}
		v.s -= i.Args[0]

	case code.Apct:
		v.push(i.Args[0])

	case code.Apvl:
		if a, ok := v.address(i.Args[0], i.Args[1]); ok {
			v.push(v.m[a])
		}

	case code.Alvl:
		a, ok := v.address(i.Args[0], i.Args[1])
		if !ok {
			return
		}
		v.m[a] = v.pop()

	case code.Dsvs:
		v.jump(i.Label)

	case code.Dsvf:
		if v.pop() == 0 && v.err == nil {
			v.jump(i.Label)
		}

	case code.Llpr:
		v.push(v.pc)
		v.jump(i.Label)

	case code.Enpr:
		k := i.Args[0]
		v.push(v.display(k))
		v.setDisplay(k, v.s+1)

	case code.Rtpr:
		k, n := i.Args[0], i.Args[1]
		if v.s < n+1 {
			v.errorf("%s: returning with %d cells", ErrStackUnderflow, v.s+1)
			return
		}
		v.setDisplay(k, v.m[v.s])
		v.pc = v.m[v.s-1]
		v.s -= n + 2

	case code.Suma:
		v.binary(func(a, b int) int { return a + b })
	case code.Sust:
		v.binary(func(a, b int) int { return a - b })
	case code.Mult:
		v.binary(func(a, b int) int { return a * b })
	case code.Divi:
		if v.s >= 0 && v.m[v.s] == 0 {
			v.errorf("%s", ErrDivideByZero)
			return
		}
		v.binary(func(a, b int) int { return a / b })
	case code.Disj:
		v.binary(func(a, b int) int { return boolInt(a != 0 || b != 0) })
	case code.Conj:
		v.binary(func(a, b int) int { return boolInt(a != 0 && b != 0) })
	case code.Cmig:
		v.binary(func(a, b int) int { return boolInt(a == b) })
	case code.Cmdg:
		v.binary(func(a, b int) int { return boolInt(a != b) })
	case code.Cmme:
		v.binary(func(a, b int) int { return boolInt(a < b) })
	case code.Cmma:
		v.binary(func(a, b int) int { return boolInt(a > b) })
	case code.Cmni:
		v.binary(func(a, b int) int { return boolInt(a <= b) })
	case code.Cmyi:
		v.binary(func(a, b int) int { return boolInt(a >= b) })

	case code.Umen:
		v.push(-v.pop())

	case code.Nega:
		v.push(1 - v.pop())

	case code.Leer:
		var x int
		if _, err := fmt.Fscan(v.in, &x); err != nil {
			v.errorf("read failed: %s", err)
			return
		}
		v.push(x)

	case code.Impr:
		x := v.pop()
		if v.err != nil {
			return
		}
		if _, err := fmt.Fprintln(v.out, x); err != nil {
			v.errorf("write failed: %s", err)
		}

	case code.Para:
		v.halted = true

	case code.Nada:

	default:
		v.errorf("illegal instruction: %d", i.Opcode)
	}
}

// Run executes the program from its first instruction until PARA, a runtime
// error, or cancellation of ctx.  A VM may be Run again; each run starts
// from an empty machine.
func (v *VM) Run(ctx context.Context) error {
	start := time.Now()
	defer func() {
		RunDurations.WithLabelValues(v.name).Observe(time.Since(start).Seconds())
	}()
	v.m, v.s, v.d, v.pc = v.m[:0], -1, v.d[:0], 0
	v.halted, v.err, v.steps = false, nil, 0
	for !v.halted {
		if v.pc < 0 || v.pc >= len(v.prog) {
			v.pc++
			v.errorf("program ran off the end at instruction %d without PARA", v.pc-1)
			break
		}
		if v.steps >= v.maxSteps {
			v.errorf("%s: %d instructions", ErrStepLimit, v.steps)
			break
		}
		if v.steps%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		v.steps++
		i := v.prog[v.pc]
		v.pc++
		v.execute(i)
	}
	if v.err != nil {
		return errors.Wrap(v.err, v.name)
	}
	glog.V(1).Infof("%s: halted after %d instructions", v.name, v.steps)
	return nil
}

// Stack returns a copy of the cells of M in use, bottom first.
func (v *VM) Stack() []int {
	if v.s < 0 {
		return []int{}
	}
	return append([]int(nil), v.m[:v.s+1]...)
}

// Steps returns the number of instructions executed by the last run.
func (v *VM) Steps() int {
	return v.steps
}

// DumpByteCode emits the program disassembly and label table to a string.
func (v *VM) DumpByteCode() string {
	b := new(bytes.Buffer)
	fmt.Fprintf(b, "Prog: %s\n", v.name)
	w := new(tabwriter.Writer)
	w.Init(b, 0, 0, 1, ' ', tabwriter.AlignRight)

	fmt.Fprintln(w, "disasm\tl\tinstr\tline\t")
	for n, i := range v.prog {
		fmt.Fprintf(w, "\t%d\t%s\t%d\t\n", n, i.Line(), i.SourceLine)
	}
	if err := w.Flush(); err != nil {
		glog.Infof("flush error: %s", err)
	}
	return b.String()
}

// RuntimeErrorString returns the last runtime error that the program encountered.
func (v *VM) RuntimeErrorString() string {
	v.runtimeErrorMu.RLock()
	defer v.runtimeErrorMu.RUnlock()
	return v.runtimeError
}
