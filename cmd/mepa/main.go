// Copyright 2021 Google Inc. All Rights Reserved.
// This file is available under the Apache license.

/*
Command mepa runs MEPA stack machine code, as written by pascalc, reading
program input from stdin and writing its output to stdout.
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/golang/glog"
	"github.com/mafetri/pascalc/internal/runtime/code"
	"github.com/mafetri/pascalc/internal/runtime/vm"
)

var (
	prog     = flag.String("prog", "", "Name of the MEPA file to run.")
	maxSteps = flag.Int("max_steps", 10000000, "The maximum number of instructions to execute.")
	listing  = flag.Bool("listing", false, "Print the program listing instead of running it.")
	trace    = flag.Bool("trace", false, "Log each executed instruction (to INFO log).")
)

func main() {
	flag.Parse()

	if *prog == "" {
		glog.Exitf("No -prog given")
	}
	f, err := os.Open(*prog)
	if err != nil {
		glog.Exit(err)
	}
	instrs, err := code.ParseMepa(f)
	f.Close()
	if err != nil {
		glog.Exitf("%s: %s", *prog, err)
	}

	opts := []vm.Option{vm.Input(os.Stdin), vm.Output(os.Stdout), vm.MaxSteps(*maxSteps)}
	if *trace {
		opts = append(opts, vm.Trace())
	}
	v, err := vm.New(filepath.Base(*prog), instrs, opts...)
	if err != nil {
		glog.Exit(err)
	}
	if *listing {
		fmt.Print(v.DumpByteCode())
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := v.Run(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1) //nolint:gocritic // false positive
	}
}
