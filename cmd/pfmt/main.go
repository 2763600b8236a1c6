// Copyright 2018 Google Inc. All Rights Reserved.
// This file is available under the Apache license.

/*
Command pfmt formats programs.
*/
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/golang/glog"
	"github.com/mafetri/pascalc/internal/runtime/compiler/checker"
	"github.com/mafetri/pascalc/internal/runtime/compiler/parser"
)

var (
	prog  = flag.String("prog", "", "Name of the program text to format.")
	write = flag.Bool("write", false, "Write results to original file.")
	types = flag.Bool("types", false, "Annotate expressions with their checked types.")
)

func main() {
	flag.Parse()

	if *prog == "" {
		glog.Exitf("No -prog given")
	}

	f, err := os.OpenFile(*prog, os.O_RDWR, 0)
	if err != nil {
		glog.Exit(err)
	}
	defer f.Close()
	ast, err := parser.Parse(*prog, f)
	if err != nil {
		glog.Exit(err)
	}
	if _, err = checker.Check(ast, 0); err != nil {
		glog.Exit(err)
	}
	out := parser.NewUnparser(*types).Unparse(ast)
	if *write {
		if *types {
			glog.Exitf("-types output is not a program; refusing to -write it")
		}
		if err := f.Truncate(0); err != nil {
			glog.Exit(err)
		}
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			glog.Exit(err)
		}
		if _, err := f.WriteString(out); err != nil {
			glog.Exit(err)
		}
	} else {
		fmt.Print(out)
	}
}
