// Copyright 2011 Google Inc. All Rights Reserved.
// This file is available under the Apache license.

// Command pascalc compiles programs to three address code and MEPA stack
// machine code.  Given -prog it compiles a single file; given -progs it
// loads a directory of programs, keeps them compiled as they change, and
// serves their status over HTTP.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"github.com/golang/glog"
	"github.com/mafetri/pascalc/internal/runtime/compiler"
	"github.com/mafetri/pascalc/internal/runtime/vm"
	"github.com/mafetri/pascalc/internal/server"
	"github.com/mafetri/pascalc/internal/waker"
	"github.com/mafetri/pascalc/internal/watcher"
	"go.opencensus.io/trace"
)

var (
	// Single program flags.
	prog   = flag.String("prog", "", "Name of a single program to compile.")
	target = flag.String("target", "both", "Code to emit for -prog: tac, mepa, or both.")
	output = flag.String("output", "", "File to write the -prog output to, instead of stdout.")
	run    = flag.Bool("run", false, "Run the -prog program after compiling it, reading from stdin and writing to stdout.")

	// Loader flags.
	port      = flag.String("port", "3904", "HTTP port to listen on.")
	address   = flag.String("address", "", "Host or IP address on which to bind HTTP listener")
	progs     = flag.String("progs", "", "Name of the directory containing programs")
	outputDir = flag.String("output_dir", "", "Directory to write each program's .tac and .mepa files to.")

	version = flag.Bool("version", false, "Print pascalc version information.")

	// Compiler behaviour flags.
	compileOnly       = flag.Bool("compile_only", false, "Compile programs only, do not serve them.")
	dumpAst           = flag.Bool("dump_ast", false, "Dump AST of programs after parse (to INFO log).")
	dumpAstTypes      = flag.Bool("dump_ast_types", false, "Dump AST of programs with type annotation after typecheck (to INFO log).")
	dumpLayout        = flag.Bool("dump_layout", false, "Dump the symbol table and frame layout of programs (to INFO log).")
	dumpTAC           = flag.Bool("dump_tac", false, "Dump three address code of loaded programs (to INFO log).")
	dumpMepa          = flag.Bool("dump_mepa", false, "Dump MEPA code of loaded programs (to INFO log).")
	maxRecursionDepth = flag.Int("max_recursion_depth", 100, "The maximum nesting depth of statements and expressions accepted by the compiler.")

	// VM behaviour flags.
	maxSteps = flag.Int("max_steps", 10000000, "The maximum number of instructions a program run may execute.")

	// Ops flags.
	pollInterval   = flag.Duration("poll_interval", 250*time.Millisecond, "Set the interval to poll the program directory for changes; must be positive, or zero to disable polling.")
	enableFsnotify = flag.Bool("enable_fsnotify", true, "Use fsnotify to watch the program directory for changes.")

	// Debugging flags.
	blockProfileRate     = flag.Int("block_profile_rate", 0, "Nanoseconds of block time before goroutine blocking events reported. 0 turns off.  See https://golang.org/pkg/runtime/#SetBlockProfileRate")
	mutexProfileFraction = flag.Int("mutex_profile_fraction", 0, "Fraction of mutex contention events reported.  0 turns off.  See http://golang.org/pkg/runtime/#SetMutexProfileFraction")

	// Tracing.
	jaegerEndpoint    = flag.String("jaeger_endpoint", "", "If set, collector endpoint URL of jaeger thrift service")
	traceSamplePeriod = flag.Int("trace_sample_period", 0, "Sample period for traces.  If non-zero, every nth trace will be sampled.")
)

var (
	// Branch as well as Version and Revision identifies where in the git
	// history the build came from, as supplied by the linker when compiled
	// with `make'.  The defaults here indicate that the user did not use
	// `make' as instructed.
	Branch   = "invalid:-use-make-to-build"
	Version  = "invalid:-use-make-to-build"
	Revision = "invalid:-use-make-to-build"
)

func compilerOptions() []compiler.Option {
	opts := []compiler.Option{compiler.MaxRecursionDepth(*maxRecursionDepth)}
	if *dumpAst {
		opts = append(opts, compiler.EmitAst())
	}
	if *dumpAstTypes {
		opts = append(opts, compiler.EmitAstTypes())
	}
	if *dumpLayout {
		opts = append(opts, compiler.EmitLayout())
	}
	return opts
}

// compileOne compiles the single program named by -prog and writes the
// selected target code.
func compileOne(ctx context.Context) error {
	c, err := compiler.New(compilerOptions()...)
	if err != nil {
		return err
	}
	f, err := os.Open(*prog)
	if err != nil {
		return err
	}
	defer f.Close()
	obj, err := c.Compile(ctx, *prog, f)
	if err != nil {
		return err
	}

	var w io.Writer = os.Stdout
	if *output != "" {
		out, err := os.Create(*output)
		if err != nil {
			return err
		}
		defer func() {
			if err := out.Close(); err != nil {
				glog.Warning(err)
			}
		}()
		w = out
	}
	switch *target {
	case "tac":
		fmt.Fprint(w, obj.TAC())
	case "mepa":
		fmt.Fprintln(w, obj.Mepa())
	case "both":
		fmt.Fprintf(w, "%s\n%s\n", obj.TAC(), obj.Mepa())
	default:
		return fmt.Errorf("unknown target %q; want tac, mepa, or both", *target)
	}

	if !*run {
		return nil
	}
	v, err := vm.New(obj.Name, obj.Instrs, vm.Input(os.Stdin), vm.Output(os.Stdout), vm.MaxSteps(*maxSteps))
	if err != nil {
		return err
	}
	return v.Run(ctx)
}

func main() {
	buildInfo := server.BuildInfo{
		Branch:   Branch,
		Version:  Version,
		Revision: Revision,
	}

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "%s\n", buildInfo.String())
		fmt.Fprintf(os.Stderr, "\nUsage:\n")
		flag.PrintDefaults()
	}
	flag.Parse()
	if *version {
		fmt.Println(buildInfo.String())
		os.Exit(0)
	}
	glog.Info(buildInfo.String())
	glog.Infof("Commandline: %q", os.Args)
	if len(flag.Args()) > 0 {
		glog.Exitf("Too many extra arguments specified: %q", flag.Args())
	}
	if *blockProfileRate > 0 {
		glog.Infof("Setting block profile rate to %d", *blockProfileRate)
		runtime.SetBlockProfileRate(*blockProfileRate)
	}
	if *mutexProfileFraction > 0 {
		glog.Infof("Setting mutex profile fraction to %d", *mutexProfileFraction)
		runtime.SetMutexProfileFraction(*mutexProfileFraction)
	}
	if *traceSamplePeriod > 0 {
		trace.ApplyConfig(trace.Config{DefaultSampler: trace.ProbabilitySampler(1 / float64(*traceSamplePeriod))})
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if *prog != "" {
		if *progs != "" {
			glog.Exitf("-prog and -progs are mutually exclusive")
		}
		if err := compileOne(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "%s: %s\n", filepath.Base(*prog), err)
			os.Exit(1)
		}
		return
	}
	if *progs == "" {
		glog.Exitf("pascalc requires programs to compile; please use the flag -prog to name a single program, or -progs to specify a directory containing programs.")
	}

	sigint := make(chan os.Signal, 1)
	signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigint
		glog.Infof("Received %+v, exiting...", sig)
		cancel()
	}()

	opts := []server.Option{
		server.ProgramPath(*progs),
		server.SetBuildInfo(buildInfo),
		server.MaxRecursionDepth(*maxRecursionDepth),
		server.MaxSteps(*maxSteps),
	}
	if *outputDir != "" {
		opts = append(opts, server.OutputPath(*outputDir))
	}
	if *compileOnly {
		opts = append(opts, server.CompileOnly)
	} else {
		opts = append(opts, server.BindAddress(*address, *port))
	}
	if *dumpAst {
		opts = append(opts, server.DumpAst)
	}
	if *dumpAstTypes {
		opts = append(opts, server.DumpAstTypes)
	}
	if *dumpLayout {
		opts = append(opts, server.DumpLayout)
	}
	if *dumpTAC {
		opts = append(opts, server.DumpTAC)
	}
	if *dumpMepa {
		opts = append(opts, server.DumpMepa)
	}
	if *jaegerEndpoint != "" {
		opts = append(opts, server.JaegerReporter(*jaegerEndpoint))
	}

	var w watcher.Watcher
	if !*compileOnly {
		var pollWaker waker.Waker
		if *pollInterval > 0 {
			pollWaker = waker.NewTimed(ctx, *pollInterval)
		}
		dw, err := watcher.NewDirWatcher(pollWaker, *enableFsnotify)
		if err != nil {
			glog.Exit(err)
		}
		w = dw
	}
	m, err := server.New(ctx, w, opts...)
	if err != nil {
		glog.Error(err)
		cancel()
		os.Exit(1) //nolint:gocritic // false positive
	}
	if err := m.Run(); err != nil {
		glog.Error(err)
		cancel()
		os.Exit(1) //nolint:gocritic // false positive
	}
}
