// Copyright 2021 Google Inc. All Rights Reserved.
// This file is available under the Apache license.

package runtime

import (
	"github.com/mafetri/pascalc/internal/runtime/compiler"
	"github.com/mafetri/pascalc/internal/runtime/vm"
	"github.com/mafetri/pascalc/internal/watcher"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/afero"
)

// Option configures a new program Runtime.
type Option func(*Runtime) error

// CompileOnly sets the Runtime to compile programs only, without keeping them loaded.
func CompileOnly() Option {
	return func(r *Runtime) error {
		r.compileOnly = true
		return ErrorsAbort()(r)
	}
}

// ErrorsAbort sets the Runtime to abort the Runtime on compile errors.
func ErrorsAbort() Option {
	return func(r *Runtime) error {
		r.errorsAbort = true
		return nil
	}
}

// OutputPath sets the directory the .tac and .mepa artifacts of each
// compiled program are written to.
func OutputPath(path string) Option {
	return func(r *Runtime) error {
		r.outputPath = path
		return nil
	}
}

// Filesystem sets the filesystem programs are read from and artifacts
// written to.
func Filesystem(fs afero.Fs) Option {
	return func(r *Runtime) error {
		if fs == nil {
			return errors.New("loader needs a filesystem")
		}
		r.fs = fs
		return nil
	}
}

// Watcher sets the watcher that reports changes to the program directory.
func Watcher(w watcher.Watcher) Option {
	return func(r *Runtime) error {
		r.w = w
		return nil
	}
}

// DumpTAC instructs the loader to log the three address code after code generation.
func DumpTAC() Option {
	return func(r *Runtime) error {
		r.dumpTAC = true
		return nil
	}
}

// DumpMepa instructs the loader to log the MEPA code after code generation.
func DumpMepa() Option {
	return func(r *Runtime) error {
		r.dumpMepa = true
		return nil
	}
}

// CacheSize sets how many compiled objects are kept by content hash.
func CacheSize(n int) Option {
	return func(r *Runtime) error {
		if n <= 0 {
			return errors.Errorf("invalid cache size %d", n)
		}
		r.cacheSize = n
		return nil
	}
}

// MaxSteps bounds the instructions executed by RunProgram.
func MaxSteps(n int) Option {
	return func(r *Runtime) error {
		if n <= 0 {
			return errors.Errorf("invalid step limit %d", n)
		}
		r.maxSteps = n
		return nil
	}
}

// CompilerOptions passes options through to the compiler.
func CompilerOptions(opts ...compiler.Option) Option {
	return func(r *Runtime) error {
		r.cOpts = append(r.cOpts, opts...)
		return nil
	}
}

// PrometheusRegisterer passes in a registry for setting up exported metrics.
func PrometheusRegisterer(reg prometheus.Registerer) Option {
	return func(r *Runtime) error {
		r.reg = reg
		r.reg.MustRegister(compiler.CompileDurations, vm.RunDurations)
		r.reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "pascalc",
			Subsystem: "loader",
			Name:      "programs",
			Help:      "Number of programs currently loaded.",
		}, func() float64 {
			return float64(len(r.Programs()))
		}))
		return nil
	}
}
