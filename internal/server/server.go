// Copyright 2011 Google Inc. All Rights Reserved.
// This file is available under the Apache license.

// Package server hosts the program loader behind an HTTP status and metrics
// interface.
package server

import (
	"context"
	"expvar"
	"net"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/golang/glog"
	"github.com/mafetri/pascalc/internal/runtime"
	"github.com/mafetri/pascalc/internal/runtime/compiler"
	"github.com/mafetri/pascalc/internal/watcher"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/common/version"
	"go.opencensus.io/zpages"
)

// Server contains the state of the main pascalc program.
type Server struct {
	ctx    context.Context
	cancel context.CancelFunc
	w      watcher.Watcher

	r *runtime.Runtime // r loads programs and keeps their compiled objects

	reg *prometheus.Registry

	h        *http.Server
	listener net.Listener

	webquit     chan struct{} // Channel to signal shutdown from web UI
	webquitOnce sync.Once
	closeQuit   chan struct{} // Channel to signal shutdown from code
	closeOnce   sync.Once     // Ensure shutdown happens only once

	bindAddress string    // address to bind HTTP server
	buildInfo   BuildInfo // go build information
	programPath string    // path to programs to load
	outputPath  string    // directory receiving .tac and .mepa artifacts

	compileOnly  bool // if set, pascalc compiles programs then exits
	dumpAst      bool // if set, pascalc prints the program syntax tree after parse
	dumpAstTypes bool // if set, pascalc prints the program syntax tree after type checking
	dumpLayout   bool // if set, pascalc prints the symbol table and frame layout
	dumpTAC      bool // if set, pascalc prints the three address code
	dumpMepa     bool // if set, pascalc prints the stack machine code

	maxRecursionDepth int
	maxSteps          int
}

// initRuntime constructs a new program loader and performs the initial load of program files in the program directory.
func (m *Server) initRuntime() error {
	copts := []compiler.Option{}
	if m.dumpAst {
		copts = append(copts, compiler.EmitAst())
	}
	if m.dumpAstTypes {
		copts = append(copts, compiler.EmitAstTypes())
	}
	if m.dumpLayout {
		copts = append(copts, compiler.EmitLayout())
	}
	if m.maxRecursionDepth > 0 {
		copts = append(copts, compiler.MaxRecursionDepth(m.maxRecursionDepth))
	}
	opts := []runtime.Option{
		runtime.PrometheusRegisterer(m.reg),
		runtime.CompilerOptions(copts...),
	}
	if m.w != nil {
		opts = append(opts, runtime.Watcher(m.w))
	}
	if m.compileOnly {
		opts = append(opts, runtime.CompileOnly())
	}
	if m.outputPath != "" {
		opts = append(opts, runtime.OutputPath(m.outputPath))
	}
	if m.dumpTAC {
		opts = append(opts, runtime.DumpTAC())
	}
	if m.dumpMepa {
		opts = append(opts, runtime.DumpMepa())
	}
	if m.maxSteps > 0 {
		opts = append(opts, runtime.MaxSteps(m.maxSteps))
	}
	var err error
	m.r, err = runtime.New(m.programPath, opts...)
	if err != nil {
		return errors.Wrap(err, "Compile encountered errors")
	}
	return nil
}

// New creates a Server from the supplied Options.  The watcher may be nil,
// in which case programs are only reloaded on SIGHUP.
func New(ctx context.Context, w watcher.Watcher, options ...Option) (*Server, error) {
	m := &Server{
		w:         w,
		webquit:   make(chan struct{}),
		closeQuit: make(chan struct{}),
		h:         &http.Server{},
		reg:       prometheus.NewRegistry(),
	}
	m.ctx, m.cancel = context.WithCancel(ctx)

	expvarDescs := map[string]*prometheus.Desc{
		// internal/runtime/runtime.go
		"prog_loads_total":       prometheus.NewDesc("prog_loads_total", "number of program load events by program source filename", []string{"prog"}, nil),
		"prog_load_errors_total": prometheus.NewDesc("prog_load_errors_total", "number of errors encountered when loading per program source filename", []string{"prog"}, nil),
		"prog_unloads_total":     prometheus.NewDesc("prog_unloads_total", "number of program unload events by program source filename", []string{"prog"}, nil),
		"prog_cache_hits_total":  prometheus.NewDesc("prog_cache_hits_total", "number of compilations served from the object cache per program source filename", []string{"prog"}, nil),
		// internal/runtime/vm/vm.go
		"prog_runtime_errors_total": prometheus.NewDesc("prog_runtime_errors_total", "number of errors encountered when executing programs per source filename", []string{"prog"}, nil),
	}
	m.reg.MustRegister(
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))
	// Prefix all expvar metrics with 'pascalc_'
	prometheus.WrapRegistererWithPrefix("pascalc_", m.reg).MustRegister(
		prometheus.NewExpvarCollector(expvarDescs))
	if err := m.SetOption(options...); err != nil {
		return nil, err
	}

	// Create pascalc_build_info metric.
	version.Branch = m.buildInfo.Branch
	version.Version = m.buildInfo.Version
	version.Revision = m.buildInfo.Revision
	m.reg.MustRegister(version.NewCollector("pascalc"))

	if err := m.initRuntime(); err != nil {
		return nil, err
	}
	return m, nil
}

// SetOption takes one or more option functions and applies them in order to Server.
func (m *Server) SetOption(options ...Option) error {
	for _, option := range options {
		if err := option.apply(m); err != nil {
			return err
		}
	}
	return nil
}

// Runtime returns the program loader owned by this Server.
func (m *Server) Runtime() *runtime.Runtime {
	return m.r
}

// Serve begins the webserver and awaits a shutdown instruction.
func (m *Server) Serve() error {
	if m.bindAddress == "" {
		return errors.Errorf("No bind address provided.")
	}
	mux := http.NewServeMux()
	mux.Handle("/", m)
	mux.Handle("/progz", http.HandlerFunc(m.r.ProgzHandler))
	mux.Handle("/metrics", promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{}))
	mux.HandleFunc("/quitquitquit", http.HandlerFunc(m.quitHandler))
	mux.Handle("/debug/vars", expvar.Handler())
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	zpages.Handle(mux, "/")
	m.h.Handler = mux

	errc := make(chan error, 1)
	go func() {
		glog.Infof("Listening on %s", m.listener.Addr())
		err := m.h.Serve(m.listener)
		if err == http.ErrServerClosed {
			err = nil
		}
		errc <- err
	}()
	m.WaitForShutdown()
	return <-errc
}

// WaitForShutdown handles shutdown requests from the system or the UI.
func (m *Server) WaitForShutdown() {
	n := make(chan os.Signal, 1)
	signal.Notify(n, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(n)
	select {
	case <-m.ctx.Done():
		glog.Info("External shutdown, exiting...")
	case <-n:
		glog.Info("Received SIGTERM, exiting...")
	case <-m.webquit:
		glog.Info("Received Quit from HTTP, exiting...")
	case <-m.closeQuit:
		glog.Info("Received quit internally, exiting...")
	}
	if err := m.Close(false); err != nil {
		glog.Warning(err)
	}
}

// Close handles the graceful shutdown of this pascalc instance, ensuring
// that it only occurs once.  If fast is true, then the http server is
// shutdown without waiting.
func (m *Server) Close(fast bool) error {
	var err error
	m.closeOnce.Do(func() {
		glog.Info("Shutdown requested.")
		close(m.closeQuit)
		m.cancel()
		if m.r != nil {
			if rerr := m.r.Close(); rerr != nil {
				glog.Infof("runtime close failed: %s", rerr)
			}
		} else {
			glog.V(2).Info("No runtime, so not waiting for runtime shutdown.")
		}
		if m.w != nil {
			if werr := m.w.Close(); werr != nil {
				glog.Infof("watcher close failed: %s", werr)
			}
		}
		if m.listener != nil && m.h.Handler == nil {
			// Never served, so the http server does not own the listener.
			err = m.listener.Close()
			return
		}
		glog.Info("Shutting down http server")
		if fast {
			err = m.h.Close()
		} else {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			err = m.h.Shutdown(ctx)
			cancel()
		}
		glog.Info("END OF LINE")
	})
	return err
}

// Run starts the Server's primary function, serving the loaded programs
// until shutdown.  In compile-only mode it returns once the programs are
// compiled.
func (m *Server) Run() error {
	if m.compileOnly {
		glog.Info("compile-only is set, exiting")
		return m.Close(true)
	}
	return m.Serve()
}

// Addr returns the address the HTTP server is bound to.
func (m *Server) Addr() string {
	if m.listener == nil {
		return "none"
	}
	return m.listener.Addr().String()
}

func (m *Server) quitHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Add("Allow", http.MethodPost)
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	glog.Info("Received /quitquitquit request")
	w.WriteHeader(http.StatusOK)
	m.webquitOnce.Do(func() { close(m.webquit) })
}
