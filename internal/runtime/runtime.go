// Copyright 2015 Google Inc. All Rights Reserved.
// This file is available under the Apache license.

// Package runtime loads programs from a directory, compiles them, and keeps
// the compiled objects and last compile errors of each.
package runtime

// Programs may be created, updated, and deleted while the loader is running,
// and they will be recompiled without having to restart the process; the
// loader also reloads everything on a HUP signal.

import (
	"bytes"
	"context"
	"expvar"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"syscall"

	"github.com/cespare/xxhash/v2"
	"github.com/golang/glog"
	"github.com/golang/groupcache/lru"
	"github.com/mafetri/pascalc/internal/runtime/code"
	"github.com/mafetri/pascalc/internal/runtime/compiler"
	"github.com/mafetri/pascalc/internal/runtime/vm"
	"github.com/mafetri/pascalc/internal/watcher"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/afero"
)

var (
	// ProgLoads counts the number of program load events.
	ProgLoads = expvar.NewMap("prog_loads_total")
	// ProgUnloads counts the number of program unload events.
	ProgUnloads = expvar.NewMap("prog_unloads_total")
	// ProgLoadErrors counts the number of program load errors.
	ProgLoadErrors = expvar.NewMap("prog_load_errors_total")
	// ProgCacheHits counts compilations answered from the object cache.
	ProgCacheHits = expvar.NewMap("prog_cache_hits_total")
)

const (
	fileExt          = ".pas"
	defaultCacheSize = 64
)

// LoadAllPrograms loads all programs in a directory.  Programs that were
// loaded before but are no longer present are unloaded.  Any compile errors
// are stored for later retrieval.  This function returns an error if an
// internal error occurs, or if errors abort loading.
func (r *Runtime) LoadAllPrograms() error {
	if r.programPath == "" {
		glog.V(2).Info("Programpath is empty, loading nothing")
		return nil
	}
	s, err := r.fs.Stat(r.programPath)
	if err != nil {
		return errors.Wrapf(err, "failed to stat %q", r.programPath)
	}
	if !s.IsDir() {
		return r.loadOrAbort(r.programPath)
	}
	dirents, err := afero.ReadDir(r.fs, r.programPath)
	if err != nil {
		return errors.Wrapf(err, "Failed to list programs in %q", r.programPath)
	}
	markDeleted := make(map[string]struct{})
	r.programMu.RLock()
	for name := range r.programs {
		markDeleted[name] = struct{}{}
	}
	r.programMu.RUnlock()
	for _, dirent := range dirents {
		if dirent.IsDir() {
			continue
		}
		if err := r.loadOrAbort(filepath.Join(r.programPath, dirent.Name())); err != nil {
			return err
		}
		delete(markDeleted, dirent.Name())
	}
	for name := range markDeleted {
		glog.Infof("unloading %s", name)
		r.UnloadProgram(name)
	}
	return nil
}

func (r *Runtime) loadOrAbort(pathname string) error {
	err := r.LoadProgram(pathname)
	if err != nil {
		if r.errorsAbort {
			return err
		}
		glog.Warning(err)
	}
	return nil
}

// LoadProgram loads or reloads a program from the full pathname programPath.  The name of
// the program is the basename of the file.
func (r *Runtime) LoadProgram(programPath string) error {
	name := filepath.Base(programPath)
	if strings.HasPrefix(name, ".") {
		glog.V(2).Infof("Skipping %s because it is a hidden file.", programPath)
		return nil
	}
	if filepath.Ext(name) != fileExt {
		glog.V(2).Infof("Skipping %s due to file extension.", programPath)
		return nil
	}
	f, err := r.fs.Open(filepath.Clean(programPath))
	if err != nil {
		ProgLoadErrors.Add(name, 1)
		return errors.Wrapf(err, "Failed to read program %q", programPath)
	}
	defer func() {
		if err := f.Close(); err != nil {
			glog.Warning(err)
		}
	}()
	r.programErrorMu.Lock()
	defer r.programErrorMu.Unlock()
	r.programErrors[name] = r.CompileProgram(context.Background(), name, f)
	if r.programErrors[name] != nil {
		if r.errorsAbort {
			return r.programErrors[name]
		}
		glog.Infof("Compile errors for %s:\n%s", name, r.programErrors[name])
	}
	return nil
}

// CompileProgram compiles a program read from the input and installs it
// under name.  If the contents are unchanged since the last load nothing is
// done; if they match any recently compiled source the cached object is
// reused.  If the new program fails to compile, any existing program of the
// same name stays loaded.
func (r *Runtime) CompileProgram(ctx context.Context, name string, input io.Reader) error {
	glog.V(2).Infof("CompileProgram %s", name)
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, input); err != nil {
		ProgLoadErrors.Add(name, 1)
		return errors.Wrapf(err, "reading failed for %q", name)
	}
	contentHash := xxhash.Sum64(buf.Bytes())
	r.programMu.RLock()
	p, ok := r.programs[name]
	r.programMu.RUnlock()
	if ok && p.contentHash == contentHash {
		glog.V(1).Infof("contents match, not recompiling %q", name)
		return nil
	}

	obj, err := r.compile(ctx, name, contentHash, &buf)
	if err != nil {
		ProgLoadErrors.Add(name, 1)
		return errors.Errorf("compile failed for %s:\n%s", name, err)
	}
	if obj == nil {
		ProgLoadErrors.Add(name, 1)
		return errors.Errorf("internal error: compilation failed for %s: no program returned, but no errors", name)
	}
	if r.dumpTAC {
		glog.Infof("%s three address code:\n%s", name, obj.TAC())
	}
	if r.dumpMepa {
		glog.Infof("%s MEPA:\n%s", name, obj.Mepa())
	}
	if err := r.writeArtifacts(obj); err != nil {
		ProgLoadErrors.Add(name, 1)
		return err
	}

	ProgLoads.Add(name, 1)
	glog.Infof("Loaded program %s", name)

	if r.compileOnly {
		return nil
	}
	r.programMu.Lock()
	r.programs[name] = &program{contentHash: contentHash, obj: obj}
	r.programMu.Unlock()
	return nil
}

// compile returns the object for the source, from the cache when the same
// contents were compiled before.
func (r *Runtime) compile(ctx context.Context, name string, contentHash uint64, src io.Reader) (*code.Object, error) {
	r.cacheMu.Lock()
	cached, ok := r.cache.Get(contentHash)
	r.cacheMu.Unlock()
	if ok {
		ProgCacheHits.Add(name, 1)
		glog.V(1).Infof("cache hit for %q", name)
		obj := *cached.(*code.Object)
		obj.Name = name
		return &obj, nil
	}
	obj, err := r.c.Compile(ctx, name, src)
	if err != nil {
		return nil, err
	}
	if obj != nil {
		r.cacheMu.Lock()
		r.cache.Add(contentHash, obj)
		r.cacheMu.Unlock()
	}
	return obj, nil
}

// writeArtifacts writes the three address code and MEPA text of obj as
// <base>.tac and <base>.mepa in the output directory, if one is set.
func (r *Runtime) writeArtifacts(obj *code.Object) error {
	if r.outputPath == "" {
		return nil
	}
	if err := r.fs.MkdirAll(r.outputPath, 0o755); err != nil {
		return errors.Wrapf(err, "failed to create output directory %q", r.outputPath)
	}
	base := filepath.Join(r.outputPath, strings.TrimSuffix(obj.Name, fileExt))
	if err := afero.WriteFile(r.fs, base+".tac", []byte(obj.TAC()), 0o644); err != nil {
		return errors.Wrapf(err, "failed to write %s.tac", base)
	}
	if err := afero.WriteFile(r.fs, base+".mepa", []byte(obj.Mepa()+"\n"), 0o644); err != nil {
		return errors.Wrapf(err, "failed to write %s.mepa", base)
	}
	return nil
}

type program struct {
	contentHash uint64
	obj         *code.Object
	runErr      error // error from the last run, if any
}

// Runtime handles the lifecycle of programs, by watching the configured
// program source directory and compiling changes to programs.
type Runtime struct {
	fs  afero.Fs              // filesystem programs are read from and artifacts written to
	reg prometheus.Registerer // place to register metrics

	cOpts []compiler.Option // options for constructing `c`
	c     *compiler.Compiler

	programPath string // Path that contains programs.
	outputPath  string // Directory artifacts are written to, if set.

	programMu sync.RWMutex        // guards accesses to programs
	programs  map[string]*program // map of program names to compiled programs

	programErrorMu sync.RWMutex     // guards access to programErrors
	programErrors  map[string]error // errors from the last compile attempt of the program

	cacheMu   sync.Mutex // guards cache
	cache     *lru.Cache // content hash to compiled object
	cacheSize int

	w watcher.Watcher // optional source of program change events

	compileOnly bool // Only compile programs and report errors, do not keep them loaded.
	errorsAbort bool // Compiler errors abort the loader.
	dumpTAC     bool // Log the three address code of each compiled program.
	dumpMepa    bool // Log the MEPA code of each compiled program.
	maxSteps    int  // Step limit for runs, zero for the VM default.

	signalQuit chan struct{} // When closed stops the signal handler goroutine.
	wg         sync.WaitGroup
	closeOnce  sync.Once
}

// New creates a new program loader that reads programs from programPath,
// and loads them all before returning.
func New(programPath string, options ...Option) (*Runtime, error) {
	r := &Runtime{
		fs:            afero.NewOsFs(),
		programPath:   programPath,
		programs:      make(map[string]*program),
		programErrors: make(map[string]error),
		cacheSize:     defaultCacheSize,
		signalQuit:    make(chan struct{}),
	}
	var err error
	if err = r.SetOption(options...); err != nil {
		return nil, err
	}
	if r.c, err = compiler.New(r.cOpts...); err != nil {
		return nil, err
	}
	r.cache = lru.New(r.cacheSize)
	if r.programPath == "" {
		glog.Info("No program path specified, no programs will be loaded.")
		return r, nil
	}
	if err := r.LoadAllPrograms(); err != nil {
		return nil, err
	}
	if r.w != nil {
		if err := r.w.Observe(r.programPath, r); err != nil {
			return nil, err
		}
	}
	if r.compileOnly {
		return r, nil
	}

	// Create one goroutine that handles reload signals.
	n := make(chan os.Signal, 1)
	signal.Notify(n, syscall.SIGHUP)
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer signal.Stop(n)
		for {
			select {
			case <-r.signalQuit:
				return
			case <-n:
				if err := r.LoadAllPrograms(); err != nil {
					glog.Info(err)
				}
			}
		}
	}()
	return r, nil
}

// SetOption takes one or more option functions and applies them in order to Runtime.
func (r *Runtime) SetOption(options ...Option) error {
	for _, option := range options {
		if err := option(r); err != nil {
			return err
		}
	}
	return nil
}

// Close stops watching the program directory and the reload signal handler.
func (r *Runtime) Close() error {
	var err error
	r.closeOnce.Do(func() {
		close(r.signalQuit)
		r.wg.Wait()
		if r.w != nil && r.programPath != "" {
			err = r.w.Unobserve(r.programPath, r)
		}
	})
	return err
}

// ProcessFileEvent implements watcher.Processor, reloading programs as their
// files change.
func (r *Runtime) ProcessFileEvent(ctx context.Context, event watcher.Event) {
	glog.V(1).Infof("Program event %s %s", event.Op, event.Pathname)
	switch event.Op {
	case watcher.Create, watcher.Update:
		if err := r.LoadProgram(event.Pathname); err != nil {
			glog.Warning(err)
		}
	case watcher.Delete:
		r.UnloadProgram(event.Pathname)
	}
}

// UnloadProgram removes the named program.  The last compile errors of the
// program are forgotten too.
func (r *Runtime) UnloadProgram(pathname string) {
	name := filepath.Base(pathname)
	r.programErrorMu.Lock()
	delete(r.programErrors, name)
	r.programErrorMu.Unlock()
	r.programMu.Lock()
	defer r.programMu.Unlock()
	if _, ok := r.programs[name]; !ok {
		return
	}
	delete(r.programs, name)
	ProgUnloads.Add(name, 1)
}

// Program returns the compiled object of the named program.
func (r *Runtime) Program(name string) (*code.Object, bool) {
	r.programMu.RLock()
	defer r.programMu.RUnlock()
	p, ok := r.programs[name]
	if !ok {
		return nil, false
	}
	return p.obj, true
}

// Programs returns the names of the loaded programs in order.
func (r *Runtime) Programs() []string {
	r.programMu.RLock()
	defer r.programMu.RUnlock()
	names := make([]string, 0, len(r.programs))
	for name := range r.programs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ProgramError returns the error of the last compile attempt of the named
// program, nil if it compiled.
func (r *Runtime) ProgramError(name string) error {
	r.programErrorMu.RLock()
	defer r.programErrorMu.RUnlock()
	return r.programErrors[name]
}

// RunProgram executes the MEPA code of the named program on a fresh virtual
// machine, reading integers from in and writing to out.
func (r *Runtime) RunProgram(ctx context.Context, name string, in io.Reader, out io.Writer) error {
	r.programMu.RLock()
	p, ok := r.programs[name]
	r.programMu.RUnlock()
	if !ok {
		return errors.Errorf("no program %q loaded", name)
	}
	opts := []vm.Option{vm.Input(in), vm.Output(out)}
	if r.maxSteps > 0 {
		opts = append(opts, vm.MaxSteps(r.maxSteps))
	}
	v, err := vm.New(name, p.obj.Instrs, opts...)
	if err != nil {
		return err
	}
	err = v.Run(ctx)
	r.programMu.Lock()
	p.runErr = err
	r.programMu.Unlock()
	return err
}
