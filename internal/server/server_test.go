// Copyright 2019 Google Inc. All Rights Reserved.
// This file is available under the Apache license.

package server

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/mafetri/pascalc/internal/testutil"
	"github.com/mafetri/pascalc/internal/watcher"
)

const testProgram = `program answer;
var x: integer;
begin
  x := 6 * 7;
  write(x)
end.
`

func writeProgram(t *testing.T, dir, name, src string) {
	t.Helper()
	testutil.FatalIfErr(t, os.WriteFile(filepath.Join(dir, name), []byte(src), 0o644))
}

func makeServer(t *testing.T, options ...Option) *Server {
	t.Helper()
	progDir := t.TempDir()
	writeProgram(t, progDir, "answer.pas", testProgram)
	port := strconv.Itoa(testutil.FreePort(t))
	options = append([]Option{ProgramPath(progDir), BindAddress("127.0.0.1", port)}, options...)
	m, err := New(context.Background(), watcher.NewFakeWatcher(), options...)
	testutil.FatalIfErr(t, err)
	return m
}

func TestBuildInfo(t *testing.T) {
	b := BuildInfo{Branch: "main", Version: "1.0", Revision: "abc"}
	s := b.String()
	if !strings.HasPrefix(s, "pascalc version 1.0 git revision abc go version ") {
		t.Errorf("unexpected build info %q", s)
	}
}

func TestStatusPage(t *testing.T) {
	m := makeServer(t, SetBuildInfo(BuildInfo{Version: "test"}))
	defer func() { testutil.FatalIfErr(t, m.Close(true)) }()

	resp := httptest.NewRecorder()
	m.ServeHTTP(resp, httptest.NewRequest("GET", "/", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("status code %d", resp.Code)
	}
	body := resp.Body.String()
	for _, want := range []string{
		"pascalc on " + m.Addr(),
		"pascalc version test",
		`<a href="/progz?prog=answer.pas">answer.pas</a>`,
		"No compile errors",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("status page missing %q:\n%s", want, body)
		}
	}

	resp = httptest.NewRecorder()
	m.ServeHTTP(resp, httptest.NewRequest("GET", "/nope", nil))
	if resp.Code != http.StatusNotFound {
		t.Errorf("status code %d for unknown path", resp.Code)
	}
}

func TestServeAndQuit(t *testing.T) {
	testutil.SkipIfShort(t)
	m := makeServer(t, SetBuildInfo(BuildInfo{Version: "test"}))

	errc := make(chan error, 1)
	go func() {
		errc <- m.Run()
	}()

	base := "http://" + m.Addr()
	var metrics string
	ok, err := testutil.DoOrTimeout(func() (bool, error) {
		resp, err := http.Get(base + "/metrics")
		if err != nil {
			return false, nil
		}
		defer resp.Body.Close()
		b, err := io.ReadAll(resp.Body)
		if err != nil {
			return false, err
		}
		metrics = string(b)
		return resp.StatusCode == http.StatusOK, nil
	}, 10*time.Second, 50*time.Millisecond)
	testutil.FatalIfErr(t, err)
	if !ok {
		t.Fatal("server never answered /metrics")
	}
	for _, want := range []string{
		"pascalc_build_info",
		`pascalc_prog_loads_total{prog="answer.pas"}`,
		"pascalc_loader_programs 1",
	} {
		if !strings.Contains(metrics, want) {
			t.Errorf("metrics missing %q", want)
		}
	}

	resp, err := http.Get(base + "/progz?prog=answer.pas&run=1")
	testutil.FatalIfErr(t, err)
	b, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	testutil.FatalIfErr(t, err)
	if !strings.Contains(string(b), "42") {
		t.Errorf("run output missing 42:\n%s", b)
	}

	resp, err = http.Get(base + "/quitquitquit")
	testutil.FatalIfErr(t, err)
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("GET /quitquitquit status %d", resp.StatusCode)
	}

	resp, err = http.Post(base+"/quitquitquit", "text/plain", nil)
	testutil.FatalIfErr(t, err)
	resp.Body.Close()

	select {
	case err := <-errc:
		testutil.FatalIfErr(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestCompileOnly(t *testing.T) {
	outDir := t.TempDir()
	progDir := t.TempDir()
	writeProgram(t, progDir, "answer.pas", testProgram)
	m, err := New(context.Background(), nil, ProgramPath(progDir), OutputPath(outDir), CompileOnly, DumpAst, DumpAstTypes, DumpLayout, DumpTAC, DumpMepa)
	testutil.FatalIfErr(t, err)
	testutil.FatalIfErr(t, m.Run())

	for _, name := range []string{"answer.tac", "answer.mepa"} {
		if _, err := os.Stat(filepath.Join(outDir, name)); err != nil {
			t.Errorf("artifact %s: %s", name, err)
		}
	}
	if len(m.Runtime().Programs()) != 0 {
		t.Errorf("compile-only kept programs loaded: %v", m.Runtime().Programs())
	}
	if m.Addr() != "none" {
		t.Errorf("unexpected address %q", m.Addr())
	}
}

func TestCompileOnlyErrors(t *testing.T) {
	progDir := t.TempDir()
	writeProgram(t, progDir, "bad.pas", "program bad;\nbegin\n  y := 1\nend.\n")
	_, err := New(context.Background(), nil, ProgramPath(progDir), CompileOnly)
	if err == nil {
		t.Fatal("expected compile error")
	}
	if !strings.Contains(err.Error(), "not declared") {
		t.Errorf("unexpected error %q", err)
	}
}

func TestOptionErrors(t *testing.T) {
	for _, opt := range []Option{MaxRecursionDepth(-1), MaxSteps(-1)} {
		if _, err := New(context.Background(), nil, opt); err == nil {
			t.Errorf("expected error from %#v", opt)
		}
	}
}

func TestServeRequiresAddress(t *testing.T) {
	m, err := New(context.Background(), nil, MaxSteps(10), MaxRecursionDepth(10))
	testutil.FatalIfErr(t, err)
	if err := m.Serve(); err == nil {
		t.Error("expected error serving without a bind address")
	}
	testutil.FatalIfErr(t, m.Close(true))
}
