// Copyright 2011 Google Inc. All Rights Reserved.
// This file is available under the Apache license.

package server

import (
	"fmt"
	"net"

	"contrib.go.opencensus.io/exporter/jaeger"
	"go.opencensus.io/trace"
)

// Option configures server.Server
type Option interface {
	apply(*Server) error
}

// ProgramPath sets the path to find programs in the Server.
type ProgramPath string

func (opt ProgramPath) apply(m *Server) error {
	m.programPath = string(opt)
	return nil
}

// OutputPath sets the directory that compiled artifacts are written to.
type OutputPath string

func (opt OutputPath) apply(m *Server) error {
	m.outputPath = string(opt)
	return nil
}

// BindAddress sets the HTTP server address in Server.
func BindAddress(address, port string) Option {
	return &bindAddress{address, port}
}

type bindAddress struct {
	address, port string
}

func (opt bindAddress) apply(m *Server) error {
	if m.listener != nil {
		return fmt.Errorf("HTTP server bind address already supplied")
	}
	m.bindAddress = net.JoinHostPort(opt.address, opt.port)
	var err error
	m.listener, err = net.Listen("tcp", m.bindAddress)
	return err
}

// SetBuildInfo sets the program build information in the Server.
type SetBuildInfo BuildInfo

func (opt SetBuildInfo) apply(m *Server) error {
	m.buildInfo = BuildInfo(opt)
	return nil
}

// MaxRecursionDepth bounds the nesting of statements and expressions accepted by the compiler.
type MaxRecursionDepth int

func (opt MaxRecursionDepth) apply(m *Server) error {
	if opt < 0 {
		return fmt.Errorf("max recursion depth must not be negative: %d", int(opt))
	}
	m.maxRecursionDepth = int(opt)
	return nil
}

// MaxSteps bounds the number of instructions a program run may execute.
type MaxSteps int

func (opt MaxSteps) apply(m *Server) error {
	if opt < 0 {
		return fmt.Errorf("max steps must not be negative: %d", int(opt))
	}
	m.maxSteps = int(opt)
	return nil
}

type niladicOption struct {
	applyfunc func(m *Server) error
}

func (n *niladicOption) apply(m *Server) error {
	return n.applyfunc(m)
}

// CompileOnly sets compile-only mode in the Server.
var CompileOnly = &niladicOption{
	func(m *Server) error {
		m.compileOnly = true
		return nil
	}}

// DumpAst instructs the Server's compiler to print the AST after parsing.
var DumpAst = &niladicOption{
	func(m *Server) error {
		m.dumpAst = true
		return nil
	}}

// DumpAstTypes instructs the Server's compiler to print the AST after type checking.
var DumpAstTypes = &niladicOption{
	func(m *Server) error {
		m.dumpAstTypes = true
		return nil
	}}

// DumpLayout instructs the Server's compiler to print the symbol table and frame layout.
var DumpLayout = &niladicOption{
	func(m *Server) error {
		m.dumpLayout = true
		return nil
	}}

// DumpTAC instructs the Server to print each program's three address code.
var DumpTAC = &niladicOption{
	func(m *Server) error {
		m.dumpTAC = true
		return nil
	}}

// DumpMepa instructs the Server to print each program's stack machine code.
var DumpMepa = &niladicOption{
	func(m *Server) error {
		m.dumpMepa = true
		return nil
	}}

// JaegerReporter creates a new jaeger reporter that sends to the given Jaeger endpoint address.
type JaegerReporter string

func (opt JaegerReporter) apply(m *Server) error {
	je, err := jaeger.NewExporter(jaeger.Options{
		CollectorEndpoint: string(opt),
		Process: jaeger.Process{
			ServiceName: "pascalc",
		},
	})
	if err != nil {
		return err
	}
	trace.RegisterExporter(je)
	return nil
}
