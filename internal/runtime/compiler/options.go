// Copyright 2021 Google Inc. All Rights Reserved.
// This file is available under the Apache license.

package compiler

import "github.com/pkg/errors"

// Option configures a new Compiler.
type Option func(*Compiler) error

// EmitAst emits the AST after the parse phase.
func EmitAst() Option {
	return func(c *Compiler) error {
		c.emitAst = true
		return nil
	}
}

// EmitAstTypes emits the AST with types after the type checking phase.
func EmitAstTypes() Option {
	return func(c *Compiler) error {
		c.emitAstTypes = true
		return nil
	}
}

// EmitLayout emits the symbol table and storage layout after layout.
func EmitLayout() Option {
	return func(c *Compiler) error {
		c.emitLayout = true
		return nil
	}
}

// MaxRecursionDepth sets the maximum nesting depth of expressions and
// statements the checker accepts.
func MaxRecursionDepth(depth int) Option {
	return func(c *Compiler) error {
		if depth < 0 {
			return errors.Errorf("invalid maximum recursion depth %d", depth)
		}
		c.maxRecursionDepth = depth
		return nil
	}
}
