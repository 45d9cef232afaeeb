package codegen

import (
	"bytes"
	"fmt"

	"github.com/casm-lang/casmc/pkg/ast"
	"github.com/casm-lang/casmc/pkg/config"
	"github.com/casm-lang/casmc/pkg/diag"
)

// Backend is the interface that all code generation backends must implement.
type Backend interface {
	// Generate takes a parsed program and a configuration, and produces
	// the target assembly as a byte buffer plus the diagnostics
	// collected during the run.
	Generate(prog *ast.Node, cfg *config.Config) (*bytes.Buffer, []diag.Diagnostic, error)
}

// NewBackend selects the backend named by the configuration.
func NewBackend(cfg *config.Config) (Backend, error) {
	switch cfg.BackendName {
	case "nasm32":
		return nasmBackend{}, nil
	default:
		return nil, fmt.Errorf("unknown backend '%s'", cfg.BackendName)
	}
}

type nasmBackend struct{}

// Generate runs a fresh generation context over prog. State is
// run-scoped, so two invocations never interfere.
func (nasmBackend) Generate(prog *ast.Node, cfg *config.Config) (*bytes.Buffer, []diag.Diagnostic, error) {
	ctx := NewContext(cfg)
	buf := ctx.Generate(prog)
	return buf, ctx.Diagnostics(), nil
}
