package codegen

import (
	"bytes"
	"fmt"

	"github.com/casm-lang/casmc/pkg/ast"
	"github.com/casm-lang/casmc/pkg/config"
	"github.com/casm-lang/casmc/pkg/diag"
	"github.com/casm-lang/casmc/pkg/token"
)

// operand is a resolved operand value. Resolution never rewrites the
// AST; resolved values live in the context's overlay keyed by node, so
// regenerating from the same tree stays byte-identical.
type operand struct {
	kind ast.NodeKind // ast.LabelRef or ast.Number
	text string
}

// Context carries all state for one generation run: the string table,
// the call graph, the resolved-operand overlay and the diagnostics
// collected along the way. Contexts are never reused across runs.
type Context struct {
	cfg      *config.Config
	strings  []stringEntry
	edges    []callEdge
	resolved map[*ast.Node]operand
	diags    []diag.Diagnostic
}

func NewContext(cfg *config.Config) *Context {
	return &Context{
		cfg:      cfg,
		resolved: make(map[*ast.Node]operand),
	}
}

// Diagnostics returns the diagnostics collected during generation, in
// emission order. The caller decides how to print them.
func (c *Context) Diagnostics() []diag.Diagnostic { return c.diags }

func (c *Context) warnf(tok token.Token, wt config.Warning, format string, args ...interface{}) {
	if !c.cfg.IsWarningEnabled(wt) {
		return
	}
	c.diags = append(c.diags, diag.Diagnostic{
		Sev:  diag.SevWarning,
		Tok:  tok,
		Msg:  fmt.Sprintf(format, args...),
		Flag: c.cfg.WarningName(wt),
	})
}

// Generate assembles the NASM program for prog. The skeleton is fixed:
// data section, text header, exit stub, the _start jump when a main
// function exists, one body per function in scan order, and a fallback
// _start when no main was found. Abnormal input degrades to warning
// diagnostics and substitute values; generation itself never fails.
func (c *Context) Generate(prog *ast.Node) *bytes.Buffer {
	buf := &bytes.Buffer{}

	// Backward searches rely on Prev links the producer does not
	// guarantee; establish them before either pass.
	ast.ConnectPrev(prog)

	c.registerCallEdges(prog)
	c.emitDataSection(buf, prog)

	buf.WriteString("section .text\n")
	buf.WriteString("global _start\n\n")

	buf.WriteString("_exit:\n")
	buf.WriteString("    mov eax, 1      ; exit system call\n")
	buf.WriteString("    xor ebx, ebx    ; exit code 0\n")
	buf.WriteString("    int 0x80        ; call kernel\n\n")

	foundMain := false
	for fn := prog; fn != nil; fn = fn.Next {
		if fn.Kind == ast.Label && fn.Text == "main" {
			foundMain = true
			break
		}
	}
	if foundMain {
		buf.WriteString("_start:\n")
		buf.WriteString("    jmp main     ; Call the main function\n\n")
	}

	for fn := prog; fn != nil; fn = fn.Next {
		if fn.Kind != ast.Label {
			continue
		}
		c.emitFunction(buf, fn)
	}

	if !foundMain {
		buf.WriteString("_start:\n")
		buf.WriteString("    ; No main function found, exiting directly\n")
		buf.WriteString("    jmp _exit\n")
	}

	return buf
}
