// Package diag carries structured compiler diagnostics and renders them with
// source context. Components either print through a Reporter as they go or
// collect Diagnostic values and hand them to the caller for printing.
package diag

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/xyproto/env/v2"
	"golang.org/x/term"

	"github.com/casm-lang/casmc/pkg/config"
	"github.com/casm-lang/casmc/pkg/token"
)

type Severity int

const (
	SevWarning Severity = iota
	SevError
)

func (s Severity) String() string {
	if s == SevError {
		return "error"
	}
	return "warning"
}

// Diagnostic is a single reported condition. Flag is the warning's flag name
// (empty for errors) and is shown as a [-W<flag>] suffix.
type Diagnostic struct {
	Sev  Severity
	Tok  token.Token
	Msg  string
	Flag string
}

func (d Diagnostic) String() string {
	if d.Sev == SevWarning && d.Flag != "" {
		return fmt.Sprintf("%s: %s [-W%s]", d.Sev, d.Msg, d.Flag)
	}
	return fmt.Sprintf("%s: %s", d.Sev, d.Msg)
}

// SourceFileRecord tracks the name and content of a single source file.
type SourceFileRecord struct {
	Name    string
	Content []rune
}

// Reporter renders diagnostics with file:line:column locations and caret
// context lines. It never exits; callers check ErrorCount.
type Reporter struct {
	files  []SourceFileRecord
	out    io.Writer
	color  bool
	errors int
}

func New(out io.Writer, color bool) *Reporter {
	return &Reporter{out: out, color: color}
}

// ColorEnabled reports whether ANSI color should be used on the given stream.
func ColorEnabled(f *os.File) bool {
	return term.IsTerminal(int(f.Fd())) && !env.Bool("NO_COLOR")
}

// SetSourceFiles stores the source code for all input files for rich error messages
func (r *Reporter) SetSourceFiles(files []SourceFileRecord) {
	r.files = files
}

func (r *Reporter) ErrorCount() int { return r.errors }

func (r *Reporter) Errorf(tok token.Token, format string, args ...interface{}) {
	r.Emit(Diagnostic{Sev: SevError, Tok: tok, Msg: fmt.Sprintf(format, args...)})
}

// Warnf reports a warning if it is enabled in the configuration.
func (r *Reporter) Warnf(cfg *config.Config, wt config.Warning, tok token.Token, format string, args ...interface{}) {
	if !cfg.IsWarningEnabled(wt) {
		return
	}
	r.Emit(Diagnostic{Sev: SevWarning, Tok: tok, Msg: fmt.Sprintf(format, args...), Flag: cfg.WarningName(wt)})
}

// Emit renders one diagnostic, collected or immediate.
func (r *Reporter) Emit(d Diagnostic) {
	if d.Sev == SevError {
		r.errors++
	}

	filename, line, col := r.findFileAndLine(d.Tok)
	label := d.Sev.String() + ":"
	if r.color {
		if d.Sev == SevError {
			label = "\033[31merror:\033[0m"
		} else {
			label = "\033[33mwarning:\033[0m"
		}
	}
	fmt.Fprintf(r.out, "%s:%d:%d: %s %s", filename, line, col, label, d.Msg)
	if d.Sev == SevWarning && d.Flag != "" {
		fmt.Fprintf(r.out, " [-W%s]", d.Flag)
	}
	fmt.Fprintln(r.out)
	r.printContextLine(d.Tok)
}

// EmitAll renders a batch of collected diagnostics in order.
func (r *Reporter) EmitAll(diags []Diagnostic) {
	for _, d := range diags {
		r.Emit(d)
	}
}

// findFileAndLine converts a global token to a file-specific location
func (r *Reporter) findFileAndLine(tok token.Token) (filename string, line, col int) {
	if tok.FileIndex < 0 || tok.FileIndex >= len(r.files) {
		return "unknown", tok.Line, tok.Column
	}
	return r.files[tok.FileIndex].Name, tok.Line, tok.Column
}

// printContextLine prints the source line and a caret indicating the position
func (r *Reporter) printContextLine(tok token.Token) {
	if tok.FileIndex < 0 || tok.FileIndex >= len(r.files) || tok.Line == 0 {
		return
	}

	content := r.files[tok.FileIndex].Content
	lineNum := tok.Line
	lineStart := 0
	for i, ch := range content {
		if lineNum <= 1 {
			break
		}
		if ch == '\n' {
			lineNum--
			lineStart = i + 1
		}
	}

	lineEnd := len(content)
	for i := lineStart; i < len(content); i++ {
		if content[i] == '\n' {
			lineEnd = i
			break
		}
	}

	fmt.Fprintf(r.out, "  %s\n", string(content[lineStart:lineEnd]))

	caret := "^"
	if tok.Len > 1 {
		caret += strings.Repeat("~", tok.Len-1)
	}
	if r.color {
		caret = "\033[32m" + caret + "\033[0m"
	}
	fmt.Fprintf(r.out, "  %s%s\n", strings.Repeat(" ", tok.Column-1), caret)
}
