package codegen

import (
	"bytes"
	"fmt"

	"github.com/casm-lang/casmc/pkg/ast"
)

// stringEntry is one interned string literal. Every occurrence gets its
// own entry and label, even when the text repeats.
type stringEntry struct {
	label   string
	length  int    // byte length with quotes stripped and escapes folded
	literal string // raw literal text, quotes and escapes included
}

func isQuotedString(s string) bool {
	return len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"'
}

// calculateStringLength measures the byte length of a string literal. A
// backslash escape pair counts as one byte; text without surrounding
// quotes measures at full length.
func calculateStringLength(s string) int {
	if !isQuotedString(s) {
		return len(s)
	}
	length := 0
	for i := 1; i < len(s)-1; {
		if s[i] == '\\' {
			i++
			if i < len(s)-1 {
				length++
				i++
			}
		} else {
			length++
			i++
		}
	}
	return length
}

func (c *Context) internString(literal string) stringEntry {
	entry := stringEntry{
		label:   fmt.Sprintf("str_%d", len(c.strings)),
		length:  calculateStringLength(literal),
		literal: literal,
	}
	c.strings = append(c.strings, entry)
	return entry
}

func (c *Context) lookupString(label string) (stringEntry, bool) {
	for _, entry := range c.strings {
		if entry.label == label {
			return entry, true
		}
	}
	return stringEntry{}, false
}

// emitDataSection interns every quoted string literal used as a move
// source or sys_call parameter, in scan order across all function
// blocks, and writes the .data section. The resolved label for each
// occurrence is recorded in the overlay so later passes never see raw
// string text.
func (c *Context) emitDataSection(buf *bytes.Buffer, prog *ast.Node) {
	buf.WriteString("section .data\n")
	for fn := prog; fn != nil; fn = fn.Next {
		if fn.Kind != ast.Label || fn.Left == nil || fn.Left.Kind != ast.Block {
			continue
		}
		for stmt := fn.Left.Left; stmt != nil; stmt = stmt.Next {
			switch stmt.Kind {
			case ast.Move:
				c.internOperand(buf, stmt.Right)
			case ast.SysCall:
				for param := stmt.Left; param != nil; param = param.Next {
					c.internOperand(buf, param)
				}
			}
		}
	}
	buf.WriteByte('\n')
}

func (c *Context) internOperand(buf *bytes.Buffer, node *ast.Node) {
	if node == nil || node.Kind != ast.String || !isQuotedString(node.Text) {
		return
	}
	entry := c.internString(node.Text)
	fmt.Fprintf(buf, "    %s db %s, 0\n", entry.label, entry.literal)
	c.resolved[node] = operand{kind: ast.LabelRef, text: entry.label}
}
