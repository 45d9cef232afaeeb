package codegen

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/casm-lang/casmc/pkg/ast"
	"github.com/casm-lang/casmc/pkg/config"
)

// syscallRegisters is the fixed marshalling order for sys_call
// parameters on the 32-bit target.
var syscallRegisters = [7]string{"eax", "ebx", "ecx", "edx", "esi", "edi", "ebp"}

// operandKind returns the node's kind after overlay resolution.
func (c *Context) operandKind(node *ast.Node) ast.NodeKind {
	if op, ok := c.resolved[node]; ok {
		return op.kind
	}
	return node.Kind
}

// operandText renders an operand: the overlay wins, identifiers pass
// through the register translator, everything else emits verbatim.
func (c *Context) operandText(node *ast.Node) string {
	if op, ok := c.resolved[node]; ok {
		return op.text
	}
	if node.Kind == ast.Identifier {
		return TranslateRegister(node.Text)
	}
	return node.Text
}

// emitFunction writes one function: name line, body, epilogue, and a
// trailing blank line.
func (c *Context) emitFunction(buf *bytes.Buffer, fn *ast.Node) {
	fmt.Fprintf(buf, "%s:\n", fn.Text)
	if fn.Left != nil && fn.Left.Kind == ast.Block {
		for stmt := fn.Left.Left; stmt != nil; stmt = stmt.Next {
			c.emitStatement(buf, stmt, fn.Text)
		}
	}
	c.emitEpilogue(buf, fn.Text)
	buf.WriteByte('\n')
}

// emitEpilogue closes the fallthrough path of a function body. main
// exits; any other function jumps back through the first unconsumed
// inbound call edge, or plainly returns when there is none.
func (c *Context) emitEpilogue(buf *bytes.Buffer, fnName string) {
	if fnName == "main" {
		buf.WriteString("    jmp _exit\n")
		return
	}
	if label, ok := c.consumeReturnEdge(fnName); ok {
		fmt.Fprintf(buf, "    jmp %s\n", label)
		return
	}
	buf.WriteString("    ret\n")
}

func (c *Context) emitStatement(buf *bytes.Buffer, stmt *ast.Node, fnName string) {
	switch stmt.Kind {
	case ast.Move:
		c.emitMove(buf, stmt)
	case ast.Add:
		c.emitArith(buf, "add", stmt)
	case ast.Sub:
		c.emitArith(buf, "sub", stmt)
	case ast.Compare:
		c.emitArith(buf, "cmp", stmt)
	case ast.Jump:
		c.emitJump(buf, "jmp", stmt)
	case ast.JumpEqual:
		c.emitJump(buf, "je", stmt)
	case ast.JumpNotEqual:
		c.emitJump(buf, "jne", stmt)
	case ast.Return:
		if fnName == "main" {
			buf.WriteString("    jmp _exit\n")
		} else {
			buf.WriteString("    ret\n")
		}
	case ast.Call:
		c.emitCall(buf, stmt, fnName)
	case ast.SysCall:
		c.emitSysCall(buf, stmt)
	default:
		c.warnf(stmt.Tok, config.WarnUnknownNode, "unknown AST node kind %s, skipping", stmt.Kind)
	}
}

func (c *Context) emitMove(buf *bytes.Buffer, stmt *ast.Node) {
	if stmt.Left == nil || stmt.Right == nil {
		return
	}
	if c.operandKind(stmt.Right) == ast.StrLen {
		length, ok := c.resolveMoveStrLen(stmt)
		if !ok {
			c.warnf(stmt.Right.Tok, config.WarnStrlenMiss, "no string found for string length token, defaulting to length 0")
		}
		c.resolved[stmt.Right] = operand{kind: ast.Number, text: strconv.Itoa(length)}
	}
	fmt.Fprintf(buf, "    mov %s, %s\n", c.operandText(stmt.Left), c.operandText(stmt.Right))
}

func (c *Context) emitArith(buf *bytes.Buffer, op string, stmt *ast.Node) {
	if stmt.Left == nil || stmt.Right == nil {
		return
	}
	fmt.Fprintf(buf, "    %s %s, %s\n", op, c.operandText(stmt.Left), c.operandText(stmt.Right))
}

func (c *Context) emitJump(buf *bytes.Buffer, op string, stmt *ast.Node) {
	if stmt.Left == nil {
		return
	}
	fmt.Fprintf(buf, "    %s %s\n", op, stmt.Left.Text)
}

// emitCall lowers a call into a jump to the callee followed by the
// landing label execution comes back to. The callee's epilogue supplies
// the matching jump through the registered edge.
func (c *Context) emitCall(buf *bytes.Buffer, stmt *ast.Node, fnName string) {
	if stmt.Left == nil {
		return
	}
	callee := stmt.Left.Text
	fmt.Fprintf(buf, "    jmp %s\n", callee)
	if edge := c.findEdge(fnName, callee); edge != nil {
		fmt.Fprintf(buf, "%s:\n", edge.returnLabel)
	}
}

// emitSysCall marshals up to seven parameters into the fixed register
// sequence, in parameter order, then issues the interrupt.
func (c *Context) emitSysCall(buf *bytes.Buffer, stmt *ast.Node) {
	var params []*ast.Node
	for param := stmt.Left; param != nil; param = param.Next {
		params = append(params, param)
	}
	if len(params) > len(syscallRegisters) {
		c.warnf(stmt.Tok, config.WarnSyscallArity, "sys_call takes at most %d parameters, ignoring the rest", len(syscallRegisters))
		params = params[:len(syscallRegisters)]
	}

	for i, param := range params {
		if c.operandKind(param) != ast.StrLen {
			continue
		}
		length, ok := c.resolveParamStrLen(params, i)
		if !ok {
			c.warnf(param.Tok, config.WarnStrlenMiss, "no string found for string length token, defaulting to length 0")
		}
		c.resolved[param] = operand{kind: ast.Number, text: strconv.Itoa(length)}
	}

	for i, param := range params {
		fmt.Fprintf(buf, "    mov %s, %s\n", syscallRegisters[i], c.operandText(param))
	}
	buf.WriteString("    int 0x80\n")
}

// resolveMoveStrLen walks backward along Prev for the nearest earlier
// statement carrying a string: a move whose source is a string, or a
// sys_call with a string parameter. This is textual proximity, not
// data-flow analysis; interleaved strings can and do win over the one
// the author meant.
func (c *Context) resolveMoveStrLen(stmt *ast.Node) (int, bool) {
	for n := stmt.Prev; n != nil; n = n.Prev {
		switch n.Kind {
		case ast.Move:
			if length, ok := c.candidateLength(n.Right); ok {
				return length, true
			}
		case ast.SysCall:
			for param := n.Left; param != nil; param = param.Next {
				if length, ok := c.candidateLength(param); ok {
					return length, true
				}
			}
		}
	}
	return 0, false
}

// resolveParamStrLen searches the nearest earlier parameter of the same
// call for a string.
func (c *Context) resolveParamStrLen(params []*ast.Node, i int) (int, bool) {
	for j := i - 1; j >= 0; j-- {
		if length, ok := c.candidateLength(params[j]); ok {
			return length, true
		}
	}
	return 0, false
}

// candidateLength reports whether node can satisfy a strlen lookup and
// with what byte length. Raw strings measure directly; label references
// count only when they name a string-table entry.
func (c *Context) candidateLength(node *ast.Node) (int, bool) {
	if node == nil {
		return 0, false
	}
	kind, text := node.Kind, node.Text
	if op, ok := c.resolved[node]; ok {
		kind, text = op.kind, op.text
	}
	switch kind {
	case ast.String:
		return calculateStringLength(text), true
	case ast.LabelRef:
		if entry, ok := c.lookupString(text); ok {
			return entry.length, true
		}
	}
	return 0, false
}
