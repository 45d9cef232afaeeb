// Package ast defines the sibling-linked tree the parser produces and the
// code generator consumes.
package ast

import (
	"fmt"
	"io"
	"strings"

	"github.com/casm-lang/casmc/pkg/token"
)

// NodeKind defines the kind of a node in the AST
type NodeKind int

// Node kinds enum
const (
	// Statements
	Move NodeKind = iota
	Add
	Sub
	Compare
	Jump
	JumpEqual
	JumpNotEqual
	Return
	Call
	SysCall

	// Structure
	Label
	Block

	// Operands
	Number
	Identifier
	LabelRef
	String
	StrLen
)

var kindNames = map[NodeKind]string{
	Move:         "move",
	Add:          "add",
	Sub:          "sub",
	Compare:      "compare",
	Jump:         "jump",
	JumpEqual:    "jump_equal",
	JumpNotEqual: "jump_not_equal",
	Return:       "return",
	Call:         "call",
	SysCall:      "sys_call",
	Label:        "label",
	Block:        "block",
	Number:       "number",
	Identifier:   "identifier",
	LabelRef:     "label-ref",
	String:       "string",
	StrLen:       "strlen",
}

func (k NodeKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Node is one vertex of the tree. Left and Right hold operands or children,
// Next chains siblings, Prev is the backward sibling link the generator
// re-establishes before any backward search.
type Node struct {
	Kind  NodeKind
	Text  string
	Tok   token.Token
	Left  *Node
	Right *Node
	Next  *Node
	Prev  *Node
}

// --- Node Constructors ---

func newNode(kind NodeKind, text string, tok token.Token, left, right *Node) *Node {
	return &Node{Kind: kind, Text: text, Tok: tok, Left: left, Right: right}
}

func NewLabel(tok token.Token, name string, block *Node) *Node {
	return newNode(Label, name, tok, block, nil)
}
func NewBlock(tok token.Token, first *Node) *Node {
	return newNode(Block, "{", tok, first, nil)
}
func NewMove(tok token.Token, dst, src *Node) *Node {
	return newNode(Move, "move", tok, dst, src)
}
func NewAdd(tok token.Token, dst, src *Node) *Node {
	return newNode(Add, "add", tok, dst, src)
}
func NewSub(tok token.Token, dst, src *Node) *Node {
	return newNode(Sub, "sub", tok, dst, src)
}
func NewCompare(tok token.Token, dst, src *Node) *Node {
	return newNode(Compare, "compare", tok, dst, src)
}
func NewJump(tok token.Token, target *Node) *Node {
	return newNode(Jump, "jump", tok, target, nil)
}
func NewJumpEqual(tok token.Token, target *Node) *Node {
	return newNode(JumpEqual, "jump_equal", tok, target, nil)
}
func NewJumpNotEqual(tok token.Token, target *Node) *Node {
	return newNode(JumpNotEqual, "jump_not_equal", tok, target, nil)
}
func NewReturn(tok token.Token) *Node {
	return newNode(Return, "return", tok, nil, nil)
}
func NewCall(tok token.Token, callee *Node) *Node {
	return newNode(Call, "call", tok, callee, nil)
}
func NewSysCall(tok token.Token, firstParam *Node) *Node {
	return newNode(SysCall, "sys_call", tok, firstParam, nil)
}
func NewNumber(tok token.Token, text string) *Node {
	return newNode(Number, text, tok, nil, nil)
}
func NewIdent(tok token.Token, name string) *Node {
	return newNode(Identifier, name, tok, nil, nil)
}
func NewLabelRef(tok token.Token, name string) *Node {
	return newNode(LabelRef, name, tok, nil, nil)
}
func NewString(tok token.Token, text string) *Node {
	return newNode(String, text, tok, nil, nil)
}
func NewStrLen(tok token.Token) *Node {
	return newNode(StrLen, "&strlen&", tok, nil, nil)
}

// ConnectPrev establishes the backward sibling links across the top-level
// chain and within each function block's direct statement chain.
func ConnectPrev(head *Node) {
	var prev *Node
	for node := head; node != nil; node = node.Next {
		node.Prev = prev
		if node.Kind == Label && node.Left != nil && node.Left.Kind == Block {
			var stmtPrev *Node
			for stmt := node.Left.Left; stmt != nil; stmt = stmt.Next {
				stmt.Prev = stmtPrev
				stmtPrev = stmt
			}
		}
		prev = node
	}
}

// Fprint writes an indented dump of the tree, one node per line.
func Fprint(w io.Writer, node *Node, indent int) {
	if node == nil {
		return
	}
	fmt.Fprintf(w, "%s%s (%s)\n", strings.Repeat("  ", indent), node.Text, node.Kind)
	Fprint(w, node.Left, indent+1)
	Fprint(w, node.Right, indent+1)
	Fprint(w, node.Next, indent)
}
