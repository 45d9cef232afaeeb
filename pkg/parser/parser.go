package parser

import (
	"github.com/casm-lang/casmc/pkg/ast"
	"github.com/casm-lang/casmc/pkg/diag"
	"github.com/casm-lang/casmc/pkg/token"
)

// Parser holds the state for the parsing process
type Parser struct {
	tokens   []token.Token
	pos      int
	current  token.Token
	previous token.Token
	rep      *diag.Reporter
	failed   bool
}

// NewParser creates and initializes a new Parser from a token stream
func NewParser(tokens []token.Token, rep *diag.Reporter) *Parser {
	p := &Parser{tokens: tokens, rep: rep}
	if len(tokens) > 0 {
		p.current = p.tokens[0]
	}
	return p
}

// Parser helpers
func (p *Parser) advance() {
	if p.pos < len(p.tokens) {
		p.previous = p.current
		p.pos++
		if p.pos < len(p.tokens) {
			p.current = p.tokens[p.pos]
		}
	}
}

func (p *Parser) check(tokType token.Type) bool {
	return p.current.Type == tokType
}

func (p *Parser) match(tokType token.Type) bool {
	if !p.check(tokType) {
		return false
	}
	p.advance()
	return true
}

func (p *Parser) expect(tokType token.Type, message string) bool {
	if p.check(tokType) {
		p.advance()
		return true
	}
	p.errorf(p.current, "%s", message)
	return false
}

func (p *Parser) errorf(tok token.Token, format string, args ...interface{}) {
	p.failed = true
	p.rep.Errorf(tok, format, args...)
}

// synchronize skips ahead to the next statement boundary so one bad
// statement does not drown the rest of the file in follow-up errors.
// It consumes a terminating ';' but stops in front of '}' and 'func'.
func (p *Parser) synchronize() {
	for p.pos < len(p.tokens) && !p.check(token.EOF) {
		if p.match(token.Semi) {
			return
		}
		if p.check(token.RBrace) || p.check(token.FuncKw) {
			return
		}
		p.advance()
	}
}

func isStatementStart(tokType token.Type) bool {
	switch tokType {
	case token.Move, token.Add, token.Sub, token.Compare,
		token.Jump, token.JumpEqual, token.JumpNotEqual,
		token.Return, token.Call, token.SysCall:
		return true
	default:
		return false
	}
}

// Parse consumes the whole token stream and returns the head of the
// top-level chain. ok reports whether the stream parsed cleanly; on
// errors the partial tree built so far is still returned.
func (p *Parser) Parse() (*ast.Node, bool) {
	var head, tail *ast.Node

	for p.pos < len(p.tokens) && !p.check(token.EOF) {
		var node *ast.Node

		switch {
		case p.check(token.FuncKw):
			node = p.parseFunction()
			if node == nil {
				p.synchronize()
				continue
			}
		case isStatementStart(p.current.Type):
			node = p.parseStatement()
			if node == nil {
				p.synchronize()
				continue
			}
			if !p.expect(token.Semi, "expected ';' after statement") {
				p.synchronize()
			}
		default:
			p.errorf(p.current, "unexpected token '%s'", p.current.Value)
			p.advance()
			continue
		}

		if head == nil {
			head = node
		} else {
			tail.Next = node
			node.Prev = tail
		}
		tail = node
	}

	ast.ConnectPrev(head)
	return head, !p.failed
}

func (p *Parser) parseFunction() *ast.Node {
	p.advance() // past 'func'

	if !p.check(token.Label) && !p.check(token.Ident) {
		p.errorf(p.current, "expected function name after '%s', found '%s'", p.previous.Value, p.current.Value)
		return nil
	}
	name := p.current
	p.advance()

	block := p.parseBlock()
	if block == nil {
		return nil
	}
	return ast.NewLabel(name, name.Value, block)
}

func (p *Parser) parseBlock() *ast.Node {
	lbrace := p.current
	if !p.match(token.LBrace) {
		p.errorf(p.current, "expected '{' to start block, found '%s'", p.current.Value)
		return nil
	}

	var head, tail *ast.Node
	for p.pos < len(p.tokens) && !p.check(token.RBrace) && !p.check(token.EOF) {
		if !isStatementStart(p.current.Type) {
			p.errorf(p.current, "unexpected token '%s' in block", p.current.Value)
			p.synchronize()
			continue
		}

		stmt := p.parseStatement()
		if stmt == nil {
			p.synchronize()
			continue
		}

		if head == nil {
			head = stmt
		} else {
			tail.Next = stmt
			stmt.Prev = tail
		}
		tail = stmt

		if !p.expect(token.Semi, "expected ';' after statement") {
			p.synchronize()
		}
	}

	if !p.match(token.RBrace) {
		p.errorf(lbrace, "expected '}' to close block")
		return nil
	}
	return ast.NewBlock(lbrace, head)
}

func (p *Parser) parseStatement() *ast.Node {
	switch p.current.Type {
	case token.Move, token.Add, token.Sub, token.Compare:
		return p.parseBinaryStatement()
	case token.Jump, token.JumpEqual, token.JumpNotEqual:
		return p.parseJumpStatement()
	case token.Return:
		return p.parseReturnStatement()
	case token.Call:
		return p.parseCallStatement()
	case token.SysCall:
		return p.parseSysCallStatement()
	default:
		return nil
	}
}

// parseBinaryStatement handles the two-operand forms: move, add, sub
// and compare all read as op(dst, src).
func (p *Parser) parseBinaryStatement() *ast.Node {
	op := p.current
	p.advance()

	if !p.match(token.LParen) {
		p.errorf(p.current, "expected '(' after '%s'", op.Value)
		return nil
	}
	dst := p.parseExpr()
	if dst == nil {
		return nil
	}
	if !p.match(token.Comma) {
		p.errorf(p.current, "expected ',' between operands for '%s'", op.Value)
		return nil
	}
	src := p.parseExpr()
	if src == nil {
		return nil
	}
	if !p.match(token.RParen) {
		p.errorf(p.current, "expected ')' to close '%s'", op.Value)
		return nil
	}

	switch op.Type {
	case token.Move:
		return ast.NewMove(op, dst, src)
	case token.Add:
		return ast.NewAdd(op, dst, src)
	case token.Sub:
		return ast.NewSub(op, dst, src)
	default:
		return ast.NewCompare(op, dst, src)
	}
}

func (p *Parser) parseJumpStatement() *ast.Node {
	op := p.current
	p.advance()

	if !p.match(token.LParen) {
		p.errorf(p.current, "expected '(' after '%s'", op.Value)
		return nil
	}
	target := p.parseExpr()
	if target == nil {
		return nil
	}
	if !p.match(token.RParen) {
		p.errorf(p.current, "expected ')' to close '%s'", op.Value)
		return nil
	}

	switch op.Type {
	case token.Jump:
		return ast.NewJump(op, target)
	case token.JumpEqual:
		return ast.NewJumpEqual(op, target)
	default:
		return ast.NewJumpNotEqual(op, target)
	}
}

func (p *Parser) parseReturnStatement() *ast.Node {
	tok := p.current
	p.advance()

	// return may be written bare or with an empty argument list.
	if p.match(token.LParen) {
		if !p.match(token.RParen) {
			p.errorf(p.current, "expected ')' after 'return('")
			return nil
		}
	}
	return ast.NewReturn(tok)
}

// parseCallStatement reads call(callee, args...). The callee may be
// absent; code generation skips a call with nothing to jump to.
func (p *Parser) parseCallStatement() *ast.Node {
	tok := p.current
	p.advance()

	if !p.match(token.LParen) {
		p.errorf(p.current, "expected '(' after 'call'")
		return nil
	}

	var callee, argsHead, argsTail *ast.Node
	if !p.check(token.RParen) {
		callee = p.parseExpr()
		if callee == nil {
			return nil
		}
		for p.match(token.Comma) {
			arg := p.parseExpr()
			if arg == nil {
				return nil
			}
			if argsHead == nil {
				argsHead = arg
			} else {
				argsTail.Next = arg
				arg.Prev = argsTail
			}
			argsTail = arg
		}
	}

	if !p.match(token.RParen) {
		p.errorf(p.current, "expected ')' after call arguments")
		return nil
	}

	node := ast.NewCall(tok, callee)
	node.Right = argsHead
	return node
}

func (p *Parser) parseSysCallStatement() *ast.Node {
	tok := p.current
	p.advance()

	if !p.match(token.LParen) {
		p.errorf(p.current, "expected '(' after 'sys_call'")
		return nil
	}

	if p.check(token.RParen) {
		p.errorf(p.current, "expected parameter in 'sys_call'")
		return nil
	}

	var head, tail *ast.Node
	for {
		param := p.parseExpr()
		if param == nil {
			return nil
		}
		if head == nil {
			head = param
		} else {
			tail.Next = param
			param.Prev = tail
		}
		tail = param
		if !p.match(token.Comma) {
			break
		}
	}

	if !p.match(token.RParen) {
		p.errorf(p.current, "expected ')' after 'sys_call' parameters")
		return nil
	}

	return ast.NewSysCall(tok, head)
}

func (p *Parser) parseExpr() *ast.Node {
	// A stray comma ahead of an operand is tolerated and skipped.
	for p.match(token.Comma) {
	}

	tok := p.current
	switch {
	case p.match(token.Number):
		return ast.NewNumber(tok, p.previous.Value)
	case p.match(token.Ident):
		return ast.NewIdent(tok, p.previous.Value)
	case p.match(token.Label):
		return ast.NewLabelRef(tok, p.previous.Value)
	case p.match(token.String):
		return ast.NewString(tok, p.previous.Value)
	case p.match(token.StrLen):
		return ast.NewStrLen(tok)
	case p.match(token.LParen):
		expr := p.parseExpr()
		if expr == nil {
			return nil
		}
		if !p.match(token.RParen) {
			p.errorf(p.current, "expected ')' after expression")
			return nil
		}
		return expr
	}

	p.errorf(tok, "unexpected expression token '%s'", tok.Value)
	return nil
}
