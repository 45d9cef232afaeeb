package lexer

import (
	"unicode"

	"github.com/casm-lang/casmc/pkg/config"
	"github.com/casm-lang/casmc/pkg/diag"
	"github.com/casm-lang/casmc/pkg/token"
)

type Lexer struct {
	source    []rune
	fileIndex int
	pos       int
	line      int
	column    int
	cfg       *config.Config
	rep       *diag.Reporter
}

func NewLexer(source []rune, fileIndex int, cfg *config.Config, rep *diag.Reporter) *Lexer {
	return &Lexer{
		source: source, fileIndex: fileIndex, line: 1, column: 1, cfg: cfg, rep: rep,
	}
}

func (l *Lexer) Next() token.Token {
	for {
		l.skipWhitespaceAndComments()
		startPos, startCol, startLine := l.pos, l.column, l.line

		if l.isAtEnd() {
			return l.makeToken(token.EOF, "", startPos, startCol, startLine)
		}

		ch := l.peek()
		if unicode.IsLetter(ch) {
			l.advance()
			return l.identifierOrKeyword(startPos, startCol, startLine)
		}
		if unicode.IsDigit(ch) {
			return l.numberLiteral(startPos, startCol, startLine)
		}

		l.advance()
		switch ch {
		case '(':
			return l.makeToken(token.LParen, "(", startPos, startCol, startLine)
		case ')':
			return l.makeToken(token.RParen, ")", startPos, startCol, startLine)
		case '{':
			return l.makeToken(token.LBrace, "{", startPos, startCol, startLine)
		case '}':
			return l.makeToken(token.RBrace, "}", startPos, startCol, startLine)
		case ',':
			return l.makeToken(token.Comma, ",", startPos, startCol, startLine)
		case ';':
			return l.makeToken(token.Semi, ";", startPos, startCol, startLine)
		case '"':
			if tok, ok := l.stringLiteral(startPos, startCol, startLine); ok {
				return tok
			}
			continue
		case '&':
			if l.lookingAt("strlen&") {
				for range "strlen&" {
					l.advance()
				}
				return l.makeToken(token.StrLen, "&strlen&", startPos, startCol, startLine)
			}
		case '[':
			if l.lookingAt("counter]") && l.cfg.IsFeatureEnabled(config.FeatLegacyCounter) {
				for range "counter]" {
					l.advance()
				}
				tok := l.makeToken(token.StrLen, "[counter]", startPos, startCol, startLine)
				l.rep.Warnf(l.cfg, config.WarnLegacy, tok, "'[counter]' is the historical spelling of '&strlen&'")
				return tok
			}
		}

		// The parser reports unknown tokens and moves on.
		return l.makeToken(token.Unknown, string(ch), startPos, startCol, startLine)
	}
}

func (l *Lexer) peek() rune {
	if l.isAtEnd() {
		return 0
	}
	return l.source[l.pos]
}

func (l *Lexer) lookingAt(rest string) bool {
	for i, ch := range []rune(rest) {
		if l.pos+i >= len(l.source) || l.source[l.pos+i] != ch {
			return false
		}
	}
	return true
}

func (l *Lexer) advance() rune {
	if l.isAtEnd() {
		return 0
	}
	ch := l.source[l.pos]
	if ch == '\n' {
		l.line++
		l.column = 1
	} else {
		l.column++
	}
	l.pos++
	return ch
}

func (l *Lexer) isAtEnd() bool { return l.pos >= len(l.source) }

func (l *Lexer) makeToken(tokType token.Type, value string, startPos, startCol, startLine int) token.Token {
	return token.Token{
		Type: tokType, Value: value, FileIndex: l.fileIndex,
		Line: startLine, Column: startCol, Len: l.pos - startPos,
	}
}

func (l *Lexer) skipWhitespaceAndComments() {
	for {
		switch l.peek() {
		case ' ', '\t', '\n', '\r':
			l.advance()
		case '\'':
			l.lineComment()
		default:
			return
		}
	}
}

// Comments run from a single quote to the end of the line.
func (l *Lexer) lineComment() {
	for !l.isAtEnd() && l.peek() != '\n' {
		l.advance()
	}
}

func (l *Lexer) identifierOrKeyword(startPos, startCol, startLine int) token.Token {
	for unicode.IsLetter(l.peek()) || unicode.IsDigit(l.peek()) || l.peek() == '_' {
		l.advance()
	}
	value := string(l.source[startPos:l.pos])

	if tokType, isKeyword := token.KeywordMap[value]; isKeyword {
		if value != "label" {
			return l.makeToken(tokType, value, startPos, startCol, startLine)
		}
		if l.cfg.IsFeatureEnabled(config.FeatLegacyLabel) {
			tok := l.makeToken(token.FuncKw, value, startPos, startCol, startLine)
			l.rep.Warnf(l.cfg, config.WarnLegacy, tok, "'label' is the historical spelling of 'func'")
			return tok
		}
	}

	if isRegisterName(value) {
		return l.makeToken(token.Ident, value, startPos, startCol, startLine)
	}
	return l.makeToken(token.Label, value, startPos, startCol, startLine)
}

// Register operands are spelled r<digit>; everything else that looks like a
// word is a label.
func isRegisterName(s string) bool {
	return len(s) >= 2 && s[0] == 'r' && s[1] >= '0' && s[1] <= '9'
}

func (l *Lexer) numberLiteral(startPos, startCol, startLine int) token.Token {
	for unicode.IsDigit(l.peek()) {
		l.advance()
	}
	return l.makeToken(token.Number, string(l.source[startPos:l.pos]), startPos, startCol, startLine)
}

// stringLiteral scans a double-quoted literal, keeping the quotes and any
// escape sequences verbatim in the token value. A backslash skips the
// following character, so escaped quotes do not terminate the literal.
func (l *Lexer) stringLiteral(startPos, startCol, startLine int) (token.Token, bool) {
	for !l.isAtEnd() && l.peek() != '"' {
		if l.peek() == '\\' && l.pos+1 < len(l.source) {
			l.advance()
		}
		l.advance()
	}

	if l.isAtEnd() {
		tok := l.makeToken(token.String, "", startPos, startCol, startLine)
		tok.Len = 1
		l.rep.Errorf(tok, "unterminated string literal")
		// Resume just after the opening quote and keep scanning.
		l.pos, l.line, l.column = startPos+1, startLine, startCol+1
		return token.Token{}, false
	}

	l.advance()
	return l.makeToken(token.String, string(l.source[startPos:l.pos]), startPos, startCol, startLine), true
}
