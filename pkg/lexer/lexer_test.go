package lexer

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/casm-lang/casmc/pkg/config"
	"github.com/casm-lang/casmc/pkg/diag"
	"github.com/casm-lang/casmc/pkg/token"
)

func lexAll(t *testing.T, src string, cfg *config.Config, rep *diag.Reporter) []token.Token {
	t.Helper()
	l := NewLexer([]rune(src), 0, cfg, rep)
	var tokens []token.Token
	for {
		tok := l.Next()
		tokens = append(tokens, tok)
		if tok.Type == token.EOF {
			return tokens
		}
	}
}

func lexTypes(t *testing.T, src string, cfg *config.Config, rep *diag.Reporter) []token.Type {
	t.Helper()
	tokens := lexAll(t, src, cfg, rep)
	types := make([]token.Type, len(tokens))
	for i, tok := range tokens {
		types[i] = tok.Type
	}
	return types
}

func sameTypes(a, b []token.Type) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestNextTokenTypes(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []token.Type
	}{
		{
			name: "statement",
			src:  "move(r0, 4);",
			want: []token.Type{token.Move, token.LParen, token.Ident, token.Comma, token.Number, token.RParen, token.Semi, token.EOF},
		},
		{
			name: "keywords",
			src:  "move add sub compare jump jump_equal jump_not_equal return call sys_call func",
			want: []token.Type{token.Move, token.Add, token.Sub, token.Compare, token.Jump, token.JumpEqual, token.JumpNotEqual, token.Return, token.Call, token.SysCall, token.FuncKw, token.EOF},
		},
		{
			name: "registers and labels",
			src:  "r0 r9 rx loop main",
			want: []token.Type{token.Ident, token.Ident, token.Label, token.Label, token.Label, token.EOF},
		},
		{
			name: "strlen marker",
			src:  "&strlen&",
			want: []token.Type{token.StrLen, token.EOF},
		},
		{
			name: "lone ampersand",
			src:  "&x",
			want: []token.Type{token.Unknown, token.Label, token.EOF},
		},
		{
			name: "punctuation",
			src:  "(){},;",
			want: []token.Type{token.LParen, token.RParen, token.LBrace, token.RBrace, token.Comma, token.Semi, token.EOF},
		},
		{
			name: "unknown character",
			src:  "@",
			want: []token.Type{token.Unknown, token.EOF},
		},
		{
			name: "empty input",
			src:  "",
			want: []token.Type{token.EOF},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := lexTypes(t, tt.src, config.NewConfig(), diag.New(io.Discard, false))
			if !sameTypes(got, tt.want) {
				t.Errorf("token types = %v; want %v", got, tt.want)
			}
		})
	}
}

func TestTokenValues(t *testing.T) {
	tokens := lexAll(t, "move(r2, 10);", config.NewConfig(), diag.New(io.Discard, false))
	want := []string{"move", "(", "r2", ",", "10", ")", ";", ""}
	if len(tokens) != len(want) {
		t.Fatalf("got %d tokens; want %d", len(tokens), len(want))
	}
	for i, tok := range tokens {
		if tok.Value != want[i] {
			t.Errorf("token %d value = %q; want %q", i, tok.Value, want[i])
		}
	}
}

func TestLineComments(t *testing.T) {
	src := "move(r0, 1); ' trailing comment\n' a full comment line\nadd(r1, 2);"
	tokens := lexAll(t, src, config.NewConfig(), diag.New(io.Discard, false))

	want := []token.Type{token.Move, token.LParen, token.Ident, token.Comma, token.Number, token.RParen, token.Semi,
		token.Add, token.LParen, token.Ident, token.Comma, token.Number, token.RParen, token.Semi, token.EOF}
	got := make([]token.Type, len(tokens))
	for i, tok := range tokens {
		got[i] = tok.Type
	}
	if !sameTypes(got, want) {
		t.Fatalf("token types = %v; want %v", got, want)
	}

	if tokens[0].Line != 1 {
		t.Errorf("move line = %d; want 1", tokens[0].Line)
	}
	if tokens[7].Line != 3 {
		t.Errorf("add line = %d; want 3", tokens[7].Line)
	}
}

func TestStringLiterals(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"plain", `"Hello World"`, `"Hello World"`},
		{"escaped quote", `"a\"b"`, `"a\"b"`},
		{"escape kept verbatim", `"a\nb"`, `"a\nb"`},
		{"empty", `""`, `""`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens := lexAll(t, tt.src, config.NewConfig(), diag.New(io.Discard, false))
			if len(tokens) != 2 || tokens[0].Type != token.String {
				t.Fatalf("got %d tokens, first type %d; want single string token", len(tokens), tokens[0].Type)
			}
			if tokens[0].Value != tt.want {
				t.Errorf("string value = %q; want %q", tokens[0].Value, tt.want)
			}
		})
	}
}

func TestUnterminatedString(t *testing.T) {
	var buf bytes.Buffer
	rep := diag.New(&buf, false)
	types := lexTypes(t, `move(r0, "abc`, config.NewConfig(), rep)

	// After the error the lexer resumes right behind the opening quote,
	// so the dangling content comes back as ordinary tokens.
	want := []token.Type{token.Move, token.LParen, token.Ident, token.Comma, token.Label, token.EOF}
	if !sameTypes(types, want) {
		t.Errorf("token types = %v; want %v", types, want)
	}
	if rep.ErrorCount() != 1 {
		t.Errorf("error count = %d; want 1", rep.ErrorCount())
	}
	if !strings.Contains(buf.String(), "unterminated string literal") {
		t.Errorf("diagnostics = %q; want unterminated string literal", buf.String())
	}
}

func TestLegacyCounter(t *testing.T) {
	t.Run("enabled by default", func(t *testing.T) {
		var buf bytes.Buffer
		tokens := lexAll(t, "move(r0, [counter]);", config.NewConfig(), diag.New(&buf, false))
		if tokens[4].Type != token.StrLen || tokens[4].Value != "[counter]" {
			t.Errorf("token = %v %q; want strlen [counter]", tokens[4].Type, tokens[4].Value)
		}
		if !strings.Contains(buf.String(), "[-Wlegacy]") {
			t.Errorf("diagnostics = %q; want legacy warning", buf.String())
		}
	})

	t.Run("feature disabled", func(t *testing.T) {
		cfg := config.NewConfig()
		cfg.SetFeature(config.FeatLegacyCounter, false)
		types := lexTypes(t, "[counter]", cfg, diag.New(io.Discard, false))
		want := []token.Type{token.Unknown, token.Label, token.Unknown, token.EOF}
		if !sameTypes(types, want) {
			t.Errorf("token types = %v; want %v", types, want)
		}
	})

	t.Run("warning suppressed", func(t *testing.T) {
		var buf bytes.Buffer
		cfg := config.NewConfig()
		cfg.SetWarning(config.WarnLegacy, false)
		tokens := lexAll(t, "[counter]", cfg, diag.New(&buf, false))
		if tokens[0].Type != token.StrLen {
			t.Errorf("token type = %v; want strlen", tokens[0].Type)
		}
		if buf.Len() != 0 {
			t.Errorf("diagnostics = %q; want none", buf.String())
		}
	})
}

func TestLegacyLabelKeyword(t *testing.T) {
	t.Run("enabled by default", func(t *testing.T) {
		var buf bytes.Buffer
		tokens := lexAll(t, "label main { }", config.NewConfig(), diag.New(&buf, false))
		want := []token.Type{token.FuncKw, token.Label, token.LBrace, token.RBrace, token.EOF}
		got := make([]token.Type, len(tokens))
		for i, tok := range tokens {
			got[i] = tok.Type
		}
		if !sameTypes(got, want) {
			t.Errorf("token types = %v; want %v", got, want)
		}
		if !strings.Contains(buf.String(), "'label' is the historical spelling of 'func'") {
			t.Errorf("diagnostics = %q; want legacy warning", buf.String())
		}
	})

	t.Run("feature disabled", func(t *testing.T) {
		cfg := config.NewConfig()
		cfg.SetFeature(config.FeatLegacyLabel, false)
		types := lexTypes(t, "label main", cfg, diag.New(io.Discard, false))
		want := []token.Type{token.Label, token.Label, token.EOF}
		if !sameTypes(types, want) {
			t.Errorf("token types = %v; want %v", types, want)
		}
	})
}

func TestPositions(t *testing.T) {
	tokens := lexAll(t, "move(r0, 1);\n  add(r1, 2);", config.NewConfig(), diag.New(io.Discard, false))

	move := tokens[0]
	if move.Line != 1 || move.Column != 1 || move.Len != 4 {
		t.Errorf("move at %d:%d len %d; want 1:1 len 4", move.Line, move.Column, move.Len)
	}

	add := tokens[7]
	if add.Type != token.Add {
		t.Fatalf("token 7 type = %v; want add", add.Type)
	}
	if add.Line != 2 || add.Column != 3 {
		t.Errorf("add at %d:%d; want 2:3", add.Line, add.Column)
	}
}
