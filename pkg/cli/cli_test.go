package cli

import (
	"strings"
	"testing"
)

func TestParseStringFlags(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"long with space", []string{"--input", "a.casm"}},
		{"long with equals", []string{"--input=a.casm"}},
		{"shorthand with space", []string{"-i", "a.casm"}},
		{"shorthand glued", []string{"-ia.casm"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := NewFlagSet("test")
			var input string
			fs.String(&input, "input", "i", "", "Input file", "file")

			if err := fs.Parse(tt.args); err != nil {
				t.Fatalf("Parse(%v) failed: %v", tt.args, err)
			}
			if input != "a.casm" {
				t.Errorf("input = %q; want a.casm", input)
			}
		})
	}
}

func TestParseBoolFlags(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want bool
	}{
		{"long", []string{"--verbose"}, true},
		{"shorthand", []string{"-v"}, true},
		{"explicit false", []string{"--verbose=false"}, false},
		{"explicit true", []string{"--verbose=true"}, true},
		{"absent", []string{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := NewFlagSet("test")
			var verbose bool
			fs.Bool(&verbose, "verbose", "v", false, "Enable verbose output")

			if err := fs.Parse(tt.args); err != nil {
				t.Fatalf("Parse(%v) failed: %v", tt.args, err)
			}
			if verbose != tt.want {
				t.Errorf("verbose = %v; want %v", verbose, tt.want)
			}
		})
	}
}

func TestParsePositionalArgs(t *testing.T) {
	fs := NewFlagSet("test")
	var verbose bool
	fs.Bool(&verbose, "verbose", "v", false, "")

	if err := fs.Parse([]string{"main.casm", "--verbose", "extra"}); err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	got := fs.Args()
	if len(got) != 2 || got[0] != "main.casm" || got[1] != "extra" {
		t.Errorf("args = %v; want [main.casm extra]", got)
	}
	if !verbose {
		t.Errorf("flag between positionals not parsed")
	}
}

func TestParseDoubleDashTerminator(t *testing.T) {
	fs := NewFlagSet("test")
	var input string
	fs.String(&input, "input", "i", "", "", "file")

	if err := fs.Parse([]string{"--", "--input", "x"}); err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if input != "" {
		t.Errorf("input = %q; want empty, flags after -- are positional", input)
	}
	got := fs.Args()
	if len(got) != 2 || got[0] != "--input" || got[1] != "x" {
		t.Errorf("args = %v; want [--input x]", got)
	}
}

func TestParseSingleDashLongName(t *testing.T) {
	fs := NewFlagSet("test")
	var legacy bool
	fs.Bool(&legacy, "Wlegacy", "", false, "")

	if err := fs.Parse([]string{"-Wlegacy"}); err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if !legacy {
		t.Errorf("-Wlegacy did not set the flag")
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"unknown long flag", []string{"--bogus"}, "unknown flag: --bogus"},
		{"unknown shorthand", []string{"-z"}, "unknown shorthand flag: -z"},
		{"missing argument", []string{"--input"}, "flag needs an argument: --input"},
		{"bad bool value", []string{"--verbose=maybe"}, "invalid boolean value"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := NewFlagSet("test")
			var input string
			var verbose bool
			fs.String(&input, "input", "i", "", "", "file")
			fs.Bool(&verbose, "verbose", "v", false, "")

			err := fs.Parse(tt.args)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Parse(%v) error = %v; want %q", tt.args, err, tt.want)
			}
		})
	}
}

func TestDefineGroupFlags(t *testing.T) {
	fs := NewFlagSet("test")
	enabled, disabled := false, false
	fs.DefineGroupFlags([]FlagGroupEntry{
		{Name: "legacy", Prefix: "W", Usage: "", Default: true, Enabled: &enabled, Disabled: &disabled},
	})

	if fs.Lookup("Wlegacy") == nil || fs.Lookup("Wno-legacy") == nil {
		t.Fatalf("group flags not registered")
	}
	if err := fs.Parse([]string{"-Wno-legacy"}); err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if !disabled || enabled {
		t.Errorf("toggles = enabled %v disabled %v; want disable only", enabled, disabled)
	}
}

func TestLookup(t *testing.T) {
	fs := NewFlagSet("test")
	var input string
	fs.String(&input, "input", "i", "default.casm", "Input file", "file")

	flag := fs.Lookup("input")
	if flag == nil {
		t.Fatalf("Lookup(input) = nil")
	}
	if flag.Shorthand != "i" || flag.DefValue != "default.casm" || flag.ExpectedType != "file" {
		t.Errorf("flag = %+v; want shorthand i, default default.casm, type file", flag)
	}
	if fs.Lookup("output") != nil {
		t.Errorf("Lookup(output) found an unregistered flag")
	}
}

func TestAppRun(t *testing.T) {
	app := NewApp("casmc")
	var input string
	app.FlagSet.String(&input, "input", "i", "", "Input file", "file")

	var gotArgs []string
	app.Action = func(args []string) error {
		gotArgs = args
		return nil
	}

	if err := app.Run([]string{"-i", "f.casm", "pos"}); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if input != "f.casm" {
		t.Errorf("input = %q; want f.casm", input)
	}
	if len(gotArgs) != 1 || gotArgs[0] != "pos" {
		t.Errorf("action args = %v; want [pos]", gotArgs)
	}
}

func TestWrapText(t *testing.T) {
	lines := wrapText("one two three four five", 10)
	want := []string{"one two", "three four", "five"}
	if len(lines) != len(want) {
		t.Fatalf("lines = %v; want %v", lines, want)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d = %q; want %q", i, lines[i], want[i])
		}
	}

	if got := wrapText("", 10); len(got) != 0 {
		t.Errorf("wrapText(empty) = %v; want no lines", got)
	}
	if got := wrapText("text", 0); len(got) != 1 || got[0] != "text" {
		t.Errorf("wrapText with zero width = %v; want passthrough", got)
	}
}

func TestIndentAt(t *testing.T) {
	if got := indentAt(2); got != "        " {
		t.Errorf("indentAt(2) = %q; want eight spaces", got)
	}
}
