package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xyproto/env/v2"

	"github.com/casm-lang/casmc/pkg/ast"
	"github.com/casm-lang/casmc/pkg/cli"
	"github.com/casm-lang/casmc/pkg/codegen"
	"github.com/casm-lang/casmc/pkg/config"
	"github.com/casm-lang/casmc/pkg/diag"
	"github.com/casm-lang/casmc/pkg/lexer"
	"github.com/casm-lang/casmc/pkg/parser"
	"github.com/casm-lang/casmc/pkg/token"
)

const version = "1.0.0"

func main() {
	app := cli.NewApp("casmc")
	app.Synopsis = "[options] <input.casm>"
	app.Description = "A C-like Assembly language compiler."
	app.Authors = []string{"casm-lang"}
	app.Repository = "<https://github.com/casm-lang/casmc>"

	var (
		inFile      string
		outFile     string
		verbose     bool
		use32       bool
		use64       bool
		showVersion bool
		wall        bool
		wNoAll      bool
	)

	fs := app.FlagSet
	fs.String(&inFile, "input", "i", "", "Read CASM source from <file>.", "file")
	fs.String(&outFile, "output", "o", "", "Place the generated NASM into <file>.", "file")
	fs.Bool(&verbose, "verbose", "v", false, "Narrate compilation and dump tokens and AST.")
	fs.Bool(&use32, "32", "", false, "Generate 32-bit code (default).")
	fs.Bool(&use64, "64", "", false, "Generate 64-bit code (not supported yet).")
	fs.Bool(&wall, "Wall", "", false, "Enable all warnings.")
	fs.Bool(&wNoAll, "Wno-all", "", false, "Disable all warnings.")
	fs.Bool(&showVersion, "version", "", false, "Display version information.")

	cfg := config.NewConfig()
	warningFlags, featureFlags := cfg.SetupFlagGroups(fs)

	app.Action = func(args []string) error {
		if showVersion {
			fmt.Printf("CASM Compiler v%s\n", version)
			fmt.Println("A C-like Assembly language compiler.")
			fmt.Println("Copyright (c) 2025")
			return nil
		}

		// Bulk toggles first so individual -W flags can override them.
		if wNoAll {
			cfg.SetAllWarnings(false)
		}
		if wall {
			cfg.SetAllWarnings(true)
		}
		for i, entry := range warningFlags {
			if entry.Enabled != nil && *entry.Enabled {
				cfg.SetWarning(config.Warning(i), true)
			}
			if entry.Disabled != nil && *entry.Disabled {
				cfg.SetWarning(config.Warning(i), false)
			}
		}
		for i, entry := range featureFlags {
			if entry.Enabled != nil && *entry.Enabled {
				cfg.SetFeature(config.Feature(i), true)
			}
			if entry.Disabled != nil && *entry.Disabled {
				cfg.SetFeature(config.Feature(i), false)
			}
		}

		// The first bare argument is the input file unless --input was
		// given; extra arguments warn and are ignored.
		if len(args) > 0 && inFile == "" {
			inFile = args[0]
			args = args[1:]
		}
		for _, arg := range args {
			fmt.Fprintf(os.Stderr, "casmc: warning: '%s' is an unknown argument, ignoring\n", arg)
		}
		if inFile == "" {
			fmt.Fprintln(os.Stderr, "casmc: no input file specified")
			app.Usage(os.Stderr)
			return fmt.Errorf("no input file")
		}
		if outFile == "" {
			outFile = strings.TrimSuffix(inFile, filepath.Ext(inFile)) + ".asm"
		}

		target := env.Int("CASM_TARGET", 32)
		if use32 {
			target = 32
		}
		if use64 {
			target = 64
		}
		if err := cfg.SetTarget(target); err != nil {
			fmt.Fprintf(os.Stderr, "casmc: %v\n", err)
			return err
		}

		if verbose {
			fmt.Printf("Input file: %s\n", inFile)
			fmt.Printf("Output file: %s\n", outFile)
			fmt.Printf("Target architecture: %d-bit\n", cfg.TargetBits)
		}

		source, err := os.ReadFile(inFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "casmc: could not open file: %v\n", err)
			return err
		}

		rep := diag.New(os.Stderr, diag.ColorEnabled(os.Stderr))
		rep.SetSourceFiles([]diag.SourceFileRecord{{Name: inFile, Content: []rune(string(source))}})

		lx := lexer.NewLexer([]rune(string(source)), 0, cfg, rep)
		var tokens []token.Token
		for {
			tok := lx.Next()
			tokens = append(tokens, tok)
			if tok.Type == token.EOF {
				break
			}
		}

		if verbose {
			fmt.Println("\n=== Token List ===")
			for _, t := range tokens {
				if t.Type == token.EOF {
					break
				}
				fmt.Printf("Token: %s (Type: %d)\n", t.Value, t.Type)
			}
		}

		prs := parser.NewParser(tokens, rep)
		prog, ok := prs.Parse()

		if verbose {
			fmt.Println("\n=== Abstract Syntax Tree ===")
			ast.Fprint(os.Stdout, prog, 0)
		}

		if !ok || rep.ErrorCount() > 0 {
			err := fmt.Errorf("compilation aborted due to syntax errors")
			fmt.Fprintf(os.Stderr, "casmc: %v\n", err)
			return err
		}

		backend, err := codegen.NewBackend(cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "casmc: %v\n", err)
			return err
		}

		if verbose {
			fmt.Println("\n=== Generating NASM code ===")
		}

		buf, diags, err := backend.Generate(prog, cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "casmc: %v\n", err)
			return err
		}
		rep.EmitAll(diags)

		if err := os.WriteFile(outFile, buf.Bytes(), 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "casmc: failed to write output: %v\n", err)
			return err
		}

		fmt.Printf("NASM code successfully generated: %s\n", outFile)
		return nil
	}

	if err := app.Run(os.Args[1:]); err != nil {
		os.Exit(1)
	}
}
