package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/alephium/alphvm/ast"
	"github.com/alephium/alphvm/compiler"
	"github.com/alephium/alphvm/serialize"
	"github.com/alephium/alphvm/vmval"
)

func main() {
	app := &cli.App{
		Name:  "alphc",
		Usage: "Compile Alephium contract source into VM bytecode",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "out",
				Usage: "write the compiled artifact JSON to this path instead of stdout",
			},
			&cli.IntFlag{
				Name:  "loop-unroll-limit",
				Usage: "reject any for-loop that would unroll into more iterations than this",
				Value: compiler.DefaultConfig.LoopUnrollingLimit,
			},
		},
		ArgsUsage: "<source-file>",
		Action:    doCompile,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func doCompile(c *cli.Context) error {
	if c.Args().Len() != 1 {
		return fmt.Errorf("expected exactly one source file argument")
	}
	path := c.Args().Get(0)
	src, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	decls, err := ast.ParseSource(string(src))
	if err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	cfg := compiler.DefaultConfig
	cfg.LoopUnrollingLimit = c.Int("loop-unroll-limit")
	universe := compiler.Universe{}

	// Contracts compile first so later units can reference their
	// interfaces; scripts compile last since nothing depends on them.
	var contractDecls []*ast.ContractDecl
	var scriptDecls []*ast.ScriptDecl
	for _, d := range decls {
		switch v := d.(type) {
		case *ast.ContractDecl:
			contractDecls = append(contractDecls, v)
		case *ast.ScriptDecl:
			scriptDecls = append(scriptDecls, v)
		}
	}

	// json.Marshal base64-encodes []byte values automatically, so the
	// artifact map holds raw bytecode straight from the encoder.
	artifacts := map[string][]byte{}
	for _, cd := range contractDecls {
		compiled, err := compiler.CompileContract(cd, cfg, universe)
		if err != nil {
			return fmt.Errorf("compile contract %s: %w", cd.Name, err)
		}
		universe[vmval.ContractID(cd.Name)] = compiler.Interface(cd)
		blob, err := serialize.EncodeStatefulContract(compiled)
		if err != nil {
			return fmt.Errorf("encode contract %s: %w", cd.Name, err)
		}
		artifacts[cd.Name] = blob
	}
	for i, sd := range scriptDecls {
		compiled, err := compiler.CompileStatefulScript(sd, cfg, universe)
		if err != nil {
			return fmt.Errorf("compile script #%d: %w", i, err)
		}
		blob, err := serialize.EncodeStatefulScript(compiled)
		if err != nil {
			return fmt.Errorf("encode script #%d: %w", i, err)
		}
		artifacts[fmt.Sprintf("script_%d", i)] = blob
	}

	out, err := json.MarshalIndent(artifacts, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal artifacts: %w", err)
	}

	if dest := c.String("out"); dest != "" {
		return os.WriteFile(dest, out, 0o644)
	}
	fmt.Println(string(out))
	return nil
}
