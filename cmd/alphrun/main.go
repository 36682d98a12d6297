package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/alephium/alphvm/emulator"
	"github.com/alephium/alphvm/execctx"
	"github.com/alephium/alphvm/serialize"
	"github.com/alephium/alphvm/state"
	"github.com/alephium/alphvm/vm"
)

func main() {
	app := &cli.App{
		Name:      "alphrun",
		Usage:     "Dry-run a compiled transaction script against a fixture world state",
		ArgsUsage: "<script-file> <fixture.json>",
		Flags: []cli.Flag{
			&cli.Uint64Flag{
				Name:  "gas-limit",
				Usage: "gas budget for the dry run",
				Value: uint64(emulator.MinimalGas),
			},
		},
		Action: doRun,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// fixture is the on-disk shape alphrun accepts: the addresses and balances
// of every input the script's transaction spends, plus the block
// environment to dry-run against. It exists purely as an ambient CLI
// convenience the toolchain's emulator package itself has no opinion on.
type fixture struct {
	BlockEnv execctx.BlockEnv    `json:"blockEnv"`
	Inputs   []state.AssetOutput `json:"inputs"`
}

// staticCollaborator answers a fixed, fixture-derived block environment and
// group view instead of consulting a real chain, matching the shape
// emulator.ChainCollaborator's mock exercises in tests but wired to real
// fixture data here.
type staticCollaborator struct {
	blockEnv execctx.BlockEnv
	view     *emulator.GroupView
}

func (c *staticCollaborator) GetDryrunBlockEnv(emulator.ChainIndex) (execctx.BlockEnv, error) {
	return c.blockEnv, nil
}

func (c *staticCollaborator) GetMutableGroupViewIncludePool(emulator.GroupIndex) (*emulator.GroupView, error) {
	return c.view, nil
}

func doRun(c *cli.Context) error {
	if c.Args().Len() != 2 {
		return fmt.Errorf("expected <script-file> <fixture.json>")
	}
	scriptPath, fixturePath := c.Args().Get(0), c.Args().Get(1)

	scriptBlob, err := os.ReadFile(scriptPath)
	if err != nil {
		return fmt.Errorf("read script: %w", err)
	}
	script, err := serialize.DecodeStatefulScript(scriptBlob)
	if err != nil {
		return fmt.Errorf("decode script: %w", err)
	}

	fixtureBlob, err := os.ReadFile(fixturePath)
	if err != nil {
		return fmt.Errorf("read fixture: %w", err)
	}
	var fx fixture
	if err := json.Unmarshal(fixtureBlob, &fx); err != nil {
		return fmt.Errorf("decode fixture: %w", err)
	}
	if len(fx.Inputs) == 0 {
		return fmt.Errorf("fixture has no inputs")
	}

	ws := &state.PersistedWorldState{
		OutputTrie:   state.NewMemTrie(),
		ContractTrie: state.NewMemTrie(),
		CodeTrie:     state.NewMemTrie(),
	}
	collab := &staticCollaborator{
		blockEnv: fx.BlockEnv,
		view:     &emulator.GroupView{WorldState: ws},
	}

	inputs := make([]emulator.TxInput, len(fx.Inputs))
	for i, out := range fx.Inputs {
		inputs[i] = emulator.TxInput{PrevOutput: out}
	}

	tmpl := emulator.TransactionTemplate{
		Inputs:   inputs,
		Script:   script,
		GasLimit: vm.Gas(c.Uint64("gas-limit")),
	}

	result, err := emulator.Emulate(collab, tmpl)
	if err != nil {
		return fmt.Errorf("emulate: %w", err)
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	fmt.Println(string(out))
	return nil
}
