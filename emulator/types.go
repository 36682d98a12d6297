// Package emulator implements a gas-metered dry-run pipeline: it drives a
// compiled StatefulScript against a scratch staging world state and reports
// gas usage without ever committing a state change.
package emulator

import (
	"github.com/alephium/alphvm/execctx"
	"github.com/alephium/alphvm/state"
	"github.com/alephium/alphvm/vm"
	"github.com/alephium/alphvm/vmval"
)

// NumGroups is the sharding fan-out the group index is derived modulo;
// Alephium's mainnet value.
const NumGroups = 4

// GroupIndex identifies a shard; ChainIndex an intra-group chain within it.
type GroupIndex int
type ChainIndex struct{ From, To GroupIndex }

// DummySignatureStackSize is the emulator-only worst-case signature-stack
// padding, sized as a named constant rather than an inline magic number so
// a reader can see at a glance where 16 comes from.
const DummySignatureStackSize = 16

// Gas budget defaults.
const (
	MinimalGas      vm.Gas = 20000
	MaximalGasPerTx vm.Gas = 5000000
)

// TxInput pairs a spent output reference with its resolved previous output.
type TxInput struct {
	OutputRef  state.OutputRef
	PrevOutput state.AssetOutput
}

// TransactionTemplate is the emulator's input transaction shape:
// inputs, fixed outputs, the script under test, and optional gas
// limit/price overrides.
type TransactionTemplate struct {
	Inputs       []TxInput
	FixedOutputs []state.AssetOutput
	Script       vm.StatefulScript
	GasLimit     vm.Gas // 0 means "use MinimalGas"
	GasPrice     vmval.Value
}

// ExecutionResult is the flattened, human-inspectable shape of one script
// run: its return values and every side effect a StatefulCtx accumulated.
type ExecutionResult struct {
	ReturnValues     []vmval.Value
	GeneratedOutputs []execctx.GeneratedOutput
	Logs             []execctx.LogEntry
	Outcome          vm.Outcome
}

// TxScriptEmulationResult is Emulate's top-level result.
type TxScriptEmulationResult struct {
	GasUsed   vm.Gas
	Execution ExecutionResult
}

// GroupView is a mutable, mempool-inclusive view of one group's chain state,
// as GetMutableGroupViewIncludePool would return in a real node. In this
// scratch implementation it's just the persisted world state snapshot the
// emulator stages its dry run over.
type GroupView struct {
	WorldState *state.PersistedWorldState
}

// ChainCollaborator is the block-flow seam the emulator depends on:
// acquiring a dry-run block environment and a mutable, mempool-inclusive
// group view. A go.uber.org/mock-generated fake backs the emulator's unit
// tests.
//
//go:generate mockgen -source=types.go -destination=mock_collaborator.go -package=emulator
type ChainCollaborator interface {
	GetDryrunBlockEnv(chainIndex ChainIndex) (execctx.BlockEnv, error)
	GetMutableGroupViewIncludePool(group GroupIndex) (*GroupView, error)
}
