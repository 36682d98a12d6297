package execctx

import (
	"github.com/alephium/alphvm/state"
	"github.com/alephium/alphvm/vm"
	"github.com/alephium/alphvm/vmval"
)

// Context is the single capability surface the interpreter dispatches
// against, unifying the stateless and stateful flavors into one Go
// interface. The compiler is what actually enforces the capability split —
// vm.OpCode.IsStatefulOnly rejects stateful opcodes from stateless scripts at
// compile time — so a StatelessCtx never needs to do anything useful for the
// stateful-only methods below; it just reports ErrInvalidOpcode if the
// interpreter ever reaches one, which a correctly compiled stateless script
// cannot make happen.
type Context interface {
	ChargeGas(g vm.Gas) error
	GasRemaining() vm.Gas
	Block() BlockEnv
	Tx() *TxEnv

	VerifyTxSignature(pubKey, msg []byte) (bool, error)
	EthEcRecover(hash, sig []byte) ([]byte, error)

	LoadField(idx int) (vmval.Value, error)
	StoreField(idx int, v vmval.Value) error

	// EnterContract resolves addr's compiled method table, pushing it as the
	// active contract for LoadField/StoreField/EmitLog and for any further
	// nested CallExternal. ExitContract pops it once the call returns.
	EnterContract(addr vmval.Addr) (methods []vm.Method, err error)
	ExitContract()

	ApproveAlf(amount vmval.Value) error
	TransferAlf(to vmval.Addr, amount vmval.Value) error
	UseContractAssets() (state.OutputRef, state.AssetOutput, error)
	GenerateOutput(to vmval.Addr, amount vmval.Value) error
	EmitLog(eventID []byte, args []vmval.Value) error
}
