package execctx

import (
	"github.com/alephium/alphvm/state"
	"github.com/alephium/alphvm/vm"
	"github.com/alephium/alphvm/vmval"
)

// StatelessCtx runs a StatelessScript: it has gas, block/tx environment, and
// signature verification, but no world-state access at all. Every
// stateful-only method exists only to satisfy Context; the compiler already
// guarantees a compiled StatelessScript never emits the opcodes that would
// call them (vm.OpCode.IsStatefulOnly), so reaching one here indicates a
// packaging bug rather than a reachable user path.
type StatelessCtx struct {
	gasMeter
	block BlockEnv
	tx    *TxEnv
}

func NewStatelessCtx(gasLimit vm.Gas, block BlockEnv, tx *TxEnv) *StatelessCtx {
	return &StatelessCtx{gasMeter: gasMeter{remaining: gasLimit}, block: block, tx: tx}
}

func (c *StatelessCtx) ChargeGas(g vm.Gas) error { return c.charge(g) }
func (c *StatelessCtx) GasRemaining() vm.Gas     { return c.left() }
func (c *StatelessCtx) Block() BlockEnv          { return c.block }
func (c *StatelessCtx) Tx() *TxEnv               { return c.tx }

func (c *StatelessCtx) VerifyTxSignature(pubKey, msg []byte) (bool, error) {
	sig, ok := c.tx.NextSignature()
	if !ok {
		return false, nil
	}
	return verifyEd25519(pubKey, msg, sig)
}

func (c *StatelessCtx) EthEcRecover(hash, sig []byte) ([]byte, error) {
	return ethEcRecover(hash, sig)
}

func (c *StatelessCtx) LoadField(int) (vmval.Value, error)          { return vmval.Value{}, vm.ErrInvalidOpcode }
func (c *StatelessCtx) StoreField(int, vmval.Value) error           { return vm.ErrInvalidOpcode }
func (c *StatelessCtx) EnterContract(vmval.Addr) ([]vm.Method, error) {
	return nil, vm.ErrInvalidOpcode
}
func (c *StatelessCtx) ExitContract() {}

func (c *StatelessCtx) ApproveAlf(vmval.Value) error       { return vm.ErrInvalidOpcode }
func (c *StatelessCtx) TransferAlf(vmval.Addr, vmval.Value) error { return vm.ErrInvalidOpcode }
func (c *StatelessCtx) UseContractAssets() (state.OutputRef, state.AssetOutput, error) {
	return state.OutputRef{}, state.AssetOutput{}, vm.ErrInvalidOpcode
}
func (c *StatelessCtx) GenerateOutput(vmval.Addr, vmval.Value) error { return vm.ErrInvalidOpcode }
func (c *StatelessCtx) EmitLog([]byte, []vmval.Value) error          { return vm.ErrInvalidOpcode }
