package execctx

import (
	"github.com/alephium/alphvm/state"
	"github.com/alephium/alphvm/vm"
	"github.com/alephium/alphvm/vmval"
)

// LogEntry records one EmitLog call for a caller to inspect after execution.
// There is no on-chain log store in this scratch implementation, so entries
// are just collected in memory.
type LogEntry struct {
	ContractAddr vmval.Addr
	EventID      []byte
	Args         []vmval.Value
}

// GeneratedOutput records one GenerateOutput call.
type GeneratedOutput struct {
	From   vmval.Addr
	To     vmval.Addr
	Amount vmval.Value
}

type contractFrame struct {
	addr  vmval.Addr
	state *state.ContractState
}

// StatefulCtx runs a StatefulScript or a deployed contract's method:
// world-state-backed field access, asset approval/transfer, and event
// emission, layered over the same gas/block/tx/signature surface as
// StatelessCtx.
//
// Asset flow follows Alephium's approve-then-transfer pattern: ApproveAlf
// moves funds out of the active contract's spendable balance into an
// escrow the same execution can draw from; TransferAlf draws from escrow
// into a recipient's balance. UseContractAssets seeds a contract's
// spendable balance from its backing UTXO; GenerateOutput debits it
// directly to mint a fresh output.
type StatefulCtx struct {
	gasMeter
	block BlockEnv
	tx    *TxEnv

	pool     *state.ContractPool
	balances *state.Balances
	approved *state.Balances

	stack []contractFrame

	Logs    []LogEntry
	Outputs []GeneratedOutput

	nextOutIdx int
}

func NewStatefulCtx(gasLimit vm.Gas, block BlockEnv, tx *TxEnv, pool *state.ContractPool, initial *state.Balances) *StatefulCtx {
	return &StatefulCtx{
		gasMeter: gasMeter{remaining: gasLimit},
		block:    block,
		tx:       tx,
		pool:     pool,
		balances: initial,
		approved: state.NewBalances(),
	}
}

func (c *StatefulCtx) ChargeGas(g vm.Gas) error { return c.charge(g) }
func (c *StatefulCtx) GasRemaining() vm.Gas     { return c.left() }
func (c *StatefulCtx) Block() BlockEnv          { return c.block }
func (c *StatefulCtx) Tx() *TxEnv               { return c.tx }

func (c *StatefulCtx) VerifyTxSignature(pubKey, msg []byte) (bool, error) {
	sig, ok := c.tx.NextSignature()
	if !ok {
		return false, nil
	}
	return verifyEd25519(pubKey, msg, sig)
}

func (c *StatefulCtx) EthEcRecover(hash, sig []byte) ([]byte, error) {
	return ethEcRecover(hash, sig)
}

func (c *StatefulCtx) top() (*contractFrame, error) {
	if len(c.stack) == 0 {
		return nil, vm.ErrInvalidOpcode
	}
	return &c.stack[len(c.stack)-1], nil
}

func (c *StatefulCtx) LoadField(idx int) (vmval.Value, error) {
	f, err := c.top()
	if err != nil {
		return vmval.Value{}, err
	}
	if f.state == nil || idx < 0 || idx >= len(f.state.Fields) {
		return vmval.Value{}, vm.ErrInvalidOpcode
	}
	return f.state.Fields[idx], nil
}

func (c *StatefulCtx) StoreField(idx int, v vmval.Value) error {
	f, err := c.top()
	if err != nil {
		return err
	}
	if f.state == nil || idx < 0 || idx >= len(f.state.Fields) {
		return vm.ErrInvalidOpcode
	}
	f.state.Fields[idx] = v
	return nil
}

// EnterScript pushes addr — the transaction's own lockup script — as the
// active asset identity for a TxScript's entry method, with no backing
// contract state. This is what lets a script call approveAlf/transferAlf/
// generateOutput directly at its top level, the normal way of funding a
// call before dispatching to a contract, without ever going through
// EnterContract/the contract pool. LoadField/StoreField reject this frame
// since a script has no fields of its own.
func (c *StatefulCtx) EnterScript(addr vmval.Addr) {
	c.stack = append(c.stack, contractFrame{addr: addr})
}

// EnterContract loads addr's contract state from the pool and pushes it as
// the active contract, returning its method table for the caller to
// dispatch CallExternal against.
func (c *StatefulCtx) EnterContract(addr vmval.Addr) ([]vm.Method, error) {
	cs, err := c.pool.Get(addr)
	if err != nil {
		return nil, err
	}
	if cs == nil {
		return nil, vm.IOError{Kind: vm.IOErrorLoadContract}
	}
	c.stack = append(c.stack, contractFrame{addr: addr, state: cs})
	return cs.Code.Methods, nil
}

func (c *StatefulCtx) ExitContract() {
	if len(c.stack) > 0 {
		c.stack = c.stack[:len(c.stack)-1]
	}
}

func (c *StatefulCtx) ApproveAlf(amount vmval.Value) error {
	f, err := c.top()
	if err != nil {
		return err
	}
	if err := c.balances.SubAlf(f.addr, amount); err != nil {
		return err
	}
	return c.approved.AddAlf(f.addr, amount)
}

func (c *StatefulCtx) TransferAlf(to vmval.Addr, amount vmval.Value) error {
	f, err := c.top()
	if err != nil {
		return err
	}
	if err := c.approved.SubAlf(f.addr, amount); err != nil {
		return err
	}
	return c.balances.AddAlf(to, amount)
}

// UseContractAssets pulls the active contract's backing UTXO amounts into
// its spendable balance, transitioning it to InUse in the pool. A
// contract may do this at most once per execution.
func (c *StatefulCtx) UseContractAssets() (state.OutputRef, state.AssetOutput, error) {
	f, err := c.top()
	if err != nil {
		return state.OutputRef{}, state.AssetOutput{}, err
	}
	ref, out, err := c.pool.UseContractAsset(f.addr)
	if err != nil {
		return state.OutputRef{}, state.AssetOutput{}, err
	}
	if err := c.balances.AddAlf(f.addr, out.AlfAmount); err != nil {
		return state.OutputRef{}, state.AssetOutput{}, err
	}
	for id, amt := range out.Tokens {
		if err := c.balances.AddToken(f.addr, id, amt); err != nil {
			return state.OutputRef{}, state.AssetOutput{}, err
		}
	}
	return ref, out, nil
}

// GenerateOutput mints a fresh output paying to, debited directly from the
// active contract's spendable balance. When the output pays back to the
// active contract's own address, it becomes that contract's new backing
// UTXO: the pool's asset-use state transitions InUse -> Flushed, the same
// way UseContractAssets put it into InUse in the first place.
func (c *StatefulCtx) GenerateOutput(to vmval.Addr, amount vmval.Value) error {
	f, err := c.top()
	if err != nil {
		return err
	}
	if err := c.balances.SubAlf(f.addr, amount); err != nil {
		return err
	}
	c.Outputs = append(c.Outputs, GeneratedOutput{From: f.addr, To: to, Amount: amount})
	ref := state.DeriveOutputRef(c.tx.TxID, c.nextOutIdx)
	c.nextOutIdx++
	if to == f.addr {
		out := state.AssetOutput{LockupScript: to, AlfAmount: amount, Tokens: map[state.TokenID]vmval.Value{}}
		if err := c.pool.UpdateContractAsset(f.addr, ref, out); err != nil {
			return err
		}
	}
	return nil
}

func (c *StatefulCtx) EmitLog(eventID []byte, args []vmval.Value) error {
	f, err := c.top()
	if err != nil {
		return err
	}
	c.Logs = append(c.Logs, LogEntry{ContractAddr: f.addr, EventID: eventID, Args: args})
	return nil
}

// NextOutputIndex returns the running count of outputs generated so far,
// used to derive each OutputRef deterministically alongside the tx ID.
func (c *StatefulCtx) NextOutputIndex() int { return c.nextOutIdx }

// FinalCheck enforces the terminal invariant across every contract this
// execution touched.
func (c *StatefulCtx) FinalCheck() error { return c.pool.FinalCheck() }

// OutputBalances exposes the accumulated balances for callers assembling the
// transaction's final output set once execution completes.
func (c *StatefulCtx) OutputBalances() *state.Balances { return c.balances }
