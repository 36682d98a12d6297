// Package execctx implements the stateless and stateful execution contexts:
// block/tx environment, gas metering, and — for stateful contexts —
// world-state staging, balances, generated outputs, and the contract pool.
package execctx

import "github.com/alephium/alphvm/state"

// BlockEnv summarizes the current block.
type BlockEnv struct {
	ChainID          uint64
	Timestamp        int64
	DifficultyTarget uint64
	HardFork         string
}

// TxEnv summarizes the current transaction and its signature stack.
// VerifyTxSignature draws from SignatureStack in order: each call consumes
// the next entry, whether or not the signature verifies. EthEcRecover takes
// its signature from the operand stack, not from SignatureStack.
type TxEnv struct {
	TxID           [32]byte
	PrevOutputs    []state.AssetOutput
	SignatureStack [][]byte

	sigPos int
}

// NextSignature pops the next signature off the stack, in order.
func (t *TxEnv) NextSignature() ([]byte, bool) {
	if t.sigPos >= len(t.SignatureStack) {
		return nil, false
	}
	sig := t.SignatureStack[t.sigPos]
	t.sigPos++
	return sig, true
}
