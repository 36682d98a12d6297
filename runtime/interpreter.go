package runtime

import (
	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/sha3"

	"github.com/alephium/alphvm/execctx"
	"github.com/alephium/alphvm/vm"
	"github.com/alephium/alphvm/vmval"
)

// Execute runs methods[entryIndex] with args as its initial locals, driving
// the frame-stack loop until the entry frame returns or execution fails. It never panics on well-formed input: any failure — gas exhaustion,
// stack over/underflow, an arithmetic error, a storage failure surfaced by
// ctx — comes back as a non-empty Outcome instead.
func Execute(ctx execctx.Context, methods []vm.Method, entryIndex int, args []vmval.Value) ([]vmval.Value, vm.Outcome) {
	if entryIndex < 0 || entryIndex >= len(methods) {
		return nil, vm.ExecOutcome(vm.ErrInvalidOpcode)
	}
	if err := ctx.ChargeGas(vm.BaseCallCost); err != nil {
		return nil, vm.ExecOutcome(err)
	}
	entry, err := newFrame(methods, entryIndex, args, false)
	if err != nil {
		return nil, vm.ExecOutcome(err)
	}
	frames := make([]*Frame, 0, maxFrameDepth)
	frames = append(frames, entry)

	for {
		cur := frames[len(frames)-1]
		if cur.PC < 0 || cur.PC >= len(cur.Method.Instrs) {
			return nil, vm.ExecOutcome(vm.InvalidPc{Target: cur.PC})
		}
		instr := cur.Method.Instrs[cur.PC]

		if err := ctx.ChargeGas(vm.InstructionGas(instr)); err != nil {
			return nil, vm.ExecOutcome(err)
		}

		switch instr.Op {
		case vm.ConstTrue:
			if err := cur.Operand.Push(vmval.NewBool(true)); err != nil {
				return nil, vm.ExecOutcome(err)
			}
			cur.PC++
		case vm.ConstFalse:
			if err := cur.Operand.Push(vmval.NewBool(false)); err != nil {
				return nil, vm.ExecOutcome(err)
			}
			cur.PC++
		case vm.ConstU256:
			if err := cur.Operand.Push(vmval.NewU256(instr.Num)); err != nil {
				return nil, vm.ExecOutcome(err)
			}
			cur.PC++
		case vm.ConstI256:
			if err := cur.Operand.Push(vmval.NewI256(instr.Num)); err != nil {
				return nil, vm.ExecOutcome(err)
			}
			cur.PC++
		case vm.ConstByteVec:
			if err := cur.Operand.Push(vmval.NewByteVec(instr.Bytes)); err != nil {
				return nil, vm.ExecOutcome(err)
			}
			cur.PC++
		case vm.ConstAddress:
			if err := cur.Operand.Push(vmval.NewAddress(instr.Addr)); err != nil {
				return nil, vm.ExecOutcome(err)
			}
			cur.PC++
		case vm.Pop:
			if _, err := cur.Operand.Pop(); err != nil {
				return nil, vm.ExecOutcome(err)
			}
			cur.PC++

		case vm.AddU256, vm.SubU256, vm.MulU256, vm.DivU256, vm.ModU256,
			vm.AddI256, vm.SubI256, vm.MulI256, vm.DivI256, vm.ModI256:
			if out, ok := doArith(cur, instr.Op); !ok {
				return nil, out
			}
			cur.PC++

		case vm.LtU256, vm.GtU256, vm.LeU256, vm.GeU256,
			vm.LtI256, vm.GtI256, vm.LeI256, vm.GeI256, vm.Eq, vm.Ne:
			if out, ok := doCompare(cur, instr.Op); !ok {
				return nil, out
			}
			cur.PC++

		case vm.BoolAnd, vm.BoolOr, vm.BoolNot:
			if out, ok := doLogic(cur, instr.Op); !ok {
				return nil, out
			}
			cur.PC++

		case vm.Jump:
			target := cur.PC + 1 + int(instr.Offset)
			if target < 0 || target >= len(cur.Method.Instrs) {
				return nil, vm.ExecOutcome(vm.InvalidPc{Target: target})
			}
			cur.PC = target

		case vm.IfTrue, vm.IfFalse:
			v, err := cur.Operand.Pop()
			if err != nil {
				return nil, vm.ExecOutcome(err)
			}
			take := v.Bool() == (instr.Op == vm.IfTrue)
			if take {
				target := cur.PC + 1 + int(instr.Offset)
				if target < 0 || target >= len(cur.Method.Instrs) {
					return nil, vm.ExecOutcome(vm.InvalidPc{Target: target})
				}
				cur.PC = target
			} else {
				cur.PC++
			}

		case vm.Return:
			rets := make([]vmval.Value, cur.Method.ReturnLength)
			for i := cur.Method.ReturnLength - 1; i >= 0; i-- {
				v, err := cur.Operand.Pop()
				if err != nil {
					return nil, vm.ExecOutcome(err)
				}
				rets[i] = v
			}
			if cur.entered {
				ctx.ExitContract()
			}
			frames = frames[:len(frames)-1]
			if len(frames) == 0 {
				return rets, vm.Outcome{}
			}
			caller := frames[len(frames)-1]
			for _, v := range rets {
				if err := caller.Operand.Push(v); err != nil {
					return nil, vm.ExecOutcome(err)
				}
			}

		case vm.CallLocal:
			if int(instr.Index) >= len(cur.Methods) {
				return nil, vm.ExecOutcome(vm.ErrInvalidOpcode)
			}
			callee := cur.Methods[instr.Index]
			args, err := popArgs(cur, callee.ArgsLength)
			if err != nil {
				return nil, vm.ExecOutcome(err)
			}
			if len(frames) >= maxFrameDepth {
				return nil, vm.ExecOutcome(vm.ErrStackOverflow)
			}
			nf, err := newFrame(cur.Methods, int(instr.Index), args, false)
			if err != nil {
				return nil, vm.ExecOutcome(err)
			}
			cur.PC++
			frames = append(frames, nf)

		case vm.CallExternal:
			handle, err := cur.Operand.Pop()
			if err != nil {
				return nil, vm.ExecOutcome(err)
			}
			ht := handle.Type()
			if ht.Kind != vmval.KindAddress && (ht.Kind != vmval.KindContract || ht.ContractID != instr.ContractID) {
				return nil, vm.ExecOutcome(vm.ErrInvalidOpcode)
			}
			calleeMethods, ioErr := ctx.EnterContract(handle.Address())
			if ioErr != nil {
				return nil, outcomeFor(ioErr)
			}
			if int(instr.CalleeIndex) >= len(calleeMethods) {
				ctx.ExitContract()
				return nil, vm.ExecOutcome(vm.ErrInvalidOpcode)
			}
			callee := calleeMethods[instr.CalleeIndex]
			args, err := popArgs(cur, callee.ArgsLength)
			if err != nil {
				ctx.ExitContract()
				return nil, vm.ExecOutcome(err)
			}
			if len(frames) >= maxFrameDepth {
				ctx.ExitContract()
				return nil, vm.ExecOutcome(vm.ErrStackOverflow)
			}
			nf, err := newFrame(calleeMethods, int(instr.CalleeIndex), args, true)
			if err != nil {
				ctx.ExitContract()
				return nil, vm.ExecOutcome(err)
			}
			cur.PC++
			frames = append(frames, nf)

		case vm.LoadLocal:
			if int(instr.Index) >= len(cur.Locals) {
				return nil, vm.ExecOutcome(vm.ErrInvalidOpcode)
			}
			if err := cur.Operand.Push(cur.Locals[instr.Index]); err != nil {
				return nil, vm.ExecOutcome(err)
			}
			cur.PC++
		case vm.StoreLocal:
			if int(instr.Index) >= len(cur.Locals) {
				return nil, vm.ExecOutcome(vm.ErrInvalidOpcode)
			}
			v, err := cur.Operand.Pop()
			if err != nil {
				return nil, vm.ExecOutcome(err)
			}
			cur.Locals[instr.Index] = v
			cur.PC++

		case vm.LoadField:
			v, err := ctx.LoadField(int(instr.Index))
			if err != nil {
				return nil, outcomeFor(err)
			}
			if err := cur.Operand.Push(v); err != nil {
				return nil, vm.ExecOutcome(err)
			}
			cur.PC++
		case vm.StoreField:
			v, err := cur.Operand.Pop()
			if err != nil {
				return nil, vm.ExecOutcome(err)
			}
			if err := ctx.StoreField(int(instr.Index), v); err != nil {
				return nil, outcomeFor(err)
			}
			cur.PC++

		case vm.Blake2b, vm.Keccak256:
			v, err := cur.Operand.Pop()
			if err != nil {
				return nil, vm.ExecOutcome(err)
			}
			data := v.ByteVec()
			if err := ctx.ChargeGas(vm.HashInputGas(len(data))); err != nil {
				return nil, vm.ExecOutcome(err)
			}
			var digest []byte
			if instr.Op == vm.Blake2b {
				sum := blake2b.Sum256(data)
				digest = sum[:]
			} else {
				sum := sha3.NewLegacyKeccak256()
				sum.Write(data)
				digest = sum.Sum(nil)
			}
			if err := cur.Operand.Push(vmval.NewByteVec(digest)); err != nil {
				return nil, vm.ExecOutcome(err)
			}
			cur.PC++

		case vm.VerifyTxSignature:
			msg, err := cur.Operand.Pop()
			if err != nil {
				return nil, vm.ExecOutcome(err)
			}
			pubKey, err := cur.Operand.Pop()
			if err != nil {
				return nil, vm.ExecOutcome(err)
			}
			if err := ctx.ChargeGas(vm.SignatureVerifyGas(len(msg.ByteVec()))); err != nil {
				return nil, vm.ExecOutcome(err)
			}
			ok, err := ctx.VerifyTxSignature(pubKey.ByteVec(), msg.ByteVec())
			if err != nil {
				return nil, outcomeFor(err)
			}
			if err := cur.Operand.Push(vmval.NewBool(ok)); err != nil {
				return nil, vm.ExecOutcome(err)
			}
			cur.PC++

		case vm.EthEcRecover:
			sig, err := cur.Operand.Pop()
			if err != nil {
				return nil, vm.ExecOutcome(err)
			}
			hash, err := cur.Operand.Pop()
			if err != nil {
				return nil, vm.ExecOutcome(err)
			}
			pub, err := ctx.EthEcRecover(hash.ByteVec(), sig.ByteVec())
			if err != nil {
				return nil, outcomeFor(err)
			}
			if err := cur.Operand.Push(vmval.NewByteVec(pub)); err != nil {
				return nil, vm.ExecOutcome(err)
			}
			cur.PC++

		case vm.Log:
			eventID, err := cur.Operand.Pop()
			if err != nil {
				return nil, vm.ExecOutcome(err)
			}
			args := make([]vmval.Value, instr.N)
			for i := int(instr.N) - 1; i >= 0; i-- {
				v, err := cur.Operand.Pop()
				if err != nil {
					return nil, vm.ExecOutcome(err)
				}
				args[i] = v
			}
			if err := ctx.EmitLog(eventID.ByteVec(), args); err != nil {
				return nil, outcomeFor(err)
			}
			cur.PC++

		case vm.ApproveAlf:
			amount, err := cur.Operand.Pop()
			if err != nil {
				return nil, vm.ExecOutcome(err)
			}
			if err := ctx.ApproveAlf(amount); err != nil {
				return nil, outcomeFor(err)
			}
			cur.PC++

		case vm.TransferAlf:
			amount, err := cur.Operand.Pop()
			if err != nil {
				return nil, vm.ExecOutcome(err)
			}
			to, err := cur.Operand.Pop()
			if err != nil {
				return nil, vm.ExecOutcome(err)
			}
			if err := ctx.TransferAlf(to.Address(), amount); err != nil {
				return nil, outcomeFor(err)
			}
			cur.PC++

		case vm.UseContractAssets:
			if _, _, err := ctx.UseContractAssets(); err != nil {
				return nil, outcomeFor(err)
			}
			cur.PC++

		case vm.GenerateOutput:
			amount, err := cur.Operand.Pop()
			if err != nil {
				return nil, vm.ExecOutcome(err)
			}
			to, err := cur.Operand.Pop()
			if err != nil {
				return nil, vm.ExecOutcome(err)
			}
			if err := ctx.GenerateOutput(to.Address(), amount); err != nil {
				return nil, outcomeFor(err)
			}
			cur.PC++

		default:
			return nil, vm.ExecOutcome(vm.ErrInvalidOpcode)
		}
	}
}

func popArgs(f *Frame, n int) ([]vmval.Value, error) {
	args := make([]vmval.Value, n)
	for i := n - 1; i >= 0; i-- {
		v, err := f.Operand.Pop()
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	return args, nil
}

// outcomeFor classifies an error surfaced by the execution context as an
// IOError (abort without commit) or a plain execution error, per the
// distinction vm.IOError already encodes.
func outcomeFor(err error) vm.Outcome {
	if ioErr, ok := err.(vm.IOError); ok {
		return vm.Outcome{IO: &ioErr}
	}
	return vm.ExecOutcome(err)
}

func doArith(f *Frame, op vm.OpCode) (vm.Outcome, bool) {
	y, err := f.Operand.Pop()
	if err != nil {
		return vm.ExecOutcome(err), false
	}
	x, err := f.Operand.Pop()
	if err != nil {
		return vm.ExecOutcome(err), false
	}
	var (
		res vmval.Value
		aerr error
	)
	switch op {
	case vm.AddU256:
		res, aerr = vmval.AddU256(x, y)
	case vm.SubU256:
		res, aerr = vmval.SubU256(x, y)
	case vm.MulU256:
		res, aerr = vmval.MulU256(x, y)
	case vm.DivU256:
		res, aerr = vmval.DivU256(x, y)
	case vm.ModU256:
		res, aerr = vmval.ModU256(x, y)
	case vm.AddI256:
		res, aerr = vmval.AddI256(x, y)
	case vm.SubI256:
		res, aerr = vmval.SubI256(x, y)
	case vm.MulI256:
		res, aerr = vmval.MulI256(x, y)
	case vm.DivI256:
		res, aerr = vmval.DivI256(x, y)
	case vm.ModI256:
		res, aerr = vmval.ModI256(x, y)
	}
	if aerr != nil {
		return vm.ExecOutcome(aerr), false
	}
	if err := f.Operand.Push(res); err != nil {
		return vm.ExecOutcome(err), false
	}
	return vm.Outcome{}, true
}

func doCompare(f *Frame, op vm.OpCode) (vm.Outcome, bool) {
	y, err := f.Operand.Pop()
	if err != nil {
		return vm.ExecOutcome(err), false
	}
	x, err := f.Operand.Pop()
	if err != nil {
		return vm.ExecOutcome(err), false
	}
	var result bool
	switch op {
	case vm.Eq:
		result = x.Equal(y)
	case vm.Ne:
		result = !x.Equal(y)
	case vm.LtU256:
		result = x.U256().Lt(y.U256())
	case vm.GtU256:
		result = x.U256().Gt(y.U256())
	case vm.LeU256:
		result = !x.U256().Gt(y.U256())
	case vm.GeU256:
		result = !x.U256().Lt(y.U256())
	case vm.LtI256:
		result = signedLt(x, y)
	case vm.GtI256:
		result = signedLt(y, x)
	case vm.LeI256:
		result = !signedLt(y, x)
	case vm.GeI256:
		result = !signedLt(x, y)
	}
	if err := f.Operand.Push(vmval.NewBool(result)); err != nil {
		return vm.ExecOutcome(err), false
	}
	return vm.Outcome{}, true
}

// signedLt compares two I256 values honoring two's-complement sign: for
// operands sharing a sign bit, comparing their raw 256-bit patterns as
// unsigned gives the same order as comparing them as signed values.
func signedLt(x, y vmval.Value) bool {
	xs, ys := x.Sign(), y.Sign()
	if xs != ys {
		return xs < ys
	}
	return x.I256().Lt(y.I256())
}

func doLogic(f *Frame, op vm.OpCode) (vm.Outcome, bool) {
	if op == vm.BoolNot {
		v, err := f.Operand.Pop()
		if err != nil {
			return vm.ExecOutcome(err), false
		}
		if err := f.Operand.Push(vmval.NewBool(!v.Bool())); err != nil {
			return vm.ExecOutcome(err), false
		}
		return vm.Outcome{}, true
	}
	y, err := f.Operand.Pop()
	if err != nil {
		return vm.ExecOutcome(err), false
	}
	x, err := f.Operand.Pop()
	if err != nil {
		return vm.ExecOutcome(err), false
	}
	var result bool
	if op == vm.BoolAnd {
		result = x.Bool() && y.Bool()
	} else {
		result = x.Bool() || y.Bool()
	}
	if err := f.Operand.Push(vmval.NewBool(result)); err != nil {
		return vm.ExecOutcome(err), false
	}
	return vm.Outcome{}, true
}
