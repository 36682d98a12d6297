package vm

// Gas is the abstract cost unit consumed per instruction.
type Gas int64

// Named gas constants used by the end-to-end execution scenarios below,
// naming every charged constant instead of inlining magic numbers.
const (
	BaseCallCost   Gas = 200 // charged once per CallLocal/CallExternal and for the top-level entry call
	ConstCost      Gas = 2
	PopCost        Gas = 2
	LoadLocalCost  Gas = 3
	StoreLocalCost Gas = 3
	LoadFieldCost  Gas = 5
	StoreFieldCost Gas = 5
	ArithCost      Gas = 3
	AddU256Cost    Gas = ArithCost
	SubU256Cost    Gas = ArithCost
	MulU256Cost    Gas = 5
	DivU256Cost    Gas = 5
	ModU256Cost    Gas = 5
	AddI256Cost    Gas = ArithCost
	SubI256Cost    Gas = ArithCost
	MulI256Cost    Gas = 5
	DivI256Cost    Gas = 5
	ModI256Cost    Gas = 5
	CompareCost    Gas = 3
	LogicCost      Gas = 3
	JumpCost       Gas = 8
	BranchCost     Gas = 10
	ReturnCost     Gas = 0

	// Crypto: fixed overhead, additional per-byte cost applied by
	// hashInputGas / signatureGas below for input-size-dependent ops.
	CryptoBaseCost   Gas = 100
	CryptoPerByte    Gas = 1
	EthEcRecoverCost Gas = 3000 // fixed: secp256k1 recovery cost does not scale with input

	LogBaseCost   Gas = 100
	LogPerArg     Gas = 20
	ApproveCost   Gas = 30
	TransferCost  Gas = 30
	UseAssetsCost Gas = 200
	GenOutputCost Gas = 200
)

var staticGasCosts [numOpCodes]Gas

func init() {
	staticGasCosts[ConstTrue] = ConstCost
	staticGasCosts[ConstFalse] = ConstCost
	staticGasCosts[ConstU256] = ConstCost
	staticGasCosts[ConstI256] = ConstCost
	// ConstByteVec and ConstAddress: base cost only here; ConstByteVec's
	// per-byte component is added by InstructionGas below.
	staticGasCosts[ConstByteVec] = ConstCost
	staticGasCosts[ConstAddress] = ConstCost
	staticGasCosts[Pop] = PopCost

	staticGasCosts[AddU256] = AddU256Cost
	staticGasCosts[SubU256] = SubU256Cost
	staticGasCosts[MulU256] = MulU256Cost
	staticGasCosts[DivU256] = DivU256Cost
	staticGasCosts[ModU256] = ModU256Cost
	staticGasCosts[AddI256] = AddI256Cost
	staticGasCosts[SubI256] = SubI256Cost
	staticGasCosts[MulI256] = MulI256Cost
	staticGasCosts[DivI256] = DivI256Cost
	staticGasCosts[ModI256] = ModI256Cost

	for _, op := range []OpCode{LtU256, GtU256, LeU256, GeU256, LtI256, GtI256, LeI256, GeI256, Eq, Ne} {
		staticGasCosts[op] = CompareCost
	}
	for _, op := range []OpCode{BoolAnd, BoolOr, BoolNot} {
		staticGasCosts[op] = LogicCost
	}

	staticGasCosts[Jump] = JumpCost
	staticGasCosts[IfTrue] = BranchCost
	staticGasCosts[IfFalse] = BranchCost
	staticGasCosts[Return] = ReturnCost

	staticGasCosts[CallLocal] = BaseCallCost
	staticGasCosts[CallExternal] = BaseCallCost

	staticGasCosts[LoadLocal] = LoadLocalCost
	staticGasCosts[StoreLocal] = StoreLocalCost
	staticGasCosts[LoadField] = LoadFieldCost
	staticGasCosts[StoreField] = StoreFieldCost

	staticGasCosts[Blake2b] = CryptoBaseCost
	staticGasCosts[Keccak256] = CryptoBaseCost
	staticGasCosts[VerifyTxSignature] = CryptoBaseCost
	staticGasCosts[EthEcRecover] = EthEcRecoverCost

	staticGasCosts[Log] = LogBaseCost
	staticGasCosts[ApproveAlf] = ApproveCost
	staticGasCosts[TransferAlf] = TransferCost
	staticGasCosts[UseContractAssets] = UseAssetsCost
	staticGasCosts[GenerateOutput] = GenOutputCost
}

// StaticGas returns op's fixed component of gas cost, ignoring any
// input-size-dependent surcharge (see InstructionGas).
func StaticGas(op OpCode) Gas {
	if !op.IsValid() {
		return 0
	}
	return staticGasCosts[op]
}

// InstructionGas returns the full charge for executing instr, including the
// size-dependent surcharges for hashing and byte-vector operations.
func InstructionGas(instr Instruction) Gas {
	base := StaticGas(instr.Op)
	switch instr.Op {
	case ConstByteVec:
		return base + Gas(len(instr.Bytes))*CryptoPerByte
	case Log:
		return base + Gas(instr.N)*LogPerArg
	default:
		return base
	}
}

// HashInputGas returns the additional charge for hashing n bytes with
// Blake2b or Keccak256, on top of their static base cost.
func HashInputGas(n int) Gas { return Gas(n) * CryptoPerByte }

// SignatureVerifyGas returns the additional charge for VerifyTxSignature
// over an n-byte message.
func SignatureVerifyGas(n int) Gas { return Gas(n) * CryptoPerByte }
