package runtime

import (
	"github.com/alephium/alphvm/vm"
	"github.com/alephium/alphvm/vmval"
)

// operandStackCapacity and maxFrameDepth bound the two stacks the
// interpreter drives; both are generous fixed limits rather than
// dynamically resizable, matching the protocol's "no unbounded recursion"
// posture.
const (
	operandStackCapacity = 1024
	maxFrameDepth         = 1024
)

// Frame is one active method invocation: its instruction pointer, its
// locals slots, and its own operand stack. entered records whether this
// frame's CallExternal pushed a new active contract onto the context, so
// Return knows whether it owes a matching ExitContract.
type Frame struct {
	Methods []vm.Method
	Method  *vm.Method
	PC      int
	Locals  []vmval.Value
	Operand *Stack[vmval.Value]

	entered bool
}

func newFrame(methods []vm.Method, methodIdx int, args []vmval.Value, entered bool) (*Frame, error) {
	m := &methods[methodIdx]
	if len(args) > m.LocalsLength {
		return nil, vm.ErrInvalidOpcode
	}
	locals := make([]vmval.Value, m.LocalsLength)
	copy(locals, args)
	// Locals beyond the supplied arguments start zero-valued; since Frame
	// has no static type table of its own, callers that need typed zero
	// values (arrays, addresses) must have already been checked by the
	// compiler to only read a local after writing it first.
	return &Frame{
		Methods: methods,
		Method:  m,
		Locals:  locals,
		Operand: NewStack[vmval.Value](operandStackCapacity),
		entered: entered,
	}, nil
}
