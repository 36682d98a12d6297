package compiler

import (
	"github.com/holiman/uint256"

	"github.com/alephium/alphvm/vmval"
)

func u256FromInt(i int) vmval.Value {
	if i < 0 {
		return vmval.NewI256FromInt64(int64(i))
	}
	return vmval.NewU256(uint256.NewInt(uint64(i)))
}
