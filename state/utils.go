package state

import (
	"encoding/binary"

	"golang.org/x/crypto/blake2b"

	"github.com/holiman/uint256"

	"github.com/alephium/alphvm/vmval"
)

func u256FromBytes32(b [32]byte) vmval.Value {
	return vmval.NewU256(new(uint256.Int).SetBytes32(b[:]))
}

// DeriveOutputRef derives the deterministic reference for the index-th
// output generated by txID, matching OutputRef's (txId, output, index)
// contract.
func DeriveOutputRef(txID [32]byte, index int) OutputRef {
	var buf [40]byte
	copy(buf[:32], txID[:])
	binary.BigEndian.PutUint64(buf[32:], uint64(index))
	return OutputRef(blake2b.Sum256(buf[:]))
}
