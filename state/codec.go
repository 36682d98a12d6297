package state

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/alephium/alphvm/serialize"
	"github.com/alephium/alphvm/vm"
	"github.com/alephium/alphvm/vmval"
)

// encodeContractState/decodeContractState persist a ContractState record.
// Code is stored by content hash in the code trie and cached in-process by
// codeCache, rather than being
// duplicated inline for every contract sharing the same compiled code.
func encodeContractState(c *ContractState) []byte {
	var buf bytes.Buffer
	buf.Write([]byte(c.ID))
	buf.WriteByte(0) // id/address separator
	buf.Write(c.Address.Hash[:])
	buf.WriteByte(byte(c.Address.Kind))
	buf.Write(c.CodeHash[:])
	fieldsEnc, _ := serialize.EncodeValuesToBytes(c.Fields)
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(fieldsEnc)))
	buf.Write(lenBuf[:])
	buf.Write(fieldsEnc)
	buf.Write(c.OutputRef[:])
	outEnc := encodeAssetOutput(c.Output)
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(outEnc)))
	buf.Write(lenBuf[:])
	buf.Write(outEnc)
	return buf.Bytes()
}

func decodeContractState(data []byte, cache *codeCache, codeTrie Trie) (*ContractState, error) {
	r := bytes.NewReader(data)
	idBuf, err := readUntilZero(r)
	if err != nil {
		return nil, err
	}
	var addr vmval.Addr
	if _, err := io.ReadFull(r, addr.Hash[:]); err != nil {
		return nil, err
	}
	kindByte, err := readByte(r)
	if err != nil {
		return nil, err
	}
	addr.Kind = vmval.LockupKind(kindByte)
	var codeHash [32]byte
	if _, err := io.ReadFull(r, codeHash[:]); err != nil {
		return nil, err
	}
	fieldsEnc, err := readBlock(r)
	if err != nil {
		return nil, err
	}
	fields, err := serialize.DecodeValues(fieldsEnc)
	if err != nil {
		return nil, err
	}
	var outputRef OutputRef
	if _, err := io.ReadFull(r, outputRef[:]); err != nil {
		return nil, err
	}
	outEnc, err := readBlock(r)
	if err != nil {
		return nil, err
	}
	output, err := decodeAssetOutput(outEnc)
	if err != nil {
		return nil, err
	}
	code, err := cache.getOrLoad(codeHash, codeTrie)
	if err != nil {
		return nil, err
	}
	return &ContractState{
		ID: vmval.ContractID(idBuf), Address: addr, Code: code, CodeHash: codeHash,
		Fields: fields, OutputRef: outputRef, Output: output,
	}, nil
}

func readUntilZero(r *bytes.Reader) ([]byte, error) {
	var out []byte
	for {
		b, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		if b == 0 {
			return out, nil
		}
		out = append(out, b)
	}
}

func readByte(r *bytes.Reader) (byte, error) { return r.ReadByte() }

func readBlock(r *bytes.Reader) ([]byte, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint32(lenBuf[:])
	out := make([]byte, n)
	if _, err := io.ReadFull(r, out); err != nil {
		return nil, err
	}
	return out, nil
}

func encodeAssetOutput(o AssetOutput) []byte {
	var buf bytes.Buffer
	buf.Write(o.LockupScript.Hash[:])
	buf.WriteByte(byte(o.LockupScript.Kind))
	amt := o.AlfAmount.U256().Bytes32()
	buf.Write(amt[:])
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(o.Tokens)))
	buf.Write(lenBuf[:])
	for id, v := range o.Tokens {
		buf.Write(id[:])
		b := v.U256().Bytes32()
		buf.Write(b[:])
	}
	return buf.Bytes()
}

func decodeAssetOutput(data []byte) (AssetOutput, error) {
	r := bytes.NewReader(data)
	var out AssetOutput
	if _, err := io.ReadFull(r, out.LockupScript.Hash[:]); err != nil {
		return out, err
	}
	kindByte, err := r.ReadByte()
	if err != nil {
		return out, err
	}
	out.LockupScript.Kind = vmval.LockupKind(kindByte)
	var amt [32]byte
	if _, err := io.ReadFull(r, amt[:]); err != nil {
		return out, err
	}
	out.AlfAmount = u256FromBytes32(amt)
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return out, err
	}
	n := binary.BigEndian.Uint32(lenBuf[:])
	out.Tokens = make(map[TokenID]vmval.Value, n)
	for i := uint32(0); i < n; i++ {
		var id TokenID
		if _, err := io.ReadFull(r, id[:]); err != nil {
			return out, err
		}
		var b [32]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return out, err
		}
		out.Tokens[id] = u256FromBytes32(b)
	}
	return out, nil
}

// codeCache is an LRU-bounded, hash-keyed cache of decoded contract code: an
// LRU in front of an expensive decode step, applied to contract code
// deserialization instead of bytecode-to-target-form conversion.
type codeCache struct {
	inner *lruCodeCache
}

const defaultCodeCacheSize = 4096

func newCodeCache(size int) *codeCache {
	return &codeCache{inner: newLRUCodeCache(size)}
}

func (c *codeCache) getOrLoad(hash [32]byte, trie Trie) (*vm.StatefulContract, error) {
	if code, ok := c.inner.get(hash); ok {
		return code, nil
	}
	raw, found, err := trie.Get(hash)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, errCodeNotFound(hash)
	}
	contract, err := serialize.DecodeStatefulContract(raw)
	if err != nil {
		return nil, err
	}
	c.inner.add(hash, &contract)
	return &contract, nil
}

type errCodeNotFound [32]byte

func (e errCodeNotFound) Error() string { return "code hash not found in code trie" }
