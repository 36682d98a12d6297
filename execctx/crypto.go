package execctx

import (
	"crypto/ed25519"
	"fmt"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// verifyEd25519 checks sig against msg under pubKey. Alephium's default
// asset lockup scheme is ed25519, unlike Ethereum's secp256k1 — there is no
// ed25519 library anywhere in the retrieved example pack, so this one case
// falls back to the standard library (see DESIGN.md).
func verifyEd25519(pubKey, msg, sig []byte) (bool, error) {
	if len(pubKey) != ed25519.PublicKeySize {
		return false, fmt.Errorf("execctx: invalid ed25519 public key length %d", len(pubKey))
	}
	if len(sig) != ed25519.SignatureSize {
		return false, fmt.Errorf("execctx: invalid ed25519 signature length %d", len(sig))
	}
	return ed25519.Verify(ed25519.PublicKey(pubKey), msg, sig), nil
}

// ethEcRecover recovers the uncompressed public key that produced sig over
// hash, using go-ethereum's secp256k1 binding — the same recovery primitive
// EthEcRecover exposes to contracts that need to verify Ethereum-style
// signatures.
func ethEcRecover(hash, sig []byte) ([]byte, error) {
	pub, err := ethcrypto.Ecrecover(hash, sig)
	if err != nil {
		return nil, err
	}
	return pub, nil
}
