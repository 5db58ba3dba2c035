// Package sigcheck is the default adapter between the script VM's
// CheckSig callback and the ECDSA primitives in internal/eccmath and
// internal/keys. internal/script never imports either package directly;
// anything that wants real signature verification wires Default() in.
package sigcheck

import (
	"bytes"
	"math/big"

	"go-bitcoin/internal/eccmath"
	"go-bitcoin/internal/keys"
	"go-bitcoin/internal/script"
)

// Default returns a script.CheckSig backed by secp256k1 ECDSA. A
// malformed signature or pubkey verifies false rather than erroring,
// matching how a script VM treats any other CHECKSIG failure. z is
// taken as the final sighash as-is; scriptCode is unused here because
// this adapter doesn't recompute its own sighash from the subscript -
// a caller that needs CODESEPARATOR to change what z covers must fold
// scriptCode into z before calling Evaluate.
func Default() script.CheckSig {
	return func(z *big.Int, derSig, pubkey, scriptCode []byte) bool {
		sig, err := eccmath.ParseSignature(bytes.NewReader(derSig))
		if err != nil {
			return false
		}
		pub, err := keys.ParsePublicKey(bytes.NewReader(pubkey))
		if err != nil {
			return false
		}
		return pub.Verify(z, sig)
	}
}
