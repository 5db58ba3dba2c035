package sigcheck_test

import (
	"math/big"
	"testing"

	"go-bitcoin/internal/keys"
	"go-bitcoin/internal/script"
	"go-bitcoin/internal/sigcheck"
)

func p2pkScript(pubkey []byte) script.Script {
	return script.NewScript([]script.ScriptCommand{
		{Data: pubkey, IsData: true},
		{Opcode: 0xac}, // OP_CHECKSIG
	})
}

func TestDefaultVerifiesRealSignature(t *testing.T) {
	pk := keys.NewPrivateKey(big.NewInt(12345))
	z := big.NewInt(9999)

	sig, err := pk.Sign(z)
	if err != nil {
		t.Fatalf("sign failed: %v", err)
	}
	derSig := append(sig.Serialize(), 0x01) // SIGHASH_ALL
	pubkey := pk.PublicKey().Serialize(true)

	scriptSig := script.NewScript([]script.ScriptCommand{{Data: derSig, IsData: true}})
	combined := scriptSig.Combine(p2pkScript(pubkey))

	if !combined.EvaluateWithCheckSig(z.Bytes(), nil, sigcheck.Default()) {
		t.Fatal("expected genuine signature to verify")
	}
}

func TestDefaultRejectsWrongKey(t *testing.T) {
	pk := keys.NewPrivateKey(big.NewInt(12345))
	other := keys.NewPrivateKey(big.NewInt(54321))
	z := big.NewInt(9999)

	sig, err := pk.Sign(z)
	if err != nil {
		t.Fatalf("sign failed: %v", err)
	}
	derSig := append(sig.Serialize(), 0x01)
	wrongPubkey := other.PublicKey().Serialize(true)

	scriptSig := script.NewScript([]script.ScriptCommand{{Data: derSig, IsData: true}})
	combined := scriptSig.Combine(p2pkScript(wrongPubkey))

	if combined.EvaluateWithCheckSig(z.Bytes(), nil, sigcheck.Default()) {
		t.Fatal("signature from a different key should not verify")
	}
}

func TestEvaluateWithoutCheckSigFailsClosed(t *testing.T) {
	pk := keys.NewPrivateKey(big.NewInt(12345))
	z := big.NewInt(9999)

	sig, err := pk.Sign(z)
	if err != nil {
		t.Fatalf("sign failed: %v", err)
	}
	derSig := append(sig.Serialize(), 0x01)
	pubkey := pk.PublicKey().Serialize(true)

	scriptSig := script.NewScript([]script.ScriptCommand{{Data: derSig, IsData: true}})
	combined := scriptSig.Combine(p2pkScript(pubkey))

	if combined.Evaluate(z.Bytes(), nil) {
		t.Fatal("Evaluate without a wired CheckSig should fail closed")
	}
}
