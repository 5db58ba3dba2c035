package transactions_test

import (
	"bytes"
	"encoding/hex"
	"go-bitcoin/internal/transactions"
	"testing"
)

// legacyTxHex is a single-input, single-output legacy (pre-SegWit) mainnet
// transaction, used to check that parse -> serialize round-trips byte for
// byte.
const legacyTxHex = "0100000001813f79011acb80925dfe69b3def355fe914bd1d96a3f5f71bf8303c6a989c7d1000000006b483045022100ed81ff192e75a3fd2304004dcadb746fa5e24c5031ccfcf21320b0277457c98f02207a986d955c6e0cb35d446a89d3f56100f4d7f67801c31967743a9c8e10615bed01210349fc4e631e3624a545de3f89f5d8684c7ac857432bf1e07fb6b0ba0b11b0d2db0400000001a0860100000000001976a914097072524438d003d23a2f23edb65aae1bb3e24188ac00000000"

func TestParseLegacyTransactionRoundTrip(t *testing.T) {
	raw, err := hex.DecodeString(legacyTxHex)
	if err != nil {
		t.Fatal(err)
	}

	tx, err := transactions.ParseTransaction(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if tx.IsSegwit {
		t.Fatal("expected legacy transaction")
	}
	if len(tx.Inputs) != 1 || len(tx.Outputs) != 1 {
		t.Fatalf("unexpected shape: %d inputs, %d outputs", len(tx.Inputs), len(tx.Outputs))
	}

	out, err := tx.Serialize()
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}
	if !bytes.Equal(out, raw) {
		t.Fatalf("round trip mismatch:\n got  %x\n want %x", out, raw)
	}

	id, err := tx.Id()
	if err != nil {
		t.Fatalf("id: %v", err)
	}
	if len(id) != 64 {
		t.Fatalf("expected 32-byte hex txid, got %d chars", len(id))
	}
}

func TestLegacyFixtureParsesAsNonSegwit(t *testing.T) {
	raw, _ := hex.DecodeString(legacyTxHex)
	tx, err := transactions.ParseTransaction(bytes.NewReader(raw))
	if err != nil {
		t.Fatal(err)
	}
	// coinbaseHeight is unexported and not reachable from this external
	// test package; this only confirms the ordinary (non-coinbase)
	// fixture parses as a legacy transaction.
	if tx.IsSegwit {
		t.Fatal("fixture drifted from a legacy transaction")
	}
}
