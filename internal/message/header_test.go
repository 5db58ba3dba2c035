package message_test

import (
	"bytes"
	"encoding/hex"
	"testing"

	"go-bitcoin/internal/message"
)

func TestHeaderSerializeReferenceVector(t *testing.T) {
	h := message.MessageHeader{
		Magic:    message.Main,
		Command:  message.CmdVersion,
		Length:   100,
		Checksum: 0x5A8D643B,
	}

	want, err := hex.DecodeString("F9BEB4D976657273696F6E0000000000640000003B648D5A")
	if err != nil {
		t.Fatal(err)
	}

	got, err := h.Serialize()
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Fatalf("got  %X\nwant %X", got, want)
	}

	parsed, err := message.ParseHeader(bytes.NewReader(got))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if parsed != h {
		t.Fatalf("round trip mismatch: got %+v, want %+v", parsed, h)
	}
}

func TestHeaderVerifyNetwork(t *testing.T) {
	h := message.MessageHeader{Magic: message.TestNet3, Command: message.CmdVerAck}
	if err := h.VerifyNetwork(message.Main); err == nil {
		t.Fatal("expected wrong-network error")
	}
	if err := h.VerifyNetwork(message.TestNet3); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestHeaderVerifyChecksum(t *testing.T) {
	payload := []byte("hello")
	h, err := message.NewHeader(message.Main, message.CmdPing, payload)
	if err != nil {
		t.Fatal(err)
	}
	if err := h.VerifyChecksum(payload); err != nil {
		t.Fatalf("unexpected checksum error: %v", err)
	}
	if err := h.VerifyChecksum([]byte("tampered")); err == nil {
		t.Fatal("expected checksum mismatch")
	}
}
