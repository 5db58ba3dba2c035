package message_test

import (
	"bytes"
	"net"
	"testing"

	"go-bitcoin/internal/message"
)

func TestVersionMessageRoundTrip(t *testing.T) {
	vm := message.DefaultVersionMessage(net.ParseIP("127.0.0.1"), 8333)
	vm.StartHeight = 123

	payload, err := vm.Serialize()
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}

	parsed, err := message.ParseVersionMessage(bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if parsed.Version != vm.Version || parsed.Nonce != vm.Nonce || parsed.UserAgent != vm.UserAgent || parsed.StartHeight != vm.StartHeight {
		t.Fatalf("round trip mismatch: got %+v, want %+v", parsed, vm)
	}
}

func TestPingPongRoundTrip(t *testing.T) {
	ping := message.NewPingMessage()
	payload, err := ping.Serialize()
	if err != nil {
		t.Fatal(err)
	}
	parsed, err := message.ParsePingMessage(bytes.NewReader(payload))
	if err != nil {
		t.Fatal(err)
	}
	if parsed.Nonce != ping.Nonce {
		t.Fatalf("got nonce %d, want %d", parsed.Nonce, ping.Nonce)
	}

	pong := message.PongMessage{Nonce: ping.Nonce}
	pongPayload, err := pong.Serialize()
	if err != nil {
		t.Fatal(err)
	}
	parsedPong, err := message.ParsePongMessage(bytes.NewReader(pongPayload))
	if err != nil {
		t.Fatal(err)
	}
	if parsedPong.Nonce != ping.Nonce {
		t.Fatalf("pong nonce %d does not echo ping nonce %d", parsedPong.Nonce, ping.Nonce)
	}
}

func TestAddrMessageRoundTrip(t *testing.T) {
	addrMsg := message.AddrMessage{
		Addresses: []message.IPAddress{
			{Timestamp: 1700000000, Services: message.ServiceNodeNetwork, IP: [16]byte{0: 0, 10: 0xff, 11: 0xff, 12: 127, 13: 0, 14: 0, 15: 1}, Port: 8333},
		},
	}
	payload, err := addrMsg.Serialize()
	if err != nil {
		t.Fatal(err)
	}
	parsed, err := message.ParseAddrMessage(bytes.NewReader(payload))
	if err != nil {
		t.Fatal(err)
	}
	if len(parsed.Addresses) != 1 || parsed.Addresses[0].Port != 8333 {
		t.Fatalf("unexpected round trip: %+v", parsed)
	}
}

func TestInvAndGetDataRoundTrip(t *testing.T) {
	items := []message.InventoryVector{
		{Type: message.InvTx, Hash: [32]byte{1, 2, 3}},
		{Type: message.InvBlock, Hash: [32]byte{4, 5, 6}},
	}

	inv := message.InvMessage{Items: items}
	payload, err := inv.Serialize()
	if err != nil {
		t.Fatal(err)
	}
	parsedInv, err := message.ParseInvMessage(bytes.NewReader(payload))
	if err != nil {
		t.Fatal(err)
	}
	if len(parsedInv.Items) != 2 || parsedInv.Items[1].Type != message.InvBlock {
		t.Fatalf("unexpected inv round trip: %+v", parsedInv)
	}

	gd := message.GetDataMessage{Items: items}
	gdPayload, err := gd.Serialize()
	if err != nil {
		t.Fatal(err)
	}
	parsedGd, err := message.ParseGetDataMessage(bytes.NewReader(gdPayload))
	if err != nil {
		t.Fatal(err)
	}
	if len(parsedGd.Items) != 2 {
		t.Fatalf("unexpected getdata round trip: %+v", parsedGd)
	}
}

func TestGetHeadersRoundTrip(t *testing.T) {
	locators := [][32]byte{{1}, {2}, {3}}
	gh := message.NewGetHeadersMessage(message.ProtocolVersion, locators, nil)

	payload, err := gh.Serialize()
	if err != nil {
		t.Fatal(err)
	}
	parsed, err := message.ParseGetHeadersMessage(bytes.NewReader(payload))
	if err != nil {
		t.Fatal(err)
	}
	if len(parsed.BlockLocators) != 3 || parsed.Version != message.ProtocolVersion {
		t.Fatalf("unexpected round trip: %+v", parsed)
	}
}

func TestParsePayloadFallsBackToGeneric(t *testing.T) {
	header, err := message.NewHeader(message.Main, message.Command("mempool"), nil)
	if err != nil {
		t.Fatal(err)
	}
	msg, err := message.ParsePayload(header, nil)
	if err != nil {
		t.Fatal(err)
	}
	if msg.Command() != message.Command("mempool") {
		t.Fatalf("expected generic fallback to preserve command, got %v", msg.Command())
	}
}
