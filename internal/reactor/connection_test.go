package reactor

import (
	"testing"

	"go-bitcoin/internal/message"
)

func TestNextFrameWaitsForFullHeader(t *testing.T) {
	c := &Connection{readBuf: []byte{0xf9, 0xbe, 0xb4, 0xd9}}
	_, _, ok, err := c.NextFrame()
	if err != nil || ok {
		t.Fatalf("expected incomplete header to wait, got ok=%v err=%v", ok, err)
	}
}

func TestNextFrameParsesOneAndLeavesRemainder(t *testing.T) {
	frame, err := message.Frame(message.Main, message.CmdVerAck, nil)
	if err != nil {
		t.Fatal(err)
	}
	tail := []byte{0xde, 0xad}
	c := &Connection{readBuf: append(append([]byte{}, frame...), tail...)}

	header, payload, ok, err := c.NextFrame()
	if err != nil || !ok {
		t.Fatalf("expected a complete frame, got ok=%v err=%v", ok, err)
	}
	if header.Command != message.CmdVerAck || len(payload) != 0 {
		t.Fatalf("unexpected parse: %+v payload=%v", header, payload)
	}
	if len(c.readBuf) != len(tail) {
		t.Fatalf("expected %d leftover bytes, got %d", len(tail), len(c.readBuf))
	}

	_, _, ok, err = c.NextFrame()
	if err != nil || ok {
		t.Fatalf("leftover partial bytes should not parse as a frame, got ok=%v err=%v", ok, err)
	}
}

func TestEnqueueMovesToWriting(t *testing.T) {
	c := &Connection{State: StateReading}
	c.Enqueue([]byte("hi"))
	if c.State != StateWriting {
		t.Fatalf("State = %v, want StateWriting", c.State)
	}
}
