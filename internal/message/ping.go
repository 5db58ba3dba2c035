package message

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/NebulousLabs/fastrand"
)

// PingMessage/PongMessage carry an 8-byte nonce the receiver echoes back,
// used for both keepalive and round-trip latency measurement.
type PingMessage struct {
	Nonce uint64
}

func NewPingMessage() PingMessage {
	return PingMessage{Nonce: binary.LittleEndian.Uint64(fastrand.Bytes(8))}
}

func (pm PingMessage) Command() Command { return CmdPing }

func (pm PingMessage) Serialize() ([]byte, error) {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, pm.Nonce)
	return buf, nil
}

func ParsePingMessage(r io.Reader) (PingMessage, error) {
	buf := make([]byte, 8)
	if _, err := io.ReadFull(r, buf); err != nil {
		return PingMessage{}, fmt.Errorf("ping nonce - %w", err)
	}
	return PingMessage{Nonce: binary.LittleEndian.Uint64(buf)}, nil
}

type PongMessage struct {
	Nonce uint64
}

func (pm PongMessage) Command() Command { return CmdPong }

func (pm PongMessage) Serialize() ([]byte, error) {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, pm.Nonce)
	return buf, nil
}

func ParsePongMessage(r io.Reader) (PongMessage, error) {
	buf := make([]byte, 8)
	if _, err := io.ReadFull(r, buf); err != nil {
		return PongMessage{}, fmt.Errorf("pong nonce - %w", err)
	}
	return PongMessage{Nonce: binary.LittleEndian.Uint64(buf)}, nil
}
