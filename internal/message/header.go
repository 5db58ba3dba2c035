// Package message implements the Bitcoin wire protocol's framing and the
// individual message payloads a node exchanges with its peers.
package message

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"go-bitcoin/internal/encoding"
)

// NetworkMagic identifies which chain a peer believes it is speaking to.
type NetworkMagic uint32

const (
	Main     NetworkMagic = 0xf9beb4d9
	TestNet  NetworkMagic = 0xfabfb5da
	TestNet3 NetworkMagic = 0x0b110907
	Namecoin NetworkMagic = 0xf9beb4fe
)

func (m NetworkMagic) String() string {
	switch m {
	case Main:
		return "main"
	case TestNet:
		return "testnet"
	case TestNet3:
		return "testnet3"
	case Namecoin:
		return "namecoin"
	default:
		return fmt.Sprintf("unknown(%08x)", uint32(m))
	}
}

// Command names a message payload type. Wire-encoded as 12 ASCII bytes,
// NUL-padded.
type Command string

const (
	CmdVersion     Command = "version"
	CmdVerAck      Command = "verack"
	CmdPing        Command = "ping"
	CmdPong        Command = "pong"
	CmdAddr        Command = "addr"
	CmdInv         Command = "inv"
	CmdGetData     Command = "getdata"
	CmdGetBlocks   Command = "getblocks"
	CmdGetHeaders  Command = "getheaders"
	CmdHeaders     Command = "headers"
	CmdTx          Command = "tx"
	CmdBlock       Command = "block"
	CmdGetAddr     Command = "getaddr"
	CmdReject      Command = "reject"
)

// ErrWrongNetwork marks a frame whose magic doesn't match the network this
// node was configured for.
var ErrWrongNetwork = fmt.Errorf("wrong network magic")

// ErrChecksumMismatch marks a frame whose payload doesn't hash to the
// checksum carried in its header.
var ErrChecksumMismatch = fmt.Errorf("checksum mismatch")

// headerSize is the fixed-width framing prefix: magic(4) + command(12) +
// length(4) + checksum(4).
const headerSize = 24

// MessageHeader is the fixed-width frame prefix preceding every payload.
type MessageHeader struct {
	Magic    NetworkMagic
	Command  Command
	Length   uint32
	Checksum uint32
}

func commandBytes(cmd Command) ([12]byte, error) {
	var buf [12]byte
	if len(cmd) > 12 {
		return buf, fmt.Errorf("command %q too long (max 12 bytes): %w", cmd, encoding.ErrInvalidData)
	}
	copy(buf[:], cmd)
	return buf, nil
}

func checksum(payload []byte) uint32 {
	hash := encoding.Hash256(payload)
	return binary.LittleEndian.Uint32(hash[:4])
}

// NewHeader builds the frame header for a payload about to be sent.
func NewHeader(magic NetworkMagic, cmd Command, payload []byte) (MessageHeader, error) {
	if _, err := commandBytes(cmd); err != nil {
		return MessageHeader{}, err
	}
	return MessageHeader{
		Magic:    magic,
		Command:  cmd,
		Length:   uint32(len(payload)),
		Checksum: checksum(payload),
	}, nil
}

// Serialize writes the 24-byte wire header: magic is emitted big-endian
// (matching the conventional F9 BE B4 D9 byte order), the rest little-endian.
func (h MessageHeader) Serialize() ([]byte, error) {
	cmd, err := commandBytes(h.Command)
	if err != nil {
		return nil, err
	}

	buf := make([]byte, headerSize)
	binary.BigEndian.PutUint32(buf[0:4], uint32(h.Magic))
	copy(buf[4:16], cmd[:])
	binary.LittleEndian.PutUint32(buf[16:20], h.Length)
	binary.LittleEndian.PutUint32(buf[20:24], h.Checksum)
	return buf, nil
}

// ParseHeader reads a 24-byte frame header. Magic is read big-endian to
// match Serialize; the length field is checked against MaxMessageSize so a
// peer can't force a large payload allocation with a forged header alone.
func ParseHeader(r io.Reader) (MessageHeader, error) {
	buf := make([]byte, headerSize)
	if _, err := io.ReadFull(r, buf); err != nil {
		return MessageHeader{}, fmt.Errorf("read header - %w", err)
	}

	magic := NetworkMagic(binary.BigEndian.Uint32(buf[0:4]))
	cmd := Command(bytes.TrimRight(buf[4:16], "\x00"))
	length := binary.LittleEndian.Uint32(buf[16:20])
	sum := binary.LittleEndian.Uint32(buf[20:24])

	if length > encoding.MaxMessageSize {
		return MessageHeader{}, fmt.Errorf("payload length %d exceeds cap %d: %w", length, encoding.MaxMessageSize, encoding.ErrInvalidData)
	}

	return MessageHeader{Magic: magic, Command: cmd, Length: length, Checksum: sum}, nil
}

// VerifyNetwork checks the header's magic against the network this node
// expects, returning ErrWrongNetwork on mismatch.
func (h MessageHeader) VerifyNetwork(expected NetworkMagic) error {
	if h.Magic != expected {
		return fmt.Errorf("got %s, expected %s: %w", h.Magic, expected, ErrWrongNetwork)
	}
	return nil
}

// VerifyChecksum checks a received payload against the header's checksum.
func (h MessageHeader) VerifyChecksum(payload []byte) error {
	if checksum(payload) != h.Checksum {
		return fmt.Errorf("got %08x, expected %08x: %w", checksum(payload), h.Checksum, ErrChecksumMismatch)
	}
	return nil
}

// Frame serializes a full message: header followed by payload.
func Frame(magic NetworkMagic, cmd Command, payload []byte) ([]byte, error) {
	header, err := NewHeader(magic, cmd, payload)
	if err != nil {
		return nil, err
	}
	headerBytes, err := header.Serialize()
	if err != nil {
		return nil, err
	}
	return append(headerBytes, payload...), nil
}
