package message

import (
	"bytes"
	"fmt"
	"io"

	"go-bitcoin/internal/encoding"
)

// RejectCode is the machine-readable reason code in a reject message.
type RejectCode byte

const (
	RejectMalformed   RejectCode = 0x01
	RejectInvalid     RejectCode = 0x10
	RejectObsolete    RejectCode = 0x11
	RejectDuplicate   RejectCode = 0x12
	RejectNonStandard RejectCode = 0x40
	RejectCheckpoint  RejectCode = 0x43
)

// RejectMessage reports that a peer rejected a prior message, naming which
// command, why (code + human-readable reason), and optionally the object
// hash that triggered it (for tx/block rejections).
type RejectMessage struct {
	Rejected Command
	Code     RejectCode
	Reason   string
	Data     []byte
}

func (m RejectMessage) Command() Command { return CmdReject }

func (m RejectMessage) Serialize() ([]byte, error) {
	buf := bytes.NewBuffer(nil)

	cmdBytes, err := encoding.WriteVarString(string(m.Rejected))
	if err != nil {
		return nil, fmt.Errorf("reject command - %w", err)
	}
	buf.Write(cmdBytes)

	buf.WriteByte(byte(m.Code))

	reasonBytes, err := encoding.WriteVarString(m.Reason)
	if err != nil {
		return nil, fmt.Errorf("reject reason - %w", err)
	}
	buf.Write(reasonBytes)

	buf.Write(m.Data)

	return buf.Bytes(), nil
}

func ParseRejectMessage(r io.Reader) (RejectMessage, error) {
	cmd, err := encoding.ReadVarString(r)
	if err != nil {
		return RejectMessage{}, fmt.Errorf("reject command - %w", err)
	}

	codeByte := make([]byte, 1)
	if _, err := io.ReadFull(r, codeByte); err != nil {
		return RejectMessage{}, fmt.Errorf("reject code - %w", err)
	}

	reason, err := encoding.ReadVarString(r)
	if err != nil {
		return RejectMessage{}, fmt.Errorf("reject reason - %w", err)
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return RejectMessage{}, fmt.Errorf("reject data - %w", err)
	}

	return RejectMessage{
		Rejected: Command(cmd),
		Code:     RejectCode(codeByte[0]),
		Reason:   reason,
		Data:     data,
	}, nil
}
