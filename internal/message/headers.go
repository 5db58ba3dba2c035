package message

import (
	"bytes"
	"fmt"
	"io"

	"go-bitcoin/internal/block"
	"go-bitcoin/internal/encoding"
)

// HeadersMessage replies to GetHeadersMessage with a batch of block
// headers; each is followed on the wire by a zero transaction count,
// since full transactions are never included here.
type HeadersMessage struct {
	Headers []block.Block
}

func (m HeadersMessage) Command() Command { return CmdHeaders }

func (m HeadersMessage) Serialize() ([]byte, error) {
	buf := bytes.NewBuffer(nil)

	count, err := encoding.EncodeVarInt(uint64(len(m.Headers)))
	if err != nil {
		return nil, fmt.Errorf("headers count - %w", err)
	}
	buf.Write(count)

	for i := range m.Headers {
		headerBytes, err := m.Headers[i].Serialize()
		if err != nil {
			return nil, fmt.Errorf("header %d/%d - %w", i, len(m.Headers), err)
		}
		buf.Write(headerBytes)
		buf.WriteByte(0x00)
	}
	return buf.Bytes(), nil
}

func ParseHeadersMessage(r io.Reader) (HeadersMessage, error) {
	count, err := encoding.ReadVarInt(r)
	if err != nil {
		return HeadersMessage{}, fmt.Errorf("headers count - %w", err)
	}

	headers := make([]block.Block, count)
	for i := uint64(0); i < count; i++ {
		h, err := block.ParseBlock(r)
		if err != nil {
			return HeadersMessage{}, fmt.Errorf("header %d/%d - %w", i, count, err)
		}
		headers[i] = h

		numTx, err := encoding.ReadVarInt(r)
		if err != nil {
			return HeadersMessage{}, fmt.Errorf("header %d/%d tx count - %w", i, count, err)
		}
		if numTx != 0 {
			return HeadersMessage{}, fmt.Errorf("header %d/%d: expected 0 transactions, got %d: %w", i, count, numTx, encoding.ErrInvalidData)
		}
	}
	return HeadersMessage{Headers: headers}, nil
}
