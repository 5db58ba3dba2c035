package message

import (
	"bytes"
	"fmt"
	"io"

	"go-bitcoin/internal/encoding"
)

// AddrMessage relays a batch of known peer addresses, each timestamped
// with when it was last seen active.
type AddrMessage struct {
	Addresses []IPAddress
}

func (a AddrMessage) Command() Command { return CmdAddr }

func (a AddrMessage) Serialize() ([]byte, error) {
	buf := bytes.NewBuffer(nil)

	count, err := encoding.EncodeVarInt(uint64(len(a.Addresses)))
	if err != nil {
		return nil, fmt.Errorf("addr count - %w", err)
	}
	buf.Write(count)

	for _, addr := range a.Addresses {
		buf.Write(addr.Serialize(true))
	}
	return buf.Bytes(), nil
}

func ParseAddrMessage(r io.Reader) (AddrMessage, error) {
	count, err := encoding.ReadVarInt(r)
	if err != nil {
		return AddrMessage{}, fmt.Errorf("addr count - %w", err)
	}

	addrs := make([]IPAddress, count)
	for i := uint64(0); i < count; i++ {
		addr, err := ParseIPAddress(r, true)
		if err != nil {
			return AddrMessage{}, fmt.Errorf("addr entry %d/%d - %w", i, count, err)
		}
		addrs[i] = addr
	}
	return AddrMessage{Addresses: addrs}, nil
}
