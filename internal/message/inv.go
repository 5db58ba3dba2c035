package message

import (
	"bytes"
	"fmt"
	"io"

	"go-bitcoin/internal/encoding"
)

// InvType names the kind of object an InventoryVector refers to.
type InvType uint32

const (
	InvError              InvType = 0
	InvTx                 InvType = 1
	InvBlock              InvType = 2
	InvFilteredBlock      InvType = 3
	InvCompactBlock       InvType = 4
	InvWitnessTx          InvType = 0x40000001
	InvWitnessBlock       InvType = 0x40000002
	InvFilteredWitnessBlk InvType = 0x40000003
)

// InventoryVector identifies a single object (transaction or block) by
// type and hash, the unit both `inv` and `getdata` messages carry.
type InventoryVector struct {
	Type InvType
	Hash [32]byte
}

func serializeInventory(items []InventoryVector) ([]byte, error) {
	buf := bytes.NewBuffer(nil)

	count, err := encoding.EncodeVarInt(uint64(len(items)))
	if err != nil {
		return nil, fmt.Errorf("inventory count - %w", err)
	}
	buf.Write(count)

	for _, item := range items {
		typeBuf := make([]byte, 4)
		encoding.PutUint32LE(typeBuf, uint32(item.Type))
		buf.Write(typeBuf)
		buf.Write(item.Hash[:])
	}
	return buf.Bytes(), nil
}

func parseInventory(r io.Reader) ([]InventoryVector, error) {
	count, err := encoding.ReadVarInt(r)
	if err != nil {
		return nil, fmt.Errorf("inventory count - %w", err)
	}

	items := make([]InventoryVector, count)
	for i := uint64(0); i < count; i++ {
		typ, err := encoding.ReadUint32LE(r)
		if err != nil {
			return nil, fmt.Errorf("inventory entry %d/%d type - %w", i, count, err)
		}
		var hash [32]byte
		if _, err := io.ReadFull(r, hash[:]); err != nil {
			return nil, fmt.Errorf("inventory entry %d/%d hash - %w", i, count, err)
		}
		items[i] = InventoryVector{Type: InvType(typ), Hash: hash}
	}
	return items, nil
}

// InvMessage announces objects the sender has and is willing to supply on
// request.
type InvMessage struct {
	Items []InventoryVector
}

func (m InvMessage) Command() Command           { return CmdInv }
func (m InvMessage) Serialize() ([]byte, error) { return serializeInventory(m.Items) }

func ParseInvMessage(r io.Reader) (InvMessage, error) {
	items, err := parseInventory(r)
	if err != nil {
		return InvMessage{}, err
	}
	return InvMessage{Items: items}, nil
}

// GetDataMessage requests the full objects named by a set of inventory
// vectors, usually ones just announced via InvMessage.
type GetDataMessage struct {
	Items []InventoryVector
}

func (m GetDataMessage) Command() Command           { return CmdGetData }
func (m GetDataMessage) Serialize() ([]byte, error) { return serializeInventory(m.Items) }

func ParseGetDataMessage(r io.Reader) (GetDataMessage, error) {
	items, err := parseInventory(r)
	if err != nil {
		return GetDataMessage{}, err
	}
	return GetDataMessage{Items: items}, nil
}
