package message

import (
	"io"

	"go-bitcoin/internal/block"
)

// BlockMessage carries a full block: header plus every transaction.
type BlockMessage struct {
	Block *block.FullBlock
}

func (m BlockMessage) Command() Command { return CmdBlock }

func (m BlockMessage) Serialize() ([]byte, error) {
	return m.Block.Serialize()
}

func ParseBlockMessage(r io.Reader) (BlockMessage, error) {
	fb, err := block.ParseFullBlock(r)
	if err != nil {
		return BlockMessage{}, err
	}
	return BlockMessage{Block: fb}, nil
}
