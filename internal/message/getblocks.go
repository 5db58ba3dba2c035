package message

import (
	"bytes"
	"fmt"
	"io"

	"go-bitcoin/internal/encoding"
)

// locatorMessage is the shared wire shape of getblocks and getheaders:
// protocol version, a block locator (most-recent-first hashes), and a
// stop hash (all-zero meaning "as many as the peer will send").
type locatorMessage struct {
	Version       int32
	BlockLocators [][32]byte
	HashStop      [32]byte
}

func serializeLocator(m locatorMessage) ([]byte, error) {
	buf := bytes.NewBuffer(nil)

	versionBuf := make([]byte, 4)
	encoding.PutInt32LE(versionBuf, m.Version)
	buf.Write(versionBuf)

	count, err := encoding.EncodeVarInt(uint64(len(m.BlockLocators)))
	if err != nil {
		return nil, fmt.Errorf("locator count - %w", err)
	}
	buf.Write(count)

	for _, hash := range m.BlockLocators {
		buf.Write(hash[:])
	}
	buf.Write(m.HashStop[:])

	return buf.Bytes(), nil
}

func parseLocator(r io.Reader) (locatorMessage, error) {
	version, err := encoding.ReadInt32LE(r)
	if err != nil {
		return locatorMessage{}, fmt.Errorf("locator version - %w", err)
	}

	count, err := encoding.ReadVarInt(r)
	if err != nil {
		return locatorMessage{}, fmt.Errorf("locator count - %w", err)
	}

	hashes := make([][32]byte, count)
	for i := uint64(0); i < count; i++ {
		if _, err := io.ReadFull(r, hashes[i][:]); err != nil {
			return locatorMessage{}, fmt.Errorf("locator hash %d/%d - %w", i, count, err)
		}
	}

	var stop [32]byte
	if _, err := io.ReadFull(r, stop[:]); err != nil {
		return locatorMessage{}, fmt.Errorf("locator stop hash - %w", err)
	}

	return locatorMessage{Version: version, BlockLocators: hashes, HashStop: stop}, nil
}

// GetBlocksMessage requests inv announcements for blocks following the
// locator, up to HashStop (or 500, whichever first).
type GetBlocksMessage struct {
	locatorMessage
}

func NewGetBlocksMessage(version int32, locators [][32]byte, hashStop *[32]byte) GetBlocksMessage {
	return GetBlocksMessage{locatorMessage: newLocator(version, locators, hashStop)}
}

func (m GetBlocksMessage) Command() Command           { return CmdGetBlocks }
func (m GetBlocksMessage) Serialize() ([]byte, error) { return serializeLocator(m.locatorMessage) }

func ParseGetBlocksMessage(r io.Reader) (GetBlocksMessage, error) {
	l, err := parseLocator(r)
	if err != nil {
		return GetBlocksMessage{}, err
	}
	return GetBlocksMessage{locatorMessage: l}, nil
}

// GetHeadersMessage requests block headers (no transactions) following
// the locator, identical wire shape to GetBlocksMessage.
type GetHeadersMessage struct {
	locatorMessage
}

func NewGetHeadersMessage(version int32, locators [][32]byte, hashStop *[32]byte) GetHeadersMessage {
	return GetHeadersMessage{locatorMessage: newLocator(version, locators, hashStop)}
}

func (m GetHeadersMessage) Command() Command           { return CmdGetHeaders }
func (m GetHeadersMessage) Serialize() ([]byte, error) { return serializeLocator(m.locatorMessage) }

func ParseGetHeadersMessage(r io.Reader) (GetHeadersMessage, error) {
	l, err := parseLocator(r)
	if err != nil {
		return GetHeadersMessage{}, err
	}
	return GetHeadersMessage{locatorMessage: l}, nil
}

func newLocator(version int32, locators [][32]byte, hashStop *[32]byte) locatorMessage {
	stop := [32]byte{}
	if hashStop != nil {
		stop = *hashStop
	}
	return locatorMessage{Version: version, BlockLocators: locators, HashStop: stop}
}
