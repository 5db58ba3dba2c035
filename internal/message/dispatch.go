package message

import "bytes"

// Message is any payload that knows its own command name and how to
// serialize itself.
type Message interface {
	Command() Command
	Serialize() ([]byte, error)
}

// ParsePayload parses a payload according to the command named by header,
// falling back to GenericMessage for anything this node doesn't have a
// concrete type for (forward-compatible with new commands a future peer
// might send).
func ParsePayload(header MessageHeader, payload []byte) (Message, error) {
	r := bytes.NewReader(payload)

	switch header.Command {
	case CmdVersion:
		return ParseVersionMessage(r)
	case CmdVerAck:
		return VerAckMessage{}, nil
	case CmdGetAddr:
		return GetAddrMessage{}, nil
	case CmdPing:
		return ParsePingMessage(r)
	case CmdPong:
		return ParsePongMessage(r)
	case CmdAddr:
		return ParseAddrMessage(r)
	case CmdInv:
		return ParseInvMessage(r)
	case CmdGetData:
		return ParseGetDataMessage(r)
	case CmdGetBlocks:
		return ParseGetBlocksMessage(r)
	case CmdGetHeaders:
		return ParseGetHeadersMessage(r)
	case CmdHeaders:
		return ParseHeadersMessage(r)
	case CmdTx:
		return ParseTxMessage(r)
	case CmdBlock:
		return ParseBlockMessage(r)
	case CmdReject:
		return ParseRejectMessage(r)
	default:
		return NewGenericMessage(header.Command, payload), nil
	}
}
