package message

// VerAckMessage has an empty payload; its presence alone acknowledges a
// version message.
type VerAckMessage struct{}

func (VerAckMessage) Command() Command         { return CmdVerAck }
func (VerAckMessage) Serialize() ([]byte, error) { return []byte{}, nil }

// GetAddrMessage requests a peer's known address table. Empty payload.
type GetAddrMessage struct{}

func (GetAddrMessage) Command() Command         { return CmdGetAddr }
func (GetAddrMessage) Serialize() ([]byte, error) { return []byte{}, nil }
