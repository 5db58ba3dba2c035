package message

// GenericMessage wraps an unrecognized command's raw payload, so the
// reactor can still frame and forward it without knowing its shape.
type GenericMessage struct {
	command Command
	payload []byte
}

func NewGenericMessage(command Command, payload []byte) GenericMessage {
	return GenericMessage{command: command, payload: payload}
}

func (g GenericMessage) Command() Command           { return g.command }
func (g GenericMessage) Serialize() ([]byte, error) { return g.payload, nil }
