package message

import (
	"io"

	"go-bitcoin/internal/transactions"
)

// TxMessage carries a single transaction, legacy or segwit-framed, exactly
// as transactions.Transaction already serializes it.
type TxMessage struct {
	Transaction transactions.Transaction
}

func (m TxMessage) Command() Command { return CmdTx }

func (m TxMessage) Serialize() ([]byte, error) {
	return m.Transaction.Serialize()
}

func ParseTxMessage(r io.Reader) (TxMessage, error) {
	tx, err := transactions.ParseTransaction(r)
	if err != nil {
		return TxMessage{}, err
	}
	return TxMessage{Transaction: tx}, nil
}
