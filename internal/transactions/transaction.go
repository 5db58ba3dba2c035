package transactions

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"go-bitcoin/internal/encoding"
	"go-bitcoin/internal/script"
	"io"
	"slices"
)

type Transaction struct {
	Version   uint32
	Inputs    []TxIn
	Outputs   []TxOut
	Locktime  uint32
	IsTestnet bool
	IsSegwit  bool
}

func NewTransaction(version uint32, inputs []TxIn, outputs []TxOut, locktime uint32, isTestNet, isSegwit bool) Transaction {
	return Transaction{
		Version:   uint32(version),
		Inputs:    inputs,
		Outputs:   outputs,
		Locktime:  locktime,
		IsTestnet: isTestNet,
		IsSegwit:  isSegwit,
	}
}

func (t Transaction) String() string {
	id, _ := t.Id()
	return fmt.Sprintf("tx: %s\n   version:\t%d\n   tx_ins:\t%v\n   tx_outs:\t%v\n   locktime:\t%d\n   isSegwit:\t%v",
		id, t.Version, t.Inputs, t.Outputs, t.Locktime, t.IsSegwit)
}

func (t *Transaction) Id() (string, error) {
	// Human readable hexadecimal of the transaction hash
	hash, err := t.hash()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%x", hash), nil
}

func (t *Transaction) hash() ([]byte, error) {
	// Binary hash of the legacy serialization
	serialized, err := t.SerializeLegacy()
	if err != nil {
		return nil, err
	}
	hash := encoding.Hash256(serialized)
	slices.Reverse(hash)
	return hash, nil
}

func (t *Transaction) Serialize() ([]byte, error) {
	// returns the byte serialization of the transaction
	if t.IsSegwit {
		return t.SerializeSegwit()
	} else {
		return t.SerializeLegacy()
	}
}

func (t *Transaction) SerializeLegacy() ([]byte, error) {
	// returns the byte serialization of the legacy transaction
	var result bytes.Buffer

	buf := make([]byte, 4)

	// version
	binary.LittleEndian.PutUint32(buf[:4], uint32(t.Version))
	n, err := result.Write(buf[:4])
	if err != nil || n != 4 {
		return nil, fmt.Errorf("tx serialization error (version) - %w", err)
	}

	// inputs len
	inputLen := uint64(len(t.Inputs))
	inputLenBytes, err := encoding.EncodeVarInt(inputLen)
	if err != nil {
		return nil, err
	}
	_, err = result.Write(inputLenBytes)
	if err != nil {
		return nil, fmt.Errorf("tx serialization error (inputs length) - %w", err)
	}
	// inputs slice
	for i, tx := range t.Inputs {
		data, err := tx.Serialize()
		if err != nil {
			return nil, fmt.Errorf("tx serialization error (input read %d) - %w", i, err)
		}
		_, err = result.Write(data)
		if err != nil {
			return nil, fmt.Errorf("tx serialization error (input write %d) - %w", i, err)
		}
	}

	// outputs len
	outputLen := uint64(len(t.Outputs))
	outputLenBytes, err := encoding.EncodeVarInt(outputLen)
	if err != nil {
		return nil, err
	}
	_, err = result.Write(outputLenBytes)
	if err != nil {
		return nil, fmt.Errorf("tx serialization error (outputs length) - %w", err)
	}
	for i, tx := range t.Outputs {
		data, err := tx.Serialize()
		if err != nil {
			return nil, fmt.Errorf("tx serialization error (output read %d) - %w", i, err)
		}
		_, err = result.Write(data)
		if err != nil {
			return nil, fmt.Errorf("tx serialization error (output write %d) - %w", i, err)
		}
	}

	// locktime
	binary.LittleEndian.PutUint32(buf[:4], uint32(t.Locktime))
	n, err = result.Write(buf[:4])
	if err != nil || n != 4 {
		return nil, fmt.Errorf("tx serialization error (locktime) - %w", err)
	}

	return result.Bytes(), nil
}

func (t *Transaction) SerializeSegwit() ([]byte, error) {
	// returns the byte serialization of the Segwit transaction
	var result bytes.Buffer

	// marker and flag bytes
	n, err := result.Write([]byte{0x00, 0x01})
	if err != nil || n != 2 {
		return nil, fmt.Errorf("tx serialization error (marker/flag) - %w", err)
	}

	buf := make([]byte, 4)
	// version
	binary.LittleEndian.PutUint32(buf[:4], uint32(t.Version))
	n, err = result.Write(buf[:4])
	if err != nil || n != 4 {
		return nil, fmt.Errorf("tx serialization error (version) - %w", err)
	}

	// inputs len
	inputLen := uint64(len(t.Inputs))
	inputLenBytes, err := encoding.EncodeVarInt(inputLen)
	if err != nil {
		return nil, err
	}
	_, err = result.Write(inputLenBytes)
	if err != nil {
		return nil, fmt.Errorf("tx serialization error (inputs length) - %w", err)
	}
	// inputs slice
	for i, tx := range t.Inputs {
		data, err := tx.Serialize()
		if err != nil {
			return nil, fmt.Errorf("tx serialization error (input read %d) - %w", i, err)
		}
		_, err = result.Write(data)
		if err != nil {
			return nil, fmt.Errorf("tx serialization error (input write %d) - %w", i, err)
		}
	}

	// outputs len
	outputLen := uint64(len(t.Outputs))
	outputLenBytes, err := encoding.EncodeVarInt(outputLen)
	if err != nil {
		return nil, err
	}
	_, err = result.Write(outputLenBytes)
	if err != nil {
		return nil, fmt.Errorf("tx serialization error (outputs length) - %w", err)
	}
	for i, tx := range t.Outputs {
		data, err := tx.Serialize()
		if err != nil {
			return nil, fmt.Errorf("tx serialization error (output read %d) - %w", i, err)
		}
		_, err = result.Write(data)
		if err != nil {
			return nil, fmt.Errorf("tx serialization error (output write %d) - %w", i, err)
		}
	}
	// witness
	for _, txin := range t.Inputs {
		numItemBytes, err := encoding.EncodeVarInt(uint64(len(txin.Witness)))
		if err != nil {
			return nil, err
		}
		// write the varint number of items
		if _, err := result.Write(numItemBytes); err != nil {
			return nil, err
		}
		for _, item := range txin.Witness {
			itemLenBytes, err := encoding.EncodeVarInt(uint64(len(item)))
			if err != nil {
				return nil, err
			}
			// write the varint length of this item
			if _, err := result.Write(itemLenBytes); err != nil {
				return nil, err
			}
			// write this item
			if _, err := result.Write(item); err != nil {
				return nil, err
			}
		}
	}
	// locktime
	binary.LittleEndian.PutUint32(buf[:4], uint32(t.Locktime))
	n, err = result.Write(buf[:4])
	if err != nil || n != 4 {
		return nil, fmt.Errorf("tx serialization error (locktime) - %w", err)
	}

	return result.Bytes(), nil
}

func ParseTransaction(r io.Reader) (Transaction, error) {
	// version
	buf := make([]byte, 5)
	n, err := r.Read(buf)
	if err != nil || n != 5 {
		return Transaction{}, fmt.Errorf("tx parse error (version and marker) - %w", err)
	}
	version := binary.LittleEndian.Uint32(buf[:4])

	if buf[4] == 0x00 {
		// marker byte for SegWit
		return ParseSegwitTransaction(r, version)
	} else {
		return ParseLegacyTransaction(r, version, buf[4])
	}
}

func ParseLegacyTransaction(r io.Reader, version uint32, firstByte byte) (Transaction, error) {
	// hacky way to "rewind" the reader for proper varint reading
	r = io.MultiReader(bytes.NewReader([]byte{firstByte}), r)

	// parse TxIn
	len, err := encoding.ReadVarInt(r)
	if err != nil {
		return Transaction{}, err
	}
	var i uint64
	txins := make([]TxIn, 0, len)
	for i = 0; i < len; i++ {
		tx, err := ParseTxIn(r)
		if err != nil {
			return Transaction{}, err
		}
		txins = append(txins, tx)
	}

	// parse TxOut
	len, err = encoding.ReadVarInt(r)
	if err != nil {
		return Transaction{}, err
	}
	txouts := make([]TxOut, 0, len)
	for i = 0; i < len; i++ {
		tx, err := ParseTxOut(r)
		if err != nil {
			return Transaction{}, err
		}
		txouts = append(txouts, tx)
	}

	// locktime
	buf := make([]byte, 4)
	n, err := r.Read(buf)
	if err != nil || n != 4 {
		return Transaction{}, fmt.Errorf("tx parse error (locktime) - %w", err)
	}
	locktime := binary.LittleEndian.Uint32(buf)

	return Transaction{
		Version:  version,
		Inputs:   txins,
		Outputs:  txouts,
		Locktime: locktime,
		IsSegwit: false,
	}, nil
}

func ParseSegwitTransaction(r io.Reader, version uint32) (Transaction, error) {
	// check the flag byte (marker byte already checked)
	flag := make([]byte, 1)
	if _, err := r.Read(flag); err != nil {
		return Transaction{}, err
	}

	// parse TxIn
	len, err := encoding.ReadVarInt(r)
	if err != nil {
		return Transaction{}, err
	}
	var i uint64
	txins := make([]TxIn, 0, len)
	for i = 0; i < len; i++ {
		tx, err := ParseTxIn(r)
		if err != nil {
			return Transaction{}, err
		}
		txins = append(txins, tx)
	}

	// parse TxOut
	len, err = encoding.ReadVarInt(r)
	if err != nil {
		return Transaction{}, err
	}
	txouts := make([]TxOut, 0, len)
	for i = 0; i < len; i++ {
		tx, err := ParseTxOut(r)
		if err != nil {
			return Transaction{}, err
		}
		txouts = append(txouts, tx)
	}

	// parse witnesses
	for i := range txins {
		numItems, err := encoding.ReadVarInt(r)
		if err != nil {
			return Transaction{}, err
		}
		items := make([][]byte, numItems)
		for j := uint64(0); j < numItems; j++ {
			itemLen, err := encoding.ReadVarInt(r)
			if err != nil {
				return Transaction{}, err
			}
			itemBytes := make([]byte, itemLen)
			if _, err := r.Read(itemBytes); err != nil {
				return Transaction{}, err
			}
			items = append(items, itemBytes)
		}
		txins[i].Witness = items
	}

	// parse locktime
	buf := make([]byte, 4)
	n, err := r.Read(buf)
	if err != nil || n != 4 {
		return Transaction{}, fmt.Errorf("tx parse error (locktime) - %w", err)
	}
	locktime := binary.LittleEndian.Uint32(buf)

	return Transaction{
		Version:  version,
		Inputs:   txins,
		Outputs:  txouts,
		Locktime: locktime,
		IsSegwit: true,
	}, nil
}

func (t *Transaction) isCoinbase() bool {
	// coinbase transactions must have exactly one input
	if len(t.Inputs) != 1 {
		return false
	}
	// the one input must have a previous transaction of 32 bytes of 00
	if !slices.Equal(t.Inputs[0].PrevTx, bytes.Repeat([]byte{0x00}, 32)) {
		return false
	}
	// the one input must have a previous index of ffffffff
	if t.Inputs[0].PrevIdx != 0xffffffff {
		return false
	}
	return true
}

// coinbaseHeight reports the BIP34 block height pushed as the first element
// of the coinbase scriptSig, or -1 if this isn't a coinbase or the height
// isn't decodable as a minimally-encoded script number.
func (t *Transaction) coinbaseHeight() int64 {
	if !t.isCoinbase() {
		return -1
	}
	data, ok := t.Inputs[0].ScriptSig.FirstPushData()
	if !ok {
		return -1
	}
	n, err := script.ParseScriptNum(data)
	if err != nil {
		return -1
	}
	return n
}
