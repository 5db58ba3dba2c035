package mempool

import (
	"sync"

	"go-bitcoin/internal/encoding"
	"go-bitcoin/internal/transactions"
)

type Mempool struct {
	txs map[[32]byte]*transactions.Transaction // txid -> transaction
	mu  sync.Mutex
}

func New() *Mempool {
	return &Mempool{
		txs: make(map[[32]byte]*transactions.Transaction),
	}
}

// txidKey is the internal (wire, non-reversed) double-SHA-256 of the
// transaction's legacy serialization - the same byte order
// InventoryVector.Hash carries, as opposed to the display-order
// reversed hex Transaction.Id() produces.
func txidKey(tx *transactions.Transaction) ([32]byte, error) {
	raw, err := tx.SerializeLegacy()
	if err != nil {
		return [32]byte{}, err
	}
	var key [32]byte
	copy(key[:], encoding.Hash256(raw))
	return key, nil
}

// wtxidKey is txidKey's witness-serialization counterpart, used for
// BIP152 short-ID matching against wtxid-keyed requests.
func wtxidKey(tx *transactions.Transaction) ([32]byte, error) {
	raw, err := tx.SerializeSegwit()
	if err != nil {
		return [32]byte{}, err
	}
	var key [32]byte
	copy(key[:], encoding.Hash256(raw))
	return key, nil
}

func (m *Mempool) Add(tx *transactions.Transaction) error {
	key, err := txidKey(tx)
	if err != nil {
		return err
	}
	m.AddByKey(key, tx)
	return nil
}

// AddByKey inserts tx keyed directly by key, for callers that already
// have the wire-order hash (e.g. a txid lifted from an inv message), so
// tx is not hashed again the way Add does through txidKey.
func (m *Mempool) AddByKey(key [32]byte, tx *transactions.Transaction) {
	m.mu.Lock()
	m.txs[key] = tx
	m.mu.Unlock()
}

func (m *Mempool) Get(txid [32]byte) (*transactions.Transaction, bool) {
	m.mu.Lock()
	tx, exists := m.txs[txid]
	m.mu.Unlock()
	return tx, exists
}

// Has reports whether key is already known, without returning the
// transaction itself.
func (m *Mempool) Has(key [32]byte) bool {
	m.mu.Lock()
	_, exists := m.txs[key]
	m.mu.Unlock()
	return exists
}

func (m *Mempool) Remove(txid [32]byte) {
	m.mu.Lock()
	delete(m.txs, txid)
	m.mu.Unlock()
}

func (m *Mempool) All() []*transactions.Transaction {
	result := make([]*transactions.Transaction, 0, len(m.txs))
	m.mu.Lock()
	for _, tx := range m.txs {
		result = append(result, tx)
	}
	m.mu.Unlock()
	return result
}

func (m *Mempool) MatchShortIDs(shortids [][6]byte, k0, k1 uint64, useWtxid bool) map[[6]byte]*transactions.Transaction {
	requested := make(map[[6]byte]bool, len(shortids))
	for _, sid := range shortids {
		requested[sid] = true
	}

	m.mu.Lock()
	matches := make(map[[6]byte]*transactions.Transaction)

	for _, tx := range m.txs {
		var key [32]byte
		var err error
		if useWtxid {
			key, err = wtxidKey(tx)
		} else {
			key, err = txidKey(tx)
		}
		if err != nil {
			continue
		}

		sid := CalculateShortID(key, k0, k1)

		if requested[sid] {
			matches[sid] = tx
		}
	}
	m.mu.Unlock()
	return matches
}
