package client

import (
	"sync"
	"time"

	"go-bitcoin/internal/cache"
	"go-bitcoin/internal/mempool"
	"go-bitcoin/internal/message"
	"go-bitcoin/internal/peer"
	"go-bitcoin/internal/reactor"
	"go-bitcoin/internal/store"
	"go-bitcoin/internal/transactions"
)

// pendingInvTimeout is how long a MSG_BLOCK inventory hash stays in
// pendingInv before a node concludes the peer isn't going to deliver it
// and is willing to issue another getblocks.
const pendingInvTimeout = time.Minute

// pendingInvSweepInterval names a 10-second sweep cadence for pendingInv.
// It is not passed to the cache: cache.Expiring takes no sweep interval
// and checks expiry on every Has and Len call instead.
const pendingInvSweepInterval = 10 * time.Second

// SharedState is every piece of mutable state a single dispatch tick may
// touch. It's guarded by one mutex rather than split per-field, matching
// the invariant that a dispatch is atomic with respect to peer-state
// updates - but the outbound path (peer.Peer.Enqueue) and the stores are
// deliberately separable from the peer table, so a future caller could
// split this further without touching handler logic.
type SharedState struct {
	mu sync.Mutex

	Peers   map[reactor.Token]*peer.Peer
	Network message.NetworkMagic

	txStore    *mempool.Mempool
	BlockStore store.BlockStore

	PendingInv *cache.Expiring[[32]byte]
}

// NewSharedState wires the peer table, tx store, and pending-inventory
// cache around an already-opened block store.
func NewSharedState(network message.NetworkMagic, blockStore store.BlockStore) *SharedState {
	return &SharedState{
		Peers:      make(map[reactor.Token]*peer.Peer),
		Network:    network,
		txStore:    mempool.New(),
		BlockStore: blockStore,
		PendingInv: cache.NewExpiring[[32]byte](pendingInvTimeout),
	}
}

// WithLock runs fn with the state mutex held. Handlers use this to keep
// a single dispatch tick atomic without exposing the lock itself.
func (s *SharedState) WithLock(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn()
}

func (s *SharedState) hasTx(key [32]byte) bool {
	return s.txStore.Has(key)
}

func (s *SharedState) insertTx(key [32]byte, tx *transactions.Transaction) {
	s.txStore.AddByKey(key, tx)
}
