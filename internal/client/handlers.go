package client

import (
	"time"

	"go.uber.org/zap"

	"go-bitcoin/internal/encoding"
	"go-bitcoin/internal/message"
	"go-bitcoin/internal/peer"
	"go-bitcoin/internal/reactor"
)

// localVersionMessage builds the version payload this node advertises:
// protocol 70001, node_network services, and a fixed user agent.
func (c *Client) localVersionMessage() message.VersionMessage {
	return message.VersionMessage{
		Version:     70001,
		Services:    message.ServiceNodeNetwork,
		Timestamp:   time.Now().Unix(),
		UserAgent:   "/Agi:0.0.1/",
		StartHeight: int32(c.State.BlockStore.Height()),
	}
}

// handleVersion records the peer's advertised version and immediately
// replies with this node's own version followed by verack, matching the
// handshake's original (single-invocation) ordering rather than waiting
// for a separate trigger.
func (c *Client) handleVersion(token reactor.Token, v message.VersionMessage) {
	var p *peer.Peer
	c.State.WithLock(func() {
		p = c.State.Peers[token]
		if p == nil {
			return
		}
		p.RecordVersion(v)
		p.MarkAwaitingVerack()
	})
	if p == nil {
		return
	}

	c.send(p, c.localVersionMessage())
	c.send(p, message.VerAckMessage{})
}

// handleVerAck completes the handshake and kicks off getaddr/ping/getblocks.
func (c *Client) handleVerAck(token reactor.Token) {
	var p *peer.Peer
	c.State.WithLock(func() {
		p = c.State.Peers[token]
		if p == nil {
			return
		}
		p.MarkEstablished()
	})
	if p == nil {
		return
	}
	c.startSession(p)
}

// handlePing replies with a pong echoing the same nonce.
func (c *Client) handlePing(token reactor.Token, ping message.PingMessage) {
	var p *peer.Peer
	c.State.WithLock(func() { p = c.State.Peers[token] })
	if p == nil {
		return
	}
	c.send(p, message.PongMessage{Nonce: ping.Nonce})
}

// handlePong records round-trip latency when the nonce matches the last
// ping sent to this peer.
func (c *Client) handlePong(token reactor.Token, pong message.PongMessage) {
	c.State.WithLock(func() {
		p := c.State.Peers[token]
		if p == nil {
			return
		}
		if !p.RecordPong(pong.Nonce, time.Now()) {
			c.log.Debug("pong nonce mismatch", zap.String("token", token.String()))
		}
	})
}

// handleAddr is parsed and surfaced but not driven further - this node
// doesn't maintain an address book beyond its connected peers.
func (c *Client) handleAddr(token reactor.Token, addr message.AddrMessage) {
	c.log.Debug("received addr", zap.String("token", token.String()), zap.Int("count", len(addr.Addresses)))
}

// handleInv consults local stores for each advertised object: unknown
// transactions and blocks are requested via getdata; unknown blocks are
// additionally tracked in pendingInv so the node doesn't pile on another
// getblocks while blocks are inbound. Unknown inventory types are ignored.
func (c *Client) handleInv(token reactor.Token, inv message.InvMessage) {
	var p *peer.Peer
	var want []message.InventoryVector

	c.State.WithLock(func() {
		p = c.State.Peers[token]
		if p == nil {
			return
		}
		for _, item := range inv.Items {
			switch item.Type {
			case message.InvTx:
				if !c.State.hasTx(item.Hash) {
					want = append(want, item)
				}
			case message.InvBlock:
				if !c.State.BlockStore.Has(item.Hash) {
					want = append(want, item)
					c.State.PendingInv.Insert(item.Hash)
				}
			}
		}
	})
	if p == nil || len(want) == 0 {
		return
	}
	c.send(p, message.GetDataMessage{Items: want})
}

// txKey computes the internal-byte-order double-SHA-256 txid used to key
// the tx store, matching the byte order InventoryVector.Hash carries on
// the wire (display order is reversed separately, a presentation concern).
func txKey(raw []byte) [32]byte {
	var key [32]byte
	copy(key[:], encoding.Hash256(raw))
	return key
}

// handleTx stores the transaction and, if nothing is still pending,
// retriggers sync the same way a block does - an unsolicited tx arriving
// mid-sync costs nothing extra given the pendingInv emptiness guard.
func (c *Client) handleTx(token reactor.Token, txMsg message.TxMessage) {
	raw, err := txMsg.Transaction.SerializeLegacy()
	if err != nil {
		c.log.Warn("failed to serialize received tx", zap.Error(err))
		return
	}
	key := txKey(raw)

	var p *peer.Peer
	c.State.WithLock(func() {
		c.State.insertTx(key, &txMsg.Transaction)
		p = c.State.Peers[token]
	})
	if p == nil {
		return
	}
	c.State.WithLock(func() { c.maybeContinueSyncLocked(p) })
}

// handleBlock stores the block, clears it from pendingInv, and continues
// sync once no inventory is left outstanding.
func (c *Client) handleBlock(token reactor.Token, blockMsg message.BlockMessage) {
	hash, err := blockMsg.Block.BlockHeader.Hash()
	if err != nil {
		c.log.Warn("failed to hash received block", zap.Error(err))
		return
	}
	var key [32]byte
	copy(key[:], hash)

	if err := c.State.BlockStore.Insert(blockMsg.Block); err != nil {
		c.log.Warn("failed to store received block", zap.Error(err))
		return
	}

	var p *peer.Peer
	var shouldContinue bool
	c.State.WithLock(func() {
		c.State.PendingInv.Remove(key)
		p = c.State.Peers[token]
		shouldContinue = c.State.PendingInv.Len() == 0
	})
	if p == nil || !shouldContinue {
		return
	}
	c.send(p, message.NewGetBlocksMessage(message.ProtocolVersion, c.State.BlockStore.BlockLocators(), nil))
}

// maybeContinueSyncLocked is maybeContinueSync for callers that already
// hold State's mutex.
func (c *Client) maybeContinueSyncLocked(p *peer.Peer) {
	if c.State.PendingInv.Len() != 0 {
		return
	}
	locators := c.State.BlockStore.BlockLocators()
	c.send(p, message.NewGetBlocksMessage(message.ProtocolVersion, locators, nil))
}

// handleGetAddr replies with an addr summary of currently known peers.
// Deliberately surprising but spec-pinned: the timestamp reported is each
// peer's last ping time, not a generic "last seen", and the address is
// that peer's own advertised addr_from (its view of its listening
// address), not the socket's observed remote endpoint.
func (c *Client) handleGetAddr(token reactor.Token) {
	var p *peer.Peer
	var addrs []message.IPAddress

	c.State.WithLock(func() {
		p = c.State.Peers[token]
		for _, other := range c.State.Peers {
			if other.State != peer.StateEstablished {
				continue
			}
			entry := other.AddrFrom()
			entry.Timestamp = uint32(other.PingTime.Unix())
			addrs = append(addrs, entry)
		}
	})
	if p == nil {
		return
	}
	c.send(p, message.AddrMessage{Addresses: addrs})
}

// handleGetHeaders parses the locator but the full response is out of
// scope here; reply with an empty headers batch, logged at debug.
func (c *Client) handleGetHeaders(token reactor.Token, req message.GetHeadersMessage) {
	c.log.Debug("getheaders stub reply", zap.String("token", token.String()), zap.Int("locators", len(req.BlockLocators)))
	var p *peer.Peer
	c.State.WithLock(func() { p = c.State.Peers[token] })
	if p == nil {
		return
	}
	c.send(p, message.HeadersMessage{})
}

// handleGetBlocks mirrors handleGetHeaders: the locator is parsed and the
// reply is an empty headers batch, logged at debug.
func (c *Client) handleGetBlocks(token reactor.Token, req message.GetBlocksMessage) {
	c.log.Debug("getblocks stub reply", zap.String("token", token.String()), zap.Int("locators", len(req.BlockLocators)))
	var p *peer.Peer
	c.State.WithLock(func() { p = c.State.Peers[token] })
	if p == nil {
		return
	}
	c.send(p, message.HeadersMessage{})
}

// handleReject is parsed and surfaced but not driven further.
func (c *Client) handleReject(token reactor.Token, rej message.RejectMessage) {
	c.log.Info("peer sent reject",
		zap.String("token", token.String()),
		zap.String("rejected", string(rej.Rejected)),
		zap.String("reason", rej.Reason))
}
