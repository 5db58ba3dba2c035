// Package client implements the Bitcoin P2P protocol's handler table on
// top of the reactor: version handshake, liveness, inventory relay, and
// chain-sync continuation.
package client

import (
	"encoding/binary"
	"time"

	"github.com/NebulousLabs/fastrand"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sys/unix"

	"go-bitcoin/internal/message"
	"go-bitcoin/internal/peer"
	"go-bitcoin/internal/reactor"
)

// Sender is the subset of *reactor.Reactor the handler table needs: a way
// to hand a framed message back for a given connection. Depending on this
// instead of the concrete Reactor keeps the handler table testable without
// a live socket.
type Sender interface {
	Send(token reactor.Token, frame []byte) error
}

// Client wires the reactor's raw frame delivery to the protocol handler
// table and owns the state every handler touches.
type Client struct {
	RunID  uuid.UUID
	Config Config
	State  *SharedState

	Reactor     Sender
	Broadcaster *Broadcaster

	log *zap.Logger
}

// New builds a Client around an already-constructed SharedState. The
// Reactor field is left nil until SetReactor is called, since the
// Reactor's own constructor needs a Dispatcher (this Client) first.
func New(cfg Config, state *SharedState, log *zap.Logger) *Client {
	runID := uuid.New()
	return &Client{
		RunID:       runID,
		Config:      cfg,
		State:       state,
		Broadcaster: NewBroadcaster(256),
		log:         log.With(zap.String("run_id", runID.String())),
	}
}

// SetReactor binds the reactor this client dispatches through, once it's
// been constructed with this client as its Dispatcher.
func (c *Client) SetReactor(r Sender) {
	c.Reactor = r
}

// OnAccept registers a fresh peer for a newly accepted connection.
func (c *Client) OnAccept(token reactor.Token, remote unix.Sockaddr) {
	c.State.WithLock(func() {
		c.State.Peers[token] = peer.New(token, peer.Inbound)
	})
	c.log.Info("peer connected", zap.String("token", token.String()))
}

// OnDisconnect drops the peer table entry. Pending inventory entries
// referring to this peer are left for the cache's own timeout sweep,
// since inventory tracking is peerless.
func (c *Client) OnDisconnect(token reactor.Token, cause error) {
	c.State.WithLock(func() {
		if p, ok := c.State.Peers[token]; ok {
			p.MarkClosed()
			delete(c.State.Peers, token)
		}
	})
	c.log.Info("peer disconnected", zap.String("token", token.String()), zap.Error(cause))
}

// OnMessage verifies framing invariants the reactor doesn't already
// enforce (network magic, checksum) and dispatches to the handler table.
func (c *Client) OnMessage(token reactor.Token, header message.MessageHeader, payload []byte) {
	if err := header.VerifyNetwork(c.State.Network); err != nil {
		c.log.Warn("wrong network magic", zap.String("token", token.String()), zap.Error(err))
		if c.Config.CloseOnWrongNetwork {
			c.OnDisconnect(token, err)
		}
		return
	}
	if err := header.VerifyChecksum(payload); err != nil {
		c.log.Warn("checksum mismatch", zap.String("token", token.String()), zap.Error(err))
		return
	}

	msg, err := message.ParsePayload(header, payload)
	if err != nil {
		c.log.Warn("failed to parse payload", zap.String("command", string(header.Command)), zap.Error(err))
		return
	}

	c.dispatch(token, msg)
}

// dispatch routes one parsed message to its handler. Handlers append
// their replies to the peer's outbound queue; flushOutbound drains and
// frames them for the reactor after the handler returns, keeping the
// dispatch tick atomic with respect to peer-state updates.
func (c *Client) dispatch(token reactor.Token, msg message.Message) {
	switch m := msg.(type) {
	case message.VersionMessage:
		c.handleVersion(token, m)
	case message.VerAckMessage:
		c.handleVerAck(token)
	case message.PingMessage:
		c.handlePing(token, m)
	case message.PongMessage:
		c.handlePong(token, m)
	case message.AddrMessage:
		c.handleAddr(token, m)
	case message.InvMessage:
		c.handleInv(token, m)
	case message.GetAddrMessage:
		c.handleGetAddr(token)
	case message.TxMessage:
		c.handleTx(token, m)
	case message.BlockMessage:
		c.handleBlock(token, m)
	case message.GetHeadersMessage:
		c.handleGetHeaders(token, m)
	case message.GetBlocksMessage:
		c.handleGetBlocks(token, m)
	case message.RejectMessage:
		c.handleReject(token, m)
	case message.GenericMessage:
		c.log.Debug("unhandled command", zap.String("command", string(m.Command())))
	default:
		c.log.Debug("unrecognized message type dispatched")
	}

	c.flushOutbound(token)
}

// flushOutbound drains whatever the handler just enqueued and hands it
// to the reactor as individual writes.
func (c *Client) flushOutbound(token reactor.Token) {
	var frames [][]byte
	c.State.WithLock(func() {
		p, ok := c.State.Peers[token]
		if !ok {
			return
		}
		frames = p.DrainOutbound()
	})
	if c.Reactor == nil {
		return
	}
	for _, frame := range frames {
		if err := c.Reactor.Send(token, frame); err != nil {
			c.log.Warn("failed to send frame", zap.String("token", token.String()), zap.Error(err))
			return
		}
	}
}

// send serializes msg and enqueues it on p's outbound queue.
func (c *Client) send(p *peer.Peer, msg message.Message) {
	payload, err := msg.Serialize()
	if err != nil {
		c.log.Error("serialize failed", zap.String("command", string(msg.Command())), zap.Error(err))
		return
	}
	frame, err := message.Frame(c.State.Network, msg.Command(), payload)
	if err != nil {
		c.log.Error("frame failed", zap.String("command", string(msg.Command())), zap.Error(err))
		return
	}
	p.Enqueue(frame)
}

// startSession sends getaddr, a liveness ping, and an initial getblocks
// once a peer reaches StateEstablished.
func (c *Client) startSession(p *peer.Peer) {
	c.send(p, message.GetAddrMessage{})

	nonce := binary.LittleEndian.Uint64(fastrand.Bytes(8))
	p.RecordPing(nonce, time.Now())
	c.send(p, message.PingMessage{Nonce: nonce})

	c.maybeContinueSync(p)
}

// maybeContinueSync issues a fresh getblocks if there's no inventory
// already in flight, guarding against piling up redundant requests while
// blocks are still arriving.
func (c *Client) maybeContinueSync(p *peer.Peer) {
	if c.State.PendingInv.Len() != 0 {
		return
	}
	locators := c.State.BlockStore.BlockLocators()
	gb := message.NewGetBlocksMessage(message.ProtocolVersion, locators, nil)
	c.send(p, gb)
}
