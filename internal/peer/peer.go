// Package peer tracks per-connection protocol state: handshake progress,
// liveness (ping/pong round-trip), and the outbound frame queue a
// connection drains on every writable tick.
package peer

import (
	"time"

	"github.com/emirpasic/gods/queues/linkedlistqueue"

	"go-bitcoin/internal/message"
	"go-bitcoin/internal/reactor"
)

// State is a peer's position in the handshake/session state machine.
type State int

const (
	StateNew State = iota
	StateVersionReceived
	StateAwaitingVerack
	StateEstablished
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateNew:
		return "new"
	case StateVersionReceived:
		return "version_received"
	case StateAwaitingVerack:
		return "awaiting_verack"
	case StateEstablished:
		return "established"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Direction records which side of the TCP handshake opened the connection.
type Direction int

const (
	Inbound Direction = iota
	Outbound
)

// UnknownRTT is the sentinel last-RTT value before any pong has been seen.
const UnknownRTT int64 = -1

// Peer is one remote node's session state.
type Peer struct {
	Token     reactor.Token
	Direction Direction
	State     State

	Version        *message.VersionMessage
	VerackReceived bool

	PingTime  time.Time
	PingNonce uint64
	LastRTTMs int64

	outbound *linkedlistqueue.Queue
}

// New creates a fresh peer in StateNew for a just-accepted or just-dialed
// connection.
func New(token reactor.Token, dir Direction) *Peer {
	return &Peer{
		Token:     token,
		Direction: dir,
		State:     StateNew,
		LastRTTMs: UnknownRTT,
		outbound:  linkedlistqueue.New(),
	}
}

// Enqueue appends a fully-framed message to the peer's outbound queue,
// to be drained by the reactor on the next writable tick.
func (p *Peer) Enqueue(frame []byte) {
	p.outbound.Enqueue(frame)
}

// DrainOutbound removes and returns every frame currently queued, in
// enqueue order.
func (p *Peer) DrainOutbound() [][]byte {
	frames := make([][]byte, 0, p.outbound.Size())
	for !p.outbound.Empty() {
		v, _ := p.outbound.Dequeue()
		frames = append(frames, v.([]byte))
	}
	return frames
}

// RecordVersion stores the peer's version payload and advances the state
// machine out of StateNew.
func (p *Peer) RecordVersion(v message.VersionMessage) {
	p.Version = &v
	if p.State == StateNew {
		p.State = StateVersionReceived
	}
}

// MarkAwaitingVerack advances the state machine after replying with the
// local version and verack.
func (p *Peer) MarkAwaitingVerack() {
	if p.State == StateVersionReceived {
		p.State = StateAwaitingVerack
	}
}

// MarkEstablished records that the remote peer's verack arrived,
// completing the handshake.
func (p *Peer) MarkEstablished() {
	p.VerackReceived = true
	p.State = StateEstablished
}

// MarkClosed is terminal; no further state transitions are valid.
func (p *Peer) MarkClosed() {
	p.State = StateClosed
}

// RecordPing stamps the nonce and send time of an outgoing ping, so a
// matching pong can be timed.
func (p *Peer) RecordPing(nonce uint64, at time.Time) {
	p.PingNonce = nonce
	p.PingTime = at
}

// RecordPong reports whether nonce matches the outstanding ping and, if
// so, records the round-trip time observed at "at".
func (p *Peer) RecordPong(nonce uint64, at time.Time) bool {
	if nonce != p.PingNonce {
		return false
	}
	p.LastRTTMs = at.Sub(p.PingTime).Milliseconds()
	return true
}

// AddrFrom reports the address the peer advertised as its own listening
// address in its version message, or the zero value if none is known yet.
func (p *Peer) AddrFrom() message.IPAddress {
	if p.Version == nil {
		return message.IPAddress{}
	}
	return p.Version.SenderAddr
}
