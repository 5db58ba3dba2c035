package peer_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-bitcoin/internal/message"
	"go-bitcoin/internal/peer"
	"go-bitcoin/internal/reactor"
)

func TestHandshakeStateMachine(t *testing.T) {
	p := peer.New(reactor.Token(1), peer.Inbound)
	require.Equal(t, peer.StateNew, p.State)

	p.RecordVersion(message.VersionMessage{Version: message.ProtocolVersion})
	require.Equal(t, peer.StateVersionReceived, p.State)

	p.MarkAwaitingVerack()
	require.Equal(t, peer.StateAwaitingVerack, p.State)

	p.MarkEstablished()
	assert.Equal(t, peer.StateEstablished, p.State)
	assert.True(t, p.VerackReceived)
}

func TestRecordPongMatchesNonce(t *testing.T) {
	p := peer.New(reactor.Token(1), peer.Outbound)
	require.Equal(t, peer.UnknownRTT, p.LastRTTMs)

	start := time.Now()
	p.RecordPing(42, start)

	assert.False(t, p.RecordPong(99, start.Add(time.Millisecond)), "mismatched nonce should not record rtt")
	assert.Equal(t, peer.UnknownRTT, p.LastRTTMs, "rtt should remain unknown after a mismatched pong")

	later := start.Add(50 * time.Millisecond)
	require.True(t, p.RecordPong(42, later), "matching nonce should record rtt")
	assert.Equal(t, int64(50), p.LastRTTMs)
}

func TestOutboundQueueDrainsInOrder(t *testing.T) {
	p := peer.New(reactor.Token(1), peer.Inbound)
	p.Enqueue([]byte("a"))
	p.Enqueue([]byte("b"))

	frames := p.DrainOutbound()
	require.Len(t, frames, 2)
	assert.Equal(t, "a", string(frames[0]))
	assert.Equal(t, "b", string(frames[1]))

	assert.Empty(t, p.DrainOutbound(), "expected empty queue after drain")
}
