package reactor

import (
	"encoding/binary"
	"fmt"

	"golang.org/x/sys/unix"

	"go-bitcoin/internal/encoding"
	"go-bitcoin/internal/message"
)

// connState is a connection's place in the Reading/Writing/Closed state
// machine. A connection moves to Writing whenever its outbound queue is
// non-empty and back to Reading once drained; Closed is terminal.
type connState int

const (
	StateReading connState = iota
	StateWriting
	StateClosed
)

func (s connState) String() string {
	switch s {
	case StateReading:
		return "reading"
	case StateWriting:
		return "writing"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

const headerSize = 24

// Connection wraps one peer's raw, nonblocking socket plus the buffering
// needed to turn a stream of bytes into discrete framed messages, and
// discrete outbound messages back into a stream of bytes.
type Connection struct {
	Token      Token
	Fd         int
	RemoteAddr unix.Sockaddr
	State      connState

	readBuf  []byte
	writeBuf []byte
	pending  [][]byte
}

// NewConnection wraps an already-accepted, already-nonblocking socket fd.
func NewConnection(fd int, remote unix.Sockaddr, token Token) *Connection {
	return &Connection{
		Token:      token,
		Fd:         fd,
		RemoteAddr: remote,
		State:      StateReading,
	}
}

// ReadIntoBuffer drains whatever is currently available on the socket
// without blocking, returning (bytesRead, wouldBlock, err). wouldBlock
// means the caller has drained everything ready for this edge-triggered
// notification.
func (c *Connection) ReadIntoBuffer() (int, bool, error) {
	scratch := make([]byte, 65536)
	total := 0
	for {
		n, err := unix.Read(c.Fd, scratch)
		if n > 0 {
			c.readBuf = append(c.readBuf, scratch[:n]...)
			total += n
		}
		if err != nil {
			if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
				return total, true, nil
			}
			return total, false, err
		}
		if n == 0 {
			return total, false, fmt.Errorf("peer closed connection")
		}
		if n < len(scratch) {
			return total, true, nil
		}
	}
}

// NextFrame extracts at most one complete header+payload from the
// connection's read buffer, leaving any trailing partial frame in place
// for the next read. A dispatcher that wants to coalesce a burst of
// pipelined messages calls NextFrame in a loop until ok is false.
func (c *Connection) NextFrame() (header message.MessageHeader, payload []byte, ok bool, err error) {
	if len(c.readBuf) < headerSize {
		return message.MessageHeader{}, nil, false, nil
	}

	length := binary.LittleEndian.Uint32(c.readBuf[16:20])
	if length > encoding.MaxMessageSize {
		return message.MessageHeader{}, nil, false, fmt.Errorf("payload length %d exceeds cap %d", length, encoding.MaxMessageSize)
	}
	total := headerSize + int(length)
	if len(c.readBuf) < total {
		return message.MessageHeader{}, nil, false, nil
	}

	h, err := message.ParseHeader(byteReader{c.readBuf[:headerSize]})
	if err != nil {
		return message.MessageHeader{}, nil, false, err
	}

	payload = make([]byte, length)
	copy(payload, c.readBuf[headerSize:total])
	c.readBuf = c.readBuf[total:]

	return h, payload, true, nil
}

// Enqueue appends a fully-framed message to the outbound queue and moves
// the connection to StateWriting so the reactor starts polling for
// writability.
func (c *Connection) Enqueue(frame []byte) {
	c.pending = append(c.pending, frame)
	if c.State == StateReading {
		c.State = StateWriting
	}
}

// Flush writes as much of the pending outbound data as the socket will
// accept without blocking. When everything drains, the connection falls
// back to StateReading.
func (c *Connection) Flush() error {
	for len(c.writeBuf) > 0 || len(c.pending) > 0 {
		if len(c.writeBuf) == 0 {
			c.writeBuf = c.pending[0]
			c.pending = c.pending[1:]
		}
		n, err := unix.Write(c.Fd, c.writeBuf)
		if n > 0 {
			c.writeBuf = c.writeBuf[n:]
		}
		if err != nil {
			if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
				return nil
			}
			return err
		}
		if len(c.writeBuf) > 0 {
			// socket buffer is full; wait for the next writable event
			return nil
		}
	}
	c.State = StateReading
	return nil
}

// Close releases the connection's socket. The caller is responsible for
// removing it from whatever Slab holds it.
func (c *Connection) Close() error {
	c.State = StateClosed
	return unix.Close(c.Fd)
}

// byteReader adapts a byte slice to io.Reader for ParseHeader without an
// extra bytes.Reader allocation per call.
type byteReader struct{ b []byte }

func (r byteReader) Read(p []byte) (int, error) {
	n := copy(p, r.b)
	return n, nil
}
