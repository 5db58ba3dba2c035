package reactor

import "fmt"

// Token indexes a live connection inside a Slab. The server's listening
// socket is always Token 0; every accepted connection gets the next free
// slot, and a slot is never reused while its connection is live.
type Token uint32

const serverToken Token = 0

// slabEntry is one slot of a Slab: a live connection, or a link in the
// free list.
type slabEntry struct {
	conn   *Connection
	inUse  bool
	nextFP int // next free index, -1 if none
}

// Slab is an index-stable free-list of connections keyed by Token. Growing
// never invalidates a Token already handed out, since entries are appended
// and indices are never shuffled.
type Slab struct {
	entries  []slabEntry
	freeHead int
	len      int
}

// NewSlab builds a Slab pre-sized to capacity connection slots. Token 0 is
// reserved for the listening socket and never handed out by Insert.
func NewSlab(capacity int) *Slab {
	if capacity < 1 {
		capacity = 1
	}
	s := &Slab{
		entries:  make([]slabEntry, 1, capacity+1),
		freeHead: -1,
	}
	s.entries[0] = slabEntry{inUse: true, nextFP: -1} // server token reserved
	return s
}

// Insert places conn in the next free slot and returns its Token.
func (s *Slab) Insert(conn *Connection) Token {
	if s.freeHead != -1 {
		idx := s.freeHead
		s.freeHead = s.entries[idx].nextFP
		s.entries[idx] = slabEntry{conn: conn, inUse: true, nextFP: -1}
		s.len++
		return Token(idx)
	}
	idx := len(s.entries)
	s.entries = append(s.entries, slabEntry{conn: conn, inUse: true, nextFP: -1})
	s.len++
	return Token(idx)
}

// Get returns the connection at token, or nil if the slot is empty.
func (s *Slab) Get(token Token) *Connection {
	idx := int(token)
	if idx <= 0 || idx >= len(s.entries) || !s.entries[idx].inUse {
		return nil
	}
	return s.entries[idx].conn
}

// Remove frees token's slot, making it eligible for reuse by a future
// Insert. Removing the server token or an already-free token is a no-op.
func (s *Slab) Remove(token Token) {
	idx := int(token)
	if idx <= 0 || idx >= len(s.entries) || !s.entries[idx].inUse {
		return
	}
	s.entries[idx] = slabEntry{inUse: false, nextFP: s.freeHead}
	s.freeHead = idx
	s.len--
}

// Len reports the number of live (non-server) connections.
func (s *Slab) Len() int {
	return s.len
}

// Tokens returns every live connection token, server token excluded.
func (s *Slab) Tokens() []Token {
	tokens := make([]Token, 0, s.len)
	for i := 1; i < len(s.entries); i++ {
		if s.entries[i].inUse {
			tokens = append(tokens, Token(i))
		}
	}
	return tokens
}

func (t Token) String() string {
	if t == serverToken {
		return "server"
	}
	return fmt.Sprintf("conn#%d", uint32(t))
}
