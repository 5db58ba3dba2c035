package client

import (
	"go-bitcoin/internal/message"
)

// Config holds the knobs a running node needs at startup. Everything here
// is wired from cmd/bitnode's flag parsing; the client package itself
// never reads environment variables or flags directly.
type Config struct {
	BindAddr string
	BindPort int
	Network  message.NetworkMagic

	SlabCapacity   int
	BlockStorePath string

	// CloseOnWrongNetwork decides what happens when a peer's magic doesn't
	// match ours. The wire spec is ambiguous on this point; the original
	// implementation logs and keeps the connection open, so that's the
	// default (false). Set true to drop the peer's entry from the peer
	// table instead (the same step OnDisconnect takes); the reactor does
	// not close the socket, so later frames on it are still delivered.
	CloseOnWrongNetwork bool
}

// DefaultConfig matches the reference client's conventional testnet
// listening port and a generous connection slab.
func DefaultConfig() Config {
	return Config{
		BindAddr:       "0.0.0.0",
		BindPort:       18333,
		Network:        message.TestNet3,
		SlabCapacity:   1024,
		BlockStorePath: "blocks.dat",
	}
}
