// Package config defines the flag-driven options cmd/bitnode starts
// from. Nothing else in the module reads an environment variable or a
// flag directly; everything is threaded down from here.
package config

import (
	"fmt"

	"go-bitcoin/internal/message"
)

// Options mirrors the struct-tag driven flag style used throughout the
// reference stack's cmd/ binaries: one flat struct, long/short names
// and a description per field, parsed once at startup.
type Options struct {
	BindAddr string `short:"a" long:"addr" description:"address to listen on" default:"0.0.0.0"`
	BindPort int    `short:"p" long:"port" description:"port to listen on" default:"18333"`

	Network string `short:"n" long:"network" description:"main, testnet, testnet3, or namecoin" default:"testnet3"`

	SlabCapacity   int    `long:"slab-capacity" description:"maximum concurrent connections" default:"1024"`
	BlockStorePath string `long:"block-store" description:"path to the block log" default:"blocks.dat"`

	CloseOnWrongNetwork bool `long:"strict-network" description:"disconnect peers advertising the wrong network magic"`

	Verbose bool `short:"v" long:"verbose" description:"enable debug logging"`
}

// NetworkMagic resolves the --network flag to its wire magic.
func (o Options) NetworkMagic() (message.NetworkMagic, error) {
	switch o.Network {
	case "main":
		return message.Main, nil
	case "testnet":
		return message.TestNet, nil
	case "testnet3", "":
		return message.TestNet3, nil
	case "namecoin":
		return message.Namecoin, nil
	default:
		return 0, fmt.Errorf("unknown network %q", o.Network)
	}
}
