package message

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"time"

	"go-bitcoin/internal/encoding"

	"github.com/NebulousLabs/fastrand"
)

// VersionMessage is the handshake's opening payload - a peer's protocol
// version, services, the address pair as each side sees the connection,
// a nonce for self-connection detection, a user agent string, the sender's
// best known block height, and whether it wants unfiltered relay.
type VersionMessage struct {
	Version      int32
	Services     Services
	Timestamp    int64
	ReceiverAddr IPAddress
	SenderAddr   IPAddress
	Nonce        uint64
	UserAgent    string
	StartHeight  int32
	Relay        bool
}

const ProtocolVersion int32 = 70015

// DefaultVersionMessage builds the version payload this node sends on
// outbound connect, with a fresh random nonce.
func DefaultVersionMessage(remoteIP net.IP, port uint16) VersionMessage {
	return VersionMessage{
		Version:      ProtocolVersion,
		Services:     ServiceNodeWitness,
		Timestamp:    time.Now().Unix(),
		ReceiverAddr: NewIPAddress(0, remoteIP, port),
		SenderAddr:   NewIPAddress(0, net.IPv4zero, port),
		Nonce:        binary.LittleEndian.Uint64(fastrand.Bytes(8)),
		UserAgent:    "/go-bitcoin:0.1/",
		StartHeight:  0,
		Relay:        false,
	}
}

func (vm VersionMessage) Command() Command { return CmdVersion }

func (vm VersionMessage) Serialize() ([]byte, error) {
	buf := bytes.NewBuffer(nil)

	versionBuf := make([]byte, 4)
	encoding.PutInt32LE(versionBuf, vm.Version)
	buf.Write(versionBuf)

	servicesBuf := make([]byte, 8)
	encoding.PutUint64LE(servicesBuf, uint64(vm.Services))
	buf.Write(servicesBuf)

	tsBuf := make([]byte, 8)
	encoding.PutInt64LE(tsBuf, vm.Timestamp)
	buf.Write(tsBuf)

	buf.Write(vm.ReceiverAddr.Serialize(false))
	buf.Write(vm.SenderAddr.Serialize(false))

	nonceBuf := make([]byte, 8)
	encoding.PutUint64LE(nonceBuf, vm.Nonce)
	buf.Write(nonceBuf)

	userAgent, err := encoding.WriteVarString(vm.UserAgent)
	if err != nil {
		return nil, fmt.Errorf("version user agent - %w", err)
	}
	buf.Write(userAgent)

	heightBuf := make([]byte, 4)
	encoding.PutInt32LE(heightBuf, vm.StartHeight)
	buf.Write(heightBuf)

	if vm.Relay {
		buf.WriteByte(0x01)
	} else {
		buf.WriteByte(0x00)
	}

	return buf.Bytes(), nil
}

func ParseVersionMessage(r io.Reader) (VersionMessage, error) {
	var vm VersionMessage

	version, err := encoding.ReadInt32LE(r)
	if err != nil {
		return VersionMessage{}, fmt.Errorf("version field - %w", err)
	}
	vm.Version = version

	services, err := encoding.ReadUint64LE(r)
	if err != nil {
		return VersionMessage{}, fmt.Errorf("version services - %w", err)
	}
	vm.Services = Services(services)

	ts, err := encoding.ReadInt64LE(r)
	if err != nil {
		return VersionMessage{}, fmt.Errorf("version timestamp - %w", err)
	}
	vm.Timestamp = ts

	receiver, err := ParseIPAddress(r, false)
	if err != nil {
		return VersionMessage{}, fmt.Errorf("version receiver addr - %w", err)
	}
	vm.ReceiverAddr = receiver

	sender, err := ParseIPAddress(r, false)
	if err != nil {
		return VersionMessage{}, fmt.Errorf("version sender addr - %w", err)
	}
	vm.SenderAddr = sender

	nonce, err := encoding.ReadUint64LE(r)
	if err != nil {
		return VersionMessage{}, fmt.Errorf("version nonce - %w", err)
	}
	vm.Nonce = nonce

	userAgent, err := encoding.ReadVarString(r)
	if err != nil {
		return VersionMessage{}, fmt.Errorf("version user agent - %w", err)
	}
	vm.UserAgent = userAgent

	height, err := encoding.ReadInt32LE(r)
	if err != nil {
		return VersionMessage{}, fmt.Errorf("version start height - %w", err)
	}
	vm.StartHeight = height

	relayByte := make([]byte, 1)
	if _, err := io.ReadFull(r, relayByte); err != nil {
		// Relay flag is optional on older peers; absence isn't fatal.
		return vm, nil
	}
	vm.Relay = relayByte[0] != 0

	return vm, nil
}
