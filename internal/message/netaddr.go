package message

import (
	"encoding/binary"
	"fmt"
	"io"
	"net"

	"go-bitcoin/internal/encoding"
)

// Services is the bitfield a peer advertises in its version/addr entries.
type Services uint64

const (
	ServiceNodeNetwork Services = 1 << 0
	ServiceNodeGetUTXO Services = 1 << 1
	ServiceNodeBloom   Services = 1 << 2
	ServiceNodeWitness Services = 1 << 3
)

func (s Services) Has(flag Services) bool { return s&flag != 0 }

// IPAddress is a single net_addr entry: services, a 16-byte (v4-mapped or
// native v6) address, and a port. Whether a leading 4-byte timestamp is
// present is NOT encoded in the type - the original implementation this is
// grounded on threads an explicit include-timestamp flag through both
// serialize and parse, since the same structure is reused with (addr
// message) and without (version message) a timestamp.
type IPAddress struct {
	Timestamp uint32
	Services  Services
	IP        [16]byte
	Port      uint16
}

func NewIPAddress(services Services, ip net.IP, port uint16) IPAddress {
	var addr [16]byte
	copy(addr[:], ip.To16())
	return IPAddress{Services: services, IP: addr, Port: port}
}

func (a IPAddress) String() string {
	return net.IP(a.IP[:]).String()
}

// Serialize encodes the entry. When includeTimestamp is true a 4-byte
// little-endian unix timestamp precedes the rest of the fields (the `addr`
// message's wire format); version messages omit it entirely.
func (a IPAddress) Serialize(includeTimestamp bool) []byte {
	size := 26
	if includeTimestamp {
		size += 4
	}
	buf := make([]byte, size)
	offset := 0
	if includeTimestamp {
		binary.LittleEndian.PutUint32(buf[0:4], a.Timestamp)
		offset = 4
	}
	binary.LittleEndian.PutUint64(buf[offset:offset+8], uint64(a.Services))
	copy(buf[offset+8:offset+24], a.IP[:])
	binary.BigEndian.PutUint16(buf[offset+24:offset+26], a.Port)
	return buf
}

// ParseIPAddress reads a net_addr entry, matching Serialize's
// includeTimestamp convention.
func ParseIPAddress(r io.Reader, includeTimestamp bool) (IPAddress, error) {
	var a IPAddress

	if includeTimestamp {
		ts, err := encoding.ReadUint32LE(r)
		if err != nil {
			return IPAddress{}, fmt.Errorf("net_addr timestamp - %w", err)
		}
		a.Timestamp = ts
	}

	services, err := encoding.ReadUint64LE(r)
	if err != nil {
		return IPAddress{}, fmt.Errorf("net_addr services - %w", err)
	}
	a.Services = Services(services)

	if _, err := io.ReadFull(r, a.IP[:]); err != nil {
		return IPAddress{}, fmt.Errorf("net_addr ip - %w", err)
	}

	port, err := encoding.ReadUint16BE(r)
	if err != nil {
		return IPAddress{}, fmt.Errorf("net_addr port - %w", err)
	}
	a.Port = port

	return a, nil
}
