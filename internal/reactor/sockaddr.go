package reactor

import (
	"fmt"
	"net"

	"golang.org/x/sys/unix"
)

// resolveSockaddr turns a host (empty means all interfaces) and port into
// the unix.Sockaddr Bind/Connect expect.
func resolveSockaddr(host string, port int) (unix.Sockaddr, error) {
	var ip net.IP
	if host == "" {
		ip = net.IPv4zero
	} else {
		ip = net.ParseIP(host)
		if ip == nil {
			return nil, fmt.Errorf("invalid bind address %q", host)
		}
	}

	if v4 := ip.To4(); v4 != nil {
		var addr [4]byte
		copy(addr[:], v4)
		return &unix.SockaddrInet4{Port: port, Addr: addr}, nil
	}

	v6 := ip.To16()
	if v6 == nil {
		return nil, fmt.Errorf("address %q is neither IPv4 nor IPv6", host)
	}
	var addr [16]byte
	copy(addr[:], v6)
	return &unix.SockaddrInet6{Port: port, Addr: addr}, nil
}

// SockaddrToTCPAddr converts a raw sockaddr from Accept4 into a *net.TCPAddr
// for logging and for message.IPAddress construction.
func SockaddrToTCPAddr(sa unix.Sockaddr) *net.TCPAddr {
	switch a := sa.(type) {
	case *unix.SockaddrInet4:
		return &net.TCPAddr{IP: net.IP(a.Addr[:]), Port: a.Port}
	case *unix.SockaddrInet6:
		return &net.TCPAddr{IP: net.IP(a.Addr[:]), Port: a.Port}
	default:
		return nil
	}
}
