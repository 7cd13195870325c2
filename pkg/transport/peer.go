package transport

import (
	"net"
	"strconv"
	"strings"
)

// Peer is a remote endpoint reduced to host and port. Unix sockets report
// the socket path as Host and a zero Port.
type Peer struct {
	Host string
	Port int
}

// String returns "host:port", or just Host for Unix sockets.
func (p Peer) String() string {
	if p.Port == 0 && strings.HasPrefix(p.Host, "/") {
		return p.Host
	}
	return net.JoinHostPort(p.Host, strconv.Itoa(p.Port))
}

// peerOf normalizes addr to a Peer, dropping anything beyond host and port
// such as an IPv6 zone.
func peerOf(addr net.Addr) Peer {
	switch a := addr.(type) {
	case nil:
		return Peer{}
	case *net.TCPAddr:
		return Peer{Host: a.IP.String(), Port: a.Port}
	case *net.UDPAddr:
		return Peer{Host: a.IP.String(), Port: a.Port}
	case *net.UnixAddr:
		return Peer{Host: a.Name}
	}

	host, port, err := net.SplitHostPort(addr.String())
	if err != nil {
		return Peer{Host: addr.String()}
	}
	if i := strings.IndexByte(host, '%'); i >= 0 {
		host = host[:i]
	}
	p, _ := strconv.Atoi(port)
	return Peer{Host: host, Port: p}
}
