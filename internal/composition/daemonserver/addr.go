package daemonserver

import (
	"net"
	"strings"
)

// isLoopbackAddr reports whether addr only listens on the local host. Any
// other bind address requires an RPC token.
func isLoopbackAddr(addr string) bool {
	host, _, err := net.SplitHostPort(strings.TrimSpace(addr))
	if err != nil {
		return false
	}
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
