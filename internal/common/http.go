package common

import (
	"net/http"
	"net/netip"
	"strings"
)

// ClientIP returns the caller's address without the port. Behind chi's
// RealIP middleware RemoteAddr already carries the forwarded client address.
func ClientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	addr := strings.TrimSpace(r.RemoteAddr)
	if ap, err := netip.ParseAddrPort(addr); err == nil {
		return ap.Addr().Unmap().String()
	}
	if a, err := netip.ParseAddr(addr); err == nil {
		return a.Unmap().String()
	}
	return addr
}
