package middleware

import (
	"fmt"
	"net"
	"net/http"
	"strings"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// TrustedProxies lists the peers allowed to report a client address through
// X-Real-IP, X-Forwarded-For or True-Client-IP.
type TrustedProxies struct {
	nets []*net.IPNet
}

// NewTrustedProxies parses CIDRs or bare IPs. An empty list trusts nobody.
func NewTrustedProxies(entries []string) (*TrustedProxies, error) {
	tp := &TrustedProxies{}
	for _, e := range entries {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		if !strings.Contains(e, "/") {
			ip := net.ParseIP(e)
			if ip == nil {
				return nil, fmt.Errorf("invalid trusted proxy %q", e)
			}
			bits := 32
			if ip.To4() == nil {
				bits = 128
			}
			e = fmt.Sprintf("%s/%d", e, bits)
		}
		_, ipNet, err := net.ParseCIDR(e)
		if err != nil {
			return nil, fmt.Errorf("invalid trusted proxy %q: %w", e, err)
		}
		tp.nets = append(tp.nets, ipNet)
	}
	return tp, nil
}

// Trusts reports whether host (no port) belongs to a trusted proxy range.
func (tp *TrustedProxies) Trusts(host string) bool {
	if tp == nil {
		return false
	}
	ip := net.ParseIP(host)
	if ip == nil {
		return false
	}
	for _, n := range tp.nets {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}

// RealIP applies chi's RealIP only to requests whose TCP peer is a trusted proxy.
// Everyone else keeps the socket address, so guests cannot pick their own quota key.
func (tp *TrustedProxies) RealIP(next http.Handler) http.Handler {
	forwarded := chimiddleware.RealIP(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if tp.Trusts(ClientAddr(r)) {
			forwarded.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}
