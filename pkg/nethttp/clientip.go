package nethttp

import (
	"net"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// TrustedProxies is a configured allow-list of peer IPs permitted to set
// X-Forwarded-For / X-Real-Ip. Untrusted peers cannot spoof client identity
// through those headers (§4.9).
type TrustedProxies struct {
	ips map[string]struct{}
}

// NewTrustedProxies builds an allow-list from a comma-separated env value.
func NewTrustedProxies(csv string) *TrustedProxies {
	ips := make(map[string]struct{})

	for _, raw := range strings.Split(csv, ",") {
		ip := strings.TrimSpace(raw)
		if ip != "" {
			ips[ip] = struct{}{}
		}
	}

	return &TrustedProxies{ips: ips}
}

func (t *TrustedProxies) trusts(ip string) bool {
	if t == nil {
		return false
	}

	_, ok := t.ips[ip]

	return ok
}

// ClientKey resolves the request's client identity: the immediate peer IP,
// unless that peer is in the trusted-proxy allow-list, in which case the
// right-most non-trusted entry of X-Forwarded-For (or X-Real-Ip) is used
// instead.
func (t *TrustedProxies) ClientKey(c *fiber.Ctx) string {
	peer := peerIP(c)

	if !t.trusts(peer) {
		return peer
	}

	if xff := c.Get(HeaderForwardedFor); xff != "" {
		parts := strings.Split(xff, ",")
		for i := len(parts) - 1; i >= 0; i-- {
			candidate := strings.TrimSpace(parts[i])
			if candidate == "" {
				continue
			}

			if !t.trusts(candidate) {
				return candidate
			}
		}
	}

	if real := strings.TrimSpace(c.Get(HeaderRealIP)); real != "" && !t.trusts(real) {
		return real
	}

	return peer
}

func peerIP(c *fiber.Ctx) string {
	addr := c.Context().RemoteAddr().String()

	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}

	return host
}
