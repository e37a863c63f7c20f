package clientip

import (
	"net"
	"net/http"
	"strings"
)

// trustProxy gates X-Forwarded-For handling. Off by default: the header is
// client-settable, so keying rate limits on it would hand every request a
// fresh bucket (or let an attacker get a victim's address blocked).
var trustProxy bool

// SetTrustProxy enables X-Forwarded-For handling. Call once at startup, and
// only when the app runs behind a reverse proxy that appends the real peer
// address to the header.
func SetTrustProxy(trusted bool) {
	trustProxy = trusted
}

// ClientIP returns the client IP for rate limiting and logging.
// Uses r.RemoteAddr unless proxy trust is enabled, in which case the last
// X-Forwarded-For entry wins — that one was appended by the trusted proxy,
// while earlier entries are whatever the client chose to send.
func ClientIP(r *http.Request) string {
	if trustProxy {
		if fwd := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); fwd != "" {
			parts := strings.Split(fwd, ",")
			if ip := strings.TrimSpace(parts[len(parts)-1]); ip != "" {
				return ip
			}
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return strings.TrimSpace(r.RemoteAddr)
	}
	return strings.TrimSpace(host)
}
