// Package metadata extracts client network and device information from the
// request and exposes it through the context.
package metadata

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/mssola/useragent"

	"unicred/pkg/requestcontext"
)

// ClientMetadata records the client IP, raw User-Agent, and a parsed device
// description on the context. Apply early in the chain.
func ClientMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ua := r.Header.Get("User-Agent")
		ctx := requestcontext.WithClientMetadata(r.Context(), ClientIPFromRequest(r), ua, DescribeDevice(ua))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// DescribeDevice condenses a User-Agent string into "Browser x.y on OS",
// with "Bot"/"Mobile" markers. Empty input yields "unknown".
func DescribeDevice(ua string) string {
	if ua == "" {
		return "unknown"
	}
	parsed := useragent.New(ua)
	if parsed.Bot() {
		return "Bot"
	}
	name, version := parsed.Browser()
	if name == "" {
		return "unknown"
	}
	desc := name
	if version != "" {
		desc = fmt.Sprintf("%s %s", name, version)
	}
	if os := parsed.OS(); os != "" {
		desc = fmt.Sprintf("%s on %s", desc, os)
	}
	if parsed.Mobile() {
		desc += " (mobile)"
	}
	return desc
}

// ClientIPFromRequest extracts the real client IP, handling proxies and load
// balancers.
func ClientIPFromRequest(r *http.Request) string {
	// X-Forwarded-For can contain multiple IPs; the first is the client.
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	// RemoteAddr is "ip:port" ("[::1]:port" for IPv6).
	if addr := r.RemoteAddr; addr != "" {
		if idx := strings.LastIndex(addr, ":"); idx != -1 {
			return addr[:idx]
		}
		return addr
	}
	return "unknown"
}
