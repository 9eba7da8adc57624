package auth

import (
	"net"
	"strings"
)

// ClientID derives the rate-limiting identity for a request. The fallback
// order is fixed: explicit API key header, then the first entry of the
// forwarded-for chain, then the raw connection address. This order decides
// fairness granularity for unauthenticated traffic.
func ClientID(apiKey, forwardedFor, remoteAddr string) string {
	if key := strings.TrimSpace(apiKey); key != "" {
		return key
	}

	if forwardedFor != "" {
		first := strings.TrimSpace(strings.Split(forwardedFor, ",")[0])
		if first != "" {
			return first
		}
	}

	if host, _, err := net.SplitHostPort(remoteAddr); err == nil && host != "" {
		return host
	}
	return remoteAddr
}
