package middleware

import (
	"net"
	"net/http"
	"strings"

	"github.com/mssola/useragent"

	"f2f-cri/pkg/requestcontext"
)

// AuditHeader is the opaque device-information header forwarded by the front end.
const AuditHeader = "txma-audit-encoded"

// ClientMetadata records the caller's IP and the encoded audit header on the
// request context.
func ClientMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithClientIP(r.Context(), clientIP(r))
		if encoded := strings.TrimSpace(r.Header.Get(AuditHeader)); encoded != "" {
			ctx = requestcontext.WithEncodedAuditHeader(ctx, encoded)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// clientIP prefers the first X-Forwarded-For hop, then X-Real-IP, then the
// socket address.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// DeviceName is a coarse "Browser on OS" label for request logs.
func DeviceName(ua string) string {
	if ua == "" {
		return "unknown"
	}
	parsed := useragent.New(ua)
	browser, _ := parsed.Browser()
	os := parsed.OS()
	switch {
	case browser != "" && os != "":
		return browser + " on " + os
	case browser != "":
		return browser
	case parsed.Bot():
		return "bot"
	}
	return "unknown"
}
