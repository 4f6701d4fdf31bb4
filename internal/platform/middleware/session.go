package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	dErrors "f2f-cri/pkg/domain-errors"
	"f2f-cri/pkg/platform/httputil"
	"f2f-cri/pkg/requestcontext"
)

// SessionHeader carries the journey's session id on front-end calls.
const SessionHeader = "session-id"

type sessionIDKey struct{}

// GetSessionID returns the id accepted by RequireSessionID.
func GetSessionID(ctx context.Context) string {
	if id, ok := ctx.Value(sessionIDKey{}).(string); ok {
		return id
	}
	return ""
}

// RequireSessionID rejects requests without a well-formed session-id header:
// 401 when it is absent, 400 when it is not a UUID.
func RequireSessionID(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			raw := r.Header.Get(SessionHeader)
			if raw == "" {
				logger.WarnContext(ctx, "missing session header",
					"request_id", requestcontext.RequestID(ctx),
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "Missing header: session-id is required"))
				return
			}
			id, err := uuid.Parse(raw)
			if err != nil {
				logger.WarnContext(ctx, "malformed session header",
					"request_id", requestcontext.RequestID(ctx),
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "Session id must be a valid uuid"))
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(ctx, sessionIDKey{}, id.String())))
		})
	}
}
