package jwt

import (
	"context"
	"net/http"
	"strings"

	"bucketfront/internal/pkg/errs"
	"bucketfront/internal/pkg/logx"
	"bucketfront/internal/pkg/resp"
)

type contextKey string

const (
	// ContextAuthPayloadKey is the request Context key holding the parsed *Payload.
	ContextAuthPayloadKey contextKey = "auth_payload"
)

// IdentityExtractorMiddleware parses a bearer token when present and stores its Payload in
// the request Context. Missing or invalid tokens leave the request anonymous; it never rejects.
func IdentityExtractorMiddleware(secretKey string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				next.ServeHTTP(w, r)
				return
			}

			// Expected format: "Bearer <token>"
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				next.ServeHTTP(w, r)
				return
			}

			payload, err := ParseToken(parts[1], secretKey)
			if err != nil {
				logx.Ctx(r.Context()).Warn().Err(err).Msg("Invalid or expired JWT provided, treating as anonymous")
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), ContextAuthPayloadKey, payload)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireScope rejects requests whose Payload is missing or lacks scope.
// It must run after IdentityExtractorMiddleware.
func RequireScope(scope string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			payload := GetPayloadFromContext(r)
			if payload == nil || !payload.HasScope(scope) {
				resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
				return
			}

			logx.Ctx(r.Context()).Debug().Str("caller_id", payload.ID).Str("scope", scope).Msg("Caller authorized")
			next.ServeHTTP(w, r)
		})
	}
}

// GetPayloadFromContext returns the Payload stored by IdentityExtractorMiddleware, or nil.
func GetPayloadFromContext(r *http.Request) *Payload {
	payload, ok := r.Context().Value(ContextAuthPayloadKey).(*Payload)

	if !ok {
		return nil
	}

	return payload
}
