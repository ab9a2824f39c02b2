package middleware

import (
	"context"
	"net/http"
)

const ActorIDKey contextKey = "actor_id"

// ActorHeader carries the already-verified principal identifier, stamped by
// the authentication layer in front of this service. The value is opaque
// here; no credential checking happens in this core.
const ActorHeader = "X-Actor-ID"

func ActorIdentity() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if actor := r.Header.Get(ActorHeader); actor != "" {
				r = r.WithContext(context.WithValue(r.Context(), ActorIDKey, actor))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ActorID returns the acting principal from the request context, or ""
// when the request carried no identity.
func ActorID(ctx context.Context) string {
	if v := ctx.Value(ActorIDKey); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}
