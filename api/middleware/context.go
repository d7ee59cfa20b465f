package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/yacbhl71/DELICES-DALGERIE-sub001/pkg/logger"
)

type contextKey string

const ctxActorID contextKey = "actor_id"

const actorIDHeader = "X-Actor-Id"

// ActorIDFromContext returns the acting admin identifier, or "" when the
// gateway did not forward one.
func ActorIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxActorID).(string); ok {
		return v
	}
	return ""
}

// WithActorID injects the actor identifier into the context.
func WithActorID(ctx context.Context, actorID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxActorID, actorID)
}

// ActorContext lifts the upstream gateway's actor header into the request
// context. Authentication itself happens before traffic reaches this service.
func ActorContext(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actorID := strings.TrimSpace(r.Header.Get(actorIDHeader))
			if actorID == "" {
				next.ServeHTTP(w, r)
				return
			}
			ctx := WithActorID(r.Context(), actorID)
			if logg != nil {
				ctx = logg.WithUserID(ctx, actorID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
