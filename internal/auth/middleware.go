package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/meridianhq/meridian/internal/observability"
	"github.com/meridianhq/meridian/internal/shared"
)

const bearerPrefix = "Bearer "

// Auth gate outcomes recorded per request.
const (
	outcomeAnonymous     = "anonymous"
	outcomeInvalid       = "invalid"
	outcomeRevoked       = "revoked"
	outcomeAuthenticated = "authenticated"
)

// TokenStore looks up the single current token slot for an account. The
// users repository implements it.
type TokenStore interface {
	CurrentToken(ctx context.Context, email string) (string, error)
}

// Gate is the per-request authentication filter. It never rejects a request
// itself; it only decides whether a principal is attached to the context.
// Rejection, when due, happens in the access policy downstream.
type Gate struct {
	logger  *slog.Logger
	codec   *Codec
	store   TokenStore
	metrics *observability.Metrics
}

// NewGate constructs the gate from the codec and the token store. metrics
// may be nil.
func NewGate(logger *slog.Logger, codec *Codec, store TokenStore, metrics *observability.Metrics) *Gate {
	return &Gate{logger: logger, codec: codec, store: store, metrics: metrics}
}

// Middleware runs the gate once per request, before any access policy.
//
// Every failure branch (missing header, malformed prefix, bad signature,
// expired token, revoked token) converges on "no principal": callers cannot
// distinguish why authentication failed.
func (g *Gate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" || !strings.HasPrefix(header, bearerPrefix) {
			g.metrics.ObserveAuthOutcome(outcomeAnonymous)
			next.ServeHTTP(w, r)
			return
		}

		tokenString := strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix))
		claims, err := g.codec.Parse(tokenString)
		if err != nil {
			g.logger.Warn("invalid token", slog.String("path", r.URL.Path))
			g.metrics.ObserveAuthOutcome(outcomeInvalid)
			next.ServeHTTP(w, r)
			return
		}

		stored, err := g.store.CurrentToken(r.Context(), claims.Subject)
		if err != nil {
			// Storage trouble and unknown subjects both degrade to
			// unauthenticated; the route policy produces the final status.
			if shared.IsStorageError(err) {
				g.logger.Error("token store lookup", slog.Any("error", err))
			}
			g.metrics.ObserveAuthOutcome(outcomeRevoked)
			next.ServeHTTP(w, r)
			return
		}
		if stored == "" || stored != tokenString {
			// Revocation path: logout cleared the slot or a newer login
			// superseded this token.
			g.logger.Warn("revoked token", slog.String("subject", claims.Subject))
			g.metrics.ObserveAuthOutcome(outcomeRevoked)
			next.ServeHTTP(w, r)
			return
		}

		principal := &shared.Principal{
			Subject:       claims.Subject,
			Roles:         shared.RolesFromClaim(claims.Role),
			Authenticated: true,
		}
		g.metrics.ObserveAuthOutcome(outcomeAuthenticated)
		ctx := shared.ContextWithPrincipal(r.Context(), principal)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
