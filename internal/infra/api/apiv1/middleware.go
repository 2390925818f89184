package apiv1

import (
	"context"
	"crypto/subtle"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"workforce-billing/internal/domain/model"
	"workforce-billing/internal/infra/logging"
)

type ctxKey struct{}

func withViewer(ctx context.Context, v *model.Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, v)
}

// viewerFrom returns the authenticated viewer or nil.
func viewerFrom(ctx context.Context) *model.Identity {
	v, _ := ctx.Value(ctxKey{}).(*model.Identity)
	return v
}

// authenticate resolves the viewer. Invalid credentials are treated as anonymous.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		v, err := s.d.Auth.Viewer(r)
		if err != nil {
			s.logger(r).Debug().Err(err).Msg("rejected credentials")
			v = nil
		}
		ctx := r.Context()
		if v != nil {
			ctx = logging.WithUserID(withViewer(ctx, v), v.UserID)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func requireViewer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if viewerFrom(r.Context()) == nil {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// cronAuth checks the scheduler's bearer token in constant time.
func (s *Server) cronAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.d.CronSecret == "" {
			s.logger(r).Error().Msg("cron secret is not configured")
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") ||
			subtle.ConstantTimeCompare([]byte(parts[1]), []byte(s.d.CronSecret)) != 1 {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func rateKey(userID, action string) string {
	return fmt.Sprintf("rate_limit:%s:%s", userID, action)
}

// rateLimit caps how often one viewer may call the route. Limiter errors fail open.
func (s *Server) rateLimit(action string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			v := viewerFrom(r.Context())
			if s.d.Limiter == nil || v == nil {
				next.ServeHTTP(w, r)
				return
			}
			ok, err := s.d.Limiter.Allow(r.Context(), rateKey(v.UserID, action), s.d.OrderLimit, s.d.OrderWindow)
			if err != nil {
				s.logger(r).Warn().Err(err).Str("action", action).Msg("rate limiter unavailable")
			} else if !ok {
				w.Header().Set("Retry-After", fmt.Sprintf("%d", int(s.d.OrderWindow.Seconds())))
				writeError(w, http.StatusTooManyRequests, "Too many requests")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// gate admits the request to the agent console or redirects it.
func (s *Server) gate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		orgID, agentID := chi.URLParam(r, "orgID"), chi.URLParam(r, "agentID")
		d := s.d.Access.Decide(r.Context(), viewerFrom(r.Context()), orgID, agentID)
		if !d.Allow {
			s.logger(r).Debug().Str("org_id", orgID).Str("agent_id", agentID).
				Str("reason", d.Reason).Str("redirect", d.Redirect).Msg("console access denied")
			http.Redirect(w, r, d.Redirect, http.StatusTemporaryRedirect)
			return
		}
		next.ServeHTTP(w, r)
	})
}
