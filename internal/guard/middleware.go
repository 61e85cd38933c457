package guard

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"

	"storefront/admin/internal/metrics"
	"storefront/admin/internal/permissions"
	"storefront/admin/internal/session"
)

// TokenInspector rejects access tokens that can no longer be used.
type TokenInspector func(token string) error

type Guard struct {
	store      *session.Store
	inspect    TokenInspector
	cookieName string
	metrics    *metrics.Metrics
	log        logrus.FieldLogger
}

func New(store *session.Store, inspect TokenInspector, cookieName string, m *metrics.Metrics, log logrus.FieldLogger) *Guard {
	return &Guard{store: store, inspect: inspect, cookieName: cookieName, metrics: m, log: log}
}

type decisionKey struct{}

func DecisionFromContext(ctx context.Context) (Decision, bool) {
	decision, ok := ctx.Value(decisionKey{}).(Decision)
	return decision, ok
}

// Check loads the request's session and evaluates it against caps. An
// unusable token clears the session so the next request starts clean.
func (g *Guard) Check(r *http.Request, caps ...permissions.Capability) (Decision, session.Session) {
	id := session.ReadID(r, g.cookieName)
	sess, err := g.store.Load(r.Context(), id)
	in := Input{Ready: g.store.Ready(), LookupErr: err, Requires: caps}
	if err == nil && sess.Authenticated() {
		in.Token = sess.AccessToken
		in.Principal = sess.Principal
		in.TokenErr = g.inspect(sess.AccessToken)
	}
	if err != nil && err != session.ErrNotReady {
		g.log.WithError(err).Warn("session lookup failed")
	}

	decision := Evaluate(in)
	if in.TokenErr != nil {
		g.log.WithError(in.TokenErr).WithField("user_id", sess.Principal.ID).Info("access token rejected, clearing session")
		if err := g.store.Clear(r.Context(), id); err != nil {
			g.log.WithError(err).Warn("session clear failed")
		}
	}
	g.metrics.GuardDecisions.WithLabelValues(decision.State.String()).Inc()
	return decision, sess
}

// Require runs before the handler and lets it execute only when the request
// is authorized for every capability in caps.
func (g *Guard) Require(caps ...permissions.Capability) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			decision, sess := g.Check(r, caps...)
			if decision.State != StateAuthorized {
				Render(w, decision)
				return
			}
			ctx := session.WithSession(r.Context(), &sess)
			ctx = context.WithValue(ctx, decisionKey{}, decision)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Render writes the response for a non-authorized decision: a neutral
// loading body while the session is unknown, a redirect otherwise.
func Render(w http.ResponseWriter, decision Decision) {
	switch decision.State {
	case StateUnknown:
		w.Header().Set("Retry-After", "1")
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "loading"})
	case StateUnauthenticated, StateInsufficient:
		w.Header().Set("Location", decision.Redirect)
		writeJSON(w, http.StatusFound, map[string]string{
			"status":   "redirect",
			"state":    decision.State.String(),
			"location": decision.Redirect,
		})
	default:
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
