package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"storefront/admin/internal/auth"
	"storefront/admin/internal/clients"
	"storefront/admin/internal/guard"
	"storefront/admin/internal/permissions"
	"storefront/admin/internal/session"
	"storefront/admin/internal/validation"
)

type identityResponse struct {
	User        auth.Principal         `json:"user"`
	Permissions map[string]bool        `json:"permissions"`
	Menu        []permissions.MenuItem `json:"menu"`
	Landing     string                 `json:"landing"`
}

func identity(principal auth.Principal) identityResponse {
	set := permissions.Resolve(principal.Role)
	landing := permissions.Landing(set)
	if landing == "" {
		landing = guard.UnauthorizedPath
	}
	return identityResponse{
		User:        principal,
		Permissions: set.Map(),
		Menu:        permissions.Menu(set),
		Landing:     landing,
	}
}

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	decision, sess := s.guard.Check(r)
	switch decision.State {
	case guard.StateUnknown:
		guard.Render(w, decision)
	case guard.StateAuthorized:
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status":   "authenticated",
			"redirect": identity(*sess.Principal).Landing,
		})
	default:
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status": "login",
			"fields": []string{"email", "password"},
		})
	}
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if !s.store.Ready() {
		guard.Render(w, guard.Decision{State: guard.StateUnknown})
		return
	}
	var req clients.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if err := s.validate.Struct(req); err != nil {
		writeFailure(w, http.StatusBadRequest, "invalid_request", validation.Message(err))
		return
	}

	result, err := s.backend.Login(r.Context(), req)
	if err != nil {
		var apiErr *clients.APIError
		if errors.As(err, &apiErr) && apiErr.Status < http.StatusInternalServerError {
			writeFailure(w, http.StatusUnauthorized, "login_failed", apiErr.OperatorMessage())
			return
		}
		s.log.WithError(err).Warn("login call failed")
		writeFailure(w, http.StatusBadGateway, "backend_error", clients.MessageOf(err))
		return
	}
	if result.AccessToken == "" {
		writeFailure(w, http.StatusBadGateway, "backend_error", clients.DefaultMessage)
		return
	}

	// A previous session on this browser is replaced, not reused.
	if old := session.ReadID(r, s.cfg.SessionCookie); old != "" {
		s.endSession(w, r)
	}
	id := session.NewID()
	if err := s.store.Save(r.Context(), id, result.AccessToken, result.User); err != nil {
		s.log.WithError(err).Error("session save failed")
		writeError(w, http.StatusInternalServerError, "session_unavailable")
		return
	}
	http.SetCookie(w, session.Cookie(s.cfg.SessionCookie, id, s.cfg.SessionCookieSecure, s.cfg.SessionTTL))
	s.log.WithFields(logrus.Fields{"user_id": result.User.ID, "role": result.User.Role}).Info("operator signed in")

	writeJSON(w, http.StatusOK, identity(result.User))
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.endSession(w, r)
	writeJSON(w, http.StatusOK, map[string]string{"status": "logged_out", "redirect": guard.LoginPath})
}

func (s *Server) handleUnauthorized(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusForbidden, map[string]string{
		"status":  "unauthorized",
		"message": "You do not have permission to access this page.",
	})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	writeJSON(w, http.StatusOK, identity(*sess.Principal))
}

// handleGuardCheck evaluates a concrete shell path so the browser can decide
// what to render before showing any protected content.
func (s *Server) handleGuardCheck(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	capability, ok := guard.CapabilityFor(path)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown_route")
		return
	}
	decision, _ := s.guard.Check(r, capability)
	if decision.State != guard.StateAuthorized {
		guard.Render(w, decision)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":      "authorized",
		"path":        path,
		"permissions": decision.Permissions.Map(),
	})
}
