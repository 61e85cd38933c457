package http

import (
	"context"
	"net/http"
	"strings"

	"storefront/admin/internal/auth"
	"storefront/admin/internal/clients"
	"storefront/admin/internal/events"
	"storefront/admin/internal/validation"
)

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	page, err := s.backend.ListUsers(r.Context(), parseListQuery(r))
	if err != nil {
		s.backendError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) handleUserStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.backend.UserStats(r.Context())
	if err != nil {
		s.backendError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleCreateUserForm(w http.ResponseWriter, _ *http.Request) {
	defaults := clients.UserInput{Role: auth.RoleStaff, IsActive: true}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"fields":   []string{"name", "email", "password", "role", "isActive"},
		"roles":    []auth.Role{auth.RoleAdmin, auth.RoleStaff, auth.RoleCustomer},
		"defaults": defaults,
	})
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var in clients.UserInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	in.Email = strings.TrimSpace(in.Email)
	if err := s.validate.Struct(in); err != nil {
		writeFailure(w, http.StatusBadRequest, "invalid_request", validation.Message(err))
		return
	}
	user, err := s.backend.CreateUser(r.Context(), in)
	if err != nil {
		s.backendError(w, r, err)
		return
	}
	s.emit(r, events.UserCreated, "user", user.ID, map[string]interface{}{"role": in.Role})
	writeJSON(w, http.StatusCreated, user)
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_user_id")
		return
	}
	user, err := s.backend.GetUser(r.Context(), id)
	if err != nil {
		s.backendError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	s.moderateUser(w, r, s.backend.DeleteUser, events.UserDeleted)
}

func (s *Server) handleBanUser(w http.ResponseWriter, r *http.Request) {
	s.moderateUser(w, r, s.backend.BanUser, events.UserBanned)
}

func (s *Server) handleUnbanUser(w http.ResponseWriter, r *http.Request) {
	s.moderateUser(w, r, s.backend.UnbanUser, events.UserUnbanned)
}

func (s *Server) handleWarnUser(w http.ResponseWriter, r *http.Request) {
	s.moderateUser(w, r, s.backend.WarnUser, events.UserWarned)
}

func (s *Server) moderateUser(w http.ResponseWriter, r *http.Request, action func(ctx context.Context, id int64) error, eventType string) {
	id, ok := parseID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_user_id")
		return
	}
	if err := action(r.Context(), id); err != nil {
		s.backendError(w, r, err)
		return
	}
	s.emit(r, eventType, "user", id, nil)
	writeJSON(w, http.StatusOK, map[string]interface{}{"status": "ok", "userId": id})
}

func (s *Server) handleChangeUserRole(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_user_id")
		return
	}
	var in clients.RoleChange
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	if err := s.validate.Struct(in); err != nil {
		writeFailure(w, http.StatusBadRequest, "invalid_role", validation.Message(err))
		return
	}
	if err := s.backend.ChangeUserRole(r.Context(), id, in.Role); err != nil {
		s.backendError(w, r, err)
		return
	}
	s.emit(r, events.UserRoleChanged, "user", id, map[string]interface{}{"role": in.Role})
	writeJSON(w, http.StatusOK, map[string]interface{}{"status": "ok", "userId": id, "role": in.Role})
}
