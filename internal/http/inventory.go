package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"storefront/admin/internal/clients"
	"storefront/admin/internal/events"
	"storefront/admin/internal/guard"
	"storefront/admin/internal/inventory"
	"storefront/admin/internal/permissions"
)

type fieldUpdate struct {
	Field inventory.Field `json:"field"`
	Value string          `json:"value"`
}

type submitResponse struct {
	Result inventory.Result `json:"result"`
	Draft  inventory.View   `json:"draft"`
	// ReloadError is set when the product could not be read back after the
	// writes; the draft then keeps its previous aggregates.
	ReloadError string `json:"reloadError,omitempty"`
}

// handleOpenDraft starts a new edit session from the backend's current rows.
func (s *Server) handleOpenDraft(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_product_id")
		return
	}
	product, err := s.backend.GetProduct(r.Context(), id)
	if err != nil {
		s.backendError(w, r, err)
		return
	}
	sid := s.sessionID(r)
	draft := s.drafts.Open(s.scopes.Get(sid), sid, id, product.Inventories)
	writeJSON(w, http.StatusCreated, draft.View())
}

func (s *Server) handleGetDraft(w http.ResponseWriter, r *http.Request) {
	draft, ok := s.draft(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, draft.View())
}

// handleReloadDraft drops local edits and re-reads the product's rows, which
// is also how rows created without an echoed id get one.
func (s *Server) handleReloadDraft(w http.ResponseWriter, r *http.Request) {
	draft, ok := s.draft(w, r)
	if !ok {
		return
	}
	product, err := s.backend.GetProduct(r.Context(), draft.ProductID())
	if err != nil {
		s.backendError(w, r, err)
		return
	}
	if err := draft.Reload(product.Inventories); err != nil {
		draftError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, draft.View())
}

func (s *Server) handleDiscardDraft(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_product_id")
		return
	}
	s.drafts.Discard(s.sessionID(r), id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAddDraftRow(w http.ResponseWriter, r *http.Request) {
	draft, ok := s.draft(w, r)
	if !ok {
		return
	}
	if _, err := draft.AddVariant(); err != nil {
		draftError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, draft.View())
}

func (s *Server) handleUpdateDraftRow(w http.ResponseWriter, r *http.Request) {
	draft, ok := s.draft(w, r)
	if !ok {
		return
	}
	index, ok := parseIndex(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_row_index")
		return
	}
	var update fieldUpdate
	if err := decodeJSON(r, &update); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	if err := draft.UpdateVariantField(index, update.Field, update.Value); err != nil {
		draftError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, draft.View())
}

func (s *Server) handleRemoveDraftRow(w http.ResponseWriter, r *http.Request) {
	draft, ok := s.draft(w, r)
	if !ok {
		return
	}
	index, ok := parseIndex(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_row_index")
		return
	}
	if err := draft.RemoveVariant(index); err != nil {
		draftError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, draft.View())
}

// handleSubmitDraft writes every row, then reads the product back so the
// draft and its aggregates reflect what the backend stored.
func (s *Server) handleSubmitDraft(w http.ResponseWriter, r *http.Request) {
	draft, ok := s.draft(w, r)
	if !ok {
		return
	}
	if hasNewRows(draft) {
		decision, _ := guard.DecisionFromContext(r.Context())
		if !decision.Permissions.Has(permissions.AddInventory) {
			writeError(w, http.StatusForbidden, "forbidden")
			return
		}
	}

	result, err := draft.Submit(r.Context(), s.backend)
	if err != nil {
		draftError(w, err)
		return
	}
	s.recordWrites(r, draft.ProductID(), result)
	for _, rowErr := range result.Errors() {
		if isSessionError(rowErr) {
			s.backendError(w, r, rowErr)
			return
		}
	}

	resp := submitResponse{Result: result}
	product, err := s.backend.GetProduct(r.Context(), draft.ProductID())
	if err != nil {
		if isSessionError(err) {
			s.backendError(w, r, err)
			return
		}
		resp.ReloadError = clients.MessageOf(err)
	} else {
		draft.Reconcile(product.Inventories)
	}
	resp.Draft = draft.View()

	status := http.StatusOK
	if result.Failed > 0 {
		status = http.StatusMultiStatus
	}
	writeJSON(w, status, resp)
}

func (s *Server) recordWrites(r *http.Request, productID int64, result inventory.Result) {
	for _, row := range result.Rows {
		outcome := "ok"
		if row.Error != "" {
			outcome = "error"
		}
		s.metrics.InventoryWrites.WithLabelValues(string(row.Kind), outcome).Inc()
		if row.Error != "" || row.InventoryID == nil {
			continue
		}
		eventType := events.InventoryUpdated
		if row.Kind == inventory.KindCreate {
			eventType = events.InventoryCreated
		}
		s.emit(r, eventType, "product", productID, map[string]interface{}{"inventoryId": *row.InventoryID})
	}
}

func (s *Server) draft(w http.ResponseWriter, r *http.Request) (*inventory.Draft, bool) {
	id, ok := parseID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_product_id")
		return nil, false
	}
	draft, ok := s.drafts.Get(s.sessionID(r), id)
	if !ok {
		writeError(w, http.StatusNotFound, "draft_not_found")
		return nil, false
	}
	return draft, true
}

func hasNewRows(draft *inventory.Draft) bool {
	for _, row := range draft.Rows() {
		if row.Pending() {
			return true
		}
	}
	return false
}

func parseIndex(r *http.Request) (int, bool) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil || index < 0 {
		return 0, false
	}
	return index, true
}

func draftError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, inventory.ErrRowNotFound):
		writeError(w, http.StatusNotFound, "row_not_found")
	case errors.Is(err, inventory.ErrUnknownField),
		errors.Is(err, inventory.ErrReadOnlyField),
		errors.Is(err, inventory.ErrNotNumeric):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, inventory.ErrPersistedDelete),
		errors.Is(err, inventory.ErrRowAwaitingReload),
		errors.Is(err, inventory.ErrSubmitInProgress),
		errors.Is(err, inventory.ErrStaleSubmit):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "server_error")
	}
}
