package http

import (
	"context"
	"errors"
	"net/http"

	"storefront/admin/internal/clients"
	"storefront/admin/internal/events"
	"storefront/admin/internal/orders"
)

type orderSummary struct {
	clients.Order
	Status  orders.Status         `json:"status"`
	Label   string                `json:"statusLabel"`
	Payment orders.PaymentDisplay `json:"payment"`
}

type orderDetail struct {
	orderSummary
	Editor orders.View `json:"editor"`
}

func summarize(order clients.Order) orderSummary {
	status := order.Status()
	return orderSummary{
		Order:   order,
		Status:  status,
		Label:   status.Label(),
		Payment: orders.DisplayPayment(order.PaymentStatus),
	}
}

func (s *Server) handleListOrders(w http.ResponseWriter, r *http.Request) {
	page, err := s.backend.ListOrders(r.Context(), parseListQuery(r))
	if err != nil {
		s.backendError(w, r, err)
		return
	}
	items := make([]orderSummary, 0, len(page.Items))
	for _, order := range page.Items {
		items = append(items, summarize(order))
	}
	writeJSON(w, http.StatusOK, clients.Page[orderSummary]{
		Items:         items,
		Page:          page.Page,
		Size:          page.Size,
		TotalPages:    page.TotalPages,
		TotalElements: page.TotalElements,
	})
}

func (s *Server) handleOrderStats(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	stats, err := s.backend.OrderStats(r.Context(), query.Get("startDate"), query.Get("endDate"))
	if err != nil {
		s.backendError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_order_id")
		return
	}
	order, err := s.backend.GetOrder(r.Context(), id)
	if err != nil {
		s.backendError(w, r, err)
		return
	}
	editor := orders.NewEditor(id, order.Status(), s.backend, s.scopes.Get(s.sessionID(r)))
	writeJSON(w, http.StatusOK, orderDetail{orderSummary: summarize(order), Editor: editor.View()})
}

type statusRequest struct {
	Status string `json:"status"`
}

// handleUpdateOrderStatus reads the order's current status from the backend
// and applies the requested transition against it. The status shown back is
// the backend-confirmed one; a rejected change leaves it as it was and
// carries the backend's message.
func (s *Server) handleUpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_order_id")
		return
	}
	var req statusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	target, ok := orders.ParseStatus(req.Status)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_status")
		return
	}

	order, err := s.backend.GetOrder(r.Context(), id)
	if err != nil {
		s.backendError(w, r, err)
		return
	}
	tracker := s.scopes.Get(s.sessionID(r)).Child()
	defer tracker.Close()
	current := order.Status()
	editor := orders.NewEditor(id, current, s.backend, tracker)

	err = editor.Apply(r.Context(), target)
	switch {
	case err == nil:
		if target != current {
			s.metrics.OrderTransitions.WithLabelValues(string(target), "ok").Inc()
			s.emit(r, events.OrderStatusChanged, "order", id, map[string]interface{}{
				"from": current,
				"to":   target,
			})
		}
		writeJSON(w, http.StatusOK, editor.View())
	case errors.Is(err, orders.ErrTransitionNotAllowed):
		s.metrics.OrderTransitions.WithLabelValues(string(target), "not_allowed").Inc()
		view := editor.View()
		view.Error = "Cannot move an order from " + statusName(current) + " to " + target.Label() + "."
		writeJSON(w, http.StatusConflict, view)
	case errors.Is(err, orders.ErrStaleResponse), errors.Is(err, orders.ErrUpdateInProgress):
		writeError(w, http.StatusConflict, err.Error())
	case isSessionError(err):
		s.metrics.OrderTransitions.WithLabelValues(string(target), "error").Inc()
		s.backendError(w, r, err)
	default:
		s.metrics.OrderTransitions.WithLabelValues(string(target), "error").Inc()
		s.log.WithError(err).WithField("order_id", id).Warn("order status change rejected")
		writeJSON(w, inlineFailureStatus(err), editor.View())
	}
}

// statusName labels known statuses and shows anything else as the backend
// sent it.
func statusName(status orders.Status) string {
	if status != "" && !status.Valid() {
		return string(status)
	}
	return status.Label()
}

// inlineFailureStatus mirrors backendError's classification for responses
// that carry a view instead of an error body.
func inlineFailureStatus(err error) int {
	var apiErr *clients.APIError
	switch {
	case errors.Is(err, clients.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.As(err, &apiErr) && apiErr.Status < http.StatusInternalServerError:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadGateway
	}
}
