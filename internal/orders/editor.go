package orders

import (
	"context"
	"errors"
	"sync"

	"storefront/admin/internal/requests"
)

var (
	ErrTransitionNotAllowed = errors.New("transition_not_allowed")
	ErrUpdateInProgress     = errors.New("update_in_progress")
	ErrStaleResponse        = errors.New("stale_response")
)

// operatorMessage is implemented by backend errors that carry text meant for
// the operator.
type operatorMessage interface {
	OperatorMessage() string
}

func describe(err error) string {
	var msg operatorMessage
	if errors.As(err, &msg) {
		return msg.OperatorMessage()
	}
	return err.Error()
}

type Updater interface {
	UpdateOrderStatus(ctx context.Context, orderID int64, status Status) error
}

// Editor is one operator's view of an order's status. Local state only moves
// after the backend confirms the change.
type Editor struct {
	orderID int64
	updater Updater
	tracker *requests.Tracker

	mu        sync.Mutex
	status    Status
	lastError string
	pending   bool
}

func NewEditor(orderID int64, current Status, updater Updater, tracker *requests.Tracker) *Editor {
	return &Editor{orderID: orderID, status: current, updater: updater, tracker: tracker}
}

type View struct {
	OrderID     int64    `json:"orderId"`
	Status      Status   `json:"status"`
	Label       string   `json:"label"`
	Terminal    bool     `json:"terminal"`
	Transitions []Status `json:"availableTransitions"`
	Error       string   `json:"error,omitempty"`
}

func (e *Editor) View() View {
	e.mu.Lock()
	defer e.mu.Unlock()
	return View{
		OrderID:     e.orderID,
		Status:      e.status,
		Label:       e.status.Label(),
		Terminal:    e.status.IsTerminal(),
		Transitions: AvailableTransitions(e.status),
		Error:       e.lastError,
	}
}

func (e *Editor) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status
}

func (e *Editor) LastError() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastError
}

// Apply asks the backend to move the order to target. Targets outside the
// available transitions never reach the network, and re-applying the current
// status does nothing. A backend rejection is kept as the inline error.
func (e *Editor) Apply(ctx context.Context, target Status) error {
	e.mu.Lock()
	current := e.status
	if target == current {
		e.mu.Unlock()
		return nil
	}
	if !CanTransition(current, target) {
		e.mu.Unlock()
		return ErrTransitionNotAllowed
	}
	if e.pending {
		e.mu.Unlock()
		return ErrUpdateInProgress
	}
	e.pending = true
	e.lastError = ""
	ticket := e.tracker.Begin(ctx)
	e.mu.Unlock()
	defer ticket.Done()
	err := e.updater.UpdateOrderStatus(ticket.Ctx, e.orderID, target)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.pending = false
	if !e.tracker.Current(ticket) {
		return ErrStaleResponse
	}
	if err != nil {
		e.lastError = describe(err)
		return err
	}
	e.status = target
	return nil
}
