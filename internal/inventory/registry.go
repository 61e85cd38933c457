package inventory

import (
	"sync"

	"storefront/admin/internal/requests"
)

type draftKey struct {
	session string
	product int64
}

// Registry holds the open drafts of every browser session.
type Registry struct {
	mu     sync.Mutex
	drafts map[draftKey]*Draft
}

func NewRegistry() *Registry {
	return &Registry{drafts: make(map[draftKey]*Draft)}
}

// Open starts a fresh draft from the backend's inventories, replacing any
// draft the session already had for the product.
func (r *Registry) Open(scope *requests.Tracker, sessionID string, productID int64, inventories []Inventory) *Draft {
	draft := NewDraft(productID, inventories, scope.Child())
	key := draftKey{session: sessionID, product: productID}

	r.mu.Lock()
	previous := r.drafts[key]
	r.drafts[key] = draft
	r.mu.Unlock()

	if previous != nil {
		previous.Close()
	}
	return draft
}

func (r *Registry) Get(sessionID string, productID int64) (*Draft, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	draft, ok := r.drafts[draftKey{session: sessionID, product: productID}]
	return draft, ok
}

func (r *Registry) Discard(sessionID string, productID int64) {
	key := draftKey{session: sessionID, product: productID}
	r.mu.Lock()
	draft := r.drafts[key]
	delete(r.drafts, key)
	r.mu.Unlock()
	if draft != nil {
		draft.Close()
	}
}

// DiscardSession drops every draft of a session, e.g. on logout.
func (r *Registry) DiscardSession(sessionID string) int {
	var closed []*Draft
	r.mu.Lock()
	for key, draft := range r.drafts {
		if key.session == sessionID {
			closed = append(closed, draft)
			delete(r.drafts, key)
		}
	}
	r.mu.Unlock()
	for _, draft := range closed {
		draft.Close()
	}
	return len(closed)
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.drafts)
}
