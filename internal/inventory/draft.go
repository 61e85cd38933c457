package inventory

import (
	"context"
	"errors"
	"sync"

	"github.com/go-playground/validator/v10"

	"storefront/admin/internal/requests"
	"storefront/admin/internal/validation"
)

type Backend interface {
	AddInventory(ctx context.Context, productID int64, payload Payload) (Inventory, error)
	UpdateInventory(ctx context.Context, productID, inventoryID int64, payload Payload) (Inventory, error)
}

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

type Kind string

const (
	KindCreate Kind = "create"
	KindUpdate Kind = "update"
)

type RowResult struct {
	Index       int    `json:"index"`
	Kind        Kind   `json:"kind"`
	InventoryID *int64 `json:"inventoryId,omitempty"`
	Error       string `json:"error,omitempty"`
	Err         error  `json:"-"`
}

type Result struct {
	Rows    []RowResult `json:"rows"`
	Created int         `json:"created"`
	Updated int         `json:"updated"`
	Failed  int         `json:"failed"`
}

// Errors returns the backend errors behind failed rows.
func (r Result) Errors() []error {
	var out []error
	for _, row := range r.Rows {
		if row.Err != nil {
			out = append(out, row.Err)
		}
	}
	return out
}

// Draft is the in-memory list of variant rows for one product-edit session.
type Draft struct {
	productID int64
	tracker   *requests.Tracker
	validate  *validator.Validate

	mu         sync.Mutex
	rows       []Row
	aggregates Aggregates
	submitting bool
}

func NewDraft(productID int64, inventories []Inventory, tracker *requests.Tracker) *Draft {
	d := &Draft{productID: productID, tracker: tracker, validate: validation.New()}
	d.replace(inventories)
	return d
}

func (d *Draft) ProductID() int64 {
	return d.productID
}

type View struct {
	ProductID  int64      `json:"productId"`
	Rows       []RowView  `json:"rows"`
	Aggregates Aggregates `json:"aggregates"`
	Submitting bool       `json:"submitting"`
}

func (d *Draft) View() View {
	d.mu.Lock()
	defer d.mu.Unlock()
	rows := make([]RowView, len(d.rows))
	for i, row := range d.rows {
		rows[i] = row.view(i)
	}
	return View{ProductID: d.productID, Rows: rows, Aggregates: d.aggregates, Submitting: d.submitting}
}

func (d *Draft) Rows() []Row {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Row(nil), d.rows...)
}

func (d *Draft) Aggregates() Aggregates {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.aggregates
}

// AddVariant appends a blank, not yet persisted row and returns its index.
func (d *Draft) AddVariant() (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.submitting {
		return 0, ErrSubmitInProgress
	}
	d.rows = append(d.rows, Row{Quantity: "0", Price: "0", DiscountPercent: "0"})
	return len(d.rows) - 1, nil
}

func (d *Draft) UpdateVariantField(index int, field Field, value string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.submitting {
		return ErrSubmitInProgress
	}
	if index < 0 || index >= len(d.rows) {
		return ErrRowNotFound
	}
	if d.rows[index].saved {
		return ErrRowAwaitingReload
	}
	return d.rows[index].set(field, value)
}

// RemoveVariant only drops rows that were never persisted; the backend has no
// inventory delete.
func (d *Draft) RemoveVariant(index int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.submitting {
		return ErrSubmitInProgress
	}
	if index < 0 || index >= len(d.rows) {
		return ErrRowNotFound
	}
	if !d.rows[index].Pending() {
		return ErrPersistedDelete
	}
	d.rows = append(d.rows[:index], d.rows[index+1:]...)
	return nil
}

type call struct {
	index   int
	kind    Kind
	id      int64
	payload Payload
}

// Submit sends every row independently: rows with an id are updated, the rest
// are created. Rows already created but still waiting for their id are left
// out. A failing row keeps its edits and an inline error while the
// other rows proceed. Aggregates are left alone until the product is read
// back from the backend.
func (d *Draft) Submit(ctx context.Context, backend Backend) (Result, error) {
	d.mu.Lock()
	if d.submitting {
		d.mu.Unlock()
		return Result{}, ErrSubmitInProgress
	}
	var result Result
	var calls []call
	for i := range d.rows {
		row := &d.rows[i]
		if row.saved {
			continue
		}
		c := call{index: i, kind: KindCreate, payload: row.payload()}
		if row.Persisted() {
			c.kind = KindUpdate
			c.id = *row.ID
		}
		if err := d.validate.Struct(c.payload); err != nil {
			row.Error = validation.Message(err)
			result.Rows = append(result.Rows, RowResult{Index: i, Kind: c.kind, Error: row.Error})
			result.Failed++
			continue
		}
		row.Error = ""
		calls = append(calls, c)
	}
	d.submitting = true
	ticket := d.tracker.Begin(ctx)
	d.mu.Unlock()
	defer ticket.Done()

	outcomes := make([]RowResult, len(calls))
	var wg sync.WaitGroup
	for i, c := range calls {
		wg.Add(1)
		go func(i int, c call) {
			defer wg.Done()
			var (
				saved Inventory
				err   error
			)
			if c.kind == KindUpdate {
				saved, err = backend.UpdateInventory(ticket.Ctx, d.productID, c.id, c.payload)
			} else {
				saved, err = backend.AddInventory(ticket.Ctx, d.productID, c.payload)
			}
			outcome := RowResult{Index: c.index, Kind: c.kind, Err: err}
			if err != nil {
				outcome.Error = describe(err)
			} else {
				id := saved.ID
				if c.kind == KindUpdate {
					id = c.id
				}
				outcome.InventoryID = &id
			}
			outcomes[i] = outcome
		}(i, c)
	}
	wg.Wait()

	d.mu.Lock()
	defer d.mu.Unlock()
	d.submitting = false
	if !d.tracker.Current(ticket) {
		return Result{}, ErrStaleSubmit
	}
	for _, outcome := range outcomes {
		row := &d.rows[outcome.Index]
		if outcome.Err != nil {
			row.Error = outcome.Error
			result.Failed++
		} else {
			row.Error = ""
			if outcome.Kind == KindUpdate {
				result.Updated++
			} else {
				result.Created++
				if id := *outcome.InventoryID; id != 0 {
					row.ID = &id
				} else {
					row.saved = true
				}
			}
		}
		result.Rows = append(result.Rows, outcome)
	}
	return result, nil
}

// Reload discards local edits in favour of the backend's rows. It is refused
// while a submit is in flight.
func (d *Draft) Reload(inventories []Inventory) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.submitting {
		return ErrSubmitInProgress
	}
	d.tracker.Invalidate()
	d.replace(inventories)
	return nil
}

// Reconcile merges a post-submit read of the product: rows that saved
// cleanly take the server's values, rows still carrying an error keep the
// operator's input, and aggregates follow the server.
func (d *Draft) Reconcile(inventories []Inventory) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.submitting {
		return
	}
	failed := make(map[int64]Row)
	var pending []Row
	for _, row := range d.rows {
		switch {
		case row.Persisted() && row.Error != "":
			failed[*row.ID] = row
		case !row.Persisted() && !row.saved:
			pending = append(pending, row)
		}
	}
	rows := make([]Row, 0, len(inventories)+len(pending))
	for _, inv := range inventories {
		if row, ok := failed[inv.ID]; ok {
			rows = append(rows, row)
			continue
		}
		rows = append(rows, rowFromInventory(inv))
	}
	d.rows = append(rows, pending...)
	d.aggregates = Summarize(inventories)
}

func (d *Draft) Close() {
	d.tracker.Close()
}

func (d *Draft) replace(inventories []Inventory) {
	d.rows = make([]Row, 0, len(inventories))
	for _, inv := range inventories {
		d.rows = append(d.rows, rowFromInventory(inv))
	}
	d.aggregates = Summarize(inventories)
}
