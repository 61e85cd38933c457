package inventory

import (
	"errors"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Inventory is a variant as stored by the backend.
type Inventory struct {
	ID              int64   `json:"id"`
	Size            string  `json:"size"`
	Quantity        int     `json:"quantity"`
	Price           float64 `json:"price"`
	DiscountPercent int     `json:"discountPercent"`
	DiscountedPrice float64 `json:"discountedPrice"`
}

// Payload is the body of add/update inventory calls. The backend derives
// discountedPrice itself, so it is never sent.
type Payload struct {
	Size            string  `json:"size" validate:"required"`
	Quantity        int     `json:"quantity" validate:"gte=0"`
	Price           float64 `json:"price" validate:"gte=0"`
	DiscountPercent int     `json:"discountPercent" validate:"gte=0,lte=100"`
}

type Field string

const (
	FieldID              Field = "id"
	FieldSize            Field = "size"
	FieldQuantity        Field = "quantity"
	FieldPrice           Field = "price"
	FieldDiscountPercent Field = "discountPercent"
	FieldDiscountedPrice Field = "discountedPrice"
)

var (
	ErrRowNotFound       = errors.New("row_not_found")
	ErrUnknownField      = errors.New("unknown_field")
	ErrReadOnlyField     = errors.New("read_only_field")
	ErrNotNumeric        = errors.New("not_numeric")
	ErrPersistedDelete   = errors.New("persisted_row_delete")
	ErrSubmitInProgress  = errors.New("submit_in_progress")
	ErrStaleSubmit       = errors.New("stale_submit")
	ErrRowAwaitingReload = errors.New("row_awaiting_reload")
)

// Row is one editable variant. Numeric fields hold the raw input so an
// operator can clear them; they become numbers only at submit time.
type Row struct {
	ID              *int64
	Size            string
	Quantity        string
	Price           string
	DiscountPercent string
	Error           string

	// saved marks a created row the backend accepted without echoing an id.
	saved bool
}

func rowFromInventory(inv Inventory) Row {
	id := inv.ID
	return Row{
		ID:              &id,
		Size:            inv.Size,
		Quantity:        strconv.Itoa(inv.Quantity),
		Price:           decimal.NewFromFloat(inv.Price).String(),
		DiscountPercent: strconv.Itoa(inv.DiscountPercent),
	}
}

func (r Row) Persisted() bool {
	return r.ID != nil
}

// Pending reports whether the row still has to be created on the backend.
func (r Row) Pending() bool {
	return !r.Persisted() && !r.saved
}

func (r *Row) set(field Field, value string) error {
	switch field {
	case FieldSize:
		r.Size = value
	case FieldQuantity:
		if err := checkInt(value); err != nil {
			return err
		}
		r.Quantity = strings.TrimSpace(value)
	case FieldPrice:
		if err := checkDecimal(value); err != nil {
			return err
		}
		r.Price = strings.TrimSpace(value)
	case FieldDiscountPercent:
		if err := checkInt(value); err != nil {
			return err
		}
		r.DiscountPercent = strings.TrimSpace(value)
	case FieldID, FieldDiscountedPrice:
		return ErrReadOnlyField
	default:
		return ErrUnknownField
	}
	return nil
}

// payload coerces still-empty numeric inputs to zero.
func (r Row) payload() Payload {
	return Payload{
		Size:            strings.TrimSpace(r.Size),
		Quantity:        intOrZero(r.Quantity),
		Price:           decimalOrZero(r.Price).InexactFloat64(),
		DiscountPercent: intOrZero(r.DiscountPercent),
	}
}

// RowView is the rendered form of a row, with a display-only discount preview.
type RowView struct {
	Index           int     `json:"index"`
	ID              *int64  `json:"id,omitempty"`
	Size            string  `json:"size"`
	Quantity        string  `json:"quantity"`
	Price           string  `json:"price"`
	DiscountPercent string  `json:"discountPercent"`
	DiscountedPrice float64 `json:"discountedPrice"`
	Persisted       bool    `json:"persisted"`
	Removable       bool    `json:"removable"`
	Error           string  `json:"error,omitempty"`
}

func (r Row) view(index int) RowView {
	preview := DiscountedPrice(decimalOrZero(r.Price), intOrZero(r.DiscountPercent))
	return RowView{
		Index:           index,
		ID:              r.ID,
		Size:            r.Size,
		Quantity:        r.Quantity,
		Price:           r.Price,
		DiscountPercent: r.DiscountPercent,
		DiscountedPrice: preview.InexactFloat64(),
		Persisted:       !r.Pending(),
		Removable:       r.Pending(),
		Error:           r.Error,
	}
}

func checkInt(value string) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	if _, err := strconv.Atoi(value); err != nil {
		return ErrNotNumeric
	}
	return nil
}

func checkDecimal(value string) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	if _, err := decimal.NewFromString(value); err != nil {
		return ErrNotNumeric
	}
	return nil
}

func intOrZero(value string) int {
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0
	}
	return parsed
}

func decimalOrZero(value string) decimal.Decimal {
	parsed, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		return decimal.Zero
	}
	return parsed
}
