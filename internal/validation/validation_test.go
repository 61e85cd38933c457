package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Email    string `json:"email" validate:"required,email"`
	Quantity int    `json:"quantity" validate:"gte=0"`
	Percent  int    `json:"discountPercent" validate:"lte=100"`
}

func TestMessageUsesJSONNames(t *testing.T) {
	err := New().Struct(sample{Quantity: -1, Percent: 150})
	require.Error(t, err)
	assert.Equal(t, "email value missing; quantity must be at least 0; discountPercent must be at most 100", Message(err))
}

func TestMessagePassesThroughOtherErrors(t *testing.T) {
	assert.Equal(t, "boom", Message(errors.New("boom")))
}
