package orders

import "strings"

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "PENDING"
	PaymentCompleted PaymentStatus = "COMPLETED"
	PaymentFailed    PaymentStatus = "FAILED"
	PaymentCancelled PaymentStatus = "CANCELLED"
	PaymentRefunded  PaymentStatus = "REFUNDED"
)

var paymentLabels = map[PaymentStatus]string{
	PaymentPending:   "Pending",
	PaymentCompleted: "Completed",
	PaymentFailed:    "Failed",
	PaymentCancelled: "Cancelled",
	PaymentRefunded:  "Refunded",
}

type PaymentDisplay struct {
	Status PaymentStatus `json:"status"`
	Label  string        `json:"label"`
}

// DisplayPayment normalises whatever the backend sent; missing or unknown
// values are shown as pending.
func DisplayPayment(raw string) PaymentDisplay {
	status := PaymentStatus(strings.ToUpper(strings.TrimSpace(raw)))
	label, ok := paymentLabels[status]
	if !ok {
		status = PaymentPending
		label = paymentLabels[PaymentPending]
	}
	return PaymentDisplay{Status: status, Label: label}
}
