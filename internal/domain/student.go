package domain

import "time"

// PaymentStatus tracks where a student stands with their plan payments.
type PaymentStatus string

const (
	PaymentPaid    PaymentStatus = "paid"
	PaymentWarning PaymentStatus = "warning" // renewal coming up
	PaymentDue     PaymentStatus = "due"
)

// Valid reports whether s is one of the known statuses.
func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPaid, PaymentWarning, PaymentDue:
		return true
	}
	return false
}

// Label is the text shown to staff.
func (s PaymentStatus) Label() string {
	switch s {
	case PaymentPaid:
		return "Em dia"
	case PaymentWarning:
		return "Aviso de Renovação"
	case PaymentDue:
		return "Vencido"
	}
	return string(s)
}

// Tone is the color family used to render the status badge.
func (s PaymentStatus) Tone() string {
	switch s {
	case PaymentPaid:
		return "success"
	case PaymentWarning:
		return "warning"
	case PaymentDue:
		return "danger"
	}
	return "neutral"
}

// Student is the denormalized roster entry: student attributes joined with
// the account profile sharing the same id.
type Student struct {
	ID             string        `json:"id"`
	DisplayName    string        `json:"displayName"`
	CPF            string        `json:"cpf"`
	Phone          string        `json:"phone,omitempty"`
	BirthDate      *time.Time    `json:"birthDate,omitempty"`
	CurrentPlanID  string        `json:"currentPlanId,omitempty"`
	PlanExpiryDate *time.Time    `json:"planExpiryDate,omitempty"`
	PaymentStatus  PaymentStatus `json:"paymentStatus"`
	Observations   string        `json:"observations,omitempty"`
	PhotoURL       string        `json:"photoUrl"`
}
