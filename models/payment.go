package models

import "time"

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusPaid      PaymentStatus = "paid"
	PaymentStatusExpired   PaymentStatus = "expired"
	PaymentStatusCancelled PaymentStatus = "cancelled"
	PaymentStatusRefunded  PaymentStatus = "refunded"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusPaid, PaymentStatusExpired, PaymentStatusCancelled, PaymentStatusRefunded:
		return true
	}
	return false
}

// Payment: PIX-cobrança за билет участника.
type Payment struct {
	ID               int           `json:"id" db:"id"`
	TxID             string        `json:"txid" db:"txid"`
	ContestID        int           `json:"contest_id" db:"contest_id"`
	ParticipantName  string        `json:"participant_name" db:"participant_name"`
	ParticipantPhone string        `json:"participant_phone" db:"participant_phone"`
	AmountCents      int64         `json:"amount_cents" db:"amount_cents"`
	Status           PaymentStatus `json:"status" db:"status"`
	GatewayStatus    *string       `json:"gateway_status,omitempty" db:"gateway_status"`
	PixCopyPaste     *string       `json:"pix_copy_paste,omitempty" db:"pix_copy_paste"`
	EndToEndID       *string       `json:"end_to_end_id,omitempty" db:"end_to_end_id"`
	ExpiresAt        time.Time     `json:"expires_at" db:"expires_at"`
	PaidAt           *time.Time    `json:"paid_at,omitempty" db:"paid_at"`
	CreatedAt        time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at" db:"updated_at"`
}

// ReconcileReport суммирует результат пакетной сверки с платёжным шлюзом.
type ReconcileReport struct {
	Checked   int      `json:"checked"`
	Updated   int      `json:"updated"`
	Failed    int      `json:"failed"`
	Unmatched []string `json:"unmatched_txids,omitempty"`
}
