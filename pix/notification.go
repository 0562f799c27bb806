package pix

import (
	"fmt"
	"time"
)

// Notification: тело вебхука и ответа GET /v2/pix.
type Notification struct {
	Pix []NotificationItem `json:"pix"`
}

type NotificationItem struct {
	EndToEndID string    `json:"endToEndId"`
	TxID       string    `json:"txid"`
	Valor      string    `json:"valor"`
	Horario    time.Time `json:"horario"`
}

func (i NotificationItem) Received() (Received, error) {
	cents, err := ParseAmount(i.Valor)
	if err != nil {
		return Received{}, fmt.Errorf("pix %s: %w", i.EndToEndID, err)
	}
	return Received{
		EndToEndID:  i.EndToEndID,
		TxID:        i.TxID,
		AmountCents: cents,
		PaidAt:      i.Horario,
	}, nil
}
