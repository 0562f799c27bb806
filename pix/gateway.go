// Package pix содержит клиент платёжного шлюза PIX (API cobranças imediatas).
package pix

import (
	"context"
	"errors"
	"time"
)

var (
	ErrChargeNotFound  = errors.New("pix charge not found")
	ErrGatewayDisabled = errors.New("pix gateway is not configured")
)

// Статусы cobrança, как их возвращает шлюз.
const (
	GatewayStatusActive            = "ATIVA"
	GatewayStatusCompleted         = "CONCLUIDA"
	GatewayStatusRemovedByReceiver = "REMOVIDA_PELO_USUARIO_RECEBEDOR"
	GatewayStatusRemovedByPSP      = "REMOVIDA_PELO_PSP"
)

type ChargeRequest struct {
	TxID        string
	AmountCents int64
	Expiration  time.Duration
	Description string
}

type Charge struct {
	TxID        string
	Status      string
	AmountCents int64
	CopyPaste   string
	Location    string
	CreatedAt   time.Time
	Expiration  time.Duration
}

// Received: поступивший PIX (GET /v2/pix).
type Received struct {
	EndToEndID  string
	TxID        string
	AmountCents int64
	PaidAt      time.Time
}

type Gateway interface {
	CreateCharge(ctx context.Context, req ChargeRequest) (*Charge, error)
	GetCharge(ctx context.Context, txid string) (*Charge, error)
	ListReceived(ctx context.Context, from, to time.Time) ([]Received, error)
}

type disabledGateway struct{}

// NewDisabledGateway возвращает шлюз, который отвечает ErrGatewayDisabled на
// каждый вызов. Используется, когда PIX_* не заданы.
func NewDisabledGateway() Gateway {
	return disabledGateway{}
}

func (disabledGateway) CreateCharge(context.Context, ChargeRequest) (*Charge, error) {
	return nil, ErrGatewayDisabled
}

func (disabledGateway) GetCharge(context.Context, string) (*Charge, error) {
	return nil, ErrGatewayDisabled
}

func (disabledGateway) ListReceived(context.Context, time.Time, time.Time) ([]Received, error) {
	return nil, ErrGatewayDisabled
}
