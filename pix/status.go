package pix

import (
	"strings"
	"time"

	"github.com/Dosada05/bolao-system/models"
)

// NormalizeStatus переводит статус cobrança в статус платежа.
// Активная cobrança после expiresAt считается истёкшей.
func NormalizeStatus(gatewayStatus string, expiresAt, now time.Time) (models.PaymentStatus, bool) {
	switch strings.ToUpper(strings.TrimSpace(gatewayStatus)) {
	case GatewayStatusActive:
		if !expiresAt.IsZero() && !now.Before(expiresAt) {
			return models.PaymentStatusExpired, true
		}
		return models.PaymentStatusPending, true
	case GatewayStatusCompleted:
		return models.PaymentStatusPaid, true
	case GatewayStatusRemovedByReceiver, GatewayStatusRemovedByPSP:
		return models.PaymentStatusCancelled, true
	}
	return "", false
}
