package pix

import (
	"testing"
	"time"

	"github.com/Dosada05/bolao-system/models"
	"github.com/stretchr/testify/assert"
)

func TestNormalizeStatus(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	later := now.Add(time.Hour)
	earlier := now.Add(-time.Hour)

	tests := []struct {
		gateway string
		expires time.Time
		want    models.PaymentStatus
		ok      bool
	}{
		{"ATIVA", later, models.PaymentStatusPending, true},
		{"ATIVA", earlier, models.PaymentStatusExpired, true},
		{"ATIVA", now, models.PaymentStatusExpired, true},
		{"ativa", time.Time{}, models.PaymentStatusPending, true},
		{"CONCLUIDA", earlier, models.PaymentStatusPaid, true},
		{"REMOVIDA_PELO_USUARIO_RECEBEDOR", later, models.PaymentStatusCancelled, true},
		{"REMOVIDA_PELO_PSP", later, models.PaymentStatusCancelled, true},
		{"DESCONHECIDO", later, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.gateway, func(t *testing.T) {
			got, ok := NormalizeStatus(tt.gateway, tt.expires, now)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAmountConversion(t *testing.T) {
	assert.Equal(t, "12.50", FormatAmount(1250))
	assert.Equal(t, "0.05", FormatAmount(5))
	assert.Equal(t, "100.00", FormatAmount(10000))

	for in, want := range map[string]int64{"12.50": 1250, "12.5": 1250, "12": 1200, "0.01": 1, " 3.00 ": 300} {
		got, err := ParseAmount(in)
		assert.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	for _, in := range []string{"", "abc", "1.234", "-1.00", ".50", "1.x0", "1.-5", "1.+5", "+1.00", "1. 5", "1."} {
		_, err := ParseAmount(in)
		assert.Error(t, err, in)
	}
}
