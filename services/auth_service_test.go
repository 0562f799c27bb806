package services

import (
	"context"
	"testing"

	"github.com/Dosada05/bolao-system/models"
	"github.com/Dosada05/bolao-system/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testJWTSecret = []byte("test-secret")

func TestAuthService_EnsureAdminAndLogin(t *testing.T) {
	repo := &fakeUserRepo{byEmail: map[string]*models.User{}}
	svc := NewAuthService(repo, testJWTSecret, discardLogger())

	created, err := svc.EnsureAdmin(context.Background(), "Admin@Bolao.dev", "correct-horse")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = svc.EnsureAdmin(context.Background(), "other@bolao.dev", "correct-horse")
	require.NoError(t, err)
	assert.False(t, created)

	user, token, err := svc.Login(context.Background(), LoginInput{Email: "admin@bolao.dev", Password: "correct-horse"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, user.Role)
	assert.Empty(t, user.PasswordHash)

	claims, err := utils.ParseJWT(token, testJWTSecret)
	require.NoError(t, err)
	assert.Equal(t, string(models.RoleAdmin), claims[utils.ClaimRole])

	_, _, err = svc.Login(context.Background(), LoginInput{Email: "admin@bolao.dev", Password: "wrong-horse"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = svc.Login(context.Background(), LoginInput{Email: "nobody@bolao.dev", Password: "x"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthService_EnsureAdmin_NoCredentials(t *testing.T) {
	svc := NewAuthService(&fakeUserRepo{byEmail: map[string]*models.User{}}, testJWTSecret, discardLogger())

	created, err := svc.EnsureAdmin(context.Background(), "", "")
	require.NoError(t, err)
	assert.False(t, created)
}

func TestAuthService_CreateUser(t *testing.T) {
	repo := &fakeUserRepo{byEmail: map[string]*models.User{}}
	svc := NewAuthService(repo, testJWTSecret, discardLogger())

	_, err := svc.CreateUser(context.Background(), CreateUserInput{Name: "Bia", Email: "bia@bolao.dev", Password: "short"})
	assert.ErrorIs(t, err, ErrPasswordTooShort)

	user, err := svc.CreateUser(context.Background(), CreateUserInput{Name: "Bia", Email: "bia@bolao.dev", Password: "long-enough"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, user.Role)

	_, err = svc.CreateUser(context.Background(), CreateUserInput{Name: "Bia 2", Email: "BIA@bolao.dev", Password: "long-enough"})
	assert.ErrorIs(t, err, ErrUserEmailConflict)
}

func TestDashboardService_GetStats(t *testing.T) {
	contests := &fakeContestRepo{count: func(status *models.ContestStatus) (int, error) {
		if status != nil {
			return 1, nil
		}
		return 3, nil
	}}
	matches := &fakeMatchRepo{count: func(finalizedOnly bool) (int, error) {
		if finalizedOnly {
			return 4, nil
		}
		return 10, nil
	}}
	payments := newFakePaymentRepo()
	payments.totals = map[models.PaymentStatus]models.PaymentStatusTotals{
		models.PaymentStatusPaid: {Count: 2, AmountCents: 3000},
	}
	svc := NewDashboardService(contests, matches, &fakePredictionRepo{total: 25}, payments)

	stats, err := svc.GetStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, stats.ContestsTotal)
	assert.Equal(t, 1, stats.OpenContests)
	assert.Equal(t, 10, stats.MatchesTotal)
	assert.Equal(t, 4, stats.FinalizedMatches)
	assert.Equal(t, 25, stats.PredictionsTotal)
	assert.Equal(t, int64(3000), stats.Payments[models.PaymentStatusPaid].AmountCents)
}
