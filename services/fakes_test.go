package services

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/Dosada05/bolao-system/models"
	"github.com/Dosada05/bolao-system/pix"
	"github.com/Dosada05/bolao-system/ranking"
	"github.com/Dosada05/bolao-system/repositories"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeContestRepo struct {
	getByID      func(id int) (*models.Contest, error)
	list         func(filter repositories.ListContestsFilter) ([]*models.Contest, error)
	updateStatus func(id int, status models.ContestStatus) error
	count        func(status *models.ContestStatus) (int, error)
	advance      func(now time.Time) (int64, int64, error)
	created      []*models.Contest
}

func (f *fakeContestRepo) Create(_ context.Context, contest *models.Contest) error {
	contest.ID = len(f.created) + 1
	f.created = append(f.created, contest)
	return nil
}

func (f *fakeContestRepo) GetByID(_ context.Context, _ repositories.SQLExecutor, id int) (*models.Contest, error) {
	if f.getByID == nil {
		return nil, repositories.ErrContestNotFound
	}
	return f.getByID(id)
}

func (f *fakeContestRepo) List(_ context.Context, filter repositories.ListContestsFilter) ([]*models.Contest, error) {
	if f.list == nil {
		return nil, nil
	}
	return f.list(filter)
}

func (f *fakeContestRepo) Update(context.Context, *models.Contest) error { return nil }

func (f *fakeContestRepo) UpdateStatus(_ context.Context, id int, status models.ContestStatus) error {
	if f.updateStatus == nil {
		return nil
	}
	return f.updateStatus(id, status)
}

func (f *fakeContestRepo) Delete(context.Context, int) error { return nil }

func (f *fakeContestRepo) Count(_ context.Context, status *models.ContestStatus) (int, error) {
	if f.count == nil {
		return 0, nil
	}
	return f.count(status)
}

func (f *fakeContestRepo) AdvanceStatuses(_ context.Context, now time.Time) (int64, int64, error) {
	if f.advance == nil {
		return 0, 0, nil
	}
	return f.advance(now)
}

type fakeMatchRepo struct {
	getByID       func(id int) (*models.Match, error)
	listByContest func(contestID int) ([]*models.Match, error)
	setResult     func(id int, result *string) error
	count         func(finalizedOnly bool) (int, error)
}

func (f *fakeMatchRepo) Create(_ context.Context, match *models.Match) error {
	match.ID = 1
	return nil
}

func (f *fakeMatchRepo) GetByID(_ context.Context, id int) (*models.Match, error) {
	if f.getByID == nil {
		return nil, repositories.ErrMatchNotFound
	}
	return f.getByID(id)
}

func (f *fakeMatchRepo) ListByContest(_ context.Context, _ repositories.SQLExecutor, contestID int) ([]*models.Match, error) {
	if f.listByContest == nil {
		return nil, nil
	}
	return f.listByContest(contestID)
}

func (f *fakeMatchRepo) Update(context.Context, *models.Match) error { return nil }

func (f *fakeMatchRepo) SetResult(_ context.Context, id int, result *string) error {
	if f.setResult == nil {
		return nil
	}
	return f.setResult(id, result)
}

func (f *fakeMatchRepo) SetPhotoKey(context.Context, int, models.MatchSide, *string) error {
	return nil
}

func (f *fakeMatchRepo) Delete(context.Context, int) error { return nil }

func (f *fakeMatchRepo) Count(_ context.Context, finalizedOnly bool) (int, error) {
	if f.count == nil {
		return 0, nil
	}
	return f.count(finalizedOnly)
}

type fakePredictionRepo struct {
	exists            bool
	deleteStale       int64
	createBatchErr    error
	created           []*models.Prediction
	listByParticipant func(contestID int, name, phone string) ([]*models.Prediction, error)
	total             int
}

func (f *fakePredictionRepo) CreateBatch(_ context.Context, _ repositories.SQLExecutor, predictions []*models.Prediction) error {
	if f.createBatchErr != nil {
		return f.createBatchErr
	}
	f.created = append(f.created, predictions...)
	return nil
}

func (f *fakePredictionRepo) ListByParticipant(_ context.Context, contestID int, name, phone string) ([]*models.Prediction, error) {
	if f.listByParticipant == nil {
		return nil, nil
	}
	return f.listByParticipant(contestID, name, phone)
}

func (f *fakePredictionRepo) ListCountable(context.Context, repositories.SQLExecutor, int) ([]*models.Prediction, error) {
	return nil, nil
}

func (f *fakePredictionRepo) ExistsForParticipant(context.Context, repositories.SQLExecutor, int, string, string) (bool, error) {
	return f.exists, nil
}

func (f *fakePredictionRepo) DeleteStale(context.Context, repositories.SQLExecutor, int, string, string) (int64, error) {
	return f.deleteStale, nil
}

func (f *fakePredictionRepo) CountByContest(context.Context, int) (int, error) { return f.total, nil }

func (f *fakePredictionRepo) Count(context.Context) (int, error) { return f.total, nil }

// fakePaymentRepo хранит платежи в памяти.
type fakePaymentRepo struct {
	mu       sync.Mutex
	byID     map[int]*models.Payment
	nextID   int
	totals   map[models.PaymentStatus]models.PaymentStatusTotals
	pending  []*models.Payment
	markPaid int
}

func newFakePaymentRepo(payments ...*models.Payment) *fakePaymentRepo {
	f := &fakePaymentRepo{byID: make(map[int]*models.Payment)}
	for _, p := range payments {
		f.nextID++
		if p.ID == 0 {
			p.ID = f.nextID
		}
		f.byID[p.ID] = p
	}
	return f
}

func (f *fakePaymentRepo) copyOf(p *models.Payment) *models.Payment {
	c := *p
	return &c
}

func (f *fakePaymentRepo) Create(_ context.Context, _ repositories.SQLExecutor, payment *models.Payment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	payment.ID = f.nextID
	f.byID[payment.ID] = f.copyOf(payment)
	return nil
}

func (f *fakePaymentRepo) GetByID(_ context.Context, id int) (*models.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.byID[id]
	if !ok {
		return nil, repositories.ErrPaymentNotFound
	}
	return f.copyOf(p), nil
}

func (f *fakePaymentRepo) GetByTxID(_ context.Context, txid string) (*models.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.byID {
		if p.TxID == txid {
			return f.copyOf(p), nil
		}
	}
	return nil, repositories.ErrPaymentNotFound
}

func (f *fakePaymentRepo) ListByTxIDs(_ context.Context, txids []string) ([]*models.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Payment
	for _, txid := range txids {
		for _, p := range f.byID {
			if p.TxID == txid {
				out = append(out, f.copyOf(p))
			}
		}
	}
	return out, nil
}

func (f *fakePaymentRepo) List(context.Context, repositories.ListPaymentsFilter) ([]*models.Payment, error) {
	return nil, nil
}

func (f *fakePaymentRepo) ListPending(context.Context, time.Time) ([]*models.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*models.Payment, 0, len(f.pending))
	for _, p := range f.pending {
		out = append(out, f.copyOf(p))
	}
	return out, nil
}

func (f *fakePaymentRepo) UpdateStatus(_ context.Context, id int, status models.PaymentStatus, gatewayStatus *string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.byID[id]
	if !ok {
		return false, repositories.ErrPaymentNotFound
	}
	if p.Status == status && (gatewayStatus == nil || derefString(p.GatewayStatus) == *gatewayStatus) {
		return false, nil
	}
	p.Status = status
	if gatewayStatus != nil {
		p.GatewayStatus = gatewayStatus
	}
	return true, nil
}

func (f *fakePaymentRepo) MarkPaid(_ context.Context, txid, endToEndID string, paidAt time.Time) (*models.Payment, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.byID {
		if p.TxID != txid {
			continue
		}
		if p.Status == models.PaymentStatusPaid {
			return f.copyOf(p), false, nil
		}
		f.markPaid++
		p.Status = models.PaymentStatusPaid
		p.EndToEndID = &endToEndID
		p.PaidAt = &paidAt
		return f.copyOf(p), true, nil
	}
	return nil, false, repositories.ErrPaymentNotFound
}

func (f *fakePaymentRepo) TotalsByStatus(context.Context) (map[models.PaymentStatus]models.PaymentStatusTotals, error) {
	return f.totals, nil
}

type fakeGateway struct {
	mu       sync.Mutex
	charges  map[string]*pix.Charge
	received []pix.Received
	err      error
	created  []pix.ChargeRequest
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{charges: make(map[string]*pix.Charge)}
}

func (g *fakeGateway) CreateCharge(_ context.Context, req pix.ChargeRequest) (*pix.Charge, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return nil, g.err
	}
	g.created = append(g.created, req)
	c := &pix.Charge{
		TxID:        req.TxID,
		Status:      pix.GatewayStatusActive,
		AmountCents: req.AmountCents,
		CopyPaste:   "00020126pix" + req.TxID,
	}
	g.charges[req.TxID] = c
	return c, nil
}

func (g *fakeGateway) GetCharge(_ context.Context, txid string) (*pix.Charge, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return nil, g.err
	}
	c, ok := g.charges[txid]
	if !ok {
		return nil, pix.ErrChargeNotFound
	}
	return c, nil
}

func (g *fakeGateway) ListReceived(context.Context, time.Time, time.Time) ([]pix.Received, error) {
	if g.err != nil {
		return nil, g.err
	}
	return g.received, nil
}

type fakeRefresher struct {
	mu       sync.Mutex
	contests []int
	err      error
}

func (f *fakeRefresher) Refresh(_ context.Context, contestID int) (*ranking.Ranking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.contests = append(f.contests, contestID)
	if f.err != nil {
		return nil, f.err
	}
	return &ranking.Ranking{Status: ranking.StatusPartial}, nil
}

func (f *fakeRefresher) calls() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.contests...)
}

type broadcast struct {
	room    string
	message interface{}
}

type fakeBroadcaster struct {
	mu   sync.Mutex
	sent []broadcast
}

func (f *fakeBroadcaster) BroadcastToRoom(room string, message interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, broadcast{room: room, message: message})
}

type fakeSnapshots struct {
	mu    sync.Mutex
	load  func(contestID int) (*repositories.ContestSnapshot, error)
	calls int
}

func (f *fakeSnapshots) LoadContest(_ context.Context, contestID int) (*repositories.ContestSnapshot, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return f.load(contestID)
}

type fakeUserRepo struct {
	byEmail map[string]*models.User
	admins  int
}

func (f *fakeUserRepo) Create(_ context.Context, user *models.User) error {
	if _, ok := f.byEmail[user.Email]; ok {
		return repositories.ErrUserEmailConflict
	}
	user.ID = len(f.byEmail) + 1
	stored := *user
	f.byEmail[user.Email] = &stored
	if user.Role == models.RoleAdmin {
		f.admins++
	}
	return nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, id int) (*models.User, error) {
	for _, u := range f.byEmail {
		if u.ID == id {
			c := *u
			return &c, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	u, ok := f.byEmail[email]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	c := *u
	return &c, nil
}

func (f *fakeUserRepo) CountByRole(_ context.Context, role models.UserRole) (int, error) {
	if role == models.RoleAdmin {
		return f.admins, nil
	}
	return 0, nil
}
