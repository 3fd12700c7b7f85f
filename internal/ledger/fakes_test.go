package ledger

import (
	"context"
	"sort"
	"time"

	"github.com/campuspoints/platform/internal/domain"
	"github.com/campuspoints/platform/internal/repository"
	"github.com/google/uuid"
)

// fakeStore is an in-memory backing store shared by the fake
// repositories. The engine never touches the DBTX argument itself, so
// tests pass nil and exercise command semantics without a database.
type fakeStore struct {
	users        map[uuid.UUID]*domain.User
	transactions map[uuid.UUID]*domain.Transaction
	txOrder      []uuid.UUID
	promotions   map[uuid.UUID]*domain.Promotion
	usage        map[string]*domain.PromotionUsage
	events       map[uuid.UUID]*domain.Event
	guests       map[uuid.UUID][]uuid.UUID
	organizers   map[uuid.UUID][]uuid.UUID
	outbox       []domain.OutboxDraft
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:        make(map[uuid.UUID]*domain.User),
		transactions: make(map[uuid.UUID]*domain.Transaction),
		promotions:   make(map[uuid.UUID]*domain.Promotion),
		usage:        make(map[string]*domain.PromotionUsage),
		events:       make(map[uuid.UUID]*domain.Event),
		guests:       make(map[uuid.UUID][]uuid.UUID),
		organizers:   make(map[uuid.UUID][]uuid.UUID),
	}
}

func usageKey(userID, promotionID uuid.UUID) string {
	return userID.String() + "/" + promotionID.String()
}

func copyUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}

func copyTransaction(t *domain.Transaction) *domain.Transaction {
	if t == nil {
		return nil
	}
	c := *t
	c.PromotionIDs = append([]uuid.UUID(nil), t.PromotionIDs...)
	return &c
}

type fakeUsers struct{ s *fakeStore }

func (f *fakeUsers) FindByID(_ context.Context, _ repository.DBTX, id uuid.UUID) (*domain.User, error) {
	return copyUser(f.s.users[id]), nil
}

func (f *fakeUsers) LockForUpdate(_ context.Context, _ repository.DBTX, id uuid.UUID) (*domain.User, error) {
	return copyUser(f.s.users[id]), nil
}

func (f *fakeUsers) Create(_ context.Context, _ repository.DBTX, user *domain.User) error {
	f.s.users[user.ID] = copyUser(user)
	return nil
}

func (f *fakeUsers) ApplyBalanceDelta(_ context.Context, _ repository.DBTX, id uuid.UUID, delta int64) (*domain.User, error) {
	u := f.s.users[id]
	u.Balance += delta
	return copyUser(u), nil
}

func (f *fakeUsers) SetFlags(_ context.Context, _ repository.DBTX, id uuid.UUID, verified, suspicious bool) (*domain.User, error) {
	u := f.s.users[id]
	u.Verified = verified
	u.Suspicious = suspicious
	return copyUser(u), nil
}

type fakeTransactions struct{ s *fakeStore }

func (f *fakeTransactions) Insert(_ context.Context, _ repository.DBTX, params domain.PostEntryParams) (*domain.Transaction, error) {
	tx := &domain.Transaction{
		ID:           uuid.New(),
		UserID:       params.UserID,
		Type:         params.Type,
		Amount:       params.Amount,
		Spent:        params.Spent,
		RelatedID:    params.RelatedID,
		Suspicious:   params.Suspicious,
		Remark:       params.Remark,
		PromotionIDs: append([]uuid.UUID(nil), params.PromotionIDs...),
		CreatedBy:    params.CreatedBy,
		CreatedAt:    time.Now(),
	}
	f.s.transactions[tx.ID] = tx
	f.s.txOrder = append(f.s.txOrder, tx.ID)
	return copyTransaction(tx), nil
}

func (f *fakeTransactions) FindByID(_ context.Context, _ repository.DBTX, id uuid.UUID) (*domain.Transaction, error) {
	return copyTransaction(f.s.transactions[id]), nil
}

func (f *fakeTransactions) Exists(_ context.Context, _ repository.DBTX, id uuid.UUID) (bool, error) {
	_, ok := f.s.transactions[id]
	return ok, nil
}

func (f *fakeTransactions) ListByUser(_ context.Context, _ repository.DBTX, userID uuid.UUID, _ *string, limit int) ([]domain.Transaction, error) {
	all, _ := f.ListAllByUser(context.Background(), nil, userID)
	sort.SliceStable(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (f *fakeTransactions) ListAllByUser(_ context.Context, _ repository.DBTX, userID uuid.UUID) ([]domain.Transaction, error) {
	var out []domain.Transaction
	for _, id := range f.s.txOrder {
		tx := f.s.transactions[id]
		if tx.UserID == userID {
			out = append(out, *copyTransaction(tx))
		}
	}
	return out, nil
}

func (f *fakeTransactions) SumRedemptionsSince(_ context.Context, _ repository.DBTX, userID uuid.UUID, since time.Time) (int64, error) {
	var total int64
	for _, tx := range f.s.transactions {
		if tx.UserID == userID && tx.Type == domain.TxRedemption &&
			!tx.Suspicious && tx.CreatedAt.After(since) {
			total -= tx.Amount
		}
	}
	return total, nil
}

func (f *fakeTransactions) SetSuspicious(_ context.Context, _ repository.DBTX, id uuid.UUID, suspicious bool) (*domain.Transaction, error) {
	tx, ok := f.s.transactions[id]
	if !ok {
		return nil, nil
	}
	tx.Suspicious = suspicious
	return copyTransaction(tx), nil
}

func (f *fakeTransactions) MarkProcessed(_ context.Context, _ repository.DBTX, id, processorID uuid.UUID) (*domain.Transaction, error) {
	tx, ok := f.s.transactions[id]
	if !ok || tx.Type != domain.TxRedemption || tx.ProcessedBy != nil {
		return nil, nil
	}
	p := processorID
	tx.ProcessedBy = &p
	return copyTransaction(tx), nil
}

type fakePromotions struct{ s *fakeStore }

func (f *fakePromotions) FindByID(_ context.Context, _ repository.DBTX, id uuid.UUID) (*domain.Promotion, error) {
	p, ok := f.s.promotions[id]
	if !ok {
		return nil, nil
	}
	c := *p
	return &c, nil
}

func (f *fakePromotions) ListActiveAutomatic(_ context.Context, _ repository.DBTX, now time.Time) ([]domain.Promotion, error) {
	var out []domain.Promotion
	for _, p := range f.s.promotions {
		if p.Kind == domain.PromoAutomatic && p.ActiveAt(now) {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakePromotions) ListActive(_ context.Context, _ repository.DBTX, now time.Time) ([]domain.Promotion, error) {
	var out []domain.Promotion
	for _, p := range f.s.promotions {
		if p.ActiveAt(now) {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakePromotions) Create(_ context.Context, _ repository.DBTX, p *domain.Promotion) error {
	c := *p
	f.s.promotions[p.ID] = &c
	return nil
}

func (f *fakePromotions) GetUsage(_ context.Context, _ repository.DBTX, userID, promotionID uuid.UUID) (*domain.PromotionUsage, error) {
	u, ok := f.s.usage[usageKey(userID, promotionID)]
	if !ok {
		return nil, nil
	}
	c := *u
	return &c, nil
}

func (f *fakePromotions) Consume(_ context.Context, _ repository.DBTX, userID, promotionID uuid.UUID) error {
	f.s.usage[usageKey(userID, promotionID)] = &domain.PromotionUsage{
		UserID:      userID,
		PromotionID: promotionID,
		Used:        true,
	}
	return nil
}

type fakeEvents struct{ s *fakeStore }

func (f *fakeEvents) FindByID(_ context.Context, _ repository.DBTX, id uuid.UUID) (*domain.Event, error) {
	e, ok := f.s.events[id]
	if !ok {
		return nil, nil
	}
	c := *e
	return &c, nil
}

func (f *fakeEvents) LockForUpdate(ctx context.Context, db repository.DBTX, id uuid.UUID) (*domain.Event, error) {
	return f.FindByID(ctx, db, id)
}

func (f *fakeEvents) Create(_ context.Context, _ repository.DBTX, e *domain.Event) error {
	c := *e
	f.s.events[e.ID] = &c
	return nil
}

func (f *fakeEvents) AddGuest(_ context.Context, _ repository.DBTX, eventID, userID uuid.UUID) error {
	f.s.guests[eventID] = append(f.s.guests[eventID], userID)
	return nil
}

func (f *fakeEvents) AddOrganizer(_ context.Context, _ repository.DBTX, eventID, userID uuid.UUID) error {
	f.s.organizers[eventID] = append(f.s.organizers[eventID], userID)
	return nil
}

func (f *fakeEvents) IsGuest(_ context.Context, _ repository.DBTX, eventID, userID uuid.UUID) (bool, error) {
	for _, id := range f.s.guests[eventID] {
		if id == userID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeEvents) IsOrganizer(_ context.Context, _ repository.DBTX, eventID, userID uuid.UUID) (bool, error) {
	for _, id := range f.s.organizers[eventID] {
		if id == userID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeEvents) ListGuestIDs(_ context.Context, _ repository.DBTX, eventID uuid.UUID) ([]uuid.UUID, error) {
	return append([]uuid.UUID(nil), f.s.guests[eventID]...), nil
}

func (f *fakeEvents) AddAwarded(_ context.Context, _ repository.DBTX, id uuid.UUID, points int64) (*domain.Event, error) {
	e := f.s.events[id]
	e.PointsAwarded += points
	c := *e
	return &c, nil
}

type fakeOutbox struct{ s *fakeStore }

func (f *fakeOutbox) Insert(_ context.Context, _ repository.DBTX, draft domain.OutboxDraft) error {
	f.s.outbox = append(f.s.outbox, draft)
	return nil
}

func (f *fakeOutbox) FetchUnpublished(_ context.Context, _ repository.DBTX, limit int) ([]domain.OutboxDraft, error) {
	if limit > len(f.s.outbox) {
		limit = len(f.s.outbox)
	}
	return append([]domain.OutboxDraft(nil), f.s.outbox[:limit]...), nil
}

func (f *fakeOutbox) MarkPublished(_ context.Context, _ repository.DBTX, _ []uuid.UUID) error {
	return nil
}
