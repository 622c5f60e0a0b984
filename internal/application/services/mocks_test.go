package services

import (
	"context"
	"sync"
	"time"

	"github.com/avito-tech/go-transaction-manager/trm/v2"
	"github.com/febry-setyawan/loyalty/internal/application/errs"
	"github.com/febry-setyawan/loyalty/internal/domain/entities"
	"github.com/febry-setyawan/loyalty/internal/domain/repositories"
	"github.com/google/uuid"
)

// mockTrManager runs units of work without a database. It can be
// primed to fail the first N calls to exercise the retry path.
type mockTrManager struct {
	failFirst int
	failWith  error
	calls     int
	mu        sync.Mutex
}

func (m *mockTrManager) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	m.mu.Lock()
	m.calls++
	fail := m.calls <= m.failFirst
	m.mu.Unlock()

	if fail {
		return m.failWith
	}
	return fn(ctx)
}

func (m *mockTrManager) DoWithSettings(
	ctx context.Context, _ trm.Settings, fn func(ctx context.Context) error,
) error {
	return m.Do(ctx, fn)
}

type mockBalanceRepository struct {
	items map[uuid.UUID]*entities.PointBalance
	// Primed error returned once by the next Save.
	saveErr error
	mu      sync.RWMutex
}

func newMockBalanceRepository() *mockBalanceRepository {
	return &mockBalanceRepository{items: make(map[uuid.UUID]*entities.PointBalance)}
}

func (m *mockBalanceRepository) Save(_ context.Context, balance *entities.PointBalance) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		err := m.saveErr
		m.saveErr = nil
		return err
	}
	m.items[balance.UserID()] = balance
	return nil
}

func (m *mockBalanceRepository) FindByUserID(_ context.Context, userID uuid.UUID) (*entities.PointBalance, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if balance, ok := m.items[userID]; ok {
		return balance, nil
	}
	return nil, errs.ErrNotFound
}

func (m *mockBalanceRepository) FindByUserIDOrCreate(ctx context.Context, userID uuid.UUID) (*entities.PointBalance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if balance, ok := m.items[userID]; ok {
		return balance, nil
	}
	balance, err := entities.NewPointBalance(userID)
	if err != nil {
		return nil, err
	}
	m.items[userID] = balance
	return balance, nil
}

func (m *mockBalanceRepository) DeleteByUserID(_ context.Context, userID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, userID)
	return nil
}

type mockTransactionRepository struct {
	items []*entities.PointTransaction
	mu    sync.RWMutex
}

func (m *mockTransactionRepository) Save(_ context.Context, tx *entities.PointTransaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, item := range m.items {
		if item.ID() == tx.ID() {
			m.items[i] = tx
			return nil
		}
	}
	m.items = append(m.items, tx)
	return nil
}

func (m *mockTransactionRepository) FindByID(_ context.Context, id uuid.UUID) (*entities.PointTransaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, item := range m.items {
		if item.ID() == id {
			return item, nil
		}
	}
	return nil, errs.ErrNotFound
}

func (m *mockTransactionRepository) FindByUserID(_ context.Context, userID uuid.UUID) ([]*entities.PointTransaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var res []*entities.PointTransaction
	for _, item := range m.items {
		if item.UserID() == userID {
			res = append(res, item)
		}
	}
	return res, nil
}

func (m *mockTransactionRepository) FindByUserIDAndDateRange(
	_ context.Context, userID uuid.UUID, from, to time.Time,
) ([]*entities.PointTransaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var res []*entities.PointTransaction
	for _, item := range m.items {
		if item.UserID() == userID &&
			!item.CreatedAt().Before(from) && !item.CreatedAt().After(to) {
			res = append(res, item)
		}
	}
	return res, nil
}

func (m *mockTransactionRepository) FindPendingTransactions(_ context.Context) ([]*entities.PointTransaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var res []*entities.PointTransaction
	for _, item := range m.items {
		if item.IsPending() {
			res = append(res, item)
		}
	}
	return res, nil
}

func (m *mockTransactionRepository) FindExpired(
	_ context.Context, now time.Time, limit int,
) ([]*entities.PointTransaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	expired := make(map[uuid.UUID]struct{})
	for _, item := range m.items {
		if item.TransactionType() == entities.EXPIRE && item.SourceID() != nil {
			expired[*item.SourceID()] = struct{}{}
		}
	}

	var res []*entities.PointTransaction
	for _, item := range m.items {
		if len(res) == limit {
			break
		}
		if item.TransactionType() != entities.EARN || !item.IsProcessed() {
			continue
		}
		if item.ExpiryDate() == nil || item.ExpiryDate().After(now) {
			continue
		}
		if _, done := expired[item.ID()]; done {
			continue
		}
		res = append(res, item)
	}
	return res, nil
}

func (m *mockTransactionRepository) DeleteByID(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, item := range m.items {
		if item.ID() == id {
			m.items = append(m.items[:i], m.items[i+1:]...)
			return nil
		}
	}
	return errs.ErrNotFound
}

type mockRuleRepository struct {
	items []*entities.EarningRule
	mu    sync.RWMutex
}

func (m *mockRuleRepository) Save(_ context.Context, rule *entities.EarningRule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, item := range m.items {
		if item.ID() == rule.ID() {
			m.items[i] = rule
			return nil
		}
	}
	m.items = append(m.items, rule)
	return nil
}

func (m *mockRuleRepository) FindByID(_ context.Context, id uuid.UUID) (*entities.EarningRule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, item := range m.items {
		if item.ID() == id {
			return item, nil
		}
	}
	return nil, errs.ErrNotFound
}

func (m *mockRuleRepository) FindAll(_ context.Context) ([]*entities.EarningRule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]*entities.EarningRule(nil), m.items...), nil
}

func (m *mockRuleRepository) FindActiveRules(_ context.Context) ([]*entities.EarningRule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var res []*entities.EarningRule
	for _, item := range m.items {
		if item.IsApplicable() {
			res = append(res, item)
		}
	}
	return res, nil
}

func (m *mockRuleRepository) FindByRuleType(_ context.Context, ruleType entities.EarningType) ([]*entities.EarningRule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var res []*entities.EarningRule
	for _, item := range m.items {
		if item.RuleType() == ruleType {
			res = append(res, item)
		}
	}
	return res, nil
}

func (m *mockRuleRepository) DeleteByID(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, item := range m.items {
		if item.ID() == id {
			m.items = append(m.items[:i], m.items[i+1:]...)
			return nil
		}
	}
	return errs.ErrNotFound
}

// mockPublisher records published events by kind.
type mockPublisher struct {
	earned   []*entities.PointTransaction
	spent    []*entities.PointTransaction
	expired  []*entities.PointTransaction
	referral []*entities.PointTransaction
	mu       sync.Mutex
}

func (p *mockPublisher) PublishPointsEarned(_ context.Context, tx *entities.PointTransaction, _ *entities.PointBalance) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.earned = append(p.earned, tx)
}

func (p *mockPublisher) PublishPointsSpent(_ context.Context, tx *entities.PointTransaction, _ *entities.PointBalance) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.spent = append(p.spent, tx)
}

func (p *mockPublisher) PublishPointsExpired(_ context.Context, tx *entities.PointTransaction, _ *entities.PointBalance) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.expired = append(p.expired, tx)
}

func (p *mockPublisher) PublishReferralPointsEarned(_ context.Context, tx *entities.PointTransaction, _ *entities.PointBalance) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.referral = append(p.referral, tx)
}

var (
	_ repositories.PointBalanceRepository     = (*mockBalanceRepository)(nil)
	_ repositories.PointTransactionRepository = (*mockTransactionRepository)(nil)
	_ repositories.EarningRuleRepository      = (*mockRuleRepository)(nil)
	_ trm.Manager                             = (*mockTrManager)(nil)
)
