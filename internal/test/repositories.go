package test

import (
	"context"
	"sync"
	"time"

	domainErrors "github.com/shipfire/payflow/internal/domain/errors"
	"github.com/shipfire/payflow/internal/domain/model"
	"github.com/shipfire/payflow/internal/domain/repository"
)

// InMemoryOrders is a concurrency-safe order repository backed by a map.
// MarkPaid performs the same conditional transition as the SQL store.
type InMemoryOrders struct {
	mu     sync.Mutex
	nextID int64
	orders map[string]*model.Order
}

// NewInMemoryOrders constructs an empty order store.
func NewInMemoryOrders() *InMemoryOrders {
	return &InMemoryOrders{orders: make(map[string]*model.Order)}
}

// Seed inserts an order directly, bypassing validation.
func (s *InMemoryOrders) Seed(order model.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	order.ID = s.nextID
	s.orders[order.OrderNo] = &order
}

// Create inserts a new order in created state.
func (s *InMemoryOrders) Create(_ context.Context, draft repository.OrderDraft) (*model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.orders[draft.OrderNo]; ok {
		return nil, domainErrors.ErrAlreadyExists
	}
	s.nextID++
	order := &model.Order{
		ID:        s.nextID,
		OrderNo:   draft.OrderNo,
		UserUUID:  draft.UserUUID,
		UserEmail: draft.UserEmail,
		Amount:    draft.Amount,
		Currency:  draft.Currency,
		Credits:   draft.Credits,
		Interval:  draft.Interval,
		Status:    model.OrderStatusCreated,
		SessionID: draft.SessionID,
		CreatedAt: time.Now(),
	}
	s.orders[draft.OrderNo] = order
	copied := *order
	return &copied, nil
}

// GetByOrderNo fetches an order by its number.
func (s *InMemoryOrders) GetByOrderNo(_ context.Context, orderNo string) (*model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.orders[orderNo]
	if !ok {
		return nil, domainErrors.ErrNotFound
	}
	copied := *order
	return &copied, nil
}

// FindCreatedByEmailAndAmount matches created orders by email and
// near-exact amount inside the trailing window, newest first.
func (s *InMemoryOrders) FindCreatedByEmailAndAmount(_ context.Context, email string, amount int64, window time.Duration) (*model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := time.Now().Add(-window)
	var best *model.Order
	for _, order := range s.orders {
		if order.Status != model.OrderStatusCreated {
			continue
		}
		if order.CreatedAt.Before(cutoff) {
			continue
		}
		if order.Amount < amount-1 || order.Amount > amount+1 {
			continue
		}
		matches := (order.UserEmail != nil && *order.UserEmail == email) ||
			(order.PaidEmail != nil && *order.PaidEmail == email)
		if !matches {
			continue
		}
		if best == nil || order.CreatedAt.After(best.CreatedAt) {
			best = order
		}
	}
	if best == nil {
		return nil, domainErrors.ErrNotFound
	}
	copied := *best
	return &copied, nil
}

// MarkPaid transitions the order to paid iff still created.
func (s *InMemoryOrders) MarkPaid(_ context.Context, orderNo string, paidAt time.Time, paidEmail, paidDetail string) (*model.Order, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.orders[orderNo]
	if !ok {
		return nil, false, domainErrors.ErrNotFound
	}
	switch order.Status {
	case model.OrderStatusCreated:
		order.Status = model.OrderStatusPaid
		order.PaidAt = &paidAt
		order.PaidEmail = &paidEmail
		order.PaidDetail = &paidDetail
		copied := *order
		return &copied, true, nil
	case model.OrderStatusPaid:
		copied := *order
		return &copied, false, nil
	default:
		return nil, false, domainErrors.ErrInvalidOrderState
	}
}

// ListPaidByUser returns the user's paid orders.
func (s *InMemoryOrders) ListPaidByUser(_ context.Context, userUUID string) ([]model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []model.Order
	for _, order := range s.orders {
		if order.Status == model.OrderStatusPaid && order.UserUUID != nil && *order.UserUUID == userUUID {
			result = append(result, *order)
		}
	}
	return result, nil
}

// SelectStaleCreated returns created orders with sessions inside the window.
func (s *InMemoryOrders) SelectStaleCreated(_ context.Context, olderThan, notOlderThan time.Duration, limit int) ([]model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	var result []model.Order
	for _, order := range s.orders {
		if len(result) >= limit {
			break
		}
		if order.Status != model.OrderStatusCreated || order.SessionID == nil {
			continue
		}
		age := now.Sub(order.CreatedAt)
		if age < olderThan || age > notOlderThan {
			continue
		}
		result = append(result, *order)
	}
	return result, nil
}

// GrantCall records a credit grant.
type GrantCall struct {
	UserUUID string
	Amount   int64
	OrderNo  string
}

// CreditRepositoryStub records grants and serves balances.
type CreditRepositoryStub struct {
	mu       sync.Mutex
	Grants   []GrantCall
	Balances map[string]int64
	Err      error
}

// Grant records the call, deduplicating by user and order.
func (s *CreditRepositoryStub) Grant(_ context.Context, userUUID string, amount int64, orderNo string) error {
	if s.Err != nil {
		return s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, g := range s.Grants {
		if g.UserUUID == userUUID && g.OrderNo == orderNo {
			return nil
		}
	}
	s.Grants = append(s.Grants, GrantCall{UserUUID: userUUID, Amount: amount, OrderNo: orderNo})
	return nil
}

// Balance returns the configured balance, falling back to the sum of
// recorded grants.
func (s *CreditRepositoryStub) Balance(_ context.Context, userUUID string) (int64, error) {
	if s.Err != nil {
		return 0, s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.Balances[userUUID]; ok {
		return v, nil
	}
	var sum int64
	for _, g := range s.Grants {
		if g.UserUUID == userUUID {
			sum += g.Amount
		}
	}
	return sum, nil
}

// ConversionCall records an affiliate conversion.
type ConversionCall struct {
	UserUUID    string
	OrderNo     string
	OrderAmount int64
	Reward      int64
}

// AffiliateRepositoryStub records conversions.
type AffiliateRepositoryStub struct {
	mu          sync.Mutex
	Conversions []ConversionCall
	Err         error
}

// RecordConversion records the call, deduplicating by order.
func (s *AffiliateRepositoryStub) RecordConversion(_ context.Context, userUUID, orderNo string, orderAmount, reward int64) error {
	if s.Err != nil {
		return s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.Conversions {
		if c.OrderNo == orderNo {
			return nil
		}
	}
	s.Conversions = append(s.Conversions, ConversionCall{UserUUID: userUUID, OrderNo: orderNo, OrderAmount: orderAmount, Reward: reward})
	return nil
}

// UserRepositoryStub is an in-memory user store.
type UserRepositoryStub struct {
	mu     sync.Mutex
	nextID int64
	byUUID map[string]*model.User
}

// NewUserRepositoryStub constructs an empty user store.
func NewUserRepositoryStub() *UserRepositoryStub {
	return &UserRepositoryStub{byUUID: make(map[string]*model.User)}
}

// Create inserts a new user, rejecting duplicate emails.
func (s *UserRepositoryStub) Create(_ context.Context, uuid, email, passwordHash string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.byUUID {
		if u.Email == email {
			return nil, domainErrors.ErrAlreadyExists
		}
	}
	s.nextID++
	user := &model.User{ID: s.nextID, UUID: uuid, Email: email, PasswordHash: passwordHash, CreatedAt: time.Now()}
	s.byUUID[uuid] = user
	copied := *user
	return &copied, nil
}

// GetByEmail fetches a user by email.
func (s *UserRepositoryStub) GetByEmail(_ context.Context, email string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.byUUID {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, domainErrors.ErrNotFound
}

// GetByID fetches a user by numeric identifier.
func (s *UserRepositoryStub) GetByID(_ context.Context, id int64) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.byUUID {
		if u.ID == id {
			copied := *u
			return &copied, nil
		}
	}
	return nil, domainErrors.ErrNotFound
}

var _ repository.OrderRepository = (*InMemoryOrders)(nil)
var _ repository.UserRepository = (*UserRepositoryStub)(nil)
var _ repository.CreditRepository = (*CreditRepositoryStub)(nil)
var _ repository.AffiliateRepository = (*AffiliateRepositoryStub)(nil)
