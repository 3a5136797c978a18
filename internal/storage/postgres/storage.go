package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	domainErrors "github.com/shipfire/payflow/internal/domain/errors"
	"github.com/shipfire/payflow/internal/domain/model"
	"github.com/shipfire/payflow/internal/domain/repository"
)

// pgxPool is the subset of pgxpool.Pool the storage relies on; tests
// substitute it with a mock pool.
type pgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	BeginTx(ctx context.Context, opts pgx.TxOptions) (pgx.Tx, error)
	Ping(ctx context.Context) error
	Close()
}

var newPgxPool = func(ctx context.Context, cfg *pgxpool.Config) (pgxPool, error) {
	return pgxpool.NewWithConfig(ctx, cfg)
}

// Storage acts as repository facade backed by PostgreSQL.
type Storage struct {
	pool   pgxPool
	logger *slog.Logger
}

type userRepository struct {
	storage *Storage
}

type orderRepository struct {
	storage *Storage
}

type creditRepository struct {
	storage *Storage
}

type affiliateRepository struct {
	storage *Storage
}

// New creates storage with schema initialization.
func New(ctx context.Context, dsn string, logger *slog.Logger) (*Storage, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}

	pool, err := newPgxPool(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}

	storage := &Storage{pool: pool, logger: logger}
	if err := storage.initSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return storage, nil
}

// Close releases database resources.
func (s *Storage) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Factory methods for domain repositories.
func (s *Storage) Users() repository.UserRepository {
	return &userRepository{storage: s}
}

func (s *Storage) Orders() repository.OrderRepository {
	return &orderRepository{storage: s}
}

func (s *Storage) Credits() repository.CreditRepository {
	return &creditRepository{storage: s}
}

func (s *Storage) Affiliates() repository.AffiliateRepository {
	return &affiliateRepository{storage: s}
}

func (s *Storage) initSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS users (
            id SERIAL PRIMARY KEY,
            uuid TEXT UNIQUE NOT NULL,
            email TEXT UNIQUE NOT NULL,
            password_hash TEXT NOT NULL,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`,
		`CREATE TABLE IF NOT EXISTS orders (
            id SERIAL PRIMARY KEY,
            order_no TEXT UNIQUE NOT NULL,
            user_uuid TEXT,
            user_email TEXT,
            amount BIGINT NOT NULL,
            currency TEXT NOT NULL,
            credits BIGINT NOT NULL DEFAULT 0,
            billing_interval TEXT NOT NULL,
            status TEXT NOT NULL,
            session_id TEXT,
            paid_at TIMESTAMPTZ,
            paid_email TEXT,
            paid_detail TEXT,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`,
		`CREATE TABLE IF NOT EXISTS credit_ledger (
            id SERIAL PRIMARY KEY,
            user_uuid TEXT NOT NULL,
            amount BIGINT NOT NULL,
            order_no TEXT NOT NULL,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            UNIQUE (user_uuid, order_no)
        )`,
		`CREATE TABLE IF NOT EXISTS affiliate_conversions (
            id SERIAL PRIMARY KEY,
            user_uuid TEXT NOT NULL,
            order_no TEXT UNIQUE NOT NULL,
            order_amount BIGINT NOT NULL,
            reward BIGINT NOT NULL,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`,
		`CREATE INDEX IF NOT EXISTS idx_orders_status_created ON orders(status, created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_orders_user ON orders(user_uuid, created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_orders_email_amount ON orders(user_email, amount)`,
		`CREATE INDEX IF NOT EXISTS idx_credit_ledger_user ON credit_ledger(user_uuid)`,
	}

	for _, stmt := range statements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}

	return nil
}

// --- UserRepository implementation ---

func (r *userRepository) Create(ctx context.Context, uuid, email, passwordHash string) (*model.User, error) {
	const query = `INSERT INTO users (uuid, email, password_hash) VALUES ($1, $2, $3) RETURNING id, created_at`
	var u model.User
	err := r.storage.pool.QueryRow(ctx, query, uuid, email, passwordHash).Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, domainErrors.ErrAlreadyExists
		}
		return nil, err
	}
	u.UUID = uuid
	u.Email = email
	u.PasswordHash = passwordHash
	return &u, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	const query = `SELECT id, uuid, email, password_hash, created_at FROM users WHERE email=$1`
	var u model.User
	err := r.storage.pool.QueryRow(ctx, query, email).Scan(&u.ID, &u.UUID, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	const query = `SELECT id, uuid, email, password_hash, created_at FROM users WHERE id=$1`
	var u model.User
	err := r.storage.pool.QueryRow(ctx, query, id).Scan(&u.ID, &u.UUID, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// --- OrderRepository implementation ---

const orderColumns = `id, order_no, user_uuid, user_email, amount, currency, credits, billing_interval, status, session_id, paid_at, paid_email, paid_detail, created_at`

func scanOrder(row pgx.Row) (*model.Order, error) {
	var o model.Order
	err := row.Scan(
		&o.ID, &o.OrderNo, &o.UserUUID, &o.UserEmail, &o.Amount, &o.Currency,
		&o.Credits, &o.Interval, &o.Status, &o.SessionID, &o.PaidAt,
		&o.PaidEmail, &o.PaidDetail, &o.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *orderRepository) Create(ctx context.Context, draft repository.OrderDraft) (*model.Order, error) {
	const query = `INSERT INTO orders (order_no, user_uuid, user_email, amount, currency, credits, billing_interval, status, session_id)
                   VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
                   RETURNING id, created_at`
	order := &model.Order{
		OrderNo:   draft.OrderNo,
		UserUUID:  draft.UserUUID,
		UserEmail: draft.UserEmail,
		Amount:    draft.Amount,
		Currency:  draft.Currency,
		Credits:   draft.Credits,
		Interval:  draft.Interval,
		Status:    model.OrderStatusCreated,
		SessionID: draft.SessionID,
	}
	err := r.storage.pool.QueryRow(ctx, query,
		draft.OrderNo, draft.UserUUID, draft.UserEmail, draft.Amount, draft.Currency,
		draft.Credits, draft.Interval, model.OrderStatusCreated, draft.SessionID,
	).Scan(&order.ID, &order.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, domainErrors.ErrAlreadyExists
		}
		return nil, err
	}
	return order, nil
}

func (r *orderRepository) GetByOrderNo(ctx context.Context, orderNo string) (*model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE order_no=$1`
	order, err := scanOrder(r.storage.pool.QueryRow(ctx, query, orderNo))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}
	return order, nil
}

func (r *orderRepository) FindCreatedByEmailAndAmount(ctx context.Context, email string, amount int64, window time.Duration) (*model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders
              WHERE (user_email=$1 OR paid_email=$1)
                AND amount BETWEEN $2 AND $3
                AND status='created'
                AND created_at >= $4
              ORDER BY created_at DESC
              LIMIT 1`
	cutoff := time.Now().Add(-window)
	order, err := scanOrder(r.storage.pool.QueryRow(ctx, query, email, amount-1, amount+1, cutoff))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}
	return order, nil
}

// MarkPaid performs the created->paid transition as a single conditional
// update. Under concurrent confirmations only one caller gets zero rows
// affected for a missing reason other than the race; that caller
// re-reads to find out which terminal state it lost to.
func (r *orderRepository) MarkPaid(ctx context.Context, orderNo string, paidAt time.Time, paidEmail, paidDetail string) (*model.Order, bool, error) {
	query := `UPDATE orders SET status='paid', paid_at=$2, paid_email=$3, paid_detail=$4
              WHERE order_no=$1 AND status='created'
              RETURNING ` + orderColumns
	order, err := scanOrder(r.storage.pool.QueryRow(ctx, query, orderNo, paidAt, paidEmail, paidDetail))
	if err == nil {
		return order, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, err
	}

	existing, err := r.GetByOrderNo(ctx, orderNo)
	if err != nil {
		return nil, false, err
	}
	switch existing.Status {
	case model.OrderStatusPaid:
		return existing, false, nil
	default:
		return nil, false, domainErrors.ErrInvalidOrderState
	}
}

func (r *orderRepository) ListPaidByUser(ctx context.Context, userUUID string) ([]model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders
              WHERE user_uuid=$1 AND status='paid'
              ORDER BY created_at DESC`
	rows, err := r.storage.pool.Query(ctx, query, userUUID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectOrders(rows)
}

func (r *orderRepository) SelectStaleCreated(ctx context.Context, olderThan, notOlderThan time.Duration, limit int) ([]model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders
              WHERE status='created' AND session_id IS NOT NULL
                AND created_at <= $1 AND created_at >= $2
              ORDER BY created_at
              LIMIT $3`
	now := time.Now()
	rows, err := r.storage.pool.Query(ctx, query, now.Add(-olderThan), now.Add(-notOlderThan), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectOrders(rows)
}

func collectOrders(rows pgx.Rows) ([]model.Order, error) {
	var result []model.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *order)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// --- CreditRepository implementation ---

func (r *creditRepository) Grant(ctx context.Context, userUUID string, amount int64, orderNo string) error {
	const query = `INSERT INTO credit_ledger (user_uuid, amount, order_no)
                   VALUES ($1, $2, $3)
                   ON CONFLICT (user_uuid, order_no) DO NOTHING`
	_, err := r.storage.pool.Exec(ctx, query, userUUID, amount, orderNo)
	return err
}

func (r *creditRepository) Balance(ctx context.Context, userUUID string) (int64, error) {
	const query = `SELECT COALESCE(SUM(amount), 0) FROM credit_ledger WHERE user_uuid=$1`
	var balance int64
	if err := r.storage.pool.QueryRow(ctx, query, userUUID).Scan(&balance); err != nil {
		return 0, err
	}
	return balance, nil
}

// --- AffiliateRepository implementation ---

func (r *affiliateRepository) RecordConversion(ctx context.Context, userUUID, orderNo string, orderAmount, reward int64) error {
	const query = `INSERT INTO affiliate_conversions (user_uuid, order_no, order_amount, reward)
                   VALUES ($1, $2, $3, $4)
                   ON CONFLICT (order_no) DO NOTHING`
	_, err := r.storage.pool.Exec(ctx, query, userUUID, orderNo, orderAmount, reward)
	return err
}

// HealthCheck verifies database connectivity.
func (s *Storage) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.pool.Ping(ctx)
}

// Logger returns storage logger.
func (s *Storage) Logger() *slog.Logger {
	return s.logger
}
