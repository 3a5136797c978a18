package repository

import "context"

// CreditRepository manages the user credit ledger.
type CreditRepository interface {
	// Grant appends a ledger entry for the order. Granting twice for
	// the same (user, order) pair is a no-op.
	Grant(ctx context.Context, userUUID string, amount int64, orderNo string) error
	Balance(ctx context.Context, userUUID string) (int64, error)
}
