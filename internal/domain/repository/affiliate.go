package repository

import "context"

// AffiliateRepository records referral conversions for paid orders.
type AffiliateRepository interface {
	// RecordConversion books a reward for the order. Recording twice
	// for the same order is a no-op.
	RecordConversion(ctx context.Context, userUUID, orderNo string, orderAmount, reward int64) error
}
