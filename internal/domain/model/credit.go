package model

import "time"

// CreditEntry is a ledger row granting credits to a user for a paid order.
type CreditEntry struct {
	ID        int64
	UserUUID  string
	Amount    int64
	OrderNo   string
	CreatedAt time.Time
}

// AffiliateConversion records referral payout bookkeeping for a paid order.
type AffiliateConversion struct {
	ID          int64
	UserUUID    string
	OrderNo     string
	OrderAmount int64
	Reward      int64
	CreatedAt   time.Time
}
