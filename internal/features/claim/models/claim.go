package models

import "time"

// ClaimRecord is the one-per-wallet record of a completed airdrop claim.
// WalletAddress is the canonicalized (case-folded) idempotency key.
type ClaimRecord struct {
	WalletAddress   string    `json:"wallet_address"`
	TokenAmount     int64     `json:"token_amount"`
	TransactionHash string    `json:"transaction_hash,omitempty"`
	ReferredBy      string    `json:"referred_by,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// ReferralSummary is the referrer-side view of the referral index.
type ReferralSummary struct {
	WalletAddress string   `json:"wallet_address"`
	Referrals     []string `json:"referrals"`
	Bonus         int64    `json:"bonus"`
}

// Stats are operator-facing claim counters.
type Stats struct {
	TotalClaims    int64 `json:"total_claims"`
	TotalReferrals int64 `json:"total_referrals"`
}
