package repository

import (
	"context"
	"errors"

	"airdrop-claim-backend/internal/features/claim/models"
)

var (
	// ErrClaimExists is returned by CreateClaim when the wallet already
	// holds a claim record.
	ErrClaimExists = errors.New("claim already exists")

	// ErrClaimNotFound is returned by GetClaim for unknown wallets.
	ErrClaimNotFound = errors.New("claim not found")
)

// ClaimRepository stores claim records and the referral index. Keys are
// canonical wallet addresses; callers canonicalize before calling.
type ClaimRepository interface {
	// CreateClaim inserts record if and only if no record exists for its
	// wallet, and in the same operation appends the wallet to the
	// referrer's referral list when ReferredBy is set. The check-then-act
	// is atomic with respect to concurrent calls for the same wallet.
	CreateClaim(ctx context.Context, record *models.ClaimRecord) error

	GetClaim(ctx context.Context, wallet string) (*models.ClaimRecord, error)

	// Referrals returns the wallets referred by wallet, in referral order.
	Referrals(ctx context.Context, wallet string) ([]string, error)

	Stats(ctx context.Context) (*models.Stats, error)
}
