package memory

import (
	"context"
	"sync"

	"airdrop-claim-backend/internal/features/claim/models"
	"airdrop-claim-backend/internal/features/claim/repository"
)

// claimRepository is the in-process store. A single mutex guards both the
// claim map and the referral index so a record and its referral credit
// become visible together, never partially.
type claimRepository struct {
	mu        sync.RWMutex
	claims    map[string]models.ClaimRecord
	referrals map[string][]string
	referred  map[string]struct{}
}

func NewClaimRepository() repository.ClaimRepository {
	return &claimRepository{
		claims:    make(map[string]models.ClaimRecord),
		referrals: make(map[string][]string),
		referred:  make(map[string]struct{}),
	}
}

func (r *claimRepository) CreateClaim(ctx context.Context, record *models.ClaimRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.claims[record.WalletAddress]; exists {
		return repository.ErrClaimExists
	}

	r.claims[record.WalletAddress] = *record

	if record.ReferredBy != "" {
		// A wallet is credited as a referred party at most once.
		if _, seen := r.referred[record.WalletAddress]; !seen {
			r.referrals[record.ReferredBy] = append(r.referrals[record.ReferredBy], record.WalletAddress)
			r.referred[record.WalletAddress] = struct{}{}
		}
	}

	return nil
}

func (r *claimRepository) GetClaim(ctx context.Context, wallet string) (*models.ClaimRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	record, exists := r.claims[wallet]
	if !exists {
		return nil, repository.ErrClaimNotFound
	}
	return &record, nil
}

func (r *claimRepository) Referrals(ctx context.Context, wallet string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := r.referrals[wallet]
	out := make([]string, len(list))
	copy(out, list)
	return out, nil
}

func (r *claimRepository) Stats(ctx context.Context) (*models.Stats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return &models.Stats{
		TotalClaims:    int64(len(r.claims)),
		TotalReferrals: int64(len(r.referred)),
	}, nil
}
