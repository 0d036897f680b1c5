package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"airdrop-claim-backend/internal/features/claim/models"
	"airdrop-claim-backend/internal/features/claim/repository"
)

const (
	claimKeyPrefix    = "claim:"
	referralKeyPrefix = "referrals:"
	claimCounterKey   = "claims:total"
	referralSetKey    = "referrals:credited"
)

type claimRepository struct {
	client *redis.Client
}

func NewClaimRepository(client *redis.Client) repository.ClaimRepository {
	return &claimRepository{
		client: client,
	}
}

// createClaimScript is the per-wallet compare-and-set: the conditional
// insert, the claim counter and the referral credit commit in one script,
// so a record and its referral credit become visible together, never
// partially. The SETNX guard also means a wallet can appear in the
// referral index at most once.
var createClaimScript = redis.NewScript(`
if redis.call("SETNX", KEYS[1], ARGV[1]) == 0 then
	return 0
end
redis.call("INCR", KEYS[2])
if ARGV[2] ~= "" then
	redis.call("SADD", KEYS[3], ARGV[2])
	redis.call("RPUSH", KEYS[4], ARGV[2])
end
return 1
`)

func (r *claimRepository) CreateClaim(ctx context.Context, record *models.ClaimRecord) error {
	recordJSON, err := json.Marshal(record)
	if err != nil {
		return err
	}

	referred := ""
	if record.ReferredBy != "" {
		referred = record.WalletAddress
	}

	keys := []string{
		claimKeyPrefix + record.WalletAddress,
		claimCounterKey,
		referralSetKey,
		referralKeyPrefix + record.ReferredBy,
	}
	inserted, err := createClaimScript.Run(ctx, r.client, keys, recordJSON, referred).Int()
	if err != nil {
		return fmt.Errorf("create claim: %w", err)
	}
	if inserted == 0 {
		return repository.ErrClaimExists
	}

	return nil
}

func (r *claimRepository) GetClaim(ctx context.Context, wallet string) (*models.ClaimRecord, error) {
	recordJSON, err := r.client.Get(ctx, claimKeyPrefix+wallet).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, repository.ErrClaimNotFound
		}
		return nil, err
	}

	var record models.ClaimRecord
	if err := json.Unmarshal(recordJSON, &record); err != nil {
		return nil, err
	}

	return &record, nil
}

func (r *claimRepository) Referrals(ctx context.Context, wallet string) ([]string, error) {
	list, err := r.client.LRange(ctx, referralKeyPrefix+wallet, 0, -1).Result()
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (r *claimRepository) Stats(ctx context.Context) (*models.Stats, error) {
	total, err := r.client.Get(ctx, claimCounterKey).Int64()
	if err != nil && err != redis.Nil {
		return nil, err
	}

	referred, err := r.client.SCard(ctx, referralSetKey).Result()
	if err != nil {
		return nil, err
	}

	return &models.Stats{
		TotalClaims:    total,
		TotalReferrals: referred,
	}, nil
}
