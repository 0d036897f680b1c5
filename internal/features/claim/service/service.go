package service

import (
	"context"
	"errors"
	"time"

	apperrors "airdrop-claim-backend/internal/common/errors"
	"airdrop-claim-backend/internal/common/logger"
	"airdrop-claim-backend/internal/features/claim/models"
	"airdrop-claim-backend/internal/features/claim/repository"
	"airdrop-claim-backend/internal/utils/wallet"
)

// Service is the claim ledger: it enforces one claim per wallet and
// derives referral bonuses. The repository is the sole writer path; all
// mutation funnels through RecordClaim.
type Service struct {
	repo repository.ClaimRepository

	baseAmount   int64
	bonusPercent int64
	perReferral  int64
}

func NewService(repo repository.ClaimRepository, baseAmount, bonusPercent, perReferral int64) *Service {
	return &Service{
		repo:         repo,
		baseAmount:   baseAmount,
		bonusPercent: bonusPercent,
		perReferral:  perReferral,
	}
}

// BaseAmount returns the configured base token amount per claim.
func (s *Service) BaseAmount() int64 {
	return s.baseAmount
}

// HasClaimed reports whether the wallet already holds a claim record.
func (s *Service) HasClaimed(ctx context.Context, walletAddress string) (bool, error) {
	canonical, err := wallet.Canonicalize(walletAddress)
	if err != nil {
		return false, apperrors.NewValidationError("walletAddress", err.Error())
	}

	_, err = s.repo.GetClaim(ctx, canonical)
	if err != nil {
		if errors.Is(err, repository.ErrClaimNotFound) {
			return false, nil
		}
		return false, apperrors.NewStorageError("get claim", err)
	}
	return true, nil
}

// GetClaim looks up the claim record for a wallet.
func (s *Service) GetClaim(ctx context.Context, walletAddress string) (*models.ClaimRecord, error) {
	canonical, err := wallet.Canonicalize(walletAddress)
	if err != nil {
		return nil, apperrors.NewValidationError("walletAddress", err.Error())
	}

	record, err := s.repo.GetClaim(ctx, canonical)
	if err != nil {
		if errors.Is(err, repository.ErrClaimNotFound) {
			return nil, apperrors.NewClaimNotFoundError(canonical)
		}
		return nil, apperrors.NewStorageError("get claim", err)
	}
	return record, nil
}

// ComputeTokenAmount applies the claimant-side referral bonus: a fixed
// percentage on top of base when the claimant was referred by a resolvable
// wallet. The referrer's own bonus is separate (see ReferralBonus).
func (s *Service) ComputeTokenAmount(base int64, referredBy string) int64 {
	if referredBy == "" || !wallet.IsValid(referredBy) {
		return base
	}
	return base + base*s.bonusPercent/100
}

// RecordClaim atomically records a claim for the wallet, together with the
// referral credit when referredBy is declared. Duplicate attempts return
// an already-claimed error before any amount is committed.
func (s *Service) RecordClaim(ctx context.Context, walletAddress string, baseAmount int64, txHash, referredBy string) (*models.ClaimRecord, error) {
	canonical, err := wallet.Canonicalize(walletAddress)
	if err != nil {
		return nil, apperrors.NewValidationError("walletAddress", err.Error())
	}

	referrer := ""
	if referredBy != "" {
		// A malformed or self-referencing referrer does not block the
		// claim; it just earns no bonus.
		if canonicalReferrer, err := wallet.Canonicalize(referredBy); err == nil && canonicalReferrer != canonical {
			referrer = canonicalReferrer
		}
	}

	record := &models.ClaimRecord{
		WalletAddress:   canonical,
		TokenAmount:     s.ComputeTokenAmount(baseAmount, referrer),
		TransactionHash: txHash,
		ReferredBy:      referrer,
		CreatedAt:       time.Now().UTC(),
	}

	if err := s.repo.CreateClaim(ctx, record); err != nil {
		if errors.Is(err, repository.ErrClaimExists) {
			return nil, apperrors.NewAlreadyClaimedError(canonical)
		}
		return nil, apperrors.NewStorageError("create claim", err)
	}

	logger.Info().
		Str("wallet_address", canonical).
		Int64("token_amount", record.TokenAmount).
		Str("referred_by", referrer).
		Str("transaction_hash", txHash).
		Msg("Claim recorded")

	return record, nil
}

// ReferralBonus returns the referrer-side bonus: referral count times the
// configured per-referral amount.
func (s *Service) ReferralBonus(ctx context.Context, walletAddress string) (*models.ReferralSummary, error) {
	canonical, err := wallet.Canonicalize(walletAddress)
	if err != nil {
		return nil, apperrors.NewValidationError("walletAddress", err.Error())
	}

	referrals, err := s.repo.Referrals(ctx, canonical)
	if err != nil {
		return nil, apperrors.NewStorageError("list referrals", err)
	}

	return &models.ReferralSummary{
		WalletAddress: canonical,
		Referrals:     referrals,
		Bonus:         int64(len(referrals)) * s.perReferral,
	}, nil
}

// Stats returns operator-facing claim counters.
func (s *Service) Stats(ctx context.Context) (*models.Stats, error) {
	stats, err := s.repo.Stats(ctx)
	if err != nil {
		return nil, apperrors.NewStorageError("stats", err)
	}
	return stats, nil
}
