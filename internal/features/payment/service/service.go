package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"airdrop-claim-backend/internal/common/logger"
)

// Provider is the external wallet collaborator that confirms an on-chain
// payment. The transaction itself is out of scope; only the identifier
// and the confirmation signal cross this boundary.
type Provider interface {
	ConfirmTransaction(ctx context.Context, txHash string) (bool, error)
}

// Service polls the provider for a payment confirmation with a bounded
// attempt count. Exhausting the attempts is a normal outcome, not an
// error: the user re-checks manually and task progress survives.
type Service struct {
	provider     Provider
	pollInterval time.Duration
	maxAttempts  int

	sleep func(ctx context.Context, d time.Duration)
}

func NewService(provider Provider, pollInterval time.Duration, maxAttempts int) *Service {
	return &Service{
		provider:     provider,
		pollInterval: pollInterval,
		maxAttempts:  maxAttempts,
		sleep:        sleepCtx,
	}
}

// AwaitConfirmation polls until the transaction confirms, the attempts
// run out, or ctx is cancelled. Provider errors count as failed attempts.
func (s *Service) AwaitConfirmation(ctx context.Context, txHash string) (bool, error) {
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		confirmed, err := s.provider.ConfirmTransaction(ctx, txHash)
		if err != nil {
			logger.Warn().
				Str("transaction_hash", txHash).
				Int("attempt", attempt).
				Err(err).
				Msg("Payment confirmation check failed")
		} else if confirmed {
			logger.Info().
				Str("transaction_hash", txHash).
				Int("attempt", attempt).
				Msg("Payment confirmed")
			return true, nil
		}

		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		if attempt < s.maxAttempts {
			s.sleep(ctx, s.pollInterval)
		}
	}

	logger.Warn().
		Str("transaction_hash", txHash).
		Int("attempts", s.maxAttempts).
		Msg("Payment confirmation attempts exhausted")

	return false, nil
}

func sleepCtx(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

// HTTPProvider asks a JSON wallet API whether a transaction is confirmed.
type HTTPProvider struct {
	httpClient *http.Client
	baseURL    string
}

func NewHTTPProvider(baseURL string, timeout time.Duration) *HTTPProvider {
	return &HTTPProvider{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
	}
}

func (p *HTTPProvider) ConfirmTransaction(ctx context.Context, txHash string) (bool, error) {
	endpoint := fmt.Sprintf("%s/transactions/%s", p.baseURL, txHash)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return false, err
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("wallet provider status %d", resp.StatusCode)
	}

	var payload struct {
		Confirmed bool `json:"confirmed"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return false, err
	}

	return payload.Confirmed, nil
}

// StaticProvider confirms every transaction. Used when no provider URL is
// configured (the observed design treats payment as an external black
// box that already confirmed client-side).
type StaticProvider struct{}

func (StaticProvider) ConfirmTransaction(ctx context.Context, txHash string) (bool, error) {
	return true, nil
}
