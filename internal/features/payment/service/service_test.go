package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedProvider struct {
	calls   int
	results []bool
	err     error
}

func (p *scriptedProvider) ConfirmTransaction(ctx context.Context, txHash string) (bool, error) {
	p.calls++
	if p.err != nil {
		return false, p.err
	}
	if p.calls <= len(p.results) {
		return p.results[p.calls-1], nil
	}
	return false, nil
}

func newTestService(provider Provider, maxAttempts int) *Service {
	s := NewService(provider, time.Second, maxAttempts)
	s.sleep = func(ctx context.Context, _ time.Duration) {}
	return s
}

func TestAwaitConfirmation_ConfirmsMidway(t *testing.T) {
	provider := &scriptedProvider{results: []bool{false, false, true}}
	s := newTestService(provider, 10)

	confirmed, err := s.AwaitConfirmation(context.Background(), "0xdeadbeef")

	require.NoError(t, err)
	assert.True(t, confirmed)
	assert.Equal(t, 3, provider.calls, "polling must stop once confirmed")
}

func TestAwaitConfirmation_GivesUpWithoutError(t *testing.T) {
	provider := &scriptedProvider{}
	s := newTestService(provider, 10)

	confirmed, err := s.AwaitConfirmation(context.Background(), "0xdeadbeef")

	// Exhausted attempts are a normal outcome, not an error.
	require.NoError(t, err)
	assert.False(t, confirmed)
	assert.Equal(t, 10, provider.calls)
}

func TestAwaitConfirmation_ProviderErrorsCountAsAttempts(t *testing.T) {
	provider := &scriptedProvider{err: errors.New("provider down")}
	s := newTestService(provider, 3)

	confirmed, err := s.AwaitConfirmation(context.Background(), "0xdeadbeef")

	require.NoError(t, err)
	assert.False(t, confirmed)
	assert.Equal(t, 3, provider.calls)
}

func TestAwaitConfirmation_RespectsCancellation(t *testing.T) {
	provider := &scriptedProvider{}
	s := newTestService(provider, 10)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.AwaitConfirmation(ctx, "0xdeadbeef")
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, provider.calls)
}
