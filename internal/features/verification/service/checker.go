package service

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"airdrop-claim-backend/internal/features/verification/models"
)

// TaskChecker is the external identity-verification collaborator. The real
// integration (rate limits, auth, exact success semantics) lives behind
// this interface.
type TaskChecker interface {
	// CheckTask runs the remote per-task check. A returned error means the
	// check itself failed (network, timeout) and is retryable; an
	// unsuccessful outcome means the user did not pass the task.
	CheckTask(ctx context.Context, id models.TaskID, input models.TaskInput) (models.VerificationOutcome, error)

	// CheckAll runs the holistic all-tasks check for a wallet. Expected to
	// take on the order of tens of seconds.
	CheckAll(ctx context.Context, walletAddress string) (models.VerificationOutcome, error)
}

// SimulatedChecker stands in for the real verification service: every
// check passes except for a small injected failure rate.
type SimulatedChecker struct {
	mu          sync.Mutex
	rng         *rand.Rand
	failureRate float64
	checkDelay  time.Duration
}

func NewSimulatedChecker(failureRate float64, checkDelay time.Duration, seed int64) *SimulatedChecker {
	return &SimulatedChecker{
		rng:         rand.New(rand.NewSource(seed)),
		failureRate: failureRate,
		checkDelay:  checkDelay,
	}
}

func (c *SimulatedChecker) CheckTask(ctx context.Context, id models.TaskID, input models.TaskInput) (models.VerificationOutcome, error) {
	if err := c.sleep(ctx, c.checkDelay); err != nil {
		return models.VerificationOutcome{}, err
	}

	if c.roll() {
		return models.VerificationOutcome{
			Success: false,
			Message: fmt.Sprintf("Could not confirm task %s, please try again", id),
		}, nil
	}

	return models.VerificationOutcome{
		Success: true,
		Message: fmt.Sprintf("Task %s verified", id),
	}, nil
}

func (c *SimulatedChecker) CheckAll(ctx context.Context, walletAddress string) (models.VerificationOutcome, error) {
	// The holistic check is the slow one.
	if err := c.sleep(ctx, 4*c.checkDelay); err != nil {
		return models.VerificationOutcome{}, err
	}

	if c.roll() {
		return models.VerificationOutcome{
			Success: false,
			Message: "Final verification did not pass, please re-check your tasks",
		}, nil
	}

	return models.VerificationOutcome{
		Success: true,
		Message: "All tasks verified",
	}, nil
}

func (c *SimulatedChecker) roll() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rng.Float64() < c.failureRate
}

func (c *SimulatedChecker) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
