package service

import (
	"context"
	"errors"
	"net"
	"time"

	apperrors "airdrop-claim-backend/internal/common/errors"
	"airdrop-claim-backend/internal/common/logger"
	"airdrop-claim-backend/internal/features/notification/models"
	"airdrop-claim-backend/internal/platform/gateway"
)

// StepPrimary labels attempts made against the primary target list.
const StepPrimary = "primary"

// Dispatcher delivers a message to every configured target, strictly in
// order. Sequential on purpose: the external gateway is shared and
// rate-limited, and ordered attempts keep the logs auditable.
type Dispatcher struct {
	gw            *gateway.Client
	targetTimeout time.Duration
	interDelay    time.Duration

	// sleep is swapped out in tests.
	sleep func(ctx context.Context, d time.Duration)
}

func NewDispatcher(gw *gateway.Client, targetTimeout, interDelay time.Duration) *Dispatcher {
	return &Dispatcher{
		gw:            gw,
		targetTimeout: targetTimeout,
		interDelay:    interDelay,
		sleep:         sleepCtx,
	}
}

// Dispatch attempts every target exactly once, never aborting the loop on
// individual failures, and reports the per-target results.
func (d *Dispatcher) Dispatch(ctx context.Context, message string, targets []models.NotificationTarget) models.DeliveryReport {
	report := models.DeliveryReport{}

	for i, target := range targets {
		attempt := d.attemptTarget(ctx, message, target)
		report.Attempts = append(report.Attempts, attempt)
		if attempt.Succeeded {
			report.AnySucceeded = true
		}

		logger.Info().
			Str("channel_id", target.ChannelID).
			Bool("succeeded", attempt.Succeeded).
			Str("cause", attempt.Cause).
			Msg("Notification attempt finished")

		// Fixed pause between targets, skipped after the last one.
		if i < len(targets)-1 {
			d.sleep(ctx, d.interDelay)
		}
	}

	return report
}

func (d *Dispatcher) attemptTarget(ctx context.Context, message string, target models.NotificationTarget) models.DeliveryAttemptResult {
	attemptCtx, cancel := context.WithTimeout(ctx, d.targetTimeout)
	defer cancel()

	body, err := d.gw.SendWhatsApp(attemptCtx, target.Address, target.Credential, message)
	return classifyAttempt(target.ChannelID, StepPrimary, body, err)
}

// classifyAttempt turns a raw gateway exchange into a delivery attempt
// result. Success is decided by the response body, not the HTTP status.
func classifyAttempt(channelID, step, body string, err error) models.DeliveryAttemptResult {
	attempt := models.DeliveryAttemptResult{
		ChannelID:   channelID,
		Step:        step,
		RawResponse: body,
	}

	if err != nil {
		attempt.Cause = models.CauseNetwork
		attempt.Error = err.Error()
		if isTimeout(err) {
			attempt.Cause = models.CauseTimeout
			attempt.Error = apperrors.Wrap(err, apperrors.ErrCodeDeliveryTimeout, "delivery timed out").Error()
		}
		return attempt
	}

	if !gateway.Classify(body) {
		attempt.Cause = models.CauseRejected
		attempt.Error = apperrors.New(apperrors.ErrCodeDeliveryRejected, "gateway response contains no success marker").Error()
		return attempt
	}

	attempt.Succeeded = true
	return attempt
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
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
