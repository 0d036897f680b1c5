package service

import (
	"context"
	"time"

	"airdrop-claim-backend/internal/common/logger"
	"airdrop-claim-backend/internal/features/notification/models"
	"airdrop-claim-backend/internal/platform/gateway"
)

// FallbackStep is one alternate delivery path, itself a full attempt with
// its own timeout and response classification.
type FallbackStep struct {
	Name    string
	Deliver func(ctx context.Context, message string) models.DeliveryAttemptResult
}

// FallbackChain escalates to alternate delivery paths only when the
// primary dispatch reports no successes. Total failure never propagates
// to the claim flow; the claim is already committed by the time a
// notification goes out.
type FallbackChain struct {
	dispatcher *Dispatcher
	steps      []FallbackStep
}

func NewFallbackChain(dispatcher *Dispatcher, steps []FallbackStep) *FallbackChain {
	return &FallbackChain{
		dispatcher: dispatcher,
		steps:      steps,
	}
}

// DispatchWithFallback runs the primary dispatch, then walks the fallback
// steps in order, stopping at the first success. On total failure the
// report carries the complete ordered attempt history.
func (c *FallbackChain) DispatchWithFallback(ctx context.Context, message string, targets []models.NotificationTarget) models.DeliveryReport {
	report := c.dispatcher.Dispatch(ctx, message, targets)
	if report.AnySucceeded {
		return report
	}

	logger.Warn().
		Int("primary_attempts", len(report.Attempts)).
		Msg("All primary notification targets failed, escalating to fallback chain")

	for _, step := range c.steps {
		attempt := step.Deliver(ctx, message)
		report.Attempts = append(report.Attempts, attempt)
		if attempt.Succeeded {
			report.AnySucceeded = true
			logger.Info().
				Str("step", step.Name).
				Msg("Fallback delivery succeeded")
			return report
		}
	}

	// The only operator-facing signal that a stakeholder must be told
	// manually.
	logger.Error().
		Int("total_attempts", len(report.Attempts)).
		Str("message", message).
		Msg("TOTAL DELIVERY FAILURE: no notification target reachable")

	return report
}

// NewDirectStep builds a fallback step that retries the primary endpoint
// against a dedicated fallback target.
func NewDirectStep(gw *gateway.Client, target models.NotificationTarget, timeout time.Duration) FallbackStep {
	return FallbackStep{
		Name: "direct-notify",
		Deliver: func(ctx context.Context, message string) models.DeliveryAttemptResult {
			stepCtx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()
			body, err := gw.SendWhatsApp(stepCtx, target.Address, target.Credential, message)
			return classifyAttempt(target.ChannelID, "direct-notify", body, err)
		},
	}
}

// NewTextStep builds a fallback step that uses the gateway's alternate
// text endpoint, which takes a different parameter shape.
func NewTextStep(gw *gateway.Client, target models.NotificationTarget, timeout time.Duration) FallbackStep {
	return FallbackStep{
		Name: "send-whatsapp-text",
		Deliver: func(ctx context.Context, message string) models.DeliveryAttemptResult {
			stepCtx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()
			body, err := gw.SendText(stepCtx, target.Address, target.Credential, message)
			return classifyAttempt(target.ChannelID, "send-whatsapp-text", body, err)
		},
	}
}
