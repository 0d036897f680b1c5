package service

import (
	"context"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"

	apperrors "airdrop-claim-backend/internal/common/errors"
	"airdrop-claim-backend/internal/common/logger"
	"airdrop-claim-backend/internal/features/verification/models"
	"airdrop-claim-backend/internal/utils/wallet"
)

var (
	twitterUsernameRe = regexp.MustCompile(`^@?\w{1,15}$`)
	telegramIDRe      = regexp.MustCompile(`^\d{5,15}$`)
	telegramNameRe    = regexp.MustCompile(`^@?\w{5,32}$`)
	statusPathRe      = regexp.MustCompile(`^/\w{1,15}/status/\d+`)
)

// Verifier orchestrates task verification per claiming wallet: structural
// validation first, remote check second, gate bookkeeping last.
type Verifier struct {
	checker TaskChecker
	taskIDs []models.TaskID

	// Per-call ceilings for the remote checker. The holistic all-tasks
	// check takes far longer than a single task check, so the two are
	// bounded separately.
	checkTimeout    time.Duration
	checkAllTimeout time.Duration

	mu       sync.Mutex
	sessions map[string]*session
}

type session struct {
	gate     *TaskGate
	progress *ProgressTracker
}

func NewVerifier(checker TaskChecker, taskIDs []models.TaskID, checkTimeout, checkAllTimeout time.Duration) *Verifier {
	return &Verifier{
		checker:         checker,
		taskIDs:         taskIDs,
		checkTimeout:    checkTimeout,
		checkAllTimeout: checkAllTimeout,
		sessions:        make(map[string]*session),
	}
}

// Gate returns the task gate for a wallet, creating the session on first
// use.
func (v *Verifier) Gate(walletAddress string) (*TaskGate, error) {
	s, err := v.session(walletAddress)
	if err != nil {
		return nil, err
	}
	return s.gate, nil
}

// Progress returns the current aggregate-verification percentage for a
// wallet session.
func (v *Verifier) Progress(walletAddress string) int {
	v.mu.Lock()
	defer v.mu.Unlock()
	canonical, err := wallet.Canonicalize(walletAddress)
	if err != nil {
		return 0
	}
	s, ok := v.sessions[canonical]
	if !ok || s.progress == nil {
		return 0
	}
	return s.progress.Percent()
}

// VerifyTask validates the task input structurally, then delegates to the
// remote checker, then records the outcome on the gate. Validation
// rejections never reach the network and are never retried automatically;
// remote failures surface as retryable errors.
func (v *Verifier) VerifyTask(ctx context.Context, walletAddress string, id models.TaskID, input models.TaskInput) (models.VerificationOutcome, error) {
	s, err := v.session(walletAddress)
	if err != nil {
		return models.VerificationOutcome{}, err
	}

	task, ok := s.gate.Task(id)
	if !ok {
		return models.VerificationOutcome{}, apperrors.NewTaskNotFoundError(string(id))
	}
	if task.Locked {
		return models.VerificationOutcome{}, apperrors.NewTaskLockedError(string(id))
	}

	// Fail fast on malformed input, before the remote round trip.
	if err := validateTaskInput(id, input); err != nil {
		outcome := models.VerificationOutcome{Success: false, Message: err.Message}
		// Recorded so the task board can show the rejection.
		if _, gateErr := s.gate.MarkVerified(id, outcome); gateErr != nil {
			return models.VerificationOutcome{}, gateErr
		}
		return outcome, err
	}

	checkCtx, cancel := context.WithTimeout(ctx, v.checkTimeout)
	defer cancel()

	outcome, err := v.checker.CheckTask(checkCtx, id, input)
	if err != nil {
		remoteErr := apperrors.NewRemoteVerificationError(string(id), err)
		if _, gateErr := s.gate.MarkVerified(id, models.VerificationOutcome{Success: false, Message: remoteErr.Message}); gateErr != nil {
			return models.VerificationOutcome{}, gateErr
		}
		return models.VerificationOutcome{}, remoteErr
	}

	transition, err := s.gate.MarkVerified(id, outcome)
	if err != nil {
		return models.VerificationOutcome{}, err
	}

	if transition.CompletedTaskID != "" {
		logger.Info().
			Str("wallet_address", walletAddress).
			Str("task_id", string(id)).
			Str("unlocked_task_id", string(transition.UnlockedTaskID)).
			Bool("all_completed", transition.AllCompleted).
			Msg("Task verified")
	}

	return outcome, nil
}

// VerifyAll fails fast at the first incomplete task, then runs the
// holistic remote check once with the session's progress tracker running.
func (v *Verifier) VerifyAll(ctx context.Context, walletAddress string) (models.AggregateOutcome, error) {
	s, err := v.session(walletAddress)
	if err != nil {
		return models.AggregateOutcome{}, err
	}

	if id, incomplete := s.gate.FirstIncomplete(); incomplete {
		return models.AggregateOutcome{
			Success:       false,
			FailingTaskID: id,
			Message:       "Task " + string(id) + " is not completed yet",
		}, nil
	}

	tracker := NewProgressTracker()
	v.mu.Lock()
	s.progress = tracker
	v.mu.Unlock()

	checkCtx, cancel := context.WithTimeout(ctx, v.checkAllTimeout)
	defer cancel()
	go tracker.Run(checkCtx, time.Second)

	outcome, err := v.checker.CheckAll(checkCtx, walletAddress)
	if err != nil {
		tracker.Finish(false)
		return models.AggregateOutcome{}, apperrors.NewRemoteVerificationError("all-tasks", err)
	}

	tracker.Finish(outcome.Success)

	return models.AggregateOutcome{
		Success: outcome.Success,
		Message: outcome.Message,
	}, nil
}

func (v *Verifier) session(walletAddress string) (*session, error) {
	canonical, err := wallet.Canonicalize(walletAddress)
	if err != nil {
		return nil, apperrors.NewValidationError("walletAddress", err.Error())
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	s, ok := v.sessions[canonical]
	if !ok {
		s = &session{gate: NewTaskGate(v.taskIDs)}
		v.sessions[canonical] = s
	}
	return s, nil
}

// validateTaskInput applies per-kind structural validation. Returns nil
// when the input is well-formed enough to justify the remote check.
func validateTaskInput(id models.TaskID, input models.TaskInput) *apperrors.AppError {
	switch id {
	case models.TaskTwitterFollow, models.TaskTwitterLike:
		if !twitterUsernameRe.MatchString(input.TwitterUsername) {
			return apperrors.NewValidationError("twitterUsername", "must be a Twitter username of 1-15 letters, digits or underscores")
		}
	case models.TaskTwitterRetweet:
		if !isRetweetURL(input.RetweetURL) {
			return apperrors.NewValidationError("retweetUrl", "must be a twitter.com or x.com status URL")
		}
	case models.TaskTelegramJoin:
		if !telegramIDRe.MatchString(input.TelegramID) && !telegramNameRe.MatchString(input.TelegramID) {
			return apperrors.NewValidationError("telegramId", "must be a numeric Telegram ID or @username")
		}
	}
	return nil
}

func isRetweetURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	if host != "twitter.com" && host != "x.com" {
		return false
	}
	return statusPathRe.MatchString(u.Path)
}
