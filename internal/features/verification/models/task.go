package models

// TaskID enumerates the gated claim qualification steps, in their declared
// order.
type TaskID string

const (
	TaskTwitterFollow  TaskID = "twitter-follow"
	TaskTwitterRetweet TaskID = "twitter-retweet"
	TaskTwitterLike    TaskID = "twitter-like"
	TaskTelegramJoin   TaskID = "telegram-join"
)

// TaskIDs returns the ordered task list shaped by the feature toggles.
func TaskIDs(requireTwitter, requireTelegram bool) []TaskID {
	var ids []TaskID
	if requireTwitter {
		ids = append(ids, TaskTwitterFollow, TaskTwitterRetweet, TaskTwitterLike)
	}
	if requireTelegram {
		ids = append(ids, TaskTelegramJoin)
	}
	return ids
}

// Task is one gated step. Exactly the first task starts unlocked; task i
// unlocks when task i-1 completes. Once completed a task is never
// re-locked within a session.
type Task struct {
	ID        TaskID `json:"id"`
	Completed bool   `json:"completed"`
	Locked    bool   `json:"locked"`
	LastError string `json:"last_error,omitempty"`
}

// VerificationOutcome is the result of a single task check: a
// boolean-like success plus a human-readable message.
type VerificationOutcome struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// TaskInput carries the task-specific fields submitted for verification.
type TaskInput struct {
	TwitterUsername string `json:"twitterUsername,omitempty"`
	RetweetURL      string `json:"retweetUrl,omitempty"`
	TelegramID      string `json:"telegramId,omitempty"`
}

// AggregateOutcome is the result of the holistic all-tasks verification.
// FailingTaskID is set when a specific task blocked the check.
type AggregateOutcome struct {
	Success       bool   `json:"success"`
	FailingTaskID TaskID `json:"failing_task_id,omitempty"`
	Message       string `json:"message"`
}
