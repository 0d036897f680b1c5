package service

import (
	"sync"

	apperrors "airdrop-claim-backend/internal/common/errors"
	"airdrop-claim-backend/internal/features/verification/models"
)

// Transition describes the state change produced by a single MarkVerified
// call. Downstream reacts to the transition, not the level: each unlock
// and the final all-completed flip are emitted exactly once.
type Transition struct {
	CompletedTaskID models.TaskID
	UnlockedTaskID  models.TaskID
	AllCompleted    bool
}

// TaskGate is the ordered task state machine. Step n+1 unlocks only once
// step n is verified.
type TaskGate struct {
	mu    sync.Mutex
	order []models.TaskID
	tasks map[models.TaskID]*models.Task
}

// NewTaskGate initializes all tasks locked and incomplete except the
// first, which starts unlocked.
func NewTaskGate(order []models.TaskID) *TaskGate {
	g := &TaskGate{
		order: append([]models.TaskID(nil), order...),
		tasks: make(map[models.TaskID]*models.Task, len(order)),
	}
	for i, id := range g.order {
		g.tasks[id] = &models.Task{
			ID:     id,
			Locked: i != 0,
		}
	}
	return g
}

// MarkVerified applies a verification outcome to a task. A success
// completes the task, clears its last error and unlocks the next task; a
// failure records the message and leaves completion untouched. Calling it
// on a locked task is an ordering error and mutates nothing.
func (g *TaskGate) MarkVerified(id models.TaskID, outcome models.VerificationOutcome) (Transition, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	task, ok := g.tasks[id]
	if !ok {
		return Transition{}, apperrors.NewTaskNotFoundError(string(id))
	}
	if task.Locked {
		return Transition{}, apperrors.NewTaskLockedError(string(id))
	}

	if !outcome.Success {
		task.LastError = outcome.Message
		return Transition{}, nil
	}

	if task.Completed {
		// Re-verifying a completed task emits no duplicate transition.
		return Transition{}, nil
	}

	task.Completed = true
	task.LastError = ""

	transition := Transition{CompletedTaskID: id}
	if next, ok := g.next(id); ok {
		g.tasks[next].Locked = false
		transition.UnlockedTaskID = next
	}
	transition.AllCompleted = g.allCompletedLocked()

	return transition, nil
}

// AllCompleted reports whether every task is completed.
func (g *TaskGate) AllCompleted() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.allCompletedLocked()
}

// FirstIncomplete returns the first task in order that is not completed.
func (g *TaskGate) FirstIncomplete() (models.TaskID, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, id := range g.order {
		if !g.tasks[id].Completed {
			return id, true
		}
	}
	return "", false
}

// Task returns a snapshot of one task.
func (g *TaskGate) Task(id models.TaskID) (models.Task, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	task, ok := g.tasks[id]
	if !ok {
		return models.Task{}, false
	}
	return *task, true
}

// Tasks returns a snapshot of all tasks in declared order.
func (g *TaskGate) Tasks() []models.Task {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]models.Task, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, *g.tasks[id])
	}
	return out
}

func (g *TaskGate) allCompletedLocked() bool {
	for _, id := range g.order {
		if !g.tasks[id].Completed {
			return false
		}
	}
	return len(g.order) > 0
}

func (g *TaskGate) next(id models.TaskID) (models.TaskID, bool) {
	for i, cur := range g.order {
		if cur == id && i+1 < len(g.order) {
			return g.order[i+1], true
		}
	}
	return "", false
}
