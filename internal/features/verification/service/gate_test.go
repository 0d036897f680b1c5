package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "airdrop-claim-backend/internal/common/errors"
	"airdrop-claim-backend/internal/features/verification/models"
)

var testOrder = []models.TaskID{
	models.TaskTwitterFollow,
	models.TaskTwitterRetweet,
	models.TaskTwitterLike,
	models.TaskTelegramJoin,
}

func successOutcome() models.VerificationOutcome {
	return models.VerificationOutcome{Success: true, Message: "ok"}
}

func TestNewTaskGate_OnlyFirstUnlocked(t *testing.T) {
	gate := NewTaskGate(testOrder)

	tasks := gate.Tasks()
	require.Len(t, tasks, len(testOrder))
	for i, task := range tasks {
		assert.False(t, task.Completed)
		assert.Equal(t, i != 0, task.Locked, "task %s", task.ID)
	}
}

func TestTaskGate_OrderingEnforcedForEveryTask(t *testing.T) {
	for k := 1; k < len(testOrder); k++ {
		gate := NewTaskGate(testOrder)

		// Complete everything before k-1 so that task k is the first
		// locked task.
		for i := 0; i < k-1; i++ {
			_, err := gate.MarkVerified(testOrder[i], successOutcome())
			require.NoError(t, err)
		}

		_, err := gate.MarkVerified(testOrder[k], successOutcome())
		require.Error(t, err, "task %s must be locked", testOrder[k])
		appErr, ok := apperrors.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, apperrors.ErrCodeTaskLocked, appErr.Code)

		// The rejected call must not have mutated anything.
		task, found := gate.Task(testOrder[k])
		require.True(t, found)
		assert.True(t, task.Locked)
		assert.False(t, task.Completed)
	}
}

func TestTaskGate_SuccessUnlocksNext(t *testing.T) {
	gate := NewTaskGate(testOrder)

	transition, err := gate.MarkVerified(testOrder[0], successOutcome())
	require.NoError(t, err)
	assert.Equal(t, testOrder[0], transition.CompletedTaskID)
	assert.Equal(t, testOrder[1], transition.UnlockedTaskID)
	assert.False(t, transition.AllCompleted)

	next, found := gate.Task(testOrder[1])
	require.True(t, found)
	assert.False(t, next.Locked)
}

func TestTaskGate_FailureRecordsLastError(t *testing.T) {
	gate := NewTaskGate(testOrder)

	transition, err := gate.MarkVerified(testOrder[0], models.VerificationOutcome{
		Success: false,
		Message: "could not confirm follow",
	})
	require.NoError(t, err)
	assert.Zero(t, transition)

	task, found := gate.Task(testOrder[0])
	require.True(t, found)
	assert.False(t, task.Completed)
	assert.Equal(t, "could not confirm follow", task.LastError)

	// The next task stays locked after a failure.
	next, _ := gate.Task(testOrder[1])
	assert.True(t, next.Locked)
}

func TestTaskGate_AllCompletedTransitionEmittedOnce(t *testing.T) {
	gate := NewTaskGate(testOrder)

	for i, id := range testOrder {
		transition, err := gate.MarkVerified(id, successOutcome())
		require.NoError(t, err)
		assert.Equal(t, i == len(testOrder)-1, transition.AllCompleted, "task %s", id)
	}
	assert.True(t, gate.AllCompleted())

	// Re-verifying a completed task emits no duplicate transition.
	transition, err := gate.MarkVerified(testOrder[len(testOrder)-1], successOutcome())
	require.NoError(t, err)
	assert.Zero(t, transition)
}

func TestTaskGate_CompletedTaskNeverRelocked(t *testing.T) {
	gate := NewTaskGate(testOrder)

	_, err := gate.MarkVerified(testOrder[0], successOutcome())
	require.NoError(t, err)

	_, err = gate.MarkVerified(testOrder[0], models.VerificationOutcome{Success: false, Message: "flaky recheck"})
	require.NoError(t, err)

	task, _ := gate.Task(testOrder[0])
	assert.True(t, task.Completed)
	assert.False(t, task.Locked)
}

func TestTaskGate_UnknownTask(t *testing.T) {
	gate := NewTaskGate(testOrder)

	_, err := gate.MarkVerified("does-not-exist", successOutcome())
	require.Error(t, err)
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrCodeTaskNotFound, appErr.Code)
}

func TestTaskGate_FirstIncomplete(t *testing.T) {
	gate := NewTaskGate(testOrder)

	id, incomplete := gate.FirstIncomplete()
	require.True(t, incomplete)
	assert.Equal(t, testOrder[0], id)

	_, err := gate.MarkVerified(testOrder[0], successOutcome())
	require.NoError(t, err)

	id, incomplete = gate.FirstIncomplete()
	require.True(t, incomplete)
	assert.Equal(t, testOrder[1], id)
}
