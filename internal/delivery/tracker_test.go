package delivery

import (
	"testing"

	"checkout-service/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestTrack_ProgressIsStrictlyIncreasing(t *testing.T) {
	want := []int{10, 25, 50, 75, 100}
	prev := -1
	for i, status := range Steps {
		progress := Track(status).Progress
		assert.Equal(t, want[i], progress, status)
		assert.Greater(t, progress, prev)
		prev = progress
	}
}

func TestTrack_StepCompletion(t *testing.T) {
	tr := Track(models.StatusShipped)

	assert.Equal(t, "Shipped", tr.Label)
	states := make([]StepState, 0, len(tr.Steps))
	for _, s := range tr.Steps {
		states = append(states, s.State)
	}
	assert.Equal(t, []StepState{StepCompleted, StepCompleted, StepCompleted, StepUpcoming, StepUpcoming}, states)
}

func TestTrack_Cancelled(t *testing.T) {
	tr := Track(models.StatusCancelled)

	assert.Equal(t, 0, tr.Progress)
	assert.Equal(t, "Cancelled", tr.Label)
	for _, s := range tr.Steps {
		assert.Equal(t, StepCancelled, s.State)
	}
}

func TestTrack_UnknownFallsBackToPending(t *testing.T) {
	tr := Track("lost_in_space")

	assert.Equal(t, models.StatusPending, tr.Status)
	assert.Equal(t, 10, tr.Progress)
	assert.Equal(t, StepCompleted, tr.Steps[0].State)
	assert.Equal(t, StepUpcoming, tr.Steps[1].State)
}

func TestCanTransition(t *testing.T) {
	assert.NoError(t, CanTransition(models.StatusPending, models.StatusShipped))
	assert.NoError(t, CanTransition(models.StatusInTransit, models.StatusCancelled))
	assert.NoError(t, CanTransition(models.StatusShipped, models.StatusProcessing))

	assert.ErrorIs(t, CanTransition(models.StatusDelivered, models.StatusCancelled), ErrIllegalTransition)
	assert.ErrorIs(t, CanTransition(models.StatusCancelled, models.StatusPending), ErrIllegalTransition)
	assert.ErrorIs(t, CanTransition(models.StatusPending, "returned"), ErrIllegalTransition)
	assert.ErrorIs(t, CanTransition(models.StatusPending, models.StatusPending), ErrIllegalTransition)
}
