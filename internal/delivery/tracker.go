// Package delivery maps persisted delivery statuses to the progress model
// shown on the order tracking page.
package delivery

import (
	"errors"
	"fmt"

	"checkout-service/internal/models"
)

var ErrIllegalTransition = errors.New("illegal delivery status transition")

// StepState is how a single progress step is rendered.
type StepState string

const (
	StepCompleted StepState = "completed"
	StepUpcoming  StepState = "upcoming"
	StepCancelled StepState = "cancelled"
)

// Steps is the total order of the active statuses.
var Steps = []models.DeliveryStatus{
	models.StatusPending,
	models.StatusProcessing,
	models.StatusShipped,
	models.StatusInTransit,
	models.StatusDelivered,
}

type presentation struct {
	label    string
	progress int
	rank     int
}

var presentations = map[models.DeliveryStatus]presentation{
	models.StatusPending:    {label: "Pending", progress: 10, rank: 0},
	models.StatusProcessing: {label: "Processing", progress: 25, rank: 1},
	models.StatusShipped:    {label: "Shipped", progress: 50, rank: 2},
	models.StatusInTransit:  {label: "In Transit", progress: 75, rank: 3},
	models.StatusDelivered:  {label: "Delivered", progress: 100, rank: 4},
	models.StatusCancelled:  {label: "Cancelled", progress: 0, rank: -1},
}

type Step struct {
	Status models.DeliveryStatus `json:"status"`
	Label  string                `json:"label"`
	State  StepState             `json:"state"`
}

type Tracking struct {
	OrderID  string                `json:"orderId,omitempty"`
	Status   models.DeliveryStatus `json:"status"`
	Label    string                `json:"label"`
	Progress int                   `json:"progress"`
	Steps    []Step                `json:"steps"`
}

// Known reports whether the status is one of the six defined values.
func Known(status models.DeliveryStatus) bool {
	_, ok := presentations[status]
	return ok
}

// Track derives the tracking view. Unrecognised statuses render as pending.
func Track(status models.DeliveryStatus) Tracking {
	if !Known(status) {
		status = models.StatusPending
	}
	current := presentations[status]

	steps := make([]Step, 0, len(Steps))
	for _, s := range Steps {
		p := presentations[s]
		state := StepUpcoming
		switch {
		case status == models.StatusCancelled:
			state = StepCancelled
		case p.rank <= current.rank:
			state = StepCompleted
		}
		steps = append(steps, Step{Status: s, Label: p.label, State: state})
	}

	return Tracking{
		Status:   status,
		Label:    current.label,
		Progress: current.progress,
		Steps:    steps,
	}
}

// CanTransition validates an administrative status change. Delivered and
// cancelled are terminal; cancelled is reachable from any other status.
func CanTransition(from, to models.DeliveryStatus) error {
	if !Known(to) {
		return fmt.Errorf("%w: unknown status %q", ErrIllegalTransition, to)
	}
	if from == to {
		return fmt.Errorf("%w: already %s", ErrIllegalTransition, to)
	}
	if from == models.StatusDelivered || from == models.StatusCancelled {
		return fmt.Errorf("%w: %s is terminal", ErrIllegalTransition, from)
	}
	return nil
}
