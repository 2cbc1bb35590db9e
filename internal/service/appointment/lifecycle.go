package appointment

import (
	"github.com/fisiocare/booking-api/internal/model"
)

// The status lifecycle:
//
//	pending   -> confirmed | cancelled
//	confirmed -> completed | cancelled
//
// cancelled and completed are terminal for the generic transition. Reopening
// a confirmed or cancelled booking is a separate staff-only operation, never
// part of this table.
var legalTransitions = map[model.AppointmentStatus][]model.AppointmentStatus{
	model.AppointmentStatusPending: {
		model.AppointmentStatusConfirmed,
		model.AppointmentStatusCancelled,
	},
	model.AppointmentStatusConfirmed: {
		model.AppointmentStatusCompleted,
		model.AppointmentStatusCancelled,
	},
}

// IsTerminal reports whether no generic transition may leave status.
func IsTerminal(status model.AppointmentStatus) bool {
	return status == model.AppointmentStatusCancelled || status == model.AppointmentStatusCompleted
}

// CanTransition reports whether the generic transition from -> to is legal.
// Identical statuses are not a transition; callers treat them as a no-op
// before consulting this table.
func CanTransition(from, to model.AppointmentStatus) bool {
	for _, allowed := range legalTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// CanReopen reports whether the staff-only reopen operation may move status
// back to pending. Completed appointments stay completed.
func CanReopen(status model.AppointmentStatus) bool {
	return status == model.AppointmentStatusConfirmed || status == model.AppointmentStatusCancelled
}
