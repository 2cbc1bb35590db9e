package model

import (
	"time"

	"github.com/google/uuid"
)

type NotificationKind string

const (
	NotificationKindAppointmentCreated  NotificationKind = "appointment_created"
	NotificationKindAppointmentUpdated  NotificationKind = "appointment_updated"
	NotificationKindAppointmentReminder NotificationKind = "appointment_reminder"
)

func (k NotificationKind) Valid() bool {
	switch k {
	case NotificationKindAppointmentCreated,
		NotificationKindAppointmentUpdated,
		NotificationKindAppointmentReminder:
		return true
	}
	return false
}

// Notification is an advisory side record of an appointment event. Read flips
// only on explicit patient acknowledgment; ExternallyDelivered flips only
// after the external channel confirms delivery.
type Notification struct {
	ID                  uuid.UUID        `db:"id" json:"id"`
	UserID              uuid.UUID        `db:"user_id" json:"user_id"`
	Title               string           `db:"title" json:"title"`
	Message             string           `db:"message" json:"message"`
	Kind                NotificationKind `db:"kind" json:"kind"`
	Read                bool             `db:"read" json:"read"`
	ExternallyDelivered bool             `db:"externally_delivered" json:"externally_delivered"`
	CreatedAt           time.Time        `db:"created_at" json:"created_at"`
}
