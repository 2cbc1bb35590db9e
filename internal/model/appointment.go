package model

import (
	"time"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	AppointmentStatusPending   AppointmentStatus = "pending"
	AppointmentStatusConfirmed AppointmentStatus = "confirmed"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
	AppointmentStatusCompleted AppointmentStatus = "completed"
)

// Valid reports whether s is one of the four known statuses.
func (s AppointmentStatus) Valid() bool {
	switch s {
	case AppointmentStatusPending, AppointmentStatusConfirmed,
		AppointmentStatusCancelled, AppointmentStatusCompleted:
		return true
	}
	return false
}

// Service types offered by the clinic. The booking form constrains input to
// these; the service itself only requires a non-empty value.
const (
	ServiceTypePhysicalTherapy = "Physical Therapy"
	ServiceTypeSportsMedicine  = "Sports Medicine"
	ServiceTypeRehabilitation  = "Rehabilitation"
)

func ServiceTypes() []string {
	return []string{
		ServiceTypePhysicalTherapy,
		ServiceTypeSportsMedicine,
		ServiceTypeRehabilitation,
	}
}

type Appointment struct {
	ID          uuid.UUID         `db:"id" json:"id"`
	PatientID   uuid.UUID         `db:"patient_id" json:"patient_id"`
	ServiceType string            `db:"service_type" json:"service_type"`
	ScheduledAt time.Time         `db:"scheduled_at" json:"scheduled_at"`
	Status      AppointmentStatus `db:"status" json:"status"`
	Notes       *string           `db:"notes" json:"notes,omitempty"`
	CreatedAt   time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time         `db:"updated_at" json:"updated_at"`
}

// EnrichedAppointment is the staff-facing read model: an appointment joined
// with the owning patient's profile display fields. Rows without a matching
// profile carry the "Unknown"/"No email" sentinels instead of failing the read.
type EnrichedAppointment struct {
	Appointment
	PatientName   string  `db:"patient_name" json:"patient_name"`
	PatientEmail  string  `db:"patient_email" json:"patient_email"`
	PatientSex    *string `db:"patient_sex" json:"patient_sex,omitempty"`
	PatientAge    *int    `db:"patient_age" json:"patient_age,omitempty"`
	PatientPhone  *string `db:"patient_phone" json:"patient_phone,omitempty"`
	ClinicalNotes *string `db:"clinical_notes" json:"clinical_notes,omitempty"`
}

type CreateAppointmentRequest struct {
	PatientID   uuid.UUID `json:"patient_id"`
	ServiceType string    `json:"service_type" binding:"required"`
	ScheduledAt time.Time `json:"scheduled_at" binding:"required"`
	Notes       *string   `json:"notes"`
}

type TransitionAppointmentRequest struct {
	Status AppointmentStatus `json:"status" binding:"required"`
}
