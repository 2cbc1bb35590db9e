package model

import (
	"time"

	"github.com/google/uuid"
)

// PatientProfile is owned by the identity collaborator; this service only
// reads it, to enrich staff listings and to address external deliveries.
type PatientProfile struct {
	ID            uuid.UUID `db:"id" json:"id"`
	FullName      string    `db:"full_name" json:"full_name"`
	Email         string    `db:"email" json:"email"`
	Sex           *string   `db:"sex" json:"sex,omitempty"`
	Age           *int      `db:"age" json:"age,omitempty"`
	Phone         *string   `db:"phone" json:"phone,omitempty"`
	ClinicalNotes *string   `db:"clinical_notes" json:"clinical_notes,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}
