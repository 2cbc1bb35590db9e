package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/fisiocare/booking-api/internal/model"
	apperrors "github.com/fisiocare/booking-api/pkg/errors"
)

func (r *patientProfileRepository) Get(ctx context.Context, id uuid.UUID) (*model.PatientProfile, error) {
	query := `
		SELECT id, full_name, email, sex, age, phone, clinical_notes, created_at
		FROM patient_profiles
		WHERE id = $1
	`
	var profile model.PatientProfile
	err := r.db.GetContext(ctx, &profile, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("patient profile")
	}
	if err != nil {
		return nil, apperrors.Persistence("failed to get patient profile", err)
	}
	return &profile, nil
}
