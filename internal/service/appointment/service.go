package appointment

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fisiocare/booking-api/internal/model"
	"github.com/fisiocare/booking-api/internal/repository"
	apperrors "github.com/fisiocare/booking-api/pkg/errors"
	"github.com/fisiocare/booking-api/pkg/logger"
)

// Booking admission window. The window is evaluated against validation-time
// now; drift against persistence-time now is an accepted tolerance.
const (
	MinLeadTime      = 30 * time.Minute
	MaxAdvanceMonths = 3
)

// Notifier emits the advisory side records for appointment events. Every call
// site treats it as best-effort: a notifier failure is logged and never
// changes the outcome of the booking operation that triggered it.
type Notifier interface {
	NotifyAppointment(ctx context.Context, userID uuid.UUID, kind model.NotificationKind, scheduledAt time.Time, serviceType string) error
}

type Service struct {
	repo     repository.AppointmentRepository
	notifier Notifier
	logger   *logger.Logger
	now      func() time.Time
}

func NewService(repo repository.AppointmentRepository, notifier Notifier, logger *logger.Logger) *Service {
	return &Service{
		repo:     repo,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *Service) validateCreate(req *model.CreateAppointmentRequest) error {
	var fields []apperrors.FieldError

	if req.PatientID == uuid.Nil {
		fields = append(fields, apperrors.FieldError{
			Field:   "patient_id",
			Message: "patient id is required",
		})
	}
	if req.ServiceType == "" {
		fields = append(fields, apperrors.FieldError{
			Field:   "service_type",
			Message: "service type is required",
		})
	}

	if req.ScheduledAt.IsZero() {
		fields = append(fields, apperrors.FieldError{
			Field:   "scheduled_at",
			Message: "scheduled time is required",
		})
	} else {
		now := s.now().UTC()
		min := now.Add(MinLeadTime)
		max := now.AddDate(0, MaxAdvanceMonths, 0)
		at := req.ScheduledAt.UTC()
		if !at.After(min) || !at.Before(max) {
			fields = append(fields, apperrors.FieldError{
				Field:   "scheduled_at",
				Message: "appointment must be between 30 minutes from now and 3 months in the future",
			})
		}
	}

	if len(fields) > 0 {
		return apperrors.Validation("invalid appointment", fields...)
	}
	return nil
}

// Create admits a new booking. The status is always pending regardless of
// anything in the request, and the created notification is fire-and-forget.
func (s *Service) Create(ctx context.Context, req *model.CreateAppointmentRequest, actor model.Actor) (*model.Appointment, error) {
	if req.PatientID == uuid.Nil {
		req.PatientID = actor.UserID
	}
	if !actor.Role.Staff() && req.PatientID != actor.UserID {
		return nil, apperrors.Forbidden("patients may only book their own appointments")
	}

	if err := s.validateCreate(req); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	apt := &model.Appointment{
		ID:          uuid.New(),
		PatientID:   req.PatientID,
		ServiceType: req.ServiceType,
		ScheduledAt: req.ScheduledAt.UTC(),
		Status:      model.AppointmentStatusPending,
		Notes:       req.Notes,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(ctx, apt); err != nil {
		return nil, err
	}

	s.notify(ctx, apt, model.NotificationKindAppointmentCreated)
	return apt, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID, actor model.Actor) (*model.Appointment, error) {
	apt, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.Role.Staff() && apt.PatientID != actor.UserID {
		// Behave like a missing row to avoid leaking other patients' bookings.
		return nil, apperrors.NotFound("appointment")
	}
	return apt, nil
}

func (s *Service) ListForPatient(ctx context.Context, patientID uuid.UUID) ([]*model.Appointment, error) {
	if patientID == uuid.Nil {
		return nil, apperrors.Validation("invalid appointment query",
			apperrors.FieldError{Field: "patient_id", Message: "patient id is required"})
	}
	return s.repo.ListByPatient(ctx, patientID)
}

func (s *Service) ListAll(ctx context.Context) ([]*model.EnrichedAppointment, error) {
	return s.repo.ListAll(ctx)
}

// Transition moves an appointment to target. Repeating an already-applied
// transition is a no-op success, so retries are safe and emit no duplicate
// notification. The underlying update is conditional on the status read here;
// losing that race surfaces as a conflict, never a silent overwrite.
func (s *Service) Transition(ctx context.Context, id uuid.UUID, target model.AppointmentStatus, actor model.Actor) error {
	if id == uuid.Nil {
		return apperrors.Validation("invalid transition",
			apperrors.FieldError{Field: "id", Message: "appointment id is required"})
	}
	if !target.Valid() {
		return apperrors.Validation("invalid transition",
			apperrors.FieldError{Field: "status", Message: fmt.Sprintf("unknown status %q", target)})
	}

	apt, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}

	// Ownership is checked before any status inspection so a foreign row
	// leaks nothing, not even through the no-op and terminal answers. Same
	// masking as Get.
	if !actor.Role.Staff() && apt.PatientID != actor.UserID {
		return apperrors.NotFound("appointment")
	}

	if apt.Status == target {
		return nil
	}
	if IsTerminal(apt.Status) {
		return apperrors.InvalidTransition(fmt.Sprintf("appointment is %s and cannot change status", apt.Status))
	}
	if !CanTransition(apt.Status, target) {
		return apperrors.InvalidTransition(fmt.Sprintf("cannot move appointment from %s to %s", apt.Status, target))
	}

	if err := s.authorizeTransition(apt, target, actor); err != nil {
		return err
	}

	applied, err := s.applyStatus(ctx, apt, target)
	if err != nil {
		return err
	}
	if applied {
		s.notify(ctx, apt, model.NotificationKindAppointmentUpdated)
	}
	return nil
}

// Cancel is sugar for Transition to cancelled.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID, actor model.Actor) error {
	return s.Transition(ctx, id, model.AppointmentStatusCancelled, actor)
}

// Reopen moves a confirmed or cancelled appointment back to pending. It is a
// deliberate staff-only undo, separate from the generic transition so the
// terminal-state rule stays uniform for everyone else.
func (s *Service) Reopen(ctx context.Context, id uuid.UUID, actor model.Actor) error {
	if !actor.Role.Staff() {
		return apperrors.Forbidden("only staff may reopen appointments")
	}
	if id == uuid.Nil {
		return apperrors.Validation("invalid reopen",
			apperrors.FieldError{Field: "id", Message: "appointment id is required"})
	}

	apt, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}

	if apt.Status == model.AppointmentStatusPending {
		return nil
	}
	if !CanReopen(apt.Status) {
		return apperrors.InvalidTransition(fmt.Sprintf("a %s appointment cannot be reopened", apt.Status))
	}
	if !apt.ScheduledAt.After(s.now().UTC()) {
		return apperrors.InvalidTransition("only future appointments can be reopened")
	}

	applied, err := s.applyStatus(ctx, apt, model.AppointmentStatusPending)
	if err != nil {
		return err
	}
	if !applied {
		return nil
	}

	s.logger.Info("appointment reopened",
		"appointment_id", apt.ID.String(),
		"actor_id", actor.UserID.String(),
		"previous_status", string(apt.Status))

	s.notify(ctx, apt, model.NotificationKindAppointmentUpdated)
	return nil
}

// authorizeTransition is the defensive check behind the HTTP-layer role
// enforcement: patients may only cancel their own pending appointment.
// Ownership is already settled by the caller.
func (s *Service) authorizeTransition(apt *model.Appointment, target model.AppointmentStatus, actor model.Actor) error {
	if actor.Role.Staff() {
		return nil
	}
	if target != model.AppointmentStatusCancelled || apt.Status != model.AppointmentStatusPending {
		return apperrors.Forbidden("patients may only cancel their own pending appointments")
	}
	return nil
}

// applyStatus runs the compare-and-swap update and resolves a guard miss by
// re-reading: a concurrent identical transition is a no-op success (applied
// false, so no duplicate notification), anything else is a conflict for the
// caller to retry against fresh state.
func (s *Service) applyStatus(ctx context.Context, apt *model.Appointment, target model.AppointmentStatus) (bool, error) {
	ok, err := s.repo.UpdateStatus(ctx, apt.ID, apt.Status, target, s.now().UTC())
	if err != nil {
		return false, err
	}
	if ok {
		return true, nil
	}

	current, err := s.repo.Get(ctx, apt.ID)
	if err != nil {
		return false, err
	}
	if current.Status == target {
		return false, nil
	}
	return false, apperrors.Conflict(fmt.Sprintf("appointment status changed concurrently to %s", current.Status))
}

func (s *Service) notify(ctx context.Context, apt *model.Appointment, kind model.NotificationKind) {
	if err := s.notifier.NotifyAppointment(ctx, apt.PatientID, kind, apt.ScheduledAt, apt.ServiceType); err != nil {
		s.logger.Error(err, "failed to emit appointment notification",
			"appointment_id", apt.ID.String(),
			"kind", string(kind))
	}
}
