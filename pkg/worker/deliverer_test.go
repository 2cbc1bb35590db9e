package worker

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fisiocare/booking-api/internal/model"
	apperrors "github.com/fisiocare/booking-api/pkg/errors"
	"github.com/fisiocare/booking-api/pkg/logger"
	"github.com/fisiocare/booking-api/pkg/metrics"
	"github.com/fisiocare/booking-api/pkg/telegram"
)

var (
	testMetrics     *metrics.Metrics
	testMetricsOnce sync.Once
)

func sharedMetrics() *metrics.Metrics {
	testMetricsOnce.Do(func() {
		testMetrics = metrics.NewMetrics("deliverer_test")
	})
	return testMetrics
}

type fakeOutbox struct {
	pending   []*model.OutboxEvent
	processed []uuid.UUID
	failed    []uuid.UUID
	retryAts  []*time.Time
}

func (f *fakeOutbox) Create(_ context.Context, e *model.OutboxEvent) error {
	f.pending = append(f.pending, e)
	return nil
}

func (f *fakeOutbox) GetPendingWithLock(_ context.Context, limit int) ([]*model.OutboxEvent, error) {
	if len(f.pending) > limit {
		return f.pending[:limit], nil
	}
	return f.pending, nil
}

func (f *fakeOutbox) MarkProcessed(_ context.Context, id uuid.UUID) error {
	f.processed = append(f.processed, id)
	return nil
}

func (f *fakeOutbox) MarkFailed(_ context.Context, id uuid.UUID, _ string, _ int, retryAt *time.Time) error {
	f.failed = append(f.failed, id)
	f.retryAts = append(f.retryAts, retryAt)
	return nil
}

func (f *fakeOutbox) DeleteProcessedBefore(context.Context, time.Time) (int64, error) {
	return 0, nil
}

type fakeNotifications struct {
	delivered []uuid.UUID
}

func (f *fakeNotifications) Create(context.Context, *model.Notification) error { return nil }

func (f *fakeNotifications) ListByUser(context.Context, uuid.UUID) ([]*model.Notification, error) {
	return nil, nil
}

func (f *fakeNotifications) MarkAsRead(context.Context, uuid.UUID, uuid.UUID) (bool, error) {
	return false, nil
}

func (f *fakeNotifications) MarkExternallyDelivered(_ context.Context, id uuid.UUID) error {
	f.delivered = append(f.delivered, id)
	return nil
}

type fakeProfiles struct{}

func (fakeProfiles) Get(context.Context, uuid.UUID) (*model.PatientProfile, error) {
	return nil, apperrors.NotFound("patient profile")
}

func testLogger() *logger.Logger {
	return logger.NewLogger(&logger.Config{Level: logger.ErrorLevel, Output: io.Discard})
}

func deliveryEvent(t *testing.T) (*model.OutboxEvent, uuid.UUID) {
	t.Helper()
	notificationID := uuid.New()
	payload, err := json.Marshal(model.NotificationCreatedPayload{
		NotificationID: notificationID,
		UserID:         uuid.New(),
		Kind:           model.NotificationKindAppointmentCreated,
		Title:          "New Appointment Scheduled",
		Message:        "A new Physical Therapy appointment has been scheduled",
	})
	require.NoError(t, err)
	return &model.OutboxEvent{
		ID:        uuid.New(),
		EventType: model.EventTypeNotificationCreated,
		Payload:   payload,
		Status:    model.OutboxStatusPending,
	}, notificationID
}

func TestProcessBatchDeliversAndMarksProcessed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	outbox := &fakeOutbox{}
	notifications := &fakeNotifications{}
	event, notificationID := deliveryEvent(t)
	outbox.pending = []*model.OutboxEvent{event}

	d := NewDeliverer(Config{}, outbox, notifications, fakeProfiles{},
		telegram.NewClient(telegram.Config{BotToken: "t", ChatID: "1", BaseURL: srv.URL}),
		nil, nil, testLogger(), sharedMetrics())

	require.NoError(t, d.processBatch(context.Background()))

	assert.Equal(t, []uuid.UUID{event.ID}, outbox.processed)
	assert.Equal(t, []uuid.UUID{notificationID}, notifications.delivered)
	assert.Empty(t, outbox.failed)
}

func TestProcessBatchFailedChannelSchedulesRetry(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	outbox := &fakeOutbox{}
	notifications := &fakeNotifications{}
	event, _ := deliveryEvent(t)
	outbox.pending = []*model.OutboxEvent{event}

	d := NewDeliverer(Config{MaxRetries: 3}, outbox, notifications, fakeProfiles{},
		telegram.NewClient(telegram.Config{BotToken: "t", ChatID: "1", BaseURL: srv.URL}),
		nil, nil, testLogger(), sharedMetrics())

	require.NoError(t, d.processBatch(context.Background()))

	assert.Empty(t, outbox.processed)
	assert.Empty(t, notifications.delivered)
	require.Equal(t, []uuid.UUID{event.ID}, outbox.failed)
	require.Len(t, outbox.retryAts, 1)
	assert.NotNil(t, outbox.retryAts[0], "first failure must schedule a retry")
}

func TestProcessBatchExhaustedRetriesAreParked(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	outbox := &fakeOutbox{}
	event, _ := deliveryEvent(t)
	event.RetryCount = 2
	outbox.pending = []*model.OutboxEvent{event}

	d := NewDeliverer(Config{MaxRetries: 3}, outbox, &fakeNotifications{}, fakeProfiles{},
		telegram.NewClient(telegram.Config{BotToken: "t", ChatID: "1", BaseURL: srv.URL}),
		nil, nil, testLogger(), sharedMetrics())

	require.NoError(t, d.processBatch(context.Background()))

	require.Len(t, outbox.retryAts, 1)
	assert.Nil(t, outbox.retryAts[0], "exhausted events stay parked without a retry")
}

func TestProcessBatchUnconfiguredChannelsStillProcesses(t *testing.T) {
	outbox := &fakeOutbox{}
	notifications := &fakeNotifications{}
	event, _ := deliveryEvent(t)
	outbox.pending = []*model.OutboxEvent{event}

	d := NewDeliverer(Config{}, outbox, notifications, fakeProfiles{},
		telegram.NewClient(telegram.Config{}), nil, nil, testLogger(), sharedMetrics())

	require.NoError(t, d.processBatch(context.Background()))

	assert.Equal(t, []uuid.UUID{event.ID}, outbox.processed)
	assert.Empty(t, notifications.delivered, "nothing confirmed delivery")
}
