package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"skill-marketplace/internal/model"
	"skill-marketplace/internal/repository"
)

const (
	auditSubject    = "booking.*"
	AuditDLQSubject = "booking.audit.failed"
)

type msgPublisher interface {
	Publish(subject string, data []byte) error
}

// AuditSubscriber records every booking event in the booking_events trail.
// Events that still fail after all retries go to the DLQ subject.
type AuditSubscriber struct {
	natsConn   *nats.Conn
	sub        *nats.Subscription
	dlq        msgPublisher
	auditRepo  repository.AuditRepository
	maxRetries int
	retryDelay time.Duration
}

func NewAuditSubscriber(natsURL string, auditRepo repository.AuditRepository, maxRetries int, retryDelay time.Duration) (*AuditSubscriber, error) {
	nc, err := nats.Connect(natsURL)
	if err != nil {
		return nil, err
	}
	slog.Info("Audit subscriber connected to NATS")

	subscriber := newAuditSubscriber(nc, auditRepo, maxRetries, retryDelay)
	subscriber.natsConn = nc

	sub, err := nc.Subscribe(auditSubject, func(msg *nats.Msg) {
		subscriber.handle(context.Background(), msg.Data)
	})
	if err != nil {
		nc.Close()
		return nil, err
	}
	subscriber.sub = sub
	slog.Info("Audit subscriber listening", "subject", auditSubject)

	return subscriber, nil
}

func newAuditSubscriber(dlq msgPublisher, auditRepo repository.AuditRepository, maxRetries int, retryDelay time.Duration) *AuditSubscriber {
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &AuditSubscriber{
		dlq:        dlq,
		auditRepo:  auditRepo,
		maxRetries: maxRetries,
		retryDelay: retryDelay,
	}
}

func (s *AuditSubscriber) Close() {
	if s.sub != nil {
		_ = s.sub.Unsubscribe()
	}
	if s.natsConn != nil {
		s.natsConn.Close()
	}
}

func (s *AuditSubscriber) handle(ctx context.Context, data []byte) {
	var event BookingEvent
	if err := json.Unmarshal(data, &event); err != nil {
		slog.Error("Failed to unmarshal booking event", "error", err)
		return
	}

	record := &model.BookingEvent{
		BookingID:  event.BookingID,
		SessionID:  event.SessionID,
		LearnerID:  event.LearnerID,
		EventType:  event.EventType,
		OccurredAt: event.OccurredAt,
	}

	var saveErr error
	for attempt := 1; attempt <= s.maxRetries; attempt++ {
		saveErr = s.auditRepo.SaveEvent(ctx, record)
		if saveErr == nil {
			return
		}

		slog.Warn("Failed saving booking event",
			"attempt", attempt, "booking_id", event.BookingID, "error", saveErr)
		if attempt < s.maxRetries {
			time.Sleep(s.retryDelay)
		}
	}

	slog.Error("Giving up on booking event",
		"attempts", s.maxRetries, "booking_id", event.BookingID, "event_type", event.EventType, "error", saveErr)

	if err := s.dlq.Publish(AuditDLQSubject, data); err != nil {
		slog.Error("Failed to publish to DLQ", "subject", AuditDLQSubject, "error", err)
	}
}
