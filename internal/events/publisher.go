package events

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"skill-marketplace/internal/booking"
	"skill-marketplace/internal/model"
)

const (
	SubjectSessionCreated   = "session.created"
	SubjectSessionCanceled  = "session.canceled"
	SubjectSessionCompleted = "session.completed"
	SubjectBookingRequested = "booking.requested"
	SubjectBookingAccepted  = "booking.accepted"
	SubjectBookingDeclined  = "booking.declined"
	SubjectBookingCanceled  = "booking.canceled"
	SubjectRatingCreated    = "rating.created"
)

type EventPublisher interface {
	PublishSessionCreated(session *model.Session) error
	PublishSessionClosed(session *model.Session, outcome booking.SessionOutcome) error
	PublishBookingRequested(b *model.Booking) error
	PublishBookingTransition(t booking.Transition) error
	PublishRatingCreated(r *model.Rating) error
}

type NatsPublisher struct {
	nc   *nats.Conn
	conn msgPublisher
}

func NewNatsPublisher(natsURL string) (*NatsPublisher, error) {
	nc, err := nats.Connect(natsURL)

	if err != nil {
		return nil, err
	}

	return &NatsPublisher{nc: nc, conn: nc}, nil
}

func (p *NatsPublisher) Close() {
	if p.nc != nil {
		p.nc.Close()
	}
}

type SessionEvent struct {
	EventType    string              `json:"event_type"`
	SessionID    uuid.UUID           `json:"session_id"`
	InstructorID uuid.UUID           `json:"instructor_id"`
	Title        string              `json:"title"`
	StartAt      time.Time           `json:"start_at"`
	Status       model.SessionStatus `json:"status"`
	OccurredAt   time.Time           `json:"occurred_at"`
}

type BookingEvent struct {
	EventType  string              `json:"event_type"`
	BookingID  uuid.UUID           `json:"booking_id"`
	SessionID  uuid.UUID           `json:"session_id"`
	LearnerID  uuid.UUID           `json:"learner_id"`
	From       model.BookingStatus `json:"from,omitempty"`
	To         model.BookingStatus `json:"to"`
	OccurredAt time.Time           `json:"occurred_at"`
}

type RatingEvent struct {
	EventType  string    `json:"event_type"`
	RatingID   uuid.UUID `json:"rating_id"`
	SessionID  uuid.UUID `json:"session_id"`
	LearnerID  uuid.UUID `json:"learner_id"`
	Rating     int       `json:"rating"`
	OccurredAt time.Time `json:"occurred_at"`
}

// BookingSubject maps a booking's new status to the subject announcing it.
func BookingSubject(to model.BookingStatus) (string, error) {
	switch to {
	case model.BookingPending:
		return SubjectBookingRequested, nil
	case model.BookingAccepted:
		return SubjectBookingAccepted, nil
	case model.BookingDeclined:
		return SubjectBookingDeclined, nil
	case model.BookingCanceled:
		return SubjectBookingCanceled, nil
	}
	return "", fmt.Errorf("no subject for booking status %q", to)
}

func NewBookingEvent(t booking.Transition, now time.Time) (string, BookingEvent, error) {
	subject, err := BookingSubject(t.To)
	if err != nil {
		return "", BookingEvent{}, err
	}
	return subject, BookingEvent{
		EventType:  subject,
		BookingID:  t.BookingID,
		SessionID:  t.SessionID,
		LearnerID:  t.LearnerID,
		From:       t.From,
		To:         t.To,
		OccurredAt: now,
	}, nil
}

func (p *NatsPublisher) PublishSessionCreated(session *model.Session) error {
	return p.publish(SubjectSessionCreated, sessionEvent(SubjectSessionCreated, session))
}

// PublishSessionClosed announces a session cancel or completion followed by
// one booking event per booking the change forced. A failed event does not
// stop the rest; all failures are joined into the returned error.
func (p *NatsPublisher) PublishSessionClosed(session *model.Session, outcome booking.SessionOutcome) error {
	subject := SubjectSessionCompleted
	if outcome.To == model.SessionCanceled {
		subject = SubjectSessionCanceled
	}

	ev := sessionEvent(subject, session)
	ev.Status = outcome.To

	var errs []error
	if err := p.publish(subject, ev); err != nil {
		errs = append(errs, err)
	}

	for _, t := range outcome.Transitions {
		if err := p.PublishBookingTransition(t); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (p *NatsPublisher) PublishBookingRequested(b *model.Booking) error {
	return p.publish(SubjectBookingRequested, BookingEvent{
		EventType:  SubjectBookingRequested,
		BookingID:  b.ID,
		SessionID:  b.SessionID,
		LearnerID:  b.LearnerID,
		To:         b.Status,
		OccurredAt: time.Now().UTC(),
	})
}

func (p *NatsPublisher) PublishBookingTransition(t booking.Transition) error {
	subject, ev, err := NewBookingEvent(t, time.Now().UTC())
	if err != nil {
		return err
	}
	return p.publish(subject, ev)
}

func (p *NatsPublisher) PublishRatingCreated(r *model.Rating) error {
	return p.publish(SubjectRatingCreated, RatingEvent{
		EventType:  SubjectRatingCreated,
		RatingID:   r.ID,
		SessionID:  r.SessionID,
		LearnerID:  r.LearnerID,
		Rating:     r.Rating,
		OccurredAt: time.Now().UTC(),
	})
}

func (p *NatsPublisher) publish(subject string, event any) error {
	eventJSON, err := json.Marshal(event)

	if err != nil {
		slog.Error("Error marshalling event JSON", "subject", subject, "error", err)
		return err
	}

	if err := p.conn.Publish(subject, eventJSON); err != nil {
		slog.Error("Error publishing to NATS", "subject", subject, "error", err)
		return err
	}

	slog.Debug("Published event to NATS", "subject", subject)

	return nil
}

func sessionEvent(subject string, s *model.Session) SessionEvent {
	return SessionEvent{
		EventType:    subject,
		SessionID:    s.ID,
		InstructorID: s.InstructorID,
		Title:        s.Title,
		StartAt:      s.StartAt,
		Status:       s.Status,
		OccurredAt:   time.Now().UTC(),
	}
}
