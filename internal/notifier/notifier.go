// Package notifier pushes booking status changes to learners' devices.
package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/sideshow/apns2"
	"github.com/sideshow/apns2/payload"
	"github.com/sideshow/apns2/token"

	"skill-marketplace/internal/config"
	"skill-marketplace/internal/events"
	"skill-marketplace/internal/model"
)

var subjects = []string{
	events.SubjectBookingAccepted,
	events.SubjectBookingDeclined,
	events.SubjectBookingCanceled,
}

// Pusher is satisfied by *apns2.Client.
type Pusher interface {
	Push(n *apns2.Notification) (*apns2.Response, error)
}

type DeviceTokenSource interface {
	GetDeviceTokens(ctx context.Context, userID uuid.UUID) ([]string, error)
}

type PushPreferences interface {
	PushEnabled(ctx context.Context, userID uuid.UUID) (bool, error)
}

type settingsGetter interface {
	Get(ctx context.Context, userID uuid.UUID) (*model.UserSettings, error)
}

// SettingsPreferences reads push_notifications from stored user settings.
// Users who never saved settings get the defaults.
type SettingsPreferences struct {
	settings settingsGetter
}

func NewSettingsPreferences(settings settingsGetter) *SettingsPreferences {
	return &SettingsPreferences{settings: settings}
}

func (p *SettingsPreferences) PushEnabled(ctx context.Context, userID uuid.UUID) (bool, error) {
	settings, err := p.settings.Get(ctx, userID)
	if err != nil {
		return false, err
	}
	if settings == nil {
		settings = model.DefaultSettings(userID)
	}
	return settings.PushNotifications, nil
}

// Worker turns booking events into push notifications. A nil pusher runs it
// in mock mode, where notifications are only logged.
type Worker struct {
	natsConn *nats.Conn
	subs     []*nats.Subscription
	pusher   Pusher
	tokens   DeviceTokenSource
	prefs    PushPreferences
	topic    string
}

// NewPusher builds an APNs token client, or returns nil when cfg carries no
// usable credentials.
func NewPusher(cfg config.APNSConfig) (Pusher, error) {
	if !cfg.Enabled() {
		slog.Warn("APNs credentials not found or invalid, notifier will run in MOCK mode")
		return nil, nil
	}

	slog.Info("APNs credentials found, initializing APNs client")
	authKey, err := token.AuthKeyFromFile(cfg.AuthKeyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read APNs auth key: %w", err)
	}

	authToken := &token.Token{
		AuthKey: authKey,
		KeyID:   cfg.KeyID,
		TeamID:  cfg.TeamID,
	}

	if cfg.Production {
		return apns2.NewTokenClient(authToken).Production(), nil
	}
	return apns2.NewTokenClient(authToken).Development(), nil
}

func NewWorker(pusher Pusher, tokens DeviceTokenSource, prefs PushPreferences, topic string) *Worker {
	return &Worker{
		pusher: pusher,
		tokens: tokens,
		prefs:  prefs,
		topic:  topic,
	}
}

// Start subscribes the worker to the booking outcome subjects.
func (w *Worker) Start(natsURL string) error {
	nc, err := nats.Connect(natsURL)
	if err != nil {
		return err
	}
	w.natsConn = nc

	for _, subject := range subjects {
		sub, err := nc.Subscribe(subject, func(msg *nats.Msg) {
			w.Handle(context.Background(), msg.Subject, msg.Data)
		})
		if err != nil {
			w.Close()
			return err
		}
		w.subs = append(w.subs, sub)
		slog.Info("Notifier listening", "subject", subject)
	}

	return nil
}

func (w *Worker) Close() {
	for _, sub := range w.subs {
		_ = sub.Unsubscribe()
	}
	if w.natsConn != nil {
		w.natsConn.Close()
	}
}

// Handle delivers one event to every device of the affected learner and
// reports how many pushes were accepted.
func (w *Worker) Handle(ctx context.Context, subject string, data []byte) int {
	var event events.BookingEvent
	if err := json.Unmarshal(data, &event); err != nil {
		slog.ErrorContext(ctx, "Error unmarshalling booking event", "subject", subject, "error", err)
		return 0
	}

	alert, ok := alertFor(event.To)
	if !ok {
		slog.DebugContext(ctx, "No notification for booking status", "status", event.To)
		return 0
	}

	enabled, err := w.prefs.PushEnabled(ctx, event.LearnerID)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to read push preference", "user_id", event.LearnerID, "error", err)
		return 0
	}
	if !enabled {
		slog.DebugContext(ctx, "Push notifications disabled by user", "user_id", event.LearnerID)
		return 0
	}

	tokens, err := w.tokens.GetDeviceTokens(ctx, event.LearnerID)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to retrieve device tokens", "user_id", event.LearnerID, "error", err)
		return 0
	}
	if len(tokens) == 0 {
		slog.InfoContext(ctx, "No device tokens found, no notifications sent", "user_id", event.LearnerID)
		return 0
	}

	body := payload.NewPayload().
		Alert(alert).
		Sound("default").
		Custom("booking_id", event.BookingID.String()).
		Custom("session_id", event.SessionID.String())

	sent := 0
	for _, deviceToken := range tokens {
		notification := &apns2.Notification{
			DeviceToken: deviceToken,
			Topic:       w.topic,
			Payload:     body,
		}

		if w.pusher == nil {
			slog.InfoContext(ctx, "Push notification sent (mock)", "device_token", deviceToken, "alert", alert)
			sent++
			continue
		}

		res, err := w.pusher.Push(notification)
		switch {
		case err != nil:
			slog.ErrorContext(ctx, "Failed to send notification", "device_token", deviceToken, "error", err)
		case res.Sent():
			slog.InfoContext(ctx, "Notification sent", "apns_id", res.ApnsID)
			sent++
		default:
			slog.WarnContext(ctx, "Notification not sent", "device_token", deviceToken, "reason", res.Reason)
		}
	}

	return sent
}

func alertFor(status model.BookingStatus) (string, bool) {
	switch status {
	case model.BookingAccepted:
		return "Your booking was accepted. See you at the session!", true
	case model.BookingDeclined:
		return "Your booking request was declined.", true
	case model.BookingCanceled:
		return "Your booking was canceled.", true
	}
	return "", false
}
