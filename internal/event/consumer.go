package event

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/utafrali/dressrental/internal/domain"
	pkgkafka "github.com/utafrali/dressrental/pkg/kafka"
)

// ConsumerGroupNotify is the consumer group of the notify-me fan-out.
const ConsumerGroupNotify = "dressrental-notify"

// Notification tells a subscriber that a dress they asked about is available.
type Notification struct {
	Email   string       `json:"email"`
	Dress   domain.Dress `json:"dress"`
	Sizes   []string     `json:"sizes"`
	EventID string       `json:"event_id"`
}

// Sender delivers notifications.
type Sender interface {
	Send(ctx context.Context, n Notification) error
}

// LogSender writes notifications to the log instead of delivering them.
type LogSender struct {
	logger *slog.Logger
}

func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(ctx context.Context, n Notification) error {
	s.logger.InfoContext(ctx, "notify-me match",
		slog.String("email", n.Email),
		slog.Int64("dress_id", n.Dress.ID),
		slog.String("dress", n.Dress.Name),
		slog.Any("sizes", n.Sizes),
	)
	return nil
}

// SubscriptionFinder looks up subscriptions interested in a dress.
type SubscriptionFinder interface {
	ListMatching(ctx context.Context, category string, sizes []string) ([]domain.Subscription, error)
}

// Notifier fans dress events out to matching notify-me subscriptions.
type Notifier struct {
	subs       SubscriptionFinder
	sender     Sender
	deliveries pkgkafka.IdempotencyStore
	logger     *slog.Logger
}

// NotifierOption configures a Notifier.
type NotifierOption func(*Notifier)

// WithDeliveryLog records every successful send in store under the event ID
// and recipient, so a redelivered event only reaches the recipients that
// were not notified yet.
func WithDeliveryLog(store pkgkafka.IdempotencyStore) NotifierOption {
	return func(n *Notifier) {
		n.deliveries = store
	}
}

func NewNotifier(subs SubscriptionFinder, sender Sender, logger *slog.Logger, opts ...NotifierOption) *Notifier {
	n := &Notifier{
		subs:   subs,
		sender: sender,
		logger: logger,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Topics lists the topics the notifier consumes.
func (n *Notifier) Topics() []string {
	return []string{TopicDressCreated, TopicDressUpdated}
}

// Handle is a pkgkafka.Handler. Events for unavailable dresses and unrelated
// event types are acknowledged without doing anything.
func (n *Notifier) Handle(ctx context.Context, event *pkgkafka.Event) error {
	if event.EventType != TopicDressCreated && event.EventType != TopicDressUpdated {
		return nil
	}

	var data DressData
	if err := event.DecodeData(&data); err != nil {
		return err
	}

	dress := data.Dress()
	if !dress.Available {
		return nil
	}

	subs, err := n.subs.ListMatching(ctx, dress.Category, dress.Sizes)
	if err != nil {
		return fmt.Errorf("find subscriptions for dress %d: %w", dress.ID, err)
	}

	var errs []error
	sent := 0
	for _, s := range subs {
		if !s.Matches(dress) {
			continue
		}
		key := deliveryKey(event.EventID, s.Email)
		if n.delivered(ctx, key) {
			continue
		}
		note := Notification{
			Email:   s.Email,
			Dress:   dress,
			Sizes:   sharedSizes(s.Sizes, dress),
			EventID: event.EventID,
		}
		if err := n.sender.Send(ctx, note); err != nil {
			n.logger.WarnContext(ctx, "failed to send notification",
				slog.String("email", s.Email),
				slog.Int64("dress_id", dress.ID),
				slog.String("error", err.Error()),
			)
			errs = append(errs, fmt.Errorf("notify %s: %w", s.Email, err))
			continue
		}
		n.recordDelivery(ctx, key)
		sent++
	}

	n.logger.DebugContext(ctx, "processed dress event",
		slog.String("event_id", event.EventID),
		slog.Int64("dress_id", dress.ID),
		slog.Int("notified", sent),
	)

	return errors.Join(errs...)
}

func deliveryKey(eventID, email string) string {
	if eventID == "" {
		return ""
	}
	return eventID + ":" + email
}

// delivered reports whether key was already sent. Lookup failures are logged
// and treated as not delivered.
func (n *Notifier) delivered(ctx context.Context, key string) bool {
	if n.deliveries == nil || key == "" {
		return false
	}
	ok, err := n.deliveries.Contains(ctx, key)
	if err != nil {
		n.logger.WarnContext(ctx, "delivery log lookup failed",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		return false
	}
	return ok
}

func (n *Notifier) recordDelivery(ctx context.Context, key string) {
	if n.deliveries == nil || key == "" {
		return
	}
	if err := n.deliveries.Add(ctx, key); err != nil {
		n.logger.WarnContext(ctx, "failed to record delivery",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
	}
}

func sharedSizes(wanted []string, d domain.Dress) []string {
	out := []string{}
	for _, s := range wanted {
		if d.HasSize(s) {
			out = append(out, s)
		}
	}
	return out
}

// NewNotifyConsumer builds the consumer that feeds dress events to notifier.
// Events already handled are skipped through store and events that keep
// failing are forwarded to dlq.
func NewNotifyConsumer(
	brokers []string,
	notifier *Notifier,
	store pkgkafka.IdempotencyStore,
	dlq pkgkafka.DeadLetterPublisher,
	logger *slog.Logger,
) *pkgkafka.Consumer {
	cfg := pkgkafka.ConsumerConfig{
		Brokers:  brokers,
		GroupID:  ConsumerGroupNotify,
		Topics:   notifier.Topics(),
		MinBytes: 1,
		MaxBytes: 10e6,
	}
	handler := pkgkafka.IdempotentHandler(store, notifier.Handle, logger)
	return pkgkafka.NewConsumer(cfg, handler, logger, pkgkafka.WithDeadLetter(dlq))
}
