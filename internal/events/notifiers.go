package events

import (
	"context"

	"github.com/rs/zerolog"
)

// LogNotifier writes every event to a structured logger at debug level.
type LogNotifier struct {
	Logger zerolog.Logger
}

// Notify implements Notifier.
func (n LogNotifier) Notify(_ context.Context, event Event) error {
	n.Logger.Debug().
		Str("event_id", event.ID).
		Str("topic", event.Topic).
		Str("aggregate_id", event.AggregateID).
		RawJSON("payload", event.Payload).
		Msg("domain_event")
	return nil
}

// TopicObserver counts events per topic.
type TopicObserver interface {
	ObserveEvent(topic string)
}

// MetricsNotifier forwards every event topic to an observer.
type MetricsNotifier struct {
	Observer TopicObserver
}

// Notify implements Notifier.
func (n MetricsNotifier) Notify(_ context.Context, event Event) error {
	if n.Observer != nil {
		n.Observer.ObserveEvent(event.Topic)
	}
	return nil
}
