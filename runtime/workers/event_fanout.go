package workers

import (
	"context"
	"log/slog"
	"time"

	"voicenet/contract"
	"voicenet/domain"
	"voicenet/domain/event"
)

// SinkSource resolves the sinks interested in one net's events.
type SinkSource interface {
	GetSinksForNet(netID domain.NetID) []contract.EventSink
}

// EventFanout broadcasts transport events to in-process consumers.
//
// It provides best-effort fan-out with no guarantees regarding delivery,
// ordering, durability, or retries. EventFanout is not a message broker.
//
// It is intended for observability and side effects (UI, logs, metrics),
// not for core voice state.
type EventFanout struct {
	log         *slog.Logger
	events      <-chan event.TransportEvent
	permanent   []contract.EventSink
	registry    SinkSource
	sinkTimeout time.Duration
}

func NewEventFanout(
	log *slog.Logger,
	events <-chan event.TransportEvent,
	permanent []contract.EventSink,
	registry SinkSource,
	sinkTimeout time.Duration,
) *EventFanout {
	return &EventFanout{
		log:         log,
		events:      events,
		permanent:   permanent,
		registry:    registry,
		sinkTimeout: sinkTimeout,
	}
}

func (w *EventFanout) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping event fanout")
			return nil
		case evt := <-w.events:
			w.fanout(ctx, evt)
		}
	}
}

// fanout One sink for each event
func (w *EventFanout) fanout(ctx context.Context, evt event.TransportEvent) {
	sinks := make([]contract.EventSink, 0, len(w.permanent))
	sinks = append(sinks, w.permanent...)
	if w.registry != nil {
		sinks = append(sinks, w.registry.GetSinksForNet(evt.NetID())...)
	}
	for _, sink := range sinks {
		sinkCtx, cancel := context.WithTimeout(ctx, w.sinkTimeout)
		if err := sink.Consume(sinkCtx, evt); err != nil {
			w.log.Debug("Event sink rejected event", "err", err)
		}
		cancel()
	}
}
