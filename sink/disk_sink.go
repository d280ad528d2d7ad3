package sink

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"voicenet/domain/event"
	"voicenet/repositories"
)

// DiskSink persists connection milestones to the radio log so outages stay
// auditable after the fact.
type DiskSink struct {
	repository repositories.IRadioLogRepository
	log        *slog.Logger
}

func NewDiskSink(repository repositories.IRadioLogRepository, log *slog.Logger) DiskSink {
	return DiskSink{repository: repository, log: log}
}

func (d DiskSink) Consume(_ context.Context, e event.TransportEvent) error {
	entry := repositories.RadioLogEntry{
		ID:    uuid.New(),
		NetID: e.NetID(),
		At:    time.Now().UTC(),
	}
	switch evt := e.(type) {
	case event.Disconnected:
		entry.Kind = "NET_DISCONNECTED"
		entry.Summary = evt.Reason
	case event.Reconnected:
		entry.Kind = "NET_RECONNECTED"
	case event.TransportError:
		entry.Kind = "TRANSPORT_ERROR"
		entry.Summary = evt.Message
	default:
		d.log.Debug(fmt.Sprintf("Not persisted event : %v", evt))
		return nil
	}
	return d.repository.Append(entry)
}
