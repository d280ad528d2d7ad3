package sink

import (
	"context"
	"log/slog"

	"voicenet/domain/event"
)

// Degradation thresholds for the quality warning.
const (
	mosWarnBelow  = 3.0
	lossWarnAbove = 5.0
)

// QualitySink watches telemetry events and logs a warning when link quality
// degrades past the thresholds. Purely observational.
type QualitySink struct {
	log *slog.Logger
}

func NewQualitySink(log *slog.Logger) QualitySink {
	return QualitySink{log: log}
}

func (q QualitySink) Consume(_ context.Context, e event.TransportEvent) error {
	evt, ok := e.(event.Telemetry)
	if !ok {
		return nil
	}
	if evt.Snapshot.MosProxy < mosWarnBelow || evt.Snapshot.PacketLossPct > lossWarnAbove {
		q.log.Warn("Voice link quality degraded",
			"net", evt.NetID(),
			"mos", evt.Snapshot.MosProxy,
			"loss_pct", evt.Snapshot.PacketLossPct,
			"rtt_ms", evt.Snapshot.RttMs,
		)
	}
	return nil
}
