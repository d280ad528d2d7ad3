package workers

import (
	"context"
	"log/slog"

	"voicenet/backend"
	"voicenet/contract"
	"voicenet/domain"
)

// TelemetryReading pairs a snapshot with its net for the recording worker.
type TelemetryReading struct {
	NetID    domain.NetID
	Snapshot domain.TelemetrySnapshot
}

// TelemetryWorker drains transport telemetry and mirrors it to the backend
// console. Recording is best-effort; failures are swallowed.
type TelemetryWorker struct {
	log      *slog.Logger
	console  contract.ConsoleAPI
	readings <-chan TelemetryReading
}

func NewTelemetryWorker(log *slog.Logger, console contract.ConsoleAPI, readings <-chan TelemetryReading) *TelemetryWorker {
	return &TelemetryWorker{log: log, console: console, readings: readings}
}

func (w *TelemetryWorker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case reading := <-w.readings:
			payload := map[string]any{
				"rtt_ms":          reading.Snapshot.RttMs,
				"jitter_ms":       reading.Snapshot.JitterMs,
				"packet_loss_pct": reading.Snapshot.PacketLossPct,
				"mos_proxy":       reading.Snapshot.MosProxy,
			}
			if _, err := w.console.Invoke(ctx, backend.ActionRecordVoiceTelemetry, reading.NetID, payload); err != nil {
				w.log.Debug("Telemetry recording dropped", "net", reading.NetID, "err", err)
			}
		}
	}
}
