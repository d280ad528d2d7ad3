package workers

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/shirou/gopsutil/process"

	"voicenet/backend"
	"voicenet/contract"
	"voicenet/domain"
)

// HeartbeatWorker renews one voice session's liveness for as long as its
// net stays joined. Each beat also ships process health (CPU, RSS) through
// the console telemetry action, best-effort: an unreachable backend never
// disturbs the session.
type HeartbeatWorker struct {
	log       *slog.Logger
	sessions  contract.SessionStore
	console   contract.ConsoleAPI
	netID     domain.NetID
	sessionID string
	interval  time.Duration
	speaking  func() bool
}

func NewHeartbeatWorker(
	log *slog.Logger,
	sessions contract.SessionStore,
	console contract.ConsoleAPI,
	netID domain.NetID,
	sessionID string,
	interval time.Duration,
	speaking func() bool,
) *HeartbeatWorker {
	return &HeartbeatWorker{
		log:       log,
		sessions:  sessions,
		console:   console,
		netID:     netID,
		sessionID: sessionID,
		interval:  interval,
		speaking:  speaking,
	}
}

// Run beats until the session's context is canceled on leave.
func (w *HeartbeatWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	p, procErr := process.NewProcess(int32(os.Getpid()))
	if procErr != nil {
		w.log.Debug("Process stats unavailable for heartbeat", "err", procErr)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.sessions.UpdateSessionHeartbeat(ctx, w.sessionID, time.Now().UTC(), w.speaking()); err != nil {
				w.log.Warn("Voice session heartbeat failed", "session", w.sessionID, "err", err)
				continue
			}
			w.reportHealth(ctx, p)
		}
	}
}

func (w *HeartbeatWorker) reportHealth(ctx context.Context, p *process.Process) {
	if w.console == nil || p == nil {
		return
	}
	payload := map[string]any{"session_id": w.sessionID}
	if memInfo, err := p.MemoryInfo(); err == nil {
		payload["ram_bytes"] = memInfo.RSS
	}
	if cpu, err := p.CPUPercent(); err == nil {
		payload["cpu_percent"] = cpu
	}
	if _, err := w.console.Invoke(ctx, backend.ActionRecordVoiceTelemetry, w.netID, payload); err != nil {
		w.log.Debug("Heartbeat health report dropped", "err", err)
	}
}
