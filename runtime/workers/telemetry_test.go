package workers

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"voicenet/backend"
	"voicenet/contract"
	"voicenet/domain"
)

type captureConsole struct {
	mu      sync.Mutex
	actions []contract.ConsoleAction
}

func (c *captureConsole) Invoke(ctx context.Context, action contract.ConsoleAction, netID domain.NetID, payload map[string]any) (map[string]any, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.actions = append(c.actions, action)
	return map[string]any{"ok": true}, nil
}

func (c *captureConsole) invoked() []contract.ConsoleAction {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]contract.ConsoleAction(nil), c.actions...)
}

func TestTelemetryWorker_RecordsThroughConsoleAction(t *testing.T) {
	req := require.New(t)
	console := &captureConsole{}
	readings := make(chan TelemetryReading, 1)
	worker := NewTelemetryWorker(slog.Default(), console, readings)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = worker.Run(ctx)
		close(done)
	}()

	// When a transport reading arrives
	readings <- TelemetryReading{NetID: "net-squad-1", Snapshot: domain.TelemetrySnapshot{RttMs: 20}}

	// Then it is mirrored under the shared console action name
	req.Eventually(func() bool { return len(console.invoked()) == 1 }, time.Second, time.Millisecond)
	req.Equal(backend.ActionRecordVoiceTelemetry, console.invoked()[0])

	cancel()
	<-done
}
