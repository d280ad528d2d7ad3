package sink

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"voicenet/domain"
	"voicenet/domain/event"
	"voicenet/repositories"
)

type recordingRepo struct {
	entries []repositories.RadioLogEntry
}

func (r *recordingRepo) Append(entry repositories.RadioLogEntry) error {
	r.entries = append(r.entries, entry)
	return nil
}

func (r *recordingRepo) AppendPacket(packet domain.CommandBusPacket) error { return nil }

func (r *recordingRepo) List(netID domain.NetID, cursor *string) ([]repositories.RadioLogEntry, *string, error) {
	return nil, nil, nil
}

func TestTimeline_CollectsMilestones(t *testing.T) {
	// Given a timeline sink
	timeline := NewTimeline()
	ctx := context.Background()

	// When lifecycle events flow through it
	require.NoError(t, timeline.Consume(ctx, event.NewConnected("net-squad-1")))
	require.NoError(t, timeline.Consume(ctx, event.NewParticipantJoined("net-squad-1", domain.Participant{
		UserID: "u-1", Callsign: "RAPTOR",
	})))
	require.NoError(t, timeline.Consume(ctx, event.NewDisconnected("net-squad-1", "link lost")))

	// Then they appear in order with their details
	milestones := timeline.Milestones()
	require.Len(t, milestones, 3)
	require.Equal(t, "connected", milestones[0].Kind)
	require.Equal(t, "RAPTOR", milestones[1].Detail)
	require.Equal(t, "link lost", milestones[2].Detail)
}

func TestTimeline_IgnoresTelemetry(t *testing.T) {
	timeline := NewTimeline()

	require.NoError(t, timeline.Consume(context.Background(),
		event.NewTelemetry("net-squad-1", domain.TelemetrySnapshot{RttMs: 20})))

	require.Empty(t, timeline.Milestones())
}

func TestDiskSink_PersistsOutages(t *testing.T) {
	repo := &recordingRepo{}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	disk := NewDiskSink(repo, log)
	ctx := context.Background()

	require.NoError(t, disk.Consume(ctx, event.NewDisconnected("net-squad-1", "link lost")))
	require.NoError(t, disk.Consume(ctx, event.NewConnected("net-squad-1")))
	require.NoError(t, disk.Consume(ctx, event.NewTransportError("net-squad-1", "ice failure")))

	require.Len(t, repo.entries, 2)
	require.Equal(t, "NET_DISCONNECTED", repo.entries[0].Kind)
	require.Equal(t, "ice failure", repo.entries[1].Summary)
}

func TestQualitySink_NeverFails(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	quality := NewQualitySink(log)
	ctx := context.Background()

	require.NoError(t, quality.Consume(ctx, event.NewTelemetry("net-squad-1", domain.TelemetrySnapshot{
		MosProxy: 2.1, PacketLossPct: 12,
	})))
	require.NoError(t, quality.Consume(ctx, event.NewConnected("net-squad-1")))
}
