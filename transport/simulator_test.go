package transport

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"voicenet/auth"
	"voicenet/contract"
	"voicenet/domain"
	"voicenet/domain/event"
)

func squadNet() domain.Net {
	return domain.Net{
		ID:             "net-squad-1",
		Code:           "SQUAD-1",
		Label:          "Squad One",
		Type:           domain.NetTypeSquad,
		DisciplineMode: domain.DisciplineOpen,
	}
}

func collect(t *testing.T, events <-chan event.TransportEvent, n int) []event.TransportEvent {
	t.Helper()
	var res []event.TransportEvent
	deadline := time.After(2 * time.Second)
	for len(res) < n {
		select {
		case e, ok := <-events:
			if !ok {
				return res
			}
			res = append(res, e)
		case <-deadline:
			t.Fatalf("timed out waiting for %d events, got %d", n, len(res))
		}
	}
	return res
}

func TestSimulator_ConnectEmitsConnectedAndRoster(t *testing.T) {
	req := require.New(t)
	sim := NewSimulator(slog.Default(), squadNet())
	defer func() { _ = sim.Disconnect() }()

	user := domain.User{ID: "u1", Callsign: "Ghost", ClientID: "c1"}
	req.NoError(sim.Connect(context.Background(), contract.ConnectParams{NetID: "net-squad-1", User: user}))

	events := collect(t, sim.Events(), 2)
	req.IsType(event.Connected{}, events[0])
	joined, ok := events[1].(event.ParticipantJoined)
	req.True(ok)
	req.Equal("SIM-OPS", joined.Participant.Callsign)
}

func TestSimulator_ConnectValidatesToken(t *testing.T) {
	req := require.New(t)
	sim := NewSimulator(slog.Default(), squadNet())

	params := contract.ConnectParams{NetID: "net-squad-1", Token: "garbage"}
	req.Error(sim.Connect(context.Background(), params))

	user := domain.User{ID: "u1", Callsign: "Ghost", ClientID: "c1"}
	token, err := auth.GenerateVoiceToken(user, "net-squad-1", time.Hour)
	req.NoError(err)
	req.NoError(sim.Connect(context.Background(), contract.ConnectParams{NetID: "net-squad-1", Token: token, User: user}))
	_ = sim.Disconnect()
}

func TestSimulator_PTTEchoesSpeakingChanged(t *testing.T) {
	req := require.New(t)
	sim := NewSimulator(slog.Default(), squadNet())
	defer func() { _ = sim.Disconnect() }()

	user := domain.User{ID: "u1", Callsign: "Ghost", ClientID: "c1"}
	req.NoError(sim.Connect(context.Background(), contract.ConnectParams{NetID: "net-squad-1", User: user}))
	collect(t, sim.Events(), 2)

	sim.SetPTTActive(true)

	events := collect(t, sim.Events(), 1)
	speaking, ok := events[0].(event.SpeakingChanged)
	req.True(ok)
	req.Equal("u1", speaking.UserID)
	req.True(speaking.IsSpeaking)
	req.True(sim.PTTActive())
}

func TestSimulator_SecureModeEchoCarriesClearPayload(t *testing.T) {
	req := require.New(t)
	net := squadNet()
	net.Secure = domain.SecureMode{Enabled: true, KeyVersion: 3}
	sim := NewSimulator(slog.Default(), net)
	defer func() { _ = sim.Disconnect() }()

	req.NoError(sim.Connect(context.Background(), contract.ConnectParams{NetID: net.ID,
		User: domain.User{ID: "u1", Callsign: "Ghost", ClientID: "c1"}}))
	collect(t, sim.Events(), 2)

	req.NoError(sim.PublishControlPacket(domain.CommandBusPacket{
		Type:    domain.PacketWhisperLane,
		NetID:   net.ID,
		Payload: map[string]any{"mode": "start", "target": "u2"},
		SentAt:  time.Now().UTC(),
	}))

	// The echo is what a receiving client sees after opening the wire form,
	// matching the media transport's receive path.
	events := collect(t, sim.Events(), 1)
	packet, ok := events[0].(event.ControlPacket)
	req.True(ok)
	req.NotContains(packet.Packet.Payload, "sealed")
	req.Equal("start", packet.Packet.Payload["mode"])
	req.Equal("u2", packet.Packet.Payload["target"])
}

func TestSealPayload_RoundTripBoundToKeyVersion(t *testing.T) {
	req := require.New(t)

	sealed, err := sealPayload(map[string]any{"mode": "start"}, 3)
	req.NoError(err)
	req.Contains(sealed, "sealed")
	req.NotContains(sealed, "mode")

	clear, err := openPayload(sealed, 3)
	req.NoError(err)
	req.Equal("start", clear["mode"])

	_, err = openPayload(sealed, 4)
	req.Error(err)
}

func TestSimulator_DisconnectIdempotent(t *testing.T) {
	req := require.New(t)
	sim := NewSimulator(slog.Default(), squadNet())
	req.NoError(sim.Connect(context.Background(), contract.ConnectParams{NetID: "net-squad-1",
		User: domain.User{ID: "u1", Callsign: "Ghost", ClientID: "c1"}}))

	req.NoError(sim.Disconnect())
	req.NoError(sim.Disconnect())
}
