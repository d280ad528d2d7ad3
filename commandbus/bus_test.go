package commandbus

import (
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"voicenet/domain"
	"voicenet/repositories"
)

type recordingLog struct {
	packets []domain.CommandBusPacket
	fail    bool
}

func (r *recordingLog) Append(entry repositories.RadioLogEntry) error { return nil }

func (r *recordingLog) AppendPacket(packet domain.CommandBusPacket) error {
	if r.fail {
		return fmt.Errorf("audit store down")
	}
	r.packets = append(r.packets, packet)
	return nil
}

func (r *recordingLog) List(netID domain.NetID, cursor *string) ([]repositories.RadioLogEntry, *string, error) {
	return nil, nil, nil
}

func packet(i int) domain.CommandBusPacket {
	return domain.CommandBusPacket{
		Type:    domain.PacketDisciplineChange,
		NetID:   "net-1",
		Payload: map[string]any{"seq": i},
		SentAt:  time.Now().UTC(),
	}
}

func TestBus_MostRecentFirst(t *testing.T) {
	req := require.New(t)
	bus := New(slog.Default(), nil)

	for i := 0; i < 3; i++ {
		bus.Publish(packet(i))
	}

	recent := bus.Recent()
	req.Len(recent, 3)
	req.Equal(2, recent[0].Payload["seq"])
	req.Equal(0, recent[2].Payload["seq"])
}

func TestBus_CappedAtCapacity(t *testing.T) {
	req := require.New(t)
	bus := New(slog.Default(), nil)

	for i := 0; i < Capacity+25; i++ {
		bus.Publish(packet(i))
	}

	recent := bus.Recent()
	req.Len(recent, Capacity)
	req.Equal(Capacity+24, recent[0].Payload["seq"])
}

func TestBus_BroadcastsToSubscribers(t *testing.T) {
	req := require.New(t)
	bus := New(slog.Default(), nil)

	feed, cancel := bus.Subscribe()
	defer cancel()

	bus.Publish(packet(7))

	select {
	case p := <-feed:
		req.Equal(7, p.Payload["seq"])
	case <-time.After(time.Second):
		req.Fail("subscriber never received the packet")
	}
}

func TestBus_PersistsToAuditLog(t *testing.T) {
	req := require.New(t)
	audit := &recordingLog{}
	bus := New(slog.Default(), audit)

	bus.Publish(packet(1))
	req.Len(audit.packets, 1)
}

func TestBus_AuditFailureDoesNotBlockPublish(t *testing.T) {
	req := require.New(t)
	bus := New(slog.Default(), &recordingLog{fail: true})

	bus.Publish(packet(1))
	req.Len(bus.Recent(), 1)
}
