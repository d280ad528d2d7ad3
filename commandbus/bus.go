// Package commandbus keeps the shared log of structured control packets
// seen on every net: a bounded most-recent-first ring plus a broadcast to
// in-process subscribers. Persistence to the radio log is best-effort and
// never blocks the bus.
package commandbus

import (
	"log/slog"
	"sync"
	"time"

	"voicenet/domain"
	"voicenet/repositories"
)

// Capacity bounds the in-memory ring. Older packets fall off the end.
const Capacity = 200

type Bus struct {
	mu          sync.RWMutex
	log         *slog.Logger
	radioLog    repositories.IRadioLogRepository
	packets     []domain.CommandBusPacket
	subscribers []chan domain.CommandBusPacket
}

func New(log *slog.Logger, radioLog repositories.IRadioLogRepository) *Bus {
	return &Bus{log: log, radioLog: radioLog}
}

// Publish appends a packet to the ring (most recent first), broadcasts it
// to subscribers, and mirrors it to the audit log. Audit failures are
// swallowed: they must never corrupt local voice state.
func (b *Bus) Publish(packet domain.CommandBusPacket) {
	if packet.SentAt.IsZero() {
		packet.SentAt = time.Now().UTC()
	}

	b.mu.Lock()
	b.packets = append([]domain.CommandBusPacket{packet}, b.packets...)
	if len(b.packets) > Capacity {
		b.packets = b.packets[:Capacity]
	}
	subscribers := make([]chan domain.CommandBusPacket, len(b.subscribers))
	copy(subscribers, b.subscribers)
	b.mu.Unlock()

	for _, sub := range subscribers {
		select {
		case sub <- packet:
		default:
			b.log.Debug("Command bus subscriber lagging, packet dropped", "type", packet.Type)
		}
	}

	if b.radioLog != nil {
		if err := b.radioLog.AppendPacket(packet); err != nil {
			b.log.Warn("Command bus audit write failed", "error", err)
		}
	}
}

// Subscribe returns a buffered feed of future packets. The caller owns the
// returned cancel function and must call it to release the channel.
func (b *Bus) Subscribe() (<-chan domain.CommandBusPacket, func()) {
	ch := make(chan domain.CommandBusPacket, Capacity)
	b.mu.Lock()
	b.subscribers = append(b.subscribers, ch)
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		for i, sub := range b.subscribers {
			if sub == ch {
				b.subscribers = append(b.subscribers[:i], b.subscribers[i+1:]...)
				close(ch)
				return
			}
		}
	}
	return ch, cancel
}

// Recent returns the ring content, most recent first.
func (b *Bus) Recent() []domain.CommandBusPacket {
	b.mu.RLock()
	defer b.mu.RUnlock()
	res := make([]domain.CommandBusPacket, len(b.packets))
	copy(res, b.packets)
	return res
}
