// Package sink holds the EventSink implementations fed by the runtime's
// event fanout: an in-memory timeline for UI, a disk sink for the radio
// log, and a quality sink watching telemetry.
package sink

import (
	"context"
	"sync"
	"time"

	"voicenet/domain"
	"voicenet/domain/event"
)

// Milestone is one line of a net's local activity feed.
type Milestone struct {
	NetID  domain.NetID
	Kind   string
	Detail string
	At     time.Time
}

// Timeline holds a simple local activity feed across nets.
type Timeline struct {
	mu         sync.Mutex
	milestones []Milestone
}

func NewTimeline() *Timeline {
	return &Timeline{}
}

func (t *Timeline) Consume(_ context.Context, e event.TransportEvent) error {
	m := Milestone{NetID: e.NetID(), At: time.Now().UTC()}
	switch evt := e.(type) {
	case event.Connected:
		m.Kind = "connected"
	case event.Disconnected:
		m.Kind = "disconnected"
		m.Detail = evt.Reason
	case event.Reconnected:
		m.Kind = "reconnected"
	case event.ParticipantJoined:
		m.Kind = "participant-joined"
		m.Detail = evt.Participant.Callsign
	case event.ParticipantLeft:
		m.Kind = "participant-left"
		m.Detail = evt.UserID
	default:
		return nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.milestones = append(t.milestones, m)
	return nil
}

func (t *Timeline) Milestones() []Milestone {
	t.mu.Lock()
	defer t.mu.Unlock()
	res := make([]Milestone, len(t.milestones))
	copy(res, t.milestones)
	return res
}
