package runtime

import (
	"context"
	"time"

	"voicenet/contract"
	"voicenet/domain"
)

// netSession is the per-net record the orchestrator owns for every
// monitored net: adapter handle, timers, roster and connection state.
// A netSession exists if and only if a transport adapter exists for the
// net; both are created on join and destroyed on leave.
type netSession struct {
	net  domain.Net
	user domain.User

	adapter contract.Transport
	params  contract.ConnectParams

	state     domain.ConnectionState
	lastError string

	sessionID   string
	monitorOnly bool

	participants map[string]domain.Participant

	reconnectAttempts int
	reconnectTimer    *time.Timer
	cancelHeartbeat   context.CancelFunc
}

func newNetSession(net domain.Net, user domain.User, monitorOnly bool) *netSession {
	return &netSession{
		net:          net,
		user:         user,
		state:        domain.ConnectionJoining,
		monitorOnly:  monitorOnly,
		participants: make(map[string]domain.Participant),
	}
}

// stopTimers clears the reconnect timer and heartbeat so nothing outlives
// the net's lifecycle.
func (s *netSession) stopTimers() {
	if s.reconnectTimer != nil {
		s.reconnectTimer.Stop()
		s.reconnectTimer = nil
	}
	if s.cancelHeartbeat != nil {
		s.cancelHeartbeat()
		s.cancelHeartbeat = nil
	}
}

// live reports whether a disconnect event should trigger recovery.
func (s *netSession) live() bool {
	switch s.state {
	case domain.ConnectionConnected, domain.ConnectionJoining, domain.ConnectionReconnecting:
		return true
	default:
		return false
	}
}
