package domain

import "time"

// ConnectionState tracks one monitored net's transport lifecycle.
// Legal edges: idle -> joining -> {connected | error},
// connected -> reconnecting -> {connected | error}, and any -> idle on leave.
type ConnectionState string

const (
	ConnectionIdle         ConnectionState = "idle"
	ConnectionJoining      ConnectionState = "joining"
	ConnectionConnected    ConnectionState = "connected"
	ConnectionReconnecting ConnectionState = "reconnecting"
	ConnectionError        ConnectionState = "error"
)

// VoiceSession is the backend-side liveness record registered once a
// transport connect resolves, renewed by the heartbeat until leave.
type VoiceSession struct {
	ID          string    `json:"id"`
	NetID       NetID     `json:"net_id"`
	UserID      string    `json:"user_id"`
	Callsign    string    `json:"callsign"`
	ClientID    string    `json:"client_id"`
	IsSpeaking  bool      `json:"is_speaking"`
	StartedAt   time.Time `json:"started_at"`
	LastBeatAt  time.Time `json:"last_beat_at"`
	MonitorOnly bool      `json:"monitor_only"`
}

// PresenceStatus mirrors local voice state to the presence service.
type PresenceStatus string

const (
	PresenceOnline       PresenceStatus = "online"
	PresenceInCall       PresenceStatus = "in-call"
	PresenceTransmitting PresenceStatus = "transmitting"
)

// Presence is the record written to the external presence service.
type Presence struct {
	UserID         string         `json:"user_id"`
	Status         PresenceStatus `json:"status"`
	ActiveNetID    *NetID         `json:"active_net_id,omitempty"`
	IsTransmitting bool           `json:"is_transmitting"`
}
