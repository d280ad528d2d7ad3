package event

import (
	"voicenet/domain"
)

// TransportEvent is the tagged union emitted by a transport adapter and
// consumed by the orchestrator's per-net dispatch loop.
type TransportEvent interface {
	NetID() domain.NetID
}

type base struct {
	Net domain.NetID
}

func (b base) NetID() domain.NetID { return b.Net }

type Connected struct{ base }

func NewConnected(net domain.NetID) Connected { return Connected{base{net}} }

type Disconnected struct {
	base
	Reason string
}

func NewDisconnected(net domain.NetID, reason string) Disconnected {
	return Disconnected{base{net}, reason}
}

// Reconnecting signals a mid-flight recovery started by the transport
// itself, distinct from a full Disconnected.
type Reconnecting struct{ base }

func NewReconnecting(net domain.NetID) Reconnecting { return Reconnecting{base{net}} }

type Reconnected struct{ base }

func NewReconnected(net domain.NetID) Reconnected { return Reconnected{base{net}} }

type ParticipantJoined struct {
	base
	Participant domain.Participant
}

func NewParticipantJoined(net domain.NetID, p domain.Participant) ParticipantJoined {
	return ParticipantJoined{base{net}, p}
}

type ParticipantLeft struct {
	base
	UserID string
}

func NewParticipantLeft(net domain.NetID, userID string) ParticipantLeft {
	return ParticipantLeft{base{net}, userID}
}

type SpeakingChanged struct {
	base
	UserID     string
	IsSpeaking bool
}

func NewSpeakingChanged(net domain.NetID, userID string, speaking bool) SpeakingChanged {
	return SpeakingChanged{base{net}, userID, speaking}
}

type TransportError struct {
	base
	Message string
}

func NewTransportError(net domain.NetID, message string) TransportError {
	return TransportError{base{net}, message}
}

type Telemetry struct {
	base
	Snapshot domain.TelemetrySnapshot
}

func NewTelemetry(net domain.NetID, s domain.TelemetrySnapshot) Telemetry {
	return Telemetry{base{net}, s}
}

type ControlPacket struct {
	base
	Packet domain.CommandBusPacket
}

func NewControlPacket(net domain.NetID, p domain.CommandBusPacket) ControlPacket {
	return ControlPacket{base{net}, p}
}
