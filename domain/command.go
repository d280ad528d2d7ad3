package domain

import "time"

// PacketType tags a control packet on the command bus.
type PacketType string

const (
	PacketDisciplineChange  PacketType = "DISCIPLINE_CHANGE"
	PacketPriorityOverride  PacketType = "PRIORITY_OVERRIDE"
	PacketWhisperLane       PacketType = "VOICE_WHISPER_LANE"
	PacketWhisperStart      PacketType = "VOICE_WHISPER_START"
	PacketWhisperStop       PacketType = "VOICE_WHISPER_STOP"
	PacketSpeakRequest      PacketType = "SPEAK_REQUEST"
	PacketSpeakResolution   PacketType = "SPEAK_RESOLUTION"
	PacketSecureModeChange  PacketType = "SECURE_MODE_CHANGE"
	PacketCommandWhisper    PacketType = "COMMAND_WHISPER"
	PacketCommandWhisperAck PacketType = "COMMAND_WHISPER_ACK"
)

// CommandBusPacket is the structured control packet shared between all
// participants on a net. Payload stays schemaless on purpose: packets are
// advisory metadata, not an access-control primitive.
type CommandBusPacket struct {
	Type    PacketType     `json:"type"`
	NetID   NetID          `json:"net_id"`
	Payload map[string]any `json:"payload,omitempty"`
	SentAt  time.Time      `json:"sent_at"`
}

// WhisperState tracks the at-most-one outstanding whisper lane, layered
// over the current transmit net.
type WhisperState struct {
	Active bool   `json:"active"`
	Target string `json:"target"`
}
