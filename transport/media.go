package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"voicenet/contract"
	"voicenet/domain"
	"voicenet/domain/event"
	apperrors "voicenet/errors"
)

const (
	mediaWriteTimeout = 5 * time.Second
	mediaRedialDelay  = 500 * time.Millisecond
	mediaRedialTries  = 3
)

// mediaFrame is the JSON control frame exchanged with the media server.
// Audio itself rides a separate media path owned by the SDK; this socket
// only carries signaling.
type mediaFrame struct {
	Op            string                    `json:"op"`
	NetID         string                    `json:"net_id,omitempty"`
	UserID        string                    `json:"user_id,omitempty"`
	Callsign      string                    `json:"callsign,omitempty"`
	ClientID      string                    `json:"client_id,omitempty"`
	Enabled       *bool                     `json:"enabled,omitempty"`
	DeviceID      string                    `json:"device_id,omitempty"`
	ParticipantID string                    `json:"participant_id,omitempty"`
	GainDb        float64                   `json:"gain_db,omitempty"`
	Monitor       []string                  `json:"monitor,omitempty"`
	Tx            string                    `json:"tx,omitempty"`
	Speaking      *bool                     `json:"speaking,omitempty"`
	Message       string                    `json:"message,omitempty"`
	Packet        *domain.CommandBusPacket  `json:"packet,omitempty"`
	Telemetry     *domain.TelemetrySnapshot `json:"telemetry,omitempty"`
}

// MediaTransport drives the real-time media transport through its
// websocket signaling socket. Read failures trigger a bounded in-flight
// redial (surfaced as reconnecting/reconnected); exhausting the redials
// emits a full disconnected event and leaves recovery to the caller.
type MediaTransport struct {
	mu      sync.Mutex
	log     *slog.Logger
	net     domain.Net
	params  contract.ConnectParams
	conn    *websocket.Conn
	events  chan event.TransportEvent
	closing bool
}

func NewMediaTransport(log *slog.Logger, net domain.Net) *MediaTransport {
	return &MediaTransport{
		log:    log,
		net:    net,
		events: make(chan event.TransportEvent, 64),
	}
}

func (t *MediaTransport) Events() <-chan event.TransportEvent { return t.events }

func (t *MediaTransport) Connect(ctx context.Context, params contract.ConnectParams) error {
	t.mu.Lock()
	if t.conn != nil {
		t.mu.Unlock()
		return nil
	}
	t.params = params
	t.mu.Unlock()

	conn, err := t.dial(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrTransportConnect, err)
	}

	t.mu.Lock()
	t.conn = conn
	t.mu.Unlock()

	if err := t.send(mediaFrame{
		Op:       "join",
		NetID:    string(params.NetID),
		UserID:   params.User.ID,
		Callsign: params.User.Callsign,
		ClientID: params.User.ClientID,
	}); err != nil {
		_ = conn.Close()
		return fmt.Errorf("%w: %v", apperrors.ErrTransportConnect, err)
	}

	t.emit(event.NewConnected(t.net.ID))
	go t.readLoop()
	return nil
}

func (t *MediaTransport) dial(ctx context.Context) (*websocket.Conn, error) {
	u, err := url.Parse(t.params.URL)
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Set("token", t.params.Token)
	u.RawQuery = q.Encode()

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	return conn, err
}

func (t *MediaTransport) readLoop() {
	for {
		t.mu.Lock()
		conn := t.conn
		closing := t.closing
		t.mu.Unlock()
		if conn == nil || closing {
			return
		}

		var frame mediaFrame
		if err := conn.ReadJSON(&frame); err != nil {
			if t.isClosing() {
				return
			}
			if t.redial() {
				continue
			}
			t.emit(event.NewDisconnected(t.net.ID, err.Error()))
			return
		}
		t.dispatch(frame)
	}
}

// redial attempts an in-flight recovery before declaring a full
// disconnect. The attempt counter of the reconnection supervisor is not
// touched by this path.
func (t *MediaTransport) redial() bool {
	t.emit(event.NewReconnecting(t.net.ID))
	for i := 0; i < mediaRedialTries; i++ {
		time.Sleep(mediaRedialDelay)
		if t.isClosing() {
			return false
		}
		ctx, cancel := context.WithTimeout(context.Background(), mediaWriteTimeout)
		conn, err := t.dial(ctx)
		cancel()
		if err != nil {
			continue
		}
		t.mu.Lock()
		t.conn = conn
		t.mu.Unlock()
		t.emit(event.NewReconnected(t.net.ID))
		return true
	}
	return false
}

func (t *MediaTransport) dispatch(frame mediaFrame) {
	switch frame.Op {
	case "participant_joined":
		t.emit(event.NewParticipantJoined(t.net.ID, domain.Participant{
			UserID:   frame.UserID,
			Callsign: frame.Callsign,
			ClientID: frame.ClientID,
		}))
	case "participant_left":
		t.emit(event.NewParticipantLeft(t.net.ID, frame.UserID))
	case "speaking":
		speaking := frame.Speaking != nil && *frame.Speaking
		t.emit(event.NewSpeakingChanged(t.net.ID, frame.UserID, speaking))
	case "telemetry":
		if frame.Telemetry != nil {
			t.emit(event.NewTelemetry(t.net.ID, *frame.Telemetry))
		}
	case "control":
		if frame.Packet != nil {
			packet := *frame.Packet
			if t.net.Secure.Enabled && packet.Payload != nil {
				if clear, err := openPayload(packet.Payload, t.net.Secure.KeyVersion); err == nil {
					packet.Payload = clear
				}
			}
			t.emit(event.NewControlPacket(t.net.ID, packet))
		}
	case "error":
		t.emit(event.NewTransportError(t.net.ID, frame.Message))
	case "disconnect":
		t.emit(event.NewDisconnected(t.net.ID, frame.Message))
	default:
		t.log.Debug("Unknown media frame", "op", frame.Op)
	}
}

func (t *MediaTransport) Disconnect() error {
	t.mu.Lock()
	if t.closing {
		t.mu.Unlock()
		return nil
	}
	t.closing = true
	conn := t.conn
	t.conn = nil
	t.mu.Unlock()

	if conn != nil {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "leaving"),
			time.Now().Add(mediaWriteTimeout))
		_ = conn.Close()
	}
	close(t.events)
	return nil
}

func (t *MediaTransport) isClosing() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closing
}

func (t *MediaTransport) send(frame mediaFrame) error {
	t.mu.Lock()
	conn := t.conn
	t.mu.Unlock()
	if conn == nil {
		return apperrors.ErrNotConnected
	}
	_ = conn.SetWriteDeadline(time.Now().Add(mediaWriteTimeout))
	payload, err := json.Marshal(frame)
	if err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, payload)
}

func (t *MediaTransport) SetMicEnabled(enabled bool) {
	if err := t.send(mediaFrame{Op: "mic", Enabled: &enabled}); err != nil {
		t.log.Warn("Failed to toggle mic", "error", err)
	}
}

func (t *MediaTransport) SetPTTActive(active bool) {
	if err := t.send(mediaFrame{Op: "ptt", Enabled: &active}); err != nil {
		t.log.Warn("Failed to signal PTT", "error", err)
	}
}

func (t *MediaTransport) SetOutputDevice(deviceID string) error {
	return t.send(mediaFrame{Op: "output_device", DeviceID: deviceID})
}

func (t *MediaTransport) SetAudioDevice(deviceID string) error {
	return t.send(mediaFrame{Op: "input_device", DeviceID: deviceID})
}

func (t *MediaTransport) SetParticipantGain(participantID string, gainDb float64) error {
	return t.send(mediaFrame{Op: "gain", ParticipantID: participantID, GainDb: gainDb})
}

func (t *MediaTransport) SetNormalizationEnabled(enabled bool) {
	if err := t.send(mediaFrame{Op: "normalization", Enabled: &enabled}); err != nil {
		t.log.Warn("Failed to toggle normalization", "error", err)
	}
}

func (t *MediaTransport) SetSubmixRouting(routing domain.SubmixRouting) error {
	monitor := make([]string, 0, len(routing.Monitor))
	for _, bus := range routing.Monitor {
		monitor = append(monitor, string(bus))
	}
	return t.send(mediaFrame{Op: "submix", Monitor: monitor, Tx: string(routing.Tx)})
}

func (t *MediaTransport) PublishControlPacket(packet domain.CommandBusPacket) error {
	if t.net.Secure.Enabled && packet.Payload != nil {
		sealed, err := sealPayload(packet.Payload, t.net.Secure.KeyVersion)
		if err != nil {
			return err
		}
		packet.Payload = sealed
	}
	return t.send(mediaFrame{Op: "control", Packet: &packet})
}

func (t *MediaTransport) emit(e event.TransportEvent) {
	defer func() { _ = recover() }()
	select {
	case t.events <- e:
	default:
		t.log.Debug("Media event dropped, channel full", "net", t.net.ID)
	}
}
