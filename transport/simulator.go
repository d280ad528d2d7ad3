// Package transport holds the two Transport implementations (local
// simulator and real-time media transport) plus the factory that decides
// between them per join.
package transport

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"voicenet/auth"
	"voicenet/contract"
	"voicenet/domain"
	"voicenet/domain/event"
)

const (
	simDialDelay      = 10 * time.Millisecond
	simTelemetryEvery = 2 * time.Second
)

// Simulator is the local-only loopback transport used for degraded offline
// mode and tests. It connects instantly, synthesizes a small roster and
// telemetry ticks, and echoes published control packets back as events.
type Simulator struct {
	mu        sync.Mutex
	log       *slog.Logger
	net       domain.Net
	user      domain.User
	events    chan event.TransportEvent
	stop      chan struct{}
	connected bool
	micOn     bool
	pttOn     bool
	routing   domain.SubmixRouting
	gains     map[string]float64
}

func NewSimulator(log *slog.Logger, net domain.Net) *Simulator {
	return &Simulator{
		log:     log,
		net:     net,
		events:  make(chan event.TransportEvent, 64),
		stop:    make(chan struct{}),
		micOn:   true,
		routing: domain.DefaultSubmixRouting(),
		gains:   make(map[string]float64),
	}
}

func (s *Simulator) Events() <-chan event.TransportEvent { return s.events }

func (s *Simulator) Connect(ctx context.Context, params contract.ConnectParams) error {
	s.mu.Lock()
	if s.connected {
		s.mu.Unlock()
		return nil
	}
	if params.Token != "" {
		if _, err := auth.ValidateVoiceToken(params.Token); err != nil {
			s.mu.Unlock()
			return fmt.Errorf("simulator rejected token: %w", err)
		}
	}
	s.user = params.User
	s.connected = true
	s.mu.Unlock()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(simDialDelay):
	}

	s.emit(event.NewConnected(s.net.ID))
	s.emit(event.NewParticipantJoined(s.net.ID, domain.Participant{
		UserID:   "sim-ops",
		Callsign: "SIM-OPS",
		ClientID: "sim-ops-1",
	}))

	go s.telemetryLoop()
	return nil
}

func (s *Simulator) telemetryLoop() {
	ticker := time.NewTicker(simTelemetryEvery)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.emit(event.NewTelemetry(s.net.ID, domain.TelemetrySnapshot{
				RttMs:         18,
				JitterMs:      2,
				PacketLossPct: 0,
				MosProxy:      4.4,
			}))
		}
	}
}

func (s *Simulator) Disconnect() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.connected {
		return nil
	}
	s.connected = false
	close(s.stop)
	close(s.events)
	return nil
}

func (s *Simulator) SetMicEnabled(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.micOn = enabled
}

// SetPTTActive mirrors the local speaking state back through the event
// channel, like the real transport's server does.
func (s *Simulator) SetPTTActive(active bool) {
	s.mu.Lock()
	s.pttOn = active
	userID := s.user.ID
	connected := s.connected
	s.mu.Unlock()
	if connected && userID != "" {
		s.emit(event.NewSpeakingChanged(s.net.ID, userID, active))
	}
}

func (s *Simulator) SetOutputDevice(deviceID string) error { return nil }

func (s *Simulator) SetAudioDevice(deviceID string) error { return nil }

func (s *Simulator) SetParticipantGain(participantID string, gainDb float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gains[participantID] = gainDb
	return nil
}

func (s *Simulator) SetNormalizationEnabled(enabled bool) {}

func (s *Simulator) SetSubmixRouting(routing domain.SubmixRouting) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.routing = routing
	return nil
}

// PublishControlPacket loops the packet straight back. Under secure mode
// the payload round-trips through the sealer, so the echo carries the clear
// payload a receiving client would see after opening the wire form.
func (s *Simulator) PublishControlPacket(packet domain.CommandBusPacket) error {
	s.mu.Lock()
	connected := s.connected
	s.mu.Unlock()
	if !connected {
		return nil
	}
	if s.net.Secure.Enabled && packet.Payload != nil {
		sealed, err := sealPayload(packet.Payload, s.net.Secure.KeyVersion)
		if err != nil {
			return err
		}
		opened, err := openPayload(sealed, s.net.Secure.KeyVersion)
		if err != nil {
			return err
		}
		packet.Payload = opened
	}
	s.emit(event.NewControlPacket(s.net.ID, packet))
	return nil
}

// Inject feeds an arbitrary event into the stream. Test hook: lets callers
// simulate remote disconnects, roster churn and telemetry.
func (s *Simulator) Inject(e event.TransportEvent) {
	s.emit(e)
}

func (s *Simulator) emit(e event.TransportEvent) {
	defer func() {
		// Events channel may already be closed by Disconnect; a late
		// telemetry tick must not crash the process.
		_ = recover()
	}()
	select {
	case s.events <- e:
	default:
		s.log.Debug("Simulator event dropped, channel full", "net", s.net.ID)
	}
}

// Routing returns the last applied submix routing. Used by tests.
func (s *Simulator) Routing() domain.SubmixRouting {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.routing
}

// PTTActive reports the last asserted PTT signal. Used by tests.
func (s *Simulator) MicEnabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.micOn
}

func (s *Simulator) PTTActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pttOn
}
