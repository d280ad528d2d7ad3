package runtime

import (
	"context"
	"fmt"
	"time"

	"github.com/samber/lo"

	"voicenet/backend"
	"voicenet/contract"
	"voicenet/domain"
	apperrors "voicenet/errors"
)

const (
	gainMinDb = -18.0
	gainMaxDb = 12.0
)

// StartWhisper opens a whisper lane to one participant, layered over the
// transmit net. At most one lane exists at a time; starting a new one
// replaces the previous target.
func (o *Orchestrator) StartWhisper(ctx context.Context, target string) error {
	o.mu.Lock()
	if o.transmitNetID == nil {
		o.mu.Unlock()
		return apperrors.ErrNoTransmitNet
	}
	netID := *o.transmitNetID
	s, ok := o.nets[netID]
	if !ok || s.state != domain.ConnectionConnected {
		o.mu.Unlock()
		return fmt.Errorf("%w: %s", apperrors.ErrNotConnected, netID)
	}
	o.whisper = domain.WhisperState{Active: true, Target: target}
	adapter := s.adapter
	keyed := o.pttPhase == PTTGranted
	o.mu.Unlock()

	// If the user is already keyed, the lane change is announced right away;
	// otherwise the next StartPTT carries it.
	if keyed {
		o.mirrorWhisper(adapter, netID, target, true)
	}
	o.log.Info("Whisper lane opened", "net", netID, "target", target)
	return nil
}

// StopWhisper closes the whisper lane. No-op when none is open.
func (o *Orchestrator) StopWhisper(ctx context.Context) {
	o.mu.Lock()
	if !o.whisper.Active {
		o.mu.Unlock()
		return
	}
	target := o.whisper.Target
	o.whisper = domain.WhisperState{}
	var adapter contract.Transport
	var netID domain.NetID
	keyed := o.pttPhase == PTTGranted
	if o.transmitNetID != nil {
		netID = *o.transmitNetID
		if s, ok := o.nets[netID]; ok {
			adapter = s.adapter
		}
	}
	o.mu.Unlock()

	if keyed && adapter != nil {
		o.mirrorWhisper(adapter, netID, target, false)
	}
	o.log.Info("Whisper lane closed", "target", target)
}

// startWhisperHotkey handles the whisper hotkey: it keys PTT toward the
// remembered whisper target, falling back to plain PTT when no lane is set.
func (o *Orchestrator) startWhisperHotkey(ctx context.Context) error {
	o.mu.Lock()
	target := o.whisper.Target
	o.mu.Unlock()
	if target == "" {
		return o.StartPTT(ctx)
	}
	if err := o.StartWhisper(ctx, target); err != nil {
		return err
	}
	return o.StartPTT(ctx)
}

// mirrorWhisper publishes the lane start/stop control packet so other
// participants can render the whisper indicator.
func (o *Orchestrator) mirrorWhisper(adapter contract.Transport, netID domain.NetID, target string, start bool) {
	packetType := domain.PacketWhisperStop
	if start {
		packetType = domain.PacketWhisperStart
	}
	packet := domain.CommandBusPacket{
		Type:   packetType,
		NetID:  netID,
		SentAt: time.Now().UTC(),
		Payload: map[string]any{
			"lane":   string(domain.PacketWhisperLane),
			"target": target,
		},
	}
	if err := adapter.PublishControlPacket(packet); err != nil {
		o.log.Debug("Whisper lane packet dropped", "net", netID, "err", err)
	}
}

// ConfigureSubmix replaces the monitor set and transmit bus. The monitor
// list is deduplicated and always includes the tx bus; the result is pushed
// to every live adapter before it is persisted locally.
func (o *Orchestrator) ConfigureSubmix(ctx context.Context, routing domain.SubmixRouting) error {
	if routing.Tx == "" {
		routing.Tx = domain.SubmixSquad
	}
	routing.Monitor = lo.Uniq(append(routing.Monitor, routing.Tx))

	o.mu.Lock()
	o.routing = routing
	adapters := make([]contract.Transport, 0, len(o.nets))
	for _, s := range o.nets {
		if s.adapter != nil && s.state == domain.ConnectionConnected {
			adapters = append(adapters, s.adapter)
		}
	}
	o.mu.Unlock()

	for _, adapter := range adapters {
		if err := adapter.SetSubmixRouting(routing); err != nil {
			o.log.Warn("Submix routing rejected by transport", "err", err)
		}
	}
	o.mirrorConsole(ctx, backend.ActionSetVoiceSubmixProfile, map[string]any{
		"monitor": routing.Monitor,
		"tx":      routing.Tx,
	})
	return nil
}

// SetParticipantGain adjusts one participant's receive gain, clamped to the
// -18..+12 dB range every mixer accepts.
func (o *Orchestrator) SetParticipantGain(ctx context.Context, netID domain.NetID, participantID string, gainDb float64) error {
	gainDb = lo.Clamp(gainDb, gainMinDb, gainMaxDb)

	o.mu.Lock()
	s, ok := o.nets[netID]
	if !ok || s.adapter == nil {
		o.mu.Unlock()
		return fmt.Errorf("%w: %s", apperrors.ErrNotConnected, netID)
	}
	adapter := s.adapter
	o.mu.Unlock()

	return adapter.SetParticipantGain(participantID, gainDb)
}

// SetOutputDevice routes incoming audio to the given output device on every
// live adapter.
func (o *Orchestrator) SetOutputDevice(ctx context.Context, deviceID string) error {
	o.mu.Lock()
	o.outputDevice = deviceID
	adapters := o.liveAdaptersLocked()
	o.mu.Unlock()

	for _, adapter := range adapters {
		if err := adapter.SetOutputDevice(deviceID); err != nil {
			return err
		}
	}
	o.mirrorConsole(ctx, backend.ActionSetVoiceOutputProfile, map[string]any{"output_device": deviceID})
	return nil
}

// SetAudioDevice selects the capture device on every live adapter.
func (o *Orchestrator) SetAudioDevice(ctx context.Context, deviceID string) error {
	o.mu.Lock()
	o.inputDevice = deviceID
	adapters := o.liveAdaptersLocked()
	o.mu.Unlock()

	for _, adapter := range adapters {
		if err := adapter.SetAudioDevice(deviceID); err != nil {
			return err
		}
	}
	return nil
}

// SetMicMuted hard-mutes capture on every live adapter. The mute survives
// net joins and reconnects until toggled back.
func (o *Orchestrator) SetMicMuted(ctx context.Context, muted bool) {
	o.mu.Lock()
	o.micMuted = muted
	adapters := o.liveAdaptersLocked()
	o.mu.Unlock()
	for _, adapter := range adapters {
		adapter.SetMicEnabled(!muted)
	}
	o.log.Info("Mic mute set", "muted", muted)
}

// MicMuted reports the hard-mute flag.
func (o *Orchestrator) MicMuted() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.micMuted
}

// SetNormalizationEnabled toggles loudness normalization on every live
// adapter.
func (o *Orchestrator) SetNormalizationEnabled(ctx context.Context, enabled bool) {
	o.mu.Lock()
	adapters := o.liveAdaptersLocked()
	o.mu.Unlock()
	for _, adapter := range adapters {
		adapter.SetNormalizationEnabled(enabled)
	}
}

func (o *Orchestrator) liveAdaptersLocked() []contract.Transport {
	adapters := make([]contract.Transport, 0, len(o.nets))
	for _, s := range o.nets {
		if s.adapter != nil && s.live() {
			adapters = append(adapters, s.adapter)
		}
	}
	return adapters
}
