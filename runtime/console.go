package runtime

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"voicenet/backend"
	"voicenet/contract"
	"voicenet/domain"
	apperrors "voicenet/errors"
)

// PublishCommandBusAction sends a structured control packet to the net.
// The packet reaches the local ring when the transport echoes it back; with
// no live adapter it lands on the ring directly so local subscribers still
// see it.
func (o *Orchestrator) PublishCommandBusAction(ctx context.Context, packet domain.CommandBusPacket) error {
	if packet.SentAt.IsZero() {
		packet.SentAt = time.Now().UTC()
	}

	o.mu.Lock()
	s, ok := o.nets[packet.NetID]
	var adapter contract.Transport
	if ok && s.state == domain.ConnectionConnected {
		adapter = s.adapter
	}
	o.mu.Unlock()

	if adapter == nil {
		o.deps.Bus.Publish(packet)
		return nil
	}
	return adapter.PublishControlPacket(packet)
}

// TriggerPriorityOverride broadcasts the command-rank "all quiet" packet and
// notifies the backend so the callout is archived.
func (o *Orchestrator) TriggerPriorityOverride(ctx context.Context, netID domain.NetID, issuer domain.User) error {
	if !issuer.Rank.CommandEquivalent() {
		return fmt.Errorf("%w: priority override requires command rank", apperrors.ErrAccessDenied)
	}
	packet := domain.CommandBusPacket{
		Type:   domain.PacketPriorityOverride,
		NetID:  netID,
		SentAt: time.Now().UTC(),
		Payload: map[string]any{
			"issuer":   issuer.ID,
			"callsign": issuer.Callsign,
		},
	}
	if err := o.PublishCommandBusAction(ctx, packet); err != nil {
		return err
	}
	o.mirrorConsole(ctx, backend.ActionIssuePriorityCallout, map[string]any{
		"issuer": issuer.ID, "net_id": string(netID),
	})
	return nil
}

// RequestToSpeak files a hail under request-to-speak discipline and mirrors
// it on the bus so moderators see the pending queue.
func (o *Orchestrator) RequestToSpeak(ctx context.Context, netID domain.NetID, requester domain.User, reason string) (string, error) {
	res, err := o.deps.Console.Invoke(ctx, backend.ActionRequestToSpeak, netID, map[string]any{
		"requester_id": requester.ID,
		"reason":       reason,
	})
	if err != nil {
		return "", err
	}
	requestID, _ := res["request_id"].(string)

	packet := domain.CommandBusPacket{
		Type:   domain.PacketSpeakRequest,
		NetID:  netID,
		SentAt: time.Now().UTC(),
		Payload: map[string]any{
			"request_id": requestID,
			"requester":  requester.ID,
			"reason":     reason,
		},
	}
	if err := o.PublishCommandBusAction(ctx, packet); err != nil {
		o.log.Debug("Speak request packet dropped", "net", netID, "err", err)
	}
	return requestID, nil
}

// ResolveSpeakRequest approves or denies a pending hail. Command rank only.
func (o *Orchestrator) ResolveSpeakRequest(ctx context.Context, netID domain.NetID, moderator domain.User, requestID string, status domain.SpeakRequestStatus) error {
	if !moderator.Rank.CommandEquivalent() {
		return fmt.Errorf("%w: resolving speak requests requires command rank", apperrors.ErrAccessDenied)
	}
	if _, err := o.deps.Console.Invoke(ctx, backend.ActionResolveSpeakRequest, netID, map[string]any{
		"request_id": requestID,
		"status":     string(status),
	}); err != nil {
		return err
	}

	packet := domain.CommandBusPacket{
		Type:   domain.PacketSpeakResolution,
		NetID:  netID,
		SentAt: time.Now().UTC(),
		Payload: map[string]any{
			"request_id": requestID,
			"status":     string(status),
			"moderator":  moderator.ID,
		},
	}
	if err := o.PublishCommandBusAction(ctx, packet); err != nil {
		o.log.Debug("Speak resolution packet dropped", "net", netID, "err", err)
	}
	return nil
}

// SetDisciplineMode changes a net's discipline at runtime. Command rank
// only; the change is applied locally, announced on the bus and mirrored to
// the backend.
func (o *Orchestrator) SetDisciplineMode(ctx context.Context, netID domain.NetID, moderator domain.User, mode domain.DisciplineMode) error {
	if !moderator.Rank.CommandEquivalent() {
		return fmt.Errorf("%w: changing discipline requires command rank", apperrors.ErrAccessDenied)
	}

	o.mu.Lock()
	if s, ok := o.nets[netID]; ok {
		s.net.DisciplineMode = mode
	}
	o.mu.Unlock()

	o.mirrorConsole(ctx, backend.ActionSetVoiceDisciplineMode, map[string]any{
		"net_id": string(netID), "mode": string(mode),
	})
	packet := domain.CommandBusPacket{
		Type:   domain.PacketDisciplineChange,
		NetID:  netID,
		SentAt: time.Now().UTC(),
		Payload: map[string]any{
			"mode":      string(mode),
			"moderator": moderator.ID,
		},
	}
	return o.PublishCommandBusAction(ctx, packet)
}

// SetSecureMode toggles a net's secure flag. Key material rotates with the
// version, so the change is announced before local state flips.
func (o *Orchestrator) SetSecureMode(ctx context.Context, netID domain.NetID, moderator domain.User, secure domain.SecureMode) error {
	if !moderator.Rank.CommandEquivalent() {
		return fmt.Errorf("%w: changing secure mode requires command rank", apperrors.ErrAccessDenied)
	}
	packet := domain.CommandBusPacket{
		Type:   domain.PacketSecureModeChange,
		NetID:  netID,
		SentAt: time.Now().UTC(),
		Payload: map[string]any{
			"enabled":     secure.Enabled,
			"key_version": secure.KeyVersion,
		},
	}
	if err := o.PublishCommandBusAction(ctx, packet); err != nil {
		return err
	}

	o.mu.Lock()
	if s, ok := o.nets[netID]; ok {
		s.net.Secure = secure
	}
	o.mu.Unlock()

	o.mirrorConsole(ctx, backend.ActionSetVoiceSecureMode, map[string]any{
		"net_id": string(netID), "enabled": secure.Enabled, "key_version": secure.KeyVersion,
	})
	return nil
}

// SetHotkeyProfile swaps the active binding profile and mirrors the choice.
func (o *Orchestrator) SetHotkeyProfile(ctx context.Context, user domain.User, profile domain.HotkeyProfile) {
	o.deps.Hotkeys.SetProfile(profile)
	o.mirrorConsole(ctx, backend.ActionSetVoiceHotkeyProfile, map[string]any{
		"user_id": user.ID, "profile_id": profile.ID,
	})
}

// SetLoadout applies an audio processing profile and mirrors the choice.
func (o *Orchestrator) SetLoadout(ctx context.Context, user domain.User, loadout domain.Loadout) error {
	if err := validateLoadout(loadout); err != nil {
		return err
	}
	o.mirrorConsole(ctx, backend.ActionSetVoiceLoadout, map[string]any{
		"user_id": user.ID, "name": loadout.Name,
	})
	return nil
}

// SendCommandWhisper routes a command-rank text whisper through the backend
// and announces it on the bus for the target's client.
func (o *Orchestrator) SendCommandWhisper(ctx context.Context, netID domain.NetID, sender domain.User, targetID, message string) error {
	if !sender.Rank.CommandEquivalent() {
		return fmt.Errorf("%w: command whispers require command rank", apperrors.ErrAccessDenied)
	}
	if _, err := o.deps.Console.Invoke(ctx, backend.ActionSendCommandWhisper, netID, map[string]any{
		"sender_id": sender.ID, "target_id": targetID, "message": message,
	}); err != nil {
		return err
	}
	packet := domain.CommandBusPacket{
		Type:   domain.PacketCommandWhisper,
		NetID:  netID,
		SentAt: time.Now().UTC(),
		Payload: map[string]any{
			"sender": sender.ID,
			"target": targetID,
		},
	}
	return o.PublishCommandBusAction(ctx, packet)
}

// AcknowledgeCommandWhisper confirms receipt of a command whisper.
func (o *Orchestrator) AcknowledgeCommandWhisper(ctx context.Context, netID domain.NetID, user domain.User) error {
	o.mirrorConsole(ctx, backend.ActionAcknowledgeCommandWhisper, map[string]any{"user_id": user.ID})
	packet := domain.CommandBusPacket{
		Type:   domain.PacketCommandWhisperAck,
		NetID:  netID,
		SentAt: time.Now().UTC(),
		Payload: map[string]any{
			"user": user.ID,
		},
	}
	return o.PublishCommandBusAction(ctx, packet)
}

var validate = validator.New()

func validateLoadout(loadout domain.Loadout) error {
	return validate.Struct(loadout)
}

// mirrorConsole invokes a backend console action best-effort. Failures are
// logged and swallowed; local state has already moved on.
func (o *Orchestrator) mirrorConsole(ctx context.Context, action contract.ConsoleAction, payload map[string]any) {
	if o.deps.Console == nil {
		return
	}
	var netID domain.NetID
	if id := o.TransmitNetID(); id != nil {
		netID = *id
	}
	if raw, ok := payload["net_id"].(string); ok {
		netID = domain.NetID(raw)
	}
	if _, err := o.deps.Console.Invoke(ctx, action, netID, payload); err != nil {
		o.log.Debug("Console mirror dropped", "action", action, "err", err)
	}
}
