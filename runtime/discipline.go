package runtime

import (
	"context"
	"fmt"
	"time"

	"voicenet/contract"
	"voicenet/domain"
	apperrors "voicenet/errors"
	"voicenet/hotkey"
	"voicenet/policy"
)

// StartPTT keys the transmit net. The request goes through the discipline
// evaluator first; on denial the transport is never touched, so no audio
// can leak out of an ineligible client.
func (o *Orchestrator) StartPTT(ctx context.Context) error {
	o.mu.Lock()
	if o.transmitNetID == nil {
		o.pttPhase = PTTDenied
		o.mu.Unlock()
		return apperrors.ErrNoTransmitNet
	}
	netID := *o.transmitNetID
	s, ok := o.nets[netID]
	if !ok || s.state != domain.ConnectionConnected {
		o.pttPhase = PTTIdle
		o.mu.Unlock()
		return fmt.Errorf("%w: %s", apperrors.ErrNotConnected, netID)
	}
	if o.micDenied {
		o.pttPhase = PTTDenied
		o.mu.Unlock()
		return apperrors.ErrMicPermissionDenied
	}

	o.pttPhase = PTTRequesting
	decision := o.deps.Policy.Evaluate(s.user, s.net, policy.ActionTransmit)
	if !decision.Allowed {
		o.pttPhase = PTTDenied
		s.lastError = decision.Reason
		o.mu.Unlock()
		o.deps.Monitoring.IncrDisciplineDenied()
		o.log.Info("PTT denied by net discipline", "net", netID, "reason", decision.Reason)
		return fmt.Errorf("%w: %s", apperrors.ErrDisciplineViolation, decision.Reason)
	}

	o.pttPhase = PTTGranted
	o.pttUser = s.user
	adapter := s.adapter
	whisper := o.whisper
	sessionID := s.sessionID
	o.stopDebounceLocked()
	o.debounceTimer = time.AfterFunc(o.opts.SpeakingDebounce, func() {
		o.markSpeaking(netID, sessionID, true)
	})
	o.mu.Unlock()

	adapter.SetPTTActive(true)
	if whisper.Active {
		o.mirrorWhisper(adapter, netID, whisper.Target, true)
	}
	return nil
}

// StopPTT releases the key. It runs unconditionally whatever the current
// phase, so a missed grant or a stale denial can never leave the mic hot.
func (o *Orchestrator) StopPTT(ctx context.Context) {
	o.mu.Lock()
	wasGranted := o.pttPhase == PTTGranted
	o.pttPhase = PTTIdle
	o.stopDebounceLocked()

	var adapter contract.Transport
	var netID domain.NetID
	var sessionID string
	whisper := o.whisper
	if o.transmitNetID != nil {
		netID = *o.transmitNetID
		if s, ok := o.nets[netID]; ok {
			adapter = s.adapter
			sessionID = s.sessionID
		}
	}
	o.mu.Unlock()

	if !wasGranted || adapter == nil {
		return
	}
	adapter.SetPTTActive(false)
	if whisper.Active {
		o.mirrorWhisper(adapter, netID, whisper.Target, false)
	}
	o.markSpeaking(netID, sessionID, false)
}

// WindowBlur is the fail-safe hook: losing window focus releases PTT
// because the key-up event may never arrive.
func (o *Orchestrator) WindowBlur(ctx context.Context) {
	o.StopPTT(ctx)
}

// HandleKeyDown feeds a raw key event through the hotkey binder.
func (o *Orchestrator) HandleKeyDown(ctx context.Context, key string, focus hotkey.FocusContext) error {
	switch o.deps.Hotkeys.Resolve(key, focus) {
	case hotkey.ActionPTT:
		return o.StartPTT(ctx)
	case hotkey.ActionWhisper:
		return o.startWhisperHotkey(ctx)
	default:
		return nil
	}
}

func (o *Orchestrator) HandleKeyUp(ctx context.Context, key string, focus hotkey.FocusContext) {
	switch o.deps.Hotkeys.Resolve(key, focus) {
	case hotkey.ActionPTT:
		o.StopPTT(ctx)
	case hotkey.ActionWhisper:
		o.StopWhisper(ctx)
	}
}

// stopPTTLocked is the lock-held variant used when other transitions must
// release the key atomically, for example switching the transmit net.
func (o *Orchestrator) stopPTTLocked() {
	wasGranted := o.pttPhase == PTTGranted
	o.pttPhase = PTTIdle
	o.stopDebounceLocked()
	if !wasGranted || o.transmitNetID == nil {
		return
	}
	if s, ok := o.nets[*o.transmitNetID]; ok && s.adapter != nil {
		s.adapter.SetPTTActive(false)
	}
}

func (o *Orchestrator) stopDebounceLocked() {
	if o.debounceTimer != nil {
		o.debounceTimer.Stop()
		o.debounceTimer = nil
	}
}

// markSpeaking propagates the debounced speaking flag to the session store
// and the presence service. Best-effort on both.
func (o *Orchestrator) markSpeaking(netID domain.NetID, sessionID string, speaking bool) {
	ctx := context.Background()
	if sessionID != "" {
		if err := o.deps.Sessions.UpdateSessionHeartbeat(ctx, sessionID, time.Now().UTC(), speaking); err != nil {
			o.log.Debug("Speaking flag not persisted", "session", sessionID, "err", err)
		}
	}
	status := domain.PresenceInCall
	if speaking {
		status = domain.PresenceTransmitting
	}
	o.writePresence(ctx, status, &netID, speaking)
}
