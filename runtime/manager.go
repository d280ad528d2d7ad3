package runtime

import (
	"context"
	"time"

	"voicenet/domain"
	"voicenet/policy"
)

// JoinOptions modulates a join request. MonitorOnly joins listen without
// taking over the transmit slot; Confirmed acknowledges a focused net's
// confirmation prompt.
type JoinOptions struct {
	MonitorOnly bool
	Confirmed   bool
}

// JoinResult reports the outcome of a join attempt. RequiresConfirmation
// means no side effect happened and the caller should re-issue the join
// with Confirmed set after prompting the user.
type JoinResult struct {
	Success              bool
	RequiresConfirmation bool
	Net                  domain.Net
	Error                string
}

// Join connects the user to a net and adds it to the monitored set.
// Joining an already-monitored net is a no-op, except that a non-monitor
// join promotes the net to the transmit slot.
func (o *Orchestrator) Join(ctx context.Context, idOrCode string, user domain.User, opts JoinOptions) JoinResult {
	net, err := o.deps.Catalog.Resolve(idOrCode)
	if err != nil {
		return JoinResult{Error: err.Error()}
	}

	o.mu.Lock()
	o.localUser = user
	if s, ok := o.nets[net.ID]; ok {
		if s.state != domain.ConnectionError {
			promote := !opts.MonitorOnly && (o.transmitNetID == nil || *o.transmitNetID != net.ID)
			o.mu.Unlock()
			if promote {
				if err := o.setTransmit(ctx, net.ID); err != nil {
					return JoinResult{Net: net, Error: err.Error()}
				}
			}
			return JoinResult{Success: true, Net: net}
		}

		// A net stranded in terminal error state is rejoined from scratch:
		// the stale session is torn down and the join dials fresh.
		s.stopTimers()
		delete(o.nets, net.ID)
		if o.transmitNetID != nil && *o.transmitNetID == net.ID {
			o.transmitNetID = nil
			o.pttPhase = PTTIdle
			o.whisper = domain.WhisperState{}
			o.stopDebounceLocked()
		}
		stale, sessionID := s.adapter, s.sessionID
		o.mu.Unlock()
		if sessionID != "" {
			if err := o.deps.Sessions.RemoveVoiceSession(ctx, sessionID); err != nil {
				o.log.Debug("Stale voice session removal failed", "session", sessionID, "err", err)
			}
		}
		if stale != nil {
			_ = stale.Disconnect()
		}
		o.mu.Lock()
	}

	if net.RequiresJoinConfirmation() && !opts.Confirmed {
		o.mu.Unlock()
		return JoinResult{RequiresConfirmation: true, Net: net}
	}

	if decision := o.deps.Policy.Evaluate(user, net, policy.ActionReceive); !decision.Allowed {
		o.mu.Unlock()
		return JoinResult{Net: net, Error: decision.Reason}
	}

	// The placeholder session serializes concurrent joins of the same net:
	// later callers hit the idempotent branch above while this one dials.
	s := newNetSession(net, user, opts.MonitorOnly)
	o.nets[net.ID] = s
	o.mu.Unlock()

	adapter, params := o.deps.Factory.New(ctx, net, user)
	if err := adapter.Connect(ctx, params); err != nil {
		o.mu.Lock()
		s.state = domain.ConnectionError
		s.lastError = err.Error()
		o.mu.Unlock()
		o.log.Error("Net join failed", "net", net.ID, "err", err)
		return JoinResult{Net: net, Error: err.Error()}
	}

	o.mu.Lock()
	if cur, still := o.nets[net.ID]; !still || cur != s {
		// The net was left while the dial was in flight; the fresh
		// adapter must not outlive the abandoned session.
		o.mu.Unlock()
		_ = adapter.Disconnect()
		return JoinResult{Net: net, Error: "net left during join"}
	}
	s.adapter = adapter
	s.params = params
	s.state = domain.ConnectionConnected
	routing := o.routing
	muted := o.micMuted
	o.mu.Unlock()

	go o.dispatchLoop(net.ID, adapter)

	if err := adapter.SetSubmixRouting(routing); err != nil {
		o.log.Warn("Submix routing not applied on join", "net", net.ID, "err", err)
	}
	if muted {
		adapter.SetMicEnabled(false)
	}

	o.registerSession(ctx, s)

	// Monitor-only joins leave presence untouched; in-call presence and
	// authority are effects of taking the transmit slot.
	if !opts.MonitorOnly {
		if err := o.setTransmit(ctx, net.ID); err != nil {
			o.log.Warn("Transmit slot not taken on join", "net", net.ID, "err", err)
		}
	}

	o.log.Info("Joined net", "net", net.ID, "monitor_only", opts.MonitorOnly)
	return JoinResult{Success: true, Net: net}
}

// ConfirmFocusedJoin completes a join that previously returned
// RequiresConfirmation.
func (o *Orchestrator) ConfirmFocusedJoin(ctx context.Context, idOrCode string, user domain.User, monitorOnly bool) JoinResult {
	return o.Join(ctx, idOrCode, user, JoinOptions{MonitorOnly: monitorOnly, Confirmed: true})
}

// registerSession records backend liveness and starts the heartbeat. Both
// are best-effort: the voice path works without the registry.
func (o *Orchestrator) registerSession(ctx context.Context, s *netSession) {
	sessionID, err := o.deps.Sessions.AddVoiceSession(ctx, domain.VoiceSession{
		NetID:       s.net.ID,
		UserID:      s.user.ID,
		Callsign:    s.user.Callsign,
		ClientID:    s.user.ClientID,
		StartedAt:   time.Now().UTC(),
		MonitorOnly: s.monitorOnly,
	})
	if err != nil {
		o.log.Warn("Voice session registration failed, heartbeat disabled", "net", s.net.ID, "err", err)
		return
	}

	o.mu.Lock()
	s.sessionID = sessionID
	hbCtx, cancel := context.WithCancel(o.ctx)
	s.cancelHeartbeat = cancel
	o.mu.Unlock()

	o.deps.Supervisor.Start(hbCtx, o.newHeartbeatWorker(s.net.ID, sessionID))
}

// Leave disconnects from a net and forgets it. Leaving a net that is not
// monitored is a no-op. If the transmit net is left, another monitored net
// is promoted when one exists.
func (o *Orchestrator) Leave(ctx context.Context, netID domain.NetID) {
	o.mu.Lock()
	s, ok := o.nets[netID]
	if !ok {
		o.mu.Unlock()
		return
	}
	s.stopTimers()
	delete(o.nets, netID)

	wasTransmit := o.transmitNetID != nil && *o.transmitNetID == netID
	var promoted *domain.NetID
	if wasTransmit {
		o.transmitNetID = nil
		o.pttPhase = PTTIdle
		o.whisper = domain.WhisperState{}
		o.stopDebounceLocked()
		for id := range o.nets {
			candidate := id
			promoted = &candidate
			break
		}
	}
	adapter, sessionID := s.adapter, s.sessionID
	o.mu.Unlock()

	o.deps.Monitoring.DropNet(netID)
	o.mu.Lock()
	delete(o.authorityHolders, netID)
	o.mu.Unlock()

	if sessionID != "" {
		if err := o.deps.Sessions.RemoveVoiceSession(ctx, sessionID); err != nil {
			o.log.Warn("Voice session removal failed", "session", sessionID, "err", err)
		}
	}
	if adapter != nil {
		if err := adapter.Disconnect(); err != nil {
			o.log.Debug("Transport disconnect reported error", "net", netID, "err", err)
		}
	}

	switch {
	case promoted != nil:
		if err := o.setTransmit(ctx, *promoted); err != nil {
			o.log.Warn("Transmit promotion failed after leave", "net", *promoted, "err", err)
		}
	case wasTransmit:
		o.writePresence(ctx, domain.PresenceOnline, nil, false)
	}

	o.log.Info("Left net", "net", netID)
}

// LeaveAll leaves every monitored net, used on shutdown and logout.
func (o *Orchestrator) LeaveAll(ctx context.Context) {
	for _, netID := range o.MonitoredNetIDs() {
		o.Leave(ctx, netID)
	}
}

// handleDisconnected drives automatic recovery: each unexpected disconnect
// schedules a delayed redial with exponential backoff, until the attempt
// budget is spent and the net lands in the terminal error state.
func (o *Orchestrator) handleDisconnected(netID domain.NetID, reason string) {
	o.mu.Lock()
	s, ok := o.nets[netID]
	if !ok || !s.live() {
		o.mu.Unlock()
		return
	}

	if s.reconnectAttempts >= MaxReconnectAttempts {
		s.state = domain.ConnectionError
		if reason != "" {
			s.lastError = reason
		}
		s.stopTimers()
		o.mu.Unlock()
		o.log.Error("Reconnect budget exhausted, net requires manual rejoin", "net", netID, "reason", reason)
		return
	}

	s.reconnectAttempts++
	s.state = domain.ConnectionReconnecting
	if reason != "" {
		s.lastError = reason
	}
	attempt := s.reconnectAttempts
	delay := o.opts.ReconnectDelay(attempt)
	if s.reconnectTimer != nil {
		s.reconnectTimer.Stop()
	}
	s.reconnectTimer = time.AfterFunc(delay, func() { o.attemptReconnect(netID) })
	o.mu.Unlock()

	o.deps.Monitoring.IncrReconnectsBegun()
	o.log.Warn("Net disconnected, reconnecting", "net", netID, "attempt", attempt, "delay", delay)
}

func (o *Orchestrator) attemptReconnect(netID domain.NetID) {
	o.mu.Lock()
	s, ok := o.nets[netID]
	if !ok || s.state != domain.ConnectionReconnecting {
		o.mu.Unlock()
		return
	}
	net, user := s.net, s.user
	ctx := o.ctx
	o.mu.Unlock()

	adapter, params := o.deps.Factory.New(ctx, net, user)
	if err := adapter.Connect(ctx, params); err != nil {
		o.handleDisconnected(netID, err.Error())
		return
	}

	o.mu.Lock()
	if cur, still := o.nets[netID]; !still || cur != s {
		o.mu.Unlock()
		_ = adapter.Disconnect()
		return
	}
	if s.adapter != nil {
		// Ends the previous dispatch loop by closing its event channel.
		_ = s.adapter.Disconnect()
	}
	s.adapter = adapter
	s.params = params
	s.state = domain.ConnectionConnected
	s.reconnectAttempts = 0
	s.lastError = ""
	routing := o.routing
	muted := o.micMuted
	o.mu.Unlock()

	go o.dispatchLoop(netID, adapter)
	if err := adapter.SetSubmixRouting(routing); err != nil {
		o.log.Warn("Submix routing not reapplied after reconnect", "net", netID, "err", err)
	}
	if muted {
		adapter.SetMicEnabled(false)
	}
	o.log.Info("Net reconnected", "net", netID)
}
