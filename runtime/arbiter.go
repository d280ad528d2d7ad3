package runtime

import (
	"context"
	"fmt"
	"time"

	"voicenet/domain"
	apperrors "voicenet/errors"
	"voicenet/runtime/workers"
)

// SetTransmitNet selects which net carries outgoing audio. A net that is
// not yet monitored is joined monitor-only first, so the transmit net is
// always a member of the monitored set.
func (o *Orchestrator) SetTransmitNet(ctx context.Context, netID domain.NetID, user domain.User) error {
	o.mu.Lock()
	_, monitored := o.nets[netID]
	o.mu.Unlock()

	if !monitored {
		res := o.Join(ctx, string(netID), user, JoinOptions{MonitorOnly: true, Confirmed: true})
		if !res.Success {
			return fmt.Errorf("%w: %s", apperrors.ErrAccessDenied, res.Error)
		}
	}
	return o.setTransmit(ctx, netID)
}

// setTransmit moves the transmit slot onto an already-monitored net.
func (o *Orchestrator) setTransmit(ctx context.Context, netID domain.NetID) error {
	o.mu.Lock()
	s, ok := o.nets[netID]
	if !ok {
		o.mu.Unlock()
		return fmt.Errorf("%w: net %s is not monitored", apperrors.ErrNetNotFound, netID)
	}
	if o.transmitNetID != nil && *o.transmitNetID == netID {
		o.mu.Unlock()
		return nil
	}

	// Switching transmit nets while keyed would leave the old net hot.
	o.stopPTTLocked()

	id := netID
	o.transmitNetID = &id
	o.whisper = domain.WhisperState{}
	user := s.user
	o.mu.Unlock()

	o.claimAuthority(ctx, netID, user)
	o.writePresence(ctx, domain.PresenceInCall, &id, false)
	o.log.Info("Transmit net set", "net", netID)
	return nil
}

// ClearTransmitNet drops the transmit slot while keeping the net monitored.
func (o *Orchestrator) ClearTransmitNet(ctx context.Context) {
	o.mu.Lock()
	if o.transmitNetID == nil {
		o.mu.Unlock()
		return
	}
	o.stopPTTLocked()
	o.transmitNetID = nil
	o.whisper = domain.WhisperState{}
	o.mu.Unlock()

	o.writePresence(ctx, domain.PresenceInCall, nil, false)
}

// claimAuthority writes the advisory floor-arbitration record. Last write
// wins and failures are tolerated: the record informs UI, never input.
func (o *Orchestrator) claimAuthority(ctx context.Context, netID domain.NetID, user domain.User) {
	claim := domain.TransmitAuthority{
		NetID:     netID,
		UserID:    user.ID,
		ClientID:  user.ClientID,
		ClaimedAt: time.Now().UTC(),
	}
	if err := o.deps.Authority.ClaimAuthority(ctx, claim); err != nil {
		o.log.Debug("Transmit authority claim failed", "net", netID, "err", err)
		return
	}
	if holder, err := o.deps.Authority.ReadAuthority(ctx, netID); err == nil {
		o.setAuthorityHolder(netID, holder)
	}
}

// writePresence mirrors voice state to the presence service, best-effort.
func (o *Orchestrator) writePresence(ctx context.Context, status domain.PresenceStatus, netID *domain.NetID, transmitting bool) {
	if o.deps.Presence == nil {
		return
	}
	o.mu.Lock()
	userID := o.localUser.ID
	o.mu.Unlock()
	if userID == "" {
		return
	}

	presence := domain.Presence{
		UserID:         userID,
		Status:         status,
		ActiveNetID:    netID,
		IsTransmitting: transmitting,
	}
	if err := o.deps.Presence.WritePresence(ctx, presence); err != nil {
		o.log.Debug("Presence write dropped", "err", err)
	}
}

func (o *Orchestrator) newHeartbeatWorker(netID domain.NetID, sessionID string) *workers.HeartbeatWorker {
	return workers.NewHeartbeatWorker(
		o.log, o.deps.Sessions, o.deps.Console,
		netID, sessionID, o.opts.HeartbeatInterval,
		func() bool { return o.PTTPhase() == PTTGranted },
	)
}
