package backend

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"voicenet/auth"
	"voicenet/contract"
	"voicenet/domain"
	apperrors "voicenet/errors"
	"voicenet/repositories"
)

// Memory is the local implementation of every backend contract. It is used
// by tests and by degraded offline operation; the simulator transport pairs
// with it naturally.
type Memory struct {
	mu            sync.RWMutex
	log           *slog.Logger
	radioLog      *repositories.RadioLogRepository
	tokenDuration time.Duration

	// Offline forces token minting to return nothing, which pushes the
	// transport factory onto the simulator path.
	Offline bool

	sessions      map[string]domain.VoiceSession
	presence      map[string]domain.Presence
	authority     map[domain.NetID]domain.TransmitAuthority
	speakRequests map[string]domain.SpeakRequest
	hotkeys       map[string]domain.HotkeyProfile
	loadouts      map[string]domain.Loadout
	threadLinks   map[domain.NetID]string
}

func NewMemory(log *slog.Logger, radioLog *repositories.RadioLogRepository, tokenDuration time.Duration) *Memory {
	return &Memory{
		log:           log,
		radioLog:      radioLog,
		tokenDuration: tokenDuration,
		sessions:      make(map[string]domain.VoiceSession),
		presence:      make(map[string]domain.Presence),
		authority:     make(map[domain.NetID]domain.TransmitAuthority),
		speakRequests: make(map[string]domain.SpeakRequest),
		hotkeys:       make(map[string]domain.HotkeyProfile),
		loadouts:      make(map[string]domain.Loadout),
		threadLinks:   make(map[domain.NetID]string),
	}
}

// MintVoiceToken issues a local HS256 token. Offline mode returns an empty
// token so callers fall back to the simulator transport.
func (m *Memory) MintVoiceToken(ctx context.Context, net domain.Net, user domain.User) (string, string, error) {
	if m.Offline {
		return "", "", nil
	}
	token, err := auth.GenerateVoiceToken(user, net.ID, m.tokenDuration)
	if err != nil {
		return "", "", err
	}
	return token, "sim://" + string(net.ID), nil
}

func (m *Memory) AddVoiceSession(ctx context.Context, session domain.VoiceSession) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	session.StartedAt = time.Now().UTC()
	session.LastBeatAt = session.StartedAt
	m.sessions[session.ID] = session
	return session.ID, nil
}

func (m *Memory) UpdateSessionHeartbeat(ctx context.Context, sessionID string, at time.Time, speaking bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.sessions[sessionID]
	if !ok {
		return fmt.Errorf("unknown voice session %s", sessionID)
	}
	session.LastBeatAt = at
	session.IsSpeaking = speaking
	m.sessions[sessionID] = session
	return nil
}

func (m *Memory) RemoveVoiceSession(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, sessionID)
	return nil
}

func (m *Memory) GetNetSessions(ctx context.Context, netID domain.NetID) ([]domain.VoiceSession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return lo.Filter(lo.Values(m.sessions), func(s domain.VoiceSession, _ int) bool {
		return s.NetID == netID
	}), nil
}

func (m *Memory) WritePresence(ctx context.Context, presence domain.Presence) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.presence[presence.UserID] = presence
	return nil
}

func (m *Memory) GetPresence(userID string) (domain.Presence, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.presence[userID]
	return p, ok
}

// ClaimAuthority is last-write-wins and idempotent per (net, user, client):
// re-claiming by the current holder keeps the original ClaimedAt.
func (m *Memory) ClaimAuthority(ctx context.Context, claim domain.TransmitAuthority) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if current, ok := m.authority[claim.NetID]; ok && current.HeldBy(claim.UserID, claim.ClientID) {
		return nil
	}
	if claim.ClaimedAt.IsZero() {
		claim.ClaimedAt = time.Now().UTC()
	}
	m.authority[claim.NetID] = claim
	return nil
}

func (m *Memory) ReadAuthority(ctx context.Context, netID domain.NetID) (*domain.TransmitAuthority, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if current, ok := m.authority[netID]; ok {
		return lo.ToPtr(current), nil
	}
	return nil, nil
}

// HasApprovedSpeakRequest satisfies the policy evaluator's approval lookup.
func (m *Memory) HasApprovedSpeakRequest(netID domain.NetID, userID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, r := range m.speakRequests {
		if r.NetID == netID && r.RequesterID == userID && r.Status == domain.SpeakRequestApproved {
			return true
		}
	}
	return false
}

// Invoke multiplexes every console action over one entry point, mirroring
// the backend's single function endpoint. Results are maps so callers can
// stay best-effort about their shape.
func (m *Memory) Invoke(ctx context.Context, action contract.ConsoleAction, netID domain.NetID, payload map[string]any) (map[string]any, error) {
	switch action {
	case ActionRecordVoiceTelemetry, ActionSetVoiceDisciplineMode, ActionSetVoiceOutputProfile,
		ActionSetVoiceSubmixProfile, ActionSyncOpVoiceTextPresence, ActionCaptureVoiceClip,
		ActionGenerateStructuredDraft, ActionSendCommandWhisper, ActionAcknowledgeCommandWhisper,
		ActionSetVoiceSecureMode:
		// Accepted and acknowledged; these actions only matter server-side.
		return map[string]any{"ok": true}, nil

	case ActionRequestToSpeak:
		return m.requestToSpeak(netID, payload)

	case ActionResolveSpeakRequest:
		return m.resolveSpeakRequest(payload)

	case ActionIssuePriorityCallout:
		m.log.Info("Priority callout issued", "net", netID)
		return map[string]any{"ok": true, "callout_id": uuid.NewString()}, nil

	case ActionAppendRadioLogEntry:
		return m.appendRadioLog(netID, payload)

	case ActionListRadioLog:
		return m.listRadioLog(netID, payload)

	case ActionLinkVoiceThread:
		m.mu.Lock()
		defer m.mu.Unlock()
		threadID, _ := payload["thread_id"].(string)
		m.threadLinks[netID] = threadID
		return map[string]any{"ok": true}, nil

	case ActionSetVoiceHotkeyProfile:
		m.mu.Lock()
		defer m.mu.Unlock()
		userID, _ := payload["user_id"].(string)
		profile := domain.DefaultHotkeyProfile()
		if id, ok := payload["profile_id"].(string); ok && id != "" {
			profile.ID = id
		}
		if label, ok := payload["label"].(string); ok && label != "" {
			profile.Label = label
		}
		m.hotkeys[userID] = profile
		return map[string]any{"ok": true}, nil

	case ActionSetVoiceLoadout:
		m.mu.Lock()
		defer m.mu.Unlock()
		userID, _ := payload["user_id"].(string)
		name, _ := payload["name"].(string)
		m.loadouts[userID] = domain.Loadout{Name: name}
		return map[string]any{"ok": true}, nil

	default:
		return nil, fmt.Errorf("%w: %s", apperrors.ErrUnknownConsoleAction, action)
	}
}

func (m *Memory) requestToSpeak(netID domain.NetID, payload map[string]any) (map[string]any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	requesterID, _ := payload["requester_id"].(string)
	reason, _ := payload["reason"].(string)
	request := domain.SpeakRequest{
		RequestID:   uuid.NewString(),
		NetID:       netID,
		RequesterID: requesterID,
		Reason:      reason,
		Status:      domain.SpeakRequestPending,
	}
	m.speakRequests[request.RequestID] = request
	return map[string]any{"request_id": request.RequestID, "status": string(request.Status)}, nil
}

func (m *Memory) resolveSpeakRequest(payload map[string]any) (map[string]any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	requestID, _ := payload["request_id"].(string)
	status, _ := payload["status"].(string)
	request, ok := m.speakRequests[requestID]
	if !ok {
		return nil, fmt.Errorf("unknown speak request %s", requestID)
	}
	request.Status = domain.SpeakRequestStatus(status)
	m.speakRequests[requestID] = request
	return map[string]any{"request_id": requestID, "status": status}, nil
}

func (m *Memory) appendRadioLog(netID domain.NetID, payload map[string]any) (map[string]any, error) {
	if m.radioLog == nil {
		return map[string]any{"ok": true}, nil
	}
	entry := repositories.RadioLogEntry{
		ID:    uuid.New(),
		NetID: netID,
		At:    time.Now().UTC(),
	}
	entry.Kind, _ = payload["kind"].(string)
	entry.Author, _ = payload["author"].(string)
	entry.Summary, _ = payload["summary"].(string)
	if err := m.radioLog.Append(entry); err != nil {
		return nil, err
	}
	return map[string]any{"ok": true, "entry_id": entry.ID.String()}, nil
}

func (m *Memory) listRadioLog(netID domain.NetID, payload map[string]any) (map[string]any, error) {
	if m.radioLog == nil {
		return map[string]any{"entries": []repositories.RadioLogEntry{}}, nil
	}
	var cursor *string
	if c, ok := payload["cursor"].(string); ok && c != "" {
		cursor = lo.ToPtr(c)
	}
	entries, next, err := m.radioLog.List(netID, cursor)
	if err != nil {
		return nil, err
	}
	res := map[string]any{"entries": entries}
	if next != nil {
		res["cursor"] = *next
	}
	return res, nil
}
