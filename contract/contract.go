//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"reflect"
	"time"

	"voicenet/domain"
	"voicenet/domain/event"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

type WorkerName string

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker initialization
// or lifecycle events, avoiding the need for manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// ConnectParams carries everything a transport needs to reach one net.
type ConnectParams struct {
	Token string
	URL   string
	NetID domain.NetID
	User  domain.User
}

// Transport owns one physical connection to one net. Implemented twice:
// a local-only simulator and the real-time media transport.
// Events() delivers the adapter's tagged event union; the channel is closed
// after Disconnect returns.
type Transport interface {
	Connect(ctx context.Context, params ConnectParams) error
	Disconnect() error
	SetMicEnabled(enabled bool)
	SetPTTActive(active bool)
	SetOutputDevice(deviceID string) error
	SetAudioDevice(deviceID string) error
	SetParticipantGain(participantID string, gainDb float64) error
	SetNormalizationEnabled(enabled bool)
	SetSubmixRouting(routing domain.SubmixRouting) error
	PublishControlPacket(packet domain.CommandBusPacket) error
	Events() <-chan event.TransportEvent
}

// TransportFactory decides real versus simulated per join. Token issuance
// failure is a degraded mode, not an error: the factory falls back to the
// simulator so offline testing still works.
type TransportFactory interface {
	New(ctx context.Context, net domain.Net, user domain.User) (Transport, ConnectParams)
}

// EventSink receives orchestrator-level events (UI observers, projections).
type EventSink interface {
	Consume(ctx context.Context, e event.TransportEvent) error
}

// TokenMinter is the backend function issuing media transport credentials.
// An empty token with a nil error triggers the simulator fallback.
type TokenMinter interface {
	MintVoiceToken(ctx context.Context, net domain.Net, user domain.User) (token string, url string, err error)
}

// SessionStore is the backend voice session registry.
type SessionStore interface {
	AddVoiceSession(ctx context.Context, session domain.VoiceSession) (string, error)
	UpdateSessionHeartbeat(ctx context.Context, sessionID string, at time.Time, speaking bool) error
	RemoveVoiceSession(ctx context.Context, sessionID string) error
	GetNetSessions(ctx context.Context, netID domain.NetID) ([]domain.VoiceSession, error)
}

// PresenceWriter mirrors local voice state to the presence service.
// Writes are best-effort and must never block voice state.
type PresenceWriter interface {
	WritePresence(ctx context.Context, presence domain.Presence) error
}

// AuthorityStore is the shared, contested transmit-authority record.
// Last write wins; claims are idempotent per (net, user, client).
type AuthorityStore interface {
	ClaimAuthority(ctx context.Context, claim domain.TransmitAuthority) error
	ReadAuthority(ctx context.Context, netID domain.NetID) (*domain.TransmitAuthority, error)
}

// ConsoleAction names one of the multiplexed backend console functions.
type ConsoleAction string

// ConsoleAPI is the single multiplexed backend endpoint. Non-critical
// callers consume results best-effort and swallow failures.
type ConsoleAPI interface {
	Invoke(ctx context.Context, action ConsoleAction, netID domain.NetID, payload map[string]any) (map[string]any, error)
}

// NetSource lists net definitions and streams updates. Implementations fall
// back to a built-in default set when the backend is unreachable.
type NetSource interface {
	ListNets(ctx context.Context) ([]domain.Net, error)
	SubscribeNets(ctx context.Context) (<-chan []domain.Net, error)
}
