// Package runtime composes the voice core: connection lifecycle per net,
// transmit arbitration, discipline enforcement, whisper and submix routing,
// all behind one stateful orchestrator facade. It coordinates the system
// without containing rendering or storage logic.
package runtime

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"voicenet/catalog"
	"voicenet/commandbus"
	"voicenet/contract"
	"voicenet/domain"
	"voicenet/domain/event"
	"voicenet/hotkey"
	"voicenet/observability"
	"voicenet/policy"
	"voicenet/runtime/workers"
)

// Deps bundles every collaborator the orchestrator drives.
type Deps struct {
	Log        *slog.Logger
	Supervisor contract.ISupervisor
	Registry   *Registry
	Catalog    *catalog.Catalog
	Factory    contract.TransportFactory
	Sessions   contract.SessionStore
	Presence   contract.PresenceWriter
	Authority  contract.AuthorityStore
	Console    contract.ConsoleAPI
	Policy     *policy.Evaluator
	Bus        *commandbus.Bus
	Monitoring *observability.MonitoringManager
	Hotkeys    *hotkey.Binder

	// PermanentSinks receive every event regardless of net subscriptions.
	PermanentSinks []contract.EventSink
}

// Options carries the timer knobs. ReconnectDelay is swappable so tests
// can collapse the backoff.
type Options struct {
	BufferSize            int
	HeartbeatInterval     time.Duration
	AuthorityPollInterval time.Duration
	SpeakingDebounce      time.Duration
	SinkTimeout           time.Duration
	ReconnectDelay        func(attempt int) time.Duration
}

func (o Options) withDefaults() Options {
	if o.BufferSize <= 0 {
		o.BufferSize = 128
	}
	if o.HeartbeatInterval <= 0 {
		o.HeartbeatInterval = 15 * time.Second
	}
	if o.AuthorityPollInterval <= 0 {
		o.AuthorityPollInterval = 5 * time.Second
	}
	if o.SpeakingDebounce <= 0 {
		o.SpeakingDebounce = 150 * time.Millisecond
	}
	if o.SinkTimeout <= 0 {
		o.SinkTimeout = time.Second
	}
	if o.ReconnectDelay == nil {
		o.ReconnectDelay = ReconnectDelay
	}
	return o
}

// PTTPhase is the discipline enforcer's state over PTT intent.
type PTTPhase string

const (
	PTTIdle       PTTPhase = "idle"
	PTTRequesting PTTPhase = "requesting"
	PTTGranted    PTTPhase = "granted"
	PTTDenied     PTTPhase = "denied"
)

type Orchestrator struct {
	mu   sync.Mutex
	deps Deps
	opts Options
	log  *slog.Logger

	ctx context.Context

	localUser        domain.User
	nets             map[domain.NetID]*netSession
	transmitNetID    *domain.NetID
	authorityHolders map[domain.NetID]*domain.TransmitAuthority

	whisper  domain.WhisperState
	pttPhase PTTPhase
	pttUser  domain.User

	routing      domain.SubmixRouting
	outputDevice string
	inputDevice  string
	micMuted     bool

	debounceTimer *time.Timer
	micDenied     bool

	events    chan event.TransportEvent
	telemetry chan workers.TelemetryReading
}

func NewOrchestrator(deps Deps, opts Options) *Orchestrator {
	opts = opts.withDefaults()
	return &Orchestrator{
		deps:             deps,
		opts:             opts,
		log:              deps.Log,
		ctx:              context.Background(),
		nets:             make(map[domain.NetID]*netSession),
		authorityHolders: make(map[domain.NetID]*domain.TransmitAuthority),
		pttPhase:         PTTIdle,
		routing:          domain.DefaultSubmixRouting(),
		events:           make(chan event.TransportEvent, opts.BufferSize),
		telemetry:        make(chan workers.TelemetryReading, opts.BufferSize),
	}
}

// Start hands the long-running workers (authority poll, telemetry mirror,
// event fanout, catalog watch) to the supervisor and returns immediately.
func (o *Orchestrator) Start(ctx context.Context) error {
	o.mu.Lock()
	o.ctx = ctx
	o.mu.Unlock()

	authorityWorker := workers.NewAuthorityPollWorker(
		o.log, o.deps.Authority, o.opts.AuthorityPollInterval,
		o.TransmitNetID, o.setAuthorityHolder,
	)
	telemetryWorker := workers.NewTelemetryWorker(o.log, o.deps.Console, o.telemetry)
	fanoutWorker := workers.NewEventFanout(o.log, o.events, o.deps.PermanentSinks, o.deps.Registry, o.opts.SinkTimeout)

	o.deps.Supervisor.Add(authorityWorker, telemetryWorker, fanoutWorker)
	if o.deps.Catalog != nil {
		o.deps.Supervisor.Add(catalogWatcher{o.deps.Catalog})
	}

	o.log.Info("Starting voice orchestrator and all supervised workers")
	go o.deps.Supervisor.Run(ctx)
	return nil
}

// catalogWatcher adapts the catalog subscription loop to the Worker shape.
type catalogWatcher struct {
	catalog *catalog.Catalog
}

func (w catalogWatcher) Run(ctx context.Context) error { return w.catalog.Watch(ctx) }

// Stop tears the orchestrator down: leaves every net, clears every timer
// and cancels the supervised workers.
func (o *Orchestrator) Stop() {
	o.log.Info("Requesting voice orchestrator shutdown")
	o.LeaveAll(context.Background())
	o.deps.Supervisor.Stop()
}

// RegisterObserver attaches a UI sink to one net's event stream.
func (o *Orchestrator) RegisterObserver(observerID string, netID domain.NetID, sink contract.EventSink) {
	o.deps.Registry.Subscribe(observerID, netID, sink)
}

func (o *Orchestrator) UnregisterObserver(observerID string, netID domain.NetID) {
	o.deps.Registry.Unsubscribe(observerID, netID)
}

// dispatchLoop is the single consumer of one adapter's event union. It
// ends when the adapter closes its channel on disconnect.
func (o *Orchestrator) dispatchLoop(netID domain.NetID, adapter contract.Transport) {
	for evt := range adapter.Events() {
		o.handleEvent(netID, evt)
		select {
		case o.events <- evt:
		default:
			o.log.Debug("Observer event dropped, channel full", "net", netID)
		}
	}
}

func (o *Orchestrator) handleEvent(netID domain.NetID, evt event.TransportEvent) {
	switch e := evt.(type) {
	case event.Connected:
		o.mu.Lock()
		if s, ok := o.nets[netID]; ok {
			s.state = domain.ConnectionConnected
			s.reconnectAttempts = 0
			s.lastError = ""
		}
		o.mu.Unlock()

	case event.Disconnected:
		o.handleDisconnected(netID, e.Reason)

	case event.Reconnecting:
		// Mid-flight recovery signaled by the transport itself: the
		// attempt counter is left alone.
		o.mu.Lock()
		if s, ok := o.nets[netID]; ok && s.state == domain.ConnectionConnected {
			s.state = domain.ConnectionReconnecting
		}
		o.mu.Unlock()

	case event.Reconnected:
		o.mu.Lock()
		if s, ok := o.nets[netID]; ok && s.state == domain.ConnectionReconnecting {
			s.state = domain.ConnectionConnected
		}
		o.mu.Unlock()

	case event.ParticipantJoined:
		o.mu.Lock()
		if s, ok := o.nets[netID]; ok {
			s.participants[e.Participant.UserID] = e.Participant
		}
		o.mu.Unlock()

	case event.ParticipantLeft:
		o.mu.Lock()
		if s, ok := o.nets[netID]; ok {
			delete(s.participants, e.UserID)
		}
		o.mu.Unlock()

	case event.SpeakingChanged:
		o.mu.Lock()
		if s, ok := o.nets[netID]; ok {
			if p, exists := s.participants[e.UserID]; exists {
				p.IsSpeaking = e.IsSpeaking
				s.participants[e.UserID] = p
			}
		}
		o.mu.Unlock()

	case event.TransportError:
		o.mu.Lock()
		if isMicPermissionError(e.Message) {
			o.micDenied = true
		} else if s, ok := o.nets[netID]; ok {
			s.lastError = e.Message
		}
		o.mu.Unlock()

	case event.Telemetry:
		o.deps.Monitoring.RecordTelemetry(netID, e.Snapshot)
		select {
		case o.telemetry <- workers.TelemetryReading{NetID: netID, Snapshot: e.Snapshot}:
		default:
		}

	case event.ControlPacket:
		o.deps.Monitoring.IncrPacketsSeen()
		o.deps.Bus.Publish(e.Packet)
	}
}

// isMicPermissionError matches the transport error shapes browsers and
// audio stacks produce when microphone capture is refused.
func isMicPermissionError(message string) bool {
	lower := strings.ToLower(message)
	return strings.Contains(lower, "permission denied") ||
		strings.Contains(lower, "notallowederror") ||
		strings.Contains(lower, "microphone access")
}

func (o *Orchestrator) setAuthorityHolder(netID domain.NetID, holder *domain.TransmitAuthority) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.authorityHolders[netID] = holder
}

// --- state accessors ---

func (o *Orchestrator) MonitoredNetIDs() []domain.NetID {
	o.mu.Lock()
	defer o.mu.Unlock()
	res := make([]domain.NetID, 0, len(o.nets))
	for id := range o.nets {
		res = append(res, id)
	}
	return res
}

// TransmitNetID returns the single net outgoing audio is configured for,
// or nil. Always an element of the monitored set when non-nil.
func (o *Orchestrator) TransmitNetID() *domain.NetID {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.transmitNetID == nil {
		return nil
	}
	id := *o.transmitNetID
	return &id
}

func (o *Orchestrator) ConnectionState(netID domain.NetID) domain.ConnectionState {
	o.mu.Lock()
	defer o.mu.Unlock()
	if s, ok := o.nets[netID]; ok {
		return s.state
	}
	return domain.ConnectionIdle
}

func (o *Orchestrator) LastError(netID domain.NetID) string {
	o.mu.Lock()
	defer o.mu.Unlock()
	if s, ok := o.nets[netID]; ok {
		return s.lastError
	}
	return ""
}

func (o *Orchestrator) Participants(netID domain.NetID) []domain.Participant {
	o.mu.Lock()
	defer o.mu.Unlock()
	s, ok := o.nets[netID]
	if !ok {
		return nil
	}
	res := make([]domain.Participant, 0, len(s.participants))
	for _, p := range s.participants {
		res = append(res, p)
	}
	return res
}

func (o *Orchestrator) PTTPhase() PTTPhase {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.pttPhase
}

func (o *Orchestrator) Whisper() domain.WhisperState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.whisper
}

func (o *Orchestrator) AuthorityHolder(netID domain.NetID) *domain.TransmitAuthority {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.authorityHolders[netID]
}

func (o *Orchestrator) MicPermissionDenied() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.micDenied
}

func (o *Orchestrator) Routing() domain.SubmixRouting {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.routing
}

func (o *Orchestrator) RecentPackets() []domain.CommandBusPacket {
	return o.deps.Bus.Recent()
}
