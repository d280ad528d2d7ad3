package observability

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"voicenet/domain"
)

// VoiceStats aggregates the counters exposed to the UI and heartbeats.
type VoiceStats struct {
	PacketsSeen      uint64                                    `json:"packets_seen"`
	ReconnectsBegun  uint64                                    `json:"reconnects_begun"`
	DisciplineDenied uint64                                    `json:"discipline_denied"`
	Telemetry        map[domain.NetID]domain.TelemetrySnapshot `json:"telemetry"`
}

// MonitoringManager keeps the latest telemetry reading per net plus a few
// atomic counters. Snapshots are ephemeral: each transport telemetry event
// replaces the previous value, nothing is persisted.
type MonitoringManager struct {
	log *slog.Logger
	mu  sync.RWMutex

	packetsSeen      uint64
	reconnectsBegun  uint64
	disciplineDenied uint64
	telemetry        map[domain.NetID]domain.TelemetrySnapshot
}

func NewMonitoringManager(log *slog.Logger) *MonitoringManager {
	return &MonitoringManager{
		log:       log,
		telemetry: make(map[domain.NetID]domain.TelemetrySnapshot),
	}
}

func (mm *MonitoringManager) IncrPacketsSeen() {
	atomic.AddUint64(&mm.packetsSeen, 1)
}

func (mm *MonitoringManager) IncrReconnectsBegun() {
	atomic.AddUint64(&mm.reconnectsBegun, 1)
}

func (mm *MonitoringManager) IncrDisciplineDenied() {
	atomic.AddUint64(&mm.disciplineDenied, 1)
}

// RecordTelemetry replaces the latest snapshot for a net.
func (mm *MonitoringManager) RecordTelemetry(netID domain.NetID, snapshot domain.TelemetrySnapshot) {
	mm.mu.Lock()
	defer mm.mu.Unlock()
	mm.telemetry[netID] = snapshot
}

// DropNet clears the stored snapshot when a net is left.
func (mm *MonitoringManager) DropNet(netID domain.NetID) {
	mm.mu.Lock()
	defer mm.mu.Unlock()
	delete(mm.telemetry, netID)
}

func (mm *MonitoringManager) Latest(netID domain.NetID) (domain.TelemetrySnapshot, bool) {
	mm.mu.RLock()
	defer mm.mu.RUnlock()
	s, ok := mm.telemetry[netID]
	return s, ok
}

func (mm *MonitoringManager) GetStats() VoiceStats {
	mm.mu.RLock()
	defer mm.mu.RUnlock()
	telemetry := make(map[domain.NetID]domain.TelemetrySnapshot, len(mm.telemetry))
	for id, s := range mm.telemetry {
		telemetry[id] = s
	}
	return VoiceStats{
		PacketsSeen:      atomic.LoadUint64(&mm.packetsSeen),
		ReconnectsBegun:  atomic.LoadUint64(&mm.reconnectsBegun),
		DisciplineDenied: atomic.LoadUint64(&mm.disciplineDenied),
		Telemetry:        telemetry,
	}
}
