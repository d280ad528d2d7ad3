package domain

// TelemetrySnapshot is the latest link-quality reading for one net.
// Ephemeral: each transport telemetry event replaces the previous value.
type TelemetrySnapshot struct {
	RttMs         float64 `json:"rtt_ms"`
	JitterMs      float64 `json:"jitter_ms"`
	PacketLossPct float64 `json:"packet_loss_pct"`
	MosProxy      float64 `json:"mos_proxy"`
}
