package domain

// Submix is a named logical audio bus that can be monitored independently
// of the bus used for outgoing transmission.
type Submix string

const (
	SubmixCommand Submix = "COMMAND"
	SubmixSquad   Submix = "SQUAD"
	SubmixLocal   Submix = "LOCAL"
)

// SubmixRouting selects which buses are heard and which single bus carries
// outgoing audio.
type SubmixRouting struct {
	Monitor []Submix `json:"monitor"`
	Tx      Submix   `json:"tx"`
}

func DefaultSubmixRouting() SubmixRouting {
	return SubmixRouting{
		Monitor: []Submix{SubmixCommand, SubmixSquad, SubmixLocal},
		Tx:      SubmixSquad,
	}
}

// HotkeyBindings maps actions to physical keys.
type HotkeyBindings struct {
	PTT     []string `json:"ptt"`
	Whisper []string `json:"whisper"`
}

type HotkeyProfile struct {
	ID       string         `json:"id"`
	Label    string         `json:"label"`
	Bindings HotkeyBindings `json:"bindings"`
	SideTone bool           `json:"side_tone"`
}

func DefaultHotkeyProfile() HotkeyProfile {
	return HotkeyProfile{
		ID:    "default",
		Label: "Default",
		Bindings: HotkeyBindings{
			PTT:     []string{"Space"},
			Whisper: []string{"CapsLock"},
		},
	}
}

// Loadout is the audio processing profile applied to the active transmit
// net.
type Loadout struct {
	Name             string `json:"name" validate:"required"`
	Codec            string `json:"codec" validate:"required,oneof=opus pcm"`
	BitrateKbps      int    `json:"bitrate_kbps" validate:"min=8,max=320"`
	NoiseSuppression bool   `json:"noise_suppression"`
	AGC              bool   `json:"agc"`
	EqProfile        string `json:"eq_profile"`
}
