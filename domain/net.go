package domain

type NetID string

type NetType string

const (
	NetTypeCommand NetType = "command"
	NetTypeSquad   NetType = "squad"
	NetTypeSupport NetType = "support"
	NetTypeGeneral NetType = "general"
)

type DisciplineMode string

const (
	DisciplineOpen           DisciplineMode = "open"
	DisciplinePTT            DisciplineMode = "ptt"
	DisciplineRequestToSpeak DisciplineMode = "request-to-speak"
	DisciplineCommandOnly    DisciplineMode = "command-only"
)

// SecureMode carries the encryption flag for a net. The key version selects
// which shared key participants use to seal control packets.
type SecureMode struct {
	Enabled    bool `json:"enabled"`
	KeyVersion int  `json:"key_version"`
}

// Net is a logical voice channel with its own discipline policy and rank
// gates. Immutable from the core's perspective, refreshed via the catalog.
type Net struct {
	ID             NetID          `json:"id" validate:"required"`
	Code           string         `json:"code" validate:"required,uppercase"`
	Label          string         `json:"label" validate:"required"`
	Type           NetType        `json:"type" validate:"required,oneof=command squad support general"`
	DisciplineMode DisciplineMode `json:"discipline_mode" validate:"required,oneof=open ptt request-to-speak command-only"`
	MinRankToTx    Rank           `json:"min_rank_to_tx"`
	MinRankToRx    Rank           `json:"min_rank_to_rx"`
	StageMode      bool           `json:"stage_mode"`
	Focused        bool           `json:"focused"`
	Secure         SecureMode     `json:"secure"`
}

// Focused nets require an explicit confirmation step before joining.
func (n Net) RequiresJoinConfirmation() bool {
	return n.Focused || n.StageMode
}
