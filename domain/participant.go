package domain

// User identifies the local operator across nets. ClientID disambiguates
// several simultaneous clients of the same user.
type User struct {
	ID       string `json:"id" validate:"required"`
	Callsign string `json:"callsign" validate:"required"`
	ClientID string `json:"client_id" validate:"required"`
	Rank     Rank   `json:"rank"`
}

// Participant is a remote member of a net roster.
type Participant struct {
	UserID     string `json:"user_id"`
	Callsign   string `json:"callsign"`
	ClientID   string `json:"client_id"`
	IsSpeaking bool   `json:"is_speaking"`
}
