package domain

import "time"

// TransmitAuthority is the advisory single-holder claim used for floor
// arbitration display. Last write wins; possession never gates local input.
type TransmitAuthority struct {
	NetID     NetID     `json:"net_id"`
	UserID    string    `json:"user_id"`
	ClientID  string    `json:"client_id"`
	ClaimedAt time.Time `json:"claimed_at"`
}

// HeldBy reports whether the record belongs to the given identity.
func (a TransmitAuthority) HeldBy(userID, clientID string) bool {
	return a.UserID == userID && a.ClientID == clientID
}

type SpeakRequestStatus string

const (
	SpeakRequestPending  SpeakRequestStatus = "PENDING"
	SpeakRequestApproved SpeakRequestStatus = "APPROVED"
	SpeakRequestDenied   SpeakRequestStatus = "DENIED"
)

// SpeakRequest is the hail-queue record used under request-to-speak
// discipline.
type SpeakRequest struct {
	RequestID   string             `json:"request_id"`
	NetID       NetID              `json:"net_id"`
	RequesterID string             `json:"requester_id"`
	Reason      string             `json:"reason"`
	Status      SpeakRequestStatus `json:"status"`
}
