package runtime

import "time"

const (
	// MaxReconnectAttempts bounds automatic recovery; the failure after the
	// last attempt is terminal and requires an explicit user rejoin.
	MaxReconnectAttempts = 5

	reconnectBaseDelay = time.Second
	reconnectMaxDelay  = 30 * time.Second
)

// ReconnectDelay returns the backoff before the given attempt (1-based):
// 1s, 2s, 4s, 8s, 16s, then capped at 30s.
func ReconnectDelay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	delay := reconnectBaseDelay << (attempt - 1)
	if delay > reconnectMaxDelay || delay <= 0 {
		return reconnectMaxDelay
	}
	return delay
}
