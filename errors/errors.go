package errors

import "fmt"

var (
	ErrWorkerPanic          = fmt.Errorf("worker panic")
	ErrNetNotFound          = fmt.Errorf("net not found")
	ErrAccessDenied         = fmt.Errorf("access denied")
	ErrTokenUnavailable     = fmt.Errorf("voice token unavailable")
	ErrTransportConnect     = fmt.Errorf("transport connect failed")
	ErrDisciplineViolation  = fmt.Errorf("net discipline violation")
	ErrMicPermissionDenied  = fmt.Errorf("microphone permission denied")
	ErrReconnectExhausted   = fmt.Errorf("reconnect attempts exhausted")
	ErrNoTransmitNet        = fmt.Errorf("no transmit net selected")
	ErrNotConnected         = fmt.Errorf("net is not connected")
	ErrSecureKeyUnknown     = fmt.Errorf("unknown secure mode key version")
	ErrUnknownConsoleAction = fmt.Errorf("unknown console action")
)
