package internal

import "time"

// Config is loaded from the environment in cmd mains. Every duration knob
// maps to one timer family in the runtime.
type Config struct {
	LogLevel          string        `env:"LOG_LEVEL,required=true"`
	BufferSize        int           `env:"BUFFER_SIZE,required=true"`
	BadgerFilepath    string        `env:"BADGER_FILEPATH,required=true"`
	HeartbeatInterval time.Duration `env:"HEARTBEAT_INTERVAL,required=true"`
	AuthorityPoll     time.Duration `env:"AUTHORITY_POLL_INTERVAL,required=true"`
	SpeakingDebounce  time.Duration `env:"SPEAKING_DEBOUNCE,required=true"`
	SinkTimeout       time.Duration `env:"SINK_TIMEOUT,required=true"`
	RestartInterval   time.Duration `env:"RESTART_INTERVAL,required=true"`
	TokenDuration     time.Duration `env:"VOICE_TOKEN_DURATION,required=true"`
	TransportURL      string        `env:"TRANSPORT_URL"`
}
