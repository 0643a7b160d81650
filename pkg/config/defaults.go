package config

const (
	defaultTrapListen   = ":5000"
	defaultBodyLimit    = 4 * 1024 * 1024
	defaultSynthTimeout = "30s"
	defaultQueueSize    = 256
	defaultWorkers      = 3
	defaultProviderKind = "groq"
	defaultProviderWait = "30s"
	defaultMaxTokens    = 1024
	defaultTemperature  = 0.4
	defaultEventTopic   = "chameleon.attacks"
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Trap: TrapConfig{
			Listen:       defaultTrapListen,
			BodyLimit:    defaultBodyLimit,
			SynthTimeout: defaultSynthTimeout,
			QueueSize:    defaultQueueSize,
			Workers:      defaultWorkers,
		},
		Provider: ProviderConfig{
			Kind:        defaultProviderKind,
			Timeout:     defaultProviderWait,
			MaxTokens:   defaultMaxTokens,
			Temperature: defaultTemperature,
		},
		EventStream: EventStreamConfig{
			Topic: defaultEventTopic,
		},
	}
}
