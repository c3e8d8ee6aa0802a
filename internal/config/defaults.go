package config

// DefaultInputs are glob patterns searched for event files when none
// are configured.
var DefaultInputs = []string{
	"data/**/*.jsonl",
	"data/**/*.ndjson",
	"data/**/*.json",
	"data/**/*.csv",
}

// DefaultConfig returns a Config with sensible defaults. The financial
// overrides stay at zero so the estimator's observed-or-placeholder
// logic applies unless the operator sets real numbers.
func DefaultConfig() *Config {
	return &Config{
		DataDir:     ".ecomlens",
		PatternsDir: "patterns",
		Inputs:      DefaultInputs,
		Concurrency: 4,
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 8377,
		},
		Log: LogConfig{
			Level:  "info",
			Format: LogFormatConsole,
		},
	}
}
