package config

// LogFormat selects how log lines are rendered.
type LogFormat string

const (
	LogFormatConsole LogFormat = "console"
	LogFormatJSON    LogFormat = "json"
)

// Config is the top-level ecomlens configuration, corresponding to .ecomlens.yml.
type Config struct {
	DataDir         string       `yaml:"data_dir" koanf:"data_dir"`
	PatternsDir     string       `yaml:"patterns_dir" koanf:"patterns_dir"`
	Inputs          []string     `yaml:"inputs" koanf:"inputs"`
	Concurrency     int          `yaml:"concurrency" koanf:"concurrency"`
	AOV             float64      `yaml:"aov" koanf:"aov"`
	ConversionRate  float64      `yaml:"conversion_rate" koanf:"conversion_rate"`
	AlertWebhookURL string       `yaml:"alert_webhook_url" koanf:"alert_webhook_url"`
	Server          ServerConfig `yaml:"server" koanf:"server"`
	Log             LogConfig    `yaml:"log" koanf:"log"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host" koanf:"host"`
	Port int    `yaml:"port" koanf:"port"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string    `yaml:"level" koanf:"level"`
	Format LogFormat `yaml:"format" koanf:"format"`
}
