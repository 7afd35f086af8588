package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Collector CollectorConfig `mapstructure:"collector" json:"collector"`
	Forwarder ForwarderConfig `mapstructure:"forwarder" json:"forwarder"`
	Ingest    IngestConfig    `mapstructure:"ingest" json:"ingest"`
	SelfStats SelfStatsConfig `mapstructure:"selfstats" json:"selfstats"`
	Log       LogConfig       `mapstructure:"log" json:"log"`
}

// CollectorConfig identifies the Graphite plaintext endpoint.
type CollectorConfig struct {
	Host string `mapstructure:"host" json:"host"`
	Port int    `mapstructure:"port" json:"port"`
}

// Address returns the collector address in "host:port" format.
func (c CollectorConfig) Address() string {
	return net.JoinHostPort(c.Host, fmt.Sprint(c.Port))
}

// ForwarderConfig holds queueing and delivery settings.
type ForwarderConfig struct {
	SocketTimeout  time.Duration `mapstructure:"socket_timeout" json:"socket_timeout"`
	ReconnectDelay time.Duration `mapstructure:"reconnect_delay" json:"reconnect_delay"`
	QueueSizeLimit int           `mapstructure:"queue_size_limit" json:"queue_size_limit"`
	ChunkSize      int           `mapstructure:"chunk_size" json:"chunk_size"`
}

// IngestConfig holds the local listener used by the serve command.
type IngestConfig struct {
	Listen string `mapstructure:"listen" json:"listen"`
}

// SelfStatsConfig controls the health metrics serve reports about itself.
type SelfStatsConfig struct {
	Interval time.Duration `mapstructure:"interval" json:"interval"`
	Prefix   string        `mapstructure:"prefix" json:"prefix"`
}

// Enabled reports whether health metrics are reported at all.
func (s SelfStatsConfig) Enabled() bool {
	return s.Interval > 0
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level     string `mapstructure:"level" json:"level"`
	Output    string `mapstructure:"output" json:"output"`
	MaxSizeMB int    `mapstructure:"max_size_mb" json:"max_size_mb"`
}

// Loader handles configuration loading from multiple sources.
type Loader struct {
	v          *viper.Viper
	configPath string
}

// NewLoader creates a new configuration loader.
func NewLoader() *Loader {
	return &Loader{
		v: viper.New(),
	}
}

// WithConfigPath sets a specific config file path.
func (l *Loader) WithConfigPath(path string) *Loader {
	l.configPath = path
	return l
}

// Load reads configuration from all sources and returns the merged config.
// Precedence (highest to lowest): CLI flags > environment > config file > defaults.
func (l *Loader) Load() (*Config, error) {
	l.setDefaults()
	l.setupEnvBindings()

	if err := l.loadConfigFile(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.Log.Level = strings.ToLower(cfg.Log.Level)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default values for all configuration options.
func (l *Loader) setDefaults() {
	l.v.SetDefault("collector.host", DefaultCollectorHost)
	l.v.SetDefault("collector.port", DefaultCollectorPort)

	l.v.SetDefault("forwarder.socket_timeout", DefaultSocketTimeout)
	l.v.SetDefault("forwarder.reconnect_delay", DefaultReconnectDelay)
	l.v.SetDefault("forwarder.queue_size_limit", DefaultQueueSizeLimit)
	l.v.SetDefault("forwarder.chunk_size", DefaultChunkSize)

	l.v.SetDefault("ingest.listen", DefaultIngestListen)

	l.v.SetDefault("selfstats.interval", DefaultSelfStatsInterval)
	l.v.SetDefault("selfstats.prefix", "")

	l.v.SetDefault("log.level", DefaultLogLevel)
	l.v.SetDefault("log.output", "")
	l.v.SetDefault("log.max_size_mb", DefaultLogMaxSizeMB)
}

// setupEnvBindings configures environment variable bindings.
func (l *Loader) setupEnvBindings() {
	l.v.SetEnvPrefix(EnvPrefix)
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	l.v.AutomaticEnv()
}

// loadConfigFile loads configuration from a file.
func (l *Loader) loadConfigFile() error {
	if l.configPath != "" {
		l.v.SetConfigFile(l.configPath)
	} else {
		l.v.SetConfigName(strings.TrimSuffix(ConfigFileName, filepath.Ext(ConfigFileName)))
		l.v.SetConfigType("toml")
		for _, dir := range SearchDirs() {
			l.v.AddConfigPath(dir)
		}
	}

	if err := l.v.ReadInConfig(); err != nil {
		// Config file not found is not an error - use defaults
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	return nil
}

// Set sets a configuration value (for CLI flag overrides).
func (l *Loader) Set(key string, value interface{}) {
	l.v.Set(key, value)
}

// ConfigFileUsed returns the path of the config file used, if any.
func (l *Loader) ConfigFileUsed() string {
	return l.v.ConfigFileUsed()
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Collector),
		validation.Field(&c.Forwarder),
		validation.Field(&c.Ingest),
		validation.Field(&c.SelfStats),
		validation.Field(&c.Log),
	)
}

// Validate checks the collector endpoint.
func (c CollectorConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Host, validation.Required, is.Host),
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// Validate checks the delivery settings.
func (f ForwarderConfig) Validate() error {
	return validation.ValidateStruct(&f,
		validation.Field(&f.SocketTimeout, validation.Min(time.Duration(0))),
		validation.Field(&f.ReconnectDelay, validation.Min(time.Duration(0))),
		validation.Field(&f.QueueSizeLimit, validation.Min(0)),
		validation.Field(&f.ChunkSize, validation.Required, validation.Min(1)),
	)
}

// Validate checks the ingest listener address.
func (i IngestConfig) Validate() error {
	return validation.ValidateStruct(&i,
		validation.Field(&i.Listen, validation.By(validateListenAddress)),
	)
}

var metricPathPattern = regexp.MustCompile(`^[^\s]+$`)

// Validate checks the health reporting settings.
func (s SelfStatsConfig) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Interval, validation.Min(time.Duration(0))),
		validation.Field(&s.Prefix, validation.Match(metricPathPattern).Error("must not contain whitespace")),
	)
}

// Validate checks the logging settings.
func (l LogConfig) Validate() error {
	return validation.ValidateStruct(&l,
		validation.Field(&l.Level,
			validation.Required,
			validation.In(LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError).
				Error("must be one of: debug, info, warn, error"),
		),
		validation.Field(&l.MaxSizeMB, validation.Min(1)),
	)
}

func validateListenAddress(value interface{}) error {
	addr, ok := value.(string)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a string")
	}
	if addr == "" {
		return nil
	}

	if _, port, err := net.SplitHostPort(addr); err != nil || port == "" {
		return validation.NewError("validation_invalid_hostport", "must be in host:port format")
	}

	return nil
}

// EnsureConfigDir creates the config directory if it doesn't exist.
func EnsureConfigDir() (string, error) {
	dir, err := DefaultConfigDir()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0750); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}
	return dir, nil
}

// WriteExampleConfig writes an example config file to the given path.
func WriteExampleConfig(path string) error {
	content := `# Graphite Forwarder Configuration

# Graphite plaintext (carbon) endpoint
[collector]
host = "localhost"
port = 2003

# Queueing and delivery
[forwarder]
# Connect/write timeout; an idle connection is closed after this long
socket_timeout = "5m"
# Wait after a failed batch before retrying it
reconnect_delay = "1s"
# Pushes are rejected once more than this many lines are queued
queue_size_limit = 10000000
# Lines sent per batch
chunk_size = 200

# Local listener used by "graphite-forwarder serve"
[ingest]
listen = "127.0.0.1:2103"

# Health metrics about the forwarder itself, sent with the forwarded lines
[selfstats]
# Report interval; 0 disables reporting
interval = "1m"
# Metric path prefix (default: graphite_forwarder.<hostname>)
# prefix = ""

# Logging configuration
[log]
# Level: debug, info, warn, error
level = "info"
# Output file path (stderr if empty)
# output = ""
# Max log file size before rotation (MB)
max_size_mb = 10
`
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return os.WriteFile(path, []byte(content), 0600)
}
