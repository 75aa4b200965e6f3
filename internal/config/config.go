package config

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/vango-dev/elements/internal/errors"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "elements.json"

	// DefaultPort is the default inspector port.
	DefaultPort = 7357

	// DefaultHost is the default inspector host.
	DefaultHost = "localhost"

	// DefaultManifest is the default definition manifest.
	DefaultManifest = "elements.yaml"

	// DefaultDocument is the default document to upgrade.
	DefaultDocument = "index.html"

	// DefaultMetricsNamespace prefixes every exported metric.
	DefaultMetricsNamespace = "elements"

	// DefaultTracerName is the instrumentation scope used for spans.
	DefaultTracerName = "github.com/vango-dev/elements/registry"
)

// Config represents the complete elements.json configuration.
type Config struct {
	// Document is the HTML document to load, a path or an s3:// URL.
	Document string `json:"document,omitempty"`

	// Manifest is the definition manifest, a path or an s3:// URL.
	Manifest string `json:"manifest,omitempty"`

	// Log configures the process logger.
	Log LogConfig `json:"log,omitempty"`

	// Inspect configures the inspector server.
	Inspect InspectConfig `json:"inspect,omitempty"`

	// Metrics configures the Prometheus collector.
	Metrics MetricsConfig `json:"metrics,omitempty"`

	// Tracing configures registry spans.
	Tracing TracingConfig `json:"tracing,omitempty"`

	// S3 configures access to s3:// sources.
	S3 S3Config `json:"s3,omitempty"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// LogConfig contains logger configuration.
type LogConfig struct {
	// Level is one of debug, info, warn or error.
	Level string `json:"level,omitempty"`

	// Format is text or json.
	Format string `json:"format,omitempty"`
}

// InspectConfig contains inspector server configuration.
type InspectConfig struct {
	Host string `json:"host,omitempty"`
	Port int    `json:"port,omitempty"`

	// WhenDefinedTimeout caps how long /when-defined waits, e.g. "30s".
	WhenDefinedTimeout string `json:"whenDefinedTimeout,omitempty"`
}

// MetricsConfig contains metrics configuration.
type MetricsConfig struct {
	Enabled   bool   `json:"enabled"`
	Namespace string `json:"namespace,omitempty"`
}

// TracingConfig contains tracing configuration.
type TracingConfig struct {
	TracerName string `json:"tracerName,omitempty"`
}

// S3Config contains settings for s3:// sources.
type S3Config struct {
	Region string `json:"region,omitempty"`

	// Endpoint overrides the service endpoint, for S3-compatible stores.
	Endpoint string `json:"endpoint,omitempty"`

	// UsePathStyle addresses buckets by path instead of virtual host.
	UsePathStyle bool `json:"usePathStyle,omitempty"`
}

// New returns a Config with default values.
func New() *Config {
	return &Config{
		Document: DefaultDocument,
		Manifest: DefaultManifest,
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Inspect: InspectConfig{
			Host:               DefaultHost,
			Port:               DefaultPort,
			WhenDefinedTimeout: "30s",
		},
		Metrics: MetricsConfig{
			Enabled:   true,
			Namespace: DefaultMetricsNamespace,
		},
		Tracing: TracingConfig{
			TracerName: DefaultTracerName,
		},
		S3: S3Config{
			Region: "us-east-1",
		},
	}
}

// Load reads configuration from the specified directory.
// It looks for elements.json in the directory.
func Load(dir string) (*Config, error) {
	return LoadFile(filepath.Join(dir, ConfigFileName))
}

// LoadFile reads configuration from the specified file path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("E062").
				WithDetail("No " + ConfigFileName + " found in " + filepath.Dir(path))
		}
		return nil, errors.New("E060").Wrap(err)
	}

	cfg := New()
	if err := json.Unmarshal(data, cfg); err != nil {
		e := errors.New("E060").Wrap(err)
		if serr, ok := err.(*json.SyntaxError); ok {
			line, col := position(data, serr.Offset)
			e.WithSource(path, data, line, col)
		}
		return nil, e
	}

	cfg.configPath = path
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault loads elements.json from dir, falling back to defaults when
// the file does not exist. Relative paths resolve against dir either way,
// and Save creates the file.
func LoadOrDefault(dir string) (*Config, error) {
	if !Exists(dir) {
		cfg := New()
		cfg.configPath = filepath.Join(dir, ConfigFileName)
		return cfg, nil
	}
	return Load(dir)
}

// position converts a byte offset into a 1-based line and column.
func position(data []byte, offset int64) (int, int) {
	if offset > int64(len(data)) {
		offset = int64(len(data))
	}
	prefix := string(data[:offset])
	line := strings.Count(prefix, "\n") + 1
	col := int(offset) - strings.LastIndex(prefix, "\n")
	return line, col
}

// Save writes the configuration to the file it was loaded from.
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.Newf(errors.CategoryConfig, "no config path set")
	}
	return c.SaveTo(c.configPath)
}

// SaveTo writes the configuration to the specified path.
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.New("E060").Wrap(err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.New("E060").Wrap(err)
	}
	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the directory containing the config file.
func (c *Config) Dir() string {
	if c.configPath == "" {
		return ""
	}
	return filepath.Dir(c.configPath)
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	if c.Document == "" {
		c.Document = DefaultDocument
	}
	if c.Manifest == "" {
		c.Manifest = DefaultManifest
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.Inspect.Host == "" {
		c.Inspect.Host = DefaultHost
	}
	if c.Inspect.Port == 0 {
		c.Inspect.Port = DefaultPort
	}
	if c.Inspect.WhenDefinedTimeout == "" {
		c.Inspect.WhenDefinedTimeout = "30s"
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = DefaultMetricsNamespace
	}
	if c.Tracing.TracerName == "" {
		c.Tracing.TracerName = DefaultTracerName
	}
	if c.S3.Region == "" {
		c.S3.Region = "us-east-1"
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Inspect.Port < 0 || c.Inspect.Port > 65535 {
		return errors.New("E061").
			WithDetail("inspect.port must be between 0 and 65535")
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		return errors.New("E061").
			WithDetail("log.level must be one of debug, info, warn, error").
			Wrap(err)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return errors.New("E061").
			WithDetail("log.format must be text or json, got " + strconv.Quote(c.Log.Format))
	}
	return nil
}

// ResolvePath resolves a relative local path against the config directory.
// s3:// locations are returned unchanged.
func (c *Config) ResolvePath(location string) string {
	if location == "" || strings.Contains(location, "://") || filepath.IsAbs(location) {
		return location
	}
	return filepath.Join(c.Dir(), location)
}

// InspectAddress returns the listen address of the inspector.
func (c *Config) InspectAddress() string {
	return c.Inspect.Host + ":" + strconv.Itoa(c.Inspect.Port)
}

// Logger builds a slog logger writing to w.
func (c *Config) Logger(w io.Writer) *slog.Logger {
	level, err := parseLevel(c.Log.Level)
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	err := level.UnmarshalText([]byte(s))
	return level, err
}

// Exists checks if a config file exists in the given directory.
func Exists(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ConfigFileName))
	return err == nil
}

// FindProjectRoot walks up directories to find the directory containing
// elements.json.
func FindProjectRoot(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for {
		if Exists(dir) {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("E062").
				WithDetail("No " + ConfigFileName + " found in " + startDir + " or any parent directory")
		}
		dir = parent
	}
}
