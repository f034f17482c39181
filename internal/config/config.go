package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/oshokin/alarm-gateway/internal/logger"
)

// Config holds the settings shared by alarm-gateway and alarm-probe.
type Config struct {
	// ListenAddress is the TCP address the TLS listener binds to.
	ListenAddress string `yaml:"listen_addr"`
	// CertFile is the PEM certificate chain presented to clients.
	CertFile string `yaml:"cert_file"`
	// KeyFile is the PEM file holding exactly one PKCS8 private key.
	KeyFile string `yaml:"key_file"`
	// WebRoot is an optional directory served to plain HTTPS requests.
	WebRoot string `yaml:"web_root,omitempty"`
	// HealthAddress enables the gRPC health endpoint when set.
	HealthAddress string `yaml:"health_addr,omitempty"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level,omitempty"`
	// Timeout bounds TLS handshakes, the HTTP upgrade and probe RPCs.
	Timeout time.Duration `yaml:"timeout"`
	// MaxFrameBytes caps the payload of a single WebSocket frame.
	MaxFrameBytes int64 `yaml:"max_frame_bytes,omitempty"`
}

const (
	// DefaultConfigFilename is the default filename for gateway settings.
	DefaultConfigFilename = "alarm-gateway-settings.yaml"

	// DefaultListenAddress matches the port the browser client connects to.
	DefaultListenAddress = "0.0.0.0:4444"

	// DefaultCertFile is the default certificate chain path.
	DefaultCertFile = "cert.pem"

	// DefaultKeyFile is the default private key path.
	DefaultKeyFile = "key.pem"

	// DefaultTimeout is the default duration for handshakes and RPC calls.
	DefaultTimeout = 5 * time.Second

	// DefaultMaxFrameBytes is the default per-frame payload limit, 1 MiB.
	DefaultMaxFrameBytes = 1 << 20

	// DefaultFilePermissions is the default file permission for config files.
	DefaultFilePermissions = 0o600
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errUnknownLogLevel is returned for log levels zap does not know.
	errUnknownLogLevel = errors.New("unknown log level")
	// errWebRootNotDirectory is returned when web_root points to a file.
	errWebRootNotDirectory = errors.New("web root is not a directory")
)

// Default returns a Config populated with defaults.
func Default() *Config {
	return &Config{
		ListenAddress: DefaultListenAddress,
		CertFile:      DefaultCertFile,
		KeyFile:       DefaultKeyFile,
		LogLevel:      "info",
		Timeout:       DefaultTimeout,
		MaxFrameBytes: DefaultMaxFrameBytes,
	}
}

// Load reads configuration from path. A missing file at the default path is
// not an error: the defaults are returned instead.
func Load(path string) (*Config, error) {
	explicit := path != "" && path != DefaultConfigFilename
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	switch {
	case err == nil:
	case errors.Is(err, os.ErrNotExist) && !explicit:
		cfg := Default()

		return cfg, Validate(cfg)
	default:
		return nil, fmt.Errorf("read settings: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(contents, cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes cfg to path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate fills defaults for empty fields and checks the rest.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if cfg.ListenAddress == "" {
		cfg.ListenAddress = DefaultListenAddress
	}

	if _, err := net.ResolveTCPAddr("tcp", cfg.ListenAddress); err != nil {
		return fmt.Errorf("invalid listen address: %w", err)
	}

	if cfg.HealthAddress != "" {
		if _, err := net.ResolveTCPAddr("tcp", cfg.HealthAddress); err != nil {
			return fmt.Errorf("invalid health address: %w", err)
		}
	}

	if cfg.CertFile == "" {
		cfg.CertFile = DefaultCertFile
	}

	if cfg.KeyFile == "" {
		cfg.KeyFile = DefaultKeyFile
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	if cfg.MaxFrameBytes <= 0 {
		cfg.MaxFrameBytes = DefaultMaxFrameBytes
	}

	if _, ok := logger.ParseLogLevel(cfg.LogLevel); !ok {
		return fmt.Errorf("%w: %q", errUnknownLogLevel, cfg.LogLevel)
	}

	if cfg.WebRoot == "" {
		return nil
	}

	info, err := os.Stat(cfg.WebRoot)
	if err != nil {
		return fmt.Errorf("web root: %w", err)
	}

	if !info.IsDir() {
		return fmt.Errorf("%w: %s", errWebRootNotDirectory, cfg.WebRoot)
	}

	return nil
}
