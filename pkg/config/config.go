package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/openfroyo/typeintro/pkg/introspection"
	"github.com/openfroyo/typeintro/pkg/telemetry"
	"github.com/openfroyo/typeintro/pkg/transports/ssh"
)

// Executor modes.
const (
	ModeLocal = "local"
	ModeSSH   = "ssh"
)

// Environment variables that override file settings.
const (
	EnvScriptsPath = "TYPEINTRO_SCRIPTS_PATH"
	EnvTool        = "TYPEINTRO_TOOL"
	EnvInterpreter = "TYPEINTRO_INTERPRETER"
	EnvExecutor    = "TYPEINTRO_EXECUTOR"
	EnvJournalPath = "TYPEINTRO_JOURNAL_PATH"
	EnvLogLevel    = "TYPEINTRO_LOG_LEVEL"
)

// Config is the complete typeintro configuration.
type Config struct {
	// ScriptsPath is the directory holding get_type_schema.py. Empty
	// disables schema retrieval.
	ScriptsPath string `yaml:"scripts_path"`

	Tool        string `yaml:"tool" validate:"required"`
	Interpreter string `yaml:"interpreter" validate:"required"`

	// CommandTimeout bounds each external command. Zero means unbounded.
	CommandTimeout time.Duration `yaml:"command_timeout" validate:"gte=0"`

	// MaxConcurrency bounds parallel lookups for multi-type requests.
	MaxConcurrency int `yaml:"max_concurrency" validate:"gte=1,lte=64"`

	Executor  ExecutorConfig    `yaml:"executor"`
	Journal   JournalConfig     `yaml:"journal"`
	Telemetry *telemetry.Config `yaml:"telemetry" validate:"required"`
}

// ExecutorConfig selects where commands run.
type ExecutorConfig struct {
	Mode string `yaml:"mode" validate:"oneof=local ssh"`

	// Local mode.
	Shell   string            `yaml:"shell" validate:"required_if=Mode local"`
	WorkDir string            `yaml:"work_dir"`
	Env     map[string]string `yaml:"env"`

	// SSH mode.
	SSH *ssh.Config `yaml:"ssh" validate:"required_if=Mode ssh"`
}

// JournalConfig enables the SQLite retrieval journal.
type JournalConfig struct {
	// Path of the database file. Empty disables the journal.
	Path string `yaml:"path"`

	// Retention prunes older entries on open. Zero keeps everything.
	Retention time.Duration `yaml:"retention" validate:"gte=0"`
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() *Config {
	tel := telemetry.DefaultConfig()
	// Metrics are served only when a listen address is configured.
	tel.Metrics.ListenAddress = ""

	return &Config{
		Tool:           introspection.DefaultTool,
		Interpreter:    introspection.DefaultInterpreter,
		MaxConcurrency: 4,
		Executor: ExecutorConfig{
			Mode:  ModeLocal,
			Shell: "/bin/sh",
		},
		Telemetry: tel,
	}
}

// Load reads path (if non-empty) over the defaults, applies environment
// overrides and validates the result.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := cfg.merge(data); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	cfg.ApplyEnv(os.LookupEnv)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes YAML over the defaults and validates the result without
// consulting the environment.
func Parse(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := cfg.merge(data); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// merge decodes YAML on top of the current values. Keys absent from the
// document keep their current value.
func (c *Config) merge(data []byte) error {
	if err := yaml.Unmarshal(data, c); err != nil {
		return err
	}
	if c.Executor.SSH != nil {
		applySSHDefaults(c.Executor.SSH)
		c.Executor.SSH.PrivateKeyPath = expandHome(c.Executor.SSH.PrivateKeyPath)
		c.Executor.SSH.KnownHostsPath = expandHome(c.Executor.SSH.KnownHostsPath)
	}
	c.Journal.Path = expandHome(c.Journal.Path)
	return nil
}

// ApplyEnv overrides settings from the environment. lookup is usually
// os.LookupEnv.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvScriptsPath); ok {
		c.ScriptsPath = v
	}
	if v, ok := lookup(EnvTool); ok && v != "" {
		c.Tool = v
	}
	if v, ok := lookup(EnvInterpreter); ok && v != "" {
		c.Interpreter = v
	}
	if v, ok := lookup(EnvExecutor); ok && v != "" {
		c.Executor.Mode = strings.ToLower(v)
	}
	if v, ok := lookup(EnvJournalPath); ok {
		c.Journal.Path = expandHome(v)
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" && c.Telemetry != nil {
		c.Telemetry.Logging.Level = strings.ToLower(v)
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks struct constraints, then the telemetry and SSH sections.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return fmt.Errorf("invalid config: %s", describe(verrs))
		}
		return fmt.Errorf("invalid config: %w", err)
	}

	if err := c.Telemetry.Validate(); err != nil {
		return fmt.Errorf("invalid telemetry config: %w", err)
	}

	if c.Executor.Mode == ModeSSH {
		if err := c.Executor.SSH.Validate(); err != nil {
			return fmt.Errorf("invalid ssh config: %w", err)
		}
	}

	return nil
}

// describe renders validation errors with their YAML field paths.
func describe(verrs validator.ValidationErrors) string {
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.TrimPrefix(fe.Namespace(), "Config.")
		switch fe.Tag() {
		case "required", "required_if":
			msgs = append(msgs, fmt.Sprintf("%s is required", field))
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of [%s], got %q", field, fe.Param(), fe.Value()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s=%s (value %v)", field, fe.Tag(), fe.Param(), fe.Value()))
		}
	}
	return strings.Join(msgs, "; ")
}

// applySSHDefaults fills the SSH fields left unset in the file from
// ssh.DefaultConfig. StrictHostKeyChecking is taken as written.
func applySSHDefaults(cfg *ssh.Config) {
	def := ssh.DefaultConfig(cfg.Host, cfg.User)
	if cfg.Port == 0 {
		cfg.Port = def.Port
	}
	if cfg.AuthMethod == "" {
		cfg.AuthMethod = def.AuthMethod
	}
	if cfg.KnownHostsPath == "" {
		cfg.KnownHostsPath = def.KnownHostsPath
	}
	if cfg.ConnectionTimeout == 0 {
		cfg.ConnectionTimeout = def.ConnectionTimeout
	}
	if cfg.MaxKeepAliveRetries == 0 {
		cfg.MaxKeepAliveRetries = def.MaxKeepAliveRetries
	}
	if cfg.ProxyPort == 0 {
		cfg.ProxyPort = def.ProxyPort
	}
}

func expandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}
