package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Tool != "ros2" || cfg.Interpreter != "python3" {
		t.Errorf("unexpected tool/interpreter: %s %s", cfg.Tool, cfg.Interpreter)
	}
	if cfg.ScriptsPath != "" {
		t.Errorf("expected empty scripts path, got %q", cfg.ScriptsPath)
	}
	if cfg.Executor.Mode != ModeLocal {
		t.Errorf("expected local executor, got %q", cfg.Executor.Mode)
	}
}

func TestParse(t *testing.T) {
	data := []byte(`
scripts_path: /opt/typeintro/scripts
interpreter: python3.11
command_timeout: 45s
executor:
  env:
    ROS_DOMAIN_ID: "7"
journal:
  path: /var/lib/typeintro/journal.db
  retention: 168h
telemetry:
  logging:
    level: debug
    format: json
`)

	cfg, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if cfg.ScriptsPath != "/opt/typeintro/scripts" {
		t.Errorf("ScriptsPath = %q", cfg.ScriptsPath)
	}
	if cfg.Interpreter != "python3.11" {
		t.Errorf("Interpreter = %q", cfg.Interpreter)
	}
	if cfg.Tool != "ros2" {
		t.Errorf("Tool default lost: %q", cfg.Tool)
	}
	if cfg.CommandTimeout != 45*time.Second {
		t.Errorf("CommandTimeout = %v", cfg.CommandTimeout)
	}
	if cfg.Executor.Shell != "/bin/sh" {
		t.Errorf("Shell default lost: %q", cfg.Executor.Shell)
	}
	if cfg.Executor.Env["ROS_DOMAIN_ID"] != "7" {
		t.Errorf("Env = %v", cfg.Executor.Env)
	}
	if cfg.Journal.Retention != 168*time.Hour {
		t.Errorf("Retention = %v", cfg.Journal.Retention)
	}
	if cfg.Telemetry.Logging.Level != "debug" || cfg.Telemetry.Logging.Format != "json" {
		t.Errorf("Logging = %+v", cfg.Telemetry.Logging)
	}
	if cfg.Telemetry.ServiceName != "typeintro" {
		t.Errorf("telemetry defaults lost: %q", cfg.Telemetry.ServiceName)
	}
}

func TestParseSSH(t *testing.T) {
	data := []byte(`
executor:
  mode: ssh
  ssh:
    host: robot.local
    port: 2222
    user: ros
    auth_method: password
    password: secret
    connection_timeout: 10s
`)

	cfg, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Executor.SSH.Address() != "robot.local:2222" {
		t.Errorf("Address = %q", cfg.Executor.SSH.Address())
	}
	if cfg.Executor.SSH.ConnectionTimeout != 10*time.Second {
		t.Errorf("ConnectionTimeout = %v", cfg.Executor.SSH.ConnectionTimeout)
	}
}

func TestParseSSHDefaults(t *testing.T) {
	data := []byte(`
executor:
  mode: ssh
  ssh:
    host: robot.local
    user: ros
    auth_method: password
    password: secret
`)

	cfg, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	ssh := cfg.Executor.SSH
	if ssh.Port != 22 {
		t.Errorf("Port = %d, want 22", ssh.Port)
	}
	if ssh.ConnectionTimeout != 30*time.Second {
		t.Errorf("ConnectionTimeout = %v", ssh.ConnectionTimeout)
	}
	if ssh.MaxKeepAliveRetries != 3 {
		t.Errorf("MaxKeepAliveRetries = %d", ssh.MaxKeepAliveRetries)
	}
	if ssh.StrictHostKeyChecking {
		t.Error("StrictHostKeyChecking should stay as written")
	}
}

func TestValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "unknown executor mode",
			yaml:    "executor:\n  mode: docker\n",
			wantErr: "Executor.Mode must be one of",
		},
		{
			name:    "ssh mode without ssh section",
			yaml:    "executor:\n  mode: ssh\n",
			wantErr: "Executor.SSH is required",
		},
		{
			name:    "local mode without shell",
			yaml:    "executor:\n  shell: \"\"\n",
			wantErr: "Executor.Shell is required",
		},
		{
			name:    "empty tool",
			yaml:    "tool: \"\"\n",
			wantErr: "Tool is required",
		},
		{
			name:    "negative timeout",
			yaml:    "command_timeout: -1s\n",
			wantErr: "CommandTimeout",
		},
		{
			name:    "zero concurrency",
			yaml:    "max_concurrency: 0\n",
			wantErr: "MaxConcurrency",
		},
		{
			name:    "bad log level",
			yaml:    "telemetry:\n  logging:\n    level: loud\n",
			wantErr: "invalid log level",
		},
		{
			name:    "ssh without user",
			yaml:    "executor:\n  mode: ssh\n  ssh:\n    host: robot.local\n    port: 22\n    auth_method: password\n    password: x\n    connection_timeout: 5s\n",
			wantErr: "user is required",
		},
		{
			name:    "malformed yaml",
			yaml:    "executor: [",
			wantErr: "failed to parse config",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if err == nil {
				t.Fatalf("expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not contain %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		EnvScriptsPath: "/srv/scripts",
		EnvTool:        "/opt/ros/jazzy/bin/ros2",
		EnvExecutor:    "LOCAL",
		EnvJournalPath: "/tmp/journal.db",
		EnvLogLevel:    "WARN",
		EnvInterpreter: "",
	}
	lookup := func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}

	cfg := DefaultConfig()
	cfg.ApplyEnv(lookup)

	if cfg.ScriptsPath != "/srv/scripts" {
		t.Errorf("ScriptsPath = %q", cfg.ScriptsPath)
	}
	if cfg.Tool != "/opt/ros/jazzy/bin/ros2" {
		t.Errorf("Tool = %q", cfg.Tool)
	}
	if cfg.Interpreter != "python3" {
		t.Errorf("empty override replaced interpreter: %q", cfg.Interpreter)
	}
	if cfg.Executor.Mode != ModeLocal {
		t.Errorf("Mode = %q", cfg.Executor.Mode)
	}
	if cfg.Journal.Path != "/tmp/journal.db" {
		t.Errorf("Journal.Path = %q", cfg.Journal.Path)
	}
	if cfg.Telemetry.Logging.Level != "warn" {
		t.Errorf("Logging.Level = %q", cfg.Telemetry.Logging.Level)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestApplyEnvClearsScriptsPath(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ScriptsPath = "/opt/scripts"
	cfg.ApplyEnv(func(key string) (string, bool) {
		if key == EnvScriptsPath {
			return "", true
		}
		return "", false
	})
	if cfg.ScriptsPath != "" {
		t.Errorf("expected scripts path cleared, got %q", cfg.ScriptsPath)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "typeintro.yaml")
	if err := os.WriteFile(path, []byte("scripts_path: /from/file\ntool: ros2\n"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	t.Setenv(EnvScriptsPath, "/from/env")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ScriptsPath != "/from/env" {
		t.Errorf("environment did not override file: %q", cfg.ScriptsPath)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}

	if got := expandHome("~/.ssh/id_ed25519"); got != filepath.Join(home, ".ssh", "id_ed25519") {
		t.Errorf("expandHome = %q", got)
	}
	if got := expandHome("/abs/path"); got != "/abs/path" {
		t.Errorf("expandHome changed absolute path: %q", got)
	}
	if got := expandHome("~user/x"); got != "~user/x" {
		t.Errorf("expandHome changed ~user path: %q", got)
	}
}
