package executor

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/openfroyo/typeintro/pkg/shell"
	"github.com/openfroyo/typeintro/pkg/telemetry"
)

func requireShell(t *testing.T) {
	t.Helper()
	if _, err := os.Stat(DefaultShell); err != nil {
		t.Skipf("%s not available", DefaultShell)
	}
}

func TestLocalExecute(t *testing.T) {
	requireShell(t)

	tests := []struct {
		name           string
		command        string
		expectError    bool
		expectedStdout string
		expectedCode   int
	}{
		{
			name:           "simple echo",
			command:        "echo test",
			expectedStdout: "test\n",
		},
		{
			name:           "quoted argument",
			command:        shell.Command("printf '%s'", `it's "quoted"; $(nope)`),
			expectedStdout: `it's "quoted"; $(nope)`,
		},
		{
			name:           "stderr is not stdout",
			command:        "echo error >&2",
			expectedStdout: "",
		},
		{
			name:         "exit with error",
			command:      "echo partial; echo oops >&2; exit 3",
			expectError:  true,
			expectedCode: 3,
		},
		{
			name:         "command not found",
			command:      "definitely-not-a-real-binary-typeintro",
			expectError:  true,
			expectedCode: 127,
		},
	}

	exec := NewLocal(0)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stdout, err := exec.Execute(context.Background(), tt.command)

			if tt.expectError {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				execErr, ok := AsExecError(err)
				if !ok {
					t.Fatalf("expected *ExecError, got %T", err)
				}
				if execErr.ExitCode != tt.expectedCode {
					t.Errorf("expected exit code %d, got %d", tt.expectedCode, execErr.ExitCode)
				}
				if execErr.Command != tt.command {
					t.Errorf("expected command to be recorded, got %q", execErr.Command)
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if stdout != tt.expectedStdout {
				t.Errorf("expected stdout %q, got %q", tt.expectedStdout, stdout)
			}
		})
	}
}

func TestLocalExecuteKeepsFailedOutput(t *testing.T) {
	requireShell(t)

	_, err := NewLocal(0).Execute(context.Background(), `echo '{"error": "unknown type"}'; echo trace >&2; exit 1`)
	execErr, ok := AsExecError(err)
	if !ok {
		t.Fatalf("expected *ExecError, got %v", err)
	}
	if !strings.Contains(execErr.Stdout, "unknown type") {
		t.Errorf("expected stdout to be preserved, got %q", execErr.Stdout)
	}
	if execErr.Stderr != "trace" {
		t.Errorf("expected trimmed stderr, got %q", execErr.Stderr)
	}
	if !strings.Contains(err.Error(), "code 1") {
		t.Errorf("expected exit code in message, got %q", err.Error())
	}
}

func TestLocalExecuteTimeout(t *testing.T) {
	requireShell(t)

	exec := NewLocal(50 * time.Millisecond)
	start := time.Now()
	_, err := exec.Execute(context.Background(), "sleep 5")
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if time.Since(start) > 3*time.Second {
		t.Errorf("timeout did not stop the command promptly")
	}

	execErr, ok := AsExecError(err)
	if !ok {
		t.Fatalf("expected *ExecError, got %T", err)
	}
	if execErr.Op != "timeout" || !execErr.Temporary() {
		t.Errorf("expected temporary timeout error, got %+v", execErr)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded in chain, got %v", err)
	}
}

func TestLocalExecuteEnvAndWorkDir(t *testing.T) {
	requireShell(t)

	dir := t.TempDir()
	exec := &Local{
		WorkDir: dir,
		Env:     map[string]string{"TYPEINTRO_TEST_VAR": "hello"},
	}

	out, err := exec.Execute(context.Background(), `printf '%s:%s' "$TYPEINTRO_TEST_VAR" "$(pwd)"`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.HasPrefix(out, "hello:") {
		t.Errorf("expected env var to be set, got %q", out)
	}
	if !strings.HasSuffix(out, dir) {
		t.Errorf("expected working directory %s, got %q", dir, out)
	}
}

func TestLocalExecuteEmptyCommand(t *testing.T) {
	_, err := NewLocal(0).Execute(context.Background(), "   ")
	execErr, ok := AsExecError(err)
	if !ok {
		t.Fatalf("expected *ExecError, got %v", err)
	}
	if execErr.Op != "launch" {
		t.Errorf("expected launch error, got %s", execErr.Op)
	}
}

func TestLocalExecuteMissingShell(t *testing.T) {
	exec := &Local{Shell: "/nonexistent/shell"}
	_, err := exec.Execute(context.Background(), "true")
	execErr, ok := AsExecError(err)
	if !ok {
		t.Fatalf("expected *ExecError, got %v", err)
	}
	if execErr.Op != "launch" || execErr.ExitCode != -1 {
		t.Errorf("expected launch failure, got %+v", execErr)
	}
}

func TestFuncAndInstrumented(t *testing.T) {
	var seen []string
	inner := Func(func(ctx context.Context, command string) (string, error) {
		seen = append(seen, command)
		if command == "fail" {
			return "", &ExecError{Op: "execute", Command: command, ExitCode: 2}
		}
		return "ok", nil
	})

	cfg := telemetry.DefaultConfig()
	cfg.Events.EnableAsync = false
	tel, err := telemetry.NewTelemetry(cfg)
	if err != nil {
		t.Fatalf("failed to create telemetry: %v", err)
	}

	exec := NewInstrumented("fake", inner, tel)

	out, err := exec.Execute(context.Background(), "run")
	if err != nil || out != "ok" {
		t.Fatalf("unexpected result: %q, %v", out, err)
	}

	if _, err := exec.Execute(context.Background(), "fail"); err == nil {
		t.Fatal("expected error to pass through")
	}

	if len(seen) != 2 {
		t.Errorf("expected 2 calls, got %d", len(seen))
	}

	families, err := tel.Metrics.Registry().Gather()
	if err != nil {
		t.Fatalf("gather failed: %v", err)
	}
	found := false
	for _, mf := range families {
		if mf.GetName() == "typeintro_commands_total" {
			found = len(mf.GetMetric()) == 2
		}
	}
	if !found {
		t.Error("expected success and failure series for typeintro_commands_total")
	}
}
