package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/openfroyo/typeintro/pkg/config"
	"github.com/openfroyo/typeintro/pkg/executor"
	"github.com/openfroyo/typeintro/pkg/introspection"
	"github.com/openfroyo/typeintro/pkg/stores"
	"github.com/openfroyo/typeintro/pkg/telemetry"
	"github.com/openfroyo/typeintro/pkg/transports/ssh"
)

const shutdownTimeout = 5 * time.Second

// app holds everything a command builds from configuration. Parts are
// created on first use and released by close.
type app struct {
	cfg    *config.Config
	tel    *telemetry.Telemetry
	logger *telemetry.Logger

	store  *stores.SQLiteStore
	remote *ssh.Client
}

// newApp loads configuration, applies command-line overrides and starts
// telemetry.
func newApp(cmd *cobra.Command) (*app, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	tel, err := telemetry.NewTelemetry(cfg.Telemetry)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	if err := tel.StartMetricsServer(); err != nil {
		return nil, fmt.Errorf("failed to start metrics server: %w", err)
	}

	return &app{
		cfg:    cfg,
		tel:    tel,
		logger: tel.Logger.NewComponentLogger("cli"),
	}, nil
}

// loadConfig reads the config file and environment, then applies flags
// the user set explicitly.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("scripts-path") {
		cfg.ScriptsPath = scriptsPath
	}
	if flags.Changed("tool") {
		cfg.Tool = tool
	}
	if flags.Changed("executor") {
		cfg.Executor.Mode = executorMode
	}
	if flags.Changed("metrics-addr") {
		cfg.Telemetry.Metrics.Enabled = true
		cfg.Telemetry.Metrics.ListenAddress = metricsAddr
	}
	if verbose {
		cfg.Telemetry.Logging.Level = "debug"
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// executor builds the configured command executor wrapped with spans and
// command metrics.
func (a *app) executor() (executor.Executor, error) {
	switch a.cfg.Executor.Mode {
	case config.ModeSSH:
		client, err := a.sshClient()
		if err != nil {
			return nil, err
		}
		return executor.NewInstrumented(config.ModeSSH, ssh.NewExecutor(client), a.tel), nil

	default:
		local := &executor.Local{
			Shell:   a.cfg.Executor.Shell,
			WorkDir: a.cfg.Executor.WorkDir,
			Env:     a.cfg.Executor.Env,
			Timeout: a.cfg.CommandTimeout,
		}
		return executor.NewInstrumented(config.ModeLocal, local, a.tel), nil
	}
}

// sshClient returns the unconnected SSH client for the configured host.
func (a *app) sshClient() (*ssh.Client, error) {
	if a.remote != nil {
		return a.remote, nil
	}
	if a.cfg.Executor.SSH == nil {
		return nil, errors.New("ssh executor is not configured (set executor.ssh)")
	}
	client, err := ssh.NewClient(a.cfg.Executor.SSH)
	if err != nil {
		return nil, err
	}
	a.remote = client
	return client, nil
}

// journal opens the retrieval journal, migrating it and pruning entries
// past the retention. It returns nil when no journal path is configured.
func (a *app) journal(ctx context.Context) (*stores.SQLiteStore, error) {
	if a.store != nil || a.cfg.Journal.Path == "" {
		return a.store, nil
	}

	store, err := stores.NewSQLiteStore(stores.Config{Path: a.cfg.Journal.Path})
	if err != nil {
		return nil, err
	}
	if err := store.Init(ctx); err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	if err := store.Migrate(ctx); err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to migrate journal: %w", err)
	}

	if a.cfg.Journal.Retention > 0 {
		pruned, err := store.PruneRetrievals(ctx, time.Now().Add(-a.cfg.Journal.Retention))
		if err != nil {
			a.logger.WithError(err).Warn("failed to prune journal")
		} else if pruned > 0 {
			a.logger.WithField("pruned", pruned).Debug("pruned journal entries")
		}
	}

	a.store = store
	return store, nil
}

// requireJournal is journal for commands that cannot run without one.
func (a *app) requireJournal(ctx context.Context) (*stores.SQLiteStore, error) {
	store, err := a.journal(ctx)
	if err != nil {
		return nil, err
	}
	if store == nil {
		return nil, fmt.Errorf("journal is not configured (set journal.path or %s)", config.EnvJournalPath)
	}
	return store, nil
}

// introspector builds an Introspector over the configured executor and
// journal.
func (a *app) introspector(ctx context.Context) (*introspection.Introspector, error) {
	exec, err := a.executor()
	if err != nil {
		return nil, err
	}

	opts := []introspection.Option{
		introspection.WithExecutor(exec),
		introspection.WithTool(a.cfg.Tool),
		introspection.WithInterpreter(a.cfg.Interpreter),
		introspection.WithTelemetry(a.tel),
		introspection.WithMaxConcurrency(a.cfg.MaxConcurrency),
	}

	store, err := a.journal(ctx)
	if err != nil {
		return nil, err
	}
	if store != nil {
		opts = append(opts, introspection.WithJournal(stores.NewJournal(store)))
	}

	return introspection.New(a.cfg.ScriptsPath, opts...), nil
}

// close releases the journal and SSH connection and flushes telemetry.
func (a *app) close() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.logger.WithError(err).Warn("failed to close journal")
		}
	}
	if a.remote != nil && a.remote.IsConnected() {
		if err := a.remote.Disconnect(); err != nil {
			a.logger.WithError(err).Warn("failed to disconnect")
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := a.tel.Shutdown(ctx); err != nil {
		a.logger.WithError(err).Warn("failed to shut down telemetry")
	}
}
