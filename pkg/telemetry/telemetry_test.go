package telemetry

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name        string
		modify      func(c *Config)
		expectError bool
	}{
		{name: "defaults", modify: func(c *Config) {}},
		{name: "missing service name", modify: func(c *Config) { c.ServiceName = "" }, expectError: true},
		{name: "bad level", modify: func(c *Config) { c.Logging.Level = "loud" }, expectError: true},
		{name: "bad format", modify: func(c *Config) { c.Logging.Format = "xml" }, expectError: true},
		{
			name: "otlp without endpoint",
			modify: func(c *Config) {
				c.Tracing.Enabled = true
				c.Tracing.Exporter = "otlp"
			},
			expectError: true,
		},
		{
			name: "unknown exporter",
			modify: func(c *Config) {
				c.Tracing.Enabled = true
				c.Tracing.Exporter = "jaeger"
			},
			expectError: true,
		},
		{name: "sampling out of range", modify: func(c *Config) { c.Tracing.SamplingRate = 1.5 }, expectError: true},
		{
			name: "async events without buffer",
			modify: func(c *Config) {
				c.Events.BufferSize = 0
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.expectError && err == nil {
				t.Error("expected error, got nil")
			}
			if !tt.expectError && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestLoggerFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(LoggingConfig{Level: "debug", Format: "json"}, &buf)

	logger.NewComponentLogger("introspection").
		WithTypeName("std_msgs/msg/String").
		WithError(errors.New("boom")).
		Warn("retrieval failed")

	out := buf.String()
	for _, want := range []string{`"component":"introspection"`, `"type_name":"std_msgs/msg/String"`, `"error":"boom"`, `"level":"warn"`} {
		if !strings.Contains(out, want) {
			t.Errorf("expected log line to contain %s, got %s", want, out)
		}
	}
}

func TestLoggerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(LoggingConfig{Level: "warn", Format: "json"}, &buf)

	logger.Info("hidden")
	if buf.Len() != 0 {
		t.Errorf("expected info to be filtered, got %s", buf.String())
	}

	logger.Error("shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Errorf("expected error to be logged, got %s", buf.String())
	}
}

func TestLoggerContext(t *testing.T) {
	logger := NewNopLogger()
	ctx := logger.WithContext(context.Background())
	if FromContext(ctx) != logger {
		t.Error("expected logger from context")
	}
	if FromContext(context.Background()) == nil {
		t.Error("expected default logger")
	}
}

func TestMetricsRecording(t *testing.T) {
	m, err := NewMetrics(DefaultConfig().Metrics)
	if err != nil {
		t.Fatalf("failed to create metrics: %v", err)
	}

	m.RecordLookup(true)
	m.RecordLookup(false)
	m.RecordLookup(false)
	m.SetCacheEntries(3)
	m.RecordPublishRace()
	m.RecordRetrieval("schema", "", 10*time.Millisecond)
	m.RecordRetrieval("schema", "retrieval", 10*time.Millisecond)
	m.RecordCommand("local", nil, time.Millisecond)

	if got := testutil.ToFloat64(m.lookups.WithLabelValues("miss")); got != 2 {
		t.Errorf("expected 2 misses, got %v", got)
	}
	if got := testutil.ToFloat64(m.lookups.WithLabelValues("hit")); got != 1 {
		t.Errorf("expected 1 hit, got %v", got)
	}
	if got := testutil.ToFloat64(m.cacheEntries); got != 3 {
		t.Errorf("expected 3 entries, got %v", got)
	}
	if got := testutil.ToFloat64(m.retrievalErrors.WithLabelValues("schema", "retrieval")); got != 1 {
		t.Errorf("expected 1 schema retrieval error, got %v", got)
	}
	if got := testutil.ToFloat64(m.retrievals.WithLabelValues("schema", "success")); got != 1 {
		t.Errorf("expected 1 successful schema retrieval, got %v", got)
	}
	if got := testutil.ToFloat64(m.commands.WithLabelValues("local", "success")); got != 1 {
		t.Errorf("expected 1 command, got %v", got)
	}
}

func TestDisabledMetricsAreSafe(t *testing.T) {
	var nilMetrics *Metrics
	nilMetrics.RecordLookup(true)
	nilMetrics.RecordRetrieval("template", "decode", time.Second)

	m, err := NewMetrics(MetricsConfig{Enabled: false})
	if err != nil {
		t.Fatalf("failed to create metrics: %v", err)
	}
	m.RecordLookup(false)
	m.SetCacheEntries(1)
	if m.Registry() != nil {
		t.Error("expected no registry for disabled metrics")
	}

	server, err := m.StartMetricsServer()
	if err != nil || server != nil {
		t.Errorf("expected no server for disabled metrics, got %v, %v", server, err)
	}
}

func TestEventPublisherSync(t *testing.T) {
	ep, err := NewEventPublisher(EventsConfig{Enabled: true})
	if err != nil {
		t.Fatalf("failed to create publisher: %v", err)
	}

	var failures, all []Event
	ep.Subscribe(func(e Event) { failures = append(failures, e) }, FilterByType(EventTypeRetrievalFailed))
	ep.Subscribe(func(e Event) { all = append(all, e) }, nil)

	if err := ep.PublishRetrievalFailed("pkg/msg/A", "schema", "retrieval", errors.New("unknown type")); err != nil {
		t.Fatalf("publish failed: %v", err)
	}
	if err := ep.PublishDescriptorCached("pkg/msg/A", false, true); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	if len(failures) != 1 {
		t.Fatalf("expected 1 failure event, got %d", len(failures))
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 events, got %d", len(all))
	}

	e := failures[0]
	if e.ID == "" || e.Timestamp.IsZero() {
		t.Error("expected ID and timestamp to be set")
	}
	if e.TypeName != "pkg/msg/A" || e.Part != "schema" {
		t.Errorf("unexpected event: %+v", e)
	}
	if e.Data["error_kind"] != "retrieval" {
		t.Errorf("expected error_kind retrieval, got %v", e.Data["error_kind"])
	}
	if !strings.Contains(e.Message, "unknown type") {
		t.Errorf("expected message to mention cause, got %q", e.Message)
	}
}

func TestEventPublisherGlobalFilter(t *testing.T) {
	ep, _ := NewEventPublisher(EventsConfig{Enabled: true})
	ep.AddFilter(FilterByLevel(EventLevelWarning))

	count := 0
	ep.Subscribe(func(e Event) { count++ }, nil)

	_ = ep.PublishDescriptorCached("pkg/msg/A", true, true)
	_ = ep.PublishRetrievalFailed("pkg/msg/A", "template", "decode", errors.New("bad yaml"))

	if count != 1 {
		t.Errorf("expected only the warning to pass, got %d events", count)
	}
}

func TestEventPublisherAsyncShutdownDrains(t *testing.T) {
	ep, err := NewEventPublisher(EventsConfig{Enabled: true, EnableAsync: true, BufferSize: 64, MaxBatchSize: 8})
	if err != nil {
		t.Fatalf("failed to create publisher: %v", err)
	}

	var mu sync.Mutex
	seen := map[string]bool{}
	ep.Subscribe(func(e Event) {
		mu.Lock()
		seen[e.TypeName] = true
		mu.Unlock()
	}, FilterByTypeName("pkg/msg/B"))

	for i := 0; i < 10; i++ {
		if err := ep.PublishDescriptorCached("pkg/msg/B", true, true); err != nil {
			t.Fatalf("publish failed: %v", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := ep.Shutdown(ctx); err != nil {
		t.Fatalf("shutdown failed: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if !seen["pkg/msg/B"] {
		t.Error("expected buffered events to be delivered before shutdown returned")
	}

	if err := ep.PublishDescriptorCached("pkg/msg/B", true, true); err == nil {
		t.Error("expected publish after shutdown to fail")
	}
}

func TestNopTelemetry(t *testing.T) {
	tel := NewNopTelemetry()
	ctx := tel.WithContext(context.Background())
	if FromTelemetryContext(ctx) != tel {
		t.Error("expected telemetry from context")
	}

	_, span := tel.Tracer.StartLookupSpan(ctx, "pkg/msg/A")
	EndSpan(span, errors.New("ignored"))

	if err := tel.Events.PublishDescriptorCached("pkg/msg/A", true, true); err != nil {
		t.Errorf("expected disabled publisher to accept events, got %v", err)
	}
	if err := tel.StartMetricsServer(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := tel.Shutdown(context.Background()); err != nil {
		t.Errorf("unexpected shutdown error: %v", err)
	}
}
