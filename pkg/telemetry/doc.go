// Package telemetry provides observability for typeintro.
//
// It combines structured logging (zerolog), tracing (OpenTelemetry), metrics
// (Prometheus) and an in-process event publisher. The event publisher is how
// callers learn about template or schema retrievals that the introspection
// cache swallowed into empty placeholders.
//
// # Usage
//
//	cfg := telemetry.DefaultConfig()
//	tel, err := telemetry.NewTelemetry(cfg)
//	if err != nil {
//	    return err
//	}
//	defer tel.Shutdown(context.Background())
//
//	tel.Events.Subscribe(func(e telemetry.Event) {
//	    fmt.Println(e.TypeName, e.Part, e.Message)
//	}, telemetry.FilterByType(telemetry.EventTypeRetrievalFailed))
//
// # Metrics
//
// All metrics live under the configured namespace (default "typeintro"):
//
//   - cache_lookups_total{result}
//   - cache_entries
//   - cache_publish_races_total
//   - cache_unpublished_total
//   - retrievals_total{part,status}
//   - retrieval_duration_seconds{part}
//   - retrieval_errors_total{part,kind}
//   - commands_total{executor,status}
//   - command_duration_seconds{executor}
//
// A nil or disabled Metrics, Tracer or EventPublisher is safe to call and
// records nothing.
package telemetry
