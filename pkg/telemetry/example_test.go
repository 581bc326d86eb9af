package telemetry_test

import (
	"context"
	"errors"
	"fmt"

	"github.com/openfroyo/typeintro/pkg/telemetry"
)

// Example_retrievalFailures shows how to observe retrievals the cache swallowed.
func Example_retrievalFailures() {
	cfg := telemetry.DefaultConfig()
	cfg.Events.EnableAsync = false

	tel, err := telemetry.NewTelemetry(cfg)
	if err != nil {
		panic(err)
	}
	defer tel.Shutdown(context.Background())

	tel.Events.Subscribe(func(e telemetry.Event) {
		fmt.Println(e.Type, e.TypeName, e.Part)
	}, telemetry.FilterByType(telemetry.EventTypeRetrievalFailed))

	_ = tel.Events.PublishRetrievalFailed("std_msgs/msg/Bool", "schema", "configuration", errors.New("scripts path not configured"))

	// Output:
	// introspection.retrieval_failed std_msgs/msg/Bool schema
}
