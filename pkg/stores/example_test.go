package stores_test

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/openfroyo/typeintro/pkg/introspection"
	"github.com/openfroyo/typeintro/pkg/stores"
)

// ExampleJournal shows how to keep a durable record of retrieval failures.
func ExampleJournal() {
	store, err := stores.NewSQLiteStore(stores.Config{Path: ":memory:"})
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	if err := store.Init(ctx); err != nil {
		log.Fatal(err)
	}
	if err := store.Migrate(ctx); err != nil {
		log.Fatal(err)
	}
	defer store.Close()

	journal := stores.NewJournal(store)
	_ = journal.RecordRetrieval(ctx, introspection.RetrievalOutcome{
		TypeName:  "sensor_msgs/msg/Imu",
		Part:      introspection.PartSchema,
		Source:    introspection.SourceLookup,
		ErrorKind: introspection.KindConfiguration,
		Error:     "scripts path not configured",
		At:        time.Now(),
	})

	failed, err := store.ListRetrievals(ctx, stores.RetrievalFilter{Status: stores.RetrievalStatusFailed})
	if err != nil {
		log.Fatal(err)
	}
	for _, r := range failed {
		fmt.Println(r.TypeName, r.Part, r.ErrorKind)
	}
	// Output: sensor_msgs/msg/Imu schema configuration
}
