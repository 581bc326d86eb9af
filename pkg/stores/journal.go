package stores

import (
	"context"

	"github.com/google/uuid"

	"github.com/openfroyo/typeintro/pkg/introspection"
)

// Journal records introspection retrieval outcomes in a SQLiteStore.
type Journal struct {
	store *SQLiteStore
}

var _ introspection.Journal = (*Journal)(nil)

// NewJournal returns a journal backed by store. The store must already be
// initialized and migrated.
func NewJournal(store *SQLiteStore) *Journal {
	return &Journal{store: store}
}

// RecordRetrieval implements introspection.Journal.
func (j *Journal) RecordRetrieval(ctx context.Context, outcome introspection.RetrievalOutcome) error {
	return j.store.RecordRetrieval(ctx, FromOutcome(outcome))
}

// FromOutcome converts an introspection outcome into a journal entry with a
// fresh ID.
func FromOutcome(outcome introspection.RetrievalOutcome) *Retrieval {
	status := RetrievalStatusSuccess
	if !outcome.Succeeded() {
		status = RetrievalStatusFailed
	}

	return &Retrieval{
		ID:         uuid.New().String(),
		TypeName:   outcome.TypeName,
		Part:       outcome.Part,
		Source:     outcome.Source,
		Status:     status,
		ErrorKind:  string(outcome.ErrorKind),
		Error:      outcome.Error,
		DurationMS: outcome.Duration.Milliseconds(),
		CreatedAt:  outcome.At,
	}
}
