package introspection

import (
	"context"
	"time"
)

// Retrieval parts.
const (
	PartTemplate = "template"
	PartSchema   = "schema"
)

// Retrieval sources: through the cache, or a direct uncached call.
const (
	SourceLookup = "lookup"
	SourceDirect = "direct"
)

// RetrievalOutcome describes one template or schema retrieval.
type RetrievalOutcome struct {
	TypeName  string
	Part      string
	Source    string
	ErrorKind ErrorKind
	Error     string
	Duration  time.Duration
	At        time.Time
}

// Succeeded reports whether the retrieval returned data.
func (o RetrievalOutcome) Succeeded() bool {
	return o.ErrorKind == ""
}

// Journal records retrieval outcomes, failed ones included, so callers can
// tell an empty descriptor part caused by a failure from one that is simply empty.
type Journal interface {
	RecordRetrieval(ctx context.Context, outcome RetrievalOutcome) error
}
