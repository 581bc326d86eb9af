package stores

import "time"

// RetrievalStatus is the result of one retrieval.
type RetrievalStatus string

const (
	RetrievalStatusSuccess RetrievalStatus = "success"
	RetrievalStatusFailed  RetrievalStatus = "failed"
)

// Retrieval is one journaled template or schema retrieval.
type Retrieval struct {
	ID         string          `json:"id"`
	TypeName   string          `json:"type_name"`
	Part       string          `json:"part"`   // template, schema
	Source     string          `json:"source"` // lookup, direct
	Status     RetrievalStatus `json:"status"`
	ErrorKind  string          `json:"error_kind,omitempty"`
	Error      string          `json:"error,omitempty"`
	DurationMS int64           `json:"duration_ms"`
	CreatedAt  time.Time       `json:"created_at"`
}

// RetrievalFilter selects journal entries. Zero fields match everything.
type RetrievalFilter struct {
	TypeName string
	Part     string
	Status   RetrievalStatus
	Since    time.Time
	Limit    int
	Offset   int
}

// RetrievalStats aggregates the journal for one type and part.
type RetrievalStats struct {
	TypeName string `json:"type_name"`
	Part     string `json:"part"`
	Total    int    `json:"total"`
	Failures int    `json:"failures"`
}
