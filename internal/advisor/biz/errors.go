package biz

import (
	"errors"
	"fmt"
)

// ErrIndexUnavailable indicates the vector index could not serve a search.
// Retrieval failures are fatal for the request; there is no degraded path.
var ErrIndexUnavailable = errors.New("product index unavailable")

// ReviewFormatError reports a malformed line in the review feed. Any line
// with the wrong field count aborts ingestion.
type ReviewFormatError struct {
	Line   int
	Fields int
}

func (e *ReviewFormatError) Error() string {
	return fmt.Sprintf("malformed review line %d: got %d fields, want 4", e.Line, e.Fields)
}
