package domain

import "time"

// Interaction is one question/answer exchange, recorded for observability.
// Records are append-only; the system never mutates or deletes them.
type Interaction struct {
	// Timestamp is when the question was answered, in UTC.
	Timestamp time.Time

	// Query is the user's question, verbatim.
	Query string

	// Context holds the retrieved chunk texts in retrieval order.
	// Empty when the answer was a fallback message.
	Context []string

	// Response is the answer shown to the user, including fallbacks.
	Response string
}
