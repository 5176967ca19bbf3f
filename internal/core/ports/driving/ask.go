package driving

import "context"

// AskService answers user questions about the PM-KISAN scheme.
//
// Ask never fails from the caller's point of view: every internal error is
// converted into a user-facing natural-language message. Both the console
// harness and any front end call this single operation.
type AskService interface {
	// Ask returns an answer for the question. Each call also appends
	// exactly one record to the interaction log.
	Ask(ctx context.Context, question string) string
}
