package driven

import (
	"context"

	"github.com/sahay-labs/sahay-cli/internal/core/domain"
)

// InteractionLog appends structured records of each query/response exchange
// to an append-only log. Records are never mutated or deleted.
type InteractionLog interface {
	// Append writes one record. The file and its parent directory are
	// created on first use.
	Append(ctx context.Context, interaction domain.Interaction) error
}
