package fetch

import (
	"context"

	"github.com/poiesic/anirag/core"
)

// Client looks up show metadata in an external source by title.
// Implementations must return ErrNotFound for unknown titles so callers
// can distinguish "no such show" from transport failures.
type Client interface {
	// FetchByTitle retrieves the metadata record for a show title.
	FetchByTitle(ctx context.Context, title string) (*core.ShowRecord, error)
}
