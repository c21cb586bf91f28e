package explorer

import (
	"context"
)

// Source loads explorer entities from the node at endpoint.
// Methods return fetchcache.ErrNotFound when the node answered but the entity
// does not exist (skipped slot, unknown signature, empty account).
type Source interface {
	Block(ctx context.Context, endpoint string, slot Slot) (Block, error)
	Account(ctx context.Context, endpoint string, addr Address) (Account, error)
	Transaction(ctx context.Context, endpoint string, sig Signature) (Transaction, error)
	Supply(ctx context.Context, endpoint string) (Supply, error)
	RichList(ctx context.Context, endpoint string, filter RichListFilter) (RichList, error)
}
