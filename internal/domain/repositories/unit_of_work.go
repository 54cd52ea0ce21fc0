package repositories

import (
	"context"
)

// UnitOfWork runs fn inside one database transaction. Repositories called
// with the ctx handed to fn join that transaction; nested Do calls reuse it.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}
