package sql

import (
	"context"
	"errors"
	"fmt"

	"github.com/syssam/fluentdb"
)

// ErrStop is returned by a Chunk or Each callback to end the iteration
// early. The iteration then reports false and no error.
var ErrStop = errors.New("fluentdb: stop iteration")

// Chunk walks the query results in pages of count rows, calling fn with
// each page and its 1-based number. The query must be ordered. Iteration
// ends after the first short page. It reports whether every page was
// visited.
func (b *Builder) Chunk(ctx context.Context, count int, fn func(rows []Row, page int) error) (bool, error) {
	if b.err != nil {
		return false, b.err
	}
	if len(b.orders) == 0 && len(b.unionOrders) == 0 {
		return false, fluentdb.NewConfigError("chunk", "you must specify an orderBy clause when using this function", fluentdb.ErrMissingOrderBy)
	}
	if count < 1 {
		return false, fluentdb.NewConfigError("chunk", fmt.Sprintf("chunk size must be positive, got %d", count), fluentdb.ErrInvalidArgument)
	}
	for page := 1; ; page++ {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		rows, err := b.Clone().ForPage(page, count).Get(ctx)
		if err != nil {
			return false, err
		}
		n := len(rows)
		if n == 0 {
			break
		}
		if err := fn(rows, page); err != nil {
			if errors.Is(err, ErrStop) {
				return false, nil
			}
			return false, err
		}
		if n != count {
			break
		}
	}
	return true, nil
}

// Each walks the query results one row at a time, fetching count rows per
// query. The index passed to fn counts rows from 0 across pages.
func (b *Builder) Each(ctx context.Context, count int, fn func(row Row, index int) error) (bool, error) {
	return b.Chunk(ctx, count, func(rows []Row, page int) error {
		for i, row := range rows {
			if err := fn(row, (page-1)*count+i); err != nil {
				return err
			}
		}
		return nil
	})
}
