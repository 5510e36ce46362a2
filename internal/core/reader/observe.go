package reader

import (
	"context"
	"log/slog"
	"reflect"

	"Readout/internal/core/paging"
)

// observe emits load's result now and after every change to tables, skipping
// values equal to the previous emission. Rows that cannot be loaded (for
// example not cached yet) are skipped. The channel closes when ctx is done.
func observe[T any](
	ctx context.Context,
	inv paging.Invalidator,
	tables []string,
	logger *slog.Logger,
	load func(ctx context.Context) (T, error),
) <-chan T {
	out := make(chan T, 1)
	changes, unsubscribe := inv.Subscribe(tables...)

	go func() {
		defer close(out)
		defer unsubscribe()

		var last T
		emitted := false
		for {
			v, err := load(ctx)
			switch {
			case err != nil:
				if ctx.Err() != nil {
					return
				}
				logger.Debug("observe load failed", "error", err)
			case !emitted || !reflect.DeepEqual(v, last):
				select {
				case out <- v:
					last, emitted = v, true
				case <-ctx.Done():
					return
				}
			}

			select {
			case <-changes:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}
