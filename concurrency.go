package glimpse

import (
	"context"
	"fmt"

	"github.com/glimpsehq/glimpse/model"
)

type requestFunc[T any] func(m *model.Model) T
type errorFunc[T any] func(err error) T

// serialize grants exclusive use of the bridge context for one request.
// Callers block until the context is free or ctx expires; requests never
// overlap.
func serialize[T any](ctx context.Context, g *Glimpse, f requestFunc[T], ef errorFunc[T]) T {
	m, err := g.acquire(ctx)
	if err != nil {
		return ef(err)
	}
	defer g.release(m)

	return f(m)
}

func (g *Glimpse) acquire(ctx context.Context) (*model.Model, error) {
	err := func() error {
		g.shutdown.Lock()
		defer g.shutdown.Unlock()

		if g.shutdownFlag {
			return fmt.Errorf("acquire: glimpse has been unloaded")
		}

		g.active.Add(1)
		return nil
	}()

	if err != nil {
		return nil, err
	}

	// -------------------------------------------------------------------------

	select {
	case <-ctx.Done():
		g.active.Done()
		return nil, ctx.Err()

	case m := <-g.models:
		return m, nil
	}
}

func (g *Glimpse) release(m *model.Model) {
	g.models <- m
	g.active.Done()
}
