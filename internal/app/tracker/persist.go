package tracker

import (
	"context"

	"github.com/slok/duely/internal/debounce"
)

// saver remembers save requests dropped by its debounced store, so a flush can
// still persist the latest data.
type saver[T any] struct {
	store   *debounce.Store[T]
	dropped bool
}

func (s *saver[T]) request(v T) {
	s.dropped = !s.store.RequestSave(v)
}

// flush writes the pending snapshot. If the last request was dropped, v is
// written once the in flight write ends.
func (s *saver[T]) flush(ctx context.Context, v T) error {
	if err := s.store.Flush(ctx); err != nil {
		return err
	}

	if !s.dropped {
		return nil
	}
	s.dropped = false

	s.store.RequestSave(v)
	return s.store.Flush(ctx)
}
