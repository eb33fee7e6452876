package result

import (
	"fmt"
	"sync"

	"github.com/olleolleolle/search-flip/internal/domain"
)

type slot[T any] struct {
	once sync.Once
	v    T
	err  error
}

// Hits converts each hit's source into T on first access and caches it.
// Safe for concurrent use.
type Hits[T any] struct {
	dec   Decoder
	hits  []Hit
	slots []slot[T]
}

// NewHits wraps raw hits.
func NewHits[T any](dec Decoder, hits []Hit) *Hits[T] {
	return &Hits[T]{dec: dec, hits: hits, slots: make([]slot[T], len(hits))}
}

// Len returns the number of hits.
func (h *Hits[T]) Len() int { return len(h.hits) }

// Raw returns hit i unconverted.
func (h *Hits[T]) Raw(i int) Hit { return h.hits[i] }

// At returns the converted source of hit i. A hit without a source converts
// to the zero value.
func (h *Hits[T]) At(i int) (T, error) {
	s := &h.slots[i]
	s.once.Do(func() {
		src := h.hits[i].Source
		if len(src) == 0 {
			return
		}
		if err := h.dec.Decode(src, &s.v); err != nil {
			s.err = fmt.Errorf("%w: hit %q: %w", domain.ErrInvalidResponse, h.hits[i].ID, err)
		}
	})
	return s.v, s.err
}

// All converts every hit in order, stopping at the first failure.
func (h *Hits[T]) All() ([]T, error) {
	out := make([]T, 0, len(h.hits))
	for i := range h.hits {
		v, err := h.At(i)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
