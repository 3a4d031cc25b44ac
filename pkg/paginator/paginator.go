// Package paginator splits an ordered slice into fixed-size pages without
// copying elements.
package paginator

import (
	"iter"

	apperrors "github.com/Adithya-Monish-Kumar-K/search-server/pkg/errors"
)

// Paginator is a read-only view over items. Pages share the backing array
// of items and are capped so appending to a page never overwrites the next
// one.
type Paginator[T any] struct {
	items    []T
	pageSize int
}

// New fails with an invalid-argument error if pageSize is not positive.
func New[T any](items []T, pageSize int) (*Paginator[T], error) {
	if pageSize <= 0 {
		return nil, apperrors.InvalidArgumentf("page size must be positive, got %d", pageSize)
	}
	return &Paginator[T]{items: items, pageSize: pageSize}, nil
}

// Len returns the number of pages; zero for an empty input.
func (p *Paginator[T]) Len() int {
	n := len(p.items) / p.pageSize
	if len(p.items)%p.pageSize != 0 {
		n++
	}
	return n
}

func (p *Paginator[T]) PageSize() int {
	return p.pageSize
}

// Page returns page i. Every page holds PageSize elements except possibly
// the last.
func (p *Paginator[T]) Page(i int) ([]T, error) {
	if i < 0 || i >= p.Len() {
		return nil, apperrors.OutOfRangef("page %d not in [0, %d)", i, p.Len())
	}
	return p.page(i), nil
}

// All yields page numbers and pages in order.
func (p *Paginator[T]) All() iter.Seq2[int, []T] {
	return func(yield func(int, []T) bool) {
		for i := range p.Len() {
			if !yield(i, p.page(i)) {
				return
			}
		}
	}
}

func (p *Paginator[T]) page(i int) []T {
	start := i * p.pageSize
	end := start + min(p.pageSize, len(p.items)-start)
	return p.items[start:end:end]
}

// Paginate collects every page of items.
func Paginate[T any](items []T, pageSize int) ([][]T, error) {
	p, err := New(items, pageSize)
	if err != nil {
		return nil, err
	}
	pages := make([][]T, 0, p.Len())
	for _, page := range p.All() {
		pages = append(pages, page)
	}
	return pages, nil
}
