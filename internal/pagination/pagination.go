// Package pagination slices ordered collections into fixed-size pages.
package pagination

import (
	"strconv"
	"strings"

	"github.com/samber/lo"
)

// PageSize is the number of items on every listing page.
const PageSize = 10

// Page is one slice of an ordered collection.
type Page[T any] struct {
	Items      []T
	Number     int
	NumPages   int
	TotalCount int64
	PerPage    int
}

// Paginator resolves page numbers against a known collection size.
type Paginator struct {
	PerPage int
	Count   int64
}

// New returns a Paginator for count items with the default page size.
func New(count int64) Paginator {
	return Paginator{PerPage: PageSize, Count: count}
}

// NumPages is never below one, so an empty collection still has one (empty) page.
func (p Paginator) NumPages() int {
	per := p.perPage()
	if p.Count <= 0 {
		return 1
	}
	return int((p.Count + int64(per) - 1) / int64(per))
}

// Resolve maps a requested page onto a valid one: anything that is not an
// integer gives the first page, any integer out of range gives the last.
func (p Paginator) Resolve(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 1
	}
	if last := p.NumPages(); n < 1 || n > last {
		return last
	}
	return n
}

// Window returns the LIMIT/OFFSET pair for page number n.
func (p Paginator) Window(n int) (limit, offset int) {
	per := p.perPage()
	if n < 1 {
		n = 1
	}
	return per, (n - 1) * per
}

func (p Paginator) perPage() int {
	if p.PerPage <= 0 {
		return PageSize
	}
	return p.PerPage
}

// NewPage wraps items fetched for page n.
func NewPage[T any](p Paginator, n int, items []T) Page[T] {
	if items == nil {
		items = []T{}
	}
	return Page[T]{
		Items:      items,
		Number:     n,
		NumPages:   p.NumPages(),
		TotalCount: p.Count,
		PerPage:    p.perPage(),
	}
}

// HasNext reports whether a later page exists.
func (pg Page[T]) HasNext() bool { return pg.Number < pg.NumPages }

// HasPrevious reports whether an earlier page exists.
func (pg Page[T]) HasPrevious() bool { return pg.Number > 1 }

// HasOtherPages reports whether the collection spans more than one page.
func (pg Page[T]) HasOtherPages() bool { return pg.NumPages > 1 }

// NextPageNumber is only meaningful when HasNext is true.
func (pg Page[T]) NextPageNumber() int { return pg.Number + 1 }

// PreviousPageNumber is only meaningful when HasPrevious is true.
func (pg Page[T]) PreviousPageNumber() int { return pg.Number - 1 }

// Len is the number of items on this page.
func (pg Page[T]) Len() int { return len(pg.Items) }

// PageRange lists every page number, for rendering the paginator.
func (pg Page[T]) PageRange() []int {
	return lo.RangeFrom(1, pg.NumPages)
}
