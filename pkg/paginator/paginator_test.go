package paginator

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Adithya-Monish-Kumar-K/search-server/pkg/errors"
)

func TestPaginate(t *testing.T) {
	cases := []struct {
		name     string
		items    []int
		pageSize int
		want     [][]int
	}{
		{"even split", []int{1, 2, 3, 4}, 2, [][]int{{1, 2}, {3, 4}}},
		{"short last page", []int{1, 2, 3, 4, 5}, 2, [][]int{{1, 2}, {3, 4}, {5}}},
		{"page larger than input", []int{1, 2}, 5, [][]int{{1, 2}}},
		{"single element pages", []int{7, 8, 9}, 1, [][]int{{7}, {8}, {9}}},
		{"empty input", nil, 3, [][]int{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Paginate(tc.items, tc.pageSize)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestNewRejectsNonPositivePageSize(t *testing.T) {
	for _, size := range []int{0, -2} {
		_, err := New([]int{1}, size)
		assert.True(t, errors.Is(err, apperrors.ErrInvalidArgument))
	}
}

func TestPageBounds(t *testing.T) {
	p, err := New([]string{"a", "b", "c"}, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, p.Len())
	assert.Equal(t, 2, p.PageSize())

	page, err := p.Page(1)
	require.NoError(t, err)
	assert.Equal(t, []string{"c"}, page)

	_, err = p.Page(2)
	assert.True(t, errors.Is(err, apperrors.ErrOutOfRange))
	_, err = p.Page(-1)
	assert.True(t, errors.Is(err, apperrors.ErrOutOfRange))
}

func TestPagesAreViews(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}
	p, err := New(items, 2)
	require.NoError(t, err)

	first, err := p.Page(0)
	require.NoError(t, err)
	first[0] = 100
	assert.Equal(t, 100, items[0], "pages share the backing array")

	assert.Equal(t, 2, cap(first))
	_ = append(first, 99)
	assert.Equal(t, 3, items[2], "appending to a page must not clobber the next page")
}

func TestAllStopsEarly(t *testing.T) {
	p, err := New([]int{1, 2, 3, 4, 5, 6}, 2)
	require.NoError(t, err)

	var seen []int
	for i, page := range p.All() {
		seen = append(seen, i)
		if page[0] == 3 {
			break
		}
	}
	assert.Equal(t, []int{0, 1}, seen)
}

func TestPaginateHugePageSize(t *testing.T) {
	for _, size := range []int{math.MaxInt, math.MaxInt - 1} {
		p, err := New([]int{1, 2, 3}, size)
		require.NoError(t, err)
		assert.Equal(t, 1, p.Len())

		page, err := p.Page(0)
		require.NoError(t, err)
		assert.Equal(t, []int{1, 2, 3}, page)

		pages, err := Paginate([]int{1, 2, 3}, size)
		require.NoError(t, err)
		assert.Equal(t, [][]int{{1, 2, 3}}, pages)
	}
}
