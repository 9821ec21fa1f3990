// Package query pages through the flattened ratings: filter, sort by a
// column, then cut one page at a page-index offset.
package query

import (
	"sort"
	"strings"

	"github.com/rotisserie/eris"

	"stockRatings/internal/filter"
	"stockRatings/internal/format"
	"stockRatings/internal/model"
)

// Sortable columns
const (
	ColumnID         = "Id"
	ColumnTicker     = "Ticker"
	ColumnTargetFrom = "TargetFrom"
	ColumnTargetTo   = "TargetTo"
	ColumnCompany    = "Company"
	ColumnAction     = "Action"
	ColumnBrokerage  = "Brokerage"
	ColumnRatingFrom = "RatingFrom"
	ColumnRatingTo   = "RatingTo"
	ColumnTime       = "Time"
)

const (
	DefaultSortBy   = ColumnTicker
	DefaultPageSize = 5
)

var ErrUnknownColumn = eris.New("query: unknown sort column")

// Columns lists the sortable columns in display order.
var Columns = []string{
	ColumnTicker, ColumnCompany, ColumnTargetFrom, ColumnTargetTo, ColumnAction,
	ColumnBrokerage, ColumnRatingFrom, ColumnRatingTo, ColumnTime, ColumnID,
}

var textColumns = map[string]func(*model.StockRating) string{
	ColumnID:         func(r *model.StockRating) string { return r.ID },
	ColumnTicker:     func(r *model.StockRating) string { return r.Ticker },
	ColumnCompany:    func(r *model.StockRating) string { return r.Company },
	ColumnAction:     func(r *model.StockRating) string { return r.Action },
	ColumnBrokerage:  func(r *model.StockRating) string { return r.Brokerage },
	ColumnRatingFrom: func(r *model.StockRating) string { return r.RatingFrom },
	ColumnRatingTo:   func(r *model.StockRating) string { return r.RatingTo },
	// RFC 3339 timestamps in one zone sort lexically
	ColumnTime: func(r *model.StockRating) string { return r.Time },
}

var moneyColumns = map[string]func(*model.StockRating) string{
	ColumnTargetFrom: func(r *model.StockRating) string { return r.TargetFrom.String() },
	ColumnTargetTo:   func(r *model.StockRating) string { return r.TargetTo.String() },
}

// Params selects one page. Offset is a page index, not an item index.
type Params struct {
	Offset    int
	PageSize  int
	SortBy    string
	Ascending bool
	Query     string

	Actions    []string
	Brokerages []string
	Direction  string
	Raised     bool
}

// Page is one slice of the sorted, filtered ratings.
type Page struct {
	Items     []model.StockRating `json:"items"`
	Total     int                 `json:"total"`
	Offset    int                 `json:"offset"`
	PageSize  int                 `json:"page_size"`
	SortBy    string              `json:"sort_by"`
	Ascending bool                `json:"ascending"`
}

// ResolveColumn maps a column name, case-insensitively, to its canonical form.
// An empty name yields the default column.
func ResolveColumn(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return DefaultSortBy, nil
	}
	for _, c := range Columns {
		if strings.EqualFold(c, name) {
			return c, nil
		}
	}
	return "", eris.Wrapf(ErrUnknownColumn, "column %q", name)
}

// Sort returns a sorted copy of ratings; ties keep their input order.
func Sort(ratings []model.StockRating, column string, ascending bool) ([]model.StockRating, error) {
	column, err := ResolveColumn(column)
	if err != nil {
		return nil, err
	}
	sorted := make([]model.StockRating, len(ratings))
	copy(sorted, ratings)

	var cmp func(a, b *model.StockRating) int
	if get, ok := moneyColumns[column]; ok {
		// CompareDecimals(a, b) is 1 when b > a
		cmp = func(a, b *model.StockRating) int { return -format.CompareDecimals(get(a), get(b)) }
	} else {
		get := textColumns[column]
		cmp = func(a, b *model.StockRating) int { return strings.Compare(get(a), get(b)) }
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		c := cmp(&sorted[i], &sorted[j])
		if ascending {
			return c < 0
		}
		return c > 0
	})
	return sorted, nil
}

// Run filters, sorts and returns the requested page.
func Run(ratings []model.StockRating, p Params) (Page, error) {
	if p.PageSize <= 0 {
		p.PageSize = DefaultPageSize
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	column, err := ResolveColumn(p.SortBy)
	if err != nil {
		return Page{}, err
	}
	keep, err := filter.Selection{
		Query:      p.Query,
		Actions:    p.Actions,
		Brokerages: p.Brokerages,
		Direction:  p.Direction,
		Raised:     p.Raised,
	}.Criterion()
	if err != nil {
		return Page{}, err
	}
	sorted, err := Sort(filter.Apply(ratings, keep), column, p.Ascending)
	if err != nil {
		return Page{}, err
	}

	start, end := pageBounds(len(sorted), p.Offset, p.PageSize)
	return Page{
		Items:     sorted[start:end],
		Total:     len(sorted),
		Offset:    p.Offset,
		PageSize:  p.PageSize,
		SortBy:    column,
		Ascending: p.Ascending,
	}, nil
}

// pageBounds returns the [start, end) slice of page offset, without multiplying past n.
func pageBounds(n, offset, size int) (int, int) {
	pages := n / size
	if n%size != 0 {
		pages++
	}
	if offset >= pages {
		return n, n
	}
	start := offset * size
	if size > n-start {
		return start, n
	}
	return start, start + size
}
