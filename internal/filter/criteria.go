// Package filter defines rating criteria (Criterion), how to combine them (And/Or),
// and Selection, the set of filters the list command and /stocks expose.
package filter

import (
	"strings"

	"github.com/rotisserie/eris"

	"stockRatings/internal/model"
	"stockRatings/internal/score"
)

// Rating directions
const (
	DirectionAny  = ""
	DirectionUp   = "up"
	DirectionDown = "down"
)

var ErrUnknownDirection = eris.New("filter: unknown direction")

// Criterion decides whether a rating is kept.
type Criterion func(*model.StockRating) bool

// And keeps a rating only when every non-nil criterion keeps it.
func And(cs ...Criterion) Criterion {
	cs = compact(cs)
	return func(r *model.StockRating) bool {
		if r == nil {
			return false
		}
		for _, c := range cs {
			if !c(r) {
				return false
			}
		}
		return true
	}
}

// Or keeps a rating when any non-nil criterion keeps it. With none it keeps nothing.
func Or(cs ...Criterion) Criterion {
	cs = compact(cs)
	return func(r *model.StockRating) bool {
		if r == nil {
			return false
		}
		for _, c := range cs {
			if c(r) {
				return true
			}
		}
		return false
	}
}

func compact(cs []Criterion) []Criterion {
	out := make([]Criterion, 0, len(cs))
	for _, c := range cs {
		if c != nil {
			out = append(out, c)
		}
	}
	return out
}

// All keeps every rating.
func All(r *model.StockRating) bool { return r != nil }

// TickerContains matches the ticker case-insensitively; an empty query matches all.
func TickerContains(q string) Criterion {
	q = strings.ToUpper(strings.TrimSpace(q))
	return func(r *model.StockRating) bool {
		return strings.Contains(strings.ToUpper(r.Ticker), q)
	}
}

func ActionIs(action string) Criterion {
	action = strings.TrimSpace(action)
	return func(r *model.StockRating) bool { return strings.EqualFold(strings.TrimSpace(r.Action), action) }
}

func BrokerageIs(name string) Criterion {
	name = strings.TrimSpace(name)
	return func(r *model.StockRating) bool { return strings.EqualFold(strings.TrimSpace(r.Brokerage), name) }
}

// Upgrades keeps ratings whose label moved up the buy/sell scale.
func Upgrades(r *model.StockRating) bool { return score.RatingDelta(r) > 0 }

// Downgrades keeps ratings whose label moved down the buy/sell scale.
func Downgrades(r *model.StockRating) bool { return score.RatingDelta(r) < 0 }

// TargetRaised keeps ratings whose target_to is above target_from.
func TargetRaised(r *model.StockRating) bool { return r.TargetTo.GreaterThan(r.TargetFrom.Decimal) }

// Selection is a user-facing filter: every set field must match. Actions and
// Brokerages match when any listed value matches.
type Selection struct {
	Query      string
	Actions    []string
	Brokerages []string
	Direction  string
	Raised     bool
}

// Criterion builds the combined criterion for s.
func (s Selection) Criterion() (Criterion, error) {
	cs := []Criterion{TickerContains(s.Query)}
	if c := anyOf(s.Actions, ActionIs); c != nil {
		cs = append(cs, c)
	}
	if c := anyOf(s.Brokerages, BrokerageIs); c != nil {
		cs = append(cs, c)
	}
	switch strings.ToLower(strings.TrimSpace(s.Direction)) {
	case DirectionAny:
	case DirectionUp:
		cs = append(cs, Upgrades)
	case DirectionDown:
		cs = append(cs, Downgrades)
	default:
		return nil, eris.Wrapf(ErrUnknownDirection, "direction %q", s.Direction)
	}
	if s.Raised {
		cs = append(cs, TargetRaised)
	}
	return And(cs...), nil
}

// anyOf ORs one criterion per non-blank value; nil when there are none.
func anyOf(values []string, build func(string) Criterion) Criterion {
	var cs []Criterion
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			cs = append(cs, build(v))
		}
	}
	if len(cs) == 0 {
		return nil
	}
	return Or(cs...)
}

// Apply returns the ratings c keeps, in order.
func Apply(ratings []model.StockRating, c Criterion) []model.StockRating {
	if c == nil {
		c = All
	}
	out := make([]model.StockRating, 0, len(ratings))
	for i := range ratings {
		if c(&ratings[i]) {
			out = append(out, ratings[i])
		}
	}
	return out
}
