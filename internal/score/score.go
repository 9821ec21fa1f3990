// Package score ranks ratings against a pre-trained k-means model: each rating is
// reduced to five normalized features and assigned to its nearest centroid.
package score

import (
	"encoding/json"
	"math"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"

	"stockRatings/internal/model"
)

const (
	featureCount = 5
	hoursPerDay  = 24
)

// actionScores rates analyst actions: raised/upgraded 1, lowered/downgraded -1.
var actionScores = map[string]int{
	"upgrades":              1,
	"upgraded by":           1,
	"target raised by":      1,
	"downgrades":            -1,
	"downgraded by":         -1,
	"target lowered by":     -1,
	"maintains":             0,
	"initiates coverage on": 0,
	"initiates":             0,
	"initiated by":          0,
	"reiterates":            0,
	"reiterated by":         0,
	"target set by":         0,
}

// ratingScores places rating labels on a -1 (strong sell) to 1 (strong buy) scale.
var ratingScores = map[string]float64{
	"strong-buy": 1.0,
	"strong buy": 1.0,

	"buy":               0.75,
	"speculative buy":   0.75,
	"outperform":        0.75,
	"outperformer":      0.75,
	"overweight":        0.75,
	"accumulate":        0.75,
	"market outperform": 0.75,
	"sector outperform": 0.75,

	"positive": 0.5,

	"hold":             0,
	"neutral":          0,
	"market perform":   0,
	"equal weight":     0,
	"equal-weight":     0,
	"in-line":          0,
	"sector perform":   0,
	"sector performer": 0,
	"sector weight":    0,
	"peer perform":     0,

	"negative": -0.5,

	"underperform":        -0.75,
	"underweight":         -0.75,
	"reduce":              -0.75,
	"sector underperform": -0.75,

	"sell":        -1.0,
	"strong sell": -1.0,
}

var hundred = decimal.NewFromInt(100)

func key(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// ActionScore returns the action's score; unknown actions score 0.
func ActionScore(action string) int { return actionScores[key(action)] }

// RatingScore returns the label's score; unknown labels score 0.
func RatingScore(label string) float64 { return ratingScores[key(label)] }

// RatingDelta is RatingScore(to) - RatingScore(from).
func RatingDelta(r *model.StockRating) float64 {
	return RatingScore(r.RatingTo) - RatingScore(r.RatingFrom)
}

// Model is a k-means model exported by the training notebook.
type Model struct {
	K               int         `json:"k"`
	Features        []string    `json:"features"`
	Centroids       [][]float64 `json:"centroids"`
	Means           []float64   `json:"means"`
	Stds            []float64   `json:"stds"`
	AvgTargetDeltas []float64   `json:"avg_target_deltas"`
}

// LoadModel reads and validates a model file.
func LoadModel(path string) (*Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "score: open model %s", path)
	}
	defer f.Close() //nolint:errcheck

	var m Model
	if err := json.NewDecoder(f).Decode(&m); err != nil {
		return nil, eris.Wrap(err, "score: decode model")
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

func (m *Model) Validate() error {
	if len(m.Means) != featureCount || len(m.Stds) != featureCount {
		return eris.Errorf("score: model needs %d means and stds, got %d and %d", featureCount, len(m.Means), len(m.Stds))
	}
	if len(m.Centroids) == 0 {
		return eris.New("score: model has no centroids")
	}
	for i, c := range m.Centroids {
		if len(c) != featureCount {
			return eris.Errorf("score: centroid %d has %d dims, want %d", i, len(c), featureCount)
		}
	}
	if len(m.AvgTargetDeltas) != len(m.Centroids) {
		return eris.Errorf("score: %d avg_target_deltas for %d centroids", len(m.AvgTargetDeltas), len(m.Centroids))
	}
	return nil
}

// Features are the normalized inputs to the model, in centroid order.
type Features struct {
	TargetDelta      float64
	HasBrokerage     float64
	ActionScore      float64
	RatingDeltaScore float64
	TimeDelta        float64
}

func (f Features) Vector() []float64 {
	return []float64{f.TargetDelta, f.HasBrokerage, f.ActionScore, f.RatingDeltaScore, f.TimeDelta}
}

func normalize(feature, mean, std float64) float64 {
	if std == 0 {
		return 0
	}
	return (feature - mean) / std
}

// TargetDelta is the percent change from target_from to target_to.
func TargetDelta(r *model.StockRating) (float64, error) {
	if r.TargetFrom.IsZero() {
		return 0, eris.Errorf("score: %s has zero target_from", r.Ticker)
	}
	return r.TargetTo.Sub(r.TargetFrom.Decimal).Div(r.TargetFrom.Decimal).Mul(hundred).InexactFloat64(), nil
}

// Extract computes the normalized features of r as of now.
func (m *Model) Extract(r *model.StockRating, now time.Time) (Features, error) {
	delta, err := TargetDelta(r)
	if err != nil {
		return Features{}, err
	}
	hasBrokerage := 0.0
	if len(r.Brokerage) > 0 {
		hasBrokerage = 1
	}
	ts, err := time.Parse(time.RFC3339, r.Time)
	if err != nil {
		return Features{}, eris.Wrapf(err, "score: parse time of %s", r.Ticker)
	}
	ageDays := math.Round(now.Sub(ts).Hours() / hoursPerDay)

	return Features{
		TargetDelta:      normalize(delta, m.Means[0], m.Stds[0]),
		HasBrokerage:     normalize(hasBrokerage, m.Means[1], m.Stds[1]),
		ActionScore:      normalize(float64(ActionScore(r.Action)), m.Means[2], m.Stds[2]),
		RatingDeltaScore: normalize(RatingDelta(r), m.Means[3], m.Stds[3]),
		TimeDelta:        normalize(ageDays, m.Means[4], m.Stds[4]),
	}, nil
}

// Nearest returns the index of the centroid closest to v.
func (m *Model) Nearest(v []float64) int {
	best, bestDist := 0, math.Inf(1)
	for i, c := range m.Centroids {
		var d float64
		for j := range c {
			diff := v[j] - c[j]
			d += diff * diff
		}
		if d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

// Recommendation is one ranked rating.
type Recommendation struct {
	Rating      model.StockRating `json:"rating"`
	Cluster     int               `json:"cluster"`
	ClusterGain float64           `json:"cluster_avg_target_delta"`
	TargetDelta float64           `json:"target_delta"`
}

// Recommend ranks ratings by their cluster's average target delta, then by their own
// target delta, and returns at most n. Ratings whose features cannot be computed are
// skipped.
func (m *Model) Recommend(ratings []model.StockRating, now time.Time, n int) []Recommendation {
	recs := make([]Recommendation, 0, len(ratings))
	for i := range ratings {
		r := &ratings[i]
		f, err := m.Extract(r, now)
		if err != nil {
			continue
		}
		delta, _ := TargetDelta(r)
		c := m.Nearest(f.Vector())
		recs = append(recs, Recommendation{
			Rating:      *r,
			Cluster:     c,
			ClusterGain: m.AvgTargetDeltas[c],
			TargetDelta: delta,
		})
	}
	sort.SliceStable(recs, func(i, j int) bool {
		if recs[i].ClusterGain != recs[j].ClusterGain {
			return recs[i].ClusterGain > recs[j].ClusterGain
		}
		return recs[i].TargetDelta > recs[j].TargetDelta
	})
	if n > 0 && len(recs) > n {
		recs = recs[:n]
	}
	return recs
}
