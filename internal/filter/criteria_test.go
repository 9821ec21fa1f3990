package filter

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockRatings/internal/model"
)

func sample() []model.StockRating {
	return []model.StockRating{
		{Ticker: "AAPL", Action: "upgraded by", Brokerage: "Goldman", RatingFrom: "Hold", RatingTo: "Buy", TargetFrom: model.NewMoney(100), TargetTo: model.NewMoney(120)},
		{Ticker: "AMZN", Action: "downgraded by", Brokerage: "Morgan", RatingFrom: "Buy", RatingTo: "Sell", TargetFrom: model.NewMoney(200), TargetTo: model.NewMoney(150)},
		{Ticker: "MSFT", Action: "reiterated by", Brokerage: "goldman", RatingFrom: "Buy", RatingTo: "Buy", TargetFrom: model.NewMoney(300), TargetTo: model.NewMoney(300)},
	}
}

func tickers(rs []model.StockRating) []string {
	out := make([]string, 0, len(rs))
	for _, r := range rs {
		out = append(out, r.Ticker)
	}
	return out
}

func TestCriteria(t *testing.T) {
	rs := sample()
	assert.Equal(t, []string{"AAPL", "AMZN"}, tickers(Apply(rs, TickerContains("a"))))
	assert.Equal(t, []string{"AAPL", "AMZN", "MSFT"}, tickers(Apply(rs, TickerContains(""))))
	assert.Equal(t, []string{"AAPL", "MSFT"}, tickers(Apply(rs, BrokerageIs("GOLDMAN"))))
	assert.Equal(t, []string{"AMZN"}, tickers(Apply(rs, ActionIs("Downgraded By"))))
	assert.Equal(t, []string{"AAPL"}, tickers(Apply(rs, Upgrades)))
	assert.Equal(t, []string{"AMZN"}, tickers(Apply(rs, Downgrades)))
	assert.Equal(t, []string{"AAPL"}, tickers(Apply(rs, TargetRaised)))
	assert.Equal(t, []string{"AAPL", "AMZN", "MSFT"}, tickers(Apply(rs, nil)))
}

func TestCombinators(t *testing.T) {
	rs := sample()
	assert.Equal(t, []string{"AAPL"}, tickers(Apply(rs, And(TickerContains("a"), BrokerageIs("goldman")))))
	assert.Equal(t, []string{"AMZN", "MSFT"}, tickers(Apply(rs, Or(Downgrades, TickerContains("ms")))))
	assert.Equal(t, []string{"AAPL", "AMZN", "MSFT"}, tickers(Apply(rs, And(nil))))
	assert.False(t, And(All)(nil))
	assert.False(t, Or(All)(nil))
}

func TestSelection(t *testing.T) {
	tests := []struct {
		name string
		sel  Selection
		want []string
	}{
		{"empty keeps all", Selection{}, []string{"AAPL", "AMZN", "MSFT"}},
		{"query", Selection{Query: "am"}, []string{"AMZN"}},
		{"any action", Selection{Actions: []string{"Upgraded By", "reiterated by"}}, []string{"AAPL", "MSFT"}},
		{"blank action ignored", Selection{Actions: []string{" "}}, []string{"AAPL", "AMZN", "MSFT"}},
		{"brokerage", Selection{Brokerages: []string{"goldman"}}, []string{"AAPL", "MSFT"}},
		{"up", Selection{Direction: "up"}, []string{"AAPL"}},
		{"down", Selection{Direction: " DOWN "}, []string{"AMZN"}},
		{"raised", Selection{Raised: true}, []string{"AAPL"}},
		{"combined", Selection{Query: "a", Brokerages: []string{"morgan", "goldman"}, Direction: "up"}, []string{"AAPL"}},
		{"no match", Selection{Brokerages: []string{"goldman"}, Direction: "down"}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := tt.sel.Criterion()
			require.NoError(t, err)
			assert.Equal(t, tt.want, tickers(Apply(sample(), c)))
		})
	}
}

func TestSelectionUnknownDirection(t *testing.T) {
	_, err := Selection{Direction: "sideways"}.Criterion()
	assert.True(t, errors.Is(err, ErrUnknownDirection))
}
