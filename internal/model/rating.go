// Package model defines page envelopes and the stock rating record they carry.
package model

import (
	"bytes"
	"encoding/json"

	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"

	"stockRatings/internal/format"
)

// Raw JSON field names
const (
	FieldNextPage   = "next_page"
	FieldItems      = "items"
	FieldTargetFrom = "target_from"
	FieldTargetTo   = "target_to"
)

// PageEnvelope is one API response body. Raw keeps the body as received so fields
// the toolchain does not know about survive the round trip to disk.
type PageEnvelope struct {
	Raw      json.RawMessage
	NextPage string
	HasNext  bool
}

// ParseEnvelope validates body as a JSON object and reads its cursor. The cursor only
// counts when next_page is a non-empty string.
func ParseEnvelope(body []byte) (PageEnvelope, error) {
	trimmed := bytes.TrimSpace(body)
	if !gjson.ValidBytes(trimmed) {
		return PageEnvelope{}, eris.New("model: page body is not valid JSON")
	}
	root := gjson.ParseBytes(trimmed)
	if !root.IsObject() {
		return PageEnvelope{}, eris.Errorf("model: page body is %s, want object", root.Type)
	}
	env := PageEnvelope{Raw: json.RawMessage(trimmed)}
	if next := root.Get(FieldNextPage); next.Type == gjson.String && next.Str != "" {
		env.NextPage = next.Str
		env.HasNext = true
	}
	return env, nil
}

// Items returns the raw elements of the envelope's items array; absent or null
// items yield nil.
func (e PageEnvelope) Items() []gjson.Result {
	items := gjson.GetBytes(e.Raw, FieldItems)
	if !items.IsArray() {
		return nil
	}
	return items.Array()
}

// StockRating is the typed view of one flattened item.
type StockRating struct {
	ID         string `json:"id,omitempty"`
	Ticker     string `json:"ticker"`
	TargetFrom Money  `json:"target_from"`
	TargetTo   Money  `json:"target_to"`
	Company    string `json:"company"`
	Action     string `json:"action"`
	Brokerage  string `json:"brokerage"`
	RatingFrom string `json:"rating_from"`
	RatingTo   string `json:"rating_to"`
	Time       string `json:"time"`
}

// Money is a target price decoded from either a JSON number or a currency string.
type Money struct {
	decimal.Decimal
}

func NewMoney(f float64) Money { return Money{decimal.NewFromFloat(f)} }

func (m *Money) UnmarshalJSON(b []byte) error {
	r := gjson.ParseBytes(b)
	switch r.Type {
	case gjson.Null:
		m.Decimal = decimal.Zero
		return nil
	case gjson.Number:
		d, err := decimal.NewFromString(r.Raw)
		if err != nil {
			return eris.Wrapf(err, "model: money %s", r.Raw)
		}
		m.Decimal = d
		return nil
	case gjson.String:
		if r.Str == "" {
			m.Decimal = decimal.Zero
			return nil
		}
		d, err := format.ParseMoney(r.Str)
		if err != nil {
			return err
		}
		m.Decimal = d
		return nil
	default:
		return eris.Errorf("model: money must be number or string, got %s", r.Type)
	}
}

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.StringFixed(2)), nil
}

// Float returns the value as float64 for display helpers.
func (m Money) Float() float64 {
	f, _ := m.Float64()
	return f
}

// DecodeRatings decodes a flattened JSON array into typed ratings.
func DecodeRatings(data []byte) ([]StockRating, error) {
	var out []StockRating
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, eris.Wrap(err, "model: decode ratings")
	}
	return out, nil
}
