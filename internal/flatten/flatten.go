// Package flatten turns a file of page envelopes into one flat item list, optionally
// rewriting currency strings in target_from/target_to as numbers.
package flatten

import (
	"context"

	"github.com/rotisserie/eris"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
	"go.uber.org/zap"

	"stockRatings/internal/format"
	"stockRatings/internal/model"
	"stockRatings/internal/pagefile"
	"stockRatings/internal/trace"
)

// moneyFields are normalized when Options.NormalizeMoney is set.
var moneyFields = []string{model.FieldTargetFrom, model.FieldTargetTo}

const moneyDecimals = 2

type Options struct {
	NormalizeMoney bool
}

// Result summarizes one flatten run.
type Result struct {
	Pages      int
	Items      int
	Normalized int
}

// File reads the envelopes in inPath, flattens them and writes the items to outPath
// as a pretty-printed array. Any error aborts the run and nothing is written.
func File(ctx context.Context, inPath, outPath string, opts Options) (Result, error) {
	ctx = trace.Start(ctx)
	log := trace.L(ctx)

	envelopes, err := pagefile.ReadArray(inPath)
	if err != nil {
		log.Error("flatten: read input", zap.String("path", inPath), zap.Error(err))
		return Result{}, err
	}
	items, res, err := Envelopes(ctx, envelopes, opts)
	if err != nil {
		log.Error("flatten: process", zap.String("path", inPath), zap.Error(err))
		return Result{}, err
	}
	if err := pagefile.WriteArray(outPath, items); err != nil {
		log.Error("flatten: write output", zap.String("path", outPath), zap.Error(err))
		return Result{}, err
	}
	log.Info("flatten: done",
		zap.String("input", inPath),
		zap.String("output", outPath),
		zap.Int("pages", res.Pages),
		zap.Int("items", res.Items),
		zap.Int("normalized", res.Normalized),
	)
	return res, nil
}

// Envelopes concatenates the items of every envelope in order. Envelopes without an
// items array contribute nothing.
func Envelopes(ctx context.Context, envelopes []gjson.Result, opts Options) ([][]byte, Result, error) {
	log := trace.L(ctx)
	res := Result{Pages: len(envelopes)}
	var out [][]byte
	for i, env := range envelopes {
		if !env.IsObject() {
			return nil, Result{}, eris.Errorf("flatten: envelope %d is %s, want object", i, env.Type)
		}
		items := env.Get(model.FieldItems)
		if !items.Exists() || items.Type == gjson.Null {
			continue
		}
		if !items.IsArray() {
			log.Warn("flatten: items is not an array, skipped", zap.Int("envelope", i))
			continue
		}
		for _, it := range items.Array() {
			raw := []byte(it.Raw)
			if opts.NormalizeMoney && it.IsObject() {
				var n int
				var err error
				raw, n, err = NormalizeItem(ctx, raw)
				if err != nil {
					return nil, Result{}, eris.Wrapf(err, "flatten: envelope %d", i)
				}
				res.Normalized += n
			}
			out = append(out, raw)
		}
	}
	res.Items = len(out)
	return out, res, nil
}

// NormalizeItem rewrites currency strings in the target fields as two-decimal JSON
// numbers and reports how many fields changed. Numbers, empty strings and absent
// fields pass through; unparseable strings are kept and logged.
func NormalizeItem(ctx context.Context, raw []byte) ([]byte, int, error) {
	changed := 0
	for _, field := range moneyFields {
		v := gjson.GetBytes(raw, field)
		if v.Type != gjson.String || v.Str == "" {
			continue
		}
		d, err := format.ParseMoney(v.Str)
		if err != nil {
			trace.L(ctx).Warn("flatten: keeping unparseable money value",
				zap.String("field", field),
				zap.String("value", v.Str),
			)
			continue
		}
		raw, err = sjson.SetRawBytes(raw, field, []byte(d.StringFixed(moneyDecimals)))
		if err != nil {
			return nil, 0, eris.Wrapf(err, "flatten: set %s", field)
		}
		changed++
	}
	return raw, changed, nil
}
