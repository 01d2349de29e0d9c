// Package prize splits a race's prize pool across the finishing order.
package prize

import (
	"fmt"
	"math"

	"github.com/okian/rally/internal/domain/model"
	"github.com/shopspring/decimal"
)

// CurrencyPlaces is the number of decimal places a payout carries.
const CurrencyPlaces = 2

const sumTolerance = 1e-9

// Curve holds the fraction of the pool paid to each position, first place first.
type Curve []float64

// DefaultCurve pays 60/30/10 to the podium.
func DefaultCurve() Curve {
	return Curve{0.60, 0.30, 0.10}
}

// Validate checks that every fraction lies in [0,1] and the curve pays out at
// most the whole pool.
func (c Curve) Validate() error {
	var sum float64
	for i, f := range c {
		if math.IsNaN(f) || f < 0 || f > 1 {
			return fmt.Errorf("%w: prize fraction %v for position %d outside [0,1]", model.ErrInvalidAttribute, f, i+1)
		}
		sum += f
	}
	if sum > 1+sumTolerance {
		return fmt.Errorf("%w: prize curve sums to %v, above 1", model.ErrInvalidAttribute, sum)
	}
	return nil
}

// Share returns the payout for a 1-based position.
// Payouts are cut to whole cents rather than rounded half away from zero, so
// the sum of all shares cannot exceed the pool.
func (c Curve) Share(pool decimal.Decimal, position int) decimal.Decimal {
	if position < 1 || position > len(c) {
		return decimal.Zero
	}
	return pool.Mul(decimal.NewFromFloat(c[position-1])).Truncate(CurrencyPlaces)
}

// Allocate returns a copy of ranked with the prize of every result filled in
// from its position. It does not reorder results.
func Allocate(ranked []model.Result, pool decimal.Decimal, curve Curve) []model.Result {
	out := make([]model.Result, len(ranked))
	for i, r := range ranked {
		r.Prize = curve.Share(pool, r.Position)
		out[i] = r
	}
	return out
}

// Total sums the prizes of results.
func Total(results []model.Result) decimal.Decimal {
	total := decimal.Zero
	for _, r := range results {
		total = total.Add(r.Prize)
	}
	return total
}
