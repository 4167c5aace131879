package engine

import (
	"github.com/cockroachdb/apd/v3"
	"github.com/pkg/errors"

	"github.com/ligun0805/wrap-cycler/internal/config"
)

// AmountDigits is the number of fractional digits of every drawn amount.
const AmountDigits = 8

// Rand is the random source for turn counts, amounts and delays.
// *math/rand.Rand satisfies it.
type Rand interface {
	// Int63n returns a value in [0, n). n > 0.
	Int63n(n int64) int64
}

// Bounds are the per-cycle limits taken from the run config.
type Bounds struct {
	TurnsMin, TurnsMax int64
	// Amounts are scaled integers with AmountDigits fractional digits.
	AmountMinUnits, AmountMaxUnits int64
	DelayMinMs, DelayMaxMs         int64
}

var (
	ceilCtx  = apd.Context{Precision: 40, MaxExponent: apd.MaxExponent, MinExponent: apd.MinExponent, Rounding: apd.RoundCeiling}
	floorCtx = apd.Context{Precision: 40, MaxExponent: apd.MaxExponent, MinExponent: apd.MinExponent, Rounding: apd.RoundFloor}
)

// BoundsFromConfig converts the run config limits. The amount minimum is
// rounded up and the maximum down to AmountDigits, so a draw never falls
// below the configured minimum and is never zero. A range narrower than one
// unit collapses to the rounded-up minimum.
func BoundsFromConfig(cfg *config.RunConfig) (Bounds, error) {
	lo, err := toUnits(&ceilCtx, &cfg.TransactionAmount.Min)
	if err != nil {
		return Bounds{}, errors.Wrap(err, "transactionAmount.min")
	}
	if lo <= 0 {
		return Bounds{}, errors.Errorf("transactionAmount.min %s must be positive", cfg.TransactionAmount.Min.String())
	}
	hi, err := toUnits(&floorCtx, &cfg.TransactionAmount.Max)
	if err != nil {
		return Bounds{}, errors.Wrap(err, "transactionAmount.max")
	}
	if hi < lo {
		hi = lo
	}
	return Bounds{
		TurnsMin:       cfg.DailyTransactions.Min,
		TurnsMax:       cfg.DailyTransactions.Max,
		AmountMinUnits: lo,
		AmountMaxUnits: hi,
		DelayMinMs:     cfg.TransactionDelay.Min,
		DelayMaxMs:     cfg.TransactionDelay.Max,
	}, nil
}

// toUnits rounds d to AmountDigits fractional digits using ctx and returns
// the scaled integer.
func toUnits(ctx *apd.Context, d *apd.Decimal) (int64, error) {
	var q apd.Decimal
	if _, err := ctx.Quantize(&q, d, -AmountDigits); err != nil {
		return 0, err
	}
	q.Exponent = 0
	return q.Int64()
}

func fromUnits(units int64) *apd.Decimal {
	return apd.New(units, -AmountDigits)
}

// uniform returns a value in [lo, hi), or lo when the range is empty.
func uniform(r Rand, lo, hi int64) int64 {
	if hi <= lo {
		return lo
	}
	return lo + r.Int63n(hi-lo)
}

func (b Bounds) drawTurns(r Rand) int {
	return int(uniform(r, b.TurnsMin, b.TurnsMax+1))
}

func (b Bounds) drawAmount(r Rand) *apd.Decimal {
	return fromUnits(uniform(r, b.AmountMinUnits, b.AmountMaxUnits))
}

// drawDelaySeconds draws milliseconds and floors them to whole seconds.
func (b Bounds) drawDelaySeconds(r Rand) int {
	return int(uniform(r, b.DelayMinMs, b.DelayMaxMs) / 1000)
}
