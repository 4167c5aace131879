package config

import (
	"bytes"
	"encoding/json"
	"os"

	"github.com/cockroachdb/apd/v3"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

// IntRange is an inclusive pair of bounds.
type IntRange struct {
	Min int64 `validate:"gte=0"`
	Max int64 `validate:"gtefield=Min"`
}

// AmountRange holds transaction amount bounds in whole token units.
type AmountRange struct {
	Min apd.Decimal `validate:"-"`
	Max apd.Decimal `validate:"-"`
}

// RunConfig is the parsed config.json. It is never mutated after loading.
type RunConfig struct {
	Chain             string   `validate:"required"`
	PrivateKeys       []string `validate:"required,min=1,dive,required"`
	DailyTransactions IntRange
	TransactionAmount AmountRange
	// TransactionDelay is expressed in milliseconds.
	TransactionDelay IntRange
}

type rawRange struct {
	Min json.Number `json:"min"`
	Max json.Number `json:"max"`
}

type rawRunConfig struct {
	Chain             string   `json:"chain"`
	PrivateKeys       []string `json:"privateKeys"`
	DailyTransactions rawRange `json:"dailyTransactions"`
	TransactionAmount rawRange `json:"transactionAmount"`
	TransactionDelay  rawRange `json:"transactionDelay"`
}

// LoadRunConfig reads and validates config.json.
func LoadRunConfig(path string) (*RunConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}
	return ParseRunConfig(b)
}

// ParseRunConfig decodes config.json contents. Amounts keep their exact
// decimal form; they never pass through float64.
func ParseRunConfig(b []byte) (*RunConfig, error) {
	var raw rawRunConfig
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return nil, errors.Wrap(err, "decode run config")
	}

	cfg := &RunConfig{Chain: raw.Chain, PrivateKeys: raw.PrivateKeys}
	var err error
	if cfg.DailyTransactions, err = parseIntRange(raw.DailyTransactions); err != nil {
		return nil, errors.Wrap(err, "dailyTransactions")
	}
	if cfg.TransactionDelay, err = parseIntRange(raw.TransactionDelay); err != nil {
		return nil, errors.Wrap(err, "transactionDelay")
	}
	if err = parseAmount(raw.TransactionAmount.Min, &cfg.TransactionAmount.Min); err != nil {
		return nil, errors.Wrap(err, "transactionAmount.min")
	}
	if err = parseAmount(raw.TransactionAmount.Max, &cfg.TransactionAmount.Max); err != nil {
		return nil, errors.Wrap(err, "transactionAmount.max")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks required fields and that every min does not exceed its max.
func (c *RunConfig) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(err, "invalid run config")
	}
	a := c.TransactionAmount
	if a.Min.Sign() <= 0 || a.Max.Sign() <= 0 {
		return errors.New("invalid run config: transactionAmount must be positive")
	}
	if a.Min.Cmp(&a.Max) > 0 {
		return errors.Errorf("invalid run config: transactionAmount.min %s > max %s", a.Min.String(), a.Max.String())
	}
	return nil
}

func parseIntRange(r rawRange) (IntRange, error) {
	var out IntRange
	var err error
	if out.Min, err = parseInt(r.Min); err != nil {
		return out, errors.Wrap(err, "min")
	}
	if out.Max, err = parseInt(r.Max); err != nil {
		return out, errors.Wrap(err, "max")
	}
	return out, nil
}

// parseInt accepts integral JSON numbers, including forms like 3000.0.
func parseInt(n json.Number) (int64, error) {
	if n == "" {
		return 0, errors.New("missing value")
	}
	if v, err := n.Int64(); err == nil {
		return v, nil
	}
	d, _, err := apd.NewFromString(n.String())
	if err != nil {
		return 0, errors.Wrapf(err, "parse %q", n)
	}
	v, err := d.Int64()
	if err != nil {
		return 0, errors.Wrapf(err, "%q is not a whole number", n)
	}
	return v, nil
}

func parseAmount(n json.Number, dst *apd.Decimal) error {
	if n == "" {
		return errors.New("missing value")
	}
	if _, _, err := dst.SetString(n.String()); err != nil {
		return errors.Wrapf(err, "parse %q", n)
	}
	return nil
}
