package config

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

// ErrChainNotFound is returned when rpc.json has no entry for the configured chain.
var ErrChainNotFound = errors.New("chain configuration not found")

// ChainTarget is one rpc.json entry.
type ChainTarget struct {
	RPC         string          `json:"rpc" validate:"required,url"`
	WETHAddress string          `json:"wethAddress" validate:"required,eth_addr"`
	WETHABI     json.RawMessage `json:"wethAbi,omitempty"`
	ChainID     int64           `json:"chainId,omitempty" validate:"gte=0"`
	Explorer    string          `json:"explorer,omitempty"`
	Symbol      string          `json:"symbol,omitempty"`
}

// ChainTargets maps chain identifiers to their endpoints.
type ChainTargets map[string]ChainTarget

// LoadChainTargets reads rpc.json.
func LoadChainTargets(path string) (ChainTargets, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}
	var t ChainTargets
	if err := json.Unmarshal(b, &t); err != nil {
		return nil, errors.Wrapf(err, "decode %s", path)
	}
	return t, nil
}

// Resolve returns the validated target for chain.
func (t ChainTargets) Resolve(chain string) (ChainTarget, error) {
	ct, ok := t[strings.TrimSpace(chain)]
	if !ok {
		return ChainTarget{}, errors.Wrapf(ErrChainNotFound, "chain %q", chain)
	}
	if err := validator.New().Struct(ct); err != nil {
		return ChainTarget{}, errors.Wrapf(err, "chain %q", chain)
	}
	if ct.Symbol == "" {
		ct.Symbol = "ETH"
	}
	return ct, nil
}

// ABIJSON returns the contract ABI as a JSON array string, or "" when rpc.json
// does not carry one. Both an inline array and a string-encoded array are accepted.
func (ct ChainTarget) ABIJSON() (string, error) {
	raw := strings.TrimSpace(string(ct.WETHABI))
	if raw == "" || raw == "null" {
		return "", nil
	}
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal([]byte(raw), &s); err != nil {
			return "", errors.Wrap(err, "decode wethAbi")
		}
		return s, nil
	}
	return raw, nil
}

// TxURL links a transaction hash to the explorer, if one is configured.
func (ct ChainTarget) TxURL(hash string) string {
	if ct.Explorer == "" {
		return ""
	}
	return strings.TrimRight(ct.Explorer, "/") + "/" + hash
}
