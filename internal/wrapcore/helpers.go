package wrapcore

import (
	"crypto/ecdsa"
	"math/big"
	"strings"

	"github.com/cockroachdb/apd/v3"
	gethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
)

// Token amounts on the wrap contract use 18 decimals, same as the native coin.
const weiDecimals = 18

var weiPerUnit = new(big.Int).Exp(big.NewInt(10), big.NewInt(weiDecimals), nil)

// Parse hex ECDSA private key (with / without 0x).
func hexToECDSAPriv(s string) (*ecdsa.PrivateKey, error) {
	h := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "0x"))
	if len(h) == 0 {
		return nil, errors.New("empty private key")
	}
	return gethcrypto.HexToECDSA(h)
}

// WeiToDecimal converts a wei amount into whole units without rounding.
func WeiToDecimal(wei *big.Int) *apd.Decimal {
	if wei == nil {
		return apd.New(0, 0)
	}
	return apd.NewWithBigInt(new(apd.BigInt).SetMathBigInt(wei), -weiDecimals)
}

// DecimalToWei converts whole units into wei. Values with more than 18
// fractional digits, negative values and non-finite values are rejected.
func DecimalToWei(d *apd.Decimal) (*big.Int, error) {
	if d == nil || d.Form != apd.Finite {
		return nil, errors.Errorf("invalid amount %v", d)
	}
	if d.Negative && !d.IsZero() {
		return nil, errors.Errorf("negative amount %s", d.String())
	}
	coeff := d.Coeff.MathBigInt()
	exp := int64(d.Exponent) + weiDecimals
	if exp >= 0 {
		scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(exp), nil)
		return coeff.Mul(coeff, scale), nil
	}
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(-exp), nil)
	q, r := new(big.Int).QuoRem(coeff, scale, new(big.Int))
	if r.Sign() != 0 {
		return nil, errors.Errorf("amount %s has more than %d fractional digits", d.String(), weiDecimals)
	}
	return q, nil
}

// Human-readable helper (whole units, 6 digits) for debug logging.
func fmtETH(x *big.Int) string {
	if x == nil {
		return "0"
	}
	r := new(big.Rat).SetFrac(new(big.Int).Set(x), weiPerUnit)
	return r.FloatString(6)
}
