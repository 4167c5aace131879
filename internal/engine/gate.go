package engine

import "github.com/cockroachdb/apd/v3"

// CanAfford reports whether balance covers amount, compared exactly.
func CanAfford(balance, amount *apd.Decimal) bool {
	if balance == nil || amount == nil {
		return false
	}
	return balance.Cmp(amount) >= 0
}
