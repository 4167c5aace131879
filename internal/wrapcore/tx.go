package wrapcore

import (
	"context"
	"crypto/ecdsa"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
)

// newTransactor builds *bind.TransactOpts for one submission. Nonce, gas and
// fees are left to the bound contract, which asks the node.
func newTransactor(ctx context.Context, prv *ecdsa.PrivateKey, chainID *big.Int, value *big.Int) (*bind.TransactOpts, error) {
	opts, err := bind.NewKeyedTransactorWithChainID(prv, chainID)
	if err != nil {
		return nil, err
	}
	opts.Context = ctx
	if value != nil {
		opts.Value = new(big.Int).Set(value)
	}
	return opts, nil
}
