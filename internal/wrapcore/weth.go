// Package wrapcore talks to the wrapped-native-token contract: balances,
// deposit (wrap) and withdraw (unwrap).
package wrapcore

import (
	"context"
	"crypto/ecdsa"
	"math/big"
	"strings"

	"github.com/cockroachdb/apd/v3"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	gethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/ligun0805/wrap-cycler/internal/config"
	"github.com/ligun0805/wrap-cycler/internal/logging"
)

// ErrUnknownAccount is returned for an address whose key was never added.
var ErrUnknownAccount = errors.New("unknown account")

// wethABI covers the WETH9 methods used here. It is used when rpc.json has no wethAbi.
const wethABI = `[
 {"type":"function","name":"deposit","inputs":[],"outputs":[],"stateMutability":"payable"},
 {"type":"function","name":"withdraw","inputs":[{"name":"wad","type":"uint256"}],"outputs":[],"stateMutability":"nonpayable"},
 {"type":"function","name":"balanceOf","inputs":[{"name":"","type":"address"}],"outputs":[{"name":"","type":"uint256"}],"stateMutability":"view"}
]`

// Backend is the subset of *ethclient.Client the wrap client needs.
type Backend interface {
	bind.ContractBackend
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	ChainID(ctx context.Context) (*big.Int, error)
}

// Client submits wrap/unwrap transactions for a fixed set of accounts.
type Client struct {
	backend  Backend
	chainID  *big.Int
	token    common.Address
	contract *bind.BoundContract
	keys     map[common.Address]*ecdsa.PrivateKey
	log      *zap.Logger
	closer   func()
}

// Dial connects to the target's RPC (or rpcOverride when set) and binds the contract.
func Dial(ctx context.Context, target config.ChainTarget, rpcOverride string, log *zap.Logger) (*Client, error) {
	url := target.RPC
	if strings.TrimSpace(rpcOverride) != "" {
		url = strings.TrimSpace(rpcOverride)
	}
	ec, err := ethclient.DialContext(ctx, url)
	if err != nil {
		return nil, errors.Wrapf(err, "dial RPC %s", url)
	}
	c, err := New(ctx, ec, target, log)
	if err != nil {
		ec.Close()
		return nil, err
	}
	c.closer = ec.Close
	return c, nil
}

// New binds the wrap contract on an existing backend. The chain ID comes
// from the target when set, otherwise from the node.
func New(ctx context.Context, backend Backend, target config.ChainTarget, log *zap.Logger) (*Client, error) {
	abiJSON, err := target.ABIJSON()
	if err != nil {
		return nil, err
	}
	if abiJSON == "" {
		abiJSON = wethABI
	}
	parsed, err := abi.JSON(strings.NewReader(abiJSON))
	if err != nil {
		return nil, errors.Wrap(err, "parse contract ABI")
	}
	for _, m := range []string{"deposit", "withdraw", "balanceOf"} {
		if _, ok := parsed.Methods[m]; !ok {
			return nil, errors.Errorf("contract ABI has no %s method", m)
		}
	}

	if !common.IsHexAddress(target.WETHAddress) {
		return nil, errors.Errorf("bad contract address %q", target.WETHAddress)
	}
	token := common.HexToAddress(target.WETHAddress)

	var chainID *big.Int
	if target.ChainID > 0 {
		chainID = big.NewInt(target.ChainID)
	} else {
		chainID, err = readWithRetry(ctx, backend.ChainID)
		if err != nil {
			return nil, errors.Wrap(err, "chain id")
		}
	}

	code, err := readWithRetry(ctx, func(ctx context.Context) ([]byte, error) {
		return backend.CodeAt(ctx, token, nil)
	})
	if err != nil {
		return nil, errors.Wrapf(err, "code at %s", token.Hex())
	}
	if len(code) == 0 {
		return nil, errors.Errorf("no bytecode at contract address %s", token.Hex())
	}

	return &Client{
		backend:  backend,
		chainID:  chainID,
		token:    token,
		contract: bind.NewBoundContract(token, parsed, backend, backend, backend),
		keys:     make(map[common.Address]*ecdsa.PrivateKey),
		log:      logging.OrNop(log),
	}, nil
}

// Close releases the RPC connection opened by Dial.
func (c *Client) Close() {
	if c.closer != nil {
		c.closer()
	}
}

// ChainID returns the chain the transactions are signed for.
func (c *Client) ChainID() *big.Int { return new(big.Int).Set(c.chainID) }

// Token returns the wrap contract address.
func (c *Client) Token() common.Address { return c.token }

// AddAccount registers a signing key and returns the checksummed address
// used as the account identifier everywhere else.
func (c *Client) AddAccount(pkHex string) (string, error) {
	prv, err := hexToECDSAPriv(pkHex)
	if err != nil {
		return "", errors.Wrap(err, "bad private key")
	}
	addr := gethcrypto.PubkeyToAddress(prv.PublicKey)
	c.keys[addr] = prv
	return addr.Hex(), nil
}

func (c *Client) key(account string) (common.Address, *ecdsa.PrivateKey, error) {
	if !common.IsHexAddress(account) {
		return common.Address{}, nil, errors.Wrapf(ErrUnknownAccount, "%q", account)
	}
	addr := common.HexToAddress(account)
	prv, ok := c.keys[addr]
	if !ok {
		return common.Address{}, nil, errors.Wrapf(ErrUnknownAccount, "%s", addr.Hex())
	}
	return addr, prv, nil
}

// NativeBalanceWei returns the raw native balance of account.
func (c *Client) NativeBalanceWei(ctx context.Context, account string) (*big.Int, error) {
	addr := common.HexToAddress(account)
	bal, err := readWithRetry(ctx, func(ctx context.Context) (*big.Int, error) {
		return c.backend.BalanceAt(ctx, addr, nil)
	})
	if err != nil {
		return nil, errors.Wrapf(err, "native balance of %s", addr.Hex())
	}
	return bal, nil
}

// NativeBalance returns the native balance of account in whole units.
func (c *Client) NativeBalance(ctx context.Context, account string) (*apd.Decimal, error) {
	bal, err := c.NativeBalanceWei(ctx, account)
	if err != nil {
		return nil, err
	}
	return WeiToDecimal(bal), nil
}

// TokenBalance returns the wrapped token balance of account in whole units.
func (c *Client) TokenBalance(ctx context.Context, account string) (*apd.Decimal, error) {
	addr := common.HexToAddress(account)
	bal, err := readWithRetry(ctx, func(ctx context.Context) (*big.Int, error) {
		var out []interface{}
		if err := c.contract.Call(&bind.CallOpts{Context: ctx}, &out, "balanceOf", addr); err != nil {
			return nil, err
		}
		if len(out) == 0 {
			return nil, errors.New("balanceOf returned nothing")
		}
		v, ok := out[0].(*big.Int)
		if !ok {
			return nil, errors.Errorf("balanceOf returned %T", out[0])
		}
		return v, nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "token balance of %s", addr.Hex())
	}
	return WeiToDecimal(bal), nil
}

// SubmitWrap sends deposit() with amount attached and returns the tx hash.
// It does not wait for the transaction to be mined.
func (c *Client) SubmitWrap(ctx context.Context, account string, amount *apd.Decimal) (string, error) {
	wei, err := DecimalToWei(amount)
	if err != nil {
		return "", err
	}
	return c.transact(ctx, account, wei, "deposit")
}

// SubmitUnwrap sends withdraw(amount) and returns the tx hash.
func (c *Client) SubmitUnwrap(ctx context.Context, account string, amount *apd.Decimal) (string, error) {
	wei, err := DecimalToWei(amount)
	if err != nil {
		return "", err
	}
	return c.transact(ctx, account, nil, "withdraw", wei)
}

func (c *Client) transact(ctx context.Context, account string, value *big.Int, method string, args ...interface{}) (string, error) {
	addr, prv, err := c.key(account)
	if err != nil {
		return "", err
	}
	opts, err := newTransactor(ctx, prv, c.chainID, value)
	if err != nil {
		return "", errors.Wrap(err, "transactor")
	}
	tx, err := c.contract.Transact(opts, method, args...)
	if err != nil {
		return "", errors.Errorf("%s from %s: %s", method, addr.Hex(), revertReason(err))
	}
	c.log.Debug("transaction sent",
		zap.String("method", method),
		zap.String("from", addr.Hex()),
		zap.String("tx", tx.Hash().Hex()),
		zap.Uint64("nonce", tx.Nonce()),
		zap.String("value", fmtETH(tx.Value())))
	return tx.Hash().Hex(), nil
}
