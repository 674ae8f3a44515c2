package dex

import (
	"context"
	"math/big"

	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/quantumauth-io/simpledex-client/internal/wallet"
)

type Reserves struct {
	Reserve0 string `json:"reserve0"`
	Reserve1 string `json:"reserve1"`
}

type TokenInfo struct {
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals uint8  `json:"decimals"`
}

// Read calls never take the operation slot and never submit transactions.
// Integer results are decimal strings in base units.

func (o *Orchestrator) GetReserves(ctx context.Context, token0, token1 common.Address) (Reserves, error) {
	out, err := o.read(ctx, simpleDEXABI, o.dex, methodGetReserves, token0, token1)
	if err != nil {
		return Reserves{}, err
	}
	r0, err := asBig(methodGetReserves, out, 0)
	if err != nil {
		return Reserves{}, err
	}
	r1, err := asBig(methodGetReserves, out, 1)
	if err != nil {
		return Reserves{}, err
	}
	return Reserves{Reserve0: r0.String(), Reserve1: r1.String()}, nil
}

func (o *Orchestrator) GetLiquidityBalance(ctx context.Context, token0, token1, user common.Address) (string, error) {
	out, err := o.read(ctx, simpleDEXABI, o.dex, methodGetLiquidityBalance, token0, token1, user)
	if err != nil {
		return "", err
	}
	v, err := asBig(methodGetLiquidityBalance, out, 0)
	if err != nil {
		return "", err
	}
	return v.String(), nil
}

func (o *Orchestrator) GetPairID(ctx context.Context, token0, token1 common.Address) (common.Hash, error) {
	out, err := o.read(ctx, simpleDEXABI, o.dex, methodGetPairID, token0, token1)
	if err != nil {
		return common.Hash{}, err
	}
	id, ok := out[0].([32]byte)
	if !ok {
		return common.Hash{}, decodeError(methodGetPairID, out[0])
	}
	return common.Hash(id), nil
}

func (o *Orchestrator) GetTokenBalance(ctx context.Context, token, user common.Address) (string, error) {
	out, err := o.read(ctx, erc20ABI, token, methodBalanceOf, user)
	if err != nil {
		return "", err
	}
	v, err := asBig(methodBalanceOf, out, 0)
	if err != nil {
		return "", err
	}
	return v.String(), nil
}

// GetAllowance is what owner currently lets the DEX spend of token.
func (o *Orchestrator) GetAllowance(ctx context.Context, token, owner common.Address) (string, error) {
	out, err := o.read(ctx, erc20ABI, token, methodAllowance, owner, o.dex)
	if err != nil {
		return "", err
	}
	v, err := asBig(methodAllowance, out, 0)
	if err != nil {
		return "", err
	}
	return v.String(), nil
}

func (o *Orchestrator) GetTokenInfo(ctx context.Context, token common.Address) (TokenInfo, error) {
	var info TokenInfo

	out, err := o.read(ctx, erc20ABI, token, methodName)
	if err != nil {
		return TokenInfo{}, err
	}
	if info.Name, err = asString(methodName, out); err != nil {
		return TokenInfo{}, err
	}

	out, err = o.read(ctx, erc20ABI, token, methodSymbol)
	if err != nil {
		return TokenInfo{}, err
	}
	if info.Symbol, err = asString(methodSymbol, out); err != nil {
		return TokenInfo{}, err
	}

	if info.Decimals, err = o.GetTokenDecimals(ctx, token); err != nil {
		return TokenInfo{}, err
	}
	return info, nil
}

// GetTokenDecimals reads only decimals(), for amount conversion.
func (o *Orchestrator) GetTokenDecimals(ctx context.Context, token common.Address) (uint8, error) {
	out, err := o.read(ctx, erc20ABI, token, methodDecimals)
	if err != nil {
		return 0, err
	}
	d, ok := out[0].(uint8)
	if !ok {
		return 0, decodeError(methodDecimals, out[0])
	}
	return d, nil
}

func (o *Orchestrator) read(ctx context.Context, contract abi.ABI, to common.Address, method string, args ...interface{}) ([]interface{}, error) {
	s, err := o.session()
	if err != nil {
		return nil, err
	}

	data, err := contract.Pack(method, args...)
	if err != nil {
		return nil, errors.Wrapf(err, "encode %s", method)
	}

	raw, err := s.Call(ctx, wallet.CallRequest{To: to, Data: data})
	if err != nil {
		if errors.Is(err, wallet.ErrSessionChanged) {
			return nil, errors.WithSecondaryError(ErrNotInitialized, err)
		}
		reason, _ := decodeRevert(err)
		return nil, &CallError{Method: method, Reason: reason, Err: err}
	}

	out, err := contract.Unpack(method, raw)
	if err != nil {
		return nil, &CallError{Method: method, Err: errors.Wrap(err, "decode result")}
	}
	if len(out) == 0 {
		return nil, &CallError{Method: method, Err: errors.New("empty result")}
	}
	return out, nil
}

func asBig(method string, out []interface{}, i int) (*big.Int, error) {
	if i >= len(out) {
		return nil, &CallError{Method: method, Err: errors.Newf("missing output %d", i)}
	}
	v, ok := out[i].(*big.Int)
	if !ok || v == nil {
		return nil, decodeError(method, out[i])
	}
	return v, nil
}

func asString(method string, out []interface{}) (string, error) {
	v, ok := out[0].(string)
	if !ok {
		return "", decodeError(method, out[0])
	}
	return v, nil
}

func decodeError(method string, got interface{}) error {
	return &CallError{Method: method, Err: errors.Newf("unexpected result type %T", got)}
}
