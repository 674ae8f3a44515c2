package http

import (
	"github.com/quantumauth-io/simpledex-client/internal/dex"
	"github.com/quantumauth-io/simpledex-client/internal/networks"
)

// -------- requests --------

type createPairReq struct {
	Token0 string `json:"token0" binding:"required"`
	Token1 string `json:"token1" binding:"required"`
}

// Decimals are optional; see Handler.decimals for how missing ones are resolved.
type addLiquidityReq struct {
	Token0    string `json:"token0"  binding:"required"`
	Token1    string `json:"token1"  binding:"required"`
	Amount0   string `json:"amount0" binding:"required"`
	Amount1   string `json:"amount1" binding:"required"`
	Decimals0 *uint8 `json:"decimals0"`
	Decimals1 *uint8 `json:"decimals1"`
}

type removeLiquidityReq struct {
	Token0    string `json:"token0"    binding:"required"`
	Token1    string `json:"token1"    binding:"required"`
	Liquidity string `json:"liquidity" binding:"required"`
	Decimals  *uint8 `json:"decimals"`
}

type swapReq struct {
	TokenIn    string `json:"tokenIn"  binding:"required"`
	TokenOut   string `json:"tokenOut" binding:"required"`
	AmountIn   string `json:"amountIn" binding:"required"`
	DecimalsIn *uint8 `json:"decimalsIn"`
}

type addTokenReq struct {
	Address string `json:"address" binding:"required"`
}

// -------- responses --------

type txRes struct {
	TxHash string `json:"txHash"`
	TxURL  string `json:"txUrl,omitempty"`
}

type removeLiquidityRes struct {
	Amount0 string `json:"amount0"`
	Amount1 string `json:"amount1"`
	txRes
}

type swapRes struct {
	AmountOut string `json:"amountOut"`
	txRes
}

type networksRes struct {
	Networks          []networks.NetworkConfig `json:"networks"`
	SupportedChainIDs []uint64                 `json:"supportedChainIds"`
	Default           string                   `json:"default,omitempty"`
}

type liquidityRes struct {
	User    string `json:"user"`
	Balance string `json:"balance"`
}

type pairIDRes struct {
	PairID string `json:"pairId"`
}

type allowanceRes struct {
	Token     string `json:"token"`
	Owner     string `json:"owner"`
	Spender   string `json:"spender"`
	Allowance string `json:"allowance"`
}

type tokenInfoRes struct {
	Address string `json:"address"`
	dex.TokenInfo
}

type balanceRes struct {
	Token     string `json:"token"`
	User      string `json:"user"`
	Balance   string `json:"balance"`
	Decimals  uint8  `json:"decimals"`
	Formatted string `json:"formatted"`
}

type errorRes struct {
	Error      string     `json:"error"`
	Code       string     `json:"code"`
	FailedStep string     `json:"failedStep,omitempty"`
	Completed  []dex.Step `json:"completed,omitempty"`
	TxHash     string     `json:"txHash,omitempty"`
	TxURL      string     `json:"txUrl,omitempty"`
}
