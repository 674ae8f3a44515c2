package dex

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

var (
	//go:embed abi/simpledex.json
	simpleDEXABIJSON string

	//go:embed abi/erc20.json
	erc20ABIJSON string

	simpleDEXABI = mustParseABI("SimpleDEX", simpleDEXABIJSON)
	erc20ABI     = mustParseABI("ERC20", erc20ABIJSON)
)

// SimpleDEX entry points.
const (
	methodCreatePair          = "createPair"
	methodAddLiquidity        = "addLiquidity"
	methodRemoveLiquidity     = "removeLiquidity"
	methodSwap                = "swap"
	methodGetReserves         = "getReserves"
	methodGetLiquidityBalance = "getLiquidityBalance"
	methodGetPairID           = "getPairId"
)

// ERC-20 entry points.
const (
	methodApprove   = "approve"
	methodBalanceOf = "balanceOf"
	methodDecimals  = "decimals"
	methodSymbol    = "symbol"
	methodName      = "name"
	methodAllowance = "allowance"
)

func mustParseABI(name, raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic(fmt.Sprintf("dex: invalid %s ABI: %v", name, err))
	}
	return parsed
}
