package http

import (
	"context"
	"math/big"
	"net/http"

	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"

	"github.com/quantumauth-io/simpledex-client/internal/assets"
	"github.com/quantumauth-io/simpledex-client/internal/constants"
	"github.com/quantumauth-io/simpledex-client/internal/dex"
	"github.com/quantumauth-io/simpledex-client/internal/networks"
	"github.com/quantumauth-io/simpledex-client/internal/utils"
	"github.com/quantumauth-io/simpledex-client/internal/wallet"
)

// WalletSession is the part of *wallet.Manager the API drives.
type WalletSession interface {
	State() wallet.WalletState
	Connect(ctx context.Context) wallet.WalletState
	Disconnect() wallet.WalletState
}

// DEX is the part of *dex.Orchestrator the API drives.
type DEX interface {
	Address() common.Address
	CreatePair(ctx context.Context, token0, token1 common.Address) (common.Hash, error)
	AddLiquidity(ctx context.Context, token0, token1 common.Address, amount0, amount1 string, decimals0, decimals1 uint8) (common.Hash, error)
	RemoveLiquidity(ctx context.Context, token0, token1 common.Address, liquidity string, decimals uint8) (dex.RemoveLiquidityResult, error)
	Swap(ctx context.Context, tokenIn, tokenOut common.Address, amountIn string, decimalsIn uint8) (dex.SwapResult, error)
	GetReserves(ctx context.Context, token0, token1 common.Address) (dex.Reserves, error)
	GetLiquidityBalance(ctx context.Context, token0, token1, user common.Address) (string, error)
	GetPairID(ctx context.Context, token0, token1 common.Address) (common.Hash, error)
	GetAllowance(ctx context.Context, token, owner common.Address) (string, error)
	GetTokenBalance(ctx context.Context, token, user common.Address) (string, error)
	GetTokenInfo(ctx context.Context, token common.Address) (dex.TokenInfo, error)
	GetTokenDecimals(ctx context.Context, token common.Address) (uint8, error)
}

// TokenCatalog is the part of *assets.Manager the API drives.
type TokenCatalog interface {
	List(network string) []assets.Asset
	EnsureForNetwork(ctx context.Context, network networks.NetworkConfig, defaults []string) error
	Add(ctx context.Context, network networks.NetworkConfig, token common.Address) (assets.Asset, error)
	Remove(network string, token common.Address) error
	Decimals(ctx context.Context, network networks.NetworkConfig, token common.Address) (uint8, error)
}

type Options struct {
	// QueryDecimals reads missing token decimals from chain instead of assuming DefaultDecimals.
	QueryDecimals   bool
	DefaultDecimals uint8
	// DefaultTokens seeds the catalog, keyed by network key.
	DefaultTokens map[string][]string
}

type Handler struct {
	wallet   WalletSession
	dex      DEX
	registry *networks.Registry
	catalog  TokenCatalog
	opts     Options
}

func NewHandler(session WalletSession, orchestrator DEX, registry *networks.Registry, catalog TokenCatalog, opts Options) *Handler {
	if opts.DefaultDecimals == 0 {
		opts.DefaultDecimals = constants.DefaultTokenDecimals
	}
	if registry == nil {
		registry = networks.Default()
	}
	return &Handler{
		wallet:   session,
		dex:      orchestrator,
		registry: registry,
		catalog:  catalog,
		opts:     opts,
	}
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{JSONKeyOK: true})
}

// -------- networks --------

// GET /api/networks
func (h *Handler) ListNetworks(c *gin.Context) {
	res := networksRes{
		Networks:          h.registry.All(),
		SupportedChainIDs: h.registry.SupportedChainIDs(),
	}
	if n, ok := h.registry.DefaultNetwork(); ok {
		res.Default = n.Key
	}
	c.JSON(http.StatusOK, res)
}

// GET /api/networks/:chainId
func (h *Handler) GetNetwork(c *gin.Context) {
	id, err := parseChainID(c.Param("chainId"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	n, ok := h.registry.ByChainID(id)
	if !ok {
		h.respondError(c, errors.Wrapf(errNetworkNotFound, "chainId %d", id))
		return
	}
	c.JSON(http.StatusOK, n)
}

// -------- wallet --------

// GET /api/wallet
func (h *Handler) WalletState(c *gin.Context) {
	c.JSON(http.StatusOK, h.wallet.State())
}

// POST /api/wallet/connect
//
// Connection failures are reported in the state's error field, not as an HTTP error.
func (h *Handler) ConnectWallet(c *gin.Context) {
	c.JSON(http.StatusOK, h.wallet.Connect(c.Request.Context()))
}

// POST /api/wallet/disconnect
func (h *Handler) DisconnectWallet(c *gin.Context) {
	c.JSON(http.StatusOK, h.wallet.Disconnect())
}

// -------- dex: mutations --------

// POST /api/dex/pairs
func (h *Handler) CreatePair(c *gin.Context) {
	var req createPairReq
	if !bindJSON(c, &req) {
		return
	}
	token0, token1, err := parsePair(req.Token0, req.Token1)
	if err != nil {
		h.respondError(c, err)
		return
	}

	hash, err := h.dex.CreatePair(c.Request.Context(), token0, token1)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, h.tx(hash))
}

// POST /api/dex/liquidity/add
func (h *Handler) AddLiquidity(c *gin.Context) {
	var req addLiquidityReq
	if !bindJSON(c, &req) {
		return
	}
	token0, token1, err := parsePair(req.Token0, req.Token1)
	if err != nil {
		h.respondError(c, err)
		return
	}
	ctx := c.Request.Context()

	d0, err := h.decimals(ctx, token0, req.Decimals0)
	if err != nil {
		h.respondError(c, err)
		return
	}
	d1, err := h.decimals(ctx, token1, req.Decimals1)
	if err != nil {
		h.respondError(c, err)
		return
	}

	hash, err := h.dex.AddLiquidity(ctx, token0, token1, req.Amount0, req.Amount1, d0, d1)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.tx(hash))
}

// POST /api/dex/liquidity/remove
//
// Liquidity amounts are LP units, which are not an ERC-20; missing decimals use the default.
func (h *Handler) RemoveLiquidity(c *gin.Context) {
	var req removeLiquidityReq
	if !bindJSON(c, &req) {
		return
	}
	token0, token1, err := parsePair(req.Token0, req.Token1)
	if err != nil {
		h.respondError(c, err)
		return
	}
	decimals := h.opts.DefaultDecimals
	if req.Decimals != nil {
		decimals = *req.Decimals
	}

	res, err := h.dex.RemoveLiquidity(c.Request.Context(), token0, token1, req.Liquidity, decimals)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, removeLiquidityRes{Amount0: res.Amount0, Amount1: res.Amount1, txRes: h.tx(res.TxHash)})
}

// POST /api/dex/swap
func (h *Handler) Swap(c *gin.Context) {
	var req swapReq
	if !bindJSON(c, &req) {
		return
	}
	tokenIn, tokenOut, err := parsePair(req.TokenIn, req.TokenOut)
	if err != nil {
		h.respondError(c, err)
		return
	}
	ctx := c.Request.Context()

	d, err := h.decimals(ctx, tokenIn, req.DecimalsIn)
	if err != nil {
		h.respondError(c, err)
		return
	}

	res, err := h.dex.Swap(ctx, tokenIn, tokenOut, req.AmountIn, d)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, swapRes{AmountOut: res.AmountOut, txRes: h.tx(res.TxHash)})
}

// -------- dex: reads --------

// GET /api/dex/reserves?token0=&token1=
func (h *Handler) Reserves(c *gin.Context) {
	token0, token1, err := parsePair(c.Query("token0"), c.Query("token1"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	res, err := h.dex.GetReserves(c.Request.Context(), token0, token1)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// GET /api/dex/liquidity?token0=&token1=[&user=]
func (h *Handler) LiquidityBalance(c *gin.Context) {
	token0, token1, err := parsePair(c.Query("token0"), c.Query("token1"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	user, err := h.userParam(c, "user")
	if err != nil {
		h.respondError(c, err)
		return
	}
	bal, err := h.dex.GetLiquidityBalance(c.Request.Context(), token0, token1, user)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, liquidityRes{User: user.Hex(), Balance: bal})
}

// GET /api/dex/pair-id?token0=&token1=
func (h *Handler) PairID(c *gin.Context) {
	token0, token1, err := parsePair(c.Query("token0"), c.Query("token1"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	id, err := h.dex.GetPairID(c.Request.Context(), token0, token1)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, pairIDRes{PairID: id.Hex()})
}

// GET /api/dex/allowance?token=[&owner=]
func (h *Handler) Allowance(c *gin.Context) {
	token, err := parseAddr("token", c.Query("token"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	owner, err := h.userParam(c, "owner")
	if err != nil {
		h.respondError(c, err)
		return
	}
	allowance, err := h.dex.GetAllowance(c.Request.Context(), token, owner)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, allowanceRes{
		Token:     token.Hex(),
		Owner:     owner.Hex(),
		Spender:   h.dex.Address().Hex(),
		Allowance: allowance,
	})
}

// -------- tokens --------

// GET /api/tokens
//
// Lists the catalog of the connected network, seeding it from the configured defaults first.
func (h *Handler) ListTokens(c *gin.Context) {
	network, err := h.activeNetwork()
	if err != nil {
		h.respondError(c, err)
		return
	}
	if h.catalog == nil {
		c.JSON(http.StatusOK, gin.H{JSONKeyTokens: []assets.Asset{}})
		return
	}
	if err := h.catalog.EnsureForNetwork(c.Request.Context(), network, h.opts.DefaultTokens[network.Key]); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{JSONKeyTokens: h.catalog.List(network.Key)})
}

// POST /api/tokens
func (h *Handler) AddToken(c *gin.Context) {
	var req addTokenReq
	if !bindJSON(c, &req) {
		return
	}
	token, err := parseAddr("address", req.Address)
	if err != nil {
		h.respondError(c, err)
		return
	}
	network, err := h.activeNetwork()
	if err != nil {
		h.respondError(c, err)
		return
	}
	if h.catalog == nil {
		h.respondError(c, errors.New("token catalog not configured"))
		return
	}
	a, err := h.catalog.Add(c.Request.Context(), network, token)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, a)
}

// DELETE /api/tokens/:address
func (h *Handler) RemoveToken(c *gin.Context) {
	token, err := parseAddr("address", c.Param("address"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	network, err := h.activeNetwork()
	if err != nil {
		h.respondError(c, err)
		return
	}
	if h.catalog == nil {
		h.respondError(c, errors.Wrap(assets.ErrNotFound, "token catalog not configured"))
		return
	}
	if err := h.catalog.Remove(network.Key, token); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GET /api/tokens/:address
func (h *Handler) TokenInfo(c *gin.Context) {
	token, err := parseAddr("address", c.Param("address"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	info, err := h.dex.GetTokenInfo(c.Request.Context(), token)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tokenInfoRes{Address: token.Hex(), TokenInfo: info})
}

// GET /api/tokens/:address/balance[?user=]
func (h *Handler) TokenBalance(c *gin.Context) {
	token, err := parseAddr("address", c.Param("address"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	user, err := h.userParam(c, "user")
	if err != nil {
		h.respondError(c, err)
		return
	}
	ctx := c.Request.Context()

	bal, err := h.dex.GetTokenBalance(ctx, token, user)
	if err != nil {
		h.respondError(c, err)
		return
	}
	d, err := h.decimals(ctx, token, nil)
	if err != nil {
		h.respondError(c, err)
		return
	}

	res := balanceRes{Token: token.Hex(), User: user.Hex(), Balance: bal, Decimals: d}
	if v, ok := new(big.Int).SetString(bal, 10); ok {
		res.Formatted = utils.FormatUnitsTrim(v, d, BalanceHumanMaxDecimalsDefault)
	}
	c.JSON(http.StatusOK, res)
}

// -------- helpers --------

// decimals resolves the decimals to convert a human amount of token with: the explicit value,
// else the chain (through the catalog when the network is known) when QueryDecimals is set,
// else DefaultDecimals.
func (h *Handler) decimals(ctx context.Context, token common.Address, explicit *uint8) (uint8, error) {
	if explicit != nil {
		return *explicit, nil
	}
	if !h.opts.QueryDecimals {
		return h.opts.DefaultDecimals, nil
	}
	if h.catalog != nil {
		if network, err := h.activeNetwork(); err == nil {
			return h.catalog.Decimals(ctx, network, token)
		}
	}
	return h.dex.GetTokenDecimals(ctx, token)
}

// activeNetwork is the registry entry of the connected chain.
func (h *Handler) activeNetwork() (networks.NetworkConfig, error) {
	st := h.wallet.State()
	if !st.IsConnected {
		return networks.NetworkConfig{}, wallet.ErrNotConnected
	}
	if st.Network == nil {
		return networks.NetworkConfig{}, errors.Wrap(errNetworkNotFound, HTTPErrorUnknownChainText)
	}
	return *st.Network, nil
}

// userParam reads an address query parameter, defaulting to the connected account.
func (h *Handler) userParam(c *gin.Context, name string) (common.Address, error) {
	if raw := c.Query(name); raw != "" {
		return parseAddr(name, raw)
	}
	st := h.wallet.State()
	if st.Address == nil {
		return common.Address{}, errors.Wrapf(wallet.ErrNotConnected, "no %s given", name)
	}
	return *st.Address, nil
}

func (h *Handler) tx(hash common.Hash) txRes {
	return txRes{TxHash: hash.Hex(), TxURL: h.txURL(hash.Hex())}
}

func (h *Handler) txURL(hash string) string {
	if st := h.wallet.State(); st.Network != nil {
		return st.Network.TxURL(hash)
	}
	return ""
}

func parsePair(a, b string) (common.Address, common.Address, error) {
	first, err := parseAddr("first token", a)
	if err != nil {
		return common.Address{}, common.Address{}, err
	}
	second, err := parseAddr("second token", b)
	if err != nil {
		return common.Address{}, common.Address{}, err
	}
	return first, second, nil
}

func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.JSON(http.StatusBadRequest, errorRes{Error: err.Error(), Code: ErrorCodeInvalidInput})
		return false
	}
	return true
}
