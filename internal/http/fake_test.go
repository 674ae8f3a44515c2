package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/quantumauth-io/simpledex-client/internal/assets"
	"github.com/quantumauth-io/simpledex-client/internal/dex"
	"github.com/quantumauth-io/simpledex-client/internal/networks"
	"github.com/quantumauth-io/simpledex-client/internal/wallet"
)

var (
	testAccount = common.HexToAddress("0xAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA1111")
	testDEX     = common.HexToAddress("0x00000000000000000000000000000000000d3e00")
	tokenA      = common.HexToAddress("0x000000000000000000000000000000000000000a")
	tokenB      = common.HexToAddress("0x000000000000000000000000000000000000000b")
	txHash      = common.HexToHash("0x0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef")
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeWallet struct {
	mu    sync.Mutex
	state wallet.WalletState
}

func connectedWallet(t *testing.T, chainID uint64) *fakeWallet {
	t.Helper()
	addr := testAccount
	id := chainID
	st := wallet.WalletState{Status: wallet.StatusConnected, Address: &addr, IsConnected: true, ChainID: &id}
	if n, ok := networks.Default().ByChainID(chainID); ok {
		st.Network = &n
	}
	return &fakeWallet{state: st}
}

func (f *fakeWallet) State() wallet.WalletState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *fakeWallet) Connect(context.Context) wallet.WalletState { return f.State() }

func (f *fakeWallet) Disconnect() wallet.WalletState {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state = wallet.WalletState{Status: wallet.StatusDisconnected}
	return f.state
}

// dexCall records the arguments of one orchestrator call.
type dexCall struct {
	Method   string
	Tokens   []common.Address
	Amounts  []string
	Decimals []uint8
}

type fakeDEX struct {
	mu    sync.Mutex
	calls []dexCall

	err       error
	decimals  map[common.Address]uint8
	decReads  int
	balance   string
	allowance string
}

func newFakeDEX() *fakeDEX {
	return &fakeDEX{
		decimals:  map[common.Address]uint8{tokenA: 6, tokenB: 18},
		balance:   "1234567",
		allowance: "1000",
	}
}

func (f *fakeDEX) record(c dexCall) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, c)
	return f.err
}

func (f *fakeDEX) lastCall(t *testing.T) dexCall {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.calls)
	return f.calls[len(f.calls)-1]
}

func (f *fakeDEX) Address() common.Address { return testDEX }

func (f *fakeDEX) CreatePair(_ context.Context, t0, t1 common.Address) (common.Hash, error) {
	if err := f.record(dexCall{Method: "createPair", Tokens: []common.Address{t0, t1}}); err != nil {
		return common.Hash{}, err
	}
	return txHash, nil
}

func (f *fakeDEX) AddLiquidity(_ context.Context, t0, t1 common.Address, a0, a1 string, d0, d1 uint8) (common.Hash, error) {
	c := dexCall{Method: "addLiquidity", Tokens: []common.Address{t0, t1}, Amounts: []string{a0, a1}, Decimals: []uint8{d0, d1}}
	if err := f.record(c); err != nil {
		return common.Hash{}, err
	}
	return txHash, nil
}

func (f *fakeDEX) RemoveLiquidity(_ context.Context, t0, t1 common.Address, liq string, d uint8) (dex.RemoveLiquidityResult, error) {
	c := dexCall{Method: "removeLiquidity", Tokens: []common.Address{t0, t1}, Amounts: []string{liq}, Decimals: []uint8{d}}
	if err := f.record(c); err != nil {
		return dex.RemoveLiquidityResult{}, err
	}
	return dex.RemoveLiquidityResult{Amount0: "7", Amount1: "9", TxHash: txHash}, nil
}

func (f *fakeDEX) Swap(_ context.Context, in, out common.Address, amount string, d uint8) (dex.SwapResult, error) {
	c := dexCall{Method: "swap", Tokens: []common.Address{in, out}, Amounts: []string{amount}, Decimals: []uint8{d}}
	if err := f.record(c); err != nil {
		return dex.SwapResult{}, err
	}
	return dex.SwapResult{AmountOut: "42", TxHash: txHash}, nil
}

func (f *fakeDEX) GetReserves(_ context.Context, t0, t1 common.Address) (dex.Reserves, error) {
	if err := f.record(dexCall{Method: "getReserves", Tokens: []common.Address{t0, t1}}); err != nil {
		return dex.Reserves{}, err
	}
	return dex.Reserves{Reserve0: "100", Reserve1: "200"}, nil
}

func (f *fakeDEX) GetLiquidityBalance(_ context.Context, t0, t1, user common.Address) (string, error) {
	if err := f.record(dexCall{Method: "getLiquidityBalance", Tokens: []common.Address{t0, t1, user}}); err != nil {
		return "", err
	}
	return "55", nil
}

func (f *fakeDEX) GetPairID(_ context.Context, t0, t1 common.Address) (common.Hash, error) {
	if err := f.record(dexCall{Method: "getPairId", Tokens: []common.Address{t0, t1}}); err != nil {
		return common.Hash{}, err
	}
	return common.HexToHash("0xabcd"), nil
}

func (f *fakeDEX) GetAllowance(_ context.Context, token, owner common.Address) (string, error) {
	if err := f.record(dexCall{Method: "allowance", Tokens: []common.Address{token, owner}}); err != nil {
		return "", err
	}
	return f.allowance, nil
}

func (f *fakeDEX) GetTokenBalance(_ context.Context, token, user common.Address) (string, error) {
	if err := f.record(dexCall{Method: "balanceOf", Tokens: []common.Address{token, user}}); err != nil {
		return "", err
	}
	return f.balance, nil
}

func (f *fakeDEX) GetTokenInfo(ctx context.Context, token common.Address) (dex.TokenInfo, error) {
	d, err := f.GetTokenDecimals(ctx, token)
	if err != nil {
		return dex.TokenInfo{}, err
	}
	return dex.TokenInfo{Name: "Token " + token.Hex()[40:], Symbol: "T" + token.Hex()[41:], Decimals: d}, nil
}

func (f *fakeDEX) GetTokenDecimals(_ context.Context, token common.Address) (uint8, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	f.decReads++
	d, ok := f.decimals[token]
	if !ok {
		return 0, &dex.CallError{Method: "decimals", Reason: "execution reverted"}
	}
	return d, nil
}

type testAPI struct {
	router  *gin.Engine
	wallet  *fakeWallet
	dex     *fakeDEX
	catalog *assets.Manager
}

func newTestAPI(t *testing.T, w *fakeWallet, opts Options) *testAPI {
	t.Helper()
	d := newFakeDEX()
	catalog := assets.NewManager(d, assets.WithFetchDelay(0))
	h := NewHandler(w, d, networks.Default(), catalog, opts)
	return &testAPI{
		router:  NewRouter(h, []string{"http://localhost:5173"}),
		wallet:  w,
		dex:     d,
		catalog: catalog,
	}
}

// do sends a request as a local client would.
func (a *testAPI) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.RemoteAddr = "127.0.0.1:52000"
	req.Host = "localhost:7070"
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}
