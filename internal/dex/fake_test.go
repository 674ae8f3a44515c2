package dex

import (
	"bytes"
	"context"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/require"

	"github.com/quantumauth-io/simpledex-client/internal/wallet"
)

var (
	testAccount = common.HexToAddress("0xAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA1111")
	testDEX     = common.HexToAddress("0x00000000000000000000000000000000000d3e00")
	tokenA      = common.HexToAddress("0x000000000000000000000000000000000000000a")
	tokenB      = common.HexToAddress("0x000000000000000000000000000000000000000b")
	tokenC      = common.HexToAddress("0x000000000000000000000000000000000000000c")
)

// fakeChain is a Session whose transactions are mined as soon as they are sent,
// unless a hook says otherwise.
type fakeChain struct {
	mu sync.Mutex

	account common.Address
	chainID uint64

	sent   []wallet.TxRequest
	calls  []wallet.CallRequest
	hashes map[common.Hash]int

	// sendHook may fail (or block) the n-th submission.
	sendHook func(n int, tx wallet.TxRequest) error
	// statusFor overrides the receipt status of the n-th transaction.
	statusFor func(n int) uint64
	neverMine bool
	callHook  func(msg wallet.CallRequest) ([]byte, error)
}

func newFakeChain() *fakeChain {
	return &fakeChain{account: testAccount, chainID: 4202, hashes: map[common.Hash]int{}}
}

func (f *fakeChain) source() SessionSource {
	return func() (Session, error) { return f, nil }
}

func (f *fakeChain) Account() common.Address {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.account
}

func (f *fakeChain) ChainID() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.chainID
}

func (f *fakeChain) setChainID(id uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.chainID = id
}

func (f *fakeChain) SendTransaction(_ context.Context, tx wallet.TxRequest) (common.Hash, error) {
	f.mu.Lock()
	n := len(f.sent)
	hook := f.sendHook
	f.mu.Unlock()

	if hook != nil {
		if err := hook(n, tx); err != nil {
			return common.Hash{}, err
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	n = len(f.sent)
	f.sent = append(f.sent, tx)
	hash := common.BigToHash(big.NewInt(int64(n + 1)))
	f.hashes[hash] = n
	return hash, nil
}

func (f *fakeChain) Call(_ context.Context, msg wallet.CallRequest) ([]byte, error) {
	f.mu.Lock()
	f.calls = append(f.calls, msg)
	hook := f.callHook
	f.mu.Unlock()

	if hook == nil {
		return nil, nil
	}
	return hook(msg)
}

func (f *fakeChain) TransactionReceipt(_ context.Context, hash common.Hash) (*types.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.neverMine {
		return nil, nil
	}
	n, ok := f.hashes[hash]
	if !ok {
		return nil, nil
	}
	status := types.ReceiptStatusSuccessful
	if f.statusFor != nil {
		status = f.statusFor(n)
	}
	return &types.Receipt{Status: status, TxHash: hash, BlockNumber: big.NewInt(int64(n + 1))}, nil
}

func (f *fakeChain) sentTxs() []wallet.TxRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]wallet.TxRequest(nil), f.sent...)
}

func newTestOrchestrator(t *testing.T, f *fakeChain, opts ...Option) *Orchestrator {
	t.Helper()
	opts = append([]Option{WithPollInterval(time.Millisecond, 2*time.Millisecond)}, opts...)
	o, err := New(f.source(), testDEX, opts...)
	require.NoError(t, err)
	return o
}

func wei(t *testing.T, s string) *big.Int {
	t.Helper()
	v, ok := new(big.Int).SetString(s, 10)
	require.True(t, ok, s)
	return v
}

func mustPack(t *testing.T, contract abi.ABI, method string, args ...interface{}) []byte {
	t.Helper()
	data, err := contract.Pack(method, args...)
	require.NoError(t, err)
	return data
}

func packOutputs(t *testing.T, contract abi.ABI, method string, vals ...interface{}) []byte {
	t.Helper()
	out, err := contract.Methods[method].Outputs.Pack(vals...)
	require.NoError(t, err)
	return out
}

func isMethod(data []byte, contract abi.ABI, method string) bool {
	return len(data) >= 4 && bytes.Equal(data[:4], contract.Methods[method].ID)
}

// revertError is what a node returns for eth_call on a reverting Error(string).
func revertError(t *testing.T, reason string) error {
	t.Helper()
	typ, err := abi.NewType("string", "", nil)
	require.NoError(t, err)
	enc, err := abi.Arguments{{Type: typ}}.Pack(reason)
	require.NoError(t, err)
	data := append([]byte{0x08, 0xc3, 0x79, 0xa0}, enc...)
	return &wallet.ProviderError{Code: 3, Message: "execution reverted", Data: hexutil.Encode(data)}
}
