package wallet

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/require"
)

var (
	accountA = common.HexToAddress("0xAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA1111")
	accountB = common.HexToAddress("0xBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBB2222")
)

type fakeProvider struct {
	mu sync.Mutex

	accounts      []common.Address
	authorized    []common.Address
	chainID       uint64
	requestErr    error
	listErr       error
	chainErr      error
	requestCalls  int
	subscribes    int
	unsubscribes  int
	sub           *fakeSubscription
	sent          []TxRequest
	receipts      map[common.Hash]*types.Receipt
	callResponses [][]byte
}

func newFakeProvider(chainID uint64, accounts ...common.Address) *fakeProvider {
	return &fakeProvider{
		chainID:  chainID,
		accounts: accounts,
		receipts: map[common.Hash]*types.Receipt{},
	}
}

func (f *fakeProvider) RequestAccounts(context.Context) ([]common.Address, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requestCalls++
	if f.requestErr != nil {
		return nil, f.requestErr
	}
	f.authorized = append([]common.Address(nil), f.accounts...)
	return append([]common.Address(nil), f.accounts...), nil
}

func (f *fakeProvider) ListAccounts(context.Context) ([]common.Address, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]common.Address(nil), f.authorized...), nil
}

func (f *fakeProvider) ChainID(context.Context) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.chainErr != nil {
		return 0, f.chainErr
	}
	return f.chainID, nil
}

func (f *fakeProvider) Subscribe(context.Context) (Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subscribes++
	f.sub = &fakeSubscription{provider: f, events: make(chan Event, 16)}
	return f.sub, nil
}

func (f *fakeProvider) SendTransaction(_ context.Context, tx TxRequest) (common.Hash, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, tx)
	return common.BigToHash(common.Big1), nil
}

func (f *fakeProvider) Call(context.Context, CallRequest) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.callResponses) == 0 {
		return nil, nil
	}
	out := f.callResponses[0]
	f.callResponses = f.callResponses[1:]
	return out, nil
}

func (f *fakeProvider) TransactionReceipt(_ context.Context, hash common.Hash) (*types.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.receipts[hash], nil
}

// emit pushes a notification through the live subscription.
func (f *fakeProvider) emit(t *testing.T, ev Event) {
	t.Helper()
	f.mu.Lock()
	sub := f.sub
	f.mu.Unlock()
	require.NotNil(t, sub, "no live subscription")
	sub.events <- ev
}

func (f *fakeProvider) counts() (subscribes, unsubscribes int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.subscribes, f.unsubscribes
}

type fakeSubscription struct {
	provider *fakeProvider
	events   chan Event
	once     sync.Once
}

func (s *fakeSubscription) Events() <-chan Event { return s.events }

func (s *fakeSubscription) Unsubscribe() {
	s.once.Do(func() {
		s.provider.mu.Lock()
		s.provider.unsubscribes++
		s.provider.mu.Unlock()
		close(s.events)
	})
}

// waitFor polls m until cond holds for its state.
func waitFor(t *testing.T, m *Manager, cond func(WalletState) bool) WalletState {
	t.Helper()
	require.Eventually(t, func() bool { return cond(m.State()) }, 2*time.Second, 5*time.Millisecond)
	return m.State()
}
