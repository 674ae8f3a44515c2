package wallet

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Provider is the capability the host wallet exposes (EIP-1193 in spirit).
// It is injected at construction; a nil Provider means no wallet is installed.
type Provider interface {
	// RequestAccounts may show a permission prompt and may be rejected by the user.
	RequestAccounts(ctx context.Context) ([]common.Address, error)
	// ListAccounts returns already-authorized accounts without prompting.
	ListAccounts(ctx context.Context) ([]common.Address, error)
	ChainID(ctx context.Context) (uint64, error)

	// Subscribe starts delivery of accountsChanged / chainChanged notifications.
	Subscribe(ctx context.Context) (Subscription, error)

	// SendTransaction asks the wallet to sign and broadcast tx, returning its hash.
	SendTransaction(ctx context.Context, tx TxRequest) (common.Hash, error)
	// Call executes a read-only call against the latest block.
	Call(ctx context.Context, msg CallRequest) ([]byte, error)
	// TransactionReceipt returns (nil, nil) while the transaction is still pending.
	TransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error)
}

// Subscription is a live provider notification stream.
// Unsubscribe is safe to call more than once; it closes Events.
type Subscription interface {
	Events() <-chan Event
	Unsubscribe()
}

type EventKind int

const (
	AccountsChanged EventKind = iota + 1
	ChainChanged
)

func (k EventKind) String() string {
	switch k {
	case AccountsChanged:
		return "accountsChanged"
	case ChainChanged:
		return "chainChanged"
	default:
		return "unknown"
	}
}

// Event is one provider notification. Chain ids arrive hex-encoded, as wallets emit them.
type Event struct {
	Kind       EventKind
	Accounts   []common.Address
	ChainIDHex string
}

func AccountsChangedEvent(accounts ...common.Address) Event {
	return Event{Kind: AccountsChanged, Accounts: accounts}
}

func ChainChangedEvent(chainIDHex string) Event {
	return Event{Kind: ChainChanged, ChainIDHex: chainIDHex}
}

// TxRequest is the eth_sendTransaction payload. Gas and fees are left to the wallet.
type TxRequest struct {
	From  common.Address
	To    common.Address
	Data  []byte
	Value *big.Int
}

type CallRequest struct {
	From *common.Address
	To   common.Address
	Data []byte
}
