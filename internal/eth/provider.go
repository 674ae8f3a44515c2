package eth

import (
	"context"
	"math/big"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/quantumauth-io/quantum-go-utils/log"

	"github.com/quantumauth-io/simpledex-client/internal/constants"
	"github.com/quantumauth-io/simpledex-client/internal/wallet"
)

// ConsentFunc is asked before accounts are exposed through eth_requestAccounts.
// Returning false is reported to callers as a user rejection.
type ConsentFunc func(ctx context.Context) (bool, error)

// RPCProvider is a wallet.Provider backed by a JSON-RPC endpoint whose node (or signer
// in front of it) holds the user's accounts.
type RPCProvider struct {
	client        *rpc.Client
	consent       ConsentFunc
	watchInterval time.Duration
}

var _ wallet.Provider = (*RPCProvider)(nil)

type Option func(*RPCProvider)

func WithConsent(fn ConsentFunc) Option {
	return func(p *RPCProvider) { p.consent = fn }
}

// WithWatchInterval sets how often Subscribe polls for account and chain changes.
func WithWatchInterval(d time.Duration) Option {
	return func(p *RPCProvider) {
		if d > 0 {
			p.watchInterval = d
		}
	}
}

func Dial(ctx context.Context, rawURL string, opts ...Option) (*RPCProvider, error) {
	if rawURL == "" {
		return nil, errors.New("eth: rpc url is empty")
	}
	c, err := rpc.DialContext(ctx, rawURL)
	if err != nil {
		return nil, errors.Wrapf(err, "eth: dial %s", rawURL)
	}
	return New(c, opts...), nil
}

func New(client *rpc.Client, opts ...Option) *RPCProvider {
	p := &RPCProvider{
		client:        client,
		watchInterval: constants.DefaultWatchInterval,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

func (p *RPCProvider) Close() {
	if p != nil && p.client != nil {
		p.client.Close()
	}
}

func (p *RPCProvider) RequestAccounts(ctx context.Context) ([]common.Address, error) {
	if p.consent != nil {
		ok, err := p.consent(ctx)
		if err != nil {
			return nil, errors.Wrap(err, "eth: consent prompt")
		}
		if !ok {
			return nil, wallet.RejectedByUser("")
		}
	}

	var accounts []common.Address
	err := p.client.CallContext(ctx, &accounts, "eth_requestAccounts")
	if err != nil {
		// plain nodes only know eth_accounts
		if code, ok := wallet.ErrorCode(err); ok && code == constants.CodeMethodNotFound {
			log.Info("eth: eth_requestAccounts unsupported, falling back to eth_accounts")
			return p.ListAccounts(ctx)
		}
		return nil, wrapRPCError(err, "eth_requestAccounts")
	}
	return accounts, nil
}

func (p *RPCProvider) ListAccounts(ctx context.Context) ([]common.Address, error) {
	var accounts []common.Address
	if err := p.client.CallContext(ctx, &accounts, "eth_accounts"); err != nil {
		return nil, wrapRPCError(err, "eth_accounts")
	}
	return accounts, nil
}

func (p *RPCProvider) ChainID(ctx context.Context) (uint64, error) {
	var id hexutil.Uint64
	if err := p.client.CallContext(ctx, &id, "eth_chainId"); err != nil {
		return 0, wrapRPCError(err, "eth_chainId")
	}
	return uint64(id), nil
}

type sendTxArgs struct {
	From  common.Address  `json:"from"`
	To    *common.Address `json:"to,omitempty"`
	Data  hexutil.Bytes   `json:"data,omitempty"`
	Value *hexutil.Big    `json:"value,omitempty"`
}

func (p *RPCProvider) SendTransaction(ctx context.Context, tx wallet.TxRequest) (common.Hash, error) {
	to := tx.To
	args := sendTxArgs{From: tx.From, To: &to, Data: tx.Data}
	if tx.Value != nil && tx.Value.Sign() > 0 {
		args.Value = (*hexutil.Big)(new(big.Int).Set(tx.Value))
	}

	var hash common.Hash
	if err := p.client.CallContext(ctx, &hash, "eth_sendTransaction", args); err != nil {
		return common.Hash{}, wrapRPCError(err, "eth_sendTransaction")
	}
	return hash, nil
}

type callArgs struct {
	From *common.Address `json:"from,omitempty"`
	To   common.Address  `json:"to"`
	Data hexutil.Bytes   `json:"data"`
}

func (p *RPCProvider) Call(ctx context.Context, msg wallet.CallRequest) ([]byte, error) {
	var out hexutil.Bytes
	args := callArgs{From: msg.From, To: msg.To, Data: msg.Data}
	if err := p.client.CallContext(ctx, &out, "eth_call", args, "latest"); err != nil {
		return nil, wrapRPCError(err, "eth_call")
	}
	return out, nil
}

// TransactionReceipt returns (nil, nil) while the node reports the transaction as pending.
func (p *RPCProvider) TransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	var r *types.Receipt
	if err := p.client.CallContext(ctx, &r, "eth_getTransactionReceipt", hash); err != nil {
		return nil, wrapRPCError(err, "eth_getTransactionReceipt")
	}
	return r, nil
}

// wrapRPCError turns a JSON-RPC error object into a wallet.ProviderError so callers can
// classify it (user rejection, revert data) without knowing the transport.
func wrapRPCError(err error, method string) error {
	var re rpc.Error
	if errors.As(err, &re) {
		pe := &wallet.ProviderError{Code: re.ErrorCode(), Message: re.Error()}
		var de rpc.DataError
		if errors.As(err, &de) {
			pe.Data = de.ErrorData()
		}
		err = pe
	}
	return errors.Wrap(err, method)
}
