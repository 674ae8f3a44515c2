package wallet

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/quantumauth-io/simpledex-client/internal/networks"
)

// Handle is the signing capability of one Connected session. It stops working as soon as the
// session's account, chain or connection changes, so nothing signed through it can land on a
// chain the caller did not see.
type Handle struct {
	manager    *Manager
	provider   Provider
	account    common.Address
	chainID    uint64
	network    *networks.NetworkConfig
	generation uint64
}

func (h *Handle) Account() common.Address { return h.account }

func (h *Handle) ChainID() uint64 { return h.chainID }

// Network is nil when the chain is not in the registry.
func (h *Handle) Network() *networks.NetworkConfig {
	if h.network == nil {
		return nil
	}
	n := *h.network
	return &n
}

// Valid reports whether the session the handle was issued for is still current.
func (h *Handle) Valid() bool {
	return h.manager.currentGeneration() == h.generation
}

func (h *Handle) check() error {
	if !h.Valid() {
		return errors.Wrapf(ErrSessionChanged, "handle for %s on chain %d", h.account.Hex(), h.chainID)
	}
	return nil
}

// SendTransaction submits tx from the session account. A zero From is filled in;
// any other From must match the session account.
func (h *Handle) SendTransaction(ctx context.Context, tx TxRequest) (common.Hash, error) {
	if err := h.check(); err != nil {
		return common.Hash{}, err
	}
	if tx.From == (common.Address{}) {
		tx.From = h.account
	} else if tx.From != h.account {
		return common.Hash{}, errors.Newf("transaction sender %s is not the session account %s", tx.From.Hex(), h.account.Hex())
	}
	return h.provider.SendTransaction(ctx, tx)
}

func (h *Handle) Call(ctx context.Context, msg CallRequest) ([]byte, error) {
	if err := h.check(); err != nil {
		return nil, err
	}
	if msg.From == nil {
		from := h.account
		msg.From = &from
	}
	return h.provider.Call(ctx, msg)
}

func (h *Handle) TransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	if err := h.check(); err != nil {
		return nil, err
	}
	return h.provider.TransactionReceipt(ctx, hash)
}
