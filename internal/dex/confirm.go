package dex

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/quantumauth-io/quantum-go-utils/log"

	"github.com/quantumauth-io/simpledex-client/internal/wallet"
)

// waitMined polls for the receipt of hash until it is mined, the confirmation timeout
// elapses or ctx ends. A mined revert is a CallError; giving up is a PendingError.
func (o *Orchestrator) waitMined(ctx context.Context, s Session, method string, tx wallet.TxRequest, hash common.Hash) (*types.Receipt, error) {
	ctx, cancel := context.WithTimeout(ctx, o.confirmTimeout)
	defer cancel()

	delay := o.pollInterval
	step := o.pollInterval / 3
	if step <= 0 {
		step = o.pollInterval
	}

	for {
		receipt, err := s.TransactionReceipt(ctx, hash)
		switch {
		case errors.Is(err, wallet.ErrSessionChanged):
			return nil, &PendingError{Method: method, TxHash: hash, Err: err}
		case err != nil:
			if ctx.Err() != nil {
				return nil, &PendingError{Method: method, TxHash: hash, Err: ctx.Err()}
			}
			// receipts are looked up again on the next tick; node hiccups are not failures
			log.Warn("dex: receipt lookup failed", "method", method, "tx", hash.Hex(), "error", err)
		case receipt != nil:
			if receipt.Status == types.ReceiptStatusFailed {
				return receipt, &CallError{Method: method, TxHash: hash, Reason: o.revertReason(ctx, s, tx)}
			}
			return receipt, nil
		}

		select {
		case <-ctx.Done():
			return nil, &PendingError{Method: method, TxHash: hash, Err: ctx.Err()}
		case <-time.After(delay):
			if delay < o.maxPollInterval {
				delay += step
			}
		}
	}
}

// revertReason replays tx as a call to recover the revert message.
func (o *Orchestrator) revertReason(ctx context.Context, s Session, tx wallet.TxRequest) string {
	from := tx.From
	_, err := s.Call(ctx, wallet.CallRequest{From: &from, To: tx.To, Data: tx.Data})
	if err == nil {
		return "execution reverted"
	}
	if reason, ok := decodeRevert(err); ok {
		return reason
	}
	return err.Error()
}

// dataError matches wallet.ProviderError and go-ethereum rpc errors carrying revert data.
type dataError interface {
	error
	ErrorData() any
}

func decodeRevert(err error) (string, bool) {
	var de dataError
	if !errors.As(err, &de) {
		return "", false
	}
	raw := strings.TrimSpace(fmt.Sprintf("%v", de.ErrorData()))
	if raw == "" || raw == "<nil>" {
		return "", false
	}
	data, derr := hexutil.Decode(raw)
	if derr != nil {
		return raw, true
	}
	if reason, uerr := abi.UnpackRevert(data); uerr == nil {
		return reason, true
	}
	return raw, true
}
