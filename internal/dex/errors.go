package dex

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
)

var (
	ErrNotInitialized      = errors.New("dex not initialized: connect a wallet first")
	ErrContractCallFailed  = errors.New("contract call failed")
	ErrConfirmationPending = errors.New("transaction submitted but not yet confirmed")
)

// CallError is a chain-side failure of one contract method: a rejected or declined
// submission, a mined revert, or a failing read. It matches ErrContractCallFailed;
// the underlying provider error stays reachable through Unwrap.
type CallError struct {
	Method string
	TxHash common.Hash
	Reason string
	Err    error
}

func (e *CallError) Error() string {
	var b strings.Builder
	b.WriteString(e.Method)
	if e.TxHash != (common.Hash{}) {
		fmt.Fprintf(&b, " tx %s", e.TxHash.Hex())
	}
	switch {
	case e.Reason != "":
		b.WriteString(" reverted: ")
		b.WriteString(e.Reason)
	case e.Err != nil:
		b.WriteString(" failed: ")
		b.WriteString(e.Err.Error())
	default:
		b.WriteString(" failed")
	}
	return b.String()
}

func (e *CallError) Is(target error) bool { return target == ErrContractCallFailed }

func (e *CallError) Unwrap() error { return e.Err }

// PendingError reports a transaction that was submitted but whose confirmation was not
// observed before the wait ended. It may still land.
type PendingError struct {
	Method string
	TxHash common.Hash
	Err    error
}

func (e *PendingError) Error() string {
	return fmt.Sprintf("%s tx %s: %v: %v", e.Method, e.TxHash.Hex(), ErrConfirmationPending, e.Err)
}

func (e *PendingError) Is(target error) bool { return target == ErrConfirmationPending }

func (e *PendingError) Unwrap() error { return e.Err }

// OperationError is returned when a step of a multi-step operation fails. Completed lists the
// steps that were confirmed before it; their effects (e.g. allowances) remain on chain.
type OperationError struct {
	ID         uuid.UUID
	Kind       Kind
	FailedStep string
	Completed  []Step
	Err        error
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("%s %s: step %s failed after %d confirmed: %v", e.Kind, e.ID, e.FailedStep, len(e.Completed), e.Err)
}

func (e *OperationError) Unwrap() error { return e.Err }

// TxHash returns the hash of the failed step's transaction when it was submitted.
func (e *OperationError) TxHash() (common.Hash, bool) {
	var pe *PendingError
	if errors.As(e.Err, &pe) {
		return pe.TxHash, true
	}
	var ce *CallError
	if errors.As(e.Err, &ce) && ce.TxHash != (common.Hash{}) {
		return ce.TxHash, true
	}
	return common.Hash{}, false
}
