package dex

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
)

type Kind string

const (
	KindCreatePair      Kind = "createPair"
	KindAddLiquidity    Kind = "addLiquidity"
	KindRemoveLiquidity Kind = "removeLiquidity"
	KindSwap            Kind = "swap"
)

type StepStatus string

const (
	StepPending   StepStatus = "pending"
	StepSubmitted StepStatus = "submitted"
	StepConfirmed StepStatus = "confirmed"
	StepFailed    StepStatus = "failed"
)

// Step is one transaction of an operation. Amount is in base units.
type Step struct {
	Name   string          `json:"name"`
	Target common.Address  `json:"target"`
	Token  *common.Address `json:"token,omitempty"`
	Amount string          `json:"amount,omitempty"`
	TxHash *common.Hash    `json:"txHash,omitempty"`
	Status StepStatus      `json:"status"`
}

// Operation tracks an approve-then-act sequence for the duration of one call.
// Every step runs from the account and chain the operation started on.
type Operation struct {
	ID      uuid.UUID      `json:"id"`
	Kind    Kind           `json:"kind"`
	Account common.Address `json:"account"`
	ChainID uint64         `json:"chainId"`
	Steps   []Step         `json:"steps"`
}

// StepObserver is told about every step status change. It runs on the calling goroutine
// and must not block.
type StepObserver func(op Operation, step Step)

func newOperation(kind Kind, s Session) *Operation {
	return &Operation{
		ID:      uuid.New(),
		Kind:    kind,
		Account: s.Account(),
		ChainID: s.ChainID(),
	}
}

func (op *Operation) addStep(name string, target common.Address, token *common.Address, amount *big.Int) int {
	st := Step{Name: name, Target: target, Token: token, Status: StepPending}
	if amount != nil {
		st.Amount = amount.String()
	}
	op.Steps = append(op.Steps, st)
	return len(op.Steps) - 1
}

func (op *Operation) completed() []Step {
	var out []Step
	for _, s := range op.Steps {
		if s.Status == StepConfirmed {
			out = append(out, s)
		}
	}
	return out
}

func (op *Operation) snapshot() Operation {
	out := *op
	out.Steps = append([]Step(nil), op.Steps...)
	return out
}
