package dex

import (
	"context"
	"math/big"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/quantumauth-io/quantum-go-utils/log"

	"github.com/quantumauth-io/simpledex-client/internal/constants"
	"github.com/quantumauth-io/simpledex-client/internal/utils"
	"github.com/quantumauth-io/simpledex-client/internal/wallet"
)

// Session is the signing capability the orchestrator needs. *wallet.Handle implements it.
type Session interface {
	Account() common.Address
	ChainID() uint64
	SendTransaction(ctx context.Context, tx wallet.TxRequest) (common.Hash, error)
	Call(ctx context.Context, msg wallet.CallRequest) ([]byte, error)
	TransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error)
}

// SessionSource returns the current session. It is called at the start of every operation
// and again before every step, never cached.
type SessionSource func() (Session, error)

// HandleSource adapts a wallet manager into a SessionSource.
func HandleSource(m interface{ Handle() (*wallet.Handle, error) }) SessionSource {
	return func() (Session, error) {
		h, err := m.Handle()
		if err != nil {
			return nil, err
		}
		return h, nil
	}
}

// Placeholder reported for result amounts the chain did not surface.
const Placeholder = "0"

type RemoveLiquidityResult struct {
	Amount0 string      `json:"amount0"`
	Amount1 string      `json:"amount1"`
	TxHash  common.Hash `json:"txHash"`
}

type SwapResult struct {
	AmountOut string      `json:"amountOut"`
	TxHash    common.Hash `json:"txHash"`
}

// Orchestrator sequences SimpleDEX operations through the wallet session:
// approvals are mined before the call that spends them. Mutating operations
// are serialized; reads run concurrently.
type Orchestrator struct {
	sessions SessionSource
	dex      common.Address

	pollInterval    time.Duration
	maxPollInterval time.Duration
	confirmTimeout  time.Duration
	observer        StepObserver

	// one-slot semaphore guarding mutating operations
	sem chan struct{}
}

type Option func(*Orchestrator)

func WithPollInterval(initial, maxInterval time.Duration) Option {
	return func(o *Orchestrator) {
		if initial > 0 {
			o.pollInterval = initial
		}
		if maxInterval > 0 {
			o.maxPollInterval = maxInterval
		}
	}
}

// WithConfirmTimeout bounds how long one step waits to be mined.
func WithConfirmTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.confirmTimeout = d
		}
	}
}

func WithStepObserver(fn StepObserver) Option {
	return func(o *Orchestrator) { o.observer = fn }
}

func New(sessions SessionSource, dexAddress common.Address, opts ...Option) (*Orchestrator, error) {
	if sessions == nil {
		return nil, errors.New("dex: session source is nil")
	}
	if dexAddress == (common.Address{}) {
		return nil, errors.New("dex: contract address is required")
	}
	o := &Orchestrator{
		sessions:        sessions,
		dex:             dexAddress,
		pollInterval:    constants.DefaultPollInterval,
		maxPollInterval: constants.DefaultMaxPollInterval,
		confirmTimeout:  constants.DefaultWaitMinedTimeout,
		sem:             make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.maxPollInterval < o.pollInterval {
		o.maxPollInterval = o.pollInterval
	}
	return o, nil
}

// Address is the SimpleDEX contract, also the spender of every approval.
func (o *Orchestrator) Address() common.Address { return o.dex }

func (o *Orchestrator) CreatePair(ctx context.Context, token0, token1 common.Address) (common.Hash, error) {
	s, release, err := o.begin(ctx)
	if err != nil {
		return common.Hash{}, err
	}
	defer release()

	data, err := simpleDEXABI.Pack(methodCreatePair, token0, token1)
	if err != nil {
		return common.Hash{}, errors.Wrap(err, "encode createPair")
	}

	op := newOperation(KindCreatePair, s)
	hash, err := o.step(ctx, op, methodCreatePair, o.dex, nil, nil, data)
	if err != nil {
		return common.Hash{}, err
	}
	log.Info("dex: pair created", "op", op.ID.String(), "token0", token0.Hex(), "token1", token1.Hex(), "tx", hash.Hex())
	return hash, nil
}

// AddLiquidity approves token0, then token1, then adds liquidity, each mined before the next.
// If an approval fails the allowances already granted stay in place.
func (o *Orchestrator) AddLiquidity(ctx context.Context, token0, token1 common.Address, amount0, amount1 string, decimals0, decimals1 uint8) (common.Hash, error) {
	amount0Wei, err := utils.ParseUnits(amount0, decimals0)
	if err != nil {
		return common.Hash{}, errors.Wrap(err, "amount0")
	}
	amount1Wei, err := utils.ParseUnits(amount1, decimals1)
	if err != nil {
		return common.Hash{}, errors.Wrap(err, "amount1")
	}

	s, release, err := o.begin(ctx)
	if err != nil {
		return common.Hash{}, err
	}
	defer release()

	op := newOperation(KindAddLiquidity, s)
	if err := o.approveToken(ctx, op, token0, amount0Wei); err != nil {
		return common.Hash{}, err
	}
	if err := o.approveToken(ctx, op, token1, amount1Wei); err != nil {
		return common.Hash{}, err
	}

	data, err := simpleDEXABI.Pack(methodAddLiquidity, token0, token1, amount0Wei, amount1Wei)
	if err != nil {
		return common.Hash{}, errors.Wrap(err, "encode addLiquidity")
	}
	hash, err := o.step(ctx, op, methodAddLiquidity, o.dex, nil, nil, data)
	if err != nil {
		return common.Hash{}, err
	}
	log.Info("dex: liquidity added", "op", op.ID.String(), "amount0", amount0Wei.String(), "amount1", amount1Wei.String(), "tx", hash.Hex())
	return hash, nil
}

// RemoveLiquidity burns liquidity (LP base units after conversion). The returned amounts come
// from simulating the call right before it is submitted; Placeholder when that is not possible.
func (o *Orchestrator) RemoveLiquidity(ctx context.Context, token0, token1 common.Address, liquidity string, decimals uint8) (RemoveLiquidityResult, error) {
	liquidityWei, err := utils.ParseUnits(liquidity, decimals)
	if err != nil {
		return RemoveLiquidityResult{}, errors.Wrap(err, "liquidity")
	}

	s, release, err := o.begin(ctx)
	if err != nil {
		return RemoveLiquidityResult{}, err
	}
	defer release()

	data, err := simpleDEXABI.Pack(methodRemoveLiquidity, token0, token1, liquidityWei)
	if err != nil {
		return RemoveLiquidityResult{}, errors.Wrap(err, "encode removeLiquidity")
	}

	res := RemoveLiquidityResult{Amount0: Placeholder, Amount1: Placeholder}
	if out, ok := o.simulate(ctx, s, methodRemoveLiquidity, data); ok && len(out) == 2 {
		res.Amount0 = bigString(out[0])
		res.Amount1 = bigString(out[1])
	}

	op := newOperation(KindRemoveLiquidity, s)
	hash, err := o.step(ctx, op, methodRemoveLiquidity, o.dex, nil, liquidityWei, data)
	if err != nil {
		return RemoveLiquidityResult{}, err
	}
	res.TxHash = hash
	log.Info("dex: liquidity removed", "op", op.ID.String(), "liquidity", liquidityWei.String(), "tx", hash.Hex())
	return res, nil
}

// Swap approves tokenIn for the DEX, waits for it to be mined, then swaps.
func (o *Orchestrator) Swap(ctx context.Context, tokenIn, tokenOut common.Address, amountIn string, decimalsIn uint8) (SwapResult, error) {
	amountInWei, err := utils.ParseUnits(amountIn, decimalsIn)
	if err != nil {
		return SwapResult{}, errors.Wrap(err, "amountIn")
	}

	s, release, err := o.begin(ctx)
	if err != nil {
		return SwapResult{}, err
	}
	defer release()

	op := newOperation(KindSwap, s)
	if err := o.approveToken(ctx, op, tokenIn, amountInWei); err != nil {
		return SwapResult{}, err
	}

	data, err := simpleDEXABI.Pack(methodSwap, tokenIn, tokenOut, amountInWei)
	if err != nil {
		return SwapResult{}, errors.Wrap(err, "encode swap")
	}

	res := SwapResult{AmountOut: Placeholder}
	if fresh, err := o.session(); err == nil {
		if out, ok := o.simulate(ctx, fresh, methodSwap, data); ok && len(out) == 1 {
			res.AmountOut = bigString(out[0])
		}
	}

	hash, err := o.step(ctx, op, methodSwap, o.dex, &tokenIn, amountInWei, data)
	if err != nil {
		return SwapResult{}, err
	}
	res.TxHash = hash
	log.Info("dex: swapped", "op", op.ID.String(), "tokenIn", tokenIn.Hex(), "tokenOut", tokenOut.Hex(), "amountIn", amountInWei.String(), "tx", hash.Hex())
	return res, nil
}

// approveToken grants the DEX an allowance of amount on token and waits for it to be mined.
// It does not look at the current allowance first.
func (o *Orchestrator) approveToken(ctx context.Context, op *Operation, token common.Address, amount *big.Int) error {
	data, err := erc20ABI.Pack(methodApprove, o.dex, amount)
	if err != nil {
		return errors.Wrap(err, "encode approve")
	}
	_, err = o.step(ctx, op, methodApprove, token, &token, amount, data)
	return err
}

// begin takes the mutating-operation slot and resolves the session.
func (o *Orchestrator) begin(ctx context.Context) (Session, func(), error) {
	s, err := o.session()
	if err != nil {
		return nil, nil, err
	}

	select {
	case o.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, nil, errors.Wrap(ctx.Err(), "waiting for previous dex operation")
	}
	release := func() { <-o.sem }

	// the session may have changed while queued
	s, err = o.session()
	if err != nil {
		release()
		return nil, nil, err
	}
	return s, release, nil
}

func (o *Orchestrator) session() (Session, error) {
	s, err := o.sessions()
	if err != nil {
		return nil, errors.WithSecondaryError(ErrNotInitialized, err)
	}
	if s == nil {
		return nil, ErrNotInitialized
	}
	return s, nil
}

// step submits one transaction of op and waits until it is mined. The session is fetched
// again and must still be on the operation's account and chain.
func (o *Orchestrator) step(ctx context.Context, op *Operation, name string, to common.Address, token *common.Address, amount *big.Int, data []byte) (common.Hash, error) {
	idx := op.addStep(name, to, token, amount)

	s, err := o.session()
	if err != nil {
		return common.Hash{}, o.fail(op, idx, err)
	}
	if s.Account() != op.Account || s.ChainID() != op.ChainID {
		return common.Hash{}, o.fail(op, idx, errors.Wrapf(wallet.ErrSessionChanged,
			"operation started as %s on chain %d", op.Account.Hex(), op.ChainID))
	}

	tx := wallet.TxRequest{From: op.Account, To: to, Data: data}
	hash, err := s.SendTransaction(ctx, tx)
	if err != nil {
		if errors.Is(err, wallet.ErrSessionChanged) {
			return common.Hash{}, o.fail(op, idx, err)
		}
		return common.Hash{}, o.fail(op, idx, &CallError{Method: name, Err: err})
	}
	op.Steps[idx].TxHash = &hash
	o.setStatus(op, idx, StepSubmitted)

	if _, err := o.waitMined(ctx, s, name, tx, hash); err != nil {
		return hash, o.fail(op, idx, err)
	}
	o.setStatus(op, idx, StepConfirmed)
	return hash, nil
}

func (o *Orchestrator) fail(op *Operation, idx int, err error) error {
	o.setStatus(op, idx, StepFailed)
	st := op.Steps[idx]

	switch {
	case wallet.IsUserRejected(err):
		log.Info("dex: step declined in wallet", "op", op.ID.String(), "step", st.Name)
	case errors.Is(err, ErrConfirmationPending):
		log.Warn("dex: stopped waiting for confirmation", "op", op.ID.String(), "step", st.Name, "error", err)
	default:
		log.Error("dex: step failed", "op", op.ID.String(), "kind", string(op.Kind), "step", st.Name, "error", err)
	}

	return &OperationError{
		ID:         op.ID,
		Kind:       op.Kind,
		FailedStep: st.Name,
		Completed:  op.completed(),
		Err:        err,
	}
}

func (o *Orchestrator) setStatus(op *Operation, idx int, status StepStatus) {
	op.Steps[idx].Status = status
	if o.observer != nil {
		o.observer(op.snapshot(), op.Steps[idx])
	}
}

// simulate runs a DEX call against the latest state and decodes its outputs.
func (o *Orchestrator) simulate(ctx context.Context, s Session, method string, data []byte) ([]interface{}, bool) {
	raw, err := s.Call(ctx, wallet.CallRequest{To: o.dex, Data: data})
	if err != nil {
		log.Warn("dex: simulation failed, reporting placeholders", "method", method, "error", err)
		return nil, false
	}
	out, err := simpleDEXABI.Unpack(method, raw)
	if err != nil {
		log.Warn("dex: could not decode simulated result", "method", method, "error", err)
		return nil, false
	}
	return out, true
}

func bigString(v interface{}) string {
	if b, ok := v.(*big.Int); ok && b != nil {
		return b.String()
	}
	return Placeholder
}
