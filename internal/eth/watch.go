package eth

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/quantumauth-io/quantum-go-utils/log"
	"github.com/quantumauth-io/quantum-go-utils/retry"

	"github.com/quantumauth-io/simpledex-client/internal/wallet"
)

// Subscribe polls eth_accounts and eth_chainId and reports changes as wallet events.
// Plain JSON-RPC has no push notifications for either.
func (p *RPCProvider) Subscribe(ctx context.Context) (wallet.Subscription, error) {
	ctx, cancel := context.WithCancel(ctx)
	s := &pollSubscription{
		events: make(chan wallet.Event, 8),
		cancel: cancel,
		done:   make(chan struct{}),
	}

	go p.watch(ctx, s)
	return s, nil
}

// baseline reads the values the first poll is compared against. It runs on the watcher
// goroutine, bounded by the watch interval, so a hung node never blocks Subscribe.
func (p *RPCProvider) baseline(ctx context.Context) snapshot {
	ctx, cancel := context.WithTimeout(ctx, p.watchInterval)
	defer cancel()

	var last snapshot
	accounts, err := p.ListAccounts(ctx)
	if err != nil {
		log.Warn("eth: watcher baseline accounts failed", "error", err)
	}
	last.accounts = accounts

	chainID, err := p.ChainID(ctx)
	if err != nil {
		log.Warn("eth: watcher baseline chain id failed", "error", err)
	}
	last.chainID = chainID
	return last
}

type snapshot struct {
	accounts []common.Address
	chainID  uint64
}

func (p *RPCProvider) watch(ctx context.Context, s *pollSubscription) {
	defer close(s.done)
	defer close(s.events)

	// the first tick only reports real changes
	last := p.baseline(ctx)

	cfg := retry.DefaultConfig()
	cfg.MaxDelayBeforeRetrying = p.watchInterval
	cfg.InitialDelayBeforeRetrying = p.watchInterval / 10

	timer := time.NewTimer(p.watchInterval)
	defer timer.Stop()
	numPolls := 0
	for {
		timer.Reset(p.watchInterval)
		select {
		case <-ctx.Done():
			log.Info("eth: provider watcher exiting", "numPolls", numPolls)
			return
		case <-timer.C:
		}

		var next snapshot
		pollCtx, cancel := context.WithTimeout(ctx, p.watchInterval)
		_, err := retry.Retry(pollCtx, cfg,
			func(ctx context.Context) ([]interface{}, error) {
				numPolls++
				accounts, err := p.ListAccounts(ctx)
				if err != nil {
					return nil, err
				}
				chainID, err := p.ChainID(ctx)
				if err != nil {
					return nil, err
				}
				next = snapshot{accounts: accounts, chainID: chainID}
				return nil, nil
			},
			nil, // always retry
			"poll wallet accounts and chain")
		cancel()
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Warn("eth: watcher poll failed", "error", err)
			continue
		}

		if !slices.Equal(next.accounts, last.accounts) {
			if !s.emit(ctx, wallet.AccountsChangedEvent(next.accounts...)) {
				return
			}
		}
		if next.chainID != last.chainID {
			if !s.emit(ctx, wallet.ChainChangedEvent(hexutil.EncodeUint64(next.chainID))) {
				return
			}
		}
		last = next
	}
}

type pollSubscription struct {
	events chan wallet.Event
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

func (s *pollSubscription) Events() <-chan wallet.Event { return s.events }

// Unsubscribe stops the watcher and waits for it to close Events.
func (s *pollSubscription) Unsubscribe() {
	s.once.Do(func() {
		s.cancel()
		<-s.done
	})
}

func (s *pollSubscription) emit(ctx context.Context, ev wallet.Event) bool {
	select {
	case s.events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}
