package wallet

import (
	"context"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum/common"
	"github.com/quantumauth-io/quantum-go-utils/log"

	"github.com/quantumauth-io/simpledex-client/internal/networks"
)

var ErrClosed = errors.New("wallet session manager closed")

type commandKind int

const (
	cmdRestore commandKind = iota + 1
	cmdConnect
	cmdDisconnect
)

type command struct {
	kind  commandKind
	ctx   context.Context
	reply chan WalletState
}

// Manager owns the single wallet session. All transitions run on one goroutine that
// drains an inbox of user commands and provider notifications, so they never interleave.
type Manager struct {
	provider Provider
	registry *networks.Registry

	inbox chan command
	stop  chan struct{}
	done  chan struct{}

	lifecycleMu sync.Mutex
	started     bool
	closed      bool

	mu         sync.RWMutex
	state      WalletState
	account    common.Address
	chainID    uint64
	generation uint64

	// owned by the loop goroutine
	loopCtx context.Context
	sub     Subscription

	watchersMu  sync.Mutex
	watchers    map[int]chan WalletState
	nextWatcher int
}

// NewManager builds a manager around provider, which may be nil when no wallet is installed.
// registry annotates sessions with network metadata; nil leaves every network unresolved.
func NewManager(provider Provider, registry *networks.Registry) *Manager {
	return &Manager{
		provider: provider,
		registry: registry,
		inbox:    make(chan command),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
		state:    initialState(),
		watchers: map[int]chan WalletState{},
	}
}

// Start runs the session loop until ctx ends or Close is called, subscribes to provider
// notifications and silently restores a session the wallet already authorized.
// It returns once the restore attempt has settled. A missing provider is not an error here.
func (m *Manager) Start(ctx context.Context) error {
	if err := m.ensureRunning(ctx); err != nil {
		return err
	}
	m.submit(ctx, cmdRestore)
	return nil
}

// Connect asks the wallet for account access. Failures are recorded in the returned
// state's Error field; Connect itself never fails. No-op when already connected.
func (m *Manager) Connect(ctx context.Context) WalletState {
	return m.submit(ctx, cmdConnect)
}

// Disconnect drops the local session. Provider-side permissions are left as they are.
func (m *Manager) Disconnect() WalletState {
	return m.submit(context.Background(), cmdDisconnect)
}

func (m *Manager) State() WalletState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.clone()
}

// Handle returns a handle bound to the current session, or ErrNotConnected.
func (m *Manager) Handle() (*Handle, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.state.Status != StatusConnected || m.provider == nil {
		return nil, ErrNotConnected
	}
	h := &Handle{
		manager:    m,
		provider:   m.provider,
		account:    m.account,
		chainID:    m.chainID,
		generation: m.generation,
	}
	if m.state.Network != nil {
		n := *m.state.Network
		h.network = &n
	}
	return h, nil
}

// Watch delivers every new snapshot. Slow readers only see the latest one.
// cancel must be called to release the channel.
func (m *Manager) Watch() (<-chan WalletState, func()) {
	ch := make(chan WalletState, 1)

	m.watchersMu.Lock()
	id := m.nextWatcher
	m.nextWatcher++
	m.watchers[id] = ch
	m.watchersMu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			m.watchersMu.Lock()
			defer m.watchersMu.Unlock()
			if c, ok := m.watchers[id]; ok {
				delete(m.watchers, id)
				close(c)
			}
		})
	}
	return ch, cancel
}

// Close stops the loop and releases the provider subscription. Handles issued before
// Close stop working. Safe to call more than once.
func (m *Manager) Close() error {
	m.lifecycleMu.Lock()
	if m.closed {
		m.lifecycleMu.Unlock()
		return nil
	}
	m.closed = true
	started := m.started
	m.lifecycleMu.Unlock()

	close(m.stop)
	if started {
		<-m.done
	}

	m.mu.Lock()
	m.state = initialState()
	m.account = common.Address{}
	m.chainID = 0
	m.generation++
	m.mu.Unlock()

	m.watchersMu.Lock()
	for id, c := range m.watchers {
		delete(m.watchers, id)
		close(c)
	}
	m.watchersMu.Unlock()
	return nil
}

func (m *Manager) ensureRunning(ctx context.Context) error {
	m.lifecycleMu.Lock()
	defer m.lifecycleMu.Unlock()

	if m.closed {
		return ErrClosed
	}
	if !m.started {
		m.started = true
		go m.run(ctx)
	}
	return nil
}

func (m *Manager) submit(ctx context.Context, kind commandKind) WalletState {
	if err := m.ensureRunning(context.Background()); err != nil {
		return m.State()
	}

	cmd := command{kind: kind, ctx: ctx, reply: make(chan WalletState, 1)}
	select {
	case m.inbox <- cmd:
	case <-m.done:
		return m.State()
	case <-ctx.Done():
		return m.State()
	}

	select {
	case st := <-cmd.reply:
		return st
	case <-m.done:
		return m.State()
	case <-ctx.Done():
		return m.State()
	}
}

func (m *Manager) run(ctx context.Context) {
	defer close(m.done)
	defer m.releaseSubscription()

	m.loopCtx = ctx

	for {
		var events <-chan Event
		if m.sub != nil {
			events = m.sub.Events()
		}

		select {
		case <-m.stop:
			return
		case <-ctx.Done():
			return
		case cmd := <-m.inbox:
			m.handleCommand(cmd)
		case ev, ok := <-events:
			if !ok {
				log.Warn("wallet: provider subscription ended")
				m.releaseSubscription()
				continue
			}
			m.handleEvent(ev)
		}
	}
}

func (m *Manager) handleCommand(cmd command) {
	switch cmd.kind {
	case cmdRestore:
		m.restore(cmd.ctx)
	case cmdConnect:
		m.connect(cmd.ctx)
	case cmdDisconnect:
		m.reset()
		log.Info("wallet: disconnected")
	}
	cmd.reply <- m.State()
}

// restore is the start-up reconnect: it never prompts and never records an error.
func (m *Manager) restore(ctx context.Context) {
	if m.provider == nil {
		log.Info("wallet: no provider injected, starting disconnected")
		return
	}
	m.ensureSubscribed()

	if m.State().Status != StatusDisconnected {
		return
	}

	accounts, err := m.provider.ListAccounts(ctx)
	if err != nil {
		log.Warn("wallet: silent reconnect failed", "error", err)
		return
	}
	if len(accounts) == 0 {
		return
	}

	chainID, err := m.provider.ChainID(ctx)
	if err != nil {
		log.Warn("wallet: silent reconnect could not read chain id", "error", err)
		return
	}
	m.becomeConnected(accounts[0], chainID)
	log.Info("wallet: restored session", "address", accounts[0].Hex(), "chainId", chainID)
}

func (m *Manager) connect(ctx context.Context) {
	if m.State().Status == StatusConnected {
		return
	}

	if m.provider == nil {
		m.fail(ErrProviderUnavailable)
		return
	}
	m.ensureSubscribed()

	m.setState(func(s *WalletState) {
		s.Status = StatusConnecting
		s.IsLoading = true
		s.Error = ""
	})

	accounts, err := m.provider.RequestAccounts(ctx)
	if err == nil && len(accounts) == 0 {
		err = ErrNoAccounts
	}
	if err != nil {
		m.fail(err)
		return
	}

	chainID, err := m.provider.ChainID(ctx)
	if err != nil {
		m.fail(errors.Wrap(err, "read chain id"))
		return
	}

	m.becomeConnected(accounts[0], chainID)
	log.Info("wallet: connected", "address", accounts[0].Hex(), "chainId", chainID)
}

func (m *Manager) fail(err error) {
	msg := userMessage(err)
	m.mu.Lock()
	m.state = initialState()
	m.state.Error = msg
	m.account = common.Address{}
	m.chainID = 0
	m.generation++
	m.mu.Unlock()
	m.publish()

	if IsUserRejected(err) {
		log.Info("wallet: connect cancelled by user")
		return
	}
	log.Warn("wallet: connect failed", "error", err)
}

func (m *Manager) handleEvent(ev Event) {
	if m.State().Status != StatusConnected {
		log.Info("wallet: ignoring provider event while not connected", "event", ev.Kind.String())
		return
	}

	switch ev.Kind {
	case AccountsChanged:
		if len(ev.Accounts) == 0 {
			m.reset()
			log.Info("wallet: provider revoked all accounts")
			return
		}
		next := ev.Accounts[0]
		m.mu.RLock()
		same := next == m.account
		m.mu.RUnlock()
		if same {
			return
		}
		m.mu.Lock()
		m.account = next
		m.state.Address = &next
		m.generation++
		m.mu.Unlock()
		m.publish()
		log.Info("wallet: account changed", "address", next.Hex())

	case ChainChanged:
		chainID, err := ParseChainIDHex(ev.ChainIDHex)
		if err != nil {
			log.Warn("wallet: ignoring malformed chainChanged", "chainId", ev.ChainIDHex, "error", err)
			return
		}
		m.mu.RLock()
		same := chainID == m.chainID
		m.mu.RUnlock()
		if same {
			return
		}
		network := m.resolveNetwork(chainID)
		m.mu.Lock()
		m.chainID = chainID
		m.state.ChainID = &chainID
		m.state.Network = network
		m.generation++
		m.mu.Unlock()
		m.publish()
		log.Info("wallet: chain changed", "chainId", chainID, "supported", network != nil)

	default:
		log.Warn("wallet: unknown provider event", "kind", int(ev.Kind))
	}
}

func (m *Manager) becomeConnected(account common.Address, chainID uint64) {
	network := m.resolveNetwork(chainID)

	m.mu.Lock()
	m.account = account
	m.chainID = chainID
	m.generation++
	m.state = WalletState{
		Status:      StatusConnected,
		Address:     &account,
		IsConnected: true,
		ChainID:     &chainID,
		Network:     network,
	}
	m.mu.Unlock()
	m.publish()
}

func (m *Manager) reset() {
	m.mu.Lock()
	m.state = initialState()
	m.account = common.Address{}
	m.chainID = 0
	m.generation++
	m.mu.Unlock()
	m.publish()
}

func (m *Manager) setState(mutate func(s *WalletState)) {
	m.mu.Lock()
	mutate(&m.state)
	m.mu.Unlock()
	m.publish()
}

func (m *Manager) resolveNetwork(chainID uint64) *networks.NetworkConfig {
	if m.registry == nil {
		return nil
	}
	n, ok := m.registry.ByChainID(chainID)
	if !ok {
		log.Warn("wallet: chain not in registry", "chainId", chainID, "error", ErrNetworkUnresolved)
		return nil
	}
	return &n
}

func (m *Manager) ensureSubscribed() {
	if m.sub != nil || m.provider == nil {
		return
	}
	sub, err := m.provider.Subscribe(m.loopCtx)
	if err != nil {
		log.Error("wallet: subscribe to provider events failed", "error", err)
		return
	}
	m.sub = sub
}

func (m *Manager) releaseSubscription() {
	if m.sub == nil {
		return
	}
	m.sub.Unsubscribe()
	m.sub = nil
}

func (m *Manager) currentGeneration() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.generation
}

// publish is only called from the loop goroutine (or Close after it stopped),
// so replacing a stale buffered snapshot cannot race another producer.
func (m *Manager) publish() {
	st := m.State()

	m.watchersMu.Lock()
	defer m.watchersMu.Unlock()
	for _, ch := range m.watchers {
		select {
		case ch <- st:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- st:
			default:
			}
		}
	}
}
