package assets

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum/common"
	"github.com/quantumauth-io/quantum-go-utils/log"

	"github.com/quantumauth-io/simpledex-client/internal/constants"
	"github.com/quantumauth-io/simpledex-client/internal/networks"
	"github.com/quantumauth-io/simpledex-client/internal/securefile"
)

var ErrNotFound = errors.New("asset not found")

// Manager is the catalog of tokens the user works with, per network. Metadata is read
// once from the chain and kept in assets.json.
type Manager struct {
	path       string
	reader     TokenReader
	fetchDelay time.Duration

	mu    sync.Mutex
	store Store
}

type Option func(*Manager)

// WithPath sets where the catalog is persisted. An empty path keeps it in memory only.
func WithPath(path string) Option {
	return func(m *Manager) { m.path = path }
}

// WithFetchDelay spaces out metadata reads when seeding defaults.
func WithFetchDelay(d time.Duration) Option {
	return func(m *Manager) { m.fetchDelay = d }
}

func NewManager(reader TokenReader, opts ...Option) *Manager {
	m := &Manager{
		reader:     reader,
		fetchDelay: 250 * time.Millisecond,
		store:      emptyStore(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// DefaultPath resolves assets.json among the usual config locations.
func DefaultPath() (string, error) {
	return securefile.ResolvePath(constants.AppName, constants.AssetsFile)
}

// Path returns the file backing the catalog, "" when in memory.
func (m *Manager) Path() string { return m.path }

// Load reads the catalog file when it exists. Entries with bad addresses are dropped.
func (m *Manager) Load() error {
	if m.path == "" || !securefile.Exists(m.path) {
		return nil
	}

	s, err := securefile.ReadJSON[Store](m.path)
	if err != nil {
		return errors.Wrap(err, "load assets")
	}
	if s.Schema == 0 {
		s.Schema = constants.SchemaV1
	}

	normalized := Store{Schema: s.Schema, Networks: map[string]map[string]Asset{}}
	for netKey, byAddr := range s.Networks {
		nk := networks.NormalizeKey(netKey)
		if nk == "" {
			continue
		}
		if normalized.Networks[nk] == nil {
			normalized.Networks[nk] = map[string]Asset{}
		}
		for addrKey, asset := range byAddr {
			addr, err := normalizeAddress(addrKey)
			if err != nil {
				log.Warn("assets: skipping bad entry", "network", nk, "address", addrKey, "error", err)
				continue
			}
			asset.Address = addr
			normalized.Networks[nk][addr] = asset
		}
	}

	m.mu.Lock()
	m.store = normalized
	m.mu.Unlock()
	return nil
}

// EnsureForNetwork fetches metadata for every default address of network not yet in the
// catalog. It must run while the wallet is on that network. User-added entries are kept.
func (m *Manager) EnsureForNetwork(ctx context.Context, network networks.NetworkConfig, defaults []string) error {
	nk := networks.NormalizeKey(network.Key)
	if nk == "" {
		return errors.New("network must not be empty")
	}

	var missing []string
	for _, raw := range defaults {
		addr, err := normalizeAddress(raw)
		if err != nil {
			return errors.Wrapf(err, "defaults[%s]", nk)
		}
		if _, ok := m.Lookup(nk, common.HexToAddress(addr)); !ok {
			missing = append(missing, addr)
		}
	}
	if len(missing) == 0 {
		return nil
	}

	for i, addr := range missing {
		if i > 0 && m.fetchDelay > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(m.fetchDelay):
			}
		}

		a, err := m.FetchAsset(ctx, network, addr)
		if err != nil {
			return errors.Wrapf(err, "fetch asset %s[%s]", nk, addr)
		}
		m.put(nk, a)
	}

	return m.persist()
}

// List returns the network's assets sorted by symbol.
func (m *Manager) List(network string) []Asset {
	nk := networks.NormalizeKey(network)

	m.mu.Lock()
	byAddr := m.store.Networks[nk]
	out := make([]Asset, 0, len(byAddr))
	for _, a := range byAddr {
		out = append(out, a)
	}
	m.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		si, sj := strings.ToLower(out[i].Symbol), strings.ToLower(out[j].Symbol)
		if si == sj {
			return out[i].Address < out[j].Address
		}
		return si < sj
	})
	return out
}

func (m *Manager) Lookup(network string, token common.Address) (Asset, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.store.Networks[networks.NormalizeKey(network)][token.Hex()]
	return a, ok
}

// Add fetches token's metadata on the connected network and records it.
func (m *Manager) Add(ctx context.Context, network networks.NetworkConfig, token common.Address) (Asset, error) {
	a, err := m.FetchAsset(ctx, network, token.Hex())
	if err != nil {
		return Asset{}, err
	}
	m.put(network.Key, a)
	if err := m.persist(); err != nil {
		return Asset{}, err
	}
	return a, nil
}

func (m *Manager) Remove(network string, token common.Address) error {
	nk := networks.NormalizeKey(network)

	m.mu.Lock()
	byAddr := m.store.Networks[nk]
	if _, ok := byAddr[token.Hex()]; !ok {
		m.mu.Unlock()
		return errors.Wrapf(ErrNotFound, "%s on %s", token.Hex(), nk)
	}
	delete(byAddr, token.Hex())
	if len(byAddr) == 0 {
		delete(m.store.Networks, nk)
	}
	m.mu.Unlock()

	return m.persist()
}

// Decimals returns token's decimals on network, reading and caching them on a miss.
func (m *Manager) Decimals(ctx context.Context, network networks.NetworkConfig, token common.Address) (uint8, error) {
	if a, ok := m.Lookup(network.Key, token); ok {
		return a.Decimals, nil
	}
	a, err := m.Add(ctx, network, token)
	if err != nil {
		return 0, err
	}
	return a.Decimals, nil
}

func (m *Manager) put(network string, a Asset) {
	nk := networks.NormalizeKey(network)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.store.Networks[nk] == nil {
		m.store.Networks[nk] = map[string]Asset{}
	}
	m.store.Networks[nk][a.Address] = a
}

func (m *Manager) persist() error {
	if m.path == "" {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err := securefile.WriteJSON(m.path, m.store); err != nil {
		return errors.Wrap(err, "persist assets")
	}
	return nil
}

func emptyStore() Store {
	return Store{Schema: constants.SchemaV1, Networks: map[string]map[string]Asset{}}
}

// normalizeAddress returns the checksummed form.
func normalizeAddress(addr string) (string, error) {
	a := strings.TrimSpace(addr)
	if a == "" {
		return "", errors.New("empty address")
	}
	if !strings.HasPrefix(a, "0x") && !strings.HasPrefix(a, "0X") {
		a = "0x" + a
	}
	if !common.IsHexAddress(a) {
		return "", errors.Newf("invalid address: %q", addr)
	}
	return common.HexToAddress(a).Hex(), nil
}
