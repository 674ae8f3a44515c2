package networks

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
)

var ErrDuplicateNetwork = errors.New("duplicate network")

var keyReplacer = strings.NewReplacer("-", "_", " ", "_")

// Registry is an immutable lookup table of supported networks, keyed by chain id and by key.
// It is built once and shared by everything that needs chain metadata.
type Registry struct {
	byChainID map[uint64]NetworkConfig
	byKey     map[string]NetworkConfig
}

// NewRegistry validates and indexes configs. Chain ids and keys must be unique.
func NewRegistry(configs ...NetworkConfig) (*Registry, error) {
	r := &Registry{
		byChainID: make(map[uint64]NetworkConfig, len(configs)),
		byKey:     make(map[string]NetworkConfig, len(configs)),
	}
	for _, c := range configs {
		n, err := normalizeNetworkConfig(c)
		if err != nil {
			return nil, err
		}
		if existing, ok := r.byChainID[n.ChainID]; ok {
			return nil, errors.Wrapf(ErrDuplicateNetwork, "chainId %d already registered as %q", n.ChainID, existing.Key)
		}
		if _, ok := r.byKey[n.Key]; ok {
			return nil, errors.Wrapf(ErrDuplicateNetwork, "key %q already registered", n.Key)
		}
		r.byChainID[n.ChainID] = n
		r.byKey[n.Key] = n
	}
	return r, nil
}

// Default returns a registry holding the builtin networks.
func Default() *Registry {
	r, err := NewRegistry(builtinNetworks...)
	if err != nil {
		panic(fmt.Sprintf("networks: invalid builtin table: %v", err))
	}
	return r
}

// WithOverrides returns a new registry with extra merged over the receiver.
// An entry whose key already exists replaces it; new keys are appended.
// The receiver is left untouched.
func (r *Registry) WithOverrides(extra ...NetworkConfig) (*Registry, error) {
	merged := make(map[string]NetworkConfig, len(r.byKey)+len(extra))
	for k, n := range r.byKey {
		merged[k] = n
	}
	for _, e := range extra {
		n, err := normalizeNetworkConfig(e)
		if err != nil {
			return nil, err
		}
		merged[n.Key] = n
	}

	all := make([]NetworkConfig, 0, len(merged))
	for _, n := range merged {
		all = append(all, n)
	}
	sortByChainID(all)
	return NewRegistry(all...)
}

func (r *Registry) ByChainID(id uint64) (NetworkConfig, bool) {
	n, ok := r.byChainID[id]
	return n, ok
}

// ByName looks a network up by its key ("lisk_testnet", "lisk-testnet") and falls back
// to a case-insensitive match on the display name ("Lisk Sepolia").
func (r *Registry) ByName(name string) (NetworkConfig, bool) {
	if n, ok := r.byKey[NormalizeKey(name)]; ok {
		return n, true
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return NetworkConfig{}, false
	}
	for _, n := range r.byKey {
		if strings.EqualFold(n.Name, name) {
			return n, true
		}
	}
	return NetworkConfig{}, false
}

// All returns every network ordered by chain id.
func (r *Registry) All() []NetworkConfig {
	out := make([]NetworkConfig, 0, len(r.byChainID))
	for _, n := range r.byChainID {
		out = append(out, n)
	}
	sortByChainID(out)
	return out
}

func (r *Registry) SupportedChainIDs() []uint64 {
	all := r.All()
	ids := make([]uint64, len(all))
	for i, n := range all {
		ids[i] = n.ChainID
	}
	return ids
}

// DefaultNetwork is the lisk_testnet entry when present.
func (r *Registry) DefaultNetwork() (NetworkConfig, bool) {
	return r.ByName(DefaultNetworkKey)
}

func sortByChainID(in []NetworkConfig) {
	sort.Slice(in, func(i, j int) bool { return in[i].ChainID < in[j].ChainID })
}

// NormalizeKey is the canonical form of a network key: lowercase, with '-' and ' ' as '_'.
func NormalizeKey(s string) string {
	return keyReplacer.Replace(strings.ToLower(strings.TrimSpace(s)))
}

func normalizeNetworkConfig(n NetworkConfig) (NetworkConfig, error) {
	n.Key = NormalizeKey(n.Key)
	n.Name = strings.TrimSpace(n.Name)
	n.RPCURL = strings.TrimSpace(n.RPCURL)
	n.BlockExplorer = strings.TrimSpace(n.BlockExplorer)
	n.Currency = strings.TrimSpace(n.Currency)

	if n.Key == "" {
		n.Key = NormalizeKey(n.Name)
	}
	if n.Key == "" {
		return NetworkConfig{}, errors.New("network.key is required")
	}
	if n.ChainID == 0 {
		return NetworkConfig{}, errors.Newf("network %q: chainId is required", n.Key)
	}
	if n.Name == "" {
		n.Name = n.Key
	}
	if n.Decimals == 0 {
		n.Decimals = 18
	}
	return n, nil
}
