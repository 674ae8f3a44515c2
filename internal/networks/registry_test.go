package networks

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_ByChainID(t *testing.T) {
	t.Parallel()

	r := Default()

	tests := []struct {
		name     string
		giveID   uint64
		wantName string
		wantOK   bool
	}{
		{name: "lisk sepolia", giveID: 4202, wantName: "Lisk Sepolia", wantOK: true},
		{name: "lisk mainnet", giveID: 1135, wantName: "Lisk", wantOK: true},
		{name: "localhost", giveID: 31337, wantName: "Localhost", wantOK: true},
		{name: "polygon", giveID: 137, wantName: "Polygon", wantOK: true},
		{name: "unknown mainnet", giveID: 1, wantOK: false},
		{name: "zero", giveID: 0, wantOK: false},
		{name: "unknown large", giveID: 999999999, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, ok := r.ByChainID(tt.giveID)
			require.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.wantName, got.Name)
				assert.Equal(t, tt.giveID, got.ChainID)
			} else {
				assert.Equal(t, NetworkConfig{}, got)
			}
		})
	}
}

func TestDefault_ByName(t *testing.T) {
	t.Parallel()

	r := Default()

	tests := []struct {
		name      string
		giveName  string
		wantChain uint64
		wantOK    bool
	}{
		{name: "key", giveName: "lisk_testnet", wantChain: 4202, wantOK: true},
		{name: "key with dash and case", giveName: " Lisk-Testnet ", wantChain: 4202, wantOK: true},
		{name: "display name", giveName: "lisk sepolia", wantChain: 4202, wantOK: true},
		{name: "sepolia", giveName: "sepolia", wantChain: 11155111, wantOK: true},
		{name: "empty", giveName: "", wantOK: false},
		{name: "unknown", giveName: "arbitrum", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, ok := r.ByName(tt.giveName)
			require.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.wantChain, got.ChainID)
			}
		})
	}
}

func TestDefault_ChainIDsUnique(t *testing.T) {
	t.Parallel()

	r := Default()
	ids := r.SupportedChainIDs()
	require.Len(t, ids, len(builtinNetworks))

	seen := map[uint64]bool{}
	for _, id := range ids {
		assert.False(t, seen[id], "chain id %d listed twice", id)
		seen[id] = true
	}
	assert.IsIncreasing(t, ids)

	def, ok := r.DefaultNetwork()
	require.True(t, ok)
	assert.Equal(t, uint64(4202), def.ChainID)
}

func TestNewRegistry_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		give    []NetworkConfig
		wantErr string
	}{
		{
			name: "duplicate chain id",
			give: []NetworkConfig{
				{Key: "a", ChainID: 10},
				{Key: "b", ChainID: 10},
			},
			wantErr: "chainId 10 already registered",
		},
		{
			name: "duplicate key",
			give: []NetworkConfig{
				{Key: "a", ChainID: 10},
				{Key: "A", ChainID: 11},
			},
			wantErr: `key "a" already registered`,
		},
		{
			name:    "missing chain id",
			give:    []NetworkConfig{{Key: "a"}},
			wantErr: "chainId is required",
		},
		{
			name:    "missing key and name",
			give:    []NetworkConfig{{ChainID: 5}},
			wantErr: "network.key is required",
		},
		{
			name: "key derived from name",
			give: []NetworkConfig{{Name: "My Chain", ChainID: 5}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r, err := NewRegistry(tt.give...)
			if tt.wantErr != "" {
				require.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			n, ok := r.ByName("my_chain")
			require.True(t, ok)
			assert.Equal(t, uint8(18), n.Decimals)
		})
	}
}

func TestNewRegistry_DuplicateIsTyped(t *testing.T) {
	t.Parallel()

	_, err := NewRegistry(NetworkConfig{Key: "a", ChainID: 1}, NetworkConfig{Key: "b", ChainID: 1})
	require.ErrorIs(t, err, ErrDuplicateNetwork)
}

func TestRegistry_WithOverrides(t *testing.T) {
	t.Parallel()

	base := Default()

	r, err := base.WithOverrides(
		NetworkConfig{Key: "localhost", Name: "Anvil", ChainID: 31337, RPCURL: "http://127.0.0.1:8545"},
		NetworkConfig{Key: "base_sepolia", Name: "Base Sepolia", ChainID: 84532, Currency: "ETH"},
	)
	require.NoError(t, err)

	local, ok := r.ByChainID(31337)
	require.True(t, ok)
	assert.Equal(t, "Anvil", local.Name)
	assert.Equal(t, "http://127.0.0.1:8545", local.RPCURL)

	_, ok = r.ByChainID(84532)
	assert.True(t, ok)

	// the receiver is immutable
	orig, ok := base.ByChainID(31337)
	require.True(t, ok)
	assert.Equal(t, "Localhost", orig.Name)
	_, ok = base.ByChainID(84532)
	assert.False(t, ok)

	_, err = base.WithOverrides(NetworkConfig{Key: "other", ChainID: 4202})
	require.ErrorIs(t, err, ErrDuplicateNetwork)
}

func TestNetworkConfig_Links(t *testing.T) {
	t.Parallel()

	n, ok := Default().ByChainID(4202)
	require.True(t, ok)

	assert.Equal(t, "0x106a", n.ChainIDHex())
	assert.Equal(t, "https://sepolia-blockscout.lisk.com/tx/0xabc", n.TxURL("0xabc"))
	assert.Equal(t, "https://sepolia-blockscout.lisk.com/address/0xdef", n.AddressURL("0xdef"))
	assert.Empty(t, n.TxURL(""))
	assert.Empty(t, NetworkConfig{}.TxURL("0xabc"))
}

func TestNormalizeKey(t *testing.T) {
	t.Parallel()

	for give, want := range map[string]string{
		"lisk_testnet":   "lisk_testnet",
		" Lisk-Testnet ": "lisk_testnet",
		"Lisk Testnet":   "lisk_testnet",
		"POLYGON":        "polygon",
		"":               "",
	} {
		assert.Equal(t, want, NormalizeKey(give), give)
	}
}
