package wallet

import (
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum/common"

	"github.com/quantumauth-io/simpledex-client/internal/networks"
)

type Status string

const (
	StatusDisconnected Status = "disconnected"
	StatusConnecting   Status = "connecting"
	StatusConnected    Status = "connected"
)

// WalletState is a snapshot of the session. Values handed out by Manager are copies;
// mutating one has no effect on the session.
type WalletState struct {
	Status      Status                  `json:"status"`
	Address     *common.Address         `json:"address"`
	IsConnected bool                    `json:"isConnected"`
	ChainID     *uint64                 `json:"chainId"`
	Network     *networks.NetworkConfig `json:"network"`
	IsLoading   bool                    `json:"isLoading"`
	Error       string                  `json:"error,omitempty"`
}

func initialState() WalletState {
	return WalletState{Status: StatusDisconnected}
}

func (s WalletState) clone() WalletState {
	out := s
	if s.Address != nil {
		a := *s.Address
		out.Address = &a
	}
	if s.ChainID != nil {
		c := *s.ChainID
		out.ChainID = &c
	}
	if s.Network != nil {
		n := *s.Network
		out.Network = &n
	}
	return out
}

// ParseChainIDHex parses a chain id as wallets report it ("0x106a"). The 0x prefix is optional;
// the digits are always base 16.
func ParseChainIDHex(s string) (uint64, error) {
	raw := strings.ToLower(strings.TrimSpace(s))
	raw = strings.TrimPrefix(raw, "0x")
	if raw == "" {
		return 0, errors.Wrapf(ErrInvalidChainID, "%q", s)
	}
	id, err := strconv.ParseUint(raw, 16, 64)
	if err != nil {
		return 0, errors.Wrapf(ErrInvalidChainID, "%q: %v", s, err)
	}
	return id, nil
}
