package assets

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum/common"

	"github.com/quantumauth-io/simpledex-client/internal/constants"
	"github.com/quantumauth-io/simpledex-client/internal/dex"
	"github.com/quantumauth-io/simpledex-client/internal/networks"
)

// TokenReader reads ERC-20 metadata on the connected chain. *dex.Orchestrator implements it.
type TokenReader interface {
	GetTokenInfo(ctx context.Context, token common.Address) (dex.TokenInfo, error)
}

// FetchAsset reads the metadata of addr on network. The zero address stands for the
// network's native currency and never touches the chain.
func (m *Manager) FetchAsset(ctx context.Context, network networks.NetworkConfig, addr string) (Asset, error) {
	a, err := normalizeAddress(addr)
	if err != nil {
		return Asset{}, err
	}
	native := common.HexToAddress(constants.NativeAddr).Hex()

	if strings.EqualFold(a, native) {
		return Asset{
			Address:  native,
			Symbol:   network.Currency,
			Decimals: network.Decimals,
			Name:     network.Currency,
			Native:   true,
		}, nil
	}

	if m.reader == nil {
		return Asset{}, errors.New("assets: token reader is nil")
	}

	info, err := m.reader.GetTokenInfo(ctx, common.HexToAddress(a))
	if err != nil {
		return Asset{}, errors.Wrapf(err, "token info %s", a)
	}

	return Asset{
		Address:  a,
		Symbol:   info.Symbol,
		Decimals: info.Decimals,
		Name:     info.Name,
	}, nil
}
