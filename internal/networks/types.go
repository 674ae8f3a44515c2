package networks

import (
	"strconv"
	"strings"
)

// NetworkConfig is the static metadata of one supported chain.
type NetworkConfig struct {
	Key           string `json:"key" yaml:"key" mapstructure:"key"`
	Name          string `json:"name" yaml:"name" mapstructure:"name"`
	ChainID       uint64 `json:"chainId" yaml:"chainId" mapstructure:"chainId"`
	RPCURL        string `json:"rpcUrl" yaml:"rpcUrl" mapstructure:"rpcUrl"`
	BlockExplorer string `json:"blockExplorer" yaml:"blockExplorer" mapstructure:"blockExplorer"`
	Currency      string `json:"currency" yaml:"currency" mapstructure:"currency"`
	Decimals      uint8  `json:"decimals" yaml:"decimals" mapstructure:"decimals"`
}

// ChainIDHex returns the chain id as a 0x-prefixed hex quantity, the form wallets report it in.
func (n NetworkConfig) ChainIDHex() string {
	return "0x" + strconv.FormatUint(n.ChainID, 16)
}

// TxURL links a transaction hash on the network's block explorer.
// Returns "" when the network has no explorer configured.
func (n NetworkConfig) TxURL(txHash string) string {
	base := strings.TrimRight(strings.TrimSpace(n.BlockExplorer), "/")
	if base == "" || strings.TrimSpace(txHash) == "" {
		return ""
	}
	return base + "/tx/" + txHash
}

// AddressURL links an account or contract on the network's block explorer.
func (n NetworkConfig) AddressURL(addr string) string {
	base := strings.TrimRight(strings.TrimSpace(n.BlockExplorer), "/")
	if base == "" || strings.TrimSpace(addr) == "" {
		return ""
	}
	return base + "/address/" + addr
}
