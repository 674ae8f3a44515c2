package config

import (
	"bytes"
	_ "embed"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/viper"

	"github.com/quantumauth-io/simpledex-client/internal/constants"
	"github.com/quantumauth-io/simpledex-client/internal/networks"
)

//go:embed default.yaml
var EmbeddedConfigYAML []byte

type ClientSettings struct {
	Host           string   `mapstructure:"host"`
	Port           string   `mapstructure:"port"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type WalletSettings struct {
	RPCURL          string        `mapstructure:"rpc_url"`
	PollInterval    time.Duration `mapstructure:"poll_interval"`
	PromptOnConnect bool          `mapstructure:"prompt_on_connect"`
}

type DEXSettings struct {
	Address         string        `mapstructure:"address"`
	ConfirmTimeout  time.Duration `mapstructure:"confirm_timeout"`
	PollInterval    time.Duration `mapstructure:"poll_interval"`
	MaxPollInterval time.Duration `mapstructure:"max_poll_interval"`
	QueryDecimals   bool          `mapstructure:"query_decimals"`
	// DefaultDecimals of 0 is read as 18.
	DefaultDecimals uint8 `mapstructure:"default_decimals"`
}

type Config struct {
	Client   ClientSettings           `mapstructure:"client"`
	Wallet   WalletSettings           `mapstructure:"wallet"`
	DEX      DEXSettings              `mapstructure:"dex"`
	Networks []networks.NetworkConfig `mapstructure:"networks"`
	// Tokens maps a network key to the token addresses listed by default.
	Tokens map[string][]string `mapstructure:"tokens"`
}

// DefaultPaths are searched, in order, for a config.yaml overriding the embedded defaults.
func DefaultPaths() []string {
	home, _ := os.UserHomeDir()
	return []string{
		filepath.Join(home, ".config", constants.AppName),
		filepath.Join(home, "config"),
		".",
	}
}

func Load() (*Config, error) {
	return LoadFrom(DefaultPaths())
}

// LoadFrom layers the embedded defaults, the first config.yaml found under paths and
// SIMPLEDEX_* environment variables (SIMPLEDEX_DEX_ADDRESS for dex.address).
func LoadFrom(paths []string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	if err := v.ReadConfig(bytes.NewReader(EmbeddedConfigYAML)); err != nil {
		return nil, errors.Wrap(err, "read embedded config")
	}

	v.SetConfigName(constants.ConfigName)
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	if err := v.MergeInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, errors.Wrap(err, "read config file")
		}
	}

	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "unmarshal config")
	}
	if err := cfg.NormalizeTokens(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.Client.Port) == "" {
		return errors.New("client.port is required")
	}
	if _, err := c.DEXAddress(); err != nil {
		return err
	}
	if c.DEX.DefaultDecimals == 0 {
		c.DEX.DefaultDecimals = constants.DefaultTokenDecimals
	}
	return nil
}

// DEXAddress is the SimpleDEX contract the client talks to.
func (c *Config) DEXAddress() (common.Address, error) {
	raw := strings.TrimSpace(c.DEX.Address)
	if !common.IsHexAddress(raw) {
		return common.Address{}, errors.Newf("dex.address %q is not an address", c.DEX.Address)
	}
	addr := common.HexToAddress(raw)
	if addr == (common.Address{}) {
		return common.Address{}, errors.New("dex.address must not be the zero address")
	}
	return addr, nil
}

// Registry builds the network registry: builtins with the configured entries merged over them.
func (c *Config) Registry() (*networks.Registry, error) {
	r := networks.Default()
	if len(c.Networks) == 0 {
		return r, nil
	}
	merged, err := r.WithOverrides(c.Networks...)
	if err != nil {
		return nil, errors.Wrap(err, "networks")
	}
	return merged, nil
}

// NormalizeTokens canonicalises network keys, checksums addresses and drops duplicates.
func (c *Config) NormalizeTokens() error {
	if c.Tokens == nil {
		c.Tokens = map[string][]string{}
		return nil
	}

	outByNet := make(map[string][]string, len(c.Tokens))
	seenByNet := make(map[string]map[string]struct{}, len(c.Tokens))

	// keys that differ only in spelling (lisk-testnet, lisk_testnet) are merged
	for netKey, addrs := range c.Tokens {
		nk := networks.NormalizeKey(netKey)
		if nk == "" {
			return errors.New("tokens has empty network key")
		}

		seen := seenByNet[nk]
		if seen == nil {
			seen = map[string]struct{}{}
			seenByNet[nk] = seen
		}
		out := outByNet[nk]
		if out == nil {
			out = make([]string, 0, len(addrs))
		}

		for _, raw := range addrs {
			a := strings.TrimSpace(raw)
			if a == "" {
				return errors.Newf("tokens[%q] contains empty address", netKey)
			}
			if !strings.HasPrefix(a, "0x") && !strings.HasPrefix(a, "0X") {
				a = "0x" + a
			}
			if !common.IsHexAddress(a) {
				return errors.Newf("tokens[%q] invalid address: %q", netKey, raw)
			}

			canon := common.HexToAddress(a).Hex()
			if _, ok := seen[canon]; ok {
				continue
			}
			seen[canon] = struct{}{}
			out = append(out, canon)
		}

		outByNet[nk] = out
	}

	c.Tokens = outByNet
	return nil
}
