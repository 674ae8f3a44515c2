package constants

import "time"

const (
	AppName    = "simpledex-client"
	ConfigName = "config"
	AssetsFile = "assets.json"

	SchemaV1 = 1

	EnvPrefix = "SIMPLEDEX"

	NativeAddr = "0x0000000000000000000000000000000000000000"

	// DefaultTokenDecimals is assumed for tokens whose decimals are not queried.
	DefaultTokenDecimals = 18

	// JSON-RPC / EIP-1193 error codes.
	CodeUserRejected   = 4001
	CodeMethodNotFound = -32601

	DefaultWaitMinedTimeout = 3 * time.Minute
	DefaultPollInterval     = 750 * time.Millisecond
	DefaultMaxPollInterval  = 3 * time.Second
	DefaultWatchInterval    = 2 * time.Second
)
