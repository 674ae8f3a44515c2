package networks

// DefaultNetworkKey is the network the client targets when nothing else is configured.
const DefaultNetworkKey = "lisk_testnet"

var builtinNetworks = []NetworkConfig{
	// Local development
	{
		Key:           "localhost",
		Name:          "Localhost",
		ChainID:       31337,
		RPCURL:        "http://localhost:8545",
		BlockExplorer: "http://localhost:8545",
		Currency:      "ETH",
		Decimals:      18,
	},

	// Ethereum
	{
		Key:           "sepolia",
		Name:          "Sepolia",
		ChainID:       11155111,
		RPCURL:        "https://sepolia.infura.io/v3/YOUR_INFURA_KEY",
		BlockExplorer: "https://sepolia.etherscan.io",
		Currency:      "ETH",
		Decimals:      18,
	},

	// Lisk
	{
		Key:           "lisk_testnet",
		Name:          "Lisk Sepolia",
		ChainID:       4202,
		RPCURL:        "https://rpc.sepolia-api.lisk.com",
		BlockExplorer: "https://sepolia-blockscout.lisk.com",
		Currency:      "LSK",
		Decimals:      18,
	},
	{
		Key:           "lisk_mainnet",
		Name:          "Lisk",
		ChainID:       1135,
		RPCURL:        "https://rpc.mainnet.lisk.com",
		BlockExplorer: "https://blockscout.lisk.com",
		Currency:      "LSK",
		Decimals:      18,
	},

	// Polygon
	{
		Key:           "mumbai",
		Name:          "Mumbai",
		ChainID:       80001,
		RPCURL:        "https://rpc-mumbai.maticvigil.com",
		BlockExplorer: "https://mumbai.polygonscan.com",
		Currency:      "MATIC",
		Decimals:      18,
	},
	{
		Key:           "polygon",
		Name:          "Polygon",
		ChainID:       137,
		RPCURL:        "https://polygon-rpc.com",
		BlockExplorer: "https://polygonscan.com",
		Currency:      "MATIC",
		Decimals:      18,
	},
}

// BuiltinNetworks returns a copy of the compiled-in network table.
func BuiltinNetworks() []NetworkConfig {
	out := make([]NetworkConfig, len(builtinNetworks))
	copy(out, builtinNetworks)
	return out
}
