package assets

type Asset struct {
	Address  string `json:"address"` // checksummed
	Symbol   string `json:"symbol"`
	Decimals uint8  `json:"decimals"`
	Name     string `json:"name,omitempty"`
	Native   bool   `json:"native,omitempty"`
}

type Store struct {
	// network key -> address -> asset
	Networks map[string]map[string]Asset `json:"networks"`
	Schema   int                         `json:"schema"`
}
