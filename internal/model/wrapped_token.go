package model

// WrappedToken records a resolved ERC-1155 to ERC-20 wrapper.
type WrappedToken struct {
	ChainID    uint64 `json:"chain_id"`
	Factory    string `json:"factory"`
	MultiToken string `json:"multi_token"`
	TokenID    string `json:"token_id"`
	Metadata   string `json:"metadata"`
	Name       string `json:"name"`
	Symbol     string `json:"symbol"`
	Decimals   uint8  `json:"decimals"`
	Wrapper    string `json:"wrapper"`
	Deployed   bool   `json:"deployed"`
}

// TokenMeta is what a deployed ERC-20 wrapper reports about itself.
type TokenMeta struct {
	Address  string `json:"address"`
	Decimals uint8  `json:"decimals"`
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
}
