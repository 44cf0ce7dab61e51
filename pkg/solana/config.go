package solana

import "strings"

type Environment string

const (
	EnvironmentDev   Environment = "https://api.devnet.solana.com"
	EnvironmentTest  Environment = "https://api.testnet.solana.com"
	EnvironmentProd  Environment = "https://api.mainnet-beta.solana.com"
	EnvironmentLocal Environment = "http://127.0.0.1:8899"
)

// ResolveEndpoint maps a cluster moniker to its public RPC endpoint. Anything
// else is assumed to already be an endpoint URL.
func ResolveEndpoint(value string) string {
	switch strings.ToLower(value) {
	case "dev", "devnet":
		return string(EnvironmentDev)
	case "test", "testnet":
		return string(EnvironmentTest)
	case "prod", "mainnet", "mainnet-beta":
		return string(EnvironmentProd)
	case "local", "localhost", "localnet":
		return string(EnvironmentLocal)
	}
	return value
}
