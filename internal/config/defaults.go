package config

// DefaultETHRPCURL is the default Ethereum JSON-RPC endpoint. PublicNode
// requires no API key.
const DefaultETHRPCURL = "https://ethereum-rpc.publicnode.com"

// Defaults returns the default configuration.
func Defaults() *Config {
	return &Config{
		Version: 1,
		Home:    "~/.gateway",
		Network: "testnet",
		Networks: NetworksConfig{
			BTC: BTCNetworkConfig{
				RequestsPerSecond: 3,
				Burst:             1,
			},
			ETH: ETHNetworkConfig{
				RPC:        DefaultETHRPCURL,
				Connection: "http",
			},
		},
		Fees: FeesConfig{
			DefaultSatPerByte: "10",
			DustSats:          546,
			MinSpendSats:      546,
			ETHGasSpeed:       "medium",
		},
		Confirmation: ConfirmationConfig{
			ScheduleMillis: []int{1250, 2500, 5000, 10000, 20000},
		},
		Cache: CacheConfig{
			BalanceTTLSeconds: 30,
		},
		Output: OutputConfig{
			DefaultFormat: "auto",
			Color:         "auto",
			Verbose:       false,
		},
		Logging: LoggingConfig{
			Level: "error",
			File:  "~/.gateway/gateway.log",
		},
	}
}
