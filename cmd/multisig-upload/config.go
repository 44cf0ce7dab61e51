package main

import (
	"github.com/spf13/viper"
)

// Config holds settings shared across invocations. Values come from the
// config file and the environment; per-upload values are flags.
type Config struct {
	LogLevel string `mapstructure:"log_level"`

	// RPCEndpoint is either an RPC URL or a cluster moniker such as "devnet".
	RPCEndpoint string `mapstructure:"rpc_endpoint"`

	// RPCRequestsPerSecond throttles requests to the endpoint. Zero disables
	// throttling.
	RPCRequestsPerSecond float64 `mapstructure:"rpc_requests_per_second"`

	// FeePayerKeypair is the path of a keypair file. Defaults to the creator.
	FeePayerKeypair string `mapstructure:"fee_payer_keypair"`

	// ProgramID overrides the multisig program address.
	ProgramID string `mapstructure:"program_id"`
}

var defaultConfig = Config{
	LogLevel:             "info",
	RPCEndpoint:          "devnet",
	RPCRequestsPerSecond: 10,
}

func init() {
	_ = viper.BindEnv("log_level", "LOG_LEVEL")
	_ = viper.BindEnv("rpc_endpoint", "RPC_ENDPOINT")
	_ = viper.BindEnv("rpc_requests_per_second", "RPC_REQUESTS_PER_SECOND")
	_ = viper.BindEnv("fee_payer_keypair", "FEE_PAYER_KEYPAIR")
	_ = viper.BindEnv("program_id", "PROGRAM_ID")
}
