package multisig

import (
	"github.com/code-payments/multisig-client/pkg/config"
	"github.com/code-payments/multisig-client/pkg/config/env"
	"github.com/code-payments/multisig-client/pkg/config/memory"
	"github.com/code-payments/multisig-client/pkg/config/wrapper"
)

const (
	envConfigPrefix = "MULTISIG_"

	SkipPreflightConfigEnvName = envConfigPrefix + "SKIP_PREFLIGHT"
	defaultSkipPreflight       = false

	PreflightCommitmentConfigEnvName = envConfigPrefix + "PREFLIGHT_COMMITMENT"
	defaultPreflightCommitment       = "confirmed"

	// Zero leaves the retry policy to the RPC node.
	MaxRetriesConfigEnvName = envConfigPrefix + "MAX_RETRIES"
	defaultMaxRetries       = 0
)

type conf struct {
	skipPreflight       config.Bool
	preflightCommitment config.String
	maxRetries          config.Uint64
}

// ConfigProvider defines how config values are pulled
type ConfigProvider func() *conf

// WithEnvConfigs returns configuration pulled from environment variables
func WithEnvConfigs() ConfigProvider {
	return func() *conf {
		return &conf{
			skipPreflight:       env.NewBoolConfig(SkipPreflightConfigEnvName, defaultSkipPreflight),
			preflightCommitment: env.NewStringConfig(PreflightCommitmentConfigEnvName, defaultPreflightCommitment),
			maxRetries:          env.NewUint64Config(MaxRetriesConfigEnvName, defaultMaxRetries),
		}
	}
}

type testOverrides struct {
	skipPreflight       bool
	preflightCommitment string
	maxRetries          uint64
}

func withManualTestOverrides(overrides *testOverrides) ConfigProvider {
	return func() *conf {
		return &conf{
			skipPreflight:       wrapper.NewBoolConfig(memory.NewConfig(overrides.skipPreflight), defaultSkipPreflight),
			preflightCommitment: wrapper.NewStringConfig(memory.NewConfig(overrides.preflightCommitment), defaultPreflightCommitment),
			maxRetries:          wrapper.NewUint64Config(memory.NewConfig(overrides.maxRetries), defaultMaxRetries),
		}
	}
}
