// Command multisig-upload appends instructions to an existing vault
// transaction of a multisig.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/code-payments/multisig-client/pkg/multisig"
	"github.com/code-payments/multisig-client/pkg/pointer"
	"github.com/code-payments/multisig-client/pkg/solana"
)

var (
	configPath = flag.String("config", "config.yaml", "configuration file path")

	multisigFlag         = flag.String("multisig", "", "multisig account address")
	indexFlag            = flag.Uint64("index", 0, "index of the vault transaction to append to")
	creatorKeypairFlag   = flag.String("creator-keypair", "", "keypair file of the member appending instructions")
	rentPayerKeypairFlag = flag.String("rent-payer-keypair", "", "keypair file funding the transaction account (defaults to the creator)")
	vaultIndexFlag       = flag.Uint("vault-index", 0, "vault the instructions execute as")
	ephemeralSignersFlag = flag.Uint("ephemeral-signers", 0, "number of additional ephemeral signers the instructions require")
	instructionsFlag     = flag.String("instructions", "", "JSON file of instructions to append")
	memoFlag             = flag.String("memo", "", "optional memo")
	computeUnitPriceFlag = flag.Uint64("compute-unit-price", 0, "priority fee in micro-lamports per compute unit")
	computeUnitLimitFlag = flag.Uint("compute-unit-limit", 0, "compute unit limit")
	dryRunFlag           = flag.Bool("dry-run", false, "print the transaction instead of sending it")
	waitFlag             = flag.Bool("wait", false, "wait for the transaction to be confirmed")
)

func main() {
	flag.Parse()

	log := logrus.StandardLogger().WithField("type", "cmd/multisig-upload")

	config, err := loadConfig()
	if err != nil {
		log.WithError(err).Error("failed to load config")
		os.Exit(1)
	}
	configureLogger(config)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, config); err != nil {
		log.WithError(err).Error("upload failed")
		os.Exit(1)
	}
}

func loadConfig() (Config, error) {
	// viper.ReadInConfig only returns ConfigFileNotFoundError when searching
	// for a default config file, so a missing explicit file is checked here.
	if _, err := os.Stat(*configPath); err == nil {
		viper.SetConfigFile(*configPath)
	} else if !os.IsNotExist(err) {
		return Config{}, errors.Wrap(err, "failed to check if config exists")
	}

	err := viper.ReadInConfig()
	if _, isConfigNotFound := err.(viper.ConfigFileNotFoundError); err != nil && !isConfigNotFound {
		return Config{}, err
	}

	config := defaultConfig
	if err := viper.Unmarshal(&config); err != nil {
		return Config{}, errors.Wrap(err, "failed to unmarshal config")
	}
	return config, nil
}

func configureLogger(config Config) {
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	level, err := logrus.ParseLevel(strings.ToLower(config.LogLevel))
	if err != nil {
		logrus.StandardLogger().WithField("log_level", config.LogLevel).Warn("unknown log level, ignoring")
	} else {
		logrus.SetLevel(level)
	}

	logrus.SetOutput(os.Stderr)
}

func run(ctx context.Context, config Config) error {
	opts, err := readOptions(flag.CommandLine, config)
	if err != nil {
		return err
	}

	endpoint := solana.ResolveEndpoint(config.RPCEndpoint)
	logrus.StandardLogger().WithField("endpoint", endpoint).Debug("using rpc endpoint")

	client := solana.NewRateLimited(endpoint, config.RPCRequestsPerSecond)
	_, err = newUploader(client, multisig.WithEnvConfigs(), os.Stdout).upload(ctx, opts)
	return err
}

// readOptions resolves the parsed flags of fs and the shared config into a
// single upload.
func readOptions(fs *flag.FlagSet, config Config) (*uploadOptions, error) {
	if len(*multisigFlag) == 0 || len(*creatorKeypairFlag) == 0 || len(*instructionsFlag) == 0 {
		return nil, errors.New("-multisig, -creator-keypair and -instructions are required")
	}
	if *vaultIndexFlag > 255 || *ephemeralSignersFlag > 255 {
		return nil, errors.New("-vault-index and -ephemeral-signers must fit in a byte")
	}

	opts := &uploadOptions{
		TransactionIndex: *indexFlag,
		VaultIndex:       uint8(*vaultIndexFlag),
		EphemeralSigners: uint8(*ephemeralSignersFlag),
		ComputeUnitLimit: uint32(*computeUnitLimitFlag),
		ComputeUnitPrice: *computeUnitPriceFlag,
		DryRun:           *dryRunFlag,
		Wait:             *waitFlag,
	}

	var err error
	if len(config.ProgramID) > 0 {
		if opts.ProgramID, err = parsePublicKey(config.ProgramID); err != nil {
			return nil, errors.Wrap(err, "invalid program id")
		}
	}

	if opts.Multisig, err = parsePublicKey(*multisigFlag); err != nil {
		return nil, err
	}

	if opts.Creator, err = loadKeypair(*creatorKeypairFlag); err != nil {
		return nil, err
	}
	if len(*rentPayerKeypairFlag) > 0 {
		if opts.RentPayer, err = loadKeypair(*rentPayerKeypairFlag); err != nil {
			return nil, err
		}
	}
	if len(config.FeePayerKeypair) > 0 {
		if opts.FeePayer, err = loadKeypair(config.FeePayerKeypair); err != nil {
			return nil, err
		}
	}

	if opts.Instructions, err = loadInstructions(*instructionsFlag); err != nil {
		return nil, err
	}

	// -memo "" uploads an empty memo, which differs from no memo at all.
	if isFlagSet(fs, "memo") {
		opts.Memo = pointer.To(*memoFlag)
	}

	return opts, nil
}

func isFlagSet(fs *flag.FlagSet, name string) bool {
	var set bool
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}
