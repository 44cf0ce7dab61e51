package multisig

import (
	"context"
	"crypto/ed25519"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/multisig-client/pkg/pointer"
	"github.com/code-payments/multisig-client/pkg/solana"
)

// Connection is the subset of the ledger RPC client needed to submit
// transactions. solana.Client satisfies it.
type Connection interface {
	GetLatestBlockhash() (solana.Blockhash, error)
	SendTransaction(solana.Transaction, solana.SendOptions) (solana.Signature, error)
}

type VaultTransactionMultiUploadRpcArgs struct {
	VaultTransactionMultiUploadInstructionArgs

	FeePayer ed25519.PrivateKey

	// Signers holds every other required signer, typically the creator and
	// the rent payer when they differ from the fee payer.
	Signers []ed25519.PrivateKey

	// SendOptions overrides the configured defaults when set.
	SendOptions *solana.SendOptions

	ComputeUnitLimit uint32
	ComputeUnitPrice uint64
}

// Client submits multisig transactions through a Connection.
type Client struct {
	log  *logrus.Entry
	conf *conf
	conn Connection
}

func NewClient(conn Connection, configProvider ConfigProvider) *Client {
	return &Client{
		log:  logrus.StandardLogger().WithField("type", "multisig/client"),
		conf: configProvider(),
		conn: conn,
	}
}

// VaultTransactionMultiUpload is Client.VaultTransactionMultiUpload using
// send options configured through the environment.
func VaultTransactionMultiUpload(ctx context.Context, conn Connection, args *VaultTransactionMultiUploadRpcArgs) (solana.Signature, error) {
	return NewClient(conn, WithEnvConfigs()).VaultTransactionMultiUpload(ctx, args)
}

// VaultTransactionMultiUpload builds, signs and sends a transaction that
// appends instructions to an existing vault transaction. The transaction is
// sent once. Program failures are returned as *ProgramError.
func (c *Client) VaultTransactionMultiUpload(ctx context.Context, args *VaultTransactionMultiUploadRpcArgs) (solana.Signature, error) {
	log := c.log.WithFields(logrus.Fields{
		"method":            "VaultTransactionMultiUpload",
		"transaction_index": args.TransactionIndex,
	})

	if len(args.FeePayer) != ed25519.PrivateKeySize {
		return solana.Signature{}, ErrMissingFeePayer
	}

	if err := ctx.Err(); err != nil {
		return solana.Signature{}, err
	}

	blockhash, err := c.conn.GetLatestBlockhash()
	if err != nil {
		log.WithError(err).Warn("failure getting latest blockhash")
		return solana.Signature{}, errors.Wrap(err, "error getting latest blockhash")
	}

	txn, err := NewVaultTransactionMultiUploadTransaction(&VaultTransactionMultiUploadTransactionArgs{
		VaultTransactionMultiUploadInstructionArgs: args.VaultTransactionMultiUploadInstructionArgs,

		Blockhash: blockhash,
		FeePayer:  args.FeePayer.Public().(ed25519.PublicKey),

		ComputeUnitLimit: args.ComputeUnitLimit,
		ComputeUnitPrice: args.ComputeUnitPrice,
	})
	if err != nil {
		return solana.Signature{}, err
	}

	signers := append([]ed25519.PrivateKey{args.FeePayer}, args.Signers...)
	if err := txn.Sign(signers...); err != nil {
		return solana.Signature{}, errors.Wrap(err, "error signing transaction")
	}

	var sig solana.Signature
	copy(sig[:], txn.Signature())
	log = log.WithField("signature", sig.ToBase58())

	opts, err := c.sendOptions(ctx, args.SendOptions)
	if err != nil {
		return solana.Signature{}, err
	}

	if err := ctx.Err(); err != nil {
		return solana.Signature{}, err
	}

	if _, err := c.conn.SendTransaction(txn, opts); err != nil {
		translated := TranslateError(err)
		log.WithError(translated).Info("transaction rejected")
		return solana.Signature{}, translated
	}

	log.Debug("transaction submitted")
	return sig, nil
}

func (c *Client) sendOptions(ctx context.Context, override *solana.SendOptions) (solana.SendOptions, error) {
	if override != nil {
		return *override, nil
	}

	commitment, err := solana.CommitmentFromString(c.conf.preflightCommitment.Get(ctx))
	if err != nil {
		return solana.SendOptions{}, errors.Wrap(err, "invalid preflight commitment")
	}

	maxRetries := c.conf.maxRetries.Get(ctx)
	return solana.SendOptions{
		SkipPreflight:       c.conf.skipPreflight.Get(ctx),
		PreflightCommitment: commitment,
		MaxRetries:          pointer.IfValid(maxRetries > 0, uint(maxRetries)),
	}, nil
}
