package main

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"fmt"
	"io"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/multisig-client/pkg/multisig"
	"github.com/code-payments/multisig-client/pkg/solana"
	"github.com/code-payments/multisig-client/pkg/solana/system"
)

// uploadOptions is a single upload, resolved from flags and config.
type uploadOptions struct {
	Multisig         ed25519.PublicKey
	TransactionIndex uint64
	ProgramID        ed25519.PublicKey

	Creator ed25519.PrivateKey

	// RentPayer and FeePayer default to Creator.
	RentPayer ed25519.PrivateKey
	FeePayer  ed25519.PrivateKey

	VaultIndex       uint8
	EphemeralSigners uint8
	Instructions     []solana.Instruction
	Memo             *string

	ComputeUnitLimit uint32
	ComputeUnitPrice uint64

	DryRun bool
	Wait   bool
}

type uploader struct {
	log    *logrus.Entry
	client solana.Client
	conf   multisig.ConfigProvider
	out    io.Writer
}

func newUploader(client solana.Client, configProvider multisig.ConfigProvider, out io.Writer) *uploader {
	return &uploader{
		log:    logrus.StandardLogger().WithField("type", "cmd/multisig-upload"),
		client: client,
		conf:   configProvider,
		out:    out,
	}
}

// upload verifies the multisig account, then either prints the transaction
// (dry run) or sends it. The returned signature is zero for dry runs.
func (u *uploader) upload(ctx context.Context, opts *uploadOptions) (solana.Signature, error) {
	if len(opts.Creator) != ed25519.PrivateKeySize {
		return solana.Signature{}, multisig.ErrMissingCreator
	}

	programID := opts.ProgramID
	if len(programID) == 0 {
		programID = multisig.PROGRAM_ID
	}

	creator := opts.Creator
	signers := []ed25519.PrivateKey{creator}

	rentPayer := creator
	if len(opts.RentPayer) > 0 {
		rentPayer = opts.RentPayer
		signers = append(signers, rentPayer)
	}

	feePayer := creator
	if len(opts.FeePayer) > 0 {
		feePayer = opts.FeePayer
	}

	vaultPda, _, err := multisig.GetVaultPda(&multisig.GetVaultPdaArgs{
		MultisigPda: opts.Multisig,
		Index:       opts.VaultIndex,
		ProgramID:   programID,
	})
	if err != nil {
		return solana.Signature{}, errors.Wrap(err, "error deriving vault address")
	}

	args := multisig.VaultTransactionMultiUploadInstructionArgs{
		MultisigPda:      opts.Multisig,
		TransactionIndex: opts.TransactionIndex,
		Creator:          creator.Public().(ed25519.PublicKey),
		RentPayer:        rentPayer.Public().(ed25519.PublicKey),
		VaultIndex:       opts.VaultIndex,
		EphemeralSigners: opts.EphemeralSigners,
		AdditionalInstructions: multisig.TransactionMessage{
			PayerKey:     vaultPda,
			Instructions: opts.Instructions,
		},
		Memo:      opts.Memo,
		ProgramID: programID,
	}

	log := u.log.WithFields(logrus.Fields{
		"multisig":          base58.Encode(opts.Multisig),
		"transaction_index": opts.TransactionIndex,
		"vault":             base58.Encode(vaultPda),
	})

	if err := u.verifyMultisig(opts.Multisig, programID); err != nil {
		return solana.Signature{}, err
	}

	if opts.DryRun {
		return solana.Signature{}, u.dryRun(args, feePayer.Public().(ed25519.PublicKey), opts)
	}

	sig, err := multisig.NewClient(u.client, u.conf).VaultTransactionMultiUpload(ctx, &multisig.VaultTransactionMultiUploadRpcArgs{
		VaultTransactionMultiUploadInstructionArgs: args,

		FeePayer:         feePayer,
		Signers:          signers,
		ComputeUnitLimit: opts.ComputeUnitLimit,
		ComputeUnitPrice: opts.ComputeUnitPrice,
	})
	if err != nil {
		var programErr *multisig.ProgramError
		if errors.As(err, &programErr) {
			for _, line := range programErr.Logs {
				log.Debug(line)
			}
		}
		return solana.Signature{}, err
	}

	log = log.WithField("signature", sig.ToBase58())
	log.Info("transaction submitted")
	fmt.Fprintln(u.out, sig.ToBase58())

	if !opts.Wait {
		return sig, nil
	}

	status, err := u.client.GetSignatureStatus(sig, solana.CommitmentConfirmed)
	if err != nil {
		return sig, errors.Wrap(err, "error waiting for confirmation")
	}
	if status.ErrorResult != nil {
		return sig, multisig.TranslateError(status.ErrorResult)
	}

	log.WithField("slot", status.Slot).Info("transaction confirmed")
	return sig, nil
}

func (u *uploader) verifyMultisig(account, programID ed25519.PublicKey) error {
	info, err := u.client.GetAccountInfo(account, solana.CommitmentConfirmed)
	if err == solana.ErrNoAccountInfo {
		return errors.Errorf("multisig %s does not exist", base58.Encode(account))
	} else if err != nil {
		return errors.Wrap(err, "error getting multisig account")
	}

	if !bytes.Equal(info.Owner, programID) {
		return errors.Errorf("multisig %s is owned by %s, not %s", base58.Encode(account), base58.Encode(info.Owner), base58.Encode(programID))
	}
	return nil
}

func (u *uploader) dryRun(args multisig.VaultTransactionMultiUploadInstructionArgs, feePayer ed25519.PublicKey, opts *uploadOptions) error {
	blockhash, err := u.client.GetLatestBlockhash()
	if err != nil {
		return errors.Wrap(err, "error getting latest blockhash")
	}

	txn, err := multisig.NewVaultTransactionMultiUploadTransaction(&multisig.VaultTransactionMultiUploadTransactionArgs{
		VaultTransactionMultiUploadInstructionArgs: args,

		Blockhash:        blockhash,
		FeePayer:         feePayer,
		ComputeUnitLimit: opts.ComputeUnitLimit,
		ComputeUnitPrice: opts.ComputeUnitPrice,
	})
	if err != nil {
		return err
	}

	// The upload instruction is always last, after any compute budget ones.
	ix := txn.Message.Instructions[len(txn.Message.Instructions)-1]
	decompiled := solana.Instruction{
		Program: txn.Message.Accounts[ix.ProgramIndex],
		Data:    ix.Data,
	}
	for _, index := range ix.Accounts {
		decompiled.Accounts = append(decompiled.Accounts, solana.AccountMeta{PublicKey: txn.Message.Accounts[index]})
	}

	accounts, decoded, err := multisig.DecodeVaultTransactionMultiUploadInstruction(decompiled)
	if err != nil {
		return err
	}

	fmt.Fprint(u.out, txn.String())
	fmt.Fprintf(u.out, "Upload:\n  Multisig: %s\n  Transaction: %s\n  Creator: %s\n  RentPayer: %s\n",
		base58.Encode(accounts.Multisig),
		base58.Encode(accounts.Transaction),
		base58.Encode(accounts.Creator),
		base58.Encode(accounts.RentPayer),
	)
	fmt.Fprintf(u.out, "  VaultIndex: %d\n  TransactionIndex: %d\n  EphemeralSigners: %d\n", decoded.VaultIndex, decoded.TransactionIndex, decoded.EphemeralSigners)

	for i := uint8(0); i < decoded.EphemeralSigners; i++ {
		signer, _, err := multisig.GetEphemeralSignerPda(&multisig.GetEphemeralSignerPdaArgs{
			TransactionPda:       accounts.Transaction,
			EphemeralSignerIndex: i,
			ProgramID:            args.ProgramID,
		})
		if err != nil {
			return errors.Wrapf(err, "error deriving ephemeral signer %d", i)
		}
		fmt.Fprintf(u.out, "  EphemeralSigner %d: %s\n", i, base58.Encode(signer))
	}

	for i, ix := range decoded.AdditionalInstructions {
		fmt.Fprintf(u.out, "  AdditionalInstruction %d: program=%d accounts=%v data=%x\n", i, ix.ProgramIDIndex, ix.AccountIndexes, ix.Data)
		if i < len(args.AdditionalInstructions.Instructions) {
			fmt.Fprintf(u.out, "    %s\n", describeInstruction(args.AdditionalInstructions.Instructions[i]))
		}
	}

	fmt.Fprintf(u.out, "Size: %d bytes\n", len(txn.Marshal()))
	fmt.Fprintf(u.out, "Unsigned: %s\n", base64.StdEncoding.EncodeToString(txn.Marshal()))
	return nil
}

// describeInstruction summarizes system program instructions, which are the
// most common vault payloads.
func describeInstruction(ix solana.Instruction) string {
	if transfer, err := system.DecompileTransfer(ix); err == nil {
		return fmt.Sprintf("system transfer: %d lamports from %s to %s",
			transfer.Lamports,
			base58.Encode(transfer.From),
			base58.Encode(transfer.To),
		)
	}

	if create, err := system.DecompileCreateAccount(ix); err == nil {
		return fmt.Sprintf("system create account: %s funded by %s with %d lamports, %d bytes owned by %s",
			base58.Encode(create.Address),
			base58.Encode(create.Funder),
			create.Lamports,
			create.Size,
			base58.Encode(create.Owner),
		)
	}

	return fmt.Sprintf("program %s: %d accounts, %d data bytes", base58.Encode(ix.Program), len(ix.Accounts), len(ix.Data))
}
