package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"provledger/internal/bootstrap"
	"provledger/internal/config"
	"provledger/internal/hasher"
	"provledger/internal/ledger"
	"provledger/internal/logger"
	"provledger/internal/model"
	"provledger/internal/storage"
)

// ErrNoMatch is returned by verify when no record attests to the file.
var ErrNoMatch = errors.New("no provenance record matches the file digest")

type deps struct {
	cfg      *config.AppConfig
	openSlot func(ctx context.Context, cfg *config.AppConfig, log *zap.Logger) (storage.Slot, func() error, error)
	log      *zap.Logger
}

func defaultDeps() deps {
	cfg := config.Load()
	log, err := logger.New(cfg.Env)
	if err != nil {
		log = zap.NewNop()
	}
	return deps{cfg: cfg, openSlot: bootstrap.OpenSlot, log: log}
}

type verifyResult struct {
	File    string                   `json:"file"`
	Digest  model.Digest             `json:"digest"`
	Size    int64                    `json:"size"`
	Matches []model.ProvenanceRecord `json:"matches"`
}

func newRootCmd(d deps) *cobra.Command {
	root := &cobra.Command{
		Use:           "ledger-verify",
		Short:         "Check files against the local provenance ledger",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&d.cfg.Ledger.Backend, "backend", d.cfg.Ledger.Backend, "ledger slot backend (memory, minio, postgres)")
	root.PersistentFlags().StringVar(&d.cfg.Ledger.Key, "key", d.cfg.Ledger.Key, "slot key of the ledger document")

	root.AddCommand(newHashCmd(), newVerifyCmd(&d), newListCmd(&d))
	return root
}

func newHashCmd() *cobra.Command {
	var expect string
	cmd := &cobra.Command{
		Use:   "hash <file>",
		Short: "Print the SHA-256 content digest of a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if expect != "" {
				want, err := model.ParseDigest(expect)
				if err != nil {
					return fmt.Errorf("--expect: %w", err)
				}
				f, err := os.Open(args[0])
				if err != nil {
					return &hasher.ReadError{Err: err}
				}
				defer f.Close()
				if err := hasher.Verify(f, want); err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), want)
				return err
			}

			d, _, err := hasher.HashFile(args[0])
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), d)
			return err
		},
	}
	cmd.Flags().StringVar(&expect, "expect", "", "fail unless the file hashes to this digest")
	return cmd
}

func newVerifyCmd(d *deps) *cobra.Command {
	return &cobra.Command{
		Use:   "verify <file>",
		Short: "Hash a file and list the ledger records that attest to it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			digest, size, err := hasher.HashFile(args[0])
			if err != nil {
				return err
			}
			book, closeSlot, err := loadLedger(cmd.Context(), d)
			if err != nil {
				return err
			}
			defer func() { _ = closeSlot() }()

			res := verifyResult{File: args[0], Digest: digest, Size: size, Matches: book.FindByDigest(digest)}
			if err := writeJSON(cmd.OutOrStdout(), res); err != nil {
				return err
			}
			if len(res.Matches) == 0 {
				return ErrNoMatch
			}
			return nil
		},
	}
}

func newListCmd(d *deps) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print every ledger record in insertion order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			book, closeSlot, err := loadLedger(cmd.Context(), d)
			if err != nil {
				return err
			}
			defer func() { _ = closeSlot() }()
			return writeJSON(cmd.OutOrStdout(), book.List())
		},
	}
}

// loadLedger opens the configured slot and loads the ledger. A slot that was
// never written yields an empty ledger; an unreadable or corrupt one is an error.
func loadLedger(ctx context.Context, d *deps) (*ledger.Ledger, func() error, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	slot, closeSlot, err := d.openSlot(ctx, d.cfg, d.log)
	if err != nil {
		return nil, nil, err
	}
	book := ledger.New(slot,
		ledger.WithKey(d.cfg.Ledger.Key),
		ledger.WithPersistTimeout(d.cfg.Ledger.PersistTimeout),
		ledger.WithLogger(d.log),
	)
	var warn *ledger.LoadWarning
	if err := book.Load(ctx); errors.As(err, &warn) && warn.Reason != ledger.ReasonMissing {
		_ = closeSlot()
		return nil, nil, fmt.Errorf("load ledger: %w", err)
	}
	return book, closeSlot, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
