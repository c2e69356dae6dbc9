package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"bountyOracle/internal/config"
)

func runPaid(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.Ledger == config.LedgerNone || cfg.Ledger == config.LedgerMemory {
		return fmt.Errorf("ledger %q does not persist paid bounties", cfg.Ledger)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ledger, closeLedger, err := openPaidLedger(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeLedger()

	records, err := ledger.List(ctx)
	if err != nil {
		return fmt.Errorf("list paid bounties: %w", err)
	}

	out := cmd.OutOrStdout()
	for _, rec := range records {
		fmt.Fprintf(out, "bountyId=%d block=%d tx=%s winner=%s paid_at=%s\n",
			rec.BountyID, rec.BlockNumber, rec.TxHash, rec.WinnerWallet, rec.PaidAt.Format(time.RFC3339))
	}
	fmt.Fprintf(out, "%d paid bounties\n", len(records))
	return nil
}
