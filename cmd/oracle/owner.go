package main

import (
	"context"
	"fmt"
	"math/big"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"bountyOracle/internal/chain"
	"bountyOracle/internal/config"
	"bountyOracle/internal/escrow"
	"bountyOracle/internal/oracle"
)

func runOwner(cmd *cobra.Command, _ []string) error {
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

	if cfg.RPCURL == "" {
		return fmt.Errorf("rpc url is required")
	}

	escrowAddress, err := config.LoadDeployment(cfg.AddressFile)
	if err != nil {
		return err
	}
	contractABI, err := escrow.LoadABI(cfg.ABIFile)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	chainClient, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return fmt.Errorf("connect rpc: %w", err)
	}
	defer chainClient.Close()

	ledger, err := escrow.NewEthLedger(ctx, chainClient, escrow.EthLedgerConfig{
		Address: escrowAddress,
		ABI:     contractABI,
	}, logger)
	if err != nil {
		return fmt.Errorf("escrow client: %w", err)
	}

	submitter := oracle.NewSubmitter(oracle.SubmitterConfig{
		MaxRetries:   cfg.MaxRetries,
		RetryBackoff: cfg.RetryBackoff,
	}, ledger, logger)
	owner, err := submitter.ResolveSender(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "contract: %s\n", ledger.Address().Hex())
	fmt.Fprintf(out, "owner: %s\n", owner.Hex())

	if _, ok := contractABI.Methods[escrow.MethodNextBountyID]; ok {
		vals, err := ledger.Call(ctx, escrow.MethodNextBountyID)
		if err != nil {
			logger.Warn("nextBountyId lookup failed", zap.Error(err))
		} else if len(vals) > 0 {
			if next, ok := vals[0].(*big.Int); ok {
				fmt.Fprintf(out, "next bounty id: %s\n", next)
			}
		}
	}
	return nil
}
