package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"bountyOracle/internal/chain"
	"bountyOracle/internal/config"
	"bountyOracle/internal/escrow"
	"bountyOracle/internal/feed"
	"bountyOracle/internal/metrics"
	"bountyOracle/internal/oracle"
	"bountyOracle/internal/storage"
)

func runOracle(cmd *cobra.Command, _ []string) error {
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

	if err := cfg.Validate(); err != nil {
		return err
	}

	runID := uuid.NewString()
	logger = logger.With(zap.String("run_id", runID))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("oracle start",
		zap.String("rpc", cfg.RPCURL),
		zap.String("address_file", cfg.AddressFile),
		zap.String("feed", cfg.Feed),
		zap.Int("workers", cfg.Workers),
		zap.Duration("confirm_timeout", cfg.ConfirmTimeout),
		zap.String("ledger", cfg.Ledger),
		zap.Bool("local_signer", cfg.PrivateKey != ""),
	)

	result := execute(ctx, cfg, runID, logger)

	out := cmd.OutOrStdout()
	if err := result.Report.Render(out); err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	if result.Fatal != nil {
		fmt.Fprintf(out, "run aborted: %v\n", result.Fatal)
		if cfg.Strict {
			return result.Fatal
		}
	}
	return nil
}

// execute performs one run. Run-level failures come back in RunResult.Fatal.
func execute(ctx context.Context, cfg config.Config, runID string, logger *zap.Logger) oracle.RunResult {
	fatal := func(err error) oracle.RunResult {
		logger.Error("run aborted", zap.Error(err))
		return oracle.FatalResult(runID, err)
	}

	escrowAddress, err := config.LoadDeployment(cfg.AddressFile)
	if err != nil {
		return fatal(err)
	}
	logger.Info("escrow contract", zap.String("address", escrowAddress.Hex()))

	contractABI, err := escrow.LoadABI(cfg.ABIFile)
	if err != nil {
		return fatal(err)
	}

	format, err := feed.ParseFormat(cfg.FeedFormat)
	if err != nil {
		return fatal(err)
	}

	chainClient, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return fatal(fmt.Errorf("connect rpc: %w", err))
	}
	defer chainClient.Close()

	if ok, err := chainClient.HasCode(ctx, escrowAddress); err != nil {
		logger.Warn("contract code check failed", zap.Error(err))
	} else if !ok {
		logger.Warn("no contract code at escrow address", zap.String("address", escrowAddress.Hex()))
	}

	ledger, err := escrow.NewEthLedger(ctx, chainClient, escrow.EthLedgerConfig{
		Address:       escrowAddress,
		ABI:           contractABI,
		PrivateKeyHex: cfg.PrivateKey,
	}, logger)
	if err != nil {
		return fatal(fmt.Errorf("escrow client: %w", err))
	}

	paid, closePaid, err := openPaidLedger(ctx, cfg)
	if err != nil {
		return fatal(fmt.Errorf("paid ledger: %w", err))
	}
	defer closePaid()

	submitterCfg := oracle.SubmitterConfig{
		MaxRetries:   cfg.MaxRetries,
		RetryBackoff: cfg.RetryBackoff,
	}
	if signer, ok := ledger.SignerAddress(); ok {
		submitterCfg.Signer = signer
	}
	submitter := oracle.NewSubmitter(submitterCfg, ledger, logger)
	if cfg.Sender != "" {
		sender, err := config.ParseAddress(cfg.Sender)
		if err != nil {
			return fatal(fmt.Errorf("sender: %w", err))
		}
		submitter.SetSender(sender)
		logger.Info("sender overridden", zap.String("sender", sender.Hex()))
	}

	tracker := oracle.NewTracker(oracle.TrackerConfig{
		Timeout:      cfg.ConfirmTimeout,
		PollInterval: cfg.PollInterval,
	}, ledger, logger)

	var (
		observer oracle.Observer
		recorder *metrics.Recorder
	)
	if cfg.MetricsFile != "" {
		recorder = metrics.NewRecorder()
		observer = recorder
	}

	pipeline := oracle.NewPipeline(oracle.PipelineConfig{Workers: cfg.Workers}, submitter, tracker, paid, observer, logger)

	var journal storage.Journal
	if cfg.Journal != "" {
		jsonl := storage.NewJsonlJournal(cfg.Journal)
		defer func() {
			if err := jsonl.Close(); err != nil {
				logger.Error("close journal failed", zap.Error(err))
			}
		}()
		journal = jsonl
	}

	runner := oracle.NewRunner(runID, feed.NewSource(cfg.Feed, format), submitter, pipeline, journal, logger)
	result := runner.Run(ctx)

	if recorder != nil {
		if err := recorder.WriteTextfile(cfg.MetricsFile, time.Now()); err != nil {
			logger.Error("write metrics failed", zap.Error(err))
		}
	}
	return result
}
