package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "oracle",
		Short:        "Bounty payout oracle for the BonusEscrow contract",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Approve bounties for merged pull requests in the event feed",
		RunE:  runOracle,
	}

	addChainFlags(runCmd)
	runCmd.Flags().String("feed", "./dummy-events.json", "event feed path (JSON array or JSONL)")
	runCmd.Flags().String("feed-format", "auto", "feed format (auto, json, jsonl)")
	runCmd.Flags().String("private-key", "", "hex private key; empty sends from the unlocked owner account")
	runCmd.Flags().String("sender", "", "override the owner() lookup with a fixed sender address")
	runCmd.Flags().Int("workers", 4, "bounties processed concurrently")
	runCmd.Flags().Duration("confirm-timeout", 2*time.Minute, "maximum wait for a receipt")
	runCmd.Flags().Duration("poll-interval", 2*time.Second, "receipt polling interval")
	runCmd.Flags().Int("max-retries", 3, "retry attempts for view calls")
	runCmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	addLedgerFlags(runCmd)
	runCmd.Flags().String("journal", "", "append per-event outcomes to this JSONL file")
	runCmd.Flags().String("metrics-file", "", "write Prometheus textfile metrics after the run")
	runCmd.Flags().Bool("strict", false, "exit non-zero when the run aborts before processing events")
	runCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(runCmd)

	ownerCmd := &cobra.Command{
		Use:   "owner",
		Short: "Print the escrow owner that the oracle sends approvals from",
		RunE:  runOwner,
	}

	addChainFlags(ownerCmd)
	ownerCmd.Flags().Int("max-retries", 3, "retry attempts for view calls")
	ownerCmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	ownerCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(ownerCmd)

	paidCmd := &cobra.Command{
		Use:   "paid",
		Short: "List bounties recorded as paid",
		RunE:  runPaid,
	}

	addLedgerFlags(paidCmd)
	paidCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(paidCmd)

	return root
}

func addChainFlags(cmd *cobra.Command) {
	cmd.Flags().String("rpc", "http://127.0.0.1:8545", "JSON-RPC URL")
	cmd.Flags().String("address-file", "./deployed_contract_address.json", "deployed contract address file")
	cmd.Flags().String("abi-file", "", "contract artifact or ABI JSON (built-in BonusEscrow ABI when empty)")
}

func addLedgerFlags(cmd *cobra.Command) {
	cmd.Flags().String("ledger", "file", "paid-bounty ledger (none, memory, file, postgres, redis)")
	cmd.Flags().String("ledger-file", "./data/paid_bounties.json", "ledger path for the file backend")
	cmd.Flags().String("pg-dsn", "", "Postgres DSN for the postgres backend")
	cmd.Flags().String("redis-addr", "", "Redis address for the redis backend")
	cmd.Flags().String("redis-key", "bounty-oracle:paid", "Redis hash holding paid bounties")
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
