package main

import (
	"context"
	"fmt"

	"bountyOracle/internal/config"
	"bountyOracle/internal/storage"
	"bountyOracle/internal/storage/postgres"
	redisstore "bountyOracle/internal/storage/redis"
)

func openPaidLedger(ctx context.Context, cfg config.Config) (storage.PaidLedger, func(), error) {
	noop := func() {}
	switch cfg.Ledger {
	case config.LedgerNone:
		return nil, noop, nil
	case config.LedgerMemory:
		return storage.NewMemoryLedger(), noop, nil
	case config.LedgerFile:
		ledger, err := storage.NewFileLedger(cfg.LedgerFile)
		if err != nil {
			return nil, nil, err
		}
		return ledger, noop, nil
	case config.LedgerPostgres:
		store, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		return store, store.Close, nil
	case config.LedgerRedis:
		store, closeFn, err := redisstore.Dial(ctx, cfg.RedisAddr, cfg.RedisKey)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { _ = closeFn() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown ledger backend: %s", cfg.Ledger)
	}
}
