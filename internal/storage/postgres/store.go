package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"bountyOracle/internal/storage"
)

const createTableSQL = `
CREATE TABLE IF NOT EXISTS paid_bounties (
	bounty_id BIGINT PRIMARY KEY,
	tx_hash TEXT NOT NULL,
	block_number BIGINT NOT NULL,
	winner_wallet TEXT NOT NULL,
	paid_at TIMESTAMPTZ NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
)
`

// Store provides Postgres persistence for the paid-bounty ledger.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore connects to Postgres and ensures the ledger table exists.
func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, createTableSQL); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create paid_bounties: %w", err)
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *Store) IsPaid(ctx context.Context, bountyID uint64) (bool, error) {
	var one int
	row := s.pool.QueryRow(ctx, `SELECT 1 FROM paid_bounties WHERE bounty_id = $1`, int64(bountyID))
	if err := row.Scan(&one); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// MarkPaid keeps the first confirmation if a bounty is recorded twice.
func (s *Store) MarkPaid(ctx context.Context, record storage.PaidRecord) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO paid_bounties (bounty_id, tx_hash, block_number, winner_wallet, paid_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (bounty_id) DO NOTHING
	`,
		int64(record.BountyID),
		record.TxHash,
		int64(record.BlockNumber),
		record.WinnerWallet,
		record.PaidAt,
	)
	return err
}

func (s *Store) List(ctx context.Context) ([]storage.PaidRecord, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT bounty_id, tx_hash, block_number, winner_wallet, paid_at
		FROM paid_bounties
		ORDER BY bounty_id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []storage.PaidRecord
	for rows.Next() {
		var (
			rec      storage.PaidRecord
			bountyID int64
			block    int64
		)
		if err := rows.Scan(&bountyID, &rec.TxHash, &block, &rec.WinnerWallet, &rec.PaidAt); err != nil {
			return nil, err
		}
		rec.BountyID = uint64(bountyID)
		rec.BlockNumber = uint64(block)
		out = append(out, rec)
	}
	return out, rows.Err()
}
