package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	goredis "github.com/redis/go-redis/v9"

	"bountyOracle/internal/storage"
)

// DefaultKey is the hash that holds paid bounties.
const DefaultKey = "bounty-oracle:paid"

// Store keeps the paid-bounty ledger in a Redis hash keyed by bounty id.
type Store struct {
	client goredis.Cmdable
	key    string
}

func NewStore(client goredis.Cmdable, key string) *Store {
	if key == "" {
		key = DefaultKey
	}
	return &Store{client: client, key: key}
}

// Dial connects to addr and verifies the connection.
func Dial(ctx context.Context, addr, key string) (*Store, func() error, error) {
	if addr == "" {
		return nil, nil, fmt.Errorf("redis addr is required")
	}
	client := goredis.NewClient(&goredis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("ping redis: %w", err)
	}
	return NewStore(client, key), client.Close, nil
}

func (s *Store) IsPaid(ctx context.Context, bountyID uint64) (bool, error) {
	ok, err := s.client.HExists(ctx, s.key, field(bountyID)).Result()
	if err != nil {
		return false, fmt.Errorf("redis hexists: %w", err)
	}
	return ok, nil
}

// MarkPaid keeps the first confirmation if a bounty is recorded twice.
func (s *Store) MarkPaid(ctx context.Context, record storage.PaidRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal paid record: %w", err)
	}
	if err := s.client.HSetNX(ctx, s.key, field(record.BountyID), data).Err(); err != nil {
		return fmt.Errorf("redis hsetnx: %w", err)
	}
	return nil
}

func (s *Store) List(ctx context.Context) ([]storage.PaidRecord, error) {
	entries, err := s.client.HGetAll(ctx, s.key).Result()
	if err != nil {
		return nil, fmt.Errorf("redis hgetall: %w", err)
	}
	out := make([]storage.PaidRecord, 0, len(entries))
	for k, v := range entries {
		var rec storage.PaidRecord
		if err := json.Unmarshal([]byte(v), &rec); err != nil {
			return nil, fmt.Errorf("unmarshal paid record %s: %w", k, err)
		}
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BountyID < out[j].BountyID })
	return out, nil
}

func field(bountyID uint64) string {
	return strconv.FormatUint(bountyID, 10)
}
