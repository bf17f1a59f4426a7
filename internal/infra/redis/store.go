package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/chainbooks/chainbooks/internal/analyzer"
	"github.com/chainbooks/chainbooks/pkg/logger"
)

const (
	// DefaultTTL bounds how long an analysis stays served before a client
	// has to re-run it.
	DefaultTTL = 24 * time.Hour

	// KeyPrefix is the prefix for analysis keys
	KeyPrefix = "analysis:"
)

// Store is a Redis-backed AnalysisStore. Analyses are stored as one JSON
// document per wallet with a TTL.
type Store struct {
	client *redis.Client
	ttl    time.Duration
	logger *logger.Logger
}

// NewStore creates an analysis store with the default TTL.
func NewStore(client *redis.Client, log *logger.Logger) *Store {
	return NewStoreWithTTL(client, DefaultTTL, log)
}

// NewStoreWithTTL creates an analysis store with a custom TTL.
func NewStoreWithTTL(client *redis.Client, ttl time.Duration, log *logger.Logger) *Store {
	return &Store{
		client: client,
		ttl:    ttl,
		logger: log.WithField("component", "redis_store"),
	}
}

func key(address string) string {
	return KeyPrefix + address
}

// Save stores the analysis under its wallet address, replacing any
// previous run.
func (s *Store) Save(ctx context.Context, analysis *analyzer.Analysis) error {
	data, err := json.Marshal(analysis)
	if err != nil {
		return fmt.Errorf("failed to marshal analysis: %w", err)
	}

	if err := s.client.Set(ctx, key(analysis.WalletAddress), data, s.ttl).Err(); err != nil {
		s.logger.Error("store error", "operation", "save", "wallet", analysis.WalletAddress, "error", err)
		return fmt.Errorf("failed to save analysis: %w", err)
	}

	s.logger.Debug("analysis saved", "wallet", analysis.WalletAddress, "transactions", len(analysis.Transactions))
	return nil
}

// Load retrieves the stored analysis for a wallet, or analyzer.ErrNotFound.
func (s *Store) Load(ctx context.Context, address string) (*analyzer.Analysis, error) {
	val, err := s.client.Get(ctx, key(address)).Result()
	if err == redis.Nil {
		s.logger.Debug("store miss", "wallet", address)
		return nil, analyzer.ErrNotFound
	}
	if err != nil {
		s.logger.Error("store error", "operation", "load", "wallet", address, "error", err)
		return nil, fmt.Errorf("failed to load analysis: %w", err)
	}

	var analysis analyzer.Analysis
	if err := json.Unmarshal([]byte(val), &analysis); err != nil {
		return nil, fmt.Errorf("failed to unmarshal analysis: %w", err)
	}

	return &analysis, nil
}

// Delete removes the stored analysis for a wallet. Deleting an absent
// analysis returns analyzer.ErrNotFound.
func (s *Store) Delete(ctx context.Context, address string) error {
	deleted, err := s.client.Del(ctx, key(address)).Result()
	if err != nil {
		return fmt.Errorf("failed to delete analysis: %w", err)
	}
	if deleted == 0 {
		return analyzer.ErrNotFound
	}
	return nil
}
