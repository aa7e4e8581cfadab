package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"tracebloom/internal/core/domain"

	goredis "github.com/redis/go-redis/v9"
)

// ChallengeStore implements ports.ChallengeStore using Redis.
// One challenge per wallet: a plain SET replaces any outstanding challenge,
// so reissuing supersedes the previous nonce. The TTL enforces expiry even
// if the challenge is never consumed.
type ChallengeStore struct {
	client *goredis.Client
	prefix string
}

// NewChallengeStore creates a new Redis-backed challenge store.
func NewChallengeStore(client *goredis.Client) *ChallengeStore {
	return &ChallengeStore{
		client: client,
		prefix: "challenge:",
	}
}

// Put stores the challenge under its wallet address, replacing any
// outstanding one.
func (s *ChallengeStore) Put(ctx context.Context, challenge *domain.Challenge, ttl time.Duration) error {
	data, err := json.Marshal(challenge)
	if err != nil {
		return fmt.Errorf("marshaling challenge: %w", err)
	}

	key := s.prefix + challenge.WalletAddress
	if err := s.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis challenge put: %w", err)
	}
	return nil
}

// Consume atomically retrieves and deletes the challenge for a wallet.
// Returns (nil, nil) when no challenge is outstanding. A challenge is
// single-use: once consumed it is gone whether or not verification succeeds.
func (s *ChallengeStore) Consume(ctx context.Context, walletAddress string) (*domain.Challenge, error) {
	key := s.prefix + walletAddress
	data, err := s.client.GetDel(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis challenge consume: %w", err)
	}

	var challenge domain.Challenge
	if err := json.Unmarshal(data, &challenge); err != nil {
		return nil, fmt.Errorf("unmarshaling challenge: %w", err)
	}
	return &challenge, nil
}
