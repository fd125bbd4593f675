package trust

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

const (
	merchantKeyPrefix = "trust:merchant:"
	appliedKeyPrefix  = "trust:applied:"

	fieldScore   = "score"
	fieldVersion = "version"
)

// RedisStore keeps each merchant in a hash {score, version} and the applied
// event ids in a set. Commits run under WATCH on both keys.
type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func merchantKey(id string) string { return merchantKeyPrefix + id }
func appliedKey(id string) string  { return appliedKeyPrefix + id }

func (s *RedisStore) Register(ctx context.Context, merchantID string, baseScore float64) (bool, error) {
	var created *redis.BoolCmd
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		created = pipe.HSetNX(ctx, merchantKey(merchantID), fieldScore, formatScore(baseScore))
		pipe.HSetNX(ctx, merchantKey(merchantID), fieldVersion, 0)
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("register merchant %s: %w", merchantID, err)
	}
	return created.Val(), nil
}

func (s *RedisStore) Load(ctx context.Context, merchantID string) (State, error) {
	return loadState(ctx, s.rdb, merchantID)
}

func (s *RedisStore) Applied(ctx context.Context, merchantID, eventID string) (bool, error) {
	applied, err := s.rdb.SIsMember(ctx, appliedKey(merchantID), eventID).Result()
	if err != nil {
		return false, fmt.Errorf("check applied event %s: %w", eventID, err)
	}
	return applied, nil
}

func (s *RedisStore) Commit(ctx context.Context, merchantID string, expectedVersion int64, score float64, eventID string) error {
	mKey, aKey := merchantKey(merchantID), appliedKey(merchantID)

	txf := func(tx *redis.Tx) error {
		state, err := loadState(ctx, tx, merchantID)
		if err != nil {
			return err
		}
		if state.Version != expectedVersion {
			return ErrConflict
		}
		applied, err := tx.SIsMember(ctx, aKey, eventID).Result()
		if err != nil {
			return err
		}
		if applied {
			return ErrConflict
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, mKey, fieldScore, formatScore(score), fieldVersion, expectedVersion+1)
			pipe.SAdd(ctx, aKey, eventID)
			return nil
		})
		return err
	}

	err := s.rdb.Watch(ctx, txf, mKey, aKey)
	if errors.Is(err, redis.TxFailedErr) {
		return ErrConflict
	}
	return err
}

func (s *RedisStore) Scores(ctx context.Context, merchantIDs []string) (map[string]float64, error) {
	out := make(map[string]float64, len(merchantIDs))
	if len(merchantIDs) == 0 {
		return out, nil
	}

	cmds := make([]*redis.StringCmd, len(merchantIDs))
	_, err := s.rdb.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, id := range merchantIDs {
			cmds[i] = pipe.HGet(ctx, merchantKey(id), fieldScore)
		}
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("read trust scores: %w", err)
	}

	for i, cmd := range cmds {
		score, err := cmd.Float64()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("parse trust score of %s: %w", merchantIDs[i], err)
		}
		out[merchantIDs[i]] = score
	}
	return out, nil
}

// hashReader is satisfied by both *redis.Client and *redis.Tx.
type hashReader interface {
	HMGet(ctx context.Context, key string, fields ...string) *redis.SliceCmd
}

func loadState(ctx context.Context, c hashReader, merchantID string) (State, error) {
	values, err := c.HMGet(ctx, merchantKey(merchantID), fieldScore, fieldVersion).Result()
	if err != nil {
		return State{}, fmt.Errorf("load merchant %s: %w", merchantID, err)
	}
	if len(values) != 2 || values[0] == nil {
		return State{}, ErrMerchantNotFound
	}

	state := State{MerchantID: merchantID}
	rawScore, _ := values[0].(string)
	if state.Score, err = strconv.ParseFloat(rawScore, 64); err != nil {
		return State{}, fmt.Errorf("parse score of %s: %w", merchantID, err)
	}
	if rawVersion, ok := values[1].(string); ok {
		if state.Version, err = strconv.ParseInt(rawVersion, 10, 64); err != nil {
			return State{}, fmt.Errorf("parse version of %s: %w", merchantID, err)
		}
	}
	return state, nil
}

func formatScore(score float64) string {
	return strconv.FormatFloat(score, 'f', -1, 64)
}
