package dating

import (
	"context"
	"errors"
	"sort"

	"github.com/go-redis/redis/v8"
)

const (
	redisMatchKeyPrefix  = "match:"
	redisUserIndexPrefix = "user_matches:"
)

type redisRepository struct {
	client      *redis.Client
	maxAttempts int
}

// NewRedisRepository stores records as JSON strings with a per-user id set.
// Updates use WATCH/MULTI optimistic transactions.
func NewRedisRepository(client *redis.Client, maxAttempts int) Repository {
	return &redisRepository{client: client, maxAttempts: attemptsOrDefault(maxAttempts)}
}

func (r *redisRepository) GetMatch(ctx context.Context, id string) (*Match, error) {
	raw, err := r.client.Get(ctx, redisMatchKeyPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrMatchNotFound
		}
		return nil, storeError(err)
	}
	return decodeMatch(raw)
}

func (r *redisRepository) CreateMatch(ctx context.Context, match *Match) error {
	data, err := encodeMatch(match)
	if err != nil {
		return err
	}
	var created *redis.BoolCmd
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		created = pipe.SetNX(ctx, redisMatchKeyPrefix+match.ID, data, 0)
		pipe.SAdd(ctx, redisUserIndexPrefix+match.UserA, match.ID)
		pipe.SAdd(ctx, redisUserIndexPrefix+match.UserB, match.ID)
		return nil
	})
	if err != nil {
		return storeError(err)
	}
	if !created.Val() {
		return ErrMatchExists
	}
	return nil
}

func (r *redisRepository) UpdateMatch(ctx context.Context, id string, fn UpdateFunc) (*Match, error) {
	key := redisMatchKeyPrefix + id
	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		var result *Match
		err := r.client.Watch(ctx, func(tx *redis.Tx) error {
			raw, err := tx.Get(ctx, key).Bytes()
			if errors.Is(err, redis.Nil) {
				return ErrMatchNotFound
			}
			if err != nil {
				return storeError(err)
			}
			cur, err := decodeMatch(raw)
			if err != nil {
				return err
			}

			next, err := fn(cur.Clone())
			if err != nil {
				return err
			}
			if next == nil {
				result = cur
				return nil
			}

			data, err := encodeMatch(next)
			if err != nil {
				return err
			}
			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, data, 0)
				return nil
			})
			if err != nil {
				if errors.Is(err, redis.TxFailedErr) {
					return err
				}
				return storeError(err)
			}
			result = next
			return nil
		}, key)

		switch {
		case err == nil:
			return result, nil
		case errors.Is(err, redis.TxFailedErr):
			RecordTxConflict("redis")
			continue
		default:
			return nil, err
		}
	}
	return nil, ErrConcurrentUpdate
}

func (r *redisRepository) ListUserMatches(ctx context.Context, userID string) ([]*Match, error) {
	ids, err := r.client.SMembers(ctx, redisUserIndexPrefix+userID).Result()
	if err != nil {
		return nil, storeError(err)
	}
	if len(ids) == 0 {
		return []*Match{}, nil
	}
	sort.Strings(ids)

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = redisMatchKeyPrefix + id
	}
	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, storeError(err)
	}

	matches := make([]*Match, 0, len(values))
	for _, v := range values {
		s, ok := v.(string)
		if !ok {
			continue
		}
		m, err := decodeMatch([]byte(s))
		if err != nil {
			return nil, err
		}
		matches = append(matches, m)
	}
	return matches, nil
}

func (r *redisRepository) DeleteMatch(ctx context.Context, id string) error {
	a, b, err := ParseMatchID(id)
	if err != nil {
		return err
	}
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, redisMatchKeyPrefix+id)
		pipe.SRem(ctx, redisUserIndexPrefix+a, id)
		pipe.SRem(ctx, redisUserIndexPrefix+b, id)
		return nil
	})
	if err != nil {
		return storeError(err)
	}
	return nil
}

func (r *redisRepository) DeleteUserMatches(ctx context.Context, userID string) (int, error) {
	ids, err := r.client.SMembers(ctx, redisUserIndexPrefix+userID).Result()
	if err != nil {
		return 0, storeError(err)
	}
	deleted := 0
	for _, id := range ids {
		if err := r.DeleteMatch(ctx, id); err != nil {
			return deleted, err
		}
		deleted++
	}
	if err := r.client.Del(ctx, redisUserIndexPrefix+userID).Err(); err != nil {
		return deleted, storeError(err)
	}
	return deleted, nil
}
