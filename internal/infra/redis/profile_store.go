package redis

import (
	"context"
	"errors"
	"fmt"

	"ffquiz-service/internal/domain"
	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
)

// maxTxRetries bounds optimistic-transaction retries under contention.
const maxTxRetries = 50

// getter is satisfied by both *redis.Client and *redis.Tx.
type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

// ProfileStore keeps each profile as a JSON document and mirrors the ranked
// fields into sorted sets:
//
//	SET  profile:{userID}               {json}
//	SET  profile:gameid:{gameID}        {userID}
//	SET  profile:email:{email}          {userID}
//	ZADD leaderboard:{field} {value}    {userID}
//
// Every write runs inside WATCH/MULTI/EXEC on the profile key.
type ProfileStore struct {
	client *redis.Client
}

func NewProfileStore(client *redis.Client) *ProfileStore {
	return &ProfileStore{client: client}
}

func (s *ProfileStore) Get(ctx context.Context, userID string) (domain.Profile, error) {
	return s.get(ctx, s.client, userID)
}

func (s *ProfileStore) Create(ctx context.Context, p domain.Profile) (domain.Profile, error) {
	key := profileKey(p.UserID)
	watched := []string{key}
	if p.GameID != "" {
		watched = append(watched, gameIDKey(p.GameID))
	}
	if p.Email != "" {
		watched = append(watched, emailKey(p.Email))
	}

	var out domain.Profile
	err := s.withRetry(ctx, func(tx *redis.Tx) error {
		existing, err := s.get(ctx, tx, p.UserID)
		if err == nil {
			out = existing
			return nil
		}
		if !errors.Is(err, domain.ErrProfileNotFound) {
			return err
		}
		if p.GameID != "" {
			if n, err := tx.Exists(ctx, gameIDKey(p.GameID)).Result(); err != nil {
				return err
			} else if n > 0 {
				return domain.ErrGameIDRegistered
			}
		}
		if p.Email != "" {
			if n, err := tx.Exists(ctx, emailKey(p.Email)).Result(); err != nil {
				return err
			} else if n > 0 {
				return domain.ErrEmailRegistered
			}
		}
		data, err := json.Marshal(p)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)
			if p.GameID != "" {
				pipe.Set(ctx, gameIDKey(p.GameID), p.UserID, 0)
			}
			if p.Email != "" {
				pipe.Set(ctx, emailKey(p.Email), p.UserID, 0)
			}
			addRanks(ctx, pipe, p)
			return nil
		})
		if err != nil {
			return err
		}
		out = p.Clone()
		return nil
	}, watched...)
	return out, err
}

func (s *ProfileStore) AtomicUpdate(ctx context.Context, userID string, mutate func(*domain.Profile) error) (domain.Profile, error) {
	key := profileKey(userID)
	var out domain.Profile
	err := s.withRetry(ctx, func(tx *redis.Tx) error {
		current, err := s.get(ctx, tx, userID)
		if err != nil {
			return err
		}
		if err := mutate(&current); err != nil {
			return err
		}
		current.UserID = userID
		data, err := json.Marshal(current)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)
			addRanks(ctx, pipe, current)
			return nil
		})
		if err != nil {
			return err
		}
		out = current
		return nil
	}, key)
	return out, err
}

func (s *ProfileStore) TopByField(ctx context.Context, field domain.ProfileField, limit int) ([]domain.Profile, error) {
	if limit <= 0 {
		return nil, nil
	}
	ids, err := s.client.ZRevRange(ctx, rankKey(field), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("rank %s: %w", field, err)
	}
	if len(ids) == 0 {
		return []domain.Profile{}, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = profileKey(id)
	}
	raws, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("load ranked profiles: %w", err)
	}
	out := make([]domain.Profile, 0, len(raws))
	for _, raw := range raws {
		str, ok := raw.(string)
		if !ok {
			continue
		}
		var p domain.Profile
		if err := json.Unmarshal([]byte(str), &p); err != nil {
			return nil, fmt.Errorf("decode profile: %w", err)
		}
		out = append(out, p)
	}
	return out, nil
}

func (s *ProfileStore) FindByGameID(ctx context.Context, gameID string) (domain.Profile, error) {
	return s.findBy(ctx, gameIDKey(gameID))
}

func (s *ProfileStore) FindByEmail(ctx context.Context, email string) (domain.Profile, error) {
	return s.findBy(ctx, emailKey(email))
}

func (s *ProfileStore) findBy(ctx context.Context, indexKey string) (domain.Profile, error) {
	userID, err := s.client.Get(ctx, indexKey).Result()
	if errors.Is(err, redis.Nil) {
		return domain.Profile{}, domain.ErrProfileNotFound
	}
	if err != nil {
		return domain.Profile{}, fmt.Errorf("lookup %s: %w", indexKey, err)
	}
	return s.Get(ctx, userID)
}

func (s *ProfileStore) get(ctx context.Context, c getter, userID string) (domain.Profile, error) {
	data, err := c.Get(ctx, profileKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Profile{}, domain.ErrProfileNotFound
	}
	if err != nil {
		return domain.Profile{}, fmt.Errorf("get profile: %w", err)
	}
	var p domain.Profile
	if err := json.Unmarshal(data, &p); err != nil {
		return domain.Profile{}, fmt.Errorf("decode profile: %w", err)
	}
	return p, nil
}

func (s *ProfileStore) withRetry(ctx context.Context, fn func(*redis.Tx) error, keys ...string) error {
	for i := 0; i < maxTxRetries; i++ {
		err := s.client.Watch(ctx, fn, keys...)
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
	}
	return fmt.Errorf("profile %v: too much contention", keys)
}

func addRanks(ctx context.Context, pipe redis.Pipeliner, p domain.Profile) {
	for _, field := range []domain.ProfileField{domain.FieldTotalCoins, domain.FieldQuizzesCompleted} {
		pipe.ZAdd(ctx, rankKey(field), redis.Z{Score: float64(field.Value(p)), Member: p.UserID})
	}
}

func profileKey(userID string) string {
	return "profile:" + userID
}

func gameIDKey(gameID string) string {
	return "profile:gameid:" + gameID
}

func emailKey(email string) string {
	return "profile:email:" + email
}

func rankKey(field domain.ProfileField) string {
	return "leaderboard:" + string(field)
}
