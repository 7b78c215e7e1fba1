package effects

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	apperrors "github.com/villagemind/spellcore/internal/errors"
)

type redisRepo struct {
	client       *redis.Client
	timeProvider TimeProvider
}

// RedisRepoConfig configures the redis-backed repository.
type RedisRepoConfig struct {
	Client       *redis.Client
	TimeProvider TimeProvider
}

// NewRedis creates a redis-backed effect repository.
func NewRedis(cfg *RedisRepoConfig) Repository {
	tp := cfg.TimeProvider
	if tp == nil {
		tp = RealTimeProvider{}
	}
	return &redisRepo{
		client:       cfg.Client,
		timeProvider: tp,
	}
}

func effectKey(id string) string {
	return fmt.Sprintf("effect:%s", id)
}

func grimoireKey(grimoireID string) string {
	return fmt.Sprintf("grimoire:%s:effects", grimoireID)
}

func (r *redisRepo) set(ctx context.Context, record *Record) error {
	jsonData, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal effect record: %w", err)
	}

	pipe := r.client.Pipeline()
	pipe.Set(ctx, effectKey(record.ID), string(jsonData), 0)
	if record.GrimoireID != "" {
		pipe.SAdd(ctx, grimoireKey(record.GrimoireID), record.ID)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to set effect in Redis: %w", err)
	}
	return nil
}

func (r *redisRepo) Create(ctx context.Context, record *Record) error {
	if record == nil {
		return apperrors.InvalidArgument("record cannot be nil")
	}
	if record.ID == "" {
		return apperrors.InvalidArgument("record has no id")
	}

	now := r.timeProvider.Now()
	record.CreatedAt = now
	record.UpdatedAt = now

	return r.set(ctx, record)
}

func (r *redisRepo) Get(ctx context.Context, id string) (*Record, error) {
	if id == "" {
		return nil, apperrors.InvalidArgument("id cannot be empty")
	}

	jsonData, err := r.client.Get(ctx, effectKey(id)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, apperrors.NotFoundf("effect %q not found", id)
		}
		return nil, fmt.Errorf("failed to get effect from Redis: %w", err)
	}

	var record Record
	if err := json.Unmarshal(jsonData, &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal effect record: %w", err)
	}
	return &record, nil
}

func (r *redisRepo) Update(ctx context.Context, record *Record) error {
	if record == nil {
		return apperrors.InvalidArgument("record cannot be nil")
	}
	if record.ID == "" {
		return apperrors.InvalidArgument("record has no id")
	}

	record.UpdatedAt = r.timeProvider.Now()

	return r.set(ctx, record)
}

func (r *redisRepo) Delete(ctx context.Context, id string) error {
	record, err := r.Get(ctx, id)
	if err != nil {
		return err
	}

	pipe := r.client.Pipeline()
	pipe.Del(ctx, effectKey(id))
	if record.GrimoireID != "" {
		pipe.SRem(ctx, grimoireKey(record.GrimoireID), id)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete effect from Redis: %w", err)
	}
	return nil
}

func (r *redisRepo) ListByGrimoire(ctx context.Context, grimoireID string) ([]*Record, error) {
	if grimoireID == "" {
		return nil, apperrors.InvalidArgument("grimoireID cannot be empty")
	}

	ids, err := r.client.SMembers(ctx, grimoireKey(grimoireID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get grimoire effects from Redis: %w", err)
	}

	records := make([]*Record, len(ids))

	g, ctx := errgroup.WithContext(ctx)
	for i, id := range ids {
		g.Go(func() error {
			record, err := r.Get(ctx, id)
			if err != nil {
				return fmt.Errorf("failed to get effect %s: %w", id, err)
			}
			records[i] = record
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return records, nil
}
