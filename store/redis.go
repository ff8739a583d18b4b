package store

import (
	"context"
	"errors"
	"fmt"
	"geo-editor/model"

	"github.com/redis/go-redis/v9"
)

const (
	pointsKeyPrefix = "points:"         // points:{project_id} -> JSON array
	projectsSetKey  = "points:projects" // set of project ids with stored points
)

// RedisStore keeps each project's collection as one JSON value.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore wraps an existing client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Load returns the collection, empty when the key does not exist.
func (r *RedisStore) Load(ctx context.Context, projectID string) ([]model.Point, error) {
	data, err := r.client.Get(ctx, r.pointsKey(projectID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return []model.Point{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get points: %w", err)
	}
	return DecodePoints(data)
}

// Save replaces the collection.
func (r *RedisStore) Save(ctx context.Context, projectID string, points []model.Point) ([]model.Point, error) {
	data, err := EncodePoints(points)
	if err != nil {
		return nil, err
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, r.pointsKey(projectID), data, 0)
	pipe.SAdd(ctx, projectsSetKey, projectID)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to save points: %w", err)
	}
	return DecodePoints(data)
}

// Projects lists project ids that have stored points.
func (r *RedisStore) Projects(ctx context.Context) ([]string, error) {
	ids, err := r.client.SMembers(ctx, projectsSetKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	return ids, nil
}

func (r *RedisStore) pointsKey(projectID string) string {
	return pointsKeyPrefix + projectID
}
