// Package tasks hands long running work to the external task runner through
// a Redis list.
package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/cubestudio/dataset-admin/pkg/config"
)

const (
	UpdateDataset = "update_dataset"

	dialTimeout = 5 * time.Second
)

var ErrEmptyQueue = errors.New("task queue is empty")

type Task struct {
	ID         string                 `json:"id"`
	Task       string                 `json:"task"`
	Kwargs     map[string]interface{} `json:"kwargs"`
	EnqueuedAt time.Time              `json:"enqueued_at"`
}

// Queue is a FIFO of tasks: producers push on the left, the runner pops on the right.
type Queue interface {
	Enqueue(ctx context.Context, name string, kwargs map[string]interface{}) (*Task, error)
}

type RedisQueue struct {
	client *redis.Client
	key    string
}

// NewRedisQueue connects to the configured Redis server and verifies the connection.
func NewRedisQueue(ctx context.Context, cfg config.TasksConfig) (*RedisQueue, error) {
	if cfg.RedisAddr == "" {
		return nil, errors.New("tasks.redis_addr is empty")
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddr,
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		DialTimeout:  dialTimeout,
		ReadTimeout:  dialTimeout,
		WriteTimeout: dialTimeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()

		return nil, fmt.Errorf("redis ping failed (addr=%s db=%d): %w", cfg.RedisAddr, cfg.RedisDB, err)
	}

	return NewRedisQueueFromClient(client, cfg.Queue), nil
}

func NewRedisQueueFromClient(client *redis.Client, key string) *RedisQueue {
	if key == "" {
		key = config.Default().Tasks.Queue
	}

	return &RedisQueue{client: client, key: key}
}

func (q *RedisQueue) Enqueue(ctx context.Context, name string, kwargs map[string]interface{}) (*Task, error) {
	task := &Task{
		ID:         uuid.NewString(),
		Task:       name,
		Kwargs:     kwargs,
		EnqueuedAt: time.Now().UTC(),
	}

	payload, err := json.Marshal(task)
	if err != nil {
		return nil, fmt.Errorf("failed to encode task %s: %w", name, err)
	}

	if err := q.client.LPush(ctx, q.key, payload).Err(); err != nil {
		return nil, fmt.Errorf("enqueue error: %w", err)
	}

	return task, nil
}

func (q *RedisQueue) Dequeue(ctx context.Context) (*Task, error) {
	payload, err := q.client.RPop(ctx, q.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrEmptyQueue
		}

		return nil, fmt.Errorf("dequeue error: %w", err)
	}

	var task Task
	if err := json.Unmarshal(payload, &task); err != nil {
		return nil, fmt.Errorf("failed to decode task: %w", err)
	}

	return &task, nil
}

func (q *RedisQueue) Len(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, q.key).Result()
}

func (q *RedisQueue) Ping(ctx context.Context) error {
	return q.client.Ping(ctx).Err()
}

func (q *RedisQueue) Close() error {
	return q.client.Close()
}
