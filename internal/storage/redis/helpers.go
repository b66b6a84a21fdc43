package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/lingora/lingora/internal/storage"
	"github.com/redis/go-redis/v9"
)

func recordTTL() time.Duration {
	return recordTTLSeconds * time.Second
}

// parseUsageCounter converts a Redis hash to UsageCounter
func parseUsageCounter(data map[string]string) (*storage.UsageCounter, error) {
	if len(data) == 0 {
		return nil, storage.ErrNotFound
	}

	count, err := strconv.ParseInt(data["count"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("failed to parse count: %w", err)
	}

	return &storage.UsageCounter{
		UserKey:    data["user_key"],
		FeatureKey: data["feature_key"],
		Day:        data["day"],
		Count:      count,
	}, nil
}

// parseCompletionFlag converts a Redis hash to CompletionFlag
func parseCompletionFlag(data map[string]string) (*storage.CompletionFlag, error) {
	if len(data) == 0 {
		return nil, storage.ErrNotFound
	}

	status, err := storage.ParseFlagStatus(data["status"])
	if err != nil {
		return nil, err
	}

	return &storage.CompletionFlag{
		UserKey:    data["user_key"],
		FeatureKey: data["feature_key"],
		Day:        data["day"],
		Status:     status,
	}, nil
}

// parseTimerState converts a Redis hash to TimerState
func parseTimerState(data map[string]string) (*storage.TimerState, error) {
	if len(data) == 0 {
		return nil, storage.ErrNotFound
	}

	timeLeft, err := strconv.Atoi(data["time_left"])
	if err != nil {
		return nil, fmt.Errorf("failed to parse time_left: %w", err)
	}

	duration, err := strconv.Atoi(data["duration"])
	if err != nil {
		return nil, fmt.Errorf("failed to parse duration: %w", err)
	}

	return &storage.TimerState{
		UserKey:    data["user_key"],
		FeatureKey: data["feature_key"],
		Day:        data["day"],
		TimeLeft:   timeLeft,
		Duration:   duration,
	}, nil
}

// scanDeleteDaysBefore scans keys matching pattern and deletes records
// whose day field sorts before cutoffDay.
func scanDeleteDaysBefore(ctx context.Context, client *redis.Client, pattern, cutoffDay string) (int, error) {
	if _, err := time.Parse("2006-01-02", cutoffDay); err != nil {
		return 0, fmt.Errorf("invalid cutoff day: %w", err)
	}

	var cursor uint64
	deleted := 0

	for {
		keys, next, err := client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return deleted, err
		}
		cursor = next

		if len(keys) > 0 {
			pipe := client.Pipeline()
			cmds := make([]*redis.StringCmd, len(keys))
			for i, key := range keys {
				cmds[i] = pipe.HGet(ctx, key, "day")
			}
			if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
				return deleted, err
			}

			toDelete := make([]string, 0)
			for i, cmd := range cmds {
				day, err := cmd.Result()
				if err != nil {
					continue
				}
				if day < cutoffDay {
					toDelete = append(toDelete, keys[i])
				}
			}

			if len(toDelete) > 0 {
				n, err := client.Del(ctx, toDelete...).Result()
				if err != nil {
					return deleted, err
				}
				deleted += int(n)
			}
		}

		if cursor == 0 {
			break
		}
	}

	return deleted, nil
}
