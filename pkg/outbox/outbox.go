// Package outbox queues messages for deferred sending in redis. A
// producer enqueues the JSON form of a message under mail:out:<uid>
// and pushes the id onto the mail:out list; a worker pops ids, loads
// the message, and hands it to a processor. A failed processor pushes
// the id back so the message is not lost.
package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/freeflowuniverse/heromail/pkg/mail"
)

const (
	// QueueKey is the redis list holding pending message ids.
	QueueKey = "mail:out"
	// dataField is the hash field holding the message JSON.
	dataField = "data"
)

// Processor handles one dequeued message, typically by sending it.
type Processor func(ctx context.Context, msg *mail.Message) error

// Enqueue stores the message and pushes its id onto the queue. The id
// is derived from the message content hash, so re-enqueueing an
// identical message overwrites rather than duplicates the stored data.
func Enqueue(ctx context.Context, rdb *redis.Client, msg *mail.Message) (string, error) {
	uid, err := msg.UID()
	if err != nil {
		return "", err
	}
	id := fmt.Sprintf("%s:%s", QueueKey, uid)

	msgJSON, err := json.Marshal(msg)
	if err != nil {
		return "", fmt.Errorf("failed to marshal message: %w", err)
	}

	if err := rdb.HSet(ctx, id, dataField, string(msgJSON)).Err(); err != nil {
		return "", fmt.Errorf("failed to store message: %w", err)
	}
	if err := rdb.RPush(ctx, QueueKey, id).Err(); err != nil {
		return "", fmt.Errorf("failed to queue message: %w", err)
	}

	return id, nil
}

// Get retrieves a queued message by id.
func Get(ctx context.Context, rdb *redis.Client, id string) (*mail.Message, error) {
	msgJSON, err := rdb.HGet(ctx, id, dataField).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("message %s not found", id)
		}
		return nil, fmt.Errorf("failed to get message data: %w", err)
	}

	var msg mail.Message
	if err := json.Unmarshal([]byte(msgJSON), &msg); err != nil {
		return nil, fmt.Errorf("failed to parse message JSON: %w", err)
	}
	return &msg, nil
}

// Pending lists the ids currently waiting in the queue.
func Pending(ctx context.Context, rdb *redis.Client) ([]string, error) {
	return rdb.LRange(ctx, QueueKey, 0, -1).Result()
}

// Count returns the number of queued messages.
func Count(ctx context.Context, rdb *redis.Client) (int64, error) {
	return rdb.LLen(ctx, QueueKey).Result()
}

// Process pops and processes messages until the context is cancelled.
// timeout bounds each blocking pop. When the processor fails the id is
// pushed back onto the queue and the error is returned; on success the
// stored message is deleted.
func Process(ctx context.Context, rdb *redis.Client, processor Processor, timeout time.Duration) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		result, err := rdb.BLPop(ctx, timeout, QueueKey).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			return fmt.Errorf("failed to pop from queue: %w", err)
		}
		if len(result) < 2 {
			continue
		}
		id := result[1]

		msg, err := Get(ctx, rdb, id)
		if err != nil {
			return err
		}

		if err := processor(ctx, msg); err != nil {
			if pushErr := rdb.RPush(ctx, QueueKey, id).Err(); pushErr != nil {
				return fmt.Errorf("failed to requeue message after processing error %v: %w", err, pushErr)
			}
			return fmt.Errorf("failed to process message %s: %w", id, err)
		}

		if err := rdb.Del(ctx, id).Err(); err != nil {
			return fmt.Errorf("failed to delete message: %w", err)
		}
	}
}
