package service

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

type Queue interface {
	Enqueue(ctx context.Context, jobID string, priority int) error
	ClaimBlocking(ctx context.Context, timeout time.Duration) (string, error)
	Ack(ctx context.Context, jobID string) error
	Touch(ctx context.Context, jobID string) error
	RequeueStale(ctx context.Context, olderThan time.Duration, limit int64) (int64, error)
	Depth(ctx context.Context) (int64, error)
}

type Lane struct {
	QueueKey      string
	ProcessingKey string
}

// LanesFor derives the low, normal and high lanes from the base keys.
func LanesFor(queueKey, processingKey string) (low, normal, high Lane) {
	lane := func(suffix string) Lane {
		return Lane{QueueKey: queueKey + ":" + suffix, ProcessingKey: processingKey + ":" + suffix}
	}
	return lane("low"), lane("normal"), lane("high")
}

// redisPriorityQueue is a reliable queue of import job ids over Redis lists.
// Claim: BRPOPLPUSH lane.queue -> lane.processing, claim time in processingMapKey:claimed_at
// Touch: refresh the claim time of a job still being processed
// Ack:   LREM from the processing list recorded in the processingMapKey hash
type redisPriorityQueue struct {
	rdb              redis.UniversalClient
	processingMapKey string

	low    Lane
	normal Lane
	high   Lane
}

func NewRedisPriorityQueue(rdb redis.UniversalClient, processingMapKey string, low, normal, high Lane) Queue {
	return &redisPriorityQueue{
		rdb:              rdb,
		processingMapKey: processingMapKey,
		low:              low,
		normal:           normal,
		high:             high,
	}
}

func (q *redisPriorityQueue) claimedKey() string {
	return q.processingMapKey + ":claimed_at"
}

func clampPriority(p int) int {
	if p < 0 {
		return 0
	}
	if p > 2 {
		return 2
	}
	return p
}

func (q *redisPriorityQueue) lanes() []Lane {
	return []Lane{q.high, q.normal, q.low}
}

func (q *redisPriorityQueue) laneByPriority(p int) Lane {
	switch clampPriority(p) {
	case 2:
		return q.high
	case 1:
		return q.normal
	default:
		return q.low
	}
}

func (q *redisPriorityQueue) Enqueue(ctx context.Context, jobID string, priority int) error {
	return q.rdb.LPush(ctx, q.laneByPriority(priority).QueueKey, jobID).Err()
}

// ClaimBlocking polls the lanes from high to low with short blocking slots so a
// high priority import never waits behind a long low priority backlog.
// A timeout <= 0 waits until a job arrives or ctx is done.
func (q *redisPriorityQueue) ClaimBlocking(ctx context.Context, timeout time.Duration) (string, error) {
	forever := timeout <= 0
	deadline := time.Now().Add(timeout)

	slot := time.Second
	if !forever && timeout < slot {
		slot = timeout
	}

	for {
		if !forever && time.Now().After(deadline) {
			return "", redis.Nil
		}

		for _, ln := range q.lanes() {
			wait := slot
			if !forever {
				remain := time.Until(deadline)
				if remain <= 0 {
					return "", redis.Nil
				}
				wait = min(wait, remain)
			}

			id, err := q.rdb.BRPopLPush(ctx, ln.QueueKey, ln.ProcessingKey, wait).Result()
			if errors.Is(err, redis.Nil) {
				continue
			}
			if err != nil {
				return "", err
			}

			// Ack needs to know which processing list holds the id.
			_, err = q.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
				p.HSet(ctx, q.processingMapKey, id, ln.ProcessingKey)
				p.HSet(ctx, q.claimedKey(), id, time.Now().Unix())
				return nil
			})
			if err != nil {
				return "", err
			}
			return id, nil
		}
	}
}

func (q *redisPriorityQueue) Ack(ctx context.Context, jobID string) error {
	processingKey, err := q.rdb.HGet(ctx, q.processingMapKey, jobID).Result()
	if errors.Is(err, redis.Nil) {
		// A reaper pass already moved the id out of the processing list.
		return nil
	}
	if err != nil {
		return err
	}

	_, err = q.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.LRem(ctx, processingKey, 1, jobID)
		p.HDel(ctx, q.processingMapKey, jobID)
		p.HDel(ctx, q.claimedKey(), jobID)
		return nil
	})
	return err
}

// touch updates a claim time only while the claim exists.
// KEYS: claim times. ARGV: job id, unix time.
var touch = redis.NewScript(`
if redis.call('HEXISTS', KEYS[1], ARGV[1]) == 1 then
  redis.call('HSET', KEYS[1], ARGV[1], ARGV[2])
  return 1
end
return 0
`)

// Touch keeps a running job out of reach of RequeueStale.
func (q *redisPriorityQueue) Touch(ctx context.Context, jobID string) error {
	return touch.Run(ctx, q.rdb, []string{q.claimedKey()}, jobID, time.Now().Unix()).Err()
}

// requeue moves one id from a processing list back to its queue.
// KEYS: processing list, queue, processing map, claim times. ARGV: job id.
var requeue = redis.NewScript(`
local moved = 0
if redis.call('LREM', KEYS[1], 1, ARGV[1]) > 0 then
  redis.call('LPUSH', KEYS[2], ARGV[1])
  moved = 1
end
redis.call('HDEL', KEYS[3], ARGV[1])
redis.call('HDEL', KEYS[4], ARGV[1])
return moved
`)

// RequeueStale puts back in their queue the jobs whose claim was not touched for
// olderThan, left behind by a worker that crashed or was killed.
func (q *redisPriorityQueue) RequeueStale(ctx context.Context, olderThan time.Duration, limit int64) (int64, error) {
	claimed, err := q.rdb.HGetAll(ctx, q.claimedKey()).Result()
	if err != nil {
		return 0, err
	}

	cutoff := time.Now().Add(-olderThan).Unix()
	var moved int64
	for id, at := range claimed {
		if moved >= limit {
			break
		}
		if ts, err := strconv.ParseInt(at, 10, 64); err == nil && ts > cutoff {
			continue
		}

		processingKey, err := q.rdb.HGet(ctx, q.processingMapKey, id).Result()
		if errors.Is(err, redis.Nil) {
			_ = q.rdb.HDel(ctx, q.claimedKey(), id).Err()
			continue
		}
		if err != nil {
			return moved, err
		}
		ln, ok := q.laneByProcessingKey(processingKey)
		if !ok {
			continue
		}

		n, err := requeue.Run(ctx, q.rdb,
			[]string{ln.ProcessingKey, ln.QueueKey, q.processingMapKey, q.claimedKey()}, id,
		).Int64()
		if err != nil {
			return moved, err
		}
		moved += n
	}

	return moved, nil
}

func (q *redisPriorityQueue) laneByProcessingKey(key string) (Lane, bool) {
	for _, ln := range q.lanes() {
		if ln.ProcessingKey == key {
			return ln, true
		}
	}
	return Lane{}, false
}

// Depth is the number of jobs waiting in every lane.
func (q *redisPriorityQueue) Depth(ctx context.Context) (int64, error) {
	cmds, err := q.rdb.Pipelined(ctx, func(p redis.Pipeliner) error {
		for _, ln := range q.lanes() {
			p.LLen(ctx, ln.QueueKey)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	var total int64
	for _, c := range cmds {
		total += c.(*redis.IntCmd).Val()
	}
	return total, nil
}
