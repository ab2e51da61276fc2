package progress

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/alexandresoro/ouca-sub007/internal/entity"
)

// storeIfNewer keeps the message only when its seq is above the recorded one,
// then relays it on the job channel.
// KEYS[1] status hash, ARGV: seq, payload, ttl ms, channel.
var storeIfNewer = redis.NewScript(`
local current = redis.call('HGET', KEYS[1], 'seq')
if current and tonumber(current) >= tonumber(ARGV[1]) then
  return 0
end
redis.call('HSET', KEYS[1], 'seq', ARGV[1], 'message', ARGV[2])
redis.call('PEXPIRE', KEYS[1], ARGV[3])
redis.call('PUBLISH', ARGV[4], ARGV[2])
return 1
`)

// RedisSink stores the latest status of every job under prefix+jobID and
// publishes each accepted message on prefix+"events:"+jobID.
type RedisSink struct {
	rdb    redis.UniversalClient
	prefix string
	ttl    time.Duration
}

func NewRedisSink(rdb redis.UniversalClient, prefix string, ttl time.Duration) *RedisSink {
	return &RedisSink{rdb: rdb, prefix: prefix, ttl: ttl}
}

func (s *RedisSink) key(jobID string) string     { return s.prefix + jobID }
func (s *RedisSink) channel(jobID string) string { return s.prefix + "events:" + jobID }

func (s *RedisSink) Publish(ctx context.Context, msg entity.StatusMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode status: %w", err)
	}
	err = storeIfNewer.Run(ctx, s.rdb,
		[]string{s.key(msg.JobID)},
		msg.Seq, payload, s.ttl.Milliseconds(), s.channel(msg.JobID),
	).Err()
	if err != nil {
		return fmt.Errorf("store status of job %s: %w", msg.JobID, err)
	}
	return nil
}

func (s *RedisSink) Latest(ctx context.Context, jobID string) (entity.StatusMessage, error) {
	payload, err := s.rdb.HGet(ctx, s.key(jobID), "message").Bytes()
	if errors.Is(err, redis.Nil) {
		return entity.StatusMessage{}, ErrNoStatus
	}
	if err != nil {
		return entity.StatusMessage{}, err
	}

	var msg entity.StatusMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return entity.StatusMessage{}, fmt.Errorf("decode status of job %s: %w", jobID, err)
	}
	return msg, nil
}

// Subscribe streams the messages published for a job until ctx is done.
// Messages older than one already delivered are skipped.
func (s *RedisSink) Subscribe(ctx context.Context, jobID string) <-chan entity.StatusMessage {
	out := make(chan entity.StatusMessage)
	sub := s.rdb.Subscribe(ctx, s.channel(jobID))

	go func() {
		defer close(out)
		defer sub.Close()

		var last entity.StatusMessage
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-ch:
				if !ok {
					return
				}
				var msg entity.StatusMessage
				if err := json.Unmarshal([]byte(m.Payload), &msg); err != nil || !Newer(msg, last) {
					continue
				}
				last = msg
				select {
				case out <- msg:
				case <-ctx.Done():
					return
				}
				if msg.Status.Terminal() {
					return
				}
			}
		}
	}()
	return out
}
