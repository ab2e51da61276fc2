// Package app builds the infrastructure shared by the api and worker binaries
// from the loaded configuration.
package app

import (
	"context"
	"fmt"
	"regexp"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/alexandresoro/ouca-sub007/internal/config"
	"github.com/alexandresoro/ouca-sub007/internal/progress"
	"github.com/alexandresoro/ouca-sub007/internal/service"
	"github.com/alexandresoro/ouca-sub007/internal/storage"
)

func NewRedis(ctx context.Context, addr string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis: %w", err)
	}
	return rdb, nil
}

func NewQueue(rdb redis.UniversalClient, opts config.RedisOptions) service.Queue {
	low, normal, high := service.LanesFor(opts.QueueKey, opts.ProcessingKey)
	return service.NewRedisPriorityQueue(rdb, opts.MapKey(), low, normal, high)
}

func NewUploads(ctx context.Context, opts config.UploadOptions) (storage.Uploads, error) {
	switch opts.Backend {
	case config.UploadS3:
		client, err := storage.NewS3Client(ctx, opts.Region, opts.Endpoint)
		if err != nil {
			return nil, err
		}
		return storage.NewS3Store(client, opts.Bucket, opts.Prefix), nil
	default:
		return storage.NewLocalStore(opts.Dir)
	}
}

// Status is where progress goes: always the Redis store, plus NATS when configured.
type Status struct {
	Sink  progress.Sink
	Redis *progress.RedisSink

	nc *nats.Conn
}

func NewStatus(rdb redis.UniversalClient, cfg *config.Config, log *zap.Logger) (*Status, error) {
	s := &Status{Redis: progress.NewRedisSink(rdb, cfg.Redis.StatusPrefix, cfg.Status.TTL)}
	if cfg.Status.NATSURL == "" {
		s.Sink = s.Redis
		return s, nil
	}

	nc, err := nats.Connect(cfg.Status.NATSURL,
		nats.Name("ouca-import"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn("nats disconnected", zap.Error(err))
			}
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("nats: %w", err)
	}
	s.nc = nc
	s.Sink = progress.Fanout(s.Redis, progress.NewNATSSink(nc))
	return s, nil
}

func (s *Status) Close() {
	if s.nc != nil {
		_ = s.nc.Drain()
	}
}

var dsnPassword = regexp.MustCompile(`://([^:/?#]+):([^@/]+)@`)

// RedactDSN masks the password of a postgres URL: user:pass@ becomes user:****@.
func RedactDSN(dsn string) string {
	return dsnPassword.ReplaceAllString(dsn, `://$1:****@`)
}
