package scheduler

import (
	"context"
	"crypto/tls"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"propscan_backend/platform/config"
)

// Client enqueues scan and backfill tasks.
type Client struct {
	client *asynq.Client
	queue  string
}

// BackfillEnqueuer is the slice of the client the event wiring needs.
type BackfillEnqueuer interface {
	EnqueueGeocodingBackfill(ctx context.Context, limit int) error
}

func NewClient(cfg config.SchedulerConfig) (*Client, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	return &Client{
		client: asynq.NewClient(opt),
		queue:  queue,
	}, nil
}

func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// EnqueuePropertiesScan queues a full identity-resolution scan.
func (c *Client) EnqueuePropertiesScan(ctx context.Context) error {
	if c == nil || c.client == nil {
		return nil
	}

	task, err := NewPropertiesScanTask()
	if err != nil {
		return err
	}

	_, err = c.client.EnqueueContext(ctx, task, asynq.Queue(c.queue))
	return err
}

// EnqueueGeocodingBackfill queues a coordinate backfill capped at limit.
func (c *Client) EnqueueGeocodingBackfill(ctx context.Context, limit int) error {
	if c == nil || c.client == nil {
		return nil
	}

	task, err := NewGeocodingBackfillTask(GeocodingBackfillPayload{Limit: limit})
	if err != nil {
		return err
	}

	_, err = c.client.EnqueueContext(ctx, task, asynq.Queue(c.queue))
	return err
}

func redisClientOpt(redisURL string, tlsInsecure bool) (asynq.RedisClientOpt, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return asynq.RedisClientOpt{}, err
	}

	var tlsConfig *tls.Config
	if opt.TLSConfig != nil {
		clone := opt.TLSConfig.Clone()
		if tlsInsecure {
			clone.InsecureSkipVerify = true
		}
		tlsConfig = clone
	} else if tlsInsecure {
		tlsConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return asynq.RedisClientOpt{
		Addr:      opt.Addr,
		Password:  opt.Password,
		DB:        opt.DB,
		TLSConfig: tlsConfig,
	}, nil
}
