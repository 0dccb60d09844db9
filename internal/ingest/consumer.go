// Package ingest consumes the normalized listing input stream from
// RabbitMQ and feeds it into the listings service. One durable queue,
// manual acks: a malformed payload is dead input and gets acked away
// after logging, a failing service call is nacked back for retry.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"propscan_backend/internal/listings/service"
	"propscan_backend/internal/listings/transport"
	"propscan_backend/platform/config"
	"propscan_backend/platform/logger"
	"propscan_backend/platform/validator"
)

// Consumer reads listing payloads off the input queue.
type Consumer struct {
	url      string
	queue    string
	prefetch int
	svc      *service.Service
	val      *validator.Validator
	log      *logger.Logger

	conn    *amqp.Connection
	channel *amqp.Channel
}

// NewConsumer creates a consumer bound to the configured listing queue.
func NewConsumer(cfg config.IngestConfig, svc *service.Service, val *validator.Validator, log *logger.Logger) *Consumer {
	return &Consumer{
		url:      cfg.GetRabbitMQURL(),
		queue:    cfg.GetListingQueueName(),
		prefetch: cfg.GetIngestPrefetch(),
		svc:      svc,
		val:      val,
		log:      log,
	}
}

// Run connects, declares the durable queue and consumes until the
// context is cancelled or the broker closes the connection.
func (c *Consumer) Run(ctx context.Context) error {
	if err := c.connect(); err != nil {
		return err
	}
	defer c.close()

	deliveries, err := c.channel.Consume(
		c.queue,
		"",    // consumer tag, broker-generated
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("ingest: register consumer on %q: %w", c.queue, err)
	}

	c.log.Info("ingest consumer started", "queue", c.queue, "prefetch", c.prefetch)

	notifyClose := make(chan *amqp.Error, 1)
	c.conn.NotifyClose(notifyClose)

	for {
		select {
		case <-ctx.Done():
			c.log.Info("ingest consumer stopping")
			return nil
		case err := <-notifyClose:
			return fmt.Errorf("ingest: connection closed: %w", err)
		case d, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("ingest: deliveries channel closed")
			}
			c.handle(ctx, d)
		}
	}
}

func (c *Consumer) handle(ctx context.Context, d amqp.Delivery) {
	var req transport.IngestListingRequest
	if err := json.Unmarshal(d.Body, &req); err != nil {
		// Dead input. Requeueing would loop forever.
		c.log.Error("ingest: malformed payload dropped", "error", err, "tag", d.DeliveryTag)
		if err := d.Ack(false); err != nil {
			c.log.Error("ingest: ack failed", "error", err, "tag", d.DeliveryTag)
		}
		return
	}

	// Same validation rules as the HTTP route. An invalid payload is
	// dead input like malformed JSON, not a transient failure.
	if err := c.val.Struct(req); err != nil {
		c.log.Error("ingest: invalid payload dropped", "error", err,
			"source", req.Source, "external_id", req.ExternalID)
		if err := d.Ack(false); err != nil {
			c.log.Error("ingest: ack failed", "error", err, "tag", d.DeliveryTag)
		}
		return
	}

	if _, err := c.svc.Ingest(ctx, req); err != nil {
		c.log.Error("ingest: listing rejected, requeueing", "error", err,
			"source", req.Source, "external_id", req.ExternalID)
		if err := d.Nack(false, true); err != nil {
			c.log.Error("ingest: nack failed", "error", err, "tag", d.DeliveryTag)
		}
		return
	}

	if err := d.Ack(false); err != nil {
		c.log.Error("ingest: ack failed", "error", err, "tag", d.DeliveryTag)
	}
}

func (c *Consumer) connect() error {
	conn, err := amqp.Dial(c.url)
	if err != nil {
		return fmt.Errorf("ingest: dial rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("ingest: open channel: %w", err)
	}

	if err := ch.Qos(c.prefetch, 0, false); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return fmt.Errorf("ingest: set qos: %w", err)
	}

	if _, err := ch.QueueDeclare(
		c.queue,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		nil,
	); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return fmt.Errorf("ingest: declare queue %q: %w", c.queue, err)
	}

	c.conn = conn
	c.channel = ch
	return nil
}

func (c *Consumer) close() {
	if c.channel != nil {
		_ = c.channel.Close()
		c.channel = nil
	}
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}
}
