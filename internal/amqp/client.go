package amqp

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"paydash/internal/core"
)

// Circuit breaker states.
const (
	StateClosed int32 = iota
	StateOpen
	StateHalfOpen
)

const (
	// maxFailures opens the circuit.
	maxFailures = 5
	// openTimeout is how long the circuit stays open before a half-open probe.
	openTimeout = 30 * time.Second
	// maxReconnectAttempts bounds one publish's reconnect loop.
	maxReconnectAttempts = 3
)

// Client publishes engine events to RabbitMQ. The broker is optional
// infrastructure, so publishing is guarded by a circuit breaker: after
// maxFailures consecutive connection failures the circuit opens and
// publishes fail fast until openTimeout passes.
type Client struct {
	url          string
	exchangeName string
	queueName    string

	mu      sync.Mutex
	conn    *amqp091.Connection
	channel *amqp091.Channel

	failureCount int64
	state        int32
	lastFailure  time.Time
}

func NewClient(url, exchangeName, queueName string) (*Client, error) {
	client := &Client{
		url:          url,
		exchangeName: exchangeName,
		queueName:    queueName,
	}

	if err := client.connect(); err != nil {
		return nil, err
	}

	return client, nil
}

func (c *Client) connect() error {
	conn, err := amqp091.Dial(c.url)
	if err != nil {
		return fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("open channel: %w", err)
	}

	if err := setup(channel, c.exchangeName, c.queueName); err != nil {
		channel.Close()
		conn.Close()
		return fmt.Errorf("setup exchange and queue: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.channel = channel
	c.mu.Unlock()

	return nil
}

func setup(channel *amqp091.Channel, exchangeName, queueName string) error {
	err := channel.ExchangeDeclare(
		exchangeName, // name
		"direct",     // type
		true,         // durable
		false,        // auto-deleted
		false,        // internal
		false,        // no-wait
		nil,          // arguments
	)
	if err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	_, err = channel.QueueDeclare(
		queueName, // name
		true,      // durable
		false,     // delete when unused
		false,     // exclusive
		false,     // no-wait
		nil,       // arguments
	)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	// One queue receives every event kind.
	for _, routingKey := range []string{KindPeriodEnsured, KindAnomalyAlert} {
		if err := channel.QueueBind(queueName, routingKey, exchangeName, false, nil); err != nil {
			return fmt.Errorf("bind queue for %s: %w", routingKey, err)
		}
	}

	return nil
}

func exponentialBackoff(attempt int) time.Duration {
	backoff := time.Second * time.Duration(1<<attempt)
	if backoff > 30*time.Second {
		backoff = 30 * time.Second
	}
	return backoff
}

func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	for _, s := range []string{
		"connection refused",
		"connection closed",
		"EOF",
		"broken pipe",
		"use of closed network connection",
	} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}

func (c *Client) isCircuitOpen() bool {
	if atomic.LoadInt32(&c.state) != StateOpen {
		return false
	}
	c.mu.Lock()
	last := c.lastFailure
	c.mu.Unlock()
	if time.Since(last) > openTimeout {
		atomic.StoreInt32(&c.state, StateHalfOpen)
		return false
	}
	return true
}

func (c *Client) recordSuccess() {
	atomic.StoreInt64(&c.failureCount, 0)
	atomic.StoreInt32(&c.state, StateClosed)
}

func (c *Client) recordFailure() {
	count := atomic.AddInt64(&c.failureCount, 1)
	c.mu.Lock()
	c.lastFailure = time.Now()
	c.mu.Unlock()
	if count >= maxFailures {
		atomic.StoreInt32(&c.state, StateOpen)
	}
}

func (c *Client) reconnect(ctx context.Context) error {
	var lastErr error
	for attempt := 0; attempt < maxReconnectAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(exponentialBackoff(attempt)):
		}

		if err := c.connect(); err != nil {
			lastErr = err
			slog.WarnContext(ctx, "AMQP reconnect failed",
				"attempt", attempt+1, "error", err)
			continue
		}
		return nil
	}
	return fmt.Errorf("reconnect after %d attempts: %w", maxReconnectAttempts, lastErr)
}

func (c *Client) publish(ctx context.Context, routingKey string, body []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if c.isCircuitOpen() {
		return fmt.Errorf("publish %s: circuit breaker is open", routingKey)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	c.mu.Lock()
	channel := c.channel
	c.mu.Unlock()
	if channel == nil {
		c.recordFailure()
		return fmt.Errorf("publish %s: no channel", routingKey)
	}

	err := channel.PublishWithContext(
		ctx,
		c.exchangeName,
		routingKey,
		false, // mandatory
		false, // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		c.recordFailure()
		if isConnectionError(err) {
			if rerr := c.reconnect(ctx); rerr != nil {
				return fmt.Errorf("publish %s: %w", routingKey, err)
			}
		}
		return fmt.Errorf("publish %s: %w", routingKey, err)
	}

	c.recordSuccess()
	return nil
}

// PublishPeriodEnsured implements services.EventPublisher.
func (c *Client) PublishPeriodEnsured(ctx context.Context, periodID int64, start, end core.Date) error {
	msg := NewPeriodEnsuredMessage(periodID, start, end)
	body, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	if err := c.publish(ctx, KindPeriodEnsured, body); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Published period.ensured message",
		"period_id", periodID,
		"start", start.String(),
		"end", end.String(),
		"exchange", c.exchangeName)

	return nil
}

// PublishAnomalyAlert implements services.EventPublisher.
func (c *Client) PublishAnomalyAlert(ctx context.Context, periodID int64, alertCount int) error {
	msg := NewAnomalyAlertMessage(periodID, alertCount)
	body, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	if err := c.publish(ctx, KindAnomalyAlert, body); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Published anomaly.alert message",
		"period_id", periodID,
		"alerts", alertCount,
		"exchange", c.exchangeName)

	return nil
}

// Consume delivers raw events to the handler until ctx is cancelled.
// The routing key of each delivery selects the message kind. Handler
// errors requeue the delivery; undecodable payloads are dropped.
func (c *Client) Consume(ctx context.Context, handler func(routingKey string, body []byte) error) error {
	c.mu.Lock()
	channel := c.channel
	c.mu.Unlock()
	if channel == nil {
		return fmt.Errorf("consume: no channel")
	}

	msgs, err := channel.Consume(
		c.queueName, // queue
		"",          // consumer
		false,       // auto-ack
		false,       // exclusive
		false,       // no-local
		false,       // no-wait
		nil,         // args
	)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	slog.InfoContext(ctx, "Started consuming engine events", "queue", c.queueName)

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Stopping message consumption", "reason", ctx.Err())
			return ctx.Err()
		case delivery, ok := <-msgs:
			if !ok {
				return fmt.Errorf("message channel closed")
			}

			if err := handler(delivery.RoutingKey, delivery.Body); err != nil {
				slog.ErrorContext(ctx, "Failed to handle message",
					"error", err,
					"routing_key", delivery.RoutingKey)
				delivery.Nack(false, true)
				continue
			}

			delivery.Ack(false)
		}
	}
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
