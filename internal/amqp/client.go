// Package amqp publishes and consumes dataset-updated notifications over
// RabbitMQ.
package amqp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

// Circuit breaker states
const (
	StateClosed int32 = iota
	StateOpen
	StateHalfOpen
)

const (
	maxFailures          = 5
	openTimeout          = 30 * time.Second
	maxReconnectAttempts = 3
	publishTimeout       = 5 * time.Second
	maxBackoff           = 30 * time.Second
)

var ErrCircuitOpen = errors.New("circuit breaker is open")

// DatasetUpdatedHandler processes one message. Returning an error requeues it.
type DatasetUpdatedHandler func(ctx context.Context, msg *DatasetUpdatedMessage) error

// connection is the part of *amqp091.Connection the client relies on.
type connection interface {
	IsClosed() bool
	Channel() (*amqp091.Channel, error)
	Close() error
}

func dialAMQP(url string) (connection, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

type Client struct {
	url          string
	exchangeName string
	queueName    string

	mu      sync.Mutex
	dial    func(url string) (connection, error)
	conn    connection
	channel *amqp091.Channel

	state        int32
	failureCount int64
	lastFailure  time.Time
}

// NewClient connects and declares the exchange, queue and binding.
func NewClient(url, exchangeName, queueName string) (*Client, error) {
	client := &Client{
		url:          url,
		exchangeName: exchangeName,
		queueName:    queueName,
		dial:         dialAMQP,
	}

	client.mu.Lock()
	err := client.connectLocked()
	client.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return client, nil
}

// connectLocked releases whatever is left of the previous connection and
// dials a fresh one.
func (c *Client) connectLocked() error {
	_ = c.releaseLocked()

	dial := c.dial
	if dial == nil {
		dial = dialAMQP
	}
	conn, err := dial(c.url)
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

	c.conn = conn
	c.channel = channel
	return nil
}

// reopenChannelLocked replaces a channel closed by a channel-level exception
// while the connection itself is still up.
func (c *Client) reopenChannelLocked() error {
	if c.channel != nil {
		_ = c.channel.Close()
		c.channel = nil
	}
	channel, err := c.conn.Channel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	if err := setup(channel, c.exchangeName, c.queueName); err != nil {
		channel.Close()
		return fmt.Errorf("setup exchange and queue: %w", err)
	}
	c.channel = channel
	return nil
}

func (c *Client) releaseLocked() error {
	if c.channel != nil {
		_ = c.channel.Close()
		c.channel = nil
	}
	var err error
	if c.conn != nil {
		err = c.conn.Close()
		c.conn = nil
	}
	return err
}

func setup(ch *amqp091.Channel, exchangeName, queueName string) error {
	err := ch.ExchangeDeclare(
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

	_, err = ch.QueueDeclare(
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

	// Routing key equals the queue name on the direct exchange
	if err := ch.QueueBind(queueName, queueName, exchangeName, false, nil); err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}
	return nil
}

// channelFor returns an open channel, reconnecting with backoff if needed.
func (c *Client) channelFor(ctx context.Context) (*amqp091.Channel, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil && !c.conn.IsClosed() {
		if c.channel != nil && !c.channel.IsClosed() {
			return c.channel, nil
		}
		err := c.reopenChannelLocked()
		if err == nil {
			return c.channel, nil
		}
		slog.WarnContext(ctx, "AMQP channel reopen failed, redialing", "error", err)
	}

	var lastErr error
	for attempt := 0; attempt < maxReconnectAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(exponentialBackoff(attempt - 1)):
			}
		}
		if lastErr = c.connectLocked(); lastErr == nil {
			slog.InfoContext(ctx, "Connected to AMQP broker", "exchange", c.exchangeName, "attempt", attempt+1)
			return c.channel, nil
		}
		slog.WarnContext(ctx, "AMQP connect failed", "attempt", attempt+1, "error", lastErr)
	}
	return nil, fmt.Errorf("reconnect after %d attempts: %w", maxReconnectAttempts, lastErr)
}

// PublishDatasetUpdated publishes a persistent dataset-updated message.
func (c *Client) PublishDatasetUpdated(ctx context.Context, version int64, source string) error {
	if c.isCircuitOpen() {
		return fmt.Errorf("publish dataset update: %w", ErrCircuitOpen)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	body, err := NewDatasetUpdatedMessage(version, source).ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	err = c.publish(ctx, body)
	if isConnectionError(err) {
		// The broker dropped us; force a reconnect and try once more
		c.dropConnection()
		err = c.publish(ctx, body)
	}
	if err != nil {
		c.recordFailure()
		return err
	}
	c.recordSuccess()

	slog.InfoContext(ctx, "Published dataset updated message",
		"version", version,
		"source", source,
		"exchange", c.exchangeName,
		"queue", c.queueName)
	return nil
}

func (c *Client) publish(ctx context.Context, body []byte) error {
	ch, err := c.channelFor(ctx)
	if err != nil {
		return err
	}

	pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err = ch.PublishWithContext(
		pubCtx,
		c.exchangeName, // exchange
		c.queueName,    // routing key
		false,          // mandatory
		false,          // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish message: %w", err)
	}
	return nil
}

func (c *Client) dropConnection() {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.releaseLocked()
}

// ConsumeDatasetUpdated delivers messages to handler until ctx is done.
// Malformed messages are dropped; handler errors requeue the message.
// A closed delivery channel triggers a reconnect.
func (c *Client) ConsumeDatasetUpdated(ctx context.Context, handler DatasetUpdatedHandler) error {
	for {
		ch, err := c.channelFor(ctx)
		if err != nil {
			return err
		}

		msgs, err := ch.Consume(
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

		slog.InfoContext(ctx, "Started consuming dataset updated messages", "queue", c.queueName)

		if err := consumeDeliveries(ctx, msgs, handler); !errors.Is(err, errDeliveriesClosed) {
			return err
		}
		slog.WarnContext(ctx, "AMQP delivery channel closed, reconnecting", "queue", c.queueName)
	}
}

var errDeliveriesClosed = errors.New("message channel closed")

// acknowledger is the subset of amqp091.Delivery the consume loop needs.
type acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

func consumeDeliveries(ctx context.Context, msgs <-chan amqp091.Delivery, handler DatasetUpdatedHandler) error {
	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Stopping message consumption", "reason", ctx.Err())
			return ctx.Err()
		case delivery, ok := <-msgs:
			if !ok {
				return errDeliveriesClosed
			}
			handleDelivery(ctx, &delivery, delivery.Body, handler)
		}
	}
}

func handleDelivery(ctx context.Context, ack acknowledger, body []byte, handler DatasetUpdatedHandler) {
	msg, err := DatasetUpdatedMessageFromJSON(body)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to unmarshal message", "error", err)
		ack.Nack(false, false)
		return
	}

	if err := handler(ctx, msg); err != nil {
		slog.ErrorContext(ctx, "Failed to handle message",
			"error", err,
			"version", msg.Version,
			"source", msg.Source)
		ack.Nack(false, true)
		return
	}

	ack.Ack(false)
	slog.InfoContext(ctx, "Processed dataset updated message",
		"version", msg.Version,
		"source", msg.Source)
}

func (c *Client) isCircuitOpen() bool {
	switch atomic.LoadInt32(&c.state) {
	case StateOpen:
		c.mu.Lock()
		since := time.Since(c.lastFailure)
		c.mu.Unlock()
		if since > openTimeout {
			atomic.CompareAndSwapInt32(&c.state, StateOpen, StateHalfOpen)
			return false
		}
		return true
	default:
		return false
	}
}

func (c *Client) recordFailure() {
	count := atomic.AddInt64(&c.failureCount, 1)
	c.mu.Lock()
	c.lastFailure = time.Now()
	c.mu.Unlock()
	if count >= maxFailures || atomic.LoadInt32(&c.state) == StateHalfOpen {
		atomic.StoreInt32(&c.state, StateOpen)
	}
}

func (c *Client) recordSuccess() {
	atomic.StoreInt64(&c.failureCount, 0)
	atomic.StoreInt32(&c.state, StateClosed)
}

// exponentialBackoff returns 1s, 2s, 4s ... capped at 30s.
func exponentialBackoff(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if attempt >= 5 {
		return maxBackoff
	}
	d := time.Second << attempt
	if d > maxBackoff {
		return maxBackoff
	}
	return d
}

func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, amqp091.ErrClosed) {
		return true
	}
	msg := err.Error()
	for _, s := range []string{"connection refused", "connection closed", "EOF", "broken pipe", "use of closed network connection"} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.releaseLocked()
}
