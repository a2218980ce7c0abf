package messaging

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/cbsistema/cbsistema-backend/pkg/config"
	"github.com/cbsistema/cbsistema-backend/pkg/logger"
)

// ErrClosed is returned by Reconnect once Close has been called.
var ErrClosed = errors.New("rabbitmq: connection closed for good")

const maxReconnectDelay = 30 * time.Second

type binding struct {
	queue    string
	exchange string
	key      string
}

// topology is everything declared through a RabbitMQ, in declaration order.
type topology struct {
	exchanges []string
	queues    []string
	bindings  []binding
}

func (t *topology) addExchange(name string) {
	if !slices.Contains(t.exchanges, name) {
		t.exchanges = append(t.exchanges, name)
	}
}

func (t *topology) addQueue(name string) {
	if !slices.Contains(t.queues, name) {
		t.queues = append(t.queues, name)
	}
}

func (t *topology) addBinding(b binding) {
	if !slices.Contains(t.bindings, b) {
		t.bindings = append(t.bindings, b)
	}
}

// RabbitMQ owns the AMQP connection used for domain events. Exchanges,
// queues and bindings declared through it are declared again on every
// reconnect.
type RabbitMQ struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	config   *config.RabbitMQConfig
	logger   *logger.Logger
	topology topology
	mu       sync.RWMutex
	closed   bool
}

// New dials cfg.URL and opens the shared channel.
func New(cfg *config.RabbitMQConfig, log *logger.Logger) (*RabbitMQ, error) {
	r := &RabbitMQ{
		config: cfg,
		logger: log,
	}

	conn, ch, err := r.dial()
	if err != nil {
		return nil, err
	}
	r.conn, r.channel = conn, ch

	log.Info().Int("prefetch", cfg.PrefetchCount).Msg("connected to RabbitMQ")
	return r, nil
}

// dial opens a connection and channel and replays the recorded topology on
// it. Callers must hold r.mu or own r exclusively.
func (r *RabbitMQ) dial() (*amqp.Connection, *amqp.Channel, error) {
	conn, err := amqp.Dial(r.config.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if r.config.PrefetchCount > 0 {
		if err := ch.Qos(r.config.PrefetchCount, 0, false); err != nil {
			conn.Close()
			return nil, nil, fmt.Errorf("failed to set prefetch: %w", err)
		}
	}

	if err := r.topology.declare(ch); err != nil {
		conn.Close()
		return nil, nil, err
	}

	return conn, ch, nil
}

func (t *topology) declare(ch *amqp.Channel) error {
	for _, name := range t.exchanges {
		if err := declareExchange(ch, name); err != nil {
			return fmt.Errorf("failed to redeclare exchange %s: %w", name, err)
		}
	}
	for _, name := range t.queues {
		if _, err := declareQueue(ch, name); err != nil {
			return fmt.Errorf("failed to redeclare queue %s: %w", name, err)
		}
	}
	for _, b := range t.bindings {
		if err := ch.QueueBind(b.queue, b.key, b.exchange, false, nil); err != nil {
			return fmt.Errorf("failed to rebind %s to %s: %w", b.queue, b.exchange, err)
		}
	}
	return nil
}

func declareExchange(ch *amqp.Channel, name string) error {
	return ch.ExchangeDeclare(
		name,    // name
		"topic", // type
		true,    // durable
		false,   // auto-deleted
		false,   // internal
		false,   // no-wait
		nil,     // arguments
	)
}

func declareQueue(ch *amqp.Channel, name string) (amqp.Queue, error) {
	return ch.QueueDeclare(
		name,  // name
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
}

// Channel returns the current channel
func (r *RabbitMQ) Channel() *amqp.Channel {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.channel
}

// DeclareExchange declares a durable topic exchange
func (r *RabbitMQ) DeclareExchange(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := declareExchange(r.channel, name); err != nil {
		return err
	}
	r.topology.addExchange(name)
	return nil
}

// DeclareQueue declares a durable queue
func (r *RabbitMQ) DeclareQueue(name string) (amqp.Queue, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	q, err := declareQueue(r.channel, name)
	if err != nil {
		return q, err
	}
	r.topology.addQueue(name)
	return q, nil
}

// BindQueue binds a queue to an exchange with a routing key pattern
func (r *RabbitMQ) BindQueue(queueName, exchange, routingKey string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.channel.QueueBind(queueName, routingKey, exchange, false, nil); err != nil {
		return err
	}
	r.topology.addBinding(binding{queue: queueName, exchange: exchange, key: routingKey})
	return nil
}

// retryDelay doubles base for every failed attempt, up to maxReconnectDelay.
func retryDelay(base time.Duration, attempt int) time.Duration {
	if base <= 0 {
		base = time.Second
	}
	delay := base
	for i := 1; i < attempt && delay < maxReconnectDelay; i++ {
		delay *= 2
	}
	return min(delay, maxReconnectDelay)
}

// Reconnect replaces the connection and channel, retrying up to
// MaxRetries times. The old connection is closed once a new one is up.
func (r *RabbitMQ) Reconnect(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrClosed
	}

	var lastErr error
	for attempt := 1; attempt <= r.config.MaxRetries; attempt++ {
		conn, ch, err := r.dial()
		if err == nil {
			if r.conn != nil && !r.conn.IsClosed() {
				r.conn.Close()
			}
			r.conn, r.channel = conn, ch
			r.logger.Info().Int("attempt", attempt).Msg("reconnected to RabbitMQ")
			return nil
		}
		lastErr = err

		delay := retryDelay(r.config.ReconnectDelay, attempt)
		r.logger.Warn().Err(err).
			Int("attempt", attempt).
			Dur("retry_in", delay).
			Msg("RabbitMQ reconnection attempt failed")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}

	return fmt.Errorf("failed to reconnect after %d attempts: %w", r.config.MaxRetries, lastErr)
}

// Close closes the channel and connection. Reconnect fails afterwards.
func (r *RabbitMQ) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.closed = true

	if r.channel != nil {
		if err := r.channel.Close(); err != nil {
			r.logger.Warn().Err(err).Msg("failed to close channel")
		}
	}

	if r.conn != nil {
		if err := r.conn.Close(); err != nil {
			return fmt.Errorf("failed to close connection: %w", err)
		}
	}

	r.logger.Info().Msg("RabbitMQ connection closed")
	return nil
}

// Health reports the connection and channel state for /health.
func (r *RabbitMQ) Health() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	switch {
	case r.conn == nil || r.conn.IsClosed():
		return map[string]string{"status": "down", "error": "connection closed"}
	case r.channel == nil || r.channel.IsClosed():
		return map[string]string{"status": "down", "error": "channel closed"}
	}
	return map[string]string{
		"status":    "up",
		"exchanges": fmt.Sprint(len(r.topology.exchanges)),
		"queues":    fmt.Sprint(len(r.topology.queues)),
	}
}
