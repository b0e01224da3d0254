package rabbitmq

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"
	amqp "github.com/streadway/amqp"
)

// OrderEventsQueue receives every order.* event for the notification consumer.
const OrderEventsQueue = "order_events"

// Client holds the RabbitMQ connection and channel. Publishing goes through a
// circuit breaker so a dead broker fails fast instead of stalling requests.
type Client struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
	mu       sync.Mutex
	publish  func(exchange, key string, msg amqp.Publishing) error
	breaker  *gobreaker.CircuitBreaker[struct{}]
}

// Config holds RabbitMQ connection details.
type Config struct {
	URL      string
	Exchange string
}

// NewClient connects to RabbitMQ, declares the topic exchange and binds the
// order events queue to it.
func NewClient(cfg Config) (*Client, error) {
	if cfg.Exchange == "" {
		cfg.Exchange = "backoffice.events"
	}
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if err := declareTopology(ch, cfg.Exchange); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}
	log.Printf("RabbitMQ client connected, exchange %s and queue %s declared.", cfg.Exchange, OrderEventsQueue)

	c := newClient(cfg.Exchange, func(exchange, key string, msg amqp.Publishing) error {
		return ch.Publish(exchange, key, false, false, msg)
	})
	c.conn = conn
	c.channel = ch
	return c, nil
}

func newClient(exchange string, publish func(exchange, key string, msg amqp.Publishing) error) *Client {
	return &Client{
		exchange: exchange,
		publish:  publish,
		breaker: gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
			Name:        "rabbitmq-publish",
			MaxRequests: 1,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 3
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				log.Printf("Circuit breaker %s changed from %s to %s", name, from, to)
			},
		}),
	}
}

func declareTopology(ch *amqp.Channel, exchange string) error {
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare exchange %s: %w", exchange, err)
	}
	if _, err := ch.QueueDeclare(OrderEventsQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare %s: %w", OrderEventsQueue, err)
	}
	if err := ch.QueueBind(OrderEventsQueue, "order.*", exchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind %s: %w", OrderEventsQueue, err)
	}
	return nil
}

// Close closes the RabbitMQ connection and channel.
func (c *Client) Close() error {
	var errs []error
	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close channel: %w", err))
		}
	}
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close connection: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("multiple errors occurred during RabbitMQ client close: %v", errs)
	}
	return nil
}

// PublishEvent publishes a JSON body to the exchange under routingKey.
func (c *Client) PublishEvent(routingKey string, body []byte) error {
	_, err := c.breaker.Execute(func() (struct{}, error) {
		c.mu.Lock()
		defer c.mu.Unlock()
		return struct{}{}, c.publish(c.exchange, routingKey, amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
		})
	})
	if err != nil {
		return fmt.Errorf("failed to publish %s: %w", routingKey, err)
	}
	log.Printf(" [x] Sent %s event: %s", routingKey, body)
	return nil
}

// ConsumeOrderEvents starts a goroutine that feeds every message of the order
// events queue to handler. Failed messages are requeued once, then dropped.
func (c *Client) ConsumeOrderEvents(handler func(routingKey string, body []byte) error) error {
	if c.channel == nil {
		return fmt.Errorf("RabbitMQ channel is not available for consumption")
	}

	msgs, err := c.channel.Consume(OrderEventsQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	log.Printf(" [*] Waiting for order events on %s", OrderEventsQueue)
	go func() {
		for msg := range msgs {
			settle(msg, handler(msg.RoutingKey, msg.Body))
		}
	}()
	return nil
}

// acknowledger is the part of amqp.Delivery settle needs.
type acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

type delivery interface {
	acknowledger
	redelivered() bool
	tag() uint64
}

type amqpDelivery struct{ amqp.Delivery }

func (d amqpDelivery) redelivered() bool { return d.Redelivered }
func (d amqpDelivery) tag() uint64       { return d.DeliveryTag }

func settle(msg amqp.Delivery, handlerErr error) {
	settleDelivery(amqpDelivery{msg}, handlerErr)
}

func settleDelivery(d delivery, handlerErr error) {
	if handlerErr == nil {
		if err := d.Ack(false); err != nil {
			log.Printf("Error acking message %d: %v", d.tag(), err)
		}
		return
	}
	requeue := !d.redelivered()
	log.Printf("Error processing message %d (requeue=%t): %v", d.tag(), requeue, handlerErr)
	if err := d.Nack(false, requeue); err != nil {
		log.Printf("Error nacking message %d: %v", d.tag(), err)
	}
}
