// Package service provides publishers that deliver item events to a
// message broker.  Errors are logged and returned so callers can ignore
// them without interrupting the request that produced the event.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/nats-io/nats.go"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/item-service/internal/config"
	"github.com/iliyamo/item-service/internal/queue"
)

// Publisher delivers item.created events.  Close releases any long-lived
// broker connection.
type Publisher interface {
	PublishItemCreated(ctx context.Context, ev queue.ItemCreatedEvent) error
	Close() error
}

// NewPublisher returns the publisher selected by cfg.Backend.
func NewPublisher(cfg config.EventsConfig) (Publisher, error) {
	switch cfg.Backend {
	case config.EventsRabbitMQ:
		return &RabbitPublisher{URL: cfg.AMQPURL}, nil
	case config.EventsNATS:
		return NewNATSPublisher(cfg.NATSURL)
	default:
		return NopPublisher{}, nil
	}
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) PublishItemCreated(context.Context, queue.ItemCreatedEvent) error { return nil }
func (NopPublisher) Close() error                                                   { return nil }

// RabbitPublisher publishes to the durable item.created queue through the
// default exchange.  A connection is dialled per event.
type RabbitPublisher struct {
	URL string
}

// PublishItemCreated marks messages persistent so they survive broker restarts.
func (p *RabbitPublisher) PublishItemCreated(ctx context.Context, ev queue.ItemCreatedEvent) error {
	conn, err := amqp.Dial(p.URL)
	if err != nil {
		log.Printf("rabbitmq: dial failed: %v", err)
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		log.Printf("rabbitmq: channel open failed: %v", err)
		return err
	}
	defer func() { _ = ch.Close() }()

	// Ensure the queue exists (idempotent).
	if _, err := ch.QueueDeclare(
		queue.ItemCreatedQueue, // name
		true,                   // durable
		false,                  // autoDelete
		false,                  // exclusive
		false,                  // noWait
		nil,                    // args
	); err != nil {
		log.Printf("rabbitmq: queue declare failed: %v", err)
		return err
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		MessageId:    ev.ItemID,
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", queue.ItemCreatedQueue, false, false, pub); err != nil {
		log.Printf("rabbitmq: publish failed: %v", err)
		return err
	}
	return nil
}

func (p *RabbitPublisher) Close() error { return nil }

// NATSPublisher publishes on the items.created subject over one shared
// connection that reconnects on its own.
type NATSPublisher struct {
	conn *nats.Conn
}

// NewNATSPublisher connects to url.  The server does not have to be up yet;
// the client keeps retrying in the background.
func NewNATSPublisher(url string) (*NATSPublisher, error) {
	conn, err := nats.Connect(url,
		nats.Name("item-service"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return &NATSPublisher{conn: conn}, nil
}

// PublishItemCreated publishes and waits for the server to acknowledge the
// flush, or for ctx to expire.
func (p *NATSPublisher) PublishItemCreated(ctx context.Context, ev queue.ItemCreatedEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	if err := p.conn.Publish(queue.ItemCreatedSubject, body); err != nil {
		log.Printf("nats: publish failed: %v", err)
		return err
	}
	if err := p.conn.FlushWithContext(ctx); err != nil {
		log.Printf("nats: flush failed: %v", err)
		return err
	}
	return nil
}

func (p *NATSPublisher) Close() error {
	p.conn.Close()
	return nil
}
