// Package queue defines message payloads exchanged over the message broker.
package queue

import (
	"time"

	"github.com/iliyamo/item-service/internal/model"
)

// Destinations for item.created notifications.
const (
	ItemCreatedQueue   = "item.created"  // RabbitMQ queue, default exchange
	ItemCreatedSubject = "items.created" // NATS subject
)

// ItemCreatedEvent is published after an item has been committed.  It
// carries the full record so consumers never need to query the store.
type ItemCreatedEvent struct {
	ItemID      string  `json:"item_id"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
	CreatedAt   string  `json:"created_at"`
	PublishedAt string  `json:"published_at"`
}

// NewItemCreatedEvent snapshots item with RFC 3339 timestamps in UTC.
func NewItemCreatedEvent(item *model.Item) ItemCreatedEvent {
	return ItemCreatedEvent{
		ItemID:      item.ID.String(),
		Name:        item.Name,
		Description: item.Description,
		CreatedAt:   item.CreatedAt.UTC().Format(time.RFC3339Nano),
		PublishedAt: time.Now().UTC().Format(time.RFC3339Nano),
	}
}
