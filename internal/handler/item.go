package handler

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/item-service/internal/model"
	"github.com/iliyamo/item-service/internal/queue"
)

// ItemStore is the persistence surface the item handlers depend on.
// *repository.ItemRepo satisfies it.
type ItemStore interface {
	Create(ctx context.Context, name string, description *string) (*model.Item, error)
	ListAll(ctx context.Context) ([]model.Item, error)
}

// EventPublisher delivers item.created notifications.  Failures are logged
// and never change the response of a committed create.
type EventPublisher interface {
	PublishItemCreated(ctx context.Context, ev queue.ItemCreatedEvent) error
}

// ItemHandler serves /items.
type ItemHandler struct {
	Store     ItemStore
	Publisher EventPublisher
}

// NewItemHandler constructs an ItemHandler and panics if the store is nil.
// A nil publisher disables event delivery.
func NewItemHandler(store ItemStore, pub EventPublisher) *ItemHandler {
	if store == nil {
		panic("nil store passed to NewItemHandler")
	}
	return &ItemHandler{Store: store, Publisher: pub}
}

// createItemRequest is the POST /items payload.  Pointers tell an absent
// field apart from an empty one.
type createItemRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

// detail builds the error body shape shared by every endpoint.
func detail(msg string) map[string]string { return map[string]string{"detail": msg} }

// CreateItem handles POST /items.
func (h *ItemHandler) CreateItem(c echo.Context) error {
	var body createItemRequest
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, detail("invalid request body"))
	}
	if body.Name == nil || strings.TrimSpace(*body.Name) == "" {
		return c.JSON(http.StatusBadRequest, detail("name is required"))
	}
	name := strings.TrimSpace(*body.Name)

	ctx := c.Request().Context()
	item, err := h.Store.Create(ctx, name, body.Description)
	if err != nil {
		log.Printf("items: create failed: %v", err)
		return c.JSON(http.StatusInternalServerError, detail("Database error"))
	}
	h.publishCreated(ctx, item)
	return c.JSON(http.StatusCreated, item)
}

// ListItems handles GET /items and returns a bare JSON array.
func (h *ItemHandler) ListItems(c echo.Context) error {
	items, err := h.Store.ListAll(c.Request().Context())
	if err != nil {
		log.Printf("items: list failed: %v", err)
		return c.JSON(http.StatusInternalServerError, detail("Database error"))
	}
	return c.JSON(http.StatusOK, items)
}

func (h *ItemHandler) publishCreated(ctx context.Context, item *model.Item) {
	if h.Publisher == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 3*time.Second)
	defer cancel()
	if err := h.Publisher.PublishItemCreated(ctx, queue.NewItemCreatedEvent(item)); err != nil {
		log.Printf("items: publish item.created for %s failed: %v", item.ID, err)
	}
}
