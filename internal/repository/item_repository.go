// Package repository contains data access logic separated from HTTP handlers.
// This file holds the Item repository.  Each call runs on its own pooled
// connection; gorm returns it to the pool on every exit path.
package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/iliyamo/item-service/internal/model"
)

// ItemRepo encapsulates all database queries related to items.
type ItemRepo struct {
	db *gorm.DB // db is the shared session factory backed by the connection pool
}

// NewItemRepo constructs an ItemRepo with the provided gorm handle.
func NewItemRepo(db *gorm.DB) *ItemRepo {
	return &ItemRepo{db: db}
}

// Create inserts a new item with a fresh identifier inside a transaction and
// reads the row back so that the database-assigned created_at is populated.
// Any failure rolls the transaction back and is reported as ErrStorage.
func (r *ItemRepo) Create(ctx context.Context, name string, description *string) (*model.Item, error) {
	item := &model.Item{Name: name, Description: description}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// created_at is read back below, not through RETURNING
		if err := tx.Clauses(clause.Returning{Columns: []clause.Column{{Name: "id"}}}).Create(item).Error; err != nil {
			return err
		}
		return tx.Take(item, "id = ?", item.ID).Error
	})
	if err != nil {
		return nil, fmt.Errorf("%w: create item: %w", ErrStorage, err)
	}
	return item, nil
}

// ListAll returns every item ordered by creation time, ties broken by id.
// The result is never nil, so an empty table encodes as [].
func (r *ItemRepo) ListAll(ctx context.Context) ([]model.Item, error) {
	items := make([]model.Item, 0)
	if err := r.db.WithContext(ctx).Order("created_at").Order("id").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("%w: list items: %w", ErrStorage, err)
	}
	return items, nil
}
