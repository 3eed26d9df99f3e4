package model

import (
	"time"

	"gorm.io/gorm"
)

// Item is the only entity managed by the service.  It corresponds to a
// row in the `items` table.
//
// Fields:
//  ID          – primary key, generated before insert when absent.
//  Name        – required, at most 255 characters (enforced by the column).
//  Description – optional free text; nil is stored as NULL.
//  CreatedAt   – assigned by the database default at insert time.
//
// Rows are never updated or deleted by the service.
type Item struct {
	ID          UUID      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:255;not null" json:"name"`
	Description *string   `gorm:"type:text" json:"description"`
	CreatedAt   time.Time `gorm:"autoCreateTime:false;not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName pins the table name independent of gorm's naming strategy.
func (Item) TableName() string { return "items" }

// BeforeCreate assigns a fresh identifier unless the caller supplied one.
func (i *Item) BeforeCreate(*gorm.DB) error {
	if i.ID.IsZero() {
		i.ID = NewUUID()
	}
	return nil
}
