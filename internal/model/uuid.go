package model

import (
	"database/sql/driver"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// UUID is a uuid.UUID that knows its column type on every supported
// dialect.  It is stored in canonical 36 character text form everywhere
// except postgres, which has a native uuid type.
type UUID uuid.UUID

// NewUUID returns a random (version 4) identifier.
func NewUUID() UUID { return UUID(uuid.New()) }

// ParseUUID parses the canonical text form.
func ParseUUID(s string) (UUID, error) {
	id, err := uuid.Parse(s)
	return UUID(id), err
}

func (u UUID) String() string { return uuid.UUID(u).String() }

// IsZero reports whether u is the nil UUID.
func (u UUID) IsZero() bool { return uuid.UUID(u) == uuid.Nil }

func (u UUID) Value() (driver.Value, error) { return u.String(), nil }

func (u *UUID) Scan(src any) error {
	var id uuid.UUID
	if err := id.Scan(src); err != nil {
		return err
	}
	*u = UUID(id)
	return nil
}

func (u UUID) MarshalText() ([]byte, error) { return uuid.UUID(u).MarshalText() }

func (u *UUID) UnmarshalText(b []byte) error {
	var id uuid.UUID
	if err := id.UnmarshalText(b); err != nil {
		return err
	}
	*u = UUID(id)
	return nil
}

// GormDBDataType picks the column type used by AutoMigrate.
func (UUID) GormDBDataType(db *gorm.DB, _ *schema.Field) string {
	switch db.Dialector.Name() {
	case "postgres":
		return "uuid"
	case "mysql":
		return "char(36)"
	default:
		return "text"
	}
}
