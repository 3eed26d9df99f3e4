package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBeforeCreateAssignsID(t *testing.T) {
	it := &Item{Name: "a"}
	require.NoError(t, it.BeforeCreate(nil))
	assert.False(t, it.ID.IsZero())
	assert.Equal(t, uuid.Version(4), uuid.UUID(it.ID).Version())

	fixed := NewUUID()
	it = &Item{ID: fixed, Name: "b"}
	require.NoError(t, it.BeforeCreate(nil))
	assert.Equal(t, fixed, it.ID, "a supplied id is kept")
}

func TestItemJSONShape(t *testing.T) {
	id, err := ParseUUID("6f1c1d0e-8f7a-4e0b-9a55-2a3c6c2d9b11")
	require.NoError(t, err)
	at := time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC)

	out, err := json.Marshal(Item{ID: id, Name: "X", CreatedAt: at})
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"id": "6f1c1d0e-8f7a-4e0b-9a55-2a3c6c2d9b11",
		"name": "X",
		"description": null,
		"created_at": "2026-10-19T08:00:00Z"
	}`, string(out))

	var back Item
	require.NoError(t, json.Unmarshal(out, &back))
	assert.Equal(t, id, back.ID)
	assert.Nil(t, back.Description)
}

func TestUUIDScan(t *testing.T) {
	want := NewUUID()

	var fromString UUID
	require.NoError(t, fromString.Scan(want.String()))
	assert.Equal(t, want, fromString)

	var fromBytes UUID
	require.NoError(t, fromBytes.Scan([]byte(want.String())))
	assert.Equal(t, want, fromBytes)

	var bad UUID
	assert.Error(t, bad.Scan("not-a-uuid"))

	v, err := want.Value()
	require.NoError(t, err)
	assert.Equal(t, want.String(), v)
}
