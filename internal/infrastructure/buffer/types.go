package buffer

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	EntityStreak = "streak"
	EntityBlob   = "blob"

	OperationRecompute = "recompute"
	OperationDelete    = "delete"
)

// Item is a side effect that must eventually run at least once.
type Item struct {
	ID        string          `json:"id"`
	UserID    string          `json:"user_id"`
	Entity    string          `json:"entity"`
	Operation string          `json:"operation"`
	Data      json.RawMessage `json:"data,omitempty"`
	Priority  int             `json:"priority"`
	Retries   int             `json:"retries"`
	LastError string          `json:"last_error,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	// NotBefore delays the next attempt after a failure.
	NotBefore time.Time `json:"not_before,omitempty"`

	bucketKey []byte
}

// BlobData is the payload of an EntityBlob item.
type BlobData struct {
	Ref string `json:"ref"`
}

func (i *Item) normalize() {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	if i.Priority <= 0 || i.Priority > 5 {
		i.Priority = 3
	}
	if i.Timestamp.IsZero() {
		i.Timestamp = time.Now().UTC()
	}
}

// Due reports whether the item may be attempted at now.
func (i Item) Due(now time.Time) bool {
	return i.NotBefore.IsZero() || !now.Before(i.NotBefore)
}
