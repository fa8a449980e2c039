package metering

import (
	"context"
	"time"
)

// Record is one stored reading. Type is the camelCase storage form of the metering kind.
type Record struct {
	ID           int64
	UserID       string
	Type         string
	Timestamp    time.Time
	Value        float64
	Unit         string
	UsagePointID string
}

// Repo persists readings. Nothing deduplicates: inserting the same reading twice stores it twice.
type Repo interface {
	InsertBatch(ctx context.Context, records []Record) error

	// ListByUserAndType returns the user's readings of one type, oldest first.
	ListByUserAndType(ctx context.Context, userID, recordType string) ([]Record, error)

	// DeleteForUser removes every reading owned by the user and returns how many went.
	DeleteForUser(ctx context.Context, userID string) (int64, error)
}
