package event

import (
	"context"
	"time"
)

// Store is the journal persistence interface.
type Store interface {
	// AppendEvents durably appends a batch of journal events.
	AppendEvents(ctx context.Context, events []*Event) error

	// QueryEvents returns journal events matching opts, ordered by sequence.
	QueryEvents(ctx context.Context, opts QueryOpts) ([]*Event, error)

	// PurgeEvents deletes events recorded before the cutoff and reports
	// how many were removed.
	PurgeEvents(ctx context.Context, before time.Time) (int64, error)
}
