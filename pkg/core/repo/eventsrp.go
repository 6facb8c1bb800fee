package repo

import (
	"context"

	"github.com/habimana/parkgate/pkg/core/model"
)

type EventsConnQueryer interface {
	EventsQueryer
}

type EventsTxQueryer interface {
	EventsQueryer
}

// EventsQueryer is the append-only audit log contract. Mutating
// components append events within the same transaction as their
// ledger mutation, so an entry, exit, or payment may never be
// committed silently un-logged.
type EventsQueryer interface {
	// Append inserts one audit event. Events are never updated or
	// deleted afterwards.
	Append(ctx context.Context, e model.Event) error

	// List returns events ordered by timestamp, newest first. It is
	// only consumed by the read-only reporting surface.
	List(ctx context.Context, limit int) ([]model.Event, error)
}

// Events is the audit events repository which may operate on
// connections or transactions, as provided by its caller.
type Events interface {
	Conn(Conn) EventsConnQueryer
	Tx(Tx) EventsTxQueryer
}
