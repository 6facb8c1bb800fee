package repo

import (
	"context"
	"errors"
	"time"

	"github.com/habimana/parkgate/pkg/core/model"
)

// ErrDuplicateSession indicates that a session creation was rejected
// because the plate already has an active (non-exited) session.
var ErrDuplicateSession = errors.New("plate already has an active session")

// ErrNoUnpaidSession indicates that a payment could not be recorded
// because the plate has no unpaid, non-exited session.
// Note that MarkPaid is not idempotent: a duplicate terminal
// confirmation for an already-paid session fails with this error
// instead of silently double-charging, but there is no de-duplication
// key for payment messages either (a known limitation).
var ErrNoUnpaidSession = errors.New("plate has no unpaid session")

type SessionsConnQueryer interface {
	SessionsQueryer
}

type SessionsTxQueryer interface {
	SessionsQueryer
}

// SessionsQueryer is the ledger contract over parking sessions.
// Every method executes its read-check-write as one atomic statement
// or within the caller-provided transaction, so the at-most-one-active
// -session-per-plate invariant holds under concurrent access from the
// entry, exit, and payment processes.
type SessionsQueryer interface {
	// HasActive reports whether a non-exited session exists for
	// the plate.
	HasActive(ctx context.Context, plate model.Plate) (bool, error)

	// HasAny reports whether any session record, active or not,
	// exists for the plate.
	HasAny(ctx context.Context, plate model.Plate) (bool, error)

	// FindActive returns the single non-exited session of the plate,
	// or a not-found error when the plate is not inside the lot.
	FindActive(ctx context.Context, plate model.Plate) (*model.ParkingSession, error)

	// Create inserts a new session with Paid=false and Exited=false.
	// It fails with a duplicate error wrapping ErrDuplicateSession
	// if an active session already exists for the plate.
	Create(ctx context.Context, plate model.Plate, at time.Time) (*model.ParkingSession, error)

	// MarkPaid transitions the single unpaid, non-exited session of
	// the plate to Paid=true, recording the amount due atomically.
	// It fails with a not-found error wrapping ErrNoUnpaidSession
	// if no such session exists. The payment time is carried by the
	// Payment audit event appended in the same transaction.
	MarkPaid(ctx context.Context, plate model.Plate, amount int64) (*model.ParkingSession, error)

	// FinalizeExit sets ExitTime and Exited=true on the session with
	// Paid=true and Exited=false. It returns false, without an error,
	// when no such session exists; that is a negative authorization
	// signal, not a failure.
	FinalizeExit(ctx context.Context, plate model.Plate, at time.Time) (bool, error)

	// List returns sessions ordered by entry time, newest first,
	// optionally restricted to active ones. It serves the read-only
	// reporting surface.
	List(ctx context.Context, activeOnly bool, limit int) ([]model.ParkingSession, error)
}

// Sessions is the parking sessions repository which may operate on
// connections or transactions, as provided by its caller.
type Sessions interface {
	Conn(Conn) SessionsConnQueryer
	Tx(Tx) SessionsTxQueryer
}
