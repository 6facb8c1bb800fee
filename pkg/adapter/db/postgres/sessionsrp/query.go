// Copyright (c) 2025 Eric Habimana
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package sessionsrp implements the parking sessions repository over
// a PostgreSQL ledger. The one-active-session-per-plate invariant is
// enforced by a partial unique index, and the paid/exited transitions
// are conditional single-statement updates, so the guarantees hold
// under concurrent access from the entry, exit, and payment processes
// without advisory locking.
package sessionsrp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/habimana/parkgate/pkg/adapter/db/postgres"
	"github.com/habimana/parkgate/pkg/core/cerr"
	"github.com/habimana/parkgate/pkg/core/model"
	"github.com/habimana/parkgate/pkg/core/repo"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm/clause"
)

// uniqueViolation is the PostgreSQL error code raised when the
// parking_sessions_active_plate index rejects a second active row.
const uniqueViolation = "23505"

type gSession struct {
	SID       uuid.UUID `gorm:"primaryKey;type:uuid;column:sid"`
	Plate     string
	Paid      bool
	Amount    *int64
	EntryTime time.Time
	ExitTime  *time.Time
	Exited    bool
}

func (gs *gSession) TableName() string {
	return "parking_sessions"
}

func (gs *gSession) Model() *model.ParkingSession {
	return &model.ParkingSession{
		ID:        gs.SID,
		Plate:     model.Plate(gs.Plate),
		Paid:      gs.Paid,
		AmountDue: gs.Amount,
		EntryTime: gs.EntryTime,
		ExitTime:  gs.ExitTime,
		Exited:    gs.Exited,
	}
}

func HasActive[Q postgres.Queryer](ctx context.Context, q Q, plate model.Plate) (bool, error) {
	gdb := q.GORM(ctx)
	var n int64
	gdb.Model(&gSession{}).Where(
		"plate=? AND NOT exited", plate.String(),
	).Count(&n)
	if err := gdb.Error; err != nil {
		return false, fmt.Errorf("query: %w", err)
	}
	return n > 0, nil
}

func HasAny[Q postgres.Queryer](ctx context.Context, q Q, plate model.Plate) (bool, error) {
	gdb := q.GORM(ctx)
	var n int64
	gdb.Model(&gSession{}).Where("plate=?", plate.String()).Count(&n)
	if err := gdb.Error; err != nil {
		return false, fmt.Errorf("query: %w", err)
	}
	return n > 0, nil
}

func FindActive[Q postgres.Queryer](ctx context.Context, q Q, plate model.Plate) (*model.ParkingSession, error) {
	gdb := q.GORM(ctx)
	var gs []gSession
	gdb.Where("plate=? AND NOT exited", plate.String()).Limit(1).Find(&gs)
	if err := gdb.Error; err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	if len(gs) == 0 {
		return nil, cerr.NotFound(
			fmt.Errorf("no active session for %s", plate),
		)
	}
	return gs[0].Model(), nil
}

// Create inserts a new active session row. A concurrent creation for
// the same plate is serialized by the partial unique index; the loser
// observes a unique violation and reports it as a duplicate.
func Create[Q postgres.Queryer](ctx context.Context, q Q, plate model.Plate, at time.Time) (*model.ParkingSession, error) {
	gdb := q.GORM(ctx)
	gs := gSession{
		SID:       uuid.New(),
		Plate:     plate.String(),
		EntryTime: at,
	}
	if err := gdb.Create(&gs).Error; err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, cerr.Duplicate(repo.ErrDuplicateSession)
		}
		return nil, fmt.Errorf("query: %w", err)
	}
	return gs.Model(), nil
}

// MarkPaid performs the unpaid-to-paid transition as one conditional
// UPDATE with a RETURNING clause, so a racing duplicate confirmation
// matches zero rows instead of double-charging.
func MarkPaid[Q postgres.Queryer](ctx context.Context, q Q, plate model.Plate, amount int64) (*model.ParkingSession, error) {
	gdb := q.GORM(ctx)
	var gs []gSession
	gdb.Model(&gs).Clauses(clause.Returning{}).Select(
		"paid", "amount",
	).Where(
		"plate=? AND NOT exited AND NOT paid", plate.String(),
	).Updates(gSession{
		Paid:   true,
		Amount: &amount,
	})
	if err := gdb.Error; err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	if n := len(gs); n != 1 {
		return nil, cerr.NotFound(repo.ErrNoUnpaidSession)
	}
	return gs[0].Model(), nil
}

// FinalizeExit performs the paid-to-exited transition as one
// conditional UPDATE; zero matched rows is the negative authorization
// signal (unpaid, unknown, or already exited), not an error.
func FinalizeExit[Q postgres.Queryer](ctx context.Context, q Q, plate model.Plate, at time.Time) (bool, error) {
	gdb := q.GORM(ctx)
	var gs []gSession
	gdb.Model(&gs).Clauses(clause.Returning{}).Select(
		"exit_time", "exited",
	).Where(
		"plate=? AND paid AND NOT exited", plate.String(),
	).Updates(gSession{
		ExitTime: &at,
		Exited:   true,
	})
	if err := gdb.Error; err != nil {
		return false, fmt.Errorf("query: %w", err)
	}
	return len(gs) == 1, nil
}

func List[Q postgres.Queryer](ctx context.Context, q Q, activeOnly bool, limit int) ([]model.ParkingSession, error) {
	gdb := q.GORM(ctx)
	if activeOnly {
		gdb = gdb.Where("NOT exited")
	}
	var gs []gSession
	gdb.Order("entry_time DESC").Limit(limit).Find(&gs)
	if err := gdb.Error; err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	sessions := make([]model.ParkingSession, 0, len(gs))
	for i := range gs {
		sessions = append(sessions, *gs[i].Model())
	}
	return sessions, nil
}
