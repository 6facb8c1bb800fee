// Copyright (c) 2025 Eric Habimana
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package reportuc contains the reporting use case which serves the
// read-only dashboard. It never mutates the ledger; gate decisions
// stay with the entry, exit, and payment processes.
package reportuc

import (
	"context"
	"errors"
	"fmt"

	"github.com/habimana/parkgate/pkg/core/model"
	"github.com/habimana/parkgate/pkg/core/repo"
)

// DefaultLimit caps listings when the caller does not ask for a
// specific page size.
const DefaultLimit = 100

// UseCase is the long-lived context of the reporting surface.
type UseCase struct {
	pool       repo.Pool
	sessionsrp repo.Sessions
	eventsrp   repo.Events
}

// New instantiates a reporting use case.
func New(p repo.Pool, s repo.Sessions, e repo.Events) (*UseCase, error) {
	if p == nil || s == nil || e == nil {
		return nil, errors.New("all collaborators are required")
	}
	return &UseCase{pool: p, sessionsrp: s, eventsrp: e}, nil
}

// ListEvents returns the newest audit events, at most limit of them.
// A non-positive limit asks for the DefaultLimit.
func (uc *UseCase) ListEvents(ctx context.Context, limit int) ([]model.Event, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	var events []model.Event
	err := uc.pool.Conn(ctx, func(ctx context.Context, c repo.Conn) error {
		var err error
		events, err = uc.eventsrp.Conn(c).List(ctx, limit)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("listing events: %w", err)
	}
	return events, nil
}

// ListSessions returns the newest parking sessions, at most limit of
// them, optionally restricted to active (non-exited) ones.
// A non-positive limit asks for the DefaultLimit.
func (uc *UseCase) ListSessions(ctx context.Context, activeOnly bool, limit int) ([]model.ParkingSession, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	var sessions []model.ParkingSession
	err := uc.pool.Conn(ctx, func(ctx context.Context, c repo.Conn) error {
		var err error
		sessions, err = uc.sessionsrp.Conn(c).List(ctx, activeOnly, limit)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	return sessions, nil
}
