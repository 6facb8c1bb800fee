// Copyright (c) 2025 Eric Habimana
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package memledger is an internal helper for the test packages.
// It implements the repo.Pool, repo.Sessions, and repo.Events
// interfaces over plain in-process memory, with transaction rollback
// emulated by state snapshots, so the controller use cases can be
// unit tested without a DBMS server. The PostgreSQL adapter has its
// own integration-level test suites for the real ledger semantics.
package memledger

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/habimana/parkgate/pkg/core/cerr"
	"github.com/habimana/parkgate/pkg/core/model"
	"github.com/habimana/parkgate/pkg/core/repo"
)

// Ledger is an in-memory stand-in for the shared relational ledger.
// The zero value is not usable; create instances with New.
type Ledger struct {
	mu       sync.Mutex
	sessions []model.ParkingSession
	events   []model.Event

	// FailSessions and FailEvents, when non-nil, make the next
	// sessions/events mutation fail with the given error, emulating
	// a storage failure. They reset after firing once.
	FailSessions error
	FailEvents   error
}

func New() *Ledger {
	return &Ledger{}
}

// Pool returns a repo.Pool view over the ledger.
func (l *Ledger) Pool() repo.Pool {
	return pool{l}
}

// Sessions returns a repo.Sessions view over the ledger.
func (l *Ledger) Sessions() repo.Sessions {
	return sessionsRepo{}
}

// Events returns a repo.Events view over the ledger.
func (l *Ledger) Events() repo.Events {
	return eventsRepo{}
}

// SessionsSnapshot returns a copy of all session rows, oldest first.
func (l *Ledger) SessionsSnapshot() []model.ParkingSession {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]model.ParkingSession(nil), l.sessions...)
}

// EventsSnapshot returns a copy of all event rows, oldest first.
func (l *Ledger) EventsSnapshot() []model.Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]model.Event(nil), l.events...)
}

// MarkExited force-closes the active session of the plate directly,
// bypassing the paid check, to arrange already-exited scenarios.
func (l *Ledger) MarkExited(plate model.Plate) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := range l.sessions {
		s := &l.sessions[i]
		if s.Plate == plate && !s.Exited {
			now := time.Now()
			s.ExitTime = &now
			s.Exited = true
		}
	}
}

// Seed inserts a session row directly, bypassing the Create checks.
func (l *Ledger) Seed(s model.ParkingSession) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	l.sessions = append(l.sessions, s)
}

type pool struct {
	l *Ledger
}

func (p pool) Conn(ctx context.Context, f repo.ConnHandler) error {
	return f(ctx, conn{p.l})
}

type conn struct {
	l *Ledger
}

func (c conn) IsConn() {}

func (c conn) Exec(context.Context, string, ...any) (int64, error) {
	return 0, errors.New("memledger does not execute raw SQL")
}

func (c conn) Query(context.Context, string, ...any) (repo.Rows, error) {
	return nil, errors.New("memledger does not execute raw SQL")
}

// Tx snapshots the ledger state and restores it when the handler
// fails, approximating the rollback semantics of a real transaction.
func (c conn) Tx(ctx context.Context, f repo.TxHandler) error {
	c.l.mu.Lock()
	sessions := append([]model.ParkingSession(nil), c.l.sessions...)
	events := append([]model.Event(nil), c.l.events...)
	c.l.mu.Unlock()
	err := f(ctx, tx{c.l})
	if err != nil {
		c.l.mu.Lock()
		c.l.sessions = sessions
		c.l.events = events
		c.l.mu.Unlock()
	}
	return err
}

type tx struct {
	l *Ledger
}

func (t tx) IsTx() {}

func (t tx) Exec(context.Context, string, ...any) (int64, error) {
	return 0, errors.New("memledger does not execute raw SQL")
}

func (t tx) Query(context.Context, string, ...any) (repo.Rows, error) {
	return nil, errors.New("memledger does not execute raw SQL")
}

type sessionsRepo struct{}

func (sessionsRepo) Conn(c repo.Conn) repo.SessionsConnQueryer {
	return sessionsQueryer{c.(conn).l}
}

func (sessionsRepo) Tx(t repo.Tx) repo.SessionsTxQueryer {
	return sessionsQueryer{t.(tx).l}
}

type sessionsQueryer struct {
	l *Ledger
}

func (q sessionsQueryer) failure() error {
	if err := q.l.FailSessions; err != nil {
		q.l.FailSessions = nil
		return cerr.Storage(err)
	}
	return nil
}

func (q sessionsQueryer) HasActive(_ context.Context, plate model.Plate) (bool, error) {
	q.l.mu.Lock()
	defer q.l.mu.Unlock()
	return q.findActive(plate) != nil, nil
}

func (q sessionsQueryer) HasAny(_ context.Context, plate model.Plate) (bool, error) {
	q.l.mu.Lock()
	defer q.l.mu.Unlock()
	for i := range q.l.sessions {
		if q.l.sessions[i].Plate == plate {
			return true, nil
		}
	}
	return false, nil
}

func (q sessionsQueryer) FindActive(_ context.Context, plate model.Plate) (*model.ParkingSession, error) {
	q.l.mu.Lock()
	defer q.l.mu.Unlock()
	if s := q.findActive(plate); s != nil {
		cp := *s
		return &cp, nil
	}
	return nil, cerr.NotFound(errors.New("no active session"))
}

func (q sessionsQueryer) Create(_ context.Context, plate model.Plate, at time.Time) (*model.ParkingSession, error) {
	q.l.mu.Lock()
	defer q.l.mu.Unlock()
	if err := q.failure(); err != nil {
		return nil, err
	}
	if q.findActive(plate) != nil {
		return nil, cerr.Duplicate(repo.ErrDuplicateSession)
	}
	s := model.ParkingSession{
		ID:        uuid.New(),
		Plate:     plate,
		EntryTime: at,
	}
	q.l.sessions = append(q.l.sessions, s)
	cp := s
	return &cp, nil
}

func (q sessionsQueryer) MarkPaid(_ context.Context, plate model.Plate, amount int64) (*model.ParkingSession, error) {
	q.l.mu.Lock()
	defer q.l.mu.Unlock()
	if err := q.failure(); err != nil {
		return nil, err
	}
	s := q.findActive(plate)
	if s == nil || s.Paid {
		return nil, cerr.NotFound(repo.ErrNoUnpaidSession)
	}
	s.Paid = true
	s.AmountDue = &amount
	cp := *s
	return &cp, nil
}

func (q sessionsQueryer) FinalizeExit(_ context.Context, plate model.Plate, at time.Time) (bool, error) {
	q.l.mu.Lock()
	defer q.l.mu.Unlock()
	if err := q.failure(); err != nil {
		return false, err
	}
	s := q.findActive(plate)
	if s == nil || !s.Paid {
		return false, nil
	}
	t := at
	s.ExitTime = &t
	s.Exited = true
	return true, nil
}

func (q sessionsQueryer) List(_ context.Context, activeOnly bool, limit int) ([]model.ParkingSession, error) {
	q.l.mu.Lock()
	defer q.l.mu.Unlock()
	var out []model.ParkingSession
	for i := len(q.l.sessions) - 1; i >= 0 && len(out) < limit; i-- {
		s := q.l.sessions[i]
		if activeOnly && s.Exited {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

// findActive must be called with the ledger mutex held.
func (q sessionsQueryer) findActive(plate model.Plate) *model.ParkingSession {
	for i := range q.l.sessions {
		s := &q.l.sessions[i]
		if s.Plate == plate && !s.Exited {
			return s
		}
	}
	return nil
}

type eventsRepo struct{}

func (eventsRepo) Conn(c repo.Conn) repo.EventsConnQueryer {
	return eventsQueryer{c.(conn).l}
}

func (eventsRepo) Tx(t repo.Tx) repo.EventsTxQueryer {
	return eventsQueryer{t.(tx).l}
}

type eventsQueryer struct {
	l *Ledger
}

func (q eventsQueryer) Append(_ context.Context, e model.Event) error {
	q.l.mu.Lock()
	defer q.l.mu.Unlock()
	if err := q.l.FailEvents; err != nil {
		q.l.FailEvents = nil
		return cerr.Storage(err)
	}
	q.l.events = append(q.l.events, e)
	return nil
}

func (q eventsQueryer) List(_ context.Context, limit int) ([]model.Event, error) {
	q.l.mu.Lock()
	defer q.l.mu.Unlock()
	var out []model.Event
	for i := len(q.l.events) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, q.l.events[i])
	}
	return out, nil
}
