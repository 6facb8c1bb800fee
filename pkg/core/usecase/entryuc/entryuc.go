// Copyright (c) 2025 Eric Habimana
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package entryuc contains the entry controller use case: deciding
// whether a recognized plate may enter the lot, creating its parking
// session, and driving the entry gate.
package entryuc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/habimana/parkgate/pkg/core/cerr"
	"github.com/habimana/parkgate/pkg/core/debounce"
	"github.com/habimana/parkgate/pkg/core/gatectl"
	"github.com/habimana/parkgate/pkg/core/hwio"
	"github.com/habimana/parkgate/pkg/core/log"
	"github.com/habimana/parkgate/pkg/core/model"
	"github.com/habimana/parkgate/pkg/core/repo"
)

// Outcome is the explicit result of one entry candidate, replacing
// exception-driven control flow with state-machine return values.
type Outcome int

const (
	OutcomeInvalid Outcome = iota

	OutcomeAdmitted  // session created, gate cycled
	OutcomeRejected  // plate failed the grammar check
	OutcomeDuplicate // plate already has an active session
	OutcomeCooldown  // same plate re-confirmed within the cooldown
	OutcomeFailed    // hardware or ledger failure, candidate aborted
)

// UseCase is the long-lived context of one entry controller process.
// It owns the cooldown bookkeeping which the original system kept in
// ambient globals. It is single-threaded by design; concurrency with
// the exit and payment processes is mediated by the ledger only.
type UseCase struct {
	pool       repo.Pool
	sessionsrp repo.Sessions
	eventsrp   repo.Events
	gate       *gatectl.Controller

	cooldown  time.Duration
	lastPlate model.Plate
	lastEntry time.Time
}

// New instantiates an entry controller use case.
// The cooldown defaults to 5 minutes and may be adjusted with the
// WithCooldown functional option.
func New(
	p repo.Pool,
	s repo.Sessions,
	e repo.Events,
	gate *gatectl.Controller,
	opts ...Option,
) (*UseCase, error) {
	uc := &UseCase{pool: p, sessionsrp: s, eventsrp: e, gate: gate}
	for _, opt := range opts {
		if err := opt(uc); err != nil {
			return nil, fmt.Errorf("invalid option: %w", err)
		}
	}
	// now, deal with defaults
	if uc.cooldown == 0 {
		uc.cooldown = 5 * time.Minute
	}
	return uc, nil
}

// Run polls the src readings, debounces them, and processes each
// confirmed plate until one vehicle is admitted. Denials and
// recoverable failures keep the loop alive; the loop ends when a
// session is committed and the gate cycle completes (the process
// supervisor starts a fresh run for the next vehicle), when src is
// exhausted, or when ctx is canceled.
func (uc *UseCase) Run(ctx context.Context, src hwio.Source) error {
	deb, err := debounce.New(3, 2)
	if err != nil {
		return fmt.Errorf("creating debouncer: %w", err)
	}
	for {
		raw, err := src.Next(ctx)
		switch {
		case errors.Is(err, io.EOF):
			return nil
		case err != nil:
			return fmt.Errorf("reading OCR source: %w", err)
		}
		plate, ok := deb.Add(raw)
		if !ok {
			continue
		}
		outcome, err := uc.Process(ctx, plate)
		if err != nil {
			log.Error(ctx, "entry candidate aborted",
				log.Plate(plate), log.Err("error", err))
			continue
		}
		if outcome == OutcomeAdmitted {
			return nil
		}
	}
}

// Process runs the entry decision state machine for one confirmed
// plate: grammar check, duplicate-entry rejection, cooldown
// suppression, then session creation followed by the gate open
// protocol. Hardware or ledger failures abort the candidate with
// a buzzer alert and an Error event; they never crash the process.
func (uc *UseCase) Process(ctx context.Context, plate model.Plate) (Outcome, error) {
	if err := plate.Validate(); err != nil {
		return OutcomeRejected, cerr.Validation(err)
	}
	dup, err := uc.hasActiveSession(ctx, plate)
	if err != nil {
		uc.abort(ctx, plate, err)
		return OutcomeFailed, err
	}
	if dup {
		uc.deny(ctx, plate, model.EventEntry,
			fmt.Sprintf("Duplicate entry attempt for %s", plate))
		return OutcomeDuplicate, nil
	}
	if plate == uc.lastPlate && time.Since(uc.lastEntry) <= uc.cooldown {
		// OCR re-trigger on the same frame sequence, not an error
		log.Info(ctx, "entry skipped within cooldown", log.Plate(plate))
		uc.appendEvent(ctx, model.NewEvent(plate, model.EventEntry,
			fmt.Sprintf("Duplicate entry attempt within cooldown for %s", plate)))
		return OutcomeCooldown, nil
	}
	if err := uc.createSession(ctx, plate); err != nil {
		if cerr.IsKind(err, cerr.KindDuplicate) {
			// lost the creation race against a concurrent confirm
			uc.deny(ctx, plate, model.EventEntry,
				fmt.Sprintf("Duplicate entry attempt for %s", plate))
			return OutcomeDuplicate, nil
		}
		uc.abort(ctx, plate, err)
		return OutcomeFailed, err
	}
	if err := uc.gate.Open(ctx); err != nil {
		uc.abort(ctx, plate, err)
		return OutcomeFailed, err
	}
	uc.lastPlate = plate
	uc.lastEntry = time.Now()
	log.Info(ctx, "vehicle admitted", log.Plate(plate))
	return OutcomeAdmitted, nil
}

// hasActiveSession checks the duplicate-entry condition on a pooled
// connection (a plain read, no transaction required).
func (uc *UseCase) hasActiveSession(ctx context.Context, plate model.Plate) (dup bool, err error) {
	err = uc.pool.Conn(ctx, func(ctx context.Context, c repo.Conn) error {
		dup, err = uc.sessionsrp.Conn(c).HasActive(ctx, plate)
		return err
	})
	return dup, err
}

// createSession inserts the session row and its Entry event in one
// transaction, so an admitted vehicle may never go un-logged.
func (uc *UseCase) createSession(ctx context.Context, plate model.Plate) error {
	return uc.pool.Conn(ctx, func(ctx context.Context, c repo.Conn) error {
		return c.Tx(ctx, func(ctx context.Context, tx repo.Tx) error {
			if _, err := uc.sessionsrp.Tx(tx).Create(ctx, plate, time.Now()); err != nil {
				return err
			}
			return uc.eventsrp.Tx(tx).Append(ctx, model.NewEvent(
				plate, model.EventEntry,
				fmt.Sprintf("Vehicle %s entered", plate),
			))
		})
	})
}

// deny records an authorization denial and sounds the buzzer, so no
// vehicle is ever denied silently.
func (uc *UseCase) deny(ctx context.Context, plate model.Plate, kind model.EventKind, msg string) {
	log.Warn(ctx, "entry denied", log.Plate(plate), slog.String("reason", msg))
	uc.appendEvent(ctx, model.NewEvent(plate, kind, msg))
	if err := uc.gate.Buzz(ctx); err != nil {
		log.Warn(ctx, "buzzer failed", log.Plate(plate), log.Err("error", err))
	}
}

// abort handles a hardware or storage failure for one candidate:
// buzzer alert, Error event, and back to idle.
func (uc *UseCase) abort(ctx context.Context, plate model.Plate, cause error) {
	uc.appendEvent(ctx, model.NewEvent(plate, model.EventError, cause.Error()))
	if err := uc.gate.Buzz(ctx); err != nil {
		log.Warn(ctx, "buzzer failed", log.Plate(plate), log.Err("error", err))
	}
}

// appendEvent appends a standalone audit event outside of any ledger
// mutation. A failing append is logged and swallowed; the event log
// must not block the gate decision which was already made.
func (uc *UseCase) appendEvent(ctx context.Context, e model.Event) {
	err := uc.pool.Conn(ctx, func(ctx context.Context, c repo.Conn) error {
		return uc.eventsrp.Conn(c).Append(ctx, e)
	})
	if err != nil {
		log.Error(ctx, "appending audit event failed", log.Err("error", err))
	}
}
