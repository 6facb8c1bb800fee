// Copyright (c) 2025 Eric Habimana
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package exituc contains the exit controller use case: deciding
// whether a recognized plate may leave the lot (paid and not already
// exited), driving the exit gate, and closing the parking session.
package exituc

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

// Outcome is the explicit result of one exit candidate.
type Outcome int

const (
	OutcomeInvalid Outcome = iota

	OutcomeReleased      // gate cycled, session finalized
	OutcomeRejected      // plate failed the grammar check
	OutcomeNoRecord      // no session record exists at all
	OutcomeUnpaid        // active session is not paid yet
	OutcomeAlreadyExited // the session was already finalized
	OutcomeRaceLost      // gate opened but a concurrent finalize won
	OutcomeFailed        // hardware or ledger failure
)

// UseCase is the long-lived context of one exit controller process.
type UseCase struct {
	pool       repo.Pool
	sessionsrp repo.Sessions
	eventsrp   repo.Events
	gate       *gatectl.Controller
}

// New instantiates an exit controller use case.
func New(
	p repo.Pool, s repo.Sessions, e repo.Events, gate *gatectl.Controller,
) (*UseCase, error) {
	if p == nil || s == nil || e == nil || gate == nil {
		return nil, errors.New("all collaborators are required")
	}
	return &UseCase{pool: p, sessionsrp: s, eventsrp: e, gate: gate}, nil
}

// Run polls the src readings, debounces them, and processes each
// confirmed plate until one vehicle is released. Denials keep the
// loop alive, matching the entry controller behavior.
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
			log.Error(ctx, "exit candidate aborted",
				log.Plate(plate), log.Err("error", err))
			continue
		}
		if outcome == OutcomeReleased {
			return nil
		}
	}
}

// Process runs the exit decision state machine for one confirmed
// plate. The decision deliberately precedes the physical gate
// opening: authorization is read first, the gate is cycled, and the
// outcome is persisted afterwards. This leaves a narrow window where
// the gate has opened but the finalize fails; the resulting ledger
// inconsistency must be reconciled manually and is a known,
// deliberate limitation rather than something this controller
// papers over (see the duplicate-exit handling below).
func (uc *UseCase) Process(ctx context.Context, plate model.Plate) (Outcome, error) {
	if err := plate.Validate(); err != nil {
		return OutcomeRejected, cerr.Validation(err)
	}
	active, known, err := uc.lookup(ctx, plate)
	if err != nil {
		uc.abort(ctx, plate, err)
		return OutcomeFailed, err
	}
	switch {
	case active == nil && !known:
		uc.deny(ctx, plate, fmt.Sprintf("No record for %s", plate))
		return OutcomeNoRecord, nil
	case active == nil:
		uc.deny(ctx, plate,
			fmt.Sprintf("Vehicle %s has already exited", plate))
		return OutcomeAlreadyExited, nil
	case !active.Paid:
		uc.deny(ctx, plate,
			fmt.Sprintf("Unpaid record for %s, exit denied", plate))
		return OutcomeUnpaid, nil
	}
	if err := uc.gate.Open(ctx); err != nil {
		uc.abort(ctx, plate, err)
		return OutcomeFailed, err
	}
	done, err := uc.finalize(ctx, plate)
	if err != nil {
		// the gate already opened; surface loudly for reconciliation
		uc.abort(ctx, plate, err)
		return OutcomeFailed, err
	}
	if !done {
		// a concurrent finalize won the race after our authorization
		// read; the vehicle is out and the buzzer stays silent, one
		// extra gate cycle is the accepted cost
		log.Warn(ctx, "duplicate exit", log.Plate(plate))
		uc.appendEvent(ctx, model.NewEvent(plate, model.EventExit,
			fmt.Sprintf("Exit already recorded for %s", plate)))
		return OutcomeRaceLost, nil
	}
	log.Info(ctx, "vehicle released", log.Plate(plate))
	return OutcomeReleased, nil
}

// lookup reads the exit authorization state in one transaction:
// the active session of the plate (nil when absent) and whether any
// session record, current or historical, exists for it.
func (uc *UseCase) lookup(ctx context.Context, plate model.Plate) (
	active *model.ParkingSession, known bool, err error,
) {
	err = uc.pool.Conn(ctx, func(ctx context.Context, c repo.Conn) error {
		return c.Tx(ctx, func(ctx context.Context, tx repo.Tx) error {
			s := uc.sessionsrp.Tx(tx)
			active, err = s.FindActive(ctx, plate)
			if err != nil {
				if !cerr.IsKind(err, cerr.KindNotFound) {
					return err
				}
				active, err = nil, nil
			}
			known, err = s.HasAny(ctx, plate)
			return err
		})
	})
	if err != nil {
		return nil, false, err
	}
	return active, known, nil
}

// finalize closes the session and appends its Exit event in one
// transaction. The false return value is a negative authorization
// signal (already finalized elsewhere), not an error.
func (uc *UseCase) finalize(ctx context.Context, plate model.Plate) (done bool, err error) {
	err = uc.pool.Conn(ctx, func(ctx context.Context, c repo.Conn) error {
		return c.Tx(ctx, func(ctx context.Context, tx repo.Tx) error {
			done, err = uc.sessionsrp.Tx(tx).FinalizeExit(ctx, plate, time.Now())
			if err != nil || !done {
				return err
			}
			return uc.eventsrp.Tx(tx).Append(ctx, model.NewEvent(
				plate, model.EventExit,
				fmt.Sprintf("Vehicle %s exited", plate),
			))
		})
	})
	return done, err
}

func (uc *UseCase) deny(ctx context.Context, plate model.Plate, msg string) {
	log.Warn(ctx, "exit denied", log.Plate(plate), slog.String("reason", msg))
	uc.appendEvent(ctx, model.NewEvent(plate, model.EventUnauthorizedExit, msg))
	if err := uc.gate.Buzz(ctx); err != nil {
		log.Warn(ctx, "buzzer failed", log.Plate(plate), log.Err("error", err))
	}
}

func (uc *UseCase) abort(ctx context.Context, plate model.Plate, cause error) {
	uc.appendEvent(ctx, model.NewEvent(plate, model.EventError, cause.Error()))
	if err := uc.gate.Buzz(ctx); err != nil {
		log.Warn(ctx, "buzzer failed", log.Plate(plate), log.Err("error", err))
	}
}

func (uc *UseCase) appendEvent(ctx context.Context, e model.Event) {
	err := uc.pool.Conn(ctx, func(ctx context.Context, c repo.Conn) error {
		return uc.eventsrp.Conn(c).Append(ctx, e)
	})
	if err != nil {
		log.Error(ctx, "appending audit event failed", log.Err("error", err))
	}
}
