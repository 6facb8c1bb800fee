// Copyright (c) 2025 Eric Habimana
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package paymentuc contains the payment processor use case: it
// listens for inbound balance-card messages from the payment
// terminal, negotiates a balance deduction over a timeout-bounded
// request/response handshake, and finalizes the payment on the
// parking session. The process is single-shot: it terminates after
// one confirmed payment.
package paymentuc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/habimana/parkgate/pkg/core/cerr"
	"github.com/habimana/parkgate/pkg/core/hwio"
	"github.com/habimana/parkgate/pkg/core/log"
	"github.com/habimana/parkgate/pkg/core/model"
	"github.com/habimana/parkgate/pkg/core/repo"
)

// Protocol tokens exchanged with the payment terminal.
const (
	// InsufficientFunds is the single-character response code sent
	// when the card balance does not cover the amount due.
	InsufficientFunds = "I"

	// tokenReady is signaled by the terminal when it is ready to
	// receive the new balance for writing onto the card.
	tokenReady = "READY"

	// tokenDone is contained in the terminal confirmation line after
	// the new balance was written onto the card successfully.
	tokenDone = "DONE"

	// tokenTimeout marks inbound lines reporting a terminal-side
	// timeout; they are dropped without an audit event.
	tokenTimeout = "[TIMEOUT]"
)

// Outcome is the explicit result of one inbound payment message.
type Outcome int

const (
	OutcomeInvalid Outcome = iota

	OutcomePaid         // balance written, session marked paid
	OutcomeNoSession    // no unpaid session for the plate
	OutcomeInsufficient // balance below the amount due
	OutcomeTimeout      // handshake exceeded its bound, ledger untouched
	OutcomeFailed       // storage failure, ledger rolled back
)

// UseCase is the long-lived context of one payment processor run.
type UseCase struct {
	pool       repo.Pool
	sessionsrp repo.Sessions
	eventsrp   repo.Events
	dialer     hwio.TerminalDialer

	ratePerHour       int64
	handshakeTimeout  time.Duration
	reconnectAttempts int
	reconnectBackoff  time.Duration
}

// New instantiates a payment processor use case.
// The hourly rate defaults to 500, the handshake timeout to 10s, and
// the reconnect policy to 5 attempts with 1s backoff; all of them may
// be adjusted with functional options.
func New(
	p repo.Pool,
	s repo.Sessions,
	e repo.Events,
	d hwio.TerminalDialer,
	opts ...Option,
) (*UseCase, error) {
	uc := &UseCase{pool: p, sessionsrp: s, eventsrp: e, dialer: d}
	for _, opt := range opts {
		if err := opt(uc); err != nil {
			return nil, fmt.Errorf("invalid option: %w", err)
		}
	}
	// now, deal with defaults
	if uc.ratePerHour == 0 {
		uc.ratePerHour = 500
	}
	if uc.handshakeTimeout == 0 {
		uc.handshakeTimeout = 10 * time.Second
	}
	if uc.reconnectAttempts == 0 {
		uc.reconnectAttempts = 5
	}
	if uc.reconnectBackoff == 0 {
		uc.reconnectBackoff = time.Second
	}
	return uc, nil
}

// ParseMessage parses one inbound terminal line of the
// "<plate>,<balance>" form. Malformed lines, grammar-invalid plates,
// negative balances, and terminal-side timeout reports are dropped
// (ok=false) without an audit event.
func ParseMessage(line string) (plate model.Plate, balance int64, ok bool) {
	if strings.Contains(line, tokenTimeout) {
		return "", 0, false
	}
	parts := strings.Split(strings.TrimSpace(line), ",")
	if len(parts) != 2 {
		return "", 0, false
	}
	plate, err := model.ParsePlate(parts[0])
	if err != nil {
		return "", 0, false
	}
	balance, err = strconv.ParseInt(strings.TrimSpace(parts[1]), 10, 64)
	if err != nil || balance < 0 {
		return "", 0, false
	}
	return plate, balance, true
}

// AmountDue computes the parking fee for a dwell which started at
// entry and is being paid at the `at` time: the elapsed time rounded
// up to the next whole hour, multiplied by the hourly rate. Any
// started hour is charged in full.
func (uc *UseCase) AmountDue(entry, at time.Time) int64 {
	elapsed := at.Sub(entry)
	hours := int64(elapsed / time.Hour)
	if elapsed%time.Hour > 0 || hours == 0 {
		hours++
	}
	return hours * uc.ratePerHour
}

// Run connects to the terminal and serves inbound messages until one
// payment is confirmed, then returns nil. Dropped links are re-dialed
// with the bounded reconnect policy; running out of reconnect
// attempts is fatal for the process.
func (uc *UseCase) Run(ctx context.Context) error {
	for {
		term, err := uc.connect(ctx)
		if err != nil {
			return err
		}
		err = uc.serve(ctx, term)
		if cErr := term.Close(); cErr != nil {
			log.Warn(ctx, "closing terminal failed", log.Err("error", cErr))
		}
		switch {
		case err == nil:
			return nil
		case ctx.Err() != nil:
			return ctx.Err()
		case cerr.IsKind(err, cerr.KindHardware):
			// link dropped, re-detect and reconnect
			log.Warn(ctx, "terminal link lost", log.Err("error", err))
		default:
			return err
		}
	}
}

// serve reads and processes inbound messages on an established link.
// Parse and process errors do not tear down the connection; only a
// link failure is returned to the caller for a reconnect.
func (uc *UseCase) serve(ctx context.Context, term hwio.Terminal) error {
	for {
		line, err := term.ReadLine(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return err
			}
			return cerr.Hardware(fmt.Errorf("reading terminal: %w", err))
		}
		plate, balance, ok := ParseMessage(line)
		if !ok {
			log.Debug(ctx, "dropping malformed terminal line",
				slog.String("line", line))
			continue
		}
		outcome, err := uc.ProcessMessage(ctx, term, plate, balance)
		if err != nil {
			if cerr.IsKind(err, cerr.KindHardware) {
				return err
			}
			log.Error(ctx, "payment processing failed",
				log.Plate(plate), log.Err("error", err))
			continue
		}
		if outcome == OutcomePaid {
			return nil
		}
	}
}

// ProcessMessage runs the payment state machine for one parsed
// message. The ledger is only touched after the terminal confirmed
// the balance write; every timeout abandons the transaction with the
// ledger untouched, so a charged-but-unrecorded mismatch can never
// be persisted from this side.
func (uc *UseCase) ProcessMessage(
	ctx context.Context,
	term hwio.Terminal,
	plate model.Plate,
	balance int64,
) (Outcome, error) {
	session, err := uc.findUnpaid(ctx, plate)
	if err != nil {
		if cerr.IsKind(err, cerr.KindNotFound) {
			uc.appendEvent(ctx, model.NewEvent(plate, model.EventPayment,
				fmt.Sprintf("Payment attempt for %s failed: no unpaid entry", plate)))
			return OutcomeNoSession, nil
		}
		return OutcomeFailed, err
	}
	now := time.Now()
	amountDue := uc.AmountDue(session.EntryTime, now)
	if balance < amountDue {
		if err := term.WriteLine(InsufficientFunds + "\n"); err != nil {
			return OutcomeFailed, cerr.Hardware(
				fmt.Errorf("sending insufficiency code: %w", err))
		}
		uc.appendEvent(ctx, model.NewEvent(plate, model.EventPayment,
			fmt.Sprintf("Insufficient balance for %s: %d < %d",
				plate, balance, amountDue)))
		return OutcomeInsufficient, nil
	}
	if err := uc.awaitToken(ctx, term, func(l string) bool {
		return l == tokenReady
	}); err != nil {
		if cerr.IsKind(err, cerr.KindTimeout) {
			uc.appendEvent(ctx, model.NewEvent(plate, model.EventPayment,
				fmt.Sprintf("Payment timeout for %s", plate)))
			return OutcomeTimeout, nil
		}
		return OutcomeFailed, err
	}
	newBalance := balance - amountDue
	if err := term.WriteLine(fmt.Sprintf("%d\r\n", newBalance)); err != nil {
		return OutcomeFailed, cerr.Hardware(
			fmt.Errorf("sending new balance: %w", err))
	}
	log.Info(ctx, "sent new balance",
		log.Plate(plate), slog.Int64("balance", newBalance))
	if err := uc.awaitToken(ctx, term, func(l string) bool {
		return strings.Contains(l, tokenDone)
	}); err != nil {
		if cerr.IsKind(err, cerr.KindTimeout) {
			uc.appendEvent(ctx, model.NewEvent(plate, model.EventPayment,
				fmt.Sprintf("Payment confirmation timeout for %s", plate)))
			return OutcomeTimeout, nil
		}
		return OutcomeFailed, err
	}
	if err := uc.markPaid(ctx, plate, amountDue); err != nil {
		return OutcomeFailed, err
	}
	log.Info(ctx, "payment processed",
		log.Plate(plate), slog.Int64("amount", amountDue))
	return OutcomePaid, nil
}

// MarkPaidManually is the operator override for a card-less payment
// (e.g., cash at the booth): it charges the regular amount due on the
// single unpaid session of the plate without a terminal handshake.
// The false return value means no unpaid session existed.
func (uc *UseCase) MarkPaidManually(ctx context.Context, plate model.Plate) (bool, error) {
	if err := plate.Validate(); err != nil {
		return false, cerr.Validation(err)
	}
	session, err := uc.findUnpaid(ctx, plate)
	if err != nil {
		if cerr.IsKind(err, cerr.KindNotFound) {
			uc.appendEvent(ctx, model.NewEvent(plate, model.EventPayment,
				fmt.Sprintf("No unpaid record for %s", plate)))
			return false, nil
		}
		return false, err
	}
	amountDue := uc.AmountDue(session.EntryTime, time.Now())
	err = uc.pool.Conn(ctx, func(ctx context.Context, c repo.Conn) error {
		return c.Tx(ctx, func(ctx context.Context, tx repo.Tx) error {
			if _, err := uc.sessionsrp.Tx(tx).MarkPaid(ctx, plate, amountDue); err != nil {
				return err
			}
			return uc.eventsrp.Tx(tx).Append(ctx, model.NewEvent(
				plate, model.EventPayment,
				fmt.Sprintf("Manually marked as paid for %s", plate),
			))
		})
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

// connect dials the terminal with the bounded reconnect policy.
func (uc *UseCase) connect(ctx context.Context) (hwio.Terminal, error) {
	var lastErr error
	for attempt := 1; attempt <= uc.reconnectAttempts; attempt++ {
		term, err := uc.dialer.Dial(ctx)
		if err == nil {
			return term, nil
		}
		lastErr = err
		log.Warn(ctx, "terminal not reachable",
			slog.Int("attempt", attempt),
			slog.Int("attempts", uc.reconnectAttempts),
			log.Err("error", err))
		select {
		case <-time.After(uc.reconnectBackoff):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return nil, cerr.Hardware(fmt.Errorf(
		"terminal not reachable after %d attempts: %w",
		uc.reconnectAttempts, lastErr,
	))
}

// awaitToken polls inbound lines until match accepts one or the
// handshake timeout elapses.
func (uc *UseCase) awaitToken(
	ctx context.Context, term hwio.Terminal, match func(string) bool,
) error {
	ctx, cancel := context.WithTimeout(ctx, uc.handshakeTimeout)
	defer cancel()
	for {
		line, err := term.ReadLine(ctx)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				return cerr.Timeout(fmt.Errorf("awaiting terminal: %w", err))
			}
			return cerr.Hardware(fmt.Errorf("awaiting terminal: %w", err))
		}
		if match(strings.TrimSpace(line)) {
			return nil
		}
	}
}

// findUnpaid resolves the unpaid, non-exited session of the plate.
// An active but already paid session is reported as not found, the
// same as a plate with no active session at all.
func (uc *UseCase) findUnpaid(ctx context.Context, plate model.Plate) (*model.ParkingSession, error) {
	var session *model.ParkingSession
	err := uc.pool.Conn(ctx, func(ctx context.Context, c repo.Conn) error {
		s, err := uc.sessionsrp.Conn(c).FindActive(ctx, plate)
		if err != nil {
			return err
		}
		if s.Paid {
			return cerr.NotFound(repo.ErrNoUnpaidSession)
		}
		session = s
		return nil
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

// markPaid records the payment and its audit event atomically.
func (uc *UseCase) markPaid(ctx context.Context, plate model.Plate, amount int64) error {
	return uc.pool.Conn(ctx, func(ctx context.Context, c repo.Conn) error {
		return c.Tx(ctx, func(ctx context.Context, tx repo.Tx) error {
			if _, err := uc.sessionsrp.Tx(tx).MarkPaid(ctx, plate, amount); err != nil {
				return err
			}
			return uc.eventsrp.Tx(tx).Append(ctx, model.NewEvent(
				plate, model.EventPayment,
				fmt.Sprintf("Payment of %d successful for %s", amount, plate),
			))
		})
	})
}

// appendEvent appends a standalone audit event outside of any ledger
// mutation; failures are logged and swallowed.
func (uc *UseCase) appendEvent(ctx context.Context, e model.Event) {
	err := uc.pool.Conn(ctx, func(ctx context.Context, c repo.Conn) error {
		return uc.eventsrp.Conn(c).Append(ctx, e)
	})
	if err != nil {
		log.Error(ctx, "appending audit event failed", log.Err("error", err))
	}
}
