// Copyright (c) 2025 Eric Habimana
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package paymentuc_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/habimana/parkgate/internal/test/memledger"
	"github.com/habimana/parkgate/pkg/core/cerr"
	"github.com/habimana/parkgate/pkg/core/hwio"
	"github.com/habimana/parkgate/pkg/core/model"
	"github.com/habimana/parkgate/pkg/core/usecase/paymentuc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTerminal struct {
	inbound []string
	written []string
	closed  bool
}

// ReadLine pops the next scripted inbound line; an exhausted script
// emulates a silent terminal by blocking until the context expires.
func (f *fakeTerminal) ReadLine(ctx context.Context) (string, error) {
	if len(f.inbound) == 0 {
		<-ctx.Done()
		return "", ctx.Err()
	}
	l := f.inbound[0]
	f.inbound = f.inbound[1:]
	return l, nil
}

func (f *fakeTerminal) WriteLine(l string) error {
	f.written = append(f.written, l)
	return nil
}

func (f *fakeTerminal) Close() error {
	f.closed = true
	return nil
}

type fakeDialer struct {
	term  *fakeTerminal
	err   error
	calls int
}

func (d *fakeDialer) Dial(context.Context) (hwio.Terminal, error) {
	d.calls++
	if d.err != nil {
		return nil, d.err
	}
	return d.term, nil
}

func newUseCase(
	t *testing.T, l *memledger.Ledger, d hwio.TerminalDialer, opts ...paymentuc.Option,
) *paymentuc.UseCase {
	opts = append([]paymentuc.Option{
		paymentuc.WithHandshakeTimeout(20 * time.Millisecond),
	}, opts...)
	uc, err := paymentuc.New(l.Pool(), l.Sessions(), l.Events(), d, opts...)
	require.NoError(t, err)
	return uc
}

// seedUnpaid seeds an unpaid session which entered 61 minutes ago,
// so the amount due is two started hours at the default rate of 500.
func seedUnpaid(l *memledger.Ledger) {
	l.Seed(model.ParkingSession{
		Plate:     "RAB123C",
		EntryTime: time.Now().Add(-61 * time.Minute),
	})
}

func TestParseMessage(t *testing.T) {
	for _, tc := range []struct {
		name    string
		line    string
		plate   model.Plate
		balance int64
		ok      bool
	}{
		{"well formed", "RAB123C,5000", "RAB123C", 5000, true},
		{"normalized plate", " rab 123c , 250 ", "RAB123C", 250, true},
		{"terminal timeout report", "[TIMEOUT]", "", 0, false},
		{"missing balance", "RAB123C", "", 0, false},
		{"extra field", "RAB123C,5000,77", "", 0, false},
		{"invalid plate", "123ABC,5000", "", 0, false},
		{"negative balance", "RAB123C,-1", "", 0, false},
		{"non-numeric balance", "RAB123C,lots", "", 0, false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			plate, balance, ok := paymentuc.ParseMessage(tc.line)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.plate, plate)
			assert.Equal(t, tc.balance, balance)
		})
	}
}

func TestAmountDueRoundsUpToWholeHours(t *testing.T) {
	uc := newUseCase(t, memledger.New(), &fakeDialer{})
	now := time.Now()
	for _, tc := range []struct {
		name  string
		dwell time.Duration
		want  int64
	}{
		{"zero dwell still charges one hour", 0, 500},
		{"one minute", time.Minute, 500},
		{"exactly one hour", time.Hour, 500},
		{"61 minutes charge two hours", 61 * time.Minute, 1000},
		{"one day", 24 * time.Hour, 12000},
	} {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, uc.AmountDue(now.Add(-tc.dwell), now))
		})
	}
}

func TestSuccessfulPayment(t *testing.T) {
	ctx := context.Background()
	l := memledger.New()
	seedUnpaid(l)
	term := &fakeTerminal{inbound: []string{"READY", "Write DONE"}}
	uc := newUseCase(t, l, &fakeDialer{term: term})

	outcome, err := uc.ProcessMessage(ctx, term, "RAB123C", 5000)
	require.NoError(t, err)
	assert.Equal(t, paymentuc.OutcomePaid, outcome)

	assert.Equal(t, []string{"4000\r\n"}, term.written,
		"two started hours at 500 leave 4000 on the card")

	sessions := l.SessionsSnapshot()
	require.Len(t, sessions, 1)
	assert.True(t, sessions[0].Paid)
	require.NotNil(t, sessions[0].AmountDue)
	assert.Equal(t, int64(1000), *sessions[0].AmountDue)
	assert.False(t, sessions[0].Exited, "payment must not finalize the exit")

	events := l.EventsSnapshot()
	require.Len(t, events, 1)
	assert.Equal(t, model.EventPayment, events[0].Kind)
	assert.Equal(t, "Payment of 1000 successful for RAB123C", events[0].Message)
}

func TestInsufficientBalance(t *testing.T) {
	ctx := context.Background()
	l := memledger.New()
	seedUnpaid(l)
	term := &fakeTerminal{}
	uc := newUseCase(t, l, &fakeDialer{term: term})

	outcome, err := uc.ProcessMessage(ctx, term, "RAB123C", 999)
	require.NoError(t, err)
	assert.Equal(t, paymentuc.OutcomeInsufficient, outcome)
	assert.Equal(t, []string{"I\n"}, term.written)

	sessions := l.SessionsSnapshot()
	require.Len(t, sessions, 1)
	assert.False(t, sessions[0].Paid)

	events := l.EventsSnapshot()
	require.Len(t, events, 1)
	assert.Equal(t, "Insufficient balance for RAB123C: 999 < 1000", events[0].Message)
}

func TestNoUnpaidSession(t *testing.T) {
	for _, tc := range []struct {
		name string
		seed func(l *memledger.Ledger)
	}{
		{"no session at all", func(l *memledger.Ledger) {}},
		{"already paid", func(l *memledger.Ledger) {
			amount := int64(500)
			l.Seed(model.ParkingSession{
				Plate:     "RAB123C",
				Paid:      true,
				AmountDue: &amount,
				EntryTime: time.Now(),
			})
		}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			l := memledger.New()
			tc.seed(l)
			term := &fakeTerminal{}
			uc := newUseCase(t, l, &fakeDialer{term: term})

			outcome, err := uc.ProcessMessage(
				context.Background(), term, "RAB123C", 5000,
			)
			require.NoError(t, err)
			assert.Equal(t, paymentuc.OutcomeNoSession, outcome)
			assert.Empty(t, term.written)

			events := l.EventsSnapshot()
			require.Len(t, events, 1)
			assert.Equal(
				t,
				"Payment attempt for RAB123C failed: no unpaid entry",
				events[0].Message,
			)
		})
	}
}

func TestReadyTimeoutLeavesLedgerUntouched(t *testing.T) {
	ctx := context.Background()
	l := memledger.New()
	seedUnpaid(l)
	term := &fakeTerminal{} // never signals READY
	uc := newUseCase(t, l, &fakeDialer{term: term})

	outcome, err := uc.ProcessMessage(ctx, term, "RAB123C", 5000)
	require.NoError(t, err)
	assert.Equal(t, paymentuc.OutcomeTimeout, outcome)
	assert.Empty(t, term.written, "no balance may be sent without READY")

	sessions := l.SessionsSnapshot()
	require.Len(t, sessions, 1)
	assert.False(t, sessions[0].Paid)

	events := l.EventsSnapshot()
	require.Len(t, events, 1)
	assert.Equal(t, "Payment timeout for RAB123C", events[0].Message)
}

func TestConfirmationTimeoutLeavesLedgerUntouched(t *testing.T) {
	ctx := context.Background()
	l := memledger.New()
	seedUnpaid(l)
	term := &fakeTerminal{inbound: []string{"READY"}} // never confirms
	uc := newUseCase(t, l, &fakeDialer{term: term})

	outcome, err := uc.ProcessMessage(ctx, term, "RAB123C", 5000)
	require.NoError(t, err)
	assert.Equal(t, paymentuc.OutcomeTimeout, outcome)
	assert.Equal(t, []string{"4000\r\n"}, term.written)

	sessions := l.SessionsSnapshot()
	require.Len(t, sessions, 1)
	assert.False(
		t, sessions[0].Paid,
		"an unconfirmed card write may never be recorded as paid",
	)

	events := l.EventsSnapshot()
	require.Len(t, events, 1)
	assert.Equal(t, "Payment confirmation timeout for RAB123C", events[0].Message)
}

func TestRunProcessesOnePaymentAndStops(t *testing.T) {
	l := memledger.New()
	seedUnpaid(l)
	term := &fakeTerminal{inbound: []string{
		"[TIMEOUT]",      // dropped quietly
		"garbage line",   // dropped quietly
		"RAB123C,5000",   // the actual card message
		"READY",
		"Write DONE",
	}}
	d := &fakeDialer{term: term}
	uc := newUseCase(t, l, d)

	require.NoError(t, uc.Run(context.Background()))
	assert.Equal(t, 1, d.calls)
	assert.True(t, term.closed)

	sessions := l.SessionsSnapshot()
	require.Len(t, sessions, 1)
	assert.True(t, sessions[0].Paid)
}

func TestRunGivesUpAfterBoundedReconnects(t *testing.T) {
	d := &fakeDialer{err: errors.New("no such port")}
	uc := newUseCase(
		t, memledger.New(), d,
		paymentuc.WithReconnectPolicy(3, time.Millisecond),
	)

	err := uc.Run(context.Background())
	require.Error(t, err)
	assert.True(t, cerr.IsKind(err, cerr.KindHardware))
	assert.Equal(t, 3, d.calls)
}

func TestMarkPaidManually(t *testing.T) {
	ctx := context.Background()
	l := memledger.New()
	seedUnpaid(l)
	uc := newUseCase(t, l, &fakeDialer{})

	marked, err := uc.MarkPaidManually(ctx, "RAB123C")
	require.NoError(t, err)
	assert.True(t, marked)

	sessions := l.SessionsSnapshot()
	require.Len(t, sessions, 1)
	assert.True(t, sessions[0].Paid)
	require.NotNil(t, sessions[0].AmountDue)
	assert.Equal(t, int64(1000), *sessions[0].AmountDue)

	events := l.EventsSnapshot()
	require.Len(t, events, 1)
	assert.Equal(t, "Manually marked as paid for RAB123C", events[0].Message)

	marked, err = uc.MarkPaidManually(ctx, "RAB123C")
	require.NoError(t, err)
	assert.False(t, marked, "a paid session has no unpaid record left")
	events = l.EventsSnapshot()
	assert.Equal(
		t, "No unpaid record for RAB123C", events[len(events)-1].Message,
	)
}
