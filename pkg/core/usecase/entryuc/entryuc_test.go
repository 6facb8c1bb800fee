// Copyright (c) 2025 Eric Habimana
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package entryuc_test

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/habimana/parkgate/internal/test/memledger"
	"github.com/habimana/parkgate/pkg/core/gatectl"
	"github.com/habimana/parkgate/pkg/core/model"
	"github.com/habimana/parkgate/pkg/core/usecase/entryuc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePort struct {
	commands []byte
}

func (f *fakePort) WriteCommand(b byte) error {
	f.commands = append(f.commands, b)
	return nil
}

func (f *fakePort) Close() error {
	return nil
}

type sliceSource struct {
	readings []string
}

func (s *sliceSource) Next(context.Context) (string, error) {
	if len(s.readings) == 0 {
		return "", io.EOF
	}
	r := s.readings[0]
	s.readings = s.readings[1:]
	return r, nil
}

func newUseCase(
	t *testing.T, l *memledger.Ledger, port *fakePort, opts ...entryuc.Option,
) *entryuc.UseCase {
	gate, err := gatectl.New(
		port,
		gatectl.WithOpenDwell(time.Millisecond),
		gatectl.WithBuzzerDuration(time.Millisecond),
	)
	require.NoError(t, err)
	uc, err := entryuc.New(l.Pool(), l.Sessions(), l.Events(), gate, opts...)
	require.NoError(t, err)
	return uc
}

func TestAdmission(t *testing.T) {
	ctx := context.Background()
	l := memledger.New()
	port := &fakePort{}
	uc := newUseCase(t, l, port)

	outcome, err := uc.Process(ctx, "RAB123C")
	require.NoError(t, err)
	assert.Equal(t, entryuc.OutcomeAdmitted, outcome)

	sessions := l.SessionsSnapshot()
	require.Len(t, sessions, 1)
	assert.Equal(t, model.Plate("RAB123C"), sessions[0].Plate)
	assert.False(t, sessions[0].Paid)
	assert.False(t, sessions[0].Exited)
	assert.Nil(t, sessions[0].AmountDue)

	events := l.EventsSnapshot()
	require.Len(t, events, 1)
	assert.Equal(t, model.EventEntry, events[0].Kind)
	assert.Equal(t, "Vehicle RAB123C entered", events[0].Message)

	assert.Equal(t, []byte{'1', '0'}, port.commands)
}

func TestInvalidPlateRejected(t *testing.T) {
	l := memledger.New()
	port := &fakePort{}
	uc := newUseCase(t, l, port)

	outcome, err := uc.Process(context.Background(), "RAB12")
	assert.Error(t, err)
	assert.Equal(t, entryuc.OutcomeRejected, outcome)
	assert.Empty(t, l.SessionsSnapshot())
	assert.Empty(t, port.commands, "no actuation for a rejected plate")
}

func TestDuplicateEntryDenied(t *testing.T) {
	ctx := context.Background()
	l := memledger.New()
	l.Seed(model.ParkingSession{Plate: "RAB123C", EntryTime: time.Now()})
	port := &fakePort{}
	uc := newUseCase(t, l, port)

	outcome, err := uc.Process(ctx, "RAB123C")
	require.NoError(t, err)
	assert.Equal(t, entryuc.OutcomeDuplicate, outcome)
	assert.Len(t, l.SessionsSnapshot(), 1, "no second active session")

	events := l.EventsSnapshot()
	require.Len(t, events, 1)
	assert.Equal(t, model.EventEntry, events[0].Kind)
	assert.Contains(t, events[0].Message, "Duplicate entry attempt")

	assert.Equal(t, []byte{'b'}, port.commands, "denial must buzz, not cycle the gate")
}

func TestCooldownSuppressesRepeatedEntry(t *testing.T) {
	ctx := context.Background()
	l := memledger.New()
	port := &fakePort{}
	uc := newUseCase(t, l, port, entryuc.WithCooldown(time.Hour))

	outcome, err := uc.Process(ctx, "RAB123C")
	require.NoError(t, err)
	require.Equal(t, entryuc.OutcomeAdmitted, outcome)

	// the vehicle exits, then the camera re-confirms the same plate
	l.MarkExited("RAB123C")
	outcome, err = uc.Process(ctx, "RAB123C")
	require.NoError(t, err)
	assert.Equal(t, entryuc.OutcomeCooldown, outcome)
	assert.Len(t, l.SessionsSnapshot(), 1, "no session within cooldown")

	events := l.EventsSnapshot()
	assert.Contains(
		t, events[len(events)-1].Message, "within cooldown",
	)
}

func TestCooldownExpiry(t *testing.T) {
	ctx := context.Background()
	l := memledger.New()
	port := &fakePort{}
	uc := newUseCase(t, l, port, entryuc.WithCooldown(10*time.Millisecond))

	outcome, err := uc.Process(ctx, "RAB123C")
	require.NoError(t, err)
	require.Equal(t, entryuc.OutcomeAdmitted, outcome)
	l.MarkExited("RAB123C")

	time.Sleep(20 * time.Millisecond)
	outcome, err = uc.Process(ctx, "RAB123C")
	require.NoError(t, err)
	assert.Equal(t, entryuc.OutcomeAdmitted, outcome)
	assert.Len(t, l.SessionsSnapshot(), 2)
}

func TestStorageFailureAbortsCandidate(t *testing.T) {
	ctx := context.Background()
	l := memledger.New()
	l.FailSessions = errors.New("connection reset")
	port := &fakePort{}
	uc := newUseCase(t, l, port)

	outcome, err := uc.Process(ctx, "RAB123C")
	require.Error(t, err)
	assert.Equal(t, entryuc.OutcomeFailed, outcome)
	assert.Empty(t, l.SessionsSnapshot())

	events := l.EventsSnapshot()
	require.Len(t, events, 1)
	assert.Equal(t, model.EventError, events[0].Kind)
	assert.Equal(t, []byte{'b'}, port.commands)
}

func TestEventFailureRollsBackSession(t *testing.T) {
	ctx := context.Background()
	l := memledger.New()
	l.FailEvents = errors.New("events table unavailable")
	port := &fakePort{}
	uc := newUseCase(t, l, port)

	outcome, err := uc.Process(ctx, "RAB123C")
	require.Error(t, err)
	assert.Equal(t, entryuc.OutcomeFailed, outcome)
	assert.Empty(
		t, l.SessionsSnapshot(),
		"an entry may never be committed silently un-logged",
	)
}

func TestRunDebouncesAndAdmits(t *testing.T) {
	l := memledger.New()
	port := &fakePort{}
	uc := newUseCase(t, l, port)

	src := &sliceSource{readings: []string{
		"??",      // OCR noise, no window slot
		"RAB123C",
		"RAD456E", // misread
		"RAB123C", // quorum reached
	}}
	require.NoError(t, uc.Run(context.Background(), src))

	sessions := l.SessionsSnapshot()
	require.Len(t, sessions, 1)
	assert.Equal(t, model.Plate("RAB123C"), sessions[0].Plate)
}

func TestRunContinuesAfterDenial(t *testing.T) {
	l := memledger.New()
	l.Seed(model.ParkingSession{Plate: "RAB123C", EntryTime: time.Now()})
	port := &fakePort{}
	uc := newUseCase(t, l, port)

	src := &sliceSource{readings: []string{
		"RAB123C", "RAB123C", "RAB123C", // denied duplicate
		"RAD456E", "RAD456E", "RAD456E", // admitted
	}}
	require.NoError(t, uc.Run(context.Background(), src))
	assert.Len(t, l.SessionsSnapshot(), 2)
}
