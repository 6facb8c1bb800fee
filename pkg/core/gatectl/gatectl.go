// Copyright (c) 2025 Eric Habimana
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package gatectl implements the gate and buzzer actuation protocol
// shared by the entry and exit controllers: single-byte commands with
// fixed, unconditional dwell times and no acknowledgement channel.
package gatectl

import (
	"context"
	"fmt"
	"time"

	"github.com/habimana/parkgate/pkg/core/cerr"
	"github.com/habimana/parkgate/pkg/core/hwio"
	"github.com/habimana/parkgate/pkg/core/log"
)

// Command bytes understood by the gate controller board.
const (
	CmdOpen   byte = '1'
	CmdClose  byte = '0'
	CmdBuzzer byte = 'b'
)

// Controller drives one physical gate and its alarm buzzer over a
// command port. The board sends no acknowledgements, so commands are
// trusted to execute; only a port write failure is detectable and it
// is escalated as a hardware error, never retried.
type Controller struct {
	port hwio.GatePort

	openDwell      time.Duration
	buzzerDuration time.Duration
}

// New instantiates a gate controller over the given port.
// The open dwell and buzzer duration default to 15s and 2s
// respectively and may be adjusted with functional options.
func New(port hwio.GatePort, opts ...Option) (*Controller, error) {
	g := &Controller{port: port}
	for _, opt := range opts {
		if err := opt(g); err != nil {
			return nil, fmt.Errorf("invalid option: %w", err)
		}
	}
	// now, deal with defaults
	if g.openDwell == 0 {
		g.openDwell = 15 * time.Second
	}
	if g.buzzerDuration == 0 {
		g.buzzerDuration = 2 * time.Second
	}
	return g, nil
}

// Open runs the gate open protocol: send the open command, block for
// the configured dwell time while the vehicle passes, then send the
// close command. The dwell is an unconditional sleep, not cancellable;
// a stuck port stalls the calling loop, which is the accepted
// tradeoff of the single-threaded controller design.
func (g *Controller) Open(ctx context.Context) error {
	if err := g.port.WriteCommand(CmdOpen); err != nil {
		return cerr.Hardware(fmt.Errorf("opening gate: %w", err))
	}
	log.Info(ctx, "gate opened", log.Dur("dwell", g.openDwell))
	time.Sleep(g.openDwell)
	if err := g.port.WriteCommand(CmdClose); err != nil {
		return cerr.Hardware(fmt.Errorf("closing gate: %w", err))
	}
	log.Info(ctx, "gate closed")
	return nil
}

// Buzz sounds the alarm and waits out its fixed duration, serializing
// the alarm with subsequent camera processing. The buzzer completes on
// its own; the wait only keeps the controller loop from re-triggering
// while the alarm is still audible.
func (g *Controller) Buzz(ctx context.Context) error {
	if err := g.port.WriteCommand(CmdBuzzer); err != nil {
		return cerr.Hardware(fmt.Errorf("triggering buzzer: %w", err))
	}
	log.Info(ctx, "buzzer activated", log.Dur("duration", g.buzzerDuration))
	time.Sleep(g.buzzerDuration)
	return nil
}
