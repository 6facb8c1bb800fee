// Copyright (c) 2025 Eric Habimana
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package hwio declares the hardware boundary interfaces: the gate
// actuator byte channel, the payment terminal line protocol, and the
// camera/OCR reading source. Concrete serial implementations live in
// the adapter layer; the use case layer only depends on these
// interfaces, so controllers can be tested against scripted fakes.
package hwio

import "context"

// GatePort is the single-byte command channel to the gate controller
// board. No acknowledgement is ever read back; a command is trusted to
// execute and a failure surfaces only as a write error.
type GatePort interface {
	// WriteCommand sends one command byte and flushes it.
	WriteCommand(b byte) error

	Close() error
}

// Terminal is the line-oriented channel to the balance-card payment
// terminal. Lines are ASCII, newline-terminated on the inbound side.
type Terminal interface {
	// ReadLine blocks for the next inbound line, stripped of its
	// terminator. It honors ctx cancellation and deadline; an expired
	// deadline is reported through ctx.Err() wrapping.
	ReadLine(ctx context.Context) (string, error)

	// WriteLine sends the verbatim s bytes and flushes them. Callers
	// append their own terminator since the two outbound messages of
	// the payment protocol use different ones.
	WriteLine(s string) error

	Close() error
}

// TerminalDialer locates and opens the payment terminal link.
// The payment processor re-dials through it whenever the link drops.
type TerminalDialer interface {
	Dial(ctx context.Context) (Terminal, error)
}

// Source yields raw OCR readings, one per recognized plate region.
// The detector and reader producing these strings are external; the
// only contract is "uppercase alphanumeric string or empty".
// Next returns io.EOF when the stream is exhausted.
type Source interface {
	Next(ctx context.Context) (string, error)
}
