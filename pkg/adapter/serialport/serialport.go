// Copyright (c) 2025 Eric Habimana
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package serialport adapts physical serial devices (the gate and
// buzzer actuator board and the payment terminal) to the hwio
// interfaces which the use case layer depends on. Devices may be
// addressed by an explicit port name or auto-detected among the
// connected USB serial ports by a product description hint.
package serialport

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/habimana/parkgate/pkg/core/hwio"
	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"
)

// pollInterval bounds one blocking serial read, so that a canceled
// context is observed without data on the wire.
const pollInterval = 100 * time.Millisecond

// wire is the subset of serial.Port used by this adapter. It is held
// as an interface so the line-assembly logic is testable without a
// physical device.
type wire interface {
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	Close() error
}

func open(name string, baud int) (serial.Port, error) {
	port, err := serial.Open(name, &serial.Mode{BaudRate: baud})
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", name, err)
	}
	if err := port.SetReadTimeout(pollInterval); err != nil {
		port.Close()
		return nil, fmt.Errorf("configuring %s: %w", name, err)
	}
	return port, nil
}

// Detect returns the name of the first connected USB serial port
// whose product description contains the hint, falling back to the
// first USB serial port when the hint matches nothing.
func Detect(hint string) (string, error) {
	ports, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return "", fmt.Errorf("enumerating serial ports: %w", err)
	}
	return selectPort(ports, hint)
}

// selectPort applies the auto-detection policy to an enumerated port
// list: the first USB port whose product matches the hint wins, else
// the first USB port, else an error. Non-USB ports never match.
func selectPort(ports []*enumerator.PortDetails, hint string) (string, error) {
	fallback := ""
	for _, p := range ports {
		if !p.IsUSB {
			continue
		}
		if hint != "" && strings.Contains(p.Product, hint) {
			return p.Name, nil
		}
		if fallback == "" {
			fallback = p.Name
		}
	}
	if fallback != "" {
		return fallback, nil
	}
	return "", fmt.Errorf("no USB serial port found (hint %q)", hint)
}

// GatePort drives the gate and buzzer actuator board with its
// single-byte command protocol.
type GatePort struct {
	port wire
}

var _ hwio.GatePort = (*GatePort)(nil)

// OpenGatePort opens the actuator board on the named port. An empty
// name auto-detects the device by the hint.
func OpenGatePort(name, hint string, baud int) (*GatePort, error) {
	if name == "" {
		var err error
		name, err = Detect(hint)
		if err != nil {
			return nil, err
		}
	}
	port, err := open(name, baud)
	if err != nil {
		return nil, err
	}
	return &GatePort{port: port}, nil
}

func (g *GatePort) WriteCommand(b byte) error {
	if _, err := g.port.Write([]byte{b}); err != nil {
		return fmt.Errorf("writing command %q: %w", b, err)
	}
	return nil
}

func (g *GatePort) Close() error {
	return g.port.Close()
}

// Terminal is a line-oriented view over the payment terminal link.
type Terminal struct {
	port wire
	buf  []byte
}

var _ hwio.Terminal = (*Terminal)(nil)

// ReadLine assembles and returns the next newline-terminated line,
// without its line terminator. It keeps polling the port until a full
// line arrives or the ctx ends; bytes of a partial line survive into
// the next call.
func (t *Terminal) ReadLine(ctx context.Context) (string, error) {
	for {
		if i := bytes.IndexByte(t.buf, '\n'); i >= 0 {
			line := string(t.buf[:i])
			t.buf = t.buf[i+1:]
			return strings.TrimRight(line, "\r"), nil
		}
		if err := ctx.Err(); err != nil {
			return "", err
		}
		chunk := make([]byte, 256)
		// a zero-byte read means the poll interval elapsed quietly
		n, err := t.port.Read(chunk)
		if err != nil {
			return "", fmt.Errorf("reading terminal: %w", err)
		}
		t.buf = append(t.buf, chunk[:n]...)
	}
}

// WriteLine sends the verbatim string; the caller includes whichever
// line terminator the device protocol requires.
func (t *Terminal) WriteLine(s string) error {
	if _, err := t.port.Write([]byte(s)); err != nil {
		return fmt.Errorf("writing terminal: %w", err)
	}
	return nil
}

func (t *Terminal) Close() error {
	return t.port.Close()
}

// Dialer connects payment terminals for the payment processor. Its
// zero value is not usable; create instances with NewDialer.
type Dialer struct {
	name string
	hint string
	baud int
}

var _ hwio.TerminalDialer = (*Dialer)(nil)

// NewDialer creates a terminal dialer for the named port. An empty
// name makes every Dial auto-detect the device by the hint, so a
// re-plugged terminal which came back under another name is found
// again.
func NewDialer(name, hint string, baud int) *Dialer {
	return &Dialer{name: name, hint: hint, baud: baud}
}

func (d *Dialer) Dial(ctx context.Context) (hwio.Terminal, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	name := d.name
	if name == "" {
		var err error
		name, err = Detect(d.hint)
		if err != nil {
			return nil, err
		}
	}
	port, err := open(name, d.baud)
	if err != nil {
		return nil, err
	}
	return &Terminal{port: port}, nil
}
