// Copyright (c) 2025 Eric Habimana
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package model

import (
	"errors"
	"fmt"
	"time"
	"unicode/utf8"
)

// EventKind specifies the audit event kind enum. Although this enum is
// numeric, it is (de)serialized as a string for readability in the
// adapter layer (the events table stores the string form).
type EventKind int

// Valid values for the EventKind enum.
const (
	EventKindInvalid EventKind = iota // zero value is invalid

	EventEntry             // a vehicle entered, or an entry was denied
	EventExit              // a vehicle exited
	EventPayment           // a payment succeeded or was denied
	EventUnauthorizedExit  // an exit attempt was denied
	EventError             // a system-level failure
)

// ErrUnknownEventKind indicates that a given string may not be parsed
// as a valid/known event kind.
var ErrUnknownEventKind = errors.New("unknown event kind")

// EventKindError indicates an invalid event kind, containing the
// invalid kind as an integer.
type EventKindError int

// Error implements the error interface, returning a string
// representation of the EventKindError.
func (e EventKindError) Error() string {
	return fmt.Sprintf("invalid event kind: %d", e)
}

// Validate returns nil if EventKind value is valid. For invalid
// values, an instance of the EventKindError will be returned.
func (k EventKind) Validate() error {
	switch k {
	case EventEntry, EventExit, EventPayment,
		EventUnauthorizedExit, EventError:
		return nil
	default:
		return EventKindError(k)
	}
}

// String converts the EventKind enum to a string, as stored in the
// events table and served to the reporting dashboard. Invalid event
// kinds cause a panic.
func (k EventKind) String() string {
	switch k {
	case EventEntry:
		return "Entry"
	case EventExit:
		return "Exit"
	case EventPayment:
		return "Payment"
	case EventUnauthorizedExit:
		return "Unauthorized Exit Attempt"
	case EventError:
		return "Error"
	default:
		panic(EventKindError(k))
	}
}

// ParseEventKind parses the given string and returns an EventKind.
// For invalid strings, EventKindInvalid and ErrUnknownEventKind
// will be returned.
func ParseEventKind(k string) (EventKind, error) {
	switch k {
	case "Entry":
		return EventEntry, nil
	case "Exit":
		return EventExit, nil
	case "Payment":
		return EventPayment, nil
	case "Unauthorized Exit Attempt":
		return EventUnauthorizedExit, nil
	case "Error":
		return EventError, nil
	default:
		return EventKindInvalid, ErrUnknownEventKind
	}
}

// UnknownPlate is recorded on events which cannot be attributed to a
// specific vehicle, such as system-level errors.
const UnknownPlate = "UNKNOWN"

// MaxEventMessageLen is the maximum length of an Event message.
// Longer messages are truncated by NewEvent.
const MaxEventMessageLen = 255

// Event is one append-only audit record. Any component may append
// events; no component reads them back except the read-only reporting
// dashboard. Events are never updated or deleted.
type Event struct {
	Plate     string // a plate code, or UnknownPlate
	Kind      EventKind
	Timestamp time.Time
	Message   string
}

// NewEvent creates an Event for the given plate, stamped with the
// current time. An empty plate is recorded as UnknownPlate. Messages
// longer than MaxEventMessageLen are truncated with a trailing
// ellipsis, so the row always fits the storage column.
func NewEvent(plate Plate, kind EventKind, message string) Event {
	p := plate.String()
	if p == "" {
		p = UnknownPlate
	}
	if len(message) > MaxEventMessageLen {
		cut := MaxEventMessageLen - 3
		// back off to a rune boundary, messages are not always ASCII
		for cut > 0 && !utf8.RuneStart(message[cut]) {
			cut--
		}
		message = message[:cut] + "..."
	}
	return Event{
		Plate:     p,
		Kind:      kind,
		Timestamp: time.Now(),
		Message:   message,
	}
}
