// Copyright (c) 2025 Eric Habimana
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package model

import (
	"time"

	"github.com/google/uuid"
)

// ParkingSession models one vehicle dwell, from the moment the entry
// gate opens until the exit gate opens. A session is created with
// Paid=false and Exited=false, marked paid by the payment processor
// (setting AmountDue atomically with Paid), and finalized by the exit
// controller (setting ExitTime atomically with Exited).
//
// At most one session per plate may have Exited=false at any time;
// that session is called the active session of the plate. A session
// becomes immutable once Exited is true. Sessions are never deleted,
// they are retained for audit.
type ParkingSession struct {
	ID        uuid.UUID
	Plate     Plate
	Paid      bool
	EntryTime time.Time
	ExitTime  *time.Time // nil until the exit gate actually opens
	AmountDue *int64     // nil until the session is paid
	Exited    bool
}

// Active reports whether this session is the active session of its
// plate, that is, whether the vehicle is still inside the lot.
func (s *ParkingSession) Active() bool {
	return !s.Exited
}
