// Copyright (c) 2025 Eric Habimana
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package model defines the inner most layer of the Clean Architecture
// containing the business-level models, also called entities or domain.
// This layer may not depend on outter layers, while all other layers
// may depend on it.
// By the way, it is acceptable to annotate structs in this package with
// multiple frameworks dependent tags (e.g., as required by ORM
// libraries) since adding more tags does not complicate definition of
// a struct, but can prevent unnecessary structs duplication.
package model

import (
	"errors"
	"regexp"
	"strings"
)

// platePattern is the license plate grammar: two or three uppercase
// letters, three digits, and one trailing uppercase letter, e.g.,
// RAB123C. The same pattern is enforced by a CHECK constraint at the
// storage layer as a defense-in-depth measure.
var platePattern = regexp.MustCompile(`^[A-Z]{2,3}[0-9]{3}[A-Z]$`)

// ErrInvalidPlate indicates that a given string may not be parsed as
// a license plate code. This error does not communicate the invalid
// plate string itself because the caller of ParsePlate already knows
// about it and can wrap this error with that extra context if needed.
var ErrInvalidPlate = errors.New("invalid plate code")

// Plate is a normalized license plate code. A non-zero Plate instance
// always matches the plate grammar since it may only be obtained from
// the ParsePlate function.
type Plate string

// ParsePlate normalizes the given raw string (dropping spaces and
// folding to uppercase) and returns it as a Plate instance.
// For strings which do not match the plate grammar after
// normalization, an empty Plate and ErrInvalidPlate are returned.
func ParsePlate(raw string) (Plate, error) {
	s := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(raw), " ", ""))
	if !platePattern.MatchString(s) {
		return "", ErrInvalidPlate
	}
	return Plate(s), nil
}

// String converts the Plate to a plain string.
func (p Plate) String() string {
	return string(p)
}

// Validate returns nil if the Plate matches the plate grammar and
// ErrInvalidPlate otherwise. A Plate obtained from ParsePlate is
// always valid; this method guards Plate values which were converted
// from raw strings directly (e.g., unmarshaled from a config file).
func (p Plate) Validate() error {
	if !platePattern.MatchString(string(p)) {
		return ErrInvalidPlate
	}
	return nil
}
