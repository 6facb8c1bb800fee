// Copyright (c) 2025 Eric Habimana
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package gatectl

import (
	"errors"
	"fmt"
	"time"
)

// Option is a functional option for the gate controller.
type Option func(g *Controller) error

// WithOpenDwell option configures how long the gate stays open
// between the open and close commands. This option may be passed to
// the New() function.
func WithOpenDwell(dwell time.Duration) Option {
	return func(g *Controller) error {
		if d := int64(dwell); d <= 0 {
			return fmt.Errorf("dwell (%d) is not positive", d)
		}
		if g.openDwell != 0 {
			return errors.New("dwell is already configured")
		}
		g.openDwell = dwell
		return nil
	}
}

// WithBuzzerDuration option configures how long the controller waits
// for the alarm to complete after triggering it. This option may be
// passed to the New() function.
func WithBuzzerDuration(duration time.Duration) Option {
	return func(g *Controller) error {
		if d := int64(duration); d <= 0 {
			return fmt.Errorf("duration (%d) is not positive", d)
		}
		if g.buzzerDuration != 0 {
			return errors.New("duration is already configured")
		}
		g.buzzerDuration = duration
		return nil
	}
}
