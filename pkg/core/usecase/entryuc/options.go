// Copyright (c) 2025 Eric Habimana
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package entryuc

import (
	"errors"
	"fmt"
	"time"
)

// Option is a functional option for the entry controller use case.
type Option func(uc *UseCase) error

// WithCooldown option configures the minimum elapsed time before the
// same plate may create a new session again, guarding against OCR
// re-triggering on the same frame sequence. This option may be passed
// to the New() function.
func WithCooldown(cooldown time.Duration) Option {
	return func(uc *UseCase) error {
		if d := int64(cooldown); d <= 0 {
			return fmt.Errorf("cooldown (%d) is not positive", d)
		}
		if uc.cooldown != 0 {
			return errors.New("cooldown is already configured")
		}
		uc.cooldown = cooldown
		return nil
	}
}
