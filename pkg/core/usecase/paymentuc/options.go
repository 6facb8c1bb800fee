// Copyright (c) 2025 Eric Habimana
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package paymentuc

import (
	"errors"
	"time"
)

// Option updates the use case instance during its instantiation
// by the New function.
type Option func(*UseCase) error

// WithRatePerHour configures the hourly parking fee. The rate must
// be positive and may only be configured once.
func WithRatePerHour(rate int64) Option {
	return func(uc *UseCase) error {
		if rate <= 0 {
			return errors.New("rate per hour must be positive")
		}
		if uc.ratePerHour != 0 {
			return errors.New("rate per hour is already configured")
		}
		uc.ratePerHour = rate
		return nil
	}
}

// WithHandshakeTimeout configures how long the processor waits for
// each terminal handshake token before abandoning the transaction.
// The timeout must be positive and may only be configured once.
func WithHandshakeTimeout(d time.Duration) Option {
	return func(uc *UseCase) error {
		if d <= 0 {
			return errors.New("handshake timeout must be positive")
		}
		if uc.handshakeTimeout != 0 {
			return errors.New("handshake timeout is already configured")
		}
		uc.handshakeTimeout = d
		return nil
	}
}

// WithReconnectPolicy configures the bounded terminal reconnect
// policy. Both values must be positive and may only be configured
// once.
func WithReconnectPolicy(attempts int, backoff time.Duration) Option {
	return func(uc *UseCase) error {
		if attempts <= 0 || backoff <= 0 {
			return errors.New("reconnect attempts and backoff must be positive")
		}
		if uc.reconnectAttempts != 0 || uc.reconnectBackoff != 0 {
			return errors.New("reconnect policy is already configured")
		}
		uc.reconnectAttempts = attempts
		uc.reconnectBackoff = backoff
		return nil
	}
}
