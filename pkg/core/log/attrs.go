// Copyright (c) 2025 Eric Habimana
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package log

import (
	"log/slog"
	"time"

	"github.com/habimana/parkgate/pkg/core/model"
)

// Dur returns an Attr for the given time duration value.
func Dur(key string, value time.Duration) slog.Attr {
	return slog.Duration(key, value)
}

// Valuer returns an Attr for the given slog.LogValuer value.
func Valuer(key string, value slog.LogValuer) slog.Attr {
	return slog.Any(key, value)
}

// Err returns an Attr for the given error value.
// The error value is resolved as a string by its Error() method.
// If error value is nil, the constant "no-error" value will be used.
func Err(key string, value error) slog.Attr {
	if value == nil {
		return slog.String(key, "no-error")
	}
	return slog.String(key, value.Error())
}

// Plate returns an Attr for the given plate code under the
// constant "plate" key. An empty plate is logged as UNKNOWN,
// matching the events table convention.
func Plate(value model.Plate) slog.Attr {
	if value == "" {
		return slog.String("plate", model.UnknownPlate)
	}
	return slog.String("plate", value.String())
}
