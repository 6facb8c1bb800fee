// Copyright (c) 2025 Eric Habimana
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package debounce turns the noisy stream of raw OCR readings into a
// confirmed plate code. A reading enters a sliding window only if it
// matches the plate grammar; once the window is full, the most
// frequent reading is confirmed if it reached the quorum, otherwise
// the readings are discarded. Either way the window restarts empty,
// regardless of whether the caller accepts or rejects the confirmed
// plate.
package debounce

import (
	"fmt"

	"github.com/habimana/parkgate/pkg/core/model"
)

// Debouncer holds the sliding window of recently confirmed-grammar
// readings. It is purely deterministic, owns no external resource,
// and is unsafe for concurrent use (each controller process owns
// exactly one instance on its single polling loop).
type Debouncer struct {
	window int
	quorum int
	buf    []model.Plate
}

// New creates a Debouncer confirming a plate when, among the last
// window grammar-valid readings, one value occurs at least quorum
// times. The defaults used by the controllers are window 3, quorum 2.
func New(window, quorum int) (*Debouncer, error) {
	if window <= 0 {
		return nil, fmt.Errorf("window (%d) is not positive", window)
	}
	if quorum <= 0 || quorum > window {
		return nil, fmt.Errorf(
			"quorum (%d) must be in the 1..%d range", quorum, window,
		)
	}
	return &Debouncer{
		window: window,
		quorum: quorum,
		buf:    make([]model.Plate, 0, window),
	}, nil
}

// Add consumes one raw OCR reading. Readings which fail the plate
// grammar are rejected without consuming a window slot. When the
// window fills up, Add reports the most frequent reading as confirmed
// if it reached the quorum and clears the window; a full window
// without a quorum is cleared silently and processing continues.
func (d *Debouncer) Add(raw string) (model.Plate, bool) {
	plate, err := model.ParsePlate(raw)
	if err != nil {
		return "", false
	}
	d.buf = append(d.buf, plate)
	if len(d.buf) < d.window {
		return "", false
	}
	best, count := mostCommon(d.buf)
	d.Reset()
	if count < d.quorum {
		return "", false
	}
	return best, true
}

// Reset clears the window without emitting anything.
func (d *Debouncer) Reset() {
	d.buf = d.buf[:0]
}

// mostCommon returns the most frequent plate of the window and its
// occurrence count. Ties resolve to the earliest seen value.
func mostCommon(buf []model.Plate) (best model.Plate, count int) {
	counts := make(map[model.Plate]int, len(buf))
	for _, p := range buf {
		counts[p]++
	}
	for _, p := range buf {
		if c := counts[p]; c > count {
			best, count = p, c
		}
	}
	return best, count
}
