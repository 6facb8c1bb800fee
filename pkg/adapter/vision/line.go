// Copyright (c) 2025 Eric Habimana
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package vision provides plate reading sources for the entry and
// exit controllers. The recognition pipeline itself runs out of
// process; this adapter consumes its line-oriented output stream, one
// raw plate reading per line, typically over a pipe or stdin.
package vision

import (
	"bufio"
	"context"
	"io"
)

// LineSource reads raw plate readings from r, one per line. It is
// not safe for concurrent use.
type LineSource struct {
	scanner *bufio.Scanner
}

// NewLineSource creates a LineSource over r.
func NewLineSource(r io.Reader) *LineSource {
	return &LineSource{scanner: bufio.NewScanner(r)}
}

// Next returns the next raw reading. The reading is passed on as-is;
// normalization and grammar checks belong to the debouncer. The end
// of the stream is reported as io.EOF.
func (s *LineSource) Next(context.Context) (string, error) {
	if !s.scanner.Scan() {
		if err := s.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return s.scanner.Text(), nil
}
