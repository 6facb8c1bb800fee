// Copyright (c) 2025 Eric Habimana
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package vision_test

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/habimana/parkgate/pkg/adapter/vision"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextYieldsRawLines(t *testing.T) {
	ctx := context.Background()
	src := vision.NewLineSource(strings.NewReader(
		"RAB123C\nrab 123c\n\n",
	))

	for _, want := range []string{"RAB123C", "rab 123c", ""} {
		got, err := src.Next(ctx)
		require.NoError(t, err)
		assert.Equal(t, want, got, "readings must be passed on as-is")
	}

	_, err := src.Next(ctx)
	assert.ErrorIs(t, err, io.EOF)
}
