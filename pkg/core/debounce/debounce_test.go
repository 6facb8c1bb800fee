// Copyright (c) 2025 Eric Habimana
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package debounce_test

import (
	"testing"

	"github.com/habimana/parkgate/pkg/core/debounce"
	"github.com/habimana/parkgate/pkg/core/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewValidation(t *testing.T) {
	for _, tc := range []struct {
		name           string
		window, quorum int
	}{
		{"zero window", 0, 1},
		{"negative window", -1, 1},
		{"zero quorum", 3, 0},
		{"quorum above window", 3, 4},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := debounce.New(tc.window, tc.quorum)
			assert.Error(t, err)
		})
	}
}

func TestQuorumConfirmation(t *testing.T) {
	for _, tc := range []struct {
		name     string
		readings []string
		want     model.Plate
		wantOK   bool
	}{
		{
			name:     "two of three match",
			readings: []string{"RAB123C", "RAD456E", "RAB123C"},
			want:     "RAB123C",
			wantOK:   true,
		},
		{
			name:     "all three match",
			readings: []string{"RAB123C", "RAB123C", "RAB123C"},
			want:     "RAB123C",
			wantOK:   true,
		},
		{
			name:     "three distinct readings",
			readings: []string{"RAB123C", "RAD456E", "RAF789G"},
			wantOK:   false,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			d, err := debounce.New(3, 2)
			require.NoError(t, err)
			var got model.Plate
			var ok bool
			for _, r := range tc.readings {
				got, ok = d.Add(r)
			}
			assert.Equal(t, tc.wantOK, ok)
			if tc.wantOK {
				assert.Equal(t, tc.want, got)
			}
		})
	}
}

func TestInvalidReadingsConsumeNoSlot(t *testing.T) {
	d, err := debounce.New(3, 2)
	require.NoError(t, err)
	_, ok := d.Add("RAB123C")
	require.False(t, ok)
	// grammar-invalid noise in between must not dilute the window
	for _, junk := range []string{"", "???", "RAB12", "rab123", "RAB123CC"} {
		_, ok = d.Add(junk)
		require.False(t, ok)
	}
	_, ok = d.Add("RAB123C")
	require.False(t, ok)
	got, ok := d.Add("RAD456E")
	require.True(t, ok)
	assert.Equal(t, model.Plate("RAB123C"), got)
}

func TestWindowClearsAfterConfirmation(t *testing.T) {
	d, err := debounce.New(3, 2)
	require.NoError(t, err)
	d.Add("RAB123C")
	d.Add("RAB123C")
	_, ok := d.Add("RAB123C")
	require.True(t, ok)

	// a fresh window must be required for the next confirmation
	d.Add("RAB123C")
	_, ok = d.Add("RAB123C")
	assert.False(t, ok, "window must restart empty after a confirmation")
}

func TestWindowClearsWithoutQuorum(t *testing.T) {
	d, err := debounce.New(3, 2)
	require.NoError(t, err)
	d.Add("RAB123C")
	d.Add("RAD456E")
	_, ok := d.Add("RAF789G")
	require.False(t, ok)

	// the old readings must not count toward the next window
	d.Add("RAB123C")
	d.Add("RAD456E")
	_, ok = d.Add("RAD456E")
	require.True(t, ok)
}

func TestNormalizationBeforeCounting(t *testing.T) {
	d, err := debounce.New(3, 2)
	require.NoError(t, err)
	d.Add(" rab123c ")
	d.Add("RAB 123C")
	got, ok := d.Add("RAD456E")
	require.True(t, ok)
	assert.Equal(t, model.Plate("RAB123C"), got)
}
