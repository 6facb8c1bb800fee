// Copyright (c) 2025 Eric Habimana
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package command

import (
	"fmt"
	"os"

	"github.com/habimana/parkgate/pkg/adapter/db/postgres/eventsrp"
	"github.com/habimana/parkgate/pkg/adapter/db/postgres/sessionsrp"
	"github.com/habimana/parkgate/pkg/adapter/vision"
	"github.com/habimana/parkgate/pkg/core/usecase/entryuc"
	"github.com/spf13/cobra"
)

var entryCmd = &cobra.Command{
	Use:   "entry",
	Short: "Run the entry gate controller",
	Long: `The entry controller consumes plate readings from stdin,
one raw reading per line as produced by the recognition pipeline,
debounces them, and admits each confirmed vehicle by recording a
parking session and cycling the entry gate. It stops after one
admission or at the end of the readings stream.`,
	RunE: runEntry,
}

func runEntry(_ *cobra.Command, _ []string) error {
	ctx, stop := signalContext()
	defer stop()
	c, err := loadConfig()
	if err != nil {
		return err
	}
	p, err := connect(ctx, c)
	if err != nil {
		return err
	}
	defer p.Close()
	port, err := c.Gate.OpenGatePort()
	if err != nil {
		return fmt.Errorf("opening gate port: %w", err)
	}
	defer port.Close()
	gate, err := c.Gatectl.NewController(port)
	if err != nil {
		return fmt.Errorf("creating gate controller: %w", err)
	}
	uc, err := entryuc.New(
		p, sessionsrp.New(), eventsrp.New(), gate, c.Entry.Options()...,
	)
	if err != nil {
		return fmt.Errorf("creating entry use case: %w", err)
	}
	return uc.Run(ctx, vision.NewLineSource(os.Stdin))
}

func init() {
	rootCmd.AddCommand(entryCmd)
}
