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
	"github.com/habimana/parkgate/pkg/core/usecase/exituc"
	"github.com/spf13/cobra"
)

var exitCmd = &cobra.Command{
	Use:   "exit",
	Short: "Run the exit gate controller",
	Long: `The exit controller consumes plate readings from stdin,
debounces them, and releases each confirmed vehicle whose session is
paid by cycling the exit gate and closing the session. Unknown,
unpaid, and already-exited plates are denied with a buzzer signal.
It stops after one release or at the end of the readings stream.`,
	RunE: runExit,
}

func runExit(_ *cobra.Command, _ []string) error {
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
	uc, err := exituc.New(p, sessionsrp.New(), eventsrp.New(), gate)
	if err != nil {
		return fmt.Errorf("creating exit use case: %w", err)
	}
	return uc.Run(ctx, vision.NewLineSource(os.Stdin))
}

func init() {
	rootCmd.AddCommand(exitCmd)
}
