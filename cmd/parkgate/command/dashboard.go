// Copyright (c) 2025 Eric Habimana
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package command

import (
	"fmt"

	"github.com/habimana/parkgate/pkg/adapter/restful/gin/routes"
	"github.com/spf13/cobra"
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Serve the read-only reporting REST API",
	Long: `The dashboard serves the newest parking sessions and audit
events of the ledger over a read-only REST API. It never mutates the
ledger; gate decisions stay with the controller processes.`,
	RunE: runDashboard,
}

func runDashboard(_ *cobra.Command, _ []string) error {
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
	e := c.Dashboard.NewEngine()
	if err = routes.Register(e, p); err != nil {
		return fmt.Errorf("registering routes: %w", err)
	}
	if err = e.Run(c.Dashboard.Listen); err != nil {
		return fmt.Errorf("running Gin engine: %w", err)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(dashboardCmd)
}
