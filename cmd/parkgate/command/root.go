// Copyright (c) 2025 Eric Habimana
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package command provides the root and sub-commands for the parkgate
// project. Commands are organized using the cobra library.
// Each gate process runs as its own sub-command against the shared
// ledger database, which is their only coordination channel.
//
//	./parkgate entry [-c /path/of/config.yaml]      # entry controller
//	./parkgate exit [-c /path/of/config.yaml]       # exit controller
//	./parkgate payment [-c /path/of/config.yaml]    # payment processor
//	./parkgate paid RAB123C [-c /path/of/config.yaml]
//	./parkgate dashboard [-c /path/of/config.yaml]  # reporting API
//	./parkgate db init [-c /path/of/config.yaml]
package command

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/habimana/parkgate/pkg/adapter/config"
	"github.com/habimana/parkgate/pkg/adapter/db/postgres"
	"github.com/spf13/cobra"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:   "parkgate",
	Short: "Automated parking gate controllers over a shared ledger",
	Long: `Parkgate automates a parking lot with three independent
processes: an entry controller and an exit controller, which debounce
plate readings and drive their gates, and a payment processor, which
negotiates balance deductions with a serial payment terminal. The
processes coordinate exclusively through a transactional PostgreSQL
ledger of parking sessions and append-only audit events, which a
read-only dashboard serves over a REST API.`,
}

// loadConfig loads the configuration file which was selected by the
// CLI flags or environment.
func loadConfig() (*config.Config, error) {
	c, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("config.Load(%q): %w", cfgPath, err)
	}
	return c, nil
}

// signalContext returns a context which ends on SIGINT or SIGTERM, so
// a controller loop stops between candidates instead of being killed
// mid-transaction.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(
		context.Background(), os.Interrupt, syscall.SIGTERM,
	)
}

// connect creates a database connection pool based on the c settings.
func connect(ctx context.Context, c *config.Config) (*postgres.Pool, error) {
	p, err := c.Database.ConnectionPool(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating DB pool: %w", err)
	}
	return p, nil
}

// Execute runs the rootCmd which in turn parses CLI arguments and
// flags and runs the most specific cobra command. The exit code may
// be a boolean (zero for success and non-zero for failure) or may be
// chosen based on the error condition (if it is desired to report
// several error conditions in the CLI of this program).
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(fixConfigPath)
	rootCmd.PersistentFlags().StringVarP(
		&cfgPath, "config", "c", "", "config file path",
	)
}

// fixConfigPath ensures that cfgPath is set respectively by either the
// CLI args, the CONFIG_FILE environment variable, or its default value.
func fixConfigPath() {
	if cfgPath != "" {
		return
	}
	var found bool
	if cfgPath, found = os.LookupEnv("CONFIG_FILE"); !found {
		// the default path should usually be in the /etc directory
		cfgPath = "configs/parkgate.yaml"
	}
}
