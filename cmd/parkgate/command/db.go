// Copyright (c) 2025 Eric Habimana
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package command

import (
	"context"
	"fmt"

	"github.com/habimana/parkgate/pkg/adapter/db/postgres"
	"github.com/habimana/parkgate/pkg/core/repo"
	"github.com/spf13/cobra"
)

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Database management actions",
	Long: `Database management actions can be chosen by sub-commands.
For a fresh installation, the init action creates the ledger tables
and indices; it is idempotent and may be re-run safely.`,
}

var dbInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the ledger tables if they do not exist",
	RunE:  runDBInit,
}

func runDBInit(_ *cobra.Command, _ []string) error {
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
	err = p.Conn(ctx, func(ctx context.Context, conn repo.Conn) error {
		return postgres.InitSchema(ctx, conn.(*postgres.Conn))
	})
	if err != nil {
		return err
	}
	fmt.Println("ledger schema is ready")
	return nil
}

func init() {
	rootCmd.AddCommand(dbCmd)
	dbCmd.AddCommand(dbInitCmd)
}
