// Copyright (c) 2025 Eric Habimana
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package command

import (
	"fmt"

	"github.com/habimana/parkgate/pkg/adapter/db/postgres/eventsrp"
	"github.com/habimana/parkgate/pkg/adapter/db/postgres/sessionsrp"
	"github.com/habimana/parkgate/pkg/core/model"
	"github.com/habimana/parkgate/pkg/core/usecase/paymentuc"
	"github.com/spf13/cobra"
)

var paidCmd = &cobra.Command{
	Use:   "paid <plate>",
	Short: "Manually mark the unpaid session of a plate as paid",
	Long: `The paid command is the operator override for card-less
payments, such as cash at the booth. It charges the regular amount
due on the single unpaid session of the plate, without a terminal
handshake, and records a Payment audit event.`,
	Args: cobra.ExactArgs(1),
	RunE: runPaid,
}

func runPaid(_ *cobra.Command, args []string) error {
	ctx, stop := signalContext()
	defer stop()
	plate, err := model.ParsePlate(args[0])
	if err != nil {
		return fmt.Errorf("parsing plate %q: %w", args[0], err)
	}
	c, err := loadConfig()
	if err != nil {
		return err
	}
	p, err := connect(ctx, c)
	if err != nil {
		return err
	}
	defer p.Close()
	uc, err := paymentuc.New(
		p, sessionsrp.New(), eventsrp.New(),
		c.Terminal.NewDialer(), c.Payment.Options()...,
	)
	if err != nil {
		return fmt.Errorf("creating payment use case: %w", err)
	}
	marked, err := uc.MarkPaidManually(ctx, plate)
	if err != nil {
		return fmt.Errorf("marking %s as paid: %w", plate, err)
	}
	if !marked {
		return fmt.Errorf("no unpaid session exists for %s", plate)
	}
	fmt.Printf("marked %s as paid\n", plate)
	return nil
}

func init() {
	rootCmd.AddCommand(paidCmd)
}
