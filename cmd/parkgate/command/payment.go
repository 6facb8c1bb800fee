// Copyright (c) 2025 Eric Habimana
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package command

import (
	"fmt"

	"github.com/habimana/parkgate/pkg/adapter/db/postgres/eventsrp"
	"github.com/habimana/parkgate/pkg/adapter/db/postgres/sessionsrp"
	"github.com/habimana/parkgate/pkg/core/usecase/paymentuc"
	"github.com/spf13/cobra"
)

var paymentCmd = &cobra.Command{
	Use:   "payment",
	Short: "Run the payment terminal processor",
	Long: `The payment processor connects to the serial payment
terminal, waits for balance-card messages, and charges the parking
fee of the matching unpaid session over a timeout-bounded handshake.
The ledger is only updated after the terminal confirms the balance
write. It stops after one confirmed payment.`,
	RunE: runPayment,
}

func runPayment(_ *cobra.Command, _ []string) error {
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
	uc, err := paymentuc.New(
		p, sessionsrp.New(), eventsrp.New(),
		c.Terminal.NewDialer(), c.Payment.Options()...,
	)
	if err != nil {
		return fmt.Errorf("creating payment use case: %w", err)
	}
	return uc.Run(ctx)
}

func init() {
	rootCmd.AddCommand(paymentCmd)
}
