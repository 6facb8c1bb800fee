// Copyright (c) 2025 Eric Habimana
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package postgres

import (
	"context"
	"fmt"
)

// ledgerDDL creates the shared ledger tables. All statements are
// idempotent, so re-running the initialization against a provisioned
// database is harmless.
//
// The partial unique index is the ground truth for the one-active-
// session-per-plate invariant: concurrent entry controllers racing on
// the same plate are serialized by the DBMS, and the loser surfaces a
// unique-violation which the sessions repository reports as a
// duplicate. The plate CHECK repeats the model-layer grammar so that
// no out-of-grammar row can enter the ledger behind the adapters.
const ledgerDDL = `
CREATE TABLE IF NOT EXISTS parking_sessions (
	sid UUID PRIMARY KEY,
	plate VARCHAR(7) NOT NULL
		CHECK (plate ~ '^[A-Z]{2,3}[0-9]{3}[A-Z]$'),
	paid BOOLEAN NOT NULL DEFAULT FALSE,
	amount BIGINT,
	entry_time TIMESTAMPTZ NOT NULL,
	exit_time TIMESTAMPTZ,
	exited BOOLEAN NOT NULL DEFAULT FALSE
);
CREATE UNIQUE INDEX IF NOT EXISTS parking_sessions_active_plate
	ON parking_sessions (plate) WHERE NOT exited;
CREATE TABLE IF NOT EXISTS events (
	eid BIGSERIAL PRIMARY KEY,
	plate VARCHAR(7) NOT NULL,
	etype VARCHAR(32) NOT NULL,
	message VARCHAR(255) NOT NULL,
	etime TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS events_etime ON events (etime);
`

// InitSchema creates the ledger tables and indices if they do not
// exist yet. It is used by the db init command during deployment and
// by the integration test suites for their ephemeral databases.
func InitSchema[Q Queryer](ctx context.Context, q Q) error {
	if _, err := q.Exec(ctx, ledgerDDL); err != nil {
		return fmt.Errorf("creating ledger schema: %w", err)
	}
	return nil
}
