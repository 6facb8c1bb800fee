// Copyright (c) 2025 Eric Habimana
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package sessionsrp_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bitcomplete/sqltestutil"
	"github.com/habimana/parkgate/internal/test/dbcontainer"
	"github.com/habimana/parkgate/pkg/adapter/db/postgres"
	"github.com/habimana/parkgate/pkg/adapter/db/postgres/eventsrp"
	"github.com/habimana/parkgate/pkg/adapter/db/postgres/sessionsrp"
	"github.com/habimana/parkgate/pkg/core/cerr"
	"github.com/habimana/parkgate/pkg/core/model"
	"github.com/habimana/parkgate/pkg/core/repo"
	"github.com/stretchr/testify/suite"
)

type IntegrationLedgerTestSuite struct {
	suite.Suite

	Ctx      context.Context
	Pg       *sqltestutil.PostgresContainer
	Pool     *postgres.Pool
	Sessions repo.Sessions
	Events   repo.Events
}

func TestIntegrationLedgerTestSuite(t *testing.T) {
	ctx := context.Background()
	pg, pool, dfrs, ok := dbcontainer.New(ctx, 60*time.Second, t)
	for _, f := range dfrs {
		defer f()
	}
	if !ok {
		return // errors are already logged
	}
	suite.Run(t, &IntegrationLedgerTestSuite{
		Ctx:      ctx,
		Pg:       pg,
		Pool:     pool,
		Sessions: sessionsrp.New(),
		Events:   eventsrp.New(),
	})
}

func (ilts *IntegrationLedgerTestSuite) SetupSuite() {
	err := ilts.Pool.Conn(
		ilts.Ctx, func(ctx context.Context, c repo.Conn) error {
			return postgres.InitSchema(ctx, c.(*postgres.Conn))
		},
	)
	ilts.Require().NoError(err, "failed to create ledger schema")
}

func (ilts *IntegrationLedgerTestSuite) SetupTest() {
	err := ilts.Pool.Conn(
		ilts.Ctx, func(ctx context.Context, c repo.Conn) error {
			_, err := c.Exec(ctx, "TRUNCATE parking_sessions, events")
			return err
		},
	)
	ilts.Require().NoError(err, "failed to truncate ledger tables")
}

func (ilts *IntegrationLedgerTestSuite) conn(
	f func(ctx context.Context, c repo.Conn) error,
) {
	err := ilts.Pool.Conn(ilts.Ctx, f)
	ilts.Require().NoError(err)
}

func (ilts *IntegrationLedgerTestSuite) TestCreateAndFindActive() {
	ilts.conn(func(ctx context.Context, c repo.Conn) error {
		s := ilts.Sessions.Conn(c)
		created, err := s.Create(ctx, "RAB123C", time.Now())
		ilts.Require().NoError(err, "failed to create a session")
		ilts.Equal(model.Plate("RAB123C"), created.Plate)
		ilts.False(created.Paid)
		ilts.False(created.Exited)
		ilts.Nil(created.AmountDue)

		found, err := s.FindActive(ctx, "RAB123C")
		ilts.Require().NoError(err)
		ilts.Equal(created.ID, found.ID)

		ok, err := s.HasActive(ctx, "RAB123C")
		ilts.Require().NoError(err)
		ilts.True(ok)

		_, err = s.FindActive(ctx, "RZZ999Z")
		ilts.True(cerr.IsKind(err, cerr.KindNotFound))
		return nil
	})
}

func (ilts *IntegrationLedgerTestSuite) TestDuplicateActiveSessionRejected() {
	ilts.conn(func(ctx context.Context, c repo.Conn) error {
		s := ilts.Sessions.Conn(c)
		_, err := s.Create(ctx, "RAB123C", time.Now())
		ilts.Require().NoError(err)

		_, err = s.Create(ctx, "RAB123C", time.Now())
		ilts.True(cerr.IsKind(err, cerr.KindDuplicate))
		ilts.True(errors.Is(err, repo.ErrDuplicateSession))
		return nil
	})
}

func (ilts *IntegrationLedgerTestSuite) TestReEntryAfterExitIsAllowed() {
	ilts.conn(func(ctx context.Context, c repo.Conn) error {
		s := ilts.Sessions.Conn(c)
		_, err := s.Create(ctx, "RAB123C", time.Now())
		ilts.Require().NoError(err)
		_, err = s.MarkPaid(ctx, "RAB123C", 500)
		ilts.Require().NoError(err)
		done, err := s.FinalizeExit(ctx, "RAB123C", time.Now())
		ilts.Require().NoError(err)
		ilts.Require().True(done)

		// the partial unique index only guards non-exited rows
		_, err = s.Create(ctx, "RAB123C", time.Now())
		ilts.Require().NoError(err, "re-entry must start a fresh session")

		sessions, err := s.List(ctx, false, 10)
		ilts.Require().NoError(err)
		ilts.Len(sessions, 2)
		return nil
	})
}

func (ilts *IntegrationLedgerTestSuite) TestPlateGrammarEnforcedByCheck() {
	ilts.conn(func(ctx context.Context, c repo.Conn) error {
		_, err := c.Exec(
			ctx,
			`INSERT INTO parking_sessions(sid, plate, entry_time)
VALUES (gen_random_uuid(), $1, now())`,
			"bad-1",
		)
		ilts.Error(err, "out-of-grammar plates must not enter the ledger")
		return nil
	})
}

func (ilts *IntegrationLedgerTestSuite) TestMarkPaidTransitions() {
	ilts.conn(func(ctx context.Context, c repo.Conn) error {
		s := ilts.Sessions.Conn(c)

		_, err := s.MarkPaid(ctx, "RAB123C", 500)
		ilts.True(cerr.IsKind(err, cerr.KindNotFound),
			"no session at all")
		ilts.True(errors.Is(err, repo.ErrNoUnpaidSession))

		_, err = s.Create(ctx, "RAB123C", time.Now())
		ilts.Require().NoError(err)

		paid, err := s.MarkPaid(ctx, "RAB123C", 1000)
		ilts.Require().NoError(err)
		ilts.True(paid.Paid)
		ilts.Require().NotNil(paid.AmountDue)
		ilts.Equal(int64(1000), *paid.AmountDue)
		ilts.False(paid.Exited, "payment must not finalize the exit")

		_, err = s.MarkPaid(ctx, "RAB123C", 1000)
		ilts.True(cerr.IsKind(err, cerr.KindNotFound),
			"a second confirmation must not double-charge")
		return nil
	})
}

func (ilts *IntegrationLedgerTestSuite) TestFinalizeExitTransitions() {
	ilts.conn(func(ctx context.Context, c repo.Conn) error {
		s := ilts.Sessions.Conn(c)

		done, err := s.FinalizeExit(ctx, "RAB123C", time.Now())
		ilts.Require().NoError(err)
		ilts.False(done, "no session at all")

		_, err = s.Create(ctx, "RAB123C", time.Now())
		ilts.Require().NoError(err)

		done, err = s.FinalizeExit(ctx, "RAB123C", time.Now())
		ilts.Require().NoError(err)
		ilts.False(done, "unpaid sessions may not exit")

		_, err = s.MarkPaid(ctx, "RAB123C", 500)
		ilts.Require().NoError(err)

		done, err = s.FinalizeExit(ctx, "RAB123C", time.Now())
		ilts.Require().NoError(err)
		ilts.True(done)

		found, err := s.FindActive(ctx, "RAB123C")
		ilts.True(cerr.IsKind(err, cerr.KindNotFound))
		ilts.Nil(found)

		known, err := s.HasAny(ctx, "RAB123C")
		ilts.Require().NoError(err)
		ilts.True(known, "the historical record must remain")

		done, err = s.FinalizeExit(ctx, "RAB123C", time.Now())
		ilts.Require().NoError(err)
		ilts.False(done, "finalize must stay a no-op afterwards")
		return nil
	})
}

func (ilts *IntegrationLedgerTestSuite) TestEventAppendAndList() {
	ilts.conn(func(ctx context.Context, c repo.Conn) error {
		e := ilts.Events.Conn(c)
		err := e.Append(ctx, model.NewEvent(
			"RAB123C", model.EventEntry, "Vehicle RAB123C entered",
		))
		ilts.Require().NoError(err)
		err = e.Append(ctx, model.NewEvent(
			"RAB123C", model.EventPayment,
			"Payment of 500 successful for RAB123C",
		))
		ilts.Require().NoError(err)

		events, err := e.List(ctx, 10)
		ilts.Require().NoError(err)
		ilts.Require().Len(events, 2)
		ilts.Equal(model.EventPayment, events[0].Kind, "newest first")
		ilts.Equal(model.EventEntry, events[1].Kind)
		ilts.Equal("RAB123C", events[0].Plate)
		return nil
	})
}

func (ilts *IntegrationLedgerTestSuite) TestFailedTxRollsBackSessionAndEvent() {
	errBoom := errors.New("forced failure after the writes")
	err := ilts.Pool.Conn(
		ilts.Ctx, func(ctx context.Context, c repo.Conn) error {
			return c.Tx(ctx, func(ctx context.Context, tx repo.Tx) error {
				_, err := ilts.Sessions.Tx(tx).Create(
					ctx, "RAB123C", time.Now(),
				)
				ilts.Require().NoError(err)
				err = ilts.Events.Tx(tx).Append(ctx, model.NewEvent(
					"RAB123C", model.EventEntry,
					"Vehicle RAB123C entered",
				))
				ilts.Require().NoError(err)
				return errBoom
			})
		},
	)
	ilts.Require().ErrorIs(err, errBoom)

	ilts.conn(func(ctx context.Context, c repo.Conn) error {
		ok, err := ilts.Sessions.Conn(c).HasAny(ctx, "RAB123C")
		ilts.Require().NoError(err)
		ilts.False(ok, "the session write must be rolled back")

		events, err := ilts.Events.Conn(c).List(ctx, 10)
		ilts.Require().NoError(err)
		ilts.Empty(events, "the event write must be rolled back")
		return nil
	})
}

func (ilts *IntegrationLedgerTestSuite) TestListOrderingAndFilter() {
	ilts.conn(func(ctx context.Context, c repo.Conn) error {
		s := ilts.Sessions.Conn(c)
		base := time.Now().Add(-3 * time.Hour)
		for i, plate := range []model.Plate{
			"RAA111A", "RBB222B", "RCC333C",
		} {
			_, err := s.Create(
				ctx, plate, base.Add(time.Duration(i)*time.Hour),
			)
			ilts.Require().NoError(err)
		}
		_, err := s.MarkPaid(ctx, "RAA111A", 500)
		ilts.Require().NoError(err)
		done, err := s.FinalizeExit(ctx, "RAA111A", time.Now())
		ilts.Require().NoError(err)
		ilts.Require().True(done)

		all, err := s.List(ctx, false, 10)
		ilts.Require().NoError(err)
		ilts.Require().Len(all, 3)
		ilts.Equal(model.Plate("RCC333C"), all[0].Plate, "newest first")

		active, err := s.List(ctx, true, 10)
		ilts.Require().NoError(err)
		ilts.Require().Len(active, 2)
		for _, sess := range active {
			ilts.False(sess.Exited)
		}

		limited, err := s.List(ctx, false, 1)
		ilts.Require().NoError(err)
		ilts.Len(limited, 1)
		return nil
	})
}
