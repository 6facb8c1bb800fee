package eventsrp

import (
	"context"

	"github.com/habimana/parkgate/pkg/adapter/db/postgres"
	"github.com/habimana/parkgate/pkg/core/model"
	"github.com/habimana/parkgate/pkg/core/repo"
)

// Repo is the PostgreSQL adapter of the audit events repository.
type Repo struct {
}

// New instantiates an events repository.
func New() *Repo {
	return &Repo{}
}

type connQueryer struct {
	*postgres.Conn
}

func (events *Repo) Conn(c repo.Conn) repo.EventsConnQueryer {
	cc := c.(*postgres.Conn)
	return connQueryer{Conn: cc}
}

func (cq connQueryer) Append(ctx context.Context, e model.Event) error {
	return Append(ctx, cq.Conn, e)
}

func (cq connQueryer) List(ctx context.Context, limit int) ([]model.Event, error) {
	return List(ctx, cq.Conn, limit)
}

type txQueryer struct {
	*postgres.Tx
}

func (events *Repo) Tx(tx repo.Tx) repo.EventsTxQueryer {
	tt := tx.(*postgres.Tx)
	return txQueryer{Tx: tt}
}

func (tq txQueryer) Append(ctx context.Context, e model.Event) error {
	return Append(ctx, tq.Tx, e)
}

func (tq txQueryer) List(ctx context.Context, limit int) ([]model.Event, error) {
	return List(ctx, tq.Tx, limit)
}
