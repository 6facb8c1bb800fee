package sessionsrp

import (
	"context"
	"time"

	"github.com/habimana/parkgate/pkg/adapter/db/postgres"
	"github.com/habimana/parkgate/pkg/core/model"
	"github.com/habimana/parkgate/pkg/core/repo"
)

// Repo is the PostgreSQL adapter of the parking sessions repository.
type Repo struct {
}

// New instantiates a sessions repository.
func New() *Repo {
	return &Repo{}
}

type connQueryer struct {
	*postgres.Conn
}

func (sessions *Repo) Conn(c repo.Conn) repo.SessionsConnQueryer {
	cc := c.(*postgres.Conn)
	return connQueryer{Conn: cc}
}

func (cq connQueryer) HasActive(ctx context.Context, plate model.Plate) (bool, error) {
	return HasActive(ctx, cq.Conn, plate)
}

func (cq connQueryer) HasAny(ctx context.Context, plate model.Plate) (bool, error) {
	return HasAny(ctx, cq.Conn, plate)
}

func (cq connQueryer) FindActive(ctx context.Context, plate model.Plate) (*model.ParkingSession, error) {
	return FindActive(ctx, cq.Conn, plate)
}

func (cq connQueryer) Create(ctx context.Context, plate model.Plate, at time.Time) (*model.ParkingSession, error) {
	return Create(ctx, cq.Conn, plate, at)
}

func (cq connQueryer) MarkPaid(ctx context.Context, plate model.Plate, amount int64) (*model.ParkingSession, error) {
	return MarkPaid(ctx, cq.Conn, plate, amount)
}

func (cq connQueryer) FinalizeExit(ctx context.Context, plate model.Plate, at time.Time) (bool, error) {
	return FinalizeExit(ctx, cq.Conn, plate, at)
}

func (cq connQueryer) List(ctx context.Context, activeOnly bool, limit int) ([]model.ParkingSession, error) {
	return List(ctx, cq.Conn, activeOnly, limit)
}

type txQueryer struct {
	*postgres.Tx
}

func (sessions *Repo) Tx(tx repo.Tx) repo.SessionsTxQueryer {
	tt := tx.(*postgres.Tx)
	return txQueryer{Tx: tt}
}

func (tq txQueryer) HasActive(ctx context.Context, plate model.Plate) (bool, error) {
	return HasActive(ctx, tq.Tx, plate)
}

func (tq txQueryer) HasAny(ctx context.Context, plate model.Plate) (bool, error) {
	return HasAny(ctx, tq.Tx, plate)
}

func (tq txQueryer) FindActive(ctx context.Context, plate model.Plate) (*model.ParkingSession, error) {
	return FindActive(ctx, tq.Tx, plate)
}

func (tq txQueryer) Create(ctx context.Context, plate model.Plate, at time.Time) (*model.ParkingSession, error) {
	return Create(ctx, tq.Tx, plate, at)
}

func (tq txQueryer) MarkPaid(ctx context.Context, plate model.Plate, amount int64) (*model.ParkingSession, error) {
	return MarkPaid(ctx, tq.Tx, plate, amount)
}

func (tq txQueryer) FinalizeExit(ctx context.Context, plate model.Plate, at time.Time) (bool, error) {
	return FinalizeExit(ctx, tq.Tx, plate, at)
}

func (tq txQueryer) List(ctx context.Context, activeOnly bool, limit int) ([]model.ParkingSession, error) {
	return List(ctx, tq.Tx, activeOnly, limit)
}
