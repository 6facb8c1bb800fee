// Copyright (c) 2025 Eric Habimana
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package eventsrp implements the append-only audit events repository
// over a PostgreSQL ledger.
package eventsrp

import (
	"context"
	"fmt"
	"time"

	"github.com/habimana/parkgate/pkg/adapter/db/postgres"
	"github.com/habimana/parkgate/pkg/core/log"
	"github.com/habimana/parkgate/pkg/core/model"
)

type gEvent struct {
	EID     int64  `gorm:"primaryKey;autoIncrement;column:eid"`
	Plate   string
	EType   string `gorm:"column:etype"`
	Message string
	ETime   time.Time `gorm:"column:etime"`
}

func (ge *gEvent) TableName() string {
	return "events"
}

func (ge *gEvent) Model(ctx context.Context) *model.Event {
	kind, err := model.ParseEventKind(ge.EType)
	if err != nil {
		// rows can only get here through manual edits; report them
		// as Error events instead of dropping them from the listing
		log.Warn(ctx, "unparsable event kind in ledger",
			log.Err("error", err))
		kind = model.EventError
	}
	return &model.Event{
		Plate:     ge.Plate,
		Kind:      kind,
		Timestamp: ge.ETime,
		Message:   ge.Message,
	}
}

func Append[Q postgres.Queryer](ctx context.Context, q Q, e model.Event) error {
	gdb := q.GORM(ctx)
	ge := gEvent{
		Plate:   e.Plate,
		EType:   e.Kind.String(),
		Message: e.Message,
		ETime:   e.Timestamp,
	}
	if err := gdb.Create(&ge).Error; err != nil {
		return fmt.Errorf("query: %w", err)
	}
	return nil
}

func List[Q postgres.Queryer](ctx context.Context, q Q, limit int) ([]model.Event, error) {
	gdb := q.GORM(ctx)
	var ge []gEvent
	gdb.Order("etime DESC, eid DESC").Limit(limit).Find(&ge)
	if err := gdb.Error; err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	events := make([]model.Event, 0, len(ge))
	for i := range ge {
		events = append(events, *ge[i].Model(ctx))
	}
	return events, nil
}
