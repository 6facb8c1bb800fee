// Copyright (c) 2025 Eric Habimana
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package eventsrs realizes the audit events resource, allowing the
// reporting dashboard to list the newest ledger events. The resource
// is strictly read-only; gate decisions stay with the controller
// processes.
package eventsrs

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/habimana/parkgate/pkg/adapter/restful/gin/serdser"
	"github.com/habimana/parkgate/pkg/core/usecase/reportuc"
)

type resource struct {
	report *reportuc.UseCase
}

// Register instantiates a resource adapting the reporting use case
// instance with the relevant REST APIs including:
//  1. GET request to /api/parkgate/v1/events
//     in order to list the newest audit events.
func Register(r *gin.RouterGroup, report *reportuc.UseCase) {
	rs := &resource{report: report}
	r.GET("events", rs.ListEvents)
}

func (rs *resource) ListEvents(c *gin.Context) {
	req := rs.DserListEventsReq(c)
	if req == nil {
		return
	}
	events, err := rs.report.ListEvents(c, req.Limit)
	if err != nil {
		serdser.SerErr(c, err)
		return
	}
	c.JSON(http.StatusOK, SerEvents(events))
}
