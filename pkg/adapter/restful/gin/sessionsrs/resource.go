// Copyright (c) 2025 Eric Habimana
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package sessionsrs realizes the parking sessions resource, allowing
// the reporting dashboard to list sessions and to see which vehicles
// are currently inside the lot. The resource is strictly read-only.
package sessionsrs

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
//  1. GET request to /api/parkgate/v1/sessions
//     in order to list the newest parking sessions, optionally
//     restricted to the active ones with the active=true query param.
func Register(r *gin.RouterGroup, report *reportuc.UseCase) {
	rs := &resource{report: report}
	r.GET("sessions", rs.ListSessions)
}

func (rs *resource) ListSessions(c *gin.Context) {
	req := rs.DserListSessionsReq(c)
	if req == nil {
		return
	}
	sessions, err := rs.report.ListSessions(c, req.Active, req.Limit)
	if err != nil {
		serdser.SerErr(c, err)
		return
	}
	c.JSON(http.StatusOK, SerSessions(sessions))
}
