// Copyright (c) 2025 Eric Habimana
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package routes contains all resource packages and facilitates
// instantiation and registration of all repo, use case, and resource
// packages of the reporting dashboard.
package routes

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/habimana/parkgate/pkg/adapter/db/postgres/eventsrp"
	"github.com/habimana/parkgate/pkg/adapter/db/postgres/sessionsrp"
	"github.com/habimana/parkgate/pkg/adapter/restful/gin/eventsrs"
	"github.com/habimana/parkgate/pkg/adapter/restful/gin/sessionsrs"
	"github.com/habimana/parkgate/pkg/core/repo"
	"github.com/habimana/parkgate/pkg/core/usecase/reportuc"
)

// Register instantiates the ledger repositories and the reporting use
// case over the p connections pool, then registers the read-only
// resources as request handlers using the e gin-gonic engine. Each
// resource package is named like eventsrs and each repository package
// is named like eventsrp.
func Register(e *gin.Engine, p repo.Pool) error {
	sessionsRepo := sessionsrp.New()
	eventsRepo := eventsrp.New()

	report, err := reportuc.New(p, sessionsRepo, eventsRepo)
	if err != nil {
		return fmt.Errorf("creating reporting use case: %w", err)
	}
	r := e.Group("/api/parkgate/v1")
	eventsrs.Register(r, report)
	sessionsrs.Register(r, report)
	return nil
}
