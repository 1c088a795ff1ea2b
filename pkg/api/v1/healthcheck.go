// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package v1

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// HealthRouter sets up the service health route.
func HealthRouter() http.Handler {
	routes := &healthRoutes{}
	r := chi.NewRouter()
	r.Get("/", routes.getHealth)
	return r
}

type healthRoutes struct{}

//	 getHealth
//		@Summary		Health check
//		@Description	Check if the service is healthy
//		@Tags			system
//		@Success		200	{object}	healthResponse
//		@Router			/health [get]
func (*healthRoutes) getHealth(w http.ResponseWriter, _ *http.Request) {
	_ = respondJSON(w, http.StatusOK, healthResponse{
		Status: "ok",
		Time:   time.Now().UTC().Format(time.RFC3339),
	})
}

// Response types

// healthResponse reports service liveness.
type healthResponse struct {
	// Status is always "ok" when the service can answer.
	Status string `json:"status"`
	// Time is the server clock in RFC 3339.
	Time string `json:"time"`
}
