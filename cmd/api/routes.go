// cmd/api/routes.go
package main

import (
	"context"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// routes registers all HTTP endpoints and returns the configured router wrapped
// in the recoverPanic, requestID and rateLimit middlewares. Background work
// started by the middlewares stops when ctx is done.
//
// Middleware chain (outermost → innermost):
//
//	recoverPanic → requestID → rateLimit → router
//
// Current endpoints:
//
//	GET    /v1/people          – list the people shown (?refresh=true reloads first)
//	POST   /v1/people          – add a person
//	DELETE /v1/people/:id      – delete one person by ID
//	POST   /v1/people/delete   – delete a selection of people
//	POST   /v1/people/restore  – replace the table with the basic data
//	GET    /live, /ready       – liveness and readiness probes
//	GET    /metrics            – Prometheus metrics
func (app *applicationDependencies) routes(ctx context.Context) http.Handler {
	router := httprouter.New()

	// Override the default httprouter error handlers to return JSON responses.
	router.NotFound = http.HandlerFunc(app.notFoundResponse)
	router.MethodNotAllowed = http.HandlerFunc(app.methodNotAllowedResponse)

	// People routes
	router.HandlerFunc(http.MethodGet, "/v1/people", app.listPeopleHandler)
	router.HandlerFunc(http.MethodPost, "/v1/people", app.createPersonHandler)
	router.HandlerFunc(http.MethodDelete, "/v1/people/:id", app.deletePersonHandler)
	router.HandlerFunc(http.MethodPost, "/v1/people/delete", app.deletePeopleHandler)
	router.HandlerFunc(http.MethodPost, "/v1/people/restore", app.restorePeopleHandler)

	// Operational routes
	router.HandlerFunc(http.MethodGet, "/live", app.health.LiveEndpoint)
	router.HandlerFunc(http.MethodGet, "/ready", app.health.ReadyEndpoint)
	router.Handler(http.MethodGet, "/metrics", promhttp.Handler())

	// Wrap with middleware: recoverPanic is outermost so it catches panics
	// from every layer below it.
	return app.recoverPanic(app.requestID(app.rateLimit(ctx, router)))
}
