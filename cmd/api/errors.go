// cmd/api/errors.go
// This file contains all error-response helpers for the application.
// Keeping error helpers in a dedicated file makes them easy to find and extend.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/aoideee/peopleview/internal/data"
	"github.com/aoideee/peopleview/internal/roster"
)

// logError logs an internal error at ERROR level with the request method, URL
// and request id for context.
func (app *applicationDependencies) logError(r *http.Request, err error) {
	app.logger.Error(err.Error(),
		slog.String("request_method", r.Method),
		slog.String("request_url", r.URL.String()),
		slog.String("request_id", requestIDFrom(r.Context())),
	)
}

// errorResponse sends a JSON error envelope with the given status code and message.
// It is the low-level building block used by all the specific error helpers below.
func (app *applicationDependencies) errorResponse(w http.ResponseWriter, r *http.Request, status int, message any) {
	app.writeError(w, r, status, envelope{"error": message}, nil)
}

// writeError writes env with the given status, falling back to a bare 500
// when the envelope cannot be encoded.
func (app *applicationDependencies) writeError(w http.ResponseWriter, r *http.Request, status int, env envelope, headers http.Header) {
	err := app.writeJSON(w, status, env, headers)
	if err != nil {
		app.logError(r, err)
		w.WriteHeader(http.StatusInternalServerError)
	}
}

// serverErrorResponse logs a 500-level error and sends a generic message to the client.
// We never expose internal error details to the client for security reasons.
func (app *applicationDependencies) serverErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logError(r, err)
	app.errorResponse(w, r, http.StatusInternalServerError, "the server encountered a problem and could not process your request")
}

// notFoundResponse sends a 404 Not Found error.
func (app *applicationDependencies) notFoundResponse(w http.ResponseWriter, r *http.Request) {
	app.errorResponse(w, r, http.StatusNotFound, "the requested resource could not be found")
}

// methodNotAllowedResponse sends a 405 Method Not Allowed error.
func (app *applicationDependencies) methodNotAllowedResponse(w http.ResponseWriter, r *http.Request) {
	message := "the " + r.Method + " method is not supported for this resource"
	app.errorResponse(w, r, http.StatusMethodNotAllowed, message)
}

// badRequestResponse sends a 400 Bad Request error with the error message from the caller.
func (app *applicationDependencies) badRequestResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.errorResponse(w, r, http.StatusBadRequest, err.Error())
}

// failedValidationResponse sends a 422 Unprocessable Entity response containing
// the field-level validation errors collected by a Validator.
func (app *applicationDependencies) failedValidationResponse(w http.ResponseWriter, r *http.Request, errors map[string]string) {
	app.errorResponse(w, r, http.StatusUnprocessableEntity, errors)
}

// rateLimitExceededResponse sends a 429 Too Many Requests error.
func (app *applicationDependencies) rateLimitExceededResponse(w http.ResponseWriter, r *http.Request) {
	app.errorResponse(w, r, http.StatusTooManyRequests, "rate limit exceeded")
}

// taskErrorResponse reports a failed controller task. The notice the task
// produced is always included so clients can show it; the status code
// follows the kind of failure.
func (app *applicationDependencies) taskErrorResponse(w http.ResponseWriter, r *http.Request, taskID string, notice roster.Notice, err error) {
	var (
		status  int
		message any
		verr    *roster.ValidationError
	)

	switch {
	case errors.As(err, &verr):
		status, message = http.StatusUnprocessableEntity, verr.Fields
	case errors.Is(err, roster.ErrEmptySelection), errors.Is(err, data.ErrRecordNotFound):
		status, message = http.StatusNotFound, "the requested resource could not be found"
	case errors.Is(err, data.ErrConstraint):
		status, message = http.StatusConflict, "the request conflicts with the stored data"
	case errors.Is(err, roster.ErrStopped):
		status, message = http.StatusServiceUnavailable, "the server is shutting down"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		// The client stopped waiting; the task itself carries on.
		app.logger.Warn("client went away before task finished",
			slog.String("task_id", taskID),
			slog.String("request_id", requestIDFrom(r.Context())),
		)
		return
	default:
		app.logError(r, err)
		status, message = http.StatusInternalServerError, "the server encountered a problem and could not process your request"
	}

	env := envelope{"error": message}
	if notice.Key != "" {
		env["notice"] = notice
	}
	app.writeError(w, r, status, env, taskHeader(taskID))
}
