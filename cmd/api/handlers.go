// cmd/api/handlers.go
// This file contains all HTTP request handlers for the people resource.
// Each handler is a method on *applicationDependencies so it has access
// to the logger and the roster controller. Handlers never talk to the
// store directly: every action goes through the controller as a task.
package main

import (
	"fmt"
	"net/http"
	"strings"

	"cloud.google.com/go/civil"

	"github.com/aoideee/peopleview/internal/validator"
)

// listPeopleHandler handles GET /v1/people.
// It returns the people currently shown. With ?refresh=true the list is
// reloaded from the database first and the load notice is included.
func (app *applicationDependencies) listPeopleHandler(w http.ResponseWriter, r *http.Request) {
	env := envelope{}

	if app.readBool(r.URL.Query(), "refresh", false) {
		task := app.roster.Load(r.Context())
		notice, err := task.Wait(r.Context())
		if err != nil {
			app.taskErrorResponse(w, r, task.ID(), notice, err)
			return
		}
		env["notice"] = notice
	}

	app.respondWithPeople(w, r, http.StatusOK, env, nil)
}

// createPersonHandler handles POST /v1/people.
// It reads a JSON body containing the new person's details, adds the person
// through the controller, and responds with the notice, the refreshed list
// and a 201 Created status. Field errors are reported with 422.
func (app *applicationDependencies) createPersonHandler(w http.ResponseWriter, r *http.Request) {
	// Anonymous struct to hold the expected JSON body. birth_date is a
	// pointer so that an absent or null value means "no birth date".
	var input struct {
		FirstName string  `json:"first_name"`
		LastName  string  `json:"last_name"`
		BirthDate *string `json:"birth_date"`
	}

	// Decode the incoming JSON body using the safe readJSON helper.
	// readJSON enforces a 1MB limit, rejects unknown fields, and ensures a single value.
	err := app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	// Parse the birth date up front: a malformed date is a field error,
	// not a missing date.
	var birthDate *civil.Date
	if input.BirthDate != nil && strings.TrimSpace(*input.BirthDate) != "" {
		d, err := civil.ParseDate(strings.TrimSpace(*input.BirthDate))
		if err != nil {
			v := validator.New()
			v.AddError("birth_date", "must be a valid date in YYYY-MM-DD format")
			app.failedValidationResponse(w, r, v.Errors)
			return
		}
		birthDate = &d
	}

	task := app.roster.Add(r.Context(), input.FirstName, input.LastName, birthDate)
	notice, err := task.Wait(r.Context())
	if err != nil {
		app.taskErrorResponse(w, r, task.ID(), notice, err)
		return
	}

	app.respondWithPeople(w, r, http.StatusCreated, envelope{"notice": notice}, taskHeader(task.ID()))
}

// deletePersonHandler handles DELETE /v1/people/:id.
// It deletes the person with that ID from the list and the database.
// Responds 404 if no such person is shown or nothing was deleted.
func (app *applicationDependencies) deletePersonHandler(w http.ResponseWriter, r *http.Request) {
	// readIDParam extracts and validates the :id URL parameter.
	id, err := app.readIDParam(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	app.runDelete(w, r, []int64{id})
}

// deletePeopleHandler handles POST /v1/people/delete.
// It deletes every person in the {"ids": [...]} selection that is shown.
// People the database could not delete stay in the list.
func (app *applicationDependencies) deletePeopleHandler(w http.ResponseWriter, r *http.Request) {
	var input struct {
		IDs []int64 `json:"ids"`
	}

	err := app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	v := validator.New()
	v.Check(len(input.IDs) > 0, "ids", "must contain at least one id")
	v.Check(validator.Unique(input.IDs), "ids", "must not contain duplicate values")
	for _, id := range input.IDs {
		v.Check(id > 0, "ids", fmt.Sprintf("must contain only positive ids, got %d", id))
	}
	if !v.Valid() {
		app.failedValidationResponse(w, r, v.Errors)
		return
	}

	app.runDelete(w, r, input.IDs)
}

func (app *applicationDependencies) runDelete(w http.ResponseWriter, r *http.Request, ids []int64) {
	task := app.roster.Delete(r.Context(), ids)
	notice, err := task.Wait(r.Context())
	if err != nil {
		app.taskErrorResponse(w, r, task.ID(), notice, err)
		return
	}

	app.respondWithPeople(w, r, http.StatusOK, envelope{"notice": notice}, taskHeader(task.ID()))
}

// restorePeopleHandler handles POST /v1/people/restore.
// It replaces the whole table with the basic data and returns the new list.
// On failure the table and the list are left as they were.
func (app *applicationDependencies) restorePeopleHandler(w http.ResponseWriter, r *http.Request) {
	task := app.roster.Restore(r.Context())
	notice, err := task.Wait(r.Context())
	if err != nil {
		app.taskErrorResponse(w, r, task.ID(), notice, err)
		return
	}

	app.respondWithPeople(w, r, http.StatusOK, envelope{"notice": notice}, taskHeader(task.ID()))
}

// respondWithPeople adds the current list to env and writes it.
func (app *applicationDependencies) respondWithPeople(w http.ResponseWriter, r *http.Request, status int, env envelope, headers http.Header) {
	people, err := app.roster.People(r.Context())
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	env["people"] = people
	env["count"] = len(people)

	err = app.writeJSON(w, status, env, headers)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// taskHeader exposes the task id so a response can be matched with the logs.
func taskHeader(id string) http.Header {
	return http.Header{"X-Task-Id": []string{id}}
}
