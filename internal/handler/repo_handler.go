package handler

import (
	"errors"
	"strconv"
	"strings"

	"github.com/arturoeanton/go-gitstat/internal/domain"
	"github.com/arturoeanton/go-gitstat/internal/port"
	"github.com/arturoeanton/go-gitstat/internal/service"
	"github.com/asaskevich/govalidator"
	"github.com/gofiber/fiber/v3"
)

// RepoHandler implements the /resources API: register, inspect and
// remove git repositories.
type RepoHandler struct {
	registry  *service.Registry
	lifecycle *service.Lifecycle
	removal   *service.Removal
	store     port.RecordStore
	events    *RepoEventBus
}

// NewRepoHandler creates a new repo handler.
func NewRepoHandler(registry *service.Registry, lifecycle *service.Lifecycle, removal *service.Removal, store port.RecordStore, events *RepoEventBus) *RepoHandler {
	return &RepoHandler{
		registry:  registry,
		lifecycle: lifecycle,
		removal:   removal,
		store:     store,
		events:    events,
	}
}

// Register sets up resource routes.
func (h *RepoHandler) Register(app fiber.Router) {
	resources := app.Group("/resources")
	resources.Get("/", h.List)
	resources.Post("/", h.Create)
	resources.Delete("/", h.Delete)
	resources.Get("/events", h.StreamEvents)
	resources.Get("/:id", h.Get)
}

// Create registers a repository url and schedules its materialization.
// The response is 202 Accepted: lack of last_checkout in the record
// means the clone or checkout is still in progress.
func (h *RepoHandler) Create(c fiber.Ctx) error {
	var spec domain.RepoSpec
	if err := c.Bind().JSON(&spec); err != nil {
		return badRequest(c, "Expected a JSON serialized Git repository representation with a valid remote url with optional [branch, revision]")
	}
	if spec.URL == "" {
		return badRequest(c, "'url' is an obligatory parameter")
	}
	if !govalidator.IsRequestURL(spec.URL) {
		return badRequest(c, "The repository url '"+spec.URL+"' is not valid.")
	}

	id, err := h.registry.ResolveOrCreate(c.Context(), spec)
	if err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": err.Error()})
	}

	h.lifecycle.Materialize(id)

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"id":      id,
		"message": "Accepted",
	})
}

// List returns all repository records, or the subset named by the id
// query parameter. Records are fetched in one pipelined batch; unknown
// ids yield empty records.
func (h *RepoHandler) List(c fiber.Ctx) error {
	var keys []string

	if raw := c.Query("id"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
			if err != nil {
				return badRequest(c, "Expected a comma separated list of repository id (-s) to retrieve. Or none to get all.")
			}
			keys = append(keys, domain.RecordKey(id))
		}
	} else {
		all, err := h.store.Keys(c.Context(), domain.RecordKeyPrefix+"*")
		if err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": err.Error()})
		}
		for _, key := range all {
			if key != domain.CounterKey {
				keys = append(keys, key)
			}
		}
	}

	records, err := h.store.MultiGetAll(c.Context(), keys)
	if err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": err.Error()})
	}

	resources := make([]fiber.Map, 0, len(keys))
	for i, key := range keys {
		id, err := domain.RecordID(key)
		if err != nil {
			continue
		}
		resources = append(resources, fiber.Map{"id": id, "record": records[i]})
	}

	return c.JSON(fiber.Map{"resources": resources, "count": len(resources)})
}

// Get returns one record plus its materialization state.
func (h *RepoHandler) Get(c fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return badRequest(c, "Expected a numeric repository id.")
	}

	record, err := h.store.GetAll(c.Context(), domain.RecordKey(id))
	if err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": err.Error()})
	}
	if len(record) == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "repository not found"})
	}

	ready, err := h.lifecycle.IsMaterialized(c.Context(), id)
	if err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(fiber.Map{"id": id, "record": record, "materialized": ready})
}

// Delete removes the repositories named in the request body. Each id is
// handled independently; ids removed before a failure stay removed.
func (h *RepoHandler) Delete(c fiber.Ctx) error {
	var body struct {
		ID []int64 `json:"id"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "Expected a JSON serialized list of repository id (-s) to be deleted.")
	}
	if len(body.ID) == 0 {
		return badRequest(c, "Expected a JSON serialized list of repository id to delete, e.g. id: [1,2,3]")
	}

	if err := h.removal.Remove(c.Context(), body.ID); err != nil {
		if clientOnly(err) {
			return badRequest(c, err.Error())
		}
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(fiber.Map{"message": "OK"})
}

// clientOnly reports whether every failure in a (possibly aggregated)
// removal error is the caller's fault. A single store failure in the
// batch makes the whole response a service error.
func clientOnly(err error) bool {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		for _, sub := range joined.Unwrap() {
			if !clientOnly(sub) {
				return false
			}
		}
		return true
	}
	return errors.Is(err, port.ErrRepoNotFound) || errors.Is(err, port.ErrNotMaterialized)
}

// badRequest writes the structured client-error payload.
func badRequest(c fiber.Ctx, detail string) error {
	ce := port.NewBadRequest("%s", detail)
	return c.Status(ce.Status).JSON(fiber.Map{
		"message": ce.Message,
		"error":   ce.Detail,
	})
}
