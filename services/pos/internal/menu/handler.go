package menu

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/telemetry"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const MaxBodyBytes = 1 << 20

type Handler struct {
	repo   MenuItemRepo
	tlm    *telemetry.HTTP
	logger apt.Logger
}

func NewHandler(repo MenuItemRepo, logger apt.Logger) *Handler {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &Handler{
		repo:   repo,
		tlm:    telemetry.NewHTTP(),
		logger: logger,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/menu-items", func(r chi.Router) {
		r.Post("/", h.CreateMenuItem)
		r.Get("/", h.ListMenuItems)
		r.Get("/{id}", h.GetMenuItem)
		r.Put("/{id}", h.UpdateMenuItem)
		r.Delete("/{id}", h.DeleteMenuItem)
		r.Patch("/{id}/availability", h.SetAvailability)
	})
	r.Get("/menu-categories", h.ListCategories)
}

// CreateMenuItem handles POST /menu-items
func (h *Handler) CreateMenuItem(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.CreateMenuItem")
	defer finish()
	log := h.log(r)
	ctx := r.Context()

	var req MenuItemRequest
	if !h.decodePayload(w, r, log, &req) {
		return
	}
	if validationErrors := ValidateMenuItem(req); len(validationErrors) > 0 {
		log.Debug("validation failed", "errors", validationErrors)
		h.respondValidationErrors(w, validationErrors)
		return
	}

	item := &MenuItem{Available: true}
	req.Apply(item)
	item.BeforeCreate()

	if err := h.repo.Create(ctx, item); err != nil {
		log.Error("cannot create menu item", "error", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not create menu item")
		return
	}

	w.WriteHeader(http.StatusCreated)
	apt.RespondSuccess(w, item, apt.RESTfulLinksFor(item)...)
}

// ListMenuItems handles GET /menu-items?category=&available=
func (h *Handler) ListMenuItems(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ListMenuItems")
	defer finish()
	log := h.log(r)

	filter := Filter{Category: r.URL.Query().Get("category")}
	if raw := r.URL.Query().Get("available"); raw != "" {
		available, err := strconv.ParseBool(raw)
		if err != nil {
			apt.RespondError(w, http.StatusBadRequest, "Invalid available parameter")
			return
		}
		filter.Available = &available
	}

	items, err := h.repo.List(r.Context(), filter)
	if err != nil {
		log.Error("error retrieving menu items", "error", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not retrieve menu items")
		return
	}
	apt.RespondCollection(w, items, "menu-item")
}

func (h *Handler) GetMenuItem(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.GetMenuItem")
	defer finish()
	log := h.log(r)

	id, ok := h.parseIDParam(w, r, log)
	if !ok {
		return
	}
	item, ok := h.load(w, r, id, log)
	if !ok {
		return
	}
	apt.RespondSuccess(w, item, apt.RESTfulLinksFor(item)...)
}

// UpdateMenuItem handles PUT /menu-items/{id}
func (h *Handler) UpdateMenuItem(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.UpdateMenuItem")
	defer finish()
	log := h.log(r)
	ctx := r.Context()

	id, ok := h.parseIDParam(w, r, log)
	if !ok {
		return
	}
	var req MenuItemRequest
	if !h.decodePayload(w, r, log, &req) {
		return
	}
	if validationErrors := ValidateMenuItem(req); len(validationErrors) > 0 {
		log.Debug("validation failed", "errors", validationErrors)
		h.respondValidationErrors(w, validationErrors)
		return
	}

	item, ok := h.load(w, r, id, log)
	if !ok {
		return
	}
	req.Apply(item)
	item.BeforeUpdate()

	if err := h.repo.Save(ctx, item); err != nil {
		log.Error("cannot update menu item", "error", err, "id", id.String())
		apt.RespondError(w, http.StatusInternalServerError, "Could not update menu item")
		return
	}
	apt.RespondSuccess(w, item, apt.RESTfulLinksFor(item)...)
}

// DeleteMenuItem handles DELETE /menu-items/{id}. Orders keep their own
// snapshot of the item so history is unaffected.
func (h *Handler) DeleteMenuItem(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.DeleteMenuItem")
	defer finish()
	log := h.log(r)

	id, ok := h.parseIDParam(w, r, log)
	if !ok {
		return
	}
	if _, ok := h.load(w, r, id, log); !ok {
		return
	}
	if err := h.repo.Delete(r.Context(), id); err != nil {
		log.Error("cannot delete menu item", "error", err, "id", id.String())
		apt.RespondError(w, http.StatusInternalServerError, "Could not delete menu item")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type availabilityRequest struct {
	Available *bool `json:"available"`
}

// SetAvailability handles PATCH /menu-items/{id}/availability
func (h *Handler) SetAvailability(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.SetAvailability")
	defer finish()
	log := h.log(r)

	id, ok := h.parseIDParam(w, r, log)
	if !ok {
		return
	}
	var req availabilityRequest
	if !h.decodePayload(w, r, log, &req) {
		return
	}
	if req.Available == nil {
		h.respondValidationErrors(w, []ValidationError{{Field: "available", Message: "available is required"}})
		return
	}

	item, ok := h.load(w, r, id, log)
	if !ok {
		return
	}
	item.Available = *req.Available
	item.BeforeUpdate()
	if err := h.repo.Save(r.Context(), item); err != nil {
		log.Error("cannot update menu item availability", "error", err, "id", id.String())
		apt.RespondError(w, http.StatusInternalServerError, "Could not update menu item")
		return
	}
	log.Info("menu item availability changed", "id", id.String(), "available", item.Available)
	apt.RespondSuccess(w, item, apt.RESTfulLinksFor(item)...)
}

// ListCategories handles GET /menu-categories
func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ListCategories")
	defer finish()
	log := h.log(r)

	categories, err := h.repo.Categories(r.Context())
	if err != nil {
		log.Error("error retrieving menu categories", "error", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not retrieve menu categories")
		return
	}
	apt.RespondSuccess(w, categories)
}

func (h *Handler) load(w http.ResponseWriter, r *http.Request, id uuid.UUID, log apt.Logger) (*MenuItem, bool) {
	item, err := h.repo.Get(r.Context(), id)
	if err != nil {
		log.Error("error loading menu item", "error", err, "id", id.String())
		apt.RespondError(w, http.StatusInternalServerError, "Could not load menu item")
		return nil, false
	}
	if item == nil {
		apt.RespondError(w, http.StatusNotFound, "Menu item not found")
		return nil, false
	}
	return item, true
}

func (h *Handler) log(r *http.Request) apt.Logger {
	return h.logger.With("request_id", apt.RequestIDFrom(r.Context()))
}

func (h *Handler) parseIDParam(w http.ResponseWriter, r *http.Request, log apt.Logger) (uuid.UUID, bool) {
	idStr := chi.URLParam(r, "id")
	id, err := uuid.Parse(idStr)
	if err != nil {
		log.Debug("invalid id parameter", "id", idStr, "error", err)
		apt.RespondError(w, http.StatusBadRequest, "Invalid id parameter")
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) decodePayload(w http.ResponseWriter, r *http.Request, log apt.Logger, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	defer r.Body.Close()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		log.Debug("error reading request body", "error", err)
		apt.RespondError(w, http.StatusBadRequest, "Could not read request body")
		return false
	}
	if err := json.Unmarshal(body, dst); err != nil {
		log.Debug("error decoding JSON", "error", err)
		apt.RespondError(w, http.StatusBadRequest, "Invalid JSON payload")
		return false
	}
	return true
}

func (h *Handler) respondValidationErrors(w http.ResponseWriter, errors []ValidationError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"error":  "Validation failed",
		"errors": errors,
	})
}
