package tables

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/telemetry"
	"github.com/appetiteclub/payper/services/pos/internal/order"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const MaxBodyBytes = 1 << 20

// Occupancy reports the active order holding a table, if any.
type Occupancy interface {
	FindActiveByTable(ctx context.Context, tableID uuid.UUID) (*order.Order, error)
}

type TableRequest struct {
	Name string `json:"name"`
}

func ValidateTable(req TableRequest) []string {
	var errs []string
	if strings.TrimSpace(req.Name) == "" {
		errs = append(errs, "name is required")
	}
	return errs
}

type Handler struct {
	registry  *Registry
	occupancy Occupancy
	tlm       *telemetry.HTTP
	logger    apt.Logger
}

func NewHandler(registry *Registry, occupancy Occupancy, logger apt.Logger) *Handler {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &Handler{
		registry:  registry,
		occupancy: occupancy,
		tlm:       telemetry.NewHTTP(),
		logger:    logger,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/tables", func(r chi.Router) {
		r.Post("/", h.CreateTable)
		r.Get("/", h.ListTables)
		r.Get("/{id}", h.GetTable)
		r.Put("/{id}", h.UpdateTable)
		r.Delete("/{id}", h.DeleteTable)
	})
}

func (h *Handler) CreateTable(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.CreateTable")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	req, ok := h.decodePayload(w, r, log)
	if !ok {
		return
	}
	if errs := ValidateTable(req); len(errs) > 0 {
		log.Debug("validation failed", "errors", errs)
		apt.RespondError(w, http.StatusBadRequest, "Validation failed: "+strings.Join(errs, ", "))
		return
	}

	table := NewTable(strings.TrimSpace(req.Name))
	if err := h.registry.Create(ctx, table); err != nil {
		h.respondWriteError(w, log, "create", err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	apt.RespondSuccess(w, table, apt.RESTfulLinksFor(table)...)
}

func (h *Handler) ListTables(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ListTables")
	defer finish()

	log := h.log(r)

	list, err := h.registry.List(r.Context())
	if err != nil {
		log.Error("error retrieving tables", "error", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not retrieve tables")
		return
	}
	apt.RespondCollection(w, list, "table")
}

func (h *Handler) GetTable(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.GetTable")
	defer finish()

	log := h.log(r)

	id, ok := h.parseIDParam(w, r, log)
	if !ok {
		return
	}
	table, ok := h.load(w, r, id, log)
	if !ok {
		return
	}
	apt.RespondSuccess(w, table, apt.RESTfulLinksFor(table)...)
}

func (h *Handler) UpdateTable(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.UpdateTable")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	id, ok := h.parseIDParam(w, r, log)
	if !ok {
		return
	}
	req, ok := h.decodePayload(w, r, log)
	if !ok {
		return
	}
	if errs := ValidateTable(req); len(errs) > 0 {
		log.Debug("validation failed", "errors", errs)
		apt.RespondError(w, http.StatusBadRequest, "Validation failed: "+strings.Join(errs, ", "))
		return
	}

	table, ok := h.load(w, r, id, log)
	if !ok {
		return
	}
	table.Name = strings.TrimSpace(req.Name)
	if err := h.registry.Save(ctx, table); err != nil {
		h.respondWriteError(w, log, "update", err)
		return
	}
	apt.RespondSuccess(w, table, apt.RESTfulLinksFor(table)...)
}

// DeleteTable removes a table nobody is seated at.
func (h *Handler) DeleteTable(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.DeleteTable")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	id, ok := h.parseIDParam(w, r, log)
	if !ok {
		return
	}
	if _, ok := h.load(w, r, id, log); !ok {
		return
	}

	if h.occupancy != nil {
		active, err := h.occupancy.FindActiveByTable(ctx, id)
		if err != nil {
			log.Error("cannot check table occupancy", "error", err, "id", id.String())
			apt.RespondError(w, http.StatusInternalServerError, "Could not delete table")
			return
		}
		if active != nil {
			apt.RespondError(w, http.StatusConflict, "Table has an active order")
			return
		}
	}

	if err := h.registry.Delete(ctx, id); err != nil {
		h.respondWriteError(w, log, "delete", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) load(w http.ResponseWriter, r *http.Request, id uuid.UUID, log apt.Logger) (*Table, bool) {
	table, err := h.registry.Get(r.Context(), id)
	if err != nil {
		log.Error("error loading table", "error", err, "id", id.String())
		apt.RespondError(w, http.StatusInternalServerError, "Could not load table")
		return nil, false
	}
	if table == nil {
		apt.RespondError(w, http.StatusNotFound, "Table not found")
		return nil, false
	}
	return table, true
}

func (h *Handler) respondWriteError(w http.ResponseWriter, log apt.Logger, op string, err error) {
	if errors.Is(err, ErrDuplicateName) {
		apt.RespondError(w, http.StatusConflict, "A table with that name already exists")
		return
	}
	log.Error("cannot "+op+" table", "error", err)
	apt.RespondError(w, http.StatusInternalServerError, "Could not "+op+" table")
}

func (h *Handler) parseIDParam(w http.ResponseWriter, r *http.Request, log apt.Logger) (uuid.UUID, bool) {
	rawID := chi.URLParam(r, "id")
	id, err := uuid.Parse(rawID)
	if err != nil {
		log.Debug("invalid id parameter", "id", rawID)
		apt.RespondError(w, http.StatusBadRequest, "Invalid id parameter")
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) decodePayload(w http.ResponseWriter, r *http.Request, log apt.Logger) (TableRequest, bool) {
	var req TableRequest
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	defer r.Body.Close()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		log.Debug("failed to read request body", "error", err)
		apt.RespondError(w, http.StatusBadRequest, "Failed to read request body")
		return req, false
	}
	if err := json.Unmarshal(body, &req); err != nil {
		log.Debug("failed to decode request body", "error", err)
		apt.RespondError(w, http.StatusBadRequest, "Invalid JSON in request body")
		return req, false
	}
	return req, true
}

func (h *Handler) log(r *http.Request) apt.Logger {
	return h.logger.With("request_id", apt.RequestIDFrom(r.Context()))
}
