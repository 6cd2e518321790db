package floor

import (
	"context"
	"net/http"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/telemetry"
	"github.com/appetiteclub/payper/services/pos/internal/order"
	"github.com/appetiteclub/payper/services/pos/internal/tables"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// Orders lists the orders that may hold a table.
type Orders interface {
	ActiveOrders(ctx context.Context) ([]*order.Order, error)
}

// Tables lists the restaurant tables in display order.
type Tables interface {
	List(ctx context.Context) ([]*tables.Table, error)
}

// Grid is the floor plan response.
type Grid struct {
	Tiles       []Tile         `json:"tiles"`
	Counts      map[string]int `json:"counts"`
	GeneratedAt time.Time      `json:"generated_at"`
}

type Handler struct {
	orders Orders
	tables Tables
	now    func() time.Time
	tlm    *telemetry.HTTP
	logger apt.Logger
}

func NewHandler(orders Orders, tables Tables, logger apt.Logger) *Handler {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &Handler{
		orders: orders,
		tables: tables,
		now:    time.Now,
		tlm:    telemetry.NewHTTP(),
		logger: logger,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/floor", func(r chi.Router) {
		r.Get("/", h.GetGrid)
		r.Get("/vacant", h.ListVacant)
	})
}

// GetGrid handles GET /floor
func (h *Handler) GetGrid(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.GetGrid")
	defer finish()
	log := h.log(r)

	list, orders, ok := h.load(w, r, log)
	if !ok {
		return
	}

	now := h.now()
	tiles := BuildGrid(list, orders, now)
	apt.RespondSuccess(w, Grid{Tiles: tiles, Counts: Counts(tiles), GeneratedAt: now})
}

// ListVacant handles GET /floor/vacant?exclude=orderID
func (h *Handler) ListVacant(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ListVacant")
	defer finish()
	log := h.log(r)

	exclude := uuid.Nil
	if raw := r.URL.Query().Get("exclude"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			log.Debug("invalid exclude parameter", "exclude", raw)
			apt.RespondError(w, http.StatusBadRequest, "Invalid exclude parameter")
			return
		}
		exclude = id
	}

	list, orders, ok := h.load(w, r, log)
	if !ok {
		return
	}
	vacant := VacantTables(list, orders, exclude)
	if vacant == nil {
		vacant = []*tables.Table{}
	}
	apt.RespondCollection(w, vacant, "table")
}

func (h *Handler) load(w http.ResponseWriter, r *http.Request, log apt.Logger) ([]*tables.Table, []*order.Order, bool) {
	ctx := r.Context()

	list, err := h.tables.List(ctx)
	if err != nil {
		log.Error("error retrieving tables", "error", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not retrieve tables")
		return nil, nil, false
	}
	orders, err := h.orders.ActiveOrders(ctx)
	if err != nil {
		order.RespondServiceError(w, log, err)
		return nil, nil, false
	}
	return list, orders, true
}

func (h *Handler) log(r *http.Request) apt.Logger {
	return h.logger.With("request_id", apt.RequestIDFrom(r.Context()))
}
