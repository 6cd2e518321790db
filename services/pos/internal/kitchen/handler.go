package kitchen

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/telemetry"
	"github.com/appetiteclub/payper/pkg/enums/itemstatus"
	"github.com/appetiteclub/payper/services/pos/internal/order"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const keepAliveInterval = 30 * time.Second

// Orders is the slice of the lifecycle engine the kitchen display drives.
type Orders interface {
	Get(ctx context.Context, id uuid.UUID) (*order.Order, error)
	AdvanceItemStatus(ctx context.Context, id uuid.UUID, kotID, target string) (*order.Order, error)
}

type Handler struct {
	cache     *BoardCache
	orders    Orders
	keepAlive time.Duration
	tlm       *telemetry.HTTP
	logger    apt.Logger
}

func NewHandler(cache *BoardCache, orders Orders, logger apt.Logger) *Handler {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &Handler{
		cache:     cache,
		orders:    orders,
		keepAlive: keepAliveInterval,
		tlm:       telemetry.NewHTTP(),
		logger:    logger,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/kitchen", func(r chi.Router) {
		r.Get("/board", h.GetBoard)
		r.Get("/dishes", h.GetDishes)
		r.Get("/stream", h.Stream)
		r.Post("/orders/{orderID}/kots/{kotID}/bump", h.Bump)
	})
}

func (h *Handler) GetBoard(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.GetBoard")
	defer finish()

	apt.RespondSuccess(w, h.cache.Board())
}

func (h *Handler) GetDishes(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.GetDishes")
	defer finish()

	dishes := h.cache.Dishes()
	if dishes == nil {
		dishes = []Dish{}
	}
	apt.RespondCollection(w, dishes, "dish")
}

// Bump moves a kitchen ticket to the status that follows its current one.
func (h *Handler) Bump(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.Bump")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	orderID, err := uuid.Parse(chi.URLParam(r, "orderID"))
	if err != nil {
		apt.RespondError(w, http.StatusBadRequest, "Invalid orderID parameter")
		return
	}
	kotID := chi.URLParam(r, "kotID")

	o, err := h.orders.Get(ctx, orderID)
	if err != nil {
		order.RespondServiceError(w, log, err)
		return
	}

	current := ticketStatus(o, kotID)
	if current == "" {
		apt.RespondError(w, http.StatusNotFound, fmt.Sprintf("kitchen ticket %s not found", kotID))
		return
	}
	next := itemstatus.Next(current)
	if next == nil {
		apt.RespondError(w, http.StatusConflict, fmt.Sprintf("%s is already %s", kotID, current))
		return
	}

	updated, err := h.orders.AdvanceItemStatus(ctx, orderID, kotID, next.Code())
	if err != nil {
		order.RespondServiceError(w, log, err)
		return
	}
	log.Info("kitchen ticket bumped", "order_id", orderID, "kot_id", kotID, "item_status", next.Code())
	apt.RespondSuccess(w, updated, apt.RESTfulLinksFor(updated)...)
}

// Stream pushes the board over server-sent events, once on connect and again
// after every change.
func (h *Handler) Stream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		apt.RespondError(w, http.StatusInternalServerError, "Streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	log := h.log(r)
	watcherID := uuid.NewString()
	updates := h.cache.Watch(watcherID)
	defer h.cache.Unwatch(watcherID)
	log.Info("new kitchen stream connection", "watcher_id", watcherID)

	fmt.Fprintf(w, ": connected\n\n")
	fmt.Fprintf(w, "retry: 2000\n\n")
	if err := writeBoard(w, h.cache.Board()); err != nil {
		log.Error("cannot write kitchen board", "error", err)
		return
	}
	flusher.Flush()

	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			log.Info("kitchen stream client disconnected", "watcher_id", watcherID)
			return

		case <-ticker.C:
			fmt.Fprintf(w, ": keepalive\n\n")
			flusher.Flush()

		case board, ok := <-updates:
			if !ok {
				log.Info("kitchen board closed", "watcher_id", watcherID)
				return
			}
			if err := writeBoard(w, board); err != nil {
				log.Error("cannot write kitchen board", "error", err)
				return
			}
			flusher.Flush()
		}
	}
}

func writeBoard(w http.ResponseWriter, board Board) error {
	data, err := json.Marshal(board)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "id: %d\nevent: board\ndata: %s\n\n", board.Sequence, data)
	return err
}

func ticketStatus(o *order.Order, kotID string) string {
	for _, item := range o.Items {
		if item.IsPrinted() && item.KOTID == kotID {
			return item.ItemStatus
		}
	}
	return ""
}

func (h *Handler) log(r *http.Request) apt.Logger {
	return h.logger.With("request_id", apt.RequestIDFrom(r.Context()))
}
