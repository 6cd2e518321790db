package report

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/telemetry"
	"github.com/appetiteclub/payper/services/pos/internal/order"
	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"
)

// Orders lists orders matching a filter.
type Orders interface {
	List(ctx context.Context, f order.Filter) ([]*order.Order, error)
}

// Daily is the daily report response.
type Daily struct {
	From   time.Time    `json:"from"`
	To     time.Time    `json:"to"`
	Source string       `json:"source"`
	Days   []DailyTotal `json:"days"`
}

type Handler struct {
	orders   Orders
	journal  Journal
	location *time.Location
	now      func() time.Time
	tlm      *telemetry.HTTP
	logger   apt.Logger
}

// NewHandler builds the reports handler. journal may be nil, daily totals are
// then computed from the order store.
func NewHandler(orders Orders, journal Journal, location *time.Location, logger apt.Logger) *Handler {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	if location == nil {
		location = time.Local
	}
	return &Handler{
		orders:   orders,
		journal:  journal,
		location: location,
		now:      time.Now,
		tlm:      telemetry.NewHTTP(),
		logger:   logger,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/reports", func(r chi.Router) {
		r.Get("/sales", h.GetSales)
		r.Get("/daily", h.GetDaily)
	})
}

// GetSales handles GET /reports/sales?from=&to=
func (h *Handler) GetSales(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.GetSales")
	defer finish()
	log := h.log(r)

	start, end, ok := h.parseRange(w, r, log)
	if !ok {
		return
	}

	orders, err := h.settledOrders(r.Context(), start, end)
	if err != nil {
		order.RespondServiceError(w, log, err)
		return
	}
	apt.RespondSuccess(w, Summarize(orders, start, end))
}

// GetDaily handles GET /reports/daily?from=&to=
func (h *Handler) GetDaily(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.GetDaily")
	defer finish()
	log := h.log(r)
	ctx := r.Context()

	start, end, ok := h.parseRange(w, r, log)
	if !ok {
		return
	}

	if h.journal != nil {
		days, err := h.journal.DailyTotals(ctx, start, end)
		if err != nil {
			log.Error("error reading sales journal", "error", err)
			apt.RespondError(w, http.StatusServiceUnavailable, "Sales journal unavailable")
			return
		}
		if days == nil {
			days = []DailyTotal{}
		}
		apt.RespondSuccess(w, Daily{From: start, To: end, Source: "journal", Days: days})
		return
	}

	orders, err := h.settledOrders(ctx, start, end)
	if err != nil {
		order.RespondServiceError(w, log, err)
		return
	}
	apt.RespondSuccess(w, Daily{From: start, To: end, Source: "orders", Days: DailyTotals(orders, start, end, h.location)})
}

// settledOrders queries each revenue status concurrently.
func (h *Handler) settledOrders(ctx context.Context, start, end time.Time) ([]*order.Order, error) {
	var (
		mu     sync.Mutex
		orders []*order.Order
	)
	g, gctx := errgroup.WithContext(ctx)
	for _, status := range Settled {
		status := status
		g.Go(func() error {
			list, err := h.orders.List(gctx, order.Filter{Statuses: []string{status}, From: start, To: end})
			if err != nil {
				return err
			}
			mu.Lock()
			orders = append(orders, list...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return orders, nil
}

func (h *Handler) parseRange(w http.ResponseWriter, r *http.Request, log apt.Logger) (time.Time, time.Time, bool) {
	q := r.URL.Query()

	from := h.now()
	if raw := q.Get("from"); raw != "" {
		t, err := time.ParseInLocation(time.DateOnly, raw, h.location)
		if err != nil {
			log.Debug("invalid from parameter", "from", raw)
			apt.RespondError(w, http.StatusBadRequest, "Invalid from parameter, expected YYYY-MM-DD")
			return time.Time{}, time.Time{}, false
		}
		from = t
	}

	var to time.Time
	if raw := q.Get("to"); raw != "" {
		t, err := time.ParseInLocation(time.DateOnly, raw, h.location)
		if err != nil {
			log.Debug("invalid to parameter", "to", raw)
			apt.RespondError(w, http.StatusBadRequest, "Invalid to parameter, expected YYYY-MM-DD")
			return time.Time{}, time.Time{}, false
		}
		to = t
	}

	start, end := DayRange(from, to, h.location)
	if end.Before(start) {
		apt.RespondError(w, http.StatusBadRequest, "to must not be before from")
		return time.Time{}, time.Time{}, false
	}
	return start, end, true
}

func (h *Handler) log(r *http.Request) apt.Logger {
	return h.logger.With("request_id", apt.RequestIDFrom(r.Context()))
}
