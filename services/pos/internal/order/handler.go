package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/telemetry"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const MaxBodyBytes = 1 << 20

// Branding supplies the restaurant name printed on bills.
type Branding interface {
	RestaurantName(ctx context.Context) string
}

type Handler struct {
	service  *Service
	tables   TableLookup
	branding Branding
	location *time.Location
	live     http.Handler
	tlm      *telemetry.HTTP
	logger   apt.Logger
}

type HandlerDeps struct {
	Service  *Service
	Tables   TableLookup
	Branding Branding
	Location *time.Location
	Live     http.Handler
}

func NewHandler(hd HandlerDeps, logger apt.Logger) *Handler {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	loc := hd.Location
	if loc == nil {
		loc = time.Local
	}
	return &Handler{
		service:  hd.Service,
		tables:   hd.Tables,
		branding: hd.Branding,
		location: loc,
		live:     hd.Live,
		tlm:      telemetry.NewHTTP(),
		logger:   logger,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/orders", func(r chi.Router) {
		r.Post("/", h.PlaceOrder)
		r.Get("/", h.ListOrders)
		r.Get("/redirects/{tableID}", h.PendingRedirect)
		if h.live != nil {
			r.Get("/ws", h.live.ServeHTTP)
		}

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.GetOrder)
			r.Post("/items", h.AddItems)
			r.Put("/items/{menuItemID}", h.UpdateItemQuantity)
			r.Delete("/items/{menuItemID}", h.RemoveItem)
			r.Post("/kitchen", h.SendToKitchen)
			r.Get("/kot", h.PreviewKOT)
			r.Get("/kots/{kotID}", h.ReprintKOT)
			r.Patch("/kots/{kotID}", h.AdvanceItemStatus)
			r.Patch("/status", h.UpdateStatus)
			r.Post("/switch-table", h.SwitchTable)
			r.Delete("/switched-from", h.ClearSwitchedFrom)
			r.Post("/discount", h.ApplyDiscount)
			r.Get("/bill", h.PreviewBill)
			r.Post("/bill", h.GenerateBill)
			r.Put("/payment-method", h.SetPaymentMethod)
			r.Post("/paid", h.MarkPaid)
			r.Post("/cancel", h.CancelOrder)
		})
	})
}

// Payloads

type PlaceOrderRequest struct {
	OrderType       string           `json:"order_type"`
	UserID          string           `json:"user_id"`
	TableID         uuid.UUID        `json:"table_id"`
	OnlinePlatform  string           `json:"online_platform"`
	PlatformOrderID string           `json:"platform_order_id"`
	Customer        *CustomerDetails `json:"customer_details"`
	Items           []CartItem       `json:"items"`
	IdempotencyKey  string           `json:"idempotency_key"`
}

type AddItemsRequest struct {
	Items          []CartItem `json:"items"`
	IdempotencyKey string     `json:"idempotency_key"`
}

type QuantityRequest struct {
	Quantity int `json:"quantity"`
}

type ItemStatusRequest struct {
	ItemStatus string `json:"item_status"`
}

type StatusRequest struct {
	Status string `json:"status"`
}

type SwitchTableRequest struct {
	TableID uuid.UUID `json:"table_id"`
}

type DiscountRequest struct {
	Value        decimal.Decimal `json:"value"`
	DiscountType string          `json:"discount_type"`
}

type PaymentMethodRequest struct {
	PaymentMethod *string `json:"payment_method"`
}

// Placement

func (h *Handler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.PlaceOrder")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	req, ok := decodePayload[PlaceOrderRequest](w, r, log)
	if !ok {
		return
	}
	key := idempotencyKey(r, req.IdempotencyKey)

	var (
		placed *Order
		err    error
	)
	switch req.OrderType {
	case TypeDineIn, "":
		placed, err = h.service.PlaceDineIn(ctx, DineInRequest{
			UserID:         req.UserID,
			TableID:        req.TableID,
			Items:          req.Items,
			IdempotencyKey: key,
		})
	case TypeOnline:
		placed, err = h.service.PlaceOnline(ctx, OnlineRequest{
			UserID:          req.UserID,
			Platform:        req.OnlinePlatform,
			PlatformOrderID: req.PlatformOrderID,
			Customer:        req.Customer,
			Items:           req.Items,
			IdempotencyKey:  key,
		})
	default:
		apt.RespondError(w, http.StatusBadRequest, "order_type must be dine-in or online")
		return
	}
	if err != nil {
		RespondServiceError(w, log, err)
		return
	}

	links := apt.RESTfulLinksFor(placed)
	w.WriteHeader(http.StatusCreated)
	apt.RespondSuccess(w, placed, links...)
}

// Reads

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.GetOrder")
	defer finish()

	log := h.log(r)

	id, ok := parseUUIDParam(w, r, "id", log)
	if !ok {
		return
	}
	o, err := h.service.Get(r.Context(), id)
	if err != nil {
		RespondServiceError(w, log, err)
		return
	}
	apt.RespondSuccess(w, o, apt.RESTfulLinksFor(o)...)
}

func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ListOrders")
	defer finish()

	log := h.log(r)

	f, err := ParseFilter(r, h.location)
	if err != nil {
		log.Debug("invalid order filter", "error", err)
		apt.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	orders, err := h.service.List(r.Context(), f)
	if err != nil {
		RespondServiceError(w, log, err)
		return
	}
	apt.RespondCollection(w, orders, "order")
}

func (h *Handler) PendingRedirect(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.PendingRedirect")
	defer finish()

	log := h.log(r)

	tableID, ok := parseUUIDParam(w, r, "tableID", log)
	if !ok {
		return
	}
	o, err := h.service.PendingRedirect(r.Context(), tableID)
	if err != nil {
		RespondServiceError(w, log, err)
		return
	}
	if o == nil {
		apt.RespondError(w, http.StatusNotFound, "No order moved away from this table")
		return
	}
	apt.RespondSuccess(w, o, apt.RESTfulLinksFor(o)...)
}

// Ledger

func (h *Handler) AddItems(w http.ResponseWriter, r *http.Request) {
	h.mutation(w, r, "Handler.AddItems", func(w http.ResponseWriter, r *http.Request, id uuid.UUID, log apt.Logger) (*Order, bool) {
		ctx := r.Context()
		req, ok := decodePayload[AddItemsRequest](w, r, log)
		if !ok {
			return nil, false
		}
		o, err := h.service.AddItems(ctx, id, req.Items, idempotencyKey(r, req.IdempotencyKey))
		return h.result(w, log, o, err)
	})
}

func (h *Handler) UpdateItemQuantity(w http.ResponseWriter, r *http.Request) {
	h.mutation(w, r, "Handler.UpdateItemQuantity", func(w http.ResponseWriter, r *http.Request, id uuid.UUID, log apt.Logger) (*Order, bool) {
		ctx := r.Context()
		menuItemID, ok := parseUUIDParam(w, r, "menuItemID", log)
		if !ok {
			return nil, false
		}
		req, ok := decodePayload[QuantityRequest](w, r, log)
		if !ok {
			return nil, false
		}
		o, err := h.service.UpdateItemQuantity(ctx, id, menuItemID, req.Quantity)
		return h.result(w, log, o, err)
	})
}

func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	h.mutation(w, r, "Handler.RemoveItem", func(w http.ResponseWriter, r *http.Request, id uuid.UUID, log apt.Logger) (*Order, bool) {
		ctx := r.Context()
		menuItemID, ok := parseUUIDParam(w, r, "menuItemID", log)
		if !ok {
			return nil, false
		}
		o, err := h.service.RemoveItem(ctx, id, menuItemID)
		return h.result(w, log, o, err)
	})
}

// Kitchen

func (h *Handler) SendToKitchen(w http.ResponseWriter, r *http.Request) {
	h.mutation(w, r, "Handler.SendToKitchen", func(w http.ResponseWriter, r *http.Request, id uuid.UUID, log apt.Logger) (*Order, bool) {
		ctx := r.Context()
		o, err := h.service.SendToKitchen(ctx, id)
		return h.result(w, log, o, err)
	})
}

func (h *Handler) AdvanceItemStatus(w http.ResponseWriter, r *http.Request) {
	h.mutation(w, r, "Handler.AdvanceItemStatus", func(w http.ResponseWriter, r *http.Request, id uuid.UUID, log apt.Logger) (*Order, bool) {
		ctx := r.Context()
		req, ok := decodePayload[ItemStatusRequest](w, r, log)
		if !ok {
			return nil, false
		}
		o, err := h.service.AdvanceItemStatus(ctx, id, chi.URLParam(r, "kotID"), req.ItemStatus)
		return h.result(w, log, o, err)
	})
}

func (h *Handler) PreviewKOT(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.PreviewKOT")
	defer finish()

	log := h.log(r)
	o, ok := h.loadOrder(w, r, log)
	if !ok {
		return
	}
	ticket, err := NewTicket(o, h.tableName(r.Context(), o))
	if err != nil {
		RespondServiceError(w, log, err)
		return
	}
	respondPrintable(w, r, ticket, ticket.Text())
}

func (h *Handler) ReprintKOT(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ReprintKOT")
	defer finish()

	log := h.log(r)
	o, ok := h.loadOrder(w, r, log)
	if !ok {
		return
	}
	ticket, err := ReprintTicket(o, chi.URLParam(r, "kotID"), h.tableName(r.Context(), o))
	if err != nil {
		RespondServiceError(w, log, err)
		return
	}
	respondPrintable(w, r, ticket, ticket.Text())
}

// Status and table

func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	h.mutation(w, r, "Handler.UpdateStatus", func(w http.ResponseWriter, r *http.Request, id uuid.UUID, log apt.Logger) (*Order, bool) {
		ctx := r.Context()
		req, ok := decodePayload[StatusRequest](w, r, log)
		if !ok {
			return nil, false
		}
		o, err := h.service.UpdateStatus(ctx, id, req.Status)
		return h.result(w, log, o, err)
	})
}

func (h *Handler) SwitchTable(w http.ResponseWriter, r *http.Request) {
	h.mutation(w, r, "Handler.SwitchTable", func(w http.ResponseWriter, r *http.Request, id uuid.UUID, log apt.Logger) (*Order, bool) {
		ctx := r.Context()
		req, ok := decodePayload[SwitchTableRequest](w, r, log)
		if !ok {
			return nil, false
		}
		o, err := h.service.SwitchTable(ctx, id, req.TableID)
		return h.result(w, log, o, err)
	})
}

func (h *Handler) ClearSwitchedFrom(w http.ResponseWriter, r *http.Request) {
	h.mutation(w, r, "Handler.ClearSwitchedFrom", func(w http.ResponseWriter, r *http.Request, id uuid.UUID, log apt.Logger) (*Order, bool) {
		ctx := r.Context()
		o, err := h.service.ClearSwitchedFrom(ctx, id)
		return h.result(w, log, o, err)
	})
}

// Billing

func (h *Handler) ApplyDiscount(w http.ResponseWriter, r *http.Request) {
	h.mutation(w, r, "Handler.ApplyDiscount", func(w http.ResponseWriter, r *http.Request, id uuid.UUID, log apt.Logger) (*Order, bool) {
		ctx := r.Context()
		req, ok := decodePayload[DiscountRequest](w, r, log)
		if !ok {
			return nil, false
		}
		o, err := h.service.ApplyDiscount(ctx, id, req.Value, req.DiscountType)
		return h.result(w, log, o, err)
	})
}

func (h *Handler) PreviewBill(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.PreviewBill")
	defer finish()

	log := h.log(r)
	o, ok := h.loadOrder(w, r, log)
	if !ok {
		return
	}
	restaurant := ""
	if h.branding != nil {
		restaurant = h.branding.RestaurantName(r.Context())
	}
	bill := NewBill(o, restaurant, h.tableName(r.Context(), o), h.location)
	respondPrintable(w, r, bill, bill.Text())
}

func (h *Handler) GenerateBill(w http.ResponseWriter, r *http.Request) {
	h.mutation(w, r, "Handler.GenerateBill", func(w http.ResponseWriter, r *http.Request, id uuid.UUID, log apt.Logger) (*Order, bool) {
		ctx := r.Context()
		o, err := h.service.GenerateBill(ctx, id)
		return h.result(w, log, o, err)
	})
}

func (h *Handler) SetPaymentMethod(w http.ResponseWriter, r *http.Request) {
	h.mutation(w, r, "Handler.SetPaymentMethod", func(w http.ResponseWriter, r *http.Request, id uuid.UUID, log apt.Logger) (*Order, bool) {
		ctx := r.Context()
		req, ok := decodePayload[PaymentMethodRequest](w, r, log)
		if !ok {
			return nil, false
		}
		o, err := h.service.SetPaymentMethod(ctx, id, req.PaymentMethod)
		return h.result(w, log, o, err)
	})
}

func (h *Handler) MarkPaid(w http.ResponseWriter, r *http.Request) {
	h.mutation(w, r, "Handler.MarkPaid", func(w http.ResponseWriter, r *http.Request, id uuid.UUID, log apt.Logger) (*Order, bool) {
		ctx := r.Context()
		o, err := h.service.MarkPaid(ctx, id)
		return h.result(w, log, o, err)
	})
}

func (h *Handler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	h.mutation(w, r, "Handler.CancelOrder", func(w http.ResponseWriter, r *http.Request, id uuid.UUID, log apt.Logger) (*Order, bool) {
		ctx := r.Context()
		o, err := h.service.CancelOrder(ctx, id)
		return h.result(w, log, o, err)
	})
}

// Helpers

func (h *Handler) mutation(w http.ResponseWriter, r *http.Request, name string, run func(w http.ResponseWriter, r *http.Request, id uuid.UUID, log apt.Logger) (*Order, bool)) {
	w, r, finish := h.tlm.Start(w, r, name)
	defer finish()

	log := h.log(r)
	id, ok := parseUUIDParam(w, r, "id", log)
	if !ok {
		return
	}
	o, ok := run(w, r, id, log)
	if !ok {
		return
	}
	apt.RespondSuccess(w, o, apt.RESTfulLinksFor(o)...)
}

func (h *Handler) result(w http.ResponseWriter, log apt.Logger, o *Order, err error) (*Order, bool) {
	if err != nil {
		RespondServiceError(w, log, err)
		return nil, false
	}
	return o, true
}

func (h *Handler) loadOrder(w http.ResponseWriter, r *http.Request, log apt.Logger) (*Order, bool) {
	id, ok := parseUUIDParam(w, r, "id", log)
	if !ok {
		return nil, false
	}
	o, err := h.service.Get(r.Context(), id)
	if err != nil {
		RespondServiceError(w, log, err)
		return nil, false
	}
	return o, true
}

func (h *Handler) tableName(ctx context.Context, o *Order) string {
	if !o.IsDineIn() || h.tables == nil {
		return ""
	}
	t, err := h.tables.Table(ctx, o.TableID)
	if err != nil || t == nil {
		return ""
	}
	return t.Name
}

func (h *Handler) log(r *http.Request) apt.Logger {
	return h.logger.With("request_id", apt.RequestIDFrom(r.Context()))
}

// StatusFor maps engine errors to HTTP status codes.
func StatusFor(err error) int {
	var (
		validation *ValidationError
		state      *StateConflictError
		notFound   *NotFoundError
		conflict   *ConflictError
	)
	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &state), errors.As(err, &conflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// RespondServiceError writes err with its mapped status. Store failures are
// logged and hidden from the client.
func RespondServiceError(w http.ResponseWriter, log apt.Logger, err error) {
	code := StatusFor(err)
	if code == http.StatusInternalServerError {
		log.Error("order operation failed", "error", err)
		apt.RespondError(w, code, "Could not complete the order operation")
		return
	}
	log.Debug("order operation rejected", "outcome", Outcome(err), "error", err)
	apt.RespondError(w, code, err.Error())
}

// ParseFilter reads order filters from the query string.
func ParseFilter(r *http.Request, loc *time.Location) (Filter, error) {
	return FilterFromValues(r.URL.Query(), loc)
}

// FilterFromValues builds a filter from status (comma separated), table_id,
// type, platform, from and to. Dates accept RFC 3339 or YYYY-MM-DD in loc; a
// bare "to" date covers the whole day.
func FilterFromValues(q url.Values, loc *time.Location) (Filter, error) {
	if loc == nil {
		loc = time.Local
	}
	f := Filter{
		Type:     q.Get("type"),
		Platform: q.Get("platform"),
	}
	if s := q.Get("status"); s != "" {
		for _, part := range strings.Split(s, ",") {
			if part = strings.TrimSpace(part); part != "" {
				f.Statuses = append(f.Statuses, part)
			}
		}
	}
	if s := q.Get("table_id"); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			return Filter{}, fmt.Errorf("invalid table_id parameter")
		}
		f.TableID = id
	}
	var err error
	if f.From, err = parseTime(q.Get("from"), loc, false); err != nil {
		return Filter{}, fmt.Errorf("invalid from parameter")
	}
	if f.To, err = parseTime(q.Get("to"), loc, true); err != nil {
		return Filter{}, fmt.Errorf("invalid to parameter")
	}
	return f, nil
}

func parseTime(s string, loc *time.Location, endOfDay bool) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation(time.DateOnly, s, loc)
	if err != nil {
		return time.Time{}, err
	}
	if endOfDay {
		t = t.AddDate(0, 0, 1).Add(-time.Millisecond)
	}
	return t, nil
}

func idempotencyKey(r *http.Request, fromBody string) string {
	if key := r.Header.Get("Idempotency-Key"); key != "" {
		return key
	}
	return fromBody
}

func parseUUIDParam(w http.ResponseWriter, r *http.Request, name string, log apt.Logger) (uuid.UUID, bool) {
	raw := chi.URLParam(r, name)
	if raw == "" {
		log.Debug("missing path parameter", "param", name)
		apt.RespondError(w, http.StatusBadRequest, fmt.Sprintf("Missing %s parameter", name))
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		log.Debug("invalid path parameter", "param", name, "value", raw)
		apt.RespondError(w, http.StatusBadRequest, fmt.Sprintf("Invalid %s parameter", name))
		return uuid.Nil, false
	}
	return id, true
}

func decodePayload[T any](w http.ResponseWriter, r *http.Request, log apt.Logger) (T, bool) {
	var req T
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

// respondPrintable serves plain text to printers and JSON to everyone else.
func respondPrintable(w http.ResponseWriter, r *http.Request, data any, text string) {
	if r.URL.Query().Get("format") == "text" || strings.Contains(r.Header.Get("Accept"), "text/plain") {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, text)
		return
	}
	apt.RespondSuccess(w, data)
}
