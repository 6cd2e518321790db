package session

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/telemetry"
	"github.com/appetiteclub/payper/services/pos/internal/order"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const MaxBodyBytes = 1 << 16

// Orders is the slice of the order engine customers can reach.
type Orders interface {
	Get(ctx context.Context, id uuid.UUID) (*order.Order, error)
	List(ctx context.Context, f order.Filter) ([]*order.Order, error)
	PlaceDineIn(ctx context.Context, req order.DineInRequest) (*order.Order, error)
	AddItems(ctx context.Context, id uuid.UUID, items []order.CartItem, key string) (*order.Order, error)
	SetPaymentMethod(ctx context.Context, id uuid.UUID, method *string) (*order.Order, error)
	PendingRedirect(ctx context.Context, tableID uuid.UUID) (*order.Order, error)
	ClearSwitchedFrom(ctx context.Context, id uuid.UUID) (*order.Order, error)
}

type leaseKey struct{}

func leaseFrom(ctx context.Context) *Lease {
	l, _ := ctx.Value(leaseKey{}).(*Lease)
	return l
}

// Current is the GET /sessions/current response. Redirect is set once, when
// staff moved the customer's order and the returned lease follows it.
type Current struct {
	Lease            *Lease       `json:"lease"`
	RemainingSeconds int          `json:"remaining_seconds"`
	ActiveOrder      *order.Order `json:"active_order,omitempty"`
	Redirect         *Redirect    `json:"redirect,omitempty"`
}

type Redirect struct {
	OrderID     uuid.UUID `json:"order_id"`
	FromTableID uuid.UUID `json:"from_table_id"`
	ToTableID   uuid.UUID `json:"to_table_id"`
}

type CartRequest struct {
	Items          []order.CartItem `json:"items"`
	IdempotencyKey string           `json:"idempotency_key"`
}

type Handler struct {
	manager *Manager
	orders  Orders
	limiter *Limiter
	now     func() time.Time
	tlm     *telemetry.HTTP
	logger  apt.Logger
}

func NewHandler(manager *Manager, orders Orders, limiter *Limiter, logger apt.Logger) *Handler {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &Handler{
		manager: manager,
		orders:  orders,
		limiter: limiter,
		now:     time.Now,
		tlm:     telemetry.NewHTTP(),
		logger:  logger,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/sessions", h.StartSession)
	r.With(h.requireLease(true)).Get("/sessions/current", h.CurrentSession)

	r.Route("/customer/orders", func(r chi.Router) {
		r.With(h.requireLease(false), h.throttle).Post("/", h.PlaceOrder)
		r.With(h.requireLease(false), h.throttle).Post("/{id}/items", h.AddItems)
		r.With(h.requireLease(true)).Put("/{id}/payment-method", h.SetPaymentMethod)
	})
}

// StartSession handles POST /sessions
func (h *Handler) StartSession(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.StartSession")
	defer finish()
	log := h.log(r)

	var req StartRequest
	if !h.decodePayload(w, r, log, &req) {
		return
	}

	lease, err := h.manager.Start(r.Context(), req)
	if errors.Is(err, ErrOutsideGeofence) {
		apt.RespondError(w, http.StatusForbidden, "You must be at the restaurant to start a session")
		return
	}
	if err != nil {
		order.RespondServiceError(w, log, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	apt.RespondSuccess(w, lease)
}

// CurrentSession handles GET /sessions/current. Expired leases are reported
// with zero remaining time so the client can prompt for a new scan.
func (h *Handler) CurrentSession(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.CurrentSession")
	defer finish()
	log := h.log(r)

	ctx := r.Context()
	lease := leaseFrom(ctx)

	moved, err := h.movedOrder(ctx, lease)
	if err != nil {
		order.RespondServiceError(w, log, err)
		return
	}
	if moved != nil {
		h.followMove(w, r, log, lease, moved)
		return
	}

	active, err := h.activeOrder(ctx, lease)
	if err != nil {
		order.RespondServiceError(w, log, err)
		return
	}
	apt.RespondSuccess(w, Current{
		Lease:            lease,
		RemainingSeconds: int(lease.Remaining(h.now()) / time.Second),
		ActiveOrder:      active,
	})
}

// followMove rebinds the lease to the order's new table and clears the
// breadcrumb so the redirect is reported only once.
func (h *Handler) followMove(w http.ResponseWriter, r *http.Request, log apt.Logger, lease *Lease, moved *order.Order) {
	rebound, err := h.manager.Move(lease, moved.TableID)
	if err != nil {
		log.Error("cannot rebind lease", "error", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not follow the table switch")
		return
	}
	cleared, err := h.orders.ClearSwitchedFrom(r.Context(), moved.ID)
	if err != nil {
		order.RespondServiceError(w, log, err)
		return
	}
	apt.RespondSuccess(w, Current{
		Lease:            rebound,
		RemainingSeconds: int(rebound.Remaining(h.now()) / time.Second),
		ActiveOrder:      cleared,
		Redirect: &Redirect{
			OrderID:     moved.ID,
			FromTableID: lease.TableID,
			ToTableID:   moved.TableID,
		},
	})
}

// PlaceOrder handles POST /customer/orders. A customer who already has an
// open order at the table adds to it. Nothing is placed while the customer's
// order waits at another table.
func (h *Handler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.PlaceOrder")
	defer finish()
	log := h.log(r)
	ctx := r.Context()

	var req CartRequest
	if !h.decodePayload(w, r, log, &req) {
		return
	}
	key := req.IdempotencyKey
	if hk := r.Header.Get("Idempotency-Key"); hk != "" {
		key = hk
	}

	lease := leaseFrom(ctx)
	moved, err := h.movedOrder(ctx, lease)
	if err != nil {
		order.RespondServiceError(w, log, err)
		return
	}
	if moved != nil {
		apt.RespondError(w, http.StatusConflict, "Your order moved to another table, refresh the session")
		return
	}

	active, err := h.activeOrder(ctx, lease)
	if err != nil {
		order.RespondServiceError(w, log, err)
		return
	}
	if active != nil {
		o, err := h.orders.AddItems(ctx, active.ID, req.Items, key)
		if err != nil {
			order.RespondServiceError(w, log, err)
			return
		}
		apt.RespondSuccess(w, o, apt.RESTfulLinksFor(o)...)
		return
	}

	o, err := h.orders.PlaceDineIn(ctx, order.DineInRequest{
		UserID:         lease.UserID,
		SessionID:      lease.SessionID,
		TableID:        lease.TableID,
		Items:          req.Items,
		IdempotencyKey: key,
	})
	if err != nil {
		order.RespondServiceError(w, log, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	apt.RespondSuccess(w, o, apt.RESTfulLinksFor(o)...)
}

// AddItems handles POST /customer/orders/{id}/items
func (h *Handler) AddItems(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.AddItems")
	defer finish()
	log := h.log(r)
	ctx := r.Context()

	id, ok := h.ownedOrder(w, r, log)
	if !ok {
		return
	}
	var req CartRequest
	if !h.decodePayload(w, r, log, &req) {
		return
	}
	key := req.IdempotencyKey
	if hk := r.Header.Get("Idempotency-Key"); hk != "" {
		key = hk
	}

	o, err := h.orders.AddItems(ctx, id, req.Items, key)
	if err != nil {
		order.RespondServiceError(w, log, err)
		return
	}
	apt.RespondSuccess(w, o, apt.RESTfulLinksFor(o)...)
}

// SetPaymentMethod handles PUT /customer/orders/{id}/payment-method. It stays
// open after the lease expires so a seated customer can still settle.
func (h *Handler) SetPaymentMethod(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.SetPaymentMethod")
	defer finish()
	log := h.log(r)

	id, ok := h.ownedOrder(w, r, log)
	if !ok {
		return
	}
	var req order.PaymentMethodRequest
	if !h.decodePayload(w, r, log, &req) {
		return
	}

	o, err := h.orders.SetPaymentMethod(r.Context(), id, req.PaymentMethod)
	if err != nil {
		order.RespondServiceError(w, log, err)
		return
	}
	apt.RespondSuccess(w, o, apt.RESTfulLinksFor(o)...)
}

func (h *Handler) activeOrder(ctx context.Context, lease *Lease) (*order.Order, error) {
	list, err := h.orders.List(ctx, order.Filter{TableID: lease.TableID, Type: order.TypeDineIn})
	if err != nil {
		return nil, err
	}
	for _, o := range list {
		if o.IsActive() && o.UserID == lease.UserID {
			return o, nil
		}
	}
	return nil, nil
}

// movedOrder finds the customer's order that staff switched away from the
// lease's table.
func (h *Handler) movedOrder(ctx context.Context, lease *Lease) (*order.Order, error) {
	o, err := h.orders.PendingRedirect(ctx, lease.TableID)
	if err != nil || o == nil {
		return nil, err
	}
	if o.UserID != lease.UserID {
		return nil, nil
	}
	return o, nil
}

// ownedOrder admits an order placed by the lease's customer at the lease's
// table.
func (h *Handler) ownedOrder(w http.ResponseWriter, r *http.Request, log apt.Logger) (uuid.UUID, bool) {
	rawID := chi.URLParam(r, "id")
	id, err := uuid.Parse(rawID)
	if err != nil {
		apt.RespondError(w, http.StatusBadRequest, "Invalid id parameter")
		return uuid.Nil, false
	}
	o, err := h.orders.Get(r.Context(), id)
	if err != nil {
		order.RespondServiceError(w, log, err)
		return uuid.Nil, false
	}
	if lease := leaseFrom(r.Context()); o.UserID != lease.UserID || o.TableID != lease.TableID {
		log.Info("customer tried to reach another order", "order_id", id.String(), "session_id", lease.SessionID)
		apt.RespondError(w, http.StatusForbidden, "Order belongs to another customer")
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) requireLease(allowExpired bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				apt.RespondError(w, http.StatusUnauthorized, "Session token required")
				return
			}
			lease, err := h.manager.Verify(token)
			switch {
			case errors.Is(err, ErrLeaseExpired) && allowExpired:
			case errors.Is(err, ErrLeaseExpired):
				apt.RespondError(w, http.StatusUnauthorized, "Session expired, scan the table code again")
				return
			case err != nil:
				apt.RespondError(w, http.StatusUnauthorized, "Invalid session token")
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), leaseKey{}, lease)))
		})
	}
}

func (h *Handler) throttle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.limiter != nil {
			if lease := leaseFrom(r.Context()); lease != nil && !h.limiter.Allow(lease.SessionID) {
				w.Header().Set("Retry-After", "2")
				apt.RespondError(w, http.StatusTooManyRequests, "Too many cart updates, slow down")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}
	return r.Header.Get("X-Session-Token")
}

func (h *Handler) decodePayload(w http.ResponseWriter, r *http.Request, log apt.Logger, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	defer r.Body.Close()

	body, err := io.ReadAll(r.Body)
	if err != nil {
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

func (h *Handler) log(r *http.Request) apt.Logger {
	return h.logger.With("request_id", apt.RequestIDFrom(r.Context()))
}
