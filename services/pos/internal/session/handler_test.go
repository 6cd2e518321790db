package session

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/appetiteclub/payper/services/pos/internal/order"
	"github.com/appetiteclub/payper/services/pos/internal/settings"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type testEnv struct {
	router  http.Handler
	issuer  *Issuer
	orders  *MockOrders
	handler *Handler
}

func newTestEnv(cfg *settings.Settings, limiter *Limiter) *testEnv {
	issuer := newTestIssuer()
	orders := NewMockOrders()
	manager := NewManager(issuer, mockTables{tableOne: "T1", tableTwo: "T2"}, mockSettings{current: cfg}, nil)
	h := NewHandler(manager, orders, limiter, nil)
	h.now = issuer.now
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return &testEnv{router: r, issuer: issuer, orders: orders, handler: h}
}

func (e *testEnv) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var payload []byte
	if s, ok := body.(string); ok {
		payload = []byte(s)
	} else if body != nil {
		payload, _ = json.Marshal(body)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) lease(t *testing.T, table uuid.UUID, user string) *Lease {
	t.Helper()
	lease, err := e.issuer.Issue(table, user)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	return lease
}

func cart() CartRequest {
	return CartRequest{Items: []order.CartItem{{MenuItemID: uuid.New(), Quantity: 2}}}
}

func decodeOrder(t *testing.T, w *httptest.ResponseRecorder) *order.Order {
	t.Helper()
	var resp struct {
		Data *order.Order `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v, body: %s", err, w.Body.String())
	}
	return resp.Data
}

func TestNewHandler(t *testing.T) {
	h := NewHandler(nil, nil, nil, nil)
	if h.logger == nil {
		t.Error("NewHandler() should set noop logger when nil")
	}
}

func TestHandlerStartSession(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		expectedStatus int
	}{
		{name: "inside", body: `{"table_id":"11111111-1111-1111-1111-111111111111","latitude":12.9717,"longitude":77.5947}`, expectedStatus: http.StatusCreated},
		{name: "outside", body: `{"table_id":"11111111-1111-1111-1111-111111111111","latitude":13.5,"longitude":77.5947}`, expectedStatus: http.StatusForbidden},
		{name: "noCoordinates", body: `{"table_id":"11111111-1111-1111-1111-111111111111"}`, expectedStatus: http.StatusBadRequest},
		{name: "unknownTable", body: `{"table_id":"99999999-9999-9999-9999-999999999999","latitude":12.9717,"longitude":77.5947}`, expectedStatus: http.StatusNotFound},
		{name: "invalidJSON", body: `{`, expectedStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(geofenced(), nil)
			w := env.do(http.MethodPost, "/sessions", "", tt.body)
			if w.Code != tt.expectedStatus {
				t.Fatalf("StartSession() status = %d, want %d, body: %s", w.Code, tt.expectedStatus, w.Body.String())
			}
			if tt.expectedStatus != http.StatusCreated {
				return
			}
			var resp struct {
				Data Lease `json:"data"`
			}
			json.Unmarshal(w.Body.Bytes(), &resp)
			if resp.Data.Token == "" || resp.Data.TableID != tableOne {
				t.Errorf("lease = %+v", resp.Data)
			}
		})
	}
}

func TestHandlerCustomerFlow(t *testing.T) {
	env := newTestEnv(settings.Defaults(), nil)
	lease := env.lease(t, tableOne, "device-7")

	w := env.do(http.MethodPost, "/customer/orders", lease.Token, cart())
	if w.Code != http.StatusCreated {
		t.Fatalf("PlaceOrder() status = %d, body: %s", w.Code, w.Body.String())
	}
	placed := decodeOrder(t, w)
	if placed.UserID != "device-7" || placed.SessionID != lease.SessionID || placed.TableID != tableOne {
		t.Errorf("placed = %+v", placed)
	}

	w = env.do(http.MethodPost, "/customer/orders", lease.Token, cart())
	if w.Code != http.StatusOK {
		t.Fatalf("second PlaceOrder() status = %d, want 200 (append)", w.Code)
	}
	if got := decodeOrder(t, w); got.ID != placed.ID || len(got.Items) != 2 {
		t.Errorf("append went to %s with %d rows", got.ID, len(got.Items))
	}

	w = env.do(http.MethodPost, "/customer/orders/"+placed.ID.String()+"/items", lease.Token, cart())
	if w.Code != http.StatusOK || env.orders.Adds != 2 {
		t.Errorf("AddItems() status = %d, adds = %d", w.Code, env.orders.Adds)
	}

	w = env.do(http.MethodGet, "/sessions/current", lease.Token, nil)
	var current struct {
		Data Current `json:"data"`
	}
	json.Unmarshal(w.Body.Bytes(), &current)
	if w.Code != http.StatusOK || current.Data.ActiveOrder == nil || current.Data.RemainingSeconds != 900 {
		t.Errorf("CurrentSession() status = %d, data = %+v", w.Code, current.Data)
	}

	stranger := env.lease(t, tableOne, "device-9")
	if w := env.do(http.MethodPost, "/customer/orders/"+placed.ID.String()+"/items", stranger.Token, cart()); w.Code != http.StatusForbidden {
		t.Errorf("stranger AddItems() status = %d, want 403", w.Code)
	}
	if w := env.do(http.MethodPost, "/customer/orders", stranger.Token, cart()); w.Code != http.StatusConflict {
		t.Errorf("stranger PlaceOrder() status = %d, want 409", w.Code)
	}
}

func TestHandlerLeaseGates(t *testing.T) {
	env := newTestEnv(settings.Defaults(), nil)
	lease := env.lease(t, tableOne, "device-7")
	w := env.do(http.MethodPost, "/customer/orders", lease.Token, cart())
	placed := decodeOrder(t, w)

	env.issuer.now = func() time.Time { return issuedAt.Add(20 * time.Minute) }
	env.handler.now = env.issuer.now

	tests := []struct {
		name           string
		method         string
		path           string
		token          string
		body           interface{}
		expectedStatus int
	}{
		{name: "noToken", method: http.MethodPost, path: "/customer/orders", body: cart(), expectedStatus: http.StatusUnauthorized},
		{name: "badToken", method: http.MethodPost, path: "/customer/orders", token: "nope", body: cart(), expectedStatus: http.StatusUnauthorized},
		{name: "expiredCart", method: http.MethodPost, path: "/customer/orders/" + placed.ID.String() + "/items", token: lease.Token, body: cart(), expectedStatus: http.StatusUnauthorized},
		{name: "expiredPayment", method: http.MethodPut, path: "/customer/orders/" + placed.ID.String() + "/payment-method", token: lease.Token, body: `{"payment_method":"cash_qr"}`, expectedStatus: http.StatusOK},
		{name: "expiredCurrent", method: http.MethodGet, path: "/sessions/current", token: lease.Token, expectedStatus: http.StatusOK},
		{name: "unknownOrder", method: http.MethodPut, path: "/customer/orders/" + uuid.NewString() + "/payment-method", token: lease.Token, body: `{"payment_method":"card"}`, expectedStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(tt.method, tt.path, tt.token, tt.body)
			if w.Code != tt.expectedStatus {
				t.Errorf("status = %d, want %d, body: %s", w.Code, tt.expectedStatus, w.Body.String())
			}
		})
	}

	if len(env.orders.Payments) != 1 || env.orders.Payments[0] != order.PaymentCashQR {
		t.Errorf("payments = %v", env.orders.Payments)
	}
}

func TestHandlerThrottle(t *testing.T) {
	limiter := NewLimiter(1, 1, time.Minute, nil)
	limiter.now = func() time.Time { return issuedAt }
	env := newTestEnv(settings.Defaults(), limiter)
	lease := env.lease(t, tableOne, "device-7")

	if w := env.do(http.MethodPost, "/customer/orders", lease.Token, cart()); w.Code != http.StatusCreated {
		t.Fatalf("first PlaceOrder() status = %d", w.Code)
	}
	w := env.do(http.MethodPost, "/customer/orders", lease.Token, cart())
	if w.Code != http.StatusTooManyRequests || w.Header().Get("Retry-After") == "" {
		t.Errorf("throttled status = %d, Retry-After = %q", w.Code, w.Header().Get("Retry-After"))
	}
}

func TestHandlerStartSessionChoosesUser(t *testing.T) {
	env := newTestEnv(settings.Defaults(), nil)

	w := env.do(http.MethodPost, "/sessions", "", `{"table_id":"11111111-1111-1111-1111-111111111111","user_id":"device-7"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("StartSession() status = %d, body: %s", w.Code, w.Body.String())
	}
	var resp struct {
		Data Lease `json:"data"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Data.UserID == "device-7" || !strings.HasPrefix(resp.Data.UserID, "guest-") {
		t.Errorf("UserID = %q, want a generated guest id", resp.Data.UserID)
	}
}

func TestHandlerOrderOwnership(t *testing.T) {
	env := newTestEnv(settings.Defaults(), nil)
	owner := env.lease(t, tableOne, "device-7")
	placed := decodeOrder(t, env.do(http.MethodPost, "/customer/orders", owner.Token, cart()))

	tests := []struct {
		name           string
		lease          *Lease
		expectedStatus int
	}{
		{name: "owner", lease: owner, expectedStatus: http.StatusOK},
		{name: "sameUserOtherTable", lease: env.lease(t, tableTwo, "device-7"), expectedStatus: http.StatusForbidden},
		{name: "otherUserSameTable", lease: env.lease(t, tableOne, "device-9"), expectedStatus: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := "/customer/orders/" + placed.ID.String()
			if w := env.do(http.MethodPut, path+"/payment-method", tt.lease.Token, `{"payment_method":"card"}`); w.Code != tt.expectedStatus {
				t.Errorf("SetPaymentMethod() status = %d, want %d", w.Code, tt.expectedStatus)
			}
			if w := env.do(http.MethodPost, path+"/items", tt.lease.Token, cart()); w.Code != tt.expectedStatus {
				t.Errorf("AddItems() status = %d, want %d", w.Code, tt.expectedStatus)
			}
		})
	}

	if len(env.orders.Payments) != 1 {
		t.Errorf("payments = %v, want only the owner's", env.orders.Payments)
	}
}

func TestHandlerAfterTableSwitch(t *testing.T) {
	env := newTestEnv(settings.Defaults(), nil)
	lease := env.lease(t, tableOne, "device-7")
	placed := decodeOrder(t, env.do(http.MethodPost, "/customer/orders", lease.Token, cart()))
	env.orders.Switch(placed.ID, tableTwo)

	neighbour := env.lease(t, tableOne, "device-9")
	var moved *Lease

	tests := []struct {
		name  string
		run   func() *httptest.ResponseRecorder
		check func(t *testing.T, w *httptest.ResponseRecorder)
	}{
		{
			name: "placeRefusedWhileMoved",
			run:  func() *httptest.ResponseRecorder { return env.do(http.MethodPost, "/customer/orders", lease.Token, cart()) },
			check: func(t *testing.T, w *httptest.ResponseRecorder) {
				if w.Code != http.StatusConflict || env.orders.Count() != 1 {
					t.Errorf("status = %d, orders = %d, want 409 and no new order", w.Code, env.orders.Count())
				}
			},
		},
		{
			name: "neighbourNotRedirected",
			run:  func() *httptest.ResponseRecorder { return env.do(http.MethodGet, "/sessions/current", neighbour.Token, nil) },
			check: func(t *testing.T, w *httptest.ResponseRecorder) {
				if cur := decodeCurrent(t, w); cur.Redirect != nil || cur.ActiveOrder != nil {
					t.Errorf("neighbour current = %+v", cur)
				}
			},
		},
		{
			name: "currentFollowsOrder",
			run:  func() *httptest.ResponseRecorder { return env.do(http.MethodGet, "/sessions/current", lease.Token, nil) },
			check: func(t *testing.T, w *httptest.ResponseRecorder) {
				cur := decodeCurrent(t, w)
				if cur.Redirect == nil || cur.Redirect.OrderID != placed.ID || cur.Redirect.FromTableID != tableOne || cur.Redirect.ToTableID != tableTwo {
					t.Errorf("redirect = %+v", cur.Redirect)
				}
				if cur.ActiveOrder == nil || cur.ActiveOrder.ID != placed.ID || cur.ActiveOrder.SwitchedFrom != nil {
					t.Errorf("active order = %+v", cur.ActiveOrder)
				}
				if cur.Lease.TableID != tableTwo || cur.Lease.UserID != lease.UserID || cur.Lease.SessionID != lease.SessionID {
					t.Errorf("lease = %+v", cur.Lease)
				}
				moved = cur.Lease
			},
		},
		{
			name: "redirectReportedOnce",
			run:  func() *httptest.ResponseRecorder { return env.do(http.MethodGet, "/sessions/current", lease.Token, nil) },
			check: func(t *testing.T, w *httptest.ResponseRecorder) {
				if cur := decodeCurrent(t, w); cur.Redirect != nil {
					t.Errorf("redirect = %+v, want cleared", cur.Redirect)
				}
			},
		},
		{
			name: "movedLeaseAppends",
			run:  func() *httptest.ResponseRecorder { return env.do(http.MethodPost, "/customer/orders", moved.Token, cart()) },
			check: func(t *testing.T, w *httptest.ResponseRecorder) {
				if w.Code != http.StatusOK || decodeOrder(t, w).ID != placed.ID || env.orders.Count() != 1 {
					t.Errorf("status = %d, orders = %d, want append to the moved order", w.Code, env.orders.Count())
				}
			},
		},
		{
			name: "movedLeasePays",
			run: func() *httptest.ResponseRecorder {
				return env.do(http.MethodPut, "/customer/orders/"+placed.ID.String()+"/payment-method", moved.Token, `{"payment_method":"card"}`)
			},
			check: func(t *testing.T, w *httptest.ResponseRecorder) {
				if w.Code != http.StatusOK {
					t.Errorf("status = %d, body: %s", w.Code, w.Body.String())
				}
			},
		},
		{
			name: "oldLeaseLosesOrder",
			run: func() *httptest.ResponseRecorder {
				return env.do(http.MethodPost, "/customer/orders/"+placed.ID.String()+"/items", lease.Token, cart())
			},
			check: func(t *testing.T, w *httptest.ResponseRecorder) {
				if w.Code != http.StatusForbidden {
					t.Errorf("status = %d, want 403", w.Code)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := tt.run()
			tt.check(t, w)
		})
	}
}

func decodeCurrent(t *testing.T, w *httptest.ResponseRecorder) Current {
	t.Helper()
	if w.Code != http.StatusOK {
		t.Fatalf("CurrentSession() status = %d, body: %s", w.Code, w.Body.String())
	}
	var resp struct {
		Data Current `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return resp.Data
}
