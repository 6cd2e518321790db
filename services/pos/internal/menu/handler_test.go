package menu

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func newTestRouter(repo *MockMenuItemRepo) http.Handler {
	r := chi.NewRouter()
	NewHandler(repo, nil).RegisterRoutes(r)
	return r
}

func send(router http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	var payload []byte
	if s, ok := body.(string); ok {
		payload = []byte(s)
	} else if body != nil {
		payload, _ = json.Marshal(body)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func fixtures() (*MenuItem, *MenuItem, *MenuItem) {
	paneer := NewMenuItem("Paneer Tikka", "Starters", decimal.NewFromInt(50))
	naan := NewMenuItem("Butter Naan", "Breads", decimal.NewFromInt(30))
	lassi := NewMenuItem("Mango Lassi", "Drinks", decimal.NewFromInt(20))
	lassi.Available = false
	return paneer, naan, lassi
}

func TestNewHandler(t *testing.T) {
	h := NewHandler(nil, nil)
	if h.logger == nil {
		t.Error("NewHandler() should set noop logger when nil")
	}
}

func TestHandlerCreateMenuItem(t *testing.T) {
	tests := []struct {
		name           string
		body           interface{}
		expectedStatus int
	}{
		{name: "valid", body: `{"name":"Dal Makhani","category":"Mains","price":"12.50"}`, expectedStatus: http.StatusCreated},
		{name: "numericPrice", body: `{"name":"Dal Makhani","category":"Mains","price":12.5}`, expectedStatus: http.StatusCreated},
		{name: "negativePrice", body: `{"name":"Dal Makhani","category":"Mains","price":"-1"}`, expectedStatus: http.StatusBadRequest},
		{name: "missingName", body: `{"category":"Mains","price":"3"}`, expectedStatus: http.StatusBadRequest},
		{name: "invalidJSON", body: "not json", expectedStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := send(newTestRouter(NewMockMenuItemRepo()), http.MethodPost, "/menu-items", tt.body)
			if w.Code != tt.expectedStatus {
				t.Errorf("CreateMenuItem() status = %d, want %d, body: %s", w.Code, tt.expectedStatus, w.Body.String())
			}
		})
	}
}

func TestHandlerCreateDefaultsToAvailable(t *testing.T) {
	repo := NewMockMenuItemRepo()
	w := send(newTestRouter(repo), http.MethodPost, "/menu-items", `{"name":"Dal","category":"Mains","price":"9"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d", w.Code)
	}
	var resp struct {
		Data MenuItem `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Data.Available || resp.Data.ID == uuid.Nil {
		t.Errorf("created item = %+v", resp.Data)
	}
}

func TestHandlerListMenuItems(t *testing.T) {
	paneer, naan, lassi := fixtures()
	router := newTestRouter(NewMockMenuItemRepo(paneer, naan, lassi))

	tests := []struct {
		name           string
		query          string
		expectedStatus int
		contains       []string
		excludes       []string
	}{
		{name: "all", query: "", expectedStatus: http.StatusOK, contains: []string{"Paneer Tikka", "Butter Naan", "Mango Lassi"}},
		{name: "byCategory", query: "?category=breads", expectedStatus: http.StatusOK, contains: []string{"Butter Naan"}, excludes: []string{"Paneer Tikka"}},
		{name: "availableOnly", query: "?available=true", expectedStatus: http.StatusOK, contains: []string{"Paneer Tikka"}, excludes: []string{"Mango Lassi"}},
		{name: "badAvailable", query: "?available=maybe", expectedStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := send(router, http.MethodGet, "/menu-items"+tt.query, nil)
			if w.Code != tt.expectedStatus {
				t.Fatalf("ListMenuItems() status = %d, want %d", w.Code, tt.expectedStatus)
			}
			body := w.Body.String()
			for _, s := range tt.contains {
				if !strings.Contains(body, s) {
					t.Errorf("response missing %q: %s", s, body)
				}
			}
			for _, s := range tt.excludes {
				if strings.Contains(body, s) {
					t.Errorf("response should not contain %q: %s", s, body)
				}
			}
		})
	}
}

func TestHandlerUpdateAndAvailability(t *testing.T) {
	paneer, _, lassi := fixtures()
	repo := NewMockMenuItemRepo(paneer, lassi)
	router := newTestRouter(repo)
	stored := func(id uuid.UUID) *MenuItem {
		item, _ := repo.Get(context.Background(), id)
		return item
	}

	w := send(router, http.MethodPut, "/menu-items/"+paneer.ID.String(), `{"name":"Paneer Tikka","category":"Starters","price":"55"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("UpdateMenuItem() status = %d, body: %s", w.Code, w.Body.String())
	}
	if got := stored(paneer.ID); !got.Price.Equal(decimal.NewFromInt(55)) || !got.Available {
		t.Errorf("updated item = %+v", got)
	}

	if w := send(router, http.MethodPut, "/menu-items/"+uuid.NewString(), `{"name":"X","category":"Y","price":"1"}`); w.Code != http.StatusNotFound {
		t.Errorf("UpdateMenuItem() missing status = %d", w.Code)
	}

	tests := []struct {
		name           string
		path           string
		body           string
		expectedStatus int
	}{
		{name: "enable", path: "/menu-items/" + lassi.ID.String() + "/availability", body: `{"available":true}`, expectedStatus: http.StatusOK},
		{name: "missingFlag", path: "/menu-items/" + lassi.ID.String() + "/availability", body: `{}`, expectedStatus: http.StatusBadRequest},
		{name: "unknown", path: "/menu-items/" + uuid.NewString() + "/availability", body: `{"available":false}`, expectedStatus: http.StatusNotFound},
		{name: "invalidID", path: "/menu-items/x/availability", body: `{"available":false}`, expectedStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := send(router, http.MethodPatch, tt.path, tt.body)
			if w.Code != tt.expectedStatus {
				t.Errorf("SetAvailability() status = %d, want %d, body: %s", w.Code, tt.expectedStatus, w.Body.String())
			}
		})
	}

	if !stored(lassi.ID).Available {
		t.Error("lassi should be available after enable")
	}
}

func TestHandlerDeleteMenuItem(t *testing.T) {
	paneer, _, _ := fixtures()
	repo := NewMockMenuItemRepo(paneer)
	router := newTestRouter(repo)

	if w := send(router, http.MethodDelete, "/menu-items/"+paneer.ID.String(), nil); w.Code != http.StatusNoContent {
		t.Fatalf("DeleteMenuItem() status = %d", w.Code)
	}
	if w := send(router, http.MethodGet, "/menu-items/"+paneer.ID.String(), nil); w.Code != http.StatusNotFound {
		t.Errorf("GetMenuItem() after delete status = %d", w.Code)
	}
}

func TestHandlerListCategories(t *testing.T) {
	paneer, naan, lassi := fixtures()
	router := newTestRouter(NewMockMenuItemRepo(paneer, naan, lassi))

	w := send(router, http.MethodGet, "/menu-categories", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("ListCategories() status = %d", w.Code)
	}
	var resp struct {
		Data []string `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := []string{"Breads", "Drinks", "Starters"}
	if strings.Join(resp.Data, ",") != strings.Join(want, ",") {
		t.Errorf("categories = %v, want %v", resp.Data, want)
	}
}
