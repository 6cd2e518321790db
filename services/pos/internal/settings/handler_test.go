package settings

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
)

func newTestRouter(repo *MockSettingsRepo) http.Handler {
	r := chi.NewRouter()
	NewHandler(NewStore(repo, nil), nil).RegisterRoutes(r)
	return r
}

func TestNewHandler(t *testing.T) {
	h := NewHandler(nil, nil)
	if h.logger == nil {
		t.Error("NewHandler() should set noop logger when nil")
	}
}

func TestHandlerSettings(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		expectedStatus int
		expectedName   string
	}{
		{name: "update", body: `{"restaurant_name":"Spice Route","upi_id":"spice@okaxis","location":{"latitude":12.97,"longitude":77.59},"geofence_radius_m":300}`, expectedStatus: http.StatusOK, expectedName: "Spice Route"},
		{name: "blankNameDefaults", body: `{"restaurant_name":""}`, expectedStatus: http.StatusOK, expectedName: DefaultRestaurantName},
		{name: "invalidLocation", body: `{"location":{"latitude":120,"longitude":0}}`, expectedStatus: http.StatusBadRequest},
		{name: "invalidJSON", body: `{`, expectedStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(&MockSettingsRepo{})

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodPut, "/settings", bytes.NewBufferString(tt.body)))
			if w.Code != tt.expectedStatus {
				t.Fatalf("UpdateSettings() status = %d, want %d, body: %s", w.Code, tt.expectedStatus, w.Body.String())
			}
			if tt.expectedStatus != http.StatusOK {
				return
			}

			w = httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/settings", nil))
			var resp struct {
				Data Settings `json:"data"`
			}
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.Data.RestaurantName != tt.expectedName {
				t.Errorf("restaurant_name = %q, want %q", resp.Data.RestaurantName, tt.expectedName)
			}
		})
	}
}
