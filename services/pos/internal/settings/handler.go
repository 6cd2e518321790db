package settings

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/telemetry"
	"github.com/go-chi/chi/v5"
)

const MaxBodyBytes = 1 << 16

type Handler struct {
	store  *Store
	tlm    *telemetry.HTTP
	logger apt.Logger
}

func NewHandler(store *Store, logger apt.Logger) *Handler {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &Handler{
		store:  store,
		tlm:    telemetry.NewHTTP(),
		logger: logger,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/settings", h.GetSettings)
	r.Put("/settings", h.UpdateSettings)
}

func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.GetSettings")
	defer finish()
	log := h.log(r)

	cur, err := h.store.Current(r.Context())
	if err != nil {
		log.Error("error loading settings", "error", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not load settings")
		return
	}
	apt.RespondSuccess(w, cur)
}

func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.UpdateSettings")
	defer finish()
	log := h.log(r)

	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	defer r.Body.Close()
	body, err := io.ReadAll(r.Body)
	if err != nil {
		apt.RespondError(w, http.StatusBadRequest, "Could not read request body")
		return
	}

	var next Settings
	if err := json.Unmarshal(body, &next); err != nil {
		log.Debug("error decoding JSON", "error", err)
		apt.RespondError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}
	if errs := Validate(&next); len(errs) > 0 {
		log.Debug("validation failed", "errors", errs)
		apt.RespondError(w, http.StatusBadRequest, "Validation failed: "+strings.Join(errs, ", "))
		return
	}

	saved, err := h.store.Update(r.Context(), &next)
	if err != nil {
		log.Error("error saving settings", "error", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not save settings")
		return
	}
	apt.RespondSuccess(w, saved)
}

func (h *Handler) log(r *http.Request) apt.Logger {
	return h.logger.With("request_id", apt.RequestIDFrom(r.Context()))
}
