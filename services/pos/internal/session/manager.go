package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/payper/services/pos/internal/order"
	"github.com/appetiteclub/payper/services/pos/internal/settings"
	"github.com/google/uuid"
)

var ErrOutsideGeofence = errors.New("device is outside the restaurant")

// Settings exposes the restaurant location and geofence radius.
type Settings interface {
	Current(ctx context.Context) (*settings.Settings, error)
}

// StartRequest opens a lease at a table. Token may carry the device's previous
// lease for the same table so the customer keeps their identity on renewal.
type StartRequest struct {
	TableID   uuid.UUID `json:"table_id"`
	Token     string    `json:"token,omitempty"`
	Latitude  *float64  `json:"latitude"`
	Longitude *float64  `json:"longitude"`
}

// Manager opens customer sessions at a table.
type Manager struct {
	issuer   *Issuer
	tables   order.TableLookup
	settings Settings
	logger   apt.Logger
}

func NewManager(issuer *Issuer, tables order.TableLookup, cfg Settings, logger apt.Logger) *Manager {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &Manager{issuer: issuer, tables: tables, settings: cfg, logger: logger}
}

// Start issues a lease when the table exists and the device stands within the
// geofence. Without a configured restaurant location any position is accepted.
func (m *Manager) Start(ctx context.Context, req StartRequest) (*Lease, error) {
	if req.TableID == uuid.Nil {
		return nil, &order.ValidationError{Field: "table_id", Reason: "table is required"}
	}
	table, err := m.tables.Table(ctx, req.TableID)
	if err != nil {
		return nil, &order.PersistenceError{Op: "load table", Err: err}
	}
	if table == nil {
		return nil, &order.NotFoundError{Resource: "table", ID: req.TableID.String()}
	}

	cfg, err := m.settings.Current(ctx)
	if err != nil {
		return nil, &order.PersistenceError{Op: "load settings", Err: err}
	}
	if cfg.Location != nil {
		if req.Latitude == nil || req.Longitude == nil {
			return nil, &order.ValidationError{Field: "location", Reason: "device coordinates are required"}
		}
		d := Distance(*req.Latitude, *req.Longitude, cfg.Location.Latitude, cfg.Location.Longitude)
		if d > cfg.RadiusMeters {
			m.logger.Info("session refused outside geofence", "table", table.Name, "distance_m", int(d))
			return nil, fmt.Errorf("%w: %.0f m away, limit %.0f m", ErrOutsideGeofence, d, cfg.RadiusMeters)
		}
	}

	lease, err := m.issuer.Issue(table.ID, m.returningUser(req.Token, table.ID))
	if err != nil {
		return nil, err
	}
	m.logger.Info("customer session started", "table", table.Name, "session_id", lease.SessionID)
	return lease, nil
}

// returningUser recovers the customer id from a lease this service signed for
// the same table, expired or not. Anything else yields a fresh guest id.
func (m *Manager) returningUser(token string, tableID uuid.UUID) string {
	if token == "" {
		return ""
	}
	prev, err := m.issuer.Parse(token)
	if err != nil && !errors.Is(err, ErrLeaseExpired) {
		return ""
	}
	if prev.TableID != tableID {
		return ""
	}
	return prev.UserID
}

// Move follows an order that staff switched to another table.
func (m *Manager) Move(lease *Lease, tableID uuid.UUID) (*Lease, error) {
	moved, err := m.issuer.Move(lease, tableID)
	if err != nil {
		return nil, err
	}
	m.logger.Info("customer session moved", "session_id", lease.SessionID, "from", lease.TableID.String(), "to", tableID.String())
	return moved, nil
}

// Verify parses a bearer token into a lease.
func (m *Manager) Verify(token string) (*Lease, error) {
	return m.issuer.Parse(token)
}
