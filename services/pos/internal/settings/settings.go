package settings

import (
	"fmt"
	"strings"
	"time"
)

const (
	DefaultRestaurantName = "PayPer-Suite"
	DefaultRadiusMeters   = 500
	DocumentID            = "restaurant"
)

// Location is the restaurant position used for the customer geofence.
type Location struct {
	Latitude  float64 `json:"latitude" bson:"latitude"`
	Longitude float64 `json:"longitude" bson:"longitude"`
}

// Settings is the single restaurant configuration document.
type Settings struct {
	ID             string    `json:"-" bson:"_id"`
	RestaurantName string    `json:"restaurant_name" bson:"restaurant_name"`
	UPIID          string    `json:"upi_id,omitempty" bson:"upi_id,omitempty"`
	Location       *Location `json:"location,omitempty" bson:"location,omitempty"`
	RadiusMeters   float64   `json:"geofence_radius_m" bson:"geofence_radius_m"`
	UpdatedAt      time.Time `json:"updated_at" bson:"updated_at"`
}

// Defaults is what an unconfigured restaurant runs with.
func Defaults() *Settings {
	return &Settings{
		ID:             DocumentID,
		RestaurantName: DefaultRestaurantName,
		RadiusMeters:   DefaultRadiusMeters,
	}
}

func (s *Settings) Clone() *Settings {
	c := *s
	if s.Location != nil {
		loc := *s.Location
		c.Location = &loc
	}
	return &c
}

// normalize fills blanks with defaults.
func (s *Settings) normalize() {
	s.ID = DocumentID
	s.RestaurantName = strings.TrimSpace(s.RestaurantName)
	if s.RestaurantName == "" {
		s.RestaurantName = DefaultRestaurantName
	}
	s.UPIID = strings.TrimSpace(s.UPIID)
	if s.RadiusMeters <= 0 {
		s.RadiusMeters = DefaultRadiusMeters
	}
}

// Validate checks a settings update.
func Validate(s *Settings) []string {
	var errs []string
	if s.RadiusMeters < 0 {
		errs = append(errs, "geofence_radius_m cannot be negative")
	}
	if s.Location != nil {
		if s.Location.Latitude < -90 || s.Location.Latitude > 90 {
			errs = append(errs, fmt.Sprintf("latitude %v out of range", s.Location.Latitude))
		}
		if s.Location.Longitude < -180 || s.Location.Longitude > 180 {
			errs = append(errs, fmt.Sprintf("longitude %v out of range", s.Location.Longitude))
		}
	}
	if s.UPIID != "" && !strings.Contains(s.UPIID, "@") {
		errs = append(errs, "upi_id must look like name@bank")
	}
	return errs
}
