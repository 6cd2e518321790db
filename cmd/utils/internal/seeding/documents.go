// Package seeding writes the demo data set straight into the POS collections.
package seeding

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/appetiteclub/payper/pkg/demo"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	TablesCollection   = "tables"
	MenuCollection     = "menu_items"
	SettingsCollection = "settings"
	OrdersCollection   = "orders"
	SeedsCollection    = "_seeds"
	SettingsID         = "restaurant"
)

// Upsert is one insert-if-missing write keyed by filter.
type Upsert struct {
	Filter bson.M
	Insert bson.M
}

// TableUpserts keys demo tables by name. Ids are canonical UUID strings as the
// service stores them.
func TableUpserts(data *demo.Data, now time.Time) []Upsert {
	ups := make([]Upsert, 0, len(data.Tables))
	for _, name := range data.Tables {
		name = strings.TrimSpace(name)
		ups = append(ups, Upsert{
			Filter: bson.M{"name": name},
			Insert: bson.M{
				"_id":        uuid.NewString(),
				"name":       name,
				"created_at": now,
				"updated_at": now,
			},
		})
	}
	return ups
}

// MenuUpserts keys demo dishes by name and category. Prices are Decimal128.
func MenuUpserts(data *demo.Data, now time.Time) ([]Upsert, error) {
	ups := make([]Upsert, 0, len(data.Menu))
	for _, m := range data.Menu {
		price, err := m.Amount()
		if err != nil {
			return nil, err
		}
		d128, err := primitive.ParseDecimal128(price.String())
		if err != nil {
			return nil, fmt.Errorf("menu item %s: %w", m.Name, err)
		}
		doc := bson.M{
			"_id":        uuid.NewString(),
			"name":       m.Name,
			"price":      d128,
			"category":   m.Category,
			"available":  true,
			"created_at": now,
			"updated_at": now,
		}
		if m.Description != "" {
			doc["description"] = m.Description
		}
		ups = append(ups, Upsert{
			Filter: bson.M{"name": m.Name, "category": m.Category},
			Insert: doc,
		})
	}
	return ups, nil
}

// SettingsUpsert configures the demo restaurant unless settings already exist.
func SettingsUpsert(data *demo.Data, now time.Time) Upsert {
	r := data.Restaurant
	return Upsert{
		Filter: bson.M{"_id": SettingsID},
		Insert: bson.M{
			"restaurant_name":   r.Name,
			"upi_id":            r.UPIID,
			"location":          bson.M{"latitude": r.Latitude, "longitude": r.Longitude},
			"geofence_radius_m": r.RadiusM,
			"updated_at":        now,
		},
	}
}

// Apply writes every upsert and reports how many documents were created.
func Apply(ctx context.Context, coll *mongo.Collection, ups []Upsert) (int64, error) {
	var created int64
	for _, u := range ups {
		res, err := coll.UpdateOne(ctx, u.Filter, bson.M{"$setOnInsert": u.Insert}, options.Update().SetUpsert(true))
		if err != nil {
			return created, fmt.Errorf("upsert into %s: %w", coll.Name(), err)
		}
		created += res.UpsertedCount
	}
	return created, nil
}
