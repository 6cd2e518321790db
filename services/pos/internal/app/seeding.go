package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/seed"
	"github.com/appetiteclub/payper/pkg/demo"
	"github.com/appetiteclub/payper/services/pos/internal/menu"
	"github.com/appetiteclub/payper/services/pos/internal/mongo"
	"github.com/appetiteclub/payper/services/pos/internal/settings"
	"github.com/appetiteclub/payper/services/pos/internal/tables"
)

const seedApplication = "pos"

// TableCreator is the registry side demo seeding writes through.
type TableCreator interface {
	List(ctx context.Context) ([]*tables.Table, error)
	Create(ctx context.Context, t *tables.Table) error
}

// MenuCreator is the repository side demo seeding writes through.
type MenuCreator interface {
	List(ctx context.Context, f menu.Filter) ([]*menu.MenuItem, error)
	Create(ctx context.Context, item *menu.MenuItem) error
}

// SettingsUpdater stores the demo restaurant profile.
type SettingsUpdater interface {
	Current(ctx context.Context) (*settings.Settings, error)
	Update(ctx context.Context, next *settings.Settings) (*settings.Settings, error)
}

// DemoSeeds builds one seed per demo table and dish plus one for the
// restaurant profile. Every seed only creates what is missing.
func DemoSeeds(data *demo.Data, tbl TableCreator, items MenuCreator, store SettingsUpdater, logger apt.Logger) []seed.Seed {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	var defs []seed.Seed

	defs = append(defs, seed.Seed{
		ID:          demo.SeedID("settings", "restaurant"),
		Description: "Configure the demo restaurant profile",
		Run: func(ctx context.Context) error {
			return ensureSettings(ctx, store, data.Restaurant, logger)
		},
	})

	for _, name := range data.Tables {
		tableName := strings.TrimSpace(name)
		defs = append(defs, seed.Seed{
			ID:          demo.SeedID("table", tableName),
			Description: fmt.Sprintf("Ensure table %s exists", tableName),
			Run: func(ctx context.Context) error {
				return ensureTable(ctx, tbl, tableName, logger)
			},
		})
	}

	for _, m := range data.Menu {
		item := m
		defs = append(defs, seed.Seed{
			ID:          demo.SeedID("menu", item.Name),
			Description: fmt.Sprintf("Ensure menu item %s exists", item.Name),
			Run: func(ctx context.Context) error {
				return ensureMenuItem(ctx, items, item, logger)
			},
		})
	}
	return defs
}

func ensureSettings(ctx context.Context, store SettingsUpdater, r demo.Restaurant, logger apt.Logger) error {
	current, err := store.Current(ctx)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	if current.Location != nil {
		logger.Info("Restaurant already configured, skipping demo profile")
		return nil
	}

	next := current.Clone()
	next.RestaurantName = r.Name
	next.UPIID = r.UPIID
	next.Location = &settings.Location{Latitude: r.Latitude, Longitude: r.Longitude}
	if r.RadiusM > 0 {
		next.RadiusMeters = r.RadiusM
	}
	if _, err := store.Update(ctx, next); err != nil {
		return fmt.Errorf("save demo settings: %w", err)
	}
	logger.Info("Demo restaurant configured", "name", r.Name)
	return nil
}

func ensureTable(ctx context.Context, tbl TableCreator, name string, logger apt.Logger) error {
	existing, err := tbl.List(ctx)
	if err != nil {
		return fmt.Errorf("list existing tables: %w", err)
	}
	for _, t := range existing {
		if t.Name == name {
			logger.Info("Seed table already exists", "name", name)
			return nil
		}
	}

	t := tables.NewTable(name)
	if err := tbl.Create(ctx, t); err != nil {
		if errors.Is(err, tables.ErrDuplicateName) {
			return nil
		}
		return fmt.Errorf("create seed table %s: %w", name, err)
	}
	logger.Info("Seed table created", "name", name, "id", t.ID.String())
	return nil
}

func ensureMenuItem(ctx context.Context, items MenuCreator, m demo.MenuItem, logger apt.Logger) error {
	existing, err := items.List(ctx, menu.Filter{Category: m.Category})
	if err != nil {
		return fmt.Errorf("list menu items: %w", err)
	}
	for _, it := range existing {
		if strings.EqualFold(it.Name, m.Name) {
			logger.Info("Seed menu item already exists", "name", m.Name)
			return nil
		}
	}

	price, err := m.Amount()
	if err != nil {
		return err
	}
	item := menu.NewMenuItem(m.Name, m.Category, price)
	item.Description = m.Description
	item.BeforeCreate()
	if err := items.Create(ctx, item); err != nil {
		return fmt.Errorf("create seed menu item %s: %w", m.Name, err)
	}
	logger.Info("Seed menu item created", "name", m.Name, "category", m.Category)
	return nil
}

// DemoSeedingFunc returns a lifecycle OnStart function which applies the
// demo seeds in the background, tracked in the service database.
func DemoSeedingFunc(seedCtx context.Context, client *mongo.Client, tbl TableCreator, items MenuCreator, store SettingsUpdater, logger apt.Logger) func(ctx context.Context) error {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}

	return func(ctx context.Context) error {
		data, err := demo.Load()
		if err != nil {
			return fmt.Errorf("load demo data: %w", err)
		}
		db := client.Database()
		if db == nil {
			return errors.New("database is not initialized for seeding")
		}
		tracker := seed.NewMongoTracker(db)
		defs := DemoSeeds(data, tbl, items, store, logger)

		logger.Info("Starting demo seeding in background", "seeds", len(defs))
		go func() {
			if err := seed.Apply(seedCtx, tracker, defs, seedApplication); err != nil && !errors.Is(err, context.Canceled) {
				logger.Errorf("Demo seeds failed: %v", err)
				return
			}
			logger.Info("Demo seeding completed")
		}()
		return nil
	}
}
