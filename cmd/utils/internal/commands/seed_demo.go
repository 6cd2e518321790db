package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/payper/cmd/utils/internal/seeding"
	"github.com/appetiteclub/payper/pkg/demo"
	"go.mongodb.org/mongo-driver/bson"
	"golang.org/x/sync/errgroup"
)

// SeedDemo writes the demo restaurant, its tables and its menu. Existing
// documents are left untouched so the command can be rerun.
func SeedDemo(ctx context.Context, config *apt.Config, logger apt.Logger) error {
	logger.Info("Starting demo seeding process...")

	data, err := demo.Load()
	if err != nil {
		return err
	}

	client, db, err := openDatabase(ctx, config, logger)
	if err != nil {
		return err
	}
	defer client.Disconnect(ctx)

	now := time.Now()
	menuUps, err := seeding.MenuUpserts(data, now)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := seeding.Apply(gctx, db.Collection(seeding.TablesCollection), seeding.TableUpserts(data, now))
		if err != nil {
			return fmt.Errorf("seed tables: %w", err)
		}
		logger.Info("Demo tables seeded", "created", n)
		return nil
	})
	g.Go(func() error {
		n, err := seeding.Apply(gctx, db.Collection(seeding.MenuCollection), menuUps)
		if err != nil {
			return fmt.Errorf("seed menu: %w", err)
		}
		logger.Info("Demo menu seeded", "created", n)
		return nil
	})
	g.Go(func() error {
		n, err := seeding.Apply(gctx, db.Collection(seeding.SettingsCollection), []seeding.Upsert{seeding.SettingsUpsert(data, now)})
		if err != nil {
			return fmt.Errorf("seed settings: %w", err)
		}
		logger.Info("Demo restaurant seeded", "created", n)
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	_, err = db.Collection(seeding.SeedsCollection).UpdateOne(ctx,
		bson.M{"_id": demoMarker()},
		bson.M{"$set": bson.M{
			"description": "Demo restaurant, tables and menu written by payper-utils",
			"applied_at":  now,
		}},
		upsert(),
	)
	if err != nil {
		logger.Infof("Failed to mark demo seed as applied: %v", err)
	}
	return nil
}

func demoMarker() string {
	return "utils_demo_" + demo.SeedVersion
}
