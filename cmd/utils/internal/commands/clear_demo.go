package commands

import (
	"context"
	"fmt"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/payper/cmd/utils/internal/seeding"
	"github.com/appetiteclub/payper/pkg/demo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ClearDemo removes the demo tables and menu along with every order placed
// at a demo table. Restaurant settings are kept.
func ClearDemo(ctx context.Context, config *apt.Config, logger apt.Logger) error {
	logger.Info("Starting demo data cleanup...")

	data, err := demo.Load()
	if err != nil {
		return err
	}

	client, db, err := openDatabase(ctx, config, logger)
	if err != nil {
		return err
	}
	defer client.Disconnect(ctx)

	tablesColl := db.Collection(seeding.TablesCollection)
	cursor, err := tablesColl.Find(ctx, bson.M{"name": bson.M{"$in": data.Tables}})
	if err != nil {
		return fmt.Errorf("find demo tables: %w", err)
	}
	var demoTables []struct {
		ID string `bson:"_id"`
	}
	if err := cursor.All(ctx, &demoTables); err != nil {
		return fmt.Errorf("decode demo tables: %w", err)
	}
	tableIDs := make([]string, 0, len(demoTables))
	for _, t := range demoTables {
		tableIDs = append(tableIDs, t.ID)
	}

	ordersResult, err := db.Collection(seeding.OrdersCollection).DeleteMany(ctx, bson.M{"table_id": bson.M{"$in": tableIDs}})
	if err != nil {
		return fmt.Errorf("delete demo orders: %w", err)
	}
	logger.Info("Deleted demo orders", "count", ordersResult.DeletedCount)

	tablesResult, err := tablesColl.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": tableIDs}})
	if err != nil {
		return fmt.Errorf("delete demo tables: %w", err)
	}
	logger.Info("Deleted demo tables", "count", tablesResult.DeletedCount)

	menuResult, err := db.Collection(seeding.MenuCollection).DeleteMany(ctx, bson.M{"name": bson.M{"$in": data.MenuNames()}})
	if err != nil {
		return fmt.Errorf("delete demo menu: %w", err)
	}
	logger.Info("Deleted demo menu items", "count", menuResult.DeletedCount)

	if _, err := db.Collection(seeding.SeedsCollection).DeleteOne(ctx, bson.M{"_id": demoMarker()}); err != nil {
		logger.Infof("Failed to remove demo seed marker: %v", err)
	}
	return nil
}

func upsert() *options.UpdateOptions {
	return options.Update().SetUpsert(true)
}
