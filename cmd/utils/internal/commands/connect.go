package commands

import (
	"context"
	"fmt"

	"github.com/appetiteclub/apt"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	defaultMongoURL = "mongodb://localhost:27017"
	defaultDBName   = "payper"
)

// openDatabase connects to MongoDB and returns the POS database. The caller
// disconnects the returned client.
func openDatabase(ctx context.Context, config *apt.Config, logger apt.Logger) (*mongo.Client, *mongo.Database, error) {
	mongoURL := config.GetStringOrDef("mongo.url", defaultMongoURL)
	dbName := config.GetStringOrDef("mongo.name", defaultDBName)

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURL))
	if err != nil {
		return nil, nil, fmt.Errorf("connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, nil, fmt.Errorf("ping mongodb: %w", err)
	}

	logger.Info("Connected to MongoDB", "database", dbName)
	return client, client.Database(dbName), nil
}
