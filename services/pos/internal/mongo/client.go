package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/appetiteclub/apt"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	defaultURL    = "mongodb://localhost:27017"
	defaultDBName = "payper"
)

// Client owns the connection shared by every repository of the service.
type Client struct {
	client *mongo.Client
	db     *mongo.Database
	config *apt.Config
	logger apt.Logger
}

func NewClient(config *apt.Config, logger apt.Logger) *Client {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &Client{config: config, logger: logger}
}

func (c *Client) Start(ctx context.Context) error {
	connString := defaultURL
	dbName := defaultDBName
	if c.config != nil {
		if v, _ := c.config.GetString("db.mongo.url"); v != "" {
			connString = v
		}
		if v, _ := c.config.GetString("db.mongo.name"); v != "" {
			dbName = v
		}
	}

	clientOptions := options.Client().ApplyURI(connString).
		SetRegistry(NewRegistry()).
		SetConnectTimeout(10 * time.Second).
		SetServerSelectionTimeout(10 * time.Second)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return fmt.Errorf("cannot connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return fmt.Errorf("cannot ping MongoDB: %w", err)
	}

	c.client = client
	c.db = client.Database(dbName)
	c.logger.Infof("Connected to MongoDB: database %s", dbName)
	return nil
}

func (c *Client) Stop(ctx context.Context) error {
	if c.client != nil {
		if err := c.client.Disconnect(ctx); err != nil {
			return fmt.Errorf("cannot disconnect from MongoDB: %w", err)
		}
		c.logger.Info("Disconnected from MongoDB")
	}
	return nil
}

// Ping backs the service health check.
func (c *Client) Ping(ctx context.Context) error {
	if c.client == nil {
		return fmt.Errorf("mongo client not started")
	}
	return c.client.Ping(ctx, nil)
}

func (c *Client) Database() *mongo.Database {
	return c.db
}

func (c *Client) collection(name string) (*mongo.Collection, error) {
	if c.db == nil {
		return nil, fmt.Errorf("mongo client not started")
	}
	return c.db.Collection(name), nil
}
