package commands

import (
	"context"
	"fmt"

	"github.com/appetiteclub/apt"
	"github.com/jackc/pgx/v5"
	"go.mongodb.org/mongo-driver/bson"
)

// ResetDB drops the POS database and the sales journal table - USE WITH CAUTION
func ResetDB(ctx context.Context, config *apt.Config, logger apt.Logger) error {
	logger.Infof("DANGER: This will drop the PayPer database and the sales journal!")
	logger.Infof("This action cannot be undone!")

	client, db, err := openDatabase(ctx, config, logger)
	if err != nil {
		return err
	}
	defer client.Disconnect(ctx)

	logger.Info("Dropping database", "database", db.Name())
	if err := db.RunCommand(ctx, bson.D{{Key: "dropDatabase", Value: 1}}).Err(); err != nil {
		return fmt.Errorf("drop database %s: %w", db.Name(), err)
	}
	logger.Info("Database dropped", "database", db.Name())

	pgURL := config.GetStringOrDef("postgres.url", "")
	if pgURL == "" {
		logger.Info("postgres.url not set, sales journal left untouched")
		return nil
	}
	return dropJournal(ctx, pgURL, logger)
}

func dropJournal(ctx context.Context, url string, logger apt.Logger) error {
	conn, err := pgx.Connect(ctx, url)
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer conn.Close(ctx)

	if _, err := conn.Exec(ctx, `DROP TABLE IF EXISTS sales_journal`); err != nil {
		return fmt.Errorf("drop sales journal: %w", err)
	}
	logger.Info("Sales journal dropped")
	return nil
}
