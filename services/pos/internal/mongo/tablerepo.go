package mongo

import (
	"context"
	"errors"
	"fmt"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/payper/services/pos/internal/tables"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const tablesCollection = "tables"

type TableRepo struct {
	client     *Client
	collection *mongo.Collection
	logger     apt.Logger
}

func NewTableRepo(client *Client, logger apt.Logger) *TableRepo {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &TableRepo{client: client, logger: logger}
}

func (r *TableRepo) Start(ctx context.Context) error {
	coll, err := r.client.collection(tablesCollection)
	if err != nil {
		return err
	}
	r.collection = coll

	indexModel := mongo.IndexModel{
		Keys:    bson.D{{Key: "name", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	if _, err := r.collection.Indexes().CreateOne(ctx, indexModel); err != nil {
		return fmt.Errorf("cannot create index on name: %w", err)
	}
	return nil
}

func (r *TableRepo) Create(ctx context.Context, t *tables.Table) error {
	if _, err := r.collection.InsertOne(ctx, t); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return tables.ErrDuplicateName
		}
		return fmt.Errorf("cannot create table: %w", err)
	}
	return nil
}

func (r *TableRepo) Get(ctx context.Context, id uuid.UUID) (*tables.Table, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *TableRepo) GetByName(ctx context.Context, name string) (*tables.Table, error) {
	return r.findOne(ctx, bson.M{"name": name})
}

func (r *TableRepo) List(ctx context.Context) ([]*tables.Table, error) {
	cursor, err := r.collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("cannot list tables: %w", err)
	}
	defer cursor.Close(ctx)

	var list []*tables.Table
	if err := cursor.All(ctx, &list); err != nil {
		return nil, fmt.Errorf("cannot decode tables: %w", err)
	}
	tables.Sort(list)
	return list, nil
}

func (r *TableRepo) Save(ctx context.Context, t *tables.Table) error {
	res, err := r.collection.ReplaceOne(ctx, bson.M{"_id": t.ID}, t)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return tables.ErrDuplicateName
		}
		return fmt.Errorf("cannot save table: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("table %s not found", t.ID)
	}
	return nil
}

func (r *TableRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := r.collection.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("cannot delete table: %w", err)
	}
	return nil
}

func (r *TableRepo) DeleteAll(ctx context.Context) (int64, error) {
	res, err := r.collection.DeleteMany(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("cannot delete tables: %w", err)
	}
	return res.DeletedCount, nil
}

func (r *TableRepo) findOne(ctx context.Context, filter bson.M) (*tables.Table, error) {
	var t tables.Table
	if err := r.collection.FindOne(ctx, filter).Decode(&t); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("cannot get table: %w", err)
	}
	return &t, nil
}
