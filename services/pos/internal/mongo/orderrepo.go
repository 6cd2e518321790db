package mongo

import (
	"context"
	"errors"
	"fmt"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/payper/pkg/enums/orderstatus"
	"github.com/appetiteclub/payper/services/pos/internal/order"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const ordersCollection = "orders"

// OrderRepo stores orders with optimistic versioning. A unique partial index
// on occupied_table keeps one active dine-in order per table even across
// service instances.
type OrderRepo struct {
	client     *Client
	collection *mongo.Collection
	logger     apt.Logger
}

func NewOrderRepo(client *Client, logger apt.Logger) *OrderRepo {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &OrderRepo{client: client, logger: logger}
}

func (r *OrderRepo) Start(ctx context.Context) error {
	coll, err := r.client.collection(ordersCollection)
	if err != nil {
		return err
	}
	r.collection = coll

	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "occupied_table", Value: 1}},
			Options: options.Index().
				SetName("one_active_order_per_table").
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"occupied_table": bson.M{"$type": "string"}}),
		},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "timestamp", Value: -1}}},
		{Keys: bson.D{{Key: "table_id", Value: 1}, {Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "switched_from", Value: 1}}, Options: options.Index().SetSparse(true)},
		{Keys: bson.D{{Key: "online_platform", Value: 1}, {Key: "timestamp", Value: -1}}},
	}
	if _, err := r.collection.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("cannot create order indexes: %w", err)
	}
	r.logger.Info("order repository ready", "collection", ordersCollection)
	return nil
}

func (r *OrderRepo) Create(ctx context.Context, o *order.Order) error {
	if o == nil {
		return fmt.Errorf("order is nil")
	}
	if _, err := r.collection.InsertOne(ctx, o); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return order.ErrTableOccupied
		}
		return fmt.Errorf("cannot create order: %w", err)
	}
	return nil
}

func (r *OrderRepo) Get(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	var o order.Order
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&o)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("cannot get order: %w", err)
	}
	return &o, nil
}

// Update replaces the document only when the stored version still matches.
func (r *OrderRepo) Update(ctx context.Context, o *order.Order, expectedVersion int64) error {
	res, err := r.collection.ReplaceOne(ctx, bson.M{"_id": o.ID, "version": expectedVersion}, o)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return order.ErrTableOccupied
		}
		return fmt.Errorf("cannot update order: %w", err)
	}
	if res.MatchedCount == 0 {
		return order.ErrVersionMismatch
	}
	return nil
}

func (r *OrderRepo) List(ctx context.Context, f order.Filter) ([]*order.Order, error) {
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}})
	cursor, err := r.collection.Find(ctx, FilterDoc(f), opts)
	if err != nil {
		return nil, fmt.Errorf("cannot list orders: %w", err)
	}
	defer cursor.Close(ctx)

	var result []*order.Order
	if err := cursor.All(ctx, &result); err != nil {
		return nil, fmt.Errorf("cannot decode orders: %w", err)
	}
	return result, nil
}

func (r *OrderRepo) FindActiveByTable(ctx context.Context, tableID uuid.UUID) (*order.Order, error) {
	return r.findOne(ctx, bson.M{"occupied_table": tableID}, "active order by table")
}

func (r *OrderRepo) FindSwitchedFrom(ctx context.Context, tableID uuid.UUID) (*order.Order, error) {
	return r.findOne(ctx, bson.M{
		"switched_from": tableID,
		"status":        bson.M{"$in": activeStatuses()},
	}, "switched order")
}

// DeleteAll empties the collection. Used by the reset utility.
func (r *OrderRepo) DeleteAll(ctx context.Context) (int64, error) {
	res, err := r.collection.DeleteMany(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("cannot delete orders: %w", err)
	}
	return res.DeletedCount, nil
}

func (r *OrderRepo) findOne(ctx context.Context, filter bson.M, what string) (*order.Order, error) {
	var o order.Order
	opts := options.FindOne().SetSort(bson.D{{Key: "timestamp", Value: -1}})
	err := r.collection.FindOne(ctx, filter, opts).Decode(&o)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("cannot find %s: %w", what, err)
	}
	return &o, nil
}

// FilterDoc translates an order filter into a query document.
func FilterDoc(f order.Filter) bson.D {
	doc := bson.D{}
	if len(f.Statuses) > 0 {
		doc = append(doc, bson.E{Key: "status", Value: bson.M{"$in": f.Statuses}})
	}
	if f.TableID != uuid.Nil {
		doc = append(doc, bson.E{Key: "table_id", Value: f.TableID})
	}
	if f.Type != "" {
		doc = append(doc, bson.E{Key: "order_type", Value: f.Type})
	}
	if f.Platform != "" {
		doc = append(doc, bson.E{Key: "online_platform", Value: f.Platform})
	}
	if !f.From.IsZero() || !f.To.IsZero() {
		window := bson.M{}
		if !f.From.IsZero() {
			window["$gte"] = f.From.UnixMilli()
		}
		if !f.To.IsZero() {
			window["$lte"] = f.To.UnixMilli()
		}
		doc = append(doc, bson.E{Key: "timestamp", Value: window})
	}
	return doc
}

func activeStatuses() []string {
	var active []string
	for _, st := range orderstatus.All {
		if orderstatus.IsActive(st.Code()) {
			active = append(active, st.Code())
		}
	}
	return active
}
