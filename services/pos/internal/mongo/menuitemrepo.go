package mongo

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/payper/services/pos/internal/menu"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const menuItemsCollection = "menu_items"

type MenuItemRepo struct {
	client     *Client
	collection *mongo.Collection
	logger     apt.Logger
}

func NewMenuItemRepo(client *Client, logger apt.Logger) *MenuItemRepo {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &MenuItemRepo{client: client, logger: logger}
}

func (r *MenuItemRepo) Start(ctx context.Context) error {
	coll, err := r.client.collection(menuItemsCollection)
	if err != nil {
		return err
	}
	r.collection = coll

	_, err = r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "category", Value: 1}, {Key: "name", Value: 1}}},
		{Keys: bson.D{{Key: "available", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("cannot create menu item indexes: %w", err)
	}
	return nil
}

func (r *MenuItemRepo) Create(ctx context.Context, item *menu.MenuItem) error {
	if _, err := r.collection.InsertOne(ctx, item); err != nil {
		return fmt.Errorf("cannot create menu item: %w", err)
	}
	return nil
}

func (r *MenuItemRepo) Get(ctx context.Context, id uuid.UUID) (*menu.MenuItem, error) {
	var item menu.MenuItem
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&item); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("cannot get menu item: %w", err)
	}
	return &item, nil
}

func (r *MenuItemRepo) List(ctx context.Context, f menu.Filter) ([]*menu.MenuItem, error) {
	opts := options.Find().SetSort(bson.D{{Key: "category", Value: 1}, {Key: "name", Value: 1}})
	cursor, err := r.collection.Find(ctx, MenuFilterDoc(f), opts)
	if err != nil {
		return nil, fmt.Errorf("cannot list menu items: %w", err)
	}
	defer cursor.Close(ctx)

	var items []*menu.MenuItem
	if err := cursor.All(ctx, &items); err != nil {
		return nil, fmt.Errorf("cannot decode menu items: %w", err)
	}
	return items, nil
}

func (r *MenuItemRepo) Save(ctx context.Context, item *menu.MenuItem) error {
	res, err := r.collection.ReplaceOne(ctx, bson.M{"_id": item.ID}, item)
	if err != nil {
		return fmt.Errorf("cannot save menu item: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("menu item %s not found", item.ID)
	}
	return nil
}

func (r *MenuItemRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := r.collection.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("cannot delete menu item: %w", err)
	}
	return nil
}

func (r *MenuItemRepo) Categories(ctx context.Context) ([]string, error) {
	values, err := r.collection.Distinct(ctx, "category", bson.M{})
	if err != nil {
		return nil, fmt.Errorf("cannot list categories: %w", err)
	}
	categories := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok && s != "" {
			categories = append(categories, s)
		}
	}
	sort.Strings(categories)
	return categories, nil
}

func (r *MenuItemRepo) DeleteAll(ctx context.Context) (int64, error) {
	res, err := r.collection.DeleteMany(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("cannot delete menu items: %w", err)
	}
	return res.DeletedCount, nil
}

// MenuFilterDoc matches categories case-insensitively.
func MenuFilterDoc(f menu.Filter) bson.M {
	doc := bson.M{}
	if f.Category != "" {
		doc["category"] = primitive.Regex{Pattern: "^" + regexp.QuoteMeta(f.Category) + "$", Options: "i"}
	}
	if f.Available != nil {
		doc["available"] = *f.Available
	}
	return doc
}
