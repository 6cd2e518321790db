package mongo

import (
	"context"
	"errors"
	"fmt"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/payper/services/pos/internal/settings"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const settingsCollection = "settings"

// SettingsRepo keeps the single restaurant settings document.
type SettingsRepo struct {
	client     *Client
	collection *mongo.Collection
	logger     apt.Logger
}

func NewSettingsRepo(client *Client, logger apt.Logger) *SettingsRepo {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &SettingsRepo{client: client, logger: logger}
}

func (r *SettingsRepo) Start(ctx context.Context) error {
	coll, err := r.client.collection(settingsCollection)
	if err != nil {
		return err
	}
	r.collection = coll
	return nil
}

func (r *SettingsRepo) Get(ctx context.Context) (*settings.Settings, error) {
	var s settings.Settings
	err := r.collection.FindOne(ctx, bson.M{"_id": settings.DocumentID}).Decode(&s)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("cannot get settings: %w", err)
	}
	return &s, nil
}

func (r *SettingsRepo) Save(ctx context.Context, s *settings.Settings) error {
	s.ID = settings.DocumentID
	opts := options.Replace().SetUpsert(true)
	if _, err := r.collection.ReplaceOne(ctx, bson.M{"_id": settings.DocumentID}, s, opts); err != nil {
		return fmt.Errorf("cannot save settings: %w", err)
	}
	return nil
}
