package settings

import "context"

// SettingsRepo stores the settings document. Get returns nil, nil when the
// restaurant was never configured.
type SettingsRepo interface {
	Get(ctx context.Context) (*Settings, error)
	Save(ctx context.Context, s *Settings) error
}
