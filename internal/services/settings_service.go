package services

import (
	"context"
	"fmt"

	"invoicer/internal/core"
	applog "invoicer/internal/log"
)

type SettingsService struct {
	store  SettingsStore
	logger *applog.Logger
}

func NewSettingsService(store SettingsStore, logger *applog.Logger) *SettingsService {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &SettingsService{store: store, logger: logger.WithComponent(applog.ComponentSettings)}
}

// Get returns nil, nil when the user has not saved settings yet.
func (s *SettingsService) Get(ctx context.Context, userID int64) (*core.BusinessSettings, error) {
	return s.store.GetBusinessSettings(ctx, userID)
}

// Upsert creates or replaces the single settings row of b.UserID.
func (s *SettingsService) Upsert(ctx context.Context, b core.BusinessSettings) (core.BusinessSettings, error) {
	b.Normalize()
	if err := b.Validate(); err != nil {
		return core.BusinessSettings{}, err
	}
	saved, err := s.store.UpsertBusinessSettings(ctx, b)
	if err != nil {
		return core.BusinessSettings{}, fmt.Errorf("save business settings: %w", err)
	}
	s.logger.InfoContext(ctx, "Business settings saved",
		applog.FieldUserID, saved.UserID,
		"business_name", saved.BusinessName)
	return saved, nil
}
