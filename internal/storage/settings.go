package storage

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/srijanmgr/chiyapasal/internal/models"
)

const soundEnabledKey = "sound_enabled"

type SettingsStore struct {
	DB *gorm.DB
}

func NewSettingsStore(db *gorm.DB) *SettingsStore {
	return &SettingsStore{DB: db}
}

// SoundEnabled reports the persisted notification-sound preference.
// Defaults to false when never set, matching a fresh install.
func (s *SettingsStore) SoundEnabled(ctx context.Context) (bool, error) {
	var setting models.Setting
	err := s.DB.WithContext(ctx).First(&setting, "key = ?", soundEnabledKey).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, storageErr("read sound preference", err)
	}
	return setting.Value == "true", nil
}

func (s *SettingsStore) SetSoundEnabled(ctx context.Context, enabled bool) error {
	value := "false"
	if enabled {
		value = "true"
	}
	err := s.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&models.Setting{Key: soundEnabledKey, Value: value}).Error
	if err != nil {
		return storageErr("write sound preference", err)
	}
	return nil
}
