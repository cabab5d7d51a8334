package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-form-engine/internal/domain"
)

// GetSetting returns the stored value for key, or def when the key is absent.
func GetSetting(ctx context.Context, db *gorm.DB, key, def string) (string, error) {
	var s domain.Setting
	err := db.WithContext(ctx).Where("key = ?", key).First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return def, nil
	}
	if err != nil {
		return "", err
	}
	return s.Value, nil
}

// AllSettings returns every stored key/value pair.
func AllSettings(ctx context.Context, db *gorm.DB) (map[string]string, error) {
	var rows []domain.Setting
	if err := db.WithContext(ctx).Order("key").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[string]string, len(rows))
	for _, r := range rows {
		out[r.Key] = r.Value
	}
	return out, nil
}

// SetSettings upserts all values in one transaction.
func SetSettings(ctx context.Context, db *gorm.DB, values map[string]string) error {
	return upsertSettings(ctx, db, values, clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	})
}

// SeedSettings stores values only for keys that have no row yet.
func SeedSettings(ctx context.Context, db *gorm.DB, values map[string]string) error {
	return upsertSettings(ctx, db, values, clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoNothing: true,
	})
}

func upsertSettings(ctx context.Context, db *gorm.DB, values map[string]string, onConflict clause.OnConflict) error {
	if len(values) == 0 {
		return nil
	}
	now := time.Now().UTC()
	rows := make([]domain.Setting, 0, len(values))
	for k, v := range values {
		rows = append(rows, domain.Setting{Key: k, Value: v, UpdatedAt: now})
	}
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(onConflict).Create(&rows).Error
	})
}
