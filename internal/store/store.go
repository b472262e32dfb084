package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-sallagate/sallagate/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// Store owns all durable state: one TokenRecord and at most one
// InstallationRecord per merchant. No other component touches the backing
// database directly.
type Store struct {
	db *gorm.DB

	// tokenMu serializes token writes per merchant so a duplicate webhook
	// retry cannot interleave with the original delivery. Reads go straight
	// to the database; row replacement is atomic.
	tokenMu keyMutex
}

func New(ctx context.Context, driver, dsn string) (*Store, error) {
	dialector, err := GetDialector(driver, dsn)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	if err := db.WithContext(ctx).AutoMigrate(
		&models.TokenRecord{},
		&models.InstallationRecord{},
	); err != nil {
		return nil, fmt.Errorf("%w: migrate: %v", ErrStorage, err)
	}

	return &Store{db: db}, nil
}

// UpsertToken stores a merchant's grant, replacing any prior row for the same
// merchant. The epoch-seconds expiry is normalized to UTC and UpdatedAt is
// stamped here so callers cannot forget it.
func (s *Store) UpsertToken(
	ctx context.Context,
	merchantID string,
	grant models.Grant,
) (*models.TokenRecord, error) {
	mu := s.tokenMu.Lock(merchantID)
	defer mu.Unlock()

	now := time.Now().UTC()
	rec := &models.TokenRecord{
		MerchantID:   merchantID,
		AccessToken:  grant.AccessToken,
		RefreshToken: grant.RefreshToken,
		Scope:        grant.Scope,
		TokenType:    grant.TokenType,
		IssuedAt:     now,
		ExpiresAt:    time.Unix(grant.ExpiresAtEpochSecs, 0).UTC(),
		UpdatedAt:    now,
	}
	if rec.TokenType == "" {
		rec.TokenType = "Bearer"
	}

	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "merchant_id"}},
			UpdateAll: true,
		}).
		Create(rec).Error
	if err != nil {
		return nil, fmt.Errorf("%w: upsert token for merchant %s: %v", ErrStorage, merchantID, err)
	}

	return rec, nil
}

// GetToken loads a merchant's token. An expired record is ErrRecordNotFound
// without deleting the underlying row; an unreadable record is
// ErrCorruptRecord.
func (s *Store) GetToken(ctx context.Context, merchantID string) (*models.TokenRecord, error) {
	var rec models.TokenRecord
	err := s.db.WithContext(ctx).
		Where("merchant_id = ?", merchantID).
		First(&rec).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, ErrRecordNotFound
	case err != nil:
		return nil, fmt.Errorf("%w: get token for merchant %s: %v", ErrStorage, merchantID, err)
	}

	if rec.IsCorrupt() {
		return nil, fmt.Errorf("%w: merchant %s", ErrCorruptRecord, merchantID)
	}
	if rec.IsExpired() {
		return nil, ErrRecordNotFound
	}

	return &rec, nil
}

// DeleteToken removes a merchant's token. Deleting a merchant that has no
// token is not an error.
func (s *Store) DeleteToken(ctx context.Context, merchantID string) error {
	mu := s.tokenMu.Lock(merchantID)
	defer mu.Unlock()

	err := s.db.WithContext(ctx).
		Where("merchant_id = ?", merchantID).
		Delete(&models.TokenRecord{}).Error
	if err != nil {
		return fmt.Errorf("%w: delete token for merchant %s: %v", ErrStorage, merchantID, err)
	}
	return nil
}

// ListTokens returns all stored token rows, newest write first. Expiry is
// not filtered here: the inventory endpoint reports validity per row.
func (s *Store) ListTokens(ctx context.Context) ([]models.TokenRecord, error) {
	var recs []models.TokenRecord
	err := s.db.WithContext(ctx).
		Order("updated_at DESC").
		Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("%w: list tokens: %v", ErrStorage, err)
	}
	return recs, nil
}

// CountTokens returns total and unexpired token row counts, for metrics.
func (s *Store) CountTokens(ctx context.Context) (total, valid int64, err error) {
	db := s.db.WithContext(ctx).Model(&models.TokenRecord{})
	if err := db.Count(&total).Error; err != nil {
		return 0, 0, fmt.Errorf("%w: count tokens: %v", ErrStorage, err)
	}
	err = s.db.WithContext(ctx).
		Model(&models.TokenRecord{}).
		Where("expires_at > ?", time.Now().UTC()).
		Count(&valid).Error
	if err != nil {
		return 0, 0, fmt.Errorf("%w: count valid tokens: %v", ErrStorage, err)
	}
	return total, valid, nil
}

// UpsertInstallation records installation metadata for a merchant. The
// installed timestamp is preserved across app.updated deliveries.
func (s *Store) UpsertInstallation(
	ctx context.Context,
	merchantID string,
	payload models.InstallPayload,
) (*models.InstallationRecord, error) {
	mu := s.tokenMu.Lock(merchantID)
	defer mu.Unlock()

	now := time.Now().UTC()

	var existing models.InstallationRecord
	err := s.db.WithContext(ctx).
		Where("merchant_id = ?", merchantID).
		First(&existing).Error

	rec := &models.InstallationRecord{
		MerchantID:  merchantID,
		AppName:     payload.AppName,
		StoreType:   payload.StoreType,
		AppScopes:   payload.AppScopes,
		InstalledAt: now,
		UpdatedAt:   now,
	}
	switch {
	case err == nil:
		// Update in place, keeping the original installation time.
		rec.ID = existing.ID
		rec.InstalledAt = existing.InstalledAt
		err = s.db.WithContext(ctx).Save(rec).Error
	case errors.Is(err, gorm.ErrRecordNotFound):
		err = s.db.WithContext(ctx).Create(rec).Error
	default:
		return nil, fmt.Errorf("%w: get installation for merchant %s: %v", ErrStorage, merchantID, err)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: upsert installation for merchant %s: %v", ErrStorage, merchantID, err)
	}

	return rec, nil
}

// GetInstallation loads a merchant's installation metadata.
func (s *Store) GetInstallation(
	ctx context.Context,
	merchantID string,
) (*models.InstallationRecord, error) {
	var rec models.InstallationRecord
	err := s.db.WithContext(ctx).
		Where("merchant_id = ?", merchantID).
		First(&rec).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, ErrRecordNotFound
	case err != nil:
		return nil, fmt.Errorf("%w: get installation for merchant %s: %v", ErrStorage, merchantID, err)
	}
	return &rec, nil
}

// DeleteInstallation clears installation metadata; idempotent like DeleteToken.
func (s *Store) DeleteInstallation(ctx context.Context, merchantID string) error {
	mu := s.tokenMu.Lock(merchantID)
	defer mu.Unlock()

	err := s.db.WithContext(ctx).
		Where("merchant_id = ?", merchantID).
		Delete(&models.InstallationRecord{}).Error
	if err != nil {
		return fmt.Errorf("%w: delete installation for merchant %s: %v", ErrStorage, merchantID, err)
	}
	return nil
}

// Health checks the database connection
func (s *Store) Health() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}
