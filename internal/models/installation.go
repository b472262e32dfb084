package models

import "time"

// InstallationRecord is per-merchant installation metadata from the
// app.installed / app.updated events. It may exist without a TokenRecord:
// Salla can deliver app.installed before (or without) the authorize event.
type InstallationRecord struct {
	ID         uint   `gorm:"primaryKey" json:"-"`
	MerchantID string `gorm:"uniqueIndex;not null" json:"merchant_id"`

	AppName   string `json:"app_name"`
	StoreType string `json:"store_type"`
	AppScopes string `json:"app_scopes"`

	InstalledAt time.Time `json:"installed_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
