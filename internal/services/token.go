package services

import (
	"context"
	"errors"
	"log"

	"github.com/go-sallagate/sallagate/internal/metrics"
	"github.com/go-sallagate/sallagate/internal/models"
	"github.com/go-sallagate/sallagate/internal/store"
)

// TokenService owns the merchant credential lifecycle on top of the store:
// it adds metric recording and hides corrupt records from read paths.
type TokenService struct {
	store   *store.Store
	metrics metrics.Recorder
}

func NewTokenService(s *store.Store, recorder metrics.Recorder) *TokenService {
	return &TokenService{
		store:   s,
		metrics: recorder,
	}
}

// Upsert stores (or fully replaces) a merchant's grant.
func (s *TokenService) Upsert(
	ctx context.Context,
	merchantID string,
	grant models.Grant,
) (*models.TokenRecord, error) {
	rec, err := s.store.UpsertToken(ctx, merchantID, grant)
	if err != nil {
		return nil, err
	}

	s.metrics.RecordTokenStored(merchantID)
	s.refreshGauge(ctx)

	// Never log the token value itself.
	log.Printf("Token stored for merchant %s (scope %q, expires %s)",
		merchantID, rec.Scope, rec.ExpiresAt.Format("2006-01-02 15:04:05 MST"))
	return rec, nil
}

// Fetch loads a merchant's valid token. Corrupt rows are logged for operator
// visibility and reported as not-found, matching the read-path contract.
func (s *TokenService) Fetch(ctx context.Context, merchantID string) (*models.TokenRecord, error) {
	rec, err := s.store.GetToken(ctx, merchantID)
	if errors.Is(err, store.ErrCorruptRecord) {
		log.Printf("Corrupt token record for merchant %s: %v", merchantID, err)
		return nil, store.ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// Delete removes a merchant's token; absence is not an error.
func (s *TokenService) Delete(ctx context.Context, merchantID string) error {
	if err := s.store.DeleteToken(ctx, merchantID); err != nil {
		return err
	}
	s.metrics.RecordTokenDeleted(merchantID)
	s.refreshGauge(ctx)
	return nil
}

// List returns summaries of every stored token, newest write first.
func (s *TokenService) List(ctx context.Context) ([]models.TokenRecord, error) {
	return s.store.ListTokens(ctx)
}

// RecordInstallation upserts installation metadata from an installed or
// updated event. Tokens are untouched.
func (s *TokenService) RecordInstallation(
	ctx context.Context,
	merchantID string,
	payload models.InstallPayload,
) (*models.InstallationRecord, error) {
	return s.store.UpsertInstallation(ctx, merchantID, payload)
}

// GetInstallation loads installation metadata for a merchant.
func (s *TokenService) GetInstallation(
	ctx context.Context,
	merchantID string,
) (*models.InstallationRecord, error) {
	return s.store.GetInstallation(ctx, merchantID)
}

// ClearInstallation removes installation metadata on uninstall.
func (s *TokenService) ClearInstallation(ctx context.Context, merchantID string) error {
	return s.store.DeleteInstallation(ctx, merchantID)
}

// RefreshGauge recomputes the stored-token gauges. Also run periodically by
// the lifecycle manager so expiry shows up without a triggering write.
func (s *TokenService) RefreshGauge(ctx context.Context) {
	s.refreshGauge(ctx)
}

func (s *TokenService) refreshGauge(ctx context.Context) {
	total, valid, err := s.store.CountTokens(ctx)
	if err != nil {
		log.Printf("Failed to count stored tokens: %v", err)
		return
	}
	s.metrics.SetStoredTokensCount(int(total), int(valid))
}
