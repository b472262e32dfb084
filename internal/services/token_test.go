package services

import (
	"context"
	"testing"
	"time"

	"github.com/go-sallagate/sallagate/internal/metrics"
	"github.com/go-sallagate/sallagate/internal/models"
	"github.com/go-sallagate/sallagate/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.New(context.Background(), "sqlite", ":memory:")
	require.NoError(t, err)
	return s
}

func testGrant(expiresIn time.Duration) models.Grant {
	return models.Grant{
		AccessToken:        "tok1",
		Scope:              "orders.read",
		TokenType:          "Bearer",
		ExpiresAtEpochSecs: time.Now().Add(expiresIn).Unix(),
	}
}

func TestTokenServiceUpsertAndFetch(t *testing.T) {
	ctx := context.Background()
	svc := NewTokenService(setupTestStore(t), metrics.NewNoopMetrics())

	_, err := svc.Upsert(ctx, "693104445", testGrant(14*24*time.Hour))
	require.NoError(t, err)

	rec, err := svc.Fetch(ctx, "693104445")
	require.NoError(t, err)
	assert.Equal(t, "tok1", rec.AccessToken)
	assert.Equal(t, "orders.read", rec.Scope)
}

func TestTokenServiceFetchExpired(t *testing.T) {
	ctx := context.Background()
	svc := NewTokenService(setupTestStore(t), metrics.NewNoopMetrics())

	_, err := svc.Upsert(ctx, "693104445", testGrant(-time.Second))
	require.NoError(t, err)

	_, err = svc.Fetch(ctx, "693104445")
	assert.ErrorIs(t, err, store.ErrRecordNotFound)
}

func TestTokenServiceDeleteIdempotent(t *testing.T) {
	ctx := context.Background()
	svc := NewTokenService(setupTestStore(t), metrics.NewNoopMetrics())

	_, err := svc.Upsert(ctx, "693104445", testGrant(time.Hour))
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, "693104445"))
	require.NoError(t, svc.Delete(ctx, "693104445"))

	_, err = svc.Fetch(ctx, "693104445")
	assert.ErrorIs(t, err, store.ErrRecordNotFound)
}

func TestTokenServiceInstallationLifecycle(t *testing.T) {
	ctx := context.Background()
	svc := NewTokenService(setupTestStore(t), metrics.NewNoopMetrics())

	_, err := svc.RecordInstallation(ctx, "693104445", models.InstallPayload{
		AppName: "Excel Data Connector",
	})
	require.NoError(t, err)

	rec, err := svc.GetInstallation(ctx, "693104445")
	require.NoError(t, err)
	assert.Equal(t, "Excel Data Connector", rec.AppName)

	require.NoError(t, svc.ClearInstallation(ctx, "693104445"))
	_, err = svc.GetInstallation(ctx, "693104445")
	assert.ErrorIs(t, err, store.ErrRecordNotFound)
}
