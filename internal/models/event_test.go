package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEventType(t *testing.T) {
	tests := []struct {
		wire string
		want EventType
	}{
		{"app.store.authorize", EventAuthorize},
		{"app.installed", EventInstalled},
		{"app.updated", EventUpdated},
		{"app.uninstalled", EventUninstalled},
		{"app.trial.started", EventUnknown},
		{"order.created", EventUnknown},
		{"", EventUnknown},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseEventType(tt.wire), "wire %q", tt.wire)
	}
}

func TestDecodeEnvelope(t *testing.T) {
	body := []byte(`{
		"event": "app.store.authorize",
		"merchant": 693104445,
		"created_at": "2025-06-09 22:03:28",
		"data": {"access_token": "tok1", "expires": 1750704833, "scope": "orders.read"}
	}`)

	env, err := DecodeEnvelope(body)
	require.NoError(t, err)

	assert.Equal(t, EventAuthorize, env.Event)
	assert.Equal(t, MerchantID("693104445"), env.Merchant)
	assert.Equal(t, "app.store.authorize", env.RawEvent)
	assert.False(t, env.ReceivedAt.IsZero())
	assert.JSONEq(t,
		`{"access_token": "tok1", "expires": 1750704833, "scope": "orders.read"}`,
		string(env.Data))
}

func TestDecodeEnvelopeMerchantAsString(t *testing.T) {
	env, err := DecodeEnvelope([]byte(`{"event":"app.installed","merchant":"693104445"}`))
	require.NoError(t, err)
	assert.Equal(t, MerchantID("693104445"), env.Merchant)
}

func TestDecodeEnvelopeUnknownEvent(t *testing.T) {
	env, err := DecodeEnvelope([]byte(`{"event":"app.trial.started","merchant":42}`))
	require.NoError(t, err)
	assert.Equal(t, EventUnknown, env.Event)
	assert.Equal(t, "app.trial.started", env.RawEvent)
}

func TestDecodeEnvelopeErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", `not json`},
		{"missing event", `{"merchant": 42}`},
		{"missing merchant", `{"event": "app.installed"}`},
		{"merchant wrong type", `{"event": "app.installed", "merchant": ["nope"]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeEnvelope([]byte(tt.body))
			assert.Error(t, err)
		})
	}
}
