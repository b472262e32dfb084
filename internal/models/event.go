package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// EventType enumerates the Salla app lifecycle events this server handles.
// Anything else maps to EventUnknown and is acknowledged without side effects.
type EventType string

const (
	// EventAuthorize delivers the merchant's OAuth grant (Easy Mode). Salla
	// resends it on every re-authorization, so there is no refresh flow.
	EventAuthorize EventType = "app.store.authorize"

	EventInstalled   EventType = "app.installed"
	EventUpdated     EventType = "app.updated"
	EventUninstalled EventType = "app.uninstalled"
	EventUnknown     EventType = "unknown"
)

// ParseEventType maps a wire event name onto the closed enum.
func ParseEventType(s string) EventType {
	switch EventType(s) {
	case EventAuthorize, EventInstalled, EventUpdated, EventUninstalled:
		return EventType(s)
	default:
		return EventUnknown
	}
}

// MerchantID is an opaque store identifier. Salla sends it as a JSON number
// in webhook bodies but the API paths treat it as a string, so it accepts
// both on the wire.
type MerchantID string

func (m *MerchantID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*m = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*m = MerchantID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("merchant must be a string or number: %w", err)
	}
	*m = MerchantID(n.String())
	return nil
}

func (m MerchantID) String() string { return string(m) }

// EventEnvelope is one inbound webhook delivery. Transient: constructed per
// request, never persisted.
type EventEnvelope struct {
	Event     EventType       `json:"event"`
	Merchant  MerchantID      `json:"merchant"`
	Data      json.RawMessage `json:"data"`
	CreatedAt string          `json:"created_at"`

	// RawEvent keeps the wire value for logging unhandled types.
	RawEvent string `json:"-"`

	ReceivedAt time.Time `json:"-"`
}

// DecodeEnvelope parses a raw webhook body. It returns an error only for
// unparsable JSON or a missing merchant/event; unknown event names decode
// successfully as EventUnknown.
func DecodeEnvelope(body []byte) (*EventEnvelope, error) {
	var wire struct {
		Event     string          `json:"event"`
		Merchant  MerchantID      `json:"merchant"`
		Data      json.RawMessage `json:"data"`
		CreatedAt string          `json:"created_at"`
	}
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, fmt.Errorf("invalid webhook body: %w", err)
	}
	if wire.Event == "" {
		return nil, fmt.Errorf("invalid webhook body: missing event")
	}
	if wire.Merchant == "" {
		return nil, fmt.Errorf("invalid webhook body: missing merchant")
	}

	return &EventEnvelope{
		Event:      ParseEventType(wire.Event),
		Merchant:   wire.Merchant,
		Data:       wire.Data,
		CreatedAt:  wire.CreatedAt,
		RawEvent:   wire.Event,
		ReceivedAt: time.Now().UTC(),
	}, nil
}

// AuthorizePayload is the data object of an app.store.authorize event.
type AuthorizePayload struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	// Expires is an absolute epoch-seconds expiry, per the Salla docs.
	Expires   int64  `json:"expires"`
	Scope     string `json:"scope"`
	TokenType string `json:"token_type"`
}

// InstallPayload is the data object of app.installed / app.updated events.
type InstallPayload struct {
	AppName   string `json:"app_name"`
	StoreType string `json:"store_type"`
	AppScopes string `json:"app_scopes"`
}
