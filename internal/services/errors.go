package services

import "errors"

var (
	// ErrInvalidSignature means the webhook signature did not verify.
	// Surfaced as 401; the upstream platform decides whether to retry.
	ErrInvalidSignature = errors.New("invalid webhook signature")

	// ErrMalformedPayload means the delivery body could not be parsed or is
	// missing required fields. Surfaced as 400.
	ErrMalformedPayload = errors.New("malformed webhook payload")
)
