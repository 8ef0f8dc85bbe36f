package domain

import "errors"

var (
	ErrAccountNotFound      = errors.New("account not found")
	ErrSecretNotFound       = errors.New("secret not found")
	ErrNotFound             = errors.New("upstream item not found")
	ErrAddressUnavailable   = errors.New("push address unavailable")
	ErrHandshakeRejected    = errors.New("socket handshake rejected")
	ErrSocketClosed         = errors.New("socket closed by peer")
	ErrReceiveTimeout       = errors.New("socket receive timed out")
	ErrUndecodablePayload   = errors.New("undecodable socket payload")
	ErrStoreDocumentMissing = errors.New("store document missing")
	ErrRecoveryUnavailable  = errors.New("recovery browser unavailable")
)
