package domain

import "errors"

var (
	// ErrProviderUnavailable signals a text-generation or embedding provider
	// failure (missing credential, timeout, malformed response). Recovered
	// locally: the classifier falls back to CategoryGeneral, handlers fall
	// back to a fixed apology string.
	ErrProviderUnavailable = errors.New("provider unavailable")
	// ErrRateLimited signals a provider rate limit hit.
	ErrRateLimited = errors.New("rate limited")
	// ErrSchemeNotFound signals a missing scheme record.
	ErrSchemeNotFound = errors.New("scheme not found")
	// ErrSessionNotFound signals an unknown chat session.
	ErrSessionNotFound = errors.New("session not found")
	// ErrEmptyQuery signals a blank query where the transport requires one.
	ErrEmptyQuery = errors.New("empty query")
)
