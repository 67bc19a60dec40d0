package port

import "context"

// IdempotencyRepository guards sale requests against replays.
type IdempotencyRepository interface {
	// SetIdempotency claims a key, returning false if already claimed.
	SetIdempotency(ctx context.Context, key string) (bool, error)

	// ClearIdempotency releases a key so the request may be retried
	// (used when the guarded sale fails).
	ClearIdempotency(ctx context.Context, key string) error
}
