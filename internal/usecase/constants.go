package usecase

import "time"

const (
	// DefaultDuplicateLookupAttempts bounds the lookups made for a duplicate
	// operation ID whose winning transaction is not yet visible.
	DefaultDuplicateLookupAttempts = 5

	// DefaultDuplicateLookupInterval is the first backoff interval between those lookups.
	DefaultDuplicateLookupInterval = 20 * time.Millisecond

	// IdempotencyKeyTTL is how long idempotency keys are cached
	IdempotencyKeyTTL = 24 * time.Hour

	// IdempotencyPlaceholder marks an idempotency key whose request is still running.
	IdempotencyPlaceholder = "processing"
)

// DuplicatePolicy decides what a resubmitted operation ID with different
// parameters returns.
type DuplicatePolicy string

const (
	// DuplicatePolicyReturnOriginal returns the stored transfer unchanged.
	DuplicatePolicyReturnOriginal DuplicatePolicy = "return-original"
	// DuplicatePolicyRejectConflicting returns a ConflictingDuplicateError.
	DuplicatePolicyRejectConflicting DuplicatePolicy = "reject-conflicting"
)

// IsValid reports whether p is a known policy.
func (p DuplicatePolicy) IsValid() bool {
	return p == DuplicatePolicyReturnOriginal || p == DuplicatePolicyRejectConflicting
}
