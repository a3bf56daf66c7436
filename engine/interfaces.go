package engine

import (
	"context"
	"time"

	"seasonkit/core"
)

// Ledger is the external transaction service holding authoritative
// monetary state. Transfers are atomic on the ledger side; they are not
// automatically idempotent, so callers must not blindly retry.
type Ledger interface {
	// Transfer moves amount between accounts and returns the transaction id.
	Transfer(ctx context.Context, from, to core.AccountID, amount int64, typ core.TransactionType, description string) (string, error)
	// Balance returns the current balance of one account.
	Balance(ctx context.Context, account core.AccountID) (int64, error)
	// TopContributors returns, per account, the top contributors by total
	// amount since the given time. A zero since means all time.
	TopContributors(ctx context.Context, accounts []core.AccountID, limit int, since time.Time) (map[core.AccountID][]core.Contributor, error)
	// BalanceHistory returns a time-bucketed balance summary per account.
	BalanceHistory(ctx context.Context, accounts []core.AccountID, since time.Time, window core.HistoryWindow) (map[core.AccountID][]core.BalancePoint, error)
}

// Cache is the key-value store used for idempotency markers, cached query
// results, and partner lists.
type Cache interface {
	// Get returns the value and whether the key exists.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	// SetNX sets the key only if absent and reports whether it was set.
	// The cleanup idempotency gate relies on this being atomic.
	SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	Delete(ctx context.Context, key string) error
	ListAppend(ctx context.Context, key string, values ...string) error
	ListRange(ctx context.Context, key string, start, stop int64) ([]string, error)
}

// Store is the relational store holding leaderboard snapshots and
// cosmetic state.
type Store interface {
	core.CosmeticStore

	// EnsureLeaderboards inserts registry rows that do not exist yet.
	// Existing rows are left untouched.
	EnsureLeaderboards(ctx context.Context, defs []core.LeaderboardDef) error
	// ReplaceDayResults atomically deletes the rows for (leaderboardID, day)
	// and inserts the given set. An empty set still performs the delete;
	// partial failure must not leave a half-updated day.
	ReplaceDayResults(ctx context.Context, leaderboardID string, day time.Time, rows []core.LeaderboardResult) error
	// MarkCosmeticWinner persists the winner flag on a cosmetic.
	MarkCosmeticWinner(ctx context.Context, cosmeticID int64) error
	// UnequipCosmetics clears equippedAt for every user wearing any of the
	// given cosmetics.
	UnequipCosmetics(ctx context.Context, cosmeticIDs []int64) error
	// LatestCollectionImage resolves a cover image from a named collection.
	LatestCollectionImage(ctx context.Context, collection string) (url, username string, err error)
}

// Purger invalidates downstream read caches by tag. Purging is
// fire-and-forget; failures are logged, not propagated to batch jobs.
type Purger interface {
	Purge(ctx context.Context, tags []string) error
}

// Clock abstracts wall-clock reads so active-window checks stay
// deterministic under test.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the real wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }
