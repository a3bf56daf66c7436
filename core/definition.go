package core

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// EventDefinition is an immutable configuration-plus-behavior bundle
// describing one promotional event. Definitions are constructed once at
// process start and never mutated.
//
// Behavior capabilities are optional function fields; a nil capability is
// a no-op at every call site, never an error. GetUserTeam must be a pure
// function of the user so team assignment stays stable across calls.
type EventDefinition struct {
	Name                 string
	Title                string
	StartDate            time.Time
	EndDate              time.Time
	Teams                []string
	BankIndex            AccountID
	CosmeticName         string
	CoverImage           string
	CoverImageCollection string

	OnEngagement func(ctx context.Context, ec EngagementContext) error
	OnDailyReset func(ctx context.Context, sc ScoreContext) error
	OnCleanup    func(ctx context.Context, cc CleanupContext) error
	OnDonate     func(ctx context.Context, cc ContributionContext) error
	OnPurchase   func(ctx context.Context, cc ContributionContext) error

	// GetCosmeticID resolves a cosmetic by its full name; 0 means none.
	GetCosmeticID func(ctx context.Context, name string) (int64, error)
	// GetTeamWinnerCosmeticID resolves the cosmetic that gets the winner
	// flag when the given team finishes first.
	GetTeamWinnerCosmeticID func(ctx context.Context, team string) (int64, error)
	// GetUserCosmeticID resolves the per-user event cosmetic; 0 means the
	// user has none and counter updates are skipped.
	GetUserCosmeticID func(ctx context.Context, user UserID) (int64, error)
	// GetUserTeam deterministically assigns a user to a team; empty means
	// no team for this event.
	GetUserTeam func(user UserID) string

	GetRewards func(ctx context.Context) ([]Reward, error)
	// ClearKeys discards the event's per-day scratch state. Invoked at the
	// end of every daily reset regardless of branch.
	ClearKeys func(ctx context.Context) error
}

// EngagementContext bundles an engagement signal with a storage handle.
type EngagementContext struct {
	Signal    EngagementSignal
	Cosmetics CosmeticStore
}

// ScoreContext carries the current ranking into OnDailyReset.
type ScoreContext struct {
	Scores    []TeamScore
	Cosmetics CosmeticStore
}

// CleanupContext carries the final standings into OnCleanup.
type CleanupContext struct {
	Scores           []TeamScore
	Winner           string
	WinnerCosmeticID int64
	Cosmetics        CosmeticStore
}

// ContributionContext carries a donation or purchase into the matching
// hook, including the already-updated attachment counters.
type ContributionContext struct {
	UserID    UserID
	Amount    int64
	Data      UserCosmeticData
	Cosmetics CosmeticStore
}

// Active reports whether now falls in the half-open window [start, end).
func (d EventDefinition) Active(now time.Time) bool {
	return !now.Before(d.StartDate) && now.Before(d.EndDate)
}

// Started reports whether the event window has begun.
func (d EventDefinition) Started(now time.Time) bool {
	return !now.Before(d.StartDate)
}

// Ended reports whether the event window has closed.
func (d EventDefinition) Ended(now time.Time) bool {
	return !now.Before(d.EndDate)
}

// TeamAccount derives the ledger account for the team at index i.
func (d EventDefinition) TeamAccount(i int) AccountID {
	return d.BankIndex - AccountID(i)
}

// TeamCosmeticName is the full cosmetic name for one team.
func (d EventDefinition) TeamCosmeticName(team string) string {
	return fmt.Sprintf("%s - %s", d.CosmeticName, team)
}

// Validate checks the static configuration half of the definition.
func (d EventDefinition) Validate() error {
	if err := ValidateEventName(d.Name); err != nil {
		return err
	}
	if d.Title == "" {
		return fmt.Errorf("event %s: empty title", d.Name)
	}
	if !d.EndDate.After(d.StartDate) {
		return fmt.Errorf("event %s: end date must be after start date", d.Name)
	}
	if len(d.Teams) == 0 {
		return fmt.Errorf("event %s: no teams configured", d.Name)
	}
	seen := make(map[string]struct{}, len(d.Teams))
	for _, team := range d.Teams {
		if team == "" {
			return fmt.Errorf("event %s: empty team name", d.Name)
		}
		if _, dup := seen[team]; dup {
			return fmt.Errorf("event %s: duplicate team %q", d.Name, team)
		}
		seen[team] = struct{}{}
	}
	if d.BankIndex >= 0 {
		return errors.New("event " + d.Name + ": bank index must be negative")
	}
	return nil
}
