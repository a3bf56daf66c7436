// Package events holds the built-in seasonal event definitions shipped
// with the server binary. Definitions are pure configuration plus hooks;
// anything environment-specific (cosmetic IDs, collections) comes in
// through HolidayOptions.
package events

import (
	"context"
	"hash/fnv"
	"time"

	"seasonkit/core"
)

// HolidayOptions binds a holiday event to environment-specific assets.
type HolidayOptions struct {
	// CosmeticIDs maps full cosmetic names ("Holiday Garland - Red") to IDs.
	CosmeticIDs map[string]int64
	// WinnerCosmeticIDs maps team names to the cosmetic flagged on a win.
	WinnerCosmeticIDs map[string]int64
	// UserCosmeticID resolves a user's equipped event cosmetic; nil means
	// every participant wears the garland resolved via CosmeticIDs.
	UserCosmeticID func(ctx context.Context, user core.UserID) (int64, error)
}

var holidayTeams = []string{"Yellow", "Red", "Green", "Blue"}

// Holiday2026 is the winter donation drive. Users are assigned a stable
// team color, donations light up the team garland, and the winning team's
// cosmetic is flagged when the event closes.
func Holiday2026(opts HolidayOptions) core.EventDefinition {
	def := core.EventDefinition{
		Name:                 "holiday2026",
		Title:                "Get Lit & Give Back",
		StartDate:            time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC),
		EndDate:              time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC),
		Teams:                holidayTeams,
		BankIndex:            -2026120,
		CosmeticName:         "Holiday Garland",
		CoverImage:           "/images/events/holiday2026.jpg",
		CoverImageCollection: "Holiday 2026 Showcase",
		GetUserTeam:          stableTeam(holidayTeams),
	}

	def.GetCosmeticID = func(_ context.Context, name string) (int64, error) {
		return opts.CosmeticIDs[name], nil
	}
	def.GetTeamWinnerCosmeticID = func(_ context.Context, team string) (int64, error) {
		return opts.WinnerCosmeticIDs[team], nil
	}
	if opts.UserCosmeticID != nil {
		def.GetUserCosmeticID = opts.UserCosmeticID
	} else {
		def.GetUserCosmeticID = func(_ context.Context, user core.UserID) (int64, error) {
			team := def.GetUserTeam(user)
			return opts.CosmeticIDs[def.TeamCosmeticName(team)], nil
		}
	}

	def.GetRewards = func(_ context.Context) ([]core.Reward, error) {
		return []core.Reward{
			{Title: "Gold Garland", Description: "Donate 50k over the event", CosmeticID: opts.CosmeticIDs["Holiday Garland - Gold"], Threshold: 50000},
			{Title: "Silver Garland", Description: "Donate 25k over the event", CosmeticID: opts.CosmeticIDs["Holiday Garland - Silver"], Threshold: 25000},
			{Title: "Bronze Garland", Description: "Donate 10k over the event", CosmeticID: opts.CosmeticIDs["Holiday Garland - Bronze"], Threshold: 10000},
		}, nil
	}

	return def
}

// BuiltIn returns every shipped event definition. The engine registry
// filters by date at call time, so completed events can simply be removed
// from this list on the next deploy.
func BuiltIn() []core.EventDefinition {
	return []core.EventDefinition{
		Holiday2026(HolidayOptions{}),
	}
}

// stableTeam assigns users to teams by hashing the user id, so the
// assignment never changes between calls or processes.
func stableTeam(teams []string) func(core.UserID) string {
	return func(user core.UserID) string {
		h := fnv.New32a()
		var buf [8]byte
		v := uint64(user)
		for i := 0; i < 8; i++ {
			buf[i] = byte(v >> (8 * i))
		}
		_, _ = h.Write(buf[:])
		return teams[h.Sum32()%uint32(len(teams))]
	}
}
