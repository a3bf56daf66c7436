package events

import (
	"context"
	"testing"

	"seasonkit/core"
)

func TestHoliday2026Valid(t *testing.T) {
	def := Holiday2026(HolidayOptions{})
	if err := def.Validate(); err != nil {
		t.Fatalf("definition should validate: %v", err)
	}
}

func TestStableTeamAssignment(t *testing.T) {
	def := Holiday2026(HolidayOptions{})

	seen := map[string]bool{}
	for user := core.UserID(1); user <= 200; user++ {
		team := def.GetUserTeam(user)
		if team == "" {
			t.Fatalf("user %d got no team", user)
		}
		if again := def.GetUserTeam(user); again != team {
			t.Fatalf("user %d team changed: %s then %s", user, team, again)
		}
		seen[team] = true
	}
	// 200 users should land on every color.
	if len(seen) != len(holidayTeams) {
		t.Fatalf("expected all %d teams used, got %v", len(holidayTeams), seen)
	}
}

func TestHolidayCosmeticResolution(t *testing.T) {
	opts := HolidayOptions{
		CosmeticIDs: map[string]int64{
			"Holiday Garland - Red":  11,
			"Holiday Garland - Blue": 12,
		},
		WinnerCosmeticIDs: map[string]int64{"Red": 1000},
	}
	def := Holiday2026(opts)
	ctx := context.Background()

	id, err := def.GetCosmeticID(ctx, "Holiday Garland - Red")
	if err != nil || id != 11 {
		t.Fatalf("cosmetic id got %d err=%v", id, err)
	}
	id, err = def.GetCosmeticID(ctx, "Holiday Garland - Purple")
	if err != nil || id != 0 {
		t.Fatalf("unknown cosmetic should resolve to 0, got %d err=%v", id, err)
	}
	id, err = def.GetTeamWinnerCosmeticID(ctx, "Red")
	if err != nil || id != 1000 {
		t.Fatalf("winner cosmetic got %d err=%v", id, err)
	}

	// default user cosmetic resolver follows the team garland
	var user core.UserID
	for user = 1; def.GetUserTeam(user) != "Red"; user++ {
	}
	id, err = def.GetUserCosmeticID(ctx, user)
	if err != nil || id != 11 {
		t.Fatalf("user cosmetic got %d err=%v", id, err)
	}
}

func TestHolidayRewards(t *testing.T) {
	def := Holiday2026(HolidayOptions{CosmeticIDs: map[string]int64{"Holiday Garland - Gold": 31}})
	rewards, err := def.GetRewards(context.Background())
	if err != nil {
		t.Fatalf("rewards: %v", err)
	}
	if len(rewards) != 3 || rewards[0].CosmeticID != 31 || rewards[0].Threshold != 50000 {
		t.Fatalf("unexpected rewards: %+v", rewards)
	}
}
