package leaderboard

import (
	"sort"
	"time"

	"seasonkit/core"
)

// Entry represents a score entry.
type Entry struct {
	User  core.UserID
	Score int64
}

// Board abstracts an ordered score index.
type Board interface {
	Update(user core.UserID, score int64)
	Remove(user core.UserID)
	TopN(n int) []Entry
	Get(user core.UserID) (Entry, bool)
}

// RankTeams sorts scores descending and assigns 1-based ranks. The sort
// is stable, so equal scores keep the original configuration order.
func RankTeams(scores []core.TeamScore) []core.TeamScore {
	ranked := make([]core.TeamScore, len(scores))
	copy(ranked, scores)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	for i := range ranked {
		ranked[i].Rank = i + 1
	}
	return ranked
}

// SortContributors orders contributors by amount descending. Ties break
// by ascending user id, keeping the ordering deterministic across runs.
func SortContributors(contributors []core.Contributor) {
	sort.SliceStable(contributors, func(i, j int) bool {
		if contributors[i].Amount == contributors[j].Amount {
			return contributors[i].UserID < contributors[j].UserID
		}
		return contributors[i].Amount > contributors[j].Amount
	})
}

// MergeContributors flattens per-team contributor lists into a single
// ranking, sorted descending by amount and truncated to limit.
func MergeContributors(lists map[string][]core.Contributor, limit int) []core.Contributor {
	teams := make([]string, 0, len(lists))
	for team := range lists {
		teams = append(teams, team)
	}
	sort.Strings(teams)

	var merged []core.Contributor
	for _, team := range teams {
		for _, c := range lists[team] {
			c.Team = team
			merged = append(merged, c)
		}
	}
	SortContributors(merged)
	return Truncate(merged, limit)
}

// Truncate caps a contributor list at limit entries.
func Truncate(contributors []core.Contributor, limit int) []core.Contributor {
	if limit > 0 && len(contributors) > limit {
		return contributors[:limit]
	}
	return contributors
}

// Positions projects a sorted contributor list onto persisted result rows
// for one leaderboard and day, assigning positions 1..n.
func Positions(leaderboardID string, day time.Time, contributors []core.Contributor) []core.LeaderboardResult {
	rows := make([]core.LeaderboardResult, 0, len(contributors))
	for i, c := range contributors {
		rows = append(rows, core.LeaderboardResult{
			LeaderboardID: leaderboardID,
			Date:          day,
			UserID:        c.UserID,
			Score:         c.Amount,
			Position:      i + 1,
		})
	}
	return rows
}
