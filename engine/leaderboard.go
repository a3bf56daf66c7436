package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"seasonkit/core"
	"seasonkit/leaderboard"
)

// UpdateLeaderboard recomputes the ranked leaderboard snapshots for every
// active event. Intended to run on a recurring schedule. Failures are
// isolated per event so one broken definition cannot block the rest; the
// failed event is simply retried on the next run.
func (e *Engine) UpdateLeaderboard(ctx context.Context) error {
	start := e.clock.Now()
	defer func() { e.metrics.ObserveJob("leaderboard", e.clock.Now().Sub(start)) }()

	var errs []error
	for _, def := range e.registry.Active(start) {
		if err := e.updateEventLeaderboard(ctx, def); err != nil {
			e.log.Error("leaderboard update failed", "event", def.Name, "error", err)
			errs = append(errs, fmt.Errorf("event %s: %w", def.Name, err))
			continue
		}
		e.metrics.LeaderboardUpdated()
		e.bus.Publish(ctx, core.NewLeaderboardUpdated(def.Name))
	}
	return errors.Join(errs...)
}

func (e *Engine) updateEventLeaderboard(ctx context.Context, def core.EventDefinition) error {
	now := e.clock.Now()
	today := day(now)
	teams := accountTeams(def)
	ids := accountIDs(def)

	// Registry rows are insert-if-absent; titles never change after creation.
	defs := make([]core.LeaderboardDef, 0, len(def.Teams)+2)
	for i, scope := range leaderboardScopes(def) {
		title := "Top Donors"
		switch {
		case scope == "day":
			title = "Top Donors Today"
		case scope != "all-time":
			title = fmt.Sprintf("%s Team Top Donors", def.Teams[i-2])
		}
		defs = append(defs, core.LeaderboardDef{
			ID:                 scopeID(def.Name, scope),
			Index:              100 + i,
			Title:              title,
			Description:        "The people that have given the most",
			ScoringDescription: "Amount donated",
		})
	}
	if err := e.store.EnsureLeaderboards(ctx, defs); err != nil {
		return fmt.Errorf("ensure leaderboards: %w", err)
	}

	allTime, err := e.ledger.TopContributors(ctx, ids, contributorLimit, time.Time{})
	if err != nil {
		return fmt.Errorf("all-time contributors: %w", err)
	}

	// Per-team scopes from each team's own all-time list. A team with no
	// contributors still gets its day's rows deleted; an empty leaderboard
	// is valid, not an error.
	byTeam := make(map[string][]core.Contributor, len(def.Teams))
	for i, team := range def.Teams {
		sorted := append([]core.Contributor(nil), allTime[def.TeamAccount(i)]...)
		leaderboard.SortContributors(sorted)
		byTeam[team] = sorted

		id := scopeID(def.Name, strings.ToLower(team))
		rows := leaderboard.Positions(id, today, leaderboard.Truncate(sorted, contributorLimit))
		if err := e.store.ReplaceDayResults(ctx, id, today, rows); err != nil {
			return fmt.Errorf("replace %s: %w", id, err)
		}
	}

	// Cross-team all-time scope.
	allID := scopeID(def.Name, "all-time")
	merged := leaderboard.MergeContributors(byTeam, contributorLimit)
	if err := e.store.ReplaceDayResults(ctx, allID, today, leaderboard.Positions(allID, today, merged)); err != nil {
		return fmt.Errorf("replace %s: %w", allID, err)
	}

	// Cross-team trailing 24 hours.
	dayContrib, err := e.ledger.TopContributors(ctx, ids, contributorLimit, now.Add(-24*time.Hour))
	if err != nil {
		return fmt.Errorf("day contributors: %w", err)
	}
	dayByTeam := make(map[string][]core.Contributor, len(def.Teams))
	for account, contributors := range dayContrib {
		dayByTeam[teams[account]] = contributors
	}
	dayID := scopeID(def.Name, "day")
	mergedDay := leaderboard.MergeContributors(dayByTeam, contributorLimit)
	if err := e.store.ReplaceDayResults(ctx, dayID, today, leaderboard.Positions(dayID, today, mergedDay)); err != nil {
		return fmt.Errorf("replace %s: %w", dayID, err)
	}

	// Invalidate the contributor query cache, then downstream CDN tags.
	if err := e.cache.Delete(ctx, contributorsKey(def.Name)); err != nil {
		e.log.Warn("contributor cache delete failed", "event", def.Name, "error", err)
	}
	if e.purger != nil {
		tags := []string{"event-contributors-" + def.Name}
		for _, scope := range leaderboardScopes(def) {
			tags = append(tags, scopeID(def.Name, scope))
		}
		if err := e.purger.Purge(ctx, tags); err != nil {
			e.log.Warn("cache purge failed", "event", def.Name, "error", err)
		}
	}
	return nil
}
