package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"seasonkit/core"
	"seasonkit/leaderboard"
)

// TopContributors returns the composite contributor view for an event:
// merged all-time, merged trailing-24h, and the per-team breakdown.
// Results are cached per event for 24 hours; the leaderboard job deletes
// the cache entry after every recomputation, so staleness is bounded by
// one recomputation cycle or the TTL, whichever is sooner.
func (e *Engine) TopContributors(ctx context.Context, event string, limit int) (core.TopContributors, error) {
	def, err := e.registry.ByName(event)
	if err != nil {
		return core.TopContributors{}, err
	}
	if limit <= 0 {
		limit = defaultTopLimit
	}

	if cached, ok, err := e.cache.Get(ctx, contributorsKey(def.Name)); err != nil {
		e.log.Warn("contributor cache read failed", "event", def.Name, "error", err)
	} else if ok {
		var out core.TopContributors
		if err := json.Unmarshal([]byte(cached), &out); err == nil {
			return out, nil
		}
		// Corrupt entry: fall through and recompute.
	}

	teams := accountTeams(def)
	ids := accountIDs(def)

	allTime, err := e.ledger.TopContributors(ctx, ids, limit, time.Time{})
	if err != nil {
		return core.TopContributors{}, fmt.Errorf("event %s: all-time contributors: %w", def.Name, err)
	}
	byTeam := make(map[string][]core.Contributor, len(def.Teams))
	for account, contributors := range allTime {
		team := teams[account]
		tagged := make([]core.Contributor, 0, len(contributors))
		for _, c := range contributors {
			c.Team = team
			tagged = append(tagged, c)
		}
		leaderboard.SortContributors(tagged)
		byTeam[team] = tagged
	}

	dayContrib, err := e.ledger.TopContributors(ctx, ids, limit, e.clock.Now().Add(-24*time.Hour))
	if err != nil {
		return core.TopContributors{}, fmt.Errorf("event %s: day contributors: %w", def.Name, err)
	}
	dayByTeam := make(map[string][]core.Contributor, len(def.Teams))
	for account, contributors := range dayContrib {
		dayByTeam[teams[account]] = contributors
	}

	result := core.TopContributors{
		AllTime: leaderboard.MergeContributors(byTeam, limit),
		Day:     leaderboard.MergeContributors(dayByTeam, limit),
		Teams:   byTeam,
	}

	if payload, err := json.Marshal(result); err == nil {
		if err := e.cache.Set(ctx, contributorsKey(def.Name), string(payload), contributorCacheTTL); err != nil {
			e.log.Warn("contributor cache write failed", "event", def.Name, "error", err)
		}
	}
	return result, nil
}

// Partners returns the sponsor entries recorded against an event.
func (e *Engine) Partners(ctx context.Context, event string) ([]core.Partner, error) {
	def, err := e.registry.ByName(event)
	if err != nil {
		return nil, err
	}
	raw, err := e.cache.ListRange(ctx, partnersKey(def.Name), 0, -1)
	if err != nil {
		return nil, fmt.Errorf("event %s: partners: %w", def.Name, err)
	}
	partners := make([]core.Partner, 0, len(raw))
	for _, item := range raw {
		var p core.Partner
		if err := json.Unmarshal([]byte(item), &p); err != nil {
			continue // skip malformed entries
		}
		partners = append(partners, p)
	}
	return partners, nil
}

// RecordPartner appends a sponsor entry to the event's partner list.
func (e *Engine) RecordPartner(ctx context.Context, event string, partner core.Partner) error {
	def, err := e.registry.ByName(event)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(partner)
	if err != nil {
		return fmt.Errorf("encode partner: %w", err)
	}
	if err := e.cache.ListAppend(ctx, partnersKey(def.Name), string(payload)); err != nil {
		return fmt.Errorf("event %s: record partner: %w", def.Name, err)
	}
	return nil
}
