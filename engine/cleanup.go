package engine

import (
	"context"
	"errors"
	"fmt"

	"seasonkit/core"
)

// DailyReset runs the once-per-day maintenance pass over every configured
// event. Ongoing events get their OnDailyReset hook; ended events get a
// once-only cleanup (winner marking, bulk cosmetic unequip, OnCleanup)
// gated by an idempotency marker in the cache store. Failures are isolated
// per event.
func (e *Engine) DailyReset(ctx context.Context) error {
	start := e.clock.Now()
	defer func() { e.metrics.ObserveJob("daily_reset", e.clock.Now().Sub(start)) }()

	var errs []error
	for _, def := range e.registry.All() {
		// Ignore events that aren't active yet.
		if !def.Started(e.clock.Now()) {
			continue
		}
		if err := e.resetEvent(ctx, def); err != nil {
			e.log.Error("daily reset failed", "event", def.Name, "error", err)
			errs = append(errs, fmt.Errorf("event %s: %w", def.Name, err))
		}
	}
	return errors.Join(errs...)
}

func (e *Engine) resetEvent(ctx context.Context, def core.EventDefinition) error {
	scores, err := e.teamScores(ctx, def)
	if err != nil {
		return err
	}

	if def.Ended(e.clock.Now()) {
		if err := e.cleanupEvent(ctx, def, scores); err != nil {
			return err
		}
	} else if def.OnDailyReset != nil && len(scores) > 0 {
		if err := def.OnDailyReset(ctx, core.ScoreContext{Scores: scores, Cosmetics: e.store}); err != nil {
			e.metrics.HookError("onDailyReset")
			return hookErr(def.Name, "onDailyReset", err)
		}
		e.bus.Publish(ctx, core.NewDailyResetRun(def.Name))
	}

	// Transient per-day scratch state is discarded regardless of branch.
	if def.ClearKeys != nil {
		if err := def.ClearKeys(ctx); err != nil {
			e.metrics.HookError("clearKeys")
			return hookErr(def.Name, "clearKeys", err)
		}
	}
	return nil
}

// cleanupEvent performs the irreversible end-of-event work at most once
// per marker window. The marker is claimed atomically up front so two
// concurrent resets cannot both pass the gate, and released again if the
// cleanup fails so the next scheduled run retries it.
func (e *Engine) cleanupEvent(ctx context.Context, def core.EventDefinition, scores []core.TeamScore) error {
	claimed, err := e.cache.SetNX(ctx, cleanupKey(def.Name), "true", cleanupMarkerTTL)
	if err != nil {
		return fmt.Errorf("cleanup marker: %w", err)
	}
	if !claimed {
		e.metrics.CleanupRun("skipped")
		return nil
	}

	if err := e.runCleanup(ctx, def, scores); err != nil {
		if delErr := e.cache.Delete(ctx, cleanupKey(def.Name)); delErr != nil {
			e.log.Error("cleanup marker release failed", "event", def.Name, "error", delErr)
		}
		e.metrics.CleanupRun("failed")
		return err
	}
	e.metrics.CleanupRun("completed")
	return nil
}

func (e *Engine) runCleanup(ctx context.Context, def core.EventDefinition, scores []core.TeamScore) error {
	var winner string
	for _, s := range scores {
		if s.Rank == 1 {
			winner = s.Team
			break
		}
	}
	if winner == "" {
		return fmt.Errorf("no winning team for %s", def.Name)
	}

	// Flag the winning team's cosmetic.
	var winnerCosmeticID int64
	if def.GetTeamWinnerCosmeticID != nil {
		id, err := def.GetTeamWinnerCosmeticID(ctx, winner)
		if err != nil {
			return hookErr(def.Name, "getTeamWinnerCosmeticId", err)
		}
		winnerCosmeticID = id
	}
	if winnerCosmeticID != 0 {
		if err := e.store.MarkCosmeticWinner(ctx, winnerCosmeticID); err != nil {
			return fmt.Errorf("mark winner cosmetic: %w", err)
		}
	}

	// Unequip every event cosmetic across all teams.
	if def.GetCosmeticID != nil {
		var cosmeticIDs []int64
		for _, team := range def.Teams {
			id, err := def.GetCosmeticID(ctx, def.TeamCosmeticName(team))
			if err != nil {
				return hookErr(def.Name, "getCosmeticIdByName", err)
			}
			if id != 0 {
				cosmeticIDs = append(cosmeticIDs, id)
			}
		}
		if len(cosmeticIDs) > 0 {
			if err := e.store.UnequipCosmetics(ctx, cosmeticIDs); err != nil {
				return fmt.Errorf("unequip cosmetics: %w", err)
			}
		}
	}

	if def.OnCleanup != nil {
		cc := core.CleanupContext{
			Scores:           scores,
			Winner:           winner,
			WinnerCosmeticID: winnerCosmeticID,
			Cosmetics:        e.store,
		}
		if err := def.OnCleanup(ctx, cc); err != nil {
			e.metrics.HookError("onCleanup")
			return hookErr(def.Name, "onCleanup", err)
		}
	}

	e.log.Info("event cleaned up", "event", def.Name, "winner", winner)
	e.bus.Publish(ctx, core.NewCleanupCompleted(def.Name, winner))
	return nil
}
