package memory

import (
	"context"
	"sync"
	"time"

	"seasonkit/core"
)

type cosmeticKey struct {
	user     core.UserID
	cosmetic int64
}

type resultKey struct {
	leaderboardID string
	day           string
}

// Store is an in-memory relational store holding leaderboard registry
// rows, per-day result snapshots, and cosmetic state.
type Store struct {
	mu           sync.Mutex
	leaderboards map[string]core.LeaderboardDef
	results      map[resultKey][]core.LeaderboardResult
	data         map[cosmeticKey]core.UserCosmeticData
	equipped     map[cosmeticKey]*time.Time
	winners      map[int64]bool
	covers       map[string][2]string
}

func NewStore() *Store {
	return &Store{
		leaderboards: map[string]core.LeaderboardDef{},
		results:      map[resultKey][]core.LeaderboardResult{},
		data:         map[cosmeticKey]core.UserCosmeticData{},
		equipped:     map[cosmeticKey]*time.Time{},
		winners:      map[int64]bool{},
		covers:       map[string][2]string{},
	}
}

func dayKey(t time.Time) string { return t.UTC().Format("2006-01-02") }

func (s *Store) EnsureLeaderboards(_ context.Context, defs []core.LeaderboardDef) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range defs {
		if _, exists := s.leaderboards[d.ID]; exists {
			continue
		}
		s.leaderboards[d.ID] = d
	}
	return nil
}

func (s *Store) ReplaceDayResults(_ context.Context, leaderboardID string, day time.Time, rows []core.LeaderboardResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := resultKey{leaderboardID: leaderboardID, day: dayKey(day)}
	delete(s.results, key)
	if len(rows) > 0 {
		s.results[key] = append([]core.LeaderboardResult(nil), rows...)
	}
	return nil
}

func (s *Store) MarkCosmeticWinner(_ context.Context, cosmeticID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.winners[cosmeticID] = true
	return nil
}

func (s *Store) UnequipCosmetics(_ context.Context, cosmeticIDs []int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make(map[int64]struct{}, len(cosmeticIDs))
	for _, id := range cosmeticIDs {
		ids[id] = struct{}{}
	}
	for key := range s.equipped {
		if _, ok := ids[key.cosmetic]; ok {
			s.equipped[key] = nil
		}
	}
	return nil
}

func (s *Store) LatestCollectionImage(_ context.Context, collection string) (string, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cover := s.covers[collection]
	return cover[0], cover[1], nil
}

func (s *Store) UserCosmeticData(_ context.Context, user core.UserID, cosmeticID int64) (core.UserCosmeticData, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data[cosmeticKey{user: user, cosmetic: cosmeticID}], nil
}

func (s *Store) SetCosmeticCounter(_ context.Context, user core.UserID, cosmeticID int64, counter core.CosmeticCounter, value int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := cosmeticKey{user: user, cosmetic: cosmeticID}
	data := s.data[key]
	switch counter {
	case core.CounterDonated:
		data.Donated = value
	case core.CounterPurchased:
		data.Purchased = value
	}
	s.data[key] = data
	return nil
}

// Equip marks a cosmetic as worn by a user. Test/demo seeding helper.
func (s *Store) Equip(user core.UserID, cosmeticID int64, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.equipped[cosmeticKey{user: user, cosmetic: cosmeticID}] = &at
}

// EquippedAt returns when the user equipped the cosmetic, nil if unequipped.
func (s *Store) EquippedAt(user core.UserID, cosmeticID int64) *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.equipped[cosmeticKey{user: user, cosmetic: cosmeticID}]
}

// IsWinner reports whether the cosmetic carries the winner flag.
func (s *Store) IsWinner(cosmeticID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.winners[cosmeticID]
}

// SetCollectionImage seeds a cover image for a collection.
func (s *Store) SetCollectionImage(collection, url, username string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.covers[collection] = [2]string{url, username}
}

// Results returns the snapshot rows for one leaderboard and day.
func (s *Store) Results(leaderboardID string, day time.Time) []core.LeaderboardResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows := s.results[resultKey{leaderboardID: leaderboardID, day: dayKey(day)}]
	return append([]core.LeaderboardResult(nil), rows...)
}

// Leaderboard returns a registry row and whether it exists.
func (s *Store) Leaderboard(id string) (core.LeaderboardDef, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.leaderboards[id]
	return d, ok
}
