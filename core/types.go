package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// UserID identifies a user account. Ledger accounts and users share the
// same numeric space: a user's personal ledger account id equals their
// user id.
type UserID int64

// AccountID identifies an account in the external ledger service.
type AccountID int64

// TransactionType tags a ledger transfer.
type TransactionType string

const (
	TransactionDonation TransactionType = "donation"
	TransactionPurchase TransactionType = "purchase"
)

// HistoryWindow selects the bucketing granularity for balance summaries.
type HistoryWindow string

const (
	WindowHour  HistoryWindow = "hour"
	WindowDay   HistoryWindow = "day"
	WindowWeek  HistoryWindow = "week"
	WindowMonth HistoryWindow = "month"
)

// ErrInvalidWindow is returned for unknown history windows.
var ErrInvalidWindow = errors.New("invalid history window")

// ValidateWindow checks that w is a known history window.
func ValidateWindow(w HistoryWindow) error {
	switch w {
	case WindowHour, WindowDay, WindowWeek, WindowMonth:
		return nil
	}
	return fmt.Errorf("%w: %q", ErrInvalidWindow, w)
}

// TeamScore is a team's current ledger balance with a 1-based rank.
// Ranks are ephemeral and recomputed on demand; ties keep the original
// team configuration order.
type TeamScore struct {
	Team  string `json:"team"`
	Score int64  `json:"score"`
	Rank  int    `json:"rank"`
}

// Contributor is a single user's contribution total to a team account.
type Contributor struct {
	UserID UserID `json:"user_id"`
	Amount int64  `json:"amount"`
	Team   string `json:"team,omitempty"`
}

// TopContributors is the cached composite view of contributor rankings
// for one event: merged all-time, merged trailing-24h, and the raw
// per-team all-time breakdown.
type TopContributors struct {
	AllTime []Contributor            `json:"all_time"`
	Day     []Contributor            `json:"day"`
	Teams   map[string][]Contributor `json:"teams"`
}

// LeaderboardDef is a leaderboard registry row. Rows are created with
// insert-if-absent semantics and never overwritten afterwards.
type LeaderboardDef struct {
	ID                 string `json:"id" db:"id"`
	Index              int    `json:"index" db:"idx"`
	Title              string `json:"title" db:"title"`
	Description        string `json:"description" db:"description"`
	ScoringDescription string `json:"scoring_description" db:"scoring_description"`
}

// LeaderboardResult is one persisted ranked row. The set of rows for a
// given (LeaderboardID, Date) is always replaced whole, never merged.
type LeaderboardResult struct {
	LeaderboardID string    `json:"leaderboard_id" db:"leaderboard_id"`
	Date          time.Time `json:"date" db:"date"`
	UserID        UserID    `json:"user_id" db:"user_id"`
	Score         int64     `json:"score" db:"score"`
	Position      int       `json:"position" db:"position"`
}

// UserCosmeticData is the opaque per-(user, cosmetic) attachment payload.
// Both counters are monotonically non-decreasing. They are a denormalized
// cache of ledger activity for fast reward-threshold checks; the ledger
// stays authoritative for monetary totals.
type UserCosmeticData struct {
	Donated   int64 `json:"donated,omitempty"`
	Purchased int64 `json:"purchased,omitempty"`
}

// CosmeticCounter names one of the UserCosmeticData counters.
type CosmeticCounter string

const (
	CounterDonated   CosmeticCounter = "donated"
	CounterPurchased CosmeticCounter = "purchased"
)

// BalancePoint is one bucket of an account balance summary.
type BalancePoint struct {
	Date    time.Time `json:"date"`
	Balance int64     `json:"balance"`
}

// ScorePoint projects a balance bucket onto the team-score view.
type ScorePoint struct {
	Date  time.Time `json:"date"`
	Score int64     `json:"score"`
}

// TeamScoreHistory is a read-only time series of one team's score.
type TeamScoreHistory struct {
	Team   string       `json:"team"`
	Scores []ScorePoint `json:"scores"`
}

// Reward is one entry of an event's reward table.
type Reward struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	CosmeticID  int64  `json:"cosmetic_id"`
	Threshold   int64  `json:"threshold,omitempty"`
}

// Partner is a sponsor entry attached to an event.
type Partner struct {
	Title  string `json:"title"`
	Amount int64  `json:"amount"`
	Image  string `json:"image,omitempty"`
	URL    string `json:"url,omitempty"`
}

// EngagementSignal is an opaque engagement notification forwarded to
// every active event definition's OnEngagement hook.
type EngagementSignal struct {
	Type    string         `json:"type"`
	UserID  UserID         `json:"user_id"`
	Payload map[string]any `json:"payload,omitempty"`
}

// DonationReceipt is returned to the caller after a successful donation.
type DonationReceipt struct {
	Team      string    `json:"team"`
	Title     string    `json:"title"`
	AccountID AccountID `json:"account_id"`
}

// EventData is the public description of one event.
type EventData struct {
	Title          string    `json:"title"`
	StartDate      time.Time `json:"start_date"`
	EndDate        time.Time `json:"end_date"`
	Teams          []string  `json:"teams"`
	CosmeticName   string    `json:"cosmetic_name"`
	CoverImage     string    `json:"cover_image,omitempty"`
	CoverImageUser string    `json:"cover_image_user,omitempty"`
}

// UserData is a user's standing within one event.
type UserData struct {
	CosmeticID int64     `json:"cosmetic_id,omitempty"`
	Team       string    `json:"team,omitempty"`
	AccountID  AccountID `json:"account_id,omitempty"`
}

// CosmeticStore is the storage handle passed into event hooks. It is the
// minimal cosmetic-attachment surface, so definitions stay decoupled from
// the engine's full storage contract.
type CosmeticStore interface {
	// UserCosmeticData returns the attachment data for (user, cosmetic),
	// zero-valued when no row exists.
	UserCosmeticData(ctx context.Context, user UserID, cosmeticID int64) (UserCosmeticData, error)
	// SetCosmeticCounter writes back a single counter field, creating the
	// attachment row if needed.
	SetCosmeticCounter(ctx context.Context, user UserID, cosmeticID int64, counter CosmeticCounter, value int64) error
}

// ValidateEventName ensures a non-empty name with a URL- and key-safe charset.
func ValidateEventName(name string) error {
	s := strings.TrimSpace(name)
	if s == "" {
		return errors.New("empty event name")
	}
	for _, r := range s {
		if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '-' || r == '_' {
			continue
		}
		return fmt.Errorf("invalid event name %q", name)
	}
	return nil
}

// ErrInvalidAmount is returned for non-positive monetary amounts.
var ErrInvalidAmount = errors.New("amount must be positive")

// ValidateAmount rejects non-positive monetary amounts.
func ValidateAmount(amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	return nil
}
