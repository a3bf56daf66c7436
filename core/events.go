package core

import "time"

// EventType enumerates engine notification events.
type EventType string

const (
	EventEngagementProcessed EventType = "engagement_processed"
	EventDonationRecorded    EventType = "donation_recorded"
	EventPurchaseRecorded    EventType = "purchase_recorded"
	EventLeaderboardUpdated  EventType = "leaderboard_updated"
	EventCleanupCompleted    EventType = "cleanup_completed"
	EventDailyResetRun       EventType = "daily_reset_run"
)

// Event is an immutable notification published after engine operations.
type Event struct {
	Type     EventType      `json:"type"`
	Time     time.Time      `json:"time"`
	Event    string         `json:"event,omitempty"`
	UserID   UserID         `json:"user_id,omitempty"`
	Team     string         `json:"team,omitempty"`
	Amount   int64          `json:"amount,omitempty"`
	Winner   string         `json:"winner,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

func NewEngagementProcessed(signal string, user UserID) Event {
	return Event{Type: EventEngagementProcessed, Time: time.Now().UTC(), UserID: user, Metadata: map[string]any{"signal": signal}}
}

func NewDonationRecorded(event string, user UserID, team string, amount int64) Event {
	return Event{Type: EventDonationRecorded, Time: time.Now().UTC(), Event: event, UserID: user, Team: team, Amount: amount}
}

func NewPurchaseRecorded(event string, user UserID, amount int64) Event {
	return Event{Type: EventPurchaseRecorded, Time: time.Now().UTC(), Event: event, UserID: user, Amount: amount}
}

func NewLeaderboardUpdated(event string) Event {
	return Event{Type: EventLeaderboardUpdated, Time: time.Now().UTC(), Event: event}
}

func NewCleanupCompleted(event string, winner string) Event {
	return Event{Type: EventCleanupCompleted, Time: time.Now().UTC(), Event: event, Winner: winner}
}

func NewDailyResetRun(event string) Event {
	return Event{Type: EventDailyResetRun, Time: time.Now().UTC(), Event: event}
}
