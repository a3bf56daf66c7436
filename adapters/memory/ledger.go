package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"seasonkit/core"
	"seasonkit/leaderboard"
)

type transfer struct {
	user   core.UserID
	amount int64
	at     time.Time
}

// Ledger is an in-memory transaction service for tests and demos. It
// keeps per-account balances, a timestamped contribution log, and a
// skip-list contributor board per account for fast all-time rankings.
type Ledger struct {
	mu       sync.Mutex
	balances map[core.AccountID]int64
	log      map[core.AccountID][]transfer
	boards   map[core.AccountID]*leaderboard.SkipList
	totals   map[core.AccountID]map[core.UserID]int64
	nextTx   int64

	// Now is the clock used to stamp transfers; override in tests.
	Now func() time.Time
}

func NewLedger() *Ledger {
	return &Ledger{
		balances: map[core.AccountID]int64{},
		log:      map[core.AccountID][]transfer{},
		boards:   map[core.AccountID]*leaderboard.SkipList{},
		totals:   map[core.AccountID]map[core.UserID]int64{},
		Now:      time.Now,
	}
}

// Deposit seeds an account balance directly, bypassing the transfer log.
func (l *Ledger) Deposit(account core.AccountID, amount int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances[account] += amount
}

func (l *Ledger) Transfer(_ context.Context, from, to core.AccountID, amount int64, _ core.TransactionType, _ string) (string, error) {
	if amount <= 0 {
		return "", fmt.Errorf("invalid transfer amount %d", amount)
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	l.balances[from] -= amount
	l.balances[to] += amount

	user := core.UserID(from)
	l.log[to] = append(l.log[to], transfer{user: user, amount: amount, at: l.Now()})

	if l.totals[to] == nil {
		l.totals[to] = map[core.UserID]int64{}
	}
	l.totals[to][user] += amount
	if l.boards[to] == nil {
		l.boards[to] = leaderboard.NewSkipList()
	}
	l.boards[to].Update(user, l.totals[to][user])

	l.nextTx++
	return fmt.Sprintf("tx-%d", l.nextTx), nil
}

func (l *Ledger) Balance(_ context.Context, account core.AccountID) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[account], nil
}

func (l *Ledger) TopContributors(_ context.Context, accounts []core.AccountID, limit int, since time.Time) (map[core.AccountID][]core.Contributor, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make(map[core.AccountID][]core.Contributor, len(accounts))
	for _, account := range accounts {
		if since.IsZero() {
			// All-time totals come straight off the board.
			if board := l.boards[account]; board != nil {
				for _, e := range board.TopN(limit) {
					out[account] = append(out[account], core.Contributor{UserID: e.User, Amount: e.Score})
				}
			} else {
				out[account] = nil
			}
			continue
		}

		windowTotals := map[core.UserID]int64{}
		for _, t := range l.log[account] {
			if t.at.Before(since) {
				continue
			}
			windowTotals[t.user] += t.amount
		}
		var contributors []core.Contributor
		for user, amount := range windowTotals {
			contributors = append(contributors, core.Contributor{UserID: user, Amount: amount})
		}
		leaderboard.SortContributors(contributors)
		out[account] = leaderboard.Truncate(contributors, limit)
	}
	return out, nil
}

func (l *Ledger) BalanceHistory(_ context.Context, accounts []core.AccountID, since time.Time, window core.HistoryWindow) (map[core.AccountID][]core.BalancePoint, error) {
	step := windowStep(window)
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make(map[core.AccountID][]core.BalancePoint, len(accounts))
	for _, account := range accounts {
		var points []core.BalancePoint
		var running int64
		for cursor := since; !cursor.After(l.Now()); cursor = cursor.Add(step) {
			end := cursor.Add(step)
			for _, t := range l.log[account] {
				if !t.at.Before(cursor) && t.at.Before(end) {
					running += t.amount
				}
			}
			points = append(points, core.BalancePoint{Date: cursor, Balance: running})
		}
		out[account] = points
	}
	return out, nil
}

func windowStep(window core.HistoryWindow) time.Duration {
	switch window {
	case core.WindowHour:
		return time.Hour
	case core.WindowWeek:
		return 7 * 24 * time.Hour
	case core.WindowMonth:
		return 30 * 24 * time.Hour
	default:
		return 24 * time.Hour
	}
}
