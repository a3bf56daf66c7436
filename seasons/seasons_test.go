package seasons

import (
	"context"
	"testing"
	"time"

	mem "seasonkit/adapters/memory"
	"seasonkit/core"
	"seasonkit/engine"
	"seasonkit/realtime"
)

func testDef() core.EventDefinition {
	return core.EventDefinition{
		Name:      "holiday2024",
		Title:     "Holiday Garland",
		StartDate: time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		Teams:     []string{"Red", "Green"},
		BankIndex: -100,
		GetUserTeam: func(user core.UserID) string {
			if user%2 == 0 {
				return "Red"
			}
			return "Green"
		},
	}
}

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

func TestNewDefaultsAndOptions(t *testing.T) {
	hub := realtime.NewHub()
	ledger := mem.NewLedger()
	eng, err := New([]core.EventDefinition{testDef()},
		WithRealtime(hub),
		WithLedger(ledger),
		WithDispatchMode(engine.DispatchSync),
		WithClock(fixedClock{time.Date(2024, 12, 20, 12, 0, 0, 0, time.UTC)}),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer eng.Close()

	// basic operation
	_, ch := hub.Subscribe(1)
	receipt, err := eng.Donate(context.Background(), "holiday2024", 2, 50)
	if err != nil || receipt.Team != "Red" {
		t.Fatalf("donate receipt=%+v err=%v", receipt, err)
	}

	// realtime bridge should receive the notification
	ev := <-ch
	if ev.Type != core.EventDonationRecorded || ev.UserID != 2 {
		t.Fatalf("unexpected event: %+v", ev)
	}
}

func TestInMemoryDefaults(t *testing.T) {
	eng, err := New([]core.EventDefinition{testDef()},
		WithDispatchMode(engine.DispatchSync),
		WithClock(fixedClock{time.Date(2024, 12, 20, 12, 0, 0, 0, time.UTC)}),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer eng.Close()

	if _, err := eng.Donate(context.Background(), "holiday2024", 3, 30); err != nil {
		t.Fatalf("donate on default adapters: %v", err)
	}
	scores, err := eng.TeamScores(context.Background(), "holiday2024")
	if err != nil {
		t.Fatalf("scores: %v", err)
	}
	if scores[0].Team != "Green" || scores[0].Score != 30 {
		t.Fatalf("unexpected scores: %+v", scores)
	}
}

func TestNewRejectsInvalidDefinitions(t *testing.T) {
	bad := testDef()
	bad.Teams = nil
	if _, err := New([]core.EventDefinition{bad}); err == nil {
		t.Fatal("want error for definition without teams")
	}
}
