package sdk

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"seasonkit/api/httpapi"
	"seasonkit/core"
	"seasonkit/engine"
	"seasonkit/realtime"
	"seasonkit/seasons"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

var testNow = time.Date(2024, 12, 20, 12, 0, 0, 0, time.UTC)

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

// newTestServer serves the real API backed by in-memory adapters.
func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	hub := realtime.NewHub()
	eng, err := seasons.New([]core.EventDefinition{testDef()},
		seasons.WithClock(fixedClock{testNow}),
		seasons.WithDispatchMode(engine.DispatchSync),
		seasons.WithRealtime(hub),
	)
	if err != nil {
		t.Fatalf("seasons.New: %v", err)
	}
	t.Cleanup(eng.Close)

	srv := httptest.NewServer(httpapi.NewMux(eng, hub, httpapi.Options{PathPrefix: "/api"}))
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_DonateAndRead(t *testing.T) {
	srv := newTestServer(t)

	client, err := NewClient(srv.URL+"/api", WithAPIKey("k1"))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	ctx := context.Background()

	receipt, err := client.Donate(ctx, "holiday2024", 2, 75)
	if err != nil {
		t.Fatalf("donate: %v", err)
	}
	if receipt.Team != "Red" || receipt.AccountID != -100 {
		t.Fatalf("unexpected receipt: %+v", receipt)
	}

	scores, err := client.TeamScores(ctx, "holiday2024")
	if err != nil {
		t.Fatalf("team scores: %v", err)
	}
	if len(scores) != 2 || scores[0].Team != "Red" || scores[0].Score != 75 {
		t.Fatalf("unexpected scores: %+v", scores)
	}

	data, err := client.EventData(ctx, "holiday2024")
	if err != nil {
		t.Fatalf("event data: %v", err)
	}
	if data.Title != "Holiday Garland" || len(data.Teams) != 2 {
		t.Fatalf("unexpected event data: %+v", data)
	}

	user, err := client.UserData(ctx, "holiday2024", 2)
	if err != nil {
		t.Fatalf("user data: %v", err)
	}
	if user.Team != "Red" {
		t.Fatalf("unexpected user data: %+v", user)
	}

	health, err := client.Health(ctx)
	if err != nil || health.Status != "healthy" {
		t.Fatalf("health: %+v err=%v", health, err)
	}
}

func TestClient_Contributors(t *testing.T) {
	srv := newTestServer(t)

	client, err := NewClient(srv.URL + "/api")
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	ctx := context.Background()
	for _, d := range []struct {
		user   core.UserID
		amount int64
	}{{2, 100}, {4, 40}, {1, 60}} {
		if _, err := client.Donate(ctx, "holiday2024", d.user, d.amount); err != nil {
			t.Fatalf("donate user %d: %v", d.user, err)
		}
	}

	top, err := client.TopContributors(ctx, "holiday2024", 10)
	if err != nil {
		t.Fatalf("contributors: %v", err)
	}
	if len(top.AllTime) != 3 || top.AllTime[0].UserID != 2 || top.AllTime[0].Amount != 100 {
		t.Fatalf("unexpected all-time contributors: %+v", top.AllTime)
	}
}

func TestClient_Partners(t *testing.T) {
	srv := newTestServer(t)

	client, err := NewClient(srv.URL + "/api")
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	ctx := context.Background()
	partner := core.Partner{Title: "Acme Compute", Amount: 500}
	if err := client.RecordPartner(ctx, "holiday2024", partner); err != nil {
		t.Fatalf("record partner: %v", err)
	}

	partners, err := client.Partners(ctx, "holiday2024")
	if err != nil {
		t.Fatalf("partners: %v", err)
	}
	if len(partners) != 1 || partners[0].Title != "Acme Compute" {
		t.Fatalf("unexpected partners: %+v", partners)
	}
}

func TestClient_ErrorEnvelope(t *testing.T) {
	srv := newTestServer(t)

	client, err := NewClient(srv.URL + "/api")
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	_, err = client.EventData(context.Background(), "missing2024")
	if err == nil {
		t.Fatal("expected error for unknown event")
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T: %v", err, err)
	}
	if apiErr.Status != 404 || apiErr.Code != "event_not_found" {
		t.Fatalf("unexpected API error: %+v", apiErr)
	}
}

func TestClient_SubscribeEvents(t *testing.T) {
	srv := newTestServer(t)

	client, err := NewClient(srv.URL + "/api")
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	events, err := client.SubscribeEvents(ctx)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	if _, err := client.Donate(ctx, "holiday2024", 3, 25); err != nil {
		t.Fatalf("donate: %v", err)
	}

	select {
	case evt := <-events:
		if evt.Type != core.EventDonationRecorded {
			t.Fatalf("unexpected event type: %s", evt.Type)
		}
		if evt.UserID != 3 || evt.Team != "Green" {
			t.Fatalf("unexpected event payload: %+v", evt)
		}
	case <-ctx.Done():
		t.Fatal("timed out waiting for event")
	}
}
