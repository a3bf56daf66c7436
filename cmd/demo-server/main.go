package main

import (
	"log/slog"
	"net/http"
	"os"
	"time"

	"seasonkit/api/httpapi"
	"seasonkit/core"
	"seasonkit/realtime"
	"seasonkit/seasons"
)

func main() {
	// Use readable text logging for development/demo
	textHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	slog.SetDefault(slog.New(textHandler))

	hub := realtime.NewHub()
	eng, err := seasons.New([]core.EventDefinition{demoEvent()},
		seasons.WithRealtime(hub),
	)
	if err != nil {
		slog.Error("failed to assemble engine", "error", err)
		os.Exit(1)
	}
	defer eng.Close()

	handler := httpapi.NewMux(eng, hub, httpapi.Options{
		PathPrefix:      "/api",
		AllowCORSOrigin: "*",
	})

	slog.Info("starting demo server on :8080",
		"try", "curl -X POST localhost:8080/api/events/demo/donations -d '{\"user_id\":1,\"amount\":50}'")

	if err := http.ListenAndServe(":8080", handler); err != nil {
		slog.Error("demo server crashed", "error", err)
		os.Exit(1)
	}
}

// demoEvent is active from process start so the API is immediately usable.
func demoEvent() core.EventDefinition {
	now := time.Now().UTC()
	return core.EventDefinition{
		Name:         "demo",
		Title:        "Demo Donation Drive",
		StartDate:    now.Add(-time.Hour),
		EndDate:      now.Add(30 * 24 * time.Hour),
		Teams:        []string{"Crimson", "Azure"},
		BankIndex:    -900,
		CosmeticName: "Demo Wreath",
		GetUserTeam: func(user core.UserID) string {
			if user%2 == 0 {
				return "Crimson"
			}
			return "Azure"
		},
	}
}
