package core

import (
	"testing"
	"time"
)

func TestValidateEventName(t *testing.T) {
	if err := ValidateEventName("holiday_2024"); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if err := ValidateEventName("bad name"); err == nil {
		t.Fatalf("expected invalid name err")
	}
	if err := ValidateEventName("   "); err == nil {
		t.Fatalf("expected empty name err")
	}
}

func TestValidateAmount(t *testing.T) {
	if err := ValidateAmount(1); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if err := ValidateAmount(0); err == nil {
		t.Fatal("expected err for zero amount")
	}
	if err := ValidateAmount(-5); err == nil {
		t.Fatal("expected err for negative amount")
	}
}

func TestDefinitionWindow(t *testing.T) {
	start := time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	d := EventDefinition{StartDate: start, EndDate: end}

	if d.Active(start.Add(-time.Second)) {
		t.Fatal("should not be active before start")
	}
	if !d.Active(start) {
		t.Fatal("should be active at start (inclusive)")
	}
	if !d.Active(end.Add(-time.Second)) {
		t.Fatal("should be active just before end")
	}
	if d.Active(end) {
		t.Fatal("should not be active at end (exclusive)")
	}
	if !d.Ended(end) {
		t.Fatal("should be ended at end")
	}
	if d.Started(start.Add(-time.Hour)) {
		t.Fatal("should not be started before start")
	}
}

func TestTeamAccountDerivation(t *testing.T) {
	d := EventDefinition{BankIndex: -1000}
	if d.TeamAccount(0) != -1000 || d.TeamAccount(1) != -1001 || d.TeamAccount(3) != -1003 {
		t.Fatalf("unexpected accounts: %d %d %d", d.TeamAccount(0), d.TeamAccount(1), d.TeamAccount(3))
	}
}

func TestDefinitionValidate(t *testing.T) {
	valid := EventDefinition{
		Name:      "winter-fest",
		Title:     "Winter Fest",
		StartDate: time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		Teams:     []string{"Red", "Green"},
		BankIndex: -100,
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	dup := valid
	dup.Teams = []string{"Red", "Red"}
	if err := dup.Validate(); err == nil {
		t.Fatal("expected duplicate team err")
	}

	backwards := valid
	backwards.EndDate = backwards.StartDate
	if err := backwards.Validate(); err == nil {
		t.Fatal("expected date order err")
	}

	noTeams := valid
	noTeams.Teams = nil
	if err := noTeams.Validate(); err == nil {
		t.Fatal("expected no teams err")
	}

	userSpace := valid
	userSpace.BankIndex = 100
	if err := userSpace.Validate(); err == nil {
		t.Fatal("expected bank index err")
	}
}
