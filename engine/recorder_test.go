package engine

import (
	"context"
	"errors"
	"testing"

	"seasonkit/core"
)

func TestDonateTransfersAndCounts(t *testing.T) {
	def := testDef("holiday2024")
	def.GetUserCosmeticID = func(context.Context, core.UserID) (int64, error) { return 42, nil }
	var hookData core.UserCosmeticData
	def.OnDonate = func(_ context.Context, cc core.ContributionContext) error {
		hookData = cc.Data
		return nil
	}
	f := newFixture(t, def)
	ctx := context.Background()

	receipt, err := f.engine.Donate(ctx, "holiday2024", 2, 75)
	if err != nil {
		t.Fatalf("Donate: %v", err)
	}
	if receipt.Team != "Red" || receipt.AccountID != -100 || receipt.Title != "Holiday Garland" {
		t.Fatalf("unexpected receipt: %+v", receipt)
	}

	balance, _ := f.ledger.Balance(ctx, -100)
	if balance != 75 {
		t.Fatalf("team account balance = %d, want 75", balance)
	}
	userBalance, _ := f.ledger.Balance(ctx, 2)
	if userBalance != -75 {
		t.Fatalf("user account balance = %d, want -75", userBalance)
	}

	data, _ := f.store.UserCosmeticData(ctx, 2, 42)
	if data.Donated != 75 {
		t.Fatalf("donated counter = %d, want 75", data.Donated)
	}
	if hookData.Donated != 75 {
		t.Fatalf("onDonate saw stale data: %+v", hookData)
	}

	// Second donation accumulates on the same counter.
	if _, err := f.engine.Donate(ctx, "holiday2024", 2, 25); err != nil {
		t.Fatalf("Donate: %v", err)
	}
	data, _ = f.store.UserCosmeticData(ctx, 2, 42)
	if data.Donated != 100 {
		t.Fatalf("donated counter = %d, want 100", data.Donated)
	}
}

func TestDonateRejectsTeamlessUser(t *testing.T) {
	def := testDef("holiday2024")
	def.GetUserTeam = func(core.UserID) string { return "" }
	f := newFixture(t, def)
	ctx := context.Background()

	_, err := f.engine.Donate(ctx, "holiday2024", 5, 50)
	if !errors.Is(err, ErrNoTeam) {
		t.Fatalf("want ErrNoTeam, got %v", err)
	}
	// No funds may have moved.
	for _, account := range []core.AccountID{-100, -101, 5} {
		if balance, _ := f.ledger.Balance(ctx, account); balance != 0 {
			t.Fatalf("account %d balance = %d, want 0", account, balance)
		}
	}
}

func TestDonateRejectsNonPositiveAmounts(t *testing.T) {
	f := newFixture(t, testDef("holiday2024"))
	for _, amount := range []int64{0, -10} {
		if _, err := f.engine.Donate(context.Background(), "holiday2024", 2, amount); err == nil {
			t.Fatalf("want error for amount %d", amount)
		}
	}
}

func TestDonateWithoutCosmeticSkipsCounter(t *testing.T) {
	// No GetUserCosmeticID hook: transfer happens, counters stay untouched.
	def := testDef("holiday2024")
	onDonateCalled := false
	def.OnDonate = func(context.Context, core.ContributionContext) error {
		onDonateCalled = true
		return nil
	}
	f := newFixture(t, def)

	if _, err := f.engine.Donate(context.Background(), "holiday2024", 2, 30); err != nil {
		t.Fatalf("Donate: %v", err)
	}
	balance, _ := f.ledger.Balance(context.Background(), -100)
	if balance != 30 {
		t.Fatalf("transfer must still happen, balance = %d", balance)
	}
	if onDonateCalled {
		t.Fatal("onDonate must not run without cosmetic data")
	}
}

func TestProcessPurchaseBumpsActiveEvents(t *testing.T) {
	def := testDef("holiday2024")
	def.GetUserCosmeticID = func(context.Context, core.UserID) (int64, error) { return 7, nil }
	var hookData core.UserCosmeticData
	def.OnPurchase = func(_ context.Context, cc core.ContributionContext) error {
		hookData = cc.Data
		return nil
	}
	ended := testDef("past2024")
	ended.StartDate = testNow.AddDate(0, -3, 0)
	ended.EndDate = testNow.AddDate(0, -2, 0)
	ended.GetUserCosmeticID = func(context.Context, core.UserID) (int64, error) {
		t.Error("ended event must not be consulted")
		return 0, nil
	}
	f := newFixture(t, def, ended)
	ctx := context.Background()

	if err := f.engine.ProcessPurchase(ctx, 4, 200); err != nil {
		t.Fatalf("ProcessPurchase: %v", err)
	}
	data, _ := f.store.UserCosmeticData(ctx, 4, 7)
	if data.Purchased != 200 {
		t.Fatalf("purchased counter = %d, want 200", data.Purchased)
	}
	if data.Donated != 0 {
		t.Fatalf("donated counter must be untouched, got %d", data.Donated)
	}
	if hookData.Purchased != 200 {
		t.Fatalf("onPurchase saw stale data: %+v", hookData)
	}
}

func TestProcessPurchaseSkipsUsersWithoutCosmetic(t *testing.T) {
	def := testDef("holiday2024")
	def.GetUserCosmeticID = func(context.Context, core.UserID) (int64, error) { return 0, nil }
	def.OnPurchase = func(context.Context, core.ContributionContext) error {
		t.Error("onPurchase must not run for users without a cosmetic")
		return nil
	}
	f := newFixture(t, def)

	if err := f.engine.ProcessPurchase(context.Background(), 4, 100); err != nil {
		t.Fatalf("ProcessPurchase: %v", err)
	}
}
