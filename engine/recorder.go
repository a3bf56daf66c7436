package engine

import (
	"context"
	"fmt"

	"seasonkit/core"
)

// Donate moves amount from the user's personal ledger account to their
// team's bank account and mirrors the contribution into the user's
// cosmetic attachment counter. The ledger transfer is authoritative; the
// counter update is best-effort and not transactionally linked to it, so
// concurrent donations by the same user can under-count (callers should
// treat the counter as approximate and reconcile against the ledger).
func (e *Engine) Donate(ctx context.Context, event string, user core.UserID, amount int64) (core.DonationReceipt, error) {
	if err := core.ValidateAmount(amount); err != nil {
		return core.DonationReceipt{}, err
	}
	def, err := e.registry.ByName(event)
	if err != nil {
		return core.DonationReceipt{}, err
	}

	var team string
	if def.GetUserTeam != nil {
		team = def.GetUserTeam(user)
	}
	if team == "" {
		return core.DonationReceipt{}, fmt.Errorf("%w: %s", ErrNoTeam, event)
	}
	account := teamAccounts(def)[team]

	description := fmt.Sprintf("%s Donation - %s", def.Title, team)
	if _, err := e.ledger.Transfer(ctx, core.AccountID(user), account, amount, core.TransactionDonation, description); err != nil {
		return core.DonationReceipt{}, fmt.Errorf("ledger transfer: %w", err)
	}

	receipt := core.DonationReceipt{Team: team, Title: def.Title, AccountID: account}
	e.metrics.DonationRecorded(amount)
	e.bus.Publish(ctx, core.NewDonationRecorded(def.Name, user, team, amount))

	data, err := e.bumpCounter(ctx, def, user, core.CounterDonated, amount)
	if err != nil {
		return receipt, err
	}
	if def.OnDonate != nil && data != nil {
		cc := core.ContributionContext{UserID: user, Amount: amount, Data: *data, Cosmetics: e.store}
		if err := def.OnDonate(ctx, cc); err != nil {
			e.metrics.HookError("onDonate")
			return receipt, hookErr(def.Name, "onDonate", err)
		}
	}
	return receipt, nil
}

// ProcessPurchase lets every active event react to a purchase that was
// already settled by an external commerce flow. No ledger funds move here;
// only the denormalized purchased counter is updated.
func (e *Engine) ProcessPurchase(ctx context.Context, user core.UserID, amount int64) error {
	if err := core.ValidateAmount(amount); err != nil {
		return err
	}

	now := e.clock.Now()
	for _, def := range e.registry.Active(now) {
		data, err := e.bumpCounter(ctx, def, user, core.CounterPurchased, amount)
		if err != nil {
			return fmt.Errorf("event %s: %w", def.Name, err)
		}
		if data == nil {
			continue
		}
		if def.OnPurchase != nil {
			cc := core.ContributionContext{UserID: user, Amount: amount, Data: *data, Cosmetics: e.store}
			if err := def.OnPurchase(ctx, cc); err != nil {
				e.metrics.HookError("onPurchase")
				return hookErr(def.Name, "onPurchase", err)
			}
		}
		e.bus.Publish(ctx, core.NewPurchaseRecorded(def.Name, user, amount))
	}
	e.metrics.PurchaseRecorded()
	return nil
}

// bumpCounter performs the read-increment-write of one attachment counter
// for the user's event cosmetic. Returns nil data when the event defines
// no cosmetic for the user. The racy increment is intentional; see Donate.
func (e *Engine) bumpCounter(ctx context.Context, def core.EventDefinition, user core.UserID, counter core.CosmeticCounter, amount int64) (*core.UserCosmeticData, error) {
	if def.GetUserCosmeticID == nil {
		return nil, nil
	}
	cosmeticID, err := def.GetUserCosmeticID(ctx, user)
	if err != nil {
		return nil, hookErr(def.Name, "getUserCosmeticId", err)
	}
	if cosmeticID == 0 {
		return nil, nil
	}

	data, err := e.store.UserCosmeticData(ctx, user, cosmeticID)
	if err != nil {
		return nil, fmt.Errorf("read cosmetic data: %w", err)
	}
	var total int64
	switch counter {
	case core.CounterDonated:
		data.Donated += amount
		total = data.Donated
	case core.CounterPurchased:
		data.Purchased += amount
		total = data.Purchased
	}
	if err := e.store.SetCosmeticCounter(ctx, user, cosmeticID, counter, total); err != nil {
		return nil, fmt.Errorf("write cosmetic counter: %w", err)
	}
	return &data, nil
}
