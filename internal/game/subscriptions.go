package game

import (
	"fmt"
	"time"

	"bullish/internal/store"
)

// Subscription plans. prime is read directly by the duel/train handlers;
// guardian and tithe run as pipeline overlays.
const (
	PlanPrime    = "prime"
	PlanGuardian = "guardian"
	PlanTithe    = "tithe"

	primeCooldownScale = 0.5
	primeDuelBonus     = 0.05

	guardianNegateChance = 0.5

	titheSkimRate = 0.10
	titheDailyCap = 5
	titheDailyKey = "skim"
)

type planSpec struct {
	Price int64
	Days  int
}

var planCatalog = map[string]planSpec{
	PlanPrime:    {Price: 300, Days: 7},
	PlanGuardian: {Price: 500, Days: 7},
	PlanTithe:    {Price: 800, Days: 7},
}

func subKey(group, user, plan string) string {
	return group + "|" + user + "|" + plan
}

// hasEntitlement reports an unexpired subscription. Expired rows are
// deleted on the spot: cleanup is pull-based, there is no sweeper.
func (s *Service) hasEntitlement(sc *commandScope, group, user, plan string) bool {
	key := subKey(group, user, plan)
	rec, ok := sc.subs.Entries[key]
	if !ok {
		return false
	}
	if rec.ExpireAt <= s.now().Unix() {
		delete(sc.subs.Entries, key)
		sc.markSubs()
		return false
	}
	return true
}

// dailyCounterTake consumes one unit of a per-day counter. The counter
// resets when the calendar date (configured zone) rolls over; at limit
// it returns false.
func (s *Service) dailyCounterTake(sc *commandScope, group, user, plan, key string, limit int) bool {
	rec, ok := sc.subs.Entries[subKey(group, user, plan)]
	if !ok {
		return false
	}
	if rec.DayCounters == nil {
		rec.DayCounters = map[string]*DayCounter{}
	}
	today := s.dateStr(s.now())
	c, ok := rec.DayCounters[key]
	if !ok || c.Date != today {
		c = &DayCounter{Date: today}
		rec.DayCounters[key] = c
	}
	if c.Count >= limit {
		return false
	}
	c.Count++
	sc.markSubs()
	return true
}

// subscribe debits coins and writes the ledger immediately rather than
// at scope close. If the ledger write fails, the debit is refunded
// before the error surfaces: never keep a player's coins for an
// entitlement that was not recorded.
func (s *Service) subscribe(sc *commandScope, group, user, plan string) ([]string, error) {
	spec, ok := planCatalog[plan]
	if !ok {
		return nil, ErrUnknownPlan
	}
	p, ok := sc.player(group, user)
	if !ok {
		return nil, ErrNotRegistered
	}
	if p.Coins < spec.Price {
		return nil, ErrInsufficientCoins
	}

	p.Coins -= spec.Price
	sc.markRecords()

	key := subKey(group, user, plan)
	now := s.now().Unix()
	rec, exists := sc.subs.Entries[key]
	extended := exists && rec.ExpireAt > now
	if extended {
		rec.ExpireAt += int64(spec.Days) * 24 * 3600
	} else {
		rec = &SubscriptionRecord{ExpireAt: now + int64(spec.Days)*24*3600}
		sc.subs.Entries[key] = rec
	}
	if err := s.store.Save(store.DocSubscriptions, sc.subs); err != nil {
		p.Coins += spec.Price
		if extended {
			rec.ExpireAt -= int64(spec.Days) * 24 * 3600
		} else {
			delete(sc.subs.Entries, key)
		}
		return nil, fmt.Errorf("record subscription: %w", err)
	}
	sc.dirtySubs = false

	until := time.Unix(rec.ExpireAt, 0).In(s.loc).Format("2006-01-02 15:04")
	return []string{fmt.Sprintf("%s active until %s (-%d coins)", plan, until, spec.Price)}, nil
}

// registerOverlays wires the subscription-backed effects. Overlays run
// after the item loop and are not stopped by interception.
func (s *Service) registerOverlays() {
	negate := func(sc *commandScope, _ Trigger, ctx *EffectContext) {
		if ctx.PreventLoss {
			return
		}
		if ctx.LengthDelta >= 0 && ctx.HardnessDelta >= 0 && ctx.CoinsDelta >= 0 {
			return
		}
		if !s.hasEntitlement(sc, ctx.GroupID, ctx.ActorID, PlanGuardian) {
			return
		}
		if s.nextFloat() >= guardianNegateChance {
			return
		}
		if ctx.LengthDelta < 0 {
			ctx.LengthDelta = 0
		}
		if ctx.HardnessDelta < 0 {
			ctx.HardnessDelta = 0
		}
		if ctx.CoinsDelta < 0 {
			ctx.CoinsDelta = 0
		}
		ctx.PreventLoss = true
		ctx.addMessage("a guardian ward flares: the loss is negated")
	}
	s.pipeline.RegisterOverlay(TriggerAfterTrain, negate)
	s.pipeline.RegisterOverlay(TriggerOnDuelLose, negate)

	skim := func(sc *commandScope, _ Trigger, ctx *EffectContext) {
		if ctx.LengthDelta <= 0 {
			return
		}
		cut := int(float64(ctx.LengthDelta) * titheSkimRate)
		if cut < 1 {
			cut = 1
		}
		for id, other := range sc.group(ctx.GroupID).Players {
			if id == ctx.ActorID {
				continue
			}
			if !s.hasEntitlement(sc, ctx.GroupID, id, PlanTithe) {
				continue
			}
			if !s.dailyCounterTake(sc, ctx.GroupID, id, PlanTithe, titheDailyKey, titheDailyCap) {
				continue
			}
			other.Length += cut
			sc.markRecords()
			ctx.addMessage(fmt.Sprintf("%s skims %d off the gain", other.Nickname, cut))
		}
	}
	s.pipeline.RegisterOverlay(TriggerAfterTrain, skim)
	s.pipeline.RegisterOverlay(TriggerOnDuelWin, skim)
}

// primeCooldown scales a cooldown for prime subscribers.
func (s *Service) primeCooldown(sc *commandScope, group, user string, base int64) int64 {
	if s.hasEntitlement(sc, group, user, PlanPrime) {
		return int64(float64(base) * primeCooldownScale)
	}
	return base
}

func (s *Service) primeBonus(sc *commandScope, group, user string) float64 {
	if s.hasEntitlement(sc, group, user, PlanPrime) {
		return primeDuelBonus
	}
	return 0
}
