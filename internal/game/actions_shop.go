package game

import "fmt"

// buyItem debits coins up front, then runs the purchase flow. Any
// failure after the debit refunds before the error (or refusal message)
// surfaces: a player never pays for an effect that did not land.
func (s *Service) buyItem(sc *commandScope, in ActionInput) ([]string, error) {
	spec, ok := s.itemByID(in.ItemID)
	if !ok {
		return nil, ErrUnknownItem
	}
	p, _ := sc.player(in.GroupID, in.ActorID)
	if p.Coins < spec.Price {
		return nil, ErrInsufficientCoins
	}
	if spec.NeedsTarget {
		if in.TargetID == "" || in.TargetID == in.ActorID {
			return nil, ErrSelfTarget
		}
		if _, ok := sc.player(in.GroupID, in.TargetID); !ok {
			return nil, ErrTargetNotFound
		}
	}

	p.Coins -= spec.Price
	sc.markRecords()
	refund := func() {
		p.Coins += spec.Price
		sc.markRecords()
	}

	if spec.Type == "passive" {
		maxHeld := spec.MaxHeld
		if maxHeld <= 0 {
			maxHeld = 3
		}
		if p.Items[spec.Name] >= maxHeld {
			refund()
			return nil, ErrMaxHeld
		}
		p.addItem(spec.Name, 1)
		sc.markRecords()
		out := []string{fmt.Sprintf("%s buys %s x1 (-%d coins)", p.Nickname, spec.Name, spec.Price)}
		if tick := s.stockHookLocked(sc, in.GroupID, categoryItem, p.Nickname, 0, 0, -spec.Price); tick != "" {
			out = append(out, tick)
		}
		return out, nil
	}

	effect, ok := s.pipeline.byName(spec.Name)
	if !ok {
		refund()
		return nil, fmt.Errorf("%w: no effect bound to %q", ErrUnknownItem, spec.Name)
	}

	ctx := &EffectContext{
		GroupID:       in.GroupID,
		ActorID:       in.ActorID,
		ActorName:     p.Nickname,
		TargetID:      in.TargetID,
		TargetName:    in.TargetName,
		ActorLength:   p.Length,
		ActorHardness: p.Hardness,
	}
	ctx.setExtra("item_price", spec.Price)
	if !s.applyEffect(effect, TriggerOnPurchase, ctx) {
		refund()
		return nil, fmt.Errorf("purchase effect failed for %q", spec.Name)
	}

	msgs, err := s.applyPurchaseResult(sc, in, p, spec, ctx)
	if err != nil {
		refund()
		return nil, err
	}
	if refundFlag, _ := ctx.Extra["refund"].(bool); refundFlag {
		refund()
		return append(ctx.Messages, "purchase refunded"), nil
	}

	out := append([]string{fmt.Sprintf("%s buys %s (-%d coins)", p.Nickname, spec.Name, spec.Price)}, ctx.Messages...)
	out = append(out, msgs...)
	if tick := s.stockHookLocked(sc, in.GroupID, categoryItem, p.Nickname, ctx.LengthDelta, ctx.HardnessDelta, ctx.CoinsDelta-spec.Price); tick != "" {
		out = append(out, tick)
	}
	return out, nil
}

// applyPurchaseResult turns the effect context into state changes,
// including the side-channel requests purchase effects use for things a
// handler cannot reach on its own.
func (s *Service) applyPurchaseResult(sc *commandScope, in ActionInput, p *PlayerRecord, spec ItemSpec, ctx *EffectContext) ([]string, error) {
	var msgs []string

	p.Length += ctx.LengthDelta
	if ctx.HardnessDelta != 0 {
		p.Hardness = clampHardness(p.Hardness + ctx.HardnessDelta)
		if p.Hardness < 1 {
			p.Hardness = 1
		}
	}
	p.Coins += ctx.CoinsDelta
	sc.markRecords()

	if flag, _ := ctx.Extra["apply_affliction"].(bool); flag {
		msgs = append(msgs, s.applyAffliction(sc, in.GroupID, in.TargetID, in.ActorID)...)
	}
	if flag, _ := ctx.Extra["attach_parasite"].(bool); flag {
		msgs = append(msgs, s.attachParasite(sc, in.GroupID, in.TargetID, in.ActorID)...)
	}
	if flag, _ := ctx.Extra["grant_insurance"].(bool); flag {
		p.InsuranceLeft += InsuranceCharges
	}
	if flag, _ := ctx.Extra["grant_shield"].(bool); flag {
		p.ShieldLeft += ShieldCharges
	}
	if flag, _ := ctx.Extra["grant_redirect"].(bool); flag {
		p.RedirectLeft += RedirectCharges
	}
	if flag, _ := ctx.Extra["cure_parasite"].(bool); flag {
		if p.Parasite != nil {
			msgs = append(msgs, fmt.Sprintf("the tonic flushes out the parasite feeding %s", p.Parasite.BeneficiaryName))
			p.Parasite = nil
			sc.markRecords()
		} else {
			// No refund: the dose is spent either way.
			msgs = append(msgs, fmt.Sprintf("%s had nothing to purge; the tonic is wasted", p.Nickname))
		}
	}
	if flag, _ := ctx.Extra["black_hole"].(bool); flag {
		holeMsgs, ok := s.runBlackHole(sc, in.GroupID, in.ActorID)
		if !ok {
			ctx.setExtra("refund", true)
			ctx.addMessage("the hole fizzles: not enough players around")
		}
		msgs = append(msgs, holeMsgs...)
	}
	if flag, _ := ctx.Extra["levy"].(bool); flag {
		levyMsgs, ok := s.runLevy(sc, in.GroupID)
		if !ok {
			ctx.setExtra("refund", true)
			ctx.addMessage("no one rich enough to levy")
		}
		msgs = append(msgs, levyMsgs...)
	}
	if ctx.LengthDelta > 0 {
		visited := map[string]bool{}
		msgs = append(msgs, s.tryDrain(sc, in.GroupID, in.ActorID, ctx.LengthDelta, visited)...)
	}
	return msgs, nil
}

// runLevy moves 10% of the richest player's coins to the poorest. Fails
// (for refund) when there is no meaningful gap to redistribute.
func (s *Service) runLevy(sc *commandScope, group string) ([]string, bool) {
	g := sc.group(group)
	var richID, poorID string
	for id, p := range g.Players {
		if richID == "" || p.Coins > g.Players[richID].Coins {
			richID = id
		}
		if poorID == "" || p.Coins < g.Players[poorID].Coins {
			poorID = id
		}
	}
	if richID == "" || richID == poorID {
		return nil, false
	}
	rich, poor := g.Players[richID], g.Players[poorID]
	cut := rich.Coins / 10
	if cut < 1 {
		return nil, false
	}
	rich.Coins -= cut
	poor.Coins += cut
	sc.markRecords()
	return []string{fmt.Sprintf("the levy takes %d coins from %s and hands them to %s", cut, rich.Nickname, poor.Nickname)}, true
}
