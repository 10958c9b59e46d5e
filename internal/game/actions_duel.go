package game

import "fmt"

// duel is the contested action: one Bernoulli draw against a bounded win
// probability decides winner and loser, then independent draws size the
// spoils.
func (s *Service) duel(sc *commandScope, in ActionInput) ([]string, error) {
	if in.TargetID == in.ActorID {
		return nil, ErrSelfTarget
	}
	actor, _ := sc.player(in.GroupID, in.ActorID)
	target, ok := sc.player(in.GroupID, in.TargetID)
	if !ok {
		return nil, ErrTargetNotFound
	}

	now := s.now().Unix()
	cooldown := s.primeCooldown(sc, in.GroupID, in.ActorID, DuelCooldownSecs)
	if last := actor.DuelTimes[in.TargetID]; last > 0 && now-last < cooldown {
		return nil, ErrOnCooldown
	}
	recent := 0
	for _, t := range actor.DuelWindow {
		if now-t < DuelWindowSecs {
			recent++
		}
	}
	if recent >= DuelWindowMax {
		return nil, ErrOnCooldown
	}

	bet := in.Amount
	if bet != 0 {
		if bet < DuelBetMin || bet > DuelBetMax {
			return nil, ErrInvalidBet
		}
		if actor.Coins < bet || target.Coins < bet {
			return nil, ErrInsufficientCoins
		}
	}

	ctx := &EffectContext{
		GroupID:        in.GroupID,
		ActorID:        in.ActorID,
		ActorName:      actor.Nickname,
		TargetID:       in.TargetID,
		TargetName:     target.Nickname,
		ActorLength:    actor.Length,
		ActorHardness:  actor.Hardness,
		TargetLength:   target.Length,
		TargetHardness: target.Hardness,
	}
	s.runPipeline(sc, TriggerBeforeDuel, ctx, actor.items(), target.items())

	if actor.DuelTimes == nil {
		actor.DuelTimes = map[string]int64{}
	}
	actor.DuelTimes[in.TargetID] = now
	actor.DuelWindow = appendWindow(actor.DuelWindow, now)
	sc.markRecords()

	// A full interception replaces the duel outright. Crowd outcomes the
	// handler could not reach on its own come back through the side
	// channel and run here.
	if ctx.Intercept {
		consumeTriggered(actor, ctx)
		actor.Length += ctx.LengthDelta
		target.Length += ctx.TargetLengthDelta
		if ctx.HardnessDelta != 0 {
			actor.Hardness = clampHardness(actor.Hardness + ctx.HardnessDelta)
		}
		if ctx.TargetHardnessDelta != 0 {
			target.Hardness = clampHardness(target.Hardness + ctx.TargetHardnessDelta)
			if target.Hardness < 1 {
				target.Hardness = 1
			}
		}
		sc.markRecords()
		out := ctx.Messages
		if flag, _ := ctx.Extra["chaos_storm"].(bool); flag {
			out = append(out, s.chaosStorm(sc, in.GroupID)...)
		}
		if flag, _ := ctx.Extra["detonate"].(bool); flag {
			out = append(out, s.detonate(sc, in.GroupID, in.ActorID)...)
		}
		if tick := s.stockHookLocked(sc, in.GroupID, categoryChaos, actor.Nickname, ctx.LengthDelta, 0, 0); tick != "" {
			out = append(out, tick)
		}
		return out, nil
	}
	consumeTriggered(actor, ctx)

	diff := absInt(actor.Length - target.Length)
	msgs := ctx.Messages

	// Special outcomes short-circuit the normal win/lose flow.
	if diff <= 5 && s.nextFloat() < 0.075 {
		return append(msgs, fmt.Sprintf("%s and %s fight to a perfect draw", actor.Nickname, target.Nickname)), nil
	}
	if actor.Hardness < 5 && target.Hardness < 5 && s.nextFloat() < 0.20 {
		return append(msgs, s.duelTangle(sc, in, actor, target)...), nil
	}
	if diff > 30 && s.nextFloat() < 0.01 {
		actor.Length, target.Length = target.Length, actor.Length
		sc.markRecords()
		return append(msgs, fmt.Sprintf("reality hiccups: %s and %s swap lengths", actor.Nickname, target.Nickname)), nil
	}

	prob := winProbability(actor.Length, target.Length, actor.Hardness, target.Hardness,
		streakBonusFor(actor), s.primeBonus(sc, in.GroupID, in.ActorID))
	actorWins := s.nextFloat() < prob

	var winner, loser *PlayerRecord
	var winnerID, loserID string
	if actorWins {
		winner, loser = actor, target
		winnerID, loserID = in.ActorID, in.TargetID
	} else {
		winner, loser = target, actor
		winnerID, loserID = in.TargetID, in.ActorID
	}

	gain := s.intIn(1, 5)
	if b := int(float64(winner.Hardness-5) * 0.15); b > 0 {
		gain += b
	}
	loss := s.intIn(1, 2)
	if m := int(float64(loser.Hardness-5) * 0.2); m > 0 {
		loss -= m
	}
	if loss < 1 {
		loss = 1
	}

	winCtx := &EffectContext{
		GroupID: in.GroupID, ActorID: winnerID, ActorName: winner.Nickname,
		TargetID: loserID, TargetName: loser.Nickname,
		ActorLength: winner.Length, ActorHardness: winner.Hardness,
		TargetLength: loser.Length, TargetHardness: loser.Hardness,
		LengthDelta: gain,
	}
	s.runPipeline(sc, TriggerOnDuelWin, winCtx, winner.items(), loser.items())
	consumeTriggered(winner, winCtx)

	loseCtx := &EffectContext{
		GroupID: in.GroupID, ActorID: loserID, ActorName: loser.Nickname,
		TargetID: winnerID, TargetName: winner.Nickname,
		ActorLength: loser.Length, ActorHardness: loser.Hardness,
		TargetLength: winner.Length, TargetHardness: winner.Hardness,
		LengthDelta: -loss,
	}
	s.runPipeline(sc, TriggerOnDuelLose, loseCtx, loser.items(), winner.items())
	consumeTriggered(loser, loseCtx)

	winner.Length += winCtx.LengthDelta
	msgs = append(msgs, winCtx.Messages...)
	msgs = append(msgs, loseCtx.Messages...)
	if loseCtx.LengthDelta < 0 && !loseCtx.PreventLoss {
		msgs = append(msgs, s.applyLengthLoss(sc, in.GroupID, loserID, loser, -loseCtx.LengthDelta, true)...)
	}

	// The shorter side taking the win plunders a slice of the loser.
	if diff > 10 && winner.Length < loser.Length {
		rate := 0.20
		if extra, ok := winCtx.Extra["extra_plunder"].(float64); ok {
			rate += extra
		}
		if loser.Length > 0 {
			plunder := int(float64(loser.Length) * rate)
			if plunder > 0 {
				loser.Length -= plunder
				winner.Length += plunder
				msgs = append(msgs, fmt.Sprintf("%s plunders %d length from %s", winner.Nickname, plunder, loser.Nickname))
			}
		}
	}

	if s.nextFloat() < 0.15 && loser.Hardness > 1 {
		loser.Hardness--
		msgs = append(msgs, fmt.Sprintf("%s's hardness chips to %d", loser.Nickname, loser.Hardness))
	}

	if bet > 0 && !loseCtx.PreventLoss {
		winnings := int64(float64(bet) * DuelBetWinFactor)
		tax, _, bracket := taxFor(winnings, meanPositiveCoins(sc.group(in.GroupID)))
		loser.Coins -= bet
		winner.Coins += winnings - tax
		msg := fmt.Sprintf("%s collects the %d-coin pot (payout %d)", winner.Nickname, bet, winnings-tax)
		if tax > 0 {
			msg += fmt.Sprintf(", %s-bracket tax %d", bracket, tax)
		}
		msgs = append(msgs, msg)
	}

	winner.WinStreak++
	winner.LossStreak = 0
	loser.LossStreak++
	loser.WinStreak = 0
	sc.markRecords()

	head := fmt.Sprintf("%s challenges %s and %s (p=%.2f)", actor.Nickname, target.Nickname,
		winLossWord(actorWins), prob)
	out := append([]string{head}, msgs...)

	if winCtx.LengthDelta > 0 {
		visited := map[string]bool{}
		out = append(out, s.tryDrain(sc, in.GroupID, winnerID, winCtx.LengthDelta, visited)...)
	}
	if tick := s.stockHookLocked(sc, in.GroupID, categoryDuel, actor.Nickname, winCtx.LengthDelta, 0, 0); tick != "" {
		out = append(out, tick)
	}
	return out, nil
}

func winLossWord(won bool) string {
	if won {
		return "wins"
	}
	return "loses"
}

// duelTangle is the mutual halving event. Each side gets an OnHalving
// trigger; a quick release blocks its owner's halving.
func (s *Service) duelTangle(sc *commandScope, in ActionInput, actor, target *PlayerRecord) []string {
	msgs := []string{fmt.Sprintf("%s and %s tangle hopelessly", actor.Nickname, target.Nickname)}
	each := []struct {
		id string
		p  *PlayerRecord
	}{{in.ActorID, actor}, {in.TargetID, target}}
	for _, side := range each {
		ctx := &EffectContext{
			GroupID: in.GroupID, ActorID: side.id, ActorName: side.p.Nickname,
			ActorLength: side.p.Length, ActorHardness: side.p.Hardness,
		}
		s.runPipeline(sc, TriggerOnHalving, ctx, side.p.items(), nil)
		consumeTriggered(side.p, ctx)
		msgs = append(msgs, ctx.Messages...)
		if ctx.PreventHalving {
			continue
		}
		if side.p.Length > 0 {
			side.p.Length /= 2
			msgs = append(msgs, fmt.Sprintf("%s is halved to %d", side.p.Nickname, side.p.Length))
		}
	}
	sc.markRecords()
	return msgs
}

// rob transfers a tiered slice of the target's positive coins, taxed
// like any other transfer.
func (s *Service) rob(sc *commandScope, in ActionInput) ([]string, error) {
	if in.TargetID == in.ActorID {
		return nil, ErrSelfTarget
	}
	actor, _ := sc.player(in.GroupID, in.ActorID)
	target, ok := sc.player(in.GroupID, in.TargetID)
	if !ok {
		return nil, ErrTargetNotFound
	}
	now := s.now().Unix()
	if now-actor.LastRob < RobCooldownSecs {
		return nil, ErrOnCooldown
	}
	actor.LastRob = now
	sc.markRecords()

	if target.Coins <= 0 {
		return []string{fmt.Sprintf("%s turns out %s's pockets: empty", actor.Nickname, target.Nickname)}, nil
	}

	var pct float64
	var tier string
	switch r := s.nextFloat(); {
	case r < 0.30:
		return []string{fmt.Sprintf("%s fumbles the heist and slinks away", actor.Nickname)}, nil
	case r < 0.70:
		pct, tier = 0.05+s.nextFloat()*0.10, "petty"
	case r < 0.95:
		pct, tier = 0.15+s.nextFloat()*0.15, "solid"
	default:
		pct, tier = 0.40+s.nextFloat()*0.20, "jackpot"
	}

	haul := int64(float64(target.Coins) * pct)
	if haul < 1 {
		haul = 1
	}
	tax, _, _ := taxFor(haul, meanPositiveCoins(sc.group(in.GroupID)))
	target.Coins -= haul
	actor.Coins += haul - tax
	sc.markRecords()

	msg := fmt.Sprintf("%s pulls a %s job on %s: +%d coins", actor.Nickname, tier, target.Nickname, haul-tax)
	if tax > 0 {
		msg += fmt.Sprintf(" (tax %d)", tax)
	}
	out := []string{msg}
	if tick := s.stockHookLocked(sc, in.GroupID, categoryChaos, actor.Nickname, 0, 0, haul); tick != "" {
		out = append(out, tick)
	}
	return out, nil
}

// brawl throws the whole group into a short melee: a fixed number of
// random pairings, each resolved like a miniature duel, with spoils
// sized against the group's average absolute length.
func (s *Service) brawl(sc *commandScope, in ActionInput) ([]string, error) {
	actor, _ := sc.player(in.GroupID, in.ActorID)
	now := s.now().Unix()
	if now-actor.LastBrawl < BrawlCooldownSecs {
		return nil, ErrOnCooldown
	}

	g := sc.group(in.GroupID)
	ids := make([]string, 0, len(g.Players))
	for id := range g.Players {
		ids = append(ids, id)
	}
	if len(ids) < BrawlMinPlayers {
		return nil, ErrNotEnoughPlayers
	}
	actor.LastBrawl = now

	avg := 0
	for _, id := range ids {
		avg += absInt(g.Players[id].Length)
	}
	avg /= len(ids)

	msgs := []string{fmt.Sprintf("%s starts a brawl: %d fighters, %d rounds", actor.Nickname, len(ids), BrawlBattles)}
	for i := 0; i < BrawlBattles; i++ {
		a := ids[s.rand.Intn(len(ids))]
		b := ids[s.rand.Intn(len(ids))]
		if a == b {
			continue
		}
		pa, pb := g.Players[a], g.Players[b]
		prob := winProbability(pa.Length, pb.Length, pa.Hardness, pb.Hardness, 0, 0)
		win, lose := pa, pb
		if s.nextFloat() >= prob {
			win, lose = pb, pa
		}
		gain := int(float64(avg) * (0.03 + s.nextFloat()*0.05))
		if gain < 5 {
			gain = 5
		}
		loss := int(float64(avg) * (0.02 + s.nextFloat()*0.03))
		if loss < 3 {
			loss = 3
		}
		win.Length += gain
		lose.Length -= loss
		msgs = append(msgs, fmt.Sprintf("round %d: %s +%d, %s -%d", i+1, win.Nickname, gain, lose.Nickname, loss))
	}
	sc.markRecords()

	if tick := s.stockHookLocked(sc, in.GroupID, categoryChaos, actor.Nickname, avg, 0, 0); tick != "" {
		msgs = append(msgs, tick)
	}
	return msgs, nil
}

func appendWindow(window []int64, now int64) []int64 {
	out := window[:0]
	for _, t := range window {
		if now-t < DuelWindowSecs {
			out = append(out, t)
		}
	}
	return append(out, now)
}
