package game

import "fmt"

// train is the bread-and-butter action: a probabilistic length change
// gated by a cooldown, with a long tail of rare side events.
func (s *Service) train(sc *commandScope, in ActionInput) ([]string, error) {
	p, _ := sc.player(in.GroupID, in.ActorID)
	now := s.now().Unix()
	elapsed := now - p.LastTrain

	ctx := &EffectContext{
		GroupID:       in.GroupID,
		ActorID:       in.ActorID,
		ActorName:     p.Nickname,
		ActorLength:   p.Length,
		ActorHardness: p.Hardness,
	}

	cooldown := s.primeCooldown(sc, in.GroupID, in.ActorID, TrainCooldownSecs)
	if p.LastTrain > 0 && elapsed < cooldown {
		s.runPipeline(sc, TriggerBeforeTrain, ctx, p.items(), nil)
		if !ctx.SkipCooldown {
			return nil, ErrOnCooldown
		}
		consumeTriggered(p, ctx)
		sc.markRecords()
	}

	today := s.dateStr(s.now())
	firstToday := p.TrainDate != today
	if firstToday {
		p.TrainDate = today
		p.TrainCountToday = 0
		p.TrainCombo = 0
	}
	p.TrainCountToday++
	p.TrainCombo++

	gain, hardGain := s.trainOutcome(p, elapsed)
	ctx.LengthDelta += gain
	ctx.HardnessDelta += hardGain

	resetCooldown := false
	msgs := []string{}
	roll := s.nextFloat()
	switch {
	case roll < 0.03:
		if ctx.LengthDelta > 0 {
			ctx.LengthDelta *= 3
			msgs = append(msgs, "critical session! gains tripled")
		}
	case roll < 0.05:
		if ctx.LengthDelta < 0 {
			ctx.LengthDelta *= 2
			msgs = append(msgs, "fumble! losses doubled")
		}
	case roll < 0.10:
		h := s.intIn(1, 2)
		ctx.HardnessDelta += h
		msgs = append(msgs, fmt.Sprintf("sudden awakening: +%d hardness", h))
	case roll < 0.18:
		c := int64(s.intIn(10, 30))
		ctx.CoinsDelta += c
		msgs = append(msgs, fmt.Sprintf("coins scatter from nowhere: +%d", c))
	case roll < 0.20:
		resetCooldown = true
		msgs = append(msgs, "time warps: cooldown reset")
	case roll < 0.23:
		p.NextTrainSure = true
		msgs = append(msgs, "a flash of inspiration: next session is a sure thing")
	case roll < 0.25:
		swing := s.intIn(5, 15)
		if s.nextFloat() < 0.5 {
			swing = -swing
		}
		ctx.LengthDelta += swing
		msgs = append(msgs, fmt.Sprintf("a mysterious force intervenes: %+d", swing))
	}

	switch p.TrainCombo {
	case 3:
		ctx.LengthDelta++
		msgs = append(msgs, "combo x3: +1")
	case 5:
		ctx.LengthDelta += 2
		msgs = append(msgs, "combo x5: +2")
	case 10:
		ctx.LengthDelta += 3
		msgs = append(msgs, "combo x10: +3")
	}
	if firstToday {
		ctx.LengthDelta += 2
		msgs = append(msgs, "first session today: +2")
	}

	if ctx.LengthDelta == 0 && ctx.HardnessDelta == 0 && ctx.CoinsDelta == 0 {
		if s.nextFloat() < 0.5 {
			g := s.intIn(1, 3)
			ctx.LengthDelta += g
			msgs = append(msgs, fmt.Sprintf("nothing happened... or did it? +%d", g))
		} else {
			c := int64(s.intIn(5, 20))
			ctx.CoinsDelta += c
			msgs = append(msgs, fmt.Sprintf("a consolation tip: +%d coins", c))
		}
	}

	s.runPipeline(sc, TriggerAfterTrain, ctx, p.items(), nil)
	consumeTriggered(p, ctx)

	if ctx.LengthDelta >= 0 {
		p.Length += ctx.LengthDelta
	} else {
		msgs = append(msgs, s.applyLengthLoss(sc, in.GroupID, in.ActorID, p, -ctx.LengthDelta, false)...)
	}
	p.Hardness = clampHardness(p.Hardness + ctx.HardnessDelta)
	p.Coins += ctx.CoinsDelta
	if resetCooldown {
		p.LastTrain = 0
	} else {
		p.LastTrain = now
	}
	sc.markRecords()

	if ctx.LengthDelta > 0 {
		visited := map[string]bool{}
		msgs = append(msgs, s.tryDrain(sc, in.GroupID, in.ActorID, ctx.LengthDelta, visited)...)
	}

	head := fmt.Sprintf("%s trains: %+d length", p.Nickname, ctx.LengthDelta)
	if ctx.HardnessDelta != 0 {
		head += fmt.Sprintf(", %+d hardness", ctx.HardnessDelta)
	}
	out := append([]string{head}, append(ctx.Messages, msgs...)...)

	if tick := s.stockHookLocked(sc, in.GroupID, categoryTrain, p.Nickname, ctx.LengthDelta, ctx.HardnessDelta, ctx.CoinsDelta); tick != "" {
		out = append(out, tick)
	}
	return out, nil
}

// trainOutcome draws the base result. Waiting past the late window makes
// gains both likelier and larger.
func (s *Service) trainOutcome(p *PlayerRecord, elapsed int64) (gain, hardGain int) {
	if p.NextTrainSure {
		p.NextTrainSure = false
		return s.intIn(3, 6), 1
	}
	r := s.nextFloat()
	if p.LastTrain == 0 || elapsed >= TrainLateWindow {
		switch {
		case r < 0.7:
			return s.intIn(3, 6), 1
		case r < 0.9:
			return -s.intIn(1, 2), 0
		default:
			return 0, 0
		}
	}
	switch {
	case r < 0.4:
		return s.intIn(2, 5), 0
	case r < 0.7:
		return -s.intIn(1, 3), 0
	default:
		return 0, 0
	}
}
