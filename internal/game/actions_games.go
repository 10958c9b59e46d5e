package game

import "fmt"

type flightEvent struct {
	desc     string
	coinsMin int
	coinsMax int
	weight   int
}

var flightEvents = []flightEvent{
	{"cruises through clear skies", 20, 60, 30},
	{"catches a tailwind bonus", 50, 120, 15},
	{"smuggles duty-free snacks", 80, 200, 8},
	{"hits turbulence and drops loose change", -40, -10, 20},
	{"gets fined for buzzing the tower", -120, -60, 7},
	{"lands a charter gig", 150, 300, 5},
	{"circles the pattern, nothing happens", 0, 0, 15},
}

// fly is a cooldown-gated spin on a weighted coin-event table.
func (s *Service) fly(sc *commandScope, in ActionInput) ([]string, error) {
	p, _ := sc.player(in.GroupID, in.ActorID)
	now := s.now().Unix()
	if now-p.LastFly < FlyCooldownSecs {
		return nil, ErrOnCooldown
	}
	p.LastFly = now

	total := 0
	for _, e := range flightEvents {
		total += e.weight
	}
	pick := s.rand.Intn(total)
	var ev flightEvent
	for _, e := range flightEvents {
		if pick < e.weight {
			ev = e
			break
		}
		pick -= e.weight
	}

	coins := int64(s.intIn(ev.coinsMin, ev.coinsMax))
	p.Coins += coins
	sc.markRecords()

	msg := fmt.Sprintf("%s %s: %+d coins", p.Nickname, ev.desc, coins)
	out := []string{msg}
	if tick := s.stockHookLocked(sc, in.GroupID, categoryChaos, p.Nickname, 0, 0, coins); tick != "" {
		out = append(out, tick)
	}
	return out, nil
}

// rushStart opens a background earning session. Nothing accrues until
// the stop settles it.
func (s *Service) rushStart(sc *commandScope, in ActionInput) ([]string, error) {
	p, _ := sc.player(in.GroupID, in.ActorID)
	now := s.now().Unix()

	today := s.dateStr(s.now())
	if p.RushDate != today {
		p.RushDate = today
		p.RushCountToday = 0
	}
	if p.RushCountToday >= RushDailyLimit {
		return nil, ErrDailyLimit
	}
	if now-p.RushLastEnd < RushCooldownSecs {
		return nil, ErrOnCooldown
	}
	if p.Rushing && now-p.RushStart < RushMaxSecs {
		return nil, ErrAlreadyRushing
	}

	p.Rushing = true
	p.RushStart = now
	p.RushCountToday++
	sc.markRecords()
	return []string{fmt.Sprintf("%s starts a rush; stop it to collect", p.Nickname)}, nil
}

// rushStop settles the session: a capped per-minute payout plus duration
// milestones.
func (s *Service) rushStop(sc *commandScope, in ActionInput) ([]string, error) {
	p, _ := sc.player(in.GroupID, in.ActorID)
	if !p.Rushing {
		return nil, ErrNotRushing
	}
	now := s.now().Unix()
	elapsed := now - p.RushStart
	if elapsed < RushMinSecs {
		return nil, fmt.Errorf("%w: rush must run at least %d minutes", ErrOnCooldown, RushMinSecs/60)
	}
	if elapsed > RushMaxSecs {
		elapsed = RushMaxSecs
	}

	minutes := int(elapsed / 60)
	base := int64(minutes * RushCoinsPerMinute)
	if base > RushMaxBaseCoins {
		base = RushMaxBaseCoins
	}

	bonus := int64(0)
	msgs := []string{}
	hours := minutes / 60
	if minutes >= 30 && s.nextFloat() < 0.2 {
		b := int64(s.intIn(10, 50))
		bonus += b
		msgs = append(msgs, fmt.Sprintf("lucky streak mid-rush: +%d", b))
	}
	if hours >= 1 {
		b := int64(hours * 5)
		bonus += b
		msgs = append(msgs, fmt.Sprintf("%dh endurance: +%d", hours, b))
	}
	for _, m := range []struct {
		h int
		b int64
	}{{3, 25}, {6, 50}, {9, 75}, {12, 100}} {
		if hours >= m.h {
			bonus += m.b
			msgs = append(msgs, fmt.Sprintf("%dh milestone: +%d", m.h, m.b))
		}
	}
	if hours >= 2 && s.nextFloat() < 0.1 {
		b := int64(s.intIn(20, 50))
		bonus += b
		msgs = append(msgs, fmt.Sprintf("super rush triggered: +%d", b))
	}

	total := base + bonus
	p.Coins += total
	p.Rushing = false
	p.RushLastEnd = now
	sc.markRecords()

	out := []string{fmt.Sprintf("%s stops after %d minutes: +%d coins (%d base)", p.Nickname, minutes, total, base)}
	out = append(out, msgs...)
	if tick := s.stockHookLocked(sc, in.GroupID, categoryChaos, p.Nickname, 0, 0, total); tick != "" {
		out = append(out, tick)
	}
	return out, nil
}
