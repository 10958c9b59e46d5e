package game

import (
	"fmt"
	"sort"
)

const (
	ChaosStormMaxTargets = 10
	DetonateVictims      = 3
	BlackHoleMinPlayers  = 3
	BlackHoleMaxTargets  = 15
	BlackHoleBackfirePct = 0.15
)

func sortedIDs(g *GroupRecord, exclude string) []string {
	ids := make([]string, 0, len(g.Players))
	for id := range g.Players {
		if id != exclude {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// chaosStorm hits a random slice of the group, one independent event per
// player drawn from a weighted table.
func (s *Service) chaosStorm(sc *commandScope, group string) []string {
	g := sc.group(group)
	ids := sortedIDs(g, "")
	s.rand.Shuffle(len(ids), func(i, j int) { ids[i], ids[j] = ids[j], ids[i] })
	if len(ids) > ChaosStormMaxTargets {
		ids = ids[:ChaosStormMaxTargets]
	}

	msgs := []string{fmt.Sprintf("a chaos storm sweeps over %d players", len(ids))}
	for _, id := range ids {
		p := g.Players[id]
		switch pick := s.rand.Intn(75); {
		case pick < 15:
			v := s.intIn(5, 20)
			p.Length += v
			msgs = append(msgs, fmt.Sprintf("%s: +%d length", p.Nickname, v))
		case pick < 30:
			v := s.intIn(3, 15)
			p.Length -= v
			msgs = append(msgs, fmt.Sprintf("%s: -%d length", p.Nickname, v))
		case pick < 40:
			v := s.intIn(1, 2)
			p.Hardness = clampHardness(p.Hardness + v)
			msgs = append(msgs, fmt.Sprintf("%s: +%d hardness", p.Nickname, v))
		case pick < 50:
			v := s.intIn(1, 2)
			p.Hardness = clampHardness(p.Hardness - v)
			if p.Hardness < 1 {
				p.Hardness = 1
			}
			msgs = append(msgs, fmt.Sprintf("%s: -%d hardness", p.Nickname, v))
		case pick < 58:
			v := int64(s.intIn(20, 80))
			p.Coins += v
			msgs = append(msgs, fmt.Sprintf("%s scoops up %d coins", p.Nickname, v))
		case pick < 66:
			v := int64(s.intIn(10, 50))
			p.Coins -= v
			msgs = append(msgs, fmt.Sprintf("%s drops %d coins into the storm", p.Nickname, v))
		case pick < 70:
			other := g.Players[ids[s.rand.Intn(len(ids))]]
			if other != p {
				p.Length, other.Length = other.Length, p.Length
				msgs = append(msgs, fmt.Sprintf("%s and %s swap lengths", p.Nickname, other.Nickname))
			}
		default:
			msgs = append(msgs, fmt.Sprintf("the storm passes %s by", p.Nickname))
		}
	}
	sc.markRecords()
	return msgs
}

// detonate zeroes the bearer and blasts the group's top lengths. The
// shockwave goes through the normal defensive layers, so shields soak
// it, but it cannot be redirected.
func (s *Service) detonate(sc *commandScope, group, actorID string) []string {
	g := sc.group(group)
	actor := g.Players[actorID]
	actor.Length = 0
	actor.Hardness = 1
	msgs := []string{fmt.Sprintf("%s is reduced to nothing by the blast", actor.Nickname)}

	ids := sortedIDs(g, actorID)
	sort.SliceStable(ids, func(i, j int) bool {
		return g.Players[ids[i]].Length > g.Players[ids[j]].Length
	})
	if len(ids) > DetonateVictims {
		ids = ids[:DetonateVictims]
	}
	for _, id := range ids {
		v := g.Players[id]
		if v.Length > 0 {
			dmg := int(float64(v.Length) * (0.20 + s.nextFloat()*0.20))
			if dmg > 0 {
				msgs = append(msgs, fmt.Sprintf("the shockwave slams into %s", v.Nickname))
				msgs = append(msgs, s.applyLengthLoss(sc, group, id, v, dmg, false)...)
			}
		}
		v.Hardness = clampHardness(v.Hardness - s.intIn(1, 2))
		if v.Hardness < 1 {
			v.Hardness = 1
		}
	}
	sc.markRecords()
	return msgs
}

// runBlackHole drains a slice off everyone nearby and routes the pooled
// length by a single outcome roll. Fails (for refund) without a crowd.
func (s *Service) runBlackHole(sc *commandScope, group, actorID string) ([]string, bool) {
	g := sc.group(group)
	others := sortedIDs(g, actorID)
	if len(others)+1 < BlackHoleMinPlayers {
		return nil, false
	}
	actor := g.Players[actorID]
	outcome := s.nextFloat()

	s.rand.Shuffle(len(others), func(i, j int) { others[i], others[j] = others[j], others[i] })
	if len(others) > BlackHoleMaxTargets {
		others = others[:BlackHoleMaxTargets]
	}

	msgs := []string{fmt.Sprintf("%s opens a black hole over the group", actor.Nickname)}
	pool := 0
	for _, id := range others {
		v := g.Players[id]
		amt := int(float64(absInt(v.Length)) * (0.03 + s.nextFloat()*0.07))
		if amt < 1 {
			amt = 1
		}
		if outcome < 0.90 {
			v.Length -= amt
			pool += amt
			msgs = append(msgs, fmt.Sprintf("%s loses %d to the pull", v.Nickname, amt))
		} else {
			v.Length += amt
			msgs = append(msgs, fmt.Sprintf("%s rides the backwash: +%d", v.Nickname, amt))
		}
	}

	switch {
	case outcome < 0.40:
		actor.Length += pool
		msgs = append(msgs, fmt.Sprintf("%s swallows the whole pool: +%d", actor.Nickname, pool))
	case outcome < 0.70:
		half := pool / 2
		bystander := g.Players[others[s.rand.Intn(len(others))]]
		actor.Length += half
		bystander.Length += pool - half
		msgs = append(msgs, fmt.Sprintf("the hole splits: %s +%d, %s gets sprayed with %d", actor.Nickname, half, bystander.Nickname, pool-half))
	case outcome < 0.90:
		self := int(float64(absInt(actor.Length)) * BlackHoleBackfirePct)
		actor.Length -= self
		msgs = append(msgs, fmt.Sprintf("the hole collapses onto %s: -%d and the pool is gone", actor.Nickname, self))
	default:
		msgs = append(msgs, "the hole chokes and sprays everything back")
	}
	sc.markRecords()
	return msgs, true
}
