package game

import (
	"fmt"
	"math"
)

// tryDrain runs the parasite cascade after a host's positive length
// gain. The visited set is owned by the calling action and passed down
// through every recursion: beneficiary chains are player-built and may
// contain cycles, so termination comes from the set, not from depth.
func (s *Service) tryDrain(sc *commandScope, group, hostID string, gain int, visited map[string]bool) []string {
	if gain <= 0 || visited[hostID] {
		return nil
	}
	visited[hostID] = true

	host, ok := sc.player(group, hostID)
	if !ok || host.Parasite == nil {
		return nil
	}
	bene, ok := sc.player(group, host.Parasite.BeneficiaryID)
	if !ok {
		// Stale link, drop it.
		host.Parasite = nil
		sc.markRecords()
		return nil
	}

	threshold := float64(absInt(bene.Length)) * s.parasiteThresholdMult
	if float64(gain) <= threshold {
		return nil
	}

	lengthDrain := int(float64(gain) * s.parasiteDrainPct)
	if lengthDrain < 1 {
		lengthDrain = 1
	}

	hardnessDrain := 0
	switch {
	case host.Hardness == 0:
		// Nothing left to take.
	case host.Hardness == 1:
		hardnessDrain = 1 // drains to the true floor
	default:
		hardnessDrain = int(float64(host.Hardness) * s.parasiteDrainPct)
		if hardnessDrain < 1 {
			hardnessDrain = 1
		}
	}

	host.Length -= lengthDrain
	host.Hardness = clampHardness(host.Hardness - hardnessDrain)
	bene.Length += lengthDrain
	bene.Hardness = clampHardness(bene.Hardness + hardnessDrain)
	sc.markRecords()

	msgs := []string{fmt.Sprintf("%s's parasite siphons %d length to %s", host.Nickname, lengthDrain, bene.Nickname)}
	msgs = append(msgs, s.tryDrain(sc, group, host.Parasite.BeneficiaryID, lengthDrain, visited)...)
	return msgs
}

// applyAffliction arms the staged debuff on a victim: a snapshot of
// length, hardness and total asset (coins plus holdings at the current
// price), worn down by a fixed slice of the snapshot on each of the next
// qualifying actions.
func (s *Service) applyAffliction(sc *commandScope, group, victimID, applierID string) []string {
	victim, ok := sc.player(group, victimID)
	if !ok {
		return nil
	}
	st := sc.stock(group)
	asset := float64(victim.Coins) + st.Holdings[victimID]*st.Price
	if asset < 0 {
		asset = 0
	}
	victim.Affliction = &AfflictionRecord{
		Active:         true,
		RemainingSteps: AfflictionSteps,
		SnapLength:     victim.Length,
		SnapHardness:   victim.Hardness,
		SnapAsset:      asset,
		AppliedBy:      applierID,
	}
	sc.markRecords()
	return []string{fmt.Sprintf("%s is afflicted: %d hits are coming", victim.Nickname, AfflictionSteps)}
}

// afflictionStep runs before a victim's qualifying action. Damage is
// anchored to the snapshot so the total over all steps is a fixed
// fraction of what the victim owned at application time. The debuff
// ignores every shield, insurance and interception mechanism.
func (s *Service) afflictionStep(sc *commandScope, group, userID string) []string {
	p, ok := sc.player(group, userID)
	if !ok || p.Affliction == nil || !p.Affliction.Active {
		return nil
	}
	a := p.Affliction
	firstStep := a.RemainingSteps == AfflictionSteps

	dedLen := int(float64(a.SnapLength) * AfflictionStepPct)
	dedHard := int(float64(a.SnapHardness) * AfflictionStepPct)
	dedAsset := int64(a.SnapAsset * AfflictionStepPct)

	p.Length -= dedLen
	p.Hardness = clampHardness(p.Hardness - dedHard)

	// Coins first, forced liquidation for the remainder.
	assetTaken := int64(0)
	if dedAsset > 0 {
		fromCoins := dedAsset
		if p.Coins < fromCoins {
			if p.Coins > 0 {
				fromCoins = p.Coins
			} else {
				fromCoins = 0
			}
		}
		p.Coins -= fromCoins
		assetTaken = fromCoins
		if rest := dedAsset - fromCoins; rest > 0 {
			liq := s.forceLiquidate(sc, group, userID, float64(rest))
			assetTaken += int64(math.Round(liq))
		}
	}

	msgs := []string{fmt.Sprintf("%s takes an affliction hit: -%d length, -%d hardness, -%d coins", p.Nickname, dedLen, dedHard, assetTaken)}

	// Step 1 transfers the damage to whoever planted it; later steps
	// just destroy it.
	if firstStep && a.AppliedBy != "" && a.AppliedBy != userID {
		if applier, ok := sc.player(group, a.AppliedBy); ok {
			applier.Length += dedLen
			applier.Hardness = clampHardness(applier.Hardness + dedHard)
			applier.Coins += assetTaken
			msgs = append(msgs, fmt.Sprintf("%s collects the first hit", applier.Nickname))
		}
	}

	a.RemainingSteps--
	if a.RemainingSteps <= 0 {
		p.Affliction = nil
		msgs = append(msgs, fmt.Sprintf("the affliction on %s burns out", p.Nickname))
	}
	sc.markRecords()
	return msgs
}

// attachParasite points a host's drain link at a beneficiary. One
// outgoing link per player; a new egg replaces the old link.
func (s *Service) attachParasite(sc *commandScope, group, hostID, beneficiaryID string) []string {
	host, ok := sc.player(group, hostID)
	if !ok {
		return nil
	}
	bene, ok := sc.player(group, beneficiaryID)
	if !ok {
		return nil
	}
	host.Parasite = &ParasiteLink{BeneficiaryID: beneficiaryID, BeneficiaryName: bene.Nickname}
	sc.markRecords()
	return []string{fmt.Sprintf("a parasite latches onto %s, feeding %s", host.Nickname, bene.Nickname)}
}
