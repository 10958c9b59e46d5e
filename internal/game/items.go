package game

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type ItemSpec struct {
	ID          int    `yaml:"id"`
	Name        string `yaml:"name"`
	Desc        string `yaml:"desc"`
	Price       int64  `yaml:"price"`
	Type        string `yaml:"type"` // passive: goes to inventory; active: fires on purchase
	MaxHeld     int    `yaml:"max,omitempty"`
	NeedsTarget bool   `yaml:"needs_target,omitempty"`
}

const (
	itemTempoCharm     = "tempo charm"
	itemMindLeech      = "mind leech"
	itemPathfinderClaw = "pathfinder claw"
	itemRainGuard      = "rain guard"
	itemQuickRelease   = "quick release"
	itemGamblerCoin    = "gambler coin"
	itemRobinHoodLevy  = "robin hood levy"
	itemGrowthSerum    = "growth serum"
	itemWhetstone      = "temper whetstone"
	itemCreepingToxin  = "creeping toxin"
	itemParasiteEgg    = "parasite egg"
	itemInsurance      = "insurance policy"
	itemAegisShield    = "aegis shield"
	itemScapegoatWrit  = "scapegoat writ"
	itemPurgeTonic     = "purge tonic"
	itemBlackHole      = "black hole"
)

var defaultCatalog = []ItemSpec{
	{ID: 1, Name: itemTempoCharm, Desc: "skips the training cooldown once", Price: 150, Type: "passive", MaxHeld: 3},
	{ID: 2, Name: itemMindLeech, Desc: "hijacks your next duel: steal everything, or lose it all", Price: 1200, Type: "passive", MaxHeld: 1},
	{ID: 3, Name: itemPathfinderClaw, Desc: "extra plunder when you win as the shorter side", Price: 400, Type: "passive", MaxHeld: 3},
	{ID: 4, Name: itemRainGuard, Desc: "absorbs one duel loss", Price: 500, Type: "passive", MaxHeld: 3},
	{ID: 5, Name: itemQuickRelease, Desc: "blocks one halving event", Price: 350, Type: "passive", MaxHeld: 3},
	{ID: 6, Name: itemGamblerCoin, Desc: "flip for 2.2x the price back", Price: 200, Type: "active"},
	{ID: 7, Name: itemRobinHoodLevy, Desc: "take 10% from the richest, give it to the poorest", Price: 600, Type: "active"},
	{ID: 8, Name: itemGrowthSerum, Desc: "instant +2..5 length", Price: 450, Type: "active"},
	{ID: 9, Name: itemWhetstone, Desc: "instant +1..2 hardness", Price: 300, Type: "active"},
	{ID: 10, Name: itemCreepingToxin, Desc: "afflicts a target: five delayed hits anchored to today", Price: 2000, Type: "active", NeedsTarget: true},
	{ID: 11, Name: itemParasiteEgg, Desc: "attach yourself to a host and skim their big gains", Price: 1500, Type: "active", NeedsTarget: true},
	{ID: 12, Name: itemInsurance, Desc: "10 payout charges against heavy losses", Price: 800, Type: "active"},
	{ID: 13, Name: itemAegisShield, Desc: "3 charges that soften incoming hits", Price: 700, Type: "active"},
	{ID: 14, Name: itemScapegoatWrit, Desc: "2 charges that bounce big losses to a bystander", Price: 900, Type: "active"},
	{ID: 15, Name: itemPurgeTonic, Desc: "flushes the parasite off your back", Price: 250, Type: "active"},
	{ID: 16, Name: itemBlackHole, Desc: "siphons the whole group; where it all ends up is anyone's guess", Price: 1000, Type: "active"},
}

// LoadCatalog merges an optional YAML overlay file into the default
// catalog by id. Unknown overlay ids become new items.
func LoadCatalog(path string) ([]ItemSpec, error) {
	out := make([]ItemSpec, len(defaultCatalog))
	copy(out, defaultCatalog)
	if path == "" {
		return out, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return out, nil
		}
		return out, fmt.Errorf("read catalog: %w", err)
	}
	var overlay []ItemSpec
	if err := yaml.Unmarshal(raw, &overlay); err != nil {
		return out, fmt.Errorf("decode catalog: %w", err)
	}
	byID := map[int]int{}
	for i, spec := range out {
		byID[spec.ID] = i
	}
	for _, spec := range overlay {
		if i, ok := byID[spec.ID]; ok {
			out[i] = spec
		} else {
			out = append(out, spec)
		}
	}
	return out, nil
}

func (s *Service) itemByID(id int) (ItemSpec, bool) {
	for _, spec := range s.catalog {
		if spec.ID == id {
			return spec, true
		}
	}
	return ItemSpec{}, false
}

// ---- concrete effect handlers ----

type effectBase struct {
	name     string
	triggers []Trigger
	consume  bool
}

func (b effectBase) Name() string        { return b.name }
func (b effectBase) Triggers() []Trigger { return b.triggers }
func (b effectBase) SelfConsumes() bool  { return b.consume }

type tempoCharmEffect struct{ effectBase }

func (tempoCharmEffect) Apply(_ Trigger, ctx *EffectContext, _ Rng) {
	ctx.SkipCooldown = true
	ctx.addMessage("tempo charm hums: cooldown waived")
}

// mindLeechEffect commandeers the whole duel. It is the one handler that
// intercepts: everything after it in the pipeline is skipped. Two of its
// outcomes hit the whole group; the handler cannot reach other players,
// so those are delegated to the duel handler through the side channel.
type mindLeechEffect struct{ effectBase }

func (mindLeechEffect) Apply(_ Trigger, ctx *EffectContext, rng Rng) {
	ctx.Intercept = true
	switch roll := rng.Float64(); {
	case roll < 0.50:
		if ctx.TargetLength > 0 {
			ctx.LengthDelta += ctx.TargetLength
			ctx.TargetLengthDelta -= ctx.TargetLength
		}
		if take := ctx.TargetHardness - 1; take > 0 {
			ctx.HardnessDelta += take
			ctx.TargetHardnessDelta -= take
		}
		ctx.addMessage(fmt.Sprintf("the mind leech drains %s completely", ctx.TargetName))
	case roll < 0.70:
		ctx.setExtra("chaos_storm", true)
		ctx.addMessage("the mind leech bursts into a chaos storm")
	case roll < 0.90:
		ctx.setExtra("detonate", true)
		ctx.addMessage(fmt.Sprintf("the mind leech overloads inside %s and detonates", ctx.ActorName))
	default:
		ctx.LengthDelta -= ctx.ActorLength
		ctx.addMessage("the mind leech turns on its master: everything is gone")
	}
}

type pathfinderClawEffect struct{ effectBase }

func (pathfinderClawEffect) Apply(_ Trigger, ctx *EffectContext, _ Rng) {
	// Only pays off for the shorter side; the duel handler reads this.
	if ctx.ActorLength < ctx.TargetLength {
		ctx.setExtra("extra_plunder", 0.10)
		ctx.addMessage("pathfinder claw digs in for extra plunder")
	}
}

type rainGuardEffect struct{ effectBase }

func (rainGuardEffect) Apply(_ Trigger, ctx *EffectContext, _ Rng) {
	ctx.PreventLoss = true
	ctx.addMessage("rain guard opens: the loss is absorbed")
}

type quickReleaseEffect struct{ effectBase }

func (quickReleaseEffect) Apply(_ Trigger, ctx *EffectContext, _ Rng) {
	ctx.PreventHalving = true
	ctx.addMessage("quick release snaps: the halving fizzles")
}

type gamblerCoinEffect struct{ effectBase }

func (gamblerCoinEffect) Apply(_ Trigger, ctx *EffectContext, rng Rng) {
	price, _ := ctx.Extra["item_price"].(int64)
	if rng.Float64() < 0.45 {
		prize := int64(float64(price) * 2.2)
		ctx.CoinsDelta += prize
		ctx.addMessage(fmt.Sprintf("the coin lands your way: +%d coins", prize))
		return
	}
	ctx.addMessage("the coin rolls into a drain; nothing comes back")
}

type robinHoodLevyEffect struct{ effectBase }

func (robinHoodLevyEffect) Apply(_ Trigger, ctx *EffectContext, _ Rng) {
	// The transfer needs the whole group; the purchase handler executes
	// it and refunds on failure.
	ctx.setExtra("levy", true)
}

type growthSerumEffect struct{ effectBase }

func (growthSerumEffect) Apply(_ Trigger, ctx *EffectContext, rng Rng) {
	gain := 2 + rng.Intn(4)
	ctx.LengthDelta += gain
	ctx.addMessage(fmt.Sprintf("growth serum kicks in: +%d", gain))
}

type whetstoneEffect struct{ effectBase }

func (whetstoneEffect) Apply(_ Trigger, ctx *EffectContext, rng Rng) {
	gain := 1 + rng.Intn(2)
	ctx.HardnessDelta += gain
	ctx.addMessage(fmt.Sprintf("temper whetstone grinds: +%d hardness", gain))
}

type creepingToxinEffect struct{ effectBase }

func (creepingToxinEffect) Apply(_ Trigger, ctx *EffectContext, _ Rng) {
	ctx.setExtra("apply_affliction", true)
}

type parasiteEggEffect struct{ effectBase }

func (parasiteEggEffect) Apply(_ Trigger, ctx *EffectContext, _ Rng) {
	ctx.setExtra("attach_parasite", true)
}

type insuranceEffect struct{ effectBase }

func (insuranceEffect) Apply(_ Trigger, ctx *EffectContext, _ Rng) {
	ctx.setExtra("grant_insurance", true)
	ctx.addMessage(fmt.Sprintf("insurance bound: %d charges", InsuranceCharges))
}

type aegisShieldEffect struct{ effectBase }

func (aegisShieldEffect) Apply(_ Trigger, ctx *EffectContext, _ Rng) {
	ctx.setExtra("grant_shield", true)
	ctx.addMessage(fmt.Sprintf("aegis raised: %d charges", ShieldCharges))
}

type scapegoatWritEffect struct{ effectBase }

func (scapegoatWritEffect) Apply(_ Trigger, ctx *EffectContext, _ Rng) {
	ctx.setExtra("grant_redirect", true)
	ctx.addMessage(fmt.Sprintf("scapegoat writ signed: %d charges", RedirectCharges))
}

type purgeTonicEffect struct{ effectBase }

func (purgeTonicEffect) Apply(_ Trigger, ctx *EffectContext, _ Rng) {
	ctx.setExtra("cure_parasite", true)
}

type blackHoleEffect struct{ effectBase }

func (blackHoleEffect) Apply(_ Trigger, ctx *EffectContext, _ Rng) {
	ctx.setExtra("black_hole", true)
}

// registerDefaultEffects wires every item-bound handler in its canonical
// order. Registration is explicit; there is no reflection or lookup by
// convention.
func registerDefaultEffects(p *EffectPipeline) {
	p.Register(tempoCharmEffect{effectBase{itemTempoCharm, []Trigger{TriggerBeforeTrain}, true}})
	p.Register(mindLeechEffect{effectBase{itemMindLeech, []Trigger{TriggerBeforeDuel}, true}})
	p.Register(pathfinderClawEffect{effectBase{itemPathfinderClaw, []Trigger{TriggerOnDuelWin}, true}})
	p.Register(rainGuardEffect{effectBase{itemRainGuard, []Trigger{TriggerOnDuelLose}, true}})
	p.Register(quickReleaseEffect{effectBase{itemQuickRelease, []Trigger{TriggerOnHalving}, true}})
	p.Register(gamblerCoinEffect{effectBase{itemGamblerCoin, []Trigger{TriggerOnPurchase}, false}})
	p.Register(robinHoodLevyEffect{effectBase{itemRobinHoodLevy, []Trigger{TriggerOnPurchase}, false}})
	p.Register(growthSerumEffect{effectBase{itemGrowthSerum, []Trigger{TriggerOnPurchase}, false}})
	p.Register(whetstoneEffect{effectBase{itemWhetstone, []Trigger{TriggerOnPurchase}, false}})
	p.Register(creepingToxinEffect{effectBase{itemCreepingToxin, []Trigger{TriggerOnPurchase}, false}})
	p.Register(parasiteEggEffect{effectBase{itemParasiteEgg, []Trigger{TriggerOnPurchase}, false}})
	p.Register(insuranceEffect{effectBase{itemInsurance, []Trigger{TriggerOnPurchase}, false}})
	p.Register(aegisShieldEffect{effectBase{itemAegisShield, []Trigger{TriggerOnPurchase}, false}})
	p.Register(scapegoatWritEffect{effectBase{itemScapegoatWrit, []Trigger{TriggerOnPurchase}, false}})
	p.Register(purgeTonicEffect{effectBase{itemPurgeTonic, []Trigger{TriggerOnPurchase}, false}})
	p.Register(blackHoleEffect{effectBase{itemBlackHole, []Trigger{TriggerOnPurchase}, false}})
}
