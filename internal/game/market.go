package game

import (
	"fmt"
	"math"
)

// Pricing categories. Routine actions move the needle a little; chaos
// and global events can move it a lot.
const (
	categoryTrain  = "train"
	categoryDuel   = "duel"
	categoryItem   = "item"
	categoryChaos  = "chaos"
	categoryGlobal = "global"
)

type volatilityBand struct {
	lo, hi float64
}

var volatilityBands = map[string]volatilityBand{
	categoryTrain:  {0.005, 0.02},
	categoryDuel:   {0.01, 0.05},
	categoryItem:   {0.02, 0.08},
	categoryChaos:  {0.02, 0.08},
	categoryGlobal: {0.05, 0.15},
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func clampPrice(v float64) float64 {
	if v < MinPrice {
		return MinPrice
	}
	if v > MaxPrice {
		return MaxPrice
	}
	return v
}

// updatePrice applies one multiplicative step to the group instrument.
// direction: +1 forces up, -1 forces down, 0 leaves it to a biased coin
// flip. magnitude scales the drawn volatility. The walk is strictly
// multiplicative so percentage returns mean the same thing at every
// price level.
func (s *Service) updatePrice(sc *commandScope, group, category string, direction int, magnitude, bias float64, desc string) (newPrice, changePct float64, up bool) {
	st := sc.stock(group)
	band, ok := volatilityBands[category]
	if !ok {
		band = volatilityBands[categoryItem]
	}
	if magnitude < 1 {
		magnitude = 1
	}
	vol := (band.lo + s.nextFloat()*(band.hi-band.lo)) * magnitude

	switch direction {
	case 1:
		up = true
	case -1:
		up = false
	default:
		if bias > 0.35 {
			bias = 0.35
		}
		if bias < -0.35 {
			bias = -0.35
		}
		up = s.nextFloat() < 0.5+bias
	}

	factor := 1 + vol
	if !up {
		factor = 1 - vol
	}
	old := st.Price
	st.Price = clampPrice(round2(old * factor))
	sc.markMarket()

	changePct = vol * 100
	dir := 1
	if !up {
		dir = -1
	}
	st.Events = append(st.Events, StockEvent{
		Time:        s.now().Unix(),
		Category:    category,
		Direction:   dir,
		ChangePct:   changePct,
		Description: desc,
	})
	if len(st.Events) > StockEventsMax {
		st.Events = st.Events[len(st.Events)-StockEventsMax:]
	}
	return st.Price, changePct, up
}

// reversionStep pulls the price toward the base anchor instead of
// walking randomly; purchase-driven updates use it so player buying
// pressure does not compound into a runaway trend.
func (s *Service) reversionStep(sc *commandScope, group string, strength float64, desc string) float64 {
	st := sc.stock(group)
	pull := strength * (BasePrice - st.Price) / BasePrice
	st.Price = clampPrice(round2(st.Price * (1 + pull)))
	sc.markMarket()
	st.Events = append(st.Events, StockEvent{
		Time:        s.now().Unix(),
		Category:    categoryItem,
		ChangePct:   pull * 100,
		Description: desc,
	})
	if len(st.Events) > StockEventsMax {
		st.Events = st.Events[len(st.Events)-StockEventsMax:]
	}
	return st.Price
}

// stockHookLocked is the pricing side effect handlers fire after state
// changes. It must never surface a failure: worst case it returns "".
func (s *Service) stockHookLocked(sc *commandScope, group, category, nickname string, lengthChange, hardnessChange int, coinsChange int64) (out string) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("stock hook panicked", "panic", r)
			out = ""
		}
	}()

	total := float64(lengthChange) + float64(hardnessChange)*10 + float64(coinsChange)*0.1
	magnitude := 1 + math.Abs(total)/50
	if magnitude > 3 {
		magnitude = 3
	}
	bias := math.Abs(total) / 50 * 0.35
	if bias > 0.35 {
		bias = 0.35
	}
	if total < 0 {
		bias = -bias
	}
	if category == categoryChaos || category == categoryGlobal {
		bias = 0
	}

	desc := fmt.Sprintf("%s (%s)", nickname, category)
	price, pct, up := s.updatePrice(sc, group, category, 0, magnitude, bias, desc)
	arrow := "+"
	if !up {
		arrow = "-"
	}
	return fmt.Sprintf("[market] %s%.2f%% -> %.2f", arrow, pct, price)
}

// meanPositiveCoins is the taxation reference: the average positive
// balance among registered players. Empty groups average to zero.
func meanPositiveCoins(g *GroupRecord) float64 {
	total := 0.0
	n := 0
	for _, p := range g.Players {
		if p.Coins > 0 {
			total += float64(p.Coins)
		}
		n++
	}
	if n == 0 {
		return 0
	}
	return total / float64(n)
}

// taxFor is the progressive bracket function. The rate depends on how
// many multiples of the reference average the amount represents, so the
// effective rate is monotonic non-decreasing in amount/referenceAverage.
func taxFor(amount int64, referenceAverage float64) (tax int64, rate float64, bracket string) {
	if amount <= 0 {
		return 0, 0, "none"
	}
	ref := referenceAverage
	if ref < 1 {
		ref = 1
	}
	multiple := float64(amount) / ref
	switch {
	case multiple <= 1:
		return 0, 0, "none"
	case multiple <= 2:
		rate, bracket = 0.10, "modest"
	case multiple <= 3:
		rate, bracket = 0.20, "comfortable"
	case multiple <= 5:
		rate, bracket = 0.30, "wealthy"
	case multiple <= 10:
		rate, bracket = 0.50, "excessive"
	default:
		rate, bracket = 0.75, "obscene"
	}
	return int64(float64(amount) * rate), rate, bracket
}

// buyImpact grows with order size but is hard-capped so a whale cannot
// gap the price.
func buyImpact(coins int64) float64 {
	impact := 0.001 + float64(coins)/10000*0.01
	if impact > 0.02 {
		impact = 0.02
	}
	return impact
}

// stockBuy spends coins on shares: 3% fee, then upward price impact
// before the fill, so buyers pay their own slippage.
func (s *Service) stockBuy(sc *commandScope, group, user string, coins int64) ([]string, error) {
	if coins <= 0 {
		return nil, ErrInvalidAmount
	}
	p, ok := sc.player(group, user)
	if !ok {
		return nil, ErrNotRegistered
	}
	if p.Coins < coins {
		return nil, ErrInsufficientCoins
	}
	st := sc.stock(group)

	fee := int64(math.Round(float64(coins) * StockFeeRate))
	net := coins - fee
	if net <= 0 {
		return nil, ErrInvalidAmount
	}

	st.Price = clampPrice(round2(st.Price * (1 + buyImpact(coins))))
	fillPrice := st.Price
	shares := round2(float64(net) / fillPrice)
	if shares <= 0 {
		return nil, ErrInvalidAmount
	}

	p.Coins -= coins
	st.Holdings[user] += shares
	stats := st.Stats[user]
	if stats == nil {
		stats = &TraderStats{}
		st.Stats[user] = stats
	}
	stats.Spent += float64(net)
	stats.Fees += float64(fee)
	sc.markRecords()
	sc.markMarket()

	s.reversionStep(sc, group, 0.02, fmt.Sprintf("%s buys", p.Nickname))
	return []string{fmt.Sprintf("bought %.2f shares at %.2f (fee %d)", shares, fillPrice, fee)}, nil
}

// stockSell unwinds shares: downward impact before the fill, 3% fee,
// then progressive tax on any realized profit over the group's mean
// positive balance.
func (s *Service) stockSell(sc *commandScope, group, user string, shares float64) ([]string, error) {
	if shares <= 0 {
		return nil, ErrInvalidAmount
	}
	p, ok := sc.player(group, user)
	if !ok {
		return nil, ErrNotRegistered
	}
	st := sc.stock(group)
	held := st.Holdings[user]
	if held < shares {
		return nil, ErrInsufficientShare
	}

	st.Price = clampPrice(round2(st.Price * (1 - buyImpact(int64(shares*st.Price)))))
	proceeds := int64(math.Round(shares * st.Price))
	fee := int64(math.Round(float64(proceeds) * StockFeeRate))

	stats := st.Stats[user]
	if stats == nil {
		stats = &TraderStats{}
		st.Stats[user] = stats
	}
	costBasis := int64(0)
	if held > 0 {
		costBasis = int64(math.Round(stats.Spent * shares / held))
	}
	profit := proceeds - fee - costBasis

	var tax int64
	var bracket string
	if profit > 0 {
		tax, _, bracket = taxFor(profit, meanPositiveCoins(sc.group(group)))
	}

	st.Holdings[user] = round2(held - shares)
	if st.Holdings[user] <= 0 {
		delete(st.Holdings, user)
	}
	stats.Spent -= float64(costBasis)
	if stats.Spent < 0 {
		stats.Spent = 0
	}
	stats.Proceeds += float64(proceeds)
	stats.Fees += float64(fee)
	stats.Taxes += float64(tax)

	p.Coins += proceeds - fee - tax
	sc.markRecords()
	sc.markMarket()

	msg := fmt.Sprintf("sold %.2f shares at %.2f: +%d coins (fee %d)", shares, st.Price, proceeds-fee-tax, fee)
	if tax > 0 {
		msg += fmt.Sprintf(", %s-bracket tax %d", bracket, tax)
	}
	return []string{msg}, nil
}

// forceLiquidate destroys up to `value` worth of holdings at the current
// price. It is a pure loss: no proceeds, no fee, no tax. The staged
// affliction uses it when a victim's coins run dry.
func (s *Service) forceLiquidate(sc *commandScope, group, user string, value float64) float64 {
	if value <= 0 {
		return 0
	}
	st := sc.stock(group)
	held := st.Holdings[user]
	if held <= 0 || st.Price <= 0 {
		return 0
	}
	shares := round2(value / st.Price)
	if shares > held {
		shares = held
	}
	st.Holdings[user] = round2(held - shares)
	if st.Holdings[user] <= 0 {
		delete(st.Holdings, user)
	}
	sc.markMarket()
	st.Events = append(st.Events, StockEvent{
		Time:        s.now().Unix(),
		Category:    categoryChaos,
		Direction:   -1,
		Description: "forced liquidation",
	})
	if len(st.Events) > StockEventsMax {
		st.Events = st.Events[len(st.Events)-StockEventsMax:]
	}
	return shares * st.Price
}

// bailout clears a debtor's negative balance and dumps the instrument
// proportionally to the written-off debt.
func (s *Service) bailout(sc *commandScope, group, user string) ([]string, error) {
	p, ok := sc.player(group, user)
	if !ok {
		return nil, ErrNotRegistered
	}
	if p.Coins >= 0 {
		return []string{fmt.Sprintf("%s is solvent, no bailout needed", p.Nickname)}, nil
	}
	debt := -p.Coins
	p.Coins = 0
	sc.markRecords()

	impact := 0.01 * math.Log2(1+float64(debt)/1000)
	st := sc.stock(group)
	st.Price = clampPrice(round2(st.Price * (1 - impact)))
	sc.markMarket()
	return []string{fmt.Sprintf("bailout: %d debt written off, market dips %.2f%%", debt, impact*100)}, nil
}
