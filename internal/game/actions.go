package game

import (
	"fmt"

	"github.com/google/uuid"
)

type ActionKind string

const (
	ActionRegister     ActionKind = "register"
	ActionGreet        ActionKind = "greet"
	ActionTrain        ActionKind = "train"
	ActionDuel         ActionKind = "duel"
	ActionRob          ActionKind = "rob"
	ActionBrawl        ActionKind = "brawl"
	ActionRushStart    ActionKind = "rush_start"
	ActionRushStop     ActionKind = "rush_stop"
	ActionFly          ActionKind = "fly"
	ActionBuyItem      ActionKind = "buy_item"
	ActionSubscribe    ActionKind = "subscribe"
	ActionStockBuy     ActionKind = "stock_buy"
	ActionStockSell    ActionKind = "stock_sell"
	ActionAdminEnable  ActionKind = "admin_enable"
	ActionAdminDisable ActionKind = "admin_disable"
	ActionAdminPacket  ActionKind = "admin_packet"
	ActionAdminSubsidy ActionKind = "admin_subsidy"
	ActionAdminBailout ActionKind = "admin_bailout"
)

type ActionInput struct {
	Kind       ActionKind
	GroupID    string
	ActorID    string
	ActorName  string
	TargetID   string
	TargetName string

	// Amount carries bets, grant sizes and stock notional; Shares the
	// sell size; ItemID the shop selection; Plan the subscription name.
	Amount int64
	Shares float64
	ItemID int
	Plan   string
}

// HandleAction is the single entry point for the command-routing layer.
// It opens one command scope, runs the action, and flushes on the way
// out regardless of the path taken.
func (s *Service) HandleAction(in ActionInput) (msgs []string, err error) {
	trace := uuid.NewString()
	s.log.Info("action", "trace", trace, "kind", in.Kind, "group", in.GroupID, "actor", in.ActorID)

	sc := s.begin()
	defer sc.Close()

	switch in.Kind {
	case ActionAdminEnable:
		sc.setGroupEnabled(in.GroupID, true)
		return []string{"group enabled"}, nil
	case ActionAdminDisable:
		sc.setGroupEnabled(in.GroupID, false)
		return []string{"group disabled"}, nil
	}

	if !sc.group(in.GroupID).Enabled {
		return nil, ErrGroupDisabled
	}

	if in.Kind == ActionRegister {
		return s.register(sc, in)
	}

	if _, ok := sc.player(in.GroupID, in.ActorID); !ok && !isAdminKind(in.Kind) {
		return nil, ErrNotRegistered
	}

	// The staged affliction fires before the action it rides on.
	if afflictionQualifies(in.Kind) {
		msgs = append(msgs, s.afflictionStep(sc, in.GroupID, in.ActorID)...)
	}

	var out []string
	switch in.Kind {
	case ActionGreet:
		out, err = s.greet(sc, in)
	case ActionTrain:
		out, err = s.train(sc, in)
	case ActionDuel:
		out, err = s.duel(sc, in)
	case ActionRob:
		out, err = s.rob(sc, in)
	case ActionBrawl:
		out, err = s.brawl(sc, in)
	case ActionRushStart:
		out, err = s.rushStart(sc, in)
	case ActionRushStop:
		out, err = s.rushStop(sc, in)
	case ActionFly:
		out, err = s.fly(sc, in)
	case ActionBuyItem:
		out, err = s.buyItem(sc, in)
	case ActionSubscribe:
		out, err = s.subscribe(sc, in.GroupID, in.ActorID, in.Plan)
	case ActionStockBuy:
		out, err = s.stockBuy(sc, in.GroupID, in.ActorID, in.Amount)
	case ActionStockSell:
		out, err = s.stockSell(sc, in.GroupID, in.ActorID, in.Shares)
	case ActionAdminPacket:
		out, err = s.adminPacket(sc, in)
	case ActionAdminSubsidy:
		out, err = s.adminSubsidy(sc, in)
	case ActionAdminBailout:
		out, err = s.bailout(sc, in.GroupID, in.TargetID)
	default:
		return nil, ErrUnknownAction
	}
	if err != nil {
		// The affliction already ticked on the attempt; its messages
		// ride along with the refusal.
		return msgs, err
	}
	return append(msgs, out...), nil
}

func isAdminKind(k ActionKind) bool {
	switch k {
	case ActionAdminPacket, ActionAdminSubsidy, ActionAdminBailout:
		return true
	}
	return false
}

func afflictionQualifies(k ActionKind) bool {
	switch k {
	case ActionTrain, ActionDuel, ActionRob, ActionBrawl, ActionRushStop,
		ActionFly, ActionBuyItem, ActionStockBuy, ActionStockSell:
		return true
	}
	return false
}

func (s *Service) register(sc *commandScope, in ActionInput) ([]string, error) {
	if _, ok := sc.player(in.GroupID, in.ActorID); ok {
		return nil, ErrAlreadyRegistered
	}
	p := &PlayerRecord{
		Nickname: in.ActorName,
		Length:   s.intIn(RegisterLengthMin, RegisterLengthMax),
		Hardness: 1,
	}
	sc.setPlayer(in.GroupID, in.ActorID, p)
	return []string{fmt.Sprintf("%s registered: length %d, hardness %d", p.Nickname, p.Length, p.Hardness)}, nil
}

// greet is the once-a-day check-in: a small coin grant.
func (s *Service) greet(sc *commandScope, in ActionInput) ([]string, error) {
	p, _ := sc.player(in.GroupID, in.ActorID)
	today := s.dateStr(s.now())
	if p.GreetDate == today {
		return nil, ErrDailyLimit
	}
	p.GreetDate = today
	grant := int64(s.intIn(5, 20))
	p.Coins += grant
	sc.markRecords()
	return []string{fmt.Sprintf("%s checks in: +%d coins", p.Nickname, grant)}, nil
}

func (s *Service) adminPacket(sc *commandScope, in ActionInput) ([]string, error) {
	if in.Amount <= 0 || in.Amount > AdminGrantMaxEach {
		return nil, ErrInvalidAmount
	}
	g := sc.group(in.GroupID)
	if len(g.Players) == 0 {
		return nil, ErrNotEnoughPlayers
	}
	for _, p := range g.Players {
		p.Coins += in.Amount
	}
	sc.markRecords()
	return []string{fmt.Sprintf("red packet: %d coins to each of %d players", in.Amount, len(g.Players))}, nil
}

func (s *Service) adminSubsidy(sc *commandScope, in ActionInput) ([]string, error) {
	if in.Amount <= 0 || in.Amount > AdminGrantMaxEach {
		return nil, ErrInvalidAmount
	}
	p, ok := sc.player(in.GroupID, in.TargetID)
	if !ok {
		return nil, ErrTargetNotFound
	}
	p.Coins += in.Amount
	sc.markRecords()
	return []string{fmt.Sprintf("subsidy: +%d coins to %s", in.Amount, p.Nickname)}, nil
}

// applyLengthLoss routes a length loss through the defensive layers:
// scapegoat redirect for heavy hits, shield halving, then insurance
// payout. The affliction never comes through here.
func (s *Service) applyLengthLoss(sc *commandScope, group string, userID string, p *PlayerRecord, loss int, allowRedirect bool) []string {
	if loss <= 0 {
		return nil
	}
	var msgs []string

	if allowRedirect && loss >= 50 && p.RedirectLeft > 0 {
		if victimID, victim := s.randomOtherPlayer(sc, group, userID); victim != nil {
			p.RedirectLeft--
			msgs = append(msgs, fmt.Sprintf("%s's scapegoat writ bounces the hit to %s", p.Nickname, victim.Nickname))
			msgs = append(msgs, s.applyLengthLoss(sc, group, victimID, victim, loss, false)...)
			return msgs
		}
	}
	if loss >= 10 && p.ShieldLeft > 0 {
		p.ShieldLeft--
		loss /= 2
		msgs = append(msgs, fmt.Sprintf("%s's aegis absorbs half the blow", p.Nickname))
	}
	p.Length -= loss
	sc.markRecords()
	if loss >= 50 && p.InsuranceLeft > 0 {
		p.InsuranceLeft--
		p.Coins += InsurancePayout
		msgs = append(msgs, fmt.Sprintf("insurance pays %s %d coins", p.Nickname, InsurancePayout))
	}
	return msgs
}

func (s *Service) randomOtherPlayer(sc *commandScope, group, excludeID string) (string, *PlayerRecord) {
	g := sc.group(group)
	ids := make([]string, 0, len(g.Players))
	for id := range g.Players {
		if id != excludeID {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return "", nil
	}
	id := ids[s.rand.Intn(len(ids))]
	return id, g.Players[id]
}
