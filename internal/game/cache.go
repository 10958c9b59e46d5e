package game

import "bullish/internal/store"

// commandScope is the write-back cache for one command. begin acquires
// the single global lock and loads all three documents; Close flushes
// each dirty document once and releases the lock. Handlers must release
// with defer so every exit path flushes.
type commandScope struct {
	s       *Service
	records *RecordsDoc
	subs    *SubsDoc
	market  *MarketDoc

	dirtyRecords bool
	dirtySubs    bool
	dirtyMarket  bool
	closed       bool
}

func (s *Service) begin() *commandScope {
	s.mu.Lock()
	sc := &commandScope{
		s:       s,
		records: &RecordsDoc{},
		subs:    &SubsDoc{},
		market:  &MarketDoc{},
	}
	if err := s.store.Load(store.DocRecords, sc.records); err != nil {
		s.log.Error("records load failed, starting empty", "err", err)
		sc.records = &RecordsDoc{}
	}
	if err := s.store.Load(store.DocSubscriptions, sc.subs); err != nil {
		s.log.Error("subscriptions load failed, starting empty", "err", err)
		sc.subs = &SubsDoc{}
	}
	if err := s.store.Load(store.DocMarket, sc.market); err != nil {
		s.log.Error("market load failed, starting empty", "err", err)
		sc.market = &MarketDoc{}
	}
	if sc.records.Groups == nil {
		sc.records.Groups = map[string]*GroupRecord{}
	}
	if sc.subs.Entries == nil {
		sc.subs.Entries = map[string]*SubscriptionRecord{}
	}
	if sc.market.Groups == nil {
		sc.market.Groups = map[string]*StockRecord{}
	}
	return sc
}

// Close flushes at most once per dirty document. A failed save is logged
// and dropped; the next command reloads from the last good rewrite.
func (sc *commandScope) Close() {
	if sc.closed {
		return
	}
	sc.closed = true
	if sc.dirtyRecords {
		if err := sc.s.store.Save(store.DocRecords, sc.records); err != nil {
			sc.s.log.Error("records save failed", "err", err)
		}
	}
	if sc.dirtySubs {
		if err := sc.s.store.Save(store.DocSubscriptions, sc.subs); err != nil {
			sc.s.log.Error("subscriptions save failed", "err", err)
		}
	}
	if sc.dirtyMarket {
		if err := sc.s.store.Save(store.DocMarket, sc.market); err != nil {
			sc.s.log.Error("market save failed", "err", err)
		}
	}
	sc.s.mu.Unlock()
}

func (sc *commandScope) markRecords() { sc.dirtyRecords = true }
func (sc *commandScope) markSubs()    { sc.dirtySubs = true }
func (sc *commandScope) markMarket()  { sc.dirtyMarket = true }

// group returns the group record, creating a disabled empty one on first
// touch. Creation alone does not dirty the document.
func (sc *commandScope) group(id string) *GroupRecord {
	g, ok := sc.records.Groups[id]
	if !ok {
		g = &GroupRecord{Players: map[string]*PlayerRecord{}}
		sc.records.Groups[id] = g
	}
	if g.Players == nil {
		g.Players = map[string]*PlayerRecord{}
	}
	return g
}

func (sc *commandScope) player(group, user string) (*PlayerRecord, bool) {
	p, ok := sc.group(group).Players[user]
	return p, ok
}

func (sc *commandScope) setPlayer(group, user string, p *PlayerRecord) {
	sc.group(group).Players[user] = p
	sc.markRecords()
}

func (sc *commandScope) setGroupEnabled(group string, enabled bool) {
	sc.group(group).Enabled = enabled
	sc.markRecords()
}

// stock returns the group's instrument, lazily created at the base price.
func (sc *commandScope) stock(group string) *StockRecord {
	st, ok := sc.market.Groups[group]
	if !ok {
		st = &StockRecord{Price: BasePrice}
		sc.market.Groups[group] = st
		sc.markMarket()
	}
	if st.Holdings == nil {
		st.Holdings = map[string]float64{}
	}
	if st.Stats == nil {
		st.Stats = map[string]*TraderStats{}
	}
	return st
}
