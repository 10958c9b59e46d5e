package game

import (
	"context"
	"log/slog"
	mathrand "math/rand"
	"sync"
	"time"

	"bullish/internal/store"
)

// Service owns the simulation core. One exclusive lock serializes
// commands end to end: a command loads the documents, mutates them in
// memory, and flushes once on scope close.
type Service struct {
	store    store.Store
	log      *slog.Logger
	mu       sync.Mutex
	rand     *mathrand.Rand
	now      func() time.Time
	loc      *time.Location
	pipeline *EffectPipeline
	catalog  []ItemSpec

	// Parasite cascade tuning. Tests override these.
	parasiteThresholdMult float64
	parasiteDrainPct      float64
}

func NewService(st store.Store, logger *slog.Logger, loc *time.Location, catalog []ItemSpec) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if loc == nil {
		loc = time.UTC
	}
	if catalog == nil {
		catalog = defaultCatalog
	}
	s := &Service{
		store:                 st,
		log:                   logger,
		rand:                  mathrand.New(mathrand.NewSource(time.Now().UnixNano())),
		now:                   time.Now,
		loc:                   loc,
		pipeline:              NewEffectPipeline(),
		catalog:               catalog,
		parasiteThresholdMult: 0.05,
		parasiteDrainPct:      0.05,
	}
	registerDefaultEffects(s.pipeline)
	s.registerOverlays()
	return s
}

// rng exposes the service randomness to effect handlers. The caller
// already holds the command lock, so access is race-free.
func (s *Service) rng() Rng { return s.rand }

func (s *Service) nextFloat() float64 { return s.rand.Float64() }

func (s *Service) intIn(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + s.rand.Intn(hi-lo+1)
}

// dateStr is the daily-reset boundary: a calendar date in the configured
// zone.
func (s *Service) dateStr(t time.Time) string {
	return t.In(s.loc).Format("2006-01-02")
}

// PlayerView returns a read-only snapshot for the presentation layer.
func (s *Service) PlayerView(group, user string) (PlayerRecord, bool) {
	sc := s.begin()
	defer sc.Close()
	p, ok := sc.player(group, user)
	if !ok {
		return PlayerRecord{}, false
	}
	return *p, true
}

// GroupPlayers returns player snapshots for ranking views.
func (s *Service) GroupPlayers(group string) map[string]PlayerRecord {
	sc := s.begin()
	defer sc.Close()
	out := map[string]PlayerRecord{}
	for id, p := range sc.group(group).Players {
		out[id] = *p
	}
	return out
}

func (s *Service) GroupEnabled(group string) bool {
	sc := s.begin()
	defer sc.Close()
	return sc.group(group).Enabled
}

// InstrumentView returns the group instrument snapshot.
func (s *Service) InstrumentView(group string) StockRecord {
	sc := s.begin()
	defer sc.Close()
	return *sc.stock(group)
}

// StockHook is the external form of the pricing side effect: it opens
// its own command scope, nudges the instrument and returns a short delta
// string. Any fault inside degrades to an empty string; a broken ticker
// must never break the action that fired it.
func (s *Service) StockHook(group, category, nickname string, lengthChange, hardnessChange int, coinsChange int64) string {
	sc := s.begin()
	defer sc.Close()
	return s.stockHookLocked(sc, group, category, nickname, lengthChange, hardnessChange, coinsChange)
}

// RunDrift applies one ambient global-category price move to every group
// that has an instrument. The worker binary calls this on a ticker.
func (s *Service) RunDrift(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	sc := s.begin()
	defer sc.Close()
	for group := range sc.market.Groups {
		s.stockHookLocked(sc, group, categoryGlobal, "market drift", 0, 0, 0)
	}
	return nil
}
