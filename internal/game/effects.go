package game

// Trigger names a moment in action processing where bound effects run.
type Trigger int

const (
	TriggerBeforeTrain Trigger = iota
	TriggerAfterTrain
	TriggerBeforeDuel
	TriggerOnDuelWin
	TriggerOnDuelLose
	TriggerAfterDuel
	TriggerOnHalving
	TriggerOnPurchase
)

// EffectContext is built per triggered action and never persisted.
// Handlers accumulate deltas and messages into it; the action handler
// applies them after the pipeline returns.
type EffectContext struct {
	GroupID    string
	ActorID    string
	ActorName  string
	TargetID   string
	TargetName string

	// Pre-action snapshots.
	ActorLength    int
	ActorHardness  int
	TargetLength   int
	TargetHardness int

	LengthDelta         int
	HardnessDelta       int
	TargetLengthDelta   int
	TargetHardnessDelta int
	CoinsDelta          int64

	Messages       []string
	Intercept      bool
	SkipCooldown   bool
	PreventLoss    bool
	PreventHalving bool
	ItemsToConsume []string

	// Side channel for handler-specific payloads.
	Extra map[string]any
}

func (ctx *EffectContext) addMessage(msg string) {
	ctx.Messages = append(ctx.Messages, msg)
}

func (ctx *EffectContext) setExtra(key string, v any) {
	if ctx.Extra == nil {
		ctx.Extra = map[string]any{}
	}
	ctx.Extra[key] = v
}

// Effect is one item-bound handler. Name must match the consumable item
// that arms it.
type Effect interface {
	Name() string
	Triggers() []Trigger
	SelfConsumes() bool
	Apply(t Trigger, ctx *EffectContext, rng Rng)
}

// Rng is the slice of randomness handlers are allowed to use.
type Rng interface {
	Float64() float64
	Intn(n int) int
}

// overlayFunc is a subscription-backed effect. Overlays run after the
// item loop regardless of interception: they model always-on
// entitlements, not consumed items.
type overlayFunc func(sc *commandScope, t Trigger, ctx *EffectContext)

type EffectPipeline struct {
	order    []Effect
	overlays map[Trigger][]overlayFunc
}

func NewEffectPipeline() *EffectPipeline {
	return &EffectPipeline{overlays: map[Trigger][]overlayFunc{}}
}

// Register appends a handler. Order matters: handlers run in
// registration order and an intercept stops the rest.
func (p *EffectPipeline) Register(e Effect) {
	p.order = append(p.order, e)
}

func (p *EffectPipeline) RegisterOverlay(t Trigger, fn overlayFunc) {
	p.overlays[t] = append(p.overlays[t], fn)
}

// byName finds the handler bound to an item, if any. Purchase-time
// effects are dispatched this way: the item is not in the inventory yet,
// so the armed-item gate in Run cannot apply.
func (p *EffectPipeline) byName(name string) (Effect, bool) {
	for _, e := range p.order {
		if e.Name() == name {
			return e, true
		}
	}
	return nil, false
}

func hasTrigger(e Effect, t Trigger) bool {
	for _, v := range e.Triggers() {
		if v == t {
			return true
		}
	}
	return false
}

// Run fires every armed handler for t, then the overlays. A panicking
// handler is logged and treated as a no-op; the pipeline continues.
// Self-consuming handlers that fired are appended to ctx.ItemsToConsume;
// the caller applies consumption after Run returns, never mid-iteration.
func (s *Service) runPipeline(sc *commandScope, t Trigger, ctx *EffectContext, actorItems, targetItems map[string]int) {
	_ = targetItems // reserved for handlers gating on the defender's bag
	for _, e := range s.pipeline.order {
		if !hasTrigger(e, t) {
			continue
		}
		if actorItems[e.Name()] <= 0 {
			continue
		}
		fired := s.applyEffect(e, t, ctx)
		if fired && e.SelfConsumes() {
			ctx.ItemsToConsume = append(ctx.ItemsToConsume, e.Name())
		}
		if ctx.Intercept {
			break
		}
	}
	for _, fn := range s.pipeline.overlays[t] {
		s.applyOverlay(fn, sc, t, ctx)
	}
}

func (s *Service) applyEffect(e Effect, t Trigger, ctx *EffectContext) (fired bool) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("effect handler panicked", "effect", e.Name(), "panic", r)
			fired = false
		}
	}()
	e.Apply(t, ctx, s.rng())
	return true
}

func (s *Service) applyOverlay(fn overlayFunc, sc *commandScope, t Trigger, ctx *EffectContext) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("overlay panicked", "panic", r)
		}
	}()
	fn(sc, t, ctx)
}

// consumeTriggered removes the items the pipeline marked for consumption
// from the actor's inventory.
func consumeTriggered(p *PlayerRecord, ctx *EffectContext) {
	for _, name := range ctx.ItemsToConsume {
		p.consumeItem(name)
	}
	ctx.ItemsToConsume = nil
}
