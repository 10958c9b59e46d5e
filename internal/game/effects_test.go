package game

import "testing"

type fakeEffect struct {
	effectBase
	fn func(ctx *EffectContext)
}

func (f fakeEffect) Apply(_ Trigger, ctx *EffectContext, _ Rng) {
	f.fn(ctx)
}

func TestPipelineInterceptStopsItems(t *testing.T) {
	svc := newTestService(newMemStore())
	svc.pipeline = NewEffectPipeline()

	var ranSecond, ranOverlay bool
	svc.pipeline.Register(fakeEffect{
		effectBase{"first", []Trigger{TriggerBeforeDuel}, false},
		func(ctx *EffectContext) { ctx.Intercept = true },
	})
	svc.pipeline.Register(fakeEffect{
		effectBase{"second", []Trigger{TriggerBeforeDuel}, false},
		func(ctx *EffectContext) { ranSecond = true },
	})
	svc.pipeline.RegisterOverlay(TriggerBeforeDuel, func(_ *commandScope, _ Trigger, _ *EffectContext) {
		ranOverlay = true
	})

	sc := svc.begin()
	defer sc.Close()
	ctx := &EffectContext{}
	svc.runPipeline(sc, TriggerBeforeDuel, ctx, map[string]int{"first": 1, "second": 1}, nil)

	if ranSecond {
		t.Fatalf("interception did not stop later handlers")
	}
	if !ranOverlay {
		t.Fatalf("overlay must run even after interception")
	}
}

func TestPipelineSkipsUnarmedItems(t *testing.T) {
	svc := newTestService(newMemStore())
	svc.pipeline = NewEffectPipeline()

	var ran bool
	svc.pipeline.Register(fakeEffect{
		effectBase{"charm", []Trigger{TriggerBeforeTrain}, true},
		func(ctx *EffectContext) { ran = true },
	})

	sc := svc.begin()
	defer sc.Close()
	ctx := &EffectContext{}
	svc.runPipeline(sc, TriggerBeforeTrain, ctx, map[string]int{}, nil)
	if ran {
		t.Fatalf("handler ran without the item armed")
	}
	if len(ctx.ItemsToConsume) != 0 {
		t.Fatalf("nothing should be consumed: %v", ctx.ItemsToConsume)
	}
}

func TestPipelinePanicIsNoop(t *testing.T) {
	svc := newTestService(newMemStore())
	svc.pipeline = NewEffectPipeline()

	svc.pipeline.Register(fakeEffect{
		effectBase{"faulty", []Trigger{TriggerAfterTrain}, true},
		func(ctx *EffectContext) { panic("boom") },
	})
	var ranAfter bool
	svc.pipeline.Register(fakeEffect{
		effectBase{"steady", []Trigger{TriggerAfterTrain}, true},
		func(ctx *EffectContext) { ranAfter = true },
	})

	sc := svc.begin()
	defer sc.Close()
	ctx := &EffectContext{}
	svc.runPipeline(sc, TriggerAfterTrain, ctx, map[string]int{"faulty": 1, "steady": 1}, nil)

	if !ranAfter {
		t.Fatalf("pipeline stopped after a panicking handler")
	}
	for _, name := range ctx.ItemsToConsume {
		if name == "faulty" {
			t.Fatalf("a panicking handler must not consume its item")
		}
	}
	if len(ctx.ItemsToConsume) != 1 || ctx.ItemsToConsume[0] != "steady" {
		t.Fatalf("consumption list = %v, want [steady]", ctx.ItemsToConsume)
	}
}

func TestConsumeTriggered(t *testing.T) {
	p := &PlayerRecord{Items: map[string]int{"charm": 2, "ward": 1}}
	ctx := &EffectContext{ItemsToConsume: []string{"charm", "ward"}}
	consumeTriggered(p, ctx)
	if p.Items["charm"] != 1 {
		t.Fatalf("charm count = %d, want 1", p.Items["charm"])
	}
	if _, ok := p.Items["ward"]; ok {
		t.Fatalf("ward should be removed at zero")
	}
	if ctx.ItemsToConsume != nil {
		t.Fatalf("consumption list not cleared")
	}
}

func TestPipelineRegistrationOrder(t *testing.T) {
	svc := newTestService(newMemStore())
	svc.pipeline = NewEffectPipeline()

	var order []string
	mk := func(name string) Effect {
		return fakeEffect{
			effectBase{name, []Trigger{TriggerOnDuelWin}, false},
			func(ctx *EffectContext) { order = append(order, name) },
		}
	}
	svc.pipeline.Register(mk("a"))
	svc.pipeline.Register(mk("b"))
	svc.pipeline.Register(mk("c"))

	sc := svc.begin()
	defer sc.Close()
	svc.runPipeline(sc, TriggerOnDuelWin, &EffectContext{}, map[string]int{"a": 1, "b": 1, "c": 1}, nil)
	if len(order) != 3 || order[0] != "a" || order[1] != "b" || order[2] != "c" {
		t.Fatalf("handlers ran out of order: %v", order)
	}
}
