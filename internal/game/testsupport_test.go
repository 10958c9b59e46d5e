package game

import (
	"errors"
	"io"
	"log/slog"
	mathrand "math/rand"
	"time"

	"gopkg.in/yaml.v3"
)

// memStore is an in-memory document store for tests. Documents round-trip
// through YAML so the tests exercise the same encoding the file store
// uses. Saves can be made to fail per document.
type memStore struct {
	docs      map[string][]byte
	saves     map[string]int
	failSaves map[string]bool
	failLoads map[string]bool
}

func newMemStore() *memStore {
	return &memStore{
		docs:      map[string][]byte{},
		saves:     map[string]int{},
		failSaves: map[string]bool{},
		failLoads: map[string]bool{},
	}
}

func (m *memStore) Load(name string, doc any) error {
	if m.failLoads[name] {
		return errors.New("simulated load failure")
	}
	raw, ok := m.docs[name]
	if !ok {
		return nil
	}
	return yaml.Unmarshal(raw, doc)
}

func (m *memStore) Save(name string, doc any) error {
	if m.failSaves[name] {
		return errors.New("simulated save failure")
	}
	raw, err := yaml.Marshal(doc)
	if err != nil {
		return err
	}
	m.docs[name] = raw
	m.saves[name]++
	return nil
}

var testTime = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func newTestService(st *memStore) *Service {
	svc := NewService(st, slog.New(slog.NewTextHandler(io.Discard, nil)), time.UTC, nil)
	svc.rand = mathrand.New(mathrand.NewSource(1))
	svc.now = func() time.Time { return testTime }
	return svc
}

// putPlayer enables the group and installs a player record directly.
func putPlayer(svc *Service, group, user string, p *PlayerRecord) {
	sc := svc.begin()
	defer sc.Close()
	sc.setGroupEnabled(group, true)
	sc.setPlayer(group, user, p)
}

func getPlayer(svc *Service, group, user string) PlayerRecord {
	p, ok := svc.PlayerView(group, user)
	if !ok {
		return PlayerRecord{}
	}
	return p
}

// seedWhere scans for a deterministic seed whose generator satisfies the
// condition, so tests can force either branch of a probability gate.
func seedWhere(cond func(r *mathrand.Rand) bool) int64 {
	for seed := int64(0); seed < 10000; seed++ {
		if cond(mathrand.New(mathrand.NewSource(seed))) {
			return seed
		}
	}
	panic("no seed found")
}

func reseed(svc *Service, seed int64) {
	svc.rand = mathrand.New(mathrand.NewSource(seed))
}
