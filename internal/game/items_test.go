package game

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadCatalogDefaults(t *testing.T) {
	catalog, err := LoadCatalog("")
	if err != nil {
		t.Fatalf("default catalog errored: %v", err)
	}
	if len(catalog) != len(defaultCatalog) {
		t.Fatalf("catalog has %d items, want %d", len(catalog), len(defaultCatalog))
	}

	// A missing overlay file falls back to the defaults.
	catalog, err = LoadCatalog(filepath.Join(t.TempDir(), "nope.yml"))
	if err != nil || len(catalog) != len(defaultCatalog) {
		t.Fatalf("missing overlay: %d items, err=%v", len(catalog), err)
	}
}

func TestLoadCatalogOverlayMergesByID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yml")
	overlay := `
- id: 1
  name: tempo charm
  desc: skips the training cooldown once
  price: 999
  type: passive
  max: 5
- id: 99
  name: mystery box
  desc: who knows
  price: 50
  type: passive
`
	if err := os.WriteFile(path, []byte(overlay), 0o600); err != nil {
		t.Fatalf("setup: %v", err)
	}

	catalog, err := LoadCatalog(path)
	if err != nil {
		t.Fatalf("overlay load failed: %v", err)
	}
	if len(catalog) != len(defaultCatalog)+1 {
		t.Fatalf("catalog has %d items, want %d", len(catalog), len(defaultCatalog)+1)
	}

	var charm, box *ItemSpec
	for i := range catalog {
		switch catalog[i].ID {
		case 1:
			charm = &catalog[i]
		case 99:
			box = &catalog[i]
		}
	}
	if charm == nil || charm.Price != 999 || charm.MaxHeld != 5 {
		t.Fatalf("overlay did not override item 1: %+v", charm)
	}
	if box == nil || box.Name != "mystery box" {
		t.Fatalf("overlay did not add item 99: %+v", box)
	}
}

func TestEveryActiveItemHasAHandler(t *testing.T) {
	p := NewEffectPipeline()
	registerDefaultEffects(p)
	for _, spec := range defaultCatalog {
		if _, ok := p.byName(spec.Name); !ok {
			t.Fatalf("item %q has no bound effect handler", spec.Name)
		}
	}
}
