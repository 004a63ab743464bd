package params

import (
	"github.com/rotblauer/globe/cartography"
	"testing"
)

func TestEngineConfig_Validate(t *testing.T) {
	if err := DefaultEngineConfig().Validate(); err != nil {
		t.Fatal(err)
	}
	for name, mutate := range map[string]func(c *EngineConfig){
		"negative min":     func(c *EngineConfig) { c.MinDepth = -1 },
		"zero min":         func(c *EngineConfig) { c.MinDepth = 0 },
		"max too deep":     func(c *EngineConfig) { c.MaxDepth = cartography.MaxZoom + 1 },
		"min over max":     func(c *EngineConfig) { c.MinDepth, c.MaxDepth = 5, 4 },
		"zero subdivide":   func(c *EngineConfig) { c.SubdivideThreshold = 0 },
		"coarsen too high": func(c *EngineConfig) { c.CoarsenThreshold = c.SubdivideThreshold },
		"zero frames":      func(c *EngineConfig) { c.CoarsenFrames = 0 },
		"no template":      func(c *EngineConfig) { c.TileURLTemplate = "" },
	} {
		c := DefaultEngineConfig()
		mutate(c)
		if err := c.Validate(); err == nil {
			t.Errorf("%s: want error", name)
		}
	}
}

func TestEngineConfig_ApplyTileJSON(t *testing.T) {
	c := DefaultEngineConfig()
	c.ApplyTileJSON(&cartography.TileJSON{Tiles: []string{"t/{z}/{x}/{y}"}, MaxZoom: 3})
	if c.TileURLTemplate != "t/{z}/{x}/{y}" || c.MaxDepth != 3 || c.MinDepth != 3 {
		t.Fatalf("got %+v", c)
	}
	if err := c.Validate(); err != nil {
		t.Fatal(err)
	}

	// A single-tile source leaves nothing to subdivide.
	c = DefaultEngineConfig()
	c.ApplyTileJSON(&cartography.TileJSON{Tiles: []string{"t/{z}/{x}/{y}"}, MaxZoom: 0})
	if err := c.Validate(); err == nil {
		t.Error("max zoom 0: want error")
	}
}

func TestEngineConfig_Fingerprint(t *testing.T) {
	a, b := DefaultEngineConfig(), DefaultEngineConfig()
	if a.Fingerprint() == "" || a.Fingerprint() != b.Fingerprint() {
		t.Fatalf("fingerprints %q %q", a.Fingerprint(), b.Fingerprint())
	}
	b.CoarsenFrames++
	if a.Fingerprint() == b.Fingerprint() {
		t.Error("fingerprint ignores CoarsenFrames")
	}
}
