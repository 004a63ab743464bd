package params

import (
	"fmt"
	"github.com/mitchellh/hashstructure/v2"
	"github.com/rotblauer/globe/cartography"
)

type EngineConfig struct {
	// MinDepth is the zoom level down to which the tree is populated eagerly
	// at construction. Nodes shallower than this always have all four children.
	// Startup fetch count grows as 4^MinDepth.
	MinDepth int

	// MaxDepth is the hard subdivision ceiling.
	MaxDepth int

	// SubdivideThreshold is the projected tile area, in NDC units (full screen ~= 4),
	// above which a node grows children.
	SubdivideThreshold float64

	// CoarsenThreshold is the projected area below which a child subtree
	// starts counting towards removal. It sits well under SubdivideThreshold
	// so tiles near the boundary do not thrash.
	CoarsenThreshold float64

	// CoarsenFrames is how many consecutive measured frames a child must stay
	// under CoarsenThreshold before it is destroyed.
	CoarsenFrames int

	// TileURLTemplate is substituted with {z}, {x} and {y} per node.
	TileURLTemplate string
}

func DefaultEngineConfig() *EngineConfig {
	return &EngineConfig{
		MinDepth:           4,
		MaxDepth:           19,
		SubdivideThreshold: 0.4,
		CoarsenThreshold:   0.1,
		CoarsenFrames:      30,
		TileURLTemplate:    cartography.DefaultTileURLTemplate,
	}
}

func (c *EngineConfig) Validate() error {
	if c.MinDepth < 1 {
		// The zoom 0 quad spans the antimeridian on both sides and projects to a line.
		return fmt.Errorf("min depth %d must be at least 1", c.MinDepth)
	}
	if c.MaxDepth > cartography.MaxZoom {
		return fmt.Errorf("max depth %d exceeds %d", c.MaxDepth, cartography.MaxZoom)
	}
	if c.MinDepth > c.MaxDepth {
		return fmt.Errorf("min depth %d exceeds max depth %d", c.MinDepth, c.MaxDepth)
	}
	if c.SubdivideThreshold <= 0 {
		return fmt.Errorf("subdivide threshold %v must be positive", c.SubdivideThreshold)
	}
	if c.CoarsenThreshold < 0 || c.CoarsenThreshold >= c.SubdivideThreshold {
		return fmt.Errorf("coarsen threshold %v must be in [0, %v)", c.CoarsenThreshold, c.SubdivideThreshold)
	}
	if c.CoarsenFrames < 1 {
		return fmt.Errorf("coarsen frames %d must be at least 1", c.CoarsenFrames)
	}
	if c.TileURLTemplate == "" {
		return fmt.Errorf("tile url template is empty")
	}
	return nil
}

// ApplyTileJSON points the engine at the document's tiles and keeps
// MaxDepth within its zoom range.
func (c *EngineConfig) ApplyTileJSON(tj *cartography.TileJSON) {
	c.TileURLTemplate = tj.Template()
	if c.MaxDepth > tj.MaxZoom {
		c.MaxDepth = tj.MaxZoom
	}
	if c.MinDepth > c.MaxDepth {
		c.MinDepth = c.MaxDepth
	}
}

// Fingerprint identifies a configuration, so that benchmark runs with
// different tuning can be told apart.
func (c *EngineConfig) Fingerprint() string {
	hash, err := hashstructure.Hash(c, hashstructure.FormatV2, nil)
	if err != nil {
		return ""
	}
	return fmt.Sprintf("%016x", hash)
}
