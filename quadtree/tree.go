/*
Package quadtree selects which web-map tiles to draw on the globe each frame.

The tree is driven once per frame from a single goroutine:

	tree.Update()               // grow or shrink using last frame's sizes
	stats := tree.Render(vp)    // measure nodes and issue draw calls

A node draws itself until all four of its children have loaded textures, and
only then hands the region over to them. The drawn set therefore always covers
the globe exactly once: no node is drawn together with any of its ancestors or
descendants, and a child whose texture never arrives just leaves its parent on
screen.
*/
package quadtree

import (
	"fmt"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/rotblauer/globe/cartography"
	"github.com/rotblauer/globe/params"
	"log/slog"
)

// FrameStats describes one Render pass.
type FrameStats struct {
	Frame uint64

	// Visited is the number of nodes measured by recursion.
	Visited int

	// Drawn is the number of draw calls issued; DrawnLoaded of those had a texture.
	Drawn       int
	DrawnLoaded int

	MaxDrawnZoom int

	// Nodes is the number of live nodes after the pass.
	Nodes int

	// Panics counts draw calls that panicked and were recovered.
	Panics int
}

// Stats describes the tree's lifetime counters.
type Stats struct {
	Frame     uint64
	Nodes     int
	Created   uint64
	Destroyed uint64
}

type Tree struct {
	config   *params.EngineConfig
	renderer TileRenderer
	root     *Node
	logger   *slog.Logger

	frame     uint64
	alive     int
	created   uint64
	destroyed uint64

	// drawn holds the keys drawn by the last Render.
	drawn []cartography.TileKey
}

// NewTree builds the root and every node above config.MinDepth, issuing one
// tile request per node. A nil config uses params.DefaultEngineConfig.
func NewTree(renderer TileRenderer, config *params.EngineConfig) (*Tree, error) {
	if renderer == nil {
		return nil, ErrRendererUnavailable
	}
	if config == nil {
		config = params.DefaultEngineConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("engine config: %w", err)
	}
	t := &Tree{
		config:   config,
		renderer: renderer,
		logger:   slog.With("component", "tree"),
	}
	root, err := t.newNode(cartography.Root)
	if err != nil {
		return nil, err
	}
	t.root = root
	t.logger.Info("Quad-tree ready", "nodes", t.alive,
		"min.depth", config.MinDepth, "max.depth", config.MaxDepth)
	return t, nil
}

func (t *Tree) Config() *params.EngineConfig { return t.config }

func (t *Tree) Root() *Node { return t.root }

// Len is the number of live nodes.
func (t *Tree) Len() int { return t.alive }

func (t *Tree) Stats() Stats {
	return Stats{
		Frame:     t.frame,
		Nodes:     t.alive,
		Created:   t.created,
		Destroyed: t.destroyed,
	}
}

// Update subdivides nodes that were large in the last Render and coarsens
// children that have been small for long enough.
func (t *Tree) Update() {
	if t.root == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			t.logger.Error("Update panicked", "frame", t.frame, "panic", r)
		}
	}()
	t.update(t.root)
}

// Render measures the tree under viewProjection and draws the selected tiles.
func (t *Tree) Render(viewProjection mgl64.Mat4) FrameStats {
	t.frame++
	t.drawn = t.drawn[:0]
	stats := FrameStats{Frame: t.frame}
	if t.root != nil {
		t.render(t.root, viewProjection, &stats)
	}
	stats.Nodes = t.alive
	return stats
}

// Drawn returns the keys drawn by the last Render.
func (t *Tree) Drawn() []cartography.TileKey {
	out := make([]cartography.TileKey, len(t.drawn))
	copy(out, t.drawn)
	return out
}

// Walk visits nodes depth-first, parents before children.
// Returning false from fn skips the node's subtree.
func (t *Tree) Walk(fn func(n *Node) bool) {
	if t.root != nil {
		walk(t.root, fn)
	}
}

func walk(n *Node, fn func(n *Node) bool) {
	if !fn(n) {
		return
	}
	for _, c := range n.children {
		if c != nil {
			walk(c, fn)
		}
	}
}

// Close destroys every node and releases every mesh.
func (t *Tree) Close() {
	if t.root == nil {
		return
	}
	t.destroy(t.root)
	t.root = nil
	t.drawn = nil
	t.logger.Info("Quad-tree closed", "created", t.created, "destroyed", t.destroyed)
}
