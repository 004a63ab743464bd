package quadtree

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/rotblauer/globe/cartography"
)

// Node is one tile of the quad-tree.
// A node exclusively owns its mesh and its children; there are no
// back-references, so dropping a node drops its whole subtree.
type Node struct {
	key     cartography.TileKey
	corners [4]mgl64.Vec3
	mesh    Mesh

	// children are indexed by cartography.Quadrant.
	children [4]*Node

	// lastScreenSpaceSize is the area measured by the most recent render pass.
	lastScreenSpaceSize float64
	measuredFrame       uint64
	lowFrames           int
}

func (n *Node) Key() cartography.TileKey { return n.key }

// Corners are the engine-space corners: lower-left, lower-right, upper-left, upper-right.
func (n *Node) Corners() [4]mgl64.Vec3 { return n.corners }

func (n *Node) Mesh() Mesh { return n.mesh }

func (n *Node) Children() [4]*Node { return n.children }

// ScreenSpaceSize is the cached size from the last time the node was measured.
func (n *Node) ScreenSpaceSize() float64 { return n.lastScreenSpaceSize }

func (n *Node) IsLeaf() bool {
	for _, c := range n.children {
		if c != nil {
			return false
		}
	}
	return true
}

func (n *Node) textureLoaded() bool {
	return n.mesh != nil && n.mesh.TextureLoaded()
}

// newNode builds the node for key, requesting its mesh, and eagerly builds
// every descendant shallower than MinDepth.
func (t *Tree) newNode(key cartography.TileKey) (*Node, error) {
	corners, err := cartography.TileCornerPoints(key)
	if err != nil {
		return nil, err
	}
	n := &Node{key: key, corners: corners}
	n.mesh = t.renderer.CreateTile(cartography.TileURL(t.config.TileURLTemplate, key), corners)
	t.alive++
	t.created++

	if key.Zoom < t.config.MinDepth {
		for i, q := range cartography.Quadrants {
			child, err := t.newNode(key.Child(q))
			if err != nil {
				t.destroy(n)
				return nil, err
			}
			n.children[i] = child
		}
	}
	return n, nil
}

// destroy releases the node's mesh and recursively destroys its subtree.
func (t *Tree) destroy(n *Node) {
	for i, c := range n.children {
		if c != nil {
			t.destroy(c)
			n.children[i] = nil
		}
	}
	if n.mesh != nil {
		n.mesh.Release()
		n.mesh = nil
	}
	t.alive--
	t.destroyed++
}

func (t *Tree) measure(n *Node, viewProjection mgl64.Mat4) {
	if n.measuredFrame == t.frame {
		return
	}
	n.lastScreenSpaceSize = ScreenSpaceSize(n.corners, viewProjection)
	n.measuredFrame = t.frame
	if n.lastScreenSpaceSize < t.config.CoarsenThreshold {
		n.lowFrames++
	} else {
		n.lowFrames = 0
	}
}

func (t *Tree) update(n *Node) {
	if n.lastScreenSpaceSize > t.config.SubdivideThreshold && n.key.Zoom < t.config.MaxDepth {
		t.subdivide(n)
	} else if n.key.Zoom >= t.config.MinDepth {
		t.coarsen(n)
	}
	for _, c := range n.children {
		if c != nil {
			t.update(c)
		}
	}
}

func (t *Tree) subdivide(n *Node) {
	for i, q := range cartography.Quadrants {
		if n.children[i] != nil {
			continue
		}
		child, err := t.newNode(n.key.Child(q))
		if err != nil {
			t.logger.Error("Failed to subdivide", "tile", n.key, "quadrant", q, "error", err)
			continue
		}
		n.children[i] = child
	}
}

// coarsen drops children that were measured in the last render pass and have
// stayed small for CoarsenFrames consecutive measurements.
func (t *Tree) coarsen(n *Node) {
	for i, c := range n.children {
		if c == nil || c.measuredFrame != t.frame || c.lowFrames < t.config.CoarsenFrames {
			continue
		}
		t.logger.Debug("Coarsening", "tile", c.key, "size", c.lastScreenSpaceSize, "frames", c.lowFrames)
		t.destroy(c)
		n.children[i] = nil
	}
}

func (t *Tree) render(n *Node, viewProjection mgl64.Mat4, stats *FrameStats) {
	t.measure(n, viewProjection)
	stats.Visited++

	ready := 0
	for _, c := range n.children {
		if c != nil && c.textureLoaded() {
			ready++
		}
	}

	if ready < len(n.children) {
		// Children are not drawn, but their sizes still drive the next update.
		for _, c := range n.children {
			if c != nil {
				t.measure(c, viewProjection)
			}
		}
		t.draw(n, viewProjection, stats)
		return
	}

	for _, c := range n.children {
		t.render(c, viewProjection, stats)
	}
}

func (t *Tree) draw(n *Node, viewProjection mgl64.Mat4, stats *FrameStats) {
	defer func() {
		if r := recover(); r != nil {
			stats.Panics++
			t.logger.Error("Draw panicked", "tile", n.key, "panic", r)
		}
	}()
	stats.Drawn++
	if n.textureLoaded() {
		stats.DrawnLoaded++
	}
	if n.key.Zoom > stats.MaxDrawnZoom {
		stats.MaxDrawnZoom = n.key.Zoom
	}
	t.drawn = append(t.drawn, n.key)
	t.renderer.Draw(n.mesh, viewProjection)
}
