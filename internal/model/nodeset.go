package model

import "fmt"

// NodeSet is an ordered node list. Iteration order is render order and ids
// equal positions.
type NodeSet []Node

// Clone returns an independent copy so callers can keep editing the original.
func (ns NodeSet) Clone() NodeSet {
	if ns == nil {
		return nil
	}
	out := make(NodeSet, len(ns))
	copy(out, ns)
	return out
}

// Reindex assigns every node its list position as id.
func (ns NodeSet) Reindex() {
	for i := range ns {
		ns[i].ID = i
	}
}

// Add appends a node at (x, y) and returns the grown set.
func (ns NodeSet) Add(x, y int, c Color) NodeSet {
	return append(ns, Node{ID: len(ns), X: x, Y: y, Color: c})
}

// Remove deletes the node at position i and reindexes the remainder.
func (ns NodeSet) Remove(i int) (NodeSet, error) {
	if i < 0 || i >= len(ns) {
		return ns, fmt.Errorf("%w: node %d out of range [0,%d)", ErrInvalidNodeSet, i, len(ns))
	}
	out := make(NodeSet, 0, len(ns)-1)
	out = append(out, ns[:i]...)
	out = append(out, ns[i+1:]...)
	out.Reindex()
	return out, nil
}

// ToggleStart flips the start flag of node i.
func (ns NodeSet) ToggleStart(i int) error {
	if i < 0 || i >= len(ns) {
		return fmt.Errorf("%w: node %d out of range [0,%d)", ErrInvalidNodeSet, i, len(ns))
	}
	ns[i].Start = !ns[i].Start
	return nil
}

// Validate checks the positional id invariant.
func (ns NodeSet) Validate() error {
	for i, n := range ns {
		if n.ID != i {
			return fmt.Errorf("%w: node at position %d has id %d", ErrInvalidNodeSet, i, n.ID)
		}
		if n.Color < 0 || int(n.Color) >= PaletteSize {
			return fmt.Errorf("%w: node %d has color %d outside the palette", ErrInvalidNodeSet, i, int(n.Color))
		}
	}
	return nil
}

// Starts returns the nodes flagged as tour start candidates.
func (ns NodeSet) Starts() NodeSet {
	var out NodeSet
	for _, n := range ns {
		if n.Start {
			out = append(out, n)
		}
	}
	return out
}

// FindByCoords returns the first node at (x, y).
func (ns NodeSet) FindByCoords(x, y int) (Node, bool) {
	for _, n := range ns {
		if n.X == x && n.Y == y {
			return n, true
		}
	}
	return Node{}, false
}

// Groups lists the distinct colors in first-seen order.
func (ns NodeSet) Groups() []Color {
	seen := map[Color]bool{}
	var out []Color
	for _, n := range ns {
		if !seen[n.Color] {
			seen[n.Color] = true
			out = append(out, n.Color)
		}
	}
	return out
}
