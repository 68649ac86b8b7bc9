package main

import (
	"fmt"

	"github.com/Faultbox/pmviewer/internal/scene"
)

// SelectionMode decides which part of the scene is drawn.
type SelectionMode int

const (
	SelectAll  SelectionMode = iota // whole scene
	SelectNode                      // one top-level node and its subtree
)

func (m SelectionMode) String() string {
	if m == SelectNode {
		return "node"
	}
	return "all"
}

// AppState is the mutable viewer state shared by the frame loop.
type AppState struct {
	Mode       SelectionMode
	Index      int // selected top-level node in SelectNode mode
	Wireframe  bool
	ShowBounds bool
	Lighting   bool
	Frame      uint64
}

// Cycle selects the next top-level node out of count, wrapping around.
// With no nodes the state stays in SelectAll.
func (s *AppState) Cycle(count int) {
	if count == 0 {
		s.ShowAll()
		return
	}
	if s.Mode == SelectAll {
		s.Mode = SelectNode
		s.Index = 0
		return
	}
	s.Index = (s.Index + 1) % count
}

// ShowAll returns to drawing the whole scene.
func (s *AppState) ShowAll() {
	s.Mode = SelectAll
	s.Index = 0
}

// SelectAncestor selects the top-level node that contains n. It reports
// false when n is the root or not part of sc.
func (s *AppState) SelectAncestor(sc *scene.Scene, n *scene.Node) bool {
	for n != nil && n.Parent() != sc.Root {
		n = n.Parent()
	}
	if n == nil {
		return false
	}
	for i, c := range sc.Root.Children() {
		if c == n {
			s.Mode = SelectNode
			s.Index = i
			return true
		}
	}
	return false
}

// Selected returns the node to draw, or nil for the whole scene.
func (s *AppState) Selected(sc *scene.Scene) *scene.Node {
	if s.Mode != SelectNode {
		return nil
	}
	children := sc.Root.Children()
	if s.Index < 0 || s.Index >= len(children) {
		return nil
	}
	return children[s.Index]
}

// Title formats the window title for the current state.
func (s *AppState) Title(sc *scene.Scene) string {
	title := fmt.Sprintf("pmviewer - %s (%d triangles)", sc.Name, sc.TriangleCount())
	if n := s.Selected(sc); n != nil {
		title += fmt.Sprintf(" [%d/%d %s]", s.Index+1, len(sc.Root.Children()), n.Name)
	}
	if s.Wireframe {
		title += " wireframe"
	}
	return title
}
