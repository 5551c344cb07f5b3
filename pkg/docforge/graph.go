package docforge

import (
	"fmt"
)

// NodeKind classifies structure graph nodes.
type NodeKind string

const (
	KindDocument     NodeKind = "document"
	KindParagraph    NodeKind = "paragraph"
	KindSubParagraph NodeKind = "subparagraph"
	KindComment      NodeKind = "comment"
	KindTable        NodeKind = "table"
	KindImage        NodeKind = "image"
)

// RootNodeID is the id of the synthetic node tables and images hang from.
const RootNodeID = "document"

// Node is a vertex of the structure graph.
type Node struct {
	ID    string   `json:"id"`
	Kind  NodeKind `json:"kind"`
	Label string   `json:"label"`
}

// Edge is a parent-to-child containment relation.
type Edge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Graph is a read-only projection of a Store for visualization.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// ParagraphNodeID returns the node id of a paragraph.
func ParagraphNodeID(id int) string { return fmt.Sprintf("paragraph:%d", id) }

// SubParagraphNodeID returns the node id of a sub-paragraph.
func SubParagraphNodeID(ref ChildRef) string { return "subparagraph:" + ref.String() }

// CommentNodeID returns the node id of a comment.
func CommentNodeID(ref ChildRef) string { return "comment:" + ref.String() }

// TableNodeID returns the node id of a table.
func TableNodeID(id int) string { return fmt.Sprintf("table:%d", id) }

// ImageNodeID returns the node id of an image.
func ImageNodeID(id int) string { return fmt.Sprintf("image:%d", id) }

// Project derives the structure graph of a store. Paragraph nodes are roots; the
// document node appears only when a table or image exists.
func Project(s *Store) *Graph {
	g := &Graph{Nodes: []Node{}, Edges: []Edge{}}

	for _, p := range s.paragraphs {
		pid := ParagraphNodeID(p.ID)
		g.Nodes = append(g.Nodes, Node{ID: pid, Kind: KindParagraph, Label: p.Content})
		for i, text := range p.SubParagraphs {
			id := SubParagraphNodeID(ChildRef{ParentID: p.ID, Ordinal: i + 1})
			g.Nodes = append(g.Nodes, Node{ID: id, Kind: KindSubParagraph, Label: text})
			g.Edges = append(g.Edges, Edge{From: pid, To: id})
		}
		for i, text := range p.Comments {
			id := CommentNodeID(ChildRef{ParentID: p.ID, Ordinal: i + 1})
			g.Nodes = append(g.Nodes, Node{ID: id, Kind: KindComment, Label: text})
			g.Edges = append(g.Edges, Edge{From: pid, To: id})
		}
	}

	if len(s.tables) == 0 && len(s.images) == 0 {
		return g
	}

	g.Nodes = append(g.Nodes, Node{ID: RootNodeID, Kind: KindDocument, Label: "Document"})
	for _, t := range s.tables {
		id := TableNodeID(t.ID)
		label := fmt.Sprintf("Table %d (%dx%d)", t.ID, t.RowCount(), t.ColumnCount())
		g.Nodes = append(g.Nodes, Node{ID: id, Kind: KindTable, Label: label})
		g.Edges = append(g.Edges, Edge{From: RootNodeID, To: id})
	}
	for _, img := range s.images {
		id := ImageNodeID(img.ID)
		g.Nodes = append(g.Nodes, Node{ID: id, Kind: KindImage, Label: fmt.Sprintf("Image %d", img.ID)})
		g.Edges = append(g.Edges, Edge{From: RootNodeID, To: id})
	}
	return g
}

// Node returns the node with the given id.
func (g *Graph) Node(id string) (Node, bool) {
	for _, n := range g.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// Children returns the ids of the direct children of id, in edge order.
func (g *Graph) Children(id string) []string {
	var out []string
	for _, e := range g.Edges {
		if e.From == id {
			out = append(out, e.To)
		}
	}
	return out
}

// Incoming returns the number of edges pointing at id.
func (g *Graph) Incoming(id string) int {
	n := 0
	for _, e := range g.Edges {
		if e.To == id {
			n++
		}
	}
	return n
}

// Validate checks that node ids are unique, edges reference known nodes, every
// node has at most one parent and the graph has no cycles.
func (g *Graph) Validate() error {
	known := make(map[string]bool, len(g.Nodes))
	for _, n := range g.Nodes {
		if known[n.ID] {
			return fmt.Errorf("duplicate node %q", n.ID)
		}
		known[n.ID] = true
	}

	parent := make(map[string]string, len(g.Edges))
	for _, e := range g.Edges {
		if !known[e.From] || !known[e.To] {
			return fmt.Errorf("edge %s -> %s references an unknown node", e.From, e.To)
		}
		if _, ok := parent[e.To]; ok {
			return fmt.Errorf("node %q has more than one parent", e.To)
		}
		parent[e.To] = e.From
	}

	// With at most one parent per node, a cycle shows up as a parent chain that
	// revisits a node.
	for _, n := range g.Nodes {
		seen := map[string]bool{n.ID: true}
		for cur, ok := parent[n.ID]; ok; cur, ok = parent[cur] {
			if seen[cur] {
				return fmt.Errorf("cycle through node %q", cur)
			}
			seen[cur] = true
		}
	}
	return nil
}
