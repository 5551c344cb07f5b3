package docforge

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProject_Empty(t *testing.T) {
	g := Project(NewStore())
	assert.Empty(t, g.Nodes)
	assert.Empty(t, g.Edges)
	assert.NoError(t, g.Validate())

	data, err := json.Marshal(g)
	require.NoError(t, err)
	assert.JSONEq(t, `{"nodes":[],"edges":[]}`, string(data))
}

func TestProject_ParagraphWithSubParagraphs(t *testing.T) {
	s := NewStore()
	pid, err := s.AddParagraph("Intro")
	require.NoError(t, err)
	_, err = s.AddSubParagraph(pid, "one")
	require.NoError(t, err)
	_, err = s.AddSubParagraph(pid, "two")
	require.NoError(t, err)

	g := Project(s)
	require.Len(t, g.Nodes, 3)
	require.Len(t, g.Edges, 2)
	assert.Equal(t, []string{"subparagraph:1.1", "subparagraph:1.2"}, g.Children("paragraph:1"))
	assert.Equal(t, 0, g.Incoming("paragraph:1"))

	_, hasRoot := g.Node(RootNodeID)
	assert.False(t, hasRoot)
	assert.NoError(t, g.Validate())
}

func TestProject_Full(t *testing.T) {
	s := NewStore()
	p1, _ := s.AddParagraph("First")
	p2, _ := s.AddParagraph("Second")
	_, _ = s.AddComment(p1, "c1")
	_, _ = s.AddSubParagraph(p2, "s1")
	_, _ = s.AddComment(p2, "c2")
	_, _ = s.AddTable(2, 3, nil)
	_, _ = s.AddImage(pngBytes(t, 1, 1))

	g := Project(s)
	require.NoError(t, g.Validate())

	ids := make([]string, len(g.Nodes))
	for i, n := range g.Nodes {
		ids[i] = n.ID
	}
	assert.Equal(t, []string{
		"paragraph:1", "comment:1.1",
		"paragraph:2", "subparagraph:2.1", "comment:2.1",
		"document", "table:1", "image:1",
	}, ids)

	table, ok := g.Node("table:1")
	require.True(t, ok)
	assert.Equal(t, KindTable, table.Kind)
	assert.Equal(t, "Table 1 (2x3)", table.Label)

	assert.Equal(t, []string{"table:1", "image:1"}, g.Children(RootNodeID))
	for _, n := range g.Nodes {
		assert.LessOrEqual(t, g.Incoming(n.ID), 1, n.ID)
	}

	// Projection is deterministic.
	assert.Equal(t, g, Project(s))
}

func TestGraph_Validate(t *testing.T) {
	tests := []struct {
		name  string
		graph Graph
		want  string
	}{
		{
			name:  "duplicate node",
			graph: Graph{Nodes: []Node{{ID: "a"}, {ID: "a"}}},
			want:  "duplicate node",
		},
		{
			name:  "unknown endpoint",
			graph: Graph{Nodes: []Node{{ID: "a"}}, Edges: []Edge{{From: "a", To: "b"}}},
			want:  "unknown node",
		},
		{
			name:  "two parents",
			graph: Graph{Nodes: []Node{{ID: "a"}, {ID: "b"}, {ID: "c"}}, Edges: []Edge{{From: "a", To: "c"}, {From: "b", To: "c"}}},
			want:  "more than one parent",
		},
		{
			name:  "cycle",
			graph: Graph{Nodes: []Node{{ID: "a"}, {ID: "b"}}, Edges: []Edge{{From: "a", To: "b"}, {From: "b", To: "a"}}},
			want:  "cycle",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.graph.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
