package graph

import (
	"github.com/hurou927/db-dump/internal/schema"
)

// Edge represents a directed edge from child to parent (FK direction).
type Edge struct {
	Column      string
	ChildTable  string
	ParentTable string
}

// Graph is a directed graph built from the relations of a table set.
type Graph struct {
	// Tables maps name -> table
	Tables map[string]*schema.Table

	// Edges are non-self-referential FK edges (child → parent)
	Edges []Edge

	// SelfRefs holds self-referential FK columns, keyed by table name
	SelfRefs map[string][]string

	// Children maps parent name → list of child names
	Children map[string][]string

	// Parents maps child name → list of parent names
	Parents map[string][]string

	// adjacency for undirected connectivity
	Adjacency map[string]map[string]bool
}

// Build constructs a directed graph from a table set. Relations referencing tables
// outside the set are ignored.
func Build(set *schema.TableSet) *Graph {
	g := &Graph{
		Tables:    make(map[string]*schema.Table),
		SelfRefs:  make(map[string][]string),
		Children:  make(map[string][]string),
		Parents:   make(map[string][]string),
		Adjacency: make(map[string]map[string]bool),
	}
	if set == nil {
		return g
	}

	for _, tbl := range set.Tables {
		g.Tables[tbl.Name] = tbl
		g.Adjacency[tbl.Name] = make(map[string]bool)
	}

	for _, rel := range set.Relations {
		if _, ok := g.Tables[rel.Child]; !ok {
			continue
		}
		if _, ok := g.Tables[rel.Parent]; !ok {
			continue // parent table not in scope
		}

		if rel.Child == rel.Parent {
			g.SelfRefs[rel.Child] = append(g.SelfRefs[rel.Child], rel.Column)
			continue
		}

		g.Edges = append(g.Edges, Edge{
			Column:      rel.Column,
			ChildTable:  rel.Child,
			ParentTable: rel.Parent,
		})
		g.Children[rel.Parent] = append(g.Children[rel.Parent], rel.Child)
		g.Parents[rel.Child] = append(g.Parents[rel.Child], rel.Parent)
		g.Adjacency[rel.Child][rel.Parent] = true
		g.Adjacency[rel.Parent][rel.Child] = true
	}

	return g
}

// Roots returns tables that have no outgoing FK edges (no parents).
func (g *Graph) Roots() []string {
	var roots []string
	for name := range g.Tables {
		if len(g.Parents[name]) == 0 {
			roots = append(roots, name)
		}
	}
	return roots
}
