// Package datasettree builds and walks the parent/child forest of datasets in a project.
package datasettree

import (
	"maps"
	"slices"

	"github.com/opst/trainval/pkg/api/types/datasets"
)

type Node struct {
	Dataset  datasets.Info
	Children []*Node
}

// Build builds the forest from a flat (recursive) listing of datasets.
//
// Siblings are ordered by dataset id.
// A dataset whose parent is not in the listing becomes a root.
// When parents of datasets form a cycle, the dataset with the smallest id in the cycle becomes a root.
func Build(list []datasets.Info) []*Node {
	nodes := make(map[int]*Node, len(list))
	parents := map[int]int{}
	for _, ds := range list {
		nodes[ds.Id] = &Node{Dataset: ds}
	}
	for _, ds := range list {
		if ds.ParentId == nil || *ds.ParentId == ds.Id {
			continue
		}
		if _, ok := nodes[*ds.ParentId]; ok {
			parents[ds.Id] = *ds.ParentId
		}
	}
	breakCycles(parents)

	roots := []*Node{}
	for id, n := range nodes {
		if p, ok := parents[id]; ok {
			nodes[p].Children = append(nodes[p].Children, n)
			continue
		}
		roots = append(roots, n)
	}

	byId := func(a, b *Node) int { return a.Dataset.Id - b.Dataset.Id }
	slices.SortFunc(roots, byId)
	for _, n := range nodes {
		slices.SortFunc(n.Children, byId)
	}
	return roots
}

// breakCycles removes, from each cycle in parents (child id -> parent id),
// the link of the smallest id.
func breakCycles(parents map[int]int) {
	const (
		onPath = iota + 1
		done
	)
	state := map[int]int{}

	for _, start := range slices.Sorted(maps.Keys(parents)) {
		path := []int{}
		id, cyclic := start, false
		for {
			if state[id] == done {
				break
			}
			if state[id] == onPath {
				cyclic = true
				break
			}
			state[id] = onPath
			path = append(path, id)
			p, ok := parents[id]
			if !ok {
				break
			}
			id = p
		}
		if cyclic {
			delete(parents, slices.Min(path[slices.Index(path, id):]))
		}
		for _, n := range path {
			state[n] = done
		}
	}
}

// FindChain finds the chain of datasets from a root down to the dataset having id.
//
// # Args
//
// - forest: roots of trees
//
// - id: dataset id to be found
//
// - withSelf: when true, the found dataset itself is the last element of the chain.
// Otherwise, the chain ends with its parent.
//
// # Returns
//
// - []datasets.Info: the chain
//
// - bool: false if id is not found in the forest.
func FindChain(forest []*Node, id int, withSelf bool) ([]datasets.Info, bool) {
	var dfs func(nodes []*Node, parents []datasets.Info) ([]datasets.Info, bool)
	dfs = func(nodes []*Node, parents []datasets.Info) ([]datasets.Info, bool) {
		for _, n := range nodes {
			if n.Dataset.Id == id {
				chain := slices.Clone(parents)
				if withSelf {
					chain = append(chain, n.Dataset)
				}
				return chain, true
			}
			if chain, ok := dfs(n.Children, append(slices.Clone(parents), n.Dataset)); ok {
				return chain, true
			}
		}
		return nil, false
	}
	return dfs(forest, []datasets.Info{})
}

// Walk visits every node in pre-order: a parent is visited before its children.
//
// parent is nil for roots. If fn returns error, walking stops and the error is returned.
func Walk(forest []*Node, fn func(node *Node, parent *Node) error) error {
	var walk func(nodes []*Node, parent *Node) error
	walk = func(nodes []*Node, parent *Node) error {
		for _, n := range nodes {
			if err := fn(n, parent); err != nil {
				return err
			}
			if err := walk(n.Children, n); err != nil {
				return err
			}
		}
		return nil
	}
	return walk(forest, nil)
}

// Flatten lists datasets in the forest, in pre-order.
func Flatten(forest []*Node) []datasets.Info {
	ret := []datasets.Info{}
	Walk(forest, func(n *Node, _ *Node) error {
		ret = append(ret, n.Dataset)
		return nil
	})
	return ret
}
