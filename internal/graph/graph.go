// Package graph implements the Break-Graph Analyzer (spec.md §4.8): it
// groups homologous breaks across species pairs into graphs, collapses
// species nodes with identical relationships, and detects cycles by
// iterative leaf pruning.
package graph

import (
	"sort"
	"strings"

	"github.com/i2bc/synteruptor/internal/model"
)

// Annotation is what graph analysis writes back onto a break's ranking
// row (spec.md §4.8).
type Annotation struct {
	Cycle   int
	GraphID int
}

// Build groups breaksAll into graphs, computes each graph's cycle size,
// and returns the per-break annotation plus the breaks_graph edge rows.
func Build(breaksAll []model.BreakAll) (map[int]Annotation, []model.GraphEdge) {
	groups := groupBreaks(breaksAll)

	graphIDs := make([]int, 0, len(groups))
	for graphID := range groups {
		graphIDs = append(graphIDs, graphID)
	}
	sort.Ints(graphIDs)

	annotations := map[int]Annotation{}
	var edges []model.GraphEdge

	for _, graphID := range graphIDs {
		members := groups[graphID]
		cycle := cycleSize(members)
		for _, b := range members {
			annotations[b.BreakID] = Annotation{Cycle: cycle, GraphID: graphID}
			edges = append(edges, model.GraphEdge{GraphID: graphID, FromName: string(b.Sp1), ToName: string(b.Sp2)})
		}
	}
	return annotations, edges
}

// groupBreaks computes the transitive closure over "shares (sp1,
// left1, right1)" and "is the opposite of a member" (spec.md §4.8),
// returning a deterministically-numbered graphid -> member list map.
func groupBreaks(breaksAll []model.BreakAll) map[int][]model.BreakAll {
	byID := map[int]model.BreakAll{}
	for _, b := range breaksAll {
		byID[b.BreakID] = b
	}

	parent := map[int]int{}
	var find func(int) int
	find = func(x int) int {
		if _, ok := parent[x]; !ok {
			parent[x] = x
			return x
		}
		root := x
		for parent[root] != root {
			root = parent[root]
		}
		for parent[x] != root {
			parent[x], x = root, parent[x]
		}
		return root
	}
	union := func(a, b int) {
		ra, rb := find(a), find(b)
		if ra == rb {
			return
		}
		if ra < rb {
			parent[rb] = ra
		} else {
			parent[ra] = rb
		}
	}

	byKey := map[string][]int{}
	for _, b := range breaksAll {
		key := flankKey(b.Sp1, b.Left1, b.Right1)
		byKey[key] = append(byKey[key], b.BreakID)
	}
	for _, ids := range byKey {
		for i := 1; i < len(ids); i++ {
			union(ids[0], ids[i])
		}
	}
	for _, b := range breaksAll {
		if b.Opposite != nil {
			if _, ok := byID[*b.Opposite]; ok {
				union(b.BreakID, *b.Opposite)
			}
		}
	}

	rootMembers := map[int][]model.BreakAll{}
	for _, b := range breaksAll {
		root := find(b.BreakID)
		rootMembers[root] = append(rootMembers[root], b)
	}

	var roots []int
	for r := range rootMembers {
		roots = append(roots, r)
	}
	sort.Ints(roots)

	out := map[int][]model.BreakAll{}
	for i, r := range roots {
		members := rootMembers[r]
		sort.Slice(members, func(i, j int) bool { return members[i].BreakID < members[j].BreakID })
		out[i+1] = members
	}
	return out
}

// flankKey is the union-find grouping key for (sp1,left1,right1): the
// tuple already disambiguates on its own, so it doubles as the map key
// directly with no separate hash step.
func flankKey(sp model.SpeciesID, left, right string) string {
	return string(sp) + "|" + left + "|" + right
}

// cycleSize computes spec.md §4.8's node-collapse + leaf-pruning cycle
// metric for one graph's member breaks.
func cycleSize(members []model.BreakAll) int {
	neighbors := map[model.SpeciesID][]model.SpeciesID{}
	for _, b := range members {
		neighbors[b.Sp1] = append(neighbors[b.Sp1], b.Sp2)
		neighbors[b.Sp2] = append(neighbors[b.Sp2], b.Sp1)
	}

	signature := func(sp model.SpeciesID) string {
		ns := append([]model.SpeciesID(nil), neighbors[sp]...)
		sort.Slice(ns, func(i, j int) bool { return ns[i] < ns[j] })
		strs := make([]string, len(ns))
		for i, n := range ns {
			strs[i] = string(n)
		}
		return strings.Join(strs, ",")
	}

	bySignature := map[string][]model.SpeciesID{}
	for sp := range neighbors {
		sig := signature(sp)
		bySignature[sig] = append(bySignature[sig], sp)
	}

	nodeOf := map[model.SpeciesID]string{}
	for _, group := range bySignature {
		sort.Slice(group, func(i, j int) bool { return group[i] < group[j] })
		strs := make([]string, len(group))
		for i, sp := range group {
			strs[i] = string(sp)
		}
		label := strings.Join(strs, " ")
		for _, sp := range group {
			nodeOf[sp] = label
		}
	}

	adjacency := map[string]map[string]bool{}
	addEdge := func(a, b string) {
		if a == b {
			return
		}
		if adjacency[a] == nil {
			adjacency[a] = map[string]bool{}
		}
		adjacency[a][b] = true
	}
	for _, b := range members {
		addEdge(nodeOf[b.Sp1], nodeOf[b.Sp2])
		addEdge(nodeOf[b.Sp2], nodeOf[b.Sp1])
	}

	deleted := map[string]bool{}
	remaining := len(adjacency)
	for {
		changed := false
		for node, neigh := range adjacency {
			if deleted[node] {
				continue
			}
			degree := 0
			for n := range neigh {
				if !deleted[n] {
					degree++
				}
			}
			if degree < 2 {
				deleted[node] = true
				remaining--
				changed = true
			}
		}
		if !changed {
			break
		}
	}
	return remaining
}
