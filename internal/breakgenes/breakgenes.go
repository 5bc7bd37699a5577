// Package breakgenes implements the Break-Gene Extractor (spec.md §4.6):
// for every surviving break it materializes the gene contents strictly
// between the flanking genes on each side, cross-referencing each
// gene's ortholog partner to flag orthologs misplaced inside the break.
package breakgenes

import (
	"sort"

	"github.com/i2bc/synteruptor/internal/model"
)

// orthoIndex maps a pid to its ortholog partner in every other species
// it has a pair with.
type orthoIndex map[string]map[model.SpeciesID]string

func buildOrthoIndex(orthos []model.OrthoPair, genes map[string]model.Gene) orthoIndex {
	idx := orthoIndex{}
	add := func(from, to string) {
		toGene, ok := genes[to]
		if !ok {
			return
		}
		if idx[from] == nil {
			idx[from] = map[model.SpeciesID]string{}
		}
		idx[from][toGene.Sp] = to
	}
	for _, o := range orthos {
		add(o.Pid1, o.Pid2)
		add(o.Pid2, o.Pid1)
	}
	return idx
}

// Build materializes BreakGene rows for every break in breaksAll.
func Build(breaksAll []model.BreakAll, genes map[string]model.Gene, orthos []model.OrthoPair) []model.BreakGene {
	idx := buildOrthoIndex(orthos, genes)

	bySpPart := map[string][]model.Gene{}
	for _, g := range genes {
		key := string(g.Sp) + "|" + g.GPart
		bySpPart[key] = append(bySpPart[key], g)
	}
	for k := range bySpPart {
		sort.Slice(bySpPart[k], func(i, j int) bool { return bySpPart[k][i].PnumAll < bySpPart[k][j].PnumAll })
	}

	var out []model.BreakGene
	for _, b := range breaksAll {
		side1 := genesBetween(bySpPart, b.Sp1, b.GPart1, genes[b.Left1].PnumAll, genes[b.Right1].PnumAll)
		side2 := genesBetween(bySpPart, b.Sp2, b.GPart2, genes[b.Left2].PnumAll, genes[b.Right2].PnumAll)

		side1Set := map[string]bool{}
		for _, g := range side1 {
			side1Set[g.Pid] = true
		}
		side2Set := map[string]bool{}
		for _, g := range side2 {
			side2Set[g.Pid] = true
		}

		for _, g := range side1 {
			ortho := idx[g.Pid][b.Sp2]
			out = append(out, model.BreakGene{
				BreakID: b.BreakID, Pid: g.Pid, Side: 1,
				Ortho: ortho, OrthoIn: ortho != "" && side2Set[ortho],
			})
		}
		for _, g := range side2 {
			ortho := idx[g.Pid][b.Sp1]
			out = append(out, model.BreakGene{
				BreakID: b.BreakID, Pid: g.Pid, Side: 2,
				Ortho: ortho, OrthoIn: ortho != "" && side1Set[ortho],
			})
		}
	}
	return out
}

// genesBetween returns every gene of (sp,gpart) whose pnum_all lies
// strictly between the two flanking ranks, ordering the interval
// min..max regardless of direction (spec.md §4.6).
func genesBetween(bySpPart map[string][]model.Gene, sp model.SpeciesID, gpart string, pnumA, pnumB int) []model.Gene {
	lo, hi := pnumA, pnumB
	if lo > hi {
		lo, hi = hi, lo
	}
	var out []model.Gene
	for _, g := range bySpPart[string(sp)+"|"+gpart] {
		if g.PnumAll > lo && g.PnumAll < hi {
			out = append(out, g)
		}
	}
	return out
}
