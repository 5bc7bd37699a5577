// Package reorder implements the Assembly Reorderer (spec.md §4.9): for
// a fragmented genome, it picks the single-part reference genome
// sharing the most orthologs, orders and orients each part against
// that reference, and renumbers pnum_display densely.
package reorder

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/i2bc/synteruptor/internal/config"
	"github.com/i2bc/synteruptor/internal/model"
)

// PartStat is the per-part summary spec.md §4.9 sorts and orients on.
type PartStat struct {
	GPart     string
	Median    float64 // +Inf when the part has no orthologs, or is ambiguous
	Cumul     int
	Ambiguous bool
}

// PickReference chooses the complete genome sharing the most orthologs
// with sp (spec.md §4.9 step 0), tie-broken by species id ascending.
func PickReference(sp model.SpeciesID, genomes []model.Genome, orthos []model.OrthoAll) (model.SpeciesID, bool) {
	counts := map[model.SpeciesID]int{}
	for _, o := range orthos {
		switch {
		case o.Sp1 == sp && o.Sp2 != sp:
			counts[o.Sp2]++
		case o.Sp2 == sp && o.Sp1 != sp:
			counts[o.Sp1]++
		}
	}

	var candidates []model.SpeciesID
	complete := map[model.SpeciesID]bool{}
	for _, g := range genomes {
		if g.Complete && g.Sp != sp {
			complete[g.Sp] = true
		}
	}
	for c := range counts {
		if complete[c] {
			candidates = append(candidates, c)
		}
	}
	if len(candidates) == 0 {
		return "", false
	}
	sort.Slice(candidates, func(i, j int) bool {
		if counts[candidates[i]] != counts[candidates[j]] {
			return counts[candidates[i]] > counts[candidates[j]]
		}
		return candidates[i] < candidates[j]
	})
	return candidates[0], true
}

// computePartStats computes each gpart's median reference position and
// cumul orientation signal (spec.md §4.9 steps 2-5).
func computePartStats(sp, ref model.SpeciesID, genesByPart map[string][]model.Gene, orthos []model.OrthoAll, cfg config.Reorder) map[string]PartStat {
	refPositions := map[string]map[int]int{} // gpart -> spPnumAll -> refPnumAll
	for _, o := range orthos {
		var gpart string
		var spPnum, refPnum int
		switch {
		case o.Sp1 == sp && o.Sp2 == ref:
			gpart, spPnum, refPnum = o.GPart1, o.PnumAll1, o.PnumAll2
		case o.Sp2 == sp && o.Sp1 == ref:
			gpart, spPnum, refPnum = o.GPart2, o.PnumAll2, o.PnumAll1
		default:
			continue
		}
		if refPositions[gpart] == nil {
			refPositions[gpart] = map[int]int{}
		}
		refPositions[gpart][spPnum] = refPnum
	}

	out := map[string]PartStat{}
	for gpart, genes := range genesByPart {
		byPnum := refPositions[gpart]
		var refVals []int
		for _, g := range genes {
			if v, ok := byPnum[g.PnumAll]; ok {
				refVals = append(refVals, v)
			}
		}
		if len(refVals) == 0 {
			out[gpart] = PartStat{GPart: gpart, Median: math.Inf(1)}
			continue
		}

		cumul := 0
		for i := 1; i < len(refVals); i++ {
			cumul += sign(refVals[i] - refVals[i-1])
		}

		sorted := make([]float64, len(refVals))
		for i, v := range refVals {
			sorted[i] = float64(v)
		}
		sort.Float64s(sorted)
		median := stat.Quantile(0.5, stat.Empirical, sorted, nil)

		rangeVal := int(sorted[len(sorted)-1] - sorted[0])
		count := len(refVals)
		ambiguous := count > cfg.AmbiguousMinOrthologs && rangeVal > cfg.AmbiguousMinRange &&
			count < cfg.AmbiguousMaxCount && absInt(cumul) <= cfg.AmbiguousMaxCumul

		ps := PartStat{GPart: gpart, Median: median, Cumul: cumul, Ambiguous: ambiguous}
		if ambiguous {
			ps.Median = math.Inf(1)
		}
		out[gpart] = ps
	}
	return out
}

// Build reorders and renumbers sp's genes against its chosen reference
// genome (spec.md §4.9). ok is false if sp has a single part already or
// no complete reference genome shares any orthologs with it.
func Build(sp model.SpeciesID, allGenes []model.Gene, genomes []model.Genome, orthos []model.OrthoAll, cfg config.Reorder) (newGenes []model.Gene, newParts []model.GenomePart, ref model.SpeciesID, ok bool) {
	ref, found := PickReference(sp, genomes, orthos)
	if !found {
		return nil, nil, "", false
	}
	newGenes, newParts, ok = BuildWithReference(sp, ref, allGenes, orthos, cfg)
	return newGenes, newParts, ref, ok
}

// BuildWithReference reorders sp's genes against an explicitly chosen
// reference genome, bypassing PickReference (spec.md §6.8's `-m model -s
// sample` single-pair mode).
func BuildWithReference(sp, ref model.SpeciesID, allGenes []model.Gene, orthos []model.OrthoAll, cfg config.Reorder) (newGenes []model.Gene, newParts []model.GenomePart, ok bool) {
	genesByPart := map[string][]model.Gene{}
	for _, g := range allGenes {
		if g.Sp != sp {
			continue
		}
		genesByPart[g.GPart] = append(genesByPart[g.GPart], g)
	}
	if len(genesByPart) < 2 {
		return nil, nil, false
	}
	for gpart := range genesByPart {
		sort.Slice(genesByPart[gpart], func(i, j int) bool {
			return genesByPart[gpart][i].PnumAll < genesByPart[gpart][j].PnumAll
		})
	}

	stats := computePartStats(sp, ref, genesByPart, orthos, cfg)

	var gparts []string
	for gpart := range genesByPart {
		gparts = append(gparts, gpart)
	}
	sort.Slice(gparts, func(i, j int) bool {
		si, sj := stats[gparts[i]], stats[gparts[j]]
		if si.Median != sj.Median {
			return si.Median < sj.Median
		}
		return gparts[i] < gparts[j]
	})

	var ordered []model.Gene
	for _, gpart := range gparts {
		part := append([]model.Gene(nil), genesByPart[gpart]...)
		if stats[gpart].Cumul < 0 {
			reverseGenes(part)
		}
		ordered = append(ordered, part...)
	}

	for i := range ordered {
		ordered[i].PnumDisplay = i + 1
	}

	partDisplay := map[string][2]int{} // gpart -> [min,max]
	for _, g := range ordered {
		r, ok := partDisplay[g.GPart]
		if !ok {
			partDisplay[g.GPart] = [2]int{g.PnumDisplay, g.PnumDisplay}
			continue
		}
		if g.PnumDisplay < r[0] {
			r[0] = g.PnumDisplay
		}
		if g.PnumDisplay > r[1] {
			r[1] = g.PnumDisplay
		}
		partDisplay[g.GPart] = r
	}
	for _, gpart := range gparts {
		r := partDisplay[gpart]
		newParts = append(newParts, model.GenomePart{Sp: sp, GPart: gpart, MinDisplay: r[0], MaxDisplay: r[1]})
	}

	return ordered, newParts, true
}

func reverseGenes(genes []model.Gene) {
	for i, j := 0, len(genes)-1; i < j; i, j = i+1, j-1 {
		genes[i], genes[j] = genes[j], genes[i]
	}
}

func sign(n int) int {
	switch {
	case n > 0:
		return 1
	case n < 0:
		return -1
	default:
		return 0
	}
}

func absInt(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
