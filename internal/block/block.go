// Package block implements the Block Finder (spec.md §4.4): it chains
// consecutive ortholog pairs into maximal synteny blocks.
package block

import (
	"sort"

	"github.com/i2bc/synteruptor/internal/config"
	"github.com/i2bc/synteruptor/internal/model"
)

// SpeciesPair keys every per-species-pair working set (pair links and
// blocks are local to one genome1/genome2 comparison).
type SpeciesPair struct {
	Sp1, Sp2 model.SpeciesID
}

// Result is one species pair's block-finder output.
type Result struct {
	Links   []model.PairLink
	Blocks  []model.Block
	NoBlock map[int]bool // oid -> true when it appears in no link
}

// Build groups orthos by species pair and runs the link/extension
// algorithm independently per pair (spec.md §4.4 treats each pair's
// genome1/genome2 comparison as a fully independent chain problem).
func Build(orthos []model.OrthoAll, cfg config.Block) map[SpeciesPair]Result {
	bySp := map[SpeciesPair][]model.OrthoAll{}
	for _, o := range orthos {
		k := SpeciesPair{o.Sp1, o.Sp2}
		bySp[k] = append(bySp[k], o)
	}

	var keys []SpeciesPair
	for k := range bySp {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Sp1 != keys[j].Sp1 {
			return keys[i].Sp1 < keys[j].Sp1
		}
		return keys[i].Sp2 < keys[j].Sp2
	})

	out := map[SpeciesPair]Result{}
	blockID := 0
	for _, k := range keys {
		res := buildPair(bySp[k], cfg)
		for i := range res.Blocks {
			blockID++
			res.Blocks[i].BlockID = blockID
			res.Blocks[i].Sp1 = k.Sp1
			res.Blocks[i].Sp2 = k.Sp2
		}
		out[k] = res
	}
	return out
}

func buildPair(orthos []model.OrthoAll, cfg config.Block) Result {
	byOid := map[int]model.OrthoAll{}
	for _, o := range orthos {
		byOid[o.Oid] = o
	}

	links := findLinks(orthos, cfg.Tolerance)

	referenced := map[int]bool{}
	for _, l := range links {
		referenced[l.OidStart] = true
		referenced[l.OidEnd] = true
	}
	noBlock := map[int]bool{}
	for _, o := range orthos {
		if !referenced[o.Oid] {
			noBlock[o.Oid] = true
		}
	}

	blocks := extendBlocks(links)
	assignOrders(blocks, byOid)

	return Result{Links: links, Blocks: blocks, NoBlock: noBlock}
}

// findLinks implements spec.md §4.4's pair-link predicate: genome1
// consecutive (dense pnum_order1 rank, CDS gap within tolerance) AND
// genome2 consecutive in the same direction within the same tolerance.
func findLinks(orthos []model.OrthoAll, tolerance int) []model.PairLink {
	byOrder1 := map[int]model.OrthoAll{}
	for _, o := range orthos {
		byOrder1[o.PnumOrder1] = o
	}

	var links []model.PairLink
	pairID := 0
	for _, start := range orthos {
		end, ok := byOrder1[start.PnumOrder1+1]
		if !ok {
			continue
		}
		if !(end.PnumCDS1 > start.PnumCDS1 && end.PnumCDS1 < start.PnumCDS1+2+tolerance) {
			continue
		}

		fwdGap := end.PnumCDS2 > start.PnumCDS2 && end.PnumCDS2 < start.PnumCDS2+2+tolerance
		revGap := end.PnumCDS2 < start.PnumCDS2 && end.PnumCDS2 > start.PnumCDS2-2-tolerance
		var direction model.Direction
		switch {
		case fwdGap:
			direction = model.DirForward
		case revGap:
			direction = model.DirReverse
		default:
			continue
		}

		pairID++
		links = append(links, model.PairLink{
			PairID:    pairID,
			OidStart:  start.Oid,
			OidEnd:    end.Oid,
			Direction: direction,
		})
	}
	return links
}

// extendBlocks implements spec.md §4.4's greedy chain extension using
// by_start/by_end lookup maps, consuming each link exactly once.
func extendBlocks(links []model.PairLink) []model.Block {
	byStart := map[int]model.PairLink{}
	byEnd := map[int]model.PairLink{}
	consumed := map[int]bool{}
	for _, l := range links {
		byStart[l.OidStart] = l
		byEnd[l.OidEnd] = l
	}

	var blocks []model.Block
	// Deterministic iteration order: by oid_start ascending.
	ordered := append([]model.PairLink(nil), links...)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].OidStart < ordered[j].OidStart })

	for _, l := range ordered {
		if consumed[l.PairID] {
			continue
		}
		consumed[l.PairID] = true
		s, e := l.OidStart, l.OidEnd
		size := 2

		for {
			prev, ok := byEnd[s]
			if !ok || consumed[prev.PairID] {
				break
			}
			consumed[prev.PairID] = true
			s = prev.OidStart
			size++
		}
		for {
			next, ok := byStart[e]
			if !ok || consumed[next.PairID] {
				break
			}
			consumed[next.PairID] = true
			e = next.OidEnd
			size++
		}

		blocks = append(blocks, model.Block{
			OidStart:  s,
			OidEnd:    e,
			Direction: l.Direction,
			BlockSize: size,
		})
	}
	return blocks
}

// assignOrders numbers blocks 1..N along each genome by the pnum_CDS of
// their start ortho on that genome (spec.md §4.4).
func assignOrders(blocks []model.Block, byOid map[int]model.OrthoAll) {
	order1 := append([]model.Block(nil), blocks...)
	sort.Slice(order1, func(i, j int) bool {
		return byOid[order1[i].OidStart].PnumCDS1 < byOid[order1[j].OidStart].PnumCDS1
	})
	rank1 := map[int]int{}
	for i, b := range order1 {
		rank1[b.OidStart] = i + 1
	}

	order2 := append([]model.Block(nil), blocks...)
	sort.Slice(order2, func(i, j int) bool {
		return byOid[order2[i].OidStart].PnumCDS2 < byOid[order2[j].OidStart].PnumCDS2
	})
	rank2 := map[int]int{}
	for i, b := range order2 {
		rank2[b.OidStart] = i + 1
	}

	for i := range blocks {
		blocks[i].BlockOrder1 = rank1[blocks[i].OidStart]
		blocks[i].BlockOrder2 = rank2[blocks[i].OidStart]
	}
}
