// Package breakfinder implements the Break Finder (spec.md §4.5): it
// derives breaks between near-consecutive blocks, prunes to the
// shortest break at each shared endpoint, matches each break against
// its mirrored counterpart in the opposite species orientation, and
// stamps a stable cross-run fingerprint onto survivors.
package breakfinder

import (
	"crypto/sha1"
	"encoding/hex"
	"sort"
	"strings"

	"github.com/i2bc/synteruptor/internal/config"
	"github.com/i2bc/synteruptor/internal/model"
)

// bucketKey groups blocks the way spec.md §4.5 buckets break candidates:
// same species pair, genome-part pair, and chain direction.
type bucketKey struct {
	sp1, sp2       model.SpeciesID
	gpart1, gpart2 string
	direction      model.Direction
}

// candidate is a break before opposite-matching and fingerprinting.
type candidate struct {
	model.Break
	Sp1, Sp2       model.SpeciesID
	GPart1, GPart2 string
	Left1, Right1  string
	Left2, Right2  string
	oppositeRef    *candidate
}

// Build runs the break finder over every unordered species pair present
// in blocksAll, matching direct breaks (sp1,sp2) against their opposite
// in the swapped (sp2,sp1) orientation. dropped counts breaks with no
// opposite, a Soft error (spec.md §7): the caller should warn and
// continue rather than treat it as fatal.
func Build(blocksAll []model.BlockAll, cfg config.BreakFinder) (breaks []model.Break, dropped int) {
	direct := candidatesFromBlocks(blocksAll, cfg)
	swapped := make([]model.BlockAll, len(blocksAll))
	for i, b := range blocksAll {
		swapped[i] = swapSides(b)
	}
	reverse := candidatesFromBlocks(swapped, cfg)

	direct = cleanupShortestAtEndpoint(direct)
	reverse = cleanupShortestAtEndpoint(reverse)

	matchOpposites(direct, reverse)

	var all []*candidate
	for i := range direct {
		all = append(all, &direct[i])
	}
	for i := range reverse {
		all = append(all, &reverse[i])
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].Sp1 != all[j].Sp1 {
			return all[i].Sp1 < all[j].Sp1
		}
		if all[i].Sp2 != all[j].Sp2 {
			return all[i].Sp2 < all[j].Sp2
		}
		return all[i].LeftBlock < all[j].LeftBlock
	})

	idOf := map[*candidate]int{}
	for i, c := range all {
		idOf[c] = i + 1
	}

	out := make([]model.Break, 0, len(all))
	for _, c := range all {
		if c.oppositeRef == nil {
			dropped++ // no opposite: deleted per spec.md §4.5.
			continue
		}
		oppID, ok := idOf[c.oppositeRef]
		if !ok {
			dropped++
			continue
		}
		b := c.Break
		b.BreakID = idOf[c]
		opp := oppID
		b.Opposite = &opp
		b.BreakSum = fingerprint(c.Left1, c.Right1, c.Left2, c.Right2)
		out = append(out, b)
	}
	return out, dropped
}

// swapSides produces the same block viewed from the other genome's
// perspective (genome1 <-> genome2), used to derive the (sp2,sp1)
// orientation without re-running the block finder.
func swapSides(b model.BlockAll) model.BlockAll {
	s := b
	s.Sp1, s.Sp2 = b.Sp2, b.Sp1
	s.GPart1, s.GPart2 = b.GPart2, b.GPart1
	s.StartPid1, s.StartPid2 = b.StartPid2, b.StartPid1
	s.EndPid1, s.EndPid2 = b.EndPid2, b.EndPid1
	s.PnumCDSStart1, s.PnumCDSStart2 = b.PnumCDSStart2, b.PnumCDSStart1
	s.PnumCDSEnd1, s.PnumCDSEnd2 = b.PnumCDSEnd2, b.PnumCDSEnd1
	s.PnumAllStart1, s.PnumAllStart2 = b.PnumAllStart2, b.PnumAllStart1
	s.PnumAllEnd1, s.PnumAllEnd2 = b.PnumAllEnd2, b.PnumAllEnd1
	s.BlockOrder1, s.BlockOrder2 = b.BlockOrder2, b.BlockOrder1
	return s
}

func candidatesFromBlocks(blocks []model.BlockAll, cfg config.BreakFinder) []candidate {
	buckets := map[bucketKey][]model.BlockAll{}
	for _, b := range blocks {
		k := bucketKey{b.Sp1, b.Sp2, b.GPart1, b.GPart2, b.Direction}
		buckets[k] = append(buckets[k], b)
	}

	var keys []bucketKey
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, c := keys[i], keys[j]
		if a.sp1 != c.sp1 {
			return a.sp1 < c.sp1
		}
		if a.sp2 != c.sp2 {
			return a.sp2 < c.sp2
		}
		if a.gpart1 != c.gpart1 {
			return a.gpart1 < c.gpart1
		}
		if a.gpart2 != c.gpart2 {
			return a.gpart2 < c.gpart2
		}
		return a.direction < c.direction
	})

	var out []candidate
	for _, k := range keys {
		out = append(out, candidatesInBucket(k, buckets[k], cfg)...)
	}
	return out
}

func candidatesInBucket(k bucketKey, blocks []model.BlockAll, cfg config.BreakFinder) []candidate {
	sorted := append([]model.BlockAll(nil), blocks...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].BlockOrder1 < sorted[j].BlockOrder1 })

	window := 2 + cfg.MaxIncludedBlocks
	var out []candidate
	for _, a := range sorted {
		for _, b := range sorted {
			if a.BlockID == b.BlockID {
				continue
			}
			if !(b.BlockOrder1 > a.BlockOrder1 && b.BlockOrder1 < a.BlockOrder1+window) {
				continue
			}
			var genome2OK bool
			if k.direction == model.DirForward {
				genome2OK = b.BlockOrder2 > a.BlockOrder2 && b.BlockOrder2 < a.BlockOrder2+window
			} else {
				genome2OK = b.BlockOrder2 < a.BlockOrder2 && b.BlockOrder2 > a.BlockOrder2-window
			}
			if !genome2OK {
				continue
			}

			breakSize1 := abs(b.PnumCDSStart2 - a.PnumCDSEnd2) - 1
			breakSize2 := abs(b.PnumCDSStart1 - a.PnumCDSEnd1) - 1
			inBlocks1 := abs(b.BlockOrder1-a.BlockOrder1) - 1
			inBlocks2 := abs(b.BlockOrder2-a.BlockOrder2) - 1

			out = append(out, candidate{
				Break: model.Break{
					LeftBlock:  a.BlockID,
					RightBlock: b.BlockID,
					Direction:  k.direction,
					BreakSize1: breakSize1,
					BreakSize2: breakSize2,
					InBlocks1:  inBlocks1,
					InBlocks2:  inBlocks2,
				},
				Sp1: k.sp1, Sp2: k.sp2, GPart1: k.gpart1, GPart2: k.gpart2,
				Left1: a.EndPid1, Right1: b.StartPid1,
				Left2: a.EndPid2, Right2: b.StartPid2,
			})
		}
	}
	return out
}

// cleanupShortestAtEndpoint implements spec.md §4.5's two-pass pruning:
// first grouped by left_block (ascending), then by right_block
// (descending), keeping the shortest break (by break_size1+break_size2)
// at each shared endpoint.
func cleanupShortestAtEndpoint(cands []candidate) []candidate {
	cands = cleanupPass(cands, func(c candidate) int { return c.LeftBlock }, true)
	cands = cleanupPass(cands, func(c candidate) int { return c.RightBlock }, false)
	return cands
}

func cleanupPass(cands []candidate, keyFn func(candidate) int, ascending bool) []candidate {
	groups := map[int][]candidate{}
	var order []int
	seen := map[int]bool{}
	for _, c := range cands {
		k := keyFn(c)
		if !seen[k] {
			seen[k] = true
			order = append(order, k)
		}
		groups[k] = append(groups[k], c)
	}
	sort.Slice(order, func(i, j int) bool {
		if ascending {
			return order[i] < order[j]
		}
		return order[i] > order[j]
	})

	var out []candidate
	for _, k := range order {
		g := groups[k]
		best := g[0]
		bestSum := best.BreakSize1 + best.BreakSize2
		for _, c := range g[1:] {
			if s := c.BreakSize1 + c.BreakSize2; s < bestSum {
				best, bestSum = c, s
			}
		}
		out = append(out, best)
	}
	return out
}

// matchOpposites links each direct break to its mirrored counterpart in
// the reverse list (keyed by (left2,right2) matching the reverse
// break's (left1,right1), in either order per spec.md §4.5's
// reverse-complement case), and vice versa. Unmatched breaks on either
// side are left with a nil oppositeRef and dropped by Build.
func matchOpposites(direct, reverse []candidate) {
	byLeftRight := map[[2]string]*candidate{}
	for i := range reverse {
		key := [2]string{reverse[i].Left1, reverse[i].Right1}
		byLeftRight[key] = &reverse[i]
	}
	for i := range direct {
		c := &direct[i]
		if opp, ok := byLeftRight[[2]string{c.Left2, c.Right2}]; ok {
			c.oppositeRef = opp
			opp.oppositeRef = c
			continue
		}
		if opp, ok := byLeftRight[[2]string{c.Right2, c.Left2}]; ok {
			c.oppositeRef = opp
			opp.oppositeRef = c
		}
	}
}

func fingerprint(left1, right1, left2, right2 string) string {
	sum := sha1.Sum([]byte(strings.Join([]string{left1, right1, left2, right2}, "|")))
	return hex.EncodeToString(sum[:])
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
