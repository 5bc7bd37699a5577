// Package ortholog implements the Ortholog Builder (spec.md §4.1): it
// reduces an all-vs-all similarity search into one best-reciprocal-hit
// ortholog pair per pair of genes, rescuing ambiguous cases with a
// synteny-aware tie-breaking pass.
package ortholog

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/i2bc/synteruptor/internal/config"
	"github.com/i2bc/synteruptor/internal/model"
	"github.com/i2bc/synteruptor/internal/perr"
)

const stageName = "ortholog"

// bestMatch is the reduction of every hit for one query down to its
// lowest-e-value, tie-broken-by-identity best subject set (spec.md §4.1).
type bestMatch struct {
	EValue   float64
	Identity float64
	AlnLen   int
	Matches  []string // subject pids tied for best, sorted ascending
}

// Pair is an emitted ortholog pair before oid assignment.
type Pair struct {
	Pid1, Pid2 string
	OIdent     float64
	OAlen      int
}

// Build runs the full ortholog builder over every unordered species pair
// present in genes, and returns sorted, oid-numbered pairs (spec.md §4.1
// "Emit").
func Build(allHits []model.Hit, genes map[string]model.Gene, cfg config.Ortholog) ([]model.OrthoPair, error) {
	filtered, err := filterHits(allHits, genes, cfg)
	if err != nil {
		return nil, err
	}

	bySpeciesPair := map[[2]model.SpeciesID][]model.Hit{}
	speciesSet := map[model.SpeciesID]bool{}
	for _, h := range filtered {
		qg, sg := genes[h.Query], genes[h.Subject]
		bySpeciesPair[[2]model.SpeciesID{qg.Sp, sg.Sp}] = append(bySpeciesPair[[2]model.SpeciesID{qg.Sp, sg.Sp}], h)
		speciesSet[qg.Sp] = true
		speciesSet[sg.Sp] = true
	}

	var speciesList []model.SpeciesID
	for sp := range speciesSet {
		speciesList = append(speciesList, sp)
	}
	sort.Slice(speciesList, func(i, j int) bool { return speciesList[i] < speciesList[j] })

	pnumCDSIndex := buildPnumCDSIndex(genes)

	var allPairs []Pair
	for i := 0; i < len(speciesList); i++ {
		for j := i + 1; j < len(speciesList); j++ {
			spA, spB := speciesList[i], speciesList[j]
			fwd := reduceBestMatches(bySpeciesPair[[2]model.SpeciesID{spA, spB}], cfg)
			bwd := reduceBestMatches(bySpeciesPair[[2]model.SpeciesID{spB, spA}], cfg)
			pairs := resolvePair(spA, spB, fwd, bwd, genes, pnumCDSIndex[spA], pnumCDSIndex[spB])
			allPairs = append(allPairs, pairs...)
		}
	}

	sort.Slice(allPairs, func(i, j int) bool {
		if allPairs[i].Pid1 != allPairs[j].Pid1 {
			return allPairs[i].Pid1 < allPairs[j].Pid1
		}
		return allPairs[i].Pid2 < allPairs[j].Pid2
	})

	out := make([]model.OrthoPair, 0, len(allPairs))
	for i, p := range allPairs {
		out = append(out, model.OrthoPair{
			Oid:    i + 1,
			Pid1:   p.Pid1,
			Pid2:   p.Pid2,
			OIdent: p.OIdent,
			OAlen:  p.OAlen,
		})
	}
	return out, nil
}

// filterHits keeps cross-species hits passing the min-length/identity/
// e-value gate (spec.md §4.1). A hit referencing a pid absent from the
// gene catalog is a Contract violation (spec.md §7 "missing gene record
// referenced by a hit").
func filterHits(allHits []model.Hit, genes map[string]model.Gene, cfg config.Ortholog) ([]model.Hit, error) {
	out := make([]model.Hit, 0, len(allHits))
	for _, h := range allHits {
		qg, ok := genes[h.Query]
		if !ok {
			return nil, perr.Contractf(stageName, h.Query, "hit references unknown query gene")
		}
		sg, ok := genes[h.Subject]
		if !ok {
			return nil, perr.Contractf(stageName, h.Subject, "hit references unknown subject gene")
		}
		if qg.Sp == sg.Sp {
			continue
		}
		shorter := qg.Length
		if sg.Length < shorter {
			shorter = sg.Length
		}
		minLen := cfg.MinLengthFraction * float64(shorter) / 3.0
		if float64(h.AlnLen) < minLen {
			continue
		}
		if h.PctIdent/100.0 < cfg.MinIdentity {
			continue
		}
		if h.EValue > cfg.MaxEValue {
			continue
		}
		out = append(out, h)
	}
	return out, nil
}

// reduceBestMatches implements the three-way tie policy of spec.md §4.1.
func reduceBestMatches(hits []model.Hit, cfg config.Ortholog) map[string]*bestMatch {
	best := map[string]*bestMatch{}
	for _, h := range hits {
		cur, ok := best[h.Query]
		if !ok {
			best[h.Query] = &bestMatch{EValue: h.EValue, Identity: h.PctIdent, AlnLen: h.AlnLen, Matches: []string{h.Subject}}
			continue
		}
		withinTolerance := h.EValue == cur.EValue ||
			(h.EValue <= cur.EValue*cfg.EValueTolerance && h.EValue*cfg.EValueTolerance >= cur.EValue)
		switch {
		case h.EValue < cur.EValue && !withinTolerance:
			best[h.Query] = &bestMatch{EValue: h.EValue, Identity: h.PctIdent, AlnLen: h.AlnLen, Matches: []string{h.Subject}}
		case withinTolerance && h.PctIdent > cur.Identity:
			best[h.Query] = &bestMatch{EValue: h.EValue, Identity: h.PctIdent, AlnLen: h.AlnLen, Matches: []string{h.Subject}}
		case withinTolerance && h.PctIdent == cur.Identity:
			cur.Matches = append(cur.Matches, h.Subject)
		// higher e-values outside tolerance, and e-values within tolerance
		// with lower identity, are ignored.
		default:
		}
	}
	for _, bm := range best {
		sort.Strings(bm.Matches)
	}
	return best
}

func buildPnumCDSIndex(genes map[string]model.Gene) map[model.SpeciesID]map[int]string {
	idx := map[model.SpeciesID]map[int]string{}
	for _, g := range genes {
		if !g.IsCDS() {
			continue
		}
		if idx[g.Sp] == nil {
			idx[g.Sp] = map[int]string{}
		}
		idx[g.Sp][g.PnumCDS] = g.Pid
	}
	return idx
}

// resolvePair implements BRH-with-synteny-rescue for one ordered species
// pair (spA, spB) (spec.md §4.1 "Pair resolution").
func resolvePair(spA, spB model.SpeciesID, fwd, bwd map[string]*bestMatch, genes map[string]model.Gene,
	cdsA, cdsB map[int]string) []Pair {

	var committed []Pair
	pairedA := map[string]string{} // pid in spA -> partner in spB
	pairedB := map[string]string{}

	uf := newUnionFind()
	groupEdges := map[string]map[string]bool{} // query pid -> allowed target pids (restricted per deferral rule)

	var queries []string
	for q := range fwd {
		queries = append(queries, q)
	}
	sort.Strings(queries)

	for _, q := range queries {
		bm := fwd[q]
		switch len(bm.Matches) {
		case 1:
			t := bm.Matches[0]
			btm, ok := bwd[t]
			if !ok {
				continue // no reciprocal data at all: drop
			}
			switch len(btm.Matches) {
			case 1:
				if btm.Matches[0] == q {
					committed = append(committed, Pair{Pid1: q, Pid2: t, OIdent: bm.Identity, OAlen: bm.AlnLen})
					pairedA[q] = t
					pairedB[t] = q
				}
				// unique forward, unique backward, non-reciprocal: drop.
			default:
				contains := false
				for _, c := range btm.Matches {
					if c == q {
						contains = true
						break
					}
				}
				if contains {
					deferEdge(groupEdges, uf, q, []string{t})
				}
				// backward multi set not containing q: drop.
			}
		default:
			var restricted []string
			for _, t := range bm.Matches {
				btm, ok := bwd[t]
				if !ok {
					continue
				}
				for _, c := range btm.Matches {
					if c == q {
						restricted = append(restricted, t)
						break
					}
				}
			}
			if len(restricted) == 0 {
				continue // drop
			}
			deferEdge(groupEdges, uf, q, restricted)
		}
	}

	groups := collectGroups(uf, groupEdges)
	for _, g := range groups {
		synthetic := solveSynteny(g, genes, cdsA, cdsB, pairedA, pairedB)
		committed = append(committed, synthetic...)
	}
	return committed
}

func deferEdge(groupEdges map[string]map[string]bool, uf *unionFind, q string, targets []string) {
	if groupEdges[q] == nil {
		groupEdges[q] = map[string]bool{}
	}
	qn := "Q:" + q
	uf.find(qn)
	for _, t := range targets {
		groupEdges[q][t] = true
		tn := "T:" + t
		uf.find(tn)
		uf.union(qn, tn)
	}
}

type group struct {
	from  []string            // queries (spA pids), sorted
	to    []string            // targets (spB pids), sorted
	edges map[string][]string // query -> allowed targets, sorted
}

func collectGroups(uf *unionFind, groupEdges map[string]map[string]bool) []group {
	byRoot := map[string]*group{}
	var roots []string
	for q, targets := range groupEdges {
		root := uf.find("Q:" + q)
		g, ok := byRoot[root]
		if !ok {
			g = &group{edges: map[string][]string{}}
			byRoot[root] = g
			roots = append(roots, root)
		}
		g.from = append(g.from, q)
		var ts []string
		for t := range targets {
			ts = append(ts, t)
		}
		sort.Strings(ts)
		g.edges[q] = ts
		for _, t := range ts {
			g.to = append(g.to, t)
		}
	}
	sort.Strings(roots)
	out := make([]group, 0, len(roots))
	for _, r := range roots {
		g := byRoot[r]
		sort.Strings(g.from)
		g.to = dedupSorted(g.to)
		out = append(out, *g)
	}
	return out
}

func dedupSorted(ss []string) []string {
	sort.Strings(ss)
	out := ss[:0]
	var last string
	for i, s := range ss {
		if i == 0 || s != last {
			out = append(out, s)
			last = s
		}
	}
	return out
}

// solveSynteny runs the iterative synteny-rescue loop of spec.md §4.1
// over a single ambiguous group until no new pair emerges in a round.
func solveSynteny(g group, genes map[string]model.Gene, cdsA, cdsB map[int]string,
	pairedA, pairedB map[string]string) []Pair {

	var out []Pair
	usedFrom := map[string]bool{}
	usedTo := map[string]bool{}

	for {
		var remainingFrom, remainingTo []string
		for _, q := range g.from {
			if !usedFrom[q] {
				remainingFrom = append(remainingFrom, q)
			}
		}
		for _, t := range g.to {
			if !usedTo[t] {
				remainingTo = append(remainingTo, t)
			}
		}
		if len(remainingFrom) == 0 || len(remainingTo) == 0 {
			return out
		}

		if len(remainingFrom) == 1 && len(remainingTo) == 1 {
			q, t := remainingFrom[0], remainingTo[0]
			out = append(out, Pair{Pid1: q, Pid2: t, OIdent: 0, OAlen: 0})
			pairedA[q], pairedB[t] = t, q
			usedFrom[q], usedTo[t] = true, true
			continue
		}

		type candidate struct{ q, t string }
		var potentials []candidate
		for _, q := range remainingFrom {
			qg, ok := genes[q]
			if !ok {
				continue
			}
			for _, delta := range []int{-1, 1} {
				neighborPid, ok := cdsA[qg.PnumCDS+delta]
				if !ok {
					continue
				}
				tPrime, paired := pairedA[neighborPid]
				if !paired {
					continue
				}
				for _, t := range g.edges[q] {
					if usedTo[t] {
						continue
					}
					tg, ok := genes[t]
					if !ok {
						continue
					}
					for _, d2 := range []int{-1, 1} {
						if neigh, ok := cdsB[tg.PnumCDS+d2]; ok && neigh == tPrime {
							potentials = append(potentials, candidate{q, t})
						}
					}
				}
			}
		}

		fromCount := map[string]int{}
		toCount := map[string]int{}
		for _, c := range potentials {
			fromCount[c.q]++
			toCount[c.t]++
		}
		var kept []candidate
		for _, c := range potentials {
			if fromCount[c.q] == 1 && toCount[c.t] == 1 {
				kept = append(kept, c)
			}
		}
		if len(kept) == 0 {
			return out
		}
		sort.Slice(kept, func(i, j int) bool { return kept[i].q < kept[j].q })
		seen := map[string]bool{}
		for _, c := range kept {
			if seen[c.q] || usedFrom[c.q] || usedTo[c.t] {
				continue
			}
			seen[c.q] = true
			out = append(out, Pair{Pid1: c.q, Pid2: c.t, OIdent: 0, OAlen: 0})
			pairedA[c.q], pairedB[c.t] = c.t, c.q
			usedFrom[c.q], usedTo[c.t] = true, true
		}
	}
}

// FormatTSV renders an OrthoPair list as the intermediate TSV (spec.md §6.4).
func FormatTSV(pairs []model.OrthoPair) string {
	out := "oid\tpid1\tpid2\to_ident\to_alen\n"
	for _, p := range pairs {
		out += fmt.Sprintf("%d\t%s\t%s\t%g\t%d\n", p.Oid, p.Pid1, p.Pid2, p.OIdent, p.OAlen)
	}
	return out
}

// ParseTSV re-ingests the intermediate ortholog pairs file (spec.md
// §6.4): the Ortholog Builder's output may be edited or regenerated
// independently of the Catalog Loader run that consumes it.
func ParseTSV(r io.Reader) ([]model.OrthoPair, error) {
	sc := bufio.NewScanner(r)
	var out []model.OrthoPair
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := sc.Text()
		if lineNo == 1 || line == "" {
			continue // header
		}
		f := strings.Split(line, "\t")
		if len(f) != 5 {
			return nil, fmt.Errorf("ortho pairs:%d: expected 5 columns, got %d", lineNo, len(f))
		}
		var p model.OrthoPair
		var err error
		if p.Oid, err = strconv.Atoi(f[0]); err != nil {
			return nil, fmt.Errorf("ortho pairs:%d: oid: %w", lineNo, err)
		}
		p.Pid1, p.Pid2 = f[1], f[2]
		if p.OIdent, err = strconv.ParseFloat(f[3], 64); err != nil {
			return nil, fmt.Errorf("ortho pairs:%d: o_ident: %w", lineNo, err)
		}
		if p.OAlen, err = strconv.Atoi(f[4]); err != nil {
			return nil, fmt.Errorf("ortho pairs:%d: o_alen: %w", lineNo, err)
		}
		out = append(out, p)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
