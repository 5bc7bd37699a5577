// Package rank implements the Ranker (spec.md §4.7): it scores the gene
// content on each side of a break (mobile elements, tRNAs, paralogs,
// GC deviation, real non-ortholog size) and optionally prunes
// low-quality breaks.
package rank

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/i2bc/synteruptor/internal/config"
	"github.com/i2bc/synteruptor/internal/model"
)

// contentOrder is the fixed category order for the content1/content2
// summary string (spec.md §4.7).
var contentOrder = []string{"tRNA", "SM", "regulatory", "resistance", "transport", "mobile", "phage", "CRISPR"}

// productPatterns implements the product-regex content classifier
// (spec.md §6.7), case-insensitive throughout.
var productPatterns = map[string]*regexp.Regexp{
	"mobile":     regexp.MustCompile(`(?i)\b(insertion|mobile element|integrase|excisionase|plasmid|dna ligase|transposase|transfer protein|spd[abcd])\b`),
	"phage":      regexp.MustCompile(`(?i)(pro-?)?phage`),
	"CRISPR":     regexp.MustCompile(`(?i)crispr(-\S*)?`),
	"regulatory": regexp.MustCompile(`(?i)(regulat|repress)(or|ory|ion)`),
	"transport":  regexp.MustCompile(`(?i)transport(er|ing)?|export|permease|efflux`),
	"resistance": regexp.MustCompile(`(?i)resistance`),
	"SM":         regexp.MustCompile(`(?i)pks|polyketide|beta[- ]?lactamase|penicillin|antibiotic|acyl[- ]?carrier|.+[cd]in\b|.+phenazine|chitin(ase)?`),
}

// sideScore is the per-side tally spec.md §4.7 describes before the
// real_size1/real_size2 cross-indexing.
type sideScore struct {
	Mobile, Phage, CRISPR, Regulatory, Transport, Resistance, SM int
	TRNA, TRNAExt                                                int
	Paralogs                                                     int
	RealSize                                                     int
	DeltaGC                                                      float64
	RawSize                                                      int
}

func (s sideScore) counts() map[string]int {
	return map[string]int{
		"tRNA": s.TRNA, "SM": s.SM, "regulatory": s.Regulatory, "resistance": s.Resistance,
		"transport": s.Transport, "mobile": s.Mobile, "phage": s.Phage, "CRISPR": s.CRISPR,
	}
}

// Build scores every break in breaksAll and returns one BreakRanking per
// break (spec.md §4.7).
func Build(breaksAll []model.BreakAll, breakGenes []model.BreakGene, genes map[string]model.Gene, cfg config.Rank) []model.BreakRanking {
	bySide := map[int]map[int][]model.BreakGene{}
	for _, bg := range breakGenes {
		if bySide[bg.BreakID] == nil {
			bySide[bg.BreakID] = map[int][]model.BreakGene{}
		}
		bySide[bg.BreakID][bg.Side] = append(bySide[bg.BreakID][bg.Side], bg)
	}
	for _, sides := range bySide {
		for side := range sides {
			sort.Slice(sides[side], func(i, j int) bool {
				return genes[sides[side][i].Pid].PnumAll < genes[sides[side][j].Pid].PnumAll
			})
		}
	}

	out := make([]model.BreakRanking, 0, len(breaksAll))
	for _, b := range breaksAll {
		s1 := scoreSide(bySide[b.BreakID][1], genes, cfg)
		s2 := scoreSide(bySide[b.BreakID][2], genes, cfg)

		trnaBoth := tallyBoth(s1.TRNA > 0, s2.TRNA > 0)
		trnaBothExt := tallyBoth(s1.TRNAExt > 0, s2.TRNAExt > 0)

		out = append(out, model.BreakRanking{
			BreakID: b.BreakID,
			// Explicit cross-indexing: real_size1 comes from side2's
			// score and vice versa (spec.md §4.7 "Note the swap").
			RealSize1: s2.RealSize,
			RealSize2: s1.RealSize,
			TRNABoth:  trnaBoth,
			TRNABothE: trnaBothExt,
			Content1:  formatContent(s1),
			Content2:  formatContent(s2),
			Paralogs1: s1.Paralogs,
			Paralogs2: s2.Paralogs,
			DeltaGC1:  s1.DeltaGC,
			DeltaGC2:  s2.DeltaGC,
		})
	}
	return out
}

func scoreSide(bgs []model.BreakGene, genes map[string]model.Gene, cfg config.Rank) sideScore {
	var s sideScore
	s.RawSize = len(bgs)

	var gcValues, gcWeights []float64
	for i, bg := range bgs {
		g, ok := genes[bg.Pid]
		if !ok {
			continue
		}
		for cat, re := range productPatterns {
			if re.MatchString(g.Product) {
				addCategory(&s, cat)
			}
		}
		if g.Feat == "tRNA" {
			s.TRNA++
			if isEdgePosition(i, len(bgs), cfg) {
				s.TRNAExt++
			}
		}
		if !g.IsCDS() {
			continue
		}
		if g.ParalogsN > 0 {
			s.Paralogs++
		}
		if bg.Ortho == "" {
			s.RealSize++
		}
		gcValues = append(gcValues, g.DeltaGC)
		gcWeights = append(gcWeights, float64(g.Length))
	}
	if len(gcValues) > 0 {
		s.DeltaGC = stat.Mean(gcValues, gcWeights)
	}
	return s
}

func addCategory(s *sideScore, cat string) {
	switch cat {
	case "mobile":
		s.Mobile++
	case "phage":
		s.Phage++
	case "CRISPR":
		s.CRISPR++
	case "regulatory":
		s.Regulatory++
	case "transport":
		s.Transport++
	case "resistance":
		s.Resistance++
	case "SM":
		s.SM++
	}
}

// isEdgePosition reports whether position i (0-based) of a side with n
// genes counts as "at the edge" for tRNA_ext (spec.md §4.7): position 0
// or n-1 always qualifies; on sides larger than cfg.TRNAExtMinSideSize,
// the first/last cfg.TRNAExtWindow positions also qualify.
func isEdgePosition(i, n int, cfg config.Rank) bool {
	if i == 0 || i == n-1 {
		return true
	}
	if n > cfg.TRNAExtMinSideSize && (i < cfg.TRNAExtWindow || i >= n-cfg.TRNAExtWindow) {
		return true
	}
	return false
}

func tallyBoth(a, b bool) int {
	switch {
	case a && b:
		return 2
	case a || b:
		return 1
	default:
		return 0
	}
}

// formatContent renders the fixed-order, non-zero-only category count
// summary (spec.md §4.7).
func formatContent(s sideScore) string {
	counts := s.counts()
	var parts []string
	for _, cat := range contentOrder {
		if n := counts[cat]; n > 0 {
			parts = append(parts, fmt.Sprintf("%s(%d)", cat, n))
		}
	}
	return strings.Join(parts, ", ")
}

// Prune implements the "clean" bad-break pruning rule (spec.md §4.7):
// applied only when cfg.Clean is set, it reports which breaks should be
// deleted entirely because their content looks uninformative rather
// than biologically real. The caller is responsible for deleting those
// breaks (cascading to breaks_genes/breaks_ranking) and rebuilding
// breaks_all.
func Prune(rankings []model.BreakRanking, breaksAll []model.BreakAll, breakGenes []model.BreakGene, genes map[string]model.Gene, cfg config.Rank) (kept []model.BreakRanking, dropped []int) {
	if !cfg.Clean {
		return rankings, nil
	}

	bySide := map[int]map[int][]model.BreakGene{}
	for _, bg := range breakGenes {
		if bySide[bg.BreakID] == nil {
			bySide[bg.BreakID] = map[int][]model.BreakGene{}
		}
		bySide[bg.BreakID][bg.Side] = append(bySide[bg.BreakID][bg.Side], bg)
	}
	breakSizeByID := map[int]model.BreakAll{}
	for _, b := range breaksAll {
		breakSizeByID[b.BreakID] = b
	}

	for _, r := range rankings {
		b := breakSizeByID[r.BreakID]
		s1 := scoreSide(bySide[r.BreakID][1], genes, cfg)
		s2 := scoreSide(bySide[r.BreakID][2], genes, cfg)

		if isBadBreak(r, b, s1, s2) {
			dropped = append(dropped, r.BreakID)
			continue
		}
		kept = append(kept, r)
	}
	return kept, dropped
}

func isBadBreak(r model.BreakRanking, b model.BreakAll, s1, s2 sideScore) bool {
	if r.RealSize1 == 0 && r.RealSize2 == 0 {
		return true
	}

	mostlyOrtho := func(s sideScore) bool {
		return s.RawSize > 0 && float64(s.RealSize)/float64(s.RawSize) <= 0.5 && s.RealSize <= 2
	}
	if mostlyOrtho(s1) && mostlyOrtho(s2) {
		return true
	}

	sparse := func(realSize, breakSize int) bool {
		return breakSize > 4 && float64(realSize)/float64(breakSize) <= 0.25
	}
	if sparse(s1.RealSize, b.BreakSize1) || sparse(s2.RealSize, b.BreakSize2) {
		return true
	}
	return false
}
