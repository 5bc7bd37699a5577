package rank

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/i2bc/synteruptor/internal/config"
	"github.com/i2bc/synteruptor/internal/model"
)

func TestBuild_ScoresContentAndAppliesRealSizeSwap(t *testing.T) {
	genes := map[string]model.Gene{
		"a1": {Pid: "a1", Feat: "CDS", Product: "transposase", Length: 300, DeltaGC: 1},
		"a2": {Pid: "a2", Feat: "CDS", Product: "hypothetical protein", Length: 300, DeltaGC: 2},
		"b1": {Pid: "b1", Feat: "tRNA", Product: "tRNA-Leu"},
	}
	breakGenes := []model.BreakGene{
		{BreakID: 1, Pid: "a1", Side: 1, Ortho: ""},
		{BreakID: 1, Pid: "a2", Side: 1, Ortho: "x"}, // has ortholog, not real_size
		{BreakID: 1, Pid: "b1", Side: 2, Ortho: ""},
	}
	breaksAll := []model.BreakAll{{Break: model.Break{BreakID: 1}}}

	out := Build(breaksAll, breakGenes, genes, config.Default().Rank)
	assert.Len(t, out, 1)
	r := out[0]

	// side1 has 1 real_size (a1) and 1 mobile hit; side2 has 0 real_size, 1 tRNA.
	// real_size1 <- side2's real_size (0), real_size2 <- side1's real_size (1).
	assert.Equal(t, 0, r.RealSize1)
	assert.Equal(t, 1, r.RealSize2)
	assert.Contains(t, r.Content1, "mobile")
	assert.Contains(t, r.Content2, "tRNA")
	assert.Equal(t, 1, r.TRNABoth) // only side2 has a tRNA
}

func TestPrune_DropsBreakWithNoRealSizeOnEitherSide(t *testing.T) {
	genes := map[string]model.Gene{
		"a1": {Pid: "a1", Feat: "CDS", Length: 300},
		"b1": {Pid: "b1", Feat: "CDS", Length: 300},
	}
	breakGenes := []model.BreakGene{
		{BreakID: 1, Pid: "a1", Side: 1, Ortho: "b1"},
		{BreakID: 1, Pid: "b1", Side: 2, Ortho: "a1"},
	}
	breaksAll := []model.BreakAll{{Break: model.Break{BreakID: 1, BreakSize1: 1, BreakSize2: 1}}}

	cfg := config.Default().Rank
	cfg.Clean = true

	rankings := Build(breaksAll, breakGenes, genes, cfg)
	kept, dropped := Prune(rankings, breaksAll, breakGenes, genes, cfg)

	assert.Empty(t, kept)
	assert.Equal(t, []int{1}, dropped)
}

func TestPrune_NoOpWhenCleanDisabled(t *testing.T) {
	rankings := []model.BreakRanking{{BreakID: 1}}
	kept, dropped := Prune(rankings, nil, nil, nil, config.Default().Rank)
	assert.Equal(t, rankings, kept)
	assert.Empty(t, dropped)
}
