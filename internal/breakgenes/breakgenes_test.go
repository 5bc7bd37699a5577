package breakgenes

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/i2bc/synteruptor/internal/model"
)

func gene(pid string, sp model.SpeciesID, gpart string, pnumAll int) model.Gene {
	return model.Gene{Pid: pid, Sp: sp, GPart: gpart, PnumAll: pnumAll, Feat: "CDS"}
}

func TestBuild_ExtractsSideGenesAndFlagsOrthoIn(t *testing.T) {
	genes := map[string]model.Gene{
		"a1": gene("a1", "A", "c1", 1),
		"a2": gene("a2", "A", "c1", 2), // inside break, side 1
		"a3": gene("a3", "A", "c1", 3),
		"b1": gene("b1", "B", "c1", 1),
		"b2": gene("b2", "B", "c1", 2), // inside break, side 2, ortholog of a2
		"b3": gene("b3", "B", "c1", 3),
	}
	orthos := []model.OrthoPair{
		{Pid1: "a1", Pid2: "b1"},
		{Pid1: "a2", Pid2: "b2"}, // misplaced: both sit inside their respective break sides
		{Pid1: "a3", Pid2: "b3"},
	}
	breaks := []model.BreakAll{
		{
			Break: model.Break{BreakID: 1},
			Sp1:   "A", Sp2: "B", GPart1: "c1", GPart2: "c1",
			Left1: "a1", Right1: "a3", Left2: "b1", Right2: "b3",
		},
	}

	out := Build(breaks, genes, orthos)

	byPid := map[string]model.BreakGene{}
	for _, bg := range out {
		byPid[bg.Pid] = bg
	}

	assert.Len(t, out, 2)
	assert.Equal(t, 1, byPid["a2"].Side)
	assert.Equal(t, "b2", byPid["a2"].Ortho)
	assert.True(t, byPid["a2"].OrthoIn)
	assert.Equal(t, 2, byPid["b2"].Side)
	assert.True(t, byPid["b2"].OrthoIn)
}

func TestBuild_NoOrthoPartnerLeavesOrthoEmpty(t *testing.T) {
	genes := map[string]model.Gene{
		"a1": gene("a1", "A", "c1", 1),
		"a2": gene("a2", "A", "c1", 2),
		"a3": gene("a3", "A", "c1", 3),
		"b1": gene("b1", "B", "c1", 1),
		"b3": gene("b3", "B", "c1", 3),
	}
	breaks := []model.BreakAll{
		{
			Break: model.Break{BreakID: 1},
			Sp1:   "A", Sp2: "B", GPart1: "c1", GPart2: "c1",
			Left1: "a1", Right1: "a3", Left2: "b1", Right2: "b3",
		},
	}

	out := Build(breaks, genes, nil)
	assert.Len(t, out, 1)
	assert.Equal(t, "a2", out[0].Pid)
	assert.Equal(t, "", out[0].Ortho)
	assert.False(t, out[0].OrthoIn)
}
