package paralog

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/i2bc/synteruptor/internal/config"
	"github.com/i2bc/synteruptor/internal/model"
)

func mkGene(pid string, sp model.SpeciesID) model.Gene {
	return model.Gene{Pid: pid, Sp: sp, Feat: "CDS", Length: 300}
}

func TestBuild_SameSpeciesOnly(t *testing.T) {
	genes := map[string]model.Gene{
		"a1": mkGene("a1", "A"),
		"a2": mkGene("a2", "A"),
		"b1": mkGene("b1", "B"),
	}
	hitsIn := []model.Hit{
		{Query: "a1", Subject: "a2", PctIdent: 55, AlnLen: 100, EValue: 1e-30},
		{Query: "a1", Subject: "b1", PctIdent: 99, AlnLen: 100, EValue: 1e-60}, // cross-species, dropped
	}
	entries, err := Build(hitsIn, genes, config.Default().Paralog)
	assert.NoError(t, err)
	assert.Len(t, entries, 1)
	assert.Equal(t, "a1", entries[0].Pid)
	assert.Equal(t, 1, entries[0].Count)
	assert.Contains(t, entries[0].Desc, "a2 (55%)")
}

func TestBuild_BelowIdentityDropped(t *testing.T) {
	genes := map[string]model.Gene{
		"a1": mkGene("a1", "A"),
		"a2": mkGene("a2", "A"),
	}
	hitsIn := []model.Hit{
		{Query: "a1", Subject: "a2", PctIdent: 10, AlnLen: 100, EValue: 1e-30},
	}
	entries, err := Build(hitsIn, genes, config.Default().Paralog)
	assert.NoError(t, err)
	assert.Len(t, entries, 0)
}

func TestBuild_UnknownPidEscalatesAfterTenWarnings(t *testing.T) {
	genes := map[string]model.Gene{"a1": mkGene("a1", "A")}
	var hitsIn []model.Hit
	for i := 0; i < 11; i++ {
		hitsIn = append(hitsIn, model.Hit{Query: "a1", Subject: "ghost", PctIdent: 90, AlnLen: 100, EValue: 1e-30})
	}
	_, err := Build(hitsIn, genes, config.Default().Paralog)
	assert.Error(t, err)
}
