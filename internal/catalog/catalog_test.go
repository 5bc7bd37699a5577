package catalog

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i2bc/synteruptor/internal/model"
)

func TestParseGenes_ParsesAllColumnsAndInitializesPnumDisplay(t *testing.T) {
	tsv := "sp\tgpart\tpid\tpnum_CDS\tpnum_all\tfeat\tloc_start\tloc_end\tstrand\tlength\tsequence\tproduct\tGC\tdelta_GC\n" +
		"spA\tchr\ta1\t1\t1\tCDS\t10\t100\t1\t90\tATG...\thypothetical protein\t0.45\t0.02\n"

	genes, err := ParseGenes(strings.NewReader(tsv))
	require.NoError(t, err)
	require.Len(t, genes, 1)

	g := genes[0]
	assert.Equal(t, model.SpeciesID("spA"), g.Sp)
	assert.Equal(t, "chr", g.GPart)
	assert.Equal(t, "a1", g.Pid)
	assert.Equal(t, 1, g.PnumCDS)
	assert.Equal(t, 1, g.PnumAll)
	assert.Equal(t, 1, g.PnumDisplay, "pnum_display must start out equal to pnum_all")
	assert.Equal(t, 10, g.LocStart)
	assert.Equal(t, 100, g.LocEnd)
	assert.Equal(t, model.Strand(1), g.Strand)
	assert.Equal(t, 90, g.Length)
	assert.Equal(t, "hypothetical protein", g.Product)
	assert.InDelta(t, 0.45, g.GC, 1e-9)
	assert.InDelta(t, 0.02, g.DeltaGC, 1e-9)
}

func TestParseGenes_RejectsLocStartAfterLocEnd(t *testing.T) {
	tsv := "sp\tgpart\tpid\tpnum_CDS\tpnum_all\tfeat\tloc_start\tloc_end\tstrand\tlength\tproduct\tGC\tdelta_GC\n" +
		"spA\tchr\ta1\t1\t1\tCDS\t100\t10\t1\t90\thypothetical protein\t0.45\t0.02\n"

	_, err := ParseGenes(strings.NewReader(tsv))
	assert.Error(t, err)
}

func TestParseGenomes_AppendsStrainToSpeciesName(t *testing.T) {
	tsv := "abbr\tspecies\tstrain\ttaxonomy\tGC\n" +
		"spA\tEscherichia coli\tK-12\tBacteria\t0.50\n"

	genomes, err := ParseGenomes(strings.NewReader(tsv))
	require.NoError(t, err)
	require.Len(t, genomes, 1)
	assert.Equal(t, "Escherichia coli K-12", genomes[0].Name)
	assert.InDelta(t, 0.50, genomes[0].GC, 1e-9)
}

func TestDeriveParts_TracksMinMaxDisplayPerGPart(t *testing.T) {
	genes := []model.Gene{
		{Sp: "spA", GPart: "chr", PnumDisplay: 3},
		{Sp: "spA", GPart: "chr", PnumDisplay: 1},
		{Sp: "spA", GPart: "plasmid", PnumDisplay: 5},
	}

	parts := DeriveParts(genes)
	require.Len(t, parts, 2)
	assert.Equal(t, model.GenomePart{Sp: "spA", GPart: "chr", MinDisplay: 1, MaxDisplay: 3}, parts[0])
	assert.Equal(t, model.GenomePart{Sp: "spA", GPart: "plasmid", MinDisplay: 5, MaxDisplay: 5}, parts[1])
}

func TestDeriveGenomeComplete_SingleGPartIsComplete(t *testing.T) {
	genomes := []model.Genome{{Sp: "spA"}, {Sp: "spB"}}
	parts := []model.GenomePart{
		{Sp: "spA", GPart: "chr"},
		{Sp: "spB", GPart: "chr"},
		{Sp: "spB", GPart: "plasmid"},
	}

	out := DeriveGenomeComplete(genomes, parts)
	assert.True(t, out[0].Complete)
	assert.False(t, out[1].Complete)
}

func TestDeriveGenomesFromGenes_SynthesizesOneGenomePerSpeciesInFirstSeenOrder(t *testing.T) {
	genes := []model.Gene{
		{Sp: "spB", Pid: "b1"},
		{Sp: "spA", Pid: "a1"},
		{Sp: "spB", Pid: "b2"},
	}

	genomes := DeriveGenomesFromGenes(genes)
	require.Len(t, genomes, 2)
	assert.Equal(t, model.SpeciesID("spB"), genomes[0].Sp)
	assert.Equal(t, model.SpeciesID("spA"), genomes[1].Sp)
}
