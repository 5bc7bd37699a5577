package block

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/i2bc/synteruptor/internal/config"
	"github.com/i2bc/synteruptor/internal/model"
)

func ortho(oid, order1, order2, cds1, cds2 int) model.OrthoAll {
	return model.OrthoAll{
		OrthoPair: model.OrthoPair{Oid: oid, PnumOrder1: order1, PnumOrder2: order2},
		Sp1:       "A", Sp2: "B",
		PnumCDS1: cds1, PnumCDS2: cds2,
	}
}

// Perfectly colinear chain: one block spanning all 5 orthos.
func TestBuild_SingleColinearChain(t *testing.T) {
	var orthos []model.OrthoAll
	for i := 1; i <= 5; i++ {
		orthos = append(orthos, ortho(i, i, i, i, i))
	}

	res := Build(orthos, config.Block{Tolerance: 2})
	r := res[SpeciesPair{"A", "B"}]

	assert.Len(t, r.Blocks, 1)
	assert.Equal(t, 5, r.Blocks[0].BlockSize)
	assert.EqualValues(t, model.DirForward, r.Blocks[0].Direction)
	assert.Empty(t, r.NoBlock)
}

// S2-style interior insertion: genome A has an extra untracked CDS
// between CDS 3 and 4, widening the CDS gap past what zero tolerance
// allows; the chain splits into two blocks (size 3, size 2).
func TestBuild_GapSplitsChainAtZeroTolerance(t *testing.T) {
	orthos := []model.OrthoAll{
		ortho(1, 1, 1, 1, 1),
		ortho(2, 2, 2, 2, 2),
		ortho(3, 3, 3, 3, 3),
		ortho(4, 4, 4, 5, 4), // genome A pnum_cds jumps 3->5: one inserted CDS
		ortho(5, 5, 5, 6, 5),
	}

	res := Build(orthos, config.Block{Tolerance: 0})
	r := res[SpeciesPair{"A", "B"}]

	assert.Len(t, r.Blocks, 2)
	sizes := []int{r.Blocks[0].BlockSize, r.Blocks[1].BlockSize}
	assert.ElementsMatch(t, []int{3, 2}, sizes)
}

// S3-style inversion: CDS 3-6 in genome B run in reverse order relative
// to genome A, so the middle links are direction=-1.
func TestBuild_InversionProducesReverseDirectionBlock(t *testing.T) {
	orthos := []model.OrthoAll{
		ortho(1, 1, 1, 1, 1),
		ortho(2, 2, 2, 2, 2),
		ortho(3, 3, 3, 3, 6),
		ortho(4, 4, 4, 4, 5),
		ortho(5, 5, 5, 5, 4),
		ortho(6, 6, 6, 6, 3),
		ortho(7, 7, 7, 7, 7),
		ortho(8, 8, 8, 8, 8),
	}

	res := Build(orthos, config.Block{Tolerance: 2})
	r := res[SpeciesPair{"A", "B"}]

	var reversed []model.Block
	for _, b := range r.Blocks {
		if b.Direction == model.DirReverse {
			reversed = append(reversed, b)
		}
	}
	assert.NotEmpty(t, reversed)
}

func TestBuild_OrphanOrthoMarkedNoBlock(t *testing.T) {
	orthos := []model.OrthoAll{
		ortho(1, 1, 1, 1, 1),
		ortho(2, 2, 2, 100, 100), // far from everything, no valid link
	}
	res := Build(orthos, config.Block{Tolerance: 2})
	r := res[SpeciesPair{"A", "B"}]
	assert.True(t, r.NoBlock[1])
	assert.True(t, r.NoBlock[2])
}
