package breakfinder

import (
	"crypto/sha1"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/i2bc/synteruptor/internal/config"
	"github.com/i2bc/synteruptor/internal/model"
)

func blk(id, order1, order2, cdsStart1, cdsEnd1, cdsStart2, cdsEnd2 int, startPid1, endPid1, startPid2, endPid2 string) model.BlockAll {
	return model.BlockAll{
		Block: model.Block{
			BlockID: id, Sp1: "A", Sp2: "B",
			Direction: model.DirForward, BlockOrder1: order1, BlockOrder2: order2,
		},
		Sp1: "A", Sp2: "B", GPart1: "c1", GPart2: "c1",
		StartPid1: startPid1, EndPid1: endPid1, StartPid2: startPid2, EndPid2: endPid2,
		PnumCDSStart1: cdsStart1, PnumCDSEnd1: cdsEnd1,
		PnumCDSStart2: cdsStart2, PnumCDSEnd2: cdsEnd2,
	}
}

// S2 — single interior insertion: 2 blocks (genome1 CDS 1-3 and 5-6,
// genome2 CDS 1-3 and 4-5), 1 break with break_size2=1 (genome1 side
// has one extra CDS), break_size1=0.
func TestBuild_SingleInteriorInsertion(t *testing.T) {
	blocks := []model.BlockAll{
		blk(1, 1, 1, 1, 3, 1, 3, "A_001", "A_003", "B_001", "B_003"),
		blk(2, 2, 2, 5, 6, 4, 5, "A_005", "A_006", "B_004", "B_005"),
	}

	breaks, dropped := Build(blocks, config.BreakFinder{MaxIncludedBlocks: 0})
	assert.Len(t, breaks, 2) // direct + its opposite, from the same data swapped
	assert.Equal(t, 0, dropped)

	b := breaks[0]
	assert.Equal(t, 1, b.BreakSize2) // |5-3|-1 = 1 extra CDS on genome1 side
	assert.Equal(t, 0, b.BreakSize1) // |4-3|-1 = 0 on genome2 side
	assert.NotNil(t, b.Opposite)

	expectedSum := sha1sum("A_003", "A_005", "B_003", "B_004")
	assert.Equal(t, expectedSum, b.BreakSum)
}

func sha1sum(parts ...string) string {
	sum := sha1.Sum([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])
}
