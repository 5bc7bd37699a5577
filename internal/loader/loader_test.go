package loader

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/i2bc/synteruptor/internal/model"
	"github.com/i2bc/synteruptor/internal/paralog"
)

func TestMergeParalogs(t *testing.T) {
	genes := []model.Gene{
		{Pid: "a1", Sp: "A"},
		{Pid: "a2", Sp: "A"},
	}
	entries := []paralog.Entry{{Pid: "a1", Count: 2, Desc: "a2 (55%), a3 (50%)"}}

	out := MergeParalogs(genes, entries)
	assert.Equal(t, 2, out[0].ParalogsN)
	assert.Equal(t, "a2 (55%), a3 (50%)", out[0].Paralogs)
	assert.Equal(t, 0, out[1].ParalogsN)
	assert.Equal(t, "", out[1].Paralogs)
}

func TestComputeOrders(t *testing.T) {
	genes := map[string]model.Gene{
		"a1": {Pid: "a1", Sp: "A", PnumCDS: 5},
		"a2": {Pid: "a2", Sp: "A", PnumCDS: 1},
		"b1": {Pid: "b1", Sp: "B", PnumCDS: 3},
		"b2": {Pid: "b2", Sp: "B", PnumCDS: 9},
	}
	orthos := []model.OrthoPair{
		{Oid: 1, Pid1: "a1", Pid2: "b1"},
		{Oid: 2, Pid1: "a2", Pid2: "b2"},
	}

	out := ComputeOrders(orthos, genes)

	byOid := map[int]model.OrthoPair{}
	for _, o := range out {
		byOid[o.Oid] = o
	}

	// a2 (pnum_CDS=1) ranks before a1 (pnum_CDS=5) along genome 1.
	assert.Equal(t, 2, byOid[1].PnumOrder1)
	assert.Equal(t, 1, byOid[2].PnumOrder1)

	// b1 (pnum_CDS=3) ranks before b2 (pnum_CDS=9) along genome 2.
	assert.Equal(t, 1, byOid[1].PnumOrder2)
	assert.Equal(t, 2, byOid[2].PnumOrder2)
}
