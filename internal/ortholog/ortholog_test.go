package ortholog

import (
	"fmt"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/i2bc/synteruptor/internal/config"
	"github.com/i2bc/synteruptor/internal/model"
)

func gene(pid string, sp model.SpeciesID, pnum int) model.Gene {
	return model.Gene{
		Pid: pid, Sp: sp, GPart: "c1",
		PnumAll: pnum, PnumCDS: pnum, PnumDisplay: pnum,
		LocStart: pnum * 100, LocEnd: pnum*100 + 90,
		Strand: model.Forward, Feat: "CDS", Length: 300,
	}
}

func hit(q, s string, ident float64, evalue float64) model.Hit {
	return model.Hit{Query: q, Subject: s, PctIdent: ident, AlnLen: 100, EValue: evalue, BitScore: 100}
}

// S1 — minimal perfect colinearity: 5 reciprocal hits, 100% identity.
func TestBuild_PerfectColinearity(t *testing.T) {
	genes := map[string]model.Gene{}
	var hitsIn []model.Hit
	for i := 1; i <= 5; i++ {
		a := gene(sprintfPid("A", i), "A", i)
		b := gene(sprintfPid("B", i), "B", i)
		genes[a.Pid] = a
		genes[b.Pid] = b
		hitsIn = append(hitsIn, hit(a.Pid, b.Pid, 100, 1e-50))
		hitsIn = append(hitsIn, hit(b.Pid, a.Pid, 100, 1e-50))
	}

	pairs, err := Build(hitsIn, genes, config.Default().Ortholog)
	assert.NoError(t, err)
	assert.Len(t, pairs, 5)
	for i, p := range pairs {
		assert.Equal(t, i+1, p.Oid)
		assert.EqualValues(t, 100, p.OIdent)
		assert.Equal(t, sprintfPid("A", i+1), p.Pid1)
		assert.Equal(t, sprintfPid("B", i+1), p.Pid2)
	}
}

// S4 — BRH tie resolved by synteny: spA a2 ties between spB b2 and b2p;
// flanking pairs (a1,b1) and (a3,b3) are resolved first, then the
// synteny-rescue loop should pair (a2,b2) with o_ident=0, o_alen=0.
func TestBuild_SyntenyRescue(t *testing.T) {
	genes := map[string]model.Gene{}
	a1, a2, a3 := gene("a1", "A", 1), gene("a2", "A", 2), gene("a3", "A", 3)
	b1, b2, b3 := gene("b1", "B", 1), gene("b2", "B", 2), gene("b3", "B", 4)
	b2p := gene("b2p", "B", 10)
	for _, g := range []model.Gene{a1, a2, a3, b1, b2, b3, b2p} {
		genes[g.Pid] = g
	}

	hitsIn := []model.Hit{
		hit("a1", "b1", 100, 1e-50),
		hit("b1", "a1", 100, 1e-50),
		hit("a3", "b3", 100, 1e-50),
		hit("b3", "a3", 100, 1e-50),
		hit("a2", "b2", 90, 1e-40),
		hit("a2", "b2p", 90, 1e-40),
		hit("b2", "a2", 90, 1e-40),
		hit("b2p", "a2", 90, 1e-40),
	}

	pairs, err := Build(hitsIn, genes, config.Default().Ortholog)
	assert.NoError(t, err)

	byPid1 := map[string]model.OrthoPair{}
	for _, p := range pairs {
		byPid1[p.Pid1] = p
	}
	assert.Contains(t, byPid1, "a2")
	rescued := byPid1["a2"]
	assert.Equal(t, "b2", rescued.Pid2)
	assert.EqualValues(t, 0, rescued.OIdent)
	assert.EqualValues(t, 0, rescued.OAlen)

	assert.Equal(t, "b1", byPid1["a1"].Pid2)
	assert.Equal(t, "b3", byPid1["a3"].Pid2)
	assert.Len(t, pairs, 3)
}

func TestBuild_RejectsUnknownGeneReferences(t *testing.T) {
	genes := map[string]model.Gene{}
	a1 := gene("a1", "A", 1)
	genes[a1.Pid] = a1
	_, err := Build([]model.Hit{hit("a1", "ghost", 90, 1e-40)}, genes, config.Default().Ortholog)
	assert.Error(t, err)
}

func sprintfPid(prefix string, n int) string {
	return fmt.Sprintf("%s_%03d", prefix, n)
}

func TestFormatTSV(t *testing.T) {
	pairs := []model.OrthoPair{{Oid: 1, Pid1: "a", Pid2: "b", OIdent: 99.5, OAlen: 120}}
	out := FormatTSV(pairs)
	lines := splitLines(out)
	sort.Strings(lines)
	assert.Contains(t, out, "oid\tpid1\tpid2\to_ident\to_alen")
	assert.Contains(t, out, "1\ta\tb\t99.5\t120")
}

func splitLines(s string) []string {
	var out []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			out = append(out, s[start:i])
			start = i + 1
		}
	}
	return out
}
