package hits

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_SkipsBlankLinesAndComments(t *testing.T) {
	input := "# query subject pident length mismatch gapopen qstart qend sstart send evalue bitscore\n" +
		"\n" +
		"a1\tb1\t90.5\t100\t2\t0\t1\t100\t1\t100\t1e-50\t200\n"

	out, err := Parse(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, out, 1)

	h := out[0]
	assert.Equal(t, "a1", h.Query)
	assert.Equal(t, "b1", h.Subject)
	assert.InDelta(t, 90.5, h.PctIdent, 1e-9)
	assert.Equal(t, 100, h.AlnLen)
	assert.Equal(t, 2, h.Mismatches)
	assert.InDelta(t, 1e-50, h.EValue, 1e-55)
	assert.InDelta(t, 200, h.BitScore, 1e-9)
}

func TestParse_ReportsLineNumberOnMalformedRow(t *testing.T) {
	input := "a1\tb1\tnot-a-number\n"

	_, err := Parse(strings.NewReader(input))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "hits:1")
}
