// Package hits parses the all-vs-all protein similarity search output
// (spec.md §6.1): tab-separated, 12 columns, query/subject/identity/
// alignment-length/.../e-value/bit-score, with '#'-prefixed comment lines
// tolerated. This mirrors the teacher's line-oriented, manually-split TSV
// parsing idiom (bio/genbank/genbank.go) rather than encoding/csv, since
// the hits format is tab delimited without quoting.
package hits

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/i2bc/synteruptor/internal/model"
)

// Parse reads every hit record from r, skipping blank lines and '#'
// comments. A malformed row is a Contract-category error (spec.md §7):
// the caller should treat it as fatal.
func Parse(r io.Reader) ([]model.Hit, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1<<20)
	var out []model.Hit
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := sc.Text()
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		h, err := parseLine(line)
		if err != nil {
			return nil, fmt.Errorf("hits:%d: %w", lineNo, err)
		}
		out = append(out, h)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func parseLine(line string) (model.Hit, error) {
	f := strings.Split(line, "\t")
	if len(f) < 12 {
		return model.Hit{}, fmt.Errorf("expected 12 tab-separated columns, got %d", len(f))
	}
	var h model.Hit
	var err error
	h.Query = f[0]
	h.Subject = f[1]
	if h.PctIdent, err = strconv.ParseFloat(f[2], 64); err != nil {
		return h, fmt.Errorf("pct_identity: %w", err)
	}
	if h.AlnLen, err = strconv.Atoi(f[3]); err != nil {
		return h, fmt.Errorf("alignment_length: %w", err)
	}
	if h.Mismatches, err = strconv.Atoi(f[4]); err != nil {
		return h, fmt.Errorf("mismatches: %w", err)
	}
	if h.GapOpens, err = strconv.Atoi(f[5]); err != nil {
		return h, fmt.Errorf("gap_openings: %w", err)
	}
	if h.QStart, err = strconv.Atoi(f[6]); err != nil {
		return h, fmt.Errorf("qstart: %w", err)
	}
	if h.QEnd, err = strconv.Atoi(f[7]); err != nil {
		return h, fmt.Errorf("qend: %w", err)
	}
	if h.SStart, err = strconv.Atoi(f[8]); err != nil {
		return h, fmt.Errorf("sstart: %w", err)
	}
	if h.SEnd, err = strconv.Atoi(f[9]); err != nil {
		return h, fmt.Errorf("send: %w", err)
	}
	if h.EValue, err = strconv.ParseFloat(f[10], 64); err != nil {
		return h, fmt.Errorf("e_value: %w", err)
	}
	if h.BitScore, err = strconv.ParseFloat(f[11], 64); err != nil {
		return h, fmt.Errorf("bit_score: %w", err)
	}
	return h, nil
}
