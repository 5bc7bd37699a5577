// Package paralog implements the Paralog Builder (spec.md §4.2): within-
// species hit reduction into a per-query list of paralogous genes.
package paralog

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/i2bc/synteruptor/internal/config"
	"github.com/i2bc/synteruptor/internal/model"
	"github.com/i2bc/synteruptor/internal/perr"
)

const stageName = "paralog"

// Entry is one query's paralog summary (spec.md §6.5).
type Entry struct {
	Pid   string
	Count int
	Desc  string // "subj1 (id%), subj2 (id%), ..."
}

// subjectHit records the best identity seen for one (query,subject) pair.
type subjectHit struct {
	subject  string
	identity float64
}

// Build filters same-species hits and reduces them to one paralog Entry
// per query gene that has at least one qualifying paralog.
//
// Up to 10 hits referencing a pid absent from the catalog are tolerated
// as DataQuality warnings before the condition is escalated to Contract
// (spec.md §7: "hit references pid not in catalog (accumulated up to 10
// warnings before upgrading to fatal when building paralogs)").
func Build(allHits []model.Hit, genes map[string]model.Gene, cfg config.Paralog) ([]Entry, error) {
	counter := perr.NewCounter(10)
	best := map[string]map[string]float64{} // query -> subject -> best identity

	for _, h := range allHits {
		qg, okQ := genes[h.Query]
		sg, okS := genes[h.Subject]
		if !okQ || !okS {
			missing := h.Query
			if okQ {
				missing = h.Subject
			}
			if fatal := counter.Add(fmt.Errorf("unknown pid %s", missing)); fatal {
				return nil, perr.Contractf(stageName, missing, "too many hits reference unknown pids (%d warnings)", counter.Count())
			}
			continue
		}
		if qg.Sp != sg.Sp {
			continue
		}
		if h.Query == h.Subject {
			continue
		}
		shorter := qg.Length
		if sg.Length < shorter {
			shorter = sg.Length
		}
		minLen := cfg.MinLengthFraction * float64(shorter) / 3.0
		if float64(h.AlnLen) < minLen {
			continue
		}
		if h.PctIdent < cfg.MinIdentity {
			continue
		}
		if h.EValue > cfg.MaxEValue {
			continue
		}
		if best[h.Query] == nil {
			best[h.Query] = map[string]float64{}
		}
		if id, ok := best[h.Query][h.Subject]; !ok || h.PctIdent > id {
			best[h.Query][h.Subject] = h.PctIdent
		}
	}

	var queries []string
	for q := range best {
		queries = append(queries, q)
	}
	sort.Strings(queries)

	entries := make([]Entry, 0, len(queries))
	for _, q := range queries {
		subs := best[q]
		var hits []subjectHit
		for s, id := range subs {
			hits = append(hits, subjectHit{s, id})
		}
		sort.Slice(hits, func(i, j int) bool {
			if hits[i].identity != hits[j].identity {
				return hits[i].identity > hits[j].identity
			}
			return hits[i].subject < hits[j].subject
		})
		parts := make([]string, 0, len(hits))
		for _, h := range hits {
			parts = append(parts, fmt.Sprintf("%s (%g%%)", h.subject, h.identity))
		}
		entries = append(entries, Entry{Pid: q, Count: len(hits), Desc: strings.Join(parts, ", ")})
	}
	return entries, nil
}

// FormatTSV renders entries as the intermediate paralog-pairs format
// (spec.md §6.5): pid<TAB>n<TAB>"subj1 (id%), subj2 (id%), ...".
func FormatTSV(entries []Entry) string {
	var b strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&b, "%s\t%d\t%q\n", e.Pid, e.Count, e.Desc)
	}
	return b.String()
}

// ParseTSV re-ingests the intermediate paralog-pairs file (spec.md
// §6.5): pid<TAB>n<TAB>"subj1 (id%), subj2 (id%), ...".
func ParseTSV(r io.Reader) ([]Entry, error) {
	sc := bufio.NewScanner(r)
	var out []Entry
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := sc.Text()
		if line == "" {
			continue
		}
		f := strings.SplitN(line, "\t", 3)
		if len(f) != 3 {
			return nil, fmt.Errorf("paralog pairs:%d: expected 3 columns, got %d", lineNo, len(f))
		}
		n, err := strconv.Atoi(f[1])
		if err != nil {
			return nil, fmt.Errorf("paralog pairs:%d: n: %w", lineNo, err)
		}
		desc, err := strconv.Unquote(f[2])
		if err != nil {
			desc = f[2]
		}
		out = append(out, Entry{Pid: f[0], Count: n, Desc: desc})
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
