// Package catalog parses the gene catalog (spec.md §6.2) and optional
// genome metadata (spec.md §6.3) inputs produced by the out-of-scope
// genome-file parser, and turns them into the in-memory Gene/Genome/
// GenomePart records the Catalog Loader (spec.md §4.3) writes to the
// store.
package catalog

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/i2bc/synteruptor/internal/model"
)

// header-aware TSV reading, in the style of rbs_calculator/csv_helper's
// directory-of-CSVs helpers generalized to a single header-keyed reader
// (no third-party TSV-with-header reader appears anywhere in the pack).
func readTSV(r io.Reader) (header []string, rows [][]string, err error) {
	cr := csv.NewReader(r)
	cr.Comma = '\t'
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	records, err := cr.ReadAll()
	if err != nil {
		return nil, nil, err
	}
	if len(records) == 0 {
		return nil, nil, fmt.Errorf("empty input")
	}
	return records[0], records[1:], nil
}

func colIndex(header []string, name string) (int, error) {
	for i, h := range header {
		if h == name {
			return i, nil
		}
	}
	return -1, fmt.Errorf("missing column %q", name)
}

// ParseGenes reads the gene catalog TSV (spec.md §6.2):
// sp, gpart, pid, pnum_CDS, pnum_all, feat, loc_start, loc_end, strand,
// length, sequence, product, GC, delta_GC.
//
// The raw sequence column is intentionally discarded: nothing downstream
// of the catalog loader needs CDS sequence, only its derived numeric
// attributes.
func ParseGenes(r io.Reader) ([]model.Gene, error) {
	header, rows, err := readTSV(r)
	if err != nil {
		return nil, fmt.Errorf("gene catalog: %w", err)
	}
	cols := map[string]int{}
	for _, name := range []string{"sp", "gpart", "pid", "pnum_CDS", "pnum_all",
		"feat", "loc_start", "loc_end", "strand", "length", "product", "GC", "delta_GC"} {
		idx, err := colIndex(header, name)
		if err != nil {
			return nil, fmt.Errorf("gene catalog: %w", err)
		}
		cols[name] = idx
	}

	genes := make([]model.Gene, 0, len(rows))
	for lineNo, row := range rows {
		g := model.Gene{
			Sp:      model.SpeciesID(row[cols["sp"]]),
			GPart:   row[cols["gpart"]],
			Pid:     row[cols["pid"]],
			Feat:    row[cols["feat"]],
			Product: row[cols["product"]],
		}
		var err error
		if g.PnumCDS, err = strconv.Atoi(row[cols["pnum_CDS"]]); err != nil {
			return nil, fmt.Errorf("gene catalog row %d: pnum_CDS: %w", lineNo+2, err)
		}
		if g.PnumAll, err = strconv.Atoi(row[cols["pnum_all"]]); err != nil {
			return nil, fmt.Errorf("gene catalog row %d: pnum_all: %w", lineNo+2, err)
		}
		g.PnumDisplay = g.PnumAll // spec.md §4.3: initialized to pnum_all
		if g.LocStart, err = strconv.Atoi(row[cols["loc_start"]]); err != nil {
			return nil, fmt.Errorf("gene catalog row %d: loc_start: %w", lineNo+2, err)
		}
		if g.LocEnd, err = strconv.Atoi(row[cols["loc_end"]]); err != nil {
			return nil, fmt.Errorf("gene catalog row %d: loc_end: %w", lineNo+2, err)
		}
		if g.LocStart > g.LocEnd {
			return nil, fmt.Errorf("gene catalog row %d: loc_start > loc_end for %s", lineNo+2, g.Pid)
		}
		var strand int
		if strand, err = strconv.Atoi(row[cols["strand"]]); err != nil {
			return nil, fmt.Errorf("gene catalog row %d: strand: %w", lineNo+2, err)
		}
		g.Strand = model.Strand(strand)
		if g.Length, err = strconv.Atoi(row[cols["length"]]); err != nil {
			return nil, fmt.Errorf("gene catalog row %d: length: %w", lineNo+2, err)
		}
		if g.GC, err = strconv.ParseFloat(row[cols["GC"]], 64); err != nil {
			return nil, fmt.Errorf("gene catalog row %d: GC: %w", lineNo+2, err)
		}
		if g.DeltaGC, err = strconv.ParseFloat(row[cols["delta_GC"]], 64); err != nil {
			return nil, fmt.Errorf("gene catalog row %d: delta_GC: %w", lineNo+2, err)
		}
		genes = append(genes, g)
	}
	return genes, nil
}

// ParseGenomes reads the optional genome metadata TSV (spec.md §6.3):
// abbr, species, strain, taxonomy, GC.
func ParseGenomes(r io.Reader) ([]model.Genome, error) {
	header, rows, err := readTSV(r)
	if err != nil {
		return nil, fmt.Errorf("genome metadata: %w", err)
	}
	abbrIdx, err := colIndex(header, "abbr")
	if err != nil {
		return nil, fmt.Errorf("genome metadata: %w", err)
	}
	speciesIdx, err := colIndex(header, "species")
	if err != nil {
		return nil, fmt.Errorf("genome metadata: %w", err)
	}
	strainIdx, _ := colIndex(header, "strain")
	gcIdx, err := colIndex(header, "GC")
	if err != nil {
		return nil, fmt.Errorf("genome metadata: %w", err)
	}

	genomes := make([]model.Genome, 0, len(rows))
	for lineNo, row := range rows {
		name := row[speciesIdx]
		if strainIdx >= 0 && strainIdx < len(row) && row[strainIdx] != "" {
			name = name + " " + row[strainIdx]
		}
		gc, err := strconv.ParseFloat(row[gcIdx], 64)
		if err != nil {
			return nil, fmt.Errorf("genome metadata row %d: GC: %w", lineNo+2, err)
		}
		genomes = append(genomes, model.Genome{
			Sp:   model.SpeciesID(row[abbrIdx]),
			Name: name,
			GC:   gc,
		})
	}
	return genomes, nil
}

// DeriveParts groups genes by (sp, gpart) and computes each part's
// min/max display rank (spec.md §3 GenomePart invariant: min <= max).
func DeriveParts(genes []model.Gene) []model.GenomePart {
	type key struct {
		sp    model.SpeciesID
		gpart string
	}
	minmax := map[key][2]int{}
	order := []key{}
	for _, g := range genes {
		k := key{g.Sp, g.GPart}
		mm, ok := minmax[k]
		if !ok {
			minmax[k] = [2]int{g.PnumDisplay, g.PnumDisplay}
			order = append(order, k)
			continue
		}
		if g.PnumDisplay < mm[0] {
			mm[0] = g.PnumDisplay
		}
		if g.PnumDisplay > mm[1] {
			mm[1] = g.PnumDisplay
		}
		minmax[k] = mm
	}
	parts := make([]model.GenomePart, 0, len(order))
	for _, k := range order {
		mm := minmax[k]
		parts = append(parts, model.GenomePart{Sp: k.sp, GPart: k.gpart, MinDisplay: mm[0], MaxDisplay: mm[1]})
	}
	return parts
}

// DeriveGenomeMax sets MaxPnumDisplay on each genome to the largest
// pnum_display among its genes (spec.md §3 Genome invariant).
func DeriveGenomeMax(genomes []model.Genome, genes []model.Gene) []model.Genome {
	max := map[model.SpeciesID]int{}
	for _, g := range genes {
		if g.PnumDisplay > max[g.Sp] {
			max[g.Sp] = g.PnumDisplay
		}
	}
	out := make([]model.Genome, len(genomes))
	for i, gm := range genomes {
		gm.MaxPnumDisplay = max[gm.Sp]
		out[i] = gm
	}
	return out
}

// DeriveGenomesFromGenes synthesizes a bare Genome row (sp as its own
// name, no GC) for every species seen in genes, for use when no genome
// metadata file (spec.md §6.3) is supplied.
func DeriveGenomesFromGenes(genes []model.Gene) []model.Genome {
	seen := map[model.SpeciesID]bool{}
	var order []model.SpeciesID
	for _, g := range genes {
		if !seen[g.Sp] {
			seen[g.Sp] = true
			order = append(order, g.Sp)
		}
	}
	out := make([]model.Genome, len(order))
	for i, sp := range order {
		out[i] = model.Genome{Sp: sp, Name: string(sp)}
	}
	return out
}

// DeriveGenomeComplete sets Complete on each genome: a genome assembled
// into a single contiguous part is "complete" and eligible as an
// Assembly Reorderer reference (spec.md §4.9).
func DeriveGenomeComplete(genomes []model.Genome, parts []model.GenomePart) []model.Genome {
	gpartCount := map[model.SpeciesID]int{}
	for _, p := range parts {
		gpartCount[p.Sp]++
	}
	out := make([]model.Genome, len(genomes))
	for i, gm := range genomes {
		gm.Complete = gpartCount[gm.Sp] == 1
		out[i] = gm
	}
	return out
}
