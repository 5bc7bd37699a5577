// Package loader implements the Catalog Loader (spec.md §4.3): the first
// stage to touch the persisted store. It writes genes/genomes/genome_parts,
// merges paralog annotations onto genes, ingests the ortholog pairs
// emitted by the Ortholog Builder, and computes the per-species-pair
// pnum_order1/pnum_order2 ranking the Block Finder consumes.
package loader

import (
	"sort"

	"github.com/i2bc/synteruptor/internal/model"
	"github.com/i2bc/synteruptor/internal/paralog"
	"github.com/i2bc/synteruptor/internal/store"
)

// MergeParalogs appends paralog counts/strings onto genes (spec.md §4.3).
func MergeParalogs(genes []model.Gene, entries []paralog.Entry) []model.Gene {
	byPid := map[string]paralog.Entry{}
	for _, e := range entries {
		byPid[e.Pid] = e
	}
	out := make([]model.Gene, len(genes))
	for i, g := range genes {
		if e, ok := byPid[g.Pid]; ok {
			g.ParalogsN = e.Count
			g.Paralogs = e.Desc
		}
		out[i] = g
	}
	return out
}

// ComputeOrders assigns pnum_order1/pnum_order2 to every ortho pair:
// 1-based ranks among ortho pairs sharing the same species pair, taken
// along genome 1 (by pid1's pnum_CDS) and genome 2 (by pid2's pnum_CDS)
// respectively (spec.md §3 OrthoPair invariant).
func ComputeOrders(orthos []model.OrthoPair, genes map[string]model.Gene) []model.OrthoPair {
	type spPair struct{ sp1, sp2 model.SpeciesID }
	byPair := map[spPair][]int{} // species pair -> indices into orthos
	for i, o := range orthos {
		g1, g2 := genes[o.Pid1], genes[o.Pid2]
		key := spPair{g1.Sp, g2.Sp}
		byPair[key] = append(byPair[key], i)
	}

	out := make([]model.OrthoPair, len(orthos))
	copy(out, orthos)

	for _, idxs := range byPair {
		order1 := append([]int(nil), idxs...)
		sort.Slice(order1, func(a, b int) bool {
			return genes[orthos[order1[a]].Pid1].PnumCDS < genes[orthos[order1[b]].Pid1].PnumCDS
		})
		for rank, idx := range order1 {
			out[idx].PnumOrder1 = rank + 1
		}

		order2 := append([]int(nil), idxs...)
		sort.Slice(order2, func(a, b int) bool {
			return genes[orthos[order2[a]].Pid2].PnumCDS < genes[orthos[order2[b]].Pid2].PnumCDS
		})
		for rank, idx := range order2 {
			out[idx].PnumOrder2 = rank + 1
		}
	}
	return out
}

// Save writes genomes, genome_parts, genes, and orthos to the store,
// replacing any prior contents (spec.md §7: stage re-entry recreates the
// tables it owns).
func Save(s *store.Store, genomes []model.Genome, parts []model.GenomePart, genes []model.Gene, orthos []model.OrthoPair) error {
	if err := s.DropTables("orthos", "genes", "genome_parts", "genomes"); err != nil {
		return err
	}

	tx, err := s.DB.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, gm := range genomes {
		if _, err := tx.NamedExec(
			`INSERT INTO genomes(sp, name, gc, max_pnum_display, complete)
			 VALUES (:sp, :name, :gc, :max_pnum_display, :complete)`, gm); err != nil {
			return err
		}
	}
	for _, p := range parts {
		if _, err := tx.NamedExec(
			`INSERT INTO genome_parts(sp, gpart, min_display, max_display)
			 VALUES (:sp, :gpart, :min_display, :max_display)`, p); err != nil {
			return err
		}
	}
	for _, g := range genes {
		if _, err := tx.NamedExec(
			`INSERT INTO genes(pid, sp, gpart, pnum_all, pnum_cds, pnum_display, loc_start, loc_end,
				strand, feat, product, gc, delta_gc, length, paralogs_n, paralogs)
			 VALUES (:pid, :sp, :gpart, :pnum_all, :pnum_cds, :pnum_display, :loc_start, :loc_end,
				:strand, :feat, :product, :gc, :delta_gc, :length, :paralogs_n, :paralogs)`, g); err != nil {
			return err
		}
	}
	for _, o := range orthos {
		if _, err := tx.NamedExec(
			`INSERT INTO orthos(oid, pid1, pid2, o_ident, o_alen, pnum_order1, pnum_order2, noblock)
			 VALUES (:oid, :pid1, :pid2, :o_ident, :o_alen, :pnum_order1, :pnum_order2, :noblock)`, o); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	return s.RefreshProjections()
}
