package reorder

import (
	"github.com/i2bc/synteruptor/internal/model"
	"github.com/i2bc/synteruptor/internal/store"
)

// LoadGenes reads every gene in the store (spec.md §4.9 needs the full
// set to group by species and gpart).
func LoadGenes(s *store.Store) ([]model.Gene, error) {
	var rows []model.Gene
	err := s.DB.Select(&rows, `SELECT * FROM genes`)
	return rows, err
}

// LoadGenomes reads every genome row, needed to find candidate
// single-part reference genomes.
func LoadGenomes(s *store.Store) ([]model.Genome, error) {
	var rows []model.Genome
	err := s.DB.Select(&rows, `SELECT * FROM genomes`)
	return rows, err
}

// LoadOrthoAll reads the orthos_all projection, the species-resolved
// ortholog view the reference-picking and per-part scoring in this
// package need.
func LoadOrthoAll(s *store.Store) ([]model.OrthoAll, error) {
	var rows []model.OrthoAll
	err := s.DB.Select(&rows, `
		SELECT oid, pid1, pid2, o_ident, o_alen, pnum_order1, pnum_order2, noblock,
		       sp1, sp2, gpart1, gpart2, pnum_cds1, pnum_cds2, pnum_all1, pnum_all2
		FROM orthos_all`)
	return rows, err
}

// LoadGenomeParts reads every genome_parts row, used to find which
// genomes are fragmented (more than one part) in `-a` auto mode.
func LoadGenomeParts(s *store.Store) ([]model.GenomePart, error) {
	var rows []model.GenomePart
	err := s.DB.Select(&rows, `SELECT * FROM genome_parts`)
	return rows, err
}

// Save patches the renumbered pnum_display onto sp's genes, replaces
// its genome_parts rows, and regenerates blocks_all/breaks_all (spec.md
// §4.9's closing step).
func Save(s *store.Store, sp model.SpeciesID, genes []model.Gene, parts []model.GenomePart) error {
	tx, err := s.DB.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, g := range genes {
		if _, err := tx.Exec(`UPDATE genes SET pnum_display = ? WHERE pid = ?`, g.PnumDisplay, g.Pid); err != nil {
			return err
		}
	}
	if _, err := tx.Exec(`DELETE FROM genome_parts WHERE sp = ?`, sp); err != nil {
		return err
	}
	for _, p := range parts {
		if _, err := tx.NamedExec(
			`INSERT INTO genome_parts(sp, gpart, min_display, max_display)
			 VALUES (:sp, :gpart, :min_display, :max_display)`, p); err != nil {
			return err
		}
	}

	maxDisplay := 0
	for _, g := range genes {
		if g.PnumDisplay > maxDisplay {
			maxDisplay = g.PnumDisplay
		}
	}
	if maxDisplay > 0 {
		if _, err := tx.Exec(`UPDATE genomes SET max_pnum_display = ? WHERE sp = ?`, maxDisplay, sp); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	return s.RefreshProjections()
}
