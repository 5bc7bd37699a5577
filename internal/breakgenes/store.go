package breakgenes

import (
	"github.com/i2bc/synteruptor/internal/model"
	"github.com/i2bc/synteruptor/internal/store"
)

// LoadBreakAll reads the breaks_all projection written by the Break
// Finder (spec.md §4.5/§4.6).
func LoadBreakAll(s *store.Store) ([]model.BreakAll, error) {
	var rows []model.BreakAll
	err := s.DB.Select(&rows, `
		SELECT breakid, left_block, right_block, direction,
		       break_size1, break_size2, inblocks1, inblocks2, opposite, break_sum,
		       sp1, sp2, gpart1, gpart2, left1, right1, left2, right2
		FROM breaks_all`)
	return rows, err
}

// LoadGenes reads every gene into a pid-keyed map, the shape every
// downstream in-memory stage expects.
func LoadGenes(s *store.Store) (map[string]model.Gene, error) {
	var rows []model.Gene
	if err := s.DB.Select(&rows, `SELECT * FROM genes`); err != nil {
		return nil, err
	}
	out := make(map[string]model.Gene, len(rows))
	for _, g := range rows {
		out[g.Pid] = g
	}
	return out, nil
}

// LoadOrthos reads the raw orthos table (spec.md §4.6 needs the
// unprojected pid1/pid2 pairs to cross-reference ortholog partners).
func LoadOrthos(s *store.Store) ([]model.OrthoPair, error) {
	var rows []model.OrthoPair
	err := s.DB.Select(&rows, `SELECT * FROM orthos`)
	return rows, err
}

// Save replaces the breaks_genes table's contents.
func Save(s *store.Store, rows []model.BreakGene) error {
	if err := s.DropTables("breaks_genes"); err != nil {
		return err
	}

	tx, err := s.DB.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, r := range rows {
		if _, err := tx.NamedExec(
			`INSERT INTO breaks_genes(breakid, pid, side, ortho, ortho_in)
			 VALUES (:breakid, :pid, :side, :ortho, :ortho_in)`, r); err != nil {
			return err
		}
	}
	return tx.Commit()
}
