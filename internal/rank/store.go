package rank

import (
	"github.com/i2bc/synteruptor/internal/model"
	"github.com/i2bc/synteruptor/internal/store"
)

// LoadBreakAll reads the breaks_all projection written by the Break
// Finder (spec.md §4.5/§4.7).
func LoadBreakAll(s *store.Store) ([]model.BreakAll, error) {
	var rows []model.BreakAll
	err := s.DB.Select(&rows, `
		SELECT breakid, left_block, right_block, direction, break_size1, break_size2,
		       inblocks1, inblocks2, opposite, break_sum,
		       sp1, sp2, gpart1, gpart2, left1, right1, left2, right2
		FROM breaks_all`)
	return rows, err
}

// LoadBreakGenes reads the breaks_genes rows written by the Break-Gene
// Extractor (spec.md §4.6/§4.7).
func LoadBreakGenes(s *store.Store) ([]model.BreakGene, error) {
	var rows []model.BreakGene
	err := s.DB.Select(&rows, `SELECT * FROM breaks_genes`)
	return rows, err
}

// LoadGenes reads every gene into a pid-keyed map.
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

// Save replaces breaks_ranking's contents, deletes any breaks Prune
// flagged as bad (cascading to breaks_genes and the row itself), and
// refreshes the breaks_all projection.
func Save(s *store.Store, rankings []model.BreakRanking, droppedBreakIDs []int) error {
	if len(droppedBreakIDs) > 0 {
		tx, err := s.DB.Beginx()
		if err != nil {
			return err
		}
		for _, id := range droppedBreakIDs {
			if _, err := tx.Exec(`DELETE FROM breaks WHERE breakid = ?`, id); err != nil {
				tx.Rollback()
				return err
			}
		}
		if err := tx.Commit(); err != nil {
			return err
		}
	}

	if err := s.DropTables("breaks_ranking"); err != nil {
		return err
	}
	tx, err := s.DB.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, r := range rankings {
		if _, err := tx.NamedExec(
			`INSERT INTO breaks_ranking(breakid, real_size1, real_size2, trna_both, trna_both_ext,
				content1, content2, paralogs1, paralogs2, delta_gc1, delta_gc2, cycle, graphid)
			 VALUES (:breakid, :real_size1, :real_size2, :trna_both, :trna_both_ext,
				:content1, :content2, :paralogs1, :paralogs2, :delta_gc1, :delta_gc2, :cycle, :graphid)`, r); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	return s.RefreshProjections()
}
