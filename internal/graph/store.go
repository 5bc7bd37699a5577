package graph

import (
	"github.com/i2bc/synteruptor/internal/model"
	"github.com/i2bc/synteruptor/internal/store"
)

// LoadBreakAll reads the breaks_all projection written by the Break
// Finder and Ranker (spec.md §4.5/§4.7).
func LoadBreakAll(s *store.Store) ([]model.BreakAll, error) {
	var rows []model.BreakAll
	err := s.DB.Select(&rows, `
		SELECT breakid, left_block, right_block, direction, break_size1, break_size2,
		       inblocks1, inblocks2, opposite, break_sum,
		       sp1, sp2, gpart1, gpart2, left1, right1, left2, right2
		FROM breaks_all`)
	return rows, err
}

// Save replaces breaks_graph's contents and patches cycle/graphid onto
// each annotated break's breaks_ranking row.
func Save(s *store.Store, annotations map[int]Annotation, edges []model.GraphEdge) error {
	if err := s.DropTables("breaks_graph"); err != nil {
		return err
	}

	tx, err := s.DB.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, e := range edges {
		if _, err := tx.NamedExec(
			`INSERT INTO breaks_graph(graphid, from_name, to_name) VALUES (:graphid, :from_name, :to_name)`, e); err != nil {
			return err
		}
	}
	for breakID, a := range annotations {
		if _, err := tx.Exec(
			`UPDATE breaks_ranking SET cycle = ?, graphid = ? WHERE breakid = ?`, a.Cycle, a.GraphID, breakID); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	return s.RefreshProjections()
}
