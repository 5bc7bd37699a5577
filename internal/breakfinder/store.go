package breakfinder

import (
	"github.com/i2bc/synteruptor/internal/model"
	"github.com/i2bc/synteruptor/internal/store"
)

// LoadBlockAll reads the blocks_all projection written by the Block
// Finder (spec.md §4.4/§4.5).
func LoadBlockAll(s *store.Store) ([]model.BlockAll, error) {
	var rows []model.BlockAll
	err := s.DB.Select(&rows, `
		SELECT blockid, oid_start, oid_end, direction, block_size, block_order1, block_order2,
		       sp1, sp2, gpart1, gpart2,
		       start_pid1, end_pid1, start_pid2, end_pid2,
		       pnum_cds_start1, pnum_cds_end1, pnum_cds_start2, pnum_cds_end2,
		       pnum_all_start1, pnum_all_end1, pnum_all_start2, pnum_all_end2
		FROM blocks_all`)
	return rows, err
}

// Save replaces the breaks table's contents and refreshes breaks_all.
func Save(s *store.Store, breaks []model.Break) error {
	if err := s.DropTables("breaks"); err != nil {
		return err
	}

	tx, err := s.DB.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// Opposite references another break in this same batch: insert
	// without the cross-reference first, then patch it in, so foreign
	// keys never point at a row that has not been written yet.
	for _, b := range breaks {
		row := b
		row.Opposite = nil
		if _, err := tx.NamedExec(
			`INSERT INTO breaks(breakid, left_block, right_block, direction,
				break_size1, break_size2, inblocks1, inblocks2, opposite, break_sum)
			 VALUES (:breakid, :left_block, :right_block, :direction,
				:break_size1, :break_size2, :inblocks1, :inblocks2, NULL, :break_sum)`, row); err != nil {
			return err
		}
	}
	for _, b := range breaks {
		if b.Opposite == nil {
			continue
		}
		if _, err := tx.Exec(`UPDATE breaks SET opposite = ? WHERE breakid = ?`, *b.Opposite, b.BreakID); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	return s.RefreshProjections()
}
