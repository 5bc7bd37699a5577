package block

import (
	"github.com/i2bc/synteruptor/internal/model"
	"github.com/i2bc/synteruptor/internal/store"
)

// LoadOrthoAll reads the orthos_all projection written by the Catalog
// Loader (spec.md §4.3/§4.4).
func LoadOrthoAll(s *store.Store) ([]model.OrthoAll, error) {
	var rows []model.OrthoAll
	err := s.DB.Select(&rows, `
		SELECT oid, pid1, pid2, o_ident, o_alen, pnum_order1, pnum_order2, noblock,
		       sp1, sp2, gpart1, gpart2, pnum_cds1, pnum_cds2, pnum_all1, pnum_all2
		FROM orthos_all`)
	return rows, err
}

// Save persists every species pair's links and blocks, replacing any
// prior pairs/blocks contents, and writes noblock=1 back onto the
// orthos that are not an endpoint of any link.
func Save(s *store.Store, results map[SpeciesPair]Result) error {
	if err := s.DropTables("pairs", "blocks"); err != nil {
		return err
	}

	tx, err := s.DB.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`UPDATE orthos SET noblock = 0`); err != nil {
		return err
	}

	for _, res := range results {
		for _, l := range res.Links {
			if _, err := tx.NamedExec(
				`INSERT INTO pairs(oid_start, oid_end, direction, inblocks1, inblocks2)
				 VALUES (:oid_start, :oid_end, :direction, :inblocks1, :inblocks2)`, l); err != nil {
				return err
			}
		}
		for _, b := range res.Blocks {
			if _, err := tx.NamedExec(
				`INSERT INTO blocks(blockid, oid_start, oid_end, direction, block_size, block_order1, block_order2)
				 VALUES (:blockid, :oid_start, :oid_end, :direction, :block_size, :block_order1, :block_order2)`, b); err != nil {
				return err
			}
		}
		for oid := range res.NoBlock {
			if _, err := tx.Exec(`UPDATE orthos SET noblock = 1 WHERE oid = ?`, oid); err != nil {
				return err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	return s.RefreshProjections()
}
