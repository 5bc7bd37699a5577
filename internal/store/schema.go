package store

// schema is the full DDL for the persisted relational store (spec.md §6.6).
// Every stage table uses CREATE TABLE IF NOT EXISTS so stage re-entry is
// idempotent (spec.md §7, Recoverable): a stage clears the rows of the
// tables it owns (Store.DropTables) before writing them again rather than
// relying on IF NOT EXISTS to skip stale data, and the statements
// themselves are safe to replay.
const schema = `
PRAGMA foreign_keys = ON;

CREATE TABLE IF NOT EXISTS info (
	key   TEXT PRIMARY KEY,
	value TEXT
);

CREATE TABLE IF NOT EXISTS genomes (
	sp               TEXT PRIMARY KEY,
	name             TEXT,
	gc               REAL,
	max_pnum_display INTEGER NOT NULL DEFAULT 0,
	complete         INTEGER NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS genome_parts (
	sp          TEXT NOT NULL REFERENCES genomes(sp) ON DELETE CASCADE,
	gpart       TEXT NOT NULL,
	min_display INTEGER NOT NULL,
	max_display INTEGER NOT NULL,
	PRIMARY KEY (sp, gpart)
);

CREATE TABLE IF NOT EXISTS genes (
	pid          TEXT PRIMARY KEY,
	sp           TEXT NOT NULL REFERENCES genomes(sp) ON DELETE CASCADE,
	gpart        TEXT NOT NULL,
	pnum_all     INTEGER NOT NULL,
	pnum_cds     INTEGER NOT NULL,
	pnum_display INTEGER NOT NULL,
	loc_start    INTEGER NOT NULL,
	loc_end      INTEGER NOT NULL,
	strand       INTEGER NOT NULL,
	feat         TEXT NOT NULL,
	product      TEXT,
	gc           REAL,
	delta_gc     REAL,
	length       INTEGER NOT NULL,
	paralogs_n   INTEGER NOT NULL DEFAULT 0,
	paralogs     TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_genes_sp_gpart ON genes(sp, gpart);
CREATE INDEX IF NOT EXISTS idx_genes_sp_pnumcds ON genes(sp, pnum_cds);

CREATE TABLE IF NOT EXISTS orthos (
	oid         INTEGER PRIMARY KEY AUTOINCREMENT,
	pid1        TEXT NOT NULL REFERENCES genes(pid) ON DELETE CASCADE,
	pid2        TEXT NOT NULL REFERENCES genes(pid) ON DELETE CASCADE,
	o_ident     REAL NOT NULL DEFAULT 0,
	o_alen      INTEGER NOT NULL DEFAULT 0,
	pnum_order1 INTEGER NOT NULL DEFAULT 0,
	pnum_order2 INTEGER NOT NULL DEFAULT 0,
	noblock     INTEGER NOT NULL DEFAULT 0,
	UNIQUE (pid1, pid2)
);
CREATE INDEX IF NOT EXISTS idx_orthos_pid1 ON orthos(pid1);
CREATE INDEX IF NOT EXISTS idx_orthos_pid2 ON orthos(pid2);

CREATE TABLE IF NOT EXISTS pairs (
	pairid    INTEGER PRIMARY KEY AUTOINCREMENT,
	oid_start INTEGER NOT NULL REFERENCES orthos(oid) ON DELETE CASCADE,
	oid_end   INTEGER NOT NULL REFERENCES orthos(oid) ON DELETE CASCADE,
	direction INTEGER NOT NULL,
	inblocks1 INTEGER NOT NULL DEFAULT 0,
	inblocks2 INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS blocks (
	blockid      INTEGER PRIMARY KEY AUTOINCREMENT,
	oid_start    INTEGER NOT NULL REFERENCES orthos(oid) ON DELETE CASCADE,
	oid_end      INTEGER NOT NULL REFERENCES orthos(oid) ON DELETE CASCADE,
	direction    INTEGER NOT NULL,
	block_size   INTEGER NOT NULL,
	block_order1 INTEGER NOT NULL DEFAULT 0,
	block_order2 INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_blocks_direction ON blocks(direction);

CREATE TABLE IF NOT EXISTS breaks (
	breakid     INTEGER PRIMARY KEY AUTOINCREMENT,
	left_block  INTEGER NOT NULL REFERENCES blocks(blockid) ON DELETE CASCADE,
	right_block INTEGER NOT NULL REFERENCES blocks(blockid) ON DELETE CASCADE,
	direction   INTEGER NOT NULL,
	break_size1 INTEGER NOT NULL,
	break_size2 INTEGER NOT NULL,
	inblocks1   INTEGER NOT NULL,
	inblocks2   INTEGER NOT NULL,
	opposite    INTEGER REFERENCES breaks(breakid) ON DELETE CASCADE,
	break_sum   TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_breaks_sum ON breaks(break_sum);
CREATE INDEX IF NOT EXISTS idx_breaks_leftright ON breaks(left_block, right_block);

CREATE TABLE IF NOT EXISTS breaks_genes (
	breakid  INTEGER NOT NULL REFERENCES breaks(breakid) ON DELETE CASCADE,
	pid      TEXT NOT NULL REFERENCES genes(pid) ON DELETE CASCADE,
	side     INTEGER NOT NULL,
	ortho    TEXT NOT NULL DEFAULT '',
	ortho_in INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (breakid, pid)
);
CREATE INDEX IF NOT EXISTS idx_breaksgenes_breakid ON breaks_genes(breakid);

CREATE TABLE IF NOT EXISTS breaks_ranking (
	breakid       INTEGER PRIMARY KEY REFERENCES breaks(breakid) ON DELETE CASCADE,
	real_size1    INTEGER NOT NULL,
	real_size2    INTEGER NOT NULL,
	trna_both     INTEGER NOT NULL,
	trna_both_ext INTEGER NOT NULL,
	content1      TEXT NOT NULL DEFAULT '',
	content2      TEXT NOT NULL DEFAULT '',
	paralogs1     INTEGER NOT NULL DEFAULT 0,
	paralogs2     INTEGER NOT NULL DEFAULT 0,
	delta_gc1     REAL NOT NULL DEFAULT 0,
	delta_gc2     REAL NOT NULL DEFAULT 0,
	cycle         INTEGER NOT NULL DEFAULT 0,
	graphid       INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS breaks_graph (
	graphid   INTEGER NOT NULL,
	from_name TEXT NOT NULL,
	to_name   TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_breaksgraph_graphid ON breaks_graph(graphid);
`

// views creates the derived projections (spec.md §3: "carry no
// independent state"). They are implemented as SQL views so that any
// change to their source tables (e.g. the Assembly Reorderer rewriting
// pnum_display) is reflected the next time they're queried, with no
// separate regeneration step required.
const views = `
DROP VIEW IF EXISTS orthos_all;
CREATE VIEW orthos_all AS
SELECT
	o.oid, o.pid1, o.pid2, o.o_ident, o.o_alen,
	o.pnum_order1, o.pnum_order2, o.noblock,
	g1.sp AS sp1, g2.sp AS sp2,
	g1.gpart AS gpart1, g2.gpart AS gpart2,
	g1.pnum_cds AS pnum_cds1, g2.pnum_cds AS pnum_cds2,
	g1.pnum_all AS pnum_all1, g2.pnum_all AS pnum_all2
FROM orthos o
JOIN genes g1 ON g1.pid = o.pid1
JOIN genes g2 ON g2.pid = o.pid2;

DROP VIEW IF EXISTS blocks_all;
CREATE VIEW blocks_all AS
SELECT
	b.blockid, b.oid_start, b.oid_end, b.direction, b.block_size,
	b.block_order1, b.block_order2,
	os.sp1 AS sp1, os.sp2 AS sp2, os.gpart1 AS gpart1, os.gpart2 AS gpart2,
	os.pid1 AS start_pid1, os.pid2 AS start_pid2,
	oe.pid1 AS end_pid1, oe.pid2 AS end_pid2,
	os.pnum_cds1 AS pnum_cds_start1, oe.pnum_cds1 AS pnum_cds_end1,
	os.pnum_cds2 AS pnum_cds_start2, oe.pnum_cds2 AS pnum_cds_end2,
	os.pnum_all1 AS pnum_all_start1, oe.pnum_all1 AS pnum_all_end1,
	os.pnum_all2 AS pnum_all_start2, oe.pnum_all2 AS pnum_all_end2
FROM blocks b
JOIN orthos_all os ON os.oid = b.oid_start
JOIN orthos_all oe ON oe.oid = b.oid_end;

DROP VIEW IF EXISTS breaks_all;
CREATE VIEW breaks_all AS
SELECT
	br.breakid, br.left_block, br.right_block, br.direction,
	br.break_size1, br.break_size2, br.inblocks1, br.inblocks2,
	br.opposite, br.break_sum,
	lb.sp1 AS sp1, lb.sp2 AS sp2, lb.gpart1 AS gpart1, lb.gpart2 AS gpart2,
	lb.end_pid1 AS left1, rb.start_pid1 AS right1,
	lb.end_pid2 AS left2, rb.start_pid2 AS right2
FROM breaks br
JOIN blocks_all lb ON lb.blockid = br.left_block
JOIN blocks_all rb ON rb.blockid = br.right_block;
`
