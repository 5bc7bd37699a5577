package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

// Testing command line utilities by spoofing args and running app.Run
// directly, in the style of poly's own commands_test.go.

func TestMain_HelpFlagRunsWithoutError(t *testing.T) {
	args := []string{"synteruptor", "-h"}
	err := application().Run(args)
	assert.NoError(t, err)
}

const geneCatalogHeader = "sp\tgpart\tpid\tpnum_CDS\tpnum_all\tfeat\tloc_start\tloc_end\tstrand\tlength\tproduct\tGC\tdelta_GC\n"

func TestOrthologCommand_WritesReciprocalBestHitPair(t *testing.T) {
	dir := t.TempDir()
	genesPath := filepath.Join(dir, "genes.tsv")
	hitsPath := filepath.Join(dir, "hits.tsv")
	outPath := filepath.Join(dir, "ortho.tsv")

	genes := geneCatalogHeader +
		"spA\t1\tA1\t1\t1\tCDS\t1\t300\t1\t300\thypothetical protein\t0.5\t0\n" +
		"spB\t1\tB1\t1\t1\tCDS\t1\t300\t1\t300\thypothetical protein\t0.5\t0\n"
	require.NoError(t, os.WriteFile(genesPath, []byte(genes), 0o644))

	hits := "A1\tB1\t90\t100\t0\t0\t1\t100\t1\t100\t1e-50\t200\n" +
		"B1\tA1\t90\t100\t0\t0\t1\t100\t1\t100\t1e-50\t200\n"
	require.NoError(t, os.WriteFile(hitsPath, []byte(hits), 0o644))

	args := []string{"synteruptor", "ortholog", "-i", hitsPath, "-g", genesPath, "-o", outPath}
	require.NoError(t, application().Run(args))

	out, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Contains(t, string(out), "A1\tB1")
}

func TestLoadAndBlockCommands_PersistABlockToTheStore(t *testing.T) {
	dir := t.TempDir()
	genesPath := filepath.Join(dir, "genes.tsv")
	orthoPath := filepath.Join(dir, "ortho.tsv")
	dbPath := filepath.Join(dir, "store.db")

	// Two species, three colinear genes each: a single chained block.
	genes := geneCatalogHeader +
		"spA\t1\tA1\t1\t1\tCDS\t1\t100\t1\t100\thypothetical protein\t0.5\t0\n" +
		"spA\t1\tA2\t2\t2\tCDS\t101\t200\t1\t100\thypothetical protein\t0.5\t0\n" +
		"spA\t1\tA3\t3\t3\tCDS\t201\t300\t1\t100\thypothetical protein\t0.5\t0\n" +
		"spB\t1\tB1\t1\t1\tCDS\t1\t100\t1\t100\thypothetical protein\t0.5\t0\n" +
		"spB\t1\tB2\t2\t2\tCDS\t101\t200\t1\t100\thypothetical protein\t0.5\t0\n" +
		"spB\t1\tB3\t3\t3\tCDS\t201\t300\t1\t100\thypothetical protein\t0.5\t0\n"
	require.NoError(t, os.WriteFile(genesPath, []byte(genes), 0o644))

	ortho := "oid\tpid1\tpid2\to_ident\to_alen\n" +
		"1\tA1\tB1\t90\t100\n" +
		"2\tA2\tB2\t90\t100\n" +
		"3\tA3\tB3\t90\t100\n"
	require.NoError(t, os.WriteFile(orthoPath, []byte(ortho), 0o644))

	loadArgs := []string{"synteruptor", "-d", dbPath, "load", "-g", genesPath, "-O", orthoPath}
	require.NoError(t, application().Run(loadArgs))

	blockArgs := []string{"synteruptor", "-d", dbPath, "block"}
	require.NoError(t, application().Run(blockArgs))

	db, err := sqlx.Connect("sqlite", dbPath)
	require.NoError(t, err)
	defer db.Close()

	var count int
	require.NoError(t, db.Get(&count, `SELECT COUNT(*) FROM blocks`))
	assert.Equal(t, 1, count)
}

func TestReorderCommand_RejectsBothAutoAndExplicitFlags(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "store.db")
	args := []string{"synteruptor", "-d", dbPath, "reorder", "-a", "-m", "ref", "-s", "sample"}
	err := application().Run(args)
	assert.Error(t, err)
}

func TestRankCommand_ReportModePrintsWithoutWritingToTheStore(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "store.db")

	// An empty but schema-initialized store: the report should still run
	// over a zero-break result instead of erroring.
	app := application()
	require.NoError(t, app.Run([]string{"synteruptor", "-d", dbPath, "load", "-g", touchEmptyGeneCatalog(t, dir), "-O", touchEmptyOrthoTSV(t, dir)}))

	var writeBuffer bytes.Buffer
	app = application()
	app.Writer = &writeBuffer
	require.NoError(t, app.Run([]string{"synteruptor", "-d", dbPath, "rank", "-R"}))

	assert.Contains(t, writeBuffer.String(), "ranked")

	db, err := sqlx.Connect("sqlite", dbPath)
	require.NoError(t, err)
	defer db.Close()
	var count int
	require.NoError(t, db.Get(&count, `SELECT COUNT(*) FROM breaks_ranking`))
	assert.Equal(t, 0, count, "report mode must not write to the store")
}

func touchEmptyGeneCatalog(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "genes-empty.tsv")
	require.NoError(t, os.WriteFile(path, []byte(geneCatalogHeader), 0o644))
	return path
}

func touchEmptyOrthoTSV(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "ortho-empty.tsv")
	require.NoError(t, os.WriteFile(path, []byte("oid\tpid1\tpid2\to_ident\to_alen\n"), 0o644))
	return path
}
