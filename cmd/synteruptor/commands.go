// File structured as so: one *cli.Command var plus its Action function
// per pipeline stage, in the order they run (spec.md §2). Shared
// loading/writing helpers live at the bottom.
//
// Each Action opens the store, does its stage's work, and closes it;
// the store itself enforces re-entry safety (spec.md §7, Recoverable)
// so re-running a subcommand after a partial pipeline run is always
// safe.
package main

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/lunny/log"
	"github.com/mitchellh/go-wordwrap"
	"github.com/urfave/cli/v2"

	"github.com/i2bc/synteruptor/internal/block"
	"github.com/i2bc/synteruptor/internal/breakfinder"
	"github.com/i2bc/synteruptor/internal/breakgenes"
	"github.com/i2bc/synteruptor/internal/catalog"
	"github.com/i2bc/synteruptor/internal/config"
	"github.com/i2bc/synteruptor/internal/graph"
	"github.com/i2bc/synteruptor/internal/hits"
	"github.com/i2bc/synteruptor/internal/loader"
	"github.com/i2bc/synteruptor/internal/model"
	"github.com/i2bc/synteruptor/internal/ortholog"
	"github.com/i2bc/synteruptor/internal/paralog"
	"github.com/i2bc/synteruptor/internal/rank"
	"github.com/i2bc/synteruptor/internal/reorder"
	"github.com/i2bc/synteruptor/internal/store"
)

var orthologCommand = &cli.Command{
	Name:  "ortholog",
	Usage: "Build best-reciprocal-hit ortholog pairs from an all-vs-all similarity search.",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "i", Required: true, Usage: "Path to the similarity hits file."},
		&cli.StringFlag{Name: "g", Required: true, Usage: "Path to the gene catalog file."},
		&cli.StringFlag{Name: "o", Usage: "Output path for the ortholog pairs TSV (default stdout)."},
	},
	Action: func(c *cli.Context) error {
		cfg, err := loadConfig(c)
		if err != nil {
			return fail(err)
		}
		allHits, err := readHits(c.String("i"))
		if err != nil {
			return fail(err)
		}
		genes, err := readGenes(c.String("g"))
		if err != nil {
			return fail(err)
		}
		pairs, err := ortholog.Build(allHits, genesByPid(genes), cfg.Ortholog)
		if err != nil {
			return fail(err)
		}
		return writeOutput(c.String("o"), ortholog.FormatTSV(pairs))
	},
}

var paralogCommand = &cli.Command{
	Name:  "paralog",
	Usage: "Reduce within-species hits into a per-gene paralog summary.",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "i", Required: true, Usage: "Path to the similarity hits file."},
		&cli.StringFlag{Name: "g", Required: true, Usage: "Path to the gene catalog file."},
		&cli.Float64Flag{Name: "s", Value: 40, Usage: "Minimum percent identity for a paralog hit."},
		&cli.StringFlag{Name: "o", Usage: "Output path for the paralog pairs TSV (default stdout)."},
	},
	Action: func(c *cli.Context) error {
		cfg, err := loadConfig(c)
		if err != nil {
			return fail(err)
		}
		if c.IsSet("s") {
			cfg.Paralog.MinIdentity = c.Float64("s")
		}
		allHits, err := readHits(c.String("i"))
		if err != nil {
			return fail(err)
		}
		genes, err := readGenes(c.String("g"))
		if err != nil {
			return fail(err)
		}
		entries, err := paralog.Build(allHits, genesByPid(genes), cfg.Paralog)
		if err != nil {
			return fail(err)
		}
		return writeOutput(c.String("o"), paralog.FormatTSV(entries))
	},
}

var loadCommand = &cli.Command{
	Name:  "load",
	Usage: "Load the gene catalog, ortholog pairs, and paralog summary into the store.",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "g", Required: true, Usage: "Path to the gene catalog file."},
		&cli.StringFlag{Name: "G", Usage: "Path to the optional genome metadata file."},
		&cli.StringFlag{Name: "O", Required: true, Usage: "Path to the ortholog pairs TSV (spec.md §6.4)."},
		&cli.StringFlag{Name: "p", Usage: "Path to the paralog pairs TSV (spec.md §6.5)."},
	},
	Action: func(c *cli.Context) error {
		genes, err := readGenes(c.String("g"))
		if err != nil {
			return fail(err)
		}
		parts := catalog.DeriveParts(genes)

		var genomes []model.Genome
		if c.String("G") != "" {
			f, err := os.Open(c.String("G"))
			if err != nil {
				return fail(err)
			}
			defer f.Close()
			if genomes, err = catalog.ParseGenomes(f); err != nil {
				return fail(err)
			}
		} else {
			genomes = catalog.DeriveGenomesFromGenes(genes)
		}
		genomes = catalog.DeriveGenomeMax(genomes, genes)
		genomes = catalog.DeriveGenomeComplete(genomes, parts)

		if c.String("p") != "" {
			f, err := os.Open(c.String("p"))
			if err != nil {
				return fail(err)
			}
			defer f.Close()
			entries, err := paralog.ParseTSV(f)
			if err != nil {
				return fail(err)
			}
			genes = loader.MergeParalogs(genes, entries)
		}

		orthoFile, err := os.Open(c.String("O"))
		if err != nil {
			return fail(err)
		}
		defer orthoFile.Close()
		orthoPairs, err := ortholog.ParseTSV(orthoFile)
		if err != nil {
			return fail(err)
		}
		orthoPairs = loader.ComputeOrders(orthoPairs, genesByPid(genes))

		s, err := openStore(c)
		if err != nil {
			return fail(err)
		}
		defer s.Close()
		if err := loader.Save(s, genomes, parts, genes, orthoPairs); err != nil {
			return fail(err)
		}
		return s.SetInfo("last_stage", "load")
	},
}

var blockCommand = &cli.Command{
	Name:  "block",
	Usage: "Chain ortholog pairs into maximal synteny blocks.",
	Flags: []cli.Flag{
		&cli.IntFlag{Name: "t", Usage: "Gap tolerance between consecutive ortholog pairs (default 2)."},
	},
	Action: func(c *cli.Context) error {
		cfg, err := loadConfig(c)
		if err != nil {
			return fail(err)
		}
		if c.IsSet("t") {
			cfg.Block.Tolerance = c.Int("t")
		}
		s, err := openStore(c)
		if err != nil {
			return fail(err)
		}
		defer s.Close()

		orthos, err := block.LoadOrthoAll(s)
		if err != nil {
			return fail(err)
		}
		results := block.Build(orthos, cfg.Block)
		if err := block.Save(s, results); err != nil {
			return fail(err)
		}
		return s.SetInfo("last_stage", "block")
	},
}

var breakFinderCommand = &cli.Command{
	Name:  "breakfinder",
	Usage: "Derive breaks between near-consecutive blocks.",
	Flags: []cli.Flag{
		&cli.IntFlag{Name: "b", Usage: "Maximum number of blocks a break may skip over (default 0)."},
	},
	Action: func(c *cli.Context) error {
		cfg, err := loadConfig(c)
		if err != nil {
			return fail(err)
		}
		if c.IsSet("b") {
			cfg.BreakFinder.MaxIncludedBlocks = c.Int("b")
		}
		s, err := openStore(c)
		if err != nil {
			return fail(err)
		}
		defer s.Close()

		blocksAll, err := breakfinder.LoadBlockAll(s)
		if err != nil {
			return fail(err)
		}
		breaks, dropped := breakfinder.Build(blocksAll, cfg.BreakFinder)
		if dropped > 0 {
			log.Warnf("break finder: dropped %d break(s) with no opposite", dropped)
		}
		if err := breakfinder.Save(s, breaks); err != nil {
			return fail(err)
		}
		return s.SetInfo("last_stage", "breakfinder")
	},
}

var breakGenesCommand = &cli.Command{
	Name:  "breakgenes",
	Usage: "Extract the gene content on each side of every surviving break.",
	Action: func(c *cli.Context) error {
		s, err := openStore(c)
		if err != nil {
			return fail(err)
		}
		defer s.Close()

		breaksAll, err := breakgenes.LoadBreakAll(s)
		if err != nil {
			return fail(err)
		}
		genes, err := breakgenes.LoadGenes(s)
		if err != nil {
			return fail(err)
		}
		orthos, err := breakgenes.LoadOrthos(s)
		if err != nil {
			return fail(err)
		}
		rows := breakgenes.Build(breaksAll, genes, orthos)
		if err := breakgenes.Save(s, rows); err != nil {
			return fail(err)
		}
		return s.SetInfo("last_stage", "breakgenes")
	},
}

var rankCommand = &cli.Command{
	Name:  "rank",
	Usage: "Score break content and optionally prune low-quality breaks.",
	Flags: []cli.Flag{
		&cli.BoolFlag{Name: "C", Usage: "Enable bad-break pruning."},
		&cli.BoolFlag{Name: "R", Usage: "Dry-run: print a human-readable report instead of writing to the store."},
	},
	Action: func(c *cli.Context) error {
		cfg, err := loadConfig(c)
		if err != nil {
			return fail(err)
		}
		if c.IsSet("C") {
			cfg.Rank.Clean = c.Bool("C")
		}
		s, err := openStore(c)
		if err != nil {
			return fail(err)
		}
		defer s.Close()

		breaksAll, err := rank.LoadBreakAll(s)
		if err != nil {
			return fail(err)
		}
		breakGenes, err := rank.LoadBreakGenes(s)
		if err != nil {
			return fail(err)
		}
		genes, err := rank.LoadGenes(s)
		if err != nil {
			return fail(err)
		}
		rankings := rank.Build(breaksAll, breakGenes, genes, cfg.Rank)
		kept, dropped := rank.Prune(rankings, breaksAll, breakGenes, genes, cfg.Rank)

		if c.Bool("R") {
			fmt.Fprint(c.App.Writer, formatRankReport(kept, dropped))
			return nil
		}

		if len(dropped) > 0 {
			log.Warnf("rank: pruned %d bad break(s)", len(dropped))
		}
		if err := rank.Save(s, kept, dropped); err != nil {
			return fail(err)
		}
		return s.SetInfo("last_stage", "rank")
	},
}

var graphCommand = &cli.Command{
	Name:  "graph",
	Usage: "Group related breaks into graphs and detect cycles.",
	Flags: []cli.Flag{
		&cli.BoolFlag{Name: "R", Usage: "Dry-run: print a human-readable report instead of writing to the store."},
	},
	Action: func(c *cli.Context) error {
		s, err := openStore(c)
		if err != nil {
			return fail(err)
		}
		defer s.Close()

		breaksAll, err := graph.LoadBreakAll(s)
		if err != nil {
			return fail(err)
		}
		annotations, edges := graph.Build(breaksAll)

		if c.Bool("R") {
			fmt.Fprint(c.App.Writer, formatGraphReport(annotations, edges))
			return nil
		}

		if err := graph.Save(s, annotations, edges); err != nil {
			return fail(err)
		}
		return s.SetInfo("last_stage", "graph")
	},
}

var reorderCommand = &cli.Command{
	Name:  "reorder",
	Usage: "Reorder and orient a fragmented genome's parts against a reference.",
	Flags: []cli.Flag{
		&cli.BoolFlag{Name: "a", Usage: "Reorder every fragmented genome automatically, picking its own reference."},
		&cli.StringFlag{Name: "m", Usage: "Reference (model) genome, used with -s instead of -a."},
		&cli.StringFlag{Name: "s", Usage: "Sample genome to reorder, used with -m instead of -a."},
	},
	Action: func(c *cli.Context) error {
		auto, model_, sample := c.Bool("a"), c.String("m"), c.String("s")
		if auto == (model_ != "" || sample != "") {
			return fail(fmt.Errorf("reorder: specify either -a or both -m and -s"))
		}
		if !auto && (model_ == "" || sample == "") {
			return fail(fmt.Errorf("reorder: -m and -s must be given together"))
		}

		cfg, err := loadConfig(c)
		if err != nil {
			return fail(err)
		}
		s, err := openStore(c)
		if err != nil {
			return fail(err)
		}
		defer s.Close()

		genes, err := reorder.LoadGenes(s)
		if err != nil {
			return fail(err)
		}
		genomes, err := reorder.LoadGenomes(s)
		if err != nil {
			return fail(err)
		}
		orthosAll, err := reorder.LoadOrthoAll(s)
		if err != nil {
			return fail(err)
		}

		if !auto {
			newGenes, newParts, ok := reorder.BuildWithReference(model.SpeciesID(sample), model.SpeciesID(model_), genes, orthosAll, cfg.Reorder)
			if !ok {
				return fail(fmt.Errorf("reorder: %s has no orthologs shared with %s, or only one part", sample, model_))
			}
			if err := reorder.Save(s, model.SpeciesID(sample), newGenes, newParts); err != nil {
				return fail(err)
			}
			return s.SetInfo("last_stage", "reorder")
		}

		parts, err := reorder.LoadGenomeParts(s)
		if err != nil {
			return fail(err)
		}
		gpartCount := map[model.SpeciesID]int{}
		for _, p := range parts {
			gpartCount[p.Sp]++
		}
		for _, gm := range genomes {
			if gpartCount[gm.Sp] < 2 {
				continue
			}
			newGenes, newParts, ref, ok := reorder.Build(gm.Sp, genes, genomes, orthosAll, cfg.Reorder)
			if !ok {
				log.Warnf("reorder: no reference genome found for fragmented genome %s, skipping", gm.Sp)
				continue
			}
			if err := reorder.Save(s, gm.Sp, newGenes, newParts); err != nil {
				return fail(err)
			}
			log.Warnf("reorder: reordered %s against reference %s", gm.Sp, ref)
		}
		return s.SetInfo("last_stage", "reorder")
	},
}

func loadConfig(c *cli.Context) (config.Config, error) {
	return config.Load(c.String("config"))
}

func openStore(c *cli.Context) (*store.Store, error) {
	return store.Open(c.String("d"))
}

func readHits(path string) ([]model.Hit, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return hits.Parse(f)
}

func readGenes(path string) ([]model.Gene, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return catalog.ParseGenes(f)
}

func genesByPid(genes []model.Gene) map[string]model.Gene {
	out := make(map[string]model.Gene, len(genes))
	for _, g := range genes {
		out[g.Pid] = g
	}
	return out
}

func writeOutput(path, content string) error {
	if path == "" {
		_, err := fmt.Print(content)
		return err
	}
	return os.WriteFile(path, []byte(content), 0o644)
}

// formatRankReport renders rank's -R dry-run summary: a leading line
// counting the breaks ranked and pruned, then one wrapped line per
// surviving break naming its content categories on each side.
func formatRankReport(kept []model.BreakRanking, dropped []int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d break(s) ranked, %d pruned\n\n", len(kept), len(dropped))
	for _, r := range kept {
		line := fmt.Sprintf(
			"break %d: side1 [%s] real_size=%d paralogs=%d delta_gc=%.3g | side2 [%s] real_size=%d paralogs=%d delta_gc=%.3g",
			r.BreakID, r.Content1, r.RealSize1, r.Paralogs1, r.DeltaGC1,
			r.Content2, r.RealSize2, r.Paralogs2, r.DeltaGC2)
		b.WriteString(wordwrap.WrapString(line, 100))
		b.WriteString("\n")
	}
	return b.String()
}

// formatGraphReport renders graph's -R dry-run summary: one wrapped
// line per graph naming its cycle size and member edges.
func formatGraphReport(annotations map[int]graph.Annotation, edges []model.GraphEdge) string {
	byGraph := map[int][]model.GraphEdge{}
	for _, e := range edges {
		byGraph[e.GraphID] = append(byGraph[e.GraphID], e)
	}
	cycleByGraph := map[int]int{}
	for _, a := range annotations {
		cycleByGraph[a.GraphID] = a.Cycle
	}

	graphIDs := make([]int, 0, len(byGraph))
	for id := range byGraph {
		graphIDs = append(graphIDs, id)
	}
	sort.Ints(graphIDs)

	var b strings.Builder
	fmt.Fprintf(&b, "%d graph(s)\n\n", len(graphIDs))
	for _, id := range graphIDs {
		pairs := make([]string, 0, len(byGraph[id]))
		for _, e := range byGraph[id] {
			pairs = append(pairs, fmt.Sprintf("%s-%s", e.FromName, e.ToName))
		}
		line := fmt.Sprintf("graph %d: cycle=%d edges=[%s]", id, cycleByGraph[id], strings.Join(pairs, ", "))
		b.WriteString(wordwrap.WrapString(line, 100))
		b.WriteString("\n")
	}
	return b.String()
}
