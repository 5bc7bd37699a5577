// Package config holds the tunables for every pipeline stage.
//
// Defaults mirror the Perl driver script's hardcoded values (spec.md §6.8).
// A YAML file can override any subset of them; flags parsed by the CLI
// layer override the YAML file in turn. This three-tier precedence keeps
// the ambiguous-part thresholds and similar empirical constants (spec.md §9,
// Open Question) tunable without code changes.
package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Ortholog holds the ortholog builder's filter and tie-break tunables.
type Ortholog struct {
	MinLengthFraction float64 `yaml:"min_length_fraction"`
	MinIdentity       float64 `yaml:"min_identity"`
	MaxEValue         float64 `yaml:"max_evalue"`
	EValueTolerance   float64 `yaml:"evalue_tolerance"`
}

// Paralog holds the paralog builder's filter tunables.
type Paralog struct {
	MinLengthFraction float64 `yaml:"min_length_fraction"`
	MinIdentity       float64 `yaml:"min_identity"` // percent, e.g. 40
	MaxEValue         float64 `yaml:"max_evalue"`
}

// Block holds the block finder's tunables.
type Block struct {
	Tolerance int `yaml:"tolerance"`
}

// BreakFinder holds the break finder's tunables.
type BreakFinder struct {
	MaxIncludedBlocks int `yaml:"max_included_blocks"`
}

// Rank holds the ranker's tunables.
type Rank struct {
	TRNAExtWindow      int `yaml:"trna_ext_window"`
	TRNAExtMinSideSize int `yaml:"trna_ext_min_side_size"`
	Clean              bool
}

// Reorder holds the assembly reorderer's tunables, including the
// "ambiguous part" thresholds spec.md §9 flags as empirical and
// implementation-defined.
type Reorder struct {
	AmbiguousMinOrthologs int `yaml:"ambiguous_min_orthologs"`
	AmbiguousMinRange     int `yaml:"ambiguous_min_range"`
	AmbiguousMaxCount     int `yaml:"ambiguous_max_count"`
	AmbiguousMaxCumul     int `yaml:"ambiguous_max_cumul"`
}

// Config aggregates every stage's tunables.
type Config struct {
	Ortholog    Ortholog    `yaml:"ortholog"`
	Paralog     Paralog     `yaml:"paralog"`
	Block       Block       `yaml:"block"`
	BreakFinder BreakFinder `yaml:"break_finder"`
	Rank        Rank        `yaml:"rank"`
	Reorder     Reorder     `yaml:"reorder"`
}

// Default returns the spec's documented default tunables.
func Default() Config {
	return Config{
		Ortholog: Ortholog{
			MinLengthFraction: 0.40,
			MinIdentity:       0.40,
			MaxEValue:         1e-10,
			EValueTolerance:   1.0,
		},
		Paralog: Paralog{
			MinLengthFraction: 0.5,
			MinIdentity:       40,
			MaxEValue:         1e-20,
		},
		Block: Block{
			Tolerance: 2,
		},
		BreakFinder: BreakFinder{
			MaxIncludedBlocks: 0,
		},
		Rank: Rank{
			TRNAExtWindow:      3,
			TRNAExtMinSideSize: 10,
			Clean:              false,
		},
		Reorder: Reorder{
			AmbiguousMinOrthologs: 2,
			AmbiguousMinRange:     200,
			AmbiguousMaxCount:     50,
			AmbiguousMaxCumul:     20,
		},
	}
}

// Load reads a YAML config file and overlays it onto the defaults. A
// missing path is not an error: callers pass "" to mean "defaults only".
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
