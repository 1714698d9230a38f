package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/inodb/vibe-serve/internal/datasource/alphamissense"
	"github.com/inodb/vibe-serve/internal/datasource/oncokb"
	"github.com/inodb/vibe-serve/internal/duckdb"
	"github.com/inodb/vibe-serve/internal/maf"
	"github.com/inodb/vibe-serve/internal/match"
	"github.com/inodb/vibe-serve/internal/output"
	"github.com/inodb/vibe-serve/internal/vcf"
)

type matchOptions struct {
	dbPath      string
	outputPath  string
	inputFormat string
	cancerGenes string
	anchor      bool
	passOnly    bool
	scores      string
}

func newMatchCmd(logger func() *zap.Logger) *cobra.Command {
	var opts matchOptions

	cmd := &cobra.Command{
		Use:   "match <calls.vcf|calls.maf>",
		Short: "Match called variants against stored known events",
		Long: `Report, for every called variant in a VCF or MAF file, the known events it
hits: an exact hotspot allele, or else the codon and exon regions it overlaps.

MAF indels are rewritten with a VCF anchor base when the reference genome has
been downloaded, so they compare equal to extracted hotspot alleles.

With --alphamissense, matched SNVs carry their AlphaMissense pathogenicity
score. A TSV is loaded into a DuckDB file beside it on first use.`,
		Example: `  vibe-serve match calls.vcf --db known.duckdb
  vibe-serve match data_mutations.txt --db known.duckdb -o matches.tsv
  vibe-serve match calls.vcf.gz --db known.duckdb --cancer-genes cancerGeneList.tsv
  vibe-serve match calls.vcf --db known.duckdb --alphamissense AlphaMissense_hg38.tsv.gz`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.dbPath == "" {
				return fmt.Errorf("--db is required: %w", errUsage)
			}
			if opts.cancerGenes == "" {
				opts.cancerGenes = viper.GetString("match.cancer_genes")
			}
			if opts.scores == "" {
				opts.scores = viper.GetString("match.alphamissense")
			}
			if !cmd.Flags().Changed("pass-only") {
				opts.passOnly = viper.GetBool("match.pass_only")
			}
			log := logger()
			defer log.Sync()
			return runMatch(args[0], opts, log)
		},
	}

	cmd.Flags().StringVar(&opts.dbPath, "db", "", "DuckDB database written by extract")
	cmd.Flags().StringVarP(&opts.outputPath, "output", "o", "", "Output file (default: stdout)")
	cmd.Flags().StringVar(&opts.inputFormat, "input-format", "", "Input format: vcf or maf (auto-detected if not specified)")
	cmd.Flags().StringVar(&opts.cancerGenes, "cancer-genes", "", "OncoKB cancerGeneList.tsv for the GeneType column")
	cmd.Flags().BoolVar(&opts.anchor, "anchor", true, "Anchor MAF indels on the reference genome when available")
	cmd.Flags().BoolVar(&opts.passOnly, "pass-only", false, "Skip VCF records whose FILTER is not PASS")
	cmd.Flags().StringVar(&opts.scores, "alphamissense", "", "AlphaMissense TSV or score database for the Score columns")
	return cmd
}

func runMatch(inputPath string, opts matchOptions, logger *zap.Logger) (err error) {
	store, err := duckdb.Open(opts.dbPath)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, store.Close())
	}()

	hotspots, err := store.Hotspots()
	if err != nil {
		return err
	}
	regions, err := store.Regions()
	if err != nil {
		return err
	}
	logger.Info("loaded known events", zap.Int("hotspots", len(hotspots)), zap.Int("regions", len(regions)))

	parser, err := openCalls(inputPath, opts, logger)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, parser.Close())
	}()

	m := match.NewMatcher(hotspots, regions)
	m.SetLogger(logger)
	if opts.cancerGenes != "" {
		cgl, err := oncokb.LoadCancerGeneList(opts.cancerGenes)
		if err != nil {
			return err
		}
		logger.Info("loaded cancer gene list", zap.Int("genes", len(cgl)))
		m.SetGeneClassifier(cgl)
	}
	if opts.scores != "" {
		am, err := openScores(opts.scores, logger)
		if err != nil {
			return err
		}
		defer func() {
			err = multierr.Append(err, am.Close())
		}()
		m.SetAlleleScorer(am)
	}

	out := os.Stdout
	if opts.outputPath != "" {
		f, err := os.Create(opts.outputPath)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer func() {
			err = multierr.Append(err, f.Close())
		}()
		out = f
	}

	w := output.NewMatchTSVWriter(out)
	if err := w.WriteHeader(); err != nil {
		return err
	}

	matched := 0
	n, err := m.MatchAll(parser, func(mt match.Match) error {
		matched++
		return w.Write(mt)
	})
	if err != nil {
		return err
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if vp, ok := parser.(*vcf.Parser); ok && opts.passOnly {
		logger.Info("skipped filtered records", zap.Int("skipped", vp.Skipped()))
	}

	fmt.Fprintf(os.Stderr, "Matched %d variants: %d known event hits\n", n, matched)
	return nil
}

// openCalls opens a VCF or MAF parser for inputPath.
func openCalls(inputPath string, opts matchOptions, logger *zap.Logger) (vcf.VariantParser, error) {
	format := opts.inputFormat
	if format == "" {
		format = detectInputFormat(inputPath)
	}

	switch format {
	case "vcf":
		p, err := vcf.NewParser(inputPath)
		if err != nil {
			return nil, err
		}
		p.SetPassOnly(opts.passOnly)
		return p, nil
	case "maf":
		p, err := maf.NewParser(inputPath)
		if err != nil {
			return nil, err
		}
		if opts.anchor {
			anchorMAF(p, logger)
		}
		return p, nil
	default:
		return nil, fmt.Errorf("unknown input format %q (use vcf or maf): %w", format, errUsage)
	}
}

// openScores opens an AlphaMissense score database. A TSV path is loaded
// once into a database next to it and reused on later runs.
func openScores(path string, logger *zap.Logger) (*alphamissense.Store, error) {
	dbPath := scoreDBPath(path)
	am, err := alphamissense.Open(dbPath)
	if err != nil {
		return nil, err
	}
	n, err := am.Count()
	if err == nil && n == 0 && dbPath != path {
		logger.Info("loading AlphaMissense scores", zap.String("tsv", path), zap.String("db", dbPath))
		if err = am.Load(path); err == nil {
			n, err = am.Count()
		}
	}
	if err == nil && n == 0 {
		err = fmt.Errorf("no AlphaMissense scores in %s", dbPath)
	}
	if err != nil {
		return nil, multierr.Append(err, am.Close())
	}
	logger.Info("loaded AlphaMissense scores", zap.Int64("alleles", n))
	return am, nil
}

// scoreDBPath returns the score database for path: path itself when it is
// a .duckdb file, else the TSV name with a .duckdb extension.
func scoreDBPath(path string) string {
	if strings.HasSuffix(path, ".duckdb") {
		return path
	}
	base := strings.TrimSuffix(strings.TrimSuffix(path, ".gz"), ".tsv")
	return base + ".duckdb"
}

// anchorMAF sets the reference genome on p when one has been downloaded.
func anchorMAF(p *maf.Parser, logger *zap.Logger) {
	files, err := findDataFiles(viper.GetString("assembly"))
	if err != nil || files.FASTA == "" {
		logger.Warn("no reference genome, MAF indels keep their '-' alleles")
		return
	}
	ref, err := loadReference(files, logger)
	if err != nil {
		logger.Warn("could not load reference genome, MAF indels keep their '-' alleles", zap.Error(err))
		return
	}
	p.SetReference(ref)
}

// detectInputFormat detects the input file format based on extension or content.
func detectInputFormat(path string) string {
	lowerPath := strings.TrimSuffix(strings.ToLower(path), ".gz")

	switch {
	case strings.HasSuffix(lowerPath, ".vcf"):
		return "vcf"
	case strings.HasSuffix(lowerPath, ".maf"):
		return "maf"
	}

	// cBioPortal mutation files
	baseName := filepath.Base(lowerPath)
	if baseName == "data_mutations.txt" || baseName == "data_mutations_extended.txt" {
		return "maf"
	}

	if path == "-" {
		return "vcf"
	}

	file, err := os.Open(path)
	if err != nil {
		return "vcf"
	}
	defer file.Close()

	buf := make([]byte, 512)
	n, err := file.Read(buf)
	if err != nil || n == 0 {
		return "vcf"
	}
	content := string(buf[:n])

	if strings.HasPrefix(content, "##fileformat=VCF") || strings.HasPrefix(content, "#CHROM") {
		return "vcf"
	}
	if strings.Contains(content, "Hugo_Symbol") && strings.Contains(content, "Chromosome") {
		return "maf"
	}
	return "vcf"
}
