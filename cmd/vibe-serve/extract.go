package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/inodb/vibe-serve/internal/codon"
	"github.com/inodb/vibe-serve/internal/duckdb"
	"github.com/inodb/vibe-serve/internal/events"
	"github.com/inodb/vibe-serve/internal/extract"
	"github.com/inodb/vibe-serve/internal/output"
)

type extractOptions struct {
	dbPath    string
	vcfPath   string
	tsvPrefix string
	appendRun bool
	workers   int
	margin    int
}

func newExtractCmd(logger func() *zap.Logger) *cobra.Command {
	var opts extractOptions

	cmd := &cobra.Command{
		Use:   "extract <events.tsv>",
		Short: "Resolve curated events into known hotspots and regions",
		Long: `Read a tab-delimited events file with columns gene, transcript (optional),
event and source (optional), resolve every event and write the results.

Without --db, --vcf or --tsv the hotspots are written to stdout in the
format given by output.format (tsv or vcf).`,
		Example: `  vibe-serve extract events.tsv --db known.duckdb
  vibe-serve extract events.tsv --vcf known.vcf --tsv known
  cat events.tsv | vibe-serve extract - > hotspots.tsv`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("workers") {
				opts.workers = viper.GetInt("extract.workers")
			}
			if !cmd.Flags().Changed("margin") {
				opts.margin = viper.GetInt("extract.splice_margin")
			}
			log := logger()
			defer log.Sync()
			return runExtract(cmd.Context(), args[0], opts, log)
		},
	}

	cmd.Flags().StringVar(&opts.dbPath, "db", "", "DuckDB database to store known events in")
	cmd.Flags().StringVar(&opts.vcfPath, "vcf", "", "Write hotspots as VCF to this file")
	cmd.Flags().StringVar(&opts.tsvPrefix, "tsv", "", "Write <prefix>.hotspots.tsv and <prefix>.regions.tsv")
	cmd.Flags().BoolVar(&opts.appendRun, "append", false, "Keep events from earlier runs in --db")
	cmd.Flags().IntVarP(&opts.workers, "workers", "j", 0, "Worker goroutines (default: number of CPUs)")
	cmd.Flags().IntVar(&opts.margin, "margin", 10, "Bases added on both sides of exon regions")
	return cmd
}

func runExtract(ctx context.Context, eventsPath string, opts extractOptions, logger *zap.Logger) (err error) {
	reader, err := events.NewReader(eventsPath)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, reader.Close())
	}()

	files, err := findDataFiles(viper.GetString("assembly"))
	if err != nil {
		return err
	}
	c, ref, err := loadAll(files, logger)
	if err != nil {
		return err
	}

	var (
		sinks   []extract.Sink
		closers []func() error
	)
	defer func() {
		for _, closeFn := range closers {
			err = multierr.Append(err, closeFn())
		}
	}()

	if opts.dbPath != "" {
		store, err := duckdb.Open(opts.dbPath)
		if err != nil {
			return err
		}
		closers = append(closers, store.Close)
		if !opts.appendRun {
			if err := store.Clear(); err != nil {
				return err
			}
		}
		run, err := store.BeginRun(eventsPath)
		if err != nil {
			return err
		}
		logger.Info("storing known events", zap.String("db", opts.dbPath), zap.String("run_id", run.RunID()))
		sinks = append(sinks, run)
	}

	if opts.vcfPath != "" {
		f, err := os.Create(opts.vcfPath)
		if err != nil {
			return fmt.Errorf("create VCF output: %w", err)
		}
		closers = append(closers, f.Close)
		sinks = append(sinks, output.NewHotspotVCFWriter(f, viper.GetString("assembly")))
	}

	if opts.tsvPrefix != "" {
		hf, err := os.Create(opts.tsvPrefix + ".hotspots.tsv")
		if err != nil {
			return fmt.Errorf("create hotspot output: %w", err)
		}
		closers = append(closers, hf.Close)
		hw := output.NewHotspotTSVWriter(hf)
		if err := hw.WriteHeader(); err != nil {
			return err
		}

		rf, err := os.Create(opts.tsvPrefix + ".regions.tsv")
		if err != nil {
			return fmt.Errorf("create region output: %w", err)
		}
		closers = append(closers, rf.Close)
		rw := output.NewRegionTSVWriter(rf)
		if err := rw.WriteHeader(); err != nil {
			return err
		}
		sinks = append(sinks, hw, rw)
	}

	if len(sinks) == 0 {
		switch format := viper.GetString("output.format"); format {
		case "tsv":
			hw := output.NewHotspotTSVWriter(os.Stdout)
			if err := hw.WriteHeader(); err != nil {
				return err
			}
			sinks = append(sinks, hw)
		case "vcf":
			sinks = append(sinks, output.NewHotspotVCFWriter(os.Stdout, viper.GetString("assembly")))
		default:
			return fmt.Errorf("unknown output format %q: %w", format, errUsage)
		}
	}

	e := extract.New(c, ref, codon.Standard())
	e.SetLogger(logger)
	e.SetSpliceMargin(int64(opts.margin))

	stats, err := e.Run(ctx, reader, extract.Tee(sinks...), opts.workers)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Resolved %d of %d events: %d hotspots, %d regions (%d unresolved)\n",
		stats.Resolved, stats.Events, stats.Hotspots, stats.Regions, stats.Unresolved)
	return nil
}
