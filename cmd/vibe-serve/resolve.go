package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/inodb/vibe-serve/internal/cache"
	"github.com/inodb/vibe-serve/internal/codon"
	"github.com/inodb/vibe-serve/internal/events"
	"github.com/inodb/vibe-serve/internal/extract"
	"github.com/inodb/vibe-serve/internal/genome"
	"github.com/inodb/vibe-serve/internal/output"
	"github.com/inodb/vibe-serve/internal/resolve"
)

func newCodonsCmd(logger func() *zap.Logger) *cobra.Command {
	var transcriptID string

	cmd := &cobra.Command{
		Use:   "codons <gene> <start> [end]",
		Short: "Print the genomic regions covering a codon range",
		Example: `  vibe-serve codons KRAS 12
  vibe-serve codons EGFR 746 750 --transcript ENST00000275493`,
		Args: cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := parseRank(args[1])
			if err != nil {
				return err
			}
			end := start
			if len(args) == 3 {
				if end, err = parseRank(args[2]); err != nil {
					return err
				}
			}

			t, err := resolveTranscript(logger(), args[0], transcriptID)
			if err != nil {
				return err
			}
			regions, ok := resolve.CodonRangeByRank(t, int64(start), int64(end))
			if !ok {
				return fmt.Errorf("codons %d-%d are outside the coding region of %s", start, end, t.ID)
			}
			return printRegions(t, events.TypeCodonRange, regions, fmt.Sprintf("%d-%d", start, end))
		},
	}

	cmd.Flags().StringVar(&transcriptID, "transcript", "", "Transcript ID (default: canonical transcript)")
	return cmd
}

func newExonsCmd(logger func() *zap.Logger) *cobra.Command {
	var (
		transcriptID string
		margin       int
	)

	cmd := &cobra.Command{
		Use:   "exons <gene> <rank>",
		Short: "Print the coding part of an exon widened by the splice margin",
		Example: `  vibe-serve exons EGFR 19
  vibe-serve exons EGFR 19 --margin 0`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rank, err := parseRank(args[1])
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("margin") {
				margin = viper.GetInt("extract.splice_margin")
			}

			t, err := resolveTranscript(logger(), args[0], transcriptID)
			if err != nil {
				return err
			}
			r, ok := resolve.ExonRangeByRank(t, rank, int64(margin))
			if !ok {
				return fmt.Errorf("%s has no coding exon %d", t.ID, rank)
			}
			return printRegions(t, events.TypeExon, []genome.GenomeRegion{r}, "exon "+args[1])
		},
	}

	cmd.Flags().StringVar(&transcriptID, "transcript", "", "Transcript ID (default: canonical transcript)")
	cmd.Flags().IntVar(&margin, "margin", resolve.DefaultSpliceMargin, "Bases added on both sides of the exon")
	return cmd
}

func newHotspotsCmd(logger func() *zap.Logger) *cobra.Command {
	var transcriptID string

	cmd := &cobra.Command{
		Use:   "hotspots <gene> <change>",
		Short: "Print the genomic variants that produce a protein change",
		Example: `  vibe-serve hotspots BRAF V600E
  vibe-serve hotspots EGFR E746_A750del
  vibe-serve hotspots KRAS p.Gly12Cys --transcript ENST00000311936`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logger()
			defer log.Sync()

			files, err := findDataFiles(viper.GetString("assembly"))
			if err != nil {
				return err
			}
			c, err := loadTranscripts(files, log)
			if err != nil {
				return err
			}
			t, err := c.Resolve(args[0], transcriptID)
			if err != nil {
				return err
			}
			ref, err := loadReference(files, log, t.Chrom)
			if err != nil {
				return err
			}

			e := extract.New(c, ref, codon.Standard())
			e.SetLogger(log)
			res := e.Extract(&events.Event{Gene: args[0], TranscriptID: t.ID, Text: args[1]})
			if res.Err != nil {
				return res.Err
			}
			if res.Type != events.TypeHotspot {
				return fmt.Errorf("%q is a %s event, not a protein change: %w", args[1], res.Type, errUsage)
			}

			w := output.NewHotspotTSVWriter(os.Stdout)
			if err := w.WriteHeader(); err != nil {
				return err
			}
			if err := w.Write(res); err != nil {
				return err
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&transcriptID, "transcript", "", "Transcript ID (default: canonical transcript)")
	return cmd
}

// resolveTranscript loads the transcript model and selects a transcript.
func resolveTranscript(logger *zap.Logger, gene, transcriptID string) (*cache.Transcript, error) {
	defer logger.Sync()

	files, err := findDataFiles(viper.GetString("assembly"))
	if err != nil {
		return nil, err
	}
	c, err := loadTranscripts(files, logger)
	if err != nil {
		return nil, err
	}
	return c.Resolve(gene, transcriptID)
}

func printRegions(t *cache.Transcript, kind events.Type, regions []genome.GenomeRegion, label string) error {
	w := output.NewRegionTSVWriter(os.Stdout)
	if err := w.WriteHeader(); err != nil {
		return err
	}
	for _, r := range regions {
		if err := w.WriteRegion(extract.Region{
			Kind:         kind,
			Chrom:        r.Chrom,
			Start:        r.Start,
			End:          r.End,
			Gene:         t.GeneName,
			TranscriptID: t.ID,
			Event:        label,
		}); err != nil {
			return err
		}
	}
	return w.Flush()
}

func parseRank(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid rank %q: %w", s, errUsage)
	}
	return n, nil
}
