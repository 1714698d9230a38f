package main

import (
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/inodb/vibe-serve/internal/cache"
	"github.com/inodb/vibe-serve/internal/duckdb"
	"github.com/inodb/vibe-serve/internal/genome"
)

// loadTranscripts loads the transcript model, preferring the gob cache next to
// the GTF when its fingerprints still match.
func loadTranscripts(files dataFiles, logger *zap.Logger) (*cache.Cache, error) {
	gtfFP, err := duckdb.StatFile(files.GTF)
	if err != nil {
		return nil, fmt.Errorf("stat GTF: %w", err)
	}
	canonicalFP, err := duckdb.StatOptionalFile(files.Canonical)
	if err != nil {
		return nil, fmt.Errorf("stat canonical overrides: %w", err)
	}

	c := cache.New()
	tc := duckdb.NewTranscriptCache(files.Dir)
	if tc.Valid(gtfFP, canonicalFP) {
		loadErr := tc.Load(c)
		if loadErr == nil {
			logger.Info("loaded transcripts from cache",
				zap.Int("transcripts", c.TranscriptCount()))
			return c, nil
		}
		logger.Warn("transcript cache unreadable, reloading GTF", zap.Error(loadErr))
		c = cache.New()
	}

	loader := cache.NewGTFLoader(files.GTF)
	loader.SetLogger(logger)
	if files.Canonical != "" {
		overrides, err := cache.LoadCanonicalOverrides(files.Canonical)
		if err != nil {
			logger.Warn("could not load canonical overrides", zap.Error(err))
		} else {
			loader.SetCanonicalOverrides(overrides)
			logger.Info("loaded canonical overrides", zap.Int("genes", len(overrides)))
		}
	}

	if err := loader.Load(c); err != nil {
		return nil, fmt.Errorf("load GENCODE transcripts: %w", err)
	}
	logger.Info("loaded transcripts from GTF",
		zap.String("path", files.GTF),
		zap.Int("transcripts", c.TranscriptCount()))

	if err := tc.Write(c, gtfFP, canonicalFP); err != nil {
		logger.Warn("could not write transcript cache", zap.Error(err))
	}
	return c, nil
}

// loadReference loads the genome FASTA, restricted to chroms when given.
func loadReference(files dataFiles, logger *zap.Logger, chroms ...string) (*genome.Sequences, error) {
	if files.FASTA == "" {
		return nil, fmt.Errorf("no reference genome in %s (run: vibe-serve download)", files.Dir)
	}
	loader := genome.NewFASTALoader(files.FASTA)
	if len(chroms) > 0 {
		loader.OnlyChromosomes(chroms...)
	}
	ref, err := loader.Load()
	if err != nil {
		return nil, fmt.Errorf("load reference genome: %w", err)
	}
	logger.Info("loaded reference genome",
		zap.String("path", files.FASTA),
		zap.Int("chromosomes", ref.ChromosomeCount()))
	return ref, nil
}

// loadAll loads the transcript model and the full reference concurrently.
func loadAll(files dataFiles, logger *zap.Logger) (*cache.Cache, *genome.Sequences, error) {
	var (
		c   *cache.Cache
		ref *genome.Sequences
		g   errgroup.Group
	)
	g.Go(func() error {
		var err error
		c, err = loadTranscripts(files, logger)
		return err
	})
	g.Go(func() error {
		var err error
		ref, err = loadReference(files, logger)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return c, ref, nil
}
