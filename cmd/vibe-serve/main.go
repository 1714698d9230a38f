// Package main provides the vibe-serve command-line tool.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Exit codes
const (
	ExitSuccess = 0
	ExitError   = 1
	ExitUsage   = 2
)

// Version information (set at build time)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// errUsage marks command-line mistakes so they exit with ExitUsage.
var errUsage = errors.New("usage error")

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := newRootCmd()
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if errors.Is(err, errUsage) {
			return ExitUsage
		}
		return ExitError
	}
	return ExitSuccess
}

func newRootCmd() *cobra.Command {
	var (
		cfgFile string
		verbose bool
	)

	cmd := &cobra.Command{
		Use:   "vibe-serve",
		Short: "Resolve curated cancer variant events to genomic coordinates",
		Long: `vibe-serve turns knowledgebase events (V600E, G12, EXON 19 DELETION) into
the genomic variants and regions they describe, stores them, and matches
called variants against them.`,
		Example: `  # Download GENCODE annotations and the reference genome (one-time setup)
  vibe-serve download --assembly GRCh38

  # Resolve a protein change to candidate VCF variants
  vibe-serve hotspots BRAF V600E

  # Extract known events into a database
  vibe-serve extract events.tsv --db known.duckdb

  # Match called variants against the known events
  vibe-serve match calls.vcf --db known.duckdb`,
		Version:       fmt.Sprintf("%s (%s) built %s", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig(cfgFile)
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default: ~/.vibe-serve.yaml)")
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose (debug) logging")
	cmd.PersistentFlags().String("assembly", "GRCh38", "Genome assembly: GRCh37 or GRCh38")
	cmd.PersistentFlags().String("data-dir", "", "Data directory (default: ~/.vibe-serve)")
	viper.BindPFlag("assembly", cmd.PersistentFlags().Lookup("assembly"))
	viper.BindPFlag("data_dir", cmd.PersistentFlags().Lookup("data-dir"))

	logger := func() *zap.Logger { return newLogger(verbose) }

	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newDownloadCmd())
	cmd.AddCommand(newCodonsCmd(logger))
	cmd.AddCommand(newExonsCmd(logger))
	cmd.AddCommand(newHotspotsCmd(logger))
	cmd.AddCommand(newExtractCmd(logger))
	cmd.AddCommand(newMatchCmd(logger))

	return cmd
}

// initConfig reads ~/.vibe-serve.yaml (or the file given by --config) and
// VIBE_SERVE_* environment variables.
func initConfig(cfgFile string) error {
	viper.SetDefault("assembly", "GRCh38")
	viper.SetDefault("extract.splice_margin", 10)
	viper.SetDefault("extract.workers", 0)
	viper.SetDefault("output.format", "tsv")
	viper.SetDefault("match.cancer_genes", "")
	viper.SetDefault("match.pass_only", false)
	viper.SetDefault("match.alphamissense", "")

	viper.SetEnvPrefix("VIBE_SERVE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil
		}
		viper.AddConfigPath(home)
		viper.SetConfigName(".vibe-serve")
		viper.SetConfigType("yaml")
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

// newLogger builds a production logger writing to stderr, or a development
// logger at debug level when verbose is set.
func newLogger(verbose bool) *zap.Logger {
	var cfg zap.Config
	if verbose {
		cfg = zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	} else {
		cfg = zap.NewProductionConfig()
		cfg.Encoding = "console"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}

	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// dataDir returns the per-assembly data directory.
func dataDir() (string, error) {
	base := viper.GetString("data_dir")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine home directory: %w", err)
		}
		base = filepath.Join(home, ".vibe-serve")
	}
	return filepath.Join(base, strings.ToLower(viper.GetString("assembly"))), nil
}
